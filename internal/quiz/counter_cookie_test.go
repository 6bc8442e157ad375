package quiz

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func requestWithCookie(value string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/quiz/allowance", nil)
	if value != "" {
		r.AddCookie(&http.Cookie{Name: "mp_attempts", Value: value})
	}
	return r
}

func TestReadLocalCountsAbsentCookie(t *testing.T) {
	counts := ReadLocalCounts(requestWithCookie(""))
	if counts.Get(ModePractice) != 0 || counts.Get(ModeStandard) != 0 || counts.Get(ModeTimed) != 0 {
		t.Fatalf("missing cookie must read as zero counts: %+v", counts)
	}
}

func TestReadLocalCountsCorruptCookie(t *testing.T) {
	for _, v := range []string{"not-base64!!", "bm90LWpzb24"} { // second is base64("not-json")
		counts := ReadLocalCounts(requestWithCookie(v))
		if counts != (LocalCounts{}) {
			t.Fatalf("corrupt cookie %q must read as zero counts: %+v", v, counts)
		}
	}
}

func TestIncrementLocalCountsRoundTrip(t *testing.T) {
	w := httptest.NewRecorder()
	r := requestWithCookie("")

	counts := IncrementLocalCounts(w, r, ModeTimed, false)
	if counts.Timed != 1 || counts.Practice != 0 || counts.Standard != 0 {
		t.Fatalf("unexpected counts after increment: %+v", counts)
	}

	// Feed the written cookie back through a second request.
	res := w.Result()
	cookies := res.Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie written, got %d", len(cookies))
	}
	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2.AddCookie(cookies[0])

	counts2 := ReadLocalCounts(r2)
	if counts2.Timed != 1 {
		t.Fatalf("round-tripped timed count = %d; want 1", counts2.Timed)
	}

	w2 := httptest.NewRecorder()
	counts3 := IncrementLocalCounts(w2, r2, ModeTimed, false)
	if counts3.Timed != 2 {
		t.Fatalf("second increment = %d; want 2", counts3.Timed)
	}
}

func TestIncrementOnlyTouchesOneMode(t *testing.T) {
	w := httptest.NewRecorder()
	counts := IncrementLocalCounts(w, requestWithCookie(""), ModePractice, false)
	if counts.Practice != 1 || counts.Standard != 0 || counts.Timed != 0 {
		t.Fatalf("increment leaked across modes: %+v", counts)
	}
}
