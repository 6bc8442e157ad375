package quiz

import (
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// Anonymous attempt counts live in one browser cookie per device. The cookie
// is an anti-abuse speed bump, not a security boundary: the user can clear it,
// and concurrent tabs can lose an increment (last writer wins).
const localCountsCookie = "mp_attempts"

// LocalCounts is the per-device attempt tally for anonymous callers.
type LocalCounts struct {
	Practice int `json:"practice"`
	Standard int `json:"standard"`
	Timed    int `json:"timed"`
}

func (c LocalCounts) Get(mode Mode) int {
	switch mode {
	case ModePractice:
		return c.Practice
	case ModeStandard:
		return c.Standard
	case ModeTimed:
		return c.Timed
	}
	return 0
}

func (c *LocalCounts) bump(mode Mode) {
	switch mode {
	case ModePractice:
		c.Practice++
	case ModeStandard:
		c.Standard++
	case ModeTimed:
		c.Timed++
	}
}

// ReadLocalCounts returns the device's counts, treating a missing, truncated
// or otherwise unparsable cookie as "no prior attempts". Never errors.
func ReadLocalCounts(r *http.Request) LocalCounts {
	var counts LocalCounts
	c, err := r.Cookie(localCountsCookie)
	if err != nil || c.Value == "" {
		return counts
	}
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		log.Printf("local attempt counter: undecodable cookie, resetting to zero: %v", err)
		return LocalCounts{}
	}
	if err := json.Unmarshal(raw, &counts); err != nil {
		log.Printf("local attempt counter: corrupt cookie, resetting to zero: %v", err)
		return LocalCounts{}
	}
	return counts
}

// WriteLocalCounts rewrites the whole record.
func WriteLocalCounts(w http.ResponseWriter, counts LocalCounts, secure bool) {
	raw, err := json.Marshal(counts)
	if err != nil {
		log.Printf("local attempt counter: marshal failed: %v", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     localCountsCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(180 * 24 * time.Hour),
	})
}

// IncrementLocalCounts bumps one mode's tally and writes the record back,
// returning the updated counts.
func IncrementLocalCounts(w http.ResponseWriter, r *http.Request, mode Mode, secure bool) LocalCounts {
	counts := ReadLocalCounts(r)
	counts.bump(mode)
	WriteLocalCounts(w, counts, secure)
	return counts
}
