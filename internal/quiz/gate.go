package quiz

import (
	"context"
	"fmt"
	"log"
)

// AccessLevelPremium unlocks unlimited attempts in every mode.
const AccessLevelPremium = "premium"

// Free-tier attempt limits per mode. Policy constants, not data.
var freeLimits = map[Mode]int{
	ModePractice: 5,
	ModeStandard: 2,
	ModeTimed:    1,
}

func FreeLimit(mode Mode) int { return freeLimits[mode] }

// Gate is the single decision point for "may this caller start a quiz in
// this mode right now". Resolution failures fail open: an availability fault
// here must never lock a legitimate user out of a quiz.
type Gate struct {
	profiles ProfileStore
	counts   CounterBackend
}

func NewGate(profiles ProfileStore, counts CounterBackend) *Gate {
	return &Gate{profiles: profiles, counts: counts}
}

// CheckAnonymous decides for an unauthenticated caller whose attempt count
// was read from device-local storage by the HTTP layer.
func (g *Gate) CheckAnonymous(mode Mode, used int) Decision {
	limit := FreeLimit(mode)
	if used < limit {
		return Decision{CanAttempt: true, Limit: limit, Used: used}
	}
	return Decision{
		IsLoggedIn: false,
		Message:    fmt.Sprintf("You've used all %d free %s quizzes on this device. Sign up to keep studying.", limit, mode),
		Action:     "signup",
		Limit:      limit,
		Used:       used,
	}
}

// CheckUser decides for an authenticated caller: premium users are unlimited,
// free users are held to the per-mode limit against the server-side count.
func (g *Gate) CheckUser(ctx context.Context, userID string, mode Mode) Decision {
	level, err := g.profiles.AccessLevel(ctx, userID)
	if err != nil {
		log.Printf("entitlement gate: access level lookup failed for %s, allowing attempt: %v", userID, err)
		return Decision{CanAttempt: true, IsLoggedIn: true}
	}
	if level == AccessLevelPremium {
		return Decision{CanAttempt: true, IsLoggedIn: true}
	}

	used, err := g.counts.AttemptCount(ctx, userID, mode)
	if err != nil {
		log.Printf("entitlement gate: attempt count lookup failed for %s, allowing attempt: %v", userID, err)
		return Decision{CanAttempt: true, IsLoggedIn: true}
	}

	limit := FreeLimit(mode)
	if used < limit {
		return Decision{CanAttempt: true, IsLoggedIn: true, Limit: limit, Used: used}
	}
	return Decision{
		IsLoggedIn: true,
		Message:    fmt.Sprintf("You've used all %d free %s quizzes. Upgrade for unlimited attempts.", limit, mode),
		Action:     "upgrade",
		Limit:      limit,
		Used:       used,
	}
}
