package domain

import "time"

// Clock is the time source used by every governance component.
//
// All refill, expiry and cooldown math is a pure function of Now(), which
// lets tests drive transitions with a synthetic clock instead of sleeping.
type Clock interface {
	Now() time.Time
}
