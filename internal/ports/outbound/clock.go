package outbound

import "time"

// Clock supplies the current time to the bid pipeline and the sweeper.
// Injectable so the anti-snipe rule and lifecycle transitions can be
// tested deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
