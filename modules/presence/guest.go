package presence

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// GuestNamer produces display names for connections without an identity hint.
type GuestNamer func() string

// NewGuestNamer returns a namer producing "user" + HHMM + a number in [1000, 9999].
// now and intn may be nil to use the wall clock and math/rand.
func NewGuestNamer(now func() time.Time, intn func(n int) int) GuestNamer {
	if now == nil {
		now = time.Now
	}
	if intn == nil {
		intn = rand.IntN
	}
	return func() string {
		return fmt.Sprintf("user%s%d", now().Format("1504"), 1000+intn(9000))
	}
}
