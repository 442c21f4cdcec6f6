package otp

import "fmt"

// Countdown is the timer half of a challenge. It counts whole seconds down
// to zero, where a resend becomes possible.
type Countdown struct {
	window    int
	remaining int
	eligible  bool
}

func NewCountdown(windowSeconds int) *Countdown {
	c := &Countdown{window: max(windowSeconds, 0)}
	c.Reset()
	return c
}

func (c *Countdown) Tick() {
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining == 0 {
		c.eligible = true
	}
}

// Reset starts a new window and withdraws resend eligibility.
func (c *Countdown) Reset() {
	c.remaining = c.window
	c.eligible = c.window == 0
}

func (c *Countdown) Remaining() int {
	return c.remaining
}

func (c *Countdown) ResendEligible() bool {
	return c.eligible
}

// FormatRemaining renders seconds as m:ss.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
