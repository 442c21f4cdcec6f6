// Package otp implements the email verification challenge: a row of digit
// cells, a countdown to resend eligibility, and the verify/resend calls.
package otp

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/eventsplatform/internal/logging"
)

const (
	DefaultWindowSeconds = 300
	DefaultCellCount     = 6
)

var (
	ErrIncomplete       = errors.New("code is incomplete")
	ErrResendNotAllowed = errors.New("resend not allowed yet")
	ErrBusy             = errors.New("another request is in flight")
	ErrClosed           = errors.New("challenge closed")
)

type Config struct {
	WindowSeconds int
	CellCount     int
}

func DefaultConfig() Config {
	return Config{WindowSeconds: DefaultWindowSeconds, CellCount: DefaultCellCount}
}

func (c Config) withDefaults() Config {
	if c.WindowSeconds <= 0 {
		c.WindowSeconds = DefaultWindowSeconds
	}
	if c.CellCount <= 0 {
		c.CellCount = DefaultCellCount
	}
	return c
}

// Verifier is the part of the remote API a challenge needs.
type Verifier interface {
	VerifyEmail(ctx context.Context, email, otp string) error
	ResendOTP(ctx context.Context, email string) error
}

type State int

const (
	StateEntering State = iota
	StateComplete
	StateExpired
	StateVerifying
	StateResending
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateEntering:
		return "entering"
	case StateComplete:
		return "complete"
	case StateExpired:
		return "expired"
	case StateVerifying:
		return "verifying"
	case StateResending:
		return "resending"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent copy of a challenge for display.
type Snapshot struct {
	Email          string
	Digits         []string
	Focus          int
	Remaining      int
	ResendEligible bool
	State          State
}

func (s Snapshot) FormatRemaining() string {
	return FormatRemaining(s.Remaining)
}

// TickerFunc starts a one-second ticker and returns its channel and stop.
type TickerFunc func() (<-chan time.Time, func())

func secondTicker() (<-chan time.Time, func()) {
	t := time.NewTicker(time.Second)
	return t.C, t.Stop
}

type Option func(*Challenge)

func WithTicker(fn TickerFunc) Option {
	return func(c *Challenge) { c.newTicker = fn }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Challenge) { c.logger = l }
}

// Challenge is one verify-email attempt. It lives from the moment the
// verify view opens until it is verified or abandoned; after Close every
// method returns ErrClosed and late results are dropped.
type Challenge struct {
	email    string
	verifier Verifier
	logger   logging.Logger

	newTicker TickerFunc

	mu        sync.Mutex
	cells     *Cells
	countdown *Countdown
	inflight  State // StateVerifying, StateResending or StateEntering for none
	closed    bool
	started   bool
	cancel    context.CancelFunc
	done      chan struct{}
	rearm     chan struct{}
}

func New(email string, v Verifier, cfg Config, opts ...Option) *Challenge {
	cfg = cfg.withDefaults()
	c := &Challenge{
		email:     email,
		verifier:  v,
		logger:    logging.NewNop(),
		newTicker: secondTicker,
		cells:     NewCells(cfg.CellCount),
		countdown: NewCountdown(cfg.WindowSeconds),
		rearm:     make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Challenge) Email() string {
	return c.email
}

// Start runs the countdown until ctx is done or the challenge is closed.
// Calling it more than once has no effect. A successful Resend replaces
// the ticker so the new window starts on a full second.
func (c *Challenge) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started || c.closed {
		c.mu.Unlock()
		return
	}
	c.started = true
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	ticks, stop := c.newTicker()
	done := c.done
	c.mu.Unlock()

	go func() {
		defer close(done)
		defer func() { stop() }()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.rearm:
				stop()
				ticks, stop = c.newTicker()
			case <-ticks:
				c.Tick()
			}
		}
	}()
}

// Close stops the countdown and discards the challenge. It waits for the
// ticker goroutine to exit and is safe to call more than once.
func (c *Challenge) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

// Tick advances the countdown by one second.
func (c *Challenge) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.countdown.Tick()
}

func (c *Challenge) Input(i int, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return c.cells.Input(i, value)
}

func (c *Challenge) Backspace(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	return c.cells.Backspace(i)
}

func (c *Challenge) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Challenge) stateLocked() State {
	switch {
	case c.closed:
		return StateClosed
	case c.inflight != StateEntering:
		return c.inflight
	case c.countdown.Remaining() == 0:
		return StateExpired
	case c.cells.Complete():
		return StateComplete
	default:
		return StateEntering
	}
}

func (c *Challenge) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Email:          c.email,
		Digits:         c.cells.Digits(),
		Focus:          c.cells.Focus(),
		Remaining:      c.countdown.Remaining(),
		ResendEligible: c.countdown.ResendEligible() && c.inflight != StateResending,
		State:          c.stateLocked(),
	}
}

// Submit sends the entered code. On acceptance the challenge closes; on
// rejection the digits stay as they were and the error is returned.
func (c *Challenge) Submit(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case c.inflight != StateEntering:
		c.mu.Unlock()
		return ErrBusy
	case !c.cells.Complete():
		c.mu.Unlock()
		return ErrIncomplete
	}
	code := c.cells.Code()
	c.inflight = StateVerifying
	c.mu.Unlock()

	err := c.verifier.VerifyEmail(ctx, c.email, code)

	c.mu.Lock()
	c.inflight = StateEntering
	closed := c.closed
	c.mu.Unlock()

	if closed {
		c.logger.Debug(ctx, "drop verify result of closed challenge", "email", c.email)
		return ErrClosed
	}
	if err != nil {
		return err
	}

	c.logger.Info(ctx, "email verified", "email", c.email)
	c.Close()
	return nil
}

// Resend asks for a new code once the countdown ran out. On success the
// window restarts and the cells are cleared.
func (c *Challenge) Resend(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case c.inflight != StateEntering:
		c.mu.Unlock()
		return ErrBusy
	case !c.countdown.ResendEligible():
		c.mu.Unlock()
		return ErrResendNotAllowed
	}
	c.inflight = StateResending
	c.mu.Unlock()

	err := c.verifier.ResendOTP(ctx, c.email)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight = StateEntering
	if c.closed {
		c.logger.Debug(ctx, "drop resend result of closed challenge", "email", c.email)
		return ErrClosed
	}
	if err != nil {
		return err
	}

	c.countdown.Reset()
	c.cells.Reset()
	if c.started {
		select {
		case c.rearm <- struct{}{}:
		default:
		}
	}
	c.logger.Info(ctx, "otp resent", "email", c.email)
	return nil
}
