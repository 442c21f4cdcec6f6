package otp

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeVerifier struct {
	mu        sync.Mutex
	verifyErr error
	resendErr error
	codes     []string
	resends   int
	// when set, calls block until the channel is closed
	gate chan struct{}
	// entered receives once a call is inside the verifier
	entered chan struct{}
}

func (f *fakeVerifier) wait() {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
}

func (f *fakeVerifier) VerifyEmail(_ context.Context, _ string, otp string) error {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.codes = append(f.codes, otp)
	return f.verifyErr
}

func (f *fakeVerifier) ResendOTP(context.Context, string) error {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resends++
	return f.resendErr
}

func manualTicker() (chan time.Time, TickerFunc) {
	ch := make(chan time.Time)
	return ch, func() (<-chan time.Time, func()) { return ch, func() {} }
}

type recordedTicker struct {
	ch      chan time.Time
	stopped bool
}

// recordingTickers hands out a fresh channel per ticker and remembers which
// ones were stopped.
type recordingTickers struct {
	mu      sync.Mutex
	tickers []*recordedTicker
}

func (r *recordingTickers) newTicker() (<-chan time.Time, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rt := &recordedTicker{ch: make(chan time.Time)}
	r.tickers = append(r.tickers, rt)
	return rt.ch, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		rt.stopped = true
	}
}

func (r *recordingTickers) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tickers)
}

func (r *recordingTickers) get(i int) (chan time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tickers[i].ch, r.tickers[i].stopped
}

func TestChallenge_Defaults(t *testing.T) {
	c := New("s@x.io", &fakeVerifier{}, Config{})
	s := c.Snapshot()
	assert.Equal(t, "s@x.io", s.Email)
	assert.Len(t, s.Digits, DefaultCellCount)
	assert.Equal(t, DefaultWindowSeconds, s.Remaining)
	assert.Equal(t, "5:00", s.FormatRemaining())
	assert.Equal(t, StateEntering, s.State)
}

func TestChallenge_SubmitIncomplete(t *testing.T) {
	v := &fakeVerifier{}
	c := New("s@x.io", v, DefaultConfig())
	require.NoError(t, c.Input(0, "123"))

	assert.ErrorIs(t, c.Submit(context.Background()), ErrIncomplete)
	assert.Empty(t, v.codes)
}

func TestChallenge_SubmitAcceptedCloses(t *testing.T) {
	v := &fakeVerifier{}
	c := New("s@x.io", v, DefaultConfig())
	require.NoError(t, c.Input(0, "123456"))
	assert.Equal(t, StateComplete, c.State())

	require.NoError(t, c.Submit(context.Background()))
	assert.Equal(t, []string{"123456"}, v.codes)
	assert.Equal(t, StateClosed, c.State())
	assert.ErrorIs(t, c.Input(0, "1"), ErrClosed)
}

func TestChallenge_SubmitRejectedKeepsDigits(t *testing.T) {
	rejected := errors.New("Invalid OTP")
	v := &fakeVerifier{verifyErr: rejected}
	c := New("s@x.io", v, DefaultConfig())
	require.NoError(t, c.Input(0, "654321"))

	assert.ErrorIs(t, c.Submit(context.Background()), rejected)
	s := c.Snapshot()
	assert.Equal(t, []string{"6", "5", "4", "3", "2", "1"}, s.Digits)
	assert.Equal(t, StateComplete, s.State)
}

func TestChallenge_ResendCycle(t *testing.T) {
	v := &fakeVerifier{}
	c := New("s@x.io", v, DefaultConfig())
	ctx := context.Background()
	require.NoError(t, c.Input(0, "12"))

	assert.ErrorIs(t, c.Resend(ctx), ErrResendNotAllowed)

	for i := 0; i < 300; i++ {
		c.Tick()
	}
	s := c.Snapshot()
	assert.Equal(t, 0, s.Remaining)
	assert.True(t, s.ResendEligible)
	assert.Equal(t, StateExpired, s.State)
	assert.Equal(t, "0:00", s.FormatRemaining())

	require.NoError(t, c.Resend(ctx))
	s = c.Snapshot()
	assert.Equal(t, 300, s.Remaining)
	assert.False(t, s.ResendEligible)
	assert.Equal(t, []string{"", "", "", "", "", ""}, s.Digits)
	assert.Equal(t, 0, s.Focus)
	assert.Equal(t, 1, v.resends)
}

func TestChallenge_ResendRestartsTicker(t *testing.T) {
	rec := &recordingTickers{}
	c := New("s@x.io", &fakeVerifier{}, Config{WindowSeconds: 2, CellCount: 6}, WithTicker(rec.newTicker))
	c.Start(context.Background())

	first, _ := rec.get(0)
	first <- time.Now()
	first <- time.Now()
	require.Eventually(t, func() bool { return c.Snapshot().Remaining == 0 }, time.Second, 5*time.Millisecond)

	require.NoError(t, c.Resend(context.Background()))
	require.Eventually(t, func() bool { return rec.count() == 2 }, time.Second, 5*time.Millisecond)
	_, stopped := rec.get(0)
	assert.True(t, stopped, "old ticker must be stopped")

	second, stopped := rec.get(1)
	assert.False(t, stopped)
	second <- time.Now()
	assert.Eventually(t, func() bool { return c.Snapshot().Remaining == 1 }, time.Second, 5*time.Millisecond)

	c.Close()
	_, stopped = rec.get(1)
	assert.True(t, stopped)
}

func TestChallenge_ResendBeforeStartKeepsTicker(t *testing.T) {
	rec := &recordingTickers{}
	c := New("s@x.io", &fakeVerifier{}, Config{WindowSeconds: 1, CellCount: 6}, WithTicker(rec.newTicker))
	c.Tick()
	require.NoError(t, c.Resend(context.Background()))

	c.Start(context.Background())
	defer c.Close()

	first, _ := rec.get(0)
	first <- time.Now()
	assert.Eventually(t, func() bool { return c.Snapshot().Remaining == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, rec.count())
}

func TestChallenge_ResendFailureChangesNothing(t *testing.T) {
	v := &fakeVerifier{resendErr: errors.New("mail down")}
	c := New("s@x.io", v, Config{WindowSeconds: 2, CellCount: 6})
	require.NoError(t, c.Input(0, "12"))
	c.Tick()
	c.Tick()

	require.Error(t, c.Resend(context.Background()))
	s := c.Snapshot()
	assert.Equal(t, 0, s.Remaining)
	assert.True(t, s.ResendEligible)
	assert.Equal(t, []string{"1", "2", "", "", "", ""}, s.Digits)
}

func TestChallenge_OneRequestAtATime(t *testing.T) {
	v := &fakeVerifier{gate: make(chan struct{}), entered: make(chan struct{})}
	c := New("s@x.io", v, Config{WindowSeconds: 1, CellCount: 6})
	ctx := context.Background()
	require.NoError(t, c.Input(0, "123456"))
	c.Tick()

	errc := make(chan error, 1)
	go func() { errc <- c.Submit(ctx) }()
	<-v.entered

	assert.Equal(t, StateVerifying, c.State())
	assert.ErrorIs(t, c.Submit(ctx), ErrBusy)
	assert.ErrorIs(t, c.Resend(ctx), ErrBusy)
	// typing is still allowed
	require.NoError(t, c.Backspace(5))

	close(v.gate)
	// the code was captured when the call started
	require.NoError(t, <-errc)
	assert.Equal(t, []string{"123456"}, v.codes)
}

func TestChallenge_ResendingHidesEligibility(t *testing.T) {
	v := &fakeVerifier{gate: make(chan struct{}), entered: make(chan struct{})}
	c := New("s@x.io", v, Config{WindowSeconds: 1, CellCount: 6})
	c.Tick()

	errc := make(chan error, 1)
	go func() { errc <- c.Resend(context.Background()) }()
	<-v.entered

	s := c.Snapshot()
	assert.Equal(t, StateResending, s.State)
	assert.False(t, s.ResendEligible)

	close(v.gate)
	require.NoError(t, <-errc)
	assert.Equal(t, 1, c.Snapshot().Remaining)
}

func TestChallenge_CloseDropsLateResult(t *testing.T) {
	v := &fakeVerifier{gate: make(chan struct{}), entered: make(chan struct{})}
	c := New("s@x.io", v, DefaultConfig())
	require.NoError(t, c.Input(0, "123456"))

	errc := make(chan error, 1)
	go func() { errc <- c.Submit(context.Background()) }()
	<-v.entered

	c.Close()
	close(v.gate)
	assert.ErrorIs(t, <-errc, ErrClosed)
	assert.Equal(t, StateClosed, c.State())
}

func TestChallenge_StartTicksUntilClose(t *testing.T) {
	ticks, fn := manualTicker()
	c := New("s@x.io", &fakeVerifier{}, Config{WindowSeconds: 3, CellCount: 6}, WithTicker(fn))
	c.Start(context.Background())
	c.Start(context.Background())

	ticks <- time.Now()
	ticks <- time.Now()
	assert.Eventually(t, func() bool { return c.Snapshot().Remaining == 1 }, time.Second, 5*time.Millisecond)

	c.Close()
	c.Close()

	select {
	case ticks <- time.Now():
		t.Fatal("ticker goroutine still running after Close")
	case <-time.After(20 * time.Millisecond):
	}
	assert.Equal(t, 1, c.Snapshot().Remaining)
}

func TestChallenge_StartStopsWithContext(t *testing.T) {
	ticks, fn := manualTicker()
	c := New("s@x.io", &fakeVerifier{}, DefaultConfig(), WithTicker(fn))
	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)
	cancel()

	select {
	case ticks <- time.Now():
		// the goroutine may take the tick before it sees the cancellation
	case <-time.After(20 * time.Millisecond):
	}
	c.Close()
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "entering", StateEntering.String())
	assert.Equal(t, "complete", StateComplete.String())
	assert.Equal(t, "expired", StateExpired.String())
	assert.Equal(t, "verifying", StateVerifying.String())
	assert.Equal(t, "resending", StateResending.String())
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "unknown", State(42).String())
}
