package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/eventsplatform/internal/client/api"
	"github.com/dmitrijs2005/eventsplatform/internal/client/config"
	"github.com/dmitrijs2005/eventsplatform/internal/client/credentials"
	"github.com/dmitrijs2005/eventsplatform/internal/client/events"
	"github.com/dmitrijs2005/eventsplatform/internal/client/guard"
	"github.com/dmitrijs2005/eventsplatform/internal/client/otp"
	"github.com/dmitrijs2005/eventsplatform/internal/client/services"
	"github.com/dmitrijs2005/eventsplatform/internal/client/transport"
	"github.com/dmitrijs2005/eventsplatform/internal/logging"
	"github.com/dmitrijs2005/eventsplatform/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- helpers ----

type output struct {
	mu    sync.Mutex
	lines []string
}

func (o *output) String() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return strings.Join(o.lines, "\n")
}

func captureOutput(t *testing.T) *output {
	t.Helper()
	out := &output{}
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		out.mu.Lock()
		defer out.mu.Unlock()
		out.lines = append(out.lines, strings.TrimSuffix(fmt.Sprintln(a...), "\n"))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return out
}

func stubInputs(t *testing.T, email, password, role string) {
	t.Helper()
	origST, origGP, origGC := getSimpleText, getPassword, getChoice
	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) { return email, nil }
	getPassword = func(_ *bufio.Reader, _ io.Writer) ([]byte, error) { return []byte(password), nil }
	getChoice = func(_ *bufio.Reader, _ string, _ []string, _ string, _ io.Writer) (string, error) { return role, nil }
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
		getChoice = origGC
	})
}

// backend imitates the events service with canned replies per path.
type backend struct {
	mu      sync.Mutex
	replies map[string]reply
	bodies  map[string]map[string]string
	auth    map[string]string
}

type reply struct {
	status int
	body   string
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	rep, ok := b.replies[r.URL.Path]
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)
	b.bodies[r.URL.Path] = body
	b.auth[r.URL.Path] = r.Header.Get("Authorization")
	b.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rep.status)
	_, _ = io.WriteString(w, rep.body)
}

func (b *backend) authOf(path string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.auth[path]
}

func (b *backend) body(path string) map[string]string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bodies[path]
}

func newTestApp(t *testing.T, replies map[string]reply) (*App, *credentials.MemoryStore, *backend) {
	t.Helper()
	be := &backend{replies: replies, bodies: map[string]map[string]string{}, auth: map[string]string{}}
	srv := httptest.NewServer(be)
	t.Cleanup(srv.Close)

	logger := logging.NewNop()
	store := credentials.NewMemoryStore()
	bus := events.NewBus(logger)
	reg := prometheus.NewRegistry()
	client := api.NewHTTPClient(srv.URL, transport.New(store, bus, transport.WithMetrics(metrics.NewTransport(reg))))

	cfg := &config.Config{}
	cfg.LoadDefaults()

	a := newApp(cfg, store,
		services.NewAuthService(client, store, otp.DefaultConfig(), logger),
		services.NewViewService(client), bus, logger)
	a.registry = reg
	t.Cleanup(func() {
		_ = a.Close()
		_ = bus.Close()
	})
	return a, store, be
}

// ---- TESTS ----

func TestApp_LoginLandsOnRolePage(t *testing.T) {
	out := captureOutput(t)
	stubInputs(t, "f@x.io", "pw", "")
	a, store, be := newTestApp(t, map[string]reply{
		api.PathLogin:               {http.StatusOK, `{"access":"A1","refresh":"R1","role":"FACILITATOR"}`},
		"/events/events/my_events/": {http.StatusOK, `[{"id":1,"title":"Go meetup"}]`},
	})
	ctx := context.Background()

	require.NoError(t, a.Login(ctx))
	assert.Equal(t, guard.PathMyEvents, a.nav.Current().Location)
	assert.Contains(t, out.String(), "Go meetup")
	assert.Equal(t, "Bearer A1", be.authOf("/events/events/my_events/"))

	cred, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, credentials.Credential{AccessToken: "A1", RefreshToken: "R1", Role: credentials.RoleFacilitator}, cred)

	// seeker page bounces back to the facilitator's own page
	require.NoError(t, a.Go(ctx, guard.PathEvents))
	assert.Equal(t, guard.PathMyEvents, a.nav.Current().Location)
	assert.Equal(t, "(/my-events FACILITATOR)", a.getStatus(ctx))
}

func TestApp_LoginRejected(t *testing.T) {
	out := captureOutput(t)
	stubInputs(t, "s@x.io", "bad", "")
	a, store, _ := newTestApp(t, map[string]reply{
		api.PathLogin: {http.StatusBadRequest, `{"non_field_errors":["Invalid credentials"]}`},
	})

	require.Error(t, a.Login(context.Background()))
	assert.Contains(t, out.String(), "Login failed: Invalid credentials")

	cred, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.False(t, cred.HasSession())
}

func TestApp_UnauthorizedReturnsToLogin(t *testing.T) {
	out := captureOutput(t)
	a, store, _ := newTestApp(t, map[string]reply{
		"/events/events/": {http.StatusUnauthorized, `{"detail":"Given token not valid for any token type"}`},
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, store.Establish(ctx, credentials.Credential{AccessToken: "stale", RefreshToken: "R", Role: credentials.RoleSeeker}))
	require.NoError(t, a.StartSessionWatcher(ctx))

	err := a.Go(ctx, guard.PathEvents)
	require.ErrorIs(t, err, api.ErrUnauthorized)

	assert.Eventually(t, func() bool {
		return a.nav.Current().Location == guard.PathLogin
	}, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Your session has ended")
	}, time.Second, 5*time.Millisecond)

	cred, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, credentials.Credential{}, cred)
}

func TestApp_SignupVerifyFlow(t *testing.T) {
	out := captureOutput(t)
	stubInputs(t, "new@x.io", "secret1", "FACILITATOR")
	a, _, be := newTestApp(t, map[string]reply{
		api.PathSignup:      {http.StatusCreated, `{"email":"new@x.io","role":"FACILITATOR"}`},
		api.PathVerifyEmail: {http.StatusOK, `{"message":"Email verified successfully"}`},
	})
	ctx := context.Background()

	require.NoError(t, a.Signup(ctx))
	assert.Equal(t, "/verify?email=new%40x.io", a.nav.Current().Location)
	assert.Equal(t, "FACILITATOR", be.body(api.PathSignup)["role"])
	require.True(t, a.inVerify())

	assert.ErrorIs(t, a.Verify(ctx, []string{"submit"}), otp.ErrIncomplete)
	assert.Contains(t, out.String(), "please enter the complete code")

	require.NoError(t, a.Verify(ctx, []string{"123"}))
	require.NoError(t, a.Verify(ctx, []string{"@4", "456"}))
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, a.currentChallenge().Snapshot().Digits)

	require.NoError(t, a.Verify(ctx, []string{"submit"}))
	assert.Equal(t, map[string]string{"email": "new@x.io", "otp": "123456"}, be.body(api.PathVerifyEmail))
	assert.Equal(t, guard.PathLogin, a.nav.Current().Location)
	assert.False(t, a.inVerify())
}

func TestApp_VerifyRejectedKeepsDigits(t *testing.T) {
	out := captureOutput(t)
	a, _, _ := newTestApp(t, map[string]reply{
		api.PathVerifyEmail: {http.StatusBadRequest, `{"non_field_errors":["Invalid OTP"]}`},
	})
	ctx := context.Background()

	require.NoError(t, a.Go(ctx, "/verify?email=s%40x.io"))
	require.NoError(t, a.Verify(ctx, []string{"654321"}))
	require.Error(t, a.Verify(ctx, []string{"submit"}))

	assert.Contains(t, out.String(), "Verification failed: Invalid OTP")
	assert.Equal(t, "654321", strings.Join(a.currentChallenge().Snapshot().Digits, ""))

	// backspace on the focused last cell clears it
	require.NoError(t, a.Verify(ctx, []string{"-"}))
	assert.Equal(t, "", a.currentChallenge().Snapshot().Digits[5])

	require.NoError(t, a.Verify(ctx, []string{"back"}))
	assert.Equal(t, guard.PathSignup, a.nav.Current().Location)
	assert.False(t, a.inVerify())
}

func TestApp_VerifyWithoutEmail(t *testing.T) {
	out := captureOutput(t)
	a, _, _ := newTestApp(t, nil)

	require.NoError(t, a.Go(context.Background(), guard.PathVerify))
	assert.False(t, a.inVerify())
	assert.Contains(t, out.String(), "Which email?")
	assert.ErrorIs(t, a.Verify(context.Background(), []string{"1"}), errNoChallenge)
}

func TestApp_LogoutIsIdempotent(t *testing.T) {
	captureOutput(t)
	a, store, _ := newTestApp(t, nil)
	ctx := context.Background()
	require.NoError(t, store.Establish(ctx, credentials.Credential{AccessToken: "A", RefreshToken: "R", Role: credentials.RoleSeeker}))

	require.NoError(t, a.Logout(ctx))
	require.NoError(t, a.Logout(ctx))

	cred, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, credentials.Credential{}, cred)
	assert.Equal(t, guard.PathLogin, a.nav.Current().Location)
	assert.Equal(t, "(/login)", a.getStatus(ctx))
}

func TestApp_Menu(t *testing.T) {
	a, store, _ := newTestApp(t, nil)
	ctx := context.Background()

	assert.Contains(t, a.menu(ctx)[0], "login, signup")

	require.NoError(t, store.Establish(ctx, credentials.Credential{AccessToken: "A", Role: credentials.RoleSeeker}))
	menu := strings.Join(a.menu(ctx), "\n")
	assert.Contains(t, menu, "/events (Browse events)")
	assert.Contains(t, menu, "/my-enrollments (My enrollments)")
	assert.NotContains(t, menu, "/my-events")

	require.NoError(t, store.Establish(ctx, credentials.Credential{AccessToken: "A", Role: credentials.RoleFacilitator}))
	menu = strings.Join(a.menu(ctx), "\n")
	assert.Contains(t, menu, "/create-event (Create event)")
	assert.NotContains(t, menu, "/my-enrollments")
}

func TestApp_Status(t *testing.T) {
	out := captureOutput(t)
	a, store, _ := newTestApp(t, nil)
	ctx := context.Background()

	require.NoError(t, a.Status(ctx))
	assert.Contains(t, out.String(), "Not logged in.")
	assert.Contains(t, out.String(), "Requests sent: 0, sessions ended by the server: 0")

	require.NoError(t, store.Establish(ctx, credentials.Credential{AccessToken: "opaque", Role: credentials.RoleSeeker}))
	require.NoError(t, a.Status(ctx))
	assert.Contains(t, out.String(), "Role: SEEKER")
}

func TestApp_StatusReportsTraffic(t *testing.T) {
	out := captureOutput(t)
	a, store, _ := newTestApp(t, map[string]reply{
		"/events/events/": {http.StatusUnauthorized, `{"detail":"Given token not valid for any token type"}`},
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, store.Establish(ctx, credentials.Credential{AccessToken: "stale", RefreshToken: "R", Role: credentials.RoleSeeker}))
	require.NoError(t, a.StartSessionWatcher(ctx))

	require.ErrorIs(t, a.Go(ctx, guard.PathEvents), api.ErrUnauthorized)
	assert.Eventually(t, func() bool {
		return a.nav.Current().Location == guard.PathLogin
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, a.Status(ctx))
	assert.Contains(t, out.String(), "Requests sent: 1, sessions ended by the server: 1")

	totals, err := metrics.ReadTotals(a.registry)
	require.NoError(t, err)
	assert.Equal(t, metrics.Totals{Requests: 1, Terminations: 1}, totals)
}

func TestApp_RunReadsPromptsFromSharedInput(t *testing.T) {
	out := captureOutput(t)
	stubTerminal(t, false)
	a, _, be := newTestApp(t, map[string]reply{
		api.PathLogin:               {http.StatusOK, `{"access":"A1","refresh":"R1","role":"FACILITATOR"}`},
		"/events/events/my_events/": {http.StatusOK, `[]`},
	})
	a.reader = bufio.NewReader(strings.NewReader("login\nf@x.io\nsecret\nstatus\nexit\nstatus\n"))

	require.NoError(t, a.Run(context.Background()))

	assert.Equal(t, map[string]string{"email": "f@x.io", "password": "secret"}, be.body(api.PathLogin))
	assert.Equal(t, guard.PathMyEvents, a.nav.Current().Location)
	text := out.String()
	assert.Contains(t, text, "Role: FACILITATOR")
	assert.Equal(t, 1, strings.Count(text, "Role: FACILITATOR"), "input after exit must not run")
	assert.NotContains(t, text, "Unknown command")
}

func TestApp_ServesMetricsWhenConfigured(t *testing.T) {
	captureOutput(t)
	a, _, _ := newTestApp(t, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	a.config.MetricsAddr = addr
	a.serveMetrics(ctx)

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		body = string(b)
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)
	assert.Contains(t, body, "eventsplatform_client_requests_in_flight")
}

func TestRenderChallenge(t *testing.T) {
	out := captureOutput(t)

	renderChallenge(otp.Snapshot{Digits: []string{"1", "2", "", "", "", ""}, Focus: 2, Remaining: 299})
	renderChallenge(otp.Snapshot{Digits: make([]string, 6), Remaining: 0, ResendEligible: true, State: otp.StateExpired})

	assert.Equal(t,
		"[1][2]>_<[_][_][_]  expires in 4:59\n"+
			">_<[_][_][_][_][_]  Code expired  (type 'resend' for a new code)",
		out.String())
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "Invalid OTP", userMessage(&api.Error{StatusCode: 400, Message: "Invalid OTP"}))
	assert.Equal(t, "server unavailable, try again later", userMessage(fmt.Errorf("x: %w", api.ErrUnavailable)))
	assert.Equal(t, "you can request a new code when the countdown ends", userMessage(otp.ErrResendNotAllowed))
}
