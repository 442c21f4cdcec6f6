// Package transport builds the single HTTP client every call to the events
// service goes through. The round-tripper chain stamps the bearer credential
// on the way out and tears the session down when the service answers 401.
package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/eventsplatform/internal/client/credentials"
	"github.com/dmitrijs2005/eventsplatform/internal/client/events"
	"github.com/dmitrijs2005/eventsplatform/internal/common"
	"github.com/dmitrijs2005/eventsplatform/internal/logging"
	"github.com/dmitrijs2005/eventsplatform/internal/metrics"
	"github.com/google/uuid"
)

// Notifier receives the session-terminated notification after a 401.
type Notifier interface {
	SessionTerminated(ctx context.Context, ev events.SessionTerminated)
}

type options struct {
	base    http.RoundTripper
	logger  logging.Logger
	timeout time.Duration
	metrics *metrics.Transport
	now     func() time.Time
}

type Option func(*options)

// WithBase replaces http.DefaultTransport as the innermost round tripper.
func WithBase(rt http.RoundTripper) Option {
	return func(o *options) { o.base = rt }
}

func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTimeout sets http.Client.Timeout. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func WithMetrics(m *metrics.Transport) Option {
	return func(o *options) { o.metrics = m }
}

func withClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New returns an *http.Client wired to store. notifier may be nil.
//
// Chain, outer to inner: metrics, request id, bearer, unauthorized, base.
func New(store credentials.Store, notifier Notifier, opts ...Option) *http.Client {
	o := options{
		base:   http.DefaultTransport,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	var rt http.RoundTripper = &unauthorizedRoundTripper{
		next:     o.base,
		store:    store,
		notifier: notifier,
		logger:   o.logger,
		metrics:  o.metrics,
		now:      o.now,
	}
	rt = &bearerRoundTripper{next: rt, store: store, logger: o.logger}
	rt = &requestIDRoundTripper{next: rt, logger: o.logger}
	if o.metrics != nil {
		rt = o.metrics.Wrap(rt)
	}

	return &http.Client{Transport: rt, Timeout: o.timeout}
}

type requestIDRoundTripper struct {
	next   http.RoundTripper
	logger logging.Logger
}

func (t *requestIDRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get(common.RequestIDHeader) == "" {
		req = req.Clone(req.Context())
		req.Header.Set(common.RequestIDHeader, uuid.NewString())
	}

	id := req.Header.Get(common.RequestIDHeader)
	resp, err := t.next.RoundTrip(req)
	if err != nil {
		t.logger.Debug(req.Context(), "request failed",
			"request_id", id, "method", req.Method, "path", req.URL.Path, "err", err)
		return nil, err
	}
	t.logger.Debug(req.Context(), "request done",
		"request_id", id, "method", req.Method, "path", req.URL.Path, "status", resp.StatusCode)
	return resp, nil
}

// bearerRoundTripper is the outbound hook.
type bearerRoundTripper struct {
	next   http.RoundTripper
	store  credentials.Store
	logger logging.Logger
}

func (t *bearerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	cred, err := t.store.Read(req.Context())
	if err != nil {
		t.logger.Warn(req.Context(), "read credential, sending without it", "err", err)
		return t.next.RoundTrip(req)
	}
	if !cred.HasSession() {
		return t.next.RoundTrip(req)
	}

	req = req.Clone(req.Context())
	req.Header.Set(common.AuthorizationHeader, common.BearerValue(cred.AccessToken))
	return t.next.RoundTrip(req)
}

// unauthorizedRoundTripper is the inbound hook.
type unauthorizedRoundTripper struct {
	next     http.RoundTripper
	store    credentials.Store
	notifier Notifier
	logger   logging.Logger
	metrics  *metrics.Transport
	now      func() time.Time
}

func (t *unauthorizedRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.next.RoundTrip(req)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	// the caller may give up on the request; the teardown still has to finish
	ctx := context.WithoutCancel(req.Context())
	ev := events.SessionTerminated{
		Method:    req.Method,
		Path:      req.URL.Path,
		RequestID: req.Header.Get(common.RequestIDHeader),
		At:        t.now().UTC(),
	}

	if err := t.store.Clear(ctx); err != nil {
		t.logger.Error(ctx, "clear credential after 401", "request_id", ev.RequestID, "err", err)
	}
	t.logger.Warn(ctx, "session terminated by remote service",
		"request_id", ev.RequestID, "method", ev.Method, "path", ev.Path)

	if t.metrics != nil {
		t.metrics.SessionTerminated()
	}
	if t.notifier != nil {
		t.notifier.SessionTerminated(ctx, ev)
	}

	return resp, nil
}
