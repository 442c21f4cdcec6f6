package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

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
)

type App struct {
	config      *config.Config
	store       credentials.Store
	authService services.AuthService
	viewService *services.ViewService
	nav         *guard.Navigator
	bus         *events.Bus
	logger      logging.Logger
	reader      *bufio.Reader
	registry    *prometheus.Registry

	mu        sync.Mutex
	challenge *otp.Challenge

	closers []func() error
}

// NewApp wires the session store, the HTTP transport and the services.
// Close releases what it opened.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	store, closeStore, err := credentials.Open(ctx, credentials.Options{
		Backend:  c.StoreBackend,
		Path:     c.StorePath,
		RedisURL: c.RedisURL,
		Profile:  c.Profile,
	})
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	bus := events.NewBus(logger)
	reg := prometheus.NewRegistry()
	hc := transport.New(store, bus,
		transport.WithLogger(logger),
		transport.WithTimeout(c.RequestTimeout),
		transport.WithMetrics(metrics.NewTransport(reg)),
	)
	apiClient := api.NewHTTPClient(c.ServerURL, hc)

	otpCfg := otp.Config{WindowSeconds: int(c.OTPWindow.Seconds()), CellCount: c.OTPCellCount}
	a := newApp(c, store, services.NewAuthService(apiClient, store, otpCfg, logger), services.NewViewService(apiClient), bus, logger)
	a.registry = reg
	a.closers = append(a.closers, bus.Close, closeStore)
	return a, nil
}

func newApp(c *config.Config, store credentials.Store, as services.AuthService, vs *services.ViewService, bus *events.Bus, logger logging.Logger) *App {
	nav := guard.NewNavigator(guard.NewRouter(store, guard.DefaultRoutes()), logger)
	a := &App{
		config:      c,
		store:       store,
		authService: as,
		viewService: vs,
		nav:         nav,
		bus:         bus,
		logger:      logger,
		reader:      bufio.NewReader(os.Stdin),
	}
	nav.OnReload(a.closeChallenge)
	return a
}

// Run starts the session watcher and, when an address is configured, the
// metrics endpoint, then blocks in the REPL until the user leaves or ctx is
// done.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.StartSessionWatcher(ctx); err != nil {
		return err
	}
	a.serveMetrics(ctx)
	a.Root(ctx)
	return nil
}

func (a *App) serveMetrics(ctx context.Context) {
	if a.config.MetricsAddr == "" || a.registry == nil {
		return
	}
	go func() {
		a.logger.Info(ctx, "serving metrics", "addr", a.config.MetricsAddr)
		if err := metrics.Serve(ctx, a.config.MetricsAddr, a.registry); err != nil {
			a.logger.Error(ctx, "metrics endpoint", "addr", a.config.MetricsAddr, "err", err)
		}
	}()
}

func (a *App) Close() error {
	a.closeChallenge()
	var errs []error
	for _, fn := range a.closers {
		errs = append(errs, fn())
	}
	return errors.Join(errs...)
}

// StartSessionWatcher hard-reloads to /login whenever the transport reports
// that the service rejected the session. Events are handled one at a time
// in publish order.
func (a *App) StartSessionWatcher(ctx context.Context) error {
	evs, err := a.bus.Subscribe(ctx)
	if err != nil {
		return err
	}

	go func() {
		for ev := range evs {
			a.onSessionTerminated(ctx, ev)
		}
	}()
	return nil
}

func (a *App) onSessionTerminated(ctx context.Context, ev events.SessionTerminated) {
	_, changed, err := a.nav.Reload(ctx, guard.PathLogin)
	if err != nil {
		a.logger.Error(ctx, "reload after session termination", "request_id", ev.RequestID, "err", err)
		return
	}
	if changed {
		printlnFn("Your session has ended. Please log in again.")
	}
}

func (a *App) currentChallenge() *otp.Challenge {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.challenge
}

// openChallenge replaces any running challenge with a fresh one for email.
// An open challenge for the same email is kept.
func (a *App) openChallenge(ctx context.Context, email string) *otp.Challenge {
	a.mu.Lock()
	prev := a.challenge
	if prev != nil && prev.Email() == email && prev.State() != otp.StateClosed {
		a.mu.Unlock()
		return prev
	}
	ch := a.authService.NewChallenge(email)
	a.challenge = ch
	a.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
	ch.Start(ctx)
	return ch
}

func (a *App) closeChallenge() {
	a.mu.Lock()
	ch := a.challenge
	a.challenge = nil
	a.mu.Unlock()

	if ch != nil {
		ch.Close()
	}
}
