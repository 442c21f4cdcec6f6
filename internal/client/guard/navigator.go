package guard

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/eventsplatform/internal/logging"
)

// Navigator tracks the current location of the client.
//
// Navigate is an in-app move. Reload is a full reset: every hook registered
// with OnReload runs first so no view state survives it. Hooks must not call
// back into the Navigator.
type Navigator struct {
	mu      sync.Mutex
	router  *Router
	logger  logging.Logger
	current Resolution
	// settled is set by Reload and cleared by Navigate.
	settled bool
	hooks   []func()
}

func NewNavigator(router *Router, logger logging.Logger) *Navigator {
	return &Navigator{router: router, logger: logger}
}

// OnReload registers fn to run on every effective Reload.
func (n *Navigator) OnReload(fn func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.hooks = append(n.hooks, fn)
}

func (n *Navigator) Current() Resolution {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

func (n *Navigator) Navigate(ctx context.Context, location string) (Resolution, error) {
	res, err := n.router.Resolve(ctx, location)
	if err != nil {
		return Resolution{}, err
	}

	n.mu.Lock()
	from := n.current.Location
	n.current = res
	n.settled = false
	n.mu.Unlock()

	n.logger.Debug(ctx, "navigated", "from", from, "to", res.Location, "redirected", res.Redirected)
	return res, nil
}

// Reload resolves location after discarding view state. Reloading to where
// the previous Reload already left the client does nothing and reports
// false.
func (n *Navigator) Reload(ctx context.Context, location string) (Resolution, bool, error) {
	res, err := n.router.Resolve(ctx, location)
	if err != nil {
		return Resolution{}, false, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.settled && n.current.Location == res.Location {
		return n.current, false, nil
	}
	for _, fn := range n.hooks {
		fn()
	}
	from := n.current.Location
	n.current = res
	n.settled = true

	n.logger.Info(ctx, "reloaded", "from", from, "to", res.Location)
	return res, true, nil
}

// Routes is the route table the navigator resolves against.
func (n *Navigator) Routes() []Route {
	return n.router.Routes()
}
