package guard

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/dmitrijs2005/eventsplatform/internal/client/credentials"
)

// maxHops bounds redirect chains.
const maxHops = 8

var (
	ErrUnknownRoute = errors.New("unknown route")
	ErrRedirectLoop = errors.New("redirect loop")
	ErrBadLocation  = errors.New("bad location")
)

// Resolution is where a navigation ended up.
type Resolution struct {
	Route Route
	// Location is the final path including its query.
	Location string
	Query    url.Values
	// Redirected is true when the requested location was not the one
	// rendered.
	Redirected bool
}

// Router resolves locations against a route table and the credential
// store. The store is read on every call.
type Router struct {
	routes map[string]Route
	order  []Route
	store  credentials.Store
}

func NewRouter(store credentials.Store, routes []Route) *Router {
	r := &Router{routes: make(map[string]Route, len(routes)), order: routes, store: store}
	for _, rt := range routes {
		r.routes[rt.Path] = rt
	}
	return r
}

// Routes returns the table in declaration order.
func (r *Router) Routes() []Route {
	return r.order
}

// Resolve applies route redirects and guards until a route renders.
func (r *Router) Resolve(ctx context.Context, location string) (Resolution, error) {
	u, err := url.Parse(location)
	if err != nil {
		return Resolution{}, fmt.Errorf("%w: %q: %v", ErrBadLocation, location, err)
	}
	path := u.Path
	if path == "" {
		path = PathIndex
	}

	cred, err := r.store.Read(ctx)
	if err != nil {
		return Resolution{}, fmt.Errorf("read session: %w", err)
	}

	redirected := false
	for hop := 0; hop < maxHops; hop++ {
		rt, ok := r.routes[path]
		if !ok {
			return Resolution{}, fmt.Errorf("%w: %s", ErrUnknownRoute, path)
		}

		target := rt.Redirect
		if target == "" && rt.Guard != nil {
			if d := rt.Guard.Decide(cred); d.Kind == Redirect {
				target = d.Target
			}
		}
		if target == "" {
			res := Resolution{Route: rt, Location: path, Redirected: redirected}
			if !redirected {
				res.Query = u.Query()
				if u.RawQuery != "" {
					res.Location = path + "?" + u.RawQuery
				}
			}
			return res, nil
		}

		path = target
		redirected = true
	}
	return Resolution{}, fmt.Errorf("%w: from %s", ErrRedirectLoop, location)
}
