// Package guard decides what a visitor may see. It holds the route table,
// the per-route role gate and the navigator that tracks the current
// location.
package guard

import (
	"slices"

	"github.com/dmitrijs2005/eventsplatform/internal/client/credentials"
)

type DecisionKind int

const (
	Render DecisionKind = iota
	Redirect
)

func (k DecisionKind) String() string {
	if k == Redirect {
		return "redirect"
	}
	return "render"
}

// Decision is the outcome of a guard check. Target is set for Redirect.
type Decision struct {
	Kind   DecisionKind
	Target string
}

// Guard gates a group of routes. An empty AllowedRoles only requires a
// session.
type Guard struct {
	AllowedRoles []credentials.Role
}

// Decide applies, in order: no session goes to /login, a role outside
// AllowedRoles goes to that role's landing, anything else renders. A
// session without a known role cannot be placed anywhere and goes to
// /login as well.
func (g Guard) Decide(c credentials.Credential) Decision {
	if !c.HasSession() {
		return Decision{Kind: Redirect, Target: PathLogin}
	}
	if len(g.AllowedRoles) == 0 || slices.Contains(g.AllowedRoles, c.Role) {
		return Decision{Kind: Render}
	}
	if !c.Role.Valid() {
		return Decision{Kind: Redirect, Target: PathLogin}
	}
	return Decision{Kind: Redirect, Target: DefaultLanding(c.Role)}
}

// DefaultLanding is where a role lands after login.
func DefaultLanding(r credentials.Role) string {
	if r == credentials.RoleFacilitator {
		return PathMyEvents
	}
	return PathEvents
}
