package guard

import (
	"slices"

	"github.com/dmitrijs2005/eventsplatform/internal/client/credentials"
)

const (
	PathIndex         = "/"
	PathLogin         = "/login"
	PathSignup        = "/signup"
	PathVerify        = "/verify"
	PathEvents        = "/events"
	PathMyEnrollments = "/my-enrollments"
	PathMyEvents      = "/my-events"
	PathCreateEvent   = "/create-event"
)

// View names what the terminal renders for a route.
type View string

const (
	ViewLogin         View = "login"
	ViewSignup        View = "signup"
	ViewVerify        View = "verify"
	ViewEvents        View = "events"
	ViewMyEnrollments View = "my-enrollments"
	ViewMyEvents      View = "my-events"
	ViewCreateEvent   View = "create-event"
)

type Route struct {
	Path  string
	View  View
	Title string
	// Guard is nil for public routes.
	Guard *Guard
	// Redirect, when set, sends the visitor elsewhere unconditionally.
	Redirect string
}

// DefaultRoutes is the route table of the client.
func DefaultRoutes() []Route {
	seeker := &Guard{AllowedRoles: []credentials.Role{credentials.RoleSeeker}}
	facilitator := &Guard{AllowedRoles: []credentials.Role{credentials.RoleFacilitator}}

	return []Route{
		{Path: PathLogin, View: ViewLogin, Title: "Log in"},
		{Path: PathSignup, View: ViewSignup, Title: "Sign up"},
		{Path: PathVerify, View: ViewVerify, Title: "Verify email"},
		{Path: PathIndex, Redirect: PathLogin},
		{Path: PathEvents, View: ViewEvents, Title: "Browse events", Guard: seeker},
		{Path: PathMyEnrollments, View: ViewMyEnrollments, Title: "My enrollments", Guard: seeker},
		{Path: PathMyEvents, View: ViewMyEvents, Title: "My events", Guard: facilitator},
		{Path: PathCreateEvent, View: ViewCreateEvent, Title: "Create event", Guard: facilitator},
	}
}

// Menu lists the guarded routes role may open, in table order.
func Menu(routes []Route, role credentials.Role) []Route {
	var out []Route
	for _, r := range routes {
		if r.Guard == nil || len(r.Guard.AllowedRoles) == 0 {
			continue
		}
		if slices.Contains(r.Guard.AllowedRoles, role) {
			out = append(out, r)
		}
	}
	return out
}
