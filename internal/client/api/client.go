// Package api is the typed client of the events service auth endpoints and
// of the view-data GETs. It only speaks HTTP through the *http.Client it is
// given, so bearer stamping and 401 teardown happen in the transport.
package api

import (
	"context"
	"encoding/json"

	"github.com/dmitrijs2005/eventsplatform/internal/client/credentials"
)

// Endpoints of the events service.
const (
	PathLogin       = "/auth/login/"
	PathSignup      = "/auth/signup/"
	PathVerifyEmail = "/auth/verify-email/"
	PathResendOTP   = "/auth/resend-otp/"
)

// LoginResult is what a successful login hands back.
type LoginResult struct {
	Access  string           `json:"access"`
	Refresh string           `json:"refresh"`
	Role    credentials.Role `json:"role"`
}

type Client interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Signup(ctx context.Context, email, password string, role credentials.Role) error
	VerifyEmail(ctx context.Context, email, otp string) error
	ResendOTP(ctx context.Context, email string) error
	Fetch(ctx context.Context, path string) (json.RawMessage, error)
}
