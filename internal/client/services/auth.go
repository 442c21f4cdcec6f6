// Package services contains application services for the events client.
// This file defines the authentication service: login, signup, logout,
// session status and the email verification challenge.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/eventsplatform/internal/client/api"
	"github.com/dmitrijs2005/eventsplatform/internal/client/credentials"
	"github.com/dmitrijs2005/eventsplatform/internal/client/guard"
	"github.com/dmitrijs2005/eventsplatform/internal/client/otp"
	"github.com/dmitrijs2005/eventsplatform/internal/logging"
)

// ErrNotLoggedIn is returned by Status when the store holds no session.
var ErrNotLoggedIn = errors.New("not logged in")

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: authenticate against the server and establish the session;
//     returns the landing path for the role.
//   - Signup: create an account; returns the verify path for the email.
//   - Logout: clear the whole session tuple. Idempotent.
//   - Status: the current session and what its access token says.
//   - NewChallenge: a verify-email challenge for email.
//
// All methods must honor context cancellation/timeouts.
type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	Signup(ctx context.Context, email, password string, role credentials.Role) (string, error)
	Logout(ctx context.Context) error
	Status(ctx context.Context) (Status, error)
	NewChallenge(email string) *otp.Challenge
}

// Status describes the stored session.
type Status struct {
	Credential credentials.Credential
	// Token is nil when the access token is not a readable JWT.
	Token *credentials.TokenInfo
}

// authService is the concrete AuthService backed by a remote Client
// and the credential store.
type authService struct {
	client api.Client
	store  credentials.Store
	otpCfg otp.Config
	logger logging.Logger
}

// NewAuthService constructs an AuthService bound to the given API client and store.
func NewAuthService(client api.Client, store credentials.Store, otpCfg otp.Config, logger logging.Logger) AuthService {
	return &authService{client: client, store: store, otpCfg: otpCfg, logger: logger}
}

// Login authenticates against the server and writes tokens and role in one
// step. A role the client does not know is stored as is; the guard will not
// let it past /login.
func (a *authService) Login(ctx context.Context, email, password string) (string, error) {
	res, err := a.client.Login(ctx, email, password)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}

	if !res.Role.Valid() {
		a.logger.Warn(ctx, "login returned unknown role", "role", res.Role)
	}

	cred := credentials.Credential{AccessToken: res.Access, RefreshToken: res.Refresh, Role: res.Role}
	if err := a.store.Establish(ctx, cred); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	a.logger.Info(ctx, "logged in", "role", res.Role)
	return guard.DefaultLanding(res.Role), nil
}

// Signup creates a new account and returns where the code is entered.
func (a *authService) Signup(ctx context.Context, email, password string, role credentials.Role) (string, error) {
	if err := a.client.Signup(ctx, email, password, role); err != nil {
		return "", fmt.Errorf("signup: %w", err)
	}
	a.logger.Info(ctx, "signed up", "role", role)
	return VerifyLocation(email), nil
}

// Logout wipes the local session. The server keeps no session to end.
func (a *authService) Logout(ctx context.Context) error {
	if err := a.store.Clear(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (a *authService) Status(ctx context.Context) (Status, error) {
	cred, err := a.store.Read(ctx)
	if err != nil {
		return Status{}, err
	}
	if !cred.HasSession() {
		return Status{}, ErrNotLoggedIn
	}

	st := Status{Credential: cred}
	if info, err := credentials.Inspect(cred.AccessToken); err == nil {
		st.Token = &info
	}
	return st, nil
}

func (a *authService) NewChallenge(email string) *otp.Challenge {
	return otp.New(email, a.client, a.otpCfg, otp.WithLogger(a.logger))
}
