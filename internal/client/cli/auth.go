package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/eventsplatform/internal/client/api"
	"github.com/dmitrijs2005/eventsplatform/internal/client/credentials"
	"github.com/dmitrijs2005/eventsplatform/internal/client/guard"
	"github.com/dmitrijs2005/eventsplatform/internal/client/otp"
	"github.com/dmitrijs2005/eventsplatform/internal/client/services"
	"github.com/dmitrijs2005/eventsplatform/internal/common"
	"github.com/dmitrijs2005/eventsplatform/internal/metrics"
)

// getSimpleText, getPassword and getChoice are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getChoice     = GetChoice
)

var roleChoices = []string{credentials.RoleSeeker.String(), credentials.RoleFacilitator.String()}

// Login prompts for credentials, establishes the session and moves to the
// role's landing view.
//
// The password byte slice is wiped before returning. Service errors are
// shown to the user and returned.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	landing, err := a.authService.Login(ctx, email, string(password))
	if err != nil {
		printlnFn("Login failed:", userMessage(err))
		return err
	}

	printlnFn("Welcome back!")
	return a.Go(ctx, landing)
}

// Signup prompts for email, password and role, creates the account and
// opens the verify view for the email.
func (a *App) Signup(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(a.reader, os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	role, err := getChoice(a.reader, "Role", roleChoices, credentials.RoleSeeker.String(), os.Stdout)
	if err != nil {
		printlnFn(err.Error())
		return err
	}

	loc, err := a.authService.Signup(ctx, email, string(password), credentials.Role(role))
	if err != nil {
		printlnFn("Signup failed:", userMessage(err))
		return err
	}

	printlnFn("Account created. Check your email for the verification code.")
	return a.Go(ctx, loc)
}

// Logout clears the whole session and goes back to /login. Logging out
// twice is harmless.
func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		printlnFn("Logout failed:", err.Error())
		return err
	}
	printlnFn("Logged out.")
	return a.Go(ctx, guard.PathLogin)
}

// Status prints who is logged in, what the access token says and how much
// traffic the client has sent.
func (a *App) Status(ctx context.Context) error {
	st, err := a.authService.Status(ctx)
	if errors.Is(err, services.ErrNotLoggedIn) {
		printlnFn("Not logged in.")
		a.printTotals(ctx)
		return nil
	}
	if err != nil {
		return err
	}
	defer a.printTotals(ctx)

	printlnFn("Role:", st.Credential.Role)
	if st.Token != nil {
		if st.Token.Subject != "" {
			printlnFn("Subject:", st.Token.Subject)
		}
		if !st.Token.ExpiresAt.IsZero() {
			state := "valid"
			if st.Token.Expired(time.Now()) {
				state = "expired"
			}
			printlnFn(fmt.Sprintf("Token expires: %s (%s)", st.Token.ExpiresAt.Local().Format(time.RFC1123), state))
		}
	}
	return nil
}

func (a *App) printTotals(ctx context.Context) {
	if a.registry == nil {
		return
	}
	t, err := metrics.ReadTotals(a.registry)
	if err != nil {
		a.logger.Warn(ctx, "read metrics", "err", err)
		return
	}
	printlnFn(fmt.Sprintf("Requests sent: %.0f, sessions ended by the server: %.0f", t.Requests, t.Terminations))
}

// userMessage turns an error from the services into what the user sees.
func userMessage(err error) string {
	if apiErr, ok := api.AsError(err); ok {
		return apiErr.Message
	}
	switch {
	case errors.Is(err, api.ErrUnavailable):
		return "server unavailable, try again later"
	case errors.Is(err, api.ErrUnauthorized):
		return "not authorized"
	case errors.Is(err, api.ErrInvalidRequest):
		return err.Error()
	case errors.Is(err, otp.ErrIncomplete):
		return "please enter the complete code"
	case errors.Is(err, otp.ErrResendNotAllowed):
		return "you can request a new code when the countdown ends"
	default:
		return err.Error()
	}
}
