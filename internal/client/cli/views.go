package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/dmitrijs2005/eventsplatform/internal/client/api"
	"github.com/dmitrijs2005/eventsplatform/internal/client/credentials"
	"github.com/dmitrijs2005/eventsplatform/internal/client/guard"
	"github.com/dmitrijs2005/eventsplatform/internal/client/services"
)

// Go navigates to location and renders whatever view the guard let through.
func (a *App) Go(ctx context.Context, location string) error {
	res, err := a.nav.Navigate(ctx, location)
	if err != nil {
		if errors.Is(err, guard.ErrUnknownRoute) {
			printlnFn("No such page:", location)
		}
		return err
	}
	if res.Route.View != guard.ViewVerify {
		a.closeChallenge()
	}
	return a.render(ctx, res)
}

func (a *App) render(ctx context.Context, res guard.Resolution) error {
	printlnFn("==", res.Route.Title, "==")

	switch res.Route.View {
	case guard.ViewLogin:
		printlnFn("Type 'login' to sign in or 'go /signup' to create an account.")
		return nil

	case guard.ViewSignup:
		printlnFn("Type 'signup' to create an account.")
		return nil

	case guard.ViewVerify:
		email := res.Query.Get("email")
		if email == "" {
			printlnFn("Which email? Use: go " + services.VerifyLocation("you@example.com"))
			return nil
		}
		ch := a.openChallenge(ctx, email)
		printlnFn("We sent a code to", email)
		printlnFn("Type digits to fill cells, '@<cell> <digits>' to start at a cell, '-' to erase, 'submit', 'resend' or 'back'.")
		renderChallenge(ch.Snapshot())
		return nil

	case guard.ViewCreateEvent:
		printlnFn("Creating events is not available in the terminal client.")
		return nil
	}

	body, err := a.viewService.Load(ctx, res.Route.View)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			// the session watcher takes the client to /login
			return err
		}
		printlnFn("Could not load data:", userMessage(err))
		return err
	}
	printlnFn(prettyJSON(body))
	return nil
}

func prettyJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// menu lists the commands that make sense for the stored session, with the
// role's pages like the navigation bar of the web client.
func (a *App) menu(ctx context.Context) []string {
	cred, err := a.store.Read(ctx)
	if err != nil || !cred.HasSession() {
		return []string{"Available commands: login, signup, go <path>, exit",
			"Pages: /login, /signup, /verify?email=<email>"}
	}

	var pages []string
	for _, r := range guard.Menu(a.nav.Routes(), cred.Role) {
		pages = append(pages, r.Path+" ("+r.Title+")")
	}
	lines := []string{"Available commands: go <path>, status, logout, exit"}
	if len(pages) > 0 {
		lines = append(lines, "Pages: "+strings.Join(pages, ", "))
	}
	return lines
}

// getStatus is shown in the prompt: current location and role.
func (a *App) getStatus(ctx context.Context) string {
	loc := a.nav.Current().Location
	if loc == "" {
		loc = "-"
	}
	cred, err := a.store.Read(ctx)
	if err != nil || !cred.HasSession() {
		return "(" + loc + ")"
	}
	role := cred.Role
	if role == "" {
		role = credentials.Role("?")
	}
	return "(" + loc + " " + role.String() + ")"
}
