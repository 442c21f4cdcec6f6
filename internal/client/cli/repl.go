package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/eventsplatform/internal/client/guard"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	menu(ctx context.Context) []string
	inVerify() bool
	Go(ctx context.Context, location string) error
	Login(ctx context.Context) error
	Signup(ctx context.Context) error
	Logout(ctx context.Context) error
	Status(ctx context.Context) error
	Verify(ctx context.Context, args []string) error
}

// runREPL starts a simple read–eval–print loop for the events client.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Prompts opened by a command read from the
// same reader, so piped input stays in order. The loop exits on EOF, when
// ctx is done, or when the user types "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current location and role (from statusFn):
//
//	help           — commands and pages for the current session
//	go <path>      — open a page, e.g. go /events
//	login          — authenticate
//	signup         — create an account
//	logout         — end the session
//	status         — show the session
//	exit | quit    — leave the program
//
// On the verify page every other input goes to the code entry (see
// App.Verify).
//
// Errors returned by command handlers are ignored here; handlers print
// what the user needs to see.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("events %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			for _, l := range a.menu(ctx) {
				printlnFn(l)
			}

		case "go":
			if len(parts) < 2 {
				printlnFn("Usage: go <path>")
				continue
			}
			_ = a.Go(ctx, parts[1])

		case "login":
			_ = a.Login(ctx)

		case "signup":
			_ = a.Signup(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "status":
			_ = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			if a.inVerify() {
				_ = a.Verify(ctx, parts)
				continue
			}
			printlnFn("Unknown command:", cmd)
		}
	}
}

// Root greets the user, opens the landing page for the stored session and
// runs the REPL on stdin.
func (a *App) Root(ctx context.Context) {
	printlnFn("Welcome to the Events Platform client (type 'help' for commands)")

	start := guard.PathIndex
	if cred, err := a.store.Read(ctx); err == nil && cred.HasSession() && cred.Role.Valid() {
		start = guard.DefaultLanding(cred.Role)
	}
	_ = a.Go(ctx, start)

	runREPL(ctx, a, func() string { return a.getStatus(ctx) }, a.reader)
}

func (a *App) inVerify() bool {
	return a.currentChallenge() != nil
}
