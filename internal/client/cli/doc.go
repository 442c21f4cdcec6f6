// Package cli provides the interactive command-line client of the events
// platform.
//
// It wires configuration, the session store, the HTTP transport and the
// services into a REPL. Pages are routes resolved by the guard package; the
// verify page runs an OTP challenge whose countdown keeps ticking between
// commands.
//
// Key features:
//   - Login / Signup / Logout, with the session persisted between runs
//   - Role-scoped pages and a role-aware help menu
//   - Email verification with a code countdown and resend
//   - A background watcher that returns to /login when the service rejects
//     the session
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartSessionWatcher, and runREPL for details.
package cli
