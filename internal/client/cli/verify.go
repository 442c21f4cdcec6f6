package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/eventsplatform/internal/client/guard"
	"github.com/dmitrijs2005/eventsplatform/internal/client/otp"
)

var errNoChallenge = errors.New("no verification in progress")

// Verify handles the commands of the verify view:
//
//	<digits>          fill cells starting at the focused one
//	@<cell> <digits>  fill cells starting at cell (1-based)
//	-                 backspace on the focused cell
//	show              redraw the cells and the countdown
//	submit            send the code
//	resend            ask for a new code once the countdown ended
//	back              leave for /signup
func (a *App) Verify(ctx context.Context, args []string) error {
	ch := a.currentChallenge()
	if ch == nil {
		return errNoChallenge
	}

	switch cmd := args[0]; {
	case cmd == "back":
		return a.Go(ctx, guard.PathSignup)

	case cmd == "show":
		renderChallenge(ch.Snapshot())
		return nil

	case cmd == "-":
		if err := ch.Backspace(ch.Snapshot().Focus); err != nil {
			return err
		}

	case cmd == "submit":
		if err := ch.Submit(ctx); err != nil {
			if !errors.Is(err, otp.ErrClosed) {
				printlnFn("Verification failed:", userMessage(err))
			}
			return err
		}
		printlnFn("Email verified. You can log in now.")
		return a.Go(ctx, guard.PathLogin)

	case cmd == "resend":
		if err := ch.Resend(ctx); err != nil {
			if !errors.Is(err, otp.ErrClosed) {
				printlnFn("Resend failed:", userMessage(err))
			}
			return err
		}
		printlnFn("A new code is on its way.")

	case strings.HasPrefix(cmd, "@"):
		cell, err := strconv.Atoi(cmd[1:])
		if err != nil || len(args) < 2 {
			printlnFn("Usage: @<cell> <digits>")
			return fmt.Errorf("bad cell command %q", strings.Join(args, " "))
		}
		if err := ch.Input(cell-1, strings.Join(args[1:], "")); err != nil {
			printlnFn("Rejected:", err.Error())
			return err
		}

	default:
		if err := ch.Input(ch.Snapshot().Focus, strings.Join(args, "")); err != nil {
			printlnFn("Rejected:", err.Error())
			return err
		}
	}

	renderChallenge(ch.Snapshot())
	return nil
}

// renderChallenge draws e.g.
//
//	[1][2]>_<[_][_][_]  expires in 4:59
func renderChallenge(s otp.Snapshot) {
	var b strings.Builder
	for i, d := range s.Digits {
		if d == "" {
			d = "_"
		}
		if i == s.Focus {
			b.WriteString(">" + d + "<")
			continue
		}
		b.WriteString("[" + d + "]")
	}

	switch {
	case s.State == otp.StateClosed:
		b.WriteString("  done")
	case s.Remaining == 0:
		b.WriteString("  Code expired")
	default:
		b.WriteString("  expires in " + s.FormatRemaining())
	}
	if s.ResendEligible {
		b.WriteString("  (type 'resend' for a new code)")
	}
	printlnFn(b.String())
}
