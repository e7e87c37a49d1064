package view

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/inventorypro/invctl/internal/session"
)

// Login collects credentials or triggers the browser sign-in flow,
// delegating to the session store. Errors surface as a generic message
// with no retry beyond the user typing again.
type Login struct {
	store *session.Store
	in    *bufio.Scanner
	out   io.Writer
}

// NewLogin creates a login view reading from in and writing to out. The
// scanner is shared with the shell loop so views do not steal buffered
// input from each other.
func NewLogin(store *session.Store, in *bufio.Scanner, out io.Writer) *Login {
	return &Login{store: store, in: in, out: out}
}

// Run prompts until a sign-in attempt is accepted by the provider or the
// input stream ends. The provider's change stream performs the actual
// navigation away from this view.
func (l *Login) Run(ctx context.Context) error {
	for {
		fmt.Fprint(l.out, "Email (or 'google' for browser sign-in): ")
		if !l.in.Scan() {
			return io.EOF
		}
		email := strings.TrimSpace(l.in.Text())
		if email == "" {
			continue
		}

		var err error
		if email == "google" {
			err = l.store.LoginWithBrowser(ctx)
		} else {
			fmt.Fprint(l.out, "Password: ")
			if !l.in.Scan() {
				return io.EOF
			}
			err = l.store.Login(ctx, email, l.in.Text())
		}
		if err != nil {
			fmt.Fprintln(l.out, "Failed to sign in. Please check your credentials.")
			continue
		}
		return nil
	}
}
