package flows

import (
	"context"
	"strings"

	"github.com/bookly-de/customer_portal/internal/validation"
)

// Authenticator exchanges credentials for a session.
type Authenticator interface {
	Login(ctx context.Context, email, password string) error
}

// SignIn validates credentials locally before logging in.
type SignIn struct {
	identity Authenticator
}

// NewSignIn wires the flow.
func NewSignIn(identity Authenticator) *SignIn {
	return &SignIn{identity: identity}
}

// Submit logs in with email and password.
func (s *SignIn) Submit(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if err := validation.First(
		validation.Email(email),
		validation.Required("password", password, "Password is required."),
	); err != nil {
		return err
	}
	return s.identity.Login(ctx, email, password)
}
