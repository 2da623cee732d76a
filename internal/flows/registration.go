package flows

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/bookly-de/customer_portal/internal/customer"
	"github.com/bookly-de/customer_portal/internal/otp"
	"github.com/bookly-de/customer_portal/internal/validation"
)

// ErrDraftExpired is returned when a code is confirmed but the registration
// draft is gone, e.g. after a restart.
var ErrDraftExpired = errors.New("Session expired, please start again.")

// Prechecker rejects an email or phone that is already registered.
type Prechecker interface {
	Precheck(ctx context.Context, email, phoneE164 string) error
}

// Registrar completes a registration and establishes its session.
type Registrar interface {
	Register(ctx context.Context, reg customer.Registration) error
}

// RegistrationForm is what the user typed on the sign-up screen.
type RegistrationForm struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	Phone           string
}

// Draft is a validated registration waiting for phone verification. It
// lives only in memory.
type Draft struct {
	Name      string
	Email     string
	Password  string
	PhoneE164 string
}

// Registration runs sign-up: validate, precheck, verify the phone, register.
type Registration struct {
	api      Prechecker
	identity Registrar
	otp      *otp.Controller

	mu    sync.Mutex
	draft *Draft
}

// NewRegistration wires a registration flow around its own OTP controller.
func NewRegistration(api Prechecker, identity Registrar, ctrl *otp.Controller) *Registration {
	return &Registration{api: api, identity: identity, otp: ctrl}
}

// Submit validates the form, checks for duplicates and texts a code.
func (r *Registration) Submit(ctx context.Context, form RegistrationForm) error {
	email := strings.TrimSpace(form.Email)
	if err := validation.First(
		validation.Required("name", form.Name, "Name is required."),
		validation.Email(email),
		validation.Password("password", form.Password),
		validation.PasswordsMatch(form.Password, form.ConfirmPassword),
		validation.Required("phone", form.Phone, "Phone is required."),
	); err != nil {
		return err
	}

	precheck := func(ctx context.Context, phoneE164 string) error {
		return r.api.Precheck(ctx, email, phoneE164)
	}
	if err := r.otp.Start(ctx, form.Phone, otp.PurposeRegistration, otp.WithPrecheck(precheck)); err != nil {
		return err
	}

	r.mu.Lock()
	r.draft = &Draft{
		Name:      strings.TrimSpace(form.Name),
		Email:     email,
		Password:  form.Password,
		PhoneE164: r.otp.Phone(),
	}
	r.mu.Unlock()
	return nil
}

// Resend texts another code to the draft's phone.
func (r *Registration) Resend(ctx context.Context) error {
	return r.otp.Resend(ctx)
}

// Confirm verifies code and registers the draft. A rejected registration
// keeps the challenge open for another attempt.
func (r *Registration) Confirm(ctx context.Context, code string) error {
	draft, ok := r.Draft()
	if !ok {
		return ErrDraftExpired
	}

	token, err := r.otp.Verify(ctx, code)
	if err != nil {
		return err
	}

	err = r.identity.Register(ctx, customer.Registration{
		Name:      draft.Name,
		Email:     draft.Email,
		Password:  draft.Password,
		PhoneE164: draft.PhoneE164,
		OTPToken:  token,
	})
	if err != nil {
		r.otp.Reopen()
		return err
	}
	r.Restart()
	return nil
}

// Restart drops the draft and any challenge.
func (r *Registration) Restart() {
	r.mu.Lock()
	r.draft = nil
	r.mu.Unlock()
	r.otp.Reset()
}

// Draft returns the pending draft, if any.
func (r *Registration) Draft() (Draft, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.draft == nil {
		return Draft{}, false
	}
	return *r.draft, true
}

// State reports the verification step.
func (r *Registration) State() otp.State {
	return r.otp.State()
}
