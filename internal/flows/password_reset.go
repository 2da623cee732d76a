package flows

import (
	"context"

	"github.com/bookly-de/customer_portal/internal/otp"
	"github.com/bookly-de/customer_portal/internal/validation"
)

// PasswordResetter sets a new password for the account owning a phone.
type PasswordResetter interface {
	ResetPassword(ctx context.Context, phoneE164, code, otpToken, newPassword string) error
}

// PasswordReset lets a signed-out customer set a new password by proving
// they own the account's phone. The caller sends the user to sign in after
// Confirm succeeds.
type PasswordReset struct {
	api PasswordResetter
	otp *otp.Controller
}

// NewPasswordReset wires the flow.
func NewPasswordReset(api PasswordResetter, ctrl *otp.Controller) *PasswordReset {
	return &PasswordReset{api: api, otp: ctrl}
}

// Start texts a code to the account phone.
func (p *PasswordReset) Start(ctx context.Context, rawPhone string) error {
	return p.otp.Start(ctx, rawPhone, otp.PurposePasswordReset)
}

// Resend texts another code.
func (p *PasswordReset) Resend(ctx context.Context) error {
	return p.otp.Resend(ctx)
}

// Confirm checks the new password locally, verifies code and resets.
func (p *PasswordReset) Confirm(ctx context.Context, code, newPassword, confirm string) error {
	if err := validation.First(
		validation.Password("newPassword", newPassword),
		validation.PasswordsMatch(newPassword, confirm),
	); err != nil {
		return err
	}

	token, err := p.otp.Verify(ctx, code)
	if err != nil {
		return err
	}
	if err := p.api.ResetPassword(ctx, p.otp.Phone(), code, token, newPassword); err != nil {
		p.otp.Reopen()
		return err
	}
	p.otp.Reset()
	return nil
}

// Cancel abandons the reset.
func (p *PasswordReset) Cancel() {
	p.otp.Reset()
}

// State reports the verification step.
func (p *PasswordReset) State() otp.State {
	return p.otp.State()
}
