package flows

import (
	"context"

	"github.com/bookly-de/customer_portal/internal/customer"
	"github.com/bookly-de/customer_portal/internal/otp"
)

// PhoneUpdater swaps the phone number on the signed-in account.
type PhoneUpdater interface {
	UpdatePhone(ctx context.Context, phoneE164, otpToken string) (customer.Customer, error)
}

// Refresher reloads the signed-in profile.
type Refresher interface {
	RefreshMe(ctx context.Context) error
}

// PhoneUpdate changes the account phone once the new number is verified.
type PhoneUpdate struct {
	api      PhoneUpdater
	identity Refresher
	otp      *otp.Controller
}

// NewPhoneUpdate wires the flow.
func NewPhoneUpdate(api PhoneUpdater, identity Refresher, ctrl *otp.Controller) *PhoneUpdate {
	return &PhoneUpdate{api: api, identity: identity, otp: ctrl}
}

// Start texts a code to the new number.
func (p *PhoneUpdate) Start(ctx context.Context, rawPhone string) error {
	return p.otp.Start(ctx, rawPhone, otp.PurposePhoneUpdate)
}

// Resend texts another code.
func (p *PhoneUpdate) Resend(ctx context.Context) error {
	return p.otp.Resend(ctx)
}

// Confirm verifies code, stores the number and reloads the profile.
func (p *PhoneUpdate) Confirm(ctx context.Context, code string) error {
	token, err := p.otp.Verify(ctx, code)
	if err != nil {
		return err
	}
	if _, err := p.api.UpdatePhone(ctx, p.otp.Phone(), token); err != nil {
		p.otp.Reopen()
		return err
	}
	p.otp.Reset()
	return p.identity.RefreshMe(ctx)
}

// Cancel abandons the change.
func (p *PhoneUpdate) Cancel() {
	p.otp.Reset()
}

// State reports the verification step.
func (p *PhoneUpdate) State() otp.State {
	return p.otp.State()
}
