package flows

import (
	"context"
	"strings"

	"github.com/bookly-de/customer_portal/internal/customer"
	"github.com/bookly-de/customer_portal/internal/validation"
)

// ProfileAPI edits the signed-in account.
type ProfileAPI interface {
	UpdateName(ctx context.Context, name string) (customer.Customer, error)
	ChangePassword(ctx context.Context, current, next string) error
}

// Profile backs the account settings screen.
type Profile struct {
	api      ProfileAPI
	identity Refresher
}

// NewProfile wires the flow.
func NewProfile(api ProfileAPI, identity Refresher) *Profile {
	return &Profile{api: api, identity: identity}
}

// SaveName stores a new display name and reloads the profile.
func (p *Profile) SaveName(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if err := validation.Required("name", name, "Name is required."); err != nil {
		return err
	}
	if _, err := p.api.UpdateName(ctx, name); err != nil {
		return err
	}
	return p.identity.RefreshMe(ctx)
}

// ChangePassword rotates the password after local checks.
func (p *Profile) ChangePassword(ctx context.Context, current, next, confirm string) error {
	if err := validation.First(
		validation.Required("currentPassword", current, "Current password is required."),
		validation.Password("newPassword", next),
		validation.PasswordsMatch(next, confirm),
	); err != nil {
		return err
	}
	return p.api.ChangePassword(ctx, current, next)
}
