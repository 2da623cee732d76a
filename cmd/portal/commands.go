package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/bookly-de/customer_portal/internal/flows"
	"github.com/bookly-de/customer_portal/internal/otp"
)

var errUsage = errors.New("usage")

func (p *portal) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return p.login(ctx, args)
	case "logout":
		return p.logout(ctx)
	case "me":
		return p.me()
	case "register":
		return p.register(ctx, args)
	case "reset-password":
		return p.resetPassword(ctx, args)
	case "change-phone":
		return p.changePhone(ctx, args)
	case "change-password":
		return p.changePassword(ctx, args)
	case "rename":
		return p.rename(ctx, args)
	case "bookings":
		return p.bookings(ctx)
	case "cancel":
		return p.cancel(ctx, args)
	default:
		return errUsage
	}
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%s: %w", fs.Name(), err)
	}
	return nil
}

func (p *portal) requireSession() error {
	if !p.identity.Authenticated() {
		return errors.New("not signed in, run `portal login` first")
	}
	return nil
}

func (p *portal) login(ctx context.Context, args []string) error {
	fs := newFlags("login")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := parse(fs, args); err != nil {
		return err
	}

	if err := flows.NewSignIn(p.identity).Submit(ctx, *email, *password); err != nil {
		return err
	}
	p.printf("signed in as %s\n", p.identity.Customer().Name)
	return nil
}

func (p *portal) logout(ctx context.Context) error {
	if err := p.identity.Logout(ctx); err != nil {
		return err
	}
	p.printf("signed out\n")
	return nil
}

func (p *portal) me() error {
	c := p.identity.Customer()
	if c == nil {
		p.printf("not signed in\n")
		return nil
	}
	verified := "unverified"
	if c.PhoneVerified {
		verified = "verified"
	}
	p.printf("id:    %s\nname:  %s\nemail: %s\nphone: %s (%s)\n", c.ID, c.Name, c.Email, c.PhoneE164, verified)
	return nil
}

func (p *portal) register(ctx context.Context, args []string) error {
	fs := newFlags("register")
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "email")
	password := fs.String("password", "", "password")
	phone := fs.String("phone", "", "mobile number")
	if err := parse(fs, args); err != nil {
		return err
	}

	reg := flows.NewRegistration(p.client, p.identity, p.newOTP())
	if err := reg.Submit(ctx, flows.RegistrationForm{
		Name:            *name,
		Email:           *email,
		Password:        *password,
		ConfirmPassword: *password,
		Phone:           *phone,
	}); err != nil {
		return err
	}
	draft, _ := reg.Draft()
	p.printf("code sent to %s\n", draft.PhoneE164)

	if err := p.confirmLoop(ctx, reg.State, reg.Resend, reg.Confirm); err != nil {
		return err
	}
	p.printf("welcome, %s\n", p.identity.Customer().Name)
	return nil
}

func (p *portal) resetPassword(ctx context.Context, args []string) error {
	fs := newFlags("reset-password")
	phone := fs.String("phone", "", "mobile number of the account")
	next := fs.String("new-password", "", "new password")
	if err := parse(fs, args); err != nil {
		return err
	}

	reset := flows.NewPasswordReset(p.client, p.newOTP())
	if err := reset.Start(ctx, *phone); err != nil {
		return err
	}
	defer reset.Cancel()
	p.printf("code sent\n")

	confirm := func(ctx context.Context, code string) error {
		return reset.Confirm(ctx, code, *next, *next)
	}
	if err := p.confirmLoop(ctx, reset.State, reset.Resend, confirm); err != nil {
		return err
	}
	p.printf("password updated, please sign in\n")
	return nil
}

func (p *portal) changePhone(ctx context.Context, args []string) error {
	if err := p.requireSession(); err != nil {
		return err
	}
	fs := newFlags("change-phone")
	phone := fs.String("phone", "", "new mobile number")
	if err := parse(fs, args); err != nil {
		return err
	}

	update := flows.NewPhoneUpdate(p.client, p.identity, p.newOTP())
	if err := update.Start(ctx, *phone); err != nil {
		return err
	}
	defer update.Cancel()
	p.printf("code sent\n")

	if err := p.confirmLoop(ctx, update.State, update.Resend, update.Confirm); err != nil {
		return err
	}
	p.printf("phone updated to %s\n", p.identity.Customer().PhoneE164)
	return nil
}

func (p *portal) changePassword(ctx context.Context, args []string) error {
	if err := p.requireSession(); err != nil {
		return err
	}
	fs := newFlags("change-password")
	current := fs.String("current", "", "current password")
	next := fs.String("new", "", "new password")
	if err := parse(fs, args); err != nil {
		return err
	}

	if err := flows.NewProfile(p.client, p.identity).ChangePassword(ctx, *current, *next, *next); err != nil {
		return err
	}
	p.printf("password changed\n")
	return nil
}

func (p *portal) rename(ctx context.Context, args []string) error {
	if err := p.requireSession(); err != nil {
		return err
	}
	fs := newFlags("rename")
	name := fs.String("name", "", "new display name")
	if err := parse(fs, args); err != nil {
		return err
	}

	if err := flows.NewProfile(p.client, p.identity).SaveName(ctx, *name); err != nil {
		return err
	}
	p.printf("name saved: %s\n", p.identity.Customer().Name)
	return nil
}

func (p *portal) bookings(ctx context.Context) error {
	if err := p.requireSession(); err != nil {
		return err
	}
	list, err := p.client.MyReservations(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		p.printf("no bookings\n")
		return nil
	}
	for _, r := range list {
		employee := "-"
		if r.Employee != nil {
			employee = r.Employee.Name
		}
		p.printf("%s  %s  %-20s %s\n", r.ID, r.Date.Local().Format("2006-01-02 15:04"), r.Service, employee)
	}
	return nil
}

func (p *portal) cancel(ctx context.Context, args []string) error {
	if err := p.requireSession(); err != nil {
		return err
	}
	fs := newFlags("cancel")
	id := fs.String("id", "", "booking id")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("cancel: -id is required")
	}

	if err := p.client.CancelReservation(ctx, *id); err != nil {
		return err
	}
	p.printf("booking %s cancelled\n", *id)
	return nil
}

// confirmLoop reads codes until confirm succeeds or the challenge is no
// longer open.
func (p *portal) confirmLoop(
	ctx context.Context,
	state func() otp.State,
	resend func(context.Context) error,
	confirm func(context.Context, string) error,
) error {
	for {
		code, err := p.in.ask("code: ")
		if err != nil {
			return fmt.Errorf("read code: %w", err)
		}

		if code == "r" {
			if err := resend(ctx); err != nil {
				p.printf("%v\n", err)
				continue
			}
			p.printf("code sent again\n")
			continue
		}

		err = confirm(ctx, code)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil || state() != otp.ChallengeSent {
			return err
		}
		p.printf("%v\n", err)
	}
}
