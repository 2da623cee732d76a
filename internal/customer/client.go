package customer

import (
	"context"
	"errors"
	"net/url"
)

// Endpoint paths of the customer API.
const (
	PathLogin            = "/auth/customer/login"
	PathRegister         = "/auth/customer/register"
	PathRegisterPrecheck = "/auth/customer/register/precheck"
	PathMe               = "/auth/customer/me"
	PathChangePassword   = "/auth/customer/change-password"
	PathResetPassword    = "/auth/customer/reset-password"
	PathVerifyPhoneStart = "/verify-phone/start"
	PathVerifyPhoneCheck = "/verify-phone/check"
	PathMyReservations   = "/auth/customer/my-reservations"

	defaultLang = "de"
)

// ErrMissingToken is returned when a login or registration response lacks a session token.
var ErrMissingToken = errors.New("response did not include a session token")

// Transport is the subset of the API gateway this client needs.
type Transport interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Patch(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// Client wraps each customer API endpoint in a typed call.
type Client struct {
	t    Transport
	lang string
}

// NewClient builds a client. lang is forwarded on phone verification calls.
func NewClient(t Transport, lang string) *Client {
	if lang == "" {
		lang = defaultLang
	}
	return &Client{t: t, lang: lang}
}

// Login exchanges credentials for a session token and profile.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var res AuthResult
	err := c.t.Post(ctx, PathLogin, map[string]string{"email": email, "password": password}, &res)
	if err != nil {
		return AuthResult{}, err
	}
	if res.Token == "" {
		return AuthResult{}, ErrMissingToken
	}
	return res, nil
}

// Register completes a registration whose phone has already been verified.
func (c *Client) Register(ctx context.Context, reg Registration) (AuthResult, error) {
	var res AuthResult
	if err := c.t.Post(ctx, PathRegister, reg, &res); err != nil {
		return AuthResult{}, err
	}
	if res.Token == "" {
		return AuthResult{}, ErrMissingToken
	}
	return res, nil
}

// Precheck asks whether email and phone are still free before any SMS is sent.
func (c *Client) Precheck(ctx context.Context, email, phoneE164 string) error {
	return c.t.Post(ctx, PathRegisterPrecheck, map[string]string{"email": email, "phoneE164": phoneE164}, nil)
}

// Me fetches the profile for the current bearer token.
func (c *Client) Me(ctx context.Context) (Customer, error) {
	var me Customer
	if err := c.t.Get(ctx, PathMe, &me); err != nil {
		return Customer{}, err
	}
	if me.ID == "" {
		return Customer{}, errors.New("profile response missing id")
	}
	return me, nil
}

// UpdateName changes the display name.
func (c *Client) UpdateName(ctx context.Context, name string) (Customer, error) {
	var me Customer
	err := c.t.Patch(ctx, PathMe, map[string]string{"name": name}, &me)
	return me, err
}

// UpdatePhone swaps the phone number, proven by otpToken.
func (c *Client) UpdatePhone(ctx context.Context, phoneE164, otpToken string) (Customer, error) {
	var me Customer
	err := c.t.Patch(ctx, PathMe, map[string]string{"phoneE164": phoneE164, "otpToken": otpToken}, &me)
	return me, err
}

// ChangePassword rotates the password of the signed-in customer.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	return c.t.Post(ctx, PathChangePassword, map[string]string{"currentPassword": current, "newPassword": next}, nil)
}

// ResetPassword sets a new password for the account owning phoneE164. The
// body carries the verified code; otpToken is sent alongside when known.
func (c *Client) ResetPassword(ctx context.Context, phoneE164, code, otpToken, newPassword string) error {
	body := map[string]string{
		"phone":       phoneE164,
		"code":        code,
		"newPassword": newPassword,
	}
	if otpToken != "" {
		body["otpToken"] = otpToken
	}
	return c.t.Post(ctx, PathResetPassword, body, nil)
}

// StartVerification asks the server to text a one-time code to phoneE164.
func (c *Client) StartVerification(ctx context.Context, phoneE164 string) error {
	return c.t.Post(ctx, PathVerifyPhoneStart, map[string]string{"phone": phoneE164, "lang": c.lang}, nil)
}

// CheckVerification trades a code for a single-use otpToken scoped to purpose.
// A 2xx response without a token yields "" and no error; the caller decides.
func (c *Client) CheckVerification(ctx context.Context, phoneE164, code, purpose string) (string, error) {
	var res struct {
		OTPToken string `json:"otpToken"`
	}
	err := c.t.Post(ctx, PathVerifyPhoneCheck, map[string]string{
		"phone":   phoneE164,
		"code":    code,
		"lang":    c.lang,
		"purpose": purpose,
	}, &res)
	if err != nil {
		return "", err
	}
	return res.OTPToken, nil
}

// MyReservations lists the customer's bookings.
func (c *Client) MyReservations(ctx context.Context) ([]Reservation, error) {
	var out []Reservation
	if err := c.t.Get(ctx, PathMyReservations, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CancelReservation deletes one booking.
func (c *Client) CancelReservation(ctx context.Context, id string) error {
	return c.t.Delete(ctx, PathMyReservations+"/"+url.PathEscape(id), nil)
}
