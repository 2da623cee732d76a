package otp

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/bookly-de/customer_portal/internal/phone"
	"github.com/bookly-de/customer_portal/internal/validation"
)

// Purpose scopes an otpToken to the operation it authorizes. It is sent to
// the server verbatim.
type Purpose string

const (
	PurposeRegistration  Purpose = "registration"
	PurposePhoneUpdate   Purpose = "phone_update"
	PurposePasswordReset Purpose = "password_reset"
)

// State is the step a verification is at.
type State int

const (
	Collecting State = iota
	ChallengeSent
	Verified
	Failed
)

func (s State) String() string {
	switch s {
	case Collecting:
		return "collecting"
	case ChallengeSent:
		return "challenge-sent"
	case Verified:
		return "verified"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	// ErrNoChallenge is returned when resend or verify is called before a
	// challenge was sent. No request is made.
	ErrNoChallenge = errors.New("no verification code has been sent")
	// ErrBusy is returned when another operation on the same controller is
	// still running.
	ErrBusy = errors.New("verification already in progress")
	// ErrVerificationFailed means the server accepted the code check but
	// issued no token.
	ErrVerificationFailed = errors.New("verification failed")
)

// Challenger is the server side of phone verification.
type Challenger interface {
	StartVerification(ctx context.Context, phoneE164 string) error
	CheckVerification(ctx context.Context, phoneE164, code, purpose string) (string, error)
}

// Precheck runs after the phone is normalized and before any SMS is sent.
type Precheck func(ctx context.Context, phoneE164 string) error

type startOptions struct {
	precheck Precheck
}

// StartOption customizes a single Start call.
type StartOption func(*startOptions)

// WithPrecheck runs fn before the challenge. An error aborts the start.
func WithPrecheck(fn Precheck) StartOption {
	return func(o *startOptions) { o.precheck = fn }
}

// Option customizes a Controller.
type Option func(*Controller)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// Controller drives one phone verification: collect a number, send a code,
// trade the code for a single-use otpToken. It is safe for concurrent use;
// overlapping operations fail with ErrBusy.
type Controller struct {
	ch     Challenger
	logger *slog.Logger

	mu      sync.Mutex
	busy    bool
	state   State
	phone   string
	purpose Purpose
	token   string
}

// New builds a controller in the Collecting state.
func New(ch Challenger, opts ...Option) *Controller {
	c := &Controller{ch: ch, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current step.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Phone returns the normalized number a challenge was sent to.
func (c *Controller) Phone() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phone
}

// Purpose returns the purpose of the current challenge.
func (c *Controller) Purpose() Purpose {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.purpose
}

// Token returns the otpToken once Verified, else "".
func (c *Controller) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Verified {
		return ""
	}
	return c.token
}

// Start normalizes rawPhone and requests a code for purpose. It may be
// called from any state and always begins a fresh challenge.
func (c *Controller) Start(ctx context.Context, rawPhone string, purpose Purpose, opts ...StartOption) error {
	var o startOptions
	for _, opt := range opts {
		opt(&o)
	}

	normalized, ok := phone.Normalize(rawPhone)
	if !ok {
		return validation.New("phone", "Phone is required.")
	}

	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release()

	c.mu.Lock()
	c.state = Collecting
	c.phone, c.purpose, c.token = "", "", ""
	c.mu.Unlock()

	if o.precheck != nil {
		if err := o.precheck(ctx, normalized); err != nil {
			return err
		}
	}
	if err := c.ch.StartVerification(ctx, normalized); err != nil {
		c.logger.Debug("verification start failed", slog.String("purpose", string(purpose)), slog.Any("error", err))
		return err
	}

	c.mu.Lock()
	c.state = ChallengeSent
	c.phone = normalized
	c.purpose = purpose
	c.mu.Unlock()
	c.logger.Debug("verification code sent", slog.String("purpose", string(purpose)))
	return nil
}

// Resend requests another code for the same phone and purpose.
func (c *Controller) Resend(ctx context.Context) error {
	if err := c.acquire(); err != nil {
		return err
	}
	defer c.release()

	c.mu.Lock()
	state, number := c.state, c.phone
	c.mu.Unlock()
	if state != ChallengeSent {
		return ErrNoChallenge
	}
	return c.ch.StartVerification(ctx, number)
}

// Verify trades code for an otpToken. A rejected code keeps the challenge
// open so the user can retry or resend.
func (c *Controller) Verify(ctx context.Context, code string) (string, error) {
	if err := c.acquire(); err != nil {
		return "", err
	}
	defer c.release()

	c.mu.Lock()
	state, number, purpose := c.state, c.phone, c.purpose
	c.mu.Unlock()
	if state != ChallengeSent {
		return "", ErrNoChallenge
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return "", validation.New("code", "Please enter the code.")
	}

	token, err := c.ch.CheckVerification(ctx, number, code, string(purpose))
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if token == "" {
		c.state = Failed
		return "", ErrVerificationFailed
	}
	c.state = Verified
	c.token = token
	return token, nil
}

// Reopen returns a Verified or Failed controller to ChallengeSent, dropping
// the token. Flows call it when the completion request was rejected.
func (c *Controller) Reopen() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Verified || c.state == Failed {
		c.state = ChallengeSent
		c.token = ""
	}
}

// Reset discards everything and returns to Collecting.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Collecting
	c.phone, c.purpose, c.token = "", "", ""
}

func (c *Controller) acquire() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy {
		return ErrBusy
	}
	c.busy = true
	return nil
}

func (c *Controller) release() {
	c.mu.Lock()
	c.busy = false
	c.mu.Unlock()
}
