package verification

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"regexp"
	"strings"
	"time"

	"github.com/bookly-de/customer_portal/internal/notification"
)

var (
	ErrInvalidPhone   = errors.New("Invalid phone number")
	ErrInvalidCode    = errors.New("Invalid or expired code")
	ErrInvalidPurpose = errors.New("Unknown verification purpose")
)

const (
	PurposeRegistration  = "registration"
	PurposePhoneUpdate   = "phone_update"
	PurposePasswordReset = "password_reset"

	codeDigits = 6
)

var e164 = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

// Canonical strips spacing and punctuation from a +prefixed number and
// reports whether the result is a plausible E.164 number.
func Canonical(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '/':
		default:
			return "", false
		}
	}
	out := b.String()
	return out, e164.MatchString(out)
}

// TokenIssuer signs otpTokens.
type TokenIssuer interface {
	IssueOTP(phoneE164, purpose string) (string, error)
}

// Service sends verification codes and trades correct codes for otpTokens.
type Service struct {
	codes     CodeStore
	notifier  notification.Notifier
	tokens    TokenIssuer
	ttl       time.Duration
	acceptAny bool
	logger    *slog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithAcceptAny makes every non-empty code valid. Only for local stubs.
func WithAcceptAny(v bool) Option {
	return func(s *Service) { s.acceptAny = v }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService builds a verification service whose codes live for ttl.
func NewService(codes CodeStore, notifier notification.Notifier, tokens TokenIssuer, ttl time.Duration, opts ...Option) *Service {
	s := &Service{codes: codes, notifier: notifier, tokens: tokens, ttl: ttl, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start texts a fresh code to phoneE164, replacing any pending one.
func (s *Service) Start(ctx context.Context, phoneE164, lang string) error {
	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}
	if err := s.codes.Put(ctx, phoneE164, code, s.ttl); err != nil {
		return fmt.Errorf("store code: %w", err)
	}
	err = s.notifier.Send(ctx, notification.Message{
		Kind:        notification.KindVerificationCode,
		Destination: phoneE164,
		Body:        codeMessage(lang, code),
		Lang:        lang,
	})
	if err != nil {
		return fmt.Errorf("send code: %w", err)
	}
	s.logger.Info("verification code sent", slog.String("lang", lang))
	return nil
}

// Check consumes code and returns an otpToken scoped to purpose.
func (s *Service) Check(ctx context.Context, phoneE164, code, purpose string) (string, error) {
	if !ValidPurpose(purpose) {
		return "", ErrInvalidPurpose
	}
	if err := s.consume(ctx, phoneE164, code); err != nil {
		return "", err
	}
	return s.tokens.IssueOTP(phoneE164, purpose)
}

// Consume checks and discards code without issuing a token.
func (s *Service) Consume(ctx context.Context, phoneE164, code string) error {
	return s.consume(ctx, phoneE164, code)
}

func (s *Service) consume(ctx context.Context, phoneE164, code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return ErrInvalidCode
	}
	if s.acceptAny {
		return s.codes.Delete(ctx, phoneE164)
	}

	stored, err := s.codes.Get(ctx, phoneE164)
	if errors.Is(err, ErrNoCode) {
		return ErrInvalidCode
	}
	if err != nil {
		return err
	}
	if stored != code {
		return ErrInvalidCode
	}
	return s.codes.Delete(ctx, phoneE164)
}

// ValidPurpose reports whether purpose is one the backend issues tokens for.
func ValidPurpose(purpose string) bool {
	switch purpose {
	case PurposeRegistration, PurposePhoneUpdate, PurposePasswordReset:
		return true
	default:
		return false
	}
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}

func codeMessage(lang, code string) string {
	if strings.HasPrefix(strings.ToLower(lang), "en") {
		return "Your verification code is " + code
	}
	return "Ihr Bestätigungscode lautet " + code
}

// CodeFromMessage extracts the code from a message body sent by Start.
func CodeFromMessage(body string) string {
	if len(body) < codeDigits {
		return ""
	}
	return body[len(body)-codeDigits:]
}
