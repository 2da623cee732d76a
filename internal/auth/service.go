package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	audienceSession = "session"
	audienceOTP     = "otp"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrOTPInvalid   = errors.New("Phone verification is invalid or expired")
	ErrOTPUsed      = errors.New("Phone verification was already used")
)

// SessionClaims are carried by customer session tokens. Version must match
// the account's token version for the session to be valid.
type SessionClaims struct {
	Version int `json:"ver"`
	jwt.RegisteredClaims
}

// OTPClaims are carried by otpTokens: proof that Phone was verified for Purpose.
type OTPClaims struct {
	Phone   string `json:"phone"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Service issues and verifies HS256 session tokens and single-use otpTokens.
type Service struct {
	secret     []byte
	sessionTTL time.Duration
	otpTTL     time.Duration
	used       UsedTokens
}

// NewService builds a token service.
func NewService(secret string, sessionTTL, otpTTL time.Duration, used UsedTokens) *Service {
	if used == nil {
		used = NewMemoryUsedTokens()
	}
	return &Service{secret: []byte(secret), sessionTTL: sessionTTL, otpTTL: otpTTL, used: used}
}

// IssueSession signs a session token for accountID.
func (s *Service) IssueSession(accountID string, version int) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Version: version,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Audience:  jwt.ClaimStrings{audienceSession},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.sessionTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ParseSession verifies a session token and returns its claims.
func (s *Service) ParseSession(token string) (SessionClaims, error) {
	var claims SessionClaims
	if err := s.parse(token, audienceSession, &claims); err != nil {
		return SessionClaims{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return SessionClaims{}, ErrInvalidToken
	}
	return claims, nil
}

// IssueOTP signs an otpToken proving phoneE164 was verified for purpose.
func (s *Service) IssueOTP(phoneE164, purpose string) (string, error) {
	now := time.Now()
	claims := OTPClaims{
		Phone:   phoneE164,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   phoneE164,
			Audience:  jwt.ClaimStrings{audienceOTP},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.otpTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// ConsumeOTP accepts token once, and only for the phone and purpose it was
// issued for.
func (s *Service) ConsumeOTP(ctx context.Context, token, phoneE164, purpose string) error {
	var claims OTPClaims
	if err := s.parse(token, audienceOTP, &claims); err != nil {
		return ErrOTPInvalid
	}
	if claims.Phone != phoneE164 || claims.Purpose != purpose || claims.ID == "" {
		return ErrOTPInvalid
	}

	ttl := s.otpTTL
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	fresh, err := s.used.MarkUsed(ctx, claims.ID, ttl)
	if err != nil {
		return fmt.Errorf("record otp token: %w", err)
	}
	if !fresh {
		return ErrOTPUsed
	}
	return nil
}

func (s *Service) parse(token, audience string, claims jwt.Claims) error {
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
	)
	return err
}
