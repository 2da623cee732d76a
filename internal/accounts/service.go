package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bookly-de/customer_portal/internal/validation"
)

var (
	ErrInvalidCredentials = errors.New("Invalid email or password")
	ErrWrongPassword      = errors.New("Current password is incorrect")
)

// Service manages the customer account lifecycle.
type Service struct {
	repo Repository
	cost int
}

// Option customizes a Service.
type Option func(*Service)

// WithBcryptCost overrides the hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// NewService creates a new account service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, cost: bcrypt.DefaultCost}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Precheck fails when email or phone already belongs to an account.
func (s *Service) Precheck(ctx context.Context, email, phoneE164 string) error {
	if email != "" {
		if _, err := s.repo.FindByEmail(ctx, email); err == nil {
			return ErrEmailTaken
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	if phoneE164 != "" {
		if _, err := s.repo.FindByPhone(ctx, phoneE164); err == nil {
			return ErrPhoneTaken
		} else if !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return nil
}

// Register creates an account whose phone ownership was already proven.
func (s *Service) Register(ctx context.Context, in NewAccount) (Account, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.First(
		validation.Required("name", in.Name, "Name is required."),
		validation.Email(in.Email),
		validation.Password("password", in.Password),
		validation.Required("phoneE164", in.PhoneE164, "Phone is required."),
	); err != nil {
		return Account{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return Account{}, err
	}

	account := Account{
		ID:            uuid.New().String(),
		Email:         in.Email,
		Name:          in.Name,
		PhoneE164:     in.PhoneE164,
		PhoneVerified: true,
		PasswordHash:  hash,
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, account); err != nil {
		return Account{}, err
	}
	return account, nil
}

// Authenticate verifies email and password.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Account, error) {
	account, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return Account{}, ErrInvalidCredentials
	}
	if err != nil {
		return Account{}, err
	}
	if err := bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(password)); err != nil {
		return Account{}, ErrInvalidCredentials
	}
	return account, nil
}

// Get returns the account with id.
func (s *Service) Get(ctx context.Context, id string) (Account, error) {
	return s.repo.FindByID(ctx, id)
}

// Rename changes the display name.
func (s *Service) Rename(ctx context.Context, id, name string) (Account, error) {
	name = strings.TrimSpace(name)
	if err := validation.Required("name", name, "Name is required."); err != nil {
		return Account{}, err
	}
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Account{}, err
	}
	account.Name = name
	if err := s.repo.Update(ctx, account); err != nil {
		return Account{}, err
	}
	return account, nil
}

// ChangePhone stores a verified phone number.
func (s *Service) ChangePhone(ctx context.Context, id, phoneE164 string) (Account, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Account{}, err
	}
	account.PhoneE164 = phoneE164
	account.PhoneVerified = true
	if err := s.repo.Update(ctx, account); err != nil {
		return Account{}, err
	}
	return account, nil
}

// ChangePassword rotates the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, id, current, next string) error {
	if err := validation.Password("newPassword", next); err != nil {
		return err
	}
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword(account.PasswordHash, []byte(current)); err != nil {
		return ErrWrongPassword
	}
	return s.setPassword(ctx, account, next, false)
}

// ResetPassword sets a new password for the account owning phoneE164 and
// revokes every session issued before it.
func (s *Service) ResetPassword(ctx context.Context, phoneE164, next string) error {
	if err := validation.Password("newPassword", next); err != nil {
		return err
	}
	account, err := s.repo.FindByPhone(ctx, phoneE164)
	if err != nil {
		return err
	}
	return s.setPassword(ctx, account, next, true)
}

func (s *Service) setPassword(ctx context.Context, account Account, password string, revoke bool) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return err
	}
	account.PasswordHash = hash
	if revoke {
		account.TokenVersion++
	}
	return s.repo.Update(ctx, account)
}
