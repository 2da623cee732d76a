package accounts

import (
	"context"
	"errors"
	"strings"
	"sync"
)

var (
	ErrNotFound   = errors.New("account not found")
	ErrEmailTaken = errors.New("Email already registered")
	ErrPhoneTaken = errors.New("Phone number already registered")
)

// Repository persists accounts.
type Repository interface {
	Create(ctx context.Context, account Account) error
	FindByID(ctx context.Context, id string) (Account, error)
	FindByEmail(ctx context.Context, email string) (Account, error)
	FindByPhone(ctx context.Context, phoneE164 string) (Account, error)
	Update(ctx context.Context, account Account) error
}

type memoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]Account
	byEmail map[string]string
	byPhone map[string]string
}

// NewMemoryRepository builds an in-memory account store.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		byID:    make(map[string]Account),
		byEmail: make(map[string]string),
		byPhone: make(map[string]string),
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *memoryRepository) Create(_ context.Context, account Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[emailKey(account.Email)]; exists {
		return ErrEmailTaken
	}
	if account.PhoneE164 != "" {
		if _, exists := r.byPhone[account.PhoneE164]; exists {
			return ErrPhoneTaken
		}
		r.byPhone[account.PhoneE164] = account.ID
	}
	r.byEmail[emailKey(account.Email)] = account.ID
	r.byID[account.ID] = account
	return nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.byID[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return account, nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[emailKey(email)]
	if !ok {
		return Account{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *memoryRepository) FindByPhone(_ context.Context, phoneE164 string) (Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byPhone[phoneE164]
	if !ok {
		return Account{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *memoryRepository) Update(_ context.Context, account Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev, ok := r.byID[account.ID]
	if !ok {
		return ErrNotFound
	}
	if account.PhoneE164 != prev.PhoneE164 && account.PhoneE164 != "" {
		if owner, exists := r.byPhone[account.PhoneE164]; exists && owner != account.ID {
			return ErrPhoneTaken
		}
	}
	if emailKey(account.Email) != emailKey(prev.Email) {
		if _, exists := r.byEmail[emailKey(account.Email)]; exists {
			return ErrEmailTaken
		}
		delete(r.byEmail, emailKey(prev.Email))
		r.byEmail[emailKey(account.Email)] = account.ID
	}
	if account.PhoneE164 != prev.PhoneE164 {
		delete(r.byPhone, prev.PhoneE164)
		if account.PhoneE164 != "" {
			r.byPhone[account.PhoneE164] = account.ID
		}
	}
	r.byID[account.ID] = account
	return nil
}
