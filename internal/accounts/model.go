package accounts

import (
	"time"

	"github.com/bookly-de/customer_portal/internal/customer"
)

// Account is a registered customer as the backend stores it.
type Account struct {
	ID            string
	Email         string
	Name          string
	PhoneE164     string
	PhoneVerified bool
	PasswordHash  []byte
	TokenVersion  int
	CreatedAt     time.Time
}

// NewAccount is the input to Register.
type NewAccount struct {
	Name      string
	Email     string
	Password  string
	PhoneE164 string
}

// Profile is the public view returned to the signed-in customer.
func (a Account) Profile() customer.Customer {
	return customer.Customer{
		ID:            a.ID,
		Email:         a.Email,
		Name:          a.Name,
		PhoneE164:     a.PhoneE164,
		PhoneVerified: a.PhoneVerified,
	}
}
