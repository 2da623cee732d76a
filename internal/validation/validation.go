package validation

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MinPasswordLength is the shortest password the portal accepts.
const MinPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Error is a local, pre-network validation failure. It never reaches the transport.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// New returns a validation error for field.
func New(field, message string) error {
	return &Error{Field: field, Message: message}
}

// IsValidation reports whether err is, or wraps, a validation error.
func IsValidation(err error) bool {
	var verr *Error
	return errors.As(err, &verr)
}

// Required fails when value is blank.
func Required(field, value, message string) error {
	if strings.TrimSpace(value) == "" {
		return New(field, message)
	}
	return nil
}

// Email checks the address shape only; deliverability is the server's problem.
func Email(value string) error {
	if !emailPattern.MatchString(value) {
		return New("email", "Please enter a valid email.")
	}
	return nil
}

// Password enforces the minimum length.
func Password(field, value string) error {
	if utf8.RuneCountInString(value) < MinPasswordLength {
		return New(field, "Password must be at least 6 characters.")
	}
	return nil
}

// PasswordsMatch fails when the confirmation differs.
func PasswordsMatch(password, confirm string) error {
	if password != confirm {
		return New("confirmPassword", "Passwords do not match.")
	}
	return nil
}

// First returns the first non-nil error.
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
