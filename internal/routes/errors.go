package routes

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/bookly-de/customer_portal/internal/accounts"
	"github.com/bookly-de/customer_portal/internal/auth"
	"github.com/bookly-de/customer_portal/internal/reservations"
	"github.com/bookly-de/customer_portal/internal/validation"
	"github.com/bookly-de/customer_portal/internal/verification"
)

var (
	errVerificationRequired = fiber.NewError(http.StatusBadRequest, "Phone verification required")
	errInvalidBody          = fiber.NewError(http.StatusBadRequest, "Invalid request body")
)

// ErrorHandler renders every failure as {"error": message}. Unexpected
// errors are hidden behind a generic message.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := http.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		message = fe.Message
	}
	return c.Status(code).JSON(fiber.Map{"error": message})
}

// httpError maps domain errors onto the status codes of the customer API.
// The message is what the portal shows the user.
func httpError(err error) error {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return fiber.NewError(http.StatusBadRequest, verr.Message)
	case errors.Is(err, accounts.ErrEmailTaken), errors.Is(err, accounts.ErrPhoneTaken):
		return fiber.NewError(http.StatusConflict, err.Error())
	case errors.Is(err, accounts.ErrInvalidCredentials):
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, accounts.ErrWrongPassword):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, accounts.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, "Account not found")
	case errors.Is(err, auth.ErrOTPInvalid), errors.Is(err, auth.ErrOTPUsed):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, verification.ErrInvalidCode),
		errors.Is(err, verification.ErrInvalidPurpose),
		errors.Is(err, verification.ErrInvalidPhone):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, reservations.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	default:
		return err
	}
}

func canonicalPhone(raw string) (string, error) {
	p, ok := verification.Canonical(raw)
	if !ok {
		return "", httpError(verification.ErrInvalidPhone)
	}
	return p, nil
}

type accountLookup struct {
	svc *accounts.Service
}

func (l accountLookup) FindByID(ctx context.Context, id string) (accounts.Account, error) {
	return l.svc.Get(ctx, id)
}
