package routes

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/bookly-de/customer_portal/internal/accounts"
	"github.com/bookly-de/customer_portal/internal/customer"
	"github.com/bookly-de/customer_portal/internal/validation"
	"github.com/bookly-de/customer_portal/internal/verification"
)

// RegisterAuthRoutes wires the public customer session endpoints.
func RegisterAuthRoutes(app *fiber.App, svc *Services, rateLimiter fiber.Handler) {
	group := app.Group("/auth/customer")
	group.Post("/login", rateLimiter, login(svc))
	group.Post("/register/precheck", precheck(svc))
	group.Post("/register", register(svc))
	group.Post("/reset-password", resetPassword(svc))
}

func session(svc *Services, account accounts.Account) (customer.AuthResult, error) {
	token, err := svc.Tokens.IssueSession(account.ID, account.TokenVersion)
	if err != nil {
		return customer.AuthResult{}, err
	}
	return customer.AuthResult{Token: token, Customer: account.Profile()}, nil
}

func login(svc *Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errInvalidBody
		}
		if strings.TrimSpace(req.Email) == "" || req.Password == "" {
			return fiber.NewError(http.StatusBadRequest, "Email and password are required")
		}

		account, err := svc.Accounts.Authenticate(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return httpError(err)
		}
		res, err := session(svc, account)
		if err != nil {
			return err
		}
		return c.Status(http.StatusOK).JSON(res)
	}
}

func precheck(svc *Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Email     string `json:"email"`
			PhoneE164 string `json:"phoneE164"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errInvalidBody
		}
		var phoneE164 string
		if req.PhoneE164 != "" {
			p, err := canonicalPhone(req.PhoneE164)
			if err != nil {
				return err
			}
			phoneE164 = p
		}
		if err := svc.Accounts.Precheck(c.UserContext(), req.Email, phoneE164); err != nil {
			return httpError(err)
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{"ok": true})
	}
}

func register(svc *Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req customer.Registration
		if err := c.BodyParser(&req); err != nil {
			return errInvalidBody
		}
		if req.OTPToken == "" {
			return errVerificationRequired
		}
		phoneE164, err := canonicalPhone(req.PhoneE164)
		if err != nil {
			return err
		}

		ctx := c.UserContext()
		if err := validation.First(
			validation.Required("name", req.Name, "Name is required."),
			validation.Email(strings.TrimSpace(req.Email)),
			validation.Password("password", req.Password),
		); err != nil {
			return httpError(err)
		}
		if err := svc.Accounts.Precheck(ctx, req.Email, phoneE164); err != nil {
			return httpError(err)
		}
		if err := svc.Tokens.ConsumeOTP(ctx, req.OTPToken, phoneE164, verification.PurposeRegistration); err != nil {
			return httpError(err)
		}

		account, err := svc.Accounts.Register(ctx, accounts.NewAccount{
			Name:      req.Name,
			Email:     req.Email,
			Password:  req.Password,
			PhoneE164: phoneE164,
		})
		if err != nil {
			return httpError(err)
		}
		res, err := session(svc, account)
		if err != nil {
			return err
		}
		return c.Status(http.StatusCreated).JSON(res)
	}
}

// resetPassword takes {phone, code, newPassword}. /verify-phone/check has
// already spent the code when the client went through it, so an otpToken
// in the body is checked instead of the code.
func resetPassword(svc *Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Phone       string `json:"phone"`
			OTPToken    string `json:"otpToken"`
			Code        string `json:"code"`
			NewPassword string `json:"newPassword"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errInvalidBody
		}
		phoneE164, err := canonicalPhone(req.Phone)
		if err != nil {
			return err
		}
		if err := validation.Password("newPassword", req.NewPassword); err != nil {
			return httpError(err)
		}

		ctx := c.UserContext()
		switch {
		case req.OTPToken != "":
			err = svc.Tokens.ConsumeOTP(ctx, req.OTPToken, phoneE164, verification.PurposePasswordReset)
		case req.Code != "":
			err = svc.Verification.Consume(ctx, phoneE164, req.Code)
		default:
			return errVerificationRequired
		}
		if err != nil {
			return httpError(err)
		}

		if err := svc.Accounts.ResetPassword(ctx, phoneE164, req.NewPassword); err != nil {
			return httpError(err)
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{"ok": true})
	}
}
