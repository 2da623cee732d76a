package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/bookly-de/customer_portal/internal/middleware"
	"github.com/bookly-de/customer_portal/internal/verification"
)

// RegisterProfileRoutes wires the signed-in customer's profile endpoints.
func RegisterProfileRoutes(r fiber.Router, svc *Services, bearer fiber.Handler) {
	r.Get("/me", bearer, func(c *fiber.Ctx) error {
		account, err := svc.Accounts.Get(c.UserContext(), middleware.AccountID(c))
		if err != nil {
			return httpError(err)
		}
		return c.JSON(account.Profile())
	})

	r.Patch("/me", bearer, func(c *fiber.Ctx) error {
		var req struct {
			Name      *string `json:"name"`
			PhoneE164 *string `json:"phoneE164"`
			OTPToken  string  `json:"otpToken"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errInvalidBody
		}
		if req.Name == nil && req.PhoneE164 == nil {
			return fiber.NewError(http.StatusBadRequest, "Nothing to update")
		}

		ctx := c.UserContext()
		id := middleware.AccountID(c)
		if req.PhoneE164 != nil {
			if req.OTPToken == "" {
				return errVerificationRequired
			}
			phoneE164, err := canonicalPhone(*req.PhoneE164)
			if err != nil {
				return err
			}
			if err := svc.Accounts.Precheck(ctx, "", phoneE164); err != nil {
				return httpError(err)
			}
			if err := svc.Tokens.ConsumeOTP(ctx, req.OTPToken, phoneE164, verification.PurposePhoneUpdate); err != nil {
				return httpError(err)
			}
			if _, err := svc.Accounts.ChangePhone(ctx, id, phoneE164); err != nil {
				return httpError(err)
			}
		}
		if req.Name != nil {
			if _, err := svc.Accounts.Rename(ctx, id, *req.Name); err != nil {
				return httpError(err)
			}
		}

		account, err := svc.Accounts.Get(ctx, id)
		if err != nil {
			return httpError(err)
		}
		return c.JSON(account.Profile())
	})

	r.Post("/change-password", bearer, func(c *fiber.Ctx) error {
		var req struct {
			CurrentPassword string `json:"currentPassword"`
			NewPassword     string `json:"newPassword"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errInvalidBody
		}
		if err := svc.Accounts.ChangePassword(c.UserContext(), middleware.AccountID(c), req.CurrentPassword, req.NewPassword); err != nil {
			return httpError(err)
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{"ok": true})
	})
}
