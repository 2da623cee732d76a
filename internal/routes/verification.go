package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// RegisterVerificationRoutes wires SMS phone verification.
func RegisterVerificationRoutes(app *fiber.App, svc *Services, rateLimiter fiber.Handler) {
	group := app.Group("/verify-phone")
	group.Post("/start", rateLimiter, startVerification(svc))
	group.Post("/check", checkVerification(svc))
}

func startVerification(svc *Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Phone string `json:"phone"`
			Lang  string `json:"lang"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errInvalidBody
		}
		phoneE164, err := canonicalPhone(req.Phone)
		if err != nil {
			return err
		}
		if err := svc.Verification.Start(c.UserContext(), phoneE164, req.Lang); err != nil {
			return httpError(err)
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{"ok": true})
	}
}

func checkVerification(svc *Services) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Phone   string `json:"phone"`
			Code    string `json:"code"`
			Lang    string `json:"lang"`
			Purpose string `json:"purpose"`
		}
		if err := c.BodyParser(&req); err != nil {
			return errInvalidBody
		}
		phoneE164, err := canonicalPhone(req.Phone)
		if err != nil {
			return err
		}
		token, err := svc.Verification.Check(c.UserContext(), phoneE164, req.Code, req.Purpose)
		if err != nil {
			return httpError(err)
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{"otpToken": token})
	}
}
