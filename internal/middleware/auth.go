package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/bookly-de/customer_portal/internal/accounts"
	"github.com/bookly-de/customer_portal/internal/auth"
)

const accountIDKey = "account_id"

// AccountLookup resolves the account behind a session token.
type AccountLookup interface {
	FindByID(ctx context.Context, id string) (accounts.Account, error)
}

// BearerAuth validates customer session tokens and checks the token version
// so a password reset revokes older sessions.
func BearerAuth(tokens *auth.Service, repo AccountLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "Missing bearer token")
		}
		claims, err := tokens.ParseSession(strings.TrimSpace(authz[len("Bearer "):]))
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "Invalid token")
		}

		account, err := repo.FindByID(c.UserContext(), claims.Subject)
		if err != nil || account.TokenVersion != claims.Version {
			return fiber.NewError(http.StatusUnauthorized, "Session revoked")
		}

		c.Locals(accountIDKey, account.ID)
		return c.Next()
	}
}

// AccountID returns the authenticated account ID, or "".
func AccountID(c *fiber.Ctx) string {
	id, _ := c.Locals(accountIDKey).(string)
	return id
}
