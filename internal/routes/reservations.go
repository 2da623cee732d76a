package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/bookly-de/customer_portal/internal/customer"
	"github.com/bookly-de/customer_portal/internal/middleware"
)

// RegisterReservationRoutes wires the customer's booking list.
func RegisterReservationRoutes(r fiber.Router, svc *Services, bearer fiber.Handler) {
	r.Get("/my-reservations", bearer, func(c *fiber.Ctx) error {
		list, err := svc.Reservations.List(c.UserContext(), middleware.AccountID(c))
		if err != nil {
			return httpError(err)
		}
		out := make([]customer.Reservation, 0, len(list))
		for _, res := range list {
			out = append(out, res.View())
		}
		return c.JSON(out)
	})

	r.Delete("/my-reservations/:id", bearer, func(c *fiber.Ctx) error {
		if err := svc.Reservations.Cancel(c.UserContext(), middleware.AccountID(c), c.Params("id")); err != nil {
			return httpError(err)
		}
		return c.Status(http.StatusOK).JSON(fiber.Map{"ok": true})
	})
}
