package reservations

import (
	"time"

	"github.com/bookly-de/customer_portal/internal/customer"
)

// Reservation is a booked appointment owned by one customer.
type Reservation struct {
	ID           string
	CustomerID   string
	Service      string
	Date         time.Time
	EmployeeID   string
	EmployeeName string
	CreatedAt    time.Time
}

// View is the shape listed to the customer.
func (r Reservation) View() customer.Reservation {
	v := customer.Reservation{
		ID:         r.ID,
		Service:    r.Service,
		Date:       r.Date,
		EmployeeID: r.EmployeeID,
	}
	if r.EmployeeName != "" {
		v.Employee = &customer.Employee{Name: r.EmployeeName}
	}
	return v
}
