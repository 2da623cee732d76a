package reservations

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service exposes a customer's bookings.
type Service struct {
	repo Repository
}

// NewService builds a reservation service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput captures a new booking.
type CreateInput struct {
	CustomerID   string
	Service      string
	Date         time.Time
	EmployeeID   string
	EmployeeName string
}

// Create books an appointment.
func (s *Service) Create(ctx context.Context, in CreateInput) (Reservation, error) {
	r := Reservation{
		ID:           uuid.New().String(),
		CustomerID:   in.CustomerID,
		Service:      in.Service,
		Date:         in.Date.UTC(),
		EmployeeID:   in.EmployeeID,
		EmployeeName: in.EmployeeName,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return Reservation{}, err
	}
	return r, nil
}

// List returns the customer's bookings, earliest first.
func (s *Service) List(ctx context.Context, customerID string) ([]Reservation, error) {
	return s.repo.ListByCustomer(ctx, customerID)
}

// Cancel deletes one of the customer's bookings.
func (s *Service) Cancel(ctx context.Context, customerID, id string) error {
	return s.repo.Delete(ctx, customerID, id)
}

// SeedDemo books a few sample appointments for customerID, starting the day
// after now.
func (s *Service) SeedDemo(ctx context.Context, customerID string, now time.Time) error {
	day := now.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	samples := []CreateInput{
		{Service: "Haircut", Date: day.Add(10 * time.Hour), EmployeeID: "emp-1", EmployeeName: "Anna"},
		{Service: "Beard trim", Date: day.Add(48*time.Hour + 14*time.Hour), EmployeeID: "emp-2", EmployeeName: "Jonas"},
	}
	for _, in := range samples {
		in.CustomerID = customerID
		if _, err := s.Create(ctx, in); err != nil {
			return err
		}
	}
	return nil
}
