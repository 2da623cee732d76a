package customer

import "time"

// Customer is the profile the server holds for a signed-in customer.
type Customer struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	PhoneE164     string `json:"phoneE164,omitempty"`
	PhoneVerified bool   `json:"phoneVerified,omitempty"`
}

// AuthResult is returned by login and registration.
type AuthResult struct {
	Token    string   `json:"token"`
	Customer Customer `json:"customer"`
}

// Registration is a completed registration draft. OTPToken proves ownership
// of PhoneE164 and is obtained before anything is sent to the register endpoint.
type Registration struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	PhoneE164 string `json:"phoneE164"`
	OTPToken  string `json:"otpToken"`
}

// Employee is the staff member attached to a reservation.
type Employee struct {
	Name string `json:"name"`
}

// Reservation is a booking listed under the customer's account.
type Reservation struct {
	ID         string    `json:"id"`
	Service    string    `json:"service"`
	Date       time.Time `json:"date"`
	EmployeeID string    `json:"employeeId"`
	Employee   *Employee `json:"employee,omitempty"`
}
