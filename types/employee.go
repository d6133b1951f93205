package types

import "time"

const (
	// AdminBusinessID is the reserved business id of the single
	// privileged account.
	AdminBusinessID = "ADMIN"

	// StatusActive is the default employment status.
	StatusActive = "Active"
)

// Employee represents a staff member of the organization.
type Employee struct {
	// ID is the internal storage key.
	ID int64 `json:"id" db:"id"`

	// BusinessID is the human-assigned unique employee identifier
	// used to log in.
	BusinessID string `json:"business_id" db:"business_id"`

	FullName   string `json:"full_name" db:"full_name"`
	Department string `json:"department" db:"department"`
	Position   string `json:"position" db:"position"`

	// Email is unique when present. Invite and reset flows require it.
	Email string `json:"email" db:"email"`

	Phone string `json:"phone" db:"phone"`
	TaxID string `json:"tax_id" db:"tax_id"`

	// HireDate is a calendar date; nil when unknown.
	HireDate *time.Time `json:"hire_date,omitempty" db:"hire_date"`

	Status string `json:"status" db:"status"`

	// PasswordHash stores the bcrypt hash of the employee's password.
	// Empty until a password is set. Never exposed in responses.
	PasswordHash string `json:"-" db:"password_hash"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IsAdmin reports whether the employee is the reserved administrator.
func (e Employee) IsAdmin() bool {
	return e.BusinessID == AdminBusinessID
}
