package credential

import (
	"errors"
	"fmt"

	"github.com/salimtrading/staffportal/types"
	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword is returned when asked to hash an empty password.
var ErrEmptyPassword = errors.New("password must not be empty")

// Hasher sets and verifies employee passwords with bcrypt.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher using cost, or bcrypt.DefaultCost when cost
// is outside bcrypt's accepted range.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Set replaces the employee's password hash. bcrypt salts every call,
// so equal passwords produce different hashes.
func (h *Hasher) Set(employee *types.Employee, password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	employee.PasswordHash = string(hashed)
	return nil
}

// Verify reports whether password matches the stored hash. An employee
// without a hash never verifies.
func (h *Hasher) Verify(employee types.Employee, password string) bool {
	if employee.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(employee.PasswordHash), []byte(password)) == nil
}
