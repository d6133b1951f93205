package services

import (
	"context"
	"errors"
	"strings"

	"github.com/salimtrading/staffportal/internal/credential"
	"github.com/salimtrading/staffportal/internal/store"
	"github.com/salimtrading/staffportal/types"
)

// AuthService verifies login credentials.
type AuthService struct {
	repo   EmployeeRepository
	hasher *credential.Hasher
}

func NewAuthService(repo EmployeeRepository, hasher *credential.Hasher) *AuthService {
	return &AuthService{repo: repo, hasher: hasher}
}

// Authenticate returns the employee identified by businessID when
// password matches. Unknown ids and wrong passwords both yield
// ErrInvalidCredentials.
func (s *AuthService) Authenticate(ctx context.Context, businessID, password string) (types.Employee, error) {
	businessID = strings.TrimSpace(businessID)
	if businessID == "" || password == "" {
		return types.Employee{}, ErrInvalidCredentials
	}

	employee, err := s.repo.GetByBusinessID(ctx, businessID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Employee{}, ErrInvalidCredentials
		}
		return types.Employee{}, err
	}
	if !s.hasher.Verify(employee, password) {
		return types.Employee{}, ErrInvalidCredentials
	}
	return employee, nil
}
