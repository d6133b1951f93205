package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/salimtrading/staffportal/internal/credential"
	"github.com/salimtrading/staffportal/internal/store"
	"github.com/salimtrading/staffportal/types"
	"go.uber.org/zap"
)

// EmployeeRepository defines persistence operations for employees.
type EmployeeRepository interface {
	GetByBusinessID(ctx context.Context, businessID string) (types.Employee, error)
	GetByEmail(ctx context.Context, email string) (types.Employee, error)
	List(ctx context.Context) ([]types.Employee, error)
	Create(ctx context.Context, employee types.Employee) (types.Employee, error)
	Update(ctx context.Context, employee types.Employee) (types.Employee, error)
}

// AdminSeed describes the administrator created on first start.
type AdminSeed struct {
	Email    string
	Password string
}

// EmployeeService encapsulates employee use-cases.
type EmployeeService struct {
	repo   EmployeeRepository
	hasher *credential.Hasher
	log    *zap.Logger
}

func NewEmployeeService(repo EmployeeRepository, hasher *credential.Hasher, log *zap.Logger) *EmployeeService {
	return &EmployeeService{repo: repo, hasher: hasher, log: log}
}

func (s *EmployeeService) GetByBusinessID(ctx context.Context, businessID string) (types.Employee, error) {
	return s.repo.GetByBusinessID(ctx, businessID)
}

func (s *EmployeeService) List(ctx context.Context) ([]types.Employee, error) {
	return s.repo.List(ctx)
}

// Create stores a new employee, translating unique violations into
// ErrDuplicateEmployee.
func (s *EmployeeService) Create(ctx context.Context, employee types.Employee) (types.Employee, error) {
	created, err := s.repo.Create(ctx, employee)
	if errors.Is(err, store.ErrConflict) {
		return types.Employee{}, fmt.Errorf("%w: %v", ErrDuplicateEmployee, err)
	}
	return created, err
}

// EnsureAdminSeed creates the ADMIN employee if it does not exist. It is
// safe to call on every start and from concurrent processes.
func (s *EmployeeService) EnsureAdminSeed(ctx context.Context, seed AdminSeed) error {
	_, err := s.repo.GetByBusinessID(ctx, types.AdminBusinessID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("look up admin: %w", err)
	}

	hired := time.Now().UTC().Truncate(24 * time.Hour)
	admin := types.Employee{
		BusinessID: types.AdminBusinessID,
		FullName:   "Admin",
		Department: "Admin",
		Position:   "System Admin",
		Email:      seed.Email,
		HireDate:   &hired,
		Status:     types.StatusActive,
	}
	if err := s.hasher.Set(&admin, seed.Password); err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	if _, err := s.repo.Create(ctx, admin); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil
		}
		return fmt.Errorf("create admin: %w", err)
	}
	s.log.Info("seeded administrator account", zap.String("business_id", types.AdminBusinessID))
	return nil
}
