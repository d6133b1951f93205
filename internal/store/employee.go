package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/salimtrading/staffportal/types"
)

const employeeColumns = `id, business_id, full_name, department, position, email, phone, tax_id, hire_date, status, password_hash, created_at, updated_at`

// EmployeeRepository handles persistence for employees.
type EmployeeRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewEmployeeRepository(db *sql.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (types.Employee, error) {
	var (
		employee                           types.Employee
		email, phone, taxID, passwordHash sql.NullString
		hireDate                           sql.NullTime
	)
	err := row.Scan(
		&employee.ID,
		&employee.BusinessID,
		&employee.FullName,
		&employee.Department,
		&employee.Position,
		&email,
		&phone,
		&taxID,
		&hireDate,
		&employee.Status,
		&passwordHash,
		&employee.CreatedAt,
		&employee.UpdatedAt,
	)
	if err != nil {
		return types.Employee{}, err
	}
	employee.Email = email.String
	employee.Phone = phone.String
	employee.TaxID = taxID.String
	employee.PasswordHash = passwordHash.String
	if hireDate.Valid {
		d := hireDate.Time
		employee.HireDate = &d
	}
	return employee, nil
}

func (r *EmployeeRepository) getOne(ctx context.Context, column, value string) (types.Employee, error) {
	query := fmt.Sprintf(`SELECT %s FROM employees WHERE %s = $1`, employeeColumns, column)
	employee, err := scanEmployee(r.db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Employee{}, ErrNotFound
		}
		return types.Employee{}, err
	}
	return employee, nil
}

func (r *EmployeeRepository) GetByBusinessID(ctx context.Context, businessID string) (types.Employee, error) {
	return r.getOne(ctx, "business_id", businessID)
}

func (r *EmployeeRepository) GetByEmail(ctx context.Context, email string) (types.Employee, error) {
	if email == "" {
		return types.Employee{}, ErrNotFound
	}
	return r.getOne(ctx, "email", email)
}

// List returns all employees ordered by business id.
func (r *EmployeeRepository) List(ctx context.Context) ([]types.Employee, error) {
	query := fmt.Sprintf(`SELECT %s FROM employees ORDER BY business_id`, employeeColumns)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []types.Employee
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, employee)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return employees, nil
}

// Create inserts a new employee. A duplicate business id or email
// yields ErrConflict.
func (r *EmployeeRepository) Create(ctx context.Context, employee types.Employee) (types.Employee, error) {
	now := r.now().UTC()
	employee.CreatedAt = now
	employee.UpdatedAt = now
	if employee.Status == "" {
		employee.Status = types.StatusActive
	}

	const query = `
		INSERT INTO employees (business_id, full_name, department, position, email, phone, tax_id, hire_date, status, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		employee.BusinessID,
		employee.FullName,
		employee.Department,
		employee.Position,
		nullString(employee.Email),
		nullString(employee.Phone),
		nullString(employee.TaxID),
		nullDate(employee.HireDate),
		employee.Status,
		nullString(employee.PasswordHash),
		employee.CreatedAt,
		employee.UpdatedAt,
	).Scan(&employee.ID); err != nil {
		if isUniqueViolation(err) {
			return types.Employee{}, fmt.Errorf("employee %s: %w", employee.BusinessID, ErrConflict)
		}
		return types.Employee{}, err
	}
	return employee, nil
}

// Update persists in-place changes to an existing employee.
func (r *EmployeeRepository) Update(ctx context.Context, employee types.Employee) (types.Employee, error) {
	employee.UpdatedAt = r.now().UTC()

	const query = `
		UPDATE employees
		SET full_name = $1,
			department = $2,
			position = $3,
			email = $4,
			phone = $5,
			tax_id = $6,
			hire_date = $7,
			status = $8,
			password_hash = $9,
			updated_at = $10
		WHERE id = $11`
	result, err := r.db.ExecContext(
		ctx,
		query,
		employee.FullName,
		employee.Department,
		employee.Position,
		nullString(employee.Email),
		nullString(employee.Phone),
		nullString(employee.TaxID),
		nullDate(employee.HireDate),
		employee.Status,
		nullString(employee.PasswordHash),
		employee.UpdatedAt,
		employee.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return types.Employee{}, fmt.Errorf("employee %s: %w", employee.BusinessID, ErrConflict)
		}
		return types.Employee{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Employee{}, err
	}
	if affected == 0 {
		return types.Employee{}, ErrNotFound
	}
	return employee, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDate(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
