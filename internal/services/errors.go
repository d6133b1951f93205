package services

import "errors"

var (
	// ErrInvalidCredentials is returned for an unknown business id and a
	// wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmployeeNotFound is returned when a reset token names an email
	// that no longer belongs to an employee.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrDuplicateEmployee is returned when a business id or email is
	// already registered.
	ErrDuplicateEmployee = errors.New("employee already exists")
)
