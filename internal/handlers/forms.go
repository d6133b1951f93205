package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/salimtrading/staffportal/internal/services"
	"github.com/salimtrading/staffportal/types"
)

const (
	hireDateLayout = "2006-01-02"
	// bcrypt only hashes the first 72 bytes and rejects longer input.
	maxPasswordBytes = 72
)

// ValidationError lists per-field problems with submitted form input.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + strings.Join(e.Messages(), "; ")
}

// Messages returns the problems in a stable order.
func (e *ValidationError) Messages() []string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	messages := make([]string, 0, len(keys))
	for _, k := range keys {
		messages = append(messages, e.Fields[k])
	}
	return messages
}

func (e *ValidationError) add(field, message string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = message
	}
}

func (e *ValidationError) empty() bool {
	return len(e.Fields) == 0
}

// registrationForm echoes submitted values back into the form. It never
// holds the password.
type registrationForm struct {
	BusinessID string
	FullName   string
	Department string
	Position   string
	Phone      string
	TaxID      string
	HireDate   string
}

type field struct {
	name     string
	label    string
	value    string
	required bool
	maxLen   int
}

// decodeRegistration validates the registration form.
func decodeRegistration(r *http.Request) (services.Registration, registrationForm, error) {
	if err := r.ParseForm(); err != nil {
		return services.Registration{}, registrationForm{}, &ValidationError{Fields: map[string]string{"form": "Malformed form submission."}}
	}
	get := func(name string) string { return strings.TrimSpace(r.PostForm.Get(name)) }

	form := registrationForm{
		BusinessID: get("business_id"),
		FullName:   get("full_name"),
		Department: get("department"),
		Position:   get("position"),
		Phone:      get("phone"),
		TaxID:      get("tax_id"),
		HireDate:   get("hire_date"),
	}
	password := r.PostForm.Get("password")

	verr := &ValidationError{}
	for _, f := range []field{
		{"business_id", "Employee ID", form.BusinessID, true, 10},
		{"full_name", "Full name", form.FullName, true, 100},
		{"department", "Department", form.Department, true, 50},
		{"position", "Position", form.Position, true, 50},
		{"phone", "Phone", form.Phone, false, 20},
		{"tax_id", "Tax PIN", form.TaxID, false, 20},
	} {
		if f.required && f.value == "" {
			verr.add(f.name, f.label+" is required.")
			continue
		}
		if utf8.RuneCountInString(f.value) > f.maxLen {
			verr.add(f.name, fmt.Sprintf("%s must be at most %d characters.", f.label, f.maxLen))
		}
	}
	if strings.EqualFold(form.BusinessID, types.AdminBusinessID) {
		verr.add("business_id", "Employee ID is reserved.")
	}
	checkPassword(verr, password)

	var hireDate *time.Time
	if form.HireDate != "" {
		d, err := time.Parse(hireDateLayout, form.HireDate)
		if err != nil {
			verr.add("hire_date", "Hire date must be a date like 2024-01-31.")
		} else {
			hireDate = &d
		}
	}

	if !verr.empty() {
		return services.Registration{}, form, verr
	}
	return services.Registration{
		BusinessID: form.BusinessID,
		FullName:   form.FullName,
		Department: form.Department,
		Position:   form.Position,
		Phone:      form.Phone,
		TaxID:      form.TaxID,
		HireDate:   hireDate,
		Password:   password,
	}, form, nil
}

// decodeNewPassword validates the reset form.
func decodeNewPassword(r *http.Request) (string, error) {
	if err := r.ParseForm(); err != nil {
		return "", &ValidationError{Fields: map[string]string{"form": "Malformed form submission."}}
	}
	password := r.PostForm.Get("password")
	verr := &ValidationError{}
	checkPassword(verr, password)
	if confirm, ok := r.PostForm["confirm_password"]; ok && len(confirm) > 0 && confirm[0] != "" && confirm[0] != password {
		verr.add("confirm_password", "Passwords do not match.")
	}
	if !verr.empty() {
		return "", verr
	}
	return password, nil
}

func checkPassword(verr *ValidationError, password string) {
	switch {
	case password == "":
		verr.add("password", "Password is required.")
	case len(password) > maxPasswordBytes:
		verr.add("password", msgPasswordTooLong)
	}
}
