// Package testutil provides in-memory stand-ins for the database, ledger
// and mail transport, for use in tests only.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/salimtrading/staffportal/internal/mail"
	"github.com/salimtrading/staffportal/internal/redemption"
	"github.com/salimtrading/staffportal/internal/store"
	"github.com/salimtrading/staffportal/types"
)

// Employees is an in-memory employee repository enforcing the same
// unique constraints as the database.
type Employees struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]types.Employee
	// Err, when set, is returned by every call.
	Err error
}

func NewEmployees() *Employees {
	return &Employees{rows: map[int64]types.Employee{}}
}

func (e *Employees) GetByBusinessID(_ context.Context, businessID string) (types.Employee, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return types.Employee{}, e.Err
	}
	for _, row := range e.rows {
		if row.BusinessID == businessID {
			return row, nil
		}
	}
	return types.Employee{}, store.ErrNotFound
}

func (e *Employees) GetByEmail(_ context.Context, email string) (types.Employee, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return types.Employee{}, e.Err
	}
	for _, row := range e.rows {
		if email != "" && row.Email == email {
			return row, nil
		}
	}
	return types.Employee{}, store.ErrNotFound
}

func (e *Employees) List(context.Context) ([]types.Employee, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return nil, e.Err
	}
	out := make([]types.Employee, 0, len(e.rows))
	for _, row := range e.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BusinessID < out[j].BusinessID })
	return out, nil
}

func (e *Employees) Create(_ context.Context, employee types.Employee) (types.Employee, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return types.Employee{}, e.Err
	}
	for _, row := range e.rows {
		if row.BusinessID == employee.BusinessID || (employee.Email != "" && row.Email == employee.Email) {
			return types.Employee{}, fmt.Errorf("employee %s: %w", employee.BusinessID, store.ErrConflict)
		}
	}
	e.nextID++
	employee.ID = e.nextID
	if employee.Status == "" {
		employee.Status = types.StatusActive
	}
	employee.CreatedAt = time.Now().UTC()
	employee.UpdatedAt = employee.CreatedAt
	e.rows[employee.ID] = employee
	return employee, nil
}

func (e *Employees) Update(_ context.Context, employee types.Employee) (types.Employee, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.Err != nil {
		return types.Employee{}, e.Err
	}
	if _, ok := e.rows[employee.ID]; !ok {
		return types.Employee{}, store.ErrNotFound
	}
	employee.UpdatedAt = time.Now().UTC()
	e.rows[employee.ID] = employee
	return employee, nil
}

// Delete removes an employee by business id.
func (e *Employees) Delete(businessID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id, row := range e.rows {
		if row.BusinessID == businessID {
			delete(e.rows, id)
		}
	}
}

// Count returns the number of stored employees.
func (e *Employees) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.rows)
}

// Ledger is an in-memory redemption ledger without expiry.
type Ledger struct {
	mu      sync.Mutex
	claimed map[string]bool
}

func NewLedger() *Ledger {
	return &Ledger{claimed: map[string]bool{}}
}

func (l *Ledger) Claim(_ context.Context, purpose, token string, _ time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := redemption.Key(purpose, token)
	if l.claimed[key] {
		return redemption.ErrAlreadyRedeemed
	}
	l.claimed[key] = true
	return nil
}

func (l *Ledger) Release(_ context.Context, purpose, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.claimed, redemption.Key(purpose, token))
	return nil
}

// Mailer records sent messages and optionally fails.
type Mailer struct {
	mu   sync.Mutex
	Sent []mail.Message
	// Err, when set, is wrapped in mail.ErrTransport and returned.
	Err error
}

func (m *Mailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return fmt.Errorf("%w: %v", mail.ErrTransport, m.Err)
	}
	m.Sent = append(m.Sent, msg)
	return nil
}

// Last returns the most recent message, or false when none was sent.
func (m *Mailer) Last() (mail.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return mail.Message{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}

// Clock is a settable time source.
type Clock struct {
	mu sync.Mutex
	t  time.Time
}

func NewClock(t time.Time) *Clock {
	return &Clock{t: t}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
