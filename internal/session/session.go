// Package session keeps the logged-in identity and pending flash
// messages in a signed cookie.
package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/salimtrading/staffportal/internal/token"
	"github.com/salimtrading/staffportal/types"
)

const (
	CookieName        = "staffportal_session"
	defaultSessionTTL = 24 * time.Hour
)

// Session is the per-browser state. The zero value is an anonymous
// session with no flashes.
type Session struct {
	EmployeeID string
	Flashes    []string
}

// IsAuthenticated reports whether an employee is logged in.
func (s Session) IsAuthenticated() bool {
	return s.EmployeeID != ""
}

// IsAdmin reports whether the logged-in employee is the administrator.
func (s Session) IsAdmin() bool {
	return s.EmployeeID == types.AdminBusinessID
}

// AddFlash queues a message for the next rendered page.
func (s *Session) AddFlash(message string) {
	s.Flashes = append(s.Flashes, message)
}

// PopFlashes returns and clears the queued messages.
func (s *Session) PopFlashes() []string {
	flashes := s.Flashes
	s.Flashes = nil
	return flashes
}

type cookieClaims struct {
	Flashes []string `json:"fl,omitempty"`
	jwt.RegisteredClaims
}

// Options controls cookie attributes.
type Options struct {
	TTL    time.Duration
	Secure bool
}

// Manager encodes sessions into cookies and back.
type Manager struct {
	key    []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewManager(secret string, opts Options) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &Manager{
		key:    token.DeriveKey([]byte(secret), "session"),
		ttl:    ttl,
		secure: opts.Secure,
		now:    time.Now,
	}, nil
}

// Load returns the request's session. Missing, expired or tampered
// cookies yield an anonymous session.
func (m *Manager) Load(r *http.Request) Session {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return Session{}
	}

	var c cookieClaims
	_, err = jwt.ParseWithClaims(cookie.Value, &c, func(t *jwt.Token) (any, error) {
		return m.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return Session{}
	}
	return Session{EmployeeID: c.Subject, Flashes: c.Flashes}
}

// Save writes s to the response. An empty session clears the cookie.
func (m *Manager) Save(w http.ResponseWriter, s Session) error {
	if !s.IsAuthenticated() && len(s.Flashes) == 0 {
		m.Clear(w)
		return nil
	}

	now := m.now()
	c := cookieClaims{
		Flashes: s.Flashes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.EmployeeID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(m.key)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear removes the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
