package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, m *Manager, s Session) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, m.Save(rec, s))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

func TestSaveAndLoad(t *testing.T) {
	m, err := NewManager("secretkey123", Options{})
	require.NoError(t, err)

	req := roundTrip(t, m, Session{EmployeeID: "ADMIN", Flashes: []string{"Invite sent"}})
	got := m.Load(req)

	assert.Equal(t, "ADMIN", got.EmployeeID)
	assert.True(t, got.IsAuthenticated())
	assert.True(t, got.IsAdmin())
	assert.Equal(t, []string{"Invite sent"}, got.PopFlashes())
	assert.Empty(t, got.Flashes)
}

func TestLoadWithoutCookieIsAnonymous(t *testing.T) {
	m, err := NewManager("secretkey123", Options{})
	require.NoError(t, err)

	got := m.Load(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, got.IsAuthenticated())
	assert.False(t, got.IsAdmin())
}

func TestLoadRejectsForeignSignature(t *testing.T) {
	m, err := NewManager("secretkey123", Options{})
	require.NoError(t, err)
	other, err := NewManager("another", Options{})
	require.NoError(t, err)

	req := roundTrip(t, other, Session{EmployeeID: "ADMIN"})
	assert.False(t, m.Load(req).IsAuthenticated())
}

func TestLoadRejectsExpiredCookie(t *testing.T) {
	m, err := NewManager("secretkey123", Options{TTL: time.Minute})
	require.NoError(t, err)
	start := time.Now()
	m.now = func() time.Time { return start }

	req := roundTrip(t, m, Session{EmployeeID: "E100"})
	m.now = func() time.Time { return start.Add(2 * time.Minute) }

	assert.False(t, m.Load(req).IsAuthenticated())
}

func TestSaveEmptySessionClearsCookie(t *testing.T) {
	m, err := NewManager("secretkey123", Options{Secure: true})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, m.Save(rec, Session{}))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Equal(t, "", cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0)
	assert.True(t, cookies[0].Secure)
}

func TestFlashOnlySessionIsAnonymous(t *testing.T) {
	m, err := NewManager("secretkey123", Options{})
	require.NoError(t, err)

	req := roundTrip(t, m, Session{Flashes: []string{"Invalid login"}})
	got := m.Load(req)
	assert.False(t, got.IsAuthenticated())
	assert.Equal(t, []string{"Invalid login"}, got.Flashes)
}
