package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/salimtrading/staffportal/internal/credential"
	"github.com/salimtrading/staffportal/internal/export"
	"github.com/salimtrading/staffportal/internal/services"
	"github.com/salimtrading/staffportal/internal/session"
	"github.com/salimtrading/staffportal/internal/storage"
	"github.com/salimtrading/staffportal/internal/testutil"
	"github.com/salimtrading/staffportal/internal/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "secretkey123"

type memoryObjects struct {
	mu   sync.Mutex
	objs map[string][]byte
}

func (m *memoryObjects) EnsureBucket(context.Context) error { return nil }

func (m *memoryObjects) Put(_ context.Context, key string, data []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objs[key] = data
	return nil
}

func (m *memoryObjects) Bucket() string { return "staffportal" }
func (m *memoryObjects) Close() error   { return nil }

type portal struct {
	srv     *httptest.Server
	repo    *testutil.Employees
	mailer  *testutil.Mailer
	clock   *testutil.Clock
	objects *memoryObjects
}

func newPortal(t *testing.T) *portal {
	t.Helper()
	p := &portal{
		repo:    testutil.NewEmployees(),
		mailer:  &testutil.Mailer{},
		clock:   testutil.NewClock(time.Now()),
		objects: &memoryObjects{objs: map[string][]byte{}},
	}
	log := zap.NewNop()
	hasher := credential.NewHasher(bcrypt.MinCost)

	tokens, err := token.NewService(testSecret)
	require.NoError(t, err)
	sessions, err := session.NewManager(testSecret, session.Options{TTL: time.Hour})
	require.NoError(t, err)

	employees := services.NewEmployeeService(p.repo, hasher, log)
	require.NoError(t, employees.EnsureAdminSeed(context.Background(), services.AdminSeed{Email: "admin@example.com", Password: "admin123"}))

	workflow := services.NewWorkflowService(
		p.repo, hasher, tokens.WithClock(p.clock.Now), testutil.NewLedger(), p.mailer,
		services.WorkflowConfig{OrgName: "SalimTrading", Sender: "hr@example.com", TokenMaxAge: time.Hour},
		log,
	)

	h, err := NewWebHandler(Dependencies{
		Sessions:  sessions,
		Auth:      services.NewAuthService(p.repo, hasher),
		Employees: employees,
		Workflow:  workflow,
		Storage:   storage.NewStorage(p.objects),
		OrgName:   "SalimTrading",
		Log:       log,
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Get("/healthz", Healthz)
	WebRouter(r, h)
	p.srv = httptest.NewServer(r)
	t.Cleanup(p.srv.Close)
	return p
}

type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func (p *portal) browser(t *testing.T) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &browser{t: t, base: p.srv.URL, client: &http.Client{Jar: jar}}
}

type page struct {
	status int
	path   string
	body   string
	header http.Header
}

func (b *browser) do(req *http.Request) page {
	b.t.Helper()
	resp, err := b.client.Do(req)
	require.NoError(b.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(b.t, err)
	return page{status: resp.StatusCode, path: resp.Request.URL.Path, body: string(body), header: resp.Header}
}

func (b *browser) get(path string) page {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.base+path, nil)
	require.NoError(b.t, err)
	return b.do(req)
}

func (b *browser) post(path string, form url.Values) page {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodPost, b.base+path, strings.NewReader(form.Encode()))
	require.NoError(b.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) login(businessID, password string) page {
	b.t.Helper()
	return b.post("/login", url.Values{"business_id": {businessID}, "password": {password}})
}

// pathAfter returns the URL path following marker in the last mail.
func (p *portal) pathAfter(t *testing.T, marker string) string {
	t.Helper()
	msg, ok := p.mailer.Last()
	require.True(t, ok, "no mail sent")
	idx := strings.Index(msg.Body, marker)
	require.GreaterOrEqual(t, idx, 0, "%q not in %q", marker, msg.Body)
	return msg.Body[idx:]
}

func aliceForm() url.Values {
	return url.Values{
		"business_id": {"E100"},
		"full_name":   {"Alice"},
		"department":  {"Eng"},
		"position":    {"Dev"},
		"hire_date":   {"2026-01-05"},
		"password":    {"pw"},
	}
}

func (p *portal) registerAlice(t *testing.T) {
	t.Helper()
	admin := p.browser(t)
	require.Equal(t, "/", admin.login("ADMIN", "admin123").path)
	admin.post("/invite", url.Values{"email": {"alice@example.com"}})

	res := p.browser(t).post(p.pathAfter(t, "/register/"), aliceForm())
	require.Equal(t, http.StatusOK, res.status)
	require.Equal(t, "/login", res.path)
}

func TestHealthz(t *testing.T) {
	p := newPortal(t)
	res := p.browser(t).get("/healthz")
	assert.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, "ok", res.body)
}

func TestAnonymousIndexRedirectsToLogin(t *testing.T) {
	p := newPortal(t)
	res := p.browser(t).get("/")
	assert.Equal(t, "/login", res.path)
}

func TestLoginFailureLooksTheSame(t *testing.T) {
	p := newPortal(t)
	b := p.browser(t)

	wrong := b.login("ADMIN", "nope")
	unknown := b.login("NOBODY", "nope")

	for _, res := range []page{wrong, unknown} {
		assert.Equal(t, http.StatusUnauthorized, res.status)
		assert.Contains(t, res.body, msgInvalidLogin)
	}
	assert.Equal(t, "/login", b.get("/").path)
}

func TestAdminInvitesAndEmployeeRegisters(t *testing.T) {
	p := newPortal(t)
	admin := p.browser(t)

	res := admin.login("ADMIN", "admin123")
	require.Equal(t, "/", res.path)
	assert.Contains(t, res.body, "Welcome, Admin")

	res = admin.post("/invite", url.Values{"email": {"alice@example.com"}})
	assert.Equal(t, "/invite", res.path)
	assert.Contains(t, res.body, "Invite sent to alice@example.com")

	msg, ok := p.mailer.Last()
	require.True(t, ok)
	assert.Equal(t, []string{"alice@example.com"}, msg.To)
	assert.Equal(t, "SalimTrading Staff Registration", msg.Subject)
	assert.Contains(t, msg.Body, "Register here: "+p.srv.URL+"/register/")

	employee := p.browser(t)
	link := p.pathAfter(t, "/register/")
	res = employee.get(link)
	require.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, "alice@example.com")

	res = employee.post(link, aliceForm())
	assert.Equal(t, "/login", res.path)
	assert.Contains(t, res.body, "Registration complete. Please log in.")

	res = employee.login("E100", "pw")
	assert.Equal(t, "/", res.path)
	assert.Contains(t, res.body, "Welcome, Alice")

	stored, err := p.repo.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "E100", stored.BusinessID)
	require.NotNil(t, stored.HireDate)
	assert.Equal(t, "2026-01-05", stored.HireDate.Format(hireDateLayout))
}

func TestRegisterIgnoresSubmittedEmail(t *testing.T) {
	p := newPortal(t)
	admin := p.browser(t)
	admin.login("ADMIN", "admin123")
	admin.post("/invite", url.Values{"email": {"alice@example.com"}})

	form := aliceForm()
	form.Set("email", "mallory@example.com")
	p.browser(t).post(p.pathAfter(t, "/register/"), form)

	stored, err := p.repo.GetByBusinessID(context.Background(), "E100")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", stored.Email)
}

func TestInviteRejectsInvalidEmail(t *testing.T) {
	p := newPortal(t)
	admin := p.browser(t)
	admin.login("ADMIN", "admin123")

	for _, email := range []string{"", "not-an-email"} {
		res := admin.post("/invite", url.Values{"email": {email}})
		assert.Equal(t, "/invite", res.path)
		assert.Contains(t, res.body, msgInvalidEmail)
	}
	assert.Empty(t, p.mailer.Sent)
}

func TestInviteTransportFailureIsReported(t *testing.T) {
	p := newPortal(t)
	p.mailer.Err = assert.AnError
	admin := p.browser(t)
	admin.login("ADMIN", "admin123")

	res := admin.post("/invite", url.Values{"email": {"alice@example.com"}})
	assert.Contains(t, res.body, msgInviteFailed)
	assert.NotContains(t, res.body, "Invite sent")
}

func TestNonAdminCannotInvite(t *testing.T) {
	p := newPortal(t)
	p.registerAlice(t)
	sent := len(p.mailer.Sent)

	alice := p.browser(t)
	require.Equal(t, "/", alice.login("E100", "pw").path)

	assert.Equal(t, "/login", alice.get("/invite").path)
	assert.Equal(t, "/login", alice.post("/invite", url.Values{"email": {"x@example.com"}}).path)
	assert.Equal(t, "/login", alice.get("/employees").path)
	assert.Len(t, p.mailer.Sent, sent)
}

func TestRegisterValidation(t *testing.T) {
	p := newPortal(t)
	admin := p.browser(t)
	admin.login("ADMIN", "admin123")
	admin.post("/invite", url.Values{"email": {"alice@example.com"}})
	link := p.pathAfter(t, "/register/")

	tests := []struct {
		name  string
		field string
		value string
		want  string
	}{
		{"missing id", "business_id", "", "Employee ID is required."},
		{"long id", "business_id", "E1234567890", "Employee ID must be at most 10 characters."},
		{"reserved id", "business_id", "admin", "Employee ID is reserved."},
		{"missing name", "full_name", "", "Full name is required."},
		{"bad date", "hire_date", "05/01/2026", "Hire date must be a date like 2024-01-31."},
		{"missing password", "password", "", "Password is required."},
		{"long password", "password", strings.Repeat("x", 80), msgPasswordTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := aliceForm()
			form.Set(tt.field, tt.value)
			res := p.browser(t).post(link, form)
			assert.Equal(t, http.StatusUnprocessableEntity, res.status)
			assert.Contains(t, res.body, tt.want)
		})
	}
	assert.Equal(t, 1, p.repo.Count())
}

func TestRegisterRejectsOverlongPassword(t *testing.T) {
	p := newPortal(t)
	admin := p.browser(t)
	admin.login("ADMIN", "admin123")
	admin.post("/invite", url.Values{"email": {"alice@example.com"}})
	link := p.pathAfter(t, "/register/")

	form := aliceForm()
	form.Set("password", strings.Repeat("x", 80))
	res := p.browser(t).post(link, form)
	assert.Equal(t, http.StatusUnprocessableEntity, res.status)
	assert.Contains(t, res.body, msgPasswordTooLong)
	assert.Equal(t, 1, p.repo.Count())

	form.Set("password", strings.Repeat("x", maxPasswordBytes))
	res = p.browser(t).post(link, form)
	assert.Equal(t, "/login", res.path)
	assert.Equal(t, 2, p.repo.Count())
}

func TestRegisterDuplicate(t *testing.T) {
	p := newPortal(t)
	p.registerAlice(t)

	admin := p.browser(t)
	admin.login("ADMIN", "admin123")
	admin.post("/invite", url.Values{"email": {"bob@example.com"}})

	res := p.browser(t).post(p.pathAfter(t, "/register/"), aliceForm())
	assert.Equal(t, http.StatusConflict, res.status)
	assert.Contains(t, res.body, msgDuplicateEmployee)
	assert.Equal(t, 2, p.repo.Count())
}

func TestRegisterWithBadOrExpiredToken(t *testing.T) {
	p := newPortal(t)
	admin := p.browser(t)
	admin.login("ADMIN", "admin123")
	admin.post("/invite", url.Values{"email": {"alice@example.com"}})
	link := p.pathAfter(t, "/register/")

	res := p.browser(t).get("/register/garbage")
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Contains(t, res.body, "Invalid or expired token.")

	p.clock.Advance(time.Hour + time.Minute)
	res = p.browser(t).post(link, aliceForm())
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Contains(t, res.body, "Invalid or expired token.")
	assert.Equal(t, 1, p.repo.Count())
}

func TestForgotPasswordLooksTheSame(t *testing.T) {
	p := newPortal(t)
	p.registerAlice(t)
	sent := len(p.mailer.Sent)

	b := p.browser(t)
	known := b.post("/forgot-password", url.Values{"email": {"alice@example.com"}})
	unknown := b.post("/forgot-password", url.Values{"email": {"nobody@example.com"}})

	for _, res := range []page{known, unknown} {
		assert.Equal(t, "/login", res.path)
		assert.Equal(t, http.StatusOK, res.status)
		assert.Contains(t, res.body, msgResetRequested)
	}
	require.Len(t, p.mailer.Sent, sent+1)
	assert.Equal(t, "Reset Your Password", p.mailer.Sent[sent].Subject)
}

func TestResetPasswordIsSingleUse(t *testing.T) {
	p := newPortal(t)
	p.registerAlice(t)

	b := p.browser(t)
	b.post("/forgot-password", url.Values{"email": {"alice@example.com"}})
	link := p.pathAfter(t, "/reset/")

	assert.Equal(t, http.StatusOK, b.get(link).status)

	res := b.post(link, url.Values{"password": {"new"}, "confirm_password": {"other"}})
	assert.Equal(t, http.StatusUnprocessableEntity, res.status)
	assert.Contains(t, res.body, "Passwords do not match.")

	res = b.post(link, url.Values{"password": {"new"}, "confirm_password": {"new"}})
	assert.Equal(t, "/login", res.path)
	assert.Contains(t, res.body, "Password updated.")

	res = b.post(link, url.Values{"password": {"again"}})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Contains(t, res.body, "Invalid or expired token.")

	assert.Equal(t, http.StatusUnauthorized, b.login("E100", "pw").status)
	assert.Equal(t, "/", b.login("E100", "new").path)
}

func TestResetPasswordRejectsOverlongPassword(t *testing.T) {
	p := newPortal(t)
	p.registerAlice(t)

	b := p.browser(t)
	b.post("/forgot-password", url.Values{"email": {"alice@example.com"}})
	link := p.pathAfter(t, "/reset/")

	res := b.post(link, url.Values{"password": {strings.Repeat("x", 80)}})
	assert.Equal(t, http.StatusUnprocessableEntity, res.status)
	assert.Contains(t, res.body, msgPasswordTooLong)

	res = b.post(link, url.Values{"password": {"new"}})
	assert.Equal(t, "/login", res.path)
	assert.Contains(t, res.body, "Password updated.")
}

func TestResetPasswordForDeletedEmployee(t *testing.T) {
	p := newPortal(t)
	p.registerAlice(t)

	b := p.browser(t)
	b.post("/forgot-password", url.Values{"email": {"alice@example.com"}})
	link := p.pathAfter(t, "/reset/")
	p.repo.Delete("E100")

	res := b.post(link, url.Values{"password": {"new"}})
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Contains(t, res.body, "Invalid or expired token.")
}

func TestIndexClearsSessionOfDeletedEmployee(t *testing.T) {
	p := newPortal(t)
	p.registerAlice(t)

	b := p.browser(t)
	require.Equal(t, "/", b.login("E100", "pw").path)
	p.repo.Delete("E100")

	assert.Equal(t, "/login", b.get("/").path)
	assert.Equal(t, "/login", b.get("/").path)
}

func TestLogout(t *testing.T) {
	p := newPortal(t)
	b := p.browser(t)
	require.Equal(t, "/", b.login("ADMIN", "admin123").path)

	assert.Equal(t, "/login", b.get("/logout").path)
	assert.Equal(t, "/login", b.get("/").path)
}

func TestEmployeesListAndExport(t *testing.T) {
	p := newPortal(t)
	p.registerAlice(t)

	admin := p.browser(t)
	admin.login("ADMIN", "admin123")

	res := admin.get("/employees")
	assert.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.body, "E100")
	assert.Contains(t, res.body, "alice@example.com")

	res = admin.get("/employees/export.xlsx")
	assert.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, export.RosterContentType, res.header.Get("Content-Type"))
	assert.Contains(t, res.header.Get("Content-Disposition"), "attachment")
	assert.NotEmpty(t, res.body)

	p.objects.mu.Lock()
	defer p.objects.mu.Unlock()
	require.Len(t, p.objects.objs, 1)
	for key, data := range p.objects.objs {
		assert.True(t, strings.HasPrefix(key, "exports/roster-"), key)
		assert.Equal(t, res.body, string(data))
	}
}
