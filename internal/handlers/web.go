package handlers

import (
	"html/template"

	"github.com/go-chi/chi/v5"
	"github.com/salimtrading/staffportal/internal/services"
	"github.com/salimtrading/staffportal/internal/session"
	"github.com/salimtrading/staffportal/internal/storage"
	"go.uber.org/zap"
)

// Dependencies are the collaborators of the web handlers. Storage may be
// nil when no object storage is configured.
type Dependencies struct {
	Sessions      *session.Manager
	Auth          *services.AuthService
	Employees     *services.EmployeeService
	Workflow      *services.WorkflowService
	Storage       *storage.Storage
	OrgName       string
	PublicBaseURL string
	Log           *zap.Logger
}

// WebHandler serves the HTML pages of the staff portal.
type WebHandler struct {
	sessions      *session.Manager
	auth          *services.AuthService
	employees     *services.EmployeeService
	workflow      *services.WorkflowService
	storage       *storage.Storage
	orgName       string
	publicBaseURL string
	log           *zap.Logger
	templates     map[string]*template.Template
}

func NewWebHandler(deps Dependencies) (*WebHandler, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &WebHandler{
		sessions:      deps.Sessions,
		auth:          deps.Auth,
		employees:     deps.Employees,
		workflow:      deps.Workflow,
		storage:       deps.Storage,
		orgName:       deps.OrgName,
		publicBaseURL: deps.PublicBaseURL,
		log:           log,
		templates:     templates,
	}, nil
}

// WebRouter registers the portal's routes on r.
func WebRouter(r chi.Router, h *WebHandler) {
	r.With(h.RequireLogin).Get("/", h.Index)

	r.Get("/login", h.LoginForm)
	r.Post("/login", h.Login)
	r.Get("/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireAdmin)
		r.Get("/invite", h.InviteForm)
		r.Post("/invite", h.Invite)
		r.Get("/employees", h.ListEmployees)
		r.Get("/employees/export.xlsx", h.ExportEmployees)
	})

	r.Get("/register/{token}", h.RegisterForm)
	r.Post("/register/{token}", h.Register)

	r.Get("/forgot-password", h.ForgotPasswordForm)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Get("/reset/{token}", h.ResetPasswordForm)
	r.Post("/reset/{token}", h.ResetPassword)
}
