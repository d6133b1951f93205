package handlers

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageIndex          = "index.html"
	pageLogin          = "login.html"
	pageInvite         = "invite.html"
	pageRegister       = "register.html"
	pageForgotPassword = "forgot_password.html"
	pageResetPassword  = "reset_password.html"
	pageEmployees      = "employees.html"
	pageTokenError     = "token_error.html"
	pageError          = "error.html"
)

func parseTemplates() (map[string]*template.Template, error) {
	pages, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	templates := make(map[string]*template.Template, len(pages))
	for _, page := range pages {
		name := strings.TrimPrefix(page, "templates/")
		if name == "layout.html" {
			continue
		}
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		templates[name] = tmpl
	}
	return templates, nil
}

type pageData struct {
	Title   string
	OrgName string
	User    string
	IsAdmin bool
	Flashes []string
	Data    any
}

// render writes page with the session's pending flashes plus any extra
// messages. Flashes are consumed.
func (h *WebHandler) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any, messages ...string) {
	sess := h.sessions.Load(r)
	flashes := append(sess.PopFlashes(), messages...)
	if err := h.sessions.Save(w, sess); err != nil {
		h.log.Error("save session", zap.Error(err))
	}

	tmpl, ok := h.templates[page]
	if !ok {
		h.log.Error("unknown template", zap.String("page", page))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "layout", pageData{
		Title:   title,
		OrgName: h.orgName,
		User:    sess.EmployeeID,
		IsAdmin: sess.IsAdmin(),
		Flashes: flashes,
		Data:    data,
	}); err != nil {
		h.log.Error("render template", zap.String("page", page), zap.Error(err))
	}
}

// redirectWithFlash queues message for the next page and redirects.
func (h *WebHandler) redirectWithFlash(w http.ResponseWriter, r *http.Request, target, message string) {
	sess := h.sessions.Load(r)
	sess.AddFlash(message)
	if err := h.sessions.Save(w, sess); err != nil {
		h.log.Error("save session", zap.Error(err))
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *WebHandler) renderTokenError(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusBadRequest, pageTokenError, "Invalid link", nil)
}

func (h *WebHandler) renderServerError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.log.Error(msg, zap.String("path", r.URL.Path), zap.Error(err))
	h.render(w, r, http.StatusInternalServerError, pageError, "Error", "Something went wrong. Please try again later.")
}

// baseURL is the external origin used in emailed links.
func (h *WebHandler) baseURL(r *http.Request) string {
	if h.publicBaseURL != "" {
		return strings.TrimRight(h.publicBaseURL, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" || proto == "http" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
