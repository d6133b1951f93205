package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/salimtrading/staffportal/internal/services"
	"github.com/salimtrading/staffportal/internal/store"
	"go.uber.org/zap"
)

const msgInvalidLogin = "Invalid login"

// RequireLogin redirects anonymous visitors to the login page.
func (h *WebHandler) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.sessions.Load(r).IsAuthenticated() {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin redirects everyone but the administrator to the login page.
func (h *WebHandler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.sessions.Load(r).IsAdmin() {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Index greets the logged-in employee.
func (h *WebHandler) Index(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Load(r)
	employee, err := h.employees.GetByBusinessID(r.Context(), sess.EmployeeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// The account vanished since login.
			h.sessions.Clear(w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		h.renderServerError(w, r, "load employee", err)
		return
	}
	h.render(w, r, http.StatusOK, pageIndex, "Home", employee)
}

type loginForm struct {
	BusinessID string
}

func (h *WebHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageLogin, "Log in", loginForm{})
}

// Login establishes the session. Unknown ids and wrong passwords get the
// same response.
func (h *WebHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.render(w, r, http.StatusBadRequest, pageLogin, "Log in", loginForm{}, msgInvalidLogin)
		return
	}
	businessID := strings.TrimSpace(r.PostForm.Get("business_id"))
	password := r.PostForm.Get("password")

	employee, err := h.auth.Authenticate(r.Context(), businessID, password)
	if err != nil {
		if !errors.Is(err, services.ErrInvalidCredentials) {
			h.log.Error("authenticate", zap.Error(err))
		}
		h.render(w, r, http.StatusUnauthorized, pageLogin, "Log in", loginForm{BusinessID: businessID}, msgInvalidLogin)
		return
	}

	sess := h.sessions.Load(r)
	sess.EmployeeID = employee.BusinessID
	if err := h.sessions.Save(w, sess); err != nil {
		h.renderServerError(w, r, "save session", err)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout clears the identity unconditionally.
func (h *WebHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
