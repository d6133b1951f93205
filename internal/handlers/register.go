package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/salimtrading/staffportal/internal/services"
	"github.com/salimtrading/staffportal/internal/token"
	"golang.org/x/crypto/bcrypt"
)

const msgDuplicateEmployee = "An employee with that ID or email already exists."

type registerPage struct {
	Email string
	Form  registrationForm
}

// RegisterForm shows the registration form for a valid invite link.
func (h *WebHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	email, err := h.workflow.VerifyInvite(chi.URLParam(r, "token"))
	if err != nil {
		h.renderTokenError(w, r)
		return
	}
	h.render(w, r, http.StatusOK, pageRegister, "Register", registerPage{Email: email})
}

// Register creates the employee. The token is checked again here since
// it may have expired while the form was open.
func (h *WebHandler) Register(w http.ResponseWriter, r *http.Request) {
	tok := chi.URLParam(r, "token")
	email, err := h.workflow.VerifyInvite(tok)
	if err != nil {
		h.renderTokenError(w, r)
		return
	}

	reg, form, err := decodeRegistration(r)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			h.render(w, r, http.StatusUnprocessableEntity, pageRegister, "Register", registerPage{Email: email, Form: form}, verr.Messages()...)
			return
		}
		h.renderServerError(w, r, "decode registration", err)
		return
	}

	if _, err := h.workflow.Register(r.Context(), tok, reg); err != nil {
		switch {
		case errors.Is(err, token.ErrInvalid), errors.Is(err, token.ErrExpired):
			h.renderTokenError(w, r)
		case errors.Is(err, bcrypt.ErrPasswordTooLong):
			h.render(w, r, http.StatusUnprocessableEntity, pageRegister, "Register", registerPage{Email: email, Form: form}, msgPasswordTooLong)
		case errors.Is(err, services.ErrDuplicateEmployee):
			h.render(w, r, http.StatusConflict, pageRegister, "Register", registerPage{Email: email, Form: form}, msgDuplicateEmployee)
		default:
			h.renderServerError(w, r, "register employee", err)
		}
		return
	}
	h.redirectWithFlash(w, r, "/login", "Registration complete. Please log in.")
}
