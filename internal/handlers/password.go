package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/salimtrading/staffportal/internal/credential"
	"github.com/salimtrading/staffportal/internal/redemption"
	"github.com/salimtrading/staffportal/internal/services"
	"github.com/salimtrading/staffportal/internal/token"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const (
	msgResetRequested  = "If your email exists, a reset link has been sent."
	msgPasswordTooLong = "Password is too long."
)

func (h *WebHandler) ForgotPasswordForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageForgotPassword, "Forgot password", nil)
}

// ForgotPassword always answers with the same confirmation so the page
// cannot be used to probe for registered addresses.
func (h *WebHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err == nil {
		if err := h.workflow.ForgotPassword(r.Context(), h.baseURL(r), r.PostForm.Get("email")); err != nil {
			h.log.Error("forgot password", zap.Error(err))
		}
	}
	h.redirectWithFlash(w, r, "/login", msgResetRequested)
}

func (h *WebHandler) ResetPasswordForm(w http.ResponseWriter, r *http.Request) {
	if _, err := h.workflow.VerifyReset(chi.URLParam(r, "token")); err != nil {
		h.renderTokenError(w, r)
		return
	}
	h.render(w, r, http.StatusOK, pageResetPassword, "Reset password", nil)
}

func (h *WebHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	tok := chi.URLParam(r, "token")
	if _, err := h.workflow.VerifyReset(tok); err != nil {
		h.renderTokenError(w, r)
		return
	}

	password, err := decodeNewPassword(r)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			h.render(w, r, http.StatusUnprocessableEntity, pageResetPassword, "Reset password", nil, verr.Messages()...)
			return
		}
		h.renderServerError(w, r, "decode password", err)
		return
	}

	if err := h.workflow.ResetPassword(r.Context(), tok, password); err != nil {
		switch {
		case errors.Is(err, token.ErrInvalid),
			errors.Is(err, token.ErrExpired),
			errors.Is(err, redemption.ErrAlreadyRedeemed),
			errors.Is(err, services.ErrEmployeeNotFound):
			h.renderTokenError(w, r)
		case errors.Is(err, credential.ErrEmptyPassword):
			h.render(w, r, http.StatusUnprocessableEntity, pageResetPassword, "Reset password", nil, "Password is required.")
		case errors.Is(err, bcrypt.ErrPasswordTooLong):
			h.render(w, r, http.StatusUnprocessableEntity, pageResetPassword, "Reset password", nil, msgPasswordTooLong)
		default:
			h.renderServerError(w, r, "reset password", err)
		}
		return
	}
	h.redirectWithFlash(w, r, "/login", "Password updated.")
}
