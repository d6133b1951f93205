package handlers

import (
	"errors"
	"net/http"

	"github.com/salimtrading/staffportal/internal/services"
)

const (
	msgInvalidEmail = "Please enter a valid email address."
	msgInviteFailed = "Invite could not be sent. Please try again later."
)

func (h *WebHandler) InviteForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageInvite, "Invite", nil)
}

// Invite mails a registration link. Delivery failures are logged by the
// workflow and shown to the administrator without transport details.
func (h *WebHandler) Invite(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirectWithFlash(w, r, "/invite", msgInvalidEmail)
		return
	}
	email := r.PostForm.Get("email")

	err := h.workflow.Invite(r.Context(), h.baseURL(r), email)
	switch {
	case err == nil:
		h.redirectWithFlash(w, r, "/invite", "Invite sent to "+email)
	case errors.Is(err, services.ErrInvalidEmail):
		h.redirectWithFlash(w, r, "/invite", msgInvalidEmail)
	default:
		h.redirectWithFlash(w, r, "/invite", msgInviteFailed)
	}
}
