package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/salimtrading/staffportal/internal/export"
	"go.uber.org/zap"
)

func (h *WebHandler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.employees.List(r.Context())
	if err != nil {
		h.renderServerError(w, r, "list employees", err)
		return
	}
	h.render(w, r, http.StatusOK, pageEmployees, "Employees", employees)
}

// ExportEmployees downloads the roster as a spreadsheet. A copy is kept in
// object storage when one is configured; failing to store it does not
// fail the download.
func (h *WebHandler) ExportEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.employees.List(r.Context())
	if err != nil {
		h.renderServerError(w, r, "list employees", err)
		return
	}
	data, err := export.Roster(employees)
	if err != nil {
		h.renderServerError(w, r, "build roster", err)
		return
	}

	now := time.Now().UTC()
	if h.storage != nil {
		key := fmt.Sprintf("exports/roster-%s.xlsx", now.Format("20060102T150405Z"))
		if err := h.storage.Put(r.Context(), key, data, export.RosterContentType); err != nil {
			h.log.Warn("store roster export", zap.String("key", key), zap.Error(err))
		}
	}

	w.Header().Set("Content-Type", export.RosterContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="roster-%s.xlsx"`, now.Format("20060102")))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.log.Warn("write roster export", zap.Error(err))
	}
}
