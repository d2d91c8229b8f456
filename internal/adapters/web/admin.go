package web

import (
	"net/http"

	"dsr-ledger/internal/app"
	"dsr-ledger/internal/core"

	"github.com/go-chi/chi/v5"
)

// adminLedger handles GET /api/admin/ledger?user=&date=&party=&bill=.
func (h *Handler) adminLedger(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.AdminLedger(r.Context(), filterFromQuery(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// adminEditEntry handles PUT /api/admin/entries. The admin password is
// re-checked even though the caller holds an admin session.
func (h *Handler) adminEditEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		app.EditEntryRequest
		AdminPassword string `json:"admin_password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	req.User = authFromContext(r.Context()).Username
	entry, err := h.svc.AdminEditEntry(r.Context(), req.AdminPassword, req.EditEntryRequest)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, entry)
}

// adminDeleteEntry handles DELETE /api/admin/entries.
func (h *Handler) adminDeleteEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Entry         core.Entry `json:"entry"`
		AdminPassword string     `json:"admin_password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	removed, err := h.svc.DeleteEntry(r.Context(), req.AdminPassword, req.Entry)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, map[string]int{"removed": removed})
}

// listUsers handles GET /api/admin/users.
func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// deleteUser handles DELETE /api/admin/users/{name}. Entries of the user are kept.
func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteUser(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
