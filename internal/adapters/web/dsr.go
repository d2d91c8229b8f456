package web

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"dsr-ledger/internal/app"
	"dsr-ledger/internal/core"
	"dsr-ledger/internal/report"

	"github.com/go-chi/chi/v5"
)

// getDay handles GET /api/days/{date}.
func (h *Handler) getDay(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	day, err := h.svc.LoadDay(r.Context(), claims.Username, chi.URLParam(r, "date"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, day)
}

// saveDay handles PUT /api/days/{date}. The body replaces every row and note of the date.
func (h *Handler) saveDay(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	var body struct {
		Rows  []core.RowInput  `json:"rows"`
		Notes []core.NoteInput `json:"notes"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	day, err := h.svc.SaveDay(r.Context(), app.SaveDayRequest{
		User:  claims.Username,
		Date:  chi.URLParam(r, "date"),
		Rows:  body.Rows,
		Notes: body.Notes,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.metrics.saves.Inc()
	writeJSON(w, day)
}

// dayReport handles GET /api/days/{date}/report and streams the PDF.
func (h *Handler) dayReport(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	date := chi.URLParam(r, "date")
	if _, err := time.Parse(core.DateLayout, date); err != nil {
		writeError(w, r, "date must be YYYY-MM-DD", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := h.svc.WriteDayReport(r.Context(), &buf, claims.Username, date); err != nil {
		writeServiceError(w, r, err)
		return
	}
	h.metrics.reports.Inc()
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName(claims.Username, date)))
	_, _ = w.Write(buf.Bytes())
}

// carryForward handles GET /api/bills/{bill}/carry-forward.
func (h *Handler) carryForward(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	cf, err := h.svc.LookupBill(r.Context(), claims.Username, chi.URLParam(r, "bill"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, cf)
}

// userLedger handles GET /api/ledger?date=&party=&bill=.
func (h *Handler) userLedger(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	result, err := h.svc.UserLedger(r.Context(), claims.Username, filterFromQuery(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// editEntry handles PUT /api/ledger/entries.
func (h *Handler) editEntry(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	var req app.EditEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.User = claims.Username
	entry, err := h.svc.EditEntry(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, entry)
}

// exportLedger handles GET /api/ledger/export?format=csv|xlsx plus the ledger filters.
// Regular users always export their own entries only.
func (h *Handler) exportLedger(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, r, err.Error(), "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	err = h.svc.ExportLedger(r.Context(), &buf, app.ExportRequest{
		User:   claims.Username,
		Admin:  claims.IsAdmin(),
		Filter: filterFromQuery(r),
		Format: string(format),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "ledger."+string(format)))
	_, _ = w.Write(buf.Bytes())
}

// draftEntry handles POST /api/ai/draft.
func (h *Handler) draftEntry(w http.ResponseWriter, r *http.Request) {
	claims := authFromContext(r.Context())
	var req struct {
		Text string `json:"text"`
		Date string `json:"date"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Text == "" {
		writeError(w, r, "text is required", "VALIDATION_ERROR", http.StatusBadRequest)
		return
	}
	if req.Date == "" {
		req.Date = time.Now().Format(core.DateLayout)
	}
	result, err := h.svc.InterpretEntry(r.Context(), claims.Username, req.Date, req.Text)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// filterFromQuery reads the ledger filter from query parameters. The user
// parameter is honoured only on admin routes; user routes override it.
func filterFromQuery(r *http.Request) core.Filter {
	q := r.URL.Query()
	return core.Filter{
		User:  q.Get("user"),
		Date:  q.Get("date"),
		Party: q.Get("party"),
		Bill:  q.Get("bill"),
	}
}
