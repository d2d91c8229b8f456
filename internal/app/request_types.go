package app

import "dsr-ledger/internal/core"

// SaveDayRequest is the full content of the day entry form.
type SaveDayRequest struct {
	User  string           `json:"user"`
	Date  string           `json:"date"`
	Rows  []core.RowInput  `json:"rows"`
	Notes []core.NoteInput `json:"notes"`
}

// EditEntryRequest identifies an entry by its current values and carries the new ones.
// User is the acting user; it must own Original.
type EditEntryRequest struct {
	User     string            `json:"-"`
	Original core.Entry        `json:"original"`
	Changes  core.EntryChanges `json:"changes"`
}

// ExportRequest selects the ledger to export. Non-admin exports are always
// restricted to User's own entries.
type ExportRequest struct {
	User   string
	Admin  bool
	Filter core.Filter
	Format string // csv or xlsx
}
