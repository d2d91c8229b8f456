package app

import (
	"dsr-ledger/internal/core"

	"github.com/shopspring/decimal"
)

// Roles carried by a UserSession.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// UserSession is returned on successful authentication.
type UserSession struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the session belongs to the admin.
func (s *UserSession) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

// DayResult is one user's DSR for one date.
type DayResult struct {
	User         string          `json:"user"`
	Date         string          `json:"date"`
	Entries      []core.Entry    `json:"entries"`
	Notes        []core.Note     `json:"notes"`
	TotalPayment decimal.Decimal `json:"total_payment"`
	Totals       core.Totals     `json:"totals"`
}

// LedgerResult is a filtered, sorted list of entries with totals.
type LedgerResult struct {
	Filter  core.Filter  `json:"filter"`
	Entries []core.Entry `json:"entries"`
	Totals  core.Totals  `json:"totals"`
}

// UserListResult lists registered users.
type UserListResult struct {
	Users []string `json:"users"`
}

// DraftResult is an AI drafted row. When the bill has history and the text
// named no credit, Row.Credit is prefilled from CarryForward.
type DraftResult struct {
	Draft        *core.EntryDraft   `json:"draft"`
	Row          core.RowInput      `json:"row"`
	CarryForward *core.CarryForward `json:"carry_forward,omitempty"`
}
