package app

import (
	"context"
	"io"

	"dsr-ledger/internal/core"
)

// ApplicationService is the single interface all UI adapters (REPL, CLI, Web) call.
// It decouples presentation from business logic. Implementations must contain
// no fmt.Println, no ANSI codes, and no display logic of any kind.
type ApplicationService interface {
	// Signup registers a regular user.
	Signup(ctx context.Context, username, password string) error

	// Login verifies a regular user and returns a session. The admin account is refused.
	Login(ctx context.Context, username, password string) (*UserSession, error)

	// AuthenticateAdmin verifies the admin credentials and returns an admin session.
	AuthenticateAdmin(ctx context.Context, username, password string) (*UserSession, error)

	// LoadDay returns the entries and notes a user recorded on date.
	LoadDay(ctx context.Context, user, date string) (*DayResult, error)

	// SaveDay replaces everything stored for (user, date) with the submitted rows.
	// The whole batch is rejected with a *core.ValidationError on any invalid amount.
	SaveDay(ctx context.Context, req SaveDayRequest) (*DayResult, error)

	// RenderDayReport writes DSR_{user}_{date}.pdf into dir (or the configured
	// report directory when dir is empty) and returns its path.
	RenderDayReport(ctx context.Context, user, date, dir string) (string, error)

	// WriteDayReport streams the day's PDF to w.
	WriteDayReport(ctx context.Context, w io.Writer, user, date string) error

	// LookupBill returns the carry-forward prefill for a bill number.
	LookupBill(ctx context.Context, user, bill string) (*core.CarryForward, error)

	// UserLedger returns a user's entries matching filter, newest (date, bill) first.
	UserLedger(ctx context.Context, user string, filter core.Filter) (*LedgerResult, error)

	// EditEntry lets a user change one of their own entries.
	EditEntry(ctx context.Context, req EditEntryRequest) (*core.Entry, error)

	// AdminLedger returns entries of all users (or filter.User), newest (date, user) first.
	AdminLedger(ctx context.Context, filter core.Filter) (*LedgerResult, error)

	// AdminEditEntry edits any entry after re-checking the admin password.
	AdminEditEntry(ctx context.Context, adminPassword string, req EditEntryRequest) (*core.Entry, error)

	// DeleteEntry removes every entry equal to entry after re-checking the admin password.
	DeleteEntry(ctx context.Context, adminPassword string, entry core.Entry) (int, error)

	// ListUsers returns every registered username except the admin, sorted.
	ListUsers(ctx context.Context) (*UserListResult, error)

	// DeleteUser removes a user's credentials. Their entries remain.
	DeleteUser(ctx context.Context, username string) error

	// ExportLedger writes a filtered ledger as CSV or XLSX.
	ExportLedger(ctx context.Context, w io.Writer, req ExportRequest) error

	// InterpretEntry drafts a day row from free text through the AI agent.
	// Returns ErrAIDisabled when no API key is configured.
	InterpretEntry(ctx context.Context, user, date, text string) (*DraftResult, error)
}
