package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"dsr-ledger/internal/ai"
	"dsr-ledger/internal/core"
	"dsr-ledger/internal/report"
)

// ErrAIDisabled is returned by InterpretEntry when no AI agent is configured.
var ErrAIDisabled = errors.New("AI drafting is disabled: OPENAI_API_KEY is not set")

type appService struct {
	ledger    core.LedgerService
	users     core.UserService
	agent     ai.AgentService
	reportDir string
}

// NewAppService constructs an appService that satisfies ApplicationService.
// agent may be nil, which disables InterpretEntry. reportDir may be empty, in
// which case reports go to report.DefaultDir().
func NewAppService(ledger core.LedgerService, users core.UserService, agent ai.AgentService, reportDir string) ApplicationService {
	return &appService{
		ledger:    ledger,
		users:     users,
		agent:     agent,
		reportDir: reportDir,
	}
}

func (s *appService) Signup(ctx context.Context, username, password string) error {
	return s.users.Signup(ctx, username, password)
}

func (s *appService) Login(ctx context.Context, username, password string) (*UserSession, error) {
	if err := s.users.Login(ctx, username, password); err != nil {
		return nil, err
	}
	return &UserSession{Username: strings.TrimSpace(username), Role: RoleUser}, nil
}

func (s *appService) AuthenticateAdmin(ctx context.Context, username, password string) (*UserSession, error) {
	if err := s.users.AuthenticateAdmin(username, password); err != nil {
		return nil, err
	}
	return &UserSession{Username: strings.TrimSpace(username), Role: RoleAdmin}, nil
}

func (s *appService) LoadDay(ctx context.Context, user, date string) (*DayResult, error) {
	entries, notes, err := s.ledger.Day(ctx, user, date)
	if err != nil {
		return nil, err
	}
	return newDayResult(user, date, entries, notes), nil
}

func (s *appService) SaveDay(ctx context.Context, req SaveDayRequest) (*DayResult, error) {
	entries, notes, err := s.ledger.SaveDay(ctx, req.User, req.Date, req.Rows, req.Notes)
	if err != nil {
		return nil, err
	}
	return newDayResult(req.User, strings.TrimSpace(req.Date), entries, notes), nil
}

func (s *appService) RenderDayReport(ctx context.Context, user, date, dir string) (string, error) {
	day, err := s.reportDay(ctx, user, date)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = s.reportDir
	}
	if dir == "" {
		dir = report.DefaultDir()
	}
	return report.WriteFile(dir, day)
}

func (s *appService) WriteDayReport(ctx context.Context, w io.Writer, user, date string) error {
	day, err := s.reportDay(ctx, user, date)
	if err != nil {
		return err
	}
	return report.Render(w, day)
}

func (s *appService) reportDay(ctx context.Context, user, date string) (report.Day, error) {
	entries, notes, err := s.ledger.Day(ctx, user, date)
	if err != nil {
		return report.Day{}, err
	}
	return report.Day{User: user, Date: date, Entries: entries, Notes: notes}, nil
}

func (s *appService) LookupBill(ctx context.Context, user, bill string) (*core.CarryForward, error) {
	cf, err := s.ledger.Lookup(ctx, user, bill)
	if err != nil {
		return nil, err
	}
	return &cf, nil
}

func (s *appService) UserLedger(ctx context.Context, user string, filter core.Filter) (*LedgerResult, error) {
	filter.User = user
	result, err := s.ledgerView(ctx, filter)
	if err != nil {
		return nil, err
	}
	core.SortByDateBill(result.Entries)
	return result, nil
}

func (s *appService) AdminLedger(ctx context.Context, filter core.Filter) (*LedgerResult, error) {
	result, err := s.ledgerView(ctx, filter)
	if err != nil {
		return nil, err
	}
	core.SortByDateUser(result.Entries)
	return result, nil
}

func (s *appService) ledgerView(ctx context.Context, filter core.Filter) (*LedgerResult, error) {
	entries, err := s.ledger.Entries(ctx)
	if err != nil {
		return nil, err
	}
	notes, err := s.ledger.Notes(ctx)
	if err != nil {
		return nil, err
	}
	filtered := core.Apply(entries, filter)
	return &LedgerResult{
		Filter:  filter,
		Entries: filtered,
		Totals:  core.Summarize(filtered, core.NotesFor(filtered, notes)),
	}, nil
}

func (s *appService) EditEntry(ctx context.Context, req EditEntryRequest) (*core.Entry, error) {
	if req.Original.User != req.User {
		// Entries of other users are invisible to a regular user.
		return nil, core.ErrEntryNotFound
	}
	e, err := s.ledger.Edit(ctx, req.Original, req.Changes)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *appService) AdminEditEntry(ctx context.Context, adminPassword string, req EditEntryRequest) (*core.Entry, error) {
	if err := s.verifyAdminPassword(adminPassword); err != nil {
		return nil, err
	}
	e, err := s.ledger.Edit(ctx, req.Original, req.Changes)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *appService) DeleteEntry(ctx context.Context, adminPassword string, entry core.Entry) (int, error) {
	if err := s.verifyAdminPassword(adminPassword); err != nil {
		return 0, err
	}
	return s.ledger.Delete(ctx, entry)
}

// verifyAdminPassword re-checks the admin password; admin edits and deletes
// require it even inside an admin session.
func (s *appService) verifyAdminPassword(password string) error {
	return s.users.VerifyAdminPassword(password)
}

func (s *appService) ListUsers(ctx context.Context) (*UserListResult, error) {
	names, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	return &UserListResult{Users: names}, nil
}

func (s *appService) DeleteUser(ctx context.Context, username string) error {
	return s.users.Delete(ctx, username)
}

func (s *appService) ExportLedger(ctx context.Context, w io.Writer, req ExportRequest) error {
	format, err := report.ParseFormat(req.Format)
	if err != nil {
		return &core.ValidationError{Message: err.Error()}
	}

	var result *LedgerResult
	title := "Ledger - all users"
	if req.Admin {
		result, err = s.AdminLedger(ctx, req.Filter)
		if req.Filter.User != "" {
			title = "Ledger - " + req.Filter.User
		}
	} else {
		result, err = s.UserLedger(ctx, req.User, req.Filter)
		title = "Ledger - " + req.User
	}
	if err != nil {
		return err
	}

	if err := report.Write(w, format, report.Ledger{Title: title, Entries: result.Entries, Totals: result.Totals}); err != nil {
		return fmt.Errorf("failed to export ledger: %w", err)
	}
	slog.Info("ledger exported", "format", format, "entries", len(result.Entries), "admin", req.Admin)
	return nil
}

func (s *appService) InterpretEntry(ctx context.Context, user, date, text string) (*DraftResult, error) {
	if s.agent == nil {
		return nil, ErrAIDisabled
	}
	draft, err := s.agent.DraftEntry(ctx, text, date)
	if err != nil {
		return nil, err
	}

	result := &DraftResult{Draft: draft, Row: draft.Row()}
	if draft.IsClarification || draft.Bill == "" {
		return result, nil
	}

	cf, err := s.ledger.Lookup(ctx, user, draft.Bill)
	if err != nil {
		return nil, err
	}
	if cf.Found {
		result.CarryForward = &cf
		if result.Row.Party == "" {
			result.Row.Party = cf.Party
		}
		if result.Row.Credit == "" {
			result.Row.Credit = cf.Credit.StringFixed(2)
		}
	}
	return result, nil
}

func newDayResult(user, date string, entries []core.Entry, notes []core.Note) *DayResult {
	if entries == nil {
		entries = []core.Entry{}
	}
	if notes == nil {
		notes = []core.Note{}
	}
	return &DayResult{
		User:         user,
		Date:         date,
		Entries:      entries,
		Notes:        notes,
		TotalPayment: core.TotalPayment(entries),
		Totals:       core.Summarize(entries, notes),
	}
}
