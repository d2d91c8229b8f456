package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts are persisted as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// DateLayout is the format of every entry and note date.
const DateLayout = "2006-01-02"

var (
	ErrEntryNotFound        = errors.New("could not find original entry")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrEmptyCredentials     = errors.New("username and password cannot be empty")
	ErrPasswordTooLong      = errors.New("password cannot be longer than 72 bytes")
	ErrUserExists           = errors.New("user already exists")
	ErrUserNotFound         = errors.New("user not found")
	ErrReservedUsername     = errors.New("username is reserved")
	ErrAdminLoginNotAllowed = errors.New("please use the admin login for the admin account")
	ErrNotAdmin             = errors.New("admin authentication failed")
)

// ValidationError is returned when user supplied input cannot be accepted.
// Message is shown to the user as is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Entry is one DSR row: a bill recorded by a user on a date.
type Entry struct {
	User     string          `json:"user"`
	Date     string          `json:"date"`
	Bill     string          `json:"bill"`
	Party    string          `json:"party"`
	Credit   decimal.Decimal `json:"credit"`
	Payment  decimal.Decimal `json:"payment"`
	Return   decimal.Decimal `json:"return"`
	Discount decimal.Decimal `json:"discount"`
	Balance  decimal.Decimal `json:"balance"`
}

// Equal reports whether two entries carry the same values in every field.
// Amounts are compared numerically, so 60 and 60.00 are equal.
func (e Entry) Equal(o Entry) bool {
	return e.User == o.User &&
		e.Date == o.Date &&
		e.Bill == o.Bill &&
		e.Party == o.Party &&
		e.Credit.Equal(o.Credit) &&
		e.Payment.Equal(o.Payment) &&
		e.Return.Equal(o.Return) &&
		e.Discount.Equal(o.Discount) &&
		e.Balance.Equal(o.Balance)
}

// Note is a miscellaneous collection that is not tied to a bill.
type Note struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// Notes maps a NoteKey to the notes recorded for that user and date.
type Notes map[string][]Note

// Users maps a username to its stored password (bcrypt hash or legacy plaintext).
type Users map[string]string

// NoteKey builds the "{user}_{date}" key used to group notes.
func NoteKey(user, date string) string {
	return user + "_" + date
}

// RowInput is a raw day row as typed by the user. Amount fields are text and may be blank.
type RowInput struct {
	Bill     string `json:"bill"`
	Party    string `json:"party"`
	Credit   string `json:"credit"`
	Payment  string `json:"payment"`
	Return   string `json:"return"`
	Discount string `json:"discount"`
}

// NoteInput is a raw note row as typed by the user.
type NoteInput struct {
	Description string `json:"description"`
	Amount      string `json:"amount"`
}

// EntryChanges carries the editable fields of an existing entry.
type EntryChanges struct {
	Party    string `json:"party"`
	Credit   string `json:"credit"`
	Payment  string `json:"payment"`
	Return   string `json:"return"`
	Discount string `json:"discount"`
}

// LookupScope controls which entries the carry-forward lookup may read.
type LookupScope string

const (
	// LookupScopeUser restricts carry-forward to the requesting user's own entries.
	LookupScopeUser LookupScope = "user"
	// LookupScopeGlobal searches every user's entries.
	LookupScopeGlobal LookupScope = "global"
)

// ParseLookupScope maps a config value to a LookupScope, defaulting to LookupScopeUser.
func ParseLookupScope(s string) LookupScope {
	if strings.EqualFold(strings.TrimSpace(s), string(LookupScopeGlobal)) {
		return LookupScopeGlobal
	}
	return LookupScopeUser
}

// CarryForward is the prefill for a new row whose bill already has history.
type CarryForward struct {
	Found  bool            `json:"found"`
	Bill   string          `json:"bill"`
	Party  string          `json:"party"`
	Credit decimal.Decimal `json:"credit"`
}

// Totals aggregates a filtered entry set and its notes.
type Totals struct {
	Payment  decimal.Decimal `json:"payment"`
	Return   decimal.Decimal `json:"return"`
	Discount decimal.Decimal `json:"discount"`
	Notes    decimal.Decimal `json:"notes"`
	Grand    decimal.Decimal `json:"grand"`
}
