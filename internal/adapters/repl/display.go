package repl

import (
	"fmt"
	"io"
	"strings"

	"dsr-ledger/internal/app"
	"dsr-ledger/internal/core"
)

const entryRow = "  %-4s %-10s %-10s %-18s %11s %11s %11s %11s %11s\n"

func printEntries(w io.Writer, entries []core.Entry, showUser bool) {
	fmt.Fprintf(w, entryRow, "#", "DATE", "BILL", "PARTY", "CREDIT", "PAYMENT", "RETURN", "DISCOUNT", "BALANCE")
	fmt.Fprintln(w, strings.Repeat("-", 112))
	for i, e := range entries {
		party := e.Party
		if showUser {
			party = e.User + ": " + e.Party
		}
		fmt.Fprintf(w, entryRow,
			fmt.Sprint(i+1), e.Date, truncate(e.Bill, 10), truncate(party, 18),
			e.Credit.StringFixed(2), e.Payment.StringFixed(2), e.Return.StringFixed(2),
			e.Discount.StringFixed(2), e.Balance.StringFixed(2))
	}
}

func printTotals(w io.Writer, t core.Totals) {
	fmt.Fprintf(w, "  %-20s %15s\n", "Total Payment", t.Payment.StringFixed(2))
	fmt.Fprintf(w, "  %-20s %15s\n", "Total Return", t.Return.StringFixed(2))
	fmt.Fprintf(w, "  %-20s %15s\n", "Total Discount", t.Discount.StringFixed(2))
	fmt.Fprintf(w, "  %-20s %15s\n", "Notes", t.Notes.StringFixed(2))
	fmt.Fprintf(w, "  %-20s %15s\n", "Grand Total", t.Grand.StringFixed(2))
}

func printDay(w io.Writer, d *app.DayResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 112))
	fmt.Fprintf(w, "  DAILY SALES REPORT  %s  (%s)\n", d.Date, d.User)
	fmt.Fprintln(w, strings.Repeat("=", 112))
	if len(d.Entries) == 0 && len(d.Notes) == 0 {
		fmt.Fprintln(w, "  Nothing recorded for this date.")
		fmt.Fprintln(w, strings.Repeat("=", 112))
		return
	}
	printEntries(w, d.Entries, false)
	if len(d.Notes) > 0 {
		fmt.Fprintln(w, strings.Repeat("-", 112))
		fmt.Fprintln(w, "  NOTES")
		for _, n := range d.Notes {
			fmt.Fprintf(w, "  %-30s %15s\n", truncate(n.Description, 30), n.Amount.StringFixed(2))
		}
	}
	fmt.Fprintln(w, strings.Repeat("-", 112))
	printTotals(w, d.Totals)
	fmt.Fprintln(w, strings.Repeat("=", 112))
}

func printLedger(w io.Writer, title string, result *app.LedgerResult, showUser bool) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 112))
	fmt.Fprintf(w, "  %s\n", title)
	if f := describeFilter(result.Filter); f != "" {
		fmt.Fprintf(w, "  Filter: %s\n", f)
	}
	fmt.Fprintln(w, strings.Repeat("=", 112))
	if len(result.Entries) == 0 {
		fmt.Fprintln(w, "  No entries found.")
		fmt.Fprintln(w, strings.Repeat("=", 112))
		return
	}
	printEntries(w, result.Entries, showUser)
	fmt.Fprintln(w, strings.Repeat("-", 112))
	printTotals(w, result.Totals)
	fmt.Fprintln(w, strings.Repeat("=", 112))
}

func printRows(w io.Writer, rows []core.RowInput) {
	for i, r := range rows {
		fmt.Fprintf(w, "  %2d. bill %-10s party %-18s credit %-10s payment %-10s return %-10s discount %s\n",
			i+1, r.Bill, r.Party, orDash(r.Credit), orDash(r.Payment), orDash(r.Return), orDash(r.Discount))
	}
}

func printDraft(w io.Writer, d *app.DraftResult) {
	fmt.Fprintf(w, "\nBILL:       %s\n", d.Row.Bill)
	fmt.Fprintf(w, "PARTY:      %s\n", d.Row.Party)
	fmt.Fprintf(w, "CREDIT:     %s\n", orDash(d.Row.Credit))
	fmt.Fprintf(w, "PAYMENT:    %s\n", orDash(d.Row.Payment))
	fmt.Fprintf(w, "RETURN:     %s\n", orDash(d.Row.Return))
	fmt.Fprintf(w, "DISCOUNT:   %s\n", orDash(d.Row.Discount))
	if d.CarryForward != nil {
		fmt.Fprintf(w, "CARRIED:    balance %s from earlier entries\n", d.CarryForward.Credit.StringFixed(2))
	}
	fmt.Fprintf(w, "REASONING:  %s\n", d.Draft.Reasoning)
	fmt.Fprintf(w, "CONFIDENCE: %.2f\n", d.Draft.Confidence)
}

func printUsers(w io.Writer, result *app.UserListResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 40))
	fmt.Fprintln(w, "  USERS")
	fmt.Fprintln(w, strings.Repeat("=", 40))
	if len(result.Users) == 0 {
		fmt.Fprintln(w, "  No users registered.")
	}
	for _, u := range result.Users {
		fmt.Fprintf(w, "  %s\n", u)
	}
	fmt.Fprintln(w, strings.Repeat("=", 40))
}

func printHelp(w io.Writer, admin bool) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	if admin {
		fmt.Fprintln(w, "  /ledger [user=U] [date=D] [party=P] [bill=B]   All entries, filtered")
		fmt.Fprintln(w, "  /edit <n>                    Edit entry n of the last listing")
		fmt.Fprintln(w, "  /delete <n>                  Delete entry n of the last listing")
		fmt.Fprintln(w, "  /users                       List registered users")
		fmt.Fprintln(w, "  /deluser <name>              Delete a user (entries are kept)")
		fmt.Fprintln(w, "  /export <csv|xlsx> <file> [filters]  Export the filtered ledger")
	} else {
		fmt.Fprintln(w, "  /date [YYYY-MM-DD]           Show or change the working date")
		fmt.Fprintln(w, "  /day                         Show the DSR of the working date")
		fmt.Fprintln(w, "  /entry                       Add rows and notes to the working date")
		fmt.Fprintln(w, "  /lookup <bill>               Balance carried forward for a bill")
		fmt.Fprintln(w, "  /report [dir]                Write the PDF of the working date")
		fmt.Fprintln(w, "  /ledger [date=D] [party=P] [bill=B]   Your entries, filtered")
		fmt.Fprintln(w, "  /edit <n>                    Edit entry n of the last listing")
		fmt.Fprintln(w, "  /export <csv|xlsx> <file> [filters]  Export your ledger")
		fmt.Fprintln(w, "  <text>                       Describe a bill in words to draft a row")
	}
	fmt.Fprintln(w, "  /logout                      Back to the login prompt")
	fmt.Fprintln(w, "  /help, /exit")
	fmt.Fprintln(w, strings.Repeat("-", 70))
}

func describeFilter(f core.Filter) string {
	var parts []string
	for _, kv := range [][2]string{{"user", f.User}, {"date", f.Date}, {"party", f.Party}, {"bill", f.Bill}} {
		if kv[1] != "" {
			parts = append(parts, kv[0]+"="+kv[1])
		}
	}
	return strings.Join(parts, " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
