package repl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"dsr-ledger/internal/app"
	"dsr-ledger/internal/core"
)

// entryWizard collects new rows and notes for the working date. Existing rows
// of that date are kept, since saving replaces the whole day.
func (c *console) entryWizard() error {
	user := c.session.Username
	day, err := c.svc.LoadDay(c.ctx, user, c.date)
	if err != nil {
		return err
	}
	rows := rowsFromEntries(day.Entries)
	notes := notesFromDay(day.Notes)

	fmt.Fprintf(c.out, "DSR for %s. %d existing row(s), %d note(s).\n", c.date, len(rows), len(notes))
	fmt.Fprintln(c.out, "Enter rows. Leave the bill blank to finish, type 'cancel' to abort.")

	added := 0
	for {
		bill, ok := c.readLine(fmt.Sprintf("  Row %d bill: ", len(rows)+1))
		if !ok || strings.EqualFold(bill, "cancel") {
			fmt.Fprintln(c.out, "Entry cancelled. Nothing was saved.")
			return nil
		}
		if bill == "" {
			break
		}

		row := core.RowInput{Bill: bill}
		cf, err := c.svc.LookupBill(c.ctx, user, bill)
		if err != nil {
			return err
		}
		if cf.Found {
			fmt.Fprintf(c.out, "  Carried forward: party %s, balance %s\n", cf.Party, cf.Credit.StringFixed(2))
			row.Party = cf.Party
			row.Credit = cf.Credit.StringFixed(2)
		}
		row.Party = c.ask("Party", row.Party)
		row.Credit = c.ask("Credit", row.Credit)
		row.Payment = c.ask("Payment", "")
		row.Return = c.ask("Return", "")
		row.Discount = c.ask("Discount", "")
		rows = append(rows, row)
		added++
	}

	fmt.Fprintln(c.out, "Notes for collections without a bill. Leave the description blank to finish.")
	for {
		desc, ok := c.readLine("  Note description: ")
		if !ok || desc == "" {
			break
		}
		notes = append(notes, core.NoteInput{Description: desc, Amount: c.ask("Amount", "")})
		added++
	}

	if added == 0 {
		fmt.Fprintln(c.out, "Nothing to save.")
		return nil
	}
	return c.saveDay(rows, notes, true)
}

// appendRow adds one row to the working date and saves it.
func (c *console) appendRow(row core.RowInput) error {
	day, err := c.svc.LoadDay(c.ctx, c.session.Username, c.date)
	if err != nil {
		return err
	}
	rows := append(rowsFromEntries(day.Entries), row)
	return c.saveDay(rows, notesFromDay(day.Notes), false)
}

func (c *console) saveDay(rows []core.RowInput, notes []core.NoteInput, offerReport bool) error {
	result, err := c.svc.SaveDay(c.ctx, app.SaveDayRequest{
		User:  c.session.Username,
		Date:  c.date,
		Rows:  rows,
		Notes: notes,
	})
	var vErr *core.ValidationError
	if errors.As(err, &vErr) {
		fmt.Fprintf(c.out, "%s Nothing was saved.\n", vErr.Message)
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Saved %d row(s) for %s.\n", len(result.Entries), result.Date)
	printDay(c.out, result)

	if offerReport && c.confirm("Generate PDF report? (y/n): ") {
		path, err := c.svc.RenderDayReport(c.ctx, c.session.Username, c.date, "")
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Report saved to %s\n", path)
	}
	return nil
}

// editWizard changes entry n of the last listing. Admin edits re-ask the admin password.
func (c *console) editWizard(n int) error {
	original := c.listed[n]
	fmt.Fprintf(c.out, "Editing bill %s of %s on %s. Press enter to keep a value.\n", original.Bill, original.User, original.Date)

	changes := core.EntryChanges{
		Party:    c.ask("Party", original.Party),
		Credit:   c.ask("Credit", original.Credit.StringFixed(2)),
		Payment:  c.ask("Payment", original.Payment.StringFixed(2)),
		Return:   c.ask("Return", original.Return.StringFixed(2)),
		Discount: c.ask("Discount", original.Discount.StringFixed(2)),
	}
	req := app.EditEntryRequest{User: c.session.Username, Original: original, Changes: changes}

	var (
		updated *core.Entry
		err     error
	)
	if c.session.IsAdmin() {
		password, _ := c.readLine("Admin password: ")
		updated, err = c.svc.AdminEditEntry(c.ctx, password, req)
	} else {
		updated, err = c.svc.EditEntry(c.ctx, req)
	}
	if err != nil {
		return err
	}

	c.listed[n] = *updated
	fmt.Fprintf(c.out, "Entry updated. New balance: %s\n", updated.Balance.StringFixed(2))
	return nil
}

func (c *console) deleteEntry(n int) error {
	target := c.listed[n]
	prompt := fmt.Sprintf("Delete bill %s of %s on %s? (y/n): ", target.Bill, target.User, target.Date)
	if !c.confirm(prompt) {
		fmt.Fprintln(c.out, "Cancelled.")
		return nil
	}
	password, _ := c.readLine("Admin password: ")
	removed, err := c.svc.DeleteEntry(c.ctx, password, target)
	if err != nil {
		return err
	}

	c.listed = append(c.listed[:n:n], c.listed[n+1:]...)
	fmt.Fprintf(c.out, "Deleted %d entr%s.\n", removed, plural(removed, "y", "ies"))
	return nil
}

// ask prompts for a value, returning def when the answer is blank.
func (c *console) ask(label, def string) string {
	prompt := fmt.Sprintf("    %s: ", label)
	if def != "" {
		prompt = fmt.Sprintf("    %s [%s]: ", label, def)
	}
	v, _ := c.readLine(prompt)
	if v == "" {
		return def
	}
	return v
}

func exportToFile(ctx context.Context, svc app.ApplicationService, path string, req app.ExportRequest) (string, error) {
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create export file: %w", err)
	}
	if err := svc.ExportLedger(ctx, f, req); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

func rowsFromEntries(entries []core.Entry) []core.RowInput {
	rows := make([]core.RowInput, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, core.RowInput{
			Bill:     e.Bill,
			Party:    e.Party,
			Credit:   e.Credit.String(),
			Payment:  e.Payment.String(),
			Return:   e.Return.String(),
			Discount: e.Discount.String(),
		})
	}
	return rows
}

func notesFromDay(notes []core.Note) []core.NoteInput {
	out := make([]core.NoteInput, 0, len(notes))
	for _, n := range notes {
		out = append(out, core.NoteInput{Description: n.Description, Amount: n.Amount.String()})
	}
	return out
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
