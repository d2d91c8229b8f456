package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"dsr-ledger/internal/app"
	"dsr-ledger/internal/core"

	"github.com/spf13/cobra"
)

// credentials are the login flags shared by every command. They fall back to
// DSR_USER / DSR_PASSWORD (and ADMIN_USER / ADMIN_PASSWORD for admin commands).
type credentials struct {
	user     string
	password string
}

// NewRootCommand builds the one-shot command tree. Output goes to out.
func NewRootCommand(ctx context.Context, svc app.ApplicationService, out io.Writer) *cobra.Command {
	var creds credentials

	root := &cobra.Command{
		Use:           "app",
		Short:         "Daily sales report ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetContext(ctx)
	root.PersistentFlags().StringVarP(&creds.user, "user", "u", "", "username (default $DSR_USER)")
	root.PersistentFlags().StringVarP(&creds.password, "password", "p", "", "password (default $DSR_PASSWORD)")

	login := func(cmd *cobra.Command) (*app.UserSession, error) {
		return svc.Login(cmd.Context(), orEnv(creds.user, "DSR_USER"), orEnv(creds.password, "DSR_PASSWORD"))
	}
	adminLogin := func(cmd *cobra.Command) (*app.UserSession, error) {
		return svc.AuthenticateAdmin(cmd.Context(), orEnv(creds.user, "ADMIN_USER"), orEnv(creds.password, "ADMIN_PASSWORD"))
	}

	root.AddCommand(
		signupCommand(svc, &creds),
		dayCommand(svc, login),
		reportCommand(svc, login),
		lookupCommand(svc, login),
		ledgerCommand(svc, login),
		exportCommand(svc, login, adminLogin),
		draftCommand(svc, login),
		adminCommand(svc, adminLogin, &creds),
	)
	return root
}

// Run executes a one-shot CLI command. args is os.Args[1:].
func Run(ctx context.Context, svc app.ApplicationService, args []string) error {
	root := NewRootCommand(ctx, svc, os.Stdout)
	root.SetArgs(args)
	return root.Execute()
}

type loginFunc func(cmd *cobra.Command) (*app.UserSession, error)

func signupCommand(svc app.ApplicationService, creds *credentials) *cobra.Command {
	return &cobra.Command{
		Use:   "signup",
		Short: "Register a new user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user := orEnv(creds.user, "DSR_USER")
			if err := svc.Signup(cmd.Context(), user, orEnv(creds.password, "DSR_PASSWORD")); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s registered.\n", strings.TrimSpace(user))
			return nil
		},
	}
}

func dayCommand(svc app.ApplicationService, login loginFunc) *cobra.Command {
	day := &cobra.Command{
		Use:   "day",
		Short: "Show or save one day's DSR",
	}

	var date string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the entries and notes of a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := login(cmd)
			if err != nil {
				return err
			}
			result, err := svc.LoadDay(cmd.Context(), sess.Username, dateOrToday(date))
			if err != nil {
				return err
			}
			printDay(cmd.OutOrStdout(), result)
			return nil
		},
	}
	show.Flags().StringVarP(&date, "date", "d", "", "date as YYYY-MM-DD (default today)")

	var (
		saveDate string
		asJSON   bool
	)
	save := &cobra.Command{
		Use:   "save",
		Short: "Replace a day's rows with the JSON document read from stdin",
		Long: `Reads {"rows":[{"bill":"","party":"","credit":"","payment":"","return":"","discount":""}],
"notes":[{"description":"","amount":""}]} from stdin and replaces everything stored for the date.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := login(cmd)
			if err != nil {
				return err
			}
			var req app.SaveDayRequest
			if err := json.NewDecoder(cmd.InOrStdin()).Decode(&req); err != nil {
				return fmt.Errorf("invalid JSON: %w", err)
			}
			req.User = sess.Username
			req.Date = dateOrToday(saveDate)
			result, err := svc.SaveDay(cmd.Context(), req)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			printDay(cmd.OutOrStdout(), result)
			return nil
		},
	}
	save.Flags().StringVarP(&saveDate, "date", "d", "", "date as YYYY-MM-DD (default today)")
	save.Flags().BoolVar(&asJSON, "json", false, "print the saved day as JSON")

	day.AddCommand(show, save)
	return day
}

func reportCommand(svc app.ApplicationService, login loginFunc) *cobra.Command {
	var date, dir string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write the PDF report of a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := login(cmd)
			if err != nil {
				return err
			}
			path, err := svc.RenderDayReport(cmd.Context(), sess.Username, dateOrToday(date), dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Report saved to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "date as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default $REPORT_DIR or ~/Downloads)")
	return cmd
}

func lookupCommand(svc app.ApplicationService, login loginFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "lookup [bill]",
		Short: "Show the balance carried forward for a bill",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := login(cmd)
			if err != nil {
				return err
			}
			cf, err := svc.LookupBill(cmd.Context(), sess.Username, args[0])
			if err != nil {
				return err
			}
			if !cf.Found {
				fmt.Fprintf(cmd.OutOrStdout(), "No history for bill %s.\n", cf.Bill)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Bill %s: party %s, balance carried forward %s\n", cf.Bill, cf.Party, cf.Credit.StringFixed(2))
			return nil
		},
	}
}

func ledgerCommand(svc app.ApplicationService, login loginFunc) *cobra.Command {
	var filter core.Filter
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "List your entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := login(cmd)
			if err != nil {
				return err
			}
			result, err := svc.UserLedger(cmd.Context(), sess.Username, filter)
			if err != nil {
				return err
			}
			printLedger(cmd.OutOrStdout(), result, false)
			return nil
		},
	}
	addFilterFlags(cmd, &filter, false)
	return cmd
}

func exportCommand(svc app.ApplicationService, login, adminLogin loginFunc) *cobra.Command {
	var (
		filter core.Filter
		format string
		output string
		admin  bool
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a filtered ledger as CSV or XLSX",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			authenticate := login
			if admin {
				authenticate = adminLogin
			}
			sess, err := authenticate(cmd)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create export file: %w", err)
				}
				defer f.Close()
				w = f
			}
			return svc.ExportLedger(cmd.Context(), w, app.ExportRequest{
				User:   sess.Username,
				Admin:  sess.IsAdmin(),
				Filter: filter,
				Format: format,
			})
		},
	}
	addFilterFlags(cmd, &filter, true)
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output file, - for stdout")
	cmd.Flags().BoolVar(&admin, "admin", false, "authenticate as admin and export every user")
	return cmd
}

func draftCommand(svc app.ApplicationService, login loginFunc) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   `draft "<text>"`,
		Short: "Draft a day row from a free-text description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := login(cmd)
			if err != nil {
				return err
			}
			result, err := svc.InterpretEntry(cmd.Context(), sess.Username, dateOrToday(date), args[0])
			if err != nil {
				return err
			}
			if result.Draft.IsClarification {
				return fmt.Errorf("AI needs clarification: %s", result.Draft.Question)
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "date as YYYY-MM-DD (default today)")
	return cmd
}

func adminCommand(svc app.ApplicationService, adminLogin loginFunc, creds *credentials) *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Administrative commands (admin credentials required)",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := adminLogin(cmd)
			return err
		},
	}

	var filter core.Filter
	ledger := &cobra.Command{
		Use:   "ledger",
		Short: "List entries of all users, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := svc.AdminLedger(cmd.Context(), filter)
			if err != nil {
				return err
			}
			printLedger(cmd.OutOrStdout(), result, true)
			return nil
		},
	}
	addFilterFlags(ledger, &filter, true)

	users := &cobra.Command{
		Use:   "users",
		Short: "List registered users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := svc.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			for _, u := range result.Users {
				fmt.Fprintln(cmd.OutOrStdout(), u)
			}
			return nil
		},
	}

	deleteUser := &cobra.Command{
		Use:   "delete-user [name]",
		Short: "Delete a user's credentials; their entries are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := svc.DeleteUser(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s deleted.\n", args[0])
			return nil
		},
	}

	deleteEntry := &cobra.Command{
		Use:   "delete-entry",
		Short: "Delete every entry equal to the JSON entry read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var entry core.Entry
			if err := json.NewDecoder(cmd.InOrStdin()).Decode(&entry); err != nil {
				return fmt.Errorf("invalid JSON: %w", err)
			}
			removed, err := svc.DeleteEntry(cmd.Context(), orEnv(creds.password, "ADMIN_PASSWORD"), entry)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d entries.\n", removed)
			return nil
		},
	}

	admin.AddCommand(ledger, users, deleteUser, deleteEntry)
	return admin
}

func addFilterFlags(cmd *cobra.Command, f *core.Filter, withUser bool) {
	if withUser {
		cmd.Flags().StringVar(&f.User, "for", "", "only entries of this user")
	}
	cmd.Flags().StringVar(&f.Date, "date", "", "only entries of this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.Party, "party", "", "party name contains (case-insensitive)")
	cmd.Flags().StringVar(&f.Bill, "bill", "", "exact bill number")
}

func orEnv(v, key string) string {
	if v != "" {
		return v
	}
	return os.Getenv(key)
}

func dateOrToday(d string) string {
	if d == "" {
		return time.Now().Format(core.DateLayout)
	}
	return d
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printDay(w io.Writer, d *app.DayResult) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 96))
	fmt.Fprintf(w, "  DAILY SALES REPORT  %s  (%s)\n", d.Date, d.User)
	fmt.Fprintln(w, strings.Repeat("=", 96))
	printEntries(w, d.Entries, false)
	for _, n := range d.Notes {
		fmt.Fprintf(w, "  NOTE %-40s %12s\n", n.Description, n.Amount.StringFixed(2))
	}
	fmt.Fprintln(w, strings.Repeat("-", 96))
	fmt.Fprintf(w, "  Total Payment: %s   Grand Total: %s\n", d.Totals.Payment.StringFixed(2), d.Totals.Grand.StringFixed(2))
	fmt.Fprintln(w, strings.Repeat("=", 96))
}

func printLedger(w io.Writer, result *app.LedgerResult, showUser bool) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("=", 96))
	printEntries(w, result.Entries, showUser)
	fmt.Fprintln(w, strings.Repeat("-", 96))
	t := result.Totals
	fmt.Fprintf(w, "  Payment %s  Return %s  Discount %s  Notes %s  Grand Total %s\n",
		t.Payment.StringFixed(2), t.Return.StringFixed(2), t.Discount.StringFixed(2), t.Notes.StringFixed(2), t.Grand.StringFixed(2))
	fmt.Fprintln(w, strings.Repeat("=", 96))
}

func printEntries(w io.Writer, entries []core.Entry, showUser bool) {
	fmt.Fprintf(w, "  %-10s %-10s %-10s %-16s %10s %10s %10s %10s %10s\n",
		"DATE", "USER", "BILL", "PARTY", "CREDIT", "PAYMENT", "RETURN", "DISCOUNT", "BALANCE")
	for _, e := range entries {
		user := ""
		if showUser {
			user = e.User
		}
		fmt.Fprintf(w, "  %-10s %-10s %-10s %-16s %10s %10s %10s %10s %10s\n",
			e.Date, user, e.Bill, e.Party,
			e.Credit.StringFixed(2), e.Payment.StringFixed(2), e.Return.StringFixed(2),
			e.Discount.StringFixed(2), e.Balance.StringFixed(2))
	}
}
