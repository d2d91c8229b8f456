package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"dsr-ledger/internal/app"
	"dsr-ledger/internal/core"
)

var (
	errExit   = errors.New("exit")
	errLogout = errors.New("logout")
)

// console holds the state of one interactive session.
type console struct {
	ctx     context.Context
	svc     app.ApplicationService
	in      *bufio.Reader
	out     io.Writer
	session *app.UserSession
	date    string
	// listed is the last ledger shown; /edit and /delete address it by position.
	listed []core.Entry
}

// Run starts the interactive REPL loop.
// It asks for a login first, then dispatches slash commands deterministically
// and routes free text through the AI agent to draft a day row.
// Run returns when the user exits or reader reaches EOF.
func Run(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader, out io.Writer) {
	c := &console{
		ctx:  ctx,
		svc:  svc,
		in:   reader,
		out:  out,
		date: time.Now().Format(core.DateLayout),
	}

	fmt.Fprintln(out, "Daily Sales Report")
	fmt.Fprintln(out, strings.Repeat("-", 70))

	for {
		if c.session == nil {
			if !c.login() {
				fmt.Fprintln(out, "Goodbye!")
				return
			}
			continue
		}

		input, ok := c.readLine("\n> ")
		if !ok {
			fmt.Fprintln(out, "Goodbye!")
			return
		}
		if input == "" {
			continue
		}

		// Slash prefix: deterministic command dispatcher, no AI invoked.
		if strings.HasPrefix(input, "/") {
			if err := c.dispatch(input); err != nil {
				switch {
				case errors.Is(err, errExit):
					fmt.Fprintln(out, "Goodbye!")
					return
				case errors.Is(err, errLogout):
					fmt.Fprintf(out, "Logged out %s.\n", c.session.Username)
					c.session = nil
					c.listed = nil
				default:
					fmt.Fprintf(out, "Error: %v\n", err)
				}
			}
			continue
		}

		if c.session.IsAdmin() {
			fmt.Fprintln(out, "Admin sessions take slash commands only. Type /help.")
			continue
		}
		if err := c.draft(input); err != nil {
			if errors.Is(err, errExit) {
				fmt.Fprintln(out, "Goodbye!")
				return
			}
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

// login runs the login window until a session is established.
// It returns false when the user quits or input ends.
func (c *console) login() bool {
	for {
		fmt.Fprintln(c.out, "\n  1) Login   2) Sign up   3) Admin login   q) Quit")
		choice, ok := c.readLine("Choice: ")
		if !ok {
			return false
		}
		switch strings.ToLower(choice) {
		case "1", "login":
			user, pass, ok := c.credentials()
			if !ok {
				return false
			}
			sess, err := c.svc.Login(c.ctx, user, pass)
			if err != nil {
				fmt.Fprintf(c.out, "Login failed: %v\n", err)
				continue
			}
			c.start(sess)
			return true

		case "2", "signup":
			user, pass, ok := c.credentials()
			if !ok {
				return false
			}
			if err := c.svc.Signup(c.ctx, user, pass); err != nil {
				fmt.Fprintf(c.out, "Sign up failed: %v\n", err)
				continue
			}
			fmt.Fprintln(c.out, "Account created. Please log in.")

		case "3", "admin":
			user, pass, ok := c.credentials()
			if !ok {
				return false
			}
			sess, err := c.svc.AuthenticateAdmin(c.ctx, user, pass)
			if err != nil {
				fmt.Fprintf(c.out, "Admin login failed: %v\n", err)
				continue
			}
			c.start(sess)
			return true

		case "q", "quit", "exit":
			return false

		case "":
		default:
			fmt.Fprintf(c.out, "Unknown choice: %s\n", choice)
		}
	}
}

func (c *console) credentials() (string, string, bool) {
	user, ok := c.readLine("Username: ")
	if !ok {
		return "", "", false
	}
	pass, ok := c.readLine("Password: ")
	if !ok {
		return "", "", false
	}
	return user, pass, true
}

func (c *console) start(sess *app.UserSession) {
	c.session = sess
	if sess.IsAdmin() {
		fmt.Fprintln(c.out, "Admin session. Type /help for commands.")
		return
	}
	fmt.Fprintf(c.out, "Welcome, %s. Working date: %s. Type /help for commands.\n", sess.Username, c.date)
}

func (c *console) dispatch(input string) error {
	tokens := strings.Fields(strings.TrimPrefix(input, "/"))
	if len(tokens) == 0 {
		return nil
	}
	cmd := strings.ToLower(tokens[0])
	args := tokens[1:]

	switch cmd {
	case "help", "h":
		printHelp(c.out, c.session.IsAdmin())
		return nil
	case "exit", "quit", "e", "q":
		return errExit
	case "logout":
		return errLogout
	}

	if c.session.IsAdmin() {
		return c.dispatchAdmin(cmd, args)
	}
	return c.dispatchUser(cmd, args)
}

func (c *console) dispatchUser(cmd string, args []string) error {
	user := c.session.Username

	switch cmd {
	case "date":
		if len(args) == 0 {
			fmt.Fprintf(c.out, "Working date: %s\n", c.date)
			return nil
		}
		if _, err := time.Parse(core.DateLayout, args[0]); err != nil {
			fmt.Fprintf(c.out, "Invalid date: %s (expected YYYY-MM-DD)\n", args[0])
			return nil
		}
		c.date = args[0]
		fmt.Fprintf(c.out, "Working date: %s\n", c.date)

	case "day":
		day, err := c.svc.LoadDay(c.ctx, user, c.date)
		if err != nil {
			return err
		}
		printDay(c.out, day)

	case "entry", "new":
		return c.entryWizard()

	case "lookup":
		if len(args) < 1 {
			fmt.Fprintln(c.out, "Usage: /lookup <bill>")
			return nil
		}
		cf, err := c.svc.LookupBill(c.ctx, user, args[0])
		if err != nil {
			return err
		}
		if !cf.Found {
			fmt.Fprintf(c.out, "No history for bill %s.\n", cf.Bill)
			return nil
		}
		fmt.Fprintf(c.out, "Bill %s: party %s, balance carried forward %s\n", cf.Bill, cf.Party, cf.Credit.StringFixed(2))

	case "report", "pdf":
		dir := ""
		if len(args) > 0 {
			dir = args[0]
		}
		path, err := c.svc.RenderDayReport(c.ctx, user, c.date, dir)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "Report saved to %s\n", path)

	case "ledger":
		filter, err := parseFilter(args)
		if err != nil {
			return err
		}
		result, err := c.svc.UserLedger(c.ctx, user, filter)
		if err != nil {
			return err
		}
		c.listed = result.Entries
		printLedger(c.out, "LEDGER - "+user, result, false)

	case "edit":
		n, err := c.position(args, "/edit <n>")
		if err != nil || n < 0 {
			return err
		}
		return c.editWizard(n)

	case "export":
		return c.export(args)

	default:
		fmt.Fprintf(c.out, "Unknown command: /%s  (type /help for all commands)\n", cmd)
	}
	return nil
}

func (c *console) dispatchAdmin(cmd string, args []string) error {
	switch cmd {
	case "ledger":
		filter, err := parseFilter(args)
		if err != nil {
			return err
		}
		result, err := c.svc.AdminLedger(c.ctx, filter)
		if err != nil {
			return err
		}
		c.listed = result.Entries
		printLedger(c.out, "LEDGER - ALL USERS", result, true)

	case "edit":
		n, err := c.position(args, "/edit <n>")
		if err != nil || n < 0 {
			return err
		}
		return c.editWizard(n)

	case "delete":
		n, err := c.position(args, "/delete <n>")
		if err != nil || n < 0 {
			return err
		}
		return c.deleteEntry(n)

	case "users":
		result, err := c.svc.ListUsers(c.ctx)
		if err != nil {
			return err
		}
		printUsers(c.out, result)

	case "deluser":
		if len(args) < 1 {
			fmt.Fprintln(c.out, "Usage: /deluser <name>")
			return nil
		}
		if !c.confirm(fmt.Sprintf("Delete user %s? Their entries are kept. (y/n): ", args[0])) {
			fmt.Fprintln(c.out, "Cancelled.")
			return nil
		}
		if err := c.svc.DeleteUser(c.ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "User %s deleted.\n", args[0])

	case "export":
		return c.export(args)

	default:
		fmt.Fprintf(c.out, "Unknown command: /%s  (type /help for all commands)\n", cmd)
	}
	return nil
}

// draft routes free text through the AI agent, asking back when the agent
// needs clarification, and offers to add the drafted row to the working date.
func (c *console) draft(input string) error {
	fmt.Fprintln(c.out, "[AI] Processing...")
	accumulated := input

	for rounds := 1; ; rounds++ {
		if rounds > 3 {
			fmt.Fprintln(c.out, "Could not draft a row. Try /entry instead.")
			return nil
		}

		result, err := c.svc.InterpretEntry(c.ctx, c.session.Username, c.date, accumulated)
		if err != nil {
			return err
		}

		if result.Draft.IsClarification {
			fmt.Fprintf(c.out, "\n[AI]: %s\n", result.Draft.Question)
			followUp, ok := c.readLine("> ")
			if !ok {
				return errExit
			}
			// Slash command during clarification cancels the AI flow and runs it.
			if strings.HasPrefix(followUp, "/") {
				fmt.Fprintln(c.out, "(AI session cancelled)")
				return c.dispatch(followUp)
			}
			if followUp == "" || strings.EqualFold(followUp, "cancel") {
				fmt.Fprintln(c.out, "Cancelled.")
				return nil
			}
			accumulated = fmt.Sprintf("Original text: %s\nClarification requested: %s\nUser response: %s",
				accumulated, result.Draft.Question, followUp)
			fmt.Fprintln(c.out, "[AI] Thinking...")
			continue
		}

		printDraft(c.out, result)
		if result.Draft.Confidence < 0.6 {
			fmt.Fprintln(c.out, "\nWARNING: Low confidence draft.")
		}
		if !c.confirm(fmt.Sprintf("\nAdd this row to %s? (y/n): ", c.date)) {
			fmt.Fprintln(c.out, "Draft discarded.")
			return nil
		}
		return c.appendRow(result.Row)
	}
}

func (c *console) export(args []string) error {
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: /export <csv|xlsx> <file> [key=value ...]")
		return nil
	}
	filter, err := parseFilter(args[2:])
	if err != nil {
		return err
	}
	path, err := exportToFile(c.ctx, c.svc, args[1], app.ExportRequest{
		User:   c.session.Username,
		Admin:  c.session.IsAdmin(),
		Filter: filter,
		Format: strings.ToLower(args[0]),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Ledger exported to %s\n", path)
	return nil
}

// position parses the 1-based entry number of the last listing.
// It returns -1 without error when the usage was printed instead.
func (c *console) position(args []string, usage string) (int, error) {
	if len(args) < 1 {
		fmt.Fprintf(c.out, "Usage: %s\n", usage)
		return -1, nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(c.listed) {
		if len(c.listed) == 0 {
			fmt.Fprintln(c.out, "List entries with /ledger first.")
			return -1, nil
		}
		fmt.Fprintf(c.out, "Entry number must be between 1 and %d.\n", len(c.listed))
		return -1, nil
	}
	return n - 1, nil
}

// readLine prints prompt and returns the trimmed line. ok is false once input
// is exhausted.
func (c *console) readLine(prompt string) (string, bool) {
	fmt.Fprint(c.out, prompt)
	line, err := c.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && line == "" {
		return "", false
	}
	return line, true
}

func (c *console) confirm(prompt string) bool {
	answer, _ := c.readLine(prompt)
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes"
}

// parseFilter reads key=value arguments into a ledger filter.
func parseFilter(args []string) (core.Filter, error) {
	var f core.Filter
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok {
			return f, fmt.Errorf("filter %q must be key=value", arg)
		}
		switch strings.ToLower(key) {
		case "user":
			f.User = value
		case "date":
			f.Date = value
		case "party":
			f.Party = value
		case "bill":
			f.Bill = value
		default:
			return f, fmt.Errorf("unknown filter %q (use user, date, party or bill)", key)
		}
	}
	return f, nil
}
