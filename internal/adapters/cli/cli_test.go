package cli_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"dsr-ledger/internal/adapters/cli"
	"dsr-ledger/internal/app"
	"dsr-ledger/internal/core"
	"dsr-ledger/internal/store/jsonfile"
)

func newService(t *testing.T) app.ApplicationService {
	t.Helper()
	dir := t.TempDir()
	store, err := jsonfile.New(jsonfile.DefaultPaths(dir))
	if err != nil {
		t.Fatalf("jsonfile.New: %v", err)
	}
	users := core.NewUserService(store, core.AdminCredentials{Username: "admin", Password: "admin123"})
	if err := users.EnsureAdmin(context.Background()); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	return app.NewAppService(core.NewLedger(store, core.LookupScopeUser), users, nil, filepath.Join(dir, "reports"))
}

func execute(svc app.ApplicationService, stdin string, args ...string) (string, error) {
	var out bytes.Buffer
	root := cli.NewRootCommand(context.Background(), svc, &out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCLI_SaveAndLookup(t *testing.T) {
	svc := newService(t)

	if out, err := execute(svc, "", "signup", "-u", "alice", "-p", "pw"); err != nil || !strings.Contains(out, "User alice registered.") {
		t.Fatalf("signup: %q %v", out, err)
	}

	day := `{"rows":[{"bill":"A","party":"Ravi","credit":"100","payment":"40"}],"notes":[{"description":"Cash","amount":"5"}]}`
	out, err := execute(svc, day, "day", "save", "-u", "alice", "-p", "pw", "-d", "2024-05-01", "--json")
	if err != nil {
		t.Fatalf("day save: %v", err)
	}
	if !strings.Contains(out, `"balance": 60`) || !strings.Contains(out, `"grand": 45`) {
		t.Errorf("unexpected saved day:\n%s", out)
	}

	out, err = execute(svc, "", "lookup", "A", "-u", "alice", "-p", "pw")
	if err != nil || !strings.Contains(out, "balance carried forward 60.00") {
		t.Errorf("lookup: %q %v", out, err)
	}

	out, err = execute(svc, "", "ledger", "-u", "alice", "-p", "pw", "--party", "ravi")
	if err != nil || !strings.Contains(out, "Ravi") {
		t.Errorf("ledger: %q %v", out, err)
	}
}

func TestCLI_RejectsBadInput(t *testing.T) {
	svc := newService(t)
	_, _ = execute(svc, "", "signup", "-u", "bob", "-p", "pw")

	_, err := execute(svc, `{"rows":[{"bill":"X","credit":"ten"}]}`, "day", "save", "-u", "bob", "-p", "pw", "-d", "2024-05-01")
	var vErr *core.ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("expected validation error, got %v", err)
	}

	if _, err := execute(svc, "", "ledger", "-u", "bob", "-p", "nope"); !errors.Is(err, core.ErrInvalidCredentials) {
		t.Errorf("expected invalid credentials, got %v", err)
	}
}

func TestCLI_AdminCommands(t *testing.T) {
	svc := newService(t)
	_, _ = execute(svc, "", "signup", "-u", "zoe", "-p", "pw")
	_, _ = execute(svc, `{"rows":[{"bill":"Z1","credit":"10"}]}`, "day", "save", "-u", "zoe", "-p", "pw", "-d", "2024-05-01")

	if _, err := execute(svc, "", "admin", "users", "-u", "admin", "-p", "bad"); !errors.Is(err, core.ErrNotAdmin) {
		t.Errorf("expected ErrNotAdmin, got %v", err)
	}

	out, err := execute(svc, "", "admin", "users", "-u", "admin", "-p", "admin123")
	if err != nil || strings.TrimSpace(out) != "zoe" {
		t.Errorf("admin users: %q %v", out, err)
	}

	out, err = execute(svc, "", "export", "--admin", "-u", "admin", "-p", "admin123")
	if err != nil || !strings.Contains(out, "Z1") {
		t.Errorf("admin export: %q %v", out, err)
	}

	entry := `{"user":"zoe","date":"2024-05-01","bill":"Z1","party":"","credit":10,"payment":0,"return":0,"discount":0,"balance":10}`
	out, err = execute(svc, entry, "admin", "delete-entry", "-u", "admin", "-p", "admin123")
	if err != nil || !strings.Contains(out, "Deleted 1 entries.") {
		t.Errorf("delete-entry: %q %v", out, err)
	}
}
