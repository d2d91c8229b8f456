package core

import "context"

// AdminCredentials is the configured administrator account.
type AdminCredentials struct {
	Username string
	Password string
}

// UserService manages DSR user credentials.
type UserService interface {
	// EnsureAdmin adds the admin account to the users mapping if it is missing.
	EnsureAdmin(ctx context.Context) error

	// Signup registers a new user. The admin username is reserved.
	Signup(ctx context.Context, username, password string) error

	// Login verifies a regular user's password. The admin must use AuthenticateAdmin.
	Login(ctx context.Context, username, password string) error

	// AuthenticateAdmin verifies the admin credentials.
	AuthenticateAdmin(username, password string) error

	// VerifyAdminPassword checks password against the admin account only.
	VerifyAdminPassword(password string) error

	// IsAdmin reports whether username is the admin account.
	IsAdmin(username string) bool

	// List returns every username except the admin, sorted.
	List(ctx context.Context) ([]string, error)

	// Delete removes a user's credentials. Their entries are kept.
	Delete(ctx context.Context, username string) error
}
