package core

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

type userService struct {
	store Store
	admin AdminCredentials
}

// NewUserService constructs a UserService backed by store.
func NewUserService(store Store, admin AdminCredentials) UserService {
	return &userService{store: store, admin: admin}
}

func (s *userService) EnsureAdmin(ctx context.Context) error {
	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}
	if _, ok := users[s.admin.Username]; ok {
		return nil
	}
	hash, err := hashPassword(s.admin.Password)
	if err != nil {
		return err
	}
	users[s.admin.Username] = hash
	if err := s.store.SaveUsers(ctx, users); err != nil {
		return fmt.Errorf("failed to save users: %w", err)
	}
	slog.Info("admin account created", "username", s.admin.Username)
	return nil
}

func (s *userService) Signup(ctx context.Context, username, password string) error {
	username, password = strings.TrimSpace(username), strings.TrimSpace(password)
	if username == "" || password == "" {
		return ErrEmptyCredentials
	}
	if len(password) > maxPasswordBytes {
		return ErrPasswordTooLong
	}
	if s.IsAdmin(username) {
		return fmt.Errorf("'%s': %w", username, ErrReservedUsername)
	}

	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}
	if _, exists := users[username]; exists {
		return ErrUserExists
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	users[username] = hash
	if err := s.store.SaveUsers(ctx, users); err != nil {
		return fmt.Errorf("failed to save users: %w", err)
	}
	slog.Info("user registered", "username", username)
	return nil
}

func (s *userService) Login(ctx context.Context, username, password string) error {
	username, password = strings.TrimSpace(username), strings.TrimSpace(password)
	if s.IsAdmin(username) {
		return ErrAdminLoginNotAllowed
	}

	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}
	stored, ok := users[username]
	if !ok {
		return ErrInvalidCredentials
	}

	legacy, match := checkPassword(stored, password)
	if !match {
		return ErrInvalidCredentials
	}
	if legacy {
		// Plaintext passwords from older data files are replaced by a hash on first login.
		hash, err := hashPassword(password)
		if err != nil {
			slog.Warn("legacy password kept as plaintext", "username", username, "error", err)
			return nil
		}
		users[username] = hash
		if err := s.store.SaveUsers(ctx, users); err != nil {
			slog.Warn("failed to upgrade legacy password", "username", username, "error", err)
		}
	}
	return nil
}

func (s *userService) AuthenticateAdmin(username, password string) error {
	u := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(username)), []byte(s.admin.Username))
	p := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(password)), []byte(s.admin.Password))
	if u&p != 1 {
		return ErrNotAdmin
	}
	return nil
}

func (s *userService) VerifyAdminPassword(password string) error {
	return s.AuthenticateAdmin(s.admin.Username, password)
}

func (s *userService) IsAdmin(username string) bool {
	return strings.TrimSpace(username) == s.admin.Username
}

func (s *userService) List(ctx context.Context) ([]string, error) {
	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	names := make([]string, 0, len(users))
	for name := range users {
		if name == s.admin.Username {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *userService) Delete(ctx context.Context, username string) error {
	if s.IsAdmin(username) {
		return fmt.Errorf("cannot delete '%s': %w", username, ErrReservedUsername)
	}
	users, err := s.store.LoadUsers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load users: %w", err)
	}
	if _, ok := users[username]; !ok {
		return fmt.Errorf("%q: %w", username, ErrUserNotFound)
	}
	delete(users, username)
	if err := s.store.SaveUsers(ctx, users); err != nil {
		return fmt.Errorf("failed to save users: %w", err)
	}
	slog.Info("user deleted", "username", username)
	return nil
}

// maxPasswordBytes is the longest input bcrypt accepts.
const maxPasswordBytes = 72

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// checkPassword compares password with a stored value. legacy is true when the
// stored value is not a bcrypt hash and was compared as plaintext.
func checkPassword(stored, password string) (legacy, match bool) {
	if _, err := bcrypt.Cost([]byte(stored)); err != nil {
		return true, subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
	}
	return false, bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}
