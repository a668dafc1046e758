package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/movierec/internal/crypto/password"
	"github.com/kailas-cloud/movierec/internal/domain"
	"github.com/kailas-cloud/movierec/internal/domain/credential"
)

// Service guards the credential table: the admin account cannot be registered,
// renamed or deleted through it, and usernames stay unique.
type Service struct {
	store    Store
	digester Digester
}

// New creates a user service.
func New(store Store, digester Digester) *Service {
	return &Service{store: store, digester: digester}
}

// Register creates a new account.
func (s *Service) Register(ctx context.Context, username, email, pass string) error {
	if err := validateUsername(username); err != nil {
		return err
	}
	if pass == "" {
		return fmt.Errorf("%w: password is required", domain.ErrInvalidInput)
	}
	if credential.IsAdmin(username) {
		return fmt.Errorf("register %q: %w", username, domain.ErrReservedUsername)
	}
	if err := s.ensureAbsent(ctx, username); err != nil {
		return err
	}

	hash, err := s.digester.Digest(pass)
	if err != nil {
		return fmt.Errorf("digest password: %w", err)
	}
	if err := s.store.Create(ctx, username, email, hash); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// Login verifies a username and password and returns the matching row.
func (s *Service) Login(ctx context.Context, username, pass string) (credential.Credential, error) {
	if username == "" || pass == "" {
		return credential.Credential{}, domain.ErrInvalidCredentials
	}

	if _, ok := s.digester.(password.Deterministic); ok {
		hash, err := s.digester.Digest(pass)
		if err != nil {
			return credential.Credential{}, fmt.Errorf("digest password: %w", err)
		}
		rows, err := s.store.Authenticate(ctx, username, hash)
		if err != nil {
			return credential.Credential{}, fmt.Errorf("authenticate: %w", err)
		}
		if len(rows) == 0 {
			return credential.Credential{}, domain.ErrInvalidCredentials
		}
		return rows[0], nil
	}

	rows, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		return credential.Credential{}, fmt.Errorf("find user: %w", err)
	}
	for _, row := range rows {
		if s.digester.Matches(pass, row.PasswordHash) {
			return row, nil
		}
	}
	return credential.Credential{}, domain.ErrInvalidCredentials
}

// AuthenticateAdmin is Login restricted to the admin account.
func (s *Service) AuthenticateAdmin(ctx context.Context, username, pass string) (credential.Credential, error) {
	if !credential.IsAdmin(username) {
		return credential.Credential{}, domain.ErrInvalidCredentials
	}
	return s.Login(ctx, username, pass)
}

// List returns every row in insertion order.
func (s *Service) List(ctx context.Context) ([]credential.Credential, error) {
	rows, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return rows, nil
}

// Update renames an account and replaces its email. The password is left untouched.
func (s *Service) Update(ctx context.Context, original, newUsername, newEmail string) error {
	if err := validateUsername(newUsername); err != nil {
		return err
	}
	if credential.IsAdmin(original) || credential.IsAdmin(newUsername) {
		return fmt.Errorf("update %q: %w", original, domain.ErrReservedUsername)
	}
	if newUsername != original {
		if err := s.ensureAbsent(ctx, newUsername); err != nil {
			return err
		}
	}

	n, err := s.store.Update(ctx, newUsername, newEmail, original)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %q: %w", original, domain.ErrNotFound)
	}
	return nil
}

// Delete removes an account.
func (s *Service) Delete(ctx context.Context, username string) error {
	if credential.IsAdmin(username) {
		return fmt.Errorf("delete %q: %w", username, domain.ErrReservedUsername)
	}

	n, err := s.store.Delete(ctx, username)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
	}
	return nil
}

// EnsureAdmin creates the admin account when it is missing. An empty password skips bootstrap.
// Reports whether a row was created.
func (s *Service) EnsureAdmin(ctx context.Context, email, pass string) (bool, error) {
	if pass == "" {
		return false, nil
	}
	rows, err := s.store.FindByUsername(ctx, credential.AdminUsername)
	if err != nil {
		return false, fmt.Errorf("find admin: %w", err)
	}
	if len(rows) > 0 {
		return false, nil
	}

	hash, err := s.digester.Digest(pass)
	if err != nil {
		return false, fmt.Errorf("digest password: %w", err)
	}
	if err := s.store.Create(ctx, credential.AdminUsername, email, hash); err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}

func (s *Service) ensureAbsent(ctx context.Context, username string) error {
	rows, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if len(rows) > 0 {
		return fmt.Errorf("user %q: %w", username, domain.ErrAlreadyExists)
	}
	return nil
}

func validateUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("%w: username is required", domain.ErrInvalidInput)
	}
	return nil
}
