package db

import (
	"context"

	"github.com/kailas-cloud/movierec/internal/domain/credential"
)

// Store is the credential storage facade combining all sub-interfaces.
type Store interface {
	Pinger
	SchemaManager
	CredentialStore
	Close() error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// SchemaManager owns the table lifecycle.
type SchemaManager interface {
	EnsureSchema(ctx context.Context) error
}

// CredentialStore is the userstable CRUD contract. Uniqueness of usernames is not
// enforced here; every operation acts on all rows with an exact username match.
type CredentialStore interface {
	Create(ctx context.Context, username, email, passwordHash string) error
	Authenticate(ctx context.Context, username, passwordHash string) ([]credential.Credential, error)
	FindByUsername(ctx context.Context, username string) ([]credential.Credential, error)
	ListAll(ctx context.Context) ([]credential.Credential, error)
	Update(ctx context.Context, newUsername, newEmail, originalUsername string) (int64, error)
	Delete(ctx context.Context, username string) (int64, error)
}
