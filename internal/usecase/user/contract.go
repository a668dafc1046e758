package user

import (
	"context"

	"github.com/kailas-cloud/movierec/internal/domain/credential"
)

// Store is the credential table contract.
type Store interface {
	Create(ctx context.Context, username, email, passwordHash string) error
	Authenticate(ctx context.Context, username, passwordHash string) ([]credential.Credential, error)
	FindByUsername(ctx context.Context, username string) ([]credential.Credential, error)
	ListAll(ctx context.Context) ([]credential.Credential, error)
	Update(ctx context.Context, newUsername, newEmail, originalUsername string) (int64, error)
	Delete(ctx context.Context, username string) (int64, error)
}

// Digester hashes and verifies passwords.
type Digester interface {
	Digest(password string) (string, error)
	Matches(password, stored string) bool
}
