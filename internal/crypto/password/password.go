// Package password implements one-way password digests for the credential store.
//
// SHA256 reproduces the legacy unsalted scheme so existing credential tables keep
// working. It must not be used for new deployments; Argon2id is the default.
package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// Algorithm names accepted by New.
const (
	AlgorithmSHA256   = "sha256"
	AlgorithmArgon2id = "argon2id"
)

// Digester turns passwords into storable digests and verifies them.
type Digester interface {
	Digest(password string) (string, error)
	Matches(password, stored string) bool
}

// Deterministic is implemented by digesters whose output depends only on the password,
// so a digest can be compared against stored values by exact match.
type Deterministic interface {
	Deterministic()
}

// New returns the digester for the configured algorithm.
func New(algorithm string) (Digester, error) {
	switch algorithm {
	case AlgorithmSHA256:
		return SHA256{}, nil
	case "", AlgorithmArgon2id:
		return NewArgon2id(DefaultArgon2Params()), nil
	default:
		return nil, fmt.Errorf("unknown password algorithm %q", algorithm)
	}
}

// SHA256 is the legacy unsalted digest: lowercase hex SHA-256 of the password bytes.
type SHA256 struct{}

// Digest hashes the password.
func (SHA256) Digest(password string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:]), nil
}

// Matches recomputes the digest and compares in constant time.
func (d SHA256) Matches(password, stored string) bool {
	got, _ := d.Digest(password)
	return subtle.ConstantTimeCompare([]byte(got), []byte(stored)) == 1
}

// Deterministic marks SHA256 as usable for exact-match lookups.
func (SHA256) Deterministic() {}
