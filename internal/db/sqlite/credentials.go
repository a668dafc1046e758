package sqlite

import (
	"context"
	"database/sql"

	"github.com/kailas-cloud/movierec/internal/db"
	"github.com/kailas-cloud/movierec/internal/domain/credential"
)

// The table deliberately has no primary key or uniqueness constraint so that
// databases created by earlier releases open unchanged.
const (
	createTableSQL  = `CREATE TABLE IF NOT EXISTS userstable(username TEXT, email TEXT, password TEXT)`
	insertSQL       = `INSERT INTO userstable(username, email, password) VALUES (?, ?, ?)`
	authenticateSQL = `SELECT username, email, password FROM userstable WHERE username = ? AND password = ? ORDER BY rowid`
	findSQL         = `SELECT username, email, password FROM userstable WHERE username = ? ORDER BY rowid`
	listSQL         = `SELECT username, email, password FROM userstable ORDER BY rowid`
	updateSQL       = `UPDATE userstable SET username = ?, email = ? WHERE username = ?`
	deleteSQL       = `DELETE FROM userstable WHERE username = ?`
)

// EnsureSchema creates the credential table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return &db.Error{Op: db.OpCreateTable, Err: err}
	}
	return nil
}

// Create appends a credential row.
func (s *Store) Create(ctx context.Context, username, email, passwordHash string) error {
	if _, err := s.db.ExecContext(ctx, insertSQL, username, email, passwordHash); err != nil {
		return &db.Error{Op: db.OpInsert, Err: err}
	}
	return nil
}

// Authenticate returns every row matching both username and password hash exactly.
func (s *Store) Authenticate(ctx context.Context, username, passwordHash string) ([]credential.Credential, error) {
	return s.query(ctx, authenticateSQL, username, passwordHash)
}

// FindByUsername returns every row with the given username.
func (s *Store) FindByUsername(ctx context.Context, username string) ([]credential.Credential, error) {
	return s.query(ctx, findSQL, username)
}

// ListAll returns the full table in insertion order.
func (s *Store) ListAll(ctx context.Context) ([]credential.Credential, error) {
	return s.query(ctx, listSQL)
}

// Update rewrites username and email of all rows matching originalUsername.
// The password column is never touched. Returns the number of rows changed.
func (s *Store) Update(ctx context.Context, newUsername, newEmail, originalUsername string) (int64, error) {
	return s.exec(ctx, db.OpUpdate, updateSQL, newUsername, newEmail, originalUsername)
}

// Delete removes all rows with the given username. Returns the number of rows removed.
func (s *Store) Delete(ctx context.Context, username string) (int64, error) {
	return s.exec(ctx, db.OpDelete, deleteSQL, username)
}

func (s *Store) exec(ctx context.Context, op, stmt string, args ...any) (int64, error) {
	res, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, &db.Error{Op: op, Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, &db.Error{Op: db.OpRowsAffected, Err: err}
	}
	return n, nil
}

func (s *Store) query(ctx context.Context, stmt string, args ...any) ([]credential.Credential, error) {
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var out []credential.Credential
	for rows.Next() {
		var (
			c                      credential.Credential
			username, email, phash sql.NullString
		)
		if err := rows.Scan(&username, &email, &phash); err != nil {
			return nil, &db.Error{Op: db.OpSelect, Err: err}
		}
		c.Username, c.Email, c.PasswordHash = username.String, email.String, phash.String
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpSelect, Err: err}
	}
	return out, nil
}
