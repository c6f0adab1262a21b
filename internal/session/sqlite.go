package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/claimsure/claims-client/internal/types"
)

// Keys under which the credential is stored.
const (
	keyUserID     = "user_id"
	keyAuthTokens = "auth_tokens"
)

const schema = `CREATE TABLE IF NOT EXISTS session (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// SQLiteStore persists the credential in a local SQLite file so that it
// survives restarts of the CLI.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the session database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, errors.Wrap(err, "create session dir")
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open session db")
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "init session schema")
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Load(ctx context.Context) (types.Credential, bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM session WHERE key IN (?, ?)`, keyUserID, keyAuthTokens)
	if err != nil {
		return types.Credential{}, false, errors.Wrap(err, "query session")
	}
	defer rows.Close()

	var cred types.Credential
	var tokens string
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return types.Credential{}, false, errors.Wrap(err, "scan session")
		}
		switch k {
		case keyUserID:
			cred.UserID = v
		case keyAuthTokens:
			tokens = v
		}
	}
	if err := rows.Err(); err != nil {
		return types.Credential{}, false, errors.Wrap(err, "read session")
	}
	if cred.UserID == "" {
		return types.Credential{}, false, nil
	}
	if tokens != "" {
		if err := json.Unmarshal([]byte(tokens), &cred.Tokens); err != nil {
			return types.Credential{}, false, errors.Wrap(err, "decode auth tokens")
		}
	}
	return cred, true, nil
}

func (s *SQLiteStore) Save(ctx context.Context, cred types.Credential) error {
	tokens, err := json.Marshal(cred.Tokens)
	if err != nil {
		return errors.Wrap(err, "encode auth tokens")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin session tx")
	}
	defer func() { _ = tx.Rollback() }()

	const upsert = `INSERT INTO session (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := tx.ExecContext(ctx, upsert, keyUserID, cred.UserID); err != nil {
		return errors.Wrap(err, "write user id")
	}
	if _, err := tx.ExecContext(ctx, upsert, keyAuthTokens, string(tokens)); err != nil {
		return errors.Wrap(err, "write auth tokens")
	}
	return errors.Wrap(tx.Commit(), "commit session")
}

func (s *SQLiteStore) Delete(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session WHERE key IN (?, ?)`, keyUserID, keyAuthTokens)
	return errors.Wrap(err, "delete session")
}
