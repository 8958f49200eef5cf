package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	applog "budgettracker/internal/log"

	_ "modernc.org/sqlite"
)

// Keys under which the session pair is stored.
const (
	KeyToken  = "token"
	KeyUserID = "userId"
)

// SessionRepository persists the session's token and user id in SQLite.
// It implements session.Persister.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(dbPath string) (*SessionRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer; keeps the pair write from racing a concurrent clear.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SessionRepository{db: db}, nil
}

// dsn adds a busy timeout: the web front end and budgetctl open the same
// file from separate processes.
func dsn(dbPath string) string {
	return dbPath + "?_pragma=busy_timeout(5000)"
}

func (r *SessionRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SessionRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Load returns the stored pair. A missing key is returned as "".
func (r *SessionRepository) Load(ctx context.Context) (string, string, error) {
	token, err := r.get(ctx, KeyToken)
	if err != nil {
		return "", "", err
	}
	userID, err := r.get(ctx, KeyUserID)
	if err != nil {
		return "", "", err
	}
	return token, userID, nil
}

func (r *SessionRepository) get(ctx context.Context, key string) (string, error) {
	var v string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM session_values WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return v, nil
}

// Save writes both values in one transaction.
func (r *SessionRepository) Save(ctx context.Context, token, userID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	const upsert = `INSERT INTO session_values (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	for _, kv := range [][2]string{{KeyToken, token}, {KeyUserID, userID}} {
		if _, err := tx.ExecContext(ctx, upsert, kv[0], kv[1]); err != nil {
			return fmt.Errorf("write %s: %w", kv[0], err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session: %w", err)
	}

	slog.DebugContext(ctx, "Session persisted",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldUserID, userID)
	return nil
}

// Clear removes both values. Clearing an empty table is not an error.
func (r *SessionRepository) Clear(ctx context.Context) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM session_values WHERE key IN (?, ?)`, KeyToken, KeyUserID)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	n, _ := res.RowsAffected()
	slog.DebugContext(ctx, "Session cleared",
		applog.FieldComponent, applog.ComponentStorage,
		"rows", n)
	return nil
}
