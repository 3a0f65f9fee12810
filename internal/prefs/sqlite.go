package prefs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS user_languages (
	user_id  TEXT PRIMARY KEY,
	language TEXT NOT NULL
);`

const upsertSQL = `INSERT INTO user_languages (user_id, language) VALUES (?, ?)
	ON CONFLICT(user_id) DO UPDATE SET language = excluded.language`

// SQLiteBacking stores one row per user in a SQLite database.
type SQLiteBacking struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and its table.
func OpenSQLite(path string) (*SQLiteBacking, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		// Other processes may hold the write lock briefly.
		dsn += "?_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	// A single connection serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create user_languages table: %w", err)
	}
	return &SQLiteBacking{db: db}, nil
}

// Load reads every stored row.
func (b *SQLiteBacking) Load(ctx context.Context) (map[string]string, error) {
	rows, err := b.db.QueryContext(ctx, "SELECT user_id, language FROM user_languages")
	if err != nil {
		return nil, fmt.Errorf("failed to query user languages: %w", err)
	}
	defer rows.Close()

	prefs := map[string]string{}
	for rows.Next() {
		var user, lang string
		if err := rows.Scan(&user, &lang); err != nil {
			return nil, fmt.Errorf("failed to scan user language: %w", err)
		}
		prefs[user] = lang
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read user languages: %w", err)
	}
	return prefs, nil
}

// Lookup reads the row for userID.
func (b *SQLiteBacking) Lookup(ctx context.Context, userID string) (string, bool, error) {
	var lang string
	err := b.db.QueryRowContext(ctx, "SELECT language FROM user_languages WHERE user_id = ?", userID).Scan(&lang)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read language for %s: %w", userID, err)
	}
	return lang, true, nil
}

// Put upserts the row for userID.
func (b *SQLiteBacking) Put(ctx context.Context, userID, code string) error {
	if _, err := b.db.ExecContext(ctx, upsertSQL, userID, code); err != nil {
		return fmt.Errorf("failed to save language for %s: %w", userID, err)
	}
	return nil
}

// Close closes the database.
func (b *SQLiteBacking) Close() error {
	return b.db.Close()
}
