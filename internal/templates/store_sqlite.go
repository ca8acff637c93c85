package templates

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DefaultDatabaseFile is the sqlite file name used under the data directory
const DefaultDatabaseFile = "templates.db"

// SQLiteStore keeps user templates in a sqlite database, one row per template.
// Rows keep their insertion order through the position column.
type SQLiteStore struct {
	db     *sql.DB
	logger *log.Logger
}

// OpenSQLiteStore opens (or creates) the database at path
func OpenSQLiteStore(path string, logger *log.Logger) (*SQLiteStore, error) {
	if logger == nil {
		panic("SQLiteStore: logger cannot be nil")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating templates dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening templates db: %w", err)
	}
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS templates (
		id          TEXT PRIMARY KEY,
		position    INTEGER NOT NULL,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		color       TEXT NOT NULL DEFAULT '',
		definition  TEXT NOT NULL,
		updated_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating templates table: %w", err)
	}

	logger.Printf("SQLiteStore: opened %s", path)
	return &SQLiteStore{db: db, logger: logger}, nil
}

// LoadDefinitions reads all stored templates in saved order. An undecodable
// row fails the whole load, so a later save cannot drop it.
func (s *SQLiteStore) LoadDefinitions(ctx context.Context) ([]Template, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, color, definition FROM templates ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query templates: %w", err)
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		var (
			rec     templateRecord
			defJSON string
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Description, &rec.Color, &defJSON); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		def, err := DecodeDefinition([]byte(defJSON))
		if err != nil {
			return nil, fmt.Errorf("decode template %s: %w", rec.ID, err)
		}
		t := fromRecord(rec)
		t.Definition = def
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate templates: %w", err)
	}
	return out, nil
}

// SaveDefinitions replaces all rows with templates in one transaction
func (s *SQLiteStore) SaveDefinitions(ctx context.Context, templates []Template) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM templates`); err != nil {
		return fmt.Errorf("clear templates: %w", err)
	}
	pos := 0
	for _, t := range templates {
		if t.BuiltIn {
			continue
		}
		raw, err := EncodeDefinition(t.Definition)
		if err != nil {
			return fmt.Errorf("template %s: %w", t.ID, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO templates (id, position, name, description, color, definition) VALUES (?, ?, ?, ?, ?, ?)`,
			t.ID, pos, t.Name, t.Description, t.Color, string(raw),
		)
		if err != nil {
			return fmt.Errorf("insert template %s: %w", t.ID, err)
		}
		pos++
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Printf("SQLiteStore: saved %d templates", pos)
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
