package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/marqtools/flowbuilder/pkg/schema"
)

// LibSQLStore implements the Store interface using libSQL (embedded SQLite
// fork). The default store for single-operator deployments.
type LibSQLStore struct {
	db *sql.DB
}

// NewLibSQLStore opens a libSQL database at the given path and returns a Store.
// The path should be a file URI, e.g. "file:/path/to/db.db".
func NewLibSQLStore(dbPath string) (*LibSQLStore, error) {
	db, err := sql.Open("libsql", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open libsql: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Apply connection-level PRAGMAs. Some PRAGMAs return rows so we use QueryRow.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		var result string
		_ = db.QueryRow(p).Scan(&result)
	}

	return &LibSQLStore{db: db}, nil
}

// Close closes the database.
func (s *LibSQLStore) Close() error { return s.db.Close() }

// Migrate runs all pending database migrations.
func (s *LibSQLStore) Migrate(ctx context.Context) error {
	return runMigrations(ctx, s.db)
}

func (s *LibSQLStore) CreateAutomation(ctx context.Context, a *Automation) error {
	def, err := json.Marshal(a.Definition)
	if err != nil {
		return schema.NewError(schema.ErrCodeStore, "marshal definition").WithCause(err)
	}

	now := time.Now().UTC()
	a.Revision = 1
	if a.Status == "" {
		a.Status = StatusDraft
	}
	a.CreatedAt = now
	a.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO automations (id, name, description, status, definition, revision, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Name, a.Description, a.Status, string(def), a.Revision, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "insert automation: %s", err.Error()).WithCause(err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO automation_revisions (automation_id, revision, definition, saved_at) VALUES (?, ?, ?, ?)`,
		a.ID, a.Revision, string(def), now,
	); err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "insert revision: %s", err.Error()).WithCause(err)
	}

	return tx.Commit()
}

func (s *LibSQLStore) GetAutomation(ctx context.Context, id string) (*Automation, error) {
	a := &Automation{}
	var def string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, status, definition, revision, created_at, updated_at
		 FROM automations WHERE id = ?`, id,
	).Scan(&a.ID, &a.Name, &a.Description, &a.Status, &def, &a.Revision, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(def), &a.Definition); err != nil {
		return nil, schema.NewError(schema.ErrCodeStore, "unmarshal definition").WithCause(err)
	}
	return a, nil
}

// UpdateAutomation is last-write-wins: the stored row is replaced whole and
// the revision counter advances past whatever is currently stored.
func (s *LibSQLStore) UpdateAutomation(ctx context.Context, a *Automation) error {
	def, err := json.Marshal(a.Definition)
	if err != nil {
		return schema.NewError(schema.ErrCodeStore, "marshal definition").WithCause(err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	var current int
	err = tx.QueryRowContext(ctx,
		`SELECT revision FROM automations WHERE id = ?`, a.ID,
	).Scan(&current)
	if err == sql.ErrNoRows {
		return notFound(a.ID)
	}
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	a.Revision = current + 1
	a.UpdatedAt = now

	if _, err := tx.ExecContext(ctx,
		`UPDATE automations SET name = ?, description = ?, definition = ?, revision = ?, updated_at = ?
		 WHERE id = ?`,
		a.Name, a.Description, string(def), a.Revision, now, a.ID,
	); err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "update automation: %s", err.Error()).WithCause(err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO automation_revisions (automation_id, revision, definition, saved_at) VALUES (?, ?, ?, ?)`,
		a.ID, a.Revision, string(def), now,
	); err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "insert revision: %s", err.Error()).WithCause(err)
	}

	return tx.Commit()
}

func (s *LibSQLStore) SetStatus(ctx context.Context, id, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE automations SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

func (s *LibSQLStore) ListAutomations(ctx context.Context, filter ListFilter) ([]*Automation, error) {
	query := `SELECT id, name, description, status, definition, revision, created_at, updated_at
	          FROM automations`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY updated_at DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Automation
	for rows.Next() {
		a := &Automation{}
		var def string
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Status, &def,
			&a.Revision, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(def), &a.Definition); err != nil {
			return nil, schema.NewError(schema.ErrCodeStore, "unmarshal definition").WithCause(err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *LibSQLStore) DeleteAutomation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM automations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

func (s *LibSQLStore) ListRevisions(ctx context.Context, automationID string) ([]*Revision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT automation_id, revision, definition, saved_at
		 FROM automation_revisions WHERE automation_id = ? ORDER BY revision ASC`,
		automationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Revision
	for rows.Next() {
		r := &Revision{}
		var def string
		if err := rows.Scan(&r.AutomationID, &r.Revision, &def, &r.SavedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(def), &r.Definition); err != nil {
			return nil, schema.NewError(schema.ErrCodeStore, "unmarshal revision").WithCause(err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

var _ Store = (*LibSQLStore)(nil)
