package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/marqtools/flowbuilder/pkg/schema"
)

const postgresSchemaSQL = `
CREATE TABLE IF NOT EXISTS automations (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    status      TEXT NOT NULL DEFAULT 'draft',
    definition  JSONB NOT NULL,
    revision    INTEGER NOT NULL DEFAULT 1,
    created_at  TIMESTAMPTZ NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS automation_revisions (
    automation_id TEXT NOT NULL REFERENCES automations(id) ON DELETE CASCADE,
    revision      INTEGER NOT NULL,
    definition    JSONB NOT NULL,
    saved_at      TIMESTAMPTZ NOT NULL,
    PRIMARY KEY (automation_id, revision)
);

CREATE INDEX IF NOT EXISTS idx_automations_status ON automations(status);
CREATE INDEX IF NOT EXISTS idx_revisions_automation ON automation_revisions(automation_id);
`

// PostgresStore implements the Store interface on PostgreSQL via pgx,
// for deployments where several console instances share one database.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore wraps an existing pgx connection pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: pool}
}

// Migrate creates the automations tables if they don't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.db.Exec(ctx, postgresSchemaSQL)
	return err
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}

func (s *PostgresStore) CreateAutomation(ctx context.Context, a *Automation) error {
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

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO automations (id, name, description, status, definition, revision, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.Name, a.Description, a.Status, def, a.Revision, a.CreatedAt, a.UpdatedAt,
	); err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "insert automation: %s", err.Error()).WithCause(err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO automation_revisions (automation_id, revision, definition, saved_at) VALUES ($1, $2, $3, $4)`,
		a.ID, a.Revision, def, now,
	); err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "insert revision: %s", err.Error()).WithCause(err)
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) GetAutomation(ctx context.Context, id string) (*Automation, error) {
	a := &Automation{}
	var def []byte
	err := s.db.QueryRow(ctx,
		`SELECT id, name, description, status, definition, revision, created_at, updated_at
		 FROM automations WHERE id = $1`, id,
	).Scan(&a.ID, &a.Name, &a.Description, &a.Status, &def, &a.Revision, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(def, &a.Definition); err != nil {
		return nil, schema.NewError(schema.ErrCodeStore, "unmarshal definition").WithCause(err)
	}
	return a, nil
}

func (s *PostgresStore) UpdateAutomation(ctx context.Context, a *Automation) error {
	def, err := json.Marshal(a.Definition)
	if err != nil {
		return schema.NewError(schema.ErrCodeStore, "marshal definition").WithCause(err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback(ctx)

	var current int
	err = tx.QueryRow(ctx,
		`SELECT revision FROM automations WHERE id = $1 FOR UPDATE`, a.ID,
	).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound(a.ID)
	}
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	a.Revision = current + 1
	a.UpdatedAt = now

	if _, err := tx.Exec(ctx,
		`UPDATE automations SET name = $1, description = $2, definition = $3, revision = $4, updated_at = $5
		 WHERE id = $6`,
		a.Name, a.Description, def, a.Revision, now, a.ID,
	); err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "update automation: %s", err.Error()).WithCause(err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO automation_revisions (automation_id, revision, definition, saved_at) VALUES ($1, $2, $3, $4)`,
		a.ID, a.Revision, def, now,
	); err != nil {
		return schema.NewErrorf(schema.ErrCodeStore, "insert revision: %s", err.Error()).WithCause(err)
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) SetStatus(ctx context.Context, id, status string) error {
	ct, err := s.db.Exec(ctx,
		`UPDATE automations SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

func (s *PostgresStore) ListAutomations(ctx context.Context, filter ListFilter) ([]*Automation, error) {
	query := `SELECT id, name, description, status, definition, revision, created_at, updated_at
	          FROM automations`
	args := []any{}
	if filter.Status != "" {
		query += ` WHERE status = $1`
		args = append(args, filter.Status)
	}
	query += ` ORDER BY updated_at DESC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, filter.Limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Automation
	for rows.Next() {
		a := &Automation{}
		var def []byte
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Status, &def,
			&a.Revision, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(def, &a.Definition); err != nil {
			return nil, schema.NewError(schema.ErrCodeStore, "unmarshal definition").WithCause(err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) DeleteAutomation(ctx context.Context, id string) error {
	ct, err := s.db.Exec(ctx, `DELETE FROM automations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return notFound(id)
	}
	return nil
}

func (s *PostgresStore) ListRevisions(ctx context.Context, automationID string) ([]*Revision, error) {
	rows, err := s.db.Query(ctx,
		`SELECT automation_id, revision, definition, saved_at
		 FROM automation_revisions WHERE automation_id = $1 ORDER BY revision ASC`,
		automationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Revision
	for rows.Next() {
		r := &Revision{}
		var def []byte
		if err := rows.Scan(&r.AutomationID, &r.Revision, &def, &r.SavedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(def, &r.Definition); err != nil {
			return nil, schema.NewError(schema.ErrCodeStore, "unmarshal revision").WithCause(err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

var _ Store = (*PostgresStore)(nil)
