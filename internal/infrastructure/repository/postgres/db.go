package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/travel-diary/internal/core/domain"
	"github.com/kirillkom/travel-diary/internal/core/ports"
)

const schemaLockID = int64(2026101801)

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// NewStore returns the repositories for every collection backed by db.
func NewStore(db *sql.DB) ports.Store {
	return ports.Store{
		Images:     NewImageRepository(db),
		Diaries:    NewDiaryRepository(db),
		AIDiaries:  NewAIDiaryRepository(db),
		Printables: NewPrintableRepository(db),
		Selections: NewLayoutSelectionRepository(db),
	}
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, schemaLockID); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS images (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	storage_key TEXT NOT NULL,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	size BIGINT NOT NULL DEFAULT 0,
	keywords JSONB NOT NULL DEFAULT '[]'::jsonb,
	temp_id TEXT NOT NULL DEFAULT '',
	exif JSONB NOT NULL DEFAULT '{}'::jsonb,
	used_in_diary BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS diaries (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	title TEXT NOT NULL,
	date TEXT NOT NULL,
	photos JSONB NOT NULL DEFAULT '[]'::jsonb,
	content TEXT NOT NULL DEFAULT '',
	categories JSONB NOT NULL DEFAULT '[]'::jsonb,
	completed BOOLEAN NOT NULL DEFAULT FALSE,
	completed_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS ai_diaries (
	id TEXT PRIMARY KEY,
	diary_id TEXT NOT NULL UNIQUE,
	user_id TEXT NOT NULL,
	content TEXT NOT NULL,
	photos JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS printable_diaries (
	id TEXT PRIMARY KEY,
	diary_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	pages JSONB NOT NULL,
	total_pages INTEGER NOT NULL,
	mime_type TEXT NOT NULL,
	thumbnail TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS layout_selections (
	diary_id TEXT PRIMARY KEY,
	layout_id TEXT NOT NULL,
	layout_index INTEGER NOT NULL,
	selected_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_diaries_user_created ON diaries(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_printable_diaries_diary ON printable_diaries(diary_id, created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// firstMatch runs fetch for each identifier candidate and returns the first
// hit. Only sql.ErrNoRows moves on to the next candidate.
func firstMatch[T any](id domain.ID, entity string, fetch func(key string) (*T, error)) (*T, error) {
	for _, key := range id.Candidates() {
		v, err := fetch(key)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}
	return nil, domain.NotFound("get "+entity, entity, id.String())
}

func requireAffected(res sql.Result, op, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return domain.NotFound(op, entity, id)
	}
	return nil
}

func marshalJSON(v any, what string) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", what, err)
	}
	return raw, nil
}

func unmarshalJSON(raw []byte, v any, what string) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", what, err)
	}
	return nil
}
