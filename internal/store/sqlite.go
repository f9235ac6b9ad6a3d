package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/Checker-Finance/moa-adapter/pkg/model"
)

// SQLiteStore keeps snapshot documents in a single-table SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (or creates) the database at path and ensures the schema.
func NewSQLiteStore(ctx context.Context, path string, logger *zap.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS snapshots (
  category   TEXT PRIMARY KEY,
  payload    TEXT NOT NULL,
  updated_at INTEGER NOT NULL
);`)
	if err != nil {
		return fmt.Errorf("sqlite migrate: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, category model.Category) (*model.Snapshot, error) {
	var (
		payload   string
		updatedAt int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT payload, updated_at FROM snapshots WHERE category = ?`, string(category)).
		Scan(&payload, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		s.logger.Warn("store.sqlite.query_failed", zap.String("category", string(category)), zap.Error(err))
		return nil, ErrNotFound
	}

	p, err := DecodePayload([]byte(payload))
	if err != nil {
		s.logger.Warn("store.sqlite.decode_failed", zap.String("category", string(category)), zap.Error(err))
		return nil, ErrNotFound
	}
	snap := p.Snapshot(time.UnixMilli(updatedAt).UTC().Format(model.TimestampLayout))
	return &snap, nil
}

func (s *SQLiteStore) Save(ctx context.Context, category model.Category, snap model.Snapshot) error {
	if err := checkSave(category, snap); err != nil {
		return err
	}
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO snapshots (category, payload, updated_at) VALUES (?, ?, ?)
ON CONFLICT(category) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		string(category), string(data), time.Now().UnixMilli())
	if err != nil {
		s.logger.Error("store.sqlite.upsert_failed", zap.String("category", string(category)), zap.Error(err))
		return err
	}
	return nil
}

func (s *SQLiteStore) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping failed: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
