package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Options selects and configures a snapshot backend.
type Options struct {
	Backend    string
	DataDir    string
	SQLitePath string
	RedisAddr  string
	RedisPass  string
	RedisDB    int
}

// Open builds the configured backend. The returned closer is never nil.
func Open(ctx context.Context, opts Options, logger *zap.Logger) (Store, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendFile:
		s, err := NewFileStore(opts.DataDir, logger)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil

	case BackendRedis:
		s, err := NewRedisStore(ctx, opts.RedisAddr, opts.RedisPass, opts.RedisDB, logger)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil

	case BackendSQLite:
		path := opts.SQLitePath
		if path == "" {
			path = filepath.Join(opts.DataDir, "snapshots.db")
		}
		s, err := NewSQLiteStore(ctx, path, logger)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil

	case BackendMemory:
		return NewMemoryStore(), noop, nil
	}
	return nil, noop, fmt.Errorf("store: unknown backend %q", opts.Backend)
}
