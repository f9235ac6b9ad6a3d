package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/Checker-Finance/moa-adapter/pkg/model"
)

// FileStore keeps one JSON document per category under dir (backup_<Category>.json).
type FileStore struct {
	dir    string
	logger *zap.Logger
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string, logger *zap.Logger) (*FileStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir, logger: logger}, nil
}

// SnapshotFileName returns the file name holding category's snapshot.
func SnapshotFileName(category model.Category) string {
	return "backup_" + string(category) + ".json"
}

// Path returns the absolute snapshot path for category.
func (s *FileStore) Path(category model.Category) string {
	return filepath.Join(s.dir, SnapshotFileName(category))
}

func (s *FileStore) Load(_ context.Context, category model.Category) (*model.Snapshot, error) {
	path := s.Path(category)

	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("store.file.stat_failed", zap.String("path", path), zap.Error(err))
		}
		return nil, ErrNotFound
	}

	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn("store.file.read_failed", zap.String("path", path), zap.Error(err))
		return nil, ErrNotFound
	}

	payload, err := DecodePayload(data)
	if err != nil {
		s.logger.Warn("store.file.decode_failed", zap.String("path", path), zap.Error(err))
		return nil, ErrNotFound
	}

	snap := payload.Snapshot(info.ModTime().UTC().Format(model.TimestampLayout))
	return &snap, nil
}

// Save replaces category's file atomically: the document is written to a temp
// file in the same directory, synced, then renamed over the old one.
func (s *FileStore) Save(_ context.Context, category model.Category, snap model.Snapshot) error {
	if err := checkSave(category, snap); err != nil {
		return err
	}
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	path := s.Path(category)
	if err := WriteFileAtomic(path, data); err != nil {
		s.logger.Error("store.file.save_failed", zap.String("path", path), zap.Error(err))
		return err
	}
	s.logger.Debug("store.file.saved",
		zap.String("category", string(category)),
		zap.String("date", snap.TradingDate),
		zap.Int("rows", len(snap.Rows)))
	return nil
}

// ModTime returns the last write time of category's snapshot file.
func (s *FileStore) ModTime(category model.Category) (time.Time, error) {
	info, err := os.Stat(s.Path(category))
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// WriteFileAtomic writes data to path via temp file + fsync + rename, so readers
// observe either the old or the new content, never a partial file.
func WriteFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("chmod temp: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
