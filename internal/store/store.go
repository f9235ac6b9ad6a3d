// Package store persists the last-known-good Snapshot of each category.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Checker-Finance/moa-adapter/pkg/model"
)

var (
	// ErrNotFound is returned by Load when no usable snapshot exists. Missing,
	// unreadable and malformed payloads all map here.
	ErrNotFound = errors.New("snapshot not found")

	// ErrEmptySnapshot is returned by Save for a snapshot without rows.
	ErrEmptySnapshot = errors.New("refusing to save empty snapshot")
)

// Store is a key-value store of snapshots keyed by category.
type Store interface {
	Load(ctx context.Context, category model.Category) (*model.Snapshot, error)
	Save(ctx context.Context, category model.Category, snap model.Snapshot) error
}

// HealthChecker is implemented by backends with a remote dependency.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

func checkSave(category model.Category, snap model.Snapshot) error {
	if category.UpstreamCode() == "" {
		return fmt.Errorf("store: invalid category %q", category)
	}
	if len(snap.Rows) == 0 {
		return fmt.Errorf("store: %s: %w", category, ErrEmptySnapshot)
	}
	return nil
}

func cloneSnapshot(s model.Snapshot) *model.Snapshot {
	out := s
	out.Rows = append([]model.MarketRow(nil), s.Rows...)
	return &out
}
