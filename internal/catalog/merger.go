// Package catalog maintains the de-duplicated product code/name lists used
// for quotation autocomplete.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Checker-Finance/moa-adapter/internal/store"
	"github.com/Checker-Finance/moa-adapter/pkg/model"
)

// Merger owns the persisted per-category lists (list_<Category>.json) and the
// in-memory list most recently imported from a spreadsheet.
type Merger struct {
	dir    string
	logger *zap.Logger

	fileMu sync.Mutex

	mu       sync.RWMutex
	imported []model.CatalogItem
}

// NewMerger creates dir if needed.
func NewMerger(dir string, logger *zap.Logger) (*Merger, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create catalog dir: %w", err)
	}
	return &Merger{dir: dir, logger: logger}, nil
}

// ListFileName returns the file name holding category's catalog.
func ListFileName(category model.Category) string {
	return "list_" + string(category) + ".json"
}

// Path returns the catalog file path for category.
func (m *Merger) Path(category model.Category) string {
	return filepath.Join(m.dir, ListFileName(category))
}

// Load reads category's catalog. Missing or corrupt files yield an empty catalog.
func (m *Merger) Load(category model.Category) model.CatalogFile {
	path := m.Path(category)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			m.logger.Warn("catalog.read_failed", zap.String("path", path), zap.Error(err))
		}
		return model.CatalogFile{Data: []model.CatalogEntry{}}
	}

	var f model.CatalogFile
	if err := json.Unmarshal(data, &f); err != nil {
		m.logger.Warn("catalog.decode_failed", zap.String("path", path), zap.Error(err))
		return model.CatalogFile{Data: []model.CatalogEntry{}}
	}
	if f.Data == nil {
		f.Data = []model.CatalogEntry{}
	}
	return f
}

// Merge folds rows belonging to category into its catalog, keyed by product code
// (last write wins, existing order kept, new codes appended in input order).
// Rows tagged with another category are ignored; untagged rows are taken as
// belonging to category. Rows missing a code or a name are discarded. The file
// is not touched when no row belongs to category or nothing would change.
func (m *Merger) Merge(_ context.Context, category model.Category, rows []model.MarketRow, effectiveDate string) (bool, error) {
	if category.UpstreamCode() == "" {
		return false, fmt.Errorf("catalog: invalid category %q", category)
	}

	var incoming []model.MarketRow
	for _, r := range rows {
		if r.Category == "" || r.Category == category {
			incoming = append(incoming, r)
		}
	}
	if len(incoming) == 0 {
		return false, nil
	}

	m.fileMu.Lock()
	defer m.fileMu.Unlock()

	existing := m.Load(category)
	merged := mergeEntries(existing.Data, incoming)
	next := model.CatalogFile{Date: effectiveDate, Data: merged}

	if existing.Date == next.Date && equalEntries(existing.Data, next.Data) {
		return false, nil
	}

	data, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return false, fmt.Errorf("encode catalog: %w", err)
	}
	if err := store.WriteFileAtomic(m.Path(category), data); err != nil {
		m.logger.Error("catalog.write_failed", zap.String("category", string(category)), zap.Error(err))
		return false, err
	}

	m.logger.Info("catalog.merged",
		zap.String("category", string(category)),
		zap.String("date", effectiveDate),
		zap.Int("entries", len(merged)),
		zap.Int("incoming", len(incoming)))
	return true, nil
}

// MergeAll routes tagged rows to their category's catalog. Untagged rows are ignored.
func (m *Merger) MergeAll(ctx context.Context, rows []model.MarketRow, effectiveDate string) ([]model.Category, error) {
	var changed []model.Category
	for _, cat := range model.Categories {
		var own []model.MarketRow
		for _, r := range rows {
			if r.Category == cat {
				own = append(own, r)
			}
		}
		ok, err := m.Merge(ctx, cat, own, effectiveDate)
		if err != nil {
			return changed, err
		}
		if ok {
			changed = append(changed, cat)
		}
	}
	return changed, nil
}

// List returns both persisted catalogs, tagged with their category.
func (m *Merger) List(_ context.Context) []model.CatalogItem {
	items := []model.CatalogItem{}
	for _, cat := range model.Categories {
		for _, e := range m.Load(cat).Data {
			items = append(items, model.CatalogItem{
				ProductCode: e.ProductCode,
				ProductName: e.ProductName,
				Category:    cat,
			})
		}
	}
	return items
}

// ImportReplace replaces the in-memory imported list wholesale. Nothing is persisted.
func (m *Merger) ImportReplace(items []model.CatalogItem) {
	cp := append([]model.CatalogItem(nil), items...)
	m.mu.Lock()
	m.imported = cp
	m.mu.Unlock()
}

// Entries returns a copy of the in-memory imported list.
func (m *Merger) Entries() []model.CatalogItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.CatalogItem{}, m.imported...)
}

func mergeEntries(existing []model.CatalogEntry, incoming []model.MarketRow) []model.CatalogEntry {
	out := make([]model.CatalogEntry, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing)+len(incoming))

	put := func(code, name string) {
		if i, ok := index[code]; ok {
			out[i].ProductName = name
			return
		}
		index[code] = len(out)
		out = append(out, model.CatalogEntry{ProductCode: code, ProductName: name})
	}

	for _, e := range existing {
		if e.ProductCode != "" {
			put(e.ProductCode, e.ProductName)
		}
	}
	for _, r := range incoming {
		code := strings.TrimSpace(r.ProductCode)
		name := strings.TrimSpace(r.ProductName)
		if code == "" || name == "" {
			continue
		}
		put(code, name)
	}
	return out
}

func equalEntries(a, b []model.CatalogEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
