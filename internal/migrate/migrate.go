// Package migrate converts the older on-disk data layout into the current one:
//
//	golden_dataset/latest_<Category>.json -> list_<Category>.json   (code/name only)
//	backup/latest_<Category>.json         -> backup_<Category>.json (copied verbatim)
package migrate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Checker-Finance/moa-adapter/internal/catalog"
	"github.com/Checker-Finance/moa-adapter/internal/store"
	"github.com/Checker-Finance/moa-adapter/pkg/model"
)

const (
	goldenDir = "golden_dataset"
	backupDir = "backup"
)

// Migrator runs the layout migration rooted at a data directory.
type Migrator struct {
	dataDir string
	logger  *zap.Logger
}

func New(dataDir string, logger *zap.Logger) *Migrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Migrator{dataDir: dataDir, logger: logger}
}

// Run performs both steps for every category and returns human-readable log
// lines. Per-file failures are reported in the log and do not stop the run.
func (m *Migrator) Run() []string {
	var logs []string
	for _, cat := range migrationOrder {
		logs = append(logs, m.golden(cat)...)
	}
	for _, cat := range migrationOrder {
		logs = append(logs, m.backup(cat)...)
	}
	m.logger.Info("migrate.completed", zap.Int("lines", len(logs)))
	return logs
}

var migrationOrder = []model.Category{model.CategoryFruit, model.CategoryVegetable}

func latestName(cat model.Category) string {
	return "latest_" + string(cat) + ".json"
}

func (m *Migrator) golden(cat model.Category) []string {
	src := filepath.Join(m.dataDir, goldenDir, latestName(cat))
	if !exists(src) {
		return []string{fmt.Sprintf("Golden dataset not found: %s", src)}
	}

	logs := []string{fmt.Sprintf("Processing %s golden dataset...", cat)}
	dst := filepath.Join(m.dataDir, catalog.ListFileName(cat))
	if err := convertGolden(src, dst); err != nil {
		m.logger.Warn("migrate.golden_failed", zap.String("category", string(cat)), zap.Error(err))
		return append(logs, fmt.Sprintf("Error processing %s: %v", cat, err))
	}
	return append(logs, fmt.Sprintf("Created %s", dst))
}

func convertGolden(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	var doc struct {
		Date string            `json:"date"`
		Data []model.MarketRow `json:"data"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.Data == nil {
		return errors.New("golden dataset has no data array")
	}

	out := model.CatalogFile{Date: doc.Date, Data: make([]model.CatalogEntry, 0, len(doc.Data))}
	for _, r := range doc.Data {
		out.Data = append(out.Data, model.CatalogEntry{ProductCode: r.ProductCode, ProductName: r.ProductName})
	}
	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return store.WriteFileAtomic(dst, encoded)
}

func (m *Migrator) backup(cat model.Category) []string {
	src := filepath.Join(m.dataDir, backupDir, latestName(cat))
	if !exists(src) {
		return nil
	}

	logs := []string{fmt.Sprintf("Renaming %s backup dataset...", cat)}
	dst := filepath.Join(m.dataDir, store.SnapshotFileName(cat))
	data, err := os.ReadFile(src)
	if err == nil {
		err = store.WriteFileAtomic(dst, data)
	}
	if err != nil {
		m.logger.Warn("migrate.backup_failed", zap.String("category", string(cat)), zap.Error(err))
		return append(logs, fmt.Sprintf("Error copying backup %s: %v", cat, err))
	}
	return append(logs, fmt.Sprintf("Copied to %s", dst))
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
