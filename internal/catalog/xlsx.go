package catalog

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Checker-Finance/moa-adapter/pkg/model"
)

// ErrNoRows is returned when a workbook holds no importable rows.
var ErrNoRows = errors.New("no valid rows found in workbook")

// ParseWorkbook reads the first sheet of an xlsx workbook into market rows.
//
// A header row is located by the first row containing a cell with "產品" or
// "代號"; columns are then mapped by header text. Sheets without such a row
// are read positionally (code, name, upper, middle, lower, average, volume).
func ParseWorkbook(r io.Reader) ([]model.MarketRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoRows
	}
	grid, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	var rows []model.MarketRow
	if h := findHeader(grid); h >= 0 {
		rows = parseWithHeader(grid[h], grid[h+1:])
	} else {
		rows = parsePositional(grid)
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows, nil
}

func findHeader(grid [][]string) int {
	for i, row := range grid {
		for _, c := range row {
			c = strings.TrimSpace(c)
			if strings.Contains(c, "產品") || strings.Contains(c, "代號") {
				return i
			}
		}
	}
	return -1
}

type columns struct {
	code, name, variety, upper, middle, lower, avg, volume int
}

func mapColumns(header []string) columns {
	find := func(match func(h string) bool) int {
		for i, h := range header {
			if match(strings.TrimSpace(h)) {
				return i
			}
		}
		return -1
	}
	has := func(subs ...string) func(string) bool {
		return func(h string) bool {
			for _, s := range subs {
				if strings.Contains(h, s) {
					return true
				}
			}
			return false
		}
	}
	isCode := has("代號", "Code")

	return columns{
		code: find(isCode),
		// "產品代號" contains "產品", so code columns are excluded from the name match.
		name: find(func(h string) bool {
			return has("名稱", "品名", "Name", "產品")(h) && !isCode(h)
		}),
		variety: find(has("品種", "Variety")),
		upper:   find(has("上價")),
		middle:  find(has("中價")),
		lower:   find(has("下價")),
		avg:     find(has("平均")),
		volume:  find(has("量")),
	}
}

func cell(row []string, idx int, def string) string {
	if idx < 0 {
		return def
	}
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseWithHeader(header []string, body [][]string) []model.MarketRow {
	cols := mapColumns(header)

	var out []model.MarketRow
	for _, row := range body {
		if len(row) == 0 {
			continue
		}
		code := cell(row, cols.code, "")
		name := cell(row, cols.name, "")
		if code == "" && name == "" {
			continue
		}
		out = append(out, model.MarketRow{
			ProductCode:       code,
			ProductName:       name,
			Variety:           cell(row, cols.variety, ""),
			UpperPrice:        cell(row, cols.upper, "0"),
			MiddlePrice:       cell(row, cols.middle, "0"),
			LowerPrice:        cell(row, cols.lower, "0"),
			AveragePrice:      cell(row, cols.avg, "0"),
			TransactionVolume: cell(row, cols.volume, "0"),
		})
	}
	return out
}

func parsePositional(grid [][]string) []model.MarketRow {
	var out []model.MarketRow
	for _, row := range grid {
		if len(row) < 7 {
			continue
		}
		if strings.Contains(row[0], "產品") {
			continue
		}
		out = append(out, model.MarketRow{
			ProductCode:       strings.TrimSpace(row[0]),
			ProductName:       strings.TrimSpace(row[1]),
			UpperPrice:        strings.TrimSpace(row[2]),
			MiddlePrice:       strings.TrimSpace(row[3]),
			LowerPrice:        strings.TrimSpace(row[4]),
			AveragePrice:      strings.TrimSpace(row[5]),
			TransactionVolume: strings.TrimSpace(row[6]),
		})
	}
	return out
}

// ItemsFromRows converts imported rows into catalog items, dropping rows without
// a code or a name. Rows without a category tag are attributed to def.
func ItemsFromRows(rows []model.MarketRow, def model.Category) []model.CatalogItem {
	items := make([]model.CatalogItem, 0, len(rows))
	for _, r := range rows {
		if r.ProductCode == "" || r.ProductName == "" {
			continue
		}
		cat := r.Category
		if cat == "" {
			cat = def
		}
		items = append(items, model.CatalogItem{ProductCode: r.ProductCode, ProductName: r.ProductName, Category: cat})
	}
	return items
}
