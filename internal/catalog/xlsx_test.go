package catalog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Checker-Finance/moa-adapter/pkg/model"
)

func buildWorkbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	for i, r := range rows {
		cellRef, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := r
		require.NoError(t, f.SetSheetRow(sheet, cellRef, &r))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseWorkbook_HeaderMapping(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"台北一 報價單"},
		{"產品代號", "產品名稱", "品種", "上價", "中價", "下價", "平均價", "交易量"},
		{"LA1", "甘藍", "初秋", 30, 21, 12, 20.3, 15230},
		{},
		{"A1", "香蕉", "", 55, 41, 28, 40, 8000},
	})

	rows, err := ParseWorkbook(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, model.MarketRow{
		ProductCode:       "LA1",
		ProductName:       "甘藍",
		Variety:           "初秋",
		UpperPrice:        "30",
		MiddlePrice:       "21",
		LowerPrice:        "12",
		AveragePrice:      "20.3",
		TransactionVolume: "15230",
	}, rows[0])
	assert.Equal(t, "A1", rows[1].ProductCode)
	assert.Equal(t, "", rows[1].Variety)
}

func TestParseWorkbook_MissingColumnsDefaultToZero(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"代號", "品名"},
		{"LA1", "甘藍"},
	})

	rows, err := ParseWorkbook(buf)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "甘藍", rows[0].ProductName)
	assert.Equal(t, "0", rows[0].AveragePrice)
	assert.Equal(t, "0", rows[0].TransactionVolume)
}

func TestParseWorkbook_PositionalFallback(t *testing.T) {
	buf := buildWorkbook(t, [][]any{
		{"LA1", "甘藍", 30, 21, 12, 20.3, 15230},
		{"short", "row"},
		{"SB1", "小白菜", 25, 18, 10, 17.5, 900},
	})

	rows, err := ParseWorkbook(buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "SB1", rows[1].ProductCode)
	assert.Equal(t, "17.5", rows[1].AveragePrice)
}

func TestParseWorkbook_NoRows(t *testing.T) {
	buf := buildWorkbook(t, [][]any{{"產品代號", "產品名稱"}})
	_, err := ParseWorkbook(buf)
	assert.ErrorIs(t, err, ErrNoRows)
}

func TestParseWorkbook_NotAWorkbook(t *testing.T) {
	_, err := ParseWorkbook(strings.NewReader("plain text"))
	assert.Error(t, err)
}

func TestItemsFromRows(t *testing.T) {
	items := ItemsFromRows([]model.MarketRow{
		{ProductCode: "A1", ProductName: "香蕉", Category: model.CategoryFruit},
		{ProductCode: "LA1", ProductName: "甘藍"},
		{ProductCode: "", ProductName: "無代號"},
	}, model.CategoryVegetable)

	assert.Equal(t, []model.CatalogItem{
		{ProductCode: "A1", ProductName: "香蕉", Category: model.CategoryFruit},
		{ProductCode: "LA1", ProductName: "甘藍", Category: model.CategoryVegetable},
	}, items)
}
