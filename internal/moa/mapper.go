package moa

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Checker-Finance/moa-adapter/pkg/model"
)

// Partition groups upstream records into canonical rows per category. Records with an
// unknown category code are dropped, as are repeated product codes within a category
// (the first occurrence wins). Every known category is present in the result, possibly empty.
func Partition(records []Record) map[model.Category][]model.MarketRow {
	out := make(map[model.Category][]model.MarketRow, len(model.Categories))
	seen := make(map[model.Category]map[string]struct{}, len(model.Categories))
	for _, c := range model.Categories {
		out[c] = []model.MarketRow{}
		seen[c] = make(map[string]struct{})
	}

	for _, r := range records {
		cat, ok := model.CategoryForUpstreamCode(strings.TrimSpace(r.CategoryCode))
		if !ok {
			continue
		}
		code := strings.TrimSpace(r.CropCode)
		if _, dup := seen[cat][code]; dup {
			continue
		}
		seen[cat][code] = struct{}{}
		out[cat] = append(out[cat], ToMarketRow(r, cat))
	}
	return out
}

// ToMarketRow projects one upstream record into the canonical row shape.
func ToMarketRow(r Record, cat model.Category) model.MarketRow {
	return model.MarketRow{
		ProductCode:       strings.TrimSpace(r.CropCode),
		ProductName:       strings.TrimSpace(r.CropName),
		UpperPrice:        FormatNumber(r.UpperPrice),
		MiddlePrice:       FormatNumber(r.MiddlePrice),
		LowerPrice:        FormatNumber(r.LowerPrice),
		AveragePrice:      FormatNumber(r.AveragePrice),
		TransactionVolume: FormatNumber(r.Volume),
		Category:          cat,
	}
}

// FormatNumber renders an upstream number as a decimal string without rounding.
// Trailing fractional zeros are dropped ("35.50" -> "35.5"); a missing value is "0".
// Values that do not parse as decimals are passed through verbatim.
func FormatNumber(n json.Number) string {
	s := strings.TrimSpace(n.String())
	if s == "" {
		return "0"
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	return d.String()
}
