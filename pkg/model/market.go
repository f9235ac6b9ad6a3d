package model

import (
	"fmt"
	"strings"
)

// Category is one of the two fixed trading classifications of the wholesale market.
type Category string

const (
	CategoryVegetable Category = "Vegetable"
	CategoryFruit     Category = "Fruit"

	// CategoryAll requests both categories in one retrieval.
	CategoryAll Category = "all"
)

// Categories lists the concrete categories in their canonical order.
var Categories = []Category{CategoryVegetable, CategoryFruit}

// upstream classification codes (種類代碼)
var upstreamCodes = map[Category]string{
	CategoryVegetable: "N04",
	CategoryFruit:     "N05",
}

// ParseCategory accepts "Vegetable", "Fruit" or "all" (case-insensitive).
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vegetable":
		return CategoryVegetable, nil
	case "fruit":
		return CategoryFruit, nil
	case "all", "both":
		return CategoryAll, nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Expand returns the concrete categories covered by c.
func (c Category) Expand() []Category {
	if c == CategoryAll {
		return Categories
	}
	return []Category{c}
}

// UpstreamCode returns the MOA classification code for c, or "" for CategoryAll.
func (c Category) UpstreamCode() string {
	return upstreamCodes[c]
}

// CategoryForUpstreamCode maps a MOA classification code back to a Category.
func CategoryForUpstreamCode(code string) (Category, bool) {
	for c, uc := range upstreamCodes {
		if uc == code {
			return c, true
		}
	}
	return "", false
}

// MarketRow is one product's price quote for one trading day.
// Prices and volume are kept as the decimal strings received from upstream.
type MarketRow struct {
	ProductCode       string   `json:"productCode"`
	ProductName       string   `json:"productName"`
	UpperPrice        string   `json:"upperPrice"`
	MiddlePrice       string   `json:"middlePrice"`
	LowerPrice        string   `json:"lowerPrice"`
	AveragePrice      string   `json:"averagePrice"`
	TransactionVolume string   `json:"transactionVolume"`
	Variety           string   `json:"variety,omitempty"`
	Category          Category `json:"category,omitempty"`
}

// TimestampLayout renders full provenance timestamps (UTC, millisecond precision),
// e.g. "2025-12-08T03:15:42.123Z".
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// UnknownTradingDate marks snapshots written before the trading date was recorded.
const UnknownTradingDate = "Unknown"

// Snapshot is a category's last-known-good set of rows.
// TradingDate is the ROC date the rows pertain to, not the fetch date.
// RetrievedAt is an RFC3339 timestamp for same-day fetches and a bare
// Gregorian date for backfilled ones.
type Snapshot struct {
	TradingDate string      `json:"date"`
	RetrievedAt string      `json:"scrapedAt,omitempty"`
	Rows        []MarketRow `json:"data"`
}

// Status is the outcome of a retrieval.
type Status string

const (
	StatusFresh       Status = "fresh"
	StatusCached      Status = "cached"
	StatusUnavailable Status = "unavailable"
)

// RetrievalResult is the uniform contract returned to callers of the retrieval policy.
type RetrievalResult struct {
	Status              Status      `json:"status"`
	TradingDate         string      `json:"date"`
	Category            Category    `json:"type"`
	Rows                []MarketRow `json:"data"`
	Note                string      `json:"message,omitempty"`
	BackupDate          string      `json:"backupDate,omitempty"`
	ProvenanceTimestamp string      `json:"scrapedAt"`
	IsNonTradingDay     bool        `json:"isMarketClosed"`
}

// CatalogEntry is a product code/name pair used for autocomplete.
type CatalogEntry struct {
	ProductCode string `json:"productCode"`
	ProductName string `json:"productName"`
}

// CatalogItem is a CatalogEntry tagged with its category, as served to the UI.
type CatalogItem struct {
	ProductCode string   `json:"productCode"`
	ProductName string   `json:"productName"`
	Category    Category `json:"category"`
}

// CatalogFile is the persisted per-category catalog.
type CatalogFile struct {
	Date string         `json:"date"`
	Data []CatalogEntry `json:"data"`
}
