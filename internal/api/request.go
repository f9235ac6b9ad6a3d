package api

import "github.com/Checker-Finance/moa-adapter/pkg/model"

// ScrapeRequest is the query string of GET /api/scrape.
type ScrapeRequest struct {
	Date     string `query:"date"`     // ROC date, e.g. 114/12/03
	Type     string `query:"type"`     // Vegetable, Fruit or all
	UseCache bool   `query:"useCache"` // serve the latest snapshot without fetching
}

// ProductsUpdateRequest is the body of POST /api/products.
type ProductsUpdateRequest struct {
	Date string            `json:"date"`
	Data []model.MarketRow `json:"data"`
}
