package api

import (
	"time"

	"github.com/Checker-Finance/moa-adapter/pkg/model"
	"github.com/Checker-Finance/moa-adapter/pkg/rocdate"
)

// ScrapeResponse is a RetrievalResult plus a display form of its timestamp.
type ScrapeResponse struct {
	model.RetrievalResult
	ScrapedAtDisplay string `json:"scrapedAtDisplay,omitempty"`
}

// ProductsUpdateResponse is returned by POST /api/products.
type ProductsUpdateResponse struct {
	Message string           `json:"message"`
	Updated []model.Category `json:"updated"`
}

// ImportResponse is returned by POST /api/products/import.
type ImportResponse struct {
	Count int                 `json:"count"`
	Data  []model.CatalogItem `json:"data"`
}

// MigrateResponse is returned by GET /api/migrate.
type MigrateResponse struct {
	Status  string   `json:"status"`
	Message string   `json:"message"`
	Logs    []string `json:"logs"`
}

func toScrapeResponse(res model.RetrievalResult, loc *time.Location) ScrapeResponse {
	if res.Rows == nil {
		res.Rows = []model.MarketRow{}
	}
	return ScrapeResponse{RetrievalResult: res, ScrapedAtDisplay: displayTimestamp(res.ProvenanceTimestamp, loc)}
}

// displayTimestamp renders a provenance timestamp in ROC form: full stamps as
// "YYY/MM/DD HH:MM:SS" in loc, bare dates as "YYY/MM/DD". Unrecognised input
// yields "".
func displayTimestamp(ts string, loc *time.Location) string {
	if ts == "" {
		return ""
	}
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return rocdate.FormatDateTime(t, loc)
	}
	if d, err := rocdate.ParseGregorian(ts); err == nil {
		return d.String()
	}
	return ""
}
