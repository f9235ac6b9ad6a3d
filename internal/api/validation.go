package api

import (
	"fmt"
	"strings"

	"github.com/Checker-Finance/moa-adapter/internal/retrieval"
	"github.com/Checker-Finance/moa-adapter/pkg/model"
	"github.com/Checker-Finance/moa-adapter/pkg/rocdate"
)

const defaultScrapeType = model.CategoryVegetable

func (r ScrapeRequest) Validate() error {
	date := strings.TrimSpace(r.Date)
	if date == "" && !r.UseCache {
		return fmt.Errorf("date is required")
	}
	if date != "" {
		if _, err := rocdate.Parse(date); err != nil {
			return fmt.Errorf("date must be YYY/MM/DD")
		}
	}
	if strings.TrimSpace(r.Type) != "" {
		if _, err := model.ParseCategory(r.Type); err != nil {
			return fmt.Errorf("type must be 'Vegetable', 'Fruit' or 'all'")
		}
	}
	return nil
}

// toRetrievalRequest assumes Validate has passed.
func (r ScrapeRequest) toRetrievalRequest() retrieval.Request {
	cat := defaultScrapeType
	if strings.TrimSpace(r.Type) != "" {
		cat, _ = model.ParseCategory(r.Type)
	}
	return retrieval.Request{
		Date:       strings.TrimSpace(r.Date),
		Category:   cat,
		ForceCache: r.UseCache,
	}
}

func (r ProductsUpdateRequest) Validate() error {
	if strings.TrimSpace(r.Date) == "" {
		return fmt.Errorf("date is required")
	}
	if r.Data == nil {
		return fmt.Errorf("data must be an array")
	}
	return nil
}
