package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Checker-Finance/moa-adapter/internal/retrieval"
	"github.com/Checker-Finance/moa-adapter/pkg/model"
)

func TestScrapeRequest_Validate(t *testing.T) {
	assert.NoError(t, ScrapeRequest{Date: "114/12/09", Type: "all"}.Validate())
	assert.NoError(t, ScrapeRequest{UseCache: true}.Validate())
	assert.NoError(t, ScrapeRequest{Date: " 114/12/09 "}.Validate())
	assert.EqualError(t, ScrapeRequest{Type: "Fruit"}.Validate(), "date is required")
	assert.EqualError(t, ScrapeRequest{Date: "114/13/01"}.Validate(), "date must be YYY/MM/DD")
	assert.Error(t, ScrapeRequest{Date: "114/12/09", Type: "nuts"}.Validate())
}

func TestScrapeRequest_ToRetrievalRequest(t *testing.T) {
	assert.Equal(t,
		retrieval.Request{Date: "114/12/09", Category: model.CategoryAll},
		ScrapeRequest{Date: " 114/12/09", Type: "ALL"}.toRetrievalRequest())
	assert.Equal(t,
		retrieval.Request{Category: model.CategoryVegetable, ForceCache: true},
		ScrapeRequest{UseCache: true}.toRetrievalRequest())
}

func TestProductsUpdateRequest_Validate(t *testing.T) {
	assert.NoError(t, ProductsUpdateRequest{Date: "114/12/09", Data: []model.MarketRow{}}.Validate())
	assert.EqualError(t, ProductsUpdateRequest{Data: []model.MarketRow{}}.Validate(), "date is required")
	assert.EqualError(t, ProductsUpdateRequest{Date: "114/12/09"}.Validate(), "data must be an array")
}

func TestDisplayTimestamp(t *testing.T) {
	loc := time.FixedZone("CST", 8*60*60)
	assert.Equal(t, "114/12/08 11:15:42", displayTimestamp("2025-12-08T03:15:42.123Z", loc))
	assert.Equal(t, "114/12/08 00:30:05", displayTimestamp("2025-12-07T16:30:05Z", loc))
	assert.Equal(t, "113/05/01", displayTimestamp("2024-05-01", loc))
	assert.Equal(t, "", displayTimestamp("", loc))
	assert.Equal(t, "", displayTimestamp("yesterday", loc))
}
