package moa

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Checker-Finance/moa-adapter/pkg/model"
	"github.com/Checker-Finance/moa-adapter/pkg/rocdate"
)

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(zap.NewNop(), nil, srv.Client(), Config{BaseURL: srv.URL + "/", MarketName: "台北一"})
	require.NoError(t, err)
	return c
}

func TestFetch_BuildsQueryAndDecodes(t *testing.T) {
	var gotPath, gotStart, gotEnd, gotMarket string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotStart = r.URL.Query().Get("StartDate")
		gotEnd = r.URL.Query().Get("EndDate")
		gotMarket = r.URL.Query().Get("MarketName")
		_, _ = w.Write([]byte(`[{"種類代碼":"N04","作物代號":"LA1","作物名稱":"甘藍","平均價":20.3,"上價":30,"中價":21,"下價":12,"交易量":100}]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	recs, err := c.Fetch(context.Background(), rocdate.MustParse("114/12/03"))
	require.NoError(t, err)

	assert.Equal(t, FarmTransPath, gotPath)
	assert.Equal(t, "114.12.03", gotStart)
	assert.Equal(t, "114.12.03", gotEnd)
	assert.Equal(t, "台北一", gotMarket)
	require.Len(t, recs, 1)
	assert.Equal(t, "LA1", recs[0].CropCode)
}

func TestFetchRows_Partitions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"種類代碼":"N04","作物代號":"LA1","作物名稱":"甘藍","平均價":20.3},
			{"種類代碼":"N05","作物代號":"A1","作物名稱":"香蕉","平均價":40}
		]`))
	}))
	defer srv.Close()

	rows, err := newTestClient(t, srv).FetchRows(context.Background(), rocdate.MustParse("114/12/03"))
	require.NoError(t, err)
	assert.Len(t, rows[model.CategoryVegetable], 1)
	assert.Len(t, rows[model.CategoryFruit], 1)
}

func TestFetch_ServerErrorIsSingleAttempt(t *testing.T) {
	var count atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		count.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).Fetch(context.Background(), rocdate.MustParse("114/12/03"))
	require.Error(t, err)
	assert.EqualValues(t, 1, count.Load())
}

func TestFetch_MalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).Fetch(context.Background(), rocdate.MustParse("114/12/03"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode failed")
}

func TestFetch_EmptyBodyIsEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	recs, err := newTestClient(t, srv).Fetch(context.Background(), rocdate.MustParse("114/12/03"))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestNewClient_Validates(t *testing.T) {
	_, err := NewClient(zap.NewNop(), nil, nil, Config{BaseURL: "", MarketName: "台北一"})
	assert.Error(t, err)

	_, err = NewClient(zap.NewNop(), nil, nil, Config{BaseURL: "https://data.moa.gov.tw"})
	assert.Error(t, err)
}
