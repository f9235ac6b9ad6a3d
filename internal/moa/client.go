package moa

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Checker-Finance/moa-adapter/internal/httpclient"
	"github.com/Checker-Finance/moa-adapter/internal/rate"
	"github.com/Checker-Finance/moa-adapter/pkg/model"
	"github.com/Checker-Finance/moa-adapter/pkg/rocdate"
)

// Client performs the single outbound FarmTransData request for a trading day.
type Client struct {
	logger  *zap.Logger
	exec    *httpclient.Executor
	cfg     Config
	rateKey string
}

// NewClient constructs a MOA open-data client. Requests are never retried: a failed
// fetch is reported to the caller, which falls back to its cached snapshot.
func NewClient(logger *zap.Logger, rateMgr *rate.Manager, httpClient *http.Client, cfg Config) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("moa: invalid base url %q", cfg.BaseURL)
	}
	if cfg.MarketName == "" {
		return nil, errors.New("moa: market name is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	exec := httpclient.New(logger, rateMgr, httpClient, 0, "moa", func(status int, body []byte) error {
		logger.Warn("moa.client_error",
			zap.Int("status", status),
			zap.Int("body_len", len(body)))
		return fmt.Errorf("moa returned %d", status)
	})

	return &Client{
		logger:  logger,
		exec:    exec,
		cfg:     cfg,
		rateKey: u.Host,
	}, nil
}

// Fetch returns the raw records for one trading day.
// GET /Service/OpenData/FromM/FarmTransData.aspx?StartDate=..&EndDate=..&MarketName=..
func (c *Client) Fetch(ctx context.Context, day rocdate.Date) ([]Record, error) {
	q := url.Values{}
	q.Set("StartDate", day.UpstreamFormat())
	q.Set("EndDate", day.UpstreamFormat())
	q.Set("MarketName", c.cfg.MarketName)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+FarmTransPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	var records []Record
	if err := c.exec.DoJSON(ctx, req, c.rateKey, &records); err != nil {
		c.logger.Warn("moa.fetch_failed",
			zap.String("date", day.String()),
			zap.Error(err))
		return nil, fmt.Errorf("moa: fetch %s: %w", day, err)
	}

	c.logger.Debug("moa.fetch_ok",
		zap.String("date", day.String()),
		zap.Int("records", len(records)))
	return records, nil
}

// FetchRows fetches one trading day and partitions it into canonical rows per category.
func (c *Client) FetchRows(ctx context.Context, day rocdate.Date) (map[model.Category][]model.MarketRow, error) {
	records, err := c.Fetch(ctx, day)
	if err != nil {
		return nil, err
	}
	return Partition(records), nil
}
