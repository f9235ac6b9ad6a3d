// Package archive keeps a Postgres history of every committed snapshot, one
// row per product per trading day.
package archive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Checker-Finance/moa-adapter/pkg/model"
	"github.com/Checker-Finance/moa-adapter/pkg/rocdate"
)

// PGPoolConfig tunes the archive connection pool. Zero values keep pgx defaults.
type PGPoolConfig struct {
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

// NewPool connects to pgURL with the given pool settings.
func NewPool(ctx context.Context, pgURL string, pc PGPoolConfig) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(pgURL)
	if err != nil {
		return nil, fmt.Errorf("invalid pg config: %w", err)
	}
	if pc.MaxConns > 0 {
		cfg.MaxConns = pc.MaxConns
	}
	if pc.MinConns > 0 {
		cfg.MinConns = pc.MinConns
	}
	if pc.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = pc.MaxConnLifetime
	}
	if pc.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = pc.MaxConnIdleTime
	}
	if pc.HealthCheckPeriod > 0 {
		cfg.HealthCheckPeriod = pc.HealthCheckPeriod
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return pool, nil
}

const schemaDDL = `
CREATE SCHEMA IF NOT EXISTS market;
CREATE TABLE IF NOT EXISTS market.daily_price (
	trading_date       DATE        NOT NULL,
	category           TEXT        NOT NULL,
	product_code       TEXT        NOT NULL,
	product_name       TEXT        NOT NULL,
	upper_price        NUMERIC,
	middle_price       NUMERIC,
	lower_price        NUMERIC,
	average_price      NUMERIC,
	transaction_volume NUMERIC,
	retrieved_at       TEXT        NOT NULL,
	archived_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (trading_date, category, product_code)
);`

const upsertQuery = `
	INSERT INTO market.daily_price (
		trading_date,
		category,
		product_code,
		product_name,
		upper_price,
		middle_price,
		lower_price,
		average_price,
		transaction_volume,
		retrieved_at,
		archived_at
	)
	VALUES ($1, $2, $3, $4, $5::text::numeric, $6::text::numeric, $7::text::numeric, $8::text::numeric, $9::text::numeric, $10, NOW())
	ON CONFLICT (trading_date, category, product_code)
	DO UPDATE SET
		product_name = EXCLUDED.product_name,
		upper_price = EXCLUDED.upper_price,
		middle_price = EXCLUDED.middle_price,
		lower_price = EXCLUDED.lower_price,
		average_price = EXCLUDED.average_price,
		transaction_volume = EXCLUDED.transaction_volume,
		retrieved_at = EXCLUDED.retrieved_at,
		archived_at = EXCLUDED.archived_at;
`

// Writer upserts committed snapshots into market.daily_price.
// A Writer with a nil pool accepts every call and writes nothing.
type Writer struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewWriter(db *pgxpool.Pool, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{db: db, logger: logger}
}

// Enabled reports whether the writer has a database.
func (w *Writer) Enabled() bool { return w != nil && w.db != nil }

// EnsureSchema creates the archive table if it does not exist.
func (w *Writer) EnsureSchema(ctx context.Context) error {
	if !w.Enabled() {
		return nil
	}
	if _, err := w.db.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("archive schema: %w", err)
	}
	return nil
}

// Record archives snap for category in a single batch.
func (w *Writer) Record(ctx context.Context, category model.Category, snap model.Snapshot) error {
	if !w.Enabled() {
		return nil
	}
	rows, err := buildRows(category, snap)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(upsertQuery, r.args()...)
	}
	br := w.db.SendBatch(ctx, batch)
	defer func() { _ = br.Close() }()

	for range rows {
		if _, err := br.Exec(); err != nil {
			w.logger.Error("archive.upsert_failed",
				zap.String("category", string(category)),
				zap.String("date", snap.TradingDate),
				zap.Error(err))
			return fmt.Errorf("archive upsert: %w", err)
		}
	}

	w.logger.Info("archive.recorded",
		zap.String("category", string(category)),
		zap.String("date", snap.TradingDate),
		zap.Int("rows", len(rows)))
	return nil
}

// HealthCheck pings the archive database when configured.
func (w *Writer) HealthCheck(ctx context.Context) error {
	if !w.Enabled() {
		return nil
	}
	if err := w.db.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

func (w *Writer) Close() {
	if w.Enabled() {
		w.db.Close()
	}
}

type priceRow struct {
	tradingDate time.Time
	category    string
	code        string
	name        string
	upper       *string
	middle      *string
	lower       *string
	average     *string
	volume      *string
	retrievedAt string
}

func (r priceRow) args() []any {
	return []any{
		r.tradingDate, // trading_date
		r.category,    // category
		r.code,        // product_code
		r.name,        // product_name
		r.upper,       // upper_price
		r.middle,      // middle_price
		r.lower,       // lower_price
		r.average,     // average_price
		r.volume,      // transaction_volume
		r.retrievedAt, // retrieved_at
	}
}

// buildRows validates the trading date and normalises prices. Prices that are
// not decimals are stored as NULL rather than failing the batch.
func buildRows(category model.Category, snap model.Snapshot) ([]priceRow, error) {
	day, err := rocdate.Parse(snap.TradingDate)
	if err != nil {
		return nil, fmt.Errorf("archive: %w", err)
	}
	td := day.Time(time.UTC)

	out := make([]priceRow, 0, len(snap.Rows))
	for _, r := range snap.Rows {
		code := strings.TrimSpace(r.ProductCode)
		if code == "" {
			continue
		}
		out = append(out, priceRow{
			tradingDate: td,
			category:    string(category),
			code:        code,
			name:        r.ProductName,
			upper:       numeric(r.UpperPrice),
			middle:      numeric(r.MiddlePrice),
			lower:       numeric(r.LowerPrice),
			average:     numeric(r.AveragePrice),
			volume:      numeric(r.TransactionVolume),
			retrievedAt: snap.RetrievedAt,
		})
	}
	return out, nil
}

func numeric(s string) *string {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	v := d.String()
	return &v
}
