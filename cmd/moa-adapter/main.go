package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Checker-Finance/moa-adapter/internal/api"
	"github.com/Checker-Finance/moa-adapter/internal/archive"
	"github.com/Checker-Finance/moa-adapter/internal/catalog"
	"github.com/Checker-Finance/moa-adapter/internal/config"
	"github.com/Checker-Finance/moa-adapter/internal/jobs"
	"github.com/Checker-Finance/moa-adapter/internal/migrate"
	"github.com/Checker-Finance/moa-adapter/internal/moa"
	"github.com/Checker-Finance/moa-adapter/internal/publisher"
	"github.com/Checker-Finance/moa-adapter/internal/rate"
	"github.com/Checker-Finance/moa-adapter/internal/retrieval"
	internalsecrets "github.com/Checker-Finance/moa-adapter/internal/secrets"
	"github.com/Checker-Finance/moa-adapter/internal/store"
	"github.com/Checker-Finance/moa-adapter/pkg/logger"
	"github.com/Checker-Finance/moa-adapter/pkg/rocdate"
	"github.com/Checker-Finance/moa-adapter/pkg/secrets"
	"github.com/Checker-Finance/moa-adapter/pkg/utils"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Load configuration ---
	cfg := config.Load()

	logger.Init(cfg.ServiceName, cfg.Env, cfg.LogLevel)
	logg := logger.S()
	logg.Infof("starting [%s]...", cfg.ServiceName)

	// --- Optional secret overrides (DATABASE_URL, REDIS_PASS, NATS_URL) ---
	if cfg.AWSSecretName != "" {
		provider, err := secrets.NewAWSProvider(ctx, cfg.AWSRegion)
		if err != nil {
			logg.Fatalw("failed to create AWS Secrets Manager provider", "error", err)
		}
		resolver := internalsecrets.NewResolver(logg.Desugar(), provider, secrets.NewCache[internalsecrets.Overrides](cfg.SecretTTL))
		overrides, err := resolver.Resolve(ctx, cfg.AWSSecretName, internalsecrets.ParseOverrides)
		if err != nil {
			logg.Warnw("secret overrides unavailable; using environment", "secret", cfg.AWSSecretName, "error", err)
		} else {
			overrides.Apply(cfg, logg.Desugar())
		}
	}

	clock := rocdate.NewSystemClock(cfg.MOATimezone)

	// --- Snapshot store ---
	st, closeStore, err := store.Open(ctx, store.Options{
		Backend:    cfg.SnapshotBackend,
		DataDir:    cfg.DataDir,
		SQLitePath: cfg.SQLitePath,
		RedisAddr:  cfg.RedisAddr,
		RedisPass:  cfg.RedisPass,
		RedisDB:    cfg.RedisDB,
	}, logg.Desugar())
	if err != nil {
		logg.Fatalw("failed to init store", "backend", cfg.SnapshotBackend, "error", err)
	}

	// --- Product catalog ---
	merger, err := catalog.NewMerger(cfg.DataDir, logg.Desugar())
	if err != nil {
		logg.Fatalw("failed to init catalog", "error", err)
	}

	// --- Optional Postgres archive ---
	var archiver *archive.Writer
	if cfg.DatabaseURL != "" {
		logg.Info("connection to DSN: ", utils.MaskDSN(cfg.DatabaseURL))
		pool, err := archive.NewPool(ctx, cfg.DatabaseURL, archive.PGPoolConfig{
			MaxConns:          int32(cfg.PGMaxConns),
			MinConns:          int32(cfg.PGMinConns),
			MaxConnLifetime:   cfg.PGMaxConnLifetime,
			MaxConnIdleTime:   cfg.PGMaxConnIdleTime,
			HealthCheckPeriod: cfg.PGHealthCheckPeriod,
		})
		if err != nil {
			logg.Fatalw("failed to connect archive", "error", err)
		}
		archiver = archive.NewWriter(pool, logg.Desugar())
		if err := archiver.EnsureSchema(ctx); err != nil {
			logg.Fatalw("failed to ensure archive schema", "error", err)
		}
	}

	// --- Optional NATS publisher ---
	var (
		nc  *nats.Conn
		pub *publisher.Publisher
	)
	if cfg.NATSURL != "" {
		nc, err = nats.Connect(cfg.NATSURL)
		if err != nil {
			logg.Fatalw("failed to connect to NATS", "error", err)
		}
		pub, err = publisher.New(nc, cfg.ServiceName, logg.Desugar())
		if err != nil {
			logg.Fatalw("failed to init publisher", "error", err)
		}
	}

	// --- Rate limiter ---
	rateMgr := rate.NewManager(rate.Config{
		RequestsPerSecond: cfg.MOARatePerSecond,
		Burst:             cfg.MOARateBurst,
	})

	// --- MOA HTTP client ---
	moaClient, err := moa.NewClient(logg.Desugar(), rateMgr,
		&http.Client{Timeout: cfg.MOAHTTPTimeout},
		moa.Config{BaseURL: cfg.MOABaseURL, MarketName: cfg.MOAMarketName})
	if err != nil {
		logg.Fatalw("failed to init moa client", "error", err)
	}

	// --- Retrieval policy ---
	opts := retrieval.DefaultOptions()
	opts.SampleSize = cfg.ZeroSampleSize
	opts.WriteTimeout = cfg.WriteTimeout
	if th, err := decimal.NewFromString(cfg.ZeroThreshold); err == nil {
		opts.ZeroThreshold = th
	} else {
		logg.Warnw("invalid MOA_ZERO_THRESHOLD; using 0", "value", cfg.ZeroThreshold)
	}
	policy := retrieval.New(logg.Desugar(), st, moaClient, clock, opts)
	registerHooks(policy, merger, archiver, pub, logg.Desugar())

	// --- Warm-up job ---
	var warmUp *jobs.WarmUp
	if cfg.WarmUpEnabled {
		warmUp = jobs.NewWarmUp(logg.Desugar(), policy, clock, cfg.WarmUpAt, cfg.WarmUpInterval)
		go warmUp.Start(ctx)
	}

	// --- Fiber HTTP Server ---
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
		BodyLimit:    cfg.HTTPBodyLimit,
	})

	handler := api.NewHandler(logg.Desugar(), policy, merger, migrate.New(cfg.DataDir, logg.Desugar()), clock.Location())
	api.RegisterRoutes(app, handler, healthChecks(st, archiver, nc)...)

	go func() {
		logg.Infof("HTTP API listening on :%d", cfg.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Port)); err != nil {
			logg.Fatalw("fiber.listen_failed", "error", err)
		}
	}()

	logg.Infow(fmt.Sprintf("[%s] running", cfg.ServiceName),
		"env", cfg.Env,
		"backend", cfg.SnapshotBackend,
		"data_dir", cfg.DataDir,
		"archive", archiver.Enabled(),
		"nats", cfg.NATSURL != "",
		"warmup", cfg.WarmUpEnabled)

	<-ctx.Done()
	logg.Infof("shutting down [%s]...", cfg.ServiceName)

	if warmUp != nil {
		warmUp.Stop()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logg.Warnw("fiber.shutdown_failed", "error", err)
	}

	// pending snapshot writes and their hooks still need the store, archive and NATS
	policy.Wait()

	if pub != nil {
		if err := pub.Close(); err != nil {
			logg.Warnw("nats.drain_failed", "error", err)
		}
	}
	archiver.Close()
	if err := closeStore(); err != nil {
		logg.Warnw("store.close_failed", "error", err)
	}
	logger.Sync()
}

// registerHooks wires the post-commit side effects in order: archive, event,
// catalog merge.
func registerHooks(policy *retrieval.Policy, merger *catalog.Merger, archiver *archive.Writer, pub *publisher.Publisher, log *zap.Logger) {
	if archiver.Enabled() {
		policy.OnCommit("archive", func(ctx context.Context, c retrieval.Commit) error {
			return archiver.Record(ctx, c.Category, c.Snapshot)
		})
	}
	if pub != nil {
		policy.OnCommit("publish", func(ctx context.Context, c retrieval.Commit) error {
			return pub.PublishSnapshotCommitted(ctx, c.Category, c.Snapshot)
		})
	}
	policy.OnCommit("catalog", func(ctx context.Context, c retrieval.Commit) error {
		date := c.RequestedDate.String()
		changed, err := merger.Merge(ctx, c.Category, c.Snapshot.Rows, date)
		if err != nil || !changed || pub == nil {
			return err
		}
		if err := pub.PublishCatalogUpdated(ctx, c.Category, date, len(merger.Load(c.Category).Data)); err != nil {
			log.Warn("catalog.event_failed", zap.String("category", string(c.Category)), zap.Error(err))
		}
		return nil
	})
}

func healthChecks(st store.Store, archiver *archive.Writer, nc *nats.Conn) []api.HealthCheck {
	var checks []api.HealthCheck
	if hc, ok := st.(store.HealthChecker); ok {
		checks = append(checks, api.HealthCheck{Name: "store", Check: hc.HealthCheck})
	}
	if archiver.Enabled() {
		checks = append(checks, api.HealthCheck{Name: "archive", Check: archiver.HealthCheck})
	}
	if nc != nil {
		checks = append(checks, api.HealthCheck{Name: "nats", Check: func(context.Context) error {
			if !nc.IsConnected() {
				return fmt.Errorf("disconnected")
			}
			return nc.FlushTimeout(1 * time.Second)
		}})
	}
	return checks
}
