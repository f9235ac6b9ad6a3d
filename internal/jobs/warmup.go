package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Checker-Finance/moa-adapter/internal/retrieval"
	"github.com/Checker-Finance/moa-adapter/pkg/model"
	"github.com/Checker-Finance/moa-adapter/pkg/rocdate"
)

// Retriever is the subset of the retrieval policy used by the warm-up job.
type Retriever interface {
	Retrieve(ctx context.Context, req retrieval.Request) (model.RetrievalResult, error)
}

// WarmUp fetches today's prices for both categories once a day (or on a fixed
// interval) so the first user request is served from a fresh snapshot.
type WarmUp struct {
	logger    *zap.Logger
	retriever Retriever
	clock     rocdate.Clock
	at        time.Time     // time of day; only hour and minute are used
	interval  time.Duration // when > 0, overrides the daily schedule
	stopCh    chan struct{}
}

// NewWarmUp constructs the job. at is a time-of-day as returned by config.GetEnvTime.
func NewWarmUp(logger *zap.Logger, r Retriever, clock rocdate.Clock, at time.Time, interval time.Duration) *WarmUp {
	return &WarmUp{
		logger:    logger,
		retriever: r,
		clock:     clock,
		at:        at,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start runs the warm-up loop until ctx is done or Stop is called.
func (w *WarmUp) Start(ctx context.Context) {
	w.logger.Info("warmup.started",
		zap.String("at", w.at.Format("15:04")),
		zap.Duration("interval", w.interval))

	for {
		wait := w.interval
		if wait <= 0 {
			wait = NextRun(w.clock.Now(), w.at).Sub(w.clock.Now())
		}
		timer := time.NewTimer(wait)

		select {
		case <-timer.C:
			w.RunOnce(ctx)
		case <-w.stopCh:
			timer.Stop()
			w.logger.Info("warmup.stopped (manual stop)")
			return
		case <-ctx.Done():
			timer.Stop()
			w.logger.Info("warmup.stopped (context canceled)")
			return
		}
	}
}

// Stop gracefully halts the job.
func (w *WarmUp) Stop() {
	close(w.stopCh)
}

// RunOnce retrieves today's data for both categories. Mondays are skipped.
func (w *WarmUp) RunOnce(ctx context.Context) (model.RetrievalResult, bool) {
	today := w.clock.Today()
	if rocdate.IsFixedNonTradingDay(today) {
		w.logger.Debug("warmup.skipped_non_trading_day", zap.String("date", today.String()))
		return model.RetrievalResult{}, false
	}

	start := time.Now()
	res, err := w.retriever.Retrieve(ctx, retrieval.Request{Date: today.String(), Category: model.CategoryAll})
	if err != nil {
		w.logger.Error("warmup.failed", zap.String("date", today.String()), zap.Error(err))
		return model.RetrievalResult{}, false
	}

	w.logger.Info("warmup.completed",
		zap.String("date", today.String()),
		zap.String("status", string(res.Status)),
		zap.Int("rows", len(res.Rows)),
		zap.Duration("duration", time.Since(start)))
	return res, true
}

// NextRun returns the first instant strictly after now whose wall clock (in
// now's location) is at's hour and minute.
func NextRun(now, at time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
