package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Checker-Finance/moa-adapter/internal/retrieval"
	"github.com/Checker-Finance/moa-adapter/pkg/model"
	"github.com/Checker-Finance/moa-adapter/pkg/rocdate"
)

type mockRetriever struct {
	calls atomic.Int32
	last  atomic.Value
	err   error
}

func (m *mockRetriever) Retrieve(_ context.Context, req retrieval.Request) (model.RetrievalResult, error) {
	m.calls.Add(1)
	m.last.Store(req)
	if m.err != nil {
		return model.RetrievalResult{}, m.err
	}
	return model.RetrievalResult{Status: model.StatusFresh, TradingDate: req.Date, Category: req.Category}, nil
}

var cst = time.FixedZone("CST", 8*60*60)

func clockAt(y int, m time.Month, d, hh, mm int) rocdate.FixedClock {
	return rocdate.FixedClock{T: time.Date(y, m, d, hh, mm, 0, 0, cst)}
}

func TestRunOnce_RequestsTodayForBoth(t *testing.T) {
	r := &mockRetriever{}
	w := NewWarmUp(zap.NewNop(), r, clockAt(2025, time.December, 9, 14, 0), time.Time{}, 0)

	res, ok := w.RunOnce(context.Background())
	require.True(t, ok)
	assert.Equal(t, model.StatusFresh, res.Status)

	req := r.last.Load().(retrieval.Request)
	assert.Equal(t, "114/12/09", req.Date)
	assert.Equal(t, model.CategoryAll, req.Category)
	assert.False(t, req.ForceCache)
}

func TestRunOnce_SkipsMonday(t *testing.T) {
	r := &mockRetriever{}
	w := NewWarmUp(zap.NewNop(), r, clockAt(2025, time.December, 8, 14, 0), time.Time{}, 0)

	_, ok := w.RunOnce(context.Background())
	assert.False(t, ok)
	assert.EqualValues(t, 0, r.calls.Load())
}

func TestRunOnce_Error(t *testing.T) {
	r := &mockRetriever{err: errors.New("boom")}
	w := NewWarmUp(zap.NewNop(), r, clockAt(2025, time.December, 9, 14, 0), time.Time{}, 0)

	_, ok := w.RunOnce(context.Background())
	assert.False(t, ok)
}

func TestNextRun(t *testing.T) {
	at, _ := time.Parse("15:04", "15:30")

	now := time.Date(2025, time.December, 9, 10, 0, 0, 0, cst)
	assert.Equal(t, time.Date(2025, time.December, 9, 15, 30, 0, 0, cst), NextRun(now, at))

	now = time.Date(2025, time.December, 9, 15, 30, 0, 0, cst)
	assert.Equal(t, time.Date(2025, time.December, 10, 15, 30, 0, 0, cst), NextRun(now, at))

	now = time.Date(2025, time.December, 31, 23, 0, 0, 0, cst)
	assert.Equal(t, time.Date(2026, time.January, 1, 15, 30, 0, 0, cst), NextRun(now, at))
}

func TestStart_IntervalAndStop(t *testing.T) {
	r := &mockRetriever{}
	w := NewWarmUp(zap.NewNop(), r, clockAt(2025, time.December, 9, 14, 0), time.Time{}, 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		w.Start(context.Background())
		close(done)
	}()

	require.Eventually(t, func() bool { return r.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	w.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("warm-up did not stop")
	}
}

func TestStart_ContextCancel(t *testing.T) {
	r := &mockRetriever{}
	w := NewWarmUp(zap.NewNop(), r, clockAt(2025, time.December, 9, 14, 0), time.Time{}, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("warm-up did not stop on cancel")
	}
	assert.EqualValues(t, 0, r.calls.Load())
}
