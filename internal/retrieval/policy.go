// Package retrieval decides, per request, whether to serve freshly fetched
// market prices, a cached snapshot, or report that no data is available.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Checker-Finance/moa-adapter/internal/metrics"
	"github.com/Checker-Finance/moa-adapter/internal/store"
	"github.com/Checker-Finance/moa-adapter/pkg/model"
	"github.com/Checker-Finance/moa-adapter/pkg/rocdate"
)

var (
	ErrInvalidCategory = errors.New("invalid category")
	ErrMissingDate     = errors.New("date is required")
)

// Upstream fetches one trading day, already partitioned by category.
type Upstream interface {
	FetchRows(ctx context.Context, day rocdate.Date) (map[model.Category][]model.MarketRow, error)
}

// Request is one retrieval. Date is a ROC "YYY/MM/DD" string and may be empty
// only when ForceCache is set.
type Request struct {
	Date       string
	Category   model.Category
	ForceCache bool
}

// Options tunes the freshness gate and background writes.
type Options struct {
	// SampleSize is how many leading rows are inspected for placeholder zero prices.
	SampleSize int
	// ZeroThreshold: a row whose |averagePrice| <= ZeroThreshold counts as zero.
	ZeroThreshold decimal.Decimal
	// WriteTimeout bounds each background snapshot write and its hooks.
	WriteTimeout time.Duration
}

// DefaultOptions returns the gate used by the market: 5 rows, exact zero.
func DefaultOptions() Options {
	return Options{
		SampleSize:    5,
		ZeroThreshold: decimal.Zero,
		WriteTimeout:  30 * time.Second,
	}
}

// Commit describes a snapshot that was durably saved after a fresh fetch.
type Commit struct {
	Category      model.Category
	RequestedDate rocdate.Date
	Snapshot      model.Snapshot
}

// CommitHook runs after a snapshot is saved. Errors are logged and counted only.
type CommitHook func(ctx context.Context, c Commit) error

type namedHook struct {
	name string
	fn   CommitHook
}

// Policy is the retrieval state machine.
type Policy struct {
	logger   *zap.Logger
	store    store.Store
	upstream Upstream
	clock    rocdate.Clock
	opts     Options

	hookMu sync.RWMutex
	hooks  []namedHook

	writes sync.WaitGroup
}

// New constructs a Policy. Zero-valued options fall back to DefaultOptions.
func New(logger *zap.Logger, st store.Store, upstream Upstream, clock rocdate.Clock, opts Options) *Policy {
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultOptions()
	if opts.SampleSize <= 0 {
		opts.SampleSize = def.SampleSize
	}
	if opts.ZeroThreshold.IsNegative() {
		opts.ZeroThreshold = def.ZeroThreshold
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = def.WriteTimeout
	}
	return &Policy{
		logger:   logger,
		store:    st,
		upstream: upstream,
		clock:    clock,
		opts:     opts,
	}
}

// OnCommit registers a hook run, in registration order, after each successful snapshot save.
func (p *Policy) OnCommit(name string, fn CommitHook) {
	p.hookMu.Lock()
	defer p.hookMu.Unlock()
	p.hooks = append(p.hooks, namedHook{name: name, fn: fn})
}

// Wait blocks until all background snapshot writes (and their hooks) have finished.
func (p *Policy) Wait() {
	p.writes.Wait()
}

// Retrieve runs the policy for req. The returned error is non-nil only for an
// invalid request; every other outcome is expressed in the result's Status.
func (p *Policy) Retrieve(ctx context.Context, req Request) (model.RetrievalResult, error) {
	if req.Category != model.CategoryAll && req.Category.UpstreamCode() == "" {
		return model.RetrievalResult{}, fmt.Errorf("%w: %q", ErrInvalidCategory, req.Category)
	}

	var day rocdate.Date
	switch {
	case req.Date != "":
		d, err := rocdate.Parse(req.Date)
		if err != nil {
			return model.RetrievalResult{}, err
		}
		day = d
	case !req.ForceCache:
		return model.RetrievalResult{}, ErrMissingDate
	}

	if req.ForceCache {
		return p.cacheOnly(ctx, req, day, causeForced), nil
	}
	if rocdate.IsFixedNonTradingDay(day) {
		p.logger.Info("retrieval.scheduled_closure",
			zap.String("date", day.String()),
			zap.String("category", string(req.Category)))
		return p.cacheOnly(ctx, req, day, causeScheduled), nil
	}
	return p.fetch(ctx, req, day), nil
}

// cacheOnly serves snapshots without consulting upstream.
func (p *Policy) cacheOnly(ctx context.Context, req Request, day rocdate.Date, c cause) model.RetrievalResult {
	cats := req.Category.Expand()
	snaps := p.loadAll(ctx, cats)

	branches := make([]branch, len(cats))
	for i, cat := range cats {
		branches[i] = branch{category: cat, cause: c, backup: snaps[i]}
		p.observe(branches[i], "cache_only")
	}
	return assemble(req, day, branches)
}

// fetch performs the single upstream call, gates each category and falls back where needed.
func (p *Policy) fetch(ctx context.Context, req Request, day rocdate.Date) model.RetrievalResult {
	cats := req.Category.Expand()
	branches := make([]branch, len(cats))

	fetched, err := p.upstream.FetchRows(ctx, day)
	if err != nil {
		p.logger.Warn("retrieval.upstream_failed",
			zap.String("date", day.String()),
			zap.String("category", string(req.Category)),
			zap.Error(err))
	}

	stamp := p.provenance(day)
	var pending []int
	for i, cat := range cats {
		branches[i].category = cat
		if err != nil {
			branches[i].cause = causeTransport
			pending = append(pending, i)
			continue
		}

		rows := tagRows(fetched[cat], cat)
		if !p.usable(rows) {
			p.logger.Info("retrieval.placeholder_data",
				zap.String("date", day.String()),
				zap.String("category", string(cat)),
				zap.Int("rows", len(rows)))
			branches[i].cause = causeClosed
			pending = append(pending, i)
			continue
		}

		branches[i].fresh = true
		branches[i].rows = rows
		branches[i].stamp = stamp
		p.commit(day, cat, model.Snapshot{TradingDate: day.String(), RetrievedAt: stamp, Rows: rows})
		p.observe(branches[i], "fresh")
	}

	if len(pending) > 0 {
		pendingCats := make([]model.Category, len(pending))
		for j, i := range pending {
			pendingCats[j] = cats[i]
		}
		snaps := p.loadAll(ctx, pendingCats)
		for j, i := range pending {
			branches[i].backup = snaps[j]
			p.observe(branches[i], "fallback")
		}
	}

	return assemble(req, day, branches)
}

// usable is the freshness gate: a result is rejected when it is empty or when
// every sampled leading row has a zero average price.
func (p *Policy) usable(rows []model.MarketRow) bool {
	if len(rows) == 0 {
		return false
	}
	n := min(p.opts.SampleSize, len(rows))
	for _, r := range rows[:n] {
		if !p.isZero(r.AveragePrice) {
			return true
		}
	}
	return false
}

func (p *Policy) isZero(price string) bool {
	d, err := decimal.NewFromString(price)
	if err != nil {
		return false
	}
	return d.Abs().LessThanOrEqual(p.opts.ZeroThreshold)
}

// provenance stamps same-day fetches with the full current time and backfills
// with the Gregorian date they pertain to.
func (p *Policy) provenance(day rocdate.Date) string {
	if day == p.clock.Today() {
		return p.clock.Now().UTC().Format(model.TimestampLayout)
	}
	return day.GregorianString()
}

// commit saves snap in the background and then runs the commit hooks.
func (p *Policy) commit(day rocdate.Date, cat model.Category, snap model.Snapshot) {
	p.hookMu.RLock()
	hooks := append([]namedHook(nil), p.hooks...)
	p.hookMu.RUnlock()

	p.writes.Add(1)
	go func() {
		defer p.writes.Done()
		ctx, cancel := context.WithTimeout(context.Background(), p.opts.WriteTimeout)
		defer cancel()

		if err := p.store.Save(ctx, cat, snap); err != nil {
			metrics.IncSnapshotWrite(string(cat), "error")
			p.logger.Error("retrieval.snapshot_write_failed",
				zap.String("category", string(cat)),
				zap.String("date", snap.TradingDate),
				zap.Error(err))
			return
		}
		metrics.IncSnapshotWrite(string(cat), "ok")

		c := Commit{Category: cat, RequestedDate: day, Snapshot: snap}
		for _, h := range hooks {
			if err := h.fn(ctx, c); err != nil {
				metrics.IncHookFailure(h.name)
				p.logger.Warn("retrieval.commit_hook_failed",
					zap.String("hook", h.name),
					zap.String("category", string(cat)),
					zap.Error(err))
			}
		}
	}()
}

// loadAll loads the snapshots of cats concurrently. Missing snapshots are nil.
func (p *Policy) loadAll(ctx context.Context, cats []model.Category) []*model.Snapshot {
	out := make([]*model.Snapshot, len(cats))
	var wg sync.WaitGroup
	for i, cat := range cats {
		i, cat := i, cat
		wg.Add(1)
		go func() {
			defer wg.Done()
			snap, err := p.store.Load(ctx, cat)
			if err != nil {
				if !errors.Is(err, store.ErrNotFound) {
					p.logger.Warn("retrieval.snapshot_load_failed",
						zap.String("category", string(cat)), zap.Error(err))
				}
				return
			}
			if len(snap.Rows) == 0 {
				return
			}
			snap.Rows = tagRows(snap.Rows, cat)
			out[i] = snap
		}()
	}
	wg.Wait()
	return out
}

func (p *Policy) observe(b branch, path string) {
	metrics.IncRetrieval(string(b.category), string(b.status()), path)
}

// tagRows returns a copy of rows with Category set wherever it is missing.
func tagRows(rows []model.MarketRow, cat model.Category) []model.MarketRow {
	out := make([]model.MarketRow, len(rows))
	for i, r := range rows {
		if r.Category == "" {
			r.Category = cat
		}
		out[i] = r
	}
	return out
}
