package retrieval

import (
	"fmt"
	"strings"

	"github.com/Checker-Finance/moa-adapter/pkg/model"
	"github.com/Checker-Finance/moa-adapter/pkg/rocdate"
)

// cause records why a category was not served fresh.
type cause int

const (
	causeNone      cause = iota
	causeForced          // caller asked for cached data
	causeScheduled       // fixed weekly closure, upstream not consulted
	causeTransport       // upstream unreachable, bad status or malformed payload
	causeClosed          // upstream answered with no usable rows
)

// branch is the outcome for a single category.
type branch struct {
	category model.Category
	fresh    bool
	rows     []model.MarketRow // fresh rows
	stamp    string            // provenance of fresh rows
	cause    cause
	backup   *model.Snapshot
}

func (b branch) served() []model.MarketRow {
	if b.fresh {
		return b.rows
	}
	if b.backup != nil {
		return b.backup.Rows
	}
	return nil
}

func (b branch) status() model.Status {
	switch {
	case b.fresh:
		return model.StatusFresh
	case b.backup != nil:
		return model.StatusCached
	}
	return model.StatusUnavailable
}

// assemble folds per-category branches into one result. For a single category
// this is that category's outcome; for the combined request the status is fresh
// only when every category is fresh, and unavailable only when none has rows.
func assemble(req Request, day rocdate.Date, branches []branch) model.RetrievalResult {
	requested := ""
	if !day.IsZero() {
		requested = day.String()
	}

	res := model.RetrievalResult{
		Category: req.Category,
		Rows:     []model.MarketRow{},
	}

	var (
		allFresh   = true
		anyFresh   = false
		anyClosed  = false
		latestDate string
		backupDate string
		notes      []string
	)
	for _, b := range branches {
		res.Rows = append(res.Rows, b.served()...)

		if b.fresh {
			anyFresh = true
			res.ProvenanceTimestamp = laterString(res.ProvenanceTimestamp, b.stamp)
			continue
		}
		allFresh = false
		if b.cause == causeClosed || b.cause == causeScheduled {
			anyClosed = true
		}
		if b.backup == nil {
			continue
		}

		res.ProvenanceTimestamp = laterString(res.ProvenanceTimestamp, b.backup.RetrievedAt)
		latestDate = laterTradingDate(latestDate, b.backup.TradingDate)
		if b.backup.TradingDate != requested {
			backupDate = laterTradingDate(backupDate, b.backup.TradingDate)
		}
		note := backupNote(b.cause, requested, b.backup.TradingDate)
		if len(branches) > 1 {
			note = string(b.category) + ": " + note
		}
		notes = append(notes, note)
	}

	switch {
	case len(res.Rows) == 0:
		res.Status = model.StatusUnavailable
		res.TradingDate = requested
		res.Note = unavailableNote(branches)
		res.ProvenanceTimestamp = ""
		res.IsNonTradingDay = anyClosed
		return res

	case allFresh:
		res.Status = model.StatusFresh
		res.TradingDate = requested
		return res
	}

	res.Status = model.StatusCached
	if anyFresh {
		res.TradingDate = requested
	} else {
		res.TradingDate = latestDate
	}
	if requested != "" {
		res.BackupDate = backupDate
	}
	res.IsNonTradingDay = !anyFresh && anyClosed
	res.Note = strings.Join(notes, " ")
	return res
}

func backupNote(c cause, requested, backupDate string) string {
	exact := requested != "" && backupDate == requested

	switch c {
	case causeForced:
		return fmt.Sprintf("Loaded local backup from %s.", backupDate)
	case causeScheduled:
		return fmt.Sprintf("Market is closed on Mondays. Loaded latest backup from %s.", backupDate)
	case causeClosed:
		if exact {
			return fmt.Sprintf("No market data for %s (market closed). Loaded local backup for this date.", requested)
		}
		return fmt.Sprintf("No market data for %s (market closed). Loaded latest backup from %s.", requested, backupDate)
	}
	if exact {
		return "Fetching failed. Loaded local backup for this date."
	}
	return fmt.Sprintf("Fetching failed and no backup for %s. Loaded latest backup from %s.", requested, backupDate)
}

// unavailableNote explains a result with no rows. A transport failure on any
// category takes precedence over closure, since closure was never confirmed.
func unavailableNote(branches []branch) string {
	c := causeNone
	for _, b := range branches {
		if b.cause > c {
			c = b.cause
		}
		if b.cause == causeTransport {
			c = causeTransport
			break
		}
	}
	switch c {
	case causeTransport:
		return "Fetching failed and no backup available."
	case causeClosed:
		return "Market closed and no backup data available."
	case causeScheduled:
		return "Market is closed on Mondays and no backup data is available."
	}
	return "No cached data available."
}

// laterString is the deterministic tie-break for provenance timestamps: the
// lexicographically greater (i.e. more recent) string wins.
func laterString(a, b string) string {
	if b > a {
		return b
	}
	return a
}

// laterTradingDate returns the more recent of two ROC trading dates. Unparseable
// values (e.g. "Unknown") lose against any valid date.
func laterTradingDate(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	da, errA := rocdate.Parse(a)
	db, errB := rocdate.Parse(b)
	switch {
	case errA != nil && errB != nil:
		return laterString(a, b)
	case errA != nil:
		return b
	case errB != nil:
		return a
	}
	if da.Before(db) {
		return b
	}
	return a
}
