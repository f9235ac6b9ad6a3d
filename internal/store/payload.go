package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Checker-Finance/moa-adapter/pkg/model"
)

var errMalformed = errors.New("malformed snapshot payload")

// Payload is a decoded snapshot document. It is either a LegacyArray (rows
// written before trading dates were recorded) or a Versioned document.
type Payload interface {
	// Snapshot resolves the payload into the canonical form. fallbackRetrievedAt
	// is used when the payload carries no provenance timestamp.
	Snapshot(fallbackRetrievedAt string) model.Snapshot
}

// LegacyArray is a bare JSON array of rows.
type LegacyArray []model.MarketRow

func (p LegacyArray) Snapshot(fallbackRetrievedAt string) model.Snapshot {
	return model.Snapshot{
		TradingDate: model.UnknownTradingDate,
		RetrievedAt: fallbackRetrievedAt,
		Rows:        []model.MarketRow(p),
	}
}

// Versioned is the {date, scrapedAt, data} document.
type Versioned model.Snapshot

func (p Versioned) Snapshot(fallbackRetrievedAt string) model.Snapshot {
	s := model.Snapshot(p)
	if s.RetrievedAt == "" {
		s.RetrievedAt = fallbackRetrievedAt
	}
	if s.Rows == nil {
		s.Rows = []model.MarketRow{}
	}
	return s
}

// DecodePayload sniffs the document shape once and returns the matching Payload.
// An object must carry both a non-empty date and a data array.
func DecodePayload(data []byte) (Payload, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errMalformed
	}

	switch data[0] {
	case '[':
		var rows []model.MarketRow
		if err := json.Unmarshal(data, &rows); err != nil {
			return nil, fmt.Errorf("%w: %v", errMalformed, err)
		}
		return LegacyArray(rows), nil

	case '{':
		var doc struct {
			Date      string             `json:"date"`
			ScrapedAt string             `json:"scrapedAt"`
			Data      *[]model.MarketRow `json:"data"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", errMalformed, err)
		}
		if doc.Date == "" || doc.Data == nil {
			return nil, fmt.Errorf("%w: missing date or data", errMalformed)
		}
		return Versioned{TradingDate: doc.Date, RetrievedAt: doc.ScrapedAt, Rows: *doc.Data}, nil
	}
	return nil, errMalformed
}

// EncodeSnapshot serialises snap in the versioned layout.
func EncodeSnapshot(snap model.Snapshot) ([]byte, error) {
	if snap.Rows == nil {
		snap.Rows = []model.MarketRow{}
	}
	return json.MarshalIndent(snap, "", "  ")
}
