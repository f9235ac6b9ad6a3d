package model

import "time"

// SnapshotCommittedEvent is emitted after a validated snapshot has been persisted.
type SnapshotCommittedEvent struct {
	ID          string    `json:"id"`
	Category    Category  `json:"category"`
	TradingDate string    `json:"trading_date"`
	ScrapedAt   string    `json:"scraped_at"`
	RowCount    int       `json:"row_count"`
	Timestamp   time.Time `json:"timestamp"`
}

// CatalogUpdatedEvent is emitted when a category's product list changes.
type CatalogUpdatedEvent struct {
	ID         string    `json:"id"`
	Category   Category  `json:"category"`
	Date       string    `json:"date"`
	EntryCount int       `json:"entry_count"`
	Timestamp  time.Time `json:"timestamp"`
}
