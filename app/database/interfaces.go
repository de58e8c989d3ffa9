package database

import (
	"time"
)

// ItemRepository handles persistence of canonical items. The archive backs
// the HTTP API and RSS output; alert dedup stays in-memory with the engine.
type ItemRepository interface {
	UpsertItem(item Item) error
	CheckDuplicate(source, contentHash string) (bool, error)

	GetRecentItems(source string, limit int) ([]Item, error)
	GetItemCount() (int, error)
	GetItemStats(source string) (total, important int, err error)

	GetItemsForExtraction(source string, limit int) ([]Item, error)
	UpdateExtractedContent(itemID, content, status string, extractedAt *time.Time, errorMsg string) error
}

// AlertRepository records every announcement that was dispatched.
type AlertRepository interface {
	RecordAlert(itemID, category, keyword string) error
	GetRecentAlerts(limit int) ([]Alert, error)
	GetAlertCount() (int, error)
}
