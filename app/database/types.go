package database

import (
	"time"
)

type Item struct {
	ID          string
	Source      string
	Title       string
	Body        string
	Text        string
	ClockTime   string
	Link        string
	IsImportant bool
	ImageURLs   []string
	ContentHash string
	PublishedAt time.Time
	CreatedAt   time.Time

	Content                 string
	ContentExtractedAt      *time.Time
	ContentExtractionStatus string // pending, success, failed, skipped
	ContentExtractionError  string
}

type Alert struct {
	ID          int64
	ItemID      string
	Category    string // important, keyword
	Keyword     string
	AnnouncedAt time.Time
}
