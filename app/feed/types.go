package feed

import (
	"encoding/json"
	"time"
)

// Raw telegraph wire types

type RawTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RawItem is a telegraph record as received from the feed endpoint. Optional
// fields tolerate partially-populated records without failing the batch.
type RawItem struct {
	ID         int64           `json:"id"`
	RichText   string          `json:"rich_text"`
	Focus      int             `json:"focus,omitempty"`
	Top        int             `json:"top,omitempty"`
	CreateTime string          `json:"create_time"`
	Tags       []RawTag        `json:"tag,omitempty"`
	Multimedia json.RawMessage `json:"multimedia,omitempty"`
	ShareImage string          `json:"shareimg,omitempty"`
}

// Item is the canonical, immutable item every downstream component works
// with. Text is always "<HH:MM:SS>\n<body>"; Fingerprint is derived from
// Text and is the dedup identity, ID is only a display handle.
type Item struct {
	ID          string
	Source      string
	Text        string
	Time        string
	Link        string
	IsImportant bool
	ImageURLs   []string
	Fingerprint string
	PublishedAt time.Time
}

// Configuration types for RSS watch sources

type SourceConfig struct {
	Name     string         // Derived from filename (without .yml extension)
	URL      string         `yaml:"url"`
	Settings SourceSettings `yaml:"settings"`
}

type SourceSettings struct {
	Enabled         bool `yaml:"enabled"`
	RefreshInterval int  `yaml:"refresh_interval"` // seconds
	MaxItems        int  `yaml:"max_items"`
	Timeout         int  `yaml:"timeout"`         // seconds
	ExtractContent  bool `yaml:"extract_content"` // enable content extraction
}
