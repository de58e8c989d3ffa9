package feed

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
	"golang.org/x/text/unicode/norm"
)

// Parser converts RSS/Atom watch sources into canonical items. Items are
// composed into the same "<HH:MM:SS>\n【title】body" text form the telegraph
// stream uses, so classification, title extraction and announcement behave
// identically for both kinds of source.
type Parser struct {
	gofeedParser *gofeed.Parser
	focusTag     string
}

func NewParser(focusTag string) *Parser {
	return &Parser{
		gofeedParser: gofeed.NewParser(),
		focusTag:     focusTag,
	}
}

func (p *Parser) Run(data []byte, sourceName string) ([]Item, error) {
	parsed, err := p.gofeedParser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	items := make([]Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		if entry == nil {
			continue
		}
		items = append(items, p.normalizeEntry(entry, sourceName))
	}

	return items, nil
}

func (p *Parser) normalizeEntry(entry *gofeed.Item, sourceName string) Item {
	publishedAt := time.Now().In(time.Local)
	clock := "00:00:00"
	if entry.PublishedParsed != nil {
		publishedAt = entry.PublishedParsed.In(time.Local)
		clock = publishedAt.Format("15:04:05")
	}

	body := strings.TrimSpace(entry.Title)
	if body != "" {
		body = "【" + body + "】"
	}
	if desc := strings.TrimSpace(entry.Description); desc != "" {
		body += desc
	}

	text := norm.NFC.String(clock + "\n" + body)

	return Item{
		ID:          uuid.NewString(),
		Source:      sourceName,
		Text:        text,
		Time:        clock,
		Link:        entry.Link,
		IsImportant: p.hasFocusCategory(entry.Categories),
		Fingerprint: Fingerprint(text),
		PublishedAt: publishedAt,
	}
}

func (p *Parser) hasFocusCategory(categories []string) bool {
	for _, c := range categories {
		if c == p.focusTag {
			return true
		}
	}
	return false
}
