package alert

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/smolin/newswatch/app/feed"
)

// Match pairs a classified item with the keyword that matched it.
type Match struct {
	Item    feed.Item
	Keyword string
}

// Classification is the result of running a fresh batch against the seen
// set. An item tagged important is consumed by the importance check first;
// the shared seen set then suppresses it from the keyword category.
type Classification struct {
	NewlyImportant []feed.Item
	KeywordMatches []Match
}

// Engine owns the process-lifetime seen set and the ordered display list of
// telegraph items. Fingerprints are never evicted: once an item has alerted
// (or was seeded at startup) it stays silent for the rest of the run.
type Engine struct {
	mu           sync.Mutex
	seen         map[string]struct{}
	displayed    []feed.Item
	displayedSet map[string]struct{}
	seeded       bool
	page         int
	hasMore      bool
}

func NewEngine() *Engine {
	return &Engine{
		seen:         make(map[string]struct{}),
		displayedSet: make(map[string]struct{}),
		page:         1,
		hasMore:      true,
	}
}

// Seeded reports whether the startup seed has run.
func (e *Engine) Seeded() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seeded
}

// SeedInitial marks every important and every keyword-matching item of the
// first successful fetch as already seen, without alerting. Suppresses the
// alert storm a fresh process would otherwise produce.
func (e *Engine) SeedInitial(items []feed.Item, settings Settings) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.seeded {
		slog.Warn("Initial seed requested twice, ignoring")
		return
	}

	seededCount := 0
	for _, item := range items {
		if item.IsImportant || matchKeyword(item.Text, settings.Keywords) != "" {
			if _, ok := e.seen[item.Fingerprint]; !ok {
				e.seen[item.Fingerprint] = struct{}{}
				seededCount++
			}
		}
	}

	e.seeded = true
	slog.Info("Seen set seeded", "items", len(items), "seeded", seededCount)
}

// Classify splits a fresh batch into newly-important and newly-keyword-
// matched items. Matched fingerprints are inserted into the seen set as a
// side effect, so classifying the same batch twice yields empty results the
// second time. Importance is evaluated before keywords.
func (e *Engine) Classify(items []feed.Item, settings Settings) Classification {
	e.mu.Lock()
	defer e.mu.Unlock()

	var c Classification

	for _, item := range items {
		if !item.IsImportant {
			continue
		}
		if _, ok := e.seen[item.Fingerprint]; ok {
			continue
		}
		e.seen[item.Fingerprint] = struct{}{}
		c.NewlyImportant = append(c.NewlyImportant, item)
	}

	for _, item := range items {
		if _, ok := e.seen[item.Fingerprint]; ok {
			continue
		}
		keyword := matchKeyword(item.Text, settings.Keywords)
		if keyword == "" {
			continue
		}
		e.seen[item.Fingerprint] = struct{}{}
		c.KeywordMatches = append(c.KeywordMatches, Match{Item: item, Keyword: keyword})
	}

	return c
}

// MergePrepend inserts items that are not yet displayed (by fingerprint) at
// the head of the display list, preserving their relative order and leaving
// existing entries untouched. Returns the inserted items.
func (e *Engine) MergePrepend(fresh []feed.Item) []feed.Item {
	e.mu.Lock()
	defer e.mu.Unlock()

	var inserted []feed.Item
	for _, item := range fresh {
		if _, ok := e.displayedSet[item.Fingerprint]; ok {
			continue
		}
		inserted = append(inserted, item)
	}

	if len(inserted) == 0 {
		return nil
	}

	for _, item := range inserted {
		e.displayedSet[item.Fingerprint] = struct{}{}
	}
	e.displayed = append(append([]feed.Item(nil), inserted...), e.displayed...)

	return inserted
}

// MergeAppend adds a pagination page to the tail of the display list. Items
// whose display text exactly matches an existing item are dropped; when a
// page contributes nothing usable, pagination stops.
func (e *Engine) MergeAppend(fresh []feed.Item) []feed.Item {
	e.mu.Lock()
	defer e.mu.Unlock()

	existingTexts := make(map[string]struct{}, len(e.displayed))
	for _, item := range e.displayed {
		existingTexts[item.Text] = struct{}{}
	}

	var appended []feed.Item
	for _, item := range fresh {
		if _, ok := existingTexts[item.Text]; ok {
			continue
		}
		existingTexts[item.Text] = struct{}{}
		appended = append(appended, item)
	}

	if len(appended) == 0 {
		e.hasMore = false
		return nil
	}

	for _, item := range appended {
		e.displayedSet[item.Fingerprint] = struct{}{}
	}
	e.displayed = append(e.displayed, appended...)

	return appended
}

// Items returns a snapshot of the display list, newest first.
func (e *Engine) Items() []feed.Item {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]feed.Item(nil), e.displayed...)
}

func (e *Engine) HasMore() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hasMore
}

// NextPage advances the pagination cursor and returns the page to fetch.
func (e *Engine) NextPage() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.page++
	return e.page
}

// StopPagination marks the stream as fully loaded.
func (e *Engine) StopPagination() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hasMore = false
}

// SeenCount reports the size of the seen set, for the stats endpoint.
func (e *Engine) SeenCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.seen)
}

// matchKeyword returns the first monitored keyword with a case-insensitive
// substring match against the item text. Keywords that trim to nothing
// never match.
func matchKeyword(text string, keywords []string) string {
	if len(keywords) == 0 {
		return ""
	}

	lowerText := strings.ToLower(text)
	for _, keyword := range keywords {
		trimmed := strings.TrimSpace(keyword)
		if trimmed == "" {
			continue
		}
		if strings.Contains(lowerText, strings.ToLower(trimmed)) {
			return trimmed
		}
	}

	return ""
}
