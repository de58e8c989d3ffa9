package database

import (
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	return db
}

func testDBItem(id, source, hash string) Item {
	return Item{
		ID:          id,
		Source:      source,
		Title:       "标题",
		Body:        "正文",
		Text:        "10:00:00\n【标题】正文",
		ClockTime:   "10:00:00",
		ContentHash: hash,
		PublishedAt: time.Date(2025, 6, 28, 10, 0, 0, 0, time.UTC),
	}
}

func TestUpsertItemAndGetRecent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)

	item := testDBItem("item-1", "telegraph", "hash-1")
	item.IsImportant = true
	item.ImageURLs = []string{"https://example.com/a.png"}

	if err := repo.UpsertItem(item); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	items, err := repo.GetRecentItems("telegraph", 10)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("Expected 1 item, got %d", len(items))
	}

	got := items[0]
	if got.ID != "item-1" || got.Title != "标题" || !got.IsImportant {
		t.Errorf("Unexpected item: %+v", got)
	}
	if len(got.ImageURLs) != 1 || got.ImageURLs[0] != "https://example.com/a.png" {
		t.Errorf("Expected image URLs preserved, got %v", got.ImageURLs)
	}
	if got.ContentExtractionStatus != "pending" {
		t.Errorf("Expected default extraction status pending, got %q", got.ContentExtractionStatus)
	}
}

func TestUpsertItemConflictUpdates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)

	item := testDBItem("item-1", "telegraph", "hash-1")
	if err := repo.UpsertItem(item); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	// Same source and content hash with refreshed metadata must not create
	// a second row.
	updated := testDBItem("item-2", "telegraph", "hash-1")
	updated.Title = "更新标题"
	updated.IsImportant = true
	if err := repo.UpsertItem(updated); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	count, err := repo.GetItemCount()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 row after conflicting upsert, got %d", count)
	}

	items, err := repo.GetRecentItems("telegraph", 10)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if items[0].Title != "更新标题" || !items[0].IsImportant {
		t.Errorf("Expected updated fields, got %+v", items[0])
	}
}

func TestCheckDuplicate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)

	if err := repo.UpsertItem(testDBItem("item-1", "telegraph", "hash-1")); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	exists, err := repo.CheckDuplicate("telegraph", "hash-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !exists {
		t.Error("Expected duplicate detected")
	}

	exists, err = repo.CheckDuplicate("telegraph", "other-hash")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if exists {
		t.Error("Expected no duplicate for unknown hash")
	}

	// The hash is scoped per source.
	exists, err = repo.CheckDuplicate("reuters", "hash-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if exists {
		t.Error("Expected no duplicate across sources")
	}
}

func TestGetItemStats(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)

	important := testDBItem("item-1", "telegraph", "hash-1")
	important.IsImportant = true
	plain := testDBItem("item-2", "telegraph", "hash-2")
	other := testDBItem("item-3", "reuters", "hash-3")

	for _, item := range []Item{important, plain, other} {
		if err := repo.UpsertItem(item); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}

	total, importantCount, err := repo.GetItemStats("telegraph")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if total != 2 || importantCount != 1 {
		t.Errorf("Expected 2 total / 1 important, got %d / %d", total, importantCount)
	}
}

func TestExtractionLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewItemRepository(db)

	linked := testDBItem("item-1", "reuters", "hash-1")
	linked.Link = "https://example.com/articles/1"
	unlinked := testDBItem("item-2", "reuters", "hash-2")

	for _, item := range []Item{linked, unlinked} {
		if err := repo.UpsertItem(item); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
	}

	pending, err := repo.GetItemsForExtraction("reuters", 10)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "item-1" {
		t.Fatalf("Expected only the linked item pending, got %v", pending)
	}

	extractedAt := time.Now().UTC()
	if err := repo.UpdateExtractedContent("item-1", "article text", "success", &extractedAt, ""); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	pending, err = repo.GetItemsForExtraction("reuters", 10)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("Expected no pending items after extraction, got %v", pending)
	}

	items, err := repo.GetRecentItems("reuters", 10)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	for _, item := range items {
		if item.ID == "item-1" {
			if item.Content != "article text" || item.ContentExtractionStatus != "success" {
				t.Errorf("Expected extracted content persisted, got %+v", item)
			}
			if item.ContentExtractedAt == nil {
				t.Error("Expected extraction timestamp set")
			}
		}
	}
}

func TestAlertRepository(t *testing.T) {
	db := setupTestDB(t)
	itemRepo := NewItemRepository(db)
	alertRepo := NewAlertRepository(db)

	if err := itemRepo.UpsertItem(testDBItem("item-1", "telegraph", "hash-1")); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if err := alertRepo.RecordAlert("item-1", "important", ""); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if err := alertRepo.RecordAlert("item-1", "keyword", "股市"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	count, err := alertRepo.GetAlertCount()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 alerts, got %d", count)
	}

	alerts, err := alertRepo.GetRecentAlerts(10)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("Expected 2 alerts, got %d", len(alerts))
	}
	// Same announced_at second; the id tiebreaker puts the latest first.
	if alerts[0].Category != "keyword" || alerts[0].Keyword != "股市" {
		t.Errorf("Unexpected newest alert: %+v", alerts[0])
	}
}
