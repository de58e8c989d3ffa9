package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type itemRepository struct {
	db *DB
}

func NewItemRepository(db *DB) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) UpsertItem(item Item) error {
	imageURLs, err := json.Marshal(item.ImageURLs)
	if err != nil {
		return fmt.Errorf("failed to encode image URLs: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO items (
			id, source, title, body, text, clock_time, link,
			is_important, image_urls, content_hash, published_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (source, content_hash) DO UPDATE SET
			title = excluded.title,
			body = excluded.body,
			is_important = excluded.is_important,
			image_urls = excluded.image_urls
	`, item.ID, item.Source, item.Title, item.Body, item.Text, item.ClockTime,
		item.Link, item.IsImportant, string(imageURLs), item.ContentHash,
		item.PublishedAt.UTC())

	if err != nil {
		return fmt.Errorf("failed to upsert item: %w", err)
	}

	return nil
}

func (r *itemRepository) CheckDuplicate(source, contentHash string) (bool, error) {
	var id string
	err := r.db.QueryRow(`
		SELECT id FROM items WHERE source = ? AND content_hash = ? LIMIT 1
	`, source, contentHash).Scan(&id)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check duplicate: %w", err)
	}

	return true, nil
}

func (r *itemRepository) GetRecentItems(source string, limit int) ([]Item, error) {
	rows, err := r.db.Query(`
		SELECT id, source, title, body, text, clock_time, link,
		       is_important, image_urls, content_hash, published_at, created_at,
		       content, content_extracted_at, content_extraction_status, content_extraction_error
		FROM items
		WHERE source = ?
		ORDER BY published_at DESC, created_at DESC
		LIMIT ?
	`, source, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

func (r *itemRepository) GetItemCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM items").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get item count: %w", err)
	}
	return count, nil
}

func (r *itemRepository) GetItemStats(source string) (total, important int, err error) {
	err = r.db.QueryRow(`
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN is_important THEN 1 ELSE 0 END), 0)
		FROM items
		WHERE source = ?
	`, source).Scan(&total, &important)

	if err != nil {
		return 0, 0, fmt.Errorf("failed to get item stats: %w", err)
	}

	return total, important, nil
}

func (r *itemRepository) GetItemsForExtraction(source string, limit int) ([]Item, error) {
	rows, err := r.db.Query(`
		SELECT id, source, title, body, text, clock_time, link,
		       is_important, image_urls, content_hash, published_at, created_at,
		       content, content_extracted_at, content_extraction_status, content_extraction_error
		FROM items
		WHERE source = ?
		  AND content_extraction_status = 'pending'
		  AND link != ''
		ORDER BY published_at DESC
		LIMIT ?
	`, source, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get items for extraction: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

func (r *itemRepository) UpdateExtractedContent(itemID, content, status string, extractedAt *time.Time, errorMsg string) error {
	_, err := r.db.Exec(`
		UPDATE items
		SET content = ?, content_extraction_status = ?,
		    content_extracted_at = ?, content_extraction_error = ?
		WHERE id = ?
	`, content, status, extractedAt, errorMsg, itemID)

	if err != nil {
		return fmt.Errorf("failed to update extracted content: %w", err)
	}

	return nil
}

func scanItems(rows *sql.Rows) ([]Item, error) {
	var items []Item
	for rows.Next() {
		var item Item
		var imageURLs string
		err := rows.Scan(
			&item.ID, &item.Source, &item.Title, &item.Body, &item.Text,
			&item.ClockTime, &item.Link, &item.IsImportant, &imageURLs,
			&item.ContentHash, &item.PublishedAt, &item.CreatedAt,
			&item.Content, &item.ContentExtractedAt,
			&item.ContentExtractionStatus, &item.ContentExtractionError,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}
		if imageURLs != "" {
			if err := json.Unmarshal([]byte(imageURLs), &item.ImageURLs); err != nil {
				return nil, fmt.Errorf("failed to decode image URLs: %w", err)
			}
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}

	return items, nil
}
