package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/smolin/newswatch/app/database"
	"github.com/smolin/newswatch/app/feed"
)

const extractBatchSize = 5

// ExtractContentTask fetches linked pages for a watch source's pending
// items and stores their readable content. Per-item failures mark the item
// failed and move on.
type ExtractContentTask struct {
	Task
	SourceConfig *feed.SourceConfig
	httpClient   *http.Client
	extractor    *feed.ContentExtractor
	itemRepo     database.ItemRepository
	userAgent    string
}

func NewExtractContentTask(sourceName string, sourceConfig *feed.SourceConfig, httpClient *http.Client,
	extractor *feed.ContentExtractor, itemRepo database.ItemRepository, userAgent string) *ExtractContentTask {
	return &ExtractContentTask{
		Task:         NewTask(TaskTypeExtractContent, sourceName),
		SourceConfig: sourceConfig,
		httpClient:   httpClient,
		extractor:    extractor,
		itemRepo:     itemRepo,
		userAgent:    userAgent,
	}
}

func (t *ExtractContentTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	items, err := t.itemRepo.GetItemsForExtraction(t.SourceName, extractBatchSize)
	if err != nil {
		return fmt.Errorf("failed to get items for extraction: %w", err)
	}

	if len(items) == 0 {
		return nil
	}

	successCount := 0
	failedCount := 0

	for _, item := range items {
		if err := t.extractItem(ctx, item); err != nil {
			failedCount++
			now := time.Now().UTC()
			if updateErr := t.itemRepo.UpdateExtractedContent(item.ID, "", "failed", &now, err.Error()); updateErr != nil {
				slog.Warn("Failed to mark extraction failure", "item", item.ID, "error", updateErr)
			}
			continue
		}
		successCount++
	}

	slog.Info("Task completed",
		"type", "ExtractContent",
		"source", t.SourceName,
		"duration", t.GetDuration(),
		"items", len(items),
		"extracted", successCount,
		"failed", failedCount)

	return nil
}

func (t *ExtractContentTask) extractItem(ctx context.Context, item database.Item) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(t.SourceConfig.Settings.Timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", item.Link, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	content, err := t.extractor.Run(data)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	return t.itemRepo.UpdateExtractedContent(item.ID, content, "success", &now, "")
}
