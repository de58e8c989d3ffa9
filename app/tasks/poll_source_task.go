package tasks

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/smolin/newswatch/app/alert"
	"github.com/smolin/newswatch/app/announce"
	"github.com/smolin/newswatch/app/database"
	"github.com/smolin/newswatch/app/feed"
)

// PollSourceTask fetches one RSS watch source and runs its fresh items
// through the same classify/announce pipeline as the telegraph stream.
// Source items are archived but never merged into the telegraph display
// list.
type PollSourceTask struct {
	Task
	SourceConfig *feed.SourceConfig
	httpClient   *http.Client
	parser       *feed.Parser
	engine       *alert.Engine
	settings     *alert.SettingsStore
	dispatcher   *announce.Dispatcher
	itemRepo     database.ItemRepository
	alertRepo    database.AlertRepository
	userAgent    string
}

func NewPollSourceTask(sourceName string, sourceConfig *feed.SourceConfig, httpClient *http.Client,
	parser *feed.Parser, engine *alert.Engine, settings *alert.SettingsStore,
	dispatcher *announce.Dispatcher, itemRepo database.ItemRepository,
	alertRepo database.AlertRepository, userAgent string) *PollSourceTask {
	return &PollSourceTask{
		Task:         NewTask(TaskTypePollSource, sourceName),
		SourceConfig: sourceConfig,
		httpClient:   httpClient,
		parser:       parser,
		engine:       engine,
		settings:     settings,
		dispatcher:   dispatcher,
		itemRepo:     itemRepo,
		alertRepo:    alertRepo,
		userAgent:    userAgent,
	}
}

func (t *PollSourceTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.SourceConfig.Settings.Enabled {
		slog.Debug("Source disabled, skipping", "source", t.SourceName)
		return nil
	}

	data, err := t.fetchSource(ctx, t.SourceConfig.URL)
	if err != nil {
		return fmt.Errorf("failed to fetch source: %w", err)
	}

	items, err := t.parser.Run(data, t.SourceName)
	if err != nil {
		return fmt.Errorf("failed to parse source: %w", err)
	}

	if max := t.SourceConfig.Settings.MaxItems; len(items) > max {
		items = items[:max]
	}

	// An empty archive means this is the source's first poll; classify to
	// populate the seen set but announce nothing, like the telegraph seed.
	archivedTotal, _, err := t.itemRepo.GetItemStats(t.SourceName)
	if err != nil {
		return fmt.Errorf("failed to get source stats: %w", err)
	}
	firstRun := archivedTotal == 0

	duplicateCount := 0
	var freshItems []feed.Item
	for _, item := range items {
		isDuplicate, err := t.itemRepo.CheckDuplicate(t.SourceName, item.Fingerprint)
		if err != nil {
			return fmt.Errorf("failed to check for duplicates: %w", err)
		}
		if isDuplicate {
			duplicateCount++
			continue
		}
		freshItems = append(freshItems, item)
	}

	settings := t.settings.Get()
	classification := t.engine.Classify(freshItems, settings)

	if err := storeItems(t.itemRepo, freshItems); err != nil {
		return fmt.Errorf("failed to store items: %w", err)
	}

	if !firstRun {
		t.dispatcher.Run(ctx, classification, settings)
		recordAlerts(t.alertRepo, classification)
	}

	slog.Info("Task completed",
		"type", "PollSource",
		"source", t.SourceName,
		"duration", t.GetDuration(),
		"total", len(items),
		"duplicates", duplicateCount,
		"new", len(freshItems),
		"important", len(classification.NewlyImportant),
		"keyword_matches", len(classification.KeywordMatches))

	return nil
}

func (t *PollSourceTask) fetchSource(ctx context.Context, url string) ([]byte, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(t.SourceConfig.Settings.Timeout)*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return data, nil
}
