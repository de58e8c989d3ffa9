package tasks

import (
	"context"
	"errors"
	"log/slog"

	"github.com/smolin/newswatch/app/alert"
	"github.com/smolin/newswatch/app/announce"
	"github.com/smolin/newswatch/app/database"
	"github.com/smolin/newswatch/app/feed"
)

// PollTelegraphTask runs one refresh cycle of the telegraph stream:
// fetch -> normalize -> classify -> merge -> dispatch. The pipeline state
// machine guarantees only one cycle runs at a time; a tick that cannot
// enter the pipeline is dropped.
type PollTelegraphTask struct {
	Task
	pipeline   *Pipeline
	client     *feed.Client
	normalizer *feed.Normalizer
	engine     *alert.Engine
	settings   *alert.SettingsStore
	dispatcher *announce.Dispatcher
	itemRepo   database.ItemRepository
	alertRepo  database.AlertRepository
	pageSize   int
}

func NewPollTelegraphTask(pipeline *Pipeline, client *feed.Client, normalizer *feed.Normalizer,
	engine *alert.Engine, settings *alert.SettingsStore, dispatcher *announce.Dispatcher,
	itemRepo database.ItemRepository, alertRepo database.AlertRepository, pageSize int) *PollTelegraphTask {
	return &PollTelegraphTask{
		Task:       NewTask(TaskTypePollTelegraph, "telegraph"),
		pipeline:   pipeline,
		client:     client,
		normalizer: normalizer,
		engine:     engine,
		settings:   settings,
		dispatcher: dispatcher,
		itemRepo:   itemRepo,
		alertRepo:  alertRepo,
		pageSize:   pageSize,
	}
}

func (t *PollTelegraphTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.pipeline.Begin() {
		slog.Debug("Refresh already in flight, skipping", "state", t.pipeline.State().String())
		return nil
	}
	defer t.pipeline.Finish()

	raw, err := t.client.FetchPage(ctx, t.pageSize, 1)
	if err != nil {
		// Fetch failures are not retried; the next tick is the next chance.
		var fetchErr *feed.FetchError
		if errors.As(err, &fetchErr) {
			slog.Warn("Telegraph fetch failed", "kind", fetchErr.Kind.String(), "error", err)
			return nil
		}
		slog.Warn("Telegraph fetch failed", "error", err)
		return nil
	}

	items := make([]feed.Item, 0, len(raw))
	for _, r := range raw {
		items = append(items, t.normalizer.Run(r))
	}

	settings := t.settings.Get()

	if !t.engine.Seeded() {
		t.engine.SeedInitial(items, settings)
		inserted := t.engine.MergePrepend(items)
		if err := storeItems(t.itemRepo, inserted); err != nil {
			return err
		}

		slog.Info("Task completed",
			"type", "PollTelegraph",
			"duration", t.GetDuration(),
			"total", len(items),
			"new", len(inserted),
			"seeded", true)
		return nil
	}

	t.pipeline.Advance(StateClassifying)
	classification := t.engine.Classify(items, settings)
	inserted := t.engine.MergePrepend(items)

	if err := storeItems(t.itemRepo, inserted); err != nil {
		return err
	}

	t.pipeline.Advance(StateDispatching)
	t.dispatcher.Run(ctx, classification, settings)
	recordAlerts(t.alertRepo, classification)

	slog.Info("Task completed",
		"type", "PollTelegraph",
		"duration", t.GetDuration(),
		"total", len(items),
		"new", len(inserted),
		"important", len(classification.NewlyImportant),
		"keyword_matches", len(classification.KeywordMatches))

	return nil
}
