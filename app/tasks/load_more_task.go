package tasks

import (
	"context"
	"errors"
	"log/slog"

	"github.com/smolin/newswatch/app/alert"
	"github.com/smolin/newswatch/app/database"
	"github.com/smolin/newswatch/app/feed"
)

// LoadMoreTask appends one further telegraph page to the display list.
// Pagination is history only: no classification, no announcements. It stops
// for good when a page yields nothing that is not already displayed.
type LoadMoreTask struct {
	Task
	client     *feed.Client
	normalizer *feed.Normalizer
	engine     *alert.Engine
	itemRepo   database.ItemRepository
	pageSize   int
}

func NewLoadMoreTask(client *feed.Client, normalizer *feed.Normalizer,
	engine *alert.Engine, itemRepo database.ItemRepository, pageSize int) *LoadMoreTask {
	return &LoadMoreTask{
		Task:       NewTask(TaskTypeLoadMore, "telegraph"),
		client:     client,
		normalizer: normalizer,
		engine:     engine,
		itemRepo:   itemRepo,
		pageSize:   pageSize,
	}
}

func (t *LoadMoreTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.engine.HasMore() {
		slog.Debug("Pagination exhausted, skipping load")
		return nil
	}

	page := t.engine.NextPage()

	raw, err := t.client.FetchPage(ctx, t.pageSize, page)
	if err != nil {
		var fetchErr *feed.FetchError
		if errors.As(err, &fetchErr) && fetchErr.Kind == feed.FetchEmpty {
			t.engine.StopPagination()
			slog.Info("Pagination complete", "page", page)
			return nil
		}
		slog.Warn("Telegraph page fetch failed", "page", page, "error", err)
		return nil
	}

	items := make([]feed.Item, 0, len(raw))
	for _, r := range raw {
		items = append(items, t.normalizer.Run(r))
	}

	appended := t.engine.MergeAppend(items)
	if err := storeItems(t.itemRepo, appended); err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", "LoadMore",
		"duration", t.GetDuration(),
		"page", page,
		"total", len(items),
		"appended", len(appended),
		"has_more", t.engine.HasMore())

	return nil
}
