package tasks

import (
	"log/slog"

	"github.com/smolin/newswatch/app/alert"
	"github.com/smolin/newswatch/app/announce"
	"github.com/smolin/newswatch/app/database"
	"github.com/smolin/newswatch/app/feed"
)

func toDBItem(item feed.Item) database.Item {
	return database.Item{
		ID:          item.ID,
		Source:      item.Source,
		Title:       feed.ExtractTitle(item.Text),
		Body:        feed.ExtractBody(item.Text),
		Text:        item.Text,
		ClockTime:   item.Time,
		Link:        item.Link,
		IsImportant: item.IsImportant,
		ImageURLs:   item.ImageURLs,
		ContentHash: item.Fingerprint,
		PublishedAt: item.PublishedAt,
	}
}

func storeItems(itemRepo database.ItemRepository, items []feed.Item) error {
	for _, item := range items {
		if err := itemRepo.UpsertItem(toDBItem(item)); err != nil {
			return err
		}
	}
	return nil
}

// recordAlerts persists the announcement history. Failures are log-only;
// the announcements themselves have already gone out.
func recordAlerts(alertRepo database.AlertRepository, c alert.Classification) {
	for _, item := range c.NewlyImportant {
		if err := alertRepo.RecordAlert(item.ID, announce.CategoryImportant, ""); err != nil {
			slog.Warn("Failed to record alert", "category", announce.CategoryImportant, "error", err)
		}
	}
	for _, match := range c.KeywordMatches {
		if err := alertRepo.RecordAlert(match.Item.ID, announce.CategoryKeyword, match.Keyword); err != nil {
			slog.Warn("Failed to record alert", "category", announce.CategoryKeyword, "error", err)
		}
	}
}
