package announce

import (
	"context"
	"log/slog"
)

// LogNotifier writes notifications to the structured log. Always wired, so
// every announcement leaves a trace even with no outbound channel set up.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	if n.Keyword != "" {
		slog.Info("Notification", "category", n.Category, "keyword", n.Keyword, "title", n.Title, "body", n.Body)
	} else {
		slog.Info("Notification", "category", n.Category, "title", n.Title, "body", n.Body)
	}
	return nil
}
