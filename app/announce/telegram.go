package announce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/smolin/newswatch/app/retry"
)

// TelegramNotifier delivers notifications to a Telegram chat or channel via
// the bot API. Sends are retried with backoff; a final failure is the
// caller's to log, never fatal.
type TelegramNotifier struct {
	token      string
	chatID     string
	httpClient *http.Client
}

func NewTelegramNotifier(token, chatID string) *TelegramNotifier {
	return &TelegramNotifier{
		token:  token,
		chatID: chatID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (t *TelegramNotifier) Notify(ctx context.Context, n Notification) error {
	text := t.formatMessage(n)

	return retry.WithRetry(ctx, retry.Config{
		MaxAttempts: 3,
		Delay:       2 * time.Second,
		Backoff:     true,
	}, func() error {
		return t.sendMessage(ctx, text)
	})
}

func (t *TelegramNotifier) formatMessage(n Notification) string {
	header := html.EscapeString(n.Title)
	if n.Category == CategoryImportant {
		header = "🔴 " + header
	} else if n.Keyword != "" {
		header = fmt.Sprintf("🔔 [%s] %s", html.EscapeString(n.Keyword), header)
	}

	if n.Body == "" {
		return fmt.Sprintf("<b>%s</b>", header)
	}
	return fmt.Sprintf("<b>%s</b>\n%s", header, html.EscapeString(n.Body))
}

func (t *TelegramNotifier) sendMessage(ctx context.Context, text string) error {
	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.token)

	payload := map[string]interface{}{
		"chat_id":                  t.chatID,
		"text":                     text,
		"parse_mode":               "HTML",
		"disable_web_page_preview": true,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("telegram request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API error: status %d", resp.StatusCode)
	}

	return nil
}
