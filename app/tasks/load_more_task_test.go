package tasks

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/smolin/newswatch/app/feed"
)

func (h *telegraphHarness) newLoadMoreTask() *LoadMoreTask {
	return NewLoadMoreTask(h.client, feed.NewNormalizer("焦点"), h.engine, h.itemRepo, 20)
}

func TestLoadMoreAppendsPage(t *testing.T) {
	var requestedPages []string
	h := newTelegraphHarness(t, func(w http.ResponseWriter, r *http.Request) {
		requestedPages = append(requestedPages, r.URL.Query().Get("page"))
		fmt.Fprint(w, telegraphResponse(
			`{"id":10,"rich_text":"较早的消息","create_time":"2025-06-28 09:00:00"}`,
		))
	})

	// Pre-populate the display list as a completed refresh would.
	h.engine.MergePrepend([]feed.Item{{
		Text:        "10:00:00\n最新消息",
		Fingerprint: feed.Fingerprint("10:00:00\n最新消息"),
	}})

	if err := h.newLoadMoreTask().Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if len(requestedPages) != 1 || requestedPages[0] != "2" {
		t.Errorf("Expected page 2 requested, got %v", requestedPages)
	}

	items := h.engine.Items()
	if len(items) != 2 {
		t.Fatalf("Expected 2 displayed items, got %d", len(items))
	}
	if items[1].Text != "09:00:00\n较早的消息" {
		t.Errorf("Expected page appended at the tail, got %q", items[1].Text)
	}
	if len(h.itemRepo.Items()) != 1 {
		t.Errorf("Expected the appended item archived, got %d", len(h.itemRepo.Items()))
	}
	if len(h.alertRepo.Alerts()) != 0 {
		t.Errorf("Expected pagination to never alert, got %v", h.alertRepo.Alerts())
	}
}

func TestLoadMoreStopsOnEmptyPage(t *testing.T) {
	h := newTelegraphHarness(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"result":{"status":{"code":0}},"data":{"feed":{"list":[]}}}`)
	})

	if err := h.newLoadMoreTask().Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if h.engine.HasMore() {
		t.Error("Expected pagination stopped after an empty page")
	}

	// Further loads are skipped without touching the network.
	fetched := false
	h.server.Config.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetched = true
	})
	if err := h.newLoadMoreTask().Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if fetched {
		t.Error("Expected exhausted pagination to skip the fetch")
	}
}

func TestLoadMoreStopsOnFullyDuplicatePage(t *testing.T) {
	h := newTelegraphHarness(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, telegraphResponse(
			`{"id":1,"rich_text":"最新消息","create_time":"2025-06-28 10:00:00"}`,
		))
	})

	h.engine.MergePrepend([]feed.Item{{
		Text:        "10:00:00\n最新消息",
		Fingerprint: feed.Fingerprint("10:00:00\n最新消息"),
	}})

	if err := h.newLoadMoreTask().Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if h.engine.HasMore() {
		t.Error("Expected pagination stopped after a page with nothing new")
	}
	if len(h.engine.Items()) != 1 {
		t.Errorf("Expected display list unchanged, got %d items", len(h.engine.Items()))
	}
}
