package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smolin/newswatch/app/alert"
	"github.com/smolin/newswatch/app/database"
	"github.com/smolin/newswatch/app/feed"
	"github.com/smolin/newswatch/app/tasks"
)

const (
	defaultFeedItems = 50
	maxFeedItems     = 500
)

type Handler struct {
	engine      *alert.Engine
	settings    *alert.SettingsStore
	itemRepo    database.ItemRepository
	alertRepo   database.AlertRepository
	sourceCache *feed.SourceCache
	generator   *feed.Generator
	scheduler   tasks.TaskSchedulerInterface
	pipeline    *tasks.Pipeline
}

func NewHandler(engine *alert.Engine, settings *alert.SettingsStore,
	itemRepo database.ItemRepository, alertRepo database.AlertRepository,
	sourceCache *feed.SourceCache, generator *feed.Generator,
	scheduler tasks.TaskSchedulerInterface, pipeline *tasks.Pipeline) *Handler {
	return &Handler{
		engine:      engine,
		settings:    settings,
		itemRepo:    itemRepo,
		alertRepo:   alertRepo,
		sourceCache: sourceCache,
		generator:   generator,
		scheduler:   scheduler,
		pipeline:    pipeline,
	}
}

// GetItems returns the in-memory display list, newest first.
func (h *Handler) GetItems(c *gin.Context) {
	items := h.engine.Items()

	out := make([]gin.H, 0, len(items))
	for _, item := range items {
		out = append(out, gin.H{
			"id":         item.ID,
			"time":       item.Time,
			"title":      feed.ExtractTitle(item.Text),
			"body":       feed.ExtractBody(item.Text),
			"text":       item.Text,
			"important":  item.IsImportant,
			"image_urls": item.ImageURLs,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"items":    out,
		"total":    len(out),
		"has_more": h.engine.HasMore(),
	})
}

// GetFeed renders the archived telegraph stream as RSS 2.0.
func (h *Handler) GetFeed(c *gin.Context) {
	limit := defaultFeedItems
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
			if limit > maxFeedItems {
				limit = maxFeedItems
			}
		}
	}

	items, err := h.itemRepo.GetRecentItems("telegraph", limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_items", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	rss, err := h.generator.Run(items)
	if err != nil {
		slog.Error("RSS generation error", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.Header("X-Feed-Items", strconv.Itoa(len(items)))

	c.String(http.StatusOK, rss)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := gin.H{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"pipeline":  h.pipeline.State().String(),
	}

	if itemCount, err := h.itemRepo.GetItemCount(); err == nil {
		health["archived_items"] = itemCount
	}

	health["displayed_items"] = len(h.engine.Items())
	health["watch_sources"] = h.sourceCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := gin.H{
		"displayed_items": len(h.engine.Items()),
		"seen_set_size":   h.engine.SeenCount(),
		"has_more":        h.engine.HasMore(),
		"pipeline":        h.pipeline.State().String(),
	}

	if total, important, err := h.itemRepo.GetItemStats("telegraph"); err == nil {
		stats["telegraph"] = gin.H{
			"archived":  total,
			"important": important,
		}
	}

	if alertCount, err := h.alertRepo.GetAlertCount(); err == nil {
		stats["alerts"] = alertCount
	}

	settings := h.settings.Get()
	stats["keywords"] = len(settings.Keywords)

	c.JSON(http.StatusOK, stats)
}

// APIRefresh triggers one refresh cycle. The pipeline guard drops the run
// when a cycle is already in flight.
func (h *Handler) APIRefresh(c *gin.Context) {
	if err := h.scheduler.EnqueueTelegraphPoll(); err != nil {
		slog.Error("Error enqueueing poll task", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue refresh",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Refresh enqueued",
	})
}

// APILoadMore appends the next pagination page to the display list.
func (h *Handler) APILoadMore(c *gin.Context) {
	if !h.engine.HasMore() {
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"message":  "Pagination exhausted",
			"has_more": false,
		})
		return
	}

	if err := h.scheduler.EnqueueLoadMore(); err != nil {
		slog.Error("Error enqueueing load-more task", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue load",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success":  true,
		"message":  "Page load enqueued",
		"has_more": true,
	})
}

func (h *Handler) APIListKeywords(c *gin.Context) {
	settings := h.settings.Get()
	c.JSON(http.StatusOK, gin.H{
		"keywords": settings.Keywords,
		"total":    len(settings.Keywords),
	})
}

func (h *Handler) APIAddKeyword(c *gin.Context) {
	var body struct {
		Keyword string `json:"keyword"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.settings.AddKeyword(body.Keyword); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	slog.Info("Keyword added", "keyword", body.Keyword)
	c.JSON(http.StatusCreated, gin.H{"success": true})
}

func (h *Handler) APIRemoveKeyword(c *gin.Context) {
	keyword := c.Param("keyword")

	if err := h.settings.RemoveKeyword(keyword); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	slog.Info("Keyword removed", "keyword", keyword)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
