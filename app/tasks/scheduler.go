package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/smolin/newswatch/app/alert"
	"github.com/smolin/newswatch/app/announce"
	"github.com/smolin/newswatch/app/cfg"
	"github.com/smolin/newswatch/app/database"
	"github.com/smolin/newswatch/app/feed"
)

var _ TaskSchedulerInterface = (*Scheduler)(nil)

type Scheduler struct {
	pipeline    *Pipeline
	client      *feed.Client
	normalizer  *feed.Normalizer
	parser      *feed.Parser
	extractor   *feed.ContentExtractor
	engine      *alert.Engine
	settings    *alert.SettingsStore
	dispatcher  *announce.Dispatcher
	itemRepo    database.ItemRepository
	alertRepo   database.AlertRepository
	sourceCache *feed.SourceCache
	httpClient  *http.Client
	userAgent   string
	pageSize    int
	interval    time.Duration
	workerCount int

	sourceMu        sync.Mutex
	sourceNextFetch map[string]time.Time

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	taskQueue chan TaskInterface
}

func NewScheduler(pipeline *Pipeline, client *feed.Client, normalizer *feed.Normalizer,
	parser *feed.Parser, extractor *feed.ContentExtractor, engine *alert.Engine,
	settings *alert.SettingsStore, dispatcher *announce.Dispatcher,
	itemRepo database.ItemRepository, alertRepo database.AlertRepository,
	sourceCache *feed.SourceCache, httpClient *http.Client) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	c := cfg.Get()

	return &Scheduler{
		pipeline:        pipeline,
		client:          client,
		normalizer:      normalizer,
		parser:          parser,
		extractor:       extractor,
		engine:          engine,
		settings:        settings,
		dispatcher:      dispatcher,
		itemRepo:        itemRepo,
		alertRepo:       alertRepo,
		sourceCache:     sourceCache,
		httpClient:      httpClient,
		userAgent:       c.UserAgent,
		pageSize:        c.PageSize,
		interval:        time.Duration(cfg.ClampPollInterval(c.PollInterval)) * time.Second,
		workerCount:     c.WorkerCount,
		sourceNextFetch: make(map[string]time.Time),
		ctx:             ctx,
		cancel:          cancel,
		taskQueue:       make(chan TaskInterface, 100),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.enqueueTick()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTick()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	close(s.taskQueue)
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	select {
	case s.taskQueue <- task:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	default:
		return fmt.Errorf("task queue is full")
	}
}

// EnqueueTelegraphPoll schedules one refresh cycle. Used by the ticker and
// by the manual-refresh endpoint; the pipeline guard decides whether the
// cycle actually runs.
func (s *Scheduler) EnqueueTelegraphPoll() error {
	task := NewPollTelegraphTask(s.pipeline, s.client, s.normalizer, s.engine,
		s.settings, s.dispatcher, s.itemRepo, s.alertRepo, s.pageSize)
	return s.EnqueueTask(task)
}

// EnqueueLoadMore schedules one pagination page append.
func (s *Scheduler) EnqueueLoadMore() error {
	task := NewLoadMoreTask(s.client, s.normalizer, s.engine, s.itemRepo, s.pageSize)
	return s.EnqueueTask(task)
}

func (s *Scheduler) enqueueTick() {
	if err := s.EnqueueTelegraphPoll(); err != nil {
		slog.Warn("Failed to enqueue PollTelegraphTask", "error", err)
	}

	s.enqueueSourceTasks()
}

func (s *Scheduler) enqueueSourceTasks() {
	sourceConfigs := s.sourceCache.GetEnabledConfigs()
	if len(sourceConfigs) == 0 {
		return
	}

	now := time.Now()

	s.sourceMu.Lock()
	defer s.sourceMu.Unlock()

	for _, sourceConfig := range sourceConfigs {
		nextFetch, known := s.sourceNextFetch[sourceConfig.Name]
		if known && nextFetch.After(now) {
			slog.Debug("Source not due for refresh yet", "source", sourceConfig.Name, "next_fetch", nextFetch)
			continue
		}

		pollTask := NewPollSourceTask(sourceConfig.Name, sourceConfig, s.httpClient, s.parser,
			s.engine, s.settings, s.dispatcher, s.itemRepo, s.alertRepo, s.userAgent)
		if err := s.EnqueueTask(pollTask); err != nil {
			slog.Warn("Failed to enqueue PollSourceTask", "source", sourceConfig.Name, "error", err)
			continue
		}

		s.sourceNextFetch[sourceConfig.Name] = now.Add(time.Duration(sourceConfig.Settings.RefreshInterval) * time.Second)

		if sourceConfig.Settings.ExtractContent {
			extractTask := NewExtractContentTask(sourceConfig.Name, sourceConfig, s.httpClient,
				s.extractor, s.itemRepo, s.userAgent)
			if err := s.EnqueueTask(extractTask); err != nil {
				slog.Warn("Failed to enqueue ExtractContentTask", "source", sourceConfig.Name, "error", err)
			}
		}
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "source", task.GetSourceName(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			// Tracked by the WaitGroup so Stop cannot close the queue
			// while a retry is still pending.
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()

				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				case <-time.After(retryDelay):
				}

				if retryErr := s.EnqueueTask(task); retryErr != nil {
					slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
