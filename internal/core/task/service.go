package task

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"mediacrawler/internal/core/capture"
	"mediacrawler/internal/core/settings"
	"mediacrawler/internal/core/store"
	"mediacrawler/internal/logger"
	"mediacrawler/internal/platform/tasks"
)

// Pacing between executions. The engine is rate- and detection-sensitive, so
// spacing is deliberate backpressure, not an incidental delay.
const (
	platformSleepMin = 60 * time.Second
	platformSleepMax = 120 * time.Second
	roundSleepMin    = 300 * time.Second
	roundSleepMax    = 600 * time.Second
)

// Enqueuer detaches the background execution unit. Satisfied by tasks.Client.
type Enqueuer interface {
	Enqueue(task *asynq.Task, queue string, maxRetries int) error
}

// SnapshotCache receives task snapshots on every transition, best-effort.
type SnapshotCache interface {
	Put(ctx context.Context, t Task)
}

// Executor is the single-flight scheduler. It retains only the most recent
// task; the slot is the one piece of shared mutable state and is written only
// during admission and terminal cleanup.
type Executor struct {
	mu      sync.Mutex
	current *Task

	settings *settings.Store
	adapter  *capture.Adapter
	store    store.Store
	enq      Enqueuer
	cache    SnapshotCache
	log      *logger.Logger

	// sleep is context-aware and replaceable in tests.
	sleep func(ctx context.Context, d time.Duration)
}

func NewExecutor(st *settings.Store, adapter *capture.Adapter, s store.Store, enq Enqueuer, cache SnapshotCache) *Executor {
	return &Executor{
		settings: st,
		adapter:  adapter,
		store:    s,
		enq:      enq,
		cache:    cache,
		log:      logger.New("TaskExecutor"),
		sleep:    sleepCtx,
	}
}

// Submit admits a run and detaches its execution. Never blocks on the crawl:
// it returns the task id as soon as the run is queued.
func (s *Executor) Submit(ctx context.Context, req Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	s.mu.Lock()
	if s.current != nil && !s.current.Status.Terminal() {
		s.mu.Unlock()
		return "", ErrBusy
	}
	id := req.TaskID
	if id == "" {
		id = uuid.New().String()
	}
	t := &Task{
		TaskID:      id,
		Status:      StatusPending,
		TotalRounds: len(req.KeywordGroups),
	}
	s.current = t
	snap := *t
	s.mu.Unlock()

	body, err := json.Marshal(payload{TaskID: id, Request: req})
	if err != nil {
		s.release(id)
		return "", fmt.Errorf("marshal crawl payload: %w", err)
	}
	// MaxRetry 0: a failed run must not silently re-run the whole schedule.
	if err := s.enq.Enqueue(asynq.NewTask(tasks.TaskTypeCrawl, body), tasks.QueueCrawl, 0); err != nil {
		s.release(id)
		return "", fmt.Errorf("enqueue crawl task: %w", err)
	}

	s.cachePut(ctx, snap)
	s.log.LogInfof("task %s admitted: platforms=%v rounds=%d", id, req.Platforms, t.TotalRounds)
	return id, nil
}

// Status returns a snapshot of the tracked task. Only the most recent task
// is retained; anything else is ErrNotFound.
func (s *Executor) Status(taskID string) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil || s.current.TaskID != taskID {
		return nil, ErrNotFound
	}
	snap := *s.current
	return &snap, nil
}

// Current returns the tracked task snapshot, or nil.
func (s *Executor) Current() *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	snap := *s.current
	return &snap
}

func (s *Executor) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil && s.current.Status == StatusRunning
}

// HandleCrawlTask is the asynq handler that owns the background run.
func (s *Executor) HandleCrawlTask(ctx context.Context, at *asynq.Task) error {
	var p payload
	if err := json.Unmarshal(at.Payload(), &p); err != nil {
		return fmt.Errorf("unmarshal crawl payload: %w", err)
	}

	s.mu.Lock()
	t := s.current
	s.mu.Unlock()
	if t == nil || t.TaskID != p.TaskID {
		// slot was torn down between enqueue and pickup; nothing to run
		s.log.LogWarnf("task %s no longer tracked, dropping", p.TaskID)
		return nil
	}

	s.run(ctx, p.Request, t)
	return nil
}

// run iterates rounds and platforms strictly in request order. The slot is
// released on every exit path; a panic escaping the loop structure marks the
// task failed first.
func (s *Executor) run(ctx context.Context, req Request, t *Task) {
	defer s.release(t.TaskID)
	defer func() {
		if r := recover(); r != nil {
			s.finish(t, StatusFailed, fmt.Sprintf("%v", r))
		}
	}()

	now := time.Now()
	s.update(t, func(t *Task) {
		t.Status = StatusRunning
		t.StartTime = &now
	})
	s.log.LogInfof("=== task %s started: %d rounds over %v ===", t.TaskID, t.TotalRounds, req.Platforms)

	for i, group := range req.KeywordGroups {
		round := i + 1
		if err := ctx.Err(); err != nil {
			s.finish(t, StatusFailed, err.Error())
			return
		}

		s.update(t, func(t *Task) { t.CurrentRound = round })
		s.log.LogInfof("task %s round %d/%d keywords=%v", t.TaskID, round, t.TotalRounds, group)

		for j, code := range req.Platforms {
			s.update(t, func(t *Task) { t.CurrentPlatform = code })
			s.runPlatform(ctx, t, round, code, group, req.Config)

			if j < len(req.Platforms)-1 {
				s.pause(ctx, platformSleepMin, platformSleepMax, "platform")
			}
		}

		s.update(t, func(t *Task) {
			t.Progress = float64(round) / float64(t.TotalRounds) * 100
		})

		if round < t.TotalRounds {
			s.pause(ctx, roundSleepMin, roundSleepMax, "round")
		}
	}

	s.finish(t, StatusCompleted, "")
}

// runPlatform scopes one platform's execution: settings transaction, capture,
// persistence, indexes. A failing platform is contained here; it never
// aborts the round or the task.
func (s *Executor) runPlatform(ctx context.Context, t *Task, round int, code string, keywords []string, cfg settings.Config) {
	tx := s.settings.Begin(code, keywords, cfg)
	defer tx.Restore()
	defer func() {
		if r := recover(); r != nil {
			s.log.LogErrorf("task %s: platform %s panicked: %v", t.TaskID, code, r)
		}
	}()

	pctx := settings.WithCrawlerType(ctx, s.settings.Current().CrawlerType)
	result := s.adapter.Run(pctx, code, keywords)

	if result.Success {
		meta := store.Metadata{
			TaskID:    t.TaskID,
			Round:     round,
			Keywords:  keywords,
			CrawlTime: time.Now(),
		}
		saved := s.store.SaveBatch(ctx, code, result.Posts, result.Comments, meta)
		s.log.LogInfof("task %s: saved %d posts for %s", t.TaskID, saved, code)
	} else {
		s.log.LogErrorf("task %s: platform %s failed: %s", t.TaskID, code, result.Err)
	}

	if err := s.store.EnsureIndexes(ctx, code); err != nil {
		s.log.LogErrorf("task %s: ensure indexes for %s: %v", t.TaskID, code, err)
	}
}

func (s *Executor) finish(t *Task, status Status, errMsg string) {
	now := time.Now()
	s.update(t, func(t *Task) {
		if t.Status.Terminal() {
			return // already finished (panic after finish)
		}
		t.Status = status
		t.EndTime = &now
		if status == StatusCompleted {
			t.Progress = 100.0
		} else {
			t.ErrorMessage = errMsg
		}
	})
	if status == StatusCompleted {
		s.log.LogInfof("=== task %s completed ===", t.TaskID)
	} else {
		s.log.LogErrorf("=== task %s failed: %s ===", t.TaskID, errMsg)
	}
}

// release clears the tracked-task slot, mutually exclusive with admission.
func (s *Executor) release(taskID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil && s.current.TaskID == taskID {
		s.current = nil
	}
}

func (s *Executor) update(t *Task, fn func(*Task)) {
	s.mu.Lock()
	fn(t)
	snap := *t
	s.mu.Unlock()
	s.cachePut(context.Background(), snap)
}

func (s *Executor) cachePut(ctx context.Context, snap Task) {
	if s.cache != nil {
		s.cache.Put(ctx, snap)
	}
}

func (s *Executor) pause(ctx context.Context, min, max time.Duration, between string) {
	d := jitter(min, max)
	s.log.LogInfof("sleeping %s before next %s", d.Round(time.Second), between)
	s.sleep(ctx, d)
}

func jitter(min, max time.Duration) time.Duration {
	return min + time.Duration(rand.Int63n(int64(max-min)))
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
