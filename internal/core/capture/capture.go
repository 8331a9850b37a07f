// Package capture runs the external crawler engine for one platform and
// collects its output in memory instead of letting it write to storage. The
// engine persists through a pluggable Sink; the adapter supplies a collector
// so nothing reaches durable storage until the run decides to keep it.
package capture

import (
	"context"
	"fmt"
	"sync"

	"mediacrawler/internal/core/store"
	"mediacrawler/internal/logger"
)

// Sink receives one post with its comments as the crawler produces them.
type Sink interface {
	Save(ctx context.Context, post store.Post, comments []store.Comment) error
}

// Crawler is one launched engine instance for a single platform.
type Crawler interface {
	// Start runs the crawl to completion, feeding every record to sink.
	Start(ctx context.Context, sink Sink) error
	// Close releases held resources (browser session, subprocess).
	Close(ctx context.Context) error
}

// Factory creates crawler instances per platform code.
type Factory interface {
	Create(platform string) (Crawler, error)
}

// Result is the in-memory outcome of one platform's crawl.
type Result struct {
	Posts    []store.Post
	Comments map[string][]store.Comment
	Success  bool
	Err      string
}

// Adapter contains crawler failures: Run never returns an error and never
// panics outward. Any engine failure yields Success=false with empty output.
type Adapter struct {
	factory Factory
	log     *logger.Logger
}

func NewAdapter(factory Factory) *Adapter {
	return &Adapter{factory: factory, log: logger.New("CaptureAdapter")}
}

func (a *Adapter) Run(ctx context.Context, platformCode string, keywords []string) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			a.log.LogErrorf("crawl panicked for %s: %v", platformCode, r)
			res = failure(fmt.Sprintf("%v", r))
		}
	}()

	a.log.LogInfof("starting crawl for %s with keywords %v", platformCode, keywords)

	crawler, err := a.factory.Create(platformCode)
	if err != nil {
		a.log.LogErrorf("create crawler for %s: %v", platformCode, err)
		return failure(err.Error())
	}

	col := newCollector(platformCode, a.log)
	startErr := crawler.Start(ctx, col)
	if closeErr := crawler.Close(ctx); closeErr != nil {
		// resource release errors are swallowed
		a.log.LogDebugf("close crawler for %s: %v", platformCode, closeErr)
	}
	if startErr != nil {
		a.log.LogErrorf("crawl failed for %s: %v", platformCode, startErr)
		return failure(startErr.Error())
	}

	a.log.LogInfof("crawl completed for %s: %d posts captured", platformCode, len(col.posts))
	return Result{Posts: col.posts, Comments: col.comments, Success: true}
}

func failure(msg string) Result {
	return Result{Comments: map[string][]store.Comment{}, Err: msg}
}

// collector is the capture sink. It groups comments by derived post id and
// drops records that carry no id, since they could never be persisted.
type collector struct {
	mu       sync.Mutex
	platform string
	log      *logger.Logger
	posts    []store.Post
	comments map[string][]store.Comment
}

func newCollector(platform string, log *logger.Logger) *collector {
	return &collector{
		platform: platform,
		log:      log,
		comments: make(map[string][]store.Comment),
	}
}

func (c *collector) Save(ctx context.Context, post store.Post, comments []store.Comment) error {
	postID := store.PostID(post)
	if postID == "" {
		c.log.LogWarnf("dropping record without id on %s", c.platform)
		return nil
	}

	c.mu.Lock()
	c.posts = append(c.posts, post)
	c.comments[postID] = comments
	c.mu.Unlock()

	c.log.LogDebugf("captured post %s/%s (%d comments)", c.platform, postID, len(comments))
	return nil
}
