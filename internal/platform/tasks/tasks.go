package tasks

import (
	"github.com/hibiken/asynq"

	"mediacrawler/internal/platform/redis"
)

const (
	// TaskTypeCrawl is the asynq task type carrying one full crawl run.
	TaskTypeCrawl = "crawl:run"

	// QueueCrawl is processed with concurrency 1 so runs never overlap.
	QueueCrawl = "crawl"
)

type Client struct{ c *asynq.Client }

func New(r *redis.Service) *Client { return &Client{c: asynq.NewClient(r.AsynqRedisOpt())} }

func (t *Client) Enqueue(task *asynq.Task, queue string, maxRetries int) error {
	_, err := t.c.Enqueue(task, asynq.Queue(queue), asynq.MaxRetry(maxRetries))
	return err
}

func (t *Client) Close() error { return t.c.Close() }
