package task

import (
	"errors"
	"fmt"
	"time"

	"mediacrawler/internal/core/platform"
	"mediacrawler/internal/core/settings"
)

// Status of a crawl task. Pending is instantaneous; terminal states are
// absorbing.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

func (s Status) Terminal() bool { return s == StatusCompleted || s == StatusFailed }

// Task is one execution of the full multi-round, multi-platform schedule.
// Mutated only by the owning background run; pollers get copies.
type Task struct {
	TaskID          string     `json:"task_id"`
	Status          Status     `json:"status"`
	TotalRounds     int        `json:"total_rounds"`
	CurrentRound    int        `json:"current_round"`
	CurrentPlatform string     `json:"current_platform,omitempty"`
	Progress        float64    `json:"progress"`
	ErrorMessage    string     `json:"error_message,omitempty"`
	StartTime       *time.Time `json:"start_time,omitempty"`
	EndTime         *time.Time `json:"end_time,omitempty"`
}

// Request describes one crawl run: which platforms, one keyword group per
// round, and the scraper configuration applied for every platform execution.
type Request struct {
	Platforms     []string        `json:"platforms"`
	KeywordGroups [][]string      `json:"keyword_groups"`
	Config        settings.Config `json:"config"`
	TaskID        string          `json:"task_id,omitempty"`
	TaskName      string          `json:"task_name,omitempty"`
}

var (
	// ErrBusy means another run occupies the single task slot.
	ErrBusy = errors.New("another task is currently running")

	// ErrNotFound means the task id does not match the tracked task.
	ErrNotFound = errors.New("task not found")

	// ErrInvalidRequest wraps request validation failures.
	ErrInvalidRequest = errors.New("invalid crawl request")
)

// Validate rejects requests before any task state is created.
func (r Request) Validate() error {
	if len(r.Platforms) == 0 {
		return fmt.Errorf("%w: at least one platform is required", ErrInvalidRequest)
	}
	for _, code := range r.Platforms {
		if !platform.Supported(code) {
			return fmt.Errorf("%w: unsupported platform %q (valid: %v)", ErrInvalidRequest, code, platform.Codes())
		}
	}
	if len(r.KeywordGroups) == 0 {
		return fmt.Errorf("%w: at least one keyword group is required", ErrInvalidRequest)
	}
	hasKeyword := false
	for _, group := range r.KeywordGroups {
		if len(group) > 0 {
			hasKeyword = true
			break
		}
	}
	if !hasKeyword {
		return fmt.Errorf("%w: at least one non-empty keyword group is required", ErrInvalidRequest)
	}
	return nil
}

// payload is what travels through the task queue.
type payload struct {
	TaskID  string  `json:"task_id"`
	Request Request `json:"request"`
}

// StartResponse is returned by the start endpoint.
type StartResponse struct {
	TaskID      string   `json:"task_id"`
	Status      string   `json:"status"`
	Message     string   `json:"message"`
	Platforms   []string `json:"platforms"`
	TotalRounds int      `json:"total_rounds"`
}

// RunningResponse is returned by the is-running endpoint.
type RunningResponse struct {
	IsRunning   bool  `json:"is_running"`
	CurrentTask *Task `json:"current_task"`
}
