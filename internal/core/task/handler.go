package task

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"mediacrawler/internal/core/platform"
	"mediacrawler/internal/logger"
)

// SnapshotReader recovers snapshots of tasks the executor no longer tracks.
// Satisfied by RedisCache.
type SnapshotReader interface {
	Get(ctx context.Context, taskID string) (*Task, error)
}

type Handler struct {
	exec  *Executor
	cache SnapshotReader
	log   *logger.Logger
}

func NewHandler(exec *Executor, cache SnapshotReader) *Handler {
	return &Handler{exec: exec, cache: cache, log: logger.New("CrawlHandler")}
}

// HandleStart admits a new crawl run. 423 while another run is active, 400
// for malformed requests.
func (h *Handler) HandleStart(c *fiber.Ctx) error {
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}

	id, err := h.exec.Submit(c.Context(), req)
	if err != nil {
		if errors.Is(err, ErrBusy) {
			return c.Status(fiber.StatusLocked).JSON(fiber.Map{
				"error":        err.Error(),
				"current_task": h.exec.Current(),
			})
		}
		if errors.Is(err, ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		h.log.LogErrorf("start crawl: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(StartResponse{
		TaskID:      id,
		Status:      "started",
		Message:     "crawl task started successfully",
		Platforms:   req.Platforms,
		TotalRounds: len(req.KeywordGroups),
	})
}

// HandleStatus returns the tracked task snapshot. Finished tasks drop out of
// the executor, so the snapshot cache is consulted before giving up.
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	id := c.Params("taskId")
	t, err := h.exec.Status(id)
	if err != nil && h.cache != nil {
		t, err = h.cache.Get(c.Context(), id)
	}
	if err != nil || t == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "task not found or expired"})
	}
	return c.JSON(t)
}

// HandleRunning reports whether a run is active.
func (h *Handler) HandleRunning(c *fiber.Ctx) error {
	return c.JSON(RunningResponse{
		IsRunning:   h.exec.IsRunning(),
		CurrentTask: h.exec.Current(),
	})
}

// HandlePlatforms lists the supported platform codes.
func (h *Handler) HandlePlatforms(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"platforms": platform.List()})
}
