package store

import (
	"github.com/gofiber/fiber/v2"

	"mediacrawler/internal/core/platform"
	"mediacrawler/internal/logger"
)

type Handler struct {
	store Store
	log   *logger.Logger
}

func NewHandler(s Store) *Handler {
	return &Handler{store: s, log: logger.New("DataHandler")}
}

// HandleData returns persisted documents for one platform with pagination.
func (h *Handler) HandleData(c *fiber.Ctx) error {
	code := c.Params("platform")
	if !platform.Supported(code) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unsupported platform: " + code})
	}

	limit := int64(c.QueryInt("limit", 100))
	skip := int64(c.QueryInt("skip", 0))
	if limit <= 0 {
		limit = 100
	}
	if skip < 0 {
		skip = 0
	}

	docs, err := h.store.Posts(c.Context(), code, limit, skip)
	if err != nil {
		h.log.LogErrorf("get data for %s: %v", code, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{
		"platform": code,
		"count":    len(docs),
		"data":     docs,
	})
}

// HandleStats returns aggregate counts for one platform.
func (h *Handler) HandleStats(c *fiber.Ctx) error {
	code := c.Params("platform")
	if !platform.Supported(code) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unsupported platform: " + code})
	}

	stats, err := h.store.Stats(c.Context(), code)
	if err != nil {
		h.log.LogErrorf("get stats for %s: %v", code, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(stats)
}
