package server

import (
	"github.com/gofiber/fiber/v2"

	"mediacrawler/internal/core/store"
	"mediacrawler/internal/core/task"
	"mediacrawler/internal/health"
	"mediacrawler/internal/platform/mongodb"
	"mediacrawler/internal/platform/redis"
)

type Dependencies struct {
	Executor *task.Executor
	Store    store.Store
	Cache    task.SnapshotReader
	Redis    *redis.Service
	Mongo    *mongodb.Service // nil on the memory backend
}

func RegisterRoutes(app *fiber.App, d Dependencies) *health.HealthHandler {
	healthHandler := health.NewHealthHandler(d.Redis, d.Mongo)
	app.Get("/v1/health", health.HealthLimiter(), healthHandler.HandleHealth)

	api := app.Group("/v1")

	crawlHandler := task.NewHandler(d.Executor, d.Cache)
	api.Post("/crawl", crawlHandler.HandleStart)
	api.Get("/crawl", crawlHandler.HandleRunning)
	api.Get("/crawl/:taskId", crawlHandler.HandleStatus)
	api.Get("/platforms", crawlHandler.HandlePlatforms)

	dataHandler := store.NewHandler(d.Store)
	api.Get("/data/:platform", dataHandler.HandleData)
	api.Get("/stats/:platform", dataHandler.HandleStats)

	return healthHandler
}
