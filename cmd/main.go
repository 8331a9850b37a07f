package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"

	"mediacrawler/internal/config"
	"mediacrawler/internal/core/capture"
	"mediacrawler/internal/core/settings"
	"mediacrawler/internal/core/store"
	"mediacrawler/internal/core/store/memory"
	"mediacrawler/internal/core/task"
	"mediacrawler/internal/logger"
	"mediacrawler/internal/platform/engine"
	"mediacrawler/internal/platform/mongodb"
	rds "mediacrawler/internal/platform/redis"
	tasks "mediacrawler/internal/platform/tasks"
	"mediacrawler/internal/server"
)

func main() {
	cfg := config.Load()
	log.Printf("[mediacrawler] starting at %s (env=%s)\n", cfg.HTTPAddr, cfg.AppEnv)

	logr := logger.New("main")

	// Redis client
	redisSvc, err := rds.New(rds.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer redisSvc.Close()

	// Persistence handler
	var (
		dataStore store.Store
		mongoSvc  *mongodb.Service
	)
	if cfg.StorageBackend == "mongo" {
		mongoSvc, err = mongodb.New(context.Background(), mongodb.Options{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDB,
		})
		if err != nil {
			log.Fatal(err)
		}
		defer mongoSvc.Close(context.Background())
		dataStore = store.NewMongoStore(mongoSvc)
	} else {
		logr.LogWarn("using in-memory storage backend; data does not survive restarts")
		dataStore = memory.New()
	}

	// Asynq client and server
	taskClient := tasks.New(redisSvc)
	defer taskClient.Close()
	asynqServer := asynq.NewServer(redisSvc.AsynqRedisOpt(), asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Queues:      map[string]int{tasks.QueueCrawl: 1},
	})

	// Core services
	settingsStore := settings.NewStore()
	engineFactory := engine.NewFactory(cfg.EngineCmd, settingsStore)
	adapter := capture.NewAdapter(engineFactory)
	taskCache := task.NewRedisCache(redisSvc)
	executor := task.NewExecutor(settingsStore, adapter, dataStore, taskClient, taskCache)

	// Worker mux
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TaskTypeCrawl, executor.HandleCrawlTask)

	go func() {
		if err := asynqServer.Start(mux); err != nil {
			log.Printf("[worker] stopped: %v\n", err)
		}
	}()

	// HTTP server
	app := fiber.New(fiber.Config{
		AppName: "MediaCrawler API",
		JSONEncoder: func(v interface{}) ([]byte, error) {
			var buf bytes.Buffer
			encoder := json.NewEncoder(&buf)
			encoder.SetEscapeHTML(false)
			if err := encoder.Encode(v); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
	})

	deps := server.Dependencies{
		Executor: executor,
		Store:    dataStore,
		Cache:    taskCache,
		Redis:    redisSvc,
		Mongo:    mongoSvc,
	}
	healthHandler := server.RegisterRoutes(app, deps)

	// Mark application as ready after services settle
	go func() {
		time.Sleep(2 * time.Second)
		healthHandler.SetReady()
	}()

	// Graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-shutdown
		logr.LogInfo("shutting down...")
		if executor.IsRunning() {
			logr.LogWarn("a crawl task is still running; it will be cut short")
		}
		asynqServer.Shutdown()
		_ = app.ShutdownWithTimeout(5 * time.Second)
	}()

	if err := app.Listen(cfg.HTTPAddr); err != nil {
		log.Fatalf("server listen: %v", err)
	}
}
