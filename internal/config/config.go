package config

import (
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	AppEnv   string
	HTTPAddr string

	RedisAddr     string
	RedisPassword string

	MongoURI string
	MongoDB  string

	// StorageBackend selects the persistence handler: "mongo" or "memory".
	StorageBackend string

	// EngineCmd is the external crawler engine command. The engine is an
	// opaque collaborator; it is launched per platform and streams captured
	// records back over stdout.
	EngineCmd string

	DataDir string

	WorkerConcurrency int
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func Load() Config {
	cfg := Config{
		AppEnv:        getenv("APP_ENV", "development"),
		HTTPAddr:      getenv("HTTP_ADDR", ":8000"),
		RedisAddr:     getenv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		MongoURI: getenv("MONGO_URI", "mongodb://127.0.0.1:27017"),
		MongoDB:  getenv("MONGO_DB", "media_crawler"),

		StorageBackend: getenv("STORAGE_BACKEND", "mongo"),

		EngineCmd: os.Getenv("ENGINE_CMD"),
		DataDir:   getenv("DATA_DIR", "./data"),

		WorkerConcurrency: getenvInt("WORKER_CONCURRENCY", 1),
	}
	if cfg.RedisAddr == "" {
		panic(fmt.Errorf("REDIS_ADDR is required"))
	}
	if cfg.StorageBackend != "mongo" && cfg.StorageBackend != "memory" {
		panic(fmt.Errorf("STORAGE_BACKEND must be mongo or memory, got %q", cfg.StorageBackend))
	}
	return cfg
}
