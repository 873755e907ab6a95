package main

import (
	"context"
	"log"
	"time"

	_ "github.com/playvault/game-request-api/docs"
	"github.com/playvault/game-request-api/internal/api/routes"
	"github.com/playvault/game-request-api/internal/cache"
	"github.com/playvault/game-request-api/internal/config"
	"github.com/playvault/game-request-api/internal/igdb"
	"github.com/playvault/game-request-api/internal/notify"
	"github.com/playvault/game-request-api/internal/observability"
	"github.com/playvault/game-request-api/internal/popularity"
	"github.com/playvault/game-request-api/internal/requests"
)

// @title           Game Request API
// @version         1.0
// @description     Request tracker and popularity rankings for a self-hosted game library

// @license.name  MIT

func main() {
	cfg := config.LoadConfig()

	observability.InitTracer(cfg)
	defer observability.ShutdownTracer()

	store := newCacheStore(cfg)
	defer store.Close()

	// Weights may have changed since the last run; cached results from
	// a previous configuration must not survive a restart.
	if err := store.FlushAll(context.Background()); err != nil {
		log.Printf("[CACHE] startup flush failed: %v", err)
	}

	requestStore, err := requests.NewStore(cfg.SQLitePath)
	if err != nil {
		log.Fatalf("Failed to open request database: %v", err)
	}
	defer requestStore.Close()

	catalog := igdb.NewClient(cfg)
	notifier := notify.NewTelegramNotifier(requestStore)
	requestService := requests.NewService(requestStore, notifier)

	ttl := time.Duration(cfg.CacheTTLHours) * time.Hour
	popularityService := popularity.NewService(catalog, store, cfg.Popularity, ttl)

	// Prefetch the catalog token so the first request does not pay the
	// exchange; startup survives the catalog being down.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if _, err := catalog.AccessToken(ctx); err != nil {
		log.Printf("[TOKEN] prefetch failed: %v", err)
	}
	cancel()

	if cfg.Popularity.WarmupEnabled {
		go popularityService.WarmUp(context.Background())
	}

	r := routes.SetupRouter(cfg, routes.Deps{
		Catalog:        catalog,
		CacheStore:     store,
		RequestStore:   requestStore,
		RequestService: requestService,
		Popularity:     popularityService,
		Notifier:       notifier,
	})

	log.Printf("Server listening on port %s", cfg.ServerPort)
	if err := r.Run(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func newCacheStore(cfg *config.Config) cache.Store {
	if cfg.RedisURL == "" {
		log.Println("[CACHE] REDIS_URL not set, using in-process store")
		memory := cache.NewMemoryStore(1024)
		memory.StartCleanupRoutine(10 * time.Minute)
		return memory
	}

	store, err := cache.NewRedisStore(cfg.RedisURL)
	if err != nil {
		log.Printf("[CACHE] Redis unavailable (%v), falling back to in-process store", err)
		memory := cache.NewMemoryStore(1024)
		memory.StartCleanupRoutine(10 * time.Minute)
		return memory
	}
	log.Println("[CACHE] Connected to Redis")
	return store
}
