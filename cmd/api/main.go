package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"redline/api/internal/app"
	"redline/api/internal/blob"
	"redline/api/internal/cache"
	"redline/api/internal/compare"
	"redline/api/internal/config"
	"redline/api/internal/docrepo"
	"redline/api/internal/export"
	"redline/api/internal/search"
	"redline/api/internal/store"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	db, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	if err := store.Migrate(ctx, db); err != nil {
		log.Fatalf("migrations failed: %v", err)
	}

	if err := os.MkdirAll(cfg.ReposDir, 0o755); err != nil {
		log.Fatalf("failed to create agreements dir: %v", err)
	}

	archive := store.NewPostgresStore(db)
	repoService := docrepo.New(cfg.ReposDir)

	engine := compare.NewEngine(compare.Config{
		MinMatchScore: cfg.MatchThreshold,
		TieEpsilon:    cfg.TieEpsilon,
	})

	var cacheStore cache.Store
	if strings.TrimSpace(cfg.RedisURL) != "" {
		log.Printf("Using Redis for the snapshot cache")
		redisStore, err := cache.NewRedisStore(cfg.RedisURL, cfg.SnapshotTTL)
		if err != nil {
			log.Fatalf("redis connection failed: %v", err)
		}
		defer redisStore.Close()
		cacheStore = redisStore
	} else {
		log.Printf("Using in-process memory for the snapshot cache")
		cacheStore = cache.NewMemoryStore()
	}
	snapshots := cache.New(cacheStore, engine)

	pgfts := search.NewPgFTS(db)
	var meiliClient *search.Meili
	if strings.TrimSpace(cfg.MeiliURL) != "" {
		meiliClient = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey)
		defer meiliClient.Close()
	}
	searchService := search.NewService(meiliClient, pgfts)
	searchService.ReindexAllFromPG(ctx)

	var blobStore *blob.Store
	if strings.TrimSpace(cfg.MinioEndpoint) != "" {
		blobStore, err = blob.New(ctx, cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL)
		if err != nil {
			log.Fatalf("object storage connection failed: %v", err)
		}
	}

	service := app.New(cfg, app.Deps{
		Cache:   snapshots,
		Archive: archive,
		Repo:    repoService,
		Search:  searchService,
		Export:  export.NewService(archive),
		Blobs:   blobStore,
	})

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Redline API listening on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
