package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/skillbridge-matcher/api/swagger"
	"github.com/noah-isme/skillbridge-matcher/internal/embedding"
	"github.com/noah-isme/skillbridge-matcher/internal/handler"
	"github.com/noah-isme/skillbridge-matcher/internal/matching"
	internalmiddleware "github.com/noah-isme/skillbridge-matcher/internal/middleware"
	"github.com/noah-isme/skillbridge-matcher/internal/repository"
	"github.com/noah-isme/skillbridge-matcher/internal/service"
	"github.com/noah-isme/skillbridge-matcher/pkg/cache"
	"github.com/noah-isme/skillbridge-matcher/pkg/config"
	"github.com/noah-isme/skillbridge-matcher/pkg/database"
	"github.com/noah-isme/skillbridge-matcher/pkg/jobs"
	"github.com/noah-isme/skillbridge-matcher/pkg/logger"
	corsmiddleware "github.com/noah-isme/skillbridge-matcher/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/skillbridge-matcher/pkg/middleware/requestid"
)

// @title SkillBridge Matcher API
// @version 1.0.0
// @description Skill-exchange matching and skill search
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !cfg.Database.Enabled {
		logr.Fatal("matcher-api reads profiles from Postgres; set DB_ENABLED=true")
	}
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	metrics := service.NewMetricsService()
	profileRepo := repository.NewUserProfileRepository(db)
	matchRepo := repository.NewMatchRepository(db)
	checks := map[string]handler.Pinger{"database": profileRepo}

	var vectorStore embedding.VectorStore
	if cfg.Redis.Enabled {
		var client *redis.Client
		client, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, embedding cache disabled", zap.Error(err))
		} else {
			vectorCache := repository.NewVectorCacheRepository(client, "skillbridge", logr)
			defer vectorCache.Close() //nolint:errcheck
			vectorStore = vectorCache
			checks["redis"] = vectorCache
		}
	}

	provider, err := embedding.New(embedding.Config{
		Provider:     cfg.Embedding.Provider,
		URL:          cfg.Embedding.URL,
		Timeout:      cfg.Embedding.Timeout,
		Dimensions:   cfg.Embedding.Dimensions,
		RateLimit:    cfg.Embedding.RateLimit,
		CacheEnabled: cfg.Embedding.CacheEnabled,
		CacheTTL:     cfg.Embedding.CacheTTL,
		Observer:     metrics,
	}, vectorStore, logr)
	if err != nil {
		logr.Fatal("failed to init embedding provider", zap.Error(err))
	}
	provider = service.InstrumentProvider(provider, metrics)

	validate := validator.New()
	policy := matching.Policy{
		OverlapWeight:       cfg.Matching.OverlapWeight,
		SimilarityWeight:    cfg.Matching.SimilarityWeight,
		RatingWeight:        cfg.Matching.RatingWeight,
		TimezoneMaxScore:    cfg.Matching.TimezoneMaxScore,
		SimilarityThreshold: cfg.Matching.SimilarityThreshold,
	}

	var worker *service.MatchRunWorker
	var matchingSvc *service.MatchingService
	queue := jobs.NewQueue("match-runs", func(ctx context.Context, job jobs.Job) error {
		return worker.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:       cfg.Workers.Concurrency,
		MaxRetries:    cfg.Workers.Retries,
		RetryDelay:    2 * time.Second,
		MaxRetryDelay: 30 * time.Second,
		JobTimeout:    cfg.Matching.RunTimeout,
		OnGiveUp: func(job jobs.Job, err error) {
			matchingSvc.MarkFailed(job, err)
		},
		Logger: logr.Named("queue"),
	})

	matchingSvc = service.NewMatchingService(profileRepo, matchRepo, matching.NewEngine(logr.Named("matching")), provider, queue, metrics, validate, logr, service.MatchingServiceConfig{
		Policy:          policy,
		DefaultStrategy: cfg.Matching.Strategy,
		RunTimeout:      cfg.Matching.RunTimeout,
		ResultTTL:       cfg.Matching.ResultTTL,
		PersistResults:  cfg.Matching.PersistResults,
	})
	worker = service.NewMatchRunWorker(matchingSvc, logr)
	searchSvc := service.NewSearchService(profileRepo, provider, metrics, validate, logr, service.SearchServiceConfig{
		Threshold:      &cfg.Search.Threshold,
		Limit:          cfg.Search.Limit,
		MaxQueryLength: cfg.Search.MaxQueryLength,
	})

	if err := metrics.TrackQueue("match-runs", queue.Stats); err != nil {
		logr.Warn("queue metrics not registered", zap.Error(err))
	}
	queue.Start(ctx)
	defer queue.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics, checks)
	matchingHandler := handler.NewMatchingHandler(matchingSvc)
	searchHandler := handler.NewSearchHandler(searchSvc)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/metrics/summary", metricsHandler.Summary)
	api.POST("/matches/runs", matchingHandler.CreateRun)
	api.GET("/matches/runs/:id", matchingHandler.GetRun)
	api.GET("/users/:id/matches", matchingHandler.UserMatches)
	api.POST("/compute-match", searchHandler.ComputeMatch)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "provider", provider.Name())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
	logr.Info("server stopped")
}
