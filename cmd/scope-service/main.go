// cmd/scope-service/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"renovation-scope/internal/api"
	"renovation-scope/internal/casestore"
	"renovation-scope/internal/common/camunda"
	"renovation-scope/internal/common/config"
	"renovation-scope/internal/common/database"
	"renovation-scope/internal/common/logger"
	"renovation-scope/internal/common/observability"
	"renovation-scope/internal/scope/genai"
	"renovation-scope/internal/scope/knowledge"
	"renovation-scope/internal/scope/pipeline"
	scopegenerate "renovation-scope/internal/workers/renovation/scope-generate"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting scope service...",
		zap.String("environment", cfg.App.Environment),
		zap.String("version", cfg.App.Version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs, err := observability.New(cfg.App.Name, promclient.DefaultRegisterer)
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}
	defer obs.Shutdown(context.Background())

	// --- Case store ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	checks := map[string]api.Check{"postgres": pg.Ping}

	// --- Case cache (optional) ---
	redisClient := database.NewRedis(cfg.Database.Redis)
	if redisClient != nil {
		if err := redisClient.Ping(ctx); err != nil {
			zapLog.Warn("redis unreachable, case lookups bypass the cache until it recovers", zap.Error(err))
		}
		defer redisClient.Close()
		checks["redis"] = redisClient.Ping
	}

	var cases casestore.CaseStore = casestore.NewPostgresStore(pg.DB, cfg.Scope.CaseTable)
	if redisClient != nil {
		cases = casestore.NewCachedStore(cases, redisClient.Client, config.GetDuration(cfg.Scope.CaseCacheTTL), log)
	}

	// --- Document index (optional) ---
	var docs casestore.DocumentSource
	esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	if err != nil {
		zapLog.Fatal("elasticsearch client failed", zap.Error(err))
	}
	if esClient != nil {
		docs = casestore.NewDocumentIndex(esClient.Client, cfg.Scope.DocumentIndex)
		checks["elasticsearch"] = esClient.Ping
	}

	// --- Pipeline ---
	kb, err := knowledge.Default()
	if err != nil {
		zapLog.Fatal("knowledge tables invalid", zap.Error(err))
	}

	client := genai.New(cfg.APIs.GenAI, log)
	if client == nil {
		zapLog.Warn("no generation credential configured, every action uses its fallback path")
	}

	dispatcher := pipeline.New(
		casestore.NewLoader(cases, docs, log),
		kb,
		client,
		log,
		pipeline.WithObservability(obs),
	)

	// --- Zeebe worker (optional) ---
	var scopeWorker *scopegenerate.Handler
	if cfg.Camunda.BrokerAddress != "" && config.IsWorkerEnabled(cfg, config.ScopeWorkerName) {
		zeebe, err := camunda.NewClient(ctx, camunda.ConfigFrom(cfg.Camunda), log)
		if err != nil {
			zapLog.Fatal("zeebe client failed", zap.Error(err))
		}
		defer zeebe.Close()
		checks["zeebe"] = zeebe.HealthCheck

		scopeWorker, err = scopegenerate.NewHandler(scopegenerate.HandlerOptions{
			AppConfig:  cfg,
			Camunda:    zeebe,
			Dispatcher: dispatcher,
			Logger:     log,
		})
		if err != nil {
			zapLog.Fatal("scope worker config invalid", zap.Error(err))
		}
		if err := scopeWorker.Register(); err != nil {
			zapLog.Fatal("scope worker registration failed", zap.Error(err))
		}
	}

	// --- HTTP surface ---
	router := api.NewRouter(api.RouterConfig{
		ScopeHandler:   api.NewScopeHandler(dispatcher),
		HealthHandler:  api.NewHealthHandler(checks),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Logger:         log,
	})
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping...")

	if scopeWorker != nil {
		scopeWorker.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}
	zapLog.Info("Scope service stopped")
}
