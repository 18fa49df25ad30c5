// Command server starts the AI interviewer HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fairyhunter13/ai-interviewer/internal/adapter/ai/openrouter"
	"github.com/fairyhunter13/ai-interviewer/internal/adapter/ai/stub"
	"github.com/fairyhunter13/ai-interviewer/internal/adapter/ai/tokencount"
	"github.com/fairyhunter13/ai-interviewer/internal/adapter/httpserver"
	"github.com/fairyhunter13/ai-interviewer/internal/adapter/observability"
	"github.com/fairyhunter13/ai-interviewer/internal/adapter/repo/postgres"
	"github.com/fairyhunter13/ai-interviewer/internal/app"
	"github.com/fairyhunter13/ai-interviewer/internal/config"
	"github.com/fairyhunter13/ai-interviewer/internal/domain"
	"github.com/fairyhunter13/ai-interviewer/internal/service/ratelimiter"
	"github.com/fairyhunter13/ai-interviewer/internal/usecase"
)

// redisAdapter adapts *redis.Client to the readiness check interface.
type redisAdapter struct{ *redis.Client }

func (r redisAdapter) Ping(ctx context.Context) app.RedisPingResult { return r.Client.Ping(ctx) }

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DBURL)
	if err != nil {
		slog.Error("db connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	candRepo := postgres.NewCandidateRepo(pool)
	msgRepo := postgres.NewMessageRepo(pool)

	if cfg.DataRetentionDays > 0 {
		cleanupSvc := postgres.NewCleanupService(pool, cfg.DataRetentionDays)
		go cleanupSvc.RunPeriodic(ctx, cfg.CleanupInterval)
		slog.Info("cleanup service started",
			slog.Int("retention_days", cfg.DataRetentionDays),
			slog.Duration("interval", cfg.CleanupInterval))
	}

	// Per-session message limiter: Redis-backed when configured so replicas
	// share one budget, in-process otherwise.
	var rdb *redis.Client
	var limiter domain.Limiter
	if cfg.RedisURL != "" {
		opts, perr := redis.ParseURL(cfg.RedisURL)
		if perr != nil {
			slog.Error("invalid redis url", slog.Any("error", perr))
			os.Exit(1)
		}
		rdb = redis.NewClient(opts)
		defer func() { _ = rdb.Close() }()
		limiter = ratelimiter.NewRedisLuaLimiter(rdb, ratelimiter.NewBucketConfigFromPerMinute(cfg.SessionRatePerMin))
		slog.Info("session limiter using redis", slog.Int("per_minute", cfg.SessionRatePerMin))
	} else {
		limiter = ratelimiter.NewMemoryLimiter(cfg.SessionRatePerMin, time.Minute)
		slog.Info("session limiter in-memory", slog.Int("per_minute", cfg.SessionRatePerMin))
	}

	var aiClient domain.AIClient
	if cfg.OpenRouterAPIKey != "" {
		aiClient = openrouter.New(cfg)
		slog.Info("ai client initialized", slog.String("provider", "openrouter"), slog.String("model", cfg.ChatModel))
	} else {
		aiClient = stub.New()
		slog.Warn("OPENROUTER_API_KEY not set, using deterministic stub ai client")
	}

	interviewCfg, err := config.LoadInterviewConfig(cfg.InterviewConfigPath)
	if err != nil {
		slog.Error("interview config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	questions := &usecase.QuestionGenerator{
		AI:          aiClient,
		Model:       cfg.ChatModel,
		Temperature: cfg.ChatTemperature,
		MaxTokens:   cfg.ChatMaxTokens,
		TokenBudget: cfg.PromptTokenBudget,
		Fallbacks:   interviewCfg.FallbackQuestions,
		Counter:     tokencount.NewCounter(),
		OnFallback: func(stage string) {
			observability.QuestionFallbacksTotal.WithLabelValues(stage).Inc()
		},
	}

	techLimit := cfg.TechQuestionLimit
	if interviewCfg.TechQuestionLimit > 0 {
		techLimit = interviewCfg.TechQuestionLimit
	}
	behavioralLimit := cfg.BehavioralQuestionLimit
	if interviewCfg.BehavioralQuestionLimit > 0 {
		behavioralLimit = interviewCfg.BehavioralQuestionLimit
	}

	engine := usecase.NewEngine(
		usecase.NewStagePolicy(techLimit, behavioralLimit),
		questions,
		usecase.WithStores(candRepo, msgRepo),
		usecase.WithLimiter(limiter),
		usecase.WithMaxMessageLen(cfg.MessageMaxLen),
	)
	engine.OnStageTransition = func(from, to string) {
		observability.StageTransitionsTotal.WithLabelValues(from, to).Inc()
	}

	var rc app.RedisClient
	if rdb != nil {
		rc = redisAdapter{rdb}
	}
	dbCheck, redisCheck := app.BuildReadinessChecks(pool, rc)

	srv := httpserver.NewServer(cfg, engine, candRepo, msgRepo, dbCheck, redisCheck)
	handler := app.BuildRouter(cfg, srv)

	srvHTTP := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server starting", slog.Int("port", cfg.Port))
		errCh <- srvHTTP.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", slog.Any("error", err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ServerShutdownTimeout)
	defer cancel()
	_ = srvHTTP.Shutdown(shutdownCtx)
}
