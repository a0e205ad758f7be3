// Package main API Gateway 服务入口
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"upllyft-worksheet-api/internal/application/worksheet"
	"upllyft-worksheet-api/internal/config"
	"upllyft-worksheet-api/internal/infrastructure/llm"
	"upllyft-worksheet-api/internal/infrastructure/messaging"
	"upllyft-worksheet-api/internal/infrastructure/openai"
	"upllyft-worksheet-api/internal/infrastructure/persistence/postgres"
	"upllyft-worksheet-api/internal/infrastructure/persistence/redis"
	"upllyft-worksheet-api/internal/infrastructure/renderer"
	"upllyft-worksheet-api/internal/infrastructure/storage"
	"upllyft-worksheet-api/internal/interfaces/http/handler"
	"upllyft-worksheet-api/internal/interfaces/http/router"
	wfchain "upllyft-worksheet-api/internal/workflow/chain"
	"upllyft-worksheet-api/pkg/logger"
	"upllyft-worksheet-api/pkg/tracer"

	"github.com/joho/godotenv"
)

// Version 版本信息，构建时注入
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件（如果存在）
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger.Init(
		cfg.Observability.Logging.Level,
		cfg.Observability.Logging.Format,
	)

	ctx := context.Background()
	log := logger.FromContext(ctx)
	log.Info("starting api-gateway",
		"version", Version,
		"build_time", BuildTime,
		"env", cfg.App.Env,
	)

	// 初始化追踪
	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		log.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdown(ctx); err != nil {
			log.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// 基础设施
	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Fatal(ctx, "failed to init postgres", err)
	}
	defer func() { _ = pgClient.Close() }()

	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Fatal(ctx, "failed to init redis", err)
	}
	defer func() { _ = redisClient.Close() }()

	store, err := storage.NewGCSStore(ctx, &cfg.Storage.GCS)
	if err != nil {
		logger.Fatal(ctx, "failed to init gcs store", err)
	}
	defer func() { _ = store.Close() }()

	visionClient, err := openai.NewVisionClient(&cfg.Vision)
	if err != nil {
		logger.Fatal(ctx, "failed to init vision client", err)
	}
	rendererClient := renderer.NewClient(&cfg.Renderer)

	// 仓储与事务
	txMgr := postgres.NewTxManager(pgClient)
	worksheetRepo := postgres.NewWorksheetRepository(pgClient)
	illustrationRepo := postgres.NewIllustrationRepository(pgClient)
	jobRepo := postgres.NewJobRepository(pgClient)
	clinicalRepo := postgres.NewClinicalRepository(pgClient)
	flagRepo := postgres.NewFlagRepository(pgClient)
	reviewRepo := postgres.NewReviewRepository(pgClient)
	completionRepo := postgres.NewCompletionRepository(pgClient)

	cache := redis.NewCache(redisClient)
	rateLimiter := redis.NewRateLimiter(redisClient)
	producer := messaging.NewProducer(redisClient.Redis(), int64(cfg.Messaging.RedisStream.MaxLen))

	// LLM 工作流链
	factory := llm.NewEinoFactory(cfg)
	worksheetChain := wfchain.NewWorksheetChain(factory)
	justifyChain := wfchain.NewRecommendJustifyChain(factory)

	// 应用服务
	resolver := worksheet.NewResolver(clinicalRepo)
	generator := worksheet.NewGenerator(worksheetChain)
	service := worksheet.NewService(resolver, generator, worksheetRepo, illustrationRepo, jobRepo, txMgr, producer)
	lifecycle := worksheet.NewLifecycle(worksheetRepo, flagRepo, txMgr, producer)
	feedback := worksheet.NewFeedback(worksheetRepo, reviewRepo, completionRepo, txMgr, cache)
	versions := worksheet.NewVersions(worksheetRepo, illustrationRepo, txMgr)
	recommender := worksheet.NewRecommender(worksheetRepo, completionRepo, clinicalRepo, justifyChain, cache, cfg.Features.Recommendation.CacheTTL)
	advisor := worksheet.NewDifficultyAdvisor(completionRepo, clinicalRepo)
	reportParser := worksheet.NewReportParser(visionClient, rendererClient, store)

	// HTTP 路由
	r := router.New(cfg, router.Deps{
		Health:      handler.NewHealthHandler(pgClient, redisClient),
		Worksheet:   handler.NewWorksheetHandler(cfg, service),
		Version:     handler.NewVersionHandler(versions),
		Lifecycle:   handler.NewLifecycleHandler(lifecycle),
		Feedback:    handler.NewFeedbackHandler(feedback),
		Recommend:   handler.NewRecommendHandler(recommender, advisor),
		Report:      handler.NewReportHandler(reportParser),
		Job:         handler.NewJobHandler(service),
		RateLimiter: rateLimiter,
	})

	// 创建 HTTP 服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, cfg.Server.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
	}

	// 启动服务器
	go func() {
		log.Info("http server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}
