// Package main 资产流水线执行器入口（job-worker）
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"upllyft-worksheet-api/internal/application/assets"
	"upllyft-worksheet-api/internal/config"
	"upllyft-worksheet-api/internal/infrastructure/llm"
	"upllyft-worksheet-api/internal/infrastructure/messaging"
	"upllyft-worksheet-api/internal/infrastructure/openai"
	"upllyft-worksheet-api/internal/infrastructure/persistence/postgres"
	"upllyft-worksheet-api/internal/infrastructure/persistence/redis"
	"upllyft-worksheet-api/internal/infrastructure/renderer"
	"upllyft-worksheet-api/internal/infrastructure/storage"
	wfchain "upllyft-worksheet-api/internal/workflow/chain"
	"upllyft-worksheet-api/pkg/logger"
	"upllyft-worksheet-api/pkg/tracer"

	"github.com/joho/godotenv"
)

// dlqAlertThreshold 死信队列告警阈值
const dlqAlertThreshold = 10

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	ctx := context.Background()

	shutdown, err := tracer.Init(ctx, tracer.Config{
		ServiceName: "job-worker",
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() { _ = shutdown(ctx) }()

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

	imageClient, err := openai.NewImageClient(&cfg.ImageGen)
	if err != nil {
		logger.Fatal(ctx, "failed to init image client", err)
	}
	rendererClient := renderer.NewClient(&cfg.Renderer)

	worksheetRepo := postgres.NewWorksheetRepository(pgClient)
	illustrationRepo := postgres.NewIllustrationRepository(pgClient)
	jobRepo := postgres.NewJobRepository(pgClient)
	producer := messaging.NewProducer(redisClient.Redis(), int64(cfg.Messaging.RedisStream.MaxLen))

	factory := llm.NewEinoFactory(cfg)
	sectionChain := wfchain.NewSectionRegenChain(factory)

	illustrator := assets.NewIllustrator(imageClient)
	htmlRenderer, err := assets.NewHTMLRenderer()
	if err != nil {
		logger.Fatal(ctx, "failed to init html renderer", err)
	}

	processor := assets.NewProcessor(
		worksheetRepo,
		illustrationRepo,
		jobRepo,
		illustrator,
		htmlRenderer,
		rendererClient,
		store,
		producer,
		sectionChain,
	)

	consumer := messaging.NewConsumer(redisClient.Redis(), messaging.ConsumerConfig{
		Stream:        messaging.StreamWorksheetAssets,
		Group:         messaging.ConsumerGroupAssetWorker,
		ConsumerName:  hostnameConsumerName(),
		BlockTimeout:  cfg.Messaging.RedisStream.BlockTimeout,
		ClaimInterval: cfg.Messaging.RedisStream.ClaimInterval,
		RetryLimit:    cfg.Messaging.RedisStream.RetryLimit,
		Backoff: messaging.BackoffConfig{
			Initial:    cfg.Messaging.RedisStream.RetryBackoff.Initial,
			Max:        cfg.Messaging.RedisStream.RetryBackoff.Max,
			Multiplier: cfg.Messaging.RedisStream.RetryBackoff.Multiplier,
		},
	})

	consumer.RegisterHandler(messaging.MsgTypeAssetPipeline, processor.HandleAssetPipeline)
	consumer.RegisterHandler(messaging.MsgTypeImageRegen, processor.HandleImageRegen)
	consumer.RegisterHandler(messaging.MsgTypeSectionRegen, processor.HandleSectionRegen)

	if err := consumer.Start(ctx); err != nil {
		logger.Fatal(ctx, "failed to start consumer", err)
	}

	monitorCtx, cancelMonitor := context.WithCancel(ctx)
	defer cancelMonitor()
	go consumer.MonitorDLQ(monitorCtx, dlqAlertThreshold)

	log := logger.FromContext(ctx)
	log.Info("job-worker started", "stream", messaging.StreamWorksheetAssets)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("job-worker shutting down")
	consumer.Stop()
}

func hostnameConsumerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}
