package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/attribute"

	"upllyft-worksheet-api/internal/config"
	apperrors "upllyft-worksheet-api/pkg/errors"
	"upllyft-worksheet-api/pkg/logger"
	"upllyft-worksheet-api/pkg/metrics"
)

// ImageClient 图像生成客户端，用于工作表插图
type ImageClient struct {
	client  *openai.Client
	model   string
	size    string
	quality string
}

// NewImageClient 创建图像生成客户端
func NewImageClient(cfg *config.ImageGenConfig) (*ImageClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("imagegen api key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	return &ImageClient{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   cfg.Model,
		size:    cfg.Size,
		quality: cfg.Quality,
	}, nil
}

// Generate 按提示词生成一张插图，返回可下载的图像 URL
func (c *ImageClient) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := tracer.Start(ctx, "openai.ImageClient.Generate")
	span.SetAttributes(attribute.String("imagegen.model", c.model))
	defer span.End()

	if strings.TrimSpace(prompt) == "" {
		return "", apperrors.ErrImageGenError.WithDetail("empty prompt")
	}

	start := time.Now()
	resp, err := c.client.CreateImage(ctx, openai.ImageRequest{
		Model:          c.model,
		Prompt:         prompt,
		N:              1,
		Size:           c.size,
		Quality:        c.quality,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	metrics.LLMCallDuration.WithLabelValues("imagegen", c.model).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		metrics.LLMCallTotal.WithLabelValues("imagegen", c.model, "error").Inc()
		return "", apperrors.ErrImageGenError.WithError(err)
	}
	metrics.LLMCallTotal.WithLabelValues("imagegen", c.model, "ok").Inc()

	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		return "", apperrors.ErrImageGenError.WithDetail("image model returned no data")
	}

	logger.Debug(ctx, "illustration generated", "model", c.model, "elapsed", time.Since(start).String())
	return resp.Data[0].URL, nil
}
