// Package openai 封装 OpenAI 兼容的视觉与图像生成客户端
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"upllyft-worksheet-api/internal/config"
	apperrors "upllyft-worksheet-api/pkg/errors"
	"upllyft-worksheet-api/pkg/logger"
	"upllyft-worksheet-api/pkg/metrics"
)

var tracer = otel.Tracer("openai")

// VisionClient 视觉模型客户端，用于报告解析
type VisionClient struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewVisionClient 创建视觉客户端
func NewVisionClient(cfg *config.VisionConfig) (*VisionClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("vision api key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	return &VisionClient{
		client:    openai.NewClientWithConfig(clientConfig),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// ExtractFromPages 将多页图像与抽取指令合并为一次视觉调用
// pageURLs 为逐页展平后的整页图像地址，返回模型原始文本
func (c *VisionClient) ExtractFromPages(ctx context.Context, pageURLs []string, instruction string) (string, error) {
	ctx, span := tracer.Start(ctx, "openai.VisionClient.ExtractFromPages")
	span.SetAttributes(
		attribute.Int("vision.page_count", len(pageURLs)),
		attribute.String("vision.model", c.model),
	)
	defer span.End()

	if len(pageURLs) == 0 {
		return "", apperrors.ErrReportParseFailed.WithDetail("no page images provided")
	}

	parts := make([]openai.ChatMessagePart, 0, len(pageURLs)+1)
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeText,
		Text: instruction,
	})
	for _, url := range pageURLs {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    url,
				Detail: openai.ImageURLDetailHigh,
			},
		})
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: parts,
			},
		},
	})
	metrics.LLMCallDuration.WithLabelValues("vision", c.model).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		metrics.LLMCallTotal.WithLabelValues("vision", c.model, "error").Inc()
		return "", apperrors.ErrLLMProviderError.WithError(err)
	}
	metrics.LLMCallTotal.WithLabelValues("vision", c.model, "ok").Inc()

	if len(resp.Choices) == 0 {
		return "", apperrors.ErrReportParseFailed.WithDetail("vision model returned no choices")
	}

	logger.Info(ctx, "vision extraction completed",
		"pages", len(pageURLs),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)
	metrics.LLMTokensUsed.WithLabelValues("vision", c.model, "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.LLMTokensUsed.WithLabelValues("vision", c.model, "completion").Add(float64(resp.Usage.CompletionTokens))

	return resp.Choices[0].Message.Content, nil
}
