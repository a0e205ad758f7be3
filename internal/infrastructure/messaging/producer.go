// Package messaging 提供消息队列实现
package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("messaging")

// Producer 消息生产者
type Producer struct {
	client *redis.Client
	maxLen int64
}

// NewProducer 创建消息生产者
func NewProducer(client *redis.Client, maxLen int64) *Producer {
	if maxLen <= 0 {
		maxLen = 100000
	}
	return &Producer{
		client: client,
		maxLen: maxLen,
	}
}

// Publish 发布消息到指定流
func (p *Producer) Publish(ctx context.Context, stream Stream, msg *Message) (string, error) {
	ctx, span := tracer.Start(ctx, "producer.Publish",
		trace.WithAttributes(
			attribute.String("stream", string(stream)),
			attribute.String("message.id", msg.ID),
			attribute.String("message.type", msg.Type),
		))
	defer span.End()

	data, err := json.Marshal(msg)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to marshal message: %w", err)
	}

	result, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: string(stream),
		MaxLen: p.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"data": string(data),
		},
	}).Result()

	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("failed to publish message: %w", err)
	}

	span.SetAttributes(attribute.String("stream.message_id", result))
	return result, nil
}

// PublishAssetJob 发布资产流水线任务
func (p *Producer) PublishAssetJob(ctx context.Context, job *AssetJobMessage) (string, error) {
	msg, err := NewMessage(job.JobID, job.JobType, job.TenantID, job.WorksheetID, job)
	if err != nil {
		return "", err
	}

	if job.IdempotencyKey != "" {
		msg.SetMetadata("idempotency_key", job.IdempotencyKey)
	}

	return p.Publish(ctx, StreamWorksheetAssets, msg)
}

// PublishWorksheetEvent 发布工作表事件
func (p *Producer) PublishWorksheetEvent(ctx context.Context, event *WorksheetEventMessage) (string, error) {
	msg, err := NewMessage(event.WorksheetID, MsgTypeWorksheetEvent, event.TenantID, event.WorksheetID, event)
	if err != nil {
		return "", err
	}

	return p.Publish(ctx, StreamWorksheetEvents, msg)
}

// AssetJobMessage 资产流水线任务消息
type AssetJobMessage struct {
	JobID          string                 `json:"job_id"`
	TenantID       string                 `json:"tenant_id"`
	WorksheetID    string                 `json:"worksheet_id"`
	JobType        string                 `json:"job_type"`
	IdempotencyKey string                 `json:"idempotency_key,omitempty"`
	Params         map[string]interface{} `json:"params,omitempty"`
}

// WorksheetEventMessage 工作表事件消息
type WorksheetEventMessage struct {
	TenantID    string                 `json:"tenant_id"`
	WorksheetID string                 `json:"worksheet_id"`
	Event       string                 `json:"event"`
	Reason      string                 `json:"reason,omitempty"`
	JobID       string                 `json:"job_id,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// 事件名称
const (
	EventAssetPipelineFailed    = "asset_pipeline_failed"
	EventAssetPipelineSucceeded = "asset_pipeline_succeeded"
	EventWorksheetFlagged       = "worksheet_flagged"
	EventWorksheetArchived      = "worksheet_archived"
)
