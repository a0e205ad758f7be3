// Package service 提供领域层的横切辅助能力
package service

import (
	"context"
	"strings"
)

type llmCtxKey string

const (
	llmCtxKeyWorkflow llmCtxKey = "llm_workflow"
	llmCtxKeyProvider llmCtxKey = "llm_provider"
)

func withTag(ctx context.Context, key llmCtxKey, value string) context.Context {
	if ctx == nil {
		return nil
	}
	v := strings.TrimSpace(value)
	if v == "" {
		return ctx
	}
	return context.WithValue(ctx, key, v)
}

func tagFromContext(ctx context.Context, key llmCtxKey) string {
	if ctx == nil {
		return "unknown"
	}
	s, ok := ctx.Value(key).(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return strings.TrimSpace(s)
}

// WithWorkflow 在 ctx 中标记当前 LLM 工作流名称，用于日志与指标归因
func WithWorkflow(ctx context.Context, workflow string) context.Context {
	return withTag(ctx, llmCtxKeyWorkflow, workflow)
}

// WithProvider 在 ctx 中标记当前 LLM 提供方
func WithProvider(ctx context.Context, provider string) context.Context {
	return withTag(ctx, llmCtxKeyProvider, provider)
}

// WithWorkflowProvider 同时标记工作流与提供方
func WithWorkflowProvider(ctx context.Context, workflow, provider string) context.Context {
	return WithProvider(WithWorkflow(ctx, workflow), provider)
}

// WorkflowFromContext 读取工作流名称，缺省返回 unknown
func WorkflowFromContext(ctx context.Context) string {
	return tagFromContext(ctx, llmCtxKeyWorkflow)
}

// ProviderFromContext 读取提供方名称，缺省返回 unknown
func ProviderFromContext(ctx context.Context) string {
	return tagFromContext(ctx, llmCtxKeyProvider)
}
