// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"upllyft-worksheet-api/internal/infrastructure/persistence/postgres"
	"upllyft-worksheet-api/internal/infrastructure/persistence/redis"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	pg    *postgres.Client
	redis *redis.Client
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(pg *postgres.Client, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{pg: pg, redis: redisClient}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

type readinessCheck struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMs int64  `json:"latency_ms,omitempty"`
}

type readinessResponse struct {
	Status string                     `json:"status"`
	Checks map[string]*readinessCheck `json:"checks,omitempty"`
}

// probe 执行单个依赖探测并记录耗时，probe 为 nil 表示依赖未注入
func probe(ctx context.Context, check func(context.Context) error) *readinessCheck {
	if check == nil {
		return &readinessCheck{Status: "missing", Error: "dependency not configured"}
	}
	start := time.Now()
	err := check(ctx)
	rc := &readinessCheck{Status: "ok", LatencyMs: time.Since(start).Milliseconds()}
	if err != nil {
		rc.Status = "error"
		rc.Error = err.Error()
	}
	return rc
}

// Health 健康检查接口
// @Summary 健康检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready 就绪检查接口
// @Summary 就绪检查
// @Description Postgres 与 Redis 均可达才算就绪
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	var pgCheck, redisCheck func(context.Context) error
	if h != nil && h.pg != nil {
		pgCheck = h.pg.HealthCheck
	}
	if h != nil && h.redis != nil {
		redisCheck = h.redis.HealthCheck
	}

	checks := map[string]*readinessCheck{
		"postgres": probe(ctx, pgCheck),
		"redis":    probe(ctx, redisCheck),
	}

	resp := readinessResponse{Status: "ok", Checks: checks}
	for _, rc := range checks {
		if rc.Status != "ok" {
			resp.Status = "not_ready"
			c.JSON(http.StatusServiceUnavailable, resp)
			return
		}
	}
	c.JSON(http.StatusOK, resp)
}

// Live 存活检查接口
// @Summary 存活检查
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /live [get]
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}
