// Package handler 提供 HTTP 请求处理器
package handler

import (
	"fmt"
	"strings"

	"upllyft-worksheet-api/internal/config"
	"upllyft-worksheet-api/internal/interfaces/http/dto"
	"upllyft-worksheet-api/pkg/errors"
	"upllyft-worksheet-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

// resolveProviderModel 解析 LLM Provider 和 Model，未指定时回落到配置默认值
func resolveProviderModel(cfg *config.Config, provider, model string) (string, string, error) {
	if cfg == nil {
		return "", "", fmt.Errorf("server config not configured")
	}

	p := strings.TrimSpace(provider)
	if p == "" {
		p = strings.TrimSpace(cfg.LLM.DefaultProvider)
	}
	if p == "" {
		return "", "", fmt.Errorf("llm provider not specified")
	}

	providerCfg, ok := cfg.LLM.Providers[p]
	if !ok {
		return "", "", fmt.Errorf("llm provider not found: %s", p)
	}

	m := strings.TrimSpace(model)
	if m == "" {
		m = strings.TrimSpace(providerCfg.Model)
	}
	return p, m, nil
}

// respondError 统一错误出口：AppError 按自带状态码返回，其余 500
func respondError(c *gin.Context, err error, fallbackMsg string) {
	if errors.IsAppError(err) {
		appErr := errors.AsAppError(err)
		detail := &dto.ErrorDetail{
			ErrorCode: string(appErr.Code),
			Details:   appErr.Detail,
		}
		dto.ErrorWithDetail(c, appErr.HTTPStatus, appErr.Message, detail)
		return
	}
	logger.Error(c.Request.Context(), fallbackMsg, err)
	dto.InternalError(c, fallbackMsg)
}
