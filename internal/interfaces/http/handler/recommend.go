// Package handler 提供 HTTP 请求处理器
package handler

import (
	"strconv"

	appworksheet "upllyft-worksheet-api/internal/application/worksheet"
	"upllyft-worksheet-api/internal/interfaces/http/dto"
	"upllyft-worksheet-api/internal/interfaces/http/middleware"

	"github.com/gin-gonic/gin"
)

// RecommendHandler 个性化推荐与难度建议
type RecommendHandler struct {
	recommender *appworksheet.Recommender
	advisor     *appworksheet.DifficultyAdvisor
}

// NewRecommendHandler 创建推荐处理器
func NewRecommendHandler(recommender *appworksheet.Recommender, advisor *appworksheet.DifficultyAdvisor) *RecommendHandler {
	return &RecommendHandler{recommender: recommender, advisor: advisor}
}

// Recommendations 个性化推荐
// @Summary 儿童个性化推荐
// @Description 按临床画像加权打分，短 TTL 缓存
// @Tags Recommendations
// @Produce json
// @Param cid path string true "儿童 ID"
// @Param limit query int false "返回条数，默认 5"
// @Success 200 {object} dto.Response[dto.RecommendationListResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/children/{cid}/recommendations [get]
func (h *RecommendHandler) Recommendations(c *gin.Context) {
	childID := dto.BindChildID(c)
	tenantID := middleware.GetTenantIDFromGin(c)

	limit := 0
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	recs, err := h.recommender.RecommendForChild(c.Request.Context(), tenantID, childID, limit)
	if err != nil {
		respondError(c, err, "failed to build recommendations")
		return
	}
	dto.Success(c, dto.ToRecommendationListResponse(childID, recs))
}

// Difficulty 难度建议
// @Summary 儿童难度建议
// @Description 基于最近完成遥测的难度自适应建议，可按领域过滤
// @Tags Recommendations
// @Produce json
// @Param cid path string true "儿童 ID"
// @Param domain query string false "发展领域过滤"
// @Success 200 {object} dto.Response[dto.DifficultySuggestionResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/children/{cid}/difficulty [get]
func (h *RecommendHandler) Difficulty(c *gin.Context) {
	childID := dto.BindChildID(c)

	suggestion, err := h.advisor.Suggest(c.Request.Context(), childID, c.Query("domain"))
	if err != nil {
		respondError(c, err, "failed to suggest difficulty")
		return
	}
	dto.Success(c, dto.ToDifficultySuggestionResponse(childID, suggestion))
}
