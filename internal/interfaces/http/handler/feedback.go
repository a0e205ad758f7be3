// Package handler 提供 HTTP 请求处理器
package handler

import (
	appworksheet "upllyft-worksheet-api/internal/application/worksheet"
	"upllyft-worksheet-api/internal/domain/entity"
	"upllyft-worksheet-api/internal/domain/repository"
	"upllyft-worksheet-api/internal/interfaces/http/dto"
	"upllyft-worksheet-api/internal/interfaces/http/middleware"

	"github.com/gin-gonic/gin"
)

// FeedbackHandler 评价与完成遥测
type FeedbackHandler struct {
	feedback *appworksheet.Feedback
}

// NewFeedbackHandler 创建反馈处理器
func NewFeedbackHandler(feedback *appworksheet.Feedback) *FeedbackHandler {
	return &FeedbackHandler{feedback: feedback}
}

// SubmitReview 提交评价
// @Summary 提交评价
// @Description 评分 1-5，同步累加工作表评分聚合
// @Tags Feedback
// @Accept json
// @Produce json
// @Param wid path string true "工作表 ID"
// @Param body body dto.SubmitReviewRequest true "评价请求"
// @Success 201 {object} dto.Response[dto.ReviewResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/worksheets/{wid}/reviews [post]
func (h *FeedbackHandler) SubmitReview(c *gin.Context) {
	var req dto.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	review, err := h.feedback.SubmitReview(c.Request.Context(), &entity.WorksheetReview{
		TenantID:    middleware.GetTenantIDFromGin(c),
		WorksheetID: dto.BindWorksheetID(c),
		ReviewerID:  middleware.GetUserIDFromGin(c),
		Rating:      req.Rating,
		Comment:     req.Comment,
	})
	if err != nil {
		respondError(c, err, "failed to submit review")
		return
	}
	dto.Created(c, dto.ToReviewResponse(review))
}

// ListReviews 分页查询评价
// @Summary 评价列表
// @Tags Feedback
// @Produce json
// @Param wid path string true "工作表 ID"
// @Success 200 {object} dto.Response[[]dto.ReviewResponse]
// @Router /v1/worksheets/{wid}/reviews [get]
func (h *FeedbackHandler) ListReviews(c *gin.Context) {
	pageReq := dto.BindPage(c)

	result, err := h.feedback.ListReviews(c.Request.Context(), dto.BindWorksheetID(c),
		repository.NewPagination(pageReq.Page, pageReq.PageSize))
	if err != nil {
		respondError(c, err, "failed to list reviews")
		return
	}

	meta := dto.NewPageMeta(pageReq.Page, pageReq.PageSize, int(result.Total))
	dto.SuccessWithPage(c, dto.ToReviewListResponse(result.Items), meta)
}

// RecordCompletion 记录完成遥测
// @Summary 记录完成
// @Description 完成记录驱动推荐排除与难度自适应
// @Tags Feedback
// @Accept json
// @Produce json
// @Param wid path string true "工作表 ID"
// @Param body body dto.RecordCompletionRequest true "完成记录"
// @Success 201 {object} dto.Response[dto.CompletionResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/worksheets/{wid}/completions [post]
func (h *FeedbackHandler) RecordCompletion(c *gin.Context) {
	var req dto.RecordCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	completion, err := h.feedback.RecordCompletion(c.Request.Context(), &entity.WorksheetCompletion{
		TenantID:    middleware.GetTenantIDFromGin(c),
		WorksheetID: dto.BindWorksheetID(c),
		ChildID:     req.ChildID,
		Quality:     entity.CompletionQuality(req.Quality),
		Rating:      req.Rating,
		Domains:     req.Domains,
	})
	if err != nil {
		respondError(c, err, "failed to record completion")
		return
	}
	dto.Created(c, dto.ToCompletionResponse(completion))
}
