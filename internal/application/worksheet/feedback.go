package worksheet

import (
	"context"
	"time"

	"upllyft-worksheet-api/internal/domain/entity"
	"upllyft-worksheet-api/internal/domain/repository"
	"upllyft-worksheet-api/internal/infrastructure/persistence/redis"
	apperrors "upllyft-worksheet-api/pkg/errors"
	"upllyft-worksheet-api/pkg/logger"
)

// Feedback 评价与完成记录的写入口，维护评分聚合并驱动难度遥测
type Feedback struct {
	worksheetRepo  repository.WorksheetRepository
	reviewRepo     repository.ReviewRepository
	completionRepo repository.CompletionRepository
	tx             repository.Transactor
	cache          *redis.Cache
}

func NewFeedback(
	worksheetRepo repository.WorksheetRepository,
	reviewRepo repository.ReviewRepository,
	completionRepo repository.CompletionRepository,
	tx repository.Transactor,
	cache *redis.Cache,
) *Feedback {
	return &Feedback{
		worksheetRepo:  worksheetRepo,
		reviewRepo:     reviewRepo,
		completionRepo: completionRepo,
		tx:             tx,
		cache:          cache,
	}
}

// SubmitReview 提交评价并累加评分聚合计数
func (f *Feedback) SubmitReview(ctx context.Context, review *entity.WorksheetReview) (*entity.WorksheetReview, error) {
	ctx, span := tracer.Start(ctx, "Feedback.SubmitReview")
	defer span.End()

	if review.Rating < 1 || review.Rating > 5 {
		return nil, apperrors.ErrInvalidParam.WithDetail("rating must be between 1 and 5")
	}

	ws, err := f.worksheetRepo.GetByID(ctx, review.WorksheetID)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, apperrors.ErrWorksheetNotFound
	}

	err = f.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := f.reviewRepo.Create(txCtx, review); err != nil {
			return err
		}
		return f.worksheetRepo.AddReviewStats(txCtx, review.WorksheetID, review.Rating)
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

// ListReviews 工作表评价分页
func (f *Feedback) ListReviews(ctx context.Context, worksheetID string, pagination repository.Pagination) (*repository.PagedResult[*entity.WorksheetReview], error) {
	return f.reviewRepo.ListByWorksheet(ctx, worksheetID, pagination)
}

// RecordCompletion 记录一次完成，带上工作表当时的难度与领域快照
// 完成记录改变推荐输入，顺带失效该儿童的推荐缓存
func (f *Feedback) RecordCompletion(ctx context.Context, completion *entity.WorksheetCompletion) (*entity.WorksheetCompletion, error) {
	ctx, span := tracer.Start(ctx, "Feedback.RecordCompletion")
	defer span.End()

	ws, err := f.worksheetRepo.GetByID(ctx, completion.WorksheetID)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, apperrors.ErrWorksheetNotFound
	}

	if completion.Difficulty == "" {
		completion.Difficulty = ws.Difficulty
	}
	if len(completion.Domains) == 0 {
		completion.Domains = ws.TargetDomains
	}
	if completion.CompletedAt.IsZero() {
		completion.CompletedAt = time.Now()
	}

	if err := f.completionRepo.Create(ctx, completion); err != nil {
		return nil, err
	}

	if f.cache != nil {
		if err := f.cache.InvalidateChild(ctx, completion.TenantID, completion.ChildID); err != nil {
			logger.Warn(ctx, "failed to invalidate recommendation cache",
				"child_id", completion.ChildID, "error", err.Error())
		}
	}
	return completion, nil
}
