package worksheet

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"upllyft-worksheet-api/internal/domain/entity"
	"upllyft-worksheet-api/internal/domain/repository"
	"upllyft-worksheet-api/internal/infrastructure/messaging"
	apperrors "upllyft-worksheet-api/pkg/errors"
	"upllyft-worksheet-api/pkg/logger"
)

// legalTransitions 状态机合法边
var legalTransitions = map[entity.WorksheetStatus][]entity.WorksheetStatus{
	entity.StatusDraft:      {entity.StatusGenerating, entity.StatusArchived},
	entity.StatusGenerating: {entity.StatusPublished, entity.StatusDraft, entity.StatusArchived},
	entity.StatusPublished:  {entity.StatusFlagged, entity.StatusArchived},
	entity.StatusFlagged:    {entity.StatusPublished, entity.StatusArchived},
	entity.StatusArchived:   {},
}

// CanTransition 判断状态边是否合法
func CanTransition(from, to entity.WorksheetStatus) bool {
	for _, t := range legalTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Lifecycle 生命周期控制器：状态机、公开开关与举报仲裁
type Lifecycle struct {
	worksheetRepo repository.WorksheetRepository
	flagRepo      repository.FlagRepository
	tx            repository.Transactor
	producer      *messaging.Producer
}

func NewLifecycle(
	worksheetRepo repository.WorksheetRepository,
	flagRepo repository.FlagRepository,
	tx repository.Transactor,
	producer *messaging.Producer,
) *Lifecycle {
	return &Lifecycle{
		worksheetRepo: worksheetRepo,
		flagRepo:      flagRepo,
		tx:            tx,
		producer:      producer,
	}
}

// Transition 执行一次状态迁移，非法边返回 ErrInvalidTransition
// 底层 UpdateStatus 带前置状态校验，并发竞争下失败而不是覆盖
func (l *Lifecycle) Transition(ctx context.Context, id string, from, to entity.WorksheetStatus) error {
	if !CanTransition(from, to) {
		return apperrors.ErrInvalidTransition.WithDetail(fmt.Sprintf("%s -> %s", from, to))
	}
	ok, err := l.worksheetRepo.UpdateStatus(ctx, id, from, to)
	if err != nil {
		return err
	}
	if !ok {
		return apperrors.ErrInvalidTransition.WithDetail(fmt.Sprintf("worksheet is no longer %s", from))
	}
	return nil
}

// SetPublic 公开开关，仅 PUBLISHED 状态可操作
func (l *Lifecycle) SetPublic(ctx context.Context, id string, isPublic bool) (*entity.Worksheet, error) {
	ws, err := l.worksheetRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, apperrors.ErrWorksheetNotFound
	}
	if ws.Status != entity.StatusPublished {
		return nil, apperrors.ErrInvalidTransition.
			WithDetail(fmt.Sprintf("is_public requires PUBLISHED status, current %s", ws.Status))
	}
	if err := l.worksheetRepo.SetPublic(ctx, id, isPublic); err != nil {
		return nil, err
	}
	ws.IsPublic = isPublic
	return ws, nil
}

// Archive 任意非 ARCHIVED 状态归档，同时清掉公开标志
func (l *Lifecycle) Archive(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Lifecycle.Archive")
	defer span.End()

	ws, err := l.worksheetRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if ws == nil {
		return apperrors.ErrWorksheetNotFound
	}
	if ws.Status == entity.StatusArchived {
		return apperrors.ErrInvalidTransition.WithDetail("worksheet already archived")
	}

	err = l.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		ok, err := l.worksheetRepo.UpdateStatus(txCtx, id, ws.Status, entity.StatusArchived)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrInvalidTransition.WithDetail("worksheet status changed concurrently")
		}
		if ws.IsPublic {
			return l.worksheetRepo.SetPublic(txCtx, id, false)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if _, err := l.producer.PublishWorksheetEvent(ctx, &messaging.WorksheetEventMessage{
		TenantID:    ws.TenantID,
		WorksheetID: ws.ID,
		Event:       messaging.EventWorksheetArchived,
	}); err != nil {
		logger.Warn(ctx, "failed to publish archive event", "worksheet_id", ws.ID, "error", err.Error())
	}
	return nil
}

// SubmitFlag 提交举报；待处理举报达到阈值时自动转入 FLAGGED
func (l *Lifecycle) SubmitFlag(ctx context.Context, flag *entity.WorksheetFlag) (*entity.WorksheetFlag, error) {
	ctx, span := tracer.Start(ctx, "Lifecycle.SubmitFlag")
	span.SetAttributes(attribute.String("worksheet_id", flag.WorksheetID))
	defer span.End()

	ws, err := l.worksheetRepo.GetByID(ctx, flag.WorksheetID)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, apperrors.ErrWorksheetNotFound
	}

	flag.Status = entity.FlagPending

	var flagged bool
	err = l.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := l.flagRepo.Create(txCtx, flag); err != nil {
			return err
		}
		pending, err := l.flagRepo.CountPending(txCtx, flag.WorksheetID)
		if err != nil {
			return err
		}
		if pending < entity.FlagAutoModerationThreshold || ws.Status != entity.StatusPublished {
			return nil
		}
		ok, err := l.worksheetRepo.UpdateStatus(txCtx, flag.WorksheetID, entity.StatusPublished, entity.StatusFlagged)
		if err != nil {
			return err
		}
		flagged = ok
		return nil
	})
	if err != nil {
		return nil, err
	}

	if flagged {
		logger.Info(ctx, "worksheet auto-flagged for moderation",
			"worksheet_id", flag.WorksheetID, "threshold", entity.FlagAutoModerationThreshold)
		if _, err := l.producer.PublishWorksheetEvent(ctx, &messaging.WorksheetEventMessage{
			TenantID:    ws.TenantID,
			WorksheetID: ws.ID,
			Event:       messaging.EventWorksheetFlagged,
			Reason:      flag.Reason,
		}); err != nil {
			logger.Warn(ctx, "failed to publish flagged event", "worksheet_id", ws.ID, "error", err.Error())
		}
	}
	return flag, nil
}

// ResolveFlag 仲裁一条举报
// dismiss：该表不再有待处理举报时回到 PUBLISHED
// action：归档工作表并批量关闭其余待处理举报
func (l *Lifecycle) ResolveFlag(ctx context.Context, flagID string, action entity.FlagStatus, resolvedBy string) error {
	ctx, span := tracer.Start(ctx, "Lifecycle.ResolveFlag")
	defer span.End()

	if action != entity.FlagDismissed && action != entity.FlagActioned {
		return apperrors.ErrInvalidParam.WithDetail("resolution must be DISMISSED or ACTIONED")
	}

	flag, err := l.flagRepo.GetByID(ctx, flagID)
	if err != nil {
		return err
	}
	if flag == nil {
		return apperrors.ErrFlagNotFound
	}
	if flag.Status != entity.FlagPending {
		return apperrors.ErrConflict.WithDetail("flag already resolved")
	}

	ws, err := l.worksheetRepo.GetByID(ctx, flag.WorksheetID)
	if err != nil {
		return err
	}
	if ws == nil {
		return apperrors.ErrWorksheetNotFound
	}

	return l.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := l.flagRepo.Resolve(txCtx, flagID, action, resolvedBy); err != nil {
			return err
		}

		if action == entity.FlagActioned {
			// 连带关闭其余待处理举报并归档
			if err := l.flagRepo.ResolvePendingByWorksheet(txCtx, flag.WorksheetID, entity.FlagDismissed, resolvedBy); err != nil {
				return err
			}
			if ws.Status == entity.StatusFlagged {
				if _, err := l.worksheetRepo.UpdateStatus(txCtx, flag.WorksheetID, entity.StatusFlagged, entity.StatusArchived); err != nil {
					return err
				}
				if ws.IsPublic {
					return l.worksheetRepo.SetPublic(txCtx, flag.WorksheetID, false)
				}
			}
			return nil
		}

		// DISMISSED：全部待处理举报清空后恢复发布
		pending, err := l.flagRepo.CountPending(txCtx, flag.WorksheetID)
		if err != nil {
			return err
		}
		if pending == 0 && ws.Status == entity.StatusFlagged {
			if _, err := l.worksheetRepo.UpdateStatus(txCtx, flag.WorksheetID, entity.StatusFlagged, entity.StatusPublished); err != nil {
				return err
			}
		}
		return nil
	})
}
