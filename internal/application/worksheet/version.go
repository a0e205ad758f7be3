package worksheet

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"upllyft-worksheet-api/internal/domain/entity"
	"upllyft-worksheet-api/internal/domain/repository"
	apperrors "upllyft-worksheet-api/pkg/errors"
	"upllyft-worksheet-api/pkg/logger"
)

// lineageWalkLimit 父链回溯步数上限，防御谱系数据成环
const lineageWalkLimit = 50

// Versions 版本谱系管理：同谱系修订与跨谱系克隆
type Versions struct {
	worksheetRepo    repository.WorksheetRepository
	illustrationRepo repository.IllustrationRepository
	tx               repository.Transactor
}

func NewVersions(
	worksheetRepo repository.WorksheetRepository,
	illustrationRepo repository.IllustrationRepository,
	tx repository.Transactor,
) *Versions {
	return &Versions{
		worksheetRepo:    worksheetRepo,
		illustrationRepo: illustrationRepo,
		tx:               tx,
	}
}

// CreateVersion 在同一谱系内创建新修订，仅创建者可操作
// 新行为 DRAFT，版本号取谱系内最大值加一
func (v *Versions) CreateVersion(ctx context.Context, id, userID string) (*entity.Worksheet, error) {
	ctx, span := tracer.Start(ctx, "Versions.CreateVersion")
	span.SetAttributes(attribute.String("worksheet_id", id))
	defer span.End()

	src, err := v.worksheetRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, apperrors.ErrWorksheetNotFound
	}
	if src.CreatedBy != userID {
		return nil, apperrors.ErrLineageForbidden
	}

	rootID, err := v.resolveRoot(ctx, src)
	if err != nil {
		return nil, err
	}

	maxVersion, err := v.worksheetRepo.MaxVersionInLineage(ctx, rootID)
	if err != nil {
		return nil, err
	}

	next := copyWorksheet(src)
	next.Status = entity.StatusDraft
	next.Version = maxVersion + 1
	next.ParentVersionID = &src.ID
	next.RootID = rootID
	next.ClonedFromID = nil
	next.IsPublic = false
	// 聚合计数与资产不随版本继承
	next.RatingSum, next.ReviewCount, next.CloneCount = 0, 0, 0
	next.PDFURL, next.PreviewURL = "", ""

	if err := v.createWithIllustrations(ctx, src.ID, next); err != nil {
		return nil, err
	}
	return next, nil
}

// Clone 克隆一张公开工作表为独立谱系的新根
// 新行直接 PUBLISHED（资产沿用源表），并累加源表克隆计数
func (v *Versions) Clone(ctx context.Context, id, userID, tenantID string) (*entity.Worksheet, error) {
	ctx, span := tracer.Start(ctx, "Versions.Clone")
	span.SetAttributes(attribute.String("worksheet_id", id))
	defer span.End()

	src, err := v.worksheetRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, apperrors.ErrWorksheetNotFound
	}
	if !src.IsPublic || src.Status != entity.StatusPublished {
		return nil, apperrors.ErrForbidden.WithDetail("only public published worksheets can be cloned")
	}

	clone := copyWorksheet(src)
	clone.TenantID = tenantID
	clone.CreatedBy = userID
	clone.Status = entity.StatusPublished
	clone.Version = 1
	clone.ParentVersionID = nil
	clone.RootID = clone.ID
	clone.ClonedFromID = &src.ID
	clone.IsPublic = false
	clone.VerifiedContributor = false
	clone.RatingSum, clone.ReviewCount, clone.CloneCount = 0, 0, 0

	err = v.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := v.worksheetRepo.Create(txCtx, clone); err != nil {
			return err
		}
		if err := v.copyIllustrations(txCtx, src.ID, clone.ID); err != nil {
			return err
		}
		return v.worksheetRepo.IncrementCloneCount(txCtx, src.ID)
	})
	if err != nil {
		return nil, err
	}
	return clone, nil
}

// History 返回谱系内全部版本，按版本号升序
func (v *Versions) History(ctx context.Context, id string) ([]*entity.Worksheet, error) {
	ws, err := v.worksheetRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, apperrors.ErrWorksheetNotFound
	}
	rootID, err := v.resolveRoot(ctx, ws)
	if err != nil {
		return nil, err
	}
	return v.worksheetRepo.ListByRoot(ctx, rootID)
}

// resolveRoot 取谱系根：优先冗余的 root_id，缺失的存量行走有界父链
// 走链中断（父行丢失或超限）按退化处理：当前节点视为根，只记日志
func (v *Versions) resolveRoot(ctx context.Context, ws *entity.Worksheet) (string, error) {
	if ws.RootID != "" {
		return ws.RootID, nil
	}

	current := ws
	for i := 0; i < lineageWalkLimit; i++ {
		if current.ParentVersionID == nil {
			return current.ID, nil
		}
		parent, err := v.worksheetRepo.GetByID(ctx, *current.ParentVersionID)
		if err != nil {
			return "", err
		}
		if parent == nil {
			logger.Warn(ctx, "lineage walk hit missing parent, treating node as root",
				"worksheet_id", current.ID, "parent_id", *current.ParentVersionID)
			return current.ID, nil
		}
		current = parent
	}
	logger.Warn(ctx, "lineage walk exceeded hop limit, treating node as root",
		"worksheet_id", ws.ID, "limit", lineageWalkLimit)
	return current.ID, nil
}

func (v *Versions) createWithIllustrations(ctx context.Context, srcID string, next *entity.Worksheet) error {
	return v.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := v.worksheetRepo.Create(txCtx, next); err != nil {
			return err
		}
		return v.copyIllustrations(txCtx, srcID, next.ID)
	})
}

func (v *Versions) copyIllustrations(ctx context.Context, srcID, dstID string) error {
	items, err := v.illustrationRepo.ListByWorksheet(ctx, srcID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	copies := make([]*entity.Illustration, 0, len(items))
	for _, it := range items {
		dup := *it
		dup.ID = ""
		dup.WorksheetID = dstID
		copies = append(copies, &dup)
	}
	return v.illustrationRepo.CreateBatch(ctx, copies)
}

// copyWorksheet 复制内容与元数据，ID 重新生成，调用方负责改写谱系字段
func copyWorksheet(src *entity.Worksheet) *entity.Worksheet {
	dup := *src
	dup.ID = uuid.NewString()
	dup.CreatedAt, dup.UpdatedAt = time.Time{}, time.Time{}
	dup.Content = append([]byte(nil), src.Content...)
	dup.TargetDomains = append([]string(nil), src.TargetDomains...)
	dup.ConditionTags = append([]string(nil), src.ConditionTags...)
	dup.Interests = append([]string(nil), src.Interests...)
	dup.GoalIDs = append([]string(nil), src.GoalIDs...)
	dup.SessionIDs = append([]string(nil), src.SessionIDs...)
	return &dup
}
