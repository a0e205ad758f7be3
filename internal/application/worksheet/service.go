package worksheet

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"upllyft-worksheet-api/internal/domain/entity"
	"upllyft-worksheet-api/internal/domain/repository"
	"upllyft-worksheet-api/internal/infrastructure/messaging"
	apperrors "upllyft-worksheet-api/pkg/errors"
	"upllyft-worksheet-api/pkg/logger"
)

// GenerateRequest 一次完整的生成请求
type GenerateRequest struct {
	TenantID  string
	CreatedBy string

	Title  string
	Params GenerateParams
	Source ResolveInput

	ConditionTags []string
	IsVerified    bool

	IdempotencyKey string
}

// GenerateResult 同步返回：内容已持久化，资产待生成
type GenerateResult struct {
	Worksheet *entity.Worksheet
	Job       *entity.AssetJob
}

// Service 工作表应用服务：编排解析、生成、持久化与流水线投递
type Service struct {
	resolver  *Resolver
	generator *Generator

	worksheetRepo    repository.WorksheetRepository
	illustrationRepo repository.IllustrationRepository
	jobRepo          repository.JobRepository
	tx               repository.Transactor
	producer         *messaging.Producer
}

func NewService(
	resolver *Resolver,
	generator *Generator,
	worksheetRepo repository.WorksheetRepository,
	illustrationRepo repository.IllustrationRepository,
	jobRepo repository.JobRepository,
	tx repository.Transactor,
	producer *messaging.Producer,
) *Service {
	return &Service{
		resolver:         resolver,
		generator:        generator,
		worksheetRepo:    worksheetRepo,
		illustrationRepo: illustrationRepo,
		jobRepo:          jobRepo,
		tx:               tx,
		producer:         producer,
	}
}

// Generate 同步路径：resolve -> generate -> validate -> persist -> 投递流水线
// 调用方拿到 GENERATING 状态的工作表即返回，不等待插图与渲染
func (s *Service) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResult, error) {
	ctx, span := tracer.Start(ctx, "Service.Generate")
	span.SetAttributes(
		attribute.String("worksheet.type", string(req.Params.Type)),
		attribute.String("data_source", string(req.Source.DataSource)),
	)
	defer span.End()

	// 幂等键命中时直接返回已有任务对应的工作表
	if req.IdempotencyKey != "" {
		if existing, err := s.jobRepo.GetByIdempotencyKey(ctx, req.IdempotencyKey); err != nil {
			return nil, err
		} else if existing != nil {
			ws, err := s.worksheetRepo.GetByID(ctx, existing.WorksheetID)
			if err != nil {
				return nil, err
			}
			if ws != nil {
				logger.Info(ctx, "idempotency key hit, returning existing worksheet",
					"worksheet_id", ws.ID, "job_id", existing.ID)
				return &GenerateResult{Worksheet: ws, Job: existing}, nil
			}
		}
	}

	gc, err := s.resolver.Resolve(ctx, &req.Source)
	if err != nil {
		return nil, err
	}

	generated, err := s.generator.Generate(ctx, gc, &req.Params)
	if err != nil {
		return nil, err
	}

	ws := s.buildWorksheet(req, gc, generated)
	job := entity.NewAssetJob(req.TenantID, ws.ID, entity.JobTypeAssetPipeline, nil)
	job.IdempotencyKey = req.IdempotencyKey

	err = s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.worksheetRepo.Create(txCtx, ws); err != nil {
			return err
		}
		// DRAFT -> GENERATING，资产流水线只认已进入 GENERATING 的行
		ok, err := s.worksheetRepo.UpdateStatus(txCtx, ws.ID, entity.StatusDraft, entity.StatusGenerating)
		if err != nil {
			return err
		}
		if !ok {
			return apperrors.ErrInvalidTransition.WithDetail("worksheet left DRAFT before pipeline handoff")
		}
		ws.Status = entity.StatusGenerating
		return s.jobRepo.Create(txCtx, job)
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.producer.PublishAssetJob(ctx, &messaging.AssetJobMessage{
		JobID:          job.ID,
		TenantID:       req.TenantID,
		WorksheetID:    ws.ID,
		JobType:        string(entity.JobTypeAssetPipeline),
		IdempotencyKey: req.IdempotencyKey,
	}); err != nil {
		// 行已落库；投递失败只记录，状态回退交给运营补偿
		logger.Error(ctx, "failed to enqueue asset pipeline", err,
			"worksheet_id", ws.ID, "job_id", job.ID)
	}

	return &GenerateResult{Worksheet: ws, Job: job}, nil
}

func (s *Service) buildWorksheet(req *GenerateRequest, gc *GenerationContext, generated *GeneratedContent) *entity.Worksheet {
	title := req.Title
	if title == "" {
		title = generated.Title
	}

	domains := req.Params.TargetDomains
	if len(domains) == 0 {
		domains = gc.SuggestedDomains
	}

	interests := req.Params.Interests
	if len(interests) == 0 {
		interests = gc.Interests
	}

	conditionTags := req.ConditionTags
	if len(conditionTags) == 0 {
		conditionTags = gc.Conditions
	}

	id := uuid.NewString()
	ws := &entity.Worksheet{
		ID:                  id,
		TenantID:            req.TenantID,
		Title:               title,
		Type:                req.Params.Type,
		SubType:             req.Params.SubType,
		Content:             generated.Content,
		Status:              entity.StatusDraft,
		Difficulty:          req.Params.Difficulty,
		TargetDomains:       domains,
		ConditionTags:       conditionTags,
		Interests:           interests,
		ColorMode:           req.Params.ColorMode,
		Duration:            req.Params.Duration,
		Setting:             req.Params.Setting,
		DataSource:          gc.DataSource,
		AgeRangeMin:         req.Params.AgeRangeMin,
		AgeRangeMax:         req.Params.AgeRangeMax,
		Version:             1,
		RootID:              id,
		VerifiedContributor: req.IsVerified,
		CreatedBy:           req.CreatedBy,
	}
	if !entity.IsKnownSubType(ws.Type, ws.SubType) {
		ws.SubType = entity.DefaultSubType(ws.Type)
	}
	if ws.ColorMode == "" {
		ws.ColorMode = entity.ColorModeFullColor
	}
	if req.Source.ChildID != "" {
		ws.ChildID = &req.Source.ChildID
	}
	if req.Source.CaseID != "" {
		ws.CaseID = &req.Source.CaseID
	}
	if req.Source.ScreeningID != "" {
		ws.ScreeningID = &req.Source.ScreeningID
	}
	ws.GoalIDs = req.Source.GoalIDs
	ws.SessionIDs = req.Source.SessionIDs
	return ws
}

// Get 工作表详情
func (s *Service) Get(ctx context.Context, id string) (*entity.Worksheet, error) {
	ws, err := s.worksheetRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, apperrors.ErrWorksheetNotFound
	}
	return ws, nil
}

// StatusResult getStatus 的返回载荷
type StatusResult struct {
	Status     entity.WorksheetStatus `json:"status"`
	PDFURL     string                 `json:"pdf_url,omitempty"`
	PreviewURL string                 `json:"preview_url,omitempty"`
	Job        *entity.AssetJob       `json:"job,omitempty"`
}

// GetStatus 返回状态与资产地址，附带最近一次流水线任务进度
func (s *Service) GetStatus(ctx context.Context, id string) (*StatusResult, error) {
	ws, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	job, err := s.jobRepo.GetLatestByWorksheet(ctx, id)
	if err != nil {
		return nil, err
	}
	return &StatusResult{
		Status:     ws.Status,
		PDFURL:     ws.PDFURL,
		PreviewURL: ws.PreviewURL,
		Job:        job,
	}, nil
}

// DownloadResult download 的返回载荷
type DownloadResult struct {
	// Ready 为 true 时 PDFURL 可用；false 表示资产尚未就绪，应稍后重试
	Ready  bool
	PDFURL string
}

// Download PDF 就绪时给出跳转地址，GENERATING 中给出重试信号
func (s *Service) Download(ctx context.Context, id string) (*DownloadResult, error) {
	ws, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if ws.IsDownloadable() {
		return &DownloadResult{Ready: true, PDFURL: ws.PDFURL}, nil
	}
	if ws.Status == entity.StatusGenerating {
		return &DownloadResult{Ready: false}, nil
	}
	return nil, apperrors.ErrNotDownloadable.WithDetail(fmt.Sprintf("status is %s", ws.Status))
}

// List 条件分页查询
func (s *Service) List(ctx context.Context, filter *repository.WorksheetFilter, pagination repository.Pagination) (*repository.PagedResult[*entity.Worksheet], error) {
	return s.worksheetRepo.List(ctx, filter, pagination)
}

// GetJob 任务详情
func (s *Service) GetJob(ctx context.Context, id string) (*entity.AssetJob, error) {
	job, err := s.jobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, apperrors.ErrJobNotFound
	}
	return job, nil
}

// RegenerateSection 投递单小节重生成任务（LLM 替换小节后重走渲染）
func (s *Service) RegenerateSection(ctx context.Context, worksheetID, sectionID, guidance string) (*entity.AssetJob, error) {
	ctx, span := tracer.Start(ctx, "Service.RegenerateSection")
	defer span.End()

	ws, err := s.Get(ctx, worksheetID)
	if err != nil {
		return nil, err
	}
	if ws.Status == entity.StatusGenerating || ws.Status == entity.StatusArchived {
		return nil, apperrors.ErrInvalidTransition.WithDetail(fmt.Sprintf("cannot regenerate while %s", ws.Status))
	}
	if !sectionExists(ws, sectionID) {
		return nil, apperrors.ErrNotFound.WithDetail("section not found in worksheet content")
	}

	params, _ := json.Marshal(map[string]string{"section_id": sectionID, "guidance": guidance})
	job := entity.NewAssetJob(ws.TenantID, ws.ID, entity.JobTypeSectionRegen, params)
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, err
	}

	if _, err := s.producer.PublishAssetJob(ctx, &messaging.AssetJobMessage{
		JobID:       job.ID,
		TenantID:    ws.TenantID,
		WorksheetID: ws.ID,
		JobType:     string(entity.JobTypeSectionRegen),
		Params:      map[string]interface{}{"section_id": sectionID, "guidance": guidance},
	}); err != nil {
		return nil, apperrors.ErrMessagingFailed.WithError(err)
	}
	return job, nil
}

// RegenerateImage 投递单图重生成任务，可带自定义提示词覆盖
func (s *Service) RegenerateImage(ctx context.Context, worksheetID, illustrationID, customPrompt string) (*entity.AssetJob, error) {
	ctx, span := tracer.Start(ctx, "Service.RegenerateImage")
	defer span.End()

	ws, err := s.Get(ctx, worksheetID)
	if err != nil {
		return nil, err
	}
	ill, err := s.illustrationRepo.GetByID(ctx, illustrationID)
	if err != nil {
		return nil, err
	}
	if ill == nil || ill.WorksheetID != ws.ID {
		return nil, apperrors.ErrIllustrationNotFound
	}

	params, _ := json.Marshal(map[string]string{"illustration_id": illustrationID, "custom_prompt": customPrompt})
	job := entity.NewAssetJob(ws.TenantID, ws.ID, entity.JobTypeImageRegen, params)
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, err
	}

	if _, err := s.producer.PublishAssetJob(ctx, &messaging.AssetJobMessage{
		JobID:       job.ID,
		TenantID:    ws.TenantID,
		WorksheetID: ws.ID,
		JobType:     string(entity.JobTypeImageRegen),
		Params:      map[string]interface{}{"illustration_id": illustrationID, "custom_prompt": customPrompt},
	}); err != nil {
		return nil, apperrors.ErrMessagingFailed.WithError(err)
	}
	return job, nil
}

// sectionExists 校验内容树里存在目标节点 id
func sectionExists(ws *entity.Worksheet, sectionID string) bool {
	variant, err := entity.VariantFor(ws.Type, ws.SubType)
	if err != nil {
		return false
	}
	nodes, err := entity.CollectNodeIDs(variant, ws.Content)
	if err != nil {
		return false
	}
	for _, id := range nodes {
		if id == sectionID {
			return true
		}
	}
	return false
}
