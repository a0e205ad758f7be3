package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"upllyft-worksheet-api/internal/domain/entity"
	"upllyft-worksheet-api/internal/domain/repository"
	"upllyft-worksheet-api/internal/infrastructure/messaging"
	"upllyft-worksheet-api/internal/infrastructure/renderer"
	"upllyft-worksheet-api/internal/infrastructure/storage"
	wfchain "upllyft-worksheet-api/internal/workflow/chain"
	wfmodel "upllyft-worksheet-api/internal/workflow/model"
	"upllyft-worksheet-api/internal/workflow/node"
	apperrors "upllyft-worksheet-api/pkg/errors"
	"upllyft-worksheet-api/pkg/logger"
	"upllyft-worksheet-api/pkg/metrics"
)

// Processor 消费资产任务流，承载三类后台任务：
// 全量流水线、单图重生成、小节重生成
//
// 流水线失败是终态处理：任务置 failed、工作表回退 DRAFT、
// 发失败事件后返回 nil，不靠消费端重试补救
type Processor struct {
	worksheetRepo    repository.WorksheetRepository
	illustrationRepo repository.IllustrationRepository
	jobRepo          repository.JobRepository
	illustrator      *Illustrator
	htmlRenderer     *HTMLRenderer
	renderClient     *renderer.Client
	store            storage.ObjectStore
	producer         *messaging.Producer
	sectionChain     *wfchain.SectionRegenChain
}

func NewProcessor(
	worksheetRepo repository.WorksheetRepository,
	illustrationRepo repository.IllustrationRepository,
	jobRepo repository.JobRepository,
	illustrator *Illustrator,
	htmlRenderer *HTMLRenderer,
	renderClient *renderer.Client,
	store storage.ObjectStore,
	producer *messaging.Producer,
	sectionChain *wfchain.SectionRegenChain,
) *Processor {
	return &Processor{
		worksheetRepo:    worksheetRepo,
		illustrationRepo: illustrationRepo,
		jobRepo:          jobRepo,
		illustrator:      illustrator,
		htmlRenderer:     htmlRenderer,
		renderClient:     renderClient,
		store:            store,
		producer:         producer,
		sectionChain:     sectionChain,
	}
}

// HandleAssetPipeline 全量资产流水线：
// 清场旧插图 → 逐张生成 → 组装 HTML → PDF/预览渲染 → 上传 → PUBLISHED
func (p *Processor) HandleAssetPipeline(ctx context.Context, msg *messaging.Message) error {
	ctx, span := tracer.Start(ctx, "Processor.HandleAssetPipeline")
	defer span.End()

	job, ws, err := p.loadJobContext(ctx, msg)
	if err != nil || job == nil {
		return err
	}
	span.SetAttributes(attribute.String("worksheet_id", ws.ID), attribute.String("job_id", job.ID))

	if ws.Status != entity.StatusGenerating {
		logger.Warn(ctx, "worksheet not in GENERATING, skipping pipeline",
			"worksheet_id", ws.ID, "status", string(ws.Status))
		return nil
	}

	start := time.Now()
	job.Start()
	if err := p.jobRepo.Update(ctx, job); err != nil {
		return err
	}

	variant, err := entity.VariantFor(ws.Type, ws.SubType)
	if err != nil {
		return p.failPipeline(ctx, job, ws, err)
	}

	// 重跑前清掉上一次的插图行
	if err := p.illustrationRepo.DeleteByWorksheet(ctx, ws.ID); err != nil {
		return p.failPipeline(ctx, job, ws, err)
	}

	tasks, err := ExtractImageTasks(variant, ws.Content)
	if err != nil {
		return p.failPipeline(ctx, job, ws, err)
	}
	p.updateProgress(ctx, job.ID, 10)

	items := p.illustrator.GenerateAll(ctx, ws, tasks)
	job.ImagesTotal = len(items)
	for _, item := range items {
		if item.Status == entity.IllustrationFailed {
			job.ImagesFailed++
		}
	}
	if len(items) > 0 {
		if err := p.illustrationRepo.CreateBatch(ctx, items); err != nil {
			return p.failPipeline(ctx, job, ws, err)
		}
	}
	p.updateProgress(ctx, job.ID, 60)

	pdfURL, previewURL, err := p.renderAndUpload(ctx, ws, variant, items)
	if err != nil {
		return p.failPipeline(ctx, job, ws, err)
	}
	p.updateProgress(ctx, job.ID, 90)

	if err := p.worksheetRepo.UpdateAssets(ctx, ws.ID, pdfURL, previewURL, entity.StatusPublished); err != nil {
		return p.failPipeline(ctx, job, ws, err)
	}

	result, _ := json.Marshal(map[string]any{
		"pdf_url":       pdfURL,
		"preview_url":   previewURL,
		"images_total":  job.ImagesTotal,
		"images_failed": job.ImagesFailed,
	})
	job.Complete(result)
	if err := p.jobRepo.Update(ctx, job); err != nil {
		logger.Error(ctx, "failed to persist completed job", err, "job_id", job.ID)
	}

	metrics.AssetPipelineTotal.WithLabelValues("ok").Inc()
	metrics.AssetPipelineDuration.WithLabelValues(string(entity.JobTypeAssetPipeline)).Observe(time.Since(start).Seconds())

	p.publishEvent(ctx, ws, job.ID, messaging.EventAssetPipelineSucceeded, "")
	logger.Info(ctx, "asset pipeline completed",
		"worksheet_id", ws.ID, "job_id", job.ID,
		"images_total", job.ImagesTotal, "images_failed", job.ImagesFailed)
	return nil
}

// imageRegenParams image_regen 任务入参
type imageRegenParams struct {
	IllustrationID string `json:"illustration_id"`
	CustomPrompt   string `json:"custom_prompt,omitempty"`
}

// HandleImageRegen 单图重生成后整体重渲染，工作表状态不变
func (p *Processor) HandleImageRegen(ctx context.Context, msg *messaging.Message) error {
	ctx, span := tracer.Start(ctx, "Processor.HandleImageRegen")
	defer span.End()

	job, ws, err := p.loadJobContext(ctx, msg)
	if err != nil || job == nil {
		return err
	}

	var params imageRegenParams
	if err := json.Unmarshal(job.InputParams, &params); err != nil {
		return p.failJob(ctx, job, fmt.Errorf("decode image_regen params: %w", err))
	}

	job.Start()
	if err := p.jobRepo.Update(ctx, job); err != nil {
		return err
	}

	ill, err := p.illustrationRepo.GetByID(ctx, params.IllustrationID)
	if err != nil {
		return p.failJob(ctx, job, err)
	}
	if ill == nil || ill.WorksheetID != ws.ID {
		return p.failJob(ctx, job, apperrors.ErrIllustrationNotFound)
	}

	if err := p.illustrator.Regenerate(ctx, ws, ill, params.CustomPrompt); err != nil {
		// 失败也要把 FAILED 状态落回行上
		if uerr := p.illustrationRepo.Update(ctx, ill); uerr != nil {
			logger.Error(ctx, "failed to persist failed illustration", uerr, "illustration_id", ill.ID)
		}
		return p.failJob(ctx, job, err)
	}
	if err := p.illustrationRepo.Update(ctx, ill); err != nil {
		return p.failJob(ctx, job, err)
	}
	p.updateProgress(ctx, job.ID, 60)

	if err := p.rebuildAssets(ctx, ws); err != nil {
		return p.failJob(ctx, job, err)
	}

	result, _ := json.Marshal(map[string]any{"illustration_id": ill.ID, "image_url": ill.ImageURL})
	job.Complete(result)
	if err := p.jobRepo.Update(ctx, job); err != nil {
		logger.Error(ctx, "failed to persist completed job", err, "job_id", job.ID)
	}
	metrics.AssetPipelineTotal.WithLabelValues("ok").Inc()
	return nil
}

// sectionRegenParams section_regen 任务入参
type sectionRegenParams struct {
	SectionID string `json:"section_id"`
	Guidance  string `json:"guidance,omitempty"`
}

// HandleSectionRegen 重生成单个小节：抽取节点 → LLM 重写 → 原位替换 →
// 全量校验 → 落库并重渲染资产
func (p *Processor) HandleSectionRegen(ctx context.Context, msg *messaging.Message) error {
	ctx, span := tracer.Start(ctx, "Processor.HandleSectionRegen")
	defer span.End()

	job, ws, err := p.loadJobContext(ctx, msg)
	if err != nil || job == nil {
		return err
	}

	var params sectionRegenParams
	if err := json.Unmarshal(job.InputParams, &params); err != nil {
		return p.failJob(ctx, job, fmt.Errorf("decode section_regen params: %w", err))
	}

	job.Start()
	if err := p.jobRepo.Update(ctx, job); err != nil {
		return err
	}

	variant, err := entity.VariantFor(ws.Type, ws.SubType)
	if err != nil {
		return p.failJob(ctx, job, err)
	}

	sectionJSON, err := entity.ExtractNode(variant, ws.Content, params.SectionID)
	if err != nil {
		return p.failJob(ctx, job, err)
	}
	p.updateProgress(ctx, job.ID, 20)

	out, err := p.sectionChain.Invoke(ctx, &wfmodel.SectionRegenInput{
		Variant:       variant,
		WorksheetType: ws.Type,
		SubType:       ws.SubType,
		Difficulty:    ws.Difficulty,
		TargetDomains: ws.TargetDomains,
		Clinical:      briefFromWorksheet(ws),
		SectionJSON:   string(sectionJSON),
		WorksheetJSON: string(ws.Content),
		Guidance:      params.Guidance,
	})
	if err != nil {
		return p.failJob(ctx, job, err)
	}

	replacement := node.ExtractJSONObject(node.StripCodeFence(out.Content))
	if !json.Valid([]byte(replacement)) {
		return p.failJob(ctx, job, apperrors.ErrGenerationFailed.WithDetail("model output was not valid JSON, retry the request"))
	}

	updated, err := entity.ReplaceNode(variant, ws.Content, params.SectionID, json.RawMessage(replacement))
	if err != nil {
		return p.failJob(ctx, job, err)
	}
	if err := entity.ValidateContent(variant, updated); err != nil {
		return p.failJob(ctx, job, apperrors.ErrValidationFailed.WithError(err))
	}

	ws.Content = updated
	if err := p.worksheetRepo.Update(ctx, ws); err != nil {
		return p.failJob(ctx, job, err)
	}
	p.updateProgress(ctx, job.ID, 70)

	if err := p.rebuildAssets(ctx, ws); err != nil {
		return p.failJob(ctx, job, err)
	}

	result, _ := json.Marshal(map[string]any{"section_id": params.SectionID})
	job.Complete(result)
	if err := p.jobRepo.Update(ctx, job); err != nil {
		logger.Error(ctx, "failed to persist completed job", err, "job_id", job.ID)
	}
	metrics.AssetPipelineTotal.WithLabelValues("ok").Inc()
	return nil
}

// loadJobContext 解析消息并装载任务与工作表
// 已终态的任务直接跳过，保证消费端重投不重复执行
func (p *Processor) loadJobContext(ctx context.Context, msg *messaging.Message) (*entity.AssetJob, *entity.Worksheet, error) {
	var payload messaging.AssetJobMessage
	if err := msg.UnmarshalPayload(&payload); err != nil {
		return nil, nil, fmt.Errorf("decode asset job message: %w", err)
	}

	job, err := p.jobRepo.GetByID(ctx, payload.JobID)
	if err != nil {
		return nil, nil, err
	}
	if job == nil {
		logger.Warn(ctx, "asset job not found, dropping message", "job_id", payload.JobID)
		return nil, nil, nil
	}
	if job.Status == entity.JobStatusCompleted || job.Status == entity.JobStatusFailed || job.Status == entity.JobStatusCancelled {
		logger.Info(ctx, "asset job already finished, skipping",
			"job_id", job.ID, "status", string(job.Status))
		return nil, nil, nil
	}

	ws, err := p.worksheetRepo.GetByID(ctx, job.WorksheetID)
	if err != nil {
		return nil, nil, err
	}
	if ws == nil {
		return nil, nil, p.failJob(ctx, job, apperrors.ErrWorksheetNotFound)
	}
	return job, ws, nil
}

// rebuildAssets 按当前插图与内容重渲染 PDF/预览并覆盖上传，状态保持不变
func (p *Processor) rebuildAssets(ctx context.Context, ws *entity.Worksheet) error {
	variant, err := entity.VariantFor(ws.Type, ws.SubType)
	if err != nil {
		return err
	}
	items, err := p.illustrationRepo.ListByWorksheet(ctx, ws.ID)
	if err != nil {
		return err
	}
	pdfURL, previewURL, err := p.renderAndUpload(ctx, ws, variant, items)
	if err != nil {
		return err
	}
	return p.worksheetRepo.UpdateAssets(ctx, ws.ID, pdfURL, previewURL, ws.Status)
}

func (p *Processor) renderAndUpload(ctx context.Context, ws *entity.Worksheet, variant entity.ContentVariant, items []*entity.Illustration) (string, string, error) {
	html, err := p.htmlRenderer.Render(ws, variant, items)
	if err != nil {
		return "", "", err
	}

	pdf, err := p.renderClient.RenderPDF(ctx, html)
	if err != nil {
		return "", "", err
	}
	preview, err := p.renderClient.RenderPreview(ctx, html)
	if err != nil {
		return "", "", err
	}

	pdfURL, err := p.store.Upload(ctx, fmt.Sprintf("worksheets/%s/worksheet.pdf", ws.ID), pdf, "application/pdf")
	if err != nil {
		return "", "", err
	}
	previewURL, err := p.store.Upload(ctx, fmt.Sprintf("worksheets/%s/preview.png", ws.ID), preview, "image/png")
	if err != nil {
		return "", "", err
	}
	return pdfURL, previewURL, nil
}

// failPipeline 流水线终态失败：任务置 failed、工作表回退 DRAFT、发失败事件
func (p *Processor) failPipeline(ctx context.Context, job *entity.AssetJob, ws *entity.Worksheet, cause error) error {
	logger.Error(ctx, "asset pipeline failed", cause, "worksheet_id", ws.ID, "job_id", job.ID)
	metrics.AssetPipelineTotal.WithLabelValues("error").Inc()

	job.Fail(cause.Error())
	if err := p.jobRepo.Update(ctx, job); err != nil {
		logger.Error(ctx, "failed to persist failed job", err, "job_id", job.ID)
	}

	if ok, err := p.worksheetRepo.UpdateStatus(ctx, ws.ID, entity.StatusGenerating, entity.StatusDraft); err != nil {
		logger.Error(ctx, "failed to roll worksheet back to DRAFT", err, "worksheet_id", ws.ID)
	} else if !ok {
		logger.Warn(ctx, "worksheet left GENERATING before rollback", "worksheet_id", ws.ID)
	}

	p.publishEvent(ctx, ws, job.ID, messaging.EventAssetPipelineFailed, cause.Error())
	return nil
}

// failJob 重生成类任务失败：只置任务终态，不动工作表状态
func (p *Processor) failJob(ctx context.Context, job *entity.AssetJob, cause error) error {
	logger.Error(ctx, "asset job failed", cause, "job_id", job.ID, "job_type", string(job.JobType))
	metrics.AssetPipelineTotal.WithLabelValues("error").Inc()

	job.Fail(cause.Error())
	if err := p.jobRepo.Update(ctx, job); err != nil {
		logger.Error(ctx, "failed to persist failed job", err, "job_id", job.ID)
	}
	return nil
}

func (p *Processor) updateProgress(ctx context.Context, jobID string, progress int) {
	if err := p.jobRepo.UpdateProgress(ctx, jobID, progress); err != nil {
		logger.Warn(ctx, "failed to update job progress", "job_id", jobID, "error", err.Error())
	}
}

func (p *Processor) publishEvent(ctx context.Context, ws *entity.Worksheet, jobID, event, reason string) {
	_, err := p.producer.PublishWorksheetEvent(ctx, &messaging.WorksheetEventMessage{
		TenantID:    ws.TenantID,
		WorksheetID: ws.ID,
		Event:       event,
		Reason:      reason,
		JobID:       jobID,
	})
	if err != nil {
		logger.Error(ctx, "failed to publish worksheet event", err,
			"worksheet_id", ws.ID, "event", event)
	}
}

// briefFromWorksheet 从工作表快照还原最小临床画像，重生成场景够用
func briefFromWorksheet(ws *entity.Worksheet) wfmodel.ClinicalBrief {
	brief := wfmodel.ClinicalBrief{
		ConditionTags: ws.ConditionTags,
		Interests:     ws.Interests,
	}
	if ws.AgeRangeMin > 0 || ws.AgeRangeMax > 0 {
		brief.ChildAgeMonths = (ws.AgeRangeMin + ws.AgeRangeMax) / 2
	}
	return brief
}
