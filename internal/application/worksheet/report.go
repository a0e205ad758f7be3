package worksheet

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"upllyft-worksheet-api/internal/domain/entity"
	"upllyft-worksheet-api/internal/infrastructure/openai"
	"upllyft-worksheet-api/internal/infrastructure/renderer"
	"upllyft-worksheet-api/internal/infrastructure/storage"
	wfnode "upllyft-worksheet-api/internal/workflow/node"
	workflowprompt "upllyft-worksheet-api/internal/workflow/prompt"
	apperrors "upllyft-worksheet-api/pkg/errors"
	"upllyft-worksheet-api/pkg/logger"
)

// ReportFileType 报告文件形态
type ReportFileType string

const (
	ReportFileImage    ReportFileType = "image"
	ReportFileDocument ReportFileType = "document"
)

// maxReportPages 单次解析的页数上限，防止超长文档撑爆视觉调用
const maxReportPages = 20

// ReportParser §4.2b 报告解析子服务：整页截图 + 一次视觉抽取
type ReportParser struct {
	vision   *openai.VisionClient
	renderer *renderer.Client
	store    storage.ObjectStore
	prompts  *workflowprompt.Registry
}

func NewReportParser(
	vision *openai.VisionClient,
	rendererClient *renderer.Client,
	store storage.ObjectStore,
) *ReportParser {
	return &ReportParser{
		vision:   vision,
		renderer: rendererClient,
		store:    store,
		prompts:  workflowprompt.NewRegistry(),
	}
}

// rawReportExtraction 视觉模型的抽取输出结构
type rawReportExtraction struct {
	ChildName      string   `json:"child_name"`
	ChildAgeMonths *int     `json:"child_age_months"`
	ChildBirthDate string   `json:"child_birth_date"`
	ReportDate     string   `json:"report_date"`
	AssessmentTool string   `json:"assessment_tool"`
	Domains        []struct {
		Domain  string   `json:"domain"`
		Score   *float64 `json:"score"`
		Cutoff  *float64 `json:"cutoff"`
		Flagged bool     `json:"flagged"`
		Notes   string   `json:"notes"`
	} `json:"domains"`
	Diagnoses       []string `json:"diagnoses"`
	Recommendations []string `json:"recommendations"`
}

// Parse 将报告 URL 解析为结构化发现，作为 UPLOADED_REPORT 数据源的输入
// 分页文档逐页截图后上传，与单图一样以整页图像进入视觉调用
func (p *ReportParser) Parse(ctx context.Context, reportURL string, fileType ReportFileType) (*ReportFindings, error) {
	ctx, span := tracer.Start(ctx, "ReportParser.Parse")
	span.SetAttributes(attribute.String("report.file_type", string(fileType)))
	defer span.End()

	pageURLs, err := p.pageImageURLs(ctx, reportURL, fileType)
	if err != nil {
		return nil, err
	}

	system, user, err := p.prompts.RawTexts(workflowprompt.PromptReportExtractV1)
	if err != nil {
		return nil, err
	}

	raw, err := p.vision.ExtractFromPages(ctx, pageURLs, system+"\n\n"+user)
	if err != nil {
		return nil, err
	}

	var extraction rawReportExtraction
	cleaned := wfnode.ExtractJSONObject(wfnode.StripCodeFence(raw))
	if err := json.Unmarshal([]byte(cleaned), &extraction); err != nil {
		return nil, apperrors.ErrReportParseFailed.
			WithDetail("vision output was not valid JSON").
			WithError(err)
	}

	findings := p.toFindings(ctx, &extraction)
	logger.Info(ctx, "report parsed",
		"pages", len(pageURLs),
		"domains", len(extraction.Domains),
		"recommendations", len(findings.Recommendations),
	)
	return findings, nil
}

// pageImageURLs 单图直接透传；分页文档逐页截图并上传为临时页图
func (p *ReportParser) pageImageURLs(ctx context.Context, reportURL string, fileType ReportFileType) ([]string, error) {
	switch fileType {
	case ReportFileImage:
		return []string{reportURL}, nil

	case ReportFileDocument:
		pages, err := p.renderer.RenderDocumentPages(ctx, reportURL)
		if err != nil {
			return nil, err
		}
		if len(pages) > maxReportPages {
			pages = pages[:maxReportPages]
		}

		batchID := uuid.NewString()
		urls := make([]string, 0, len(pages))
		for i, img := range pages {
			key := fmt.Sprintf("reports/%s/page-%d.png", batchID, i+1)
			url, err := p.store.Upload(ctx, key, img, "image/png")
			if err != nil {
				return nil, err
			}
			urls = append(urls, url)
		}
		return urls, nil

	default:
		return nil, apperrors.ErrInvalidParam.WithDetail("file_type must be image or document")
	}
}

// toFindings 把抽取结果归一到 6 个规范领域桶
func (p *ReportParser) toFindings(ctx context.Context, extraction *rawReportExtraction) *ReportFindings {
	findings := &ReportFindings{
		AgeMonths:       extractedAgeMonths(extraction),
		Conditions:      extraction.Diagnoses,
		Recommendations: extraction.Recommendations,
		DomainNotes:     make(map[string][]string),
	}
	for _, d := range extraction.Domains {
		canonical, ok := entity.CanonicalDomain(d.Domain)
		if !ok {
			logger.Warn(ctx, "unmapped report domain label", "label", d.Domain)
			continue
		}
		note := d.Notes
		if note == "" && d.Score != nil {
			note = fmt.Sprintf("scored %.1f", *d.Score)
			if d.Cutoff != nil {
				note += fmt.Sprintf(" (cutoff %.1f)", *d.Cutoff)
			}
		}
		if d.Flagged {
			findings.Challenges = append(findings.Challenges, canonical+": "+note)
		} else {
			findings.Strengths = append(findings.Strengths, canonical+": "+note)
		}
		if note != "" {
			findings.DomainNotes[canonical] = append(findings.DomainNotes[canonical], note)
		}
	}
	return findings
}

// extractedAgeMonths 优先取报告写明的月龄，否则用出生日期推算
// 推算基准取报告日期，报告日期缺失或无法解析时取当前日期
func extractedAgeMonths(extraction *rawReportExtraction) int {
	if extraction.ChildAgeMonths != nil && *extraction.ChildAgeMonths > 0 {
		return *extraction.ChildAgeMonths
	}
	if extraction.ChildBirthDate == "" {
		return 0
	}
	birth, err := time.Parse("2006-01-02", extraction.ChildBirthDate)
	if err != nil {
		return 0
	}
	ref := time.Now()
	if reported, err := time.Parse("2006-01-02", extraction.ReportDate); err == nil {
		ref = reported
	}
	child := entity.Child{BirthDate: birth}
	return child.AgeMonths(ref)
}
