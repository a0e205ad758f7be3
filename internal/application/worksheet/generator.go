package worksheet

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"upllyft-worksheet-api/internal/domain/entity"
	wfchain "upllyft-worksheet-api/internal/workflow/chain"
	wfmodel "upllyft-worksheet-api/internal/workflow/model"
	wfnode "upllyft-worksheet-api/internal/workflow/node"
	apperrors "upllyft-worksheet-api/pkg/errors"
	"upllyft-worksheet-api/pkg/logger"
	"upllyft-worksheet-api/pkg/metrics"
)

// GenerateParams 生成请求的工作表参数
type GenerateParams struct {
	Type       entity.WorksheetType
	SubType    string
	Difficulty entity.Difficulty
	Duration   entity.Duration
	ColorMode  entity.ColorMode

	TargetDomains       []string
	Interests           []string
	Setting             string
	SpecialInstructions string

	AgeRangeMin int
	AgeRangeMax int

	Provider string
	Model    string
}

// GeneratedContent 生成结果
type GeneratedContent struct {
	Title   string
	Variant entity.ContentVariant
	Content json.RawMessage
}

// Generator 内容生成器：提示词分发 -> LLM 链 -> 解析 -> 结构校验
type Generator struct {
	chain *wfchain.WorksheetChain
}

func NewGenerator(chain *wfchain.WorksheetChain) *Generator {
	return &Generator{chain: chain}
}

// Generate 产出一棵通过结构校验的内容树
// JSON 解析失败是可重试的用户侧错误（GenerationError），不是崩溃
func (g *Generator) Generate(ctx context.Context, gc *GenerationContext, params *GenerateParams) (*GeneratedContent, error) {
	ctx, span := tracer.Start(ctx, "Generator.Generate")
	span.SetAttributes(
		attribute.String("worksheet.type", string(params.Type)),
		attribute.String("worksheet.sub_type", params.SubType),
	)
	defer span.End()

	subType := params.SubType
	if !entity.IsKnownSubType(params.Type, subType) {
		subType = entity.DefaultSubType(params.Type)
		logger.Warn(ctx, "unknown sub_type, using type default",
			"requested", params.SubType, "fallback", subType)
	}

	variant, err := entity.VariantFor(params.Type, subType)
	if err != nil {
		return nil, apperrors.ErrInvalidParam.WithError(err)
	}

	brief := gc.Brief()
	if len(brief.Interests) == 0 {
		brief.Interests = params.Interests
	}

	in := &wfmodel.GenerateInput{
		Provider:           params.Provider,
		Model:              params.Model,
		Variant:            variant,
		WorksheetType:      params.Type,
		SubType:            subType,
		Difficulty:         params.Difficulty,
		Duration:           params.Duration,
		TargetDomains:      params.TargetDomains,
		Clinical:           brief,
		CustomInstructions: buildCustomInstructions(params),
	}

	start := time.Now()
	msg, err := g.chain.Invoke(ctx, in)
	metrics.WorksheetGenerationDuration.WithLabelValues(string(params.Type)).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		metrics.WorksheetGenerationTotal.WithLabelValues(string(params.Type), subType, "error").Inc()
		return nil, apperrors.ErrLLMCallFailed.WithError(err)
	}

	content, title, err := parseContent(variant, msg.Content)
	if err != nil {
		span.RecordError(err)
		metrics.WorksheetGenerationTotal.WithLabelValues(string(params.Type), subType, "invalid").Inc()
		return nil, err
	}
	metrics.WorksheetGenerationTotal.WithLabelValues(string(params.Type), subType, "ok").Inc()

	logger.Info(ctx, "worksheet content generated",
		"type", string(params.Type),
		"sub_type", subType,
		"variant", string(variant),
		"elapsed", time.Since(start).String(),
	)

	return &GeneratedContent{
		Title:   title,
		Variant: variant,
		Content: content,
	}, nil
}

// parseContent 剥壳、解析并做变体结构校验，返回内容与标题
func parseContent(variant entity.ContentVariant, raw string) (json.RawMessage, string, error) {
	cleaned := wfnode.ExtractJSONObject(wfnode.StripCodeFence(raw))
	if strings.TrimSpace(cleaned) == "" {
		return nil, "", apperrors.ErrGenerationFailed.WithDetail("model returned no content")
	}

	var probe struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal([]byte(cleaned), &probe); err != nil {
		return nil, "", apperrors.ErrGenerationFailed.
			WithDetail("model output was not valid JSON, retry the request").
			WithError(err)
	}

	content := json.RawMessage(cleaned)
	if err := entity.ValidateContent(variant, content); err != nil {
		return nil, "", apperrors.ErrValidationFailed.WithError(err)
	}
	return content, probe.Title, nil
}

// buildCustomInstructions 把 duration/setting/专项指令折叠为提示词附加块
func buildCustomInstructions(params *GenerateParams) string {
	lines := make([]string, 0, 4)
	if params.Setting != "" {
		lines = append(lines, "Setting where the worksheet will be used: "+params.Setting)
	}
	if phrase := difficultyPhrase(params.Difficulty); phrase != "" {
		lines = append(lines, "Difficulty guidance: "+phrase)
	}
	if phrase := durationPhrase(params.Duration); phrase != "" {
		lines = append(lines, "Time available: "+phrase)
	}
	if s := strings.TrimSpace(params.SpecialInstructions); s != "" {
		lines = append(lines, s)
	}
	return strings.Join(lines, "\n")
}

// difficultyPhrase 难度标签的教学含义，进入提示词
func difficultyPhrase(d entity.Difficulty) string {
	switch d {
	case entity.DifficultyFoundational:
		return "FOUNDATIONAL: maximal support, 1-2 step activities, heavy visual cues"
	case entity.DifficultyDeveloping:
		return "DEVELOPING: moderate support, 2-4 step activities, fading prompts"
	case entity.DifficultyStrengthening:
		return "STRENGTHENING: minimal support, multi-step activities, independence focus"
	default:
		return ""
	}
}

// durationPhrase 四值时长枚举到自然语言
func durationPhrase(d entity.Duration) string {
	switch d {
	case entity.DurationShort:
		return "about 10 minutes"
	case entity.DurationMedium:
		return "about 20 minutes"
	case entity.DurationLong:
		return "about 30-40 minutes"
	case entity.DurationExtended:
		return "45 minutes or more, split into shorter blocks"
	default:
		return ""
	}
}

// AgePhrase 月龄到 "X years Y months" 表述
func AgePhrase(ageMonths int) string {
	if ageMonths <= 0 {
		return ""
	}
	years := ageMonths / 12
	months := ageMonths % 12
	switch {
	case years == 0:
		return fmt.Sprintf("%d months", months)
	case months == 0:
		return fmt.Sprintf("%d years", years)
	default:
		return fmt.Sprintf("%d years %d months", years, months)
	}
}
