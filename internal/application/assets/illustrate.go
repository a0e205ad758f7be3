package assets

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"upllyft-worksheet-api/internal/domain/entity"
	"upllyft-worksheet-api/internal/infrastructure/openai"
	"upllyft-worksheet-api/pkg/logger"
	"upllyft-worksheet-api/pkg/metrics"
)

var tracer = otel.Tracer("application.assets")

// Illustrator 插图生成：风格归一提示词 + 逐张顺序调用
type Illustrator struct {
	imageClient *openai.ImageClient
}

func NewIllustrator(imageClient *openai.ImageClient) *Illustrator {
	return &Illustrator{imageClient: imageClient}
}

// GenerateAll 顺序生成整批插图（外部服务限流，不并发）
// 单图失败产出 FAILED 行并继续，整批永不因个别失败中断
func (il *Illustrator) GenerateAll(ctx context.Context, ws *entity.Worksheet, tasks []ImageTask) []*entity.Illustration {
	ctx, span := tracer.Start(ctx, "Illustrator.GenerateAll")
	span.SetAttributes(attribute.Int("illustration.count", len(tasks)))
	defer span.End()

	items := make([]*entity.Illustration, 0, len(tasks))
	for i, task := range tasks {
		prompt := BuildImagePrompt(ws, task.Prompt, "")
		item := &entity.Illustration{
			TenantID:     ws.TenantID,
			WorksheetID:  ws.ID,
			NodeID:       task.NodeID,
			SourcePrompt: task.Prompt,
			Prompt:       prompt,
			AltText:      task.Label,
			Position:     i,
		}

		url, err := il.imageClient.Generate(ctx, prompt)
		if err != nil {
			logger.Warn(ctx, "illustration generation failed, continuing batch",
				"worksheet_id", ws.ID, "node_id", task.NodeID, "error", err.Error())
			metrics.IllustrationTotal.WithLabelValues("error").Inc()
			item.Status = entity.IllustrationFailed
		} else {
			metrics.IllustrationTotal.WithLabelValues("ok").Inc()
			item.Status = entity.IllustrationCompleted
			item.ImageURL = url
		}
		items = append(items, item)
	}
	return items
}

// Regenerate 单图重生成，customPrompt 非空时取代原始节点提示词成为新基底
// 始终从未包装的 SourcePrompt 重新组装，避免风格包装逐次嵌套
func (il *Illustrator) Regenerate(ctx context.Context, ws *entity.Worksheet, ill *entity.Illustration, customPrompt string) error {
	ctx, span := tracer.Start(ctx, "Illustrator.Regenerate")
	span.SetAttributes(attribute.String("illustration_id", ill.ID))
	defer span.End()

	source := ill.SourcePrompt
	if customPrompt != "" {
		source = customPrompt
	}
	prompt := BuildImagePrompt(ws, source, "")
	url, err := il.imageClient.Generate(ctx, prompt)
	if err != nil {
		metrics.IllustrationTotal.WithLabelValues("error").Inc()
		ill.Status = entity.IllustrationFailed
		ill.ImageURL = ""
		return err
	}

	metrics.IllustrationTotal.WithLabelValues("ok").Inc()
	ill.SourcePrompt = source
	ill.Prompt = prompt
	ill.Status = entity.IllustrationCompleted
	ill.ImageURL = url
	return nil
}

// BuildImagePrompt 组装风格归一的图像提示词：
// 节点提示 + 年龄段表述 + 色彩模式 + 兴趣主题 + 使用场景
func BuildImagePrompt(ws *entity.Worksheet, nodePrompt, customPrompt string) string {
	base := strings.TrimSpace(customPrompt)
	if base == "" {
		base = strings.TrimSpace(nodePrompt)
	}

	parts := []string{
		"Simple, friendly illustration for a children's therapy worksheet: " + base + ".",
		ageBandPhrase(ws.AgeRangeMin, ws.AgeRangeMax),
		colorModePhrase(ws.ColorMode),
	}
	if len(ws.Interests) > 0 {
		parts = append(parts, "Theme it around: "+strings.Join(ws.Interests, ", ")+".")
	}
	if ws.Setting != "" {
		parts = append(parts, "Scene setting: "+ws.Setting+".")
	}
	parts = append(parts, "Clean white background, no text in the image, consistent flat style.")

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

func ageBandPhrase(minMonths, maxMonths int) string {
	if minMonths == 0 && maxMonths == 0 {
		return "Suitable for young children."
	}
	return fmt.Sprintf("Suitable for children aged %d to %d years.", minMonths/12, (maxMonths+11)/12)
}

func colorModePhrase(mode entity.ColorMode) string {
	switch mode {
	case entity.ColorModeGrayscale:
		return "Grayscale only, soft gray shading."
	case entity.ColorModeLineArt:
		return "Black and white line art, no shading, suitable for coloring in."
	default:
		return "Bright full-color palette."
	}
}
