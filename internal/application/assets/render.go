package assets

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"

	"upllyft-worksheet-api/internal/domain/entity"
	apperrors "upllyft-worksheet-api/pkg/errors"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// HTMLRenderer 把内容树 + 插图组装成单页 HTML 文档
// 渲染服务只吃 HTML，排版全部在模板层完成
type HTMLRenderer struct {
	tmpl *template.Template
}

func NewHTMLRenderer() (*HTMLRenderer, error) {
	tmpl, err := template.New("worksheet").Funcs(template.FuncMap{
		"illo":       lookupIllustration,
		"illoFailed": illustrationFailed,
		"inc":        func(i int) int { return i + 1 },
	}).ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse worksheet templates: %w", err)
	}
	return &HTMLRenderer{tmpl: tmpl}, nil
}

type renderData struct {
	Worksheet *entity.Worksheet
	Content   any
	Images    map[string]*entity.Illustration
}

type layoutData struct {
	Worksheet *entity.Worksheet
	Body      template.HTML
}

// Render 产出完整 HTML：FAILED 插图渲染占位块，不中断文档
func (r *HTMLRenderer) Render(ws *entity.Worksheet, variant entity.ContentVariant, illustrations []*entity.Illustration) (string, error) {
	content, err := decodeContent(variant, ws.Content)
	if err != nil {
		return "", apperrors.ErrRenderError.WithError(err)
	}

	images := make(map[string]*entity.Illustration, len(illustrations))
	for _, ill := range illustrations {
		images[ill.NodeID] = ill
	}

	var body bytes.Buffer
	data := renderData{Worksheet: ws, Content: content, Images: images}
	if err := r.tmpl.ExecuteTemplate(&body, "body_"+string(variant), data); err != nil {
		return "", apperrors.ErrRenderError.WithError(fmt.Errorf("render %s body: %w", variant, err))
	}

	var doc bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&doc, "layout", layoutData{Worksheet: ws, Body: template.HTML(body.String())}); err != nil {
		return "", apperrors.ErrRenderError.WithError(fmt.Errorf("render layout: %w", err))
	}
	return doc.String(), nil
}

func decodeContent(variant entity.ContentVariant, raw json.RawMessage) (any, error) {
	switch variant {
	case entity.VariantActivity:
		var c entity.ActivityContent
		return &c, json.Unmarshal(raw, &c)
	case entity.VariantVisualSchedule:
		var c entity.VisualScheduleContent
		return &c, json.Unmarshal(raw, &c)
	case entity.VariantSocialStory:
		var c entity.SocialStoryContent
		return &c, json.Unmarshal(raw, &c)
	case entity.VariantEmotionThermometer:
		var c entity.EmotionThermometerContent
		return &c, json.Unmarshal(raw, &c)
	case entity.VariantWeeklyPlan:
		var c entity.WeeklyPlanContent
		return &c, json.Unmarshal(raw, &c)
	case entity.VariantDailyRoutine:
		var c entity.DailyRoutineContent
		return &c, json.Unmarshal(raw, &c)
	default:
		return nil, fmt.Errorf("unknown content variant: %s", variant)
	}
}

// lookupIllustration 模板函数：只返回 COMPLETED 的插图，FAILED 交给占位块
func lookupIllustration(images map[string]*entity.Illustration, nodeID string) *entity.Illustration {
	ill, ok := images[nodeID]
	if !ok || ill.Status != entity.IllustrationCompleted || ill.ImageURL == "" {
		return nil
	}
	return ill
}

func illustrationFailed(images map[string]*entity.Illustration, nodeID string) bool {
	ill, ok := images[nodeID]
	return ok && ill.Status == entity.IllustrationFailed
}
