package worksheet

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"upllyft-worksheet-api/internal/domain/entity"
	"upllyft-worksheet-api/internal/domain/repository"
	apperrors "upllyft-worksheet-api/pkg/errors"
)

// 难度自适应阈值（先取定值，待产品确认是否改为配置）
const (
	// DifficultyStepUpAvgRating 平均评分低于该值视为偏易，难度上调一级
	DifficultyStepUpAvgRating = 2.0
	// DifficultyStepDownAvgRating 平均评分高于该值视为偏难，难度下调一级
	DifficultyStepDownAvgRating = 4.0
)

// difficultyWindowSize 参与判定的最近完成记录条数
const difficultyWindowSize = 10

// DifficultySuggestion 难度建议结果
type DifficultySuggestion struct {
	Suggested   entity.Difficulty `json:"suggested"`
	Current     entity.Difficulty `json:"current,omitempty"`
	Completions int               `json:"completions"`
	Basis       string            `json:"basis"`
}

// DifficultyAdvisor 基于完成遥测的难度自适应
type DifficultyAdvisor struct {
	completionRepo repository.CompletionRepository
	clinicalRepo   repository.ClinicalRepository
}

func NewDifficultyAdvisor(
	completionRepo repository.CompletionRepository,
	clinicalRepo repository.ClinicalRepository,
) *DifficultyAdvisor {
	return &DifficultyAdvisor{
		completionRepo: completionRepo,
		clinicalRepo:   clinicalRepo,
	}
}

// Suggest 检视最近 10 次完成（可按领域过滤）：
// 偏易信号占优或平均评分过低 → 上调一级；偏难信号占优或平均评分过高 → 下调一级；
// “刚好”占优 → 保持；无明确信号 → 默认上调一级。步进始终夹在三级枚举边界内。
func (a *DifficultyAdvisor) Suggest(ctx context.Context, childID, domain string) (*DifficultySuggestion, error) {
	ctx, span := tracer.Start(ctx, "DifficultyAdvisor.Suggest")
	span.SetAttributes(
		attribute.String("child_id", childID),
		attribute.String("domain", domain),
	)
	defer span.End()

	child, err := a.clinicalRepo.GetChild(ctx, childID)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, apperrors.ErrChildNotFound
	}

	completions, err := a.completionRepo.ListRecentByChild(ctx, childID, domain, difficultyWindowSize)
	if err != nil {
		return nil, err
	}
	if len(completions) == 0 {
		return &DifficultySuggestion{
			Suggested:   entity.DifficultyFoundational,
			Completions: 0,
			Basis:       "no completion history, starting at the foundational level",
		}, nil
	}

	// 当前难度取最近一次完成
	current := completions[0].Difficulty

	var tooEasy, tooHard, justRight int
	var ratingSum, ratingCount int
	for _, c := range completions {
		switch c.Quality {
		case entity.QualityTooEasy:
			tooEasy++
		case entity.QualityTooHard:
			tooHard++
		case entity.QualityJustRight:
			justRight++
		}
		if c.Rating != nil {
			ratingSum += *c.Rating
			ratingCount++
		}
	}
	avgRating := 0.0
	if ratingCount > 0 {
		avgRating = float64(ratingSum) / float64(ratingCount)
	}

	suggestion := &DifficultySuggestion{Current: current, Completions: len(completions)}
	switch {
	case tooEasy > tooHard && tooEasy > justRight:
		suggestion.Suggested = current.Step(1)
		suggestion.Basis = "recent completions reported as too easy"
	case ratingCount > 0 && avgRating < DifficultyStepUpAvgRating:
		suggestion.Suggested = current.Step(1)
		suggestion.Basis = "low average completion rating suggests insufficient challenge"
	case tooHard > tooEasy && tooHard > justRight:
		suggestion.Suggested = current.Step(-1)
		suggestion.Basis = "recent completions reported as too hard"
	case ratingCount > 0 && avgRating > DifficultyStepDownAvgRating:
		suggestion.Suggested = current.Step(-1)
		suggestion.Basis = "high average completion rating suggests excessive challenge"
	case justRight > 0 && justRight >= tooEasy && justRight >= tooHard:
		suggestion.Suggested = current
		suggestion.Basis = "recent completions reported as just right"
	default:
		suggestion.Suggested = current.Step(1)
		suggestion.Basis = "no dominant signal, defaulting to a one-step increase"
	}
	return suggestion, nil
}
