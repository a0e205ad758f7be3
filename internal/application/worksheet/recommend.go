package worksheet

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"upllyft-worksheet-api/internal/domain/entity"
	"upllyft-worksheet-api/internal/domain/repository"
	"upllyft-worksheet-api/internal/infrastructure/persistence/redis"
	wfchain "upllyft-worksheet-api/internal/workflow/chain"
	wfmodel "upllyft-worksheet-api/internal/workflow/model"
	wfnode "upllyft-worksheet-api/internal/workflow/node"
	apperrors "upllyft-worksheet-api/pkg/errors"
	"upllyft-worksheet-api/pkg/logger"
	"upllyft-worksheet-api/pkg/metrics"
)

// 加权启发式评分权重
const (
	scoreDomainMatch    = 30 // 每命中一个筛查/目标领域
	scoreAgeFit         = 20 // 月龄落在适用区间
	scoreAgeNeutral     = 10 // 区间未设置或不命中
	scoreConditionMatch = 15 // 每命中一个条件标签
	scoreRatingMax      = 15 // 评分满分折算上限
	scorePopularityMax  = 10 // 评论量折算上限
	scoreVerifiedBonus  = 5  // 认证贡献者
)

// popularityReviewCeiling 评论数达到该值即拿满人气分
const popularityReviewCeiling = 20

// defaultRecommendLimit 默认返回条数
const defaultRecommendLimit = 5

// candidatePoolSize 进入打分的候选池大小
const candidatePoolSize = 100

// Recommendation 单条推荐结果
type Recommendation struct {
	Worksheet     *entity.Worksheet `json:"worksheet"`
	Score         int               `json:"score"`
	Justification string            `json:"justification"`
}

// Recommender 加权启发式推荐引擎
type Recommender struct {
	worksheetRepo  repository.WorksheetRepository
	completionRepo repository.CompletionRepository
	clinicalRepo   repository.ClinicalRepository
	justifyChain   *wfchain.RecommendJustifyChain
	cache          *redis.Cache
	cacheTTL       time.Duration
}

func NewRecommender(
	worksheetRepo repository.WorksheetRepository,
	completionRepo repository.CompletionRepository,
	clinicalRepo repository.ClinicalRepository,
	justifyChain *wfchain.RecommendJustifyChain,
	cache *redis.Cache,
	cacheTTL time.Duration,
) *Recommender {
	return &Recommender{
		worksheetRepo:  worksheetRepo,
		completionRepo: completionRepo,
		clinicalRepo:   clinicalRepo,
		justifyChain:   justifyChain,
		cache:          cache,
		cacheTTL:       cacheTTL,
	}
}

// RecommendForChild 为儿童推荐公开工作表，结果短时缓存
func (r *Recommender) RecommendForChild(ctx context.Context, tenantID, childID string, limit int) ([]*Recommendation, error) {
	ctx, span := tracer.Start(ctx, "Recommender.RecommendForChild")
	span.SetAttributes(attribute.String("child_id", childID))
	defer span.End()

	if limit <= 0 {
		limit = defaultRecommendLimit
	}

	load := func() (interface{}, error) {
		return r.recommend(ctx, childID, limit)
	}

	if r.cache == nil || r.cacheTTL <= 0 {
		recs, err := load()
		if err != nil {
			return nil, err
		}
		return recs.([]*Recommendation), nil
	}

	data, err := r.cache.GetOrLoadSafe(ctx, redis.BuildRecommendationKey(tenantID, childID), r.cacheTTL, load)
	if err != nil {
		return nil, err
	}
	var recs []*Recommendation
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, apperrors.ErrCacheError.WithError(err)
	}
	return recs, nil
}

func (r *Recommender) recommend(ctx context.Context, childID string, limit int) ([]*Recommendation, error) {
	child, err := r.clinicalRepo.GetChild(ctx, childID)
	if err != nil {
		return nil, err
	}
	if child == nil {
		metrics.RecommendationTotal.WithLabelValues("error").Inc()
		return nil, apperrors.ErrChildNotFound
	}

	profile, err := r.buildProfile(ctx, child)
	if err != nil {
		return nil, err
	}

	excluded, err := r.completionRepo.CompletedWorksheetIDs(ctx, childID)
	if err != nil {
		return nil, err
	}

	candidates, err := r.worksheetRepo.ListCandidates(ctx, &repository.CandidateFilter{
		ConditionTags: child.Conditions,
		ExcludeIDs:    excluded,
		Limit:         candidatePoolSize,
	})
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		metrics.RecommendationTotal.WithLabelValues("empty").Inc()
		return []*Recommendation{}, nil
	}

	recs := make([]*Recommendation, 0, len(candidates))
	for _, ws := range candidates {
		recs = append(recs, &Recommendation{
			Worksheet: ws,
			Score:     scoreWorksheet(ws, profile),
		})
	}
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	if len(recs) > limit {
		recs = recs[:limit]
	}

	r.justify(ctx, profile, recs)
	metrics.RecommendationTotal.WithLabelValues("ok").Inc()
	return recs, nil
}

// childProfile 打分输入：儿童画像
type childProfile struct {
	ageMonths  int
	conditions []string
	interests  []string
	// domains 筛查标记领域与活跃目标领域的并集（规范桶）
	domains map[string]bool
	// goalLines/screeningLines 供 LLM 说明使用
	goalLines      []string
	screeningLines []string
}

func (r *Recommender) buildProfile(ctx context.Context, child *entity.Child) (*childProfile, error) {
	profile := &childProfile{
		ageMonths:  child.AgeMonths(time.Now()),
		conditions: child.Conditions,
		interests:  child.Interests,
		domains:    make(map[string]bool),
	}

	screening, err := r.clinicalRepo.GetLatestCompletedScreening(ctx, child.ID)
	if err != nil {
		return nil, err
	}
	if screening != nil {
		for _, d := range screening.FlaggedDomains() {
			profile.domains[d] = true
			profile.screeningLines = append(profile.screeningLines, d+" flagged on latest screening")
		}
	}

	goals, err := r.clinicalRepo.GetActiveGoalsByChild(ctx, child.ID)
	if err != nil {
		return nil, err
	}
	for _, g := range goals {
		if canonical, ok := entity.CanonicalDomain(g.Domain); ok {
			profile.domains[canonical] = true
		}
		profile.goalLines = append(profile.goalLines, g.GoalText)
	}
	return profile, nil
}

// scoreWorksheet 按画像匹配度加权打分
func scoreWorksheet(ws *entity.Worksheet, p *childProfile) int {
	score := 0

	for _, d := range ws.TargetDomains {
		if p.domains[d] {
			score += scoreDomainMatch
		}
	}

	if ws.AgeFits(p.ageMonths) {
		score += scoreAgeFit
	} else {
		score += scoreAgeNeutral
	}

	condSet := make(map[string]bool, len(p.conditions))
	for _, c := range p.conditions {
		condSet[c] = true
	}
	for _, tag := range ws.ConditionTags {
		if condSet[tag] {
			score += scoreConditionMatch
		}
	}

	score += int(ws.AverageRating() / 5 * scoreRatingMax)

	reviews := ws.ReviewCount
	if reviews > popularityReviewCeiling {
		reviews = popularityReviewCeiling
	}
	score += reviews * scorePopularityMax / popularityReviewCeiling

	if ws.VerifiedContributor {
		score += scoreVerifiedBonus
	}
	return score
}

// justify 为每条推荐补一句说明；LLM 失败时回落到模板文案
func (r *Recommender) justify(ctx context.Context, p *childProfile, recs []*Recommendation) {
	for _, rec := range recs {
		rec.Justification = templateJustification(rec.Worksheet, p)
	}
	if r.justifyChain == nil || len(recs) == 0 {
		return
	}

	lines := make([]string, 0, len(recs))
	for _, rec := range recs {
		ws := rec.Worksheet
		lines = append(lines, ws.Title+" ("+string(ws.Type)+"/"+ws.SubType+", "+string(ws.Difficulty)+")")
	}

	msg, err := r.justifyChain.Invoke(ctx, &wfmodel.RecommendJustifyInput{
		Clinical: wfmodel.ClinicalBrief{
			ChildAgeMonths: p.ageMonths,
			ConditionTags:  p.conditions,
			Interests:      p.interests,
			GoalLines:      p.goalLines,
			ScreeningLines: p.screeningLines,
		},
		CandidateLines: lines,
	})
	if err != nil {
		logger.Warn(ctx, "justification llm call failed, using template fallback", "error", err.Error())
		return
	}

	var out struct {
		Justifications []string `json:"justifications"`
	}
	if err := json.Unmarshal([]byte(wfnode.ExtractJSONObject(wfnode.StripCodeFence(msg.Content))), &out); err != nil {
		logger.Warn(ctx, "justification output not parseable, using template fallback", "error", err.Error())
		return
	}
	for i, j := range out.Justifications {
		if i >= len(recs) {
			break
		}
		if j != "" {
			recs[i].Justification = j
		}
	}
}

func templateJustification(ws *entity.Worksheet, p *childProfile) string {
	for _, d := range ws.TargetDomains {
		if p.domains[d] {
			return "Targets the " + d + " domain identified in this child's goals and screening results."
		}
	}
	if ws.AgeFits(p.ageMonths) {
		return "Age-appropriate " + string(ws.Difficulty) + " level worksheet matching this child's profile."
	}
	return "Popular worksheet matching this child's condition profile."
}
