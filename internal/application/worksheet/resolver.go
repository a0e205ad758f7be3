package worksheet

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"upllyft-worksheet-api/internal/domain/entity"
	"upllyft-worksheet-api/internal/domain/repository"
	apperrors "upllyft-worksheet-api/pkg/errors"
	"upllyft-worksheet-api/pkg/logger"
)

var tracer = otel.Tracer("application.worksheet")

// ResolveInput 数据源解析入参，五种来源共用一个载荷，字段按来源取用
type ResolveInput struct {
	DataSource entity.DataSource

	ChildID     string
	CaseID      string
	ScreeningID string
	GoalIDs     []string
	SessionIDs  []string

	// MANUAL 来源直通字段
	ManualAgeMonths  int
	ManualConditions []string
	ManualNotes      string

	// UPLOADED_REPORT 来源：§4.2b 预解析产物
	ReportFindings *ReportFindings
}

// Resolver 将五种数据源归一为 GenerationContext
// 非 MANUAL 来源在引用数据缺失时显式报错，不得静默返回空上下文
type Resolver struct {
	clinicalRepo repository.ClinicalRepository
}

func NewResolver(clinicalRepo repository.ClinicalRepository) *Resolver {
	return &Resolver{clinicalRepo: clinicalRepo}
}

func (r *Resolver) Resolve(ctx context.Context, in *ResolveInput) (*GenerationContext, error) {
	ctx, span := tracer.Start(ctx, "Resolver.Resolve")
	span.SetAttributes(attribute.String("data_source", string(in.DataSource)))
	defer span.End()

	switch in.DataSource {
	case entity.DataSourceManual:
		return r.resolveManual(in), nil
	case entity.DataSourceScreening:
		return r.resolveScreening(ctx, in)
	case entity.DataSourceUploadedReport:
		return r.resolveUploadedReport(ctx, in)
	case entity.DataSourceIEPGoals:
		return r.resolveIEPGoals(ctx, in)
	case entity.DataSourceSessionNotes:
		return r.resolveSessionNotes(ctx, in)
	default:
		return nil, apperrors.ErrInvalidDataSource.WithDetail(fmt.Sprintf("unknown data source: %s", in.DataSource))
	}
}

// resolveManual 直通调用方提供的年龄/条件/备注，不做领域推断
func (r *Resolver) resolveManual(in *ResolveInput) *GenerationContext {
	return &GenerationContext{
		DataSource:     entity.DataSourceManual,
		ChildAgeMonths: in.ManualAgeMonths,
		Conditions:     in.ManualConditions,
		Notes:          in.ManualNotes,
	}
}

func (r *Resolver) resolveScreening(ctx context.Context, in *ResolveInput) (*GenerationContext, error) {
	screening, err := r.clinicalRepo.GetScreening(ctx, in.ScreeningID)
	if err != nil {
		return nil, err
	}
	if screening == nil || !screening.Completed {
		return nil, apperrors.ErrScreeningNotFound.WithDetail("screening missing or not completed")
	}

	child, err := r.clinicalRepo.GetChild(ctx, screening.ChildID)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, apperrors.ErrChildNotFound
	}

	gc := &GenerationContext{
		DataSource:     entity.DataSourceScreening,
		ChildAgeMonths: child.AgeMonths(time.Now()),
		Conditions:     child.Conditions,
		Interests:      child.Interests,
	}
	for _, ds := range screening.DomainScores {
		if !ds.Flagged {
			continue
		}
		domain, ok := entity.CanonicalDomain(ds.Domain)
		if !ok {
			logger.Warn(ctx, "unmapped screening domain label", "label", ds.Domain, "screening_id", screening.ID)
			continue
		}
		gc.FlaggedDomains = append(gc.FlaggedDomains, DomainFinding{
			Domain: domain,
			Score:  ds.Score,
			Cutoff: ds.Cutoff,
		})
		gc.SuggestedDomains = appendUnique(gc.SuggestedDomains, domain)
	}
	return gc, nil
}

func (r *Resolver) resolveUploadedReport(ctx context.Context, in *ResolveInput) (*GenerationContext, error) {
	if in.ReportFindings == nil {
		return nil, apperrors.ErrInvalidDataSource.WithDetail("uploaded report requires parsed report findings")
	}

	gc := &GenerationContext{
		DataSource:     entity.DataSourceUploadedReport,
		ChildAgeMonths: in.ReportFindings.AgeMonths,
		Conditions:     in.ReportFindings.Conditions,
		ReportFindings: in.ReportFindings,
	}
	for domain := range in.ReportFindings.DomainNotes {
		if canonical, ok := entity.CanonicalDomain(domain); ok {
			gc.SuggestedDomains = appendUnique(gc.SuggestedDomains, canonical)
		}
	}

	// 条件列表与个案记录合并
	if in.CaseID != "" {
		caseFile, err := r.clinicalRepo.GetCase(ctx, in.CaseID)
		if err != nil {
			return nil, err
		}
		if caseFile == nil {
			return nil, apperrors.ErrCaseNotFound
		}
		for _, c := range caseFile.Conditions {
			gc.Conditions = appendUnique(gc.Conditions, c)
		}
	}
	return gc, nil
}

func (r *Resolver) resolveIEPGoals(ctx context.Context, in *ResolveInput) (*GenerationContext, error) {
	caseFile, err := r.clinicalRepo.GetCase(ctx, in.CaseID)
	if err != nil {
		return nil, err
	}
	if caseFile == nil {
		return nil, apperrors.ErrCaseNotFound
	}

	goals, err := r.clinicalRepo.GetActiveGoals(ctx, in.CaseID, in.GoalIDs)
	if err != nil {
		return nil, err
	}
	if len(goals) == 0 {
		return nil, apperrors.ErrGoalsNotFound
	}

	child, err := r.clinicalRepo.GetChild(ctx, caseFile.ChildID)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, apperrors.ErrChildNotFound
	}

	gc := &GenerationContext{
		DataSource:     entity.DataSourceIEPGoals,
		ChildAgeMonths: child.AgeMonths(time.Now()),
		Conditions:     mergeConditions(child.Conditions, caseFile.Conditions),
		Interests:      child.Interests,
	}
	for _, g := range goals {
		domain := g.Domain
		if canonical, ok := entity.CanonicalDomain(g.Domain); ok {
			domain = canonical
			gc.SuggestedDomains = appendUnique(gc.SuggestedDomains, canonical)
		}
		gc.GoalTexts = append(gc.GoalTexts, GoalContext{
			Domain:   domain,
			GoalText: g.GoalText,
			Progress: g.Progress,
		})
	}
	return gc, nil
}

func (r *Resolver) resolveSessionNotes(ctx context.Context, in *ResolveInput) (*GenerationContext, error) {
	caseFile, err := r.clinicalRepo.GetCase(ctx, in.CaseID)
	if err != nil {
		return nil, err
	}
	if caseFile == nil {
		return nil, apperrors.ErrCaseNotFound
	}

	sessions, err := r.clinicalRepo.GetSessions(ctx, in.CaseID, in.SessionIDs)
	if err != nil {
		return nil, err
	}
	if len(sessions) == 0 {
		return nil, apperrors.ErrSessionsNotFound
	}

	child, err := r.clinicalRepo.GetChild(ctx, caseFile.ChildID)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, apperrors.ErrChildNotFound
	}

	gc := &GenerationContext{
		DataSource:     entity.DataSourceSessionNotes,
		ChildAgeMonths: child.AgeMonths(time.Now()),
		Conditions:     mergeConditions(child.Conditions, caseFile.Conditions),
		Interests:      child.Interests,
	}
	for _, s := range sessions {
		sc := SessionContext{
			Summary:   s.Summary,
			DateLabel: s.SessionDate.Format("2006-01-02"),
		}
		for _, gp := range s.GoalProgress {
			if gp.Progress != "" {
				sc.Progress = append(sc.Progress, gp.Progress)
			}
			if canonical, ok := entity.CanonicalDomain(gp.Domain); ok {
				sc.Domains = appendUnique(sc.Domains, canonical)
				gc.SuggestedDomains = appendUnique(gc.SuggestedDomains, canonical)
			}
		}
		gc.SessionNotes = append(gc.SessionNotes, sc)
	}
	return gc, nil
}

func appendUnique(list []string, v string) []string {
	for _, x := range list {
		if x == v {
			return list
		}
	}
	return append(list, v)
}

func mergeConditions(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	for _, c := range a {
		out = appendUnique(out, c)
	}
	for _, c := range b {
		out = appendUnique(out, c)
	}
	return out
}
