// Package worksheet 工作表生成与生命周期的应用服务层
package worksheet

import (
	"fmt"

	"upllyft-worksheet-api/internal/domain/entity"
	wfmodel "upllyft-worksheet-api/internal/workflow/model"
)

// GenerationContext 数据源解析结果，仅在一次生成请求内存活，不落库
type GenerationContext struct {
	DataSource entity.DataSource

	ChildAgeMonths int
	Conditions     []string
	Interests      []string
	Notes          string

	// SuggestedDomains 来源侧推断出的规范领域桶（MANUAL 来源为空）
	SuggestedDomains []string

	// 来源特定上下文，直接进入提示词
	FlaggedDomains []DomainFinding
	GoalTexts      []GoalContext
	SessionNotes   []SessionContext
	ReportFindings *ReportFindings
}

// DomainFinding 筛查领域得分发现
type DomainFinding struct {
	Domain string
	Score  float64
	Cutoff float64
}

// GoalContext 进入提示词的 IEP 目标摘要
type GoalContext struct {
	Domain   string
	GoalText string
	Progress int
}

// SessionContext 进入提示词的会话摘要
type SessionContext struct {
	Summary   string
	Progress  []string
	Domains   []string
	DateLabel string
}

// ReportFindings 报告解析结果（§4.2b 输出），UPLOADED_REPORT 来源的上下文载荷
type ReportFindings struct {
	AgeMonths       int                 `json:"age_months,omitempty"`
	Conditions      []string            `json:"conditions,omitempty"`
	Strengths       []string            `json:"strengths,omitempty"`
	Challenges      []string            `json:"challenges,omitempty"`
	Recommendations []string            `json:"recommendations,omitempty"`
	DomainNotes     map[string][]string `json:"domain_notes,omitempty"`
}

// Brief 将上下文压平为提示词可用的摘要行
func (gc *GenerationContext) Brief() wfmodel.ClinicalBrief {
	brief := wfmodel.ClinicalBrief{
		ChildAgeMonths: gc.ChildAgeMonths,
		ConditionTags:  gc.Conditions,
		Interests:      gc.Interests,
	}

	for _, g := range gc.GoalTexts {
		line := g.GoalText
		if g.Domain != "" {
			line = fmt.Sprintf("[%s] %s", g.Domain, line)
		}
		if g.Progress > 0 {
			line = fmt.Sprintf("%s (progress %d%%)", line, g.Progress)
		}
		brief.GoalLines = append(brief.GoalLines, line)
	}

	for _, s := range gc.SessionNotes {
		line := s.Summary
		if s.DateLabel != "" {
			line = s.DateLabel + ": " + line
		}
		for _, p := range s.Progress {
			line += "; " + p
		}
		brief.SessionLines = append(brief.SessionLines, line)
	}

	for _, f := range gc.FlaggedDomains {
		brief.ScreeningLines = append(brief.ScreeningLines,
			fmt.Sprintf("%s scored %.1f, below the %.1f cutoff", f.Domain, f.Score, f.Cutoff))
	}

	if r := gc.ReportFindings; r != nil {
		for _, s := range r.Strengths {
			brief.SessionLines = append(brief.SessionLines, "Reported strength: "+s)
		}
		for _, c := range r.Challenges {
			brief.SessionLines = append(brief.SessionLines, "Reported challenge: "+c)
		}
		for _, rec := range r.Recommendations {
			brief.SessionLines = append(brief.SessionLines, "Report recommendation: "+rec)
		}
		for domain, notes := range r.DomainNotes {
			for _, n := range notes {
				brief.ScreeningLines = append(brief.ScreeningLines, domain+": "+n)
			}
		}
	}

	if gc.Notes != "" {
		brief.SessionLines = append(brief.SessionLines, "Developmental notes: "+gc.Notes)
	}

	return brief
}
