// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	appworksheet "upllyft-worksheet-api/internal/application/worksheet"
)

// ParseReportRequest 评估报告解析请求
// file_type 取 image / document
type ParseReportRequest struct {
	ReportURL string `json:"report_url" binding:"required"`
	FileType  string `json:"file_type" binding:"required"`
}

// ReportFindingsPayload 报告解析产物，可直接回填到生成请求
type ReportFindingsPayload struct {
	AgeMonths       int                 `json:"age_months,omitempty"`
	Conditions      []string            `json:"conditions,omitempty"`
	Strengths       []string            `json:"strengths,omitempty"`
	Challenges      []string            `json:"challenges,omitempty"`
	Recommendations []string            `json:"recommendations,omitempty"`
	DomainNotes     map[string][]string `json:"domain_notes,omitempty"`
}

// ToFindings 转换为应用层结构
func (p *ReportFindingsPayload) ToFindings() *appworksheet.ReportFindings {
	if p == nil {
		return nil
	}
	return &appworksheet.ReportFindings{
		AgeMonths:       p.AgeMonths,
		Conditions:      p.Conditions,
		Strengths:       p.Strengths,
		Challenges:      p.Challenges,
		Recommendations: p.Recommendations,
		DomainNotes:     p.DomainNotes,
	}
}

// FromFindings 由应用层结构构建载荷
func FromFindings(f *appworksheet.ReportFindings) *ReportFindingsPayload {
	if f == nil {
		return nil
	}
	return &ReportFindingsPayload{
		AgeMonths:       f.AgeMonths,
		Conditions:      f.Conditions,
		Strengths:       f.Strengths,
		Challenges:      f.Challenges,
		Recommendations: f.Recommendations,
		DomainNotes:     f.DomainNotes,
	}
}
