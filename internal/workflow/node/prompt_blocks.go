package node

import (
	"fmt"
	"strings"

	wfmodel "upllyft-worksheet-api/internal/workflow/model"
)

// BuildClinicalBlock 将临床摘要拼装为提示词中的上下文段落
// 空摘要返回空串，调用方不应输出空段落
func BuildClinicalBlock(brief wfmodel.ClinicalBrief) string {
	lines := make([]string, 0, 8)

	if brief.ChildAgeMonths > 0 {
		years := brief.ChildAgeMonths / 12
		months := brief.ChildAgeMonths % 12
		lines = append(lines, fmt.Sprintf("Child age: %d years %d months (%d months total)", years, months, brief.ChildAgeMonths))
	}
	if len(brief.ConditionTags) > 0 {
		lines = append(lines, "Diagnosed conditions: "+strings.Join(brief.ConditionTags, ", "))
	}
	if len(brief.Interests) > 0 {
		lines = append(lines, "Child interests: "+strings.Join(brief.Interests, ", "))
	}
	if block := buildListBlock("IEP goals to target:", brief.GoalLines); block != "" {
		lines = append(lines, block)
	}
	if block := buildListBlock("Recent session notes:", brief.SessionLines); block != "" {
		lines = append(lines, block)
	}
	if block := buildListBlock("Screening results (flagged domains):", brief.ScreeningLines); block != "" {
		lines = append(lines, block)
	}

	return strings.Join(lines, "\n")
}

// BuildCandidatesBlock 将候选工作表摘要拼装为编号列表
func BuildCandidatesBlock(candidateLines []string) string {
	if len(candidateLines) == 0 {
		return ""
	}
	lines := make([]string, 0, len(candidateLines))
	for i, l := range candidateLines {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, l))
	}
	return strings.Join(lines, "\n")
}

func buildListBlock(header string, items []string) string {
	if len(items) == 0 {
		return ""
	}
	lines := make([]string, 0, len(items)+1)
	lines = append(lines, header)
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it == "" {
			continue
		}
		lines = append(lines, "- "+it)
	}
	if len(lines) == 1 {
		return ""
	}
	return strings.Join(lines, "\n")
}
