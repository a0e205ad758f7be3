// Package entity 定义领域实体
package entity

import (
	"strings"
	"time"
)

// 6 个规范发展领域桶，用于归一不同来源的领域标签
const (
	DomainGrossMotor    = "gross_motor"
	DomainFineMotor     = "fine_motor"
	DomainLanguage      = "language"
	DomainCognitive     = "cognitive"
	DomainSocial        = "social_emotional"
	DomainSelfCare      = "self_care"
)

// CanonicalDomains 规范领域桶全集
var CanonicalDomains = []string{
	DomainGrossMotor, DomainFineMotor, DomainLanguage,
	DomainCognitive, DomainSocial, DomainSelfCare,
}

// domainAliasTable 来源领域标签到规范桶的静态映射
var domainAliasTable = map[string]string{
	"gross_motor":        DomainGrossMotor,
	"gross motor":        DomainGrossMotor,
	"movement":           DomainGrossMotor,
	"physical":           DomainGrossMotor,
	"fine_motor":         DomainFineMotor,
	"fine motor":         DomainFineMotor,
	"handwriting":        DomainFineMotor,
	"language":           DomainLanguage,
	"communication":      DomainLanguage,
	"speech":             DomainLanguage,
	"speech_language":    DomainLanguage,
	"expressive":         DomainLanguage,
	"receptive":          DomainLanguage,
	"cognitive":          DomainCognitive,
	"problem_solving":    DomainCognitive,
	"problem solving":    DomainCognitive,
	"academic":           DomainCognitive,
	"attention":          DomainCognitive,
	"social_emotional":   DomainSocial,
	"social-emotional":   DomainSocial,
	"social emotional":   DomainSocial,
	"social":             DomainSocial,
	"personal_social":    DomainSocial,
	"personal-social":    DomainSocial,
	"emotional":          DomainSocial,
	"behavior":           DomainSocial,
	"self_care":          DomainSelfCare,
	"self care":          DomainSelfCare,
	"self-help":          DomainSelfCare,
	"adaptive":           DomainSelfCare,
	"daily_living":       DomainSelfCare,
	"activities_of_daily_living": DomainSelfCare,
}

// CanonicalDomain 将来源领域标签归一到规范桶，无法识别时返回 false
func CanonicalDomain(label string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(label))
	d, ok := domainAliasTable[key]
	return d, ok
}

// Child 受助儿童档案，归档案子系统所有，此处只读
type Child struct {
	ID         string    `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID   string    `json:"tenant_id" gorm:"type:uuid;index;not null"`
	FirstName  string    `json:"first_name" gorm:"type:varchar(128)"`
	BirthDate  time.Time `json:"birth_date" gorm:"not null"`
	Conditions []string  `json:"conditions,omitempty" gorm:"type:jsonb;serializer:json"`
	Interests  []string  `json:"interests,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (Child) TableName() string {
	return "children"
}

// AgeMonths 按参考时间计算月龄
func (c *Child) AgeMonths(now time.Time) int {
	months := int(now.Year()-c.BirthDate.Year())*12 + int(now.Month()) - int(c.BirthDate.Month())
	if now.Day() < c.BirthDate.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// CaseFile 个案记录
type CaseFile struct {
	ID         string    `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID   string    `json:"tenant_id" gorm:"type:uuid;index;not null"`
	ChildID    string    `json:"child_id" gorm:"type:uuid;index;not null"`
	Conditions []string  `json:"conditions,omitempty" gorm:"type:jsonb;serializer:json"`
	Notes      string    `json:"notes,omitempty" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (CaseFile) TableName() string {
	return "case_files"
}

// DomainScore 筛查量表的单领域得分
type DomainScore struct {
	Domain  string  `json:"domain"`
	Score   float64 `json:"score"`
	Cutoff  float64 `json:"cutoff"`
	Flagged bool    `json:"flagged"`
}

// Screening 发展筛查记录
type Screening struct {
	ID           string        `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID     string        `json:"tenant_id" gorm:"type:uuid;index;not null"`
	ChildID      string        `json:"child_id" gorm:"type:uuid;index;not null"`
	Instrument   string        `json:"instrument" gorm:"type:varchar(64)"`
	Completed    bool          `json:"completed" gorm:"not null;default:false"`
	DomainScores []DomainScore `json:"domain_scores" gorm:"type:jsonb;serializer:json"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
	CreatedAt    time.Time     `json:"created_at" gorm:"autoCreateTime"`
}

func (Screening) TableName() string {
	return "screenings"
}

// FlaggedDomains 返回得分低于临界值而被标记的领域（已归一到规范桶）
func (s *Screening) FlaggedDomains() []string {
	var out []string
	seen := make(map[string]bool)
	for _, ds := range s.DomainScores {
		if !ds.Flagged {
			continue
		}
		d, ok := CanonicalDomain(ds.Domain)
		if !ok {
			continue
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

// GoalStatus IEP 目标状态
type GoalStatus string

const (
	GoalActive   GoalStatus = "ACTIVE"
	GoalAchieved GoalStatus = "ACHIEVED"
	GoalArchived GoalStatus = "ARCHIVED"
)

// IEPGoal 个别化教育计划目标
type IEPGoal struct {
	ID        string     `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID  string     `json:"tenant_id" gorm:"type:uuid;index;not null"`
	CaseID    string     `json:"case_id" gorm:"type:uuid;index;not null"`
	Domain    string     `json:"domain" gorm:"type:varchar(48)"`
	GoalText  string     `json:"goal_text" gorm:"type:text;not null"`
	Status    GoalStatus `json:"status" gorm:"type:varchar(16);index;not null;default:'ACTIVE'"`
	Progress  int        `json:"progress" gorm:"not null;default:0"` // 0-100
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

func (IEPGoal) TableName() string {
	return "iep_goals"
}

// GoalProgressNote 会话记录内按目标维度的进展描述
type GoalProgressNote struct {
	GoalID   string `json:"goal_id"`
	Domain   string `json:"domain,omitempty"`
	Progress string `json:"progress"`
}

// SessionNote 治疗会话记录
type SessionNote struct {
	ID            string             `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID      string             `json:"tenant_id" gorm:"type:uuid;index;not null"`
	CaseID        string             `json:"case_id" gorm:"type:uuid;index;not null"`
	Summary       string             `json:"summary,omitempty" gorm:"type:text"`
	GoalProgress  []GoalProgressNote `json:"goal_progress,omitempty" gorm:"type:jsonb;serializer:json"`
	SessionDate   time.Time          `json:"session_date" gorm:"index;not null"`
	CreatedAt     time.Time          `json:"created_at" gorm:"autoCreateTime"`
}

func (SessionNote) TableName() string {
	return "session_notes"
}
