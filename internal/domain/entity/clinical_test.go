package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalDomain(t *testing.T) {
	tests := []struct {
		label string
		want  string
		ok    bool
	}{
		{"language", DomainLanguage, true},
		{"communication", DomainLanguage, true},
		{"Speech", DomainLanguage, true},
		{"  Fine Motor  ", DomainFineMotor, true},
		{"handwriting", DomainFineMotor, true},
		{"Personal-Social", DomainSocial, true},
		{"behavior", DomainSocial, true},
		{"adaptive", DomainSelfCare, true},
		{"problem solving", DomainCognitive, true},
		{"movement", DomainGrossMotor, true},
		{"mystery_scale", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := CanonicalDomain(tt.label)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChildAgeMonths(t *testing.T) {
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		birth time.Time
		want  int
	}{
		{"exactly four years", time.Date(2022, 8, 15, 0, 0, 0, 0, time.UTC), 48},
		{"day before monthiversary", time.Date(2022, 8, 16, 0, 0, 0, 0, time.UTC), 47},
		{"mid month", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 30},
		{"newborn", time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), 0},
		{"future birth date clamps to zero", time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Child{BirthDate: tt.birth}
			assert.Equal(t, tt.want, c.AgeMonths(now))
		})
	}
}

func TestScreeningFlaggedDomains(t *testing.T) {
	s := &Screening{
		DomainScores: []DomainScore{
			{Domain: "Communication", Score: 20, Cutoff: 30, Flagged: true},
			{Domain: "speech", Score: 18, Cutoff: 30, Flagged: true},
			{Domain: "gross motor", Score: 55, Cutoff: 40, Flagged: false},
			{Domain: "fine_motor", Score: 25, Cutoff: 35, Flagged: true},
			{Domain: "mystery_scale", Score: 5, Cutoff: 10, Flagged: true},
		},
	}

	// 归一到规范桶并去重，未识别的来源标签丢弃
	assert.Equal(t, []string{DomainLanguage, DomainFineMotor}, s.FlaggedDomains())
}

func TestScreeningFlaggedDomainsEmpty(t *testing.T) {
	s := &Screening{DomainScores: []DomainScore{{Domain: "language", Flagged: false}}}
	assert.Empty(t, s.FlaggedDomains())
}
