package worksheet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"upllyft-worksheet-api/internal/domain/entity"
)

func TestExtractedAgeMonths(t *testing.T) {
	age := 42

	tests := []struct {
		name       string
		extraction rawReportExtraction
		want       int
	}{
		{
			name:       "explicit age months wins",
			extraction: rawReportExtraction{ChildAgeMonths: &age, ChildBirthDate: "2020-01-15"},
			want:       42,
		},
		{
			name: "derived from birth date against report date",
			extraction: rawReportExtraction{
				ChildBirthDate: "2022-03-10",
				ReportDate:     "2025-03-10",
			},
			want: 36,
		},
		{
			name: "day of month not yet reached rounds down",
			extraction: rawReportExtraction{
				ChildBirthDate: "2022-03-20",
				ReportDate:     "2025-03-10",
			},
			want: 35,
		},
		{
			name:       "no age information",
			extraction: rawReportExtraction{ChildName: "A. Child"},
			want:       0,
		},
		{
			name:       "unparseable birth date",
			extraction: rawReportExtraction{ChildBirthDate: "spring 2022"},
			want:       0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractedAgeMonths(&tt.extraction))
		})
	}
}

func TestToFindingsCarriesAge(t *testing.T) {
	p := &ReportParser{}
	age := 30
	findings := p.toFindings(context.Background(), &rawReportExtraction{
		ChildAgeMonths: &age,
		Domains: []struct {
			Domain  string   `json:"domain"`
			Score   *float64 `json:"score"`
			Cutoff  *float64 `json:"cutoff"`
			Flagged bool     `json:"flagged"`
			Notes   string   `json:"notes"`
		}{
			{Domain: "Communication", Flagged: true, Notes: "below cutoff"},
		},
		Diagnoses: []string{"autism_spectrum"},
	})

	assert.Equal(t, 30, findings.AgeMonths)
	assert.Equal(t, []string{"autism_spectrum"}, findings.Conditions)
	assert.Contains(t, findings.Challenges, entity.DomainLanguage+": below cutoff")
}
