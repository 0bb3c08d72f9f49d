package similarity_test

import (
	"testing"

	"go-crewperf/internal/similarity"

	"github.com/stretchr/testify/assert"
)

var jobNames = []string{
	"123 Oak St — reroof",
	"123 Oak Street Reroof",
	"Smith Residence",
	"Smith Residence - Job",
	"Smíth Résidence",
	"Johnson Kitchen Remodel",
	"Johnson Bath",
	"4501 West Maple Ave",
	"4501 West Maple Avenue - SAN",
	"",
	"QC",
}

func TestScore_Symmetric(t *testing.T) {
	for _, a := range jobNames {
		for _, b := range jobNames {
			assert.Equal(t, similarity.Score(a, b), similarity.Score(b, a), "%q vs %q", a, b)
		}
	}
}

func TestScore_Identity(t *testing.T) {
	names := append([]string{"—", "#", "---"}, jobNames...)
	for _, a := range names {
		assert.Equal(t, 1.0, similarity.Score(a, a), "%q", a)
	}
}

func TestScore_Range(t *testing.T) {
	for _, a := range jobNames {
		for _, b := range jobNames {
			got := similarity.Score(a, b)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		}
	}
}

func TestScore_NormalizationEquivalents(t *testing.T) {
	tests := []struct {
		name string
		a, b string
	}{
		{"abbreviation and dash", "123 Oak St — reroof", "123 Oak Street Reroof"},
		{"job suffix", "Smith Residence - Job", "smith residence"},
		{"diacritics", "Smíth Résidence", "Smith Residence"},
		{"punctuation and spacing", "  SMITH,   residence. ", "Smith Residence"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, 1.0, similarity.Score(tt.a, tt.b))
		})
	}
}

func TestScore_BranchSuffix(t *testing.T) {
	scorer := similarity.NewScorer("SAN", "ocw")

	assert.Equal(t, 1.0, scorer.Score("4501 West Maple Avenue - SAN", "4501 West Maple Ave"))
	assert.Less(t, similarity.Score("4501 West Maple Avenue - SAN", "4501 West Maple Ave"), 1.0)
}

func TestScore_SharedTokensRankHigher(t *testing.T) {
	target := "Johnson Kitchen Remodel"

	close := similarity.Score(target, "Johnson Kitchen")
	far := similarity.Score(target, "Johnson Bath")
	unrelated := similarity.Score(target, "123 Oak Street Reroof")

	assert.Greater(t, close, far)
	assert.Greater(t, far, unrelated)
}

func TestScore_EmptyInput(t *testing.T) {
	assert.Equal(t, 0.0, similarity.Score("", "Smith Residence"))
	assert.Equal(t, 0.0, similarity.Score("---", "Smith Residence"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "123 oak street reroof", similarity.Normalize("123 Oak St — Reroof"))
	assert.Equal(t, "job", similarity.Normalize("Job"))
}
