package jobmatch_test

import (
	"errors"
	"testing"

	"go-crewperf/internal/jobmatch"
	"go-crewperf/internal/similarity"

	"github.com/stretchr/testify/assert"
)

func newMatcher() *jobmatch.Matcher {
	return jobmatch.NewMatcher(jobmatch.DefaultThreshold, jobmatch.DefaultCandidateLimit, similarity.NewScorer())
}

func TestMatcher_ProposesAboveThreshold(t *testing.T) {
	jobs := []jobmatch.Job{
		{ExternalID: "J-1", Name: "123 Oak Street Reroof"},
		{ExternalID: "J-2", Name: "Completely Different Warehouse"},
	}

	res := newMatcher().Match(jobs, []string{"123 Oak St — reroof", "Smith Residence"})

	assert.Len(t, res.Matches, 2)
	assert.Equal(t, "J-1", res.Matches[0].JobID)
	if assert.NotNil(t, res.Matches[0].SheetJobName) {
		assert.Equal(t, "123 Oak St — reroof", *res.Matches[0].SheetJobName)
	}
	assert.GreaterOrEqual(t, res.Matches[0].Score, 0.80)

	assert.Nil(t, res.Matches[1].SheetJobName)
	assert.Equal(t, []string{"Smith Residence"}, res.UnmatchedSheetNames)
}

func TestMatcher_NeverConfirms(t *testing.T) {
	jobs := []jobmatch.Job{{ExternalID: "J-1", Name: "Smith Residence"}}

	res := newMatcher().Match(jobs, []string{"Smith Residence"})

	assert.Equal(t, 1.0, res.Matches[0].Score)
	assert.False(t, res.Matches[0].Confirmed)
}

func TestMatcher_ContestedNameGoesToHigherScore(t *testing.T) {
	jobs := []jobmatch.Job{
		{ExternalID: "J-1", Name: "Johnson Kitchen Remodel 2"},
		{ExternalID: "J-2", Name: "Johnson Kitchen Remodel"},
	}
	sheet := []string{"Johnson Kitchen Remodel", "Johnson Kitchen Remodel Phase 2"}

	res := newMatcher().Match(jobs, sheet)

	if assert.NotNil(t, res.Matches[1].SheetJobName) {
		assert.Equal(t, "Johnson Kitchen Remodel", *res.Matches[1].SheetJobName)
	}
	if assert.NotNil(t, res.Matches[0].SheetJobName) {
		assert.Equal(t, "Johnson Kitchen Remodel Phase 2", *res.Matches[0].SheetJobName)
	}
	assert.Empty(t, res.UnmatchedSheetNames)
}

func TestMatcher_Injective(t *testing.T) {
	jobs := []jobmatch.Job{
		{ExternalID: "J-1", Name: "Smith Residence"},
		{ExternalID: "J-2", Name: "Smith Residence - Job"},
		{ExternalID: "J-3", Name: "smith residence"},
	}

	res := newMatcher().Match(jobs, []string{"Smith Residence"})

	claimed := 0
	for _, m := range res.Matches {
		if m.SheetJobName != nil {
			claimed++
		}
	}
	assert.Equal(t, 1, claimed)
	assert.NotNil(t, res.Matches[0].SheetJobName, "input order breaks ties")
}

func TestMatcher_EmptySheetNames(t *testing.T) {
	jobs := []jobmatch.Job{{ExternalID: "J-1", Name: "Smith Residence"}}

	res := newMatcher().Match(jobs, nil)

	assert.Len(t, res.Matches, 1)
	assert.Nil(t, res.Matches[0].SheetJobName)
	assert.Empty(t, res.Matches[0].Candidates)
	assert.Empty(t, res.UnmatchedSheetNames)
}

func TestMatcher_ConfigurableThreshold(t *testing.T) {
	jobs := []jobmatch.Job{{ExternalID: "J-1", Name: "Johnson Kitchen Remodel"}}
	sheet := []string{"Johnson Kitchen"}

	strict := jobmatch.NewMatcher(0.95, 3, nil).Match(jobs, sheet)
	loose := jobmatch.NewMatcher(0.50, 3, nil).Match(jobs, sheet)

	assert.Nil(t, strict.Matches[0].SheetJobName)
	assert.Equal(t, "Johnson Kitchen", strict.Matches[0].Candidates[0].SheetJobName)
	assert.NotNil(t, loose.Matches[0].SheetJobName)
}

func TestMatcher_CandidatesRankedAndLimited(t *testing.T) {
	jobs := []jobmatch.Job{{ExternalID: "J-1", Name: "Johnson Kitchen Remodel"}}
	sheet := []string{"Johnson Kitchen", "Johnson Bath", "Johnson", "Johnson Kitchen Remodel", " ", "Johnson"}

	res := jobmatch.NewMatcher(0.80, 2, nil).Match(jobs, sheet)

	cands := res.Matches[0].Candidates
	assert.Len(t, cands, 2)
	assert.Equal(t, "Johnson Kitchen Remodel", cands[0].SheetJobName)
	assert.GreaterOrEqual(t, cands[0].Score, cands[1].Score)
}

func TestMatcher_Propose(t *testing.T) {
	got := newMatcher().Propose(jobmatch.Job{ExternalID: "J-9", Name: "Smith Residence"}, []string{"Smith Residence"})

	assert.Nil(t, got.SheetJobName)
	assert.False(t, got.Confirmed)
	assert.Equal(t, 1.0, got.Score)
}

func TestMapping_RejectsSecondJob(t *testing.T) {
	m := jobmatch.NewMapping()
	assert.NoError(t, m.Assign("J-1", "Oak"))
	assert.NoError(t, m.Assign("J-1", "Oak"))

	err := m.Assign("J-2", "Oak")
	assert.True(t, errors.Is(err, jobmatch.ErrSheetNameTaken))
	var conflict *jobmatch.ConflictError
	if assert.True(t, errors.As(err, &conflict)) {
		assert.Equal(t, "Oak", conflict.SheetJobName)
		assert.Equal(t, "J-1", conflict.ExistingJobID)
		assert.Equal(t, "J-2", conflict.JobID)
	}

	owner, _ := m.JobFor("Oak")
	assert.Equal(t, "J-1", owner)
}

func TestMapping_ReassignFreesPreviousName(t *testing.T) {
	m := jobmatch.NewMapping()
	assert.NoError(t, m.Assign("J-1", "Oak"))
	assert.NoError(t, m.Assign("J-1", "Maple"))
	assert.NoError(t, m.Assign("J-2", "Oak"))

	name, _ := m.SheetFor("J-1")
	assert.Equal(t, "Maple", name)
	assert.Equal(t, map[string]string{"Maple": "J-1", "Oak": "J-2"}, m.JobsBySheet())
}

func TestFromConfirmed_IgnoresProposals(t *testing.T) {
	oak := "Oak"
	matches := []jobmatch.JobNameMatch{
		{JobID: "J-1", SheetJobName: &oak, Confirmed: true},
		{JobID: "J-2", SheetJobName: &oak, Confirmed: false},
		{JobID: "J-3", SheetJobName: nil, Confirmed: true},
	}

	m, err := jobmatch.FromConfirmed(matches)
	assert.NoError(t, err)
	assert.Equal(t, map[string]string{"Oak": "J-1"}, m.JobsBySheet())

	matches[1].Confirmed = true
	_, err = jobmatch.FromConfirmed(matches)
	assert.ErrorIs(t, err, jobmatch.ErrSheetNameTaken)
}
