// Package jobmatch proposes which worksheet job name belongs to which
// imported job. Proposals are never confirmed here; a reviewer does that.
package jobmatch

import (
	"sort"
	"strings"

	"go-crewperf/internal/similarity"
)

const (
	DefaultThreshold      = 0.80
	DefaultCandidateLimit = 3
)

type Job struct {
	ExternalID string
	Name       string
}

type Candidate struct {
	SheetJobName string  `json:"sheet_job_name"`
	Score        float64 `json:"score"`
}

// JobNameMatch associates one job with zero or one sheet job name.
// A nil SheetJobName means "no match".
type JobNameMatch struct {
	JobID        string      `json:"job_id"`
	JobName      string      `json:"job_name"`
	SheetJobName *string     `json:"sheet_job_name"`
	Score        float64     `json:"score"`
	Confirmed    bool        `json:"confirmed"`
	Candidates   []Candidate `json:"candidates,omitempty"`
}

type Result struct {
	Matches             []JobNameMatch
	UnmatchedSheetNames []string
}

type Matcher struct {
	threshold      float64
	candidateLimit int
	scorer         *similarity.Scorer
}

func NewMatcher(threshold float64, candidateLimit int, scorer *similarity.Scorer) *Matcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultThreshold
	}
	if candidateLimit < 0 {
		candidateLimit = DefaultCandidateLimit
	}
	if scorer == nil {
		scorer = similarity.NewScorer()
	}
	return &Matcher{threshold: threshold, candidateLimit: candidateLimit, scorer: scorer}
}

func (m *Matcher) Threshold() float64 {
	return m.threshold
}

type scoredPair struct {
	job   int
	sheet int
	score float64
}

// Match assigns sheet names greedily: every (job, sheet name) pair is
// scored and pairs are taken in descending score order while both sides
// are free and the score reaches the threshold. A contested name goes to
// the higher-scoring pair and the loser falls back to its next best free
// name. Output order follows jobs.
func (m *Matcher) Match(jobs []Job, sheetNames []string) Result {
	names := DistinctNames(sheetNames)

	pairs := make([]scoredPair, 0, len(jobs)*len(names))
	scores := make([][]float64, len(jobs))
	for i, job := range jobs {
		scores[i] = make([]float64, len(names))
		for j, name := range names {
			s := m.scorer.Score(job.Name, name)
			scores[i][j] = s
			pairs = append(pairs, scoredPair{job: i, sheet: j, score: s})
		}
	}

	sort.SliceStable(pairs, func(a, b int) bool {
		if pairs[a].score != pairs[b].score {
			return pairs[a].score > pairs[b].score
		}
		if pairs[a].job != pairs[b].job {
			return pairs[a].job < pairs[b].job
		}
		return names[pairs[a].sheet] < names[pairs[b].sheet]
	})

	assignedSheet := make([]int, len(jobs))
	for i := range assignedSheet {
		assignedSheet[i] = -1
	}
	sheetTaken := make([]bool, len(names))

	for _, p := range pairs {
		if p.score < m.threshold {
			break
		}
		if assignedSheet[p.job] >= 0 || sheetTaken[p.sheet] {
			continue
		}
		assignedSheet[p.job] = p.sheet
		sheetTaken[p.sheet] = true
	}

	matches := make([]JobNameMatch, len(jobs))
	for i, job := range jobs {
		match := JobNameMatch{
			JobID:      job.ExternalID,
			JobName:    job.Name,
			Candidates: m.topCandidates(names, scores[i]),
		}
		if j := assignedSheet[i]; j >= 0 {
			name := names[j]
			match.SheetJobName = &name
			match.Score = scores[i][j]
		} else if len(match.Candidates) > 0 {
			match.Score = match.Candidates[0].Score
		}
		matches[i] = match
	}

	unmatched := make([]string, 0)
	for j, name := range names {
		if !sheetTaken[j] {
			unmatched = append(unmatched, name)
		}
	}

	return Result{Matches: matches, UnmatchedSheetNames: unmatched}
}

// Propose builds a no-match proposal for a single job, used when a job
// arrives after the worksheet was matched.
func (m *Matcher) Propose(job Job, sheetNames []string) JobNameMatch {
	names := DistinctNames(sheetNames)
	scores := make([]float64, len(names))
	for j, name := range names {
		scores[j] = m.scorer.Score(job.Name, name)
	}
	match := JobNameMatch{
		JobID:      job.ExternalID,
		JobName:    job.Name,
		Candidates: m.topCandidates(names, scores),
	}
	if len(match.Candidates) > 0 {
		match.Score = match.Candidates[0].Score
	}
	return match
}

func (m *Matcher) topCandidates(names []string, scores []float64) []Candidate {
	if m.candidateLimit == 0 || len(names) == 0 {
		return nil
	}
	out := make([]Candidate, 0, len(names))
	for j, name := range names {
		if scores[j] <= 0 {
			continue
		}
		out = append(out, Candidate{SheetJobName: name, Score: scores[j]})
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Score != out[b].Score {
			return out[a].Score > out[b].Score
		}
		return out[a].SheetJobName < out[b].SheetJobName
	})
	if len(out) > m.candidateLimit {
		out = out[:m.candidateLimit]
	}
	return out
}

// DistinctNames trims, drops blanks and duplicates, and sorts.
func DistinctNames(sheetNames []string) []string {
	seen := make(map[string]struct{}, len(sheetNames))
	out := make([]string, 0, len(sheetNames))
	for _, n := range sheetNames {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
