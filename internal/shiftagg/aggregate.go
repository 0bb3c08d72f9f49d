// Package shiftagg folds raw worksheet rows into one row per (job, crew
// member) and owns the only constructor for those rows.
package shiftagg

import (
	"fmt"
	"sort"
	"strings"

	"go-crewperf/internal/shiftextract"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// rowNamespace seeds deterministic row ids so a re-run over the same
// input yields the same ids.
var rowNamespace = uuid.MustParse("6f1c1f2e-4d0b-4c36-9a51-2f6a7b3e8c10")

type group struct {
	jobID    string
	key      string
	names    []string
	hours    Hours
	sources  map[string]struct{}
	tags     []string
	hasQC    bool
	jobOrder int
}

// Aggregate sums rows whose sheet job name has a confirmed job. Rows with
// no confirmed job are left out. Every job in jobIDs that ends up without
// a row gets an empty placeholder. The result depends only on the set of
// input rows, never on their order.
func Aggregate(rows []shiftextract.RawShiftRow, jobBySheetName map[string]string, jobIDs []string) ([]AggregatedShift, error) {
	order := make(map[string]int, len(jobIDs))
	for i, id := range jobIDs {
		if _, ok := order[id]; !ok {
			order[id] = i
		}
	}

	groups := make(map[string]*group)
	for _, r := range rows {
		jobID, ok := jobBySheetName[r.SheetJobName]
		if !ok {
			continue
		}
		key := MemberKey(r.CrewMember)
		if key == "" {
			continue
		}

		gk := jobID + "\x00" + key
		g, ok := groups[gk]
		if !ok {
			jo, known := order[jobID]
			if !known {
				jo = len(jobIDs)
			}
			g = &group{
				jobID:    jobID,
				key:      key,
				sources:  make(map[string]struct{}),
				jobOrder: jo,
				hours: Hours{
					Regular: decimal.Zero,
					OT:      decimal.Zero,
					OT2:     decimal.Zero,
					QC:      decimal.Zero,
				},
			}
			groups[gk] = g
		}

		g.names = append(g.names, strings.TrimSpace(r.CrewMember))
		g.sources[fmt.Sprintf("%s\x00%d", r.Sheet, r.Row)] = struct{}{}
		if r.Tag != "" {
			g.tags = append(g.tags, r.Tag)
		}

		switch r.Category {
		case shiftextract.CategoryOT:
			g.hours.OT = g.hours.OT.Add(r.Hours)
		case shiftextract.CategoryOT2:
			g.hours.OT2 = g.hours.OT2.Add(r.Hours)
		case shiftextract.CategoryQC:
			g.hasQC = true
			g.hours.Regular = g.hours.Regular.Add(r.Hours)
			g.hours.QC = g.hours.QC.Add(r.Hours)
		default:
			g.hours.Regular = g.hours.Regular.Add(r.Hours)
		}
	}

	ordered := make([]*group, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].jobOrder != ordered[j].jobOrder {
			return ordered[i].jobOrder < ordered[j].jobOrder
		}
		if ordered[i].jobID != ordered[j].jobID {
			return ordered[i].jobID < ordered[j].jobID
		}
		return ordered[i].key < ordered[j].key
	})

	out := make([]AggregatedShift, 0, len(ordered)+len(jobIDs))
	covered := make(map[string]bool, len(jobIDs))
	for _, g := range ordered {
		sort.Strings(g.names)
		shift, err := NewAggregatedShift(Fields{
			RowID:      RowID(g.jobID, g.key),
			JobID:      g.jobID,
			CrewMember: g.names[0],
			ShiftCount: len(g.sources),
			Hours:      g.hours,
			Tags:       g.tags,
			QCTagged:   g.hasQC,
		})
		if err != nil {
			return nil, fmt.Errorf("aggregate job %s crew member %q: %w", g.jobID, g.names[0], err)
		}
		out = append(out, shift)
		covered[g.jobID] = true
	}

	for _, id := range jobIDs {
		if covered[id] {
			continue
		}
		covered[id] = true
		p, err := NewPlaceholder(id)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return jobRank(order, out[i].JobID(), len(jobIDs)) < jobRank(order, out[j].JobID(), len(jobIDs))
	})

	return out, nil
}

func jobRank(order map[string]int, jobID string, fallback int) int {
	if i, ok := order[jobID]; ok {
		return i
	}
	return fallback
}

// NewPlaceholder is the empty row that keeps a job visible for manual entry.
func NewPlaceholder(jobID string) (AggregatedShift, error) {
	return NewAggregatedShift(Fields{
		RowID:       RowID(jobID, ""),
		JobID:       jobID,
		Placeholder: true,
		Hours: Hours{
			Regular: decimal.Zero,
			OT:      decimal.Zero,
			OT2:     decimal.Zero,
			QC:      decimal.Zero,
		},
	})
}

// MemberKey compares crew member names case- and spacing-insensitively.
func MemberKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

func RowID(jobID, memberKey string) string {
	return uuid.NewSHA1(rowNamespace, []byte(jobID+"|"+memberKey)).String()
}
