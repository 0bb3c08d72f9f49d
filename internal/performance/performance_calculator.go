// Package performance computes a job's saved hours and bonus pools from
// its approved crew shifts. Nothing here is stored; results are always
// recomputed from current shift data.
package performance

import (
	"go-crewperf/internal/crewshift"

	"github.com/shopspring/decimal"
)

var (
	HourlyRate          = decimal.NewFromInt(31)
	JobBonusShare       = decimal.RequireFromString("0.25")
	PotentialBonusShare = decimal.RequireFromString("0.30")

	// BonusEligibleSavedPct is the saved share a job needs before its bonus
	// pool is paid out. Only Result.BonusEligible applies it.
	BonusEligibleSavedPct = decimal.RequireFromString("0.15")
)

type Input struct {
	JobEstimatedHours      *decimal.Decimal
	EstimateEstimatedHours *decimal.Decimal
	CrewLeaderPlannedHours *decimal.Decimal
	Shifts                 []crewshift.PayableShift
}

type Result struct {
	ATHours            decimal.Decimal
	CLPlanHours        decimal.Decimal
	RegularHours       decimal.Decimal
	SpecialHours       decimal.Decimal
	TotalWorkedHours   decimal.Decimal
	TotalSavedHours    decimal.Decimal
	JobBonusPool       decimal.Decimal
	PotentialBonusPool decimal.Decimal
	PlannedToSavePct   decimal.Decimal
	ActualSavedPct     decimal.Decimal
}

// Calculate is pure: the same input always gives the same result.
func Calculate(in Input) Result {
	regular := decimal.Zero
	special := decimal.Zero
	for _, s := range in.Shifts {
		regular = regular.Add(s.RegularHours())
		special = special.Add(s.SpecialHours())
	}

	at := decimal.Zero
	switch {
	case in.JobEstimatedHours != nil:
		at = *in.JobEstimatedHours
	case in.EstimateEstimatedHours != nil:
		at = *in.EstimateEstimatedHours
	}
	clPlan := decimal.Zero
	if in.CrewLeaderPlannedHours != nil {
		clPlan = *in.CrewLeaderPlannedHours
	}

	worked := regular.Add(special)
	saved := at.Sub(worked)
	plannedSave := at.Sub(clPlan)

	r := Result{
		ATHours:            at,
		CLPlanHours:        clPlan,
		RegularHours:       regular,
		SpecialHours:       special,
		TotalWorkedHours:   worked,
		TotalSavedHours:    saved,
		JobBonusPool:       saved.Mul(HourlyRate).Mul(JobBonusShare),
		PotentialBonusPool: plannedSave.Mul(HourlyRate).Mul(PotentialBonusShare),
		PlannedToSavePct:   decimal.Zero,
		ActualSavedPct:     decimal.Zero,
	}
	if at.IsPositive() {
		r.PlannedToSavePct = plannedSave.DivRound(at, 6)
		r.ActualSavedPct = saved.DivRound(at, 6)
	}
	return r
}

// Overrun reports a crew that worked more hours than were estimated.
func (r Result) Overrun() bool {
	return r.ActualSavedPct.IsNegative()
}

func (r Result) BonusEligible() bool {
	return r.ActualSavedPct.GreaterThanOrEqual(BonusEligibleSavedPct)
}
