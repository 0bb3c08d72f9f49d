package performance_test

import (
	"testing"

	"go-crewperf/internal/crewshift"
	"go-crewperf/internal/performance"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// payable builds an approved record; regular includes the qc part.
func payable(t *testing.T, regular, qc string) crewshift.PayableShift {
	t.Helper()
	r := decimal.RequireFromString(regular)
	p, err := crewshift.Payable(crewshift.CrewShift{
		ID:           uuid.New(),
		Status:       crewshift.StatusApproved,
		RegularHours: r,
		QCHours:      decimal.RequireFromString(qc),
		TotalHours:   r,
	})
	assert.NoError(t, err)
	return p
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s got %s", want, got)
}

func TestCalculate_SmithResidence(t *testing.T) {
	r := performance.Calculate(performance.Input{
		JobEstimatedHours:      dec("40"),
		CrewLeaderPlannedHours: dec("30"),
		Shifts: []crewshift.PayableShift{
			payable(t, "25", "0"),
			payable(t, "3", "3"),
		},
	})

	assertDecimal(t, "25", r.RegularHours)
	assertDecimal(t, "3", r.SpecialHours)
	assertDecimal(t, "28", r.TotalWorkedHours)
	assertDecimal(t, "12", r.TotalSavedHours)
	assertDecimal(t, "93", r.JobBonusPool)
	assertDecimal(t, "93", r.PotentialBonusPool)
	assertDecimal(t, "0.3", r.ActualSavedPct)
	assertDecimal(t, "0.25", r.PlannedToSavePct)
	assert.False(t, r.Overrun())
	assert.True(t, r.BonusEligible())
}

func TestCalculate_ZeroEstimateGivesZeroPercentages(t *testing.T) {
	r := performance.Calculate(performance.Input{
		Shifts: []crewshift.PayableShift{payable(t, "8", "0")},
	})

	assert.True(t, r.ATHours.IsZero())
	assert.True(t, r.ActualSavedPct.IsZero())
	assert.True(t, r.PlannedToSavePct.IsZero())
	assertDecimal(t, "-8", r.TotalSavedHours)
	assertDecimal(t, "-62", r.JobBonusPool)
	assert.False(t, r.Overrun())
}

func TestCalculate_EstimateFallback(t *testing.T) {
	withJob := performance.Calculate(performance.Input{
		JobEstimatedHours:      dec("50"),
		EstimateEstimatedHours: dec("20"),
	})
	assertDecimal(t, "50", withJob.ATHours)

	fallback := performance.Calculate(performance.Input{EstimateEstimatedHours: dec("20")})
	assertDecimal(t, "20", fallback.ATHours)
	assertDecimal(t, "0", fallback.CLPlanHours)
	assertDecimal(t, "1", fallback.PlannedToSavePct)
}

func TestCalculate_Overrun(t *testing.T) {
	r := performance.Calculate(performance.Input{
		JobEstimatedHours: dec("10"),
		Shifts:            []crewshift.PayableShift{payable(t, "12", "0")},
	})

	assertDecimal(t, "-0.2", r.ActualSavedPct)
	assert.True(t, r.Overrun())
	assert.False(t, r.BonusEligible())
}

func TestCalculate_BonusThresholdBoundary(t *testing.T) {
	r := performance.Calculate(performance.Input{
		JobEstimatedHours: dec("100"),
		Shifts:            []crewshift.PayableShift{payable(t, "85", "0")},
	})
	assertDecimal(t, "0.15", r.ActualSavedPct)
	assert.True(t, r.BonusEligible())
}

func TestCalculate_IsDeterministic(t *testing.T) {
	in := performance.Input{
		JobEstimatedHours: dec("33.33"),
		Shifts:            []crewshift.PayableShift{payable(t, "7.25", "1.5"), payable(t, "9.1", "0")},
	}
	assert.Equal(t, performance.Calculate(in), performance.Calculate(in))
}
