package performance

// PerformanceResponse exposes a Result as plain numbers.
type PerformanceResponse struct {
	JobID              string  `json:"job_id"`
	JobName            string  `json:"job_name"`
	ATHours            float64 `json:"at_hours"`
	CLPlanHours        float64 `json:"cl_plan_hours"`
	RegularHours       float64 `json:"regular_hours"`
	SpecialHours       float64 `json:"special_hours"`
	TotalWorkedHours   float64 `json:"total_worked_hours"`
	TotalSavedHours    float64 `json:"total_saved_hours"`
	JobBonusPool       float64 `json:"job_bonus_pool"`
	PotentialBonusPool float64 `json:"potential_bonus_pool"`
	PlannedToSavePct   float64 `json:"planned_to_save_pct"`
	ActualSavedPct     float64 `json:"actual_saved_pct"`
	Overrun            bool    `json:"overrun"`
	BonusEligible      bool    `json:"bonus_eligible"`
	ShiftCount         int     `json:"shift_count"`
}

func mapToResponse(jobID, jobName string, shifts int, r Result) PerformanceResponse {
	return PerformanceResponse{
		JobID:              jobID,
		JobName:            jobName,
		ATHours:            r.ATHours.InexactFloat64(),
		CLPlanHours:        r.CLPlanHours.InexactFloat64(),
		RegularHours:       r.RegularHours.InexactFloat64(),
		SpecialHours:       r.SpecialHours.InexactFloat64(),
		TotalWorkedHours:   r.TotalWorkedHours.InexactFloat64(),
		TotalSavedHours:    r.TotalSavedHours.InexactFloat64(),
		JobBonusPool:       r.JobBonusPool.Round(2).InexactFloat64(),
		PotentialBonusPool: r.PotentialBonusPool.Round(2).InexactFloat64(),
		PlannedToSavePct:   r.PlannedToSavePct.InexactFloat64(),
		ActualSavedPct:     r.ActualSavedPct.InexactFloat64(),
		Overrun:            r.Overrun(),
		BonusEligible:      r.BonusEligible(),
		ShiftCount:         shifts,
	}
}
