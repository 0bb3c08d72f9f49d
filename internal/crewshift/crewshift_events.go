package crewshift

import (
	"time"

	"go-crewperf/internal/events"
	"go-crewperf/internal/messaging/kafka"
)

const aggregateType = "crew_shift"

// ApprovedOutboxEvent builds the outbox row announcing newly approved
// shifts of one job. Keyed by job so a consumer sees a job's events in
// order.
func ApprovedOutboxEvent(requestID, companyID, jobID string, shiftIDs []string, approvedBy string, auto bool, at time.Time) (kafka.OutboxEvent, error) {
	payload := events.CrewShiftApprovedEvent{
		EventType:    events.EventCrewShiftApproved,
		RequestID:    requestID,
		CompanyID:    companyID,
		JobID:        jobID,
		ShiftIDs:     shiftIDs,
		ApprovedBy:   approvedBy,
		AutoApproved: auto,
		OccurredAt:   at,
	}
	return kafka.NewOutboxEvent(requestID, aggregateType, jobID, payload.EventType, events.CrewShiftApprovedTopic, payload)
}

func rejectedOutboxEvent(requestID, companyID, jobID string, shiftIDs []string, rejectedBy, reason string, at time.Time) (kafka.OutboxEvent, error) {
	payload := events.CrewShiftRejectedEvent{
		EventType:  events.EventCrewShiftRejected,
		RequestID:  requestID,
		CompanyID:  companyID,
		JobID:      jobID,
		ShiftIDs:   shiftIDs,
		RejectedBy: rejectedBy,
		Reason:     reason,
		OccurredAt: at,
	}
	return kafka.NewOutboxEvent(requestID, aggregateType, jobID, payload.EventType, events.CrewShiftRejectedTopic, payload)
}

// idsByJob groups shift ids per job, keeping first-seen job order.
func idsByJob(shifts []CrewShift) ([]string, map[string][]string) {
	var order []string
	byJob := make(map[string][]string)
	for _, s := range shifts {
		if _, ok := byJob[s.JobID]; !ok {
			order = append(order, s.JobID)
		}
		byJob[s.JobID] = append(byJob[s.JobID], s.ID.String())
	}
	return order, byJob
}
