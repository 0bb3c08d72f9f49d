package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"go-crewperf/internal/crewshift"
	"go-crewperf/internal/events"
	"go-crewperf/internal/shared/contextutil"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumeCrewShiftConsumed moves approved shifts to synced once payroll
// acknowledged them.
func ConsumeCrewShiftConsumed(
	ctx context.Context,
	reader MessageReader,
	crewShiftService crewshift.Service,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.crew_shift_consumed")

	run(ctx, reader, log, "crew shift consumed", func(ctx context.Context, msg kafkago.Message) error {
		var event events.CrewShiftConsumedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("%w: %v", errMalformed, err)
		}
		if event.CompanyID == "" || len(event.ShiftIDs) == 0 {
			return fmt.Errorf("%w: company_id and shift_ids are required", errMalformed)
		}

		ctx = contextutil.WithCompanyID(ctx, event.CompanyID)
		resp, err := crewShiftService.MarkSynced(ctx, event.CompanyID, crewshift.SyncRequest{ShiftIDs: event.ShiftIDs})
		if err != nil {
			return err
		}

		log.Info("crew shifts synced",
			zap.String("request_id", contextutil.GetRequestID(ctx)),
			zap.String("company_id", event.CompanyID),
			zap.Int("requested", len(event.ShiftIDs)),
			zap.Int("changed", len(resp.Changed)),
		)
		return nil
	})
}
