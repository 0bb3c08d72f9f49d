package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"go-crewperf/internal/events"
	"go-crewperf/internal/reconciliation"
	"go-crewperf/internal/shared/contextutil"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumeJobsImported feeds job deliveries into their reconciliation
// session. Deliveries for closed sessions are skipped.
func ConsumeJobsImported(
	ctx context.Context,
	reader MessageReader,
	reconciliationService reconciliation.Service,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.jobs_imported")

	run(ctx, reader, log, "jobs imported", func(ctx context.Context, msg kafkago.Message) error {
		var event events.JobsImportedEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("%w: %v", errMalformed, err)
		}
		if event.SessionID == "" || event.CompanyID == "" {
			return fmt.Errorf("%w: session_id and company_id are required", errMalformed)
		}

		ctx = contextutil.WithCompanyID(ctx, event.CompanyID)
		resp, err := reconciliationService.ImportJobs(ctx, event.CompanyID, event.SessionID, reconciliation.ImportJobsRequest{Jobs: event.Jobs})
		if err != nil {
			return err
		}

		log.Info("jobs imported into session",
			zap.String("request_id", contextutil.GetRequestID(ctx)),
			zap.String("company_id", event.CompanyID),
			zap.String("session_id", event.SessionID),
			zap.Int("delivered", len(event.Jobs)),
			zap.Int("session_jobs", len(resp.Jobs)),
		)
		return nil
	})
}
