package consumer_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go-crewperf/internal/crewshift"
	"go-crewperf/internal/messaging/kafka/consumer"
	"go-crewperf/internal/reconciliation"
	reconciliationerrors "go-crewperf/internal/reconciliation/errors"
	reconciliationMock "go-crewperf/internal/reconciliation/mock"
	"go-crewperf/internal/shared/contextutil"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

// fakeReader hands out its messages once, then cancels the consumer.
type fakeReader struct {
	mu        sync.Mutex
	messages  []kafkago.Message
	committed []int64
	cancel    context.CancelFunc
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		f.cancel()
		return kafkago.Message{}, ctx.Err()
	}
	msg := f.messages[0]
	f.messages = f.messages[1:]
	return msg, nil
}

func (f *fakeReader) CommitMessages(ctx context.Context, msgs ...kafkago.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range msgs {
		f.committed = append(f.committed, m.Offset)
	}
	return nil
}

func newReader(messages ...kafkago.Message) (context.Context, *fakeReader) {
	ctx, cancel := context.WithCancel(context.Background())
	return ctx, &fakeReader{messages: messages, cancel: cancel}
}

type fakeCrewShiftService struct {
	crewshift.Service
	MarkSyncedFn func(ctx context.Context, companyID string, req crewshift.SyncRequest) (crewshift.TransitionResponse, error)
}

func (f *fakeCrewShiftService) MarkSynced(ctx context.Context, companyID string, req crewshift.SyncRequest) (crewshift.TransitionResponse, error) {
	return f.MarkSyncedFn(ctx, companyID, req)
}

func TestConsumeJobsImported(t *testing.T) {
	t.Run("imports and commits", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := reconciliationMock.NewMockService(ctrl)
		svc.EXPECT().
			ImportJobs(gomock.Any(), "c-1", "s-1", gomock.Any()).
			DoAndReturn(func(ctx context.Context, companyID, sessionID string, req reconciliation.ImportJobsRequest) (reconciliation.SessionResponse, error) {
				assert.Equal(t, "req-1", contextutil.GetRequestID(ctx))
				assert.Len(t, req.Jobs, 1)
				assert.Equal(t, "J-1", req.Jobs[0].ExternalID)
				return reconciliation.SessionResponse{}, nil
			})

		ctx, reader := newReader(kafkago.Message{
			Offset:  4,
			Value:   []byte(`{"event_type":"jobs_imported","session_id":"s-1","company_id":"c-1","jobs":[{"external_id":"J-1","name":"Smith Residence"}]}`),
			Headers: []kafkago.Header{{Key: "request_id", Value: []byte("req-1")}},
		})

		consumer.ConsumeJobsImported(ctx, reader, svc, zap.NewNop())

		assert.Equal(t, []int64{4}, reader.committed)
	})

	t.Run("malformed and closed sessions are skipped", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := reconciliationMock.NewMockService(ctrl)
		svc.EXPECT().
			ImportJobs(gomock.Any(), "c-1", "s-closed", gomock.Any()).
			Return(reconciliation.SessionResponse{}, reconciliationerrors.ErrSessionClosed)

		ctx, reader := newReader(
			kafkago.Message{Offset: 1, Value: []byte(`not json`)},
			kafkago.Message{Offset: 2, Value: []byte(`{"company_id":"c-1","jobs":[]}`)},
			kafkago.Message{Offset: 3, Value: []byte(`{"session_id":"s-closed","company_id":"c-1","jobs":[]}`)},
		)

		consumer.ConsumeJobsImported(ctx, reader, svc, zap.NewNop())

		assert.Equal(t, []int64{1, 2, 3}, reader.committed)
	})

	t.Run("busy session is retried", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		svc := reconciliationMock.NewMockService(ctrl)
		gomock.InOrder(
			svc.EXPECT().ImportJobs(gomock.Any(), "c-1", "s-1", gomock.Any()).Return(reconciliation.SessionResponse{}, reconciliationerrors.ErrSessionBusy),
			svc.EXPECT().ImportJobs(gomock.Any(), "c-1", "s-1", gomock.Any()).Return(reconciliation.SessionResponse{}, nil),
		)

		ctx, reader := newReader(kafkago.Message{Offset: 9, Value: []byte(`{"session_id":"s-1","company_id":"c-1","jobs":[]}`)})

		consumer.ConsumeJobsImported(ctx, reader, svc, zap.NewNop())

		assert.Equal(t, []int64{9}, reader.committed)
	})
}

func TestConsumeCrewShiftConsumed(t *testing.T) {
	t.Run("marks synced", func(t *testing.T) {
		svc := &fakeCrewShiftService{
			MarkSyncedFn: func(ctx context.Context, companyID string, req crewshift.SyncRequest) (crewshift.TransitionResponse, error) {
				assert.Equal(t, "c-1", companyID)
				assert.Equal(t, []string{"a", "b"}, req.ShiftIDs)
				return crewshift.TransitionResponse{Changed: []crewshift.CrewShiftResponse{{ID: "a"}, {ID: "b"}}}, nil
			},
		}
		ctx, reader := newReader(kafkago.Message{Offset: 7, Value: []byte(`{"company_id":"c-1","shift_ids":["a","b"]}`)})

		consumer.ConsumeCrewShiftConsumed(ctx, reader, svc, zap.NewNop())

		assert.Equal(t, []int64{7}, reader.committed)
	})

	t.Run("database failure is retried before later messages", func(t *testing.T) {
		var seen []string
		svc := &fakeCrewShiftService{
			MarkSyncedFn: func(ctx context.Context, companyID string, req crewshift.SyncRequest) (crewshift.TransitionResponse, error) {
				seen = append(seen, req.ShiftIDs[0])
				if len(seen) <= 2 {
					return crewshift.TransitionResponse{}, errors.New("connection reset")
				}
				return crewshift.TransitionResponse{}, nil
			},
		}
		ctx, reader := newReader(
			kafkago.Message{Offset: 8, Value: []byte(`{"company_id":"c-1","shift_ids":["a"]}`)},
			kafkago.Message{Offset: 9, Value: []byte(`{"company_id":"c-1","shift_ids":["b"]}`)},
		)

		consumer.ConsumeCrewShiftConsumed(ctx, reader, svc, zap.NewNop())

		assert.Equal(t, []string{"a", "a", "a", "b"}, seen)
		assert.Equal(t, []int64{8, 9}, reader.committed)
	})

	t.Run("shutdown while retrying leaves message uncommitted", func(t *testing.T) {
		ctx, reader := newReader(
			kafkago.Message{Offset: 8, Value: []byte(`{"company_id":"c-1","shift_ids":["a"]}`)},
			kafkago.Message{Offset: 9, Value: []byte(`{"company_id":"c-1","shift_ids":["b"]}`)},
		)
		calls := 0
		svc := &fakeCrewShiftService{
			MarkSyncedFn: func(ctx context.Context, companyID string, req crewshift.SyncRequest) (crewshift.TransitionResponse, error) {
				calls++
				if calls == 2 {
					reader.cancel()
				}
				return crewshift.TransitionResponse{}, errors.New("connection reset")
			},
		}

		consumer.ConsumeCrewShiftConsumed(ctx, reader, svc, zap.NewNop())

		assert.Equal(t, 2, calls)
		assert.Empty(t, reader.committed)
		assert.Len(t, reader.messages, 1)
	})
}
