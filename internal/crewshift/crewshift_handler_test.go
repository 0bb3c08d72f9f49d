package crewshift_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-crewperf/internal/crewshift"
	crewshifterrors "go-crewperf/internal/crewshift/errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type fakeCrewShiftService struct {
	ApproveFn     func(ctx context.Context, companyID, actorID string, req crewshift.ApproveRequest) (crewshift.TransitionResponse, error)
	RejectFn      func(ctx context.Context, companyID, actorID string, req crewshift.RejectRequest) (crewshift.TransitionResponse, error)
	MarkSyncedFn  func(ctx context.Context, companyID string, req crewshift.SyncRequest) (crewshift.TransitionResponse, error)
	ListByJobFn   func(ctx context.Context, companyID, jobID string) ([]crewshift.CrewShiftResponse, error)
	ListPayableFn func(ctx context.Context, companyID, jobID string) ([]crewshift.PayableShift, error)
}

func (f *fakeCrewShiftService) Approve(ctx context.Context, companyID, actorID string, req crewshift.ApproveRequest) (crewshift.TransitionResponse, error) {
	return f.ApproveFn(ctx, companyID, actorID, req)
}
func (f *fakeCrewShiftService) Reject(ctx context.Context, companyID, actorID string, req crewshift.RejectRequest) (crewshift.TransitionResponse, error) {
	return f.RejectFn(ctx, companyID, actorID, req)
}
func (f *fakeCrewShiftService) MarkSynced(ctx context.Context, companyID string, req crewshift.SyncRequest) (crewshift.TransitionResponse, error) {
	return f.MarkSyncedFn(ctx, companyID, req)
}
func (f *fakeCrewShiftService) ListByJob(ctx context.Context, companyID, jobID string) ([]crewshift.CrewShiftResponse, error) {
	return f.ListByJobFn(ctx, companyID, jobID)
}
func (f *fakeCrewShiftService) ListPayable(ctx context.Context, companyID, jobID string) ([]crewshift.PayableShift, error) {
	return f.ListPayableFn(ctx, companyID, jobID)
}

type apiError struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details"`
}

type apiEnvelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *apiError       `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) apiEnvelope {
	t.Helper()
	var env apiEnvelope
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func newContext(method, path, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestCrewShiftHandler_Approve(t *testing.T) {
	companyID := uuid.NewString()

	t.Run("success", func(t *testing.T) {
		svc := &fakeCrewShiftService{
			ApproveFn: func(ctx context.Context, cid, actorID string, req crewshift.ApproveRequest) (crewshift.TransitionResponse, error) {
				assert.Equal(t, companyID, cid)
				assert.Equal(t, "reviewer-1", actorID)
				assert.Equal(t, []string{"J-1"}, req.JobIDs)
				return crewshift.TransitionResponse{Changed: []crewshift.CrewShiftResponse{{ID: "s-1", Status: crewshift.StatusApproved}}}, nil
			},
		}
		h := crewshift.NewHandler(svc)
		c, w := newContext(http.MethodPost, "/api/v1/crew-shifts/approve", `{"job_ids":["J-1"]}`)
		c.Set("company_id", companyID)
		c.Set("actor_id", "reviewer-1")

		h.Approve(c)

		assert.Equal(t, http.StatusOK, w.Code)
		env := decodeEnvelope(t, w)
		assert.True(t, env.Ok)
		assert.Contains(t, string(env.Data), `"status":"approved"`)
	})

	t.Run("validation error", func(t *testing.T) {
		h := crewshift.NewHandler(&fakeCrewShiftService{})
		c, w := newContext(http.MethodPost, "/api/v1/crew-shifts/approve", `{"job_ids":[]}`)

		h.Approve(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "VALIDATION_ERROR", decodeEnvelope(t, w).Error.Code)
	})
}

func TestCrewShiftHandler_RejectSyncedReportsShift(t *testing.T) {
	svc := &fakeCrewShiftService{
		RejectFn: func(ctx context.Context, cid, actorID string, req crewshift.RejectRequest) (crewshift.TransitionResponse, error) {
			return crewshift.TransitionResponse{}, crewshifterrors.ErrShiftAlreadySynced.WithDetails(map[string]string{"shift_id": "s-9"})
		},
	}
	h := crewshift.NewHandler(svc)
	c, w := newContext(http.MethodPost, "/api/v1/crew-shifts/reject", `{"shift_refs":[{"shift_id":"s-9"}]}`)

	h.Reject(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.False(t, env.Ok)
	assert.Equal(t, "INVALID_STATE", env.Error.Code)
	assert.JSONEq(t, `{"shift_id":"s-9"}`, string(env.Error.Details))
}

func TestCrewShiftHandler_ListByJob(t *testing.T) {
	svc := &fakeCrewShiftService{
		ListByJobFn: func(ctx context.Context, cid, jobID string) ([]crewshift.CrewShiftResponse, error) {
			assert.Equal(t, "J-7", jobID)
			return []crewshift.CrewShiftResponse{{ID: "s-1", JobID: "J-7", TotalHours: 8}}, nil
		},
	}
	h := crewshift.NewHandler(svc)
	c, w := newContext(http.MethodGet, "/api/v1/jobs/J-7/crew-shifts", "")
	c.Params = gin.Params{{Key: "id", Value: "J-7"}}

	h.ListByJob(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_hours":8`)
}
