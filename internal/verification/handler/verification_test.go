package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "drxcare/pkg/errors"
	"drxcare/pkg/logger"
	"drxcare/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockVerificationService struct {
	syncAllFunc      func(ctx context.Context) (*model.SyncResult, error)
	updateStatusFunc func(ctx context.Context, userID, status string) (*model.StatusUpdateResult, error)
}

func (m *mockVerificationService) SyncAll(ctx context.Context) (*model.SyncResult, error) {
	return m.syncAllFunc(ctx)
}

func (m *mockVerificationService) UpdateStatus(ctx context.Context, userID, status string) (*model.StatusUpdateResult, error) {
	return m.updateStatusFunc(ctx, userID, status)
}

func serve(svc *mockVerificationService, method, path, body string) *httptest.ResponseRecorder {
	router := httprouter.New()
	NewVerificationHandler(svc, logger.Discard()).RegisterRoutes(router)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestSync(t *testing.T) {
	svc := &mockVerificationService{
		syncAllFunc: func(context.Context) (*model.SyncResult, error) {
			return &model.SyncResult{UpdatedCount: 1200, Batches: 3, Skipped: 4}, nil
		},
	}

	rec := serve(svc, http.MethodPost, "/api/v1/verification/sync", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data model.SyncResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1200, resp.Data.UpdatedCount)
	assert.Equal(t, 3, resp.Data.Batches)
}

func TestSync_PartialCommit(t *testing.T) {
	svc := &mockVerificationService{
		syncAllFunc: func(context.Context) (*model.SyncResult, error) {
			return &model.SyncResult{UpdatedCount: 500}, apperrors.BatchCommitFailed(500, errors.New("aborted"))
		},
	}

	rec := serve(svc, http.MethodPost, "/api/v1/verification/sync", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, apperrors.CodeBatchCommitFailed, resp.Code)
	assert.EqualValues(t, 500, resp.Details["committed"])
	assert.NotContains(t, rec.Body.String(), "aborted")
}

func TestUpdateStatus(t *testing.T) {
	var gotUser, gotStatus string
	svc := &mockVerificationService{
		updateStatusFunc: func(_ context.Context, userID, status string) (*model.StatusUpdateResult, error) {
			gotUser, gotStatus = userID, status
			return &model.StatusUpdateResult{Success: true, UserID: userID, Status: model.VerificationStatus(status)}, nil
		},
	}

	rec := serve(svc, http.MethodPut, "/api/v1/verification/u1", `{"status":"verified"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "u1", gotUser)
	assert.Equal(t, "verified", gotStatus)

	var resp struct {
		Data model.StatusUpdateResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Data.Success)
	assert.Equal(t, model.VerificationVerified, resp.Data.Status)
}

func TestUpdateStatus_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{"invalid status", `{"status":"bogus"}`, apperrors.InvalidStatus("bogus"), http.StatusBadRequest, apperrors.CodeInvalidStatus},
		{"user not found", `{"status":"verified"}`, apperrors.NotFoundWithID("User", "u1"), http.StatusNotFound, apperrors.CodeNotFound},
		{"empty body", ``, nil, http.StatusBadRequest, apperrors.CodeInvalidInput},
		{"unknown field", `{"status":"verified","extra":1}`, nil, http.StatusBadRequest, apperrors.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := &mockVerificationService{
				updateStatusFunc: func(context.Context, string, string) (*model.StatusUpdateResult, error) {
					called = true
					return nil, tt.serviceErr
				},
			}

			rec := serve(svc, http.MethodPut, "/api/v1/verification/u1", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp apperrors.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, tt.serviceErr != nil, called)
		})
	}
}
