package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/newsletterhub/crosspromo/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEngine is a mock implementation of the matching engine
type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) DefaultSettings() models.MatchingSettings {
	args := m.Called()
	return args.Get(0).(models.MatchingSettings)
}

func (m *MockEngine) RunMatchingForUser(ctx context.Context, userID string, settings *models.MatchingSettings) models.RunResult {
	args := m.Called(ctx, userID, settings)
	return args.Get(0).(models.RunResult)
}

func (m *MockEngine) PreviewMatches(ctx context.Context, userID string) ([]models.Match, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Match), args.Error(1)
}

func (m *MockEngine) RunMatchingForAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockEngine) UpdateCampaignPerformance(ctx context.Context, campaignID string, perf models.CampaignPerformance) (models.CrossPromotionCampaign, error) {
	args := m.Called(ctx, campaignID, perf)
	return args.Get(0).(models.CrossPromotionCampaign), args.Error(1)
}

func (m *MockEngine) TransitionCampaign(ctx context.Context, campaignID string, next models.CampaignStatus) (models.CrossPromotionCampaign, error) {
	args := m.Called(ctx, campaignID, next)
	return args.Get(0).(models.CrossPromotionCampaign), args.Error(1)
}

func (m *MockEngine) ListCampaigns(ctx context.Context, userID string) ([]models.CrossPromotionCampaign, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.CrossPromotionCampaign), args.Error(1)
}

func (m *MockEngine) GetAnalytics(ctx context.Context, userID string) (models.CampaignAnalytics, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(models.CampaignAnalytics), args.Error(1)
}

func (m *MockEngine) ListRuns(ctx context.Context, userID string) ([]string, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockEngine) GetRun(ctx context.Context, name string) (*models.MatchRun, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(*models.MatchRun), args.Error(1)
}

func (m *MockEngine) GetMetrics() string {
	args := m.Called()
	return args.String(0)
}

func serve(engine Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	NewRouter(engine).ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := serve(&MockEngine{}, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)
}

func TestMetrics(t *testing.T) {
	engine := &MockEngine{}
	engine.On("GetMetrics").Return(`{"total_runs":2}`)

	rec := serve(engine, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"total_runs":2}`, rec.Body.String())
}

func TestRunMatching(t *testing.T) {
	defaults := models.DefaultMatchingSettings()

	tests := []struct {
		name         string
		body         string
		result       models.RunResult
		wantStatus   int
		wantSettings models.MatchingSettings
	}{
		{
			name:         "defaults without body",
			result:       models.RunResult{Success: true, UserID: "alice", Campaigns: []models.CrossPromotionCampaign{}},
			wantStatus:   http.StatusOK,
			wantSettings: defaults,
		},
		{
			name:       "partial override",
			body:       `{"auto_approve":true,"max_campaigns":5}`,
			result:     models.RunResult{Success: true, UserID: "alice"},
			wantStatus: http.StatusOK,
			wantSettings: models.MatchingSettings{
				MaxCampaigns: 5, MinCompatibilityScore: 0.5, CampaignDurationDays: 30, AutoApprove: true,
			},
		},
		{
			name:         "user without newsletters",
			result:       models.RunResult{Success: false, Error: "no published newsletters", ErrorKind: "not_found"},
			wantStatus:   http.StatusNotFound,
			wantSettings: defaults,
		},
		{
			name:         "store failure",
			result:       models.RunResult{Success: false, Error: "fetch user newsletters: timeout", ErrorKind: "persistence"},
			wantStatus:   http.StatusBadGateway,
			wantSettings: defaults,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &MockEngine{}
			engine.On("DefaultSettings").Return(defaults)
			engine.On("RunMatchingForUser", mock.Anything, "alice", &tt.wantSettings).Return(tt.result)

			rec := serve(engine, http.MethodPost, "/api/users/alice/matching", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var got models.RunResult
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.result.Success, got.Success)
			assert.Equal(t, tt.result.Error, got.Error)
			engine.AssertExpectations(t)
		})
	}
}

func TestRunMatching_BadBody(t *testing.T) {
	engine := &MockEngine{}

	rec := serve(engine, http.MethodPost, "/api/users/alice/matching", `{"max_campaigns":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
	engine.AssertNotCalled(t, "RunMatchingForUser", mock.Anything, mock.Anything, mock.Anything)
}

func TestPreviewMatches(t *testing.T) {
	engine := &MockEngine{}
	engine.On("PreviewMatches", mock.Anything, "alice").Return([]models.Match{
		{Newsletter: models.NewsletterRecord{ID: "bob-cloud"}, Compatibility: 0.9, Reasons: []string{"Similar audience sizes"}},
	}, nil)

	rec := serve(engine, http.MethodGet, "/api/users/alice/matches", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"compatibility":0.9`)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", &models.ValidationError{Field: "user_id", Reason: "is required"}, http.StatusUnprocessableEntity},
		{"not found", fmt.Errorf("no newsletters: %w", models.ErrNotFound), http.StatusNotFound},
		{"persistence", &models.PersistenceError{Op: "fetch campaigns", Err: errors.New("down")}, http.StatusBadGateway},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &MockEngine{}
			engine.On("ListCampaigns", mock.Anything, "alice").Return([]models.CrossPromotionCampaign(nil), tt.err)

			rec := serve(engine, http.MethodGet, "/api/users/alice/campaigns", "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.err.Error())
		})
	}
}

func TestAnalytics(t *testing.T) {
	engine := &MockEngine{}
	engine.On("GetAnalytics", mock.Anything, "bob").Return(models.CampaignAnalytics{TotalCampaigns: 4, ConversionRate: 0.05}, nil)

	rec := serve(engine, http.MethodGet, "/api/users/bob/campaigns/analytics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var got models.CampaignAnalytics
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 4, got.TotalCampaigns)
}

func TestUpdatePerformance(t *testing.T) {
	engine := &MockEngine{}
	perf := models.CampaignPerformance{ActualReach: 900, ActualClicks: 80, ActualConversions: 20, ActualRevenue: 50}
	engine.On("UpdateCampaignPerformance", mock.Anything, "camp-1", perf).
		Return(models.CrossPromotionCampaign{ID: "camp-1", ActualReach: 900}, nil)

	rec := serve(engine, http.MethodPut, "/api/campaigns/camp-1/performance",
		`{"actual_reach":900,"actual_clicks":80,"actual_conversions":20,"actual_revenue":50}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"actual_reach":900`)
	engine.AssertExpectations(t)
}

func TestTransitionCampaign(t *testing.T) {
	engine := &MockEngine{}
	engine.On("TransitionCampaign", mock.Anything, "camp-1", models.CampaignStatusActive).
		Return(models.CrossPromotionCampaign{ID: "camp-1", Status: models.CampaignStatusActive}, nil)
	engine.On("TransitionCampaign", mock.Anything, "camp-2", models.CampaignStatusPending).
		Return(models.CrossPromotionCampaign{}, fmt.Errorf("campaign camp-2 from active to pending: %w", models.ErrInvalidTransition))

	rec := serve(engine, http.MethodPost, "/api/campaigns/camp-1/status", `{"status":"active"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(engine, http.MethodPost, "/api/campaigns/camp-2/status", `{"status":"pending"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error_kind":"invalid_transition"`)
}

func TestRuns(t *testing.T) {
	engine := &MockEngine{}
	name := "runs/alice/2026-05-04-09-00-00-r1.json"
	engine.On("ListRuns", mock.Anything, "alice").Return([]string{name}, nil)
	engine.On("GetRun", mock.Anything, name).Return(&models.MatchRun{RunID: "r1", UserID: "alice"}, nil)

	rec := serve(engine, http.MethodGet, "/api/users/alice/runs", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), name)

	rec = serve(engine, http.MethodGet, "/api/runs/"+name, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"run_id":"r1"`)
}

func TestTrigger(t *testing.T) {
	engine := &MockEngine{}
	done := make(chan struct{})
	engine.On("RunMatchingForAll", mock.Anything).Return(nil).Run(func(args mock.Arguments) { close(done) })

	rec := serve(engine, http.MethodPost, "/trigger", "")

	assert.Equal(t, http.StatusAccepted, rec.Code)
	<-done
	engine.AssertExpectations(t)
}
