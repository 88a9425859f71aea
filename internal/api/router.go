package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/newsletterhub/crosspromo/internal/models"
	"github.com/sirupsen/logrus"
)

const triggerTimeout = 30 * time.Minute

// Engine is the matching functionality exposed over HTTP
type Engine interface {
	DefaultSettings() models.MatchingSettings
	RunMatchingForUser(ctx context.Context, userID string, settings *models.MatchingSettings) models.RunResult
	PreviewMatches(ctx context.Context, userID string) ([]models.Match, error)
	RunMatchingForAll(ctx context.Context) error
	UpdateCampaignPerformance(ctx context.Context, campaignID string, perf models.CampaignPerformance) (models.CrossPromotionCampaign, error)
	TransitionCampaign(ctx context.Context, campaignID string, next models.CampaignStatus) (models.CrossPromotionCampaign, error)
	ListCampaigns(ctx context.Context, userID string) ([]models.CrossPromotionCampaign, error)
	GetAnalytics(ctx context.Context, userID string) (models.CampaignAnalytics, error)
	ListRuns(ctx context.Context, userID string) ([]string, error)
	GetRun(ctx context.Context, name string) (*models.MatchRun, error)
	GetMetrics() string
}

// NewRouter wires every HTTP route to the engine
func NewRouter(engine Engine) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/health", healthCheckHandler).Methods("GET")
	router.HandleFunc("/metrics", metricsHandler(engine)).Methods("GET")
	router.HandleFunc("/trigger", triggerHandler(engine)).Methods("POST")

	apiRouter := router.PathPrefix("/api").Subrouter()
	apiRouter.HandleFunc("/users/{userID}/matching", runMatchingHandler(engine)).Methods("POST")
	apiRouter.HandleFunc("/users/{userID}/matches", previewHandler(engine)).Methods("GET")
	apiRouter.HandleFunc("/users/{userID}/campaigns", listCampaignsHandler(engine)).Methods("GET")
	apiRouter.HandleFunc("/users/{userID}/campaigns/analytics", analyticsHandler(engine)).Methods("GET")
	apiRouter.HandleFunc("/users/{userID}/runs", listRunsHandler(engine)).Methods("GET")
	apiRouter.HandleFunc("/runs/{name:.+}", getRunHandler(engine)).Methods("GET")
	apiRouter.HandleFunc("/campaigns/{campaignID}/performance", performanceHandler(engine)).Methods("PUT")
	apiRouter.HandleFunc("/campaigns/{campaignID}/status", statusHandler(engine)).Methods("POST")

	return router
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func metricsHandler(engine Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(engine.GetMetrics()))
	}
}

func triggerHandler(engine Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), triggerTimeout)
			defer cancel()
			if err := engine.RunMatchingForAll(ctx); err != nil {
				logrus.Errorf("Manual matching trigger failed: %v", err)
			}
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{"message": "Matching triggered successfully"})
	}
}

// settingsRequest overrides individual synthesis settings; omitted fields keep the defaults
type settingsRequest struct {
	MaxCampaigns          *int     `json:"max_campaigns"`
	MinCompatibilityScore *float64 `json:"min_compatibility_score"`
	CampaignDurationDays  *int     `json:"campaign_duration_days"`
	AutoApprove           *bool    `json:"auto_approve"`
	SkipExistingPairs     *bool    `json:"skip_existing_pairs"`
}

func (req settingsRequest) apply(settings models.MatchingSettings) models.MatchingSettings {
	if req.MaxCampaigns != nil {
		settings.MaxCampaigns = *req.MaxCampaigns
	}
	if req.MinCompatibilityScore != nil {
		settings.MinCompatibilityScore = *req.MinCompatibilityScore
	}
	if req.CampaignDurationDays != nil {
		settings.CampaignDurationDays = *req.CampaignDurationDays
	}
	if req.AutoApprove != nil {
		settings.AutoApprove = *req.AutoApprove
	}
	if req.SkipExistingPairs != nil {
		settings.SkipExistingPairs = *req.SkipExistingPairs
	}
	return settings
}

func runMatchingHandler(engine Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req settingsRequest
		if err := decodeOptional(r, &req); err != nil {
			writeJSON(w, http.StatusBadRequest, models.RunResult{Error: "invalid request body: " + err.Error(), ErrorKind: "bad_request"})
			return
		}

		settings := req.apply(engine.DefaultSettings())
		result := engine.RunMatchingForUser(r.Context(), mux.Vars(r)["userID"], &settings)

		status := http.StatusOK
		if !result.Success {
			status = statusForKind(result.ErrorKind)
		}
		writeJSON(w, status, result)
	}
}

func previewHandler(engine Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		matches, err := engine.PreviewMatches(r.Context(), mux.Vars(r)["userID"])
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"matches": matches})
	}
}

func listCampaignsHandler(engine Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := engine.ListCampaigns(r.Context(), mux.Vars(r)["userID"])
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"campaigns": list})
	}
}

func analyticsHandler(engine Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		analytics, err := engine.GetAnalytics(r.Context(), mux.Vars(r)["userID"])
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, analytics)
	}
}

func listRunsHandler(engine Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runs, err := engine.ListRuns(r.Context(), mux.Vars(r)["userID"])
		if err != nil {
			writeError(w, err)
			return
		}
		if runs == nil {
			runs = []string{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
	}
}

func getRunHandler(engine Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := engine.GetRun(r.Context(), mux.Vars(r)["name"])
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, run)
	}
}

func performanceHandler(engine Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var perf models.CampaignPerformance
		if err := json.NewDecoder(r.Body).Decode(&perf); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid request body: "+err.Error(), "bad_request"))
			return
		}

		campaign, err := engine.UpdateCampaignPerformance(r.Context(), mux.Vars(r)["campaignID"], perf)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, campaign)
	}
}

type statusRequest struct {
	Status models.CampaignStatus `json:"status"`
}

func statusHandler(engine Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req statusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid request body: "+err.Error(), "bad_request"))
			return
		}

		campaign, err := engine.TransitionCampaign(r.Context(), mux.Vars(r)["campaignID"], req.Status)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, campaign)
	}
}

// decodeOptional decodes a JSON body, treating an empty body as no overrides
func decodeOptional(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func statusForKind(kind string) int {
	switch kind {
	case "validation":
		return http.StatusUnprocessableEntity
	case "not_found":
		return http.StatusNotFound
	case "invalid_transition":
		return http.StatusConflict
	case "persistence", "partial_batch":
		return http.StatusBadGateway
	case "bad_request":
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func errorBody(message, kind string) map[string]interface{} {
	return map[string]interface{}{"success": false, "error": message, "error_kind": kind}
}

func writeError(w http.ResponseWriter, err error) {
	kind := models.ErrorKind(err)
	status := statusForKind(kind)
	if status >= http.StatusInternalServerError {
		logrus.Errorf("Request failed: %v", err)
	}
	writeJSON(w, status, errorBody(err.Error(), kind))
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}
