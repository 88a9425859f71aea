package promotion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/newsletterhub/crosspromo/internal/campaigns"
	"github.com/newsletterhub/crosspromo/internal/config"
	"github.com/newsletterhub/crosspromo/internal/matching"
	"github.com/newsletterhub/crosspromo/internal/models"
	"github.com/newsletterhub/crosspromo/internal/notifications"
	"github.com/newsletterhub/crosspromo/internal/store"
	"github.com/sirupsen/logrus"
)

// RunArchiver keeps snapshots of matching runs
type RunArchiver interface {
	SaveRun(ctx context.Context, run *models.MatchRun) (string, error)
	ListRuns(ctx context.Context, userID string) ([]string, error)
	GetRun(ctx context.Context, name string) (*models.MatchRun, error)
	Prune(ctx context.Context) (int, error)
}

// Service runs cross-promotion matching for publishers and manages the resulting campaigns
type Service struct {
	config              *config.Config
	store               store.Store
	synthesizer         *campaigns.Synthesizer
	archive             RunArchiver
	notificationService notifications.NotificationInterface
	metrics             *Metrics
	mu                  sync.RWMutex
	now                 func() time.Time
	newRunID            func() string
}

// Metrics holds matching metrics
type Metrics struct {
	TotalRuns        int       `json:"total_runs"`
	FailedRuns       int       `json:"failed_runs"`
	CampaignsCreated int       `json:"campaigns_created"`
	FailedCampaigns  int       `json:"failed_campaigns"`
	LastRun          time.Time `json:"last_run"`
	LastRunDuration  string    `json:"last_run_duration"`
	LastError        string    `json:"last_error,omitempty"`
}

// NewService creates a new promotion service
func NewService(cfg *config.Config, st store.Store, archive RunArchiver, notificationService notifications.NotificationInterface) *Service {
	return &Service{
		config:              cfg,
		store:               st,
		synthesizer:         campaigns.NewSynthesizer(st, cfg.StoreTimeout),
		archive:             archive,
		notificationService: notificationService,
		metrics:             &Metrics{},
		now:                 time.Now,
		newRunID:            uuid.NewString,
	}
}

// RunMatchingForUser matches the user's newest published newsletter against all
// other publishers and creates campaigns for the best matches. It never returns
// an error; failures are reported in the result. A nil settings uses the
// configured defaults.
func (s *Service) RunMatchingForUser(ctx context.Context, userID string, settings *models.MatchingSettings) models.RunResult {
	start := s.now()
	effective := s.config.Settings()
	if settings != nil {
		effective = *settings
	}

	result := models.RunResult{
		RunID:     s.newRunID(),
		UserID:    userID,
		Campaigns: []models.CrossPromotionCampaign{},
	}
	logrus.Infof("Starting matching run %s for user %s", result.RunID, userID)

	if err := effective.Validate(); err != nil {
		s.fail(&result, err)
		s.recordRun(result, s.now().Sub(start))
		return result
	}

	source, candidates, err := s.loadNewsletters(ctx, userID)
	if err != nil {
		s.fail(&result, err)
		s.recordRun(result, s.now().Sub(start))
		return result
	}
	result.SourceNewsletterID = source.ID
	result.CandidatesEvaluated = len(candidates)

	matches := matching.Rank(source, candidates)
	result.MatchesFound = len(matches)
	logrus.Infof("Found %d matches among %d candidates for newsletter %s", len(matches), len(candidates), source.ID)

	created, err := s.synthesizer.Synthesize(ctx, source, matches, effective)
	result.Campaigns = append(result.Campaigns, created...)

	var batch *models.PartialBatchFailure
	switch {
	case err == nil:
		result.Success = true
	case errors.As(err, &batch):
		// created campaigns are still valid
		result.Success = true
		result.Error = err.Error()
		result.ErrorKind = models.ErrorKind(err)
		result.FailedCampaigns = len(batch.Failures)
	default:
		s.fail(&result, err)
	}

	s.archiveRun(ctx, result, source, matches, effective, start, batch)
	if len(created) > 0 {
		s.notify(ctx, source, created)
	}

	duration := s.now().Sub(start)
	s.recordRun(result, duration)
	logrus.Infof("Matching run %s completed in %v: %d campaigns", result.RunID, duration, len(created))
	return result
}

// DefaultSettings returns the configured synthesis settings
func (s *Service) DefaultSettings() models.MatchingSettings {
	return s.config.Settings()
}

// PreviewMatches ranks candidates for the user's newest newsletter without creating campaigns
func (s *Service) PreviewMatches(ctx context.Context, userID string) ([]models.Match, error) {
	source, candidates, err := s.loadNewsletters(ctx, userID)
	if err != nil {
		return nil, err
	}
	return matching.Rank(source, candidates), nil
}

// RunMatchingForAll runs matching for every publisher in turn and prunes the
// run archive. A failed user is logged and skipped.
func (s *Service) RunMatchingForAll(ctx context.Context) error {
	start := s.now()
	logrus.Info("Starting matching run for all publishers")

	callCtx, cancel := s.callContext(ctx)
	userIDs, err := s.store.ListPublisherIDs(callCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to list publishers: %w", err)
	}

	succeeded, created := 0, 0
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		result := s.RunMatchingForUser(ctx, userID, nil)
		if !result.Success {
			logrus.Warnf("Matching failed for user %s: %s", userID, result.Error)
			continue
		}
		succeeded++
		created += len(result.Campaigns)
	}

	if _, err := s.archive.Prune(ctx); err != nil {
		logrus.Warnf("Failed to prune run archive: %v", err)
	}

	logrus.Infof("Matching for %d publishers completed in %v: %d succeeded, %d campaigns created",
		len(userIDs), s.now().Sub(start), succeeded, created)
	return nil
}

// UpdateCampaignPerformance records measured results for a campaign in any status
func (s *Service) UpdateCampaignPerformance(ctx context.Context, campaignID string, perf models.CampaignPerformance) (models.CrossPromotionCampaign, error) {
	if strings.TrimSpace(campaignID) == "" {
		return models.CrossPromotionCampaign{}, &models.ValidationError{Field: "campaign_id", Reason: "is required"}
	}
	if perf.ActualReach < 0 || perf.ActualClicks < 0 || perf.ActualConversions < 0 || perf.ActualRevenue < 0 {
		return models.CrossPromotionCampaign{}, &models.ValidationError{Field: "performance", Reason: "values must not be negative"}
	}

	callCtx, cancel := s.callContext(ctx)
	defer cancel()
	return s.store.UpdateCampaignPerformance(callCtx, campaignID, perf)
}

// TransitionCampaign moves a campaign along pending -> active -> completed
func (s *Service) TransitionCampaign(ctx context.Context, campaignID string, next models.CampaignStatus) (models.CrossPromotionCampaign, error) {
	if !next.IsValid() {
		return models.CrossPromotionCampaign{}, &models.ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", next)}
	}

	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	current, err := s.store.FetchCampaign(callCtx, campaignID)
	if err != nil {
		return models.CrossPromotionCampaign{}, err
	}
	if !current.Status.CanTransitionTo(next) {
		return models.CrossPromotionCampaign{}, fmt.Errorf("campaign %s from %s to %s: %w", campaignID, current.Status, next, models.ErrInvalidTransition)
	}

	updated, err := s.store.UpdateCampaignStatus(callCtx, campaignID, next)
	if err != nil {
		return models.CrossPromotionCampaign{}, err
	}
	logrus.Infof("Campaign %s moved from %s to %s", campaignID, current.Status, next)
	return updated, nil
}

// ListCampaigns returns the campaigns where the user owns either newsletter
func (s *Service) ListCampaigns(ctx context.Context, userID string) ([]models.CrossPromotionCampaign, error) {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	list, err := s.store.FetchCampaignsForUser(callCtx, userID)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []models.CrossPromotionCampaign{}
	}
	return list, nil
}

// GetAnalytics aggregates the user's campaigns
func (s *Service) GetAnalytics(ctx context.Context, userID string) (models.CampaignAnalytics, error) {
	list, err := s.ListCampaigns(ctx, userID)
	if err != nil {
		return models.CampaignAnalytics{}, err
	}
	return campaigns.Summarize(list), nil
}

// ListRuns returns the archived run names of a user, newest first
func (s *Service) ListRuns(ctx context.Context, userID string) ([]string, error) {
	return s.archive.ListRuns(ctx, userID)
}

// GetRun loads an archived run
func (s *Service) GetRun(ctx context.Context, name string) (*models.MatchRun, error) {
	return s.archive.GetRun(ctx, name)
}

// GetMetrics returns current metrics as JSON
func (s *Service) GetMetrics() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := json.Marshal(s.metrics)
	if err != nil {
		return `{"error":"failed to marshal metrics"}`
	}
	return string(data)
}

func (s *Service) loadNewsletters(ctx context.Context, userID string) (models.NewsletterRecord, []models.NewsletterRecord, error) {
	if strings.TrimSpace(userID) == "" {
		return models.NewsletterRecord{}, nil, &models.ValidationError{Field: "user_id", Reason: "is required"}
	}

	callCtx, cancel := s.callContext(ctx)
	owned, err := s.store.FetchUserNewsletters(callCtx, userID)
	cancel()
	if err != nil {
		return models.NewsletterRecord{}, nil, err
	}
	if len(owned) == 0 {
		return models.NewsletterRecord{}, nil, fmt.Errorf("no published newsletters for user %s: %w", userID, models.ErrNotFound)
	}

	source := owned[0]
	if err := models.ValidateNewsletter(source); err != nil {
		return models.NewsletterRecord{}, nil, fmt.Errorf("newsletter %s: %w", source.ID, err)
	}

	callCtx, cancel = s.callContext(ctx)
	candidates, err := s.store.FetchPublishedNewsletters(callCtx, userID)
	cancel()
	if err != nil {
		return models.NewsletterRecord{}, nil, err
	}
	return source, candidates, nil
}

func (s *Service) archiveRun(ctx context.Context, result models.RunResult, source models.NewsletterRecord, matches []models.Match, settings models.MatchingSettings, start time.Time, batch *models.PartialBatchFailure) {
	run := &models.MatchRun{
		RunID:              result.RunID,
		UserID:             result.UserID,
		SourceNewsletterID: source.ID,
		StartedAt:          start,
		FinishedAt:         s.now(),
		Settings:           settings,
		Matches:            make([]models.MatchSummary, 0, len(matches)),
		CampaignIDs:        make([]string, 0, len(result.Campaigns)),
	}
	for _, m := range matches {
		run.Matches = append(run.Matches, models.MatchSummary{
			TargetNewsletterID: m.Newsletter.ID,
			TargetUserID:       m.Newsletter.UserID,
			Compatibility:      m.Compatibility,
			Reasons:            m.Reasons,
		})
	}
	for _, c := range result.Campaigns {
		run.CampaignIDs = append(run.CampaignIDs, c.ID)
	}
	if batch != nil {
		for _, f := range batch.Failures {
			run.Failures = append(run.Failures, fmt.Sprintf("%s: %v", f.TargetNewsletterID, f.Err))
		}
	} else if !result.Success {
		run.Failures = append(run.Failures, result.Error)
	}

	if _, err := s.archive.SaveRun(ctx, run); err != nil {
		logrus.Warnf("Failed to archive run %s: %v", run.RunID, err)
	}
}

func (s *Service) notify(ctx context.Context, source models.NewsletterRecord, created []models.CrossPromotionCampaign) {
	digest := &models.CampaignDigest{
		GeneratedAt:        s.now(),
		UserID:             source.UserID,
		SourceNewsletterID: source.ID,
		Campaigns:          created,
	}
	for _, c := range created {
		digest.TotalEstimatedReach += c.EstimatedReach
		digest.TotalEstimatedRevenue += c.EstimatedRevenue
	}

	if err := s.notificationService.SendCampaignDigest(ctx, digest); err != nil {
		logrus.Warnf("Failed to send campaign digest for user %s: %v", source.UserID, err)
	}
}

func (s *Service) fail(result *models.RunResult, err error) {
	logrus.Errorf("Matching run %s for user %s failed: %v", result.RunID, result.UserID, err)
	result.Success = false
	result.Error = err.Error()
	result.ErrorKind = models.ErrorKind(err)
}

func (s *Service) recordRun(result models.RunResult, duration time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metrics.TotalRuns++
	s.metrics.CampaignsCreated += len(result.Campaigns)
	s.metrics.FailedCampaigns += result.FailedCampaigns
	s.metrics.LastRun = s.now()
	s.metrics.LastRunDuration = duration.String()
	s.metrics.LastError = result.Error
	if !result.Success {
		s.metrics.FailedRuns++
	}
}

func (s *Service) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.config.StoreTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.config.StoreTimeout)
}
