package campaigns

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/newsletterhub/crosspromo/internal/models"
	"github.com/newsletterhub/crosspromo/internal/store"
	"github.com/sirupsen/logrus"
)

const (
	// ReachRate is the share of the target audience expected to see a promotion
	ReachRate = 0.05
	// RevenuePerSubscriber is the assumed value of each reached subscriber
	RevenuePerSubscriber = 2.5
)

// Synthesizer turns ranked matches into persisted campaigns
type Synthesizer struct {
	store   store.Store
	timeout time.Duration
	now     func() time.Time
}

// NewSynthesizer creates a synthesizer writing through st. Each store call is
// bounded by timeout when it is positive.
func NewSynthesizer(st store.Store, timeout time.Duration) *Synthesizer {
	return &Synthesizer{store: st, timeout: timeout, now: time.Now}
}

// EstimateReach returns the expected reach and revenue for a target audience
func EstimateReach(targetSubscribers int) (int, float64) {
	reach := int(math.Round(float64(targetSubscribers) * ReachRate))
	return reach, float64(reach) * RevenuePerSubscriber
}

// Select keeps matches at or above the minimum score, capped at MaxCampaigns
func Select(matches []models.Match, settings models.MatchingSettings) []models.Match {
	selected := make([]models.Match, 0, len(matches))
	for _, m := range matches {
		if len(selected) >= settings.MaxCampaigns {
			break
		}
		if m.Compatibility >= settings.MinCompatibilityScore {
			selected = append(selected, m)
		}
	}
	return selected
}

// Build creates the unsaved campaign for a match
func Build(source models.NewsletterRecord, match models.Match, settings models.MatchingSettings, now time.Time) models.CrossPromotionCampaign {
	reach, revenue := EstimateReach(match.Newsletter.SubscriberCount)

	status := models.CampaignStatusPending
	if settings.AutoApprove {
		status = models.CampaignStatusActive
	}

	return models.CrossPromotionCampaign{
		SourceNewsletterID: source.ID,
		TargetNewsletterID: match.Newsletter.ID,
		SourceUserID:       source.UserID,
		TargetUserID:       match.Newsletter.UserID,
		CompatibilityScore: match.Compatibility,
		MatchingReasons:    append([]string{}, match.Reasons...),
		DurationDays:       settings.CampaignDurationDays,
		Status:             status,
		EstimatedReach:     reach,
		EstimatedRevenue:   revenue,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// Synthesize persists one campaign per selected match. Inserts run concurrently
// and a failed insert never cancels the others. The returned campaigns keep rank
// order; when some inserts fail the error is a *models.PartialBatchFailure and
// the returned campaigns are still valid.
func (s *Synthesizer) Synthesize(ctx context.Context, source models.NewsletterRecord, matches []models.Match, settings models.MatchingSettings) ([]models.CrossPromotionCampaign, error) {
	if settings.SkipExistingPairs {
		filtered, err := s.withoutOpenPairs(ctx, source, matches)
		if err != nil {
			return nil, err
		}
		matches = filtered
	}

	selected := Select(matches, settings)
	if len(selected) == 0 {
		return []models.CrossPromotionCampaign{}, nil
	}

	type outcome struct {
		campaign models.CrossPromotionCampaign
		err      error
	}

	now := s.now()
	outcomes := make([]outcome, len(selected))
	var wg sync.WaitGroup

	for i, match := range selected {
		wg.Add(1)
		go func(i int, match models.Match) {
			defer wg.Done()

			callCtx, cancel := s.callContext(ctx)
			defer cancel()

			created, err := s.store.InsertCampaign(callCtx, Build(source, match, settings, now))
			outcomes[i] = outcome{campaign: created, err: err}
		}(i, match)
	}
	wg.Wait()

	created := make([]models.CrossPromotionCampaign, 0, len(selected))
	var failures []models.CampaignFailure
	for i, o := range outcomes {
		if o.err != nil {
			target := selected[i].Newsletter.ID
			logrus.Errorf("Failed to create campaign %s -> %s: %v", source.ID, target, o.err)
			failures = append(failures, models.CampaignFailure{TargetNewsletterID: target, Err: o.err})
			continue
		}
		created = append(created, o.campaign)
	}

	logrus.Infof("Created %d of %d campaigns for newsletter %s", len(created), len(selected), source.ID)

	if len(failures) > 0 {
		return created, &models.PartialBatchFailure{Attempted: len(selected), Failures: failures}
	}
	return created, nil
}

// withoutOpenPairs drops matches whose newsletter pair already has a pending or
// active campaign in either direction
func (s *Synthesizer) withoutOpenPairs(ctx context.Context, source models.NewsletterRecord, matches []models.Match) ([]models.Match, error) {
	callCtx, cancel := s.callContext(ctx)
	defer cancel()

	existing, err := s.store.FetchCampaignsForUser(callCtx, source.UserID)
	if err != nil {
		return nil, fmt.Errorf("check existing campaigns: %w", err)
	}

	open := make(map[string]bool)
	for _, c := range existing {
		if !c.Status.IsOpen() {
			continue
		}
		switch source.ID {
		case c.SourceNewsletterID:
			open[c.TargetNewsletterID] = true
		case c.TargetNewsletterID:
			open[c.SourceNewsletterID] = true
		}
	}

	filtered := make([]models.Match, 0, len(matches))
	for _, m := range matches {
		if open[m.Newsletter.ID] {
			logrus.Debugf("Skipping %s -> %s: campaign already open", source.ID, m.Newsletter.ID)
			continue
		}
		filtered = append(filtered, m)
	}
	return filtered, nil
}

func (s *Synthesizer) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
