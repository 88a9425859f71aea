package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/newsletterhub/crosspromo/internal/models"
)

// MemoryStore keeps newsletters and campaigns in process memory
type MemoryStore struct {
	mu          sync.RWMutex
	newsletters []models.NewsletterRecord
	campaigns   map[string]models.CrossPromotionCampaign
	order       []string
	now         func() time.Time
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store seeded with newsletters
func NewMemoryStore(newsletters []models.NewsletterRecord) *MemoryStore {
	seeded := make([]models.NewsletterRecord, len(newsletters))
	copy(seeded, newsletters)
	return &MemoryStore{
		newsletters: seeded,
		campaigns:   make(map[string]models.CrossPromotionCampaign),
		now:         time.Now,
	}
}

// AddNewsletter appends a newsletter record
func (m *MemoryStore) AddNewsletter(n models.NewsletterRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.newsletters = append(m.newsletters, n)
}

func (m *MemoryStore) FetchPublishedNewsletters(ctx context.Context, excludeUserID string) ([]models.NewsletterRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, &models.PersistenceError{Op: "fetch published newsletters", Err: err}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.NewsletterRecord
	for _, n := range m.newsletters {
		if n.Status != models.NewsletterStatusPublished || n.SubscriberCount < MinCandidateSubscribers {
			continue
		}
		if excludeUserID != "" && n.UserID == excludeUserID {
			continue
		}
		result = append(result, n)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].SubscriberCount > result[j].SubscriberCount
	})
	return result, nil
}

func (m *MemoryStore) FetchUserNewsletters(ctx context.Context, userID string) ([]models.NewsletterRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, &models.PersistenceError{Op: "fetch user newsletters", Err: err}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.NewsletterRecord
	for _, n := range m.newsletters {
		if n.UserID == userID && n.Status == models.NewsletterStatusPublished {
			result = append(result, n)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MemoryStore) InsertCampaign(ctx context.Context, campaign models.CrossPromotionCampaign) (models.CrossPromotionCampaign, error) {
	if err := ctx.Err(); err != nil {
		return models.CrossPromotionCampaign{}, &models.PersistenceError{Op: "insert campaign", Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	campaign.ID = uuid.NewString()
	if campaign.CreatedAt.IsZero() {
		campaign.CreatedAt = now
	}
	campaign.UpdatedAt = now
	campaign.MatchingReasons = append([]string(nil), campaign.MatchingReasons...)

	m.campaigns[campaign.ID] = campaign
	m.order = append(m.order, campaign.ID)
	return campaign, nil
}

func (m *MemoryStore) UpdateCampaignPerformance(ctx context.Context, campaignID string, perf models.CampaignPerformance) (models.CrossPromotionCampaign, error) {
	return m.update(ctx, "update campaign performance", campaignID, func(c *models.CrossPromotionCampaign) {
		c.ActualReach = perf.ActualReach
		c.ActualClicks = perf.ActualClicks
		c.ActualConversions = perf.ActualConversions
		c.ActualRevenue = perf.ActualRevenue
	})
}

func (m *MemoryStore) UpdateCampaignStatus(ctx context.Context, campaignID string, status models.CampaignStatus) (models.CrossPromotionCampaign, error) {
	return m.update(ctx, "update campaign status", campaignID, func(c *models.CrossPromotionCampaign) {
		c.Status = status
	})
}

func (m *MemoryStore) update(ctx context.Context, op, campaignID string, apply func(*models.CrossPromotionCampaign)) (models.CrossPromotionCampaign, error) {
	if err := ctx.Err(); err != nil {
		return models.CrossPromotionCampaign{}, &models.PersistenceError{Op: op, Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	campaign, ok := m.campaigns[campaignID]
	if !ok {
		return models.CrossPromotionCampaign{}, fmt.Errorf("campaign %s: %w", campaignID, models.ErrNotFound)
	}
	apply(&campaign)
	campaign.UpdatedAt = m.now()
	m.campaigns[campaignID] = campaign
	return campaign, nil
}

func (m *MemoryStore) FetchCampaign(ctx context.Context, campaignID string) (models.CrossPromotionCampaign, error) {
	if err := ctx.Err(); err != nil {
		return models.CrossPromotionCampaign{}, &models.PersistenceError{Op: "fetch campaign", Err: err}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	campaign, ok := m.campaigns[campaignID]
	if !ok {
		return models.CrossPromotionCampaign{}, fmt.Errorf("campaign %s: %w", campaignID, models.ErrNotFound)
	}
	return campaign, nil
}

func (m *MemoryStore) FetchCampaignsForUser(ctx context.Context, userID string) ([]models.CrossPromotionCampaign, error) {
	if err := ctx.Err(); err != nil {
		return nil, &models.PersistenceError{Op: "fetch campaigns", Err: err}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []models.CrossPromotionCampaign
	for _, id := range m.order {
		c := m.campaigns[id]
		if c.SourceUserID == userID || c.TargetUserID == userID {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *MemoryStore) ListPublisherIDs(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, &models.PersistenceError{Op: "list publishers", Err: err}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var ids []string
	for _, n := range m.newsletters {
		if n.Status != models.NewsletterStatusPublished || seen[n.UserID] {
			continue
		}
		seen[n.UserID] = true
		ids = append(ids, n.UserID)
	}
	return ids, nil
}
