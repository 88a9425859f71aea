package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/newsletterhub/crosspromo/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedNewsletters() []models.NewsletterRecord {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return []models.NewsletterRecord{
		{ID: "a1", UserID: "alice", SubscriberCount: 500, Status: models.NewsletterStatusPublished, CreatedAt: base},
		{ID: "a2", UserID: "alice", SubscriberCount: 900, Status: models.NewsletterStatusPublished, CreatedAt: base.Add(24 * time.Hour)},
		{ID: "b1", UserID: "bob", SubscriberCount: 12000, Status: models.NewsletterStatusPublished},
		{ID: "c1", UserID: "carol", SubscriberCount: 99, Status: models.NewsletterStatusPublished},
		{ID: "d1", UserID: "dave", SubscriberCount: 40000, Status: "draft"},
		{ID: "e1", UserID: "erin", SubscriberCount: 3000, Status: models.NewsletterStatusPublished},
	}
}

func TestMemoryStore_FetchPublishedNewsletters(t *testing.T) {
	s := NewMemoryStore(seedNewsletters())

	result, err := s.FetchPublishedNewsletters(context.Background(), "alice")
	require.NoError(t, err)

	var ids []string
	for _, n := range result {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"b1", "e1"}, ids)
}

func TestMemoryStore_FetchUserNewsletters(t *testing.T) {
	s := NewMemoryStore(seedNewsletters())

	result, err := s.FetchUserNewsletters(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, result, 2)
	assert.Equal(t, "a2", result[0].ID)

	result, err = s.FetchUserNewsletters(context.Background(), "dave")
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestMemoryStore_AddNewsletter(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()

	s.AddNewsletter(models.NewsletterRecord{ID: "f1", UserID: "frank", SubscriberCount: 700, Status: models.NewsletterStatusPublished})
	s.AddNewsletter(models.NewsletterRecord{ID: "f2", UserID: "frank", SubscriberCount: 800, Status: "draft"})

	owned, err := s.FetchUserNewsletters(ctx, "frank")
	require.NoError(t, err)
	require.Len(t, owned, 1)
	assert.Equal(t, "f1", owned[0].ID)

	candidates, err := s.FetchPublishedNewsletters(ctx, "")
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	ids, err := s.ListPublisherIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"frank"}, ids)
}

func TestMemoryStore_CampaignLifecycle(t *testing.T) {
	s := NewMemoryStore(nil)
	ctx := context.Background()

	created, err := s.InsertCampaign(ctx, models.CrossPromotionCampaign{
		SourceNewsletterID: "a1",
		TargetNewsletterID: "b1",
		SourceUserID:       "alice",
		TargetUserID:       "bob",
		Status:             models.CampaignStatusPending,
		MatchingReasons:    []string{"Similar audience sizes"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	updated, err := s.UpdateCampaignPerformance(ctx, created.ID, models.CampaignPerformance{
		ActualReach: 420, ActualClicks: 37, ActualConversions: 12, ActualRevenue: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, 420, updated.ActualReach)
	assert.Equal(t, 12, updated.ActualConversions)

	updated, err = s.UpdateCampaignStatus(ctx, created.ID, models.CampaignStatusActive)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusActive, updated.Status)

	fetched, err := s.FetchCampaign(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CampaignStatusActive, fetched.Status)

	_, err = s.FetchCampaign(ctx, "missing")
	assert.True(t, errors.Is(err, models.ErrNotFound))

	forBob, err := s.FetchCampaignsForUser(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, forBob, 1)
	assert.Equal(t, 420, forBob[0].ActualReach)

	forErin, err := s.FetchCampaignsForUser(ctx, "erin")
	require.NoError(t, err)
	assert.Empty(t, forErin)
}

func TestMemoryStore_UpdateUnknownCampaign(t *testing.T) {
	s := NewMemoryStore(nil)

	_, err := s.UpdateCampaignStatus(context.Background(), "missing", models.CampaignStatusActive)

	assert.True(t, errors.Is(err, models.ErrNotFound))
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	s := NewMemoryStore(seedNewsletters())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.InsertCampaign(ctx, models.CrossPromotionCampaign{})

	assert.True(t, errors.Is(err, models.ErrPersistence))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestMemoryStore_ListPublisherIDs(t *testing.T) {
	s := NewMemoryStore(seedNewsletters())

	ids, err := s.ListPublisherIDs(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob", "carol", "erin"}, ids)
}
