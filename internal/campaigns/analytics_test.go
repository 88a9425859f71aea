package campaigns

import (
	"testing"

	"github.com/newsletterhub/crosspromo/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	campaigns := []models.CrossPromotionCampaign{
		{Status: models.CampaignStatusPending, CompatibilityScore: 0.6},
		{Status: models.CampaignStatusActive, CompatibilityScore: 0.8, ActualReach: 400, ActualClicks: 40, ActualConversions: 10, ActualRevenue: 25},
		{Status: models.CampaignStatusCompleted, CompatibilityScore: 0.7, ActualReach: 600, ActualClicks: 90, ActualConversions: 30, ActualRevenue: 75},
	}

	a := Summarize(campaigns)

	assert.Equal(t, 3, a.TotalCampaigns)
	assert.Equal(t, 1, a.PendingCampaigns)
	assert.Equal(t, 1, a.ActiveCampaigns)
	assert.Equal(t, 1, a.CompletedCampaigns)
	assert.Equal(t, 1000, a.TotalReach)
	assert.Equal(t, 130, a.TotalClicks)
	assert.Equal(t, 40, a.TotalConversions)
	assert.InDelta(t, 100.0, a.TotalRevenue, 1e-9)
	assert.InDelta(t, 0.7, a.AverageCompatibility, 1e-9)
	assert.InDelta(t, 0.04, a.ConversionRate, 1e-9)
}

func TestSummarize_NoReach(t *testing.T) {
	a := Summarize([]models.CrossPromotionCampaign{{Status: models.CampaignStatusPending, CompatibilityScore: 0.5}})

	assert.Equal(t, 0.0, a.ConversionRate)
	assert.Equal(t, 0.5, a.AverageCompatibility)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, models.CampaignAnalytics{}, Summarize(nil))
}
