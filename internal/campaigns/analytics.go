package campaigns

import "github.com/newsletterhub/crosspromo/internal/models"

// Summarize aggregates the campaigns of a user
func Summarize(campaigns []models.CrossPromotionCampaign) models.CampaignAnalytics {
	var a models.CampaignAnalytics
	var compatibility float64

	for _, c := range campaigns {
		a.TotalCampaigns++
		switch c.Status {
		case models.CampaignStatusPending:
			a.PendingCampaigns++
		case models.CampaignStatusActive:
			a.ActiveCampaigns++
		case models.CampaignStatusCompleted:
			a.CompletedCampaigns++
		}

		a.TotalReach += c.ActualReach
		a.TotalClicks += c.ActualClicks
		a.TotalConversions += c.ActualConversions
		a.TotalRevenue += c.ActualRevenue
		compatibility += c.CompatibilityScore
	}

	if a.TotalCampaigns > 0 {
		a.AverageCompatibility = compatibility / float64(a.TotalCampaigns)
	}
	if a.TotalReach > 0 {
		a.ConversionRate = float64(a.TotalConversions) / float64(a.TotalReach)
	}
	return a
}
