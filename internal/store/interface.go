package store

import (
	"context"

	"github.com/newsletterhub/crosspromo/internal/models"
)

// MinCandidateSubscribers is the audience a newsletter needs to be offered as a candidate
const MinCandidateSubscribers = 100

// Store defines the record operations the matching engine needs from the platform database
type Store interface {
	// FetchPublishedNewsletters returns published newsletters with at least
	// MinCandidateSubscribers subscribers, largest first, excluding excludeUserID.
	FetchPublishedNewsletters(ctx context.Context, excludeUserID string) ([]models.NewsletterRecord, error)
	// FetchUserNewsletters returns the user's published newsletters, newest first.
	FetchUserNewsletters(ctx context.Context, userID string) ([]models.NewsletterRecord, error)
	InsertCampaign(ctx context.Context, campaign models.CrossPromotionCampaign) (models.CrossPromotionCampaign, error)
	UpdateCampaignPerformance(ctx context.Context, campaignID string, perf models.CampaignPerformance) (models.CrossPromotionCampaign, error)
	// FetchCampaign returns one campaign or an error wrapping models.ErrNotFound.
	FetchCampaign(ctx context.Context, campaignID string) (models.CrossPromotionCampaign, error)
	UpdateCampaignStatus(ctx context.Context, campaignID string, status models.CampaignStatus) (models.CrossPromotionCampaign, error)
	// FetchCampaignsForUser returns campaigns where the user owns either newsletter.
	FetchCampaignsForUser(ctx context.Context, userID string) ([]models.CrossPromotionCampaign, error)
	// ListPublisherIDs returns the distinct owners of published newsletters.
	ListPublisherIDs(ctx context.Context) ([]string, error)
}
