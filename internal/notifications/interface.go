package notifications

import (
	"context"

	"github.com/newsletterhub/crosspromo/internal/models"
)

// NotificationInterface defines the contract for notification services
type NotificationInterface interface {
	SendCampaignDigest(ctx context.Context, digest *models.CampaignDigest) error
}
