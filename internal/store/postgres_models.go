package store

import (
	"encoding/json"
	"time"

	"github.com/newsletterhub/crosspromo/internal/models"
	"github.com/sirupsen/logrus"
)

type newsletterModel struct {
	ID                  string    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID              string    `gorm:"column:user_id;type:uuid"`
	Subject             string    `gorm:"column:subject"`
	Content             string    `gorm:"column:content"`
	OpenRate            float64   `gorm:"column:open_rate"`
	ClickRate           float64   `gorm:"column:click_rate"`
	SubscriberCount     int       `gorm:"column:subscriber_count"`
	SubscriberGrowth    float64   `gorm:"column:subscriber_growth"`
	ReplyRate           float64   `gorm:"column:reply_rate"`
	UnsubscribeRate     float64   `gorm:"column:unsubscribe_rate"`
	SpamComplaintRate   float64   `gorm:"column:spam_complaint_rate"`
	Demographics        string    `gorm:"column:demographics;type:jsonb"`
	PublishingFrequency string    `gorm:"column:publishing_frequency"`
	Status              string    `gorm:"column:status"`
	CreatedAt           time.Time `gorm:"column:created_at"`
}

func (newsletterModel) TableName() string { return newslettersTable }

type campaignModel struct {
	ID                 string    `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SourceNewsletterID string    `gorm:"column:source_newsletter_id;type:uuid"`
	TargetNewsletterID string    `gorm:"column:target_newsletter_id;type:uuid"`
	SourceUserID       string    `gorm:"column:source_user_id;type:uuid"`
	TargetUserID       string    `gorm:"column:target_user_id;type:uuid"`
	CompatibilityScore float64   `gorm:"column:compatibility_score"`
	MatchingReasons    string    `gorm:"column:matching_reasons;type:jsonb"`
	DurationDays       int       `gorm:"column:duration_days"`
	Status             string    `gorm:"column:status"`
	EstimatedReach     int       `gorm:"column:estimated_reach"`
	EstimatedRevenue   float64   `gorm:"column:estimated_revenue"`
	ActualReach        int       `gorm:"column:actual_reach"`
	ActualClicks       int       `gorm:"column:actual_clicks"`
	ActualConversions  int       `gorm:"column:actual_conversions"`
	ActualRevenue      float64   `gorm:"column:actual_revenue"`
	CreatedAt          time.Time `gorm:"column:created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (campaignModel) TableName() string { return campaignsTable }

func toDomainNewsletter(rec newsletterModel) models.NewsletterRecord {
	var demographics map[string]interface{}
	if rec.Demographics != "" {
		if err := json.Unmarshal([]byte(rec.Demographics), &demographics); err != nil {
			logrus.Debugf("Ignoring malformed demographics on newsletter %s: %v", rec.ID, err)
		}
	}
	return models.NewsletterRecord{
		ID:                  rec.ID,
		UserID:              rec.UserID,
		Content:             rec.Content,
		Subject:             rec.Subject,
		OpenRate:            rec.OpenRate,
		ClickRate:           rec.ClickRate,
		SubscriberCount:     rec.SubscriberCount,
		SubscriberGrowth:    rec.SubscriberGrowth,
		ReplyRate:           rec.ReplyRate,
		UnsubscribeRate:     rec.UnsubscribeRate,
		SpamComplaintRate:   rec.SpamComplaintRate,
		Demographics:        demographics,
		PublishingFrequency: rec.PublishingFrequency,
		Status:              rec.Status,
		CreatedAt:           rec.CreatedAt,
	}
}

func toCampaignModel(c models.CrossPromotionCampaign) (campaignModel, error) {
	reasons := c.MatchingReasons
	if reasons == nil {
		reasons = []string{}
	}
	raw, err := json.Marshal(reasons)
	if err != nil {
		return campaignModel{}, err
	}
	return campaignModel{
		ID:                 c.ID,
		SourceNewsletterID: c.SourceNewsletterID,
		TargetNewsletterID: c.TargetNewsletterID,
		SourceUserID:       c.SourceUserID,
		TargetUserID:       c.TargetUserID,
		CompatibilityScore: c.CompatibilityScore,
		MatchingReasons:    string(raw),
		DurationDays:       c.DurationDays,
		Status:             string(c.Status),
		EstimatedReach:     c.EstimatedReach,
		EstimatedRevenue:   c.EstimatedRevenue,
		ActualReach:        c.ActualReach,
		ActualClicks:       c.ActualClicks,
		ActualConversions:  c.ActualConversions,
		ActualRevenue:      c.ActualRevenue,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}, nil
}

func toDomainCampaign(rec campaignModel) models.CrossPromotionCampaign {
	var reasons []string
	if rec.MatchingReasons != "" {
		if err := json.Unmarshal([]byte(rec.MatchingReasons), &reasons); err != nil {
			logrus.Debugf("Ignoring malformed matching reasons on campaign %s: %v", rec.ID, err)
		}
	}
	return models.CrossPromotionCampaign{
		ID:                 rec.ID,
		SourceNewsletterID: rec.SourceNewsletterID,
		TargetNewsletterID: rec.TargetNewsletterID,
		SourceUserID:       rec.SourceUserID,
		TargetUserID:       rec.TargetUserID,
		CompatibilityScore: rec.CompatibilityScore,
		MatchingReasons:    reasons,
		DurationDays:       rec.DurationDays,
		Status:             models.CampaignStatus(rec.Status),
		EstimatedReach:     rec.EstimatedReach,
		EstimatedRevenue:   rec.EstimatedRevenue,
		ActualReach:        rec.ActualReach,
		ActualClicks:       rec.ActualClicks,
		ActualConversions:  rec.ActualConversions,
		ActualRevenue:      rec.ActualRevenue,
		CreatedAt:          rec.CreatedAt,
		UpdatedAt:          rec.UpdatedAt,
	}
}
