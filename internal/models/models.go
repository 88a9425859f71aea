package models

import "time"

// NewsletterStatusPublished is the only newsletter status considered for matching
const NewsletterStatusPublished = "published"

// NewsletterRecord represents a newsletter as stored by the platform
type NewsletterRecord struct {
	ID                  string                 `json:"id"`
	UserID              string                 `json:"user_id"`
	Content             string                 `json:"content"`
	Subject             string                 `json:"subject"`
	OpenRate            float64                `json:"open_rate"`
	ClickRate           float64                `json:"click_rate"`
	SubscriberCount     int                    `json:"subscriber_count"`
	SubscriberGrowth    float64                `json:"subscriber_growth"`
	ReplyRate           float64                `json:"reply_rate"`
	UnsubscribeRate     float64                `json:"unsubscribe_rate"`
	SpamComplaintRate   float64                `json:"spam_complaint_rate"`
	Demographics        map[string]interface{} `json:"demographics,omitempty"`
	PublishingFrequency string                 `json:"publishing_frequency"`
	Status              string                 `json:"status"`
	CreatedAt           time.Time              `json:"created_at,omitempty"`
}

// EngagementMetrics summarizes how subscribers respond to a newsletter
type EngagementMetrics struct {
	OpenRate        float64 `json:"open_rate"`
	ClickRate       float64 `json:"click_rate"`
	SubscriberCount int     `json:"subscriber_count"`
	EngagementScore float64 `json:"engagement_score"` // 0-1
}

// AudienceProfile describes the size and health of a newsletter audience
type AudienceProfile struct {
	Size         int                    `json:"size"`
	Quality      float64                `json:"quality"` // 0-1
	Demographics map[string]interface{} `json:"demographics,omitempty"`
}

// NewsletterProfile is the derived analysis of a newsletter. It is recomputed on demand.
type NewsletterProfile struct {
	ID                  string            `json:"id"`
	UserID              string            `json:"user_id"`
	Keywords            []string          `json:"keywords"`
	Categories          []string          `json:"categories"`
	EngagementMetrics   EngagementMetrics `json:"engagement_metrics"`
	AudienceProfile     AudienceProfile   `json:"audience_profile"`
	ContentStyle        string            `json:"content_style"`
	PublishingFrequency string            `json:"publishing_frequency"`
}

// Match is a ranked cross-promotion candidate
type Match struct {
	Newsletter    NewsletterRecord  `json:"newsletter"`
	Analysis      NewsletterProfile `json:"analysis"`
	Compatibility float64           `json:"compatibility"`
	Reasons       []string          `json:"reasons"`
}

// CrossPromotionCampaign is a persisted arrangement between two newsletters
type CrossPromotionCampaign struct {
	ID                 string         `json:"id,omitempty"`
	SourceNewsletterID string         `json:"source_newsletter_id"`
	TargetNewsletterID string         `json:"target_newsletter_id"`
	SourceUserID       string         `json:"source_user_id"`
	TargetUserID       string         `json:"target_user_id"`
	CompatibilityScore float64        `json:"compatibility_score"`
	MatchingReasons    []string       `json:"matching_reasons"`
	DurationDays       int            `json:"duration_days"`
	Status             CampaignStatus `json:"status"`
	EstimatedReach     int            `json:"estimated_reach"`
	EstimatedRevenue   float64        `json:"estimated_revenue"`
	ActualReach        int            `json:"actual_reach"`
	ActualClicks       int            `json:"actual_clicks"`
	ActualConversions  int            `json:"actual_conversions"`
	ActualRevenue      float64        `json:"actual_revenue"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// CampaignPerformance carries the measured results of a campaign
type CampaignPerformance struct {
	ActualReach       int     `json:"actual_reach"`
	ActualClicks      int     `json:"actual_clicks"`
	ActualConversions int     `json:"actual_conversions"`
	ActualRevenue     float64 `json:"actual_revenue"`
}

// CampaignAnalytics aggregates all campaigns of a user
type CampaignAnalytics struct {
	TotalCampaigns       int     `json:"total_campaigns"`
	PendingCampaigns     int     `json:"pending_campaigns"`
	ActiveCampaigns      int     `json:"active_campaigns"`
	CompletedCampaigns   int     `json:"completed_campaigns"`
	TotalReach           int     `json:"total_reach"`
	TotalClicks          int     `json:"total_clicks"`
	TotalConversions     int     `json:"total_conversions"`
	TotalRevenue         float64 `json:"total_revenue"`
	AverageCompatibility float64 `json:"average_compatibility"`
	ConversionRate       float64 `json:"conversion_rate"`
}

// MatchingSettings controls campaign synthesis
type MatchingSettings struct {
	MaxCampaigns          int     `json:"max_campaigns"`
	MinCompatibilityScore float64 `json:"min_compatibility_score"`
	CampaignDurationDays  int     `json:"campaign_duration_days"`
	AutoApprove           bool    `json:"auto_approve"`
	// SkipExistingPairs avoids creating a second campaign for a pair that
	// already has a pending or active one. Off unless configured.
	SkipExistingPairs bool `json:"skip_existing_pairs"`
}

// DefaultMatchingSettings returns the stock synthesis settings
func DefaultMatchingSettings() MatchingSettings {
	return MatchingSettings{
		MaxCampaigns:          3,
		MinCompatibilityScore: 0.5,
		CampaignDurationDays:  30,
		AutoApprove:           false,
	}
}

// RunResult is the outcome of a matching run for one user
type RunResult struct {
	Success             bool                     `json:"success"`
	Error               string                   `json:"error,omitempty"`
	ErrorKind           string                   `json:"error_kind,omitempty"`
	RunID               string                   `json:"run_id,omitempty"`
	UserID              string                   `json:"user_id"`
	SourceNewsletterID  string                   `json:"source_newsletter_id,omitempty"`
	CandidatesEvaluated int                      `json:"candidates_evaluated"`
	MatchesFound        int                      `json:"matches_found"`
	Campaigns           []CrossPromotionCampaign `json:"campaigns"`
	FailedCampaigns     int                      `json:"failed_campaigns"`
}

// MatchSummary is the archived form of a Match
type MatchSummary struct {
	TargetNewsletterID string   `json:"target_newsletter_id"`
	TargetUserID       string   `json:"target_user_id"`
	Compatibility      float64  `json:"compatibility"`
	Reasons            []string `json:"reasons"`
}

// MatchRun is the snapshot of a matching run kept in the archive
type MatchRun struct {
	RunID              string           `json:"run_id"`
	UserID             string           `json:"user_id"`
	SourceNewsletterID string           `json:"source_newsletter_id"`
	StartedAt          time.Time        `json:"started_at"`
	FinishedAt         time.Time        `json:"finished_at"`
	Settings           MatchingSettings `json:"settings"`
	Matches            []MatchSummary   `json:"matches"`
	CampaignIDs        []string         `json:"campaign_ids"`
	Failures           []string         `json:"failures,omitempty"`
}

// CampaignDigest is sent to publishers after a run created campaigns
type CampaignDigest struct {
	GeneratedAt           time.Time                `json:"generated_at"`
	UserID                string                   `json:"user_id"`
	SourceNewsletterID    string                   `json:"source_newsletter_id"`
	Campaigns             []CrossPromotionCampaign `json:"campaigns"`
	TotalEstimatedReach   int                      `json:"total_estimated_reach"`
	TotalEstimatedRevenue float64                  `json:"total_estimated_revenue"`
}

// Validate checks the settings bounds
func (s MatchingSettings) Validate() error {
	if s.MaxCampaigns < 1 {
		return &ValidationError{Field: "max_campaigns", Reason: "must be at least 1"}
	}
	if s.MinCompatibilityScore < 0 || s.MinCompatibilityScore > 1 {
		return &ValidationError{Field: "min_compatibility_score", Reason: "must be between 0 and 1"}
	}
	if s.CampaignDurationDays < 1 {
		return &ValidationError{Field: "campaign_duration_days", Reason: "must be at least 1"}
	}
	return nil
}
