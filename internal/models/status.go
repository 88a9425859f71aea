package models

// CampaignStatus is the lifecycle state of a cross-promotion campaign
type CampaignStatus string

const (
	CampaignStatusPending   CampaignStatus = "pending"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusCompleted CampaignStatus = "completed"
)

// IsValid reports whether s is a known status
func (s CampaignStatus) IsValid() bool {
	switch s {
	case CampaignStatusPending, CampaignStatusActive, CampaignStatusCompleted:
		return true
	}
	return false
}

// IsOpen reports whether the campaign still occupies its newsletter pair
func (s CampaignStatus) IsOpen() bool {
	return s == CampaignStatusPending || s == CampaignStatusActive
}

// CanTransitionTo reports whether a campaign in status s may move to next.
// Only pending -> active and active -> completed are allowed.
func (s CampaignStatus) CanTransitionTo(next CampaignStatus) bool {
	switch s {
	case CampaignStatusPending:
		return next == CampaignStatusActive
	case CampaignStatusActive:
		return next == CampaignStatusCompleted
	}
	return false
}
