package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/newsletterhub/crosspromo/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	newslettersTable = "newsletters"
	campaignsTable   = "cross_promotion_campaigns"
)

// SupabaseStore talks to the Supabase PostgREST API
type SupabaseStore struct {
	client *resty.Client
	now    func() time.Time
}

// Ensure SupabaseStore implements Store
var _ Store = (*SupabaseStore)(nil)

// NewSupabaseStore creates a store for the project at baseURL authenticated with serviceKey
func NewSupabaseStore(baseURL, serviceKey string, timeout time.Duration) (*SupabaseStore, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if serviceKey == "" {
		return nil, fmt.Errorf("supabase service key is required")
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")+"/rest/v1").
		SetTimeout(timeout).
		SetHeader("apikey", serviceKey).
		SetAuthToken(serviceKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &SupabaseStore{client: client, now: time.Now}, nil
}

func (s *SupabaseStore) FetchPublishedNewsletters(ctx context.Context, excludeUserID string) ([]models.NewsletterRecord, error) {
	params := map[string]string{
		"select":           "*",
		"status":           "eq." + models.NewsletterStatusPublished,
		"subscriber_count": "gte." + strconv.Itoa(MinCandidateSubscribers),
		"order":            "subscriber_count.desc",
	}
	if excludeUserID != "" {
		params["user_id"] = "neq." + excludeUserID
	}

	var newsletters []models.NewsletterRecord
	if err := s.get(ctx, "fetch published newsletters", newslettersTable, params, &newsletters); err != nil {
		return nil, err
	}
	logrus.Debugf("Fetched %d candidate newsletters (excluding user %s)", len(newsletters), excludeUserID)
	return newsletters, nil
}

func (s *SupabaseStore) FetchUserNewsletters(ctx context.Context, userID string) ([]models.NewsletterRecord, error) {
	params := map[string]string{
		"select":  "*",
		"user_id": "eq." + userID,
		"status":  "eq." + models.NewsletterStatusPublished,
		"order":   "created_at.desc",
	}

	var newsletters []models.NewsletterRecord
	if err := s.get(ctx, "fetch user newsletters", newslettersTable, params, &newsletters); err != nil {
		return nil, err
	}
	return newsletters, nil
}

func (s *SupabaseStore) InsertCampaign(ctx context.Context, campaign models.CrossPromotionCampaign) (models.CrossPromotionCampaign, error) {
	campaign.ID = ""
	if campaign.CreatedAt.IsZero() {
		campaign.CreatedAt = s.now()
	}
	campaign.UpdatedAt = campaign.CreatedAt

	var created []models.CrossPromotionCampaign
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetBody(campaign).
		SetResult(&created).
		Post("/" + campaignsTable)
	if err := checkResponse("insert campaign", resp, err); err != nil {
		return models.CrossPromotionCampaign{}, err
	}
	if len(created) == 0 {
		return models.CrossPromotionCampaign{}, &models.PersistenceError{Op: "insert campaign", Err: fmt.Errorf("no row returned")}
	}
	return created[0], nil
}

func (s *SupabaseStore) UpdateCampaignPerformance(ctx context.Context, campaignID string, perf models.CampaignPerformance) (models.CrossPromotionCampaign, error) {
	return s.patchCampaign(ctx, "update campaign performance", campaignID, map[string]interface{}{
		"actual_reach":       perf.ActualReach,
		"actual_clicks":      perf.ActualClicks,
		"actual_conversions": perf.ActualConversions,
		"actual_revenue":     perf.ActualRevenue,
	})
}

func (s *SupabaseStore) UpdateCampaignStatus(ctx context.Context, campaignID string, status models.CampaignStatus) (models.CrossPromotionCampaign, error) {
	return s.patchCampaign(ctx, "update campaign status", campaignID, map[string]interface{}{
		"status": status,
	})
}

func (s *SupabaseStore) patchCampaign(ctx context.Context, op, campaignID string, fields map[string]interface{}) (models.CrossPromotionCampaign, error) {
	fields["updated_at"] = s.now()

	var updated []models.CrossPromotionCampaign
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParam("id", "eq."+campaignID).
		SetBody(fields).
		SetResult(&updated).
		Patch("/" + campaignsTable)
	if err := checkResponse(op, resp, err); err != nil {
		return models.CrossPromotionCampaign{}, err
	}
	if len(updated) == 0 {
		return models.CrossPromotionCampaign{}, fmt.Errorf("campaign %s: %w", campaignID, models.ErrNotFound)
	}
	return updated[0], nil
}

func (s *SupabaseStore) FetchCampaign(ctx context.Context, campaignID string) (models.CrossPromotionCampaign, error) {
	params := map[string]string{
		"select": "*",
		"id":     "eq." + campaignID,
		"limit":  "1",
	}

	var campaigns []models.CrossPromotionCampaign
	if err := s.get(ctx, "fetch campaign", campaignsTable, params, &campaigns); err != nil {
		return models.CrossPromotionCampaign{}, err
	}
	if len(campaigns) == 0 {
		return models.CrossPromotionCampaign{}, fmt.Errorf("campaign %s: %w", campaignID, models.ErrNotFound)
	}
	return campaigns[0], nil
}

func (s *SupabaseStore) FetchCampaignsForUser(ctx context.Context, userID string) ([]models.CrossPromotionCampaign, error) {
	params := map[string]string{
		"select": "*",
		"or":     fmt.Sprintf("(source_user_id.eq.%s,target_user_id.eq.%s)", quoteFilterValue(userID), quoteFilterValue(userID)),
		"order":  "created_at.asc",
	}

	var campaigns []models.CrossPromotionCampaign
	if err := s.get(ctx, "fetch campaigns", campaignsTable, params, &campaigns); err != nil {
		return nil, err
	}
	return campaigns, nil
}

func (s *SupabaseStore) ListPublisherIDs(ctx context.Context) ([]string, error) {
	params := map[string]string{
		"select": "user_id",
		"status": "eq." + models.NewsletterStatusPublished,
	}

	var rows []struct {
		UserID string `json:"user_id"`
	}
	if err := s.get(ctx, "list publishers", newslettersTable, params, &rows); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var ids []string
	for _, row := range rows {
		if row.UserID == "" || seen[row.UserID] {
			continue
		}
		seen[row.UserID] = true
		ids = append(ids, row.UserID)
	}
	return ids, nil
}

func (s *SupabaseStore) get(ctx context.Context, op, table string, params map[string]string, result interface{}) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(result).
		Get("/" + table)
	return checkResponse(op, resp, err)
}

// quoteFilterValue wraps a value for use inside a PostgREST logic tree so that
// reserved characters such as "," and ")" stay part of the value
func quoteFilterValue(v string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(v)
	return `"` + escaped + `"`
}

func checkResponse(op string, resp *resty.Response, err error) error {
	if err != nil {
		return &models.PersistenceError{Op: op, Err: err}
	}
	if resp.IsError() {
		return &models.PersistenceError{
			Op:  op,
			Err: fmt.Errorf("supabase returned status %d: %s", resp.StatusCode(), resp.String()),
		}
	}
	return nil
}
