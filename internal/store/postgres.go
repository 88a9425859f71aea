package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/newsletterhub/crosspromo/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// PostgresStore reads and writes the platform tables directly over a Postgres connection
type PostgresStore struct {
	db  *gorm.DB
	now func() time.Time
}

// Ensure PostgresStore implements Store
var _ Store = (*PostgresStore)(nil)

// Connect opens a pooled gorm connection and verifies it with a ping
func Connect(ctx context.Context, databaseURL string, maxConns int) (*gorm.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		PrepareStmt:    true,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}
	if maxConns > 0 {
		sqlDB.SetMaxOpenConns(maxConns)
		sqlDB.SetMaxIdleConns(maxConns / 2)
	}
	sqlDB.SetConnMaxIdleTime(15 * time.Minute)
	sqlDB.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// RunMigrations applies the embedded schema files in name order
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	for _, name := range names {
		raw, readErr := migrationFS.ReadFile("migrations/" + name)
		if readErr != nil {
			return fmt.Errorf("read migration %s: %w", name, readErr)
		}
		if execErr := db.WithContext(ctx).Exec(string(raw)).Error; execErr != nil {
			return fmt.Errorf("exec migration %s: %w", name, execErr)
		}
	}
	return nil
}

// NewPostgresStore wraps an open gorm connection
func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

func (s *PostgresStore) FetchPublishedNewsletters(ctx context.Context, excludeUserID string) ([]models.NewsletterRecord, error) {
	query := s.db.WithContext(ctx).
		Where("status = ? AND subscriber_count >= ?", models.NewsletterStatusPublished, MinCandidateSubscribers)
	if excludeUserID != "" {
		query = query.Where("user_id <> ?", excludeUserID)
	}

	var rows []newsletterModel
	if err := query.Order("subscriber_count DESC").Find(&rows).Error; err != nil {
		return nil, &models.PersistenceError{Op: "fetch published newsletters", Err: err}
	}
	return toDomainNewsletters(rows), nil
}

func (s *PostgresStore) FetchUserNewsletters(ctx context.Context, userID string) ([]models.NewsletterRecord, error) {
	var rows []newsletterModel
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.NewsletterStatusPublished).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, &models.PersistenceError{Op: "fetch user newsletters", Err: err}
	}
	return toDomainNewsletters(rows), nil
}

func (s *PostgresStore) InsertCampaign(ctx context.Context, campaign models.CrossPromotionCampaign) (models.CrossPromotionCampaign, error) {
	campaign.ID = ""
	if campaign.CreatedAt.IsZero() {
		campaign.CreatedAt = s.now()
	}
	campaign.UpdatedAt = campaign.CreatedAt

	rec, err := toCampaignModel(campaign)
	if err != nil {
		return models.CrossPromotionCampaign{}, &models.PersistenceError{Op: "insert campaign", Err: err}
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return models.CrossPromotionCampaign{}, &models.PersistenceError{Op: "insert campaign", Err: err}
	}
	return toDomainCampaign(rec), nil
}

func (s *PostgresStore) UpdateCampaignPerformance(ctx context.Context, campaignID string, perf models.CampaignPerformance) (models.CrossPromotionCampaign, error) {
	return s.updateCampaign(ctx, "update campaign performance", campaignID, map[string]any{
		"actual_reach":       perf.ActualReach,
		"actual_clicks":      perf.ActualClicks,
		"actual_conversions": perf.ActualConversions,
		"actual_revenue":     perf.ActualRevenue,
	})
}

func (s *PostgresStore) UpdateCampaignStatus(ctx context.Context, campaignID string, status models.CampaignStatus) (models.CrossPromotionCampaign, error) {
	return s.updateCampaign(ctx, "update campaign status", campaignID, map[string]any{
		"status": string(status),
	})
}

func (s *PostgresStore) updateCampaign(ctx context.Context, op, campaignID string, updates map[string]any) (models.CrossPromotionCampaign, error) {
	updates["updated_at"] = s.now()

	var rec campaignModel
	result := s.db.WithContext(ctx).
		Model(&rec).
		Clauses(clause.Returning{}).
		Where("id = ?", campaignID).
		Updates(updates)
	if result.Error != nil {
		return models.CrossPromotionCampaign{}, &models.PersistenceError{Op: op, Err: result.Error}
	}
	if result.RowsAffected == 0 {
		return models.CrossPromotionCampaign{}, fmt.Errorf("campaign %s: %w", campaignID, models.ErrNotFound)
	}
	return toDomainCampaign(rec), nil
}

func (s *PostgresStore) FetchCampaign(ctx context.Context, campaignID string) (models.CrossPromotionCampaign, error) {
	var rec campaignModel
	err := s.db.WithContext(ctx).Where("id = ?", campaignID).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.CrossPromotionCampaign{}, fmt.Errorf("campaign %s: %w", campaignID, models.ErrNotFound)
	}
	if err != nil {
		return models.CrossPromotionCampaign{}, &models.PersistenceError{Op: "fetch campaign", Err: err}
	}
	return toDomainCampaign(rec), nil
}

func (s *PostgresStore) FetchCampaignsForUser(ctx context.Context, userID string) ([]models.CrossPromotionCampaign, error) {
	var rows []campaignModel
	err := s.db.WithContext(ctx).
		Where("source_user_id = ? OR target_user_id = ?", userID, userID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, &models.PersistenceError{Op: "fetch campaigns", Err: err}
	}

	campaigns := make([]models.CrossPromotionCampaign, 0, len(rows))
	for _, rec := range rows {
		campaigns = append(campaigns, toDomainCampaign(rec))
	}
	return campaigns, nil
}

func (s *PostgresStore) ListPublisherIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&newsletterModel{}).
		Where("status = ?", models.NewsletterStatusPublished).
		Distinct("user_id").
		Pluck("user_id", &ids).Error
	if err != nil {
		return nil, &models.PersistenceError{Op: "list publishers", Err: err}
	}
	return ids, nil
}

func toDomainNewsletters(rows []newsletterModel) []models.NewsletterRecord {
	out := make([]models.NewsletterRecord, 0, len(rows))
	for _, rec := range rows {
		out = append(out, toDomainNewsletter(rec))
	}
	return out
}
