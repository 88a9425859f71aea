package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/newsletterhub/crosspromo/internal/analysis"
	"github.com/newsletterhub/crosspromo/internal/campaigns"
	"github.com/newsletterhub/crosspromo/internal/matching"
	"github.com/newsletterhub/crosspromo/internal/models"
	"github.com/newsletterhub/crosspromo/internal/store"
	"github.com/sirupsen/logrus"
)

// match-preview ranks newsletters from a JSON file against one publisher and
// prints the campaigns a run would create, without touching a real store
func main() {
	file := flag.String("file", "newsletters.json", "JSON array of newsletter records")
	userID := flag.String("user", "", "publisher to match")
	maxCampaigns := flag.Int("max", models.DefaultMatchingSettings().MaxCampaigns, "maximum campaigns to create")
	minScore := flag.Float64("min-score", models.DefaultMatchingSettings().MinCompatibilityScore, "minimum compatibility for a campaign")
	autoApprove := flag.Bool("auto-approve", false, "create campaigns as active")
	explain := flag.Bool("explain", false, "print the score breakdown of each match")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}
	logrus.SetLevel(logrus.WarnLevel)

	if *userID == "" {
		log.Fatal("-user is required")
	}

	raw, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *file, err)
	}
	var newsletters []models.NewsletterRecord
	if err := json.Unmarshal(raw, &newsletters); err != nil {
		log.Fatalf("Failed to parse %s: %v", *file, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	st := store.NewMemoryStore(newsletters)
	owned, err := st.FetchUserNewsletters(ctx, *userID)
	if err != nil {
		log.Fatalf("Failed to load newsletters: %v", err)
	}
	if len(owned) == 0 {
		log.Fatalf("No published newsletters for user %s", *userID)
	}
	source := owned[0]
	if err := models.ValidateNewsletter(source); err != nil {
		log.Fatalf("Newsletter %s cannot be matched: %v", source.ID, err)
	}

	candidates, err := st.FetchPublishedNewsletters(ctx, *userID)
	if err != nil {
		log.Fatalf("Failed to load candidates: %v", err)
	}

	fmt.Printf("Source newsletter: %s (%d subscribers)\n", source.ID, source.SubscriberCount)
	fmt.Printf("Candidates: %d\n\n", len(candidates))

	matches := matching.Rank(source, candidates)
	if len(matches) == 0 {
		fmt.Println("No compatible newsletters found")
		return
	}

	sourceProfile := analysis.Analyze(source)
	for i, m := range matches {
		fmt.Printf("%d. %s (user %s) compatibility %.3f\n", i+1, m.Newsletter.ID, m.Newsletter.UserID, m.Compatibility)
		for _, reason := range m.Reasons {
			fmt.Printf("   - %s\n", reason)
		}
		if *explain {
			b := matching.Explain(sourceProfile, m.Analysis)
			fmt.Printf("   categories %.3f | keywords %.3f | engagement %.3f | audience %.3f | style %.3f\n",
				b.CategoryOverlap, b.KeywordSimilarity, b.Engagement, b.AudienceSize, b.Style)
		}
	}

	settings := models.DefaultMatchingSettings()
	settings.MaxCampaigns = *maxCampaigns
	settings.MinCompatibilityScore = *minScore
	settings.AutoApprove = *autoApprove
	if err := settings.Validate(); err != nil {
		log.Fatalf("Invalid settings: %v", err)
	}

	created, err := campaigns.NewSynthesizer(st, time.Second).Synthesize(ctx, source, matches, settings)
	if err != nil {
		log.Printf("Some campaigns failed: %v", err)
	}

	fmt.Printf("\nCampaigns (%d):\n", len(created))
	for _, c := range created {
		fmt.Printf("   %s -> %s  %s  reach %d  revenue $%.2f  %d days\n",
			c.SourceNewsletterID, c.TargetNewsletterID, c.Status, c.EstimatedReach, c.EstimatedRevenue, c.DurationDays)
	}
}
