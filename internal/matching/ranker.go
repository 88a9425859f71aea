package matching

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/newsletterhub/crosspromo/internal/analysis"
	"github.com/newsletterhub/crosspromo/internal/models"
)

// MinCompatibility is the score a candidate must exceed to be ranked
const MinCompatibility = 0.3

// Rank scores candidates against source and returns matches above the
// threshold, best first. Candidates owned by the source's user are skipped.
func Rank(source models.NewsletterRecord, candidates []models.NewsletterRecord) []models.Match {
	matches := make([]models.Match, 0)
	if len(candidates) == 0 {
		return matches
	}

	sourceProfile := analysis.Analyze(source)

	for _, candidate := range candidates {
		if candidate.UserID == source.UserID {
			continue
		}

		profile := analysis.Analyze(candidate)
		compatibility := Score(sourceProfile, profile)
		if compatibility <= MinCompatibility {
			continue
		}

		matches = append(matches, models.Match{
			Newsletter:    candidate,
			Analysis:      profile,
			Compatibility: compatibility,
			Reasons:       Reasons(sourceProfile, profile),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Compatibility > matches[j].Compatibility
	})

	return matches
}

// Reasons explains in plain words why two profiles fit together
func Reasons(source, candidate models.NewsletterProfile) []string {
	reasons := make([]string, 0, 4)

	if shared := intersect(source.Categories, candidate.Categories); len(shared) > 0 {
		reasons = append(reasons, fmt.Sprintf("Shared interests: %s", strings.Join(shared, ", ")))
	}

	ratio := sizeRatio(source.AudienceProfile.Size, candidate.AudienceProfile.Size)
	if ratio > 0.7 {
		reasons = append(reasons, "Similar audience sizes")
	} else if ratio > 0.3 {
		reasons = append(reasons, "Complementary audience sizes")
	}

	delta := math.Abs(source.EngagementMetrics.EngagementScore - candidate.EngagementMetrics.EngagementScore)
	if delta < 0.2 {
		reasons = append(reasons, "Similar engagement levels")
	}

	if source.ContentStyle == candidate.ContentStyle {
		reasons = append(reasons, fmt.Sprintf("Both use %s writing style", source.ContentStyle))
	}

	return reasons
}
