package analysis

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/newsletterhub/crosspromo/internal/models"
)

const (
	maxKeywords   = 20
	maxCategories = 3
	minWordLength = 4
)

var nonWord = regexp.MustCompile(`[^a-z0-9_]+`)

// Clamp01 bounds x to [0,1]
func Clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

// Analyze derives the profile used for matching. The record is not modified.
func Analyze(n models.NewsletterRecord) models.NewsletterProfile {
	return models.NewsletterProfile{
		ID:         n.ID,
		UserID:     n.UserID,
		Keywords:   ExtractKeywords(n.Content + " " + n.Subject),
		Categories: Categorize(n.Content),
		EngagementMetrics: models.EngagementMetrics{
			OpenRate:        n.OpenRate,
			ClickRate:       n.ClickRate,
			SubscriberCount: n.SubscriberCount,
			EngagementScore: EngagementScore(n),
		},
		AudienceProfile: models.AudienceProfile{
			Size:         n.SubscriberCount,
			Quality:      AudienceQuality(n),
			Demographics: copyDemographics(n.Demographics),
		},
		ContentStyle:        DetectStyle(n.Content),
		PublishingFrequency: n.PublishingFrequency,
	}
}

// ExtractKeywords returns up to 20 words ordered by frequency, first occurrence breaking ties
func ExtractKeywords(text string) []string {
	words := strings.Fields(nonWord.ReplaceAllString(strings.ToLower(text), " "))

	counts := make(map[string]int)
	order := make([]string, 0)
	for _, word := range words {
		if len(word) < minWordLength || stopWords[word] {
			continue
		}
		if _, seen := counts[word]; !seen {
			order = append(order, word)
		}
		counts[word]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}
	return order
}

// Categorize returns up to three taxonomy labels ranked by relevance
func Categorize(content string) []string {
	text := strings.ToLower(content)

	type scored struct {
		name      string
		relevance float64
	}

	var matched []scored
	for _, c := range categoryTaxonomy {
		hits := 0
		for _, keyword := range c.Keywords {
			if strings.Contains(text, keyword) {
				hits++
			}
		}
		if hits > 0 {
			matched = append(matched, scored{name: c.Name, relevance: float64(hits) / float64(len(c.Keywords))})
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].relevance > matched[j].relevance
	})

	categories := make([]string, 0, maxCategories)
	for i, m := range matched {
		if i >= maxCategories {
			break
		}
		categories = append(categories, m.name)
	}
	return categories
}

// EngagementScore blends open, click, growth and reply rates
func EngagementScore(n models.NewsletterRecord) float64 {
	score := n.OpenRate*0.4 + n.ClickRate*0.3 + n.SubscriberGrowth*0.2 + n.ReplyRate*0.1
	return Clamp01(score)
}

// AudienceQuality penalizes unsubscribes and spam complaints against engagement
func AudienceQuality(n models.NewsletterRecord) float64 {
	engagementRate := n.OpenRate * n.ClickRate
	quality := math.Max(0, engagementRate-n.UnsubscribeRate*2-n.SpamComplaintRate*5)
	return Clamp01(quality)
}

// DetectStyle picks the writing style with the highest indicator score
func DetectStyle(content string) string {
	text := strings.ToLower(content)

	best := styleTable[0].Style
	bestScore := -1.0
	for _, entry := range styleTable {
		score := 0.0
		for _, indicator := range entry.Indicators {
			if strings.Contains(text, indicator) {
				score += styleWeight
				break
			}
		}
		// strict comparison keeps the earlier style on ties
		if score > bestScore {
			best = entry.Style
			bestScore = score
		}
	}
	return best
}

func copyDemographics(src map[string]interface{}) map[string]interface{} {
	if src == nil {
		return nil
	}
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
