package matching

import (
	"math"

	"github.com/newsletterhub/crosspromo/internal/analysis"
	"github.com/newsletterhub/crosspromo/internal/models"
)

const (
	categoryWeight   = 0.40
	keywordWeight    = 0.30
	engagementWeight = 0.15
	audienceWeight   = 0.10
	styleWeight      = 0.05
)

// Breakdown holds the individual factors behind a compatibility score
type Breakdown struct {
	CategoryOverlap   float64 `json:"category_overlap"`
	KeywordSimilarity float64 `json:"keyword_similarity"`
	Engagement        float64 `json:"engagement"`
	AudienceSize      float64 `json:"audience_size"`
	Style             float64 `json:"style"`
}

// Total combines the factors with their weights
func (b Breakdown) Total() float64 {
	total := b.CategoryOverlap*categoryWeight +
		b.KeywordSimilarity*keywordWeight +
		b.Engagement*engagementWeight +
		b.AudienceSize*audienceWeight +
		b.Style*styleWeight
	return analysis.Clamp01(total)
}

// Score returns the compatibility of two profiles in [0,1]. Score(a, b) == Score(b, a).
func Score(a, b models.NewsletterProfile) float64 {
	return Explain(a, b).Total()
}

// Explain computes every factor of the compatibility score
func Explain(a, b models.NewsletterProfile) Breakdown {
	return Breakdown{
		CategoryOverlap:   jaccard(a.Categories, b.Categories),
		KeywordSimilarity: jaccard(a.Keywords, b.Keywords),
		Engagement:        engagementCompatibility(a.EngagementMetrics, b.EngagementMetrics),
		AudienceSize:      audienceCompatibility(a.AudienceProfile.Size, b.AudienceProfile.Size),
		Style:             styleCompatibility(a.ContentStyle, b.ContentStyle),
	}
}

// jaccard is |A∩B| / |A∪B| over the distinct values, 0 when either side is empty
func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setA := toSet(a)
	setB := toSet(b)

	intersection := 0
	for v := range setA {
		if setB[v] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func engagementCompatibility(a, b models.EngagementMetrics) float64 {
	openSimilarity := 1 - math.Abs(a.OpenRate-b.OpenRate)
	clickSimilarity := 1 - math.Abs(a.ClickRate-b.ClickRate)
	return (openSimilarity + clickSimilarity) / 2
}

func audienceCompatibility(a, b int) float64 {
	ratio := sizeRatio(a, b)
	if ratio < 0.1 {
		return ratio * 5
	}
	if ratio > 0.9 {
		return 0.9
	}
	return ratio
}

func styleCompatibility(a, b string) float64 {
	if a == b {
		return 1.0
	}
	return 0.5
}

// sizeRatio is min/max of two audience sizes, 0 when either is empty
func sizeRatio(a, b int) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	small, large := a, b
	if small > large {
		small, large = large, small
	}
	return float64(small) / float64(large)
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

func intersect(a, b []string) []string {
	setB := toSet(b)
	var shared []string
	for _, v := range a {
		if setB[v] {
			shared = append(shared, v)
		}
	}
	return shared
}
