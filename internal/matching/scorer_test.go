package matching

import (
	"testing"

	"github.com/newsletterhub/crosspromo/internal/models"
	"github.com/stretchr/testify/assert"
)

func profile(categories, keywords []string, open, click float64, size int, style string) models.NewsletterProfile {
	return models.NewsletterProfile{
		Categories: categories,
		Keywords:   keywords,
		EngagementMetrics: models.EngagementMetrics{
			OpenRate:        open,
			ClickRate:       click,
			SubscriberCount: size,
		},
		AudienceProfile: models.AudienceProfile{Size: size},
		ContentStyle:    style,
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []string
		expected float64
	}{
		{name: "Identical", a: []string{"x", "y"}, b: []string{"y", "x"}, expected: 1},
		{name: "Disjoint", a: []string{"x"}, b: []string{"y"}, expected: 0},
		{name: "Partial", a: []string{"a", "b", "c"}, b: []string{"b", "c", "d"}, expected: 0.5},
		{name: "Duplicates collapse", a: []string{"a", "a", "b"}, b: []string{"a"}, expected: 0.5},
		{name: "Empty side", a: nil, b: []string{"a"}, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, jaccard(tt.a, tt.b), 1e-9)
		})
	}
}

func TestAudienceCompatibility(t *testing.T) {
	tests := []struct {
		name     string
		a, b     int
		expected float64
	}{
		{name: "Empty audience", a: 0, b: 100, expected: 0},
		{name: "Extreme mismatch is scaled", a: 100, b: 500000, expected: 0.001},
		{name: "Just under a tenth", a: 99, b: 1000, expected: 0.495},
		{name: "Middle ratio passes through", a: 500, b: 1000, expected: 0.5},
		{name: "Exactly 0.9 is kept", a: 900, b: 1000, expected: 0.9},
		{name: "Near duplicate capped", a: 1000, b: 1000, expected: 0.9},
		{name: "Order independent", a: 1000, b: 500, expected: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, audienceCompatibility(tt.a, tt.b), 1e-9)
		})
	}
}

func TestEngagementCompatibility(t *testing.T) {
	a := models.EngagementMetrics{OpenRate: 0.3, ClickRate: 0.05}
	b := models.EngagementMetrics{OpenRate: 0.32, ClickRate: 0.04}

	assert.InDelta(t, 0.985, engagementCompatibility(a, b), 1e-9)
}

func TestScore_SharedTechnologyNewsletters(t *testing.T) {
	a := profile(
		[]string{"technology"},
		[]string{"golang", "cloud", "kubernetes", "testing", "compilers", "tooling", "release", "observability"},
		0.3, 0.05, 5000, "technical",
	)
	b := profile(
		[]string{"technology"},
		[]string{"golang", "cloud", "kubernetes", "testing", "compilers", "tooling", "databases", "security"},
		0.32, 0.04, 6000, "technical",
	)

	breakdown := Explain(a, b)
	assert.InDelta(t, 1.0, breakdown.CategoryOverlap, 1e-9)
	assert.InDelta(t, 0.6, breakdown.KeywordSimilarity, 1e-9)
	assert.InDelta(t, 0.985, breakdown.Engagement, 1e-9)
	assert.InDelta(t, 5000.0/6000.0, breakdown.AudienceSize, 1e-9)
	assert.Equal(t, 1.0, breakdown.Style)

	score := Score(a, b)
	assert.Greater(t, score, 0.5)
	assert.InDelta(t, 0.4+0.18+0.15*0.985+0.1*5000.0/6000.0+0.05, score, 1e-9)
}

func TestScore_DisjointNewsletters(t *testing.T) {
	a := profile([]string{"technology"}, []string{"golang", "cloud"}, 0.3, 0.05, 100, "technical")
	b := profile([]string{"health"}, []string{"fitness", "nutrition"}, 0.3, 0.05, 500000, "casual")

	score := Score(a, b)

	assert.Less(t, score, MinCompatibility)
	assert.InDelta(t, 0.15+0.1*0.001+0.05*0.5, score, 1e-9)
}

func TestScore_BoundsAndSymmetry(t *testing.T) {
	profiles := []models.NewsletterProfile{
		profile(nil, nil, 0, 0, 0, "formal"),
		profile([]string{"technology"}, []string{"golang"}, 1, 1, 1, "technical"),
		profile([]string{"technology", "business"}, []string{"golang", "startup", "growth"}, 0.4, 0.1, 12000, "formal"),
		profile([]string{"finance"}, []string{"stocks", "growth"}, 0.2, 0.02, 150, "promotional"),
		profile([]string{"business", "finance", "news"}, []string{"stocks", "policy"}, 0.9, 0.6, 1000000, "formal"),
	}

	for i, a := range profiles {
		for j, b := range profiles {
			ab := Score(a, b)
			ba := Score(b, a)
			assert.GreaterOrEqual(t, ab, 0.0, "pair %d,%d", i, j)
			assert.LessOrEqual(t, ab, 1.0, "pair %d,%d", i, j)
			assert.Equal(t, ab, ba, "pair %d,%d", i, j)
		}
	}
}

func TestBreakdown_TotalClamps(t *testing.T) {
	b := Breakdown{CategoryOverlap: 1, KeywordSimilarity: 1, Engagement: 3, AudienceSize: 1, Style: 1}
	assert.Equal(t, 1.0, b.Total())

	b = Breakdown{Engagement: -10}
	assert.Equal(t, 0.0, b.Total())
}
