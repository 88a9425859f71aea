package analysis

// category pairs a taxonomy label with the phrases that indicate it
type category struct {
	Name     string
	Keywords []string
}

// Categories in declaration order. Order matters: equal relevance keeps this order.
var categoryTaxonomy = []category{
	{Name: "technology", Keywords: []string{
		"technology", "software", "programming", "developer", "coding",
		"artificial intelligence", "machine learning", "cloud", "cybersecurity", "gadget",
	}},
	{Name: "business", Keywords: []string{
		"business", "entrepreneur", "marketing", "startup", "strategy",
		"management", "leadership", "revenue", "customer", "growth",
	}},
	{Name: "health", Keywords: []string{
		"health", "fitness", "nutrition", "wellness", "medical",
		"exercise", "mental health", "diet", "sleep", "workout",
	}},
	{Name: "lifestyle", Keywords: []string{
		"lifestyle", "travel", "fashion", "food", "recipe",
		"family", "relationship", "hobby", "culture", "interior",
	}},
	{Name: "education", Keywords: []string{
		"education", "learning", "teaching", "school", "university",
		"course", "student", "knowledge", "study", "training",
	}},
	{Name: "news", Keywords: []string{
		"news", "politics", "current events", "breaking", "government",
		"election", "policy", "headline", "journalism", "report",
	}},
	{Name: "entertainment", Keywords: []string{
		"entertainment", "movie", "music", "gaming", "books",
		"television", "celebrity", "sports", "streaming", "comedy",
	}},
	{Name: "finance", Keywords: []string{
		"finance", "investing", "stocks", "cryptocurrency", "money",
		"trading", "economy", "banking", "budget", "personal finance",
	}},
}

// Content styles in declaration order; ties resolve to the earliest entry.
const (
	StyleFormal      = "formal"
	StyleCasual      = "casual"
	StyleTechnical   = "technical"
	StyleEducational = "educational"
	StylePromotional = "promotional"
)

type styleIndicators struct {
	Style      string
	Indicators []string
}

var styleTable = []styleIndicators{
	{Style: StyleFormal, Indicators: []string{"furthermore", "however", "therefore", "moreover"}},
	{Style: StyleCasual, Indicators: []string{"hey", "awesome", "cool", "!"}},
	{Style: StyleTechnical, Indicators: []string{"algorithm", "api", "framework", "methodology"}},
	{Style: StyleEducational, Indicators: []string{"learn", "understand", "tutorial", "guide"}},
	{Style: StylePromotional, Indicators: []string{"buy", "discount", "offer", "sale"}},
}

// styleWeight is added once per style whose indicator group matches
const styleWeight = 0.3

var stopWords = map[string]bool{
	"this": true, "that": true, "with": true, "have": true, "from": true,
	"they": true, "will": true, "been": true, "were": true, "said": true,
	"each": true, "which": true, "their": true, "what": true, "about": true,
	"would": true, "there": true, "could": true, "other": true, "more": true,
	"very": true, "your": true, "when": true, "them": true, "some": true,
	"than": true, "then": true, "into": true, "just": true, "like": true,
	"also": true, "only": true, "over": true, "such": true, "here": true,
	"most": true, "even": true, "make": true, "much": true, "these": true,
	"those": true, "because": true,
}

// CategoryNames lists the taxonomy labels in declaration order
func CategoryNames() []string {
	names := make([]string, 0, len(categoryTaxonomy))
	for _, c := range categoryTaxonomy {
		names = append(names, c.Name)
	}
	return names
}
