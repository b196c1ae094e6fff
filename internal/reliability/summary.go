package reliability

import (
	"sort"

	"mhp-content/internal/model"
)

// Result records the score written for one article.
type Result struct {
	Title            string         `json:"title"`
	Slug             string         `json:"slug"`
	Category         model.Category `json:"category"`
	ReliabilityScore float64        `json:"reliability_score"`
	Fallback         bool           `json:"fallback,omitempty"`
	Analysis         *Assessment    `json:"analysis,omitempty"`
}

type Extreme struct {
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// CategorySummary aggregates results for one category.
type CategorySummary struct {
	Category model.Category `json:"category"`
	Count    int            `json:"count"`
	Average  float64        `json:"average"`
	Highest  Extreme        `json:"highest"`
	Lowest   Extreme        `json:"lowest"`
}

// Summarize groups results by category in canonical category order.
func Summarize(results []Result) []CategorySummary {
	groups := make(map[model.Category][]Result)
	for _, r := range results {
		groups[r.Category] = append(groups[r.Category], r)
	}

	var out []CategorySummary
	for _, c := range model.Categories {
		rs := groups[c]
		if len(rs) == 0 {
			continue
		}
		sorted := append([]Result(nil), rs...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].ReliabilityScore > sorted[j].ReliabilityScore
		})
		var sum float64
		for _, r := range rs {
			sum += r.ReliabilityScore
		}
		hi, lo := sorted[0], sorted[len(sorted)-1]
		out = append(out, CategorySummary{
			Category: c,
			Count:    len(rs),
			Average:  round2(sum / float64(len(rs))),
			Highest:  Extreme{Title: hi.Title, Score: hi.ReliabilityScore},
			Lowest:   Extreme{Title: lo.Title, Score: lo.ReliabilityScore},
		})
	}
	return out
}
