package normalize

import (
	"strings"

	"mhp-content/internal/model"
)

// legacy evidence keys in merge order
var evidenceKeys = []string{"key_evidence", "effectiveness", "evidence_base"}

// LegacyKeys are superseded field names removed by ConsolidateLegacyFields.
var LegacyKeys = append(append([]string{}, evidenceKeys...), "practical_takeaways")

// consolidatedKeys are read and written by ConsolidateLegacyFields.
var consolidatedKeys = append(append([]string{}, LegacyKeys...), evidenceSummaryKey, practicalApplicationsKey)

const (
	evidenceSummaryKey       = "evidence_summary"
	practicalTakeawaysKey    = "practical_takeaways"
	practicalApplicationsKey = "practical_applications"

	DefaultReliabilityScore = 0.5
)

// KeepsTakeaways reports whether practical_takeaways is a canonical field for the category.
func KeepsTakeaways(c model.Category) bool {
	return c == model.CategoryRiskFactors || c == model.CategoryNeurodiversity
}

// ConsolidateLegacyFields merges legacy evidence keys into evidence_summary and, outside
// risk_factors and neurodiversity, practical_takeaways into practical_applications.
// Merged legacy keys are removed, so a second run is a no-op. The bool reports a change.
func ConsolidateLegacyFields(raw Raw, category model.Category) (Raw, bool) {
	out := clone(raw)
	changed := false

	if hasAny(out, evidenceKeys) {
		parts := collect(out, evidenceKeys...)
		parts = append(parts, collect(out, evidenceSummaryKey)...)
		for _, k := range evidenceKeys {
			delete(out, k)
		}
		out[evidenceSummaryKey] = strings.TrimSpace(strings.Join(parts, " "))
		changed = true
	}

	if _, ok := out[practicalTakeawaysKey]; ok && !KeepsTakeaways(category) {
		parts := collect(out, practicalTakeawaysKey, practicalApplicationsKey)
		delete(out, practicalTakeawaysKey)
		out[practicalApplicationsKey] = strings.TrimSpace(strings.Join(parts, " "))
		changed = true
	}

	return out, changed
}

// InjectDefaultReliabilityScore sets reliability_score to 0.5 for interventions and lifestyle_factors
// articles that have none, whether the score sits at the top level or inside content_blocks.
func InjectDefaultReliabilityScore(raw Raw, category model.Category) (Raw, bool) {
	if category != model.CategoryInterventions && category != model.CategoryLifestyleFactors {
		return raw, false
	}
	if present(raw, model.ReliabilityScoreKey) {
		return raw, false
	}
	if blocks, ok := asMap(raw["content_blocks"]); ok && present(blocks, model.ReliabilityScoreKey) {
		return raw, false
	}
	out := clone(raw)
	out[model.ReliabilityScoreKey] = DefaultReliabilityScore
	return out, true
}

func present(m map[string]any, key string) bool {
	v, ok := m[key]
	return ok && v != nil
}

func hasAny(m Raw, keys []string) bool {
	for _, k := range keys {
		if _, ok := m[k]; ok {
			return true
		}
	}
	return false
}

// collect returns the trimmed, non-empty text values of keys in order.
func collect(m Raw, keys ...string) []string {
	var parts []string
	for _, k := range keys {
		s := textOf(m[k])
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

func textOf(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if s, ok := JoinParagraph(v); ok {
		return s
	}
	return ""
}

func clone(raw Raw) Raw {
	out := make(Raw, len(raw))
	for k, v := range raw {
		out[k] = v
	}
	return out
}
