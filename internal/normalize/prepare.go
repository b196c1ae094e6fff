package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"

	"mhp-content/internal/model"
	"mhp-content/internal/schema"
)

// ErrMalformedArticle marks input that cannot be shaped into an article at all.
var ErrMalformedArticle = errors.New("malformed article")

// Prepare runs the full normalization pipeline and decodes the result into an article:
// field names, legacy consolidation, default reliability score, base field defaults, nesting.
// It does not validate; pass the result to schema.Validate.
func Prepare(raw Raw) (*model.Article, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: empty object", ErrMalformedArticle)
	}
	r, err := Canonical(raw)
	if err != nil {
		return nil, err
	}
	return Decode(r)
}

// Canonical returns the normalized, nested map form of raw.
func Canonical(raw Raw) (Raw, error) {
	r := NormalizeFieldNames(raw)

	if err := decodeBlocks(r); err != nil {
		return nil, err
	}

	category := model.Category(strings.TrimSpace(stringOf(r["category"])))
	if category != "" {
		r["category"] = string(category)
	}

	r, _ = InjectDefaultReliabilityScore(r, category)
	coerceScore(r)

	r["tags"] = NormalizeTags(r["tags"])
	if slug := strings.TrimSpace(stringOf(r["slug"])); slug == "" {
		r["slug"] = schema.Slugify(stringOf(r["title"]))
	}
	if status := strings.TrimSpace(stringOf(r["status"])); status == "" {
		r["status"] = string(model.StatusDraft)
	}
	if id, ok := r["id"].(string); ok && strings.TrimSpace(id) == "" {
		delete(r, "id")
	}

	// legacy keys may sit at either level; consolidate once over the nested union
	r = NestContentBlocks(JoinOverlaps(r, consolidatedKeys))
	blocks, _ := asMap(r["content_blocks"])
	merged, _ := ConsolidateLegacyFields(Raw(blocks), category)
	r["content_blocks"] = map[string]any(merged)
	return r, nil
}

// Decode converts a canonical map into an article.
func Decode(r Raw) (*model.Article, error) {
	var a model.Article
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &a,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.TextUnmarshallerHookFunc(),
		),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(map[string]any(r)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedArticle, err)
	}
	return &a, nil
}

// NormalizeTags accepts a sequence or a comma-separated string; anything else yields an empty list.
func NormalizeTags(v any) []string {
	tags := []string{}
	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			tags = append(tags, s)
		}
	}
	switch t := v.(type) {
	case string:
		for _, part := range strings.Split(t, ",") {
			add(part)
		}
	case []string:
		for _, s := range t {
			add(s)
		}
	case []any:
		for _, e := range t {
			if s, ok := e.(string); ok {
				add(s)
			}
		}
	}
	return tags
}

// decodeBlocks accepts content_blocks as a mapping or a JSON-encoded mapping.
func decodeBlocks(r Raw) error {
	v, ok := r["content_blocks"]
	if !ok || v == nil {
		delete(r, "content_blocks")
		return nil
	}
	if _, ok := asMap(v); ok {
		return nil
	}
	if s, ok := v.(string); ok {
		var m map[string]any
		if err := json.Unmarshal([]byte(s), &m); err == nil {
			r["content_blocks"] = map[string]any(NormalizeFieldNames(Raw(m)))
			return nil
		}
	}
	return fmt.Errorf("%w: content_blocks must be an object, got %T", ErrMalformedArticle, v)
}

// coerceScore turns a numeric-string reliability_score into a number.
func coerceScore(r Raw) {
	fix := func(m map[string]any) {
		if s, ok := m[model.ReliabilityScoreKey].(string); ok {
			if f, ok := model.ParseNumber(s); ok {
				m[model.ReliabilityScoreKey] = f
			}
		}
	}
	fix(r)
	if blocks, ok := asMap(r["content_blocks"]); ok {
		fix(blocks)
	}
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}
