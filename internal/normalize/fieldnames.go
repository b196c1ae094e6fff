package normalize

import (
	"sort"
	"strings"
	"unicode"
)

// Raw is a loosely shaped article as decoded from JSON.
type Raw map[string]any

// keys whose sequence values are structured, not prose
var structuredKeys = map[string]bool{
	"tags":              true,
	"faqs":              true,
	"content_blocks":    true,
	"title_embedding":   true,
	"content_embedding": true,
	"summary_embedding": true,
}

// NormalizeFieldNames renames camelCase keys to snake_case and joins text sequences into one paragraph.
// When both spellings are present the camelCase value wins. Nested content_blocks keys get the same treatment.
func NormalizeFieldNames(raw Raw) Raw {
	out := make(Raw, len(raw))
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	// snake_case keys first so a camelCase duplicate overwrites them
	sort.SliceStable(keys, func(i, j int) bool {
		si, sj := SnakeCase(keys[i]) == keys[i], SnakeCase(keys[j]) == keys[j]
		if si != sj {
			return si
		}
		return keys[i] < keys[j]
	})

	for _, k := range keys {
		name := SnakeCase(k)
		v := raw[k]
		switch {
		case name == "content_blocks":
			if m, ok := asMap(v); ok {
				v = map[string]any(NormalizeFieldNames(Raw(m)))
			}
		case !structuredKeys[name]:
			if text, ok := JoinParagraph(v); ok {
				v = text
			}
		}
		out[name] = v
	}
	return out
}

// JoinParagraph joins a non-empty sequence of text with ". " and appends a trailing period.
func JoinParagraph(v any) (string, bool) {
	var parts []string
	switch t := v.(type) {
	case []string:
		parts = t
	case []any:
		parts = make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return "", false
			}
			parts = append(parts, s)
		}
	default:
		return "", false
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, ". ") + ".", true
}

// SnakeCase converts camelCase and PascalCase identifiers to snake_case; snake_case input is unchanged.
func SnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Raw:
		return m, true
	}
	return nil, false
}
