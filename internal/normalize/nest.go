package normalize

import "strings"

// TopLevelFields stay outside content_blocks.
var TopLevelFields = []string{"title", "slug", "summary", "category", "status", "tags"}

// record fields are part of the stored row, never content
var recordFields = []string{
	"id", "faqs", "created_at", "updated_at",
	"title_embedding", "content_embedding", "summary_embedding",
}

var keepTopLevel = func() map[string]bool {
	m := make(map[string]bool)
	for _, k := range TopLevelFields {
		m[k] = true
	}
	for _, k := range recordFields {
		m[k] = true
	}
	return m
}()

// NestContentBlocks moves every key that is not a top-level or record field into content_blocks.
// Values already inside an existing content_blocks mapping win over swept top-level values.
func NestContentBlocks(raw Raw) Raw {
	out := make(Raw, len(keepTopLevel)+1)
	blocks := make(map[string]any)

	for k, v := range raw {
		switch {
		case k == "content_blocks":
		case keepTopLevel[k]:
			out[k] = v
		default:
			blocks[k] = v
		}
	}
	if existing, ok := asMap(raw["content_blocks"]); ok {
		for k, v := range existing {
			blocks[k] = v
		}
	}
	out["content_blocks"] = blocks
	return out
}

// JoinOverlaps joins the text of keys present both at the top level and inside content_blocks
// into the nested value, top-level text first, so NestContentBlocks drops neither.
// Identical or non-text values are left for NestContentBlocks to resolve.
func JoinOverlaps(raw Raw, keys []string) Raw {
	existing, ok := asMap(raw["content_blocks"])
	if !ok {
		return raw
	}
	var blocks map[string]any
	for _, k := range keys {
		top, nested := strings.TrimSpace(textOf(raw[k])), strings.TrimSpace(textOf(existing[k]))
		if top == "" || nested == "" || top == nested {
			continue
		}
		if blocks == nil {
			blocks = make(map[string]any, len(existing))
			for bk, bv := range existing {
				blocks[bk] = bv
			}
		}
		blocks[k] = top + " " + nested
	}
	if blocks == nil {
		return raw
	}
	out := clone(raw)
	out["content_blocks"] = blocks
	return out
}
