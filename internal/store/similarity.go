package store

import (
	"math"
	"sort"

	"mhp-content/internal/model"
)

// CosineSimilarity returns 0 for vectors of different length or zero magnitude.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// BestSimilarity is the highest similarity between query and any of the article's embeddings.
func BestSimilarity(a *model.Article, query []float32) float64 {
	best := math.Inf(-1)
	for _, v := range []model.Vector{a.TitleEmbedding, a.ContentEmbedding, a.SummaryEmbedding} {
		if len(v) == 0 {
			continue
		}
		if s := CosineSimilarity(v, query); s > best {
			best = s
		}
	}
	if math.IsInf(best, -1) {
		return 0
	}
	return best
}

func rank(articles []model.Article, query []float32, threshold float64, limit int) []Match {
	var out []Match
	for i := range articles {
		s := BestSimilarity(&articles[i], query)
		if s < threshold {
			continue
		}
		a := articles[i]
		out = append(out, Match{Article: a, Similarity: s})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
