package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"mhp-content/internal/model"
)

func TestMongoFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   bson.M
	}{
		{
			name:   "Should select everything for a zero filter",
			filter: Filter{NewestFirst: true, Limit: 3, Offset: 1},
			want:   bson.M{},
		},
		{
			name: "Should match categories and status",
			filter: Filter{
				Categories: []model.Category{model.CategoryInterventions, model.CategoryRiskFactors},
				Status:     model.StatusPublished,
			},
			want: bson.M{
				"category": bson.M{"$in": []string{"interventions", "risk_factors"}},
				"status":   "published",
			},
		},
		{
			name:   "Should ignore the summary embedding of an empty summary",
			filter: Filter{MissingEmbeddings: true},
			want: bson.M{"$or": bson.A{
				bson.M{"title_embedding": nil},
				bson.M{"content_embedding": nil},
				bson.M{"summary_embedding": nil, "summary": bson.M{"$nin": bson.A{"", nil}}},
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mongoFilter(tt.filter))
		})
	}
}

func TestPatchFields(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	summary := "New summary."

	tests := []struct {
		name  string
		patch Patch
		want  bson.M
	}{
		{
			name:  "Should only touch updated_at for an empty patch",
			patch: Patch{},
			want:  bson.M{"updated_at": now},
		},
		{
			name: "Should set every given field",
			patch: Patch{
				Summary:          &summary,
				ContentBlocks:    map[string]any{"overview": "O"},
				TitleEmbedding:   model.Vector{1, 2},
				ContentEmbedding: model.Vector{3},
				SummaryEmbedding: model.Vector{4},
			},
			want: bson.M{
				"updated_at":        now,
				"summary":           "New summary.",
				"content_blocks":    map[string]any{"overview": "O"},
				"title_embedding":   []float32{1, 2},
				"content_embedding": []float32{3},
				"summary_embedding": []float32{4},
			},
		},
		{
			name:  "Should skip empty embeddings",
			patch: Patch{TitleEmbedding: model.Vector{}, SummaryEmbedding: model.Vector{5}},
			want:  bson.M{"updated_at": now, "summary_embedding": []float32{5}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, patchFields(tt.patch, now))
		})
	}
}

func TestPrepareForInsert(t *testing.T) {
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Should fill id, timestamps and status", func(t *testing.T) {
		a := &model.Article{Slug: "x"}
		prepareForInsert(a, now)
		assert.NotEqual(t, uuid.Nil, a.ID)
		assert.Equal(t, now, a.CreatedAt)
		assert.Equal(t, now, a.UpdatedAt)
		assert.Equal(t, model.StatusDraft, a.Status)
	})

	t.Run("Should keep given id, creation time and status", func(t *testing.T) {
		id := uuid.New()
		created := now.Add(-time.Hour)
		a := &model.Article{ID: id, CreatedAt: created, Status: model.StatusPublished}
		prepareForInsert(a, now)
		assert.Equal(t, id, a.ID)
		assert.Equal(t, created, a.CreatedAt)
		assert.Equal(t, now, a.UpdatedAt)
		assert.Equal(t, model.StatusPublished, a.Status)
	})
}

func TestMongoArticle(t *testing.T) {
	t.Run("Should store the id as a string and round trip", func(t *testing.T) {
		a := &model.Article{
			ID:               uuid.New(),
			Title:            "Sleep",
			Slug:             "sleep",
			Summary:          "S.",
			Category:         model.CategoryLifestyleFactors,
			Status:           model.StatusPublished,
			Tags:             []string{"rest"},
			ContentBlocks:    map[string]any{"overview": "O"},
			FAQs:             []model.FAQ{{Question: "Q?", Answer: "A."}},
			TitleEmbedding:   model.Vector{1, 0},
			ContentEmbedding: model.Vector{0, 1},
			CreatedAt:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		}
		doc := newMongoArticle(a)
		assert.Equal(t, a.ID.String(), doc.ID)
		assert.Equal(t, "lifestyle_factors", doc.Category)

		back := doc.article()
		assert.Equal(t, a.ID, back.ID)
		assert.Equal(t, a.Slug, back.Slug)
		assert.Equal(t, a.Category, back.Category)
		assert.Equal(t, []string{"rest"}, []string(back.Tags))
		assert.Equal(t, "O", back.Block("overview"))
		assert.Equal(t, a.FAQs, back.FAQs)
		assert.Equal(t, a.TitleEmbedding, back.TitleEmbedding)
		assert.Empty(t, back.SummaryEmbedding)
		assert.Equal(t, a.CreatedAt, back.CreatedAt)
	})

	t.Run("Should store nil tags and blocks as empty values", func(t *testing.T) {
		doc := newMongoArticle(&model.Article{ID: uuid.New(), Slug: "bare"})
		require.NotNil(t, doc.Tags)
		assert.Empty(t, doc.Tags)
		require.NotNil(t, doc.ContentBlocks)
		assert.Empty(t, doc.ContentBlocks)
	})

	t.Run("Should default the status of an insert", func(t *testing.T) {
		a := &model.Article{Slug: "draft"}
		prepareForInsert(a, time.Now())
		assert.Equal(t, "draft", newMongoArticle(a).Status)
	})

	t.Run("Should leave a non-uuid id as nil", func(t *testing.T) {
		assert.Equal(t, uuid.Nil, mongoArticle{ID: "legacy-object-id"}.article().ID)
	})
}
