package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mhp-content/config"
	"mhp-content/internal/logger"
	"mhp-content/internal/model"
	"mhp-content/internal/store"
	"mhp-content/internal/store/storetest"
)

var testEmbeddingsConfig = config.EmbeddingsConfig{
	BatchSize:  2,
	BatchDelay: time.Millisecond,
	Threshold:  0.7,
	MatchCount: 5,
}

func TestEmbeddingService_UpdateArticle(t *testing.T) {
	ctx := context.Background()

	t.Run("Should embed title, content blocks and summary", func(t *testing.T) {
		s := storetest.SQLite(t)
		a := storedArticle("Sleep Hygiene", model.CategoryLifestyleFactors)
		require.NoError(t, s.Insert(ctx, a))

		llm := &fakeLLM{}
		svc := NewEmbeddingService(s, llm, testEmbeddingsConfig, logger.Nop())
		require.NoError(t, svc.UpdateArticle(ctx, a, false))
		assert.Equal(t, 1, llm.embedCalls)

		got, err := s.Get(ctx, a.ID)
		require.NoError(t, err)
		assert.True(t, got.HasEmbeddings())
		assert.Equal(t, model.Vector{1, 0, 0}, got.TitleEmbedding)
	})

	t.Run("Should keep present embeddings when only missing ones are requested", func(t *testing.T) {
		s := storetest.SQLite(t)
		a := storedArticle("Sleep Hygiene", model.CategoryLifestyleFactors)
		a.TitleEmbedding = model.Vector{0, 0, 1}
		require.NoError(t, s.Insert(ctx, a))

		svc := NewEmbeddingService(s, &fakeLLM{}, testEmbeddingsConfig, logger.Nop())
		require.NoError(t, svc.UpdateArticle(ctx, a, true))

		got, err := s.Get(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, model.Vector{0, 0, 1}, got.TitleEmbedding)
		assert.NotEmpty(t, got.ContentEmbedding)
		assert.NotEmpty(t, got.SummaryEmbedding)
	})

	t.Run("Should embed content blocks as JSON", func(t *testing.T) {
		a := &model.Article{ContentBlocks: map[string]any{"b": "2", "a": "1"}}
		text, err := ContentText(a)
		require.NoError(t, err)
		assert.Equal(t, `{"a":"1","b":"2"}`, text)

		text, err = ContentText(&model.Article{})
		require.NoError(t, err)
		assert.Equal(t, `{}`, text)
	})
}

func TestEmbeddingService_Backfill(t *testing.T) {
	ctx := context.Background()

	t.Run("Should fill every article missing embeddings and record failures", func(t *testing.T) {
		s := storetest.SQLite(t)
		titles := []string{"Sleep Hygiene", "Exercise", "Diet", "Quota Breaker", "Alcohol"}
		for _, title := range titles {
			require.NoError(t, s.Insert(ctx, storedArticle(title, model.CategoryLifestyleFactors)))
		}
		done := storedArticle("Already Done", model.CategoryLifestyleFactors)
		done.TitleEmbedding = model.Vector{1}
		done.ContentEmbedding = model.Vector{1}
		done.SummaryEmbedding = model.Vector{1}
		require.NoError(t, s.Insert(ctx, done))

		svc := NewEmbeddingService(s, &fakeLLM{failEmbed: "Quota Breaker"}, testEmbeddingsConfig, logger.Nop())
		report, err := svc.Backfill(ctx)
		require.NoError(t, err)
		assert.Equal(t, 5, report.Total)
		assert.Equal(t, 4, report.Succeeded)
		require.Equal(t, 1, report.Failed())
		assert.Equal(t, "quota-breaker", report.Failures[0].Item)

		missing, err := s.Count(ctx, store.Filter{MissingEmbeddings: true})
		require.NoError(t, err)
		assert.EqualValues(t, 1, missing)
	})

	t.Run("Should not reselect an article whose summary is empty", func(t *testing.T) {
		s := storetest.SQLite(t)
		a := storedArticle("Caffeine", model.CategoryLifestyleFactors)
		a.Summary = ""
		require.NoError(t, s.Insert(ctx, a))

		llm := &fakeLLM{}
		svc := NewEmbeddingService(s, llm, testEmbeddingsConfig, logger.Nop())
		first, err := svc.Backfill(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, first.Total)
		assert.Equal(t, 1, first.Succeeded)

		got, err := s.Get(ctx, a.ID)
		require.NoError(t, err)
		assert.NotEmpty(t, got.TitleEmbedding)
		assert.NotEmpty(t, got.ContentEmbedding)
		assert.Empty(t, got.SummaryEmbedding)

		second, err := svc.Backfill(ctx)
		require.NoError(t, err)
		assert.Zero(t, second.Total)
		assert.Zero(t, second.Succeeded)
		assert.Equal(t, 1, llm.embedCalls)
	})

	t.Run("Should do nothing when every article is embedded", func(t *testing.T) {
		llm := &fakeLLM{}
		svc := NewEmbeddingService(storetest.SQLite(t), llm, testEmbeddingsConfig, logger.Nop())
		report, err := svc.Backfill(ctx)
		require.NoError(t, err)
		assert.Zero(t, report.Total)
		assert.Zero(t, llm.embedCalls)
	})
}

func TestEmbeddingService_Search(t *testing.T) {
	ctx := context.Background()
	s := storetest.SQLite(t)
	llm := &fakeLLM{}
	svc := NewEmbeddingService(s, llm, testEmbeddingsConfig, logger.Nop())

	for _, title := range []string{"Sleep Hygiene", "Exercise"} {
		a := storedArticle(title, model.CategoryLifestyleFactors)
		require.NoError(t, s.Insert(ctx, a))
		require.NoError(t, svc.UpdateArticle(ctx, a, false))
	}

	t.Run("Should rank articles by similarity to the query", func(t *testing.T) {
		matches, err := svc.Search(ctx, "better sleep", 0, 0)
		require.NoError(t, err)
		require.NotEmpty(t, matches)
		assert.Equal(t, "sleep-hygiene", matches[0].Article.Slug)
		assert.InDelta(t, 1.0, matches[0].Similarity, 1e-6)
	})

	t.Run("Should respect the limit", func(t *testing.T) {
		matches, err := svc.Search(ctx, "anything", 0.5, 1)
		require.NoError(t, err)
		assert.Len(t, matches, 1)
	})

	t.Run("Should reject an empty query", func(t *testing.T) {
		_, err := svc.Search(ctx, "  ", 0, 0)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})

	t.Run("Should pass embedding errors through", func(t *testing.T) {
		failing := NewEmbeddingService(s, &fakeLLM{embedErr: errors.New("boom")}, testEmbeddingsConfig, logger.Nop())
		_, err := failing.Search(ctx, "sleep", 0, 0)
		assert.Error(t, err)
	})
}
