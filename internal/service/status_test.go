package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mhp-content/internal/logger"
	"mhp-content/internal/model"
	"mhp-content/internal/store"
	"mhp-content/internal/store/storetest"
)

func TestStatusService_GetSystemStatus(t *testing.T) {
	ctx := context.Background()
	s := storetest.SQLite(t)

	scored := storedArticle("Yoga", model.CategoryInterventions)
	unscored := storedArticle("Housing Instability", model.CategoryRiskFactors)
	delete(unscored.ContentBlocks, model.ReliabilityScoreKey)
	draft := storedArticle("Memory", model.CategoryPsychology)
	draft.Status = model.StatusDraft
	draft.TitleEmbedding = model.Vector{1}
	draft.ContentEmbedding = model.Vector{1}
	draft.SummaryEmbedding = model.Vector{1}
	for _, a := range []*model.Article{scored, unscored, draft} {
		require.NoError(t, s.Insert(ctx, a))
	}

	status, err := NewStatusService(s).GetSystemStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, status.TotalArticles)
	assert.EqualValues(t, 2, status.ByStatus[model.StatusPublished])
	assert.EqualValues(t, 1, status.ByStatus[model.StatusDraft])
	assert.EqualValues(t, 0, status.ByStatus[model.StatusArchived])
	assert.Equal(t, map[model.Category]int64{
		model.CategoryInterventions: 1,
		model.CategoryRiskFactors:   1,
		model.CategoryPsychology:    1,
	}, status.ByCategory)
	assert.EqualValues(t, 2, status.MissingEmbedding)
	assert.Equal(t, 1, status.MissingScore)
}

func TestVerifyService_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("Should pass every check and remove the test article", func(t *testing.T) {
		s := storetest.SQLite(t)
		embeddings := NewEmbeddingService(s, &fakeLLM{}, testEmbeddingsConfig, logger.Nop())
		checks, ok := NewVerifyService(s, embeddings, logger.Nop()).Run(ctx)
		assert.True(t, ok)
		require.Len(t, checks, 5)
		for _, c := range checks {
			assert.True(t, c.OK, c.Name)
		}

		n, err := s.Count(ctx, store.Filter{})
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("Should stop at a failing embedding check", func(t *testing.T) {
		s := storetest.SQLite(t)
		embeddings := NewEmbeddingService(s, &fakeLLM{failEmbed: "Test Article"}, testEmbeddingsConfig, logger.Nop())
		checks, ok := NewVerifyService(s, embeddings, logger.Nop()).Run(ctx)
		assert.False(t, ok)
		last := checks[len(checks)-1]
		assert.Equal(t, "embeddings", last.Name)
		assert.False(t, last.OK)

		_, err := s.GetBySlug(ctx, verifySlug)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}
