package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mhp-content/config"
	"mhp-content/internal/articlefile"
	"mhp-content/internal/logger"
	"mhp-content/internal/model"
	"mhp-content/internal/store/storetest"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Generation.ItemDelay = 0
	return cfg
}

func writeArticles(t *testing.T, docs ...model.Document) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "articles-data.json")
	require.NoError(t, articlefile.Write(path, docs))
	return path
}

func TestContentService_RegenerateSection(t *testing.T) {
	ctx := context.Background()
	first := storedArticle("Autism", model.CategoryNeurodiversity).Document()
	second := storedArticle("Chronic Stress", model.CategoryRiskFactors).Document()
	third := storedArticle("Memory", model.CategoryPsychology).Document()

	t.Run("Should rewrite a top-level section of the last articles", func(t *testing.T) {
		path := writeArticles(t, first, second, third)
		llm := &fakeLLM{responses: []string{"  A fresh summary.  "}}
		svc := NewContentService(llm, nil, testConfig(), logger.Nop())

		report, err := svc.RegenerateSection(ctx, path, "summary", 2, "gpt-4o-mini")
		require.NoError(t, err)
		assert.Equal(t, 2, report.Succeeded)

		items, err := articlefile.Read(path)
		require.NoError(t, err)
		assert.Equal(t, "Summary of Autism.", items[0]["summary"])
		assert.Equal(t, "A fresh summary.", items[1]["summary"])
		assert.Equal(t, "A fresh summary.", items[2]["summary"])

		require.Len(t, llm.calls, 2)
		assert.Equal(t, SummarySystemPrompt, llm.calls[0].System)
		assert.Contains(t, llm.calls[0].User, `"Chronic Stress" in the risk_factors category`)
		assert.Equal(t, "gpt-4o-mini", llm.calls[0].Req.Model)
	})

	t.Run("Should rewrite a content block and skip articles without it", func(t *testing.T) {
		path := writeArticles(t, first, second, third)
		llm := &fakeLLM{responses: []string{"New takeaways."}}
		svc := NewContentService(llm, nil, testConfig(), logger.Nop())

		report, err := svc.RegenerateSection(ctx, path, "practical_takeaways", 0, "")
		require.NoError(t, err)
		assert.Equal(t, 3, report.Total)
		assert.Equal(t, 1, report.Succeeded)
		assert.Equal(t, 2, report.Skipped)

		items, err := articlefile.Read(path)
		require.NoError(t, err)
		blocks := items[1]["content_blocks"].(map[string]any)
		assert.Equal(t, "New takeaways.", blocks["practical_takeaways"])
		assert.Equal(t, SectionSystemPrompt, llm.calls[0].System)
	})

	t.Run("Should prefer a configured prompt", func(t *testing.T) {
		path := writeArticles(t, third)
		cfg := testConfig()
		cfg.Prompts = map[string]string{"overview": "Describe {topic} for {category} readers."}
		llm := &fakeLLM{responses: []string{"Overview."}}
		svc := NewContentService(llm, nil, cfg, logger.Nop())

		_, err := svc.RegenerateSection(ctx, path, "overview", 1, "")
		require.NoError(t, err)
		assert.Equal(t, "Describe Memory for psychology readers.", llm.calls[0].User)
	})

	t.Run("Should reject a section without a template", func(t *testing.T) {
		svc := NewContentService(&fakeLLM{}, nil, testConfig(), logger.Nop())
		_, err := svc.RegenerateSection(ctx, "unused.json", "lived_experience", 1, "")
		assert.ErrorIs(t, err, ErrUnknownSection)
	})

	t.Run("Should keep going after a failed article", func(t *testing.T) {
		path := writeArticles(t, first, second)
		svc := NewContentService(&fakeLLM{err: errors.New("rate limited")}, nil, testConfig(), logger.Nop())
		report, err := svc.RegenerateSection(ctx, path, "overview", 0, "")
		require.NoError(t, err)
		assert.Equal(t, 2, report.Failed())
		items, err := articlefile.Read(path)
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})
}

func TestContentService_UpdateSummaries(t *testing.T) {
	ctx := context.Background()
	s := storetest.SQLite(t)
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	var stored []model.Article
	for i, title := range []string{"Oldest", "Middle", "Newest"} {
		a := storedArticle(title, model.CategoryMentalHealth)
		a.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, s.Insert(ctx, a))
		stored = append(stored, *a)
	}

	llm := &fakeLLM{responses: []string{"Regenerated summary."}}
	svc := NewContentService(llm, s, testConfig(), logger.Nop())
	report, err := svc.UpdateSummaries(ctx, 2, "")
	require.NoError(t, err)
	assert.Equal(t, 2, report.Succeeded)

	oldest, err := s.Get(ctx, stored[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Summary of Oldest.", oldest.Summary)
	newest, err := s.Get(ctx, stored[2].ID)
	require.NoError(t, err)
	assert.Equal(t, "Regenerated summary.", newest.Summary)
	assert.Contains(t, llm.calls[0].User, `"Newest"`)
}
