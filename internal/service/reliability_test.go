package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mhp-content/internal/logger"
	"mhp-content/internal/model"
	"mhp-content/internal/reliability"
	"mhp-content/internal/store/storetest"
)

const strongAssessment = `{
  "effectSize": {"assessment": "large", "reasoning": "d = 0.8"},
  "studyQuality": {"assessment": "metaAnalysis"},
  "replication": {"assessment": "highlyConsistent"},
  "sampleSize": {"assessment": "large"},
  "confidence": "high"
}`

func TestReliabilityService_ScoreAll(t *testing.T) {
	ctx := context.Background()

	t.Run("Should score only scored categories and summarize them", func(t *testing.T) {
		s := storetest.SQLite(t)
		intervention := storedArticle("Exercise Therapy", model.CategoryInterventions)
		risk := storedArticle("Social Isolation", model.CategoryRiskFactors)
		other := storedArticle("Memory", model.CategoryPsychology)
		for _, a := range []*model.Article{intervention, risk, other} {
			require.NoError(t, s.Insert(ctx, a))
		}

		llm := &fakeLLM{responses: []string{strongAssessment}}
		svc := NewReliabilityService(s, llm, 0, logger.Nop())
		run, err := svc.ScoreAll(ctx, nil)
		require.NoError(t, err)

		assert.Equal(t, 2, run.Report.Total)
		assert.Equal(t, 2, run.Report.Succeeded)
		require.Len(t, run.Results, 2)
		assert.Len(t, run.Summary, 2)

		got, err := s.Get(ctx, intervention.ID)
		require.NoError(t, err)
		score, _ := got.ReliabilityScore()
		assert.Equal(t, 1.0, score)
		assert.Equal(t, "Text for overview.", got.Block("overview"))

		require.Len(t, llm.calls, 2)
		call := llm.calls[0]
		assert.Equal(t, reliability.SystemPrompt, call.System)
		assert.Contains(t, call.User, "Text for evidence_summary.")
		require.NotNil(t, call.Req.Temperature)
		assert.InDelta(t, reliability.Temperature, *call.Req.Temperature, 1e-9)
		assert.Equal(t, reliability.MaxTokens, call.Req.MaxTokens)
	})

	t.Run("Should not overwrite an existing score with the fallback", func(t *testing.T) {
		s := storetest.SQLite(t)
		a := storedArticle("Meditation", model.CategoryInterventions)
		require.NoError(t, s.Insert(ctx, a))

		svc := NewReliabilityService(s, &fakeLLM{err: errors.New("network down")}, 0, logger.Nop())
		run, err := svc.ScoreAll(ctx, []model.Category{model.CategoryInterventions})
		require.NoError(t, err)
		assert.Equal(t, 1, run.Report.Skipped)
		require.Len(t, run.Results, 1)
		assert.True(t, run.Results[0].Fallback)
		assert.Equal(t, 0.8, run.Results[0].ReliabilityScore)

		got, err := s.Get(ctx, a.ID)
		require.NoError(t, err)
		score, _ := got.ReliabilityScore()
		assert.Equal(t, 0.8, score)
	})

	t.Run("Should write the fallback when no score exists", func(t *testing.T) {
		s := storetest.SQLite(t)
		a := storedArticle("Poor Nutrition", model.CategoryRiskFactors)
		delete(a.ContentBlocks, model.ReliabilityScoreKey)
		require.NoError(t, s.Insert(ctx, a))

		svc := NewReliabilityService(s, &fakeLLM{responses: []string{"I think it is fairly reliable."}}, 0, logger.Nop())
		run, err := svc.ScoreAll(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, run.Report.Succeeded)
		assert.True(t, run.Results[0].Fallback)

		got, err := s.Get(ctx, a.ID)
		require.NoError(t, err)
		score, ok := got.ReliabilityScore()
		assert.True(t, ok)
		assert.Equal(t, reliability.FallbackScore, score)
	})

	t.Run("Should use the fallback without asking when evidence is missing", func(t *testing.T) {
		s := storetest.SQLite(t)
		a := storedArticle("Urban Living", model.CategoryRiskFactors)
		delete(a.ContentBlocks, "evidence_summary")
		delete(a.ContentBlocks, model.ReliabilityScoreKey)
		require.NoError(t, s.Insert(ctx, a))

		llm := &fakeLLM{responses: []string{strongAssessment}}
		svc := NewReliabilityService(s, llm, 0, logger.Nop())
		run, err := svc.ScoreAll(ctx, nil)
		require.NoError(t, err)
		assert.Zero(t, llm.callCount())
		assert.Equal(t, reliability.FallbackScore, run.Results[0].ReliabilityScore)
	})
}

func TestWriteResults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reliability-analysis-results.json")
	run := &ReliabilityRun{
		Report:  &Report{Total: 1, Succeeded: 1},
		Results: []reliability.Result{{Title: "T", Slug: "t", Category: model.CategoryInterventions, ReliabilityScore: 0.73}},
	}
	run.Summary = reliability.Summarize(run.Results)
	require.NoError(t, WriteResults(path, run))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"reliability_score": 0.73`)
	assert.Contains(t, string(data), `"average": 0.73`)
}
