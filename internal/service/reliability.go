package service

import (
	"context"
	"errors"
	"time"

	"mhp-content/internal/articlefile"
	"mhp-content/internal/logger"
	"mhp-content/internal/model"
	"mhp-content/internal/normalize"
	"mhp-content/internal/reliability"
	"mhp-content/internal/store"
)

var errNoEvidence = errors.New("article has no evidence_summary")

// ReliabilityService scores stored articles from their evidence summaries.
type ReliabilityService struct {
	store store.ArticleStore
	llm   TextGenerator
	delay time.Duration
	log   *logger.Logger
}

// ReliabilityRun is the outcome of a scoring pass.
type ReliabilityRun struct {
	Report  *Report                       `json:"report"`
	Results []reliability.Result          `json:"results"`
	Summary []reliability.CategorySummary `json:"summary"`
}

func NewReliabilityService(s store.ArticleStore, llm TextGenerator, delay time.Duration, log *logger.Logger) *ReliabilityService {
	return &ReliabilityService{store: s, llm: llm, delay: delay, log: log.With("service", "ReliabilityService")}
}

// Assess asks the text generator for a structured assessment of the evidence summary.
func (s *ReliabilityService) Assess(ctx context.Context, title, evidence string) (*reliability.Assessment, error) {
	if evidence == "" {
		return nil, errNoEvidence
	}
	text, err := s.llm.Complete(ctx, reliability.SystemPrompt, reliability.Prompt(title, evidence),
		WithJSONResponse(),
		WithTemperature(reliability.Temperature),
		WithMaxTokens(reliability.MaxTokens),
	)
	if err != nil {
		return nil, err
	}
	return reliability.ParseAssessment(text)
}

// ScoreArticle computes and stores the article's reliability score.
// When no assessment can be produced the fallback score is written only if the
// article has no score yet; the returned bool reports whether anything was written.
func (s *ReliabilityService) ScoreArticle(ctx context.Context, a *model.Article) (reliability.Result, bool, error) {
	assessment, err := s.Assess(ctx, a.Title, a.Block("evidence_summary"))
	if err != nil {
		if ctx.Err() != nil {
			return reliability.Result{}, false, ctx.Err()
		}
		s.log.Warn("assessment unavailable, using fallback", "slug", a.Slug, "error", err)
		assessment = nil
	}
	score := reliability.Evaluate(assessment)

	result := reliability.Result{
		Title:            a.Title,
		Slug:             a.Slug,
		Category:         a.Category,
		ReliabilityScore: score.Value,
		Fallback:         score.Fallback(),
		Analysis:         assessment,
	}

	if score.Fallback() {
		if existing, ok := a.ReliabilityScore(); ok {
			result.ReliabilityScore = existing
			return result, false, nil
		}
	}

	blocks := normalize.Raw{}
	for k, v := range a.ContentBlocks {
		blocks[k] = v
	}
	blocks[model.ReliabilityScoreKey] = score.Value
	if err := s.store.Update(ctx, a.ID, store.Patch{ContentBlocks: blocks}); err != nil {
		return result, false, err
	}
	a.ContentBlocks = map[string]any(blocks)
	return result, true, nil
}

// ScoreAll scores every article in categories (all scored categories when empty),
// waiting between articles. A failed article does not stop the run.
func (s *ReliabilityService) ScoreAll(ctx context.Context, categories []model.Category) (*ReliabilityRun, error) {
	if len(categories) == 0 {
		categories = model.ScoredCategories
	}
	articles, err := s.store.List(ctx, store.Filter{Categories: categories})
	if err != nil {
		return nil, err
	}

	run := &ReliabilityRun{Report: &Report{Total: len(articles)}}
	for i := range articles {
		a := &articles[i]
		if i > 0 {
			if err := sleep(ctx, s.delay); err != nil {
				return run, err
			}
		}

		result, written, err := s.ScoreArticle(ctx, a)
		if err != nil {
			if ctx.Err() != nil {
				return run, ctx.Err()
			}
			s.log.Error("reliability update failed", "slug", a.Slug, "error", err)
			run.Report.fail(a.Slug, "score", err)
			continue
		}
		run.Results = append(run.Results, result)
		if written {
			s.log.Info("reliability score updated", "slug", a.Slug, "score", result.ReliabilityScore, "fallback", result.Fallback)
			run.Report.Succeeded++
		} else {
			run.Report.Skipped++
		}
	}
	run.Summary = reliability.Summarize(run.Results)
	return run, nil
}

// WriteResults saves a run's per-article results and summary as JSON.
func WriteResults(path string, run *ReliabilityRun) error {
	return articlefile.WriteJSON(path, run)
}
