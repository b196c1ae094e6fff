package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"mhp-content/internal/logger"
	"mhp-content/internal/model"
	"mhp-content/internal/normalize"
	"mhp-content/internal/schema"
)

// ErrMalformedResponse means the model did not return a JSON object.
var ErrMalformedResponse = errors.New("malformed LLM response")

type GeneratorService struct {
	llm   TextGenerator
	delay time.Duration
	log   *logger.Logger
}

// Sink receives each accepted article of a batch.
type Sink func(ctx context.Context, a *model.Article) error

func NewGeneratorService(llm TextGenerator, delay time.Duration, log *logger.Logger) *GeneratorService {
	return &GeneratorService{llm: llm, delay: delay, log: log.With("service", "GeneratorService")}
}

// Generate asks the model for one article and returns it normalized, validated and published.
// A model name of "" uses the configured default.
func (s *GeneratorService) Generate(ctx context.Context, topic string, category model.Category, modelName string) (*model.Article, error) {
	prompt, err := BuildGenerationPrompt(topic, category)
	if err != nil {
		return nil, err
	}

	s.log.Info("generating article", "topic", topic, "category", category)
	text, err := s.llm.Complete(ctx, GeneratorSystemPrompt, prompt, WithJSONResponse(), WithModel(modelName))
	if err != nil {
		return nil, fmt.Errorf("generate %q: %w", topic, err)
	}

	raw, err := ParseArticleJSON(text)
	if err != nil {
		return nil, fmt.Errorf("generate %q: %w", topic, err)
	}
	// the requested category is authoritative
	raw["category"] = string(category)

	article, err := normalize.Prepare(raw)
	if err != nil {
		return nil, fmt.Errorf("generate %q: %w", topic, err)
	}
	res, err := schema.Validate(article)
	if err != nil {
		return nil, err
	}
	if err := res.Err(article.Slug); err != nil {
		return nil, err
	}

	article.Status = model.StatusPublished
	return article, nil
}

// GenerateBatch generates one article per topic, waiting between articles.
// Failed topics are recorded in the report and the batch continues.
func (s *GeneratorService) GenerateBatch(ctx context.Context, topics []string, category model.Category, modelName string, sink Sink) (*Report, error) {
	report := &Report{Total: len(topics)}
	for i, topic := range topics {
		if i > 0 {
			if err := sleep(ctx, s.delay); err != nil {
				return report, err
			}
		}

		article, err := s.Generate(ctx, topic, category, modelName)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			s.log.Warn("article generation failed", "topic", topic, "error", err)
			report.fail(topic, "generate", err)
			continue
		}
		if sink != nil {
			if err := sink(ctx, article); err != nil {
				s.log.Warn("saving article failed", "topic", topic, "slug", article.Slug, "error", err)
				report.fail(topic, "save", err)
				continue
			}
		}
		report.Succeeded++
	}
	return report, nil
}

// ParseArticleJSON decodes a model response into a raw article, tolerating a markdown code fence.
func ParseArticleJSON(text string) (normalize.Raw, error) {
	body := stripCodeFence(text)
	var raw map[string]any
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: null object", ErrMalformedResponse)
	}
	return normalize.Raw(raw), nil
}

func stripCodeFence(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	if nl := strings.IndexByte(t, '\n'); nl >= 0 {
		t = t[nl+1:]
	}
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}
