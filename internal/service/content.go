package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mhp-content/config"
	"mhp-content/internal/articlefile"
	"mhp-content/internal/logger"
	"mhp-content/internal/model"
	"mhp-content/internal/store"
)

var (
	ErrUnknownSection  = errors.New("no prompt template defined for section")
	errSectionNotFound = errors.New("section not found in article")
)

// ContentService rewrites single sections of existing articles.
type ContentService struct {
	llm   TextGenerator
	store store.ArticleStore
	cfg   *config.Config
	delay time.Duration
	log   *logger.Logger
}

func NewContentService(llm TextGenerator, s store.ArticleStore, cfg *config.Config, log *logger.Logger) *ContentService {
	return &ContentService{
		llm:   llm,
		store: s,
		cfg:   cfg,
		delay: cfg.Generation.ItemDelay,
		log:   log.With("service", "ContentService"),
	}
}

// SectionTemplate returns the prompt template for section, preferring a configured override.
func (s *ContentService) SectionTemplate(section string) (string, error) {
	tmpl := s.cfg.Prompt(section, SectionPrompts[section])
	if tmpl == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownSection, section)
	}
	return tmpl, nil
}

// GenerateSection writes new text for one section of an article about topic.
func (s *ContentService) GenerateSection(ctx context.Context, section, topic string, category model.Category, modelName string) (string, error) {
	tmpl, err := s.SectionTemplate(section)
	if err != nil {
		return "", err
	}
	system := SectionSystemPrompt
	if section == PromptSummary {
		system = SummarySystemPrompt
	}
	text, err := s.llm.Complete(ctx, system, RenderSectionPrompt(tmpl, topic, category),
		WithTemperature(SectionTemperature), WithModel(modelName))
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// RegenerateSection rewrites section for the last count articles of the file and saves it.
// The section is replaced where it already exists, top-level first, then in content_blocks;
// articles without it are skipped.
func (s *ContentService) RegenerateSection(ctx context.Context, path, section string, count int, modelName string) (*Report, error) {
	if _, err := s.SectionTemplate(section); err != nil {
		return nil, err
	}
	items, err := articlefile.Read(path)
	if err != nil {
		return nil, err
	}
	start := 0
	if count > 0 && count < len(items) {
		start = len(items) - count
	}
	targets := items[start:]
	s.log.Info("regenerating section", "section", section, "articles", len(targets), "file", path)

	report := &Report{Total: len(targets)}
	for i, item := range targets {
		if i > 0 {
			if err := sleep(ctx, s.delay); err != nil {
				return report, s.save(path, items, err)
			}
		}
		name := itemName(item, start+i)
		title, _ := item["title"].(string)
		category, _ := item["category"].(string)

		blocks, _ := item["content_blocks"].(map[string]any)
		_, topLevel := item[section]
		_, nested := blocks[section]
		if !topLevel && !nested {
			s.log.Warn("section not found", "article", name, "section", section)
			report.Skipped++
			continue
		}

		text, err := s.GenerateSection(ctx, section, title, model.Category(category), modelName)
		if err != nil {
			if ctx.Err() != nil {
				return report, s.save(path, items, ctx.Err())
			}
			s.log.Warn("section generation failed", "article", name, "error", err)
			report.fail(name, "generate", err)
			continue
		}
		if topLevel {
			item[section] = text
		} else {
			blocks[section] = text
		}
		report.Succeeded++
	}
	return report, s.save(path, items, nil)
}

// save writes items back and returns cause, or the write error when there is no cause.
func (s *ContentService) save(path string, items any, cause error) error {
	if err := articlefile.WriteJSON(path, items); err != nil && cause == nil {
		return err
	}
	return cause
}

// UpdateSummaries regenerates the summary of the count newest stored articles.
func (s *ContentService) UpdateSummaries(ctx context.Context, count int, modelName string) (*Report, error) {
	articles, err := s.store.List(ctx, store.Filter{NewestFirst: true, Limit: count})
	if err != nil {
		return nil, err
	}

	report := &Report{Total: len(articles)}
	for i, a := range articles {
		if i > 0 {
			if err := sleep(ctx, s.delay); err != nil {
				return report, err
			}
		}
		summary, err := s.GenerateSection(ctx, PromptSummary, a.Title, a.Category, modelName)
		if err == nil {
			err = s.store.Update(ctx, a.ID, store.Patch{Summary: &summary})
		}
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			s.log.Error("summary update failed", "slug", a.Slug, "error", err)
			report.fail(a.Slug, "update-summary", err)
			continue
		}
		s.log.Info("summary updated", "slug", a.Slug)
		report.Succeeded++
	}
	return report, nil
}
