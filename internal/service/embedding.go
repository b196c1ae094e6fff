package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"mhp-content/config"
	"mhp-content/internal/logger"
	"mhp-content/internal/model"
	"mhp-content/internal/store"
)

var ErrEmptyQuery = errors.New("search query is empty")

// EmbeddingService keeps the title, content and summary embeddings of stored articles current.
type EmbeddingService struct {
	store    store.ArticleStore
	embedder Embedder
	cfg      config.EmbeddingsConfig
	log      *logger.Logger
}

func NewEmbeddingService(s store.ArticleStore, e Embedder, cfg config.EmbeddingsConfig, log *logger.Logger) *EmbeddingService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}
	return &EmbeddingService{store: s, embedder: e, cfg: cfg, log: log.With("service", "EmbeddingService")}
}

// ContentText is the text embedded as an article's content: its content blocks as JSON.
func ContentText(a *model.Article) (string, error) {
	blocks := map[string]any(a.ContentBlocks)
	if blocks == nil {
		blocks = map[string]any{}
	}
	data, err := json.Marshal(blocks)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// UpdateArticle generates embeddings for the article. With onlyMissing set, present
// embeddings are kept. An empty summary gets no summary embedding.
func (s *EmbeddingService) UpdateArticle(ctx context.Context, a *model.Article, onlyMissing bool) error {
	type target struct {
		text string
		dst  *model.Vector
	}
	content, err := ContentText(a)
	if err != nil {
		return err
	}

	var targets []target
	add := func(text string, dst *model.Vector) {
		if strings.TrimSpace(text) == "" || (onlyMissing && len(*dst) > 0) {
			return
		}
		targets = append(targets, target{text: text, dst: dst})
	}
	add(a.Title, &a.TitleEmbedding)
	add(content, &a.ContentEmbedding)
	add(a.Summary, &a.SummaryEmbedding)
	if len(targets) == 0 {
		return nil
	}

	inputs := make([]string, len(targets))
	for i, t := range targets {
		inputs[i] = t.text
	}
	vectors, err := s.embedder.Embed(ctx, inputs)
	if err != nil {
		return fmt.Errorf("embed %s: %w", a.Slug, err)
	}
	if len(vectors) != len(targets) {
		return fmt.Errorf("embed %s: got %d vectors for %d inputs", a.Slug, len(vectors), len(targets))
	}
	for i, t := range targets {
		*t.dst = model.Vector(vectors[i])
	}

	return s.store.Update(ctx, a.ID, store.Patch{
		TitleEmbedding:   a.TitleEmbedding,
		ContentEmbedding: a.ContentEmbedding,
		SummaryEmbedding: a.SummaryEmbedding,
	})
}

// Backfill embeds every article missing an embedding, in concurrent batches
// with a pause between batches. Failed articles are recorded and skipped.
func (s *EmbeddingService) Backfill(ctx context.Context) (*Report, error) {
	articles, err := s.store.List(ctx, store.Filter{MissingEmbeddings: true})
	if err != nil {
		return nil, err
	}
	s.log.Info("articles needing embeddings", "count", len(articles))

	report := &Report{Total: len(articles)}
	for start := 0; start < len(articles); start += s.cfg.BatchSize {
		if start > 0 {
			if err := sleep(ctx, s.cfg.BatchDelay); err != nil {
				return report, err
			}
		}
		end := min(start+s.cfg.BatchSize, len(articles))
		batch := articles[start:end]

		errs := make([]error, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		for i := range batch {
			g.Go(func() error {
				errs[i] = s.UpdateArticle(gctx, &batch[i], true)
				return ctx.Err()
			})
		}
		if err := g.Wait(); err != nil {
			return report, err
		}

		for i, err := range errs {
			if err != nil {
				s.log.Error("embedding update failed", "slug", batch[i].Slug, "error", err)
				report.fail(batch[i].Slug, "embed", err)
				continue
			}
			report.Succeeded++
		}
	}
	return report, ctx.Err()
}

// Search embeds query and returns the most similar articles.
// Non-positive threshold or limit fall back to the configured defaults.
func (s *EmbeddingService) Search(ctx context.Context, query string, threshold float64, limit int) ([]store.Match, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if threshold <= 0 {
		threshold = s.cfg.Threshold
	}
	if limit <= 0 {
		limit = s.cfg.MatchCount
	}
	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, ErrEmptyResponse
	}
	return s.store.SearchSimilar(ctx, vectors[0], threshold, limit)
}
