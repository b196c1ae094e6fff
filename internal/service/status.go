package service

import (
	"context"
	"time"

	"mhp-content/internal/model"
	"mhp-content/internal/store"
)

type StatusService struct {
	store store.ArticleStore
}

type SystemStatus struct {
	// article counts
	TotalArticles    int64                    `json:"total_articles"`
	ByStatus         map[model.Status]int64   `json:"by_status"`
	ByCategory       map[model.Category]int64 `json:"by_category"`
	MissingEmbedding int64                    `json:"missing_embeddings"`
	MissingScore     int                      `json:"missing_reliability_scores"`

	// scheduled jobs, filled in by the handler
	NextEmbeddingTime   time.Time `json:"next_embedding_time"`
	NextReliabilityTime time.Time `json:"next_reliability_time"`
}

func NewStatusService(s store.ArticleStore) *StatusService {
	return &StatusService{store: s}
}

// GetSystemStatus counts stored articles by status and category and reports missing enrichment.
func (s *StatusService) GetSystemStatus(ctx context.Context) (*SystemStatus, error) {
	status := &SystemStatus{
		ByStatus:   make(map[model.Status]int64),
		ByCategory: make(map[model.Category]int64),
	}

	var err error
	if status.TotalArticles, err = s.store.Count(ctx, store.Filter{}); err != nil {
		return nil, err
	}
	for _, st := range []model.Status{model.StatusPublished, model.StatusDraft, model.StatusArchived} {
		if status.ByStatus[st], err = s.store.Count(ctx, store.Filter{Status: st}); err != nil {
			return nil, err
		}
	}
	for _, c := range model.Categories {
		n, err := s.store.Count(ctx, store.Filter{Categories: []model.Category{c}})
		if err != nil {
			return nil, err
		}
		if n > 0 {
			status.ByCategory[c] = n
		}
	}
	if status.MissingEmbedding, err = s.store.Count(ctx, store.Filter{MissingEmbeddings: true}); err != nil {
		return nil, err
	}

	scored, err := s.store.List(ctx, store.Filter{Categories: model.ScoredCategories})
	if err != nil {
		return nil, err
	}
	for i := range scored {
		if _, ok := scored[i].ReliabilityScore(); !ok {
			status.MissingScore++
		}
	}
	return status, nil
}
