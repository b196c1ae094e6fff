package service

import (
	"context"
	"fmt"

	"gorm.io/datatypes"

	"mhp-content/internal/logger"
	"mhp-content/internal/model"
	"mhp-content/internal/store"
)

const verifySlug = "test-article-verification"

// Check is one step of a setup verification.
type Check struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Warning bool   `json:"warning,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// VerifyService checks that storage, embeddings and search work end to end.
type VerifyService struct {
	store      store.ArticleStore
	embeddings *EmbeddingService
	log        *logger.Logger
}

func NewVerifyService(s store.ArticleStore, e *EmbeddingService, log *logger.Logger) *VerifyService {
	return &VerifyService{store: s, embeddings: e, log: log.With("service", "VerifyService")}
}

func testArticle() *model.Article {
	return &model.Article{
		Title:    "Test Article",
		Slug:     verifySlug,
		Summary:  "A test article for verifying the embedding system.",
		Status:   model.StatusDraft,
		Category: model.CategoryMentalHealth,
		Tags:     datatypes.JSONSlice[string]{"test", "verification"},
		ContentBlocks: datatypes.JSONMap{
			"overview":                 "A test article for verifying the embedding system.",
			"prevalence":               "Test prevalence data.",
			"causes_and_mechanisms":    "Test causes and mechanisms.",
			"symptoms_and_impact":      "Test symptoms and impact.",
			"evidence_summary":         "Test evidence summary.",
			"practical_applications":   "Test practical applications.",
			"common_myths":             "Test common myths.",
			"future_directions":        "Test future directions.",
			"references_and_resources": "Test references.",
		},
	}
}

// Run executes the checks in order and stops at the first failure.
// The test article is always removed again.
func (s *VerifyService) Run(ctx context.Context) ([]Check, bool) {
	var checks []Check
	pass := func(name, detail string) { checks = append(checks, Check{Name: name, OK: true, Detail: detail}) }
	fail := func(name string, err error) ([]Check, bool) {
		s.log.Error("verification failed", "check", name, "error", err)
		checks = append(checks, Check{Name: name, Detail: err.Error()})
		return checks, false
	}

	if err := s.store.Ping(ctx); err != nil {
		return fail("database connection", err)
	}
	pass("database connection", "")

	if err := s.store.Migrate(ctx); err != nil {
		return fail("articles schema", err)
	}
	n, err := s.store.Count(ctx, store.Filter{})
	if err != nil {
		return fail("articles schema", err)
	}
	pass("articles schema", fmt.Sprintf("%d articles stored", n))

	// leftovers from an interrupted run
	if old, err := s.store.GetBySlug(ctx, verifySlug); err == nil {
		_ = s.store.Delete(ctx, old.ID)
	}

	article := testArticle()
	if err := s.store.Insert(ctx, article); err != nil {
		return fail("test article", err)
	}
	defer func() {
		if err := s.store.Delete(context.WithoutCancel(ctx), article.ID); err != nil {
			s.log.Warn("test article cleanup failed", "id", article.ID, "error", err)
		}
	}()
	pass("test article", article.ID.String())

	if err := s.embeddings.UpdateArticle(ctx, article, false); err != nil {
		return fail("embeddings", err)
	}
	pass("embeddings", fmt.Sprintf("%d dimensions", len(article.TitleEmbedding)))

	matches, err := s.embeddings.Search(ctx, "test article verification", 0, 1)
	if err != nil {
		return fail("search", err)
	}
	if len(matches) == 0 {
		checks = append(checks, Check{Name: "search", OK: true, Warning: true, Detail: "no results, normal for a new database"})
	} else {
		pass("search", matches[0].Article.Slug)
	}
	return checks, true
}
