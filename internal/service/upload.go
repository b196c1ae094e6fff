package service

import (
	"context"
	"fmt"

	"mhp-content/internal/articlefile"
	"mhp-content/internal/logger"
	"mhp-content/internal/model"
	"mhp-content/internal/normalize"
	"mhp-content/internal/schema"
	"mhp-content/internal/store"
)

// UploadService moves articles from the interchange file into the store.
type UploadService struct {
	store store.ArticleStore
	log   *logger.Logger
}

func NewUploadService(s store.ArticleStore, log *logger.Logger) *UploadService {
	return &UploadService{store: s, log: log.With("service", "UploadService")}
}

// Accept normalizes and validates one raw article.
func Accept(raw normalize.Raw) (*model.Article, error) {
	article, err := normalize.Prepare(raw)
	if err != nil {
		return nil, err
	}
	res, err := schema.Validate(article)
	if err != nil {
		return nil, err
	}
	if err := res.Err(article.Slug); err != nil {
		return nil, err
	}
	return article, nil
}

// Save accepts raw and upserts it by slug.
func (s *UploadService) Save(ctx context.Context, raw normalize.Raw) (*model.Article, error) {
	article, err := Accept(raw)
	if err != nil {
		return nil, err
	}
	if err := s.store.Upsert(ctx, article); err != nil {
		return nil, fmt.Errorf("upsert %s: %w", article.Slug, err)
	}
	return article, nil
}

// UploadFile upserts every article in the file.
func (s *UploadService) UploadFile(ctx context.Context, path string) (*Report, error) {
	raws, err := articlefile.Read(path)
	if err != nil {
		return nil, err
	}
	return s.Upload(ctx, raws)
}

// Upload upserts articles one by one; rejected or failed articles are skipped.
func (s *UploadService) Upload(ctx context.Context, raws []normalize.Raw) (*Report, error) {
	report := &Report{Total: len(raws)}
	for i, raw := range raws {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		name := itemName(raw, i)

		article, err := Accept(raw)
		if err != nil {
			s.log.Warn("article rejected", "article", name, "error", err)
			report.fail(name, "validate", err)
			continue
		}
		if err := s.store.Upsert(ctx, article); err != nil {
			s.log.Error("upsert failed", "slug", article.Slug, "error", err)
			report.fail(article.Slug, "upsert", err)
			continue
		}
		s.log.Info("article upserted", "slug", article.Slug, "id", article.ID)
		report.Succeeded++
	}
	return report, nil
}

// ArticleValidation is the validation outcome for one article of a file.
type ArticleValidation struct {
	Index    int                      `json:"index"`
	Title    string                   `json:"title"`
	Slug     string                   `json:"slug"`
	Category string                   `json:"category"`
	Result   *schema.ValidationResult `json:"result,omitempty"`
	Error    string                   `json:"error,omitempty"`
}

func (v ArticleValidation) Valid() bool { return v.Error == "" && v.Result != nil && v.Result.Valid }

type ValidationReport struct {
	Total    int                 `json:"total"`
	Valid    int                 `json:"valid"`
	Invalid  int                 `json:"invalid"`
	Articles []ArticleValidation `json:"articles"`
}

// ValidateFile checks every article in the file without touching the store.
func ValidateFile(path string) (*ValidationReport, error) {
	raws, err := articlefile.Read(path)
	if err != nil {
		return nil, err
	}
	report := &ValidationReport{Total: len(raws)}
	for i, raw := range raws {
		v := ValidateRaw(raw)
		v.Index = i
		if v.Valid() {
			report.Valid++
		} else {
			report.Invalid++
		}
		report.Articles = append(report.Articles, v)
	}
	return report, nil
}

// ValidateRaw normalizes raw and validates the result.
func ValidateRaw(raw normalize.Raw) ArticleValidation {
	v := ArticleValidation{
		Title:    fmt.Sprint(valueOr(raw["title"], "")),
		Category: fmt.Sprint(valueOr(raw["category"], "")),
	}
	article, err := normalize.Prepare(raw)
	if err != nil {
		v.Error = err.Error()
		return v
	}
	v.Slug = article.Slug
	res, err := schema.Validate(article)
	if err != nil {
		v.Error = err.Error()
		return v
	}
	v.Result = res
	return v
}

func itemName(raw normalize.Raw, i int) string {
	for _, key := range []string{"slug", "title"} {
		if s, ok := raw[key].(string); ok && s != "" {
			return s
		}
	}
	return fmt.Sprintf("#%d", i+1)
}

func valueOr(v, fallback any) any {
	if v == nil {
		return fallback
	}
	return v
}
