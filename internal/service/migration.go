package service

import (
	"context"
	"reflect"

	"mhp-content/internal/logger"
	"mhp-content/internal/normalize"
	"mhp-content/internal/store"
)

// MigrationService rewrites stored content blocks into the consolidated field layout.
type MigrationService struct {
	store store.ArticleStore
	log   *logger.Logger
}

func NewMigrationService(s store.ArticleStore, log *logger.Logger) *MigrationService {
	return &MigrationService{store: s, log: log.With("service", "MigrationService")}
}

// MigrateArticles consolidates legacy fields and injects the default reliability score.
// Already-consolidated articles are counted as skipped.
func (s *MigrationService) MigrateArticles(ctx context.Context) (*Report, error) {
	articles, err := s.store.List(ctx, store.Filter{})
	if err != nil {
		return nil, err
	}

	report := &Report{Total: len(articles)}
	for _, a := range articles {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		before := normalize.Raw(a.ContentBlocks)
		if before == nil {
			before = normalize.Raw{}
		}

		blocks := normalize.NormalizeFieldNames(before)
		blocks, _ = normalize.ConsolidateLegacyFields(blocks, a.Category)
		blocks, _ = normalize.InjectDefaultReliabilityScore(blocks, a.Category)

		if reflect.DeepEqual(map[string]any(before), map[string]any(blocks)) {
			report.Skipped++
			continue
		}
		if err := s.store.Update(ctx, a.ID, store.Patch{ContentBlocks: blocks}); err != nil {
			s.log.Error("migration update failed", "slug", a.Slug, "error", err)
			report.fail(a.Slug, "update", err)
			continue
		}
		s.log.Info("article migrated", "slug", a.Slug)
		report.Succeeded++
	}
	return report, nil
}
