package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mhp-content/internal/model"
)

// columns replaced when an upsert hits an existing slug
var upsertColumns = []string{"title", "summary", "category", "status", "tags", "content_blocks", "faqs", "updated_at"}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) DB() *gorm.DB { return s.db }

func (s *GormStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&model.Article{})
}

func (s *GormStore) scoped(ctx context.Context, f Filter) *gorm.DB {
	q := s.db.WithContext(ctx).Model(&model.Article{})
	if len(f.Categories) > 0 {
		q = q.Where("category IN ?", f.Categories)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.MissingEmbeddings {
		q = q.Where("(title_embedding IS NULL OR content_embedding IS NULL OR " +
			"(summary_embedding IS NULL AND TRIM(COALESCE(summary, '')) <> ''))")
	}
	return q
}

func (s *GormStore) List(ctx context.Context, f Filter) ([]model.Article, error) {
	q := s.scoped(ctx, f)
	if f.NewestFirst {
		q = q.Order("created_at DESC")
	} else {
		q = q.Order("created_at ASC")
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}
	var articles []model.Article
	if err := q.Find(&articles).Error; err != nil {
		return nil, err
	}
	return articles, nil
}

func (s *GormStore) Count(ctx context.Context, f Filter) (int64, error) {
	var n int64
	err := s.scoped(ctx, f).Count(&n).Error
	return n, err
}

func (s *GormStore) Get(ctx context.Context, id uuid.UUID) (*model.Article, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *GormStore) GetBySlug(ctx context.Context, slug string) (*model.Article, error) {
	return s.first(ctx, "slug = ?", slug)
}

func (s *GormStore) first(ctx context.Context, cond string, arg any) (*model.Article, error) {
	var a model.Article
	err := s.db.WithContext(ctx).Where(cond, arg).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(cond)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *GormStore) Insert(ctx context.Context, a *model.Article) error {
	return s.db.WithContext(ctx).Create(a).Error
}

func (s *GormStore) Upsert(ctx context.Context, a *model.Article) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns(upsertColumns),
	}).Create(a).Error
	if err != nil {
		return err
	}
	// on conflict the row keeps its original id
	var stored model.Article
	if err := s.db.WithContext(ctx).Select("id", "created_at").Where("slug = ?", a.Slug).First(&stored).Error; err != nil {
		return err
	}
	a.ID = stored.ID
	a.CreatedAt = stored.CreatedAt
	return nil
}

func (s *GormStore) Update(ctx context.Context, id uuid.UUID, p Patch) error {
	if p.Empty() {
		return nil
	}
	updates := map[string]any{"updated_at": time.Now()}
	if p.Summary != nil {
		updates["summary"] = *p.Summary
	}
	if p.ContentBlocks != nil {
		updates["content_blocks"] = datatypes.JSONMap(p.ContentBlocks)
	}
	if len(p.TitleEmbedding) > 0 {
		updates["title_embedding"] = p.TitleEmbedding
	}
	if len(p.ContentEmbedding) > 0 {
		updates["content_embedding"] = p.ContentEmbedding
	}
	if len(p.SummaryEmbedding) > 0 {
		updates["summary_embedding"] = p.SummaryEmbedding
	}
	res := s.db.WithContext(ctx).Model(&model.Article{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(id.String())
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Article{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound(id.String())
	}
	return nil
}

func (s *GormStore) SearchSimilar(ctx context.Context, embedding []float32, threshold float64, limit int) ([]Match, error) {
	var articles []model.Article
	err := s.db.WithContext(ctx).
		Where("title_embedding IS NOT NULL OR content_embedding IS NOT NULL OR summary_embedding IS NOT NULL").
		Find(&articles).Error
	if err != nil {
		return nil, err
	}
	return rank(articles, embedding, threshold, limit), nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
