package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"mhp-content/config"
	"mhp-content/internal/database"
	"mhp-content/internal/logger"
	"mhp-content/internal/model"
)

var ErrNotFound = errors.New("article not found")

// Filter selects articles for List and Count. Zero values select everything.
type Filter struct {
	Categories []model.Category
	Status     model.Status
	// MissingEmbeddings selects articles lacking an embedding they can have:
	// an empty summary has no summary embedding to miss.
	MissingEmbeddings bool
	NewestFirst       bool
	Limit             int
	Offset            int
}

// Patch replaces individual fields of a stored article; nil or empty fields are left alone.
type Patch struct {
	Summary          *string
	ContentBlocks    map[string]any
	TitleEmbedding   model.Vector
	ContentEmbedding model.Vector
	SummaryEmbedding model.Vector
}

func (p Patch) Empty() bool {
	return p.Summary == nil && p.ContentBlocks == nil &&
		len(p.TitleEmbedding) == 0 && len(p.ContentEmbedding) == 0 && len(p.SummaryEmbedding) == 0
}

// Match is a similarity search hit.
type Match struct {
	Article    model.Article `json:"article"`
	Similarity float64       `json:"similarity"`
}

// ArticleStore persists articles keyed by id with slug as the unique upsert key.
type ArticleStore interface {
	List(ctx context.Context, f Filter) ([]model.Article, error)
	Count(ctx context.Context, f Filter) (int64, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Article, error)
	GetBySlug(ctx context.Context, slug string) (*model.Article, error)
	Insert(ctx context.Context, a *model.Article) error
	// Upsert inserts a or replaces the content of the article with the same slug.
	// On return a.ID holds the stored id.
	Upsert(ctx context.Context, a *model.Article) error
	Update(ctx context.Context, id uuid.UUID, p Patch) error
	Delete(ctx context.Context, id uuid.UUID) error
	// SearchSimilar ranks articles by the best cosine similarity of any of their embeddings.
	SearchSimilar(ctx context.Context, embedding []float32, threshold float64, limit int) ([]Match, error)
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// Open returns the store for the configured driver.
func Open(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (ArticleStore, error) {
	if cfg.Driver == "mongo" {
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return NewMongoStore(connectCtx, cfg.Mongo)
	}
	db, err := database.Open(cfg, log)
	if err != nil {
		return nil, err
	}
	return NewGormStore(db), nil
}

func notFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}
