package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mhp-content/config"
	"mhp-content/internal/model"
)

type MongoStore struct {
	client   *mongo.Client
	articles *mongo.Collection
}

// mongoArticle is the stored document; ids are kept as strings.
type mongoArticle struct {
	ID               string         `bson:"_id"`
	Title            string         `bson:"title"`
	Slug             string         `bson:"slug"`
	Summary          string         `bson:"summary"`
	Category         string         `bson:"category"`
	Status           string         `bson:"status"`
	Tags             []string       `bson:"tags"`
	ContentBlocks    map[string]any `bson:"content_blocks"`
	FAQs             []model.FAQ    `bson:"faqs,omitempty"`
	TitleEmbedding   []float32      `bson:"title_embedding,omitempty"`
	ContentEmbedding []float32      `bson:"content_embedding,omitempty"`
	SummaryEmbedding []float32      `bson:"summary_embedding,omitempty"`
	CreatedAt        time.Time      `bson:"created_at"`
	UpdatedAt        time.Time      `bson:"updated_at"`
}

func NewMongoStore(ctx context.Context, cfg config.MongoConfig) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("can't ping MongoDB: %w", err)
	}
	return &MongoStore{
		client:   client,
		articles: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Migrate creates the slug, category, status and created_at indexes.
func (s *MongoStore) Migrate(ctx context.Context) error {
	_, err := s.articles.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("can't create indexes: %w", err)
	}
	return nil
}

func mongoFilter(f Filter) bson.M {
	q := bson.M{}
	if len(f.Categories) > 0 {
		cats := make([]string, 0, len(f.Categories))
		for _, c := range f.Categories {
			cats = append(cats, string(c))
		}
		q["category"] = bson.M{"$in": cats}
	}
	if f.Status != "" {
		q["status"] = string(f.Status)
	}
	if f.MissingEmbeddings {
		q["$or"] = bson.A{
			bson.M{"title_embedding": nil},
			bson.M{"content_embedding": nil},
			bson.M{"summary_embedding": nil, "summary": bson.M{"$nin": bson.A{"", nil}}},
		}
	}
	return q
}

func (s *MongoStore) List(ctx context.Context, f Filter) ([]model.Article, error) {
	order := 1
	if f.NewestFirst {
		order = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: order}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	if f.Offset > 0 {
		opts.SetSkip(int64(f.Offset))
	}
	return s.find(ctx, mongoFilter(f), opts)
}

func (s *MongoStore) find(ctx context.Context, filter any, opts *options.FindOptions) ([]model.Article, error) {
	cursor, err := s.articles.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var articles []model.Article
	for cursor.Next(ctx) {
		var doc mongoArticle
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		articles = append(articles, doc.article())
	}
	return articles, cursor.Err()
}

func (s *MongoStore) Count(ctx context.Context, f Filter) (int64, error) {
	return s.articles.CountDocuments(ctx, mongoFilter(f))
}

func (s *MongoStore) Get(ctx context.Context, id uuid.UUID) (*model.Article, error) {
	return s.findOne(ctx, bson.M{"_id": id.String()})
}

func (s *MongoStore) GetBySlug(ctx context.Context, slug string) (*model.Article, error) {
	return s.findOne(ctx, bson.M{"slug": slug})
}

func (s *MongoStore) findOne(ctx context.Context, filter bson.M) (*model.Article, error) {
	var doc mongoArticle
	err := s.articles.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(fmt.Sprint(filter))
	}
	if err != nil {
		return nil, err
	}
	a := doc.article()
	return &a, nil
}

func (s *MongoStore) Insert(ctx context.Context, a *model.Article) error {
	prepareForInsert(a, time.Now())
	_, err := s.articles.InsertOne(ctx, newMongoArticle(a))
	return err
}

func (s *MongoStore) Upsert(ctx context.Context, a *model.Article) error {
	now := time.Now()
	prepareForInsert(a, now)
	doc := newMongoArticle(a)

	update := bson.M{
		"$set": bson.M{
			"title":          doc.Title,
			"summary":        doc.Summary,
			"category":       doc.Category,
			"status":         doc.Status,
			"tags":           doc.Tags,
			"content_blocks": doc.ContentBlocks,
			"faqs":           doc.FAQs,
			"updated_at":     now,
		},
		"$setOnInsert": bson.M{
			"_id":        doc.ID,
			"created_at": doc.CreatedAt,
		},
	}
	opts := options.Update().SetUpsert(true)
	if _, err := s.articles.UpdateOne(ctx, bson.M{"slug": doc.Slug}, update, opts); err != nil {
		return err
	}

	var stored mongoArticle
	err := s.articles.FindOne(ctx, bson.M{"slug": doc.Slug},
		options.FindOne().SetProjection(bson.M{"_id": 1, "created_at": 1})).Decode(&stored)
	if err != nil {
		return err
	}
	if id, err := uuid.Parse(stored.ID); err == nil {
		a.ID = id
	}
	a.CreatedAt = stored.CreatedAt
	return nil
}

func (s *MongoStore) Update(ctx context.Context, id uuid.UUID, p Patch) error {
	if p.Empty() {
		return nil
	}
	res, err := s.articles.UpdateOne(ctx, bson.M{"_id": id.String()}, bson.M{"$set": patchFields(p, time.Now())})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return notFound(id.String())
	}
	return nil
}

func patchFields(p Patch, now time.Time) bson.M {
	set := bson.M{"updated_at": now}
	if p.Summary != nil {
		set["summary"] = *p.Summary
	}
	if p.ContentBlocks != nil {
		set["content_blocks"] = p.ContentBlocks
	}
	if len(p.TitleEmbedding) > 0 {
		set["title_embedding"] = []float32(p.TitleEmbedding)
	}
	if len(p.ContentEmbedding) > 0 {
		set["content_embedding"] = []float32(p.ContentEmbedding)
	}
	if len(p.SummaryEmbedding) > 0 {
		set["summary_embedding"] = []float32(p.SummaryEmbedding)
	}
	return set
}

func (s *MongoStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.articles.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return notFound(id.String())
	}
	return nil
}

func (s *MongoStore) SearchSimilar(ctx context.Context, embedding []float32, threshold float64, limit int) ([]Match, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"title_embedding": bson.M{"$exists": true}},
		bson.M{"content_embedding": bson.M{"$exists": true}},
		bson.M{"summary_embedding": bson.M{"$exists": true}},
	}}
	articles, err := s.find(ctx, filter, options.Find())
	if err != nil {
		return nil, err
	}
	return rank(articles, embedding, threshold, limit), nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// DropDatabase removes the store's whole database.
func (s *MongoStore) DropDatabase(ctx context.Context) error {
	return s.articles.Database().Drop(ctx)
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func prepareForInsert(a *model.Article, now time.Time) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	if a.Status == "" {
		a.Status = model.StatusDraft
	}
}

func newMongoArticle(a *model.Article) mongoArticle {
	blocks := map[string]any(a.ContentBlocks)
	if blocks == nil {
		blocks = map[string]any{}
	}
	tags := []string(a.Tags)
	if tags == nil {
		tags = []string{}
	}
	return mongoArticle{
		ID:               a.ID.String(),
		Title:            a.Title,
		Slug:             a.Slug,
		Summary:          a.Summary,
		Category:         string(a.Category),
		Status:           string(a.Status),
		Tags:             tags,
		ContentBlocks:    blocks,
		FAQs:             a.FAQs,
		TitleEmbedding:   a.TitleEmbedding,
		ContentEmbedding: a.ContentEmbedding,
		SummaryEmbedding: a.SummaryEmbedding,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func (d mongoArticle) article() model.Article {
	id, _ := uuid.Parse(d.ID)
	return model.Article{
		ID:               id,
		Title:            d.Title,
		Slug:             d.Slug,
		Summary:          d.Summary,
		Category:         model.Category(d.Category),
		Status:           model.Status(d.Status),
		Tags:             d.Tags,
		ContentBlocks:    d.ContentBlocks,
		FAQs:             d.FAQs,
		TitleEmbedding:   d.TitleEmbedding,
		ContentEmbedding: d.ContentEmbedding,
		SummaryEmbedding: d.SummaryEmbedding,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}
