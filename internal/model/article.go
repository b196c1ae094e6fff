package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const ReliabilityScoreKey = "reliability_score"

type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type Article struct {
	ID               uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	Title            string                      `gorm:"size:500;not null" json:"title"`
	Slug             string                      `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Summary          string                      `gorm:"type:text" json:"summary"`
	Category         Category                    `gorm:"size:50;index;not null" json:"category"`
	Status           Status                      `gorm:"size:20;index;default:draft" json:"status"`
	Tags             datatypes.JSONSlice[string] `json:"tags"`
	ContentBlocks    datatypes.JSONMap           `json:"content_blocks"`
	FAQs             datatypes.JSONSlice[FAQ]    `gorm:"column:faqs" json:"faqs,omitempty"`
	TitleEmbedding   Vector                      `json:"title_embedding,omitempty"`
	ContentEmbedding Vector                      `json:"content_embedding,omitempty"`
	SummaryEmbedding Vector                      `json:"summary_embedding,omitempty"`
	CreatedAt        time.Time                   `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
}

func (a *Article) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// HasEmbeddings reports whether all three embeddings are present.
func (a *Article) HasEmbeddings() bool {
	return len(a.TitleEmbedding) > 0 && len(a.ContentEmbedding) > 0 && len(a.SummaryEmbedding) > 0
}

// Block returns a content block as text; missing or non-text blocks give "".
func (a *Article) Block(key string) string {
	if a.ContentBlocks == nil {
		return ""
	}
	s, _ := a.ContentBlocks[key].(string)
	return s
}

// ReliabilityScore returns the stored score and whether one is present and numeric.
func (a *Article) ReliabilityScore() (float64, bool) {
	if a.ContentBlocks == nil {
		return 0, false
	}
	v, ok := a.ContentBlocks[ReliabilityScoreKey]
	if !ok {
		return 0, false
	}
	return Number(v)
}

// Document is the article shape used in articles-data.json.
type Document struct {
	Title         string         `json:"title"`
	Slug          string         `json:"slug"`
	Summary       string         `json:"summary"`
	Category      Category       `json:"category"`
	Status        Status         `json:"status"`
	Tags          []string       `json:"tags"`
	ContentBlocks map[string]any `json:"content_blocks"`
	FAQs          []FAQ          `json:"faqs,omitempty"`
}

func (a *Article) Document() Document {
	tags := []string(a.Tags)
	if tags == nil {
		tags = []string{}
	}
	blocks := map[string]any(a.ContentBlocks)
	if blocks == nil {
		blocks = map[string]any{}
	}
	return Document{
		Title:         a.Title,
		Slug:          a.Slug,
		Summary:       a.Summary,
		Category:      a.Category,
		Status:        a.Status,
		Tags:          tags,
		ContentBlocks: blocks,
		FAQs:          a.FAQs,
	}
}

// Number converts a decoded JSON value to float64. Strings are not numbers.
func Number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// ParseNumber is Number extended to numeric strings.
func ParseNumber(v any) (float64, bool) {
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	return Number(v)
}
