package schema

import (
	"errors"
	"fmt"

	"mhp-content/internal/model"
)

var (
	ErrMissingCategory = errors.New("article has no category")
	ErrUnknownCategory = errors.New("unknown category")
)

type Kind int

const (
	KindText  Kind = iota // non-empty text
	KindScore             // number in [0, 1]
)

type Field struct {
	Name string
	Kind Kind
}

// Schema is the field contract shared by one or more categories.
type Schema struct {
	Variant    string
	Categories []model.Category
	// Fields are the category-specific content blocks, in prompt order.
	Fields []Field
}

// BaseFields are the top-level article fields every category requires.
var BaseFields = []string{"title", "slug", "summary", "category", "status", "tags"}

// SharedFields are content blocks every category requires.
var SharedFields = []Field{
	text("overview"),
	text("future_directions"),
	text("references_and_resources"),
	text("evidence_summary"),
	text("practical_applications"),
}

var variants = []*Schema{
	{
		Variant:    "mental_health",
		Categories: []model.Category{model.CategoryMentalHealth},
		Fields: []Field{
			text("prevalence"),
			text("causes_and_mechanisms"),
			text("symptoms_and_impact"),
			text("common_myths"),
		},
	},
	{
		Variant: "science",
		Categories: []model.Category{
			model.CategoryNeuroscience,
			model.CategoryPsychology,
			model.CategoryBrainHealth,
		},
		Fields: []Field{
			text("definition"),
			text("mechanisms"),
			text("relevance"),
			text("key_studies"),
			text("common_misconceptions"),
		},
	},
	{
		Variant:    "neurodiversity",
		Categories: []model.Category{model.CategoryNeurodiversity},
		Fields: []Field{
			text("neurodiversity_perspective"),
			text("common_strengths_and_challenges"),
			text("prevalence_and_demographics"),
			text("mechanisms_and_understanding"),
			text("common_misconceptions"),
			text("lived_experience"),
		},
	},
	{
		Variant: "practice",
		Categories: []model.Category{
			model.CategoryInterventions,
			model.CategoryLifestyleFactors,
		},
		Fields: []Field{
			text("how_it_works"),
			text("common_myths"),
			text("risks_and_limitations"),
			score(model.ReliabilityScoreKey),
		},
	},
	{
		Variant:    "lab_testing",
		Categories: []model.Category{model.CategoryLabTesting},
		Fields: []Field{
			text("how_it_works"),
			text("applications"),
			text("strengths_and_limitations"),
			text("risks_and_limitations"),
		},
	},
	{
		Variant:    "risk_factors",
		Categories: []model.Category{model.CategoryRiskFactors},
		Fields: []Field{
			text("prevalence"),
			text("mechanisms"),
			text("modifiable_factors"),
			text("protective_factors"),
			text("practical_takeaways"),
			score(model.ReliabilityScoreKey),
		},
	},
}

var byCategory = func() map[model.Category]*Schema {
	m := make(map[model.Category]*Schema, len(model.Categories))
	for _, v := range variants {
		for _, c := range v.Categories {
			m[c] = v
		}
	}
	return m
}()

func text(name string) Field  { return Field{Name: name, Kind: KindText} }
func score(name string) Field { return Field{Name: name, Kind: KindScore} }

// SchemaFor returns the schema for a category. Categories sharing a variant get the same *Schema.
func SchemaFor(category model.Category) (*Schema, error) {
	if category == "" {
		return nil, ErrMissingCategory
	}
	s, ok := byCategory[category]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, string(category))
	}
	return s, nil
}

// ContentFields returns the shared content blocks followed by the variant's own.
func (s *Schema) ContentFields() []Field {
	out := make([]Field, 0, len(SharedFields)+len(s.Fields))
	out = append(out, SharedFields...)
	return append(out, s.Fields...)
}

// Required lists every required key: base fields, shared blocks, variant blocks.
func (s *Schema) Required() []string {
	out := make([]string, 0, len(BaseFields)+len(SharedFields)+len(s.Fields))
	out = append(out, BaseFields...)
	for _, f := range s.ContentFields() {
		out = append(out, f.Name)
	}
	return out
}

// Additional lists the variant's own required keys.
func (s *Schema) Additional() []string {
	out := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		out = append(out, f.Name)
	}
	return out
}

// Scored reports whether the schema requires reliability_score.
func (s *Schema) Scored() bool {
	for _, f := range s.Fields {
		if f.Kind == KindScore {
			return true
		}
	}
	return false
}

// JSONSchema renders the flat article shape the generator asks the model for.
func (s *Schema) JSONSchema(category model.Category) map[string]any {
	props := map[string]any{
		"title":    map[string]any{"type": "string"},
		"slug":     map[string]any{"type": "string", "pattern": slugPattern.String()},
		"summary":  map[string]any{"type": "string"},
		"category": map[string]any{"type": "string", "const": string(category)},
		"status":   map[string]any{"type": "string", "enum": []string{"published", "draft", "archived"}},
		"tags":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	}
	for _, f := range s.ContentFields() {
		switch f.Kind {
		case KindScore:
			props[f.Name] = map[string]any{"type": "number", "minimum": 0, "maximum": 1}
		default:
			props[f.Name] = map[string]any{"type": "string"}
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": props,
		"required":   s.Required(),
	}
}
