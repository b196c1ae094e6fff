package schema

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"mhp-content/internal/model"
)

// FieldError is one validation failure; Path uses content_blocks.<key> for content blocks.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e FieldError) String() string { return e.Path + ": " + e.Message }

type ValidationResult struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

func (r *ValidationResult) add(path, msg string) {
	r.Errors = append(r.Errors, FieldError{Path: path, Message: msg})
}

// HasPath reports whether any error references path.
func (r *ValidationResult) HasPath(path string) bool {
	for _, e := range r.Errors {
		if e.Path == path {
			return true
		}
	}
	return false
}

// Err returns a *ValidationError for an invalid result and nil otherwise.
func (r *ValidationResult) Err(slug string) error {
	if r.Valid {
		return nil
	}
	return &ValidationError{Slug: slug, Result: r}
}

// ValidationError carries a failed ValidationResult through error returns.
type ValidationError struct {
	Slug   string
	Result *ValidationResult
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Result.Errors))
	for _, fe := range e.Result.Errors {
		parts = append(parts, fe.String())
	}
	name := e.Slug
	if name == "" {
		name = "article"
	}
	return fmt.Sprintf("%s failed validation: %s", name, strings.Join(parts, "; "))
}

// AsValidationError unwraps err into a *ValidationError when it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}

type baseFields struct {
	Title   string   `json:"title" validate:"required"`
	Slug    string   `json:"slug" validate:"required,slug"`
	Summary string   `json:"summary" validate:"required"`
	Status  string   `json:"status" validate:"omitempty,oneof=published draft archived"`
	Tags    []string `json:"tags" validate:"dive,required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return IsSlug(fl.Field().String())
	})
	return v
}

// Validate checks an article against the schema selected by its category.
// Field problems are reported in the result; only a missing or unknown category is returned as an error.
func Validate(a *model.Article) (*ValidationResult, error) {
	if a == nil {
		return nil, ErrMissingCategory
	}
	s, err := SchemaFor(a.Category)
	if err != nil {
		return nil, err
	}

	res := &ValidationResult{}
	validateBase(a, res)
	validateContent(s, a.ContentBlocks, res)
	res.Valid = len(res.Errors) == 0
	return res, nil
}

func validateBase(a *model.Article, res *ValidationResult) {
	base := baseFields{
		Title:   strings.TrimSpace(a.Title),
		Slug:    a.Slug,
		Summary: strings.TrimSpace(a.Summary),
		Status:  string(a.Status),
		Tags:    []string(a.Tags),
	}
	err := validate.Struct(base)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		res.add("article", err.Error())
		return
	}
	for _, fe := range verrs {
		res.add(fe.Field(), baseMessage(fe))
	}
}

func baseMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "slug":
		return "must contain only lowercase letters, digits and single hyphens"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	}
	return "failed " + fe.Tag()
}

func validateContent(s *Schema, blocks map[string]any, res *ValidationResult) {
	scoreChecked := false
	for _, f := range s.ContentFields() {
		path := "content_blocks." + f.Name
		v, ok := blocks[f.Name]
		if !ok || v == nil {
			res.add(path, "is required")
			continue
		}
		switch f.Kind {
		case KindScore:
			scoreChecked = true
			checkScore(path, v, res)
		default:
			str, isText := v.(string)
			switch {
			case !isText:
				res.add(path, "must be text")
			case strings.TrimSpace(str) == "":
				res.add(path, "must not be empty")
			}
		}
	}
	if v, ok := blocks[model.ReliabilityScoreKey]; ok && !scoreChecked {
		checkScore("content_blocks."+model.ReliabilityScoreKey, v, res)
	}
}

func checkScore(path string, v any, res *ValidationResult) {
	n, ok := model.Number(v)
	switch {
	case !ok || math.IsNaN(n):
		res.add(path, "must be a number")
	case n < 0 || n > 1:
		res.add(path, "must be between 0 and 1")
	}
}
