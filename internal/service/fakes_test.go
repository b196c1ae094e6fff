package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"mhp-content/internal/model"
	"mhp-content/internal/normalize"
	"mhp-content/internal/schema"
)

type chatCall struct {
	System string
	User   string
	Req    ChatRequest
}

// fakeLLM replays canned completions in order (the last one repeats) and embeds
// text deterministically.
type fakeLLM struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     []chatCall

	embedErr   error
	failEmbed  string // inputs containing this fail
	embedCalls int
}

func (f *fakeLLM) Complete(_ context.Context, system, user string, opts ...ChatOption) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req := ChatRequest{}
	for _, opt := range opts {
		opt(&req)
	}
	f.calls = append(f.calls, chatCall{System: system, User: user, Req: req})
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", ErrEmptyResponse
	}
	i := min(len(f.calls)-1, len(f.responses)-1)
	return f.responses[i], nil
}

func (f *fakeLLM) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.embedCalls++
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(inputs))
	for i, in := range inputs {
		if f.failEmbed != "" && strings.Contains(in, f.failEmbed) {
			return nil, errors.New("embedding quota exceeded")
		}
		out[i] = vectorFor(in)
	}
	return out, nil
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// vectorFor maps texts mentioning "sleep" onto one axis and everything else onto another.
func vectorFor(text string) []float32 {
	if strings.Contains(strings.ToLower(text), "sleep") {
		return []float32{1, 0, 0}
	}
	return []float32{0, 1, 0}
}

// completeRaw builds a flat raw article carrying every required field of the category.
func completeRaw(title string, c model.Category) normalize.Raw {
	s, err := schema.SchemaFor(c)
	if err != nil {
		panic(err)
	}
	raw := normalize.Raw{
		"title":    title,
		"summary":  "Summary of " + title + ".",
		"category": string(c),
		"tags":     []any{"mental health", "test"},
	}
	for _, f := range s.ContentFields() {
		if f.Kind == schema.KindScore {
			raw[f.Name] = 0.8
			continue
		}
		raw[f.Name] = "Text for " + f.Name + "."
	}
	return raw
}

// storedArticle prepares a complete article ready for insertion.
func storedArticle(title string, c model.Category) *model.Article {
	a, err := Accept(completeRaw(title, c))
	if err != nil {
		panic(err)
	}
	a.Status = model.StatusPublished
	return a
}
