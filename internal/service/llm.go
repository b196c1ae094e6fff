package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/go-resty/resty/v2"

	"mhp-content/config"
	"mhp-content/internal/logger"
)

var ErrEmptyResponse = errors.New("no response from LLM")

// TextGenerator is the chat-completion side of the LLM.
type TextGenerator interface {
	Complete(ctx context.Context, system, user string, opts ...ChatOption) (string, error)
}

// Embedder turns texts into embedding vectors, one per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, inputs []string) ([][]float32, error)
}

type LLMService struct {
	client *resty.Client
	cfg    config.LLMConfig
	log    *logger.Logger
}

type ChatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

type ResponseFormat struct {
	Type string `json:"type"`
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type ModelsResponse struct {
	Data []struct {
		ID      string `json:"id"`
		Object  string `json:"object"`
		Created int64  `json:"created"`
		OwnedBy string `json:"owned_by"`
	} `json:"data"`
}

type EmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type EmbeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// ChatOption adjusts a single chat request.
type ChatOption func(*ChatRequest)

// WithJSONResponse asks the model for a single JSON object.
func WithJSONResponse() ChatOption {
	return func(r *ChatRequest) { r.ResponseFormat = &ResponseFormat{Type: "json_object"} }
}

func WithTemperature(t float64) ChatOption {
	return func(r *ChatRequest) { r.Temperature = &t }
}

func WithMaxTokens(n int) ChatOption {
	return func(r *ChatRequest) { r.MaxTokens = n }
}

// WithModel overrides the configured chat model; an empty name is ignored.
func WithModel(name string) ChatOption {
	return func(r *ChatRequest) {
		if name != "" {
			r.Model = name
		}
	}
}

func NewLLMService(cfg config.LLMConfig, log *logger.Logger) *LLMService {
	client := resty.New().
		SetBaseURL(cfg.ApiURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetAuthToken(cfg.ApiKey)
	return &LLMService{client: client, cfg: cfg, log: log.With("service", "LLMService")}
}

// Complete sends one chat completion and returns the first choice's content.
func (s *LLMService) Complete(ctx context.Context, system, user string, opts ...ChatOption) (string, error) {
	req := ChatRequest{Model: s.cfg.Model}
	if system != "" {
		req.Messages = append(req.Messages, Message{Role: "system", Content: system})
	}
	req.Messages = append(req.Messages, Message{Role: "user", Content: user})
	for _, opt := range opts {
		opt(&req)
	}

	var out ChatResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&apiError{}).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat request failed: %w", err)
	}
	if err := responseError(resp); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	s.log.Debug("chat completion", "model", req.Model, "status", resp.StatusCode())
	return out.Choices[0].Message.Content, nil
}

// Embed requests embeddings for inputs using the configured embedding model.
func (s *LLMService) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	var out EmbeddingResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(EmbeddingRequest{Model: s.cfg.EmbeddingModel, Input: inputs}).
		SetResult(&out).
		SetError(&apiError{}).
		Post("/embeddings")
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if err := responseError(resp); err != nil {
		return nil, err
	}
	if len(out.Data) != len(inputs) {
		return nil, fmt.Errorf("embedding response has %d vectors for %d inputs", len(out.Data), len(inputs))
	}
	sort.Slice(out.Data, func(i, j int) bool { return out.Data[i].Index < out.Data[j].Index })
	vectors := make([][]float32, len(out.Data))
	for i, d := range out.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

// GetModels lists the model ids the API offers.
func (s *LLMService) GetModels(ctx context.Context) ([]string, error) {
	var out ModelsResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&apiError{}).
		Get("/models")
	if err != nil {
		return nil, fmt.Errorf("models request failed: %w", err)
	}
	if err := responseError(resp); err != nil {
		return nil, err
	}
	models := make([]string, 0, len(out.Data))
	for _, m := range out.Data {
		models = append(models, m.ID)
	}
	return models, nil
}

// TestConnection checks the configuration and sends a one-word prompt.
func (s *LLMService) TestConnection(ctx context.Context) (string, error) {
	switch {
	case s.cfg.ApiURL == "":
		return "", errors.New("API URL is not configured")
	case s.cfg.ApiKey == "":
		return "", errors.New("API key is not configured")
	case s.cfg.Model == "":
		return "", errors.New("model is not configured")
	}
	return s.Complete(ctx, "", "Hi")
}

func responseError(resp *resty.Response) error {
	if !resp.IsError() {
		return nil
	}
	if e, ok := resp.Error().(*apiError); ok && e.Error.Message != "" {
		return fmt.Errorf("API error (%d): %s", resp.StatusCode(), e.Error.Message)
	}
	return fmt.Errorf("API error (%d): %s", resp.StatusCode(), resp.String())
}
