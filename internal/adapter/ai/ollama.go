package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/curiolabs/curio-graph/internal/domain"
	"github.com/curiolabs/curio-graph/internal/port"
	"github.com/curiolabs/curio-graph/pkg/metrics"
)

// OllamaEndpointConfig holds the configuration for a single Ollama endpoint.
type OllamaEndpointConfig struct {
	BaseURL string // e.g. http://localhost:11434 or https://api.ollama.com
	Model   string // e.g. bge-m3, qwen3
	Token   string // Bearer token for Ollama Cloud (empty = no auth)
}

// OllamaProvider implements embedding and annotation using the Ollama
// REST API. Supports separate endpoints for embed vs chat (different
// URLs, models, and tokens). Embedding calls run a bounded retry loop
// with exponential backoff.
type OllamaProvider struct {
	embedCfg    OllamaEndpointConfig
	chatCfg     OllamaEndpointConfig
	httpClient  *http.Client
	maxRetries  int
	retryDelay  time.Duration
	callTimeout time.Duration
}

// NewOllamaProvider creates a new Ollama-backed provider with separate
// embed/chat configs.
func NewOllamaProvider(embed, chat OllamaEndpointConfig) *OllamaProvider {
	return &OllamaProvider{
		embedCfg:    embed,
		chatCfg:     chat,
		httpClient:  &http.Client{},
		maxRetries:  3,
		retryDelay:  2 * time.Second,
		callTimeout: 60 * time.Second,
	}
}

// ModelName returns the embedding model identifier.
func (o *OllamaProvider) ModelName() string {
	return o.embedCfg.Model
}

// Embed generates a vector embedding for the given text.
func (o *OllamaProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &port.ValidationError{Field: "text", Reason: "must not be empty"}
	}

	vectors, err := o.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one call.
func (o *OllamaProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for _, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, &port.ValidationError{Field: "texts", Reason: "must not contain empty entries"}
		}
	}
	return o.embed(ctx, texts)
}

func (o *OllamaProvider) embed(ctx context.Context, input []string) ([][]float32, error) {
	start := time.Now()

	payload := map[string]interface{}{
		"model": o.embedCfg.Model,
		"input": input,
	}

	var lastErr error
	for attempt := 0; attempt <= o.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				metrics.EmbeddingCalls.WithLabelValues("ollama", "error").Inc()
				return nil, &port.EmbeddingProviderError{Provider: "ollama", Err: ctx.Err()}
			case <-time.After(calculateBackoff(o.retryDelay, attempt)):
			}
		}

		body, err := o.post(ctx, o.embedCfg, "/api/embed", payload)
		if err != nil {
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		var resp struct {
			Embeddings [][]float32 `json:"embeddings"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			lastErr = fmt.Errorf("attempt %d: decode: %w", attempt+1, err)
			continue
		}
		if len(resp.Embeddings) != len(input) {
			lastErr = fmt.Errorf("attempt %d: got %d embeddings for %d inputs", attempt+1, len(resp.Embeddings), len(input))
			continue
		}

		metrics.EmbeddingCalls.WithLabelValues("ollama", "ok").Inc()
		metrics.EmbeddingDuration.WithLabelValues("ollama").Observe(time.Since(start).Seconds())
		return resp.Embeddings, nil
	}

	metrics.EmbeddingCalls.WithLabelValues("ollama", "error").Inc()
	return nil, &port.EmbeddingProviderError{Provider: "ollama", Err: lastErr}
}

// Annotate describes the relationship between two posts, consulting
// the chat model only above the moderate similarity band. A model
// failure degrades to the canned band label unless the caller's
// context is already done.
func (o *OllamaProvider) Annotate(ctx context.Context, a, b domain.Post, similarity float64) (string, error) {
	if similarity <= modelConsultThreshold {
		return bandLabel(similarity), nil
	}

	text, err := o.chat(ctx, annotateSystemPrompt, annotateUserPrompt(a, b))
	if err != nil {
		if ctx.Err() != nil {
			return "", &port.AnnotationServiceError{Err: err}
		}
		slog.Warn("annotation model call failed, using band label", "error", err)
		return bandLabel(similarity), nil
	}
	return text, nil
}

// Compare produces a structured comparison of two posts.
func (o *OllamaProvider) Compare(ctx context.Context, a, b domain.Post) (string, error) {
	text, err := o.chat(ctx, compareSystemPrompt, compareUserPrompt(a, b))
	if err != nil {
		return "", &port.AnnotationServiceError{Err: err}
	}
	return text, nil
}

func (o *OllamaProvider) chat(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	payload := map[string]interface{}{
		"model": o.chatCfg.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userPrompt},
		},
		"stream": false,
	}

	body, err := o.post(ctx, o.chatCfg, "/api/chat", payload)
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}

	var resp struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("ollama chat decode: %w", err)
	}

	return strings.TrimSpace(resp.Message.Content), nil
}

// post is a helper for POST requests to an Ollama endpoint (with
// optional bearer token). Each call carries its own timeout.
func (o *OllamaProvider) post(ctx context.Context, cfg OllamaEndpointConfig, path string, payload interface{}) ([]byte, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, o.callTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, cfg.BaseURL+path, bytes.NewReader(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama API error (%d): %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}
