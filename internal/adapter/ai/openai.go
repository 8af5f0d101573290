package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/curiolabs/curio-graph/internal/domain"
	"github.com/curiolabs/curio-graph/internal/port"
	"github.com/curiolabs/curio-graph/pkg/metrics"
)

const (
	// DefaultEmbeddingModel is the embedding model used when none is
	// configured.
	DefaultEmbeddingModel = string(openai.SmallEmbedding3)
	// DefaultChatModel is the chat model used for relationship
	// annotation when none is configured.
	DefaultChatModel = "gpt-4o-mini"
)

// OpenAIConfig configures the OpenAI-backed provider.
type OpenAIConfig struct {
	APIKey         string
	EmbeddingModel string
	ChatModel      string
	MaxRetries     int
	RetryDelay     time.Duration
	CallTimeout    time.Duration
}

// OpenAIProvider implements embedding and annotation against the
// OpenAI API. Embedding calls run a bounded retry loop with
// exponential backoff; every upstream call carries its own timeout so
// a stuck connection cannot hold a request open indefinitely.
type OpenAIProvider struct {
	client         *openai.Client
	embeddingModel openai.EmbeddingModel
	chatModel      string
	maxRetries     int
	retryDelay     time.Duration
	callTimeout    time.Duration
}

// NewOpenAIProvider creates a provider from cfg, filling in defaults
// for any unset tuning fields.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultEmbeddingModel
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = DefaultChatModel
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 30 * time.Second
	}

	return &OpenAIProvider{
		client:         openai.NewClient(cfg.APIKey),
		embeddingModel: openai.EmbeddingModel(cfg.EmbeddingModel),
		chatModel:      cfg.ChatModel,
		maxRetries:     cfg.MaxRetries,
		retryDelay:     cfg.RetryDelay,
		callTimeout:    cfg.CallTimeout,
	}, nil
}

// ModelName returns the embedding model identifier.
func (p *OpenAIProvider) ModelName() string {
	return string(p.embeddingModel)
}

// Embed generates an embedding vector for a single text.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &port.ValidationError{Field: "text", Reason: "must not be empty"}
	}

	vectors, err := p.embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for several texts in one request.
func (p *OpenAIProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	for _, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, &port.ValidationError{Field: "texts", Reason: "must not contain empty entries"}
		}
	}
	return p.embed(ctx, texts)
}

func (p *OpenAIProvider) embed(ctx context.Context, input []string) ([][]float32, error) {
	start := time.Now()
	var lastErr error

	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				metrics.EmbeddingCalls.WithLabelValues("openai", "error").Inc()
				return nil, &port.EmbeddingProviderError{Provider: "openai", Err: ctx.Err()}
			case <-time.After(calculateBackoff(p.retryDelay, attempt)):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
		resp, err := p.client.CreateEmbeddings(callCtx, openai.EmbeddingRequestStrings{
			Input: input,
			Model: p.embeddingModel,
		})
		cancel()

		if err != nil {
			lastErr = fmt.Errorf("attempt %d: %w", attempt+1, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		if len(resp.Data) != len(input) {
			lastErr = fmt.Errorf("attempt %d: got %d embeddings for %d inputs", attempt+1, len(resp.Data), len(input))
			continue
		}

		vectors := make([][]float32, len(resp.Data))
		for i, d := range resp.Data {
			vectors[i] = d.Embedding
		}
		metrics.EmbeddingCalls.WithLabelValues("openai", "ok").Inc()
		metrics.EmbeddingDuration.WithLabelValues("openai").Observe(time.Since(start).Seconds())
		return vectors, nil
	}

	metrics.EmbeddingCalls.WithLabelValues("openai", "error").Inc()
	return nil, &port.EmbeddingProviderError{Provider: "openai", Err: lastErr}
}

// Annotate describes the relationship between two posts. The model is
// only consulted above the moderate similarity band; below it the
// canned label is already the whole story. A model failure degrades to
// the canned label rather than failing the edge, unless the caller's
// context is already done.
func (p *OpenAIProvider) Annotate(ctx context.Context, a, b domain.Post, similarity float64) (string, error) {
	if similarity <= modelConsultThreshold {
		return bandLabel(similarity), nil
	}

	text, err := p.complete(ctx, annotateSystemPrompt, annotateUserPrompt(a, b), annotateMaxTokens)
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
func (p *OpenAIProvider) Compare(ctx context.Context, a, b domain.Post) (string, error) {
	text, err := p.complete(ctx, compareSystemPrompt, compareUserPrompt(a, b), compareMaxTokens)
	if err != nil {
		return "", &port.AnnotationServiceError{Err: err}
	}
	return text, nil
}

func (p *OpenAIProvider) complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
		Model: p.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: no choices returned")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
