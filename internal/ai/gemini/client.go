// internal/ai/gemini/client.go
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"wastematch/internal/common/config"
	"wastematch/internal/common/logger"
	"wastematch/internal/common/metrics"
)

// Client wraps the Gemini API for embedding generation and match
// scoring.
type Client struct {
	client         *genai.Client
	embeddingModel string
	scoringModel   string
	temperature    float32
	logger         logger.Logger
}

// NewClient validates the configuration and constructs a Gemini client.
// A missing API key is a configuration error; callers that can run
// degraded should construct lazily and tolerate a nil client.
func NewClient(ctx context.Context, cfg config.GeminiConfig, log logger.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &Client{
		client:         client,
		embeddingModel: cfg.EmbeddingModel,
		scoringModel:   cfg.ScoringModel,
		temperature:    float32(cfg.Temperature),
		logger:         log,
	}, nil
}

// EmbedText turns a text description into a fixed-length vector.
//
// Any failure (nil client, blank input, service error, empty response)
// degrades to an empty vector instead of an error: callers treat "no
// embedding available" as a soft condition with its own fallback path.
// A single call is attempted, no retries.
func (c *Client) EmbedText(ctx context.Context, text string) []float64 {
	if c == nil || c.client == nil {
		metrics.EmbeddingRequests.WithLabelValues("empty").Inc()
		return nil
	}
	if strings.TrimSpace(text) == "" {
		c.logger.Warn("embedding requested for blank text", nil)
		metrics.EmbeddingRequests.WithLabelValues("empty").Inc()
		return nil
	}

	resp, err := c.client.Models.EmbedContent(ctx, c.embeddingModel, genai.Text(text), nil)
	if err != nil {
		c.logger.Warn("embedding call failed", map[string]interface{}{
			"model": c.embeddingModel,
			"error": err.Error(),
		})
		metrics.EmbeddingRequests.WithLabelValues("error").Inc()
		return nil
	}

	if resp == nil || len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		metrics.EmbeddingRequests.WithLabelValues("empty").Inc()
		return nil
	}

	values := resp.Embeddings[0].Values
	vector := make([]float64, len(values))
	for i, v := range values {
		vector[i] = float64(v)
	}
	metrics.EmbeddingRequests.WithLabelValues("ok").Inc()
	return vector
}

// GenerateContent sends a single prompt to the scoring model and
// concatenates the text parts of the first candidate.
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("gemini: client not configured")
	}

	temperature := c.temperature
	cfg := &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.scoringModel, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: generate content: %w", err)
	}

	var builder strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part == nil {
				continue
			}
			builder.WriteString(part.Text)
		}
	}

	out := builder.String()
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("gemini: model %s returned no text", c.scoringModel)
	}
	return out, nil
}
