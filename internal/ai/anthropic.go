package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/kbvault/ingestor/pkg/types"
)

// AnthropicConfig holds configuration for the Anthropic client.
type AnthropicConfig struct {
	APIKey  string
	Model   string        // default: claude-haiku-4-5-20251001
	BaseURL string        // default: https://api.anthropic.com
	Timeout time.Duration // default: 60s, applied per call

	// RequestsPerSecond caps the call rate across all concurrent
	// extractions sharing this client. 0 means no limit.
	RequestsPerSecond float64
}

// AnthropicClient implements Backend using the Anthropic Messages API.
// The client is shared between extraction strategies and is safe for
// concurrent use; configuration is fixed at construction.
type AnthropicClient struct {
	cfg            AnthropicConfig
	client         *http.Client
	circuitBreaker *CircuitBreaker
	limiter        *rate.Limiter
}

// NewAnthropicClient creates a new Anthropic client with the given configuration.
func NewAnthropicClient(cfg AnthropicConfig) *AnthropicClient {
	if cfg.Model == "" {
		cfg.Model = "claude-haiku-4-5-20251001"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &AnthropicClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		circuitBreaker: NewCircuitBreaker(),
		limiter:        limiter,
	}
}

// anthropicContentBlock is one block of a multi-part message. Text blocks
// carry prompt text; image and document blocks carry base64 media.
type anthropicContentBlock struct {
	Type   string           `json:"type"`
	Text   string           `json:"text,omitempty"`
	Source *anthropicSource `json:"source,omitempty"`
}

type anthropicSource struct {
	Type      string `json:"type"` // always "base64"
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicMessage struct {
	Role    string                  `json:"role"`
	Content []anthropicContentBlock `json:"content"`
}

// anthropicMessagesRequest is the request body for POST /v1/messages.
type anthropicMessagesRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

// anthropicMessagesResponse is the response body from POST /v1/messages.
type anthropicMessagesResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
}

// Analyze sends content with a modality-appropriate prompt and parses the
// extracted entities from the JSON response.
func (c *AnthropicClient) Analyze(ctx context.Context, req AnalyzeRequest) ([]types.Entity, error) {
	prompt := ExtractionPrompt(req.Kind, req.Content, req.Language, req.EntityTypes)

	blocks := []anthropicContentBlock{}
	if req.Kind == PromptImage || req.Kind == PromptVideo {
		mediaType := req.MediaType
		if mediaType == "" {
			mediaType = "image/jpeg"
		}
		blocks = append(blocks, anthropicContentBlock{
			Type:   "image",
			Source: &anthropicSource{Type: "base64", MediaType: mediaType, Data: req.Content},
		})
	}
	blocks = append(blocks, anthropicContentBlock{Type: "text", Text: prompt})

	raw, err := c.complete(ctx, blocks)
	if err != nil {
		return nil, err
	}

	return ParseEntityResponse(raw, req.EntityTypes)
}

// Transcribe generates a transcript for base64-encoded audio.
func (c *AnthropicClient) Transcribe(ctx context.Context, audioB64, mediaType string) (string, error) {
	if mediaType == "" {
		mediaType = "audio/wav"
	}
	blocks := []anthropicContentBlock{
		{Type: "document", Source: &anthropicSource{Type: "base64", MediaType: mediaType, Data: audioB64}},
		{Type: "text", Text: TranscribePrompt},
	}
	return c.complete(ctx, blocks)
}

// complete sends a single-turn request through the circuit breaker and rate
// limiter and returns the first content block's text.
func (c *AnthropicClient) complete(ctx context.Context, blocks []anthropicContentBlock) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	result, err := c.circuitBreaker.Execute(ctx, func() (interface{}, error) {
		return c.doComplete(ctx, blocks)
	})
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			return "", fmt.Errorf("anthropic circuit breaker open: %w", err)
		}
		return "", err
	}
	return result.(string), nil
}

func (c *AnthropicClient) doComplete(ctx context.Context, blocks []anthropicContentBlock) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	reqBody := anthropicMessagesRequest{
		Model:     c.cfg.Model,
		MaxTokens: 4096,
		Messages: []anthropicMessage{
			{Role: "user", Content: blocks},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.BaseURL+"/v1/messages", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("anthropic returned status %d: %s", resp.StatusCode, string(body))
	}

	var respData anthropicMessagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&respData); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(respData.Content) == 0 {
		return "", fmt.Errorf("anthropic returned empty content")
	}

	return respData.Content[0].Text, nil
}

// Model returns the configured model name.
func (c *AnthropicClient) Model() string {
	return c.cfg.Model
}

// Compile-time assertion.
var _ Backend = (*AnthropicClient)(nil)
