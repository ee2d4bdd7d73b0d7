// Package gateway adapts an ordered turn list into a single request/response
// exchange with the OpenAI chat completion API.
package gateway

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"

	"bartchat/internal/models"
)

// systemPrompt is prepended to every completion request. Callers never see
// or control it.
const systemPrompt = "You are Bart, a helpful and intelligent AI assistant. You are knowledgeable, creative, and always strive to provide accurate and helpful responses."

const titleSystemPrompt = "You are a helpful assistant that generates concise, descriptive titles for chat conversations. Return only the title, nothing else."

const (
	DefaultModel       = "gpt-4o"
	DefaultMaxTokens   = 2000
	DefaultTemperature = 0.7

	// FallbackTitle is returned by GenerateTitle when the exchange fails or
	// produces nothing usable.
	FallbackTitle = "New Chat"
)

// requestTimeout bounds a single completion exchange. The API has no
// server-side deadline, so an unset timeout would block the request
// indefinitely.
const requestTimeout = 60 * time.Second

// Error wraps any transport, authentication, or quota failure from the
// completion provider. Calls are never retried here; resilience belongs to
// higher layers.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("gateway: completion request failed: %v", e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Options overrides the per-request completion parameters. Temperature is a
// pointer so that an explicit zero stays distinguishable from unset.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature *float32
}

type Completion struct {
	Text  string
	Usage models.TokenUsage
}

type Client struct {
	api          *openai.Client
	defaultModel string
}

type Option func(*openai.ClientConfig, *Client)

// WithBaseURL points the client at an alternate OpenAI-compatible endpoint.
func WithBaseURL(baseURL string) Option {
	return func(cfg *openai.ClientConfig, _ *Client) {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(cfg *openai.ClientConfig, _ *Client) {
		cfg.HTTPClient = httpClient
	}
}

func WithModel(model string) Option {
	return func(_ *openai.ClientConfig, c *Client) {
		if model != "" {
			c.defaultModel = model
		}
	}
}

func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gateway: api key must not be empty")
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.HTTPClient = &http.Client{Timeout: requestTimeout}
	c := &Client{defaultModel: DefaultModel}
	for _, opt := range opts {
		opt(&cfg, c)
	}
	c.api = openai.NewClientWithConfig(cfg)
	return c, nil
}

// Complete sends the full ordered message sequence, preceded by the fixed
// persona instruction, and returns the model's reply with token usage.
func (c *Client) Complete(ctx context.Context, msgs []models.ChatMessage, opts Options) (Completion, error) {
	if opts.Model == "" {
		opts.Model = c.defaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	temperature := float32(DefaultTemperature)
	if opts.Temperature != nil {
		temperature = *opts.Temperature
		if temperature == 0 {
			// The wire encoding drops a zero temperature, so send the
			// smallest representable value in its place.
			temperature = math.SmallestNonzeroFloat32
		}
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(msgs)+1)
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, m := range msgs {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       opts.Model,
		Messages:    messages,
		MaxTokens:   opts.MaxTokens,
		Temperature: temperature,
	})
	if err != nil {
		return Completion{}, &Error{Err: err}
	}
	if len(resp.Choices) == 0 {
		return Completion{}, &Error{Err: errors.New("no choices in response")}
	}

	return Completion{
		Text: resp.Choices[0].Message.Content,
		Usage: models.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// GenerateTitle derives a short title from the conversation's first message.
// It is total: any provider failure or empty result falls back to
// FallbackTitle instead of an error.
func (c *Client) GenerateTitle(ctx context.Context, firstMessage string) string {
	// Character counts, not bytes: a multibyte snippet must not be cut
	// mid-rune.
	snippet := firstMessage
	if r := []rune(snippet); len(r) > 200 {
		snippet = string(r[:200])
	}
	prompt := fmt.Sprintf("Generate a short, descriptive title (max 50 characters) for a chat that starts with this message: '%s...'", snippet)

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.defaultModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: titleSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   100,
		Temperature: 0.3,
	})
	if err != nil || len(resp.Choices) == 0 {
		return FallbackTitle
	}

	title := strings.TrimSpace(resp.Choices[0].Message.Content)
	title = strings.NewReplacer(`"`, "", "'", "").Replace(title)
	title = strings.TrimSpace(title)
	if title == "" {
		return FallbackTitle
	}
	if r := []rune(title); len(r) > 50 {
		title = string(r[:47]) + "..."
	}
	return title
}
