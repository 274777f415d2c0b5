package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIClient calls an OpenAI-compatible Chat Completions API, such as the
// Hugging Face inference router.
type OpenAIClient struct {
	model   openai.ChatModel
	client  *openai.Client
	timeout time.Duration
	params  Params
}

// Params tunes generation.
type Params struct {
	Temperature float64
	TopP        float64
	MaxTokens   int64
}

// Options configures NewOpenAIClient. Zero values fall back to defaults.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	Params     Params
}

const (
	DefaultBaseURL = "https://router.huggingface.co/v1"
	DefaultModel   = "meta-llama/Llama-3.2-3B-Instruct"

	defaultChatTimeout = 30 * time.Second
)

// DefaultParams mirror the sampling settings the planner was tuned with.
var DefaultParams = Params{Temperature: 0.7, TopP: 0.9, MaxTokens: 500}

// NewOpenAIClient builds a client for the configured endpoint. An empty API key
// yields a client whose calls fail with ErrNotConfigured so callers fall back.
func NewOpenAIClient(opts Options) (*OpenAIClient, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultChatTimeout
	}
	if opts.Params == (Params{}) {
		opts.Params = DefaultParams
	}
	if opts.MaxRetries < 0 {
		return nil, fmt.Errorf("max retries must not be negative")
	}
	c := &OpenAIClient{
		model:   openai.ChatModel(opts.Model),
		timeout: opts.Timeout,
		params:  opts.Params,
	}
	if opts.APIKey == "" {
		return c, nil
	}
	cli := openai.NewClient(
		option.WithAPIKey(opts.APIKey),
		option.WithBaseURL(opts.BaseURL),
		option.WithMaxRetries(opts.MaxRetries),
	)
	c.client = &cli
	return c, nil
}

func (c *OpenAIClient) Model() string {
	return string(c.model)
}

func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	if c == nil || c.client == nil {
		return "", ErrNotConfigured
	}
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Chat.Completions.New(reqCtx, openai.ChatCompletionNewParams{
		Model:       c.model,
		Messages:    buildMessages(system, user),
		Temperature: openai.Float(c.params.Temperature),
		TopP:        openai.Float(c.params.TopP),
		MaxTokens:   openai.Int(c.params.MaxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrInsufficientResponse)
	}
	return checkResponse(resp.Choices[0].Message.Content)
}

// checkResponse rejects replies too short to be a useful meal plan.
func checkResponse(content string) (string, error) {
	text := strings.TrimSpace(content)
	if len(text) < MinResponseLength {
		return "", fmt.Errorf("%w: %d characters", ErrInsufficientResponse, len(text))
	}
	return text, nil
}

func buildMessages(system, user string) []openai.ChatCompletionMessageParamUnion {
	return []openai.ChatCompletionMessageParamUnion{
		{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(system),
				},
			},
		},
		{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfString: openai.String(user),
				},
			},
		},
	}
}
