package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

type anthropicClient struct {
	client anthropic.Client
	model  string
	cfg    Config
}

func newAnthropicClient(cfg Config) (Client, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = "claude-sonnet-4-5"
	}

	return &anthropicClient{
		client: anthropic.NewClient(opts...),
		model:  model,
		cfg:    cfg,
	}, nil
}

// Chat asks for JSON in the prompt and decodes the reply. Anthropic has no
// strict response-format parameter, so the reply is run through ExtractJSON
// to strip fences and repair truncation before unmarshalling.
func (c *anthropicClient) Chat(ctx context.Context, req Request, result any) (*Response, error) {
	system := req.SystemPrompt + "\nAlways respond with valid JSON only. No prose outside the JSON structure."

	resp, err := c.message(ctx, system, req)
	if err != nil {
		return nil, err
	}

	text := messageText(resp)
	cleaned := ExtractJSON(text)
	if err := json.Unmarshal([]byte(cleaned), result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &Response{
		PromptTokens:     int(resp.Usage.InputTokens),
		CompletionTokens: int(resp.Usage.OutputTokens),
	}, nil
}

func (c *anthropicClient) Complete(ctx context.Context, req Request) (string, error) {
	resp, err := c.message(ctx, req.SystemPrompt, req)
	if err != nil {
		return "", err
	}
	return messageText(resp), nil
}

func (c *anthropicClient) Model() string {
	return c.model
}

func (c *anthropicClient) message(ctx context.Context, system string, req Request) (*anthropic.Message, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.cfg.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = 1024
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	start := time.Now()
	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic message: %w", err)
	}

	slog.DebugContext(ctx, "llm message completed",
		"model", c.model,
		"duration_ms", time.Since(start).Milliseconds(),
		"input_tokens", resp.Usage.InputTokens,
		"output_tokens", resp.Usage.OutputTokens)

	return resp, nil
}

func messageText(msg *anthropic.Message) string {
	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text
		}
	}
	return ""
}
