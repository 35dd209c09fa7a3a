package llmclient

import (
	"context"
	"fmt"
	"strings"

	"smart-response/config"
	apperrors "smart-response/errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicMaxTokens = 1024

// AnthropicClient generates answers with the Messages API.
type AnthropicClient struct {
	client    anthropic.Client
	model     string
	maxTokens int64
}

func NewAnthropicClient(cfg *config.Config) *AnthropicClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.AIAPIKey),
		option.WithMaxRetries(max(cfg.MaxRetries, 0)),
	}
	if cfg.AIBaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.AIBaseURL))
	}
	if cfg.LLMRequestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.LLMRequestTimeout))
	}
	maxTokens := int64(cfg.AIMaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}
	return &AnthropicClient{
		client:    anthropic.NewClient(opts...),
		model:     cfg.AIModel,
		maxTokens: maxTokens,
	}
}

func (c *AnthropicClient) Name() string { return "anthropic" }

func (c *AnthropicClient) Generate(ctx context.Context, req Request) (string, error) {
	system := []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	if docs := DocumentsMessage(req.ContextDocuments); docs != "" {
		system = append(system, anthropic.TextBlockParam{Text: docs})
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    system,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserText)),
		},
	})
	if err != nil {
		return "", apperrors.Join(apperrors.ErrProvider, fmt.Errorf("anthropic messages: %w", err))
	}

	var out strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	return out.String(), nil
}
