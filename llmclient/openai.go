package llmclient

import (
	"context"
	"fmt"

	"smart-response/config"
	apperrors "smart-response/errors"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIClient talks to OpenAI or any vendor exposing the same chat
// completions API.
type OpenAIClient struct {
	name      string
	client    openai.Client
	model     string
	maxTokens int
}

func NewOpenAIClient(name string, cfg *config.Config, baseURL string) *OpenAIClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.AIAPIKey),
		option.WithMaxRetries(max(cfg.MaxRetries, 0)),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if cfg.LLMRequestTimeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.LLMRequestTimeout))
	}
	return &OpenAIClient{
		name:      name,
		client:    openai.NewClient(opts...),
		model:     cfg.AIModel,
		maxTokens: cfg.AIMaxTokens,
	}
}

func (c *OpenAIClient) Name() string { return c.name }

func (c *OpenAIClient) Generate(ctx context.Context, req Request) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	for _, m := range BuildMessages(req) {
		switch m.Role {
		case "system":
			messages = append(messages, openai.SystemMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    openai.ChatModel(c.model),
	}
	if c.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.maxTokens))
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", apperrors.Join(apperrors.ErrProvider, fmt.Errorf("%s chat completion: %w", c.name, err))
	}
	if len(resp.Choices) == 0 {
		return "", apperrors.WrapErrorf(apperrors.ErrProvider, "%s returned no choices", c.name)
	}
	return resp.Choices[0].Message.Content, nil
}
