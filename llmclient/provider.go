package llmclient

import (
	"context"
	"strings"

	"smart-response/config"
	apperrors "smart-response/errors"
	"smart-response/prompts"
	"smart-response/web/types"

	"go.uber.org/zap"
)

// Vendor base URLs for OpenAI-compatible providers.
const (
	GroqBaseURL       = "https://api.groq.com/openai/v1"
	MistralBaseURL    = "https://api.mistral.ai/v1"
	TogetherAIBaseURL = "https://api.together.xyz/v1"
)

// Request is everything a provider needs for one generation.
type Request struct {
	SystemPrompt     string
	ContextDocuments []string
	UserText         string
}

// Provider generates an answer. Implementations wrap failures in
// errors.ErrProvider.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// BuildMessages lays out the conversation sent to chat-style backends: the
// system prompt, then the relevant documents as a second system message when
// there are any, then the user's text.
func BuildMessages(req Request) []types.AgentMessage {
	messages := []types.AgentMessage{{Role: "system", Content: req.SystemPrompt}}
	if docs := DocumentsMessage(req.ContextDocuments); docs != "" {
		messages = append(messages, types.AgentMessage{Role: "system", Content: docs})
	}
	return append(messages, types.AgentMessage{Role: "user", Content: req.UserText})
}

// DocumentsMessage renders context documents, or "" when there are none.
func DocumentsMessage(docs []string) string {
	if len(docs) == 0 {
		return ""
	}
	return prompts.DocumentsPreamble() + strings.Join(docs, "\n---\n")
}

// New builds the provider named by cfg.AIProvider.
func New(cfg *config.Config, logger *zap.Logger) (Provider, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch strings.ToLower(cfg.AIProvider) {
	case "openai":
		return NewOpenAIClient("openai", cfg, cfg.AIBaseURL), nil
	case "groq":
		return NewOpenAIClient("groq", cfg, firstNonEmpty(cfg.AIBaseURL, GroqBaseURL)), nil
	case "mistral":
		return NewOpenAIClient("mistral", cfg, firstNonEmpty(cfg.AIBaseURL, MistralBaseURL)), nil
	case "togetherai":
		return NewOpenAIClient("togetherai", cfg, firstNonEmpty(cfg.AIBaseURL, TogetherAIBaseURL)), nil
	case "anthropic":
		return NewAnthropicClient(cfg), nil
	case "http":
		return NewHTTPClient(cfg, logger), nil
	default:
		return nil, apperrors.WrapErrorf(apperrors.ErrConfiguration, "unsupported AI provider %q", cfg.AIProvider)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
