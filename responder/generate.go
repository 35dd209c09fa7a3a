package responder

import (
	"context"
	"strings"
	"time"

	apperrors "smart-response/errors"
	"smart-response/llmclient"
	"smart-response/prompts"
	"smart-response/session"
	"smart-response/web/format"
	"smart-response/web/types"

	"go.uber.org/zap"
)

// generate asks the provider for an answer with relevant documents attached.
// A multi-step answer starts a walkthrough and returns its first step.
func (r *Responder) generate(ctx context.Context, msg types.ChatMessage, text, hint string) *Reply {
	if r.limiter != nil && !r.limiter.Allow(msg.AuthorID) {
		r.metrics.RateLimited.Inc()
		return r.notice(RateLimitedText)
	}
	if r.provider == nil {
		r.logger.Error("Generation requested but no provider is configured")
		r.metrics.ProviderErrors.Inc()
		return r.notice(ApologyText)
	}

	docs := r.docs.SelectRelevant(text, r.opts.Filter)
	req := llmclient.Request{
		SystemPrompt: prompts.SystemInstructions(prompts.SystemData{
			SystemPrompt: r.opts.SystemPrompt,
			Profile:      r.opts.Profile,
			Hint:         hint,
		}),
		ContextDocuments: docs,
		UserText:         text,
	}

	start := time.Now()
	out, err := r.provider.Generate(ctx, req)
	r.metrics.GenerateDuration.Observe(time.Since(start).Seconds())
	if err == nil && strings.TrimSpace(out) == "" {
		err = apperrors.WrapError(apperrors.ErrProvider, "empty answer")
	}
	if err != nil {
		r.logger.Error("Generation failed",
			zap.String("provider", r.provider.Name()),
			zap.String("channel_id", msg.ChannelID),
			zap.String("user_id", msg.AuthorID),
			zap.Error(err))
		r.metrics.ProviderErrors.Inc()
		return r.notice(ApologyText)
	}

	steps := format.ParseSteps(format.PreprocessAssistantText(out))
	r.logger.Debug("Generated answer",
		zap.String("provider", r.provider.Name()),
		zap.Int("documents", len(docs)),
		zap.Int("steps", len(steps)))

	reply := r.textReply(ReplyGenerated, steps[0])
	if len(steps) > 1 && r.sessions != nil {
		key := session.Key{ChannelID: msg.ChannelID, UserID: msg.AuthorID}
		if err := r.sessions.Put(key, steps, text); err != nil {
			r.logger.Error("Failed to start walkthrough", zap.String("key", key.String()), zap.Error(err))
			return reply
		}
		reply.HasMoreSteps = true
		reply.Step = 1
		reply.TotalSteps = len(steps)
	}
	return reply
}
