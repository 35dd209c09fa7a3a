package responder

import (
	"context"
	"strings"
	"sync/atomic"

	"smart-response/config"
	apperrors "smart-response/errors"
	"smart-response/llmclient"
	"smart-response/matcher"
	"smart-response/rag"
	"smart-response/ratelimit"
	"smart-response/session"
	"smart-response/utils"
	"smart-response/web/types"

	"go.uber.org/zap"
)

// InteractionRecorder persists answered messages for operators.
type InteractionRecorder interface {
	RecordInteraction(ctx context.Context, in types.Interaction) error
}

// Options tune generation and delivery.
type Options struct {
	SystemPrompt     string
	Profile          string
	MaxMessageLength int
	Filter           rag.Filter
}

// Deps are the collaborators a Responder orchestrates. Limiter, Recorder and
// Metrics are optional.
type Deps struct {
	Triggers *config.TriggerSet
	Matcher  *matcher.Matcher
	Docs     *rag.DocumentStore
	Provider llmclient.Provider
	Sessions *session.Store
	Limiter  *ratelimit.Limiter
	Recorder InteractionRecorder
	Metrics  *Metrics
	Logger   *zap.Logger
}

// Responder decides how to answer each message and pages multi-step answers.
type Responder struct {
	triggers *config.TriggerSet
	matcher  *matcher.Matcher
	docs     *rag.DocumentStore
	provider llmclient.Provider
	sessions *session.Store
	limiter  *ratelimit.Limiter
	recorder InteractionRecorder
	metrics  *Metrics
	opts     Options
	logger   *zap.Logger
	botID    atomic.Value // string
}

func New(deps Deps, opts Options) *Responder {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Triggers == nil {
		deps.Triggers = &config.TriggerSet{}
	}
	if deps.Matcher == nil {
		deps.Matcher = matcher.New(deps.Triggers.Phrases, nil, deps.Logger)
	}
	if deps.Docs == nil {
		deps.Docs = rag.NewDocumentStore(deps.Logger)
	}
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics(nil, nil)
	}
	if opts.MaxMessageLength <= 0 {
		opts.MaxMessageLength = 2000
	}
	if opts.Filter.Limit == 0 {
		opts.Filter = rag.DefaultFilter()
	}

	deps.Logger.Info("Responder initialized",
		zap.Int("triggers", deps.Matcher.Len()),
		zap.Int("documents", deps.Docs.Len()),
		zap.Bool("generate_fallback", deps.Triggers.GenerateFallback),
		zap.Bool("require_mention", deps.Triggers.RequireMention))

	r := &Responder{
		triggers: deps.Triggers,
		matcher:  deps.Matcher,
		docs:     deps.Docs,
		provider: deps.Provider,
		sessions: deps.Sessions,
		limiter:  deps.Limiter,
		recorder: deps.Recorder,
		metrics:  deps.Metrics,
		opts:     opts,
		logger:   deps.Logger,
	}
	r.botID.Store("")
	return r
}

// SetBotID records the bot's own user id once the platform reports it.
func (r *Responder) SetBotID(id string) { r.botID.Store(id) }

// BotID returns the bot's user id, or "" before it is known.
func (r *Responder) BotID() string { return r.botID.Load().(string) }

// Matcher exposes the trigger matcher for diagnostics.
func (r *Responder) Matcher() *matcher.Matcher { return r.matcher }

// Process answers a message. It returns nil when the message is ignored:
// gated out, empty after cleaning, or unmatched with generation disabled.
// Provider failures become an apology reply, never an error.
func (r *Responder) Process(ctx context.Context, msg types.ChatMessage) *Reply {
	if !r.ShouldHandle(msg) {
		return nil
	}
	clean := CleanContent(msg.Content, r.BotID())
	if clean == "" {
		return nil
	}

	r.logger.Debug("Processing message",
		zap.String("channel_id", msg.ChannelID),
		zap.String("user_id", msg.AuthorID),
		zap.String("content", utils.Truncate(clean, 120)))

	match := r.matcher.FindBestMatchIn(strings.ToLower(clean), msg.ChannelID, msg.CategoryID)

	var reply *Reply
	switch {
	case match != nil && match.Trigger.Type == config.FixedText:
		reply = r.textReply(ReplyText, match.Trigger.Response)
	case match != nil && match.Trigger.Type == config.RichCard:
		reply = &Reply{Kind: ReplyCard, Card: match.Trigger.Embed}
	case match != nil && match.Trigger.Type == config.Generate:
		reply = r.generate(ctx, msg, clean, match.Trigger.Response)
	case r.triggers.GenerateFallback:
		reply = r.generate(ctx, msg, clean, "")
	default:
		r.logger.Debug("No trigger matched and generation is disabled",
			zap.String("channel_id", msg.ChannelID))
		return nil
	}

	if match != nil {
		reply.TriggerID = match.Trigger.ID
	}
	r.metrics.Replies.WithLabelValues(string(reply.Kind)).Inc()
	r.record(ctx, msg, clean, reply)
	return reply
}

// Advance returns the next step of the caller's walkthrough, or a short
// notice when there is none.
func (r *Responder) Advance(ctx context.Context, key session.Key) *Reply {
	if r.sessions == nil {
		r.metrics.Advances.WithLabelValues("not_found").Inc()
		return r.notice(NoContextText)
	}

	step, err := r.sessions.Advance(key)
	switch {
	case err == nil:
	case apperrors.IsSessionExpired(err):
		r.metrics.Advances.WithLabelValues("expired").Inc()
		return r.notice(TimedOutText)
	case apperrors.IsNotFound(err):
		r.metrics.Advances.WithLabelValues("not_found").Inc()
		return r.notice(NoContextText)
	default:
		r.logger.Error("Failed to advance walkthrough", zap.String("key", key.String()), zap.Error(err))
		r.metrics.Advances.WithLabelValues("error").Inc()
		return r.notice(ProgressErrorText)
	}

	r.metrics.Advances.WithLabelValues("ok").Inc()
	reply := r.textReply(ReplyStep, step.Text)
	reply.HasMoreSteps = step.HasMore
	reply.Step = step.Number
	reply.TotalSteps = step.Total
	return reply
}

func (r *Responder) record(ctx context.Context, msg types.ChatMessage, query string, reply *Reply) {
	if r.recorder == nil {
		return
	}
	in := types.Interaction{
		ChannelID: msg.ChannelID,
		UserID:    msg.AuthorID,
		Query:     query,
		TriggerID: reply.TriggerID,
		Kind:      string(reply.Kind),
	}
	if reply.Kind == ReplyGenerated && reply.TotalSteps > 0 {
		if sess, ok := r.sessions.Peek(session.Key{ChannelID: msg.ChannelID, UserID: msg.AuthorID}); ok {
			in.Steps = sess.Steps
		}
	}
	if err := r.recorder.RecordInteraction(ctx, in); err != nil {
		r.logger.Warn("Failed to record interaction", zap.Error(err))
	}
}

// Match reports the trigger a message would hit in a channel, without
// answering it. Scoped triggers only match inside their channels, as in
// Process.
func (r *Responder) Match(text, channelID, categoryID string) *matcher.Match {
	clean := strings.ToLower(CleanContent(text, r.BotID()))
	if clean == "" {
		return nil
	}
	return r.matcher.FindBestMatchIn(clean, channelID, categoryID)
}
