package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"smart-response/config"
	"smart-response/database"
	"smart-response/discord"
	apperrors "smart-response/errors"
	"smart-response/llmclient"
	"smart-response/matcher"
	"smart-response/rag"
	"smart-response/ratelimit"
	"smart-response/responder"
	"smart-response/session"
	"smart-response/utils"
	"smart-response/web"
	"smart-response/web/handlers"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const stopTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the Discord bot and the HTTP API",
		Long: `Start the responder on every enabled surface (DISCORD_ENABLED,
WEB_ENABLED) and run until interrupted.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Initialize logger with default level to load config
	tempLogger, err := config.InitLogger("info", "")
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := loadConfig(cmd, tempLogger)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Re-initialize logger with configured level
	logger, err := config.InitLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to re-initialize logger with configured level: %w", err)
	}
	defer config.Cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.close()

	if err := app.sweeper.Start(); err != nil {
		return apperrors.Join(apperrors.ErrConfiguration, err)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), stopTimeout)
		defer stopCancel()
		app.sweeper.Stop(stopCtx)
	}()

	if app.store != nil && cfg.InteractionRetention > 0 {
		stop, err := scheduleInteractionCleanup(ctx, cfg, app.store, logger)
		if err != nil {
			return err
		}
		defer stop()
	}

	if cfg.DiscordEnabled {
		bot := discord.New(cfg.DiscordToken, app.responder, logger)
		if err := bot.Start(ctx); err != nil {
			return err
		}
		defer bot.Stop()
	}

	if !cfg.WebEnabled {
		logger.Info("Responder running. Press Ctrl+C to stop.")
		<-ctx.Done()
		logger.Info("Shutdown signal received, stopping")
		return nil
	}

	deps := web.ServerDeps{
		Responder: app.responder,
		Limiter:   app.limiter,
		Gatherer:  prometheus.DefaultGatherer,
		Logger:    logger,
	}
	if app.store != nil {
		deps.Interactions = app.store
	}
	addr := fmt.Sprintf(":%d", cfg.WebPort)
	if err := web.NewServer(deps).Start(ctx, addr); err != nil {
		logger.Error("Web server error", zap.Error(err))
		return err
	}
	return nil
}

type app struct {
	responder *responder.Responder
	sessions  *session.Store
	sweeper   *session.Sweeper
	limiter   *ratelimit.Limiter
	store     *database.PostgresStore
	logger    *zap.Logger
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("Failed to close database", zap.Error(err))
		}
	}
}

// buildApp wires the responder and its collaborators from configuration.
func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	triggers, err := config.LoadTriggers(cfg.TriggersFile)
	if err != nil {
		return nil, err
	}
	m, err := newMatcher(cfg, triggers, logger)
	if err != nil {
		return nil, err
	}

	if err := rag.EnsureDirectories(cfg.InternalDataSources); err != nil {
		logger.Warn("Failed to create document directories", zap.Error(err))
	}
	docs := rag.NewDocumentStore(logger)
	if err := docs.Load(ctx, cfg.InternalDataSources); err != nil {
		logger.Warn("Some documents could not be loaded", zap.Error(err))
	}

	profile, err := utils.ReadOptionalFile(cfg.ProfilePath)
	if err != nil {
		logger.Warn("Failed to read profile", zap.String("path", cfg.ProfilePath), zap.Error(err))
	}

	provider, err := llmclient.New(cfg, logger)
	if err != nil {
		return nil, err
	}

	sessions, err := session.NewStore(logger, cfg.SessionIdleTimeout, cfg.SessionMaxEntries)
	if err != nil {
		return nil, err
	}

	limiter := ratelimit.NewLimiter(ratelimit.Config{
		MessagesPerMinute: cfg.RateLimitMessagesPerMin,
		BurstSize:         cfg.RateLimitBurstSize,
		IdleTTL:           cfg.RateLimitIdleTTL,
	}, logger)

	a := &app{sessions: sessions, limiter: limiter, logger: logger}

	deps := responder.Deps{
		Triggers: triggers,
		Matcher:  m,
		Docs:     docs,
		Provider: provider,
		Sessions: sessions,
		Limiter:  limiter,
		Metrics:  responder.NewMetrics(prometheus.DefaultRegisterer, sessions.Len),
		Logger:   logger,
	}

	if cfg.DatabaseURL != "" {
		store, err := database.NewPostgresStore(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			store.Close()
			return nil, err
		}
		a.store = store
		deps.Recorder = store
	}

	a.responder = responder.New(deps, responder.Options{
		SystemPrompt:     cfg.SystemPrompt,
		Profile:          profile,
		MaxMessageLength: cfg.MaxMessageLength,
		Filter: rag.Filter{
			MinWordLength: cfg.MinQueryWordLength,
			Threshold:     cfg.RelevanceThreshold,
			Limit:         cfg.RelevantDocsLimit,
		},
	})

	a.sweeper = session.NewSweeper(sessions, cfg.SessionSweepSchedule, logger)
	a.sweeper.OnSweep = func(removed int) {
		deps.Metrics.SessionsSwept.Add(float64(removed))
	}
	return a, nil
}

func newMatcher(cfg *config.Config, triggers *config.TriggerSet, logger *zap.Logger) (*matcher.Matcher, error) {
	corpus, err := matcher.NewCorpus(cfg.CorpusMode, cfg.CorpusMaxDocuments)
	if err != nil {
		return nil, err
	}
	return matcher.New(triggers.Phrases, matcher.NewScorer(corpus), logger), nil
}

// scheduleInteractionCleanup prunes the interaction log on a cron schedule.
func scheduleInteractionCleanup(ctx context.Context, cfg *config.Config, store web.InteractionPruner, logger *zap.Logger) (func(), error) {
	cleanup := web.NewCleanupService(store, logger)
	c := cron.New(cron.WithParser(cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)))
	_, err := c.AddFunc(cfg.InteractionCleanupSchedule, func() {
		if _, err := cleanup.CleanupStaleInteractions(ctx, cfg.InteractionRetention); err != nil {
			logger.Error("Interaction log cleanup failed", zap.Error(err))
		}
	})
	if err != nil {
		return nil, apperrors.WrapErrorf(apperrors.ErrConfiguration, "interaction cleanup schedule %q: %v", cfg.InteractionCleanupSchedule, err)
	}
	c.Start()
	return func() { <-c.Stop().Done() }, nil
}

// Compile-time interface verification.
var (
	_ handlers.Responder = (*responder.Responder)(nil)
	_ discord.Responder  = (*responder.Responder)(nil)
)
