package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	apperrors "smart-response/errors"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Corpus modes for the term-weighted similarity signal.
const (
	CorpusModePair       = "pair"
	CorpusModeCumulative = "cumulative"
)

// Config holds the application's configuration
type Config struct {
	LogLevel string `mapstructure:"LOG_LEVEL"`
	LogFile  string `mapstructure:"LOG_FILE"`

	TriggersFile string `mapstructure:"TRIGGERS_FILE"`

	AIProvider   string `mapstructure:"AI_PROVIDER"`
	AIModel      string `mapstructure:"AI_MODEL"`
	AIAPIKey     string `mapstructure:"AI_API_KEY"`
	AIBaseURL    string `mapstructure:"AI_BASE_URL"`
	AIMaxTokens  int    `mapstructure:"AI_MAX_TOKENS"`
	SystemPrompt string `mapstructure:"SYSTEM_PROMPT"`
	ProfilePath  string `mapstructure:"PROFILE_PATH"`

	InternalDataSources []string `mapstructure:"INTERNAL_DATA_SOURCES"`
	RelevantDocsLimit   int      `mapstructure:"RELEVANT_DOCS_LIMIT"`
	RelevanceThreshold  float64  `mapstructure:"RELEVANCE_THRESHOLD"`
	MinQueryWordLength  int      `mapstructure:"MIN_QUERY_WORD_LENGTH"`

	SessionIdleTimeout   time.Duration `mapstructure:"SESSION_IDLE_TIMEOUT"`
	SessionSweepSchedule string        `mapstructure:"SESSION_SWEEP_SCHEDULE"`
	SessionMaxEntries    int           `mapstructure:"SESSION_MAX_ENTRIES"`

	CorpusMode         string `mapstructure:"CORPUS_MODE"`
	CorpusMaxDocuments int    `mapstructure:"CORPUS_MAX_DOCUMENTS"`

	MaxMessageLength int `mapstructure:"MAX_MESSAGE_LENGTH"`

	DiscordEnabled bool   `mapstructure:"DISCORD_ENABLED"`
	DiscordToken   string `mapstructure:"DISCORD_TOKEN"`
	WebEnabled     bool   `mapstructure:"WEB_ENABLED"`
	WebPort        int    `mapstructure:"WEB_PORT"`
	DatabaseURL    string `mapstructure:"DATABASE_URL"`

	InteractionRetention       time.Duration `mapstructure:"INTERACTION_RETENTION_DAYS"`
	InteractionCleanupSchedule string       `mapstructure:"INTERACTION_CLEANUP_SCHEDULE"`

	MaxRetries            int           `mapstructure:"MAX_RETRIES"`
	RetryDelaySeconds     time.Duration `mapstructure:"RETRY_DELAY_SECONDS"`
	LLMRequestTimeout     time.Duration `mapstructure:"LLM_REQUEST_TIMEOUT"`
	LLMBackoffMaxSeconds  time.Duration `mapstructure:"LLM_BACKOFF_MAX_SECONDS"`
	LLMBackoffJitterRatio float64       `mapstructure:"LLM_BACKOFF_JITTER_RATIO"`

	RateLimitMessagesPerMin int           `mapstructure:"RATE_LIMIT_MESSAGES_PER_MIN"`
	RateLimitBurstSize      int           `mapstructure:"RATE_LIMIT_BURST_SIZE"`
	RateLimitIdleTTL        time.Duration `mapstructure:"RATE_LIMIT_IDLE_TTL"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("TRIGGERS_FILE", "triggers.yml")
	v.SetDefault("AI_PROVIDER", "openai")
	v.SetDefault("AI_MODEL", "")
	v.SetDefault("AI_API_KEY", "")
	v.SetDefault("AI_BASE_URL", "")
	v.SetDefault("AI_MAX_TOKENS", 1024)
	v.SetDefault("SYSTEM_PROMPT", "You are a helpful assistant for this community.")
	v.SetDefault("PROFILE_PATH", "resources/profile.md")
	v.SetDefault("INTERNAL_DATA_SOURCES", []string{"resources/docs", "resources/wiki", "resources/knowledge_base"})
	v.SetDefault("RELEVANT_DOCS_LIMIT", 3)
	v.SetDefault("RELEVANCE_THRESHOLD", 0.3)
	v.SetDefault("MIN_QUERY_WORD_LENGTH", 4)
	v.SetDefault("SESSION_IDLE_TIMEOUT", 30)
	v.SetDefault("SESSION_SWEEP_SCHEDULE", "@every 5m")
	v.SetDefault("SESSION_MAX_ENTRIES", 10000)
	v.SetDefault("CORPUS_MODE", CorpusModePair)
	v.SetDefault("CORPUS_MAX_DOCUMENTS", 10000)
	v.SetDefault("MAX_MESSAGE_LENGTH", 2000)
	v.SetDefault("DISCORD_ENABLED", true)
	v.SetDefault("DISCORD_TOKEN", "")
	v.SetDefault("WEB_ENABLED", false)
	v.SetDefault("WEB_PORT", 8080)
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("INTERACTION_RETENTION_DAYS", 30)
	v.SetDefault("INTERACTION_CLEANUP_SCHEDULE", "@daily")
	v.SetDefault("MAX_RETRIES", 3)
	v.SetDefault("RETRY_DELAY_SECONDS", 2)
	v.SetDefault("LLM_REQUEST_TIMEOUT", 120)
	v.SetDefault("LLM_BACKOFF_MAX_SECONDS", 30)
	v.SetDefault("LLM_BACKOFF_JITTER_RATIO", 0.1)
	v.SetDefault("RATE_LIMIT_MESSAGES_PER_MIN", 20)
	v.SetDefault("RATE_LIMIT_BURST_SIZE", 5)
	v.SetDefault("RATE_LIMIT_IDLE_TTL", 30)
}

// Load reads config.yaml (or the explicit path), environment variables and
// defaults. A missing file is not an error; a file that cannot be decoded is.
func Load(logger *zap.Logger, path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")        // For running locally
		v.AddConfigPath("../")      // For running from docker subdir
		v.AddConfigPath("./config") // Common config folder
	}
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if logger != nil {
			logger.Warn("Could not read config file, using defaults/env vars", zap.Error(err))
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, apperrors.Join(apperrors.ErrConfiguration, fmt.Errorf("decode config: %w", err))
	}

	config.normalize()
	return &config, nil
}

// MustLoad is Load for bootstrap code paths that cannot continue without config.
func MustLoad(logger *zap.Logger, path string) *Config {
	cfg, err := Load(logger, path)
	if err != nil {
		if logger != nil {
			logger.Fatal("Unable to decode config into struct", zap.Error(err))
		}
		fmt.Fprintf(os.Stderr, "FATAL: Unable to decode config into struct: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func (c *Config) normalize() {
	c.AIProvider = strings.ToLower(strings.TrimSpace(c.AIProvider))
	c.CorpusMode = strings.ToLower(strings.TrimSpace(c.CorpusMode))

	sources := make([]string, 0, len(c.InternalDataSources))
	for _, src := range c.InternalDataSources {
		src = strings.TrimSpace(src)
		if src != "" {
			sources = append(sources, src)
		}
	}
	c.InternalDataSources = sources

	// Convert seconds/minutes to proper time.Duration
	c.SessionIdleTimeout = c.SessionIdleTimeout * time.Minute
	c.RetryDelaySeconds = c.RetryDelaySeconds * time.Second
	c.LLMRequestTimeout = c.LLMRequestTimeout * time.Second
	c.LLMBackoffMaxSeconds = c.LLMBackoffMaxSeconds * time.Second
	c.RateLimitIdleTTL = c.RateLimitIdleTTL * time.Minute
	c.InteractionRetention = c.InteractionRetention * 24 * time.Hour
}

// Validate reports settings that make the service unable to start.
func (c *Config) Validate() error {
	var problems []string

	switch c.AIProvider {
	case "openai", "groq", "mistral", "togetherai", "anthropic":
		if c.AIAPIKey == "" {
			problems = append(problems, "AI_API_KEY is required for provider "+c.AIProvider)
		}
	case "http":
		if c.AIBaseURL == "" {
			problems = append(problems, "AI_BASE_URL is required for the http provider")
		}
	default:
		problems = append(problems, fmt.Sprintf("unsupported AI_PROVIDER %q", c.AIProvider))
	}
	if c.AIModel == "" && c.AIProvider != "http" {
		problems = append(problems, "AI_MODEL is required")
	}
	if c.CorpusMode != CorpusModePair && c.CorpusMode != CorpusModeCumulative {
		problems = append(problems, fmt.Sprintf("unsupported CORPUS_MODE %q", c.CorpusMode))
	}
	if c.SessionIdleTimeout <= 0 {
		problems = append(problems, "SESSION_IDLE_TIMEOUT must be positive")
	}
	if c.SessionMaxEntries <= 0 {
		problems = append(problems, "SESSION_MAX_ENTRIES must be positive")
	}
	if c.MaxMessageLength <= 0 {
		problems = append(problems, "MAX_MESSAGE_LENGTH must be positive")
	}
	if c.DiscordEnabled && c.DiscordToken == "" {
		problems = append(problems, "DISCORD_TOKEN is required when DISCORD_ENABLED is set")
	}
	if !c.DiscordEnabled && !c.WebEnabled {
		problems = append(problems, "at least one of DISCORD_ENABLED or WEB_ENABLED must be set")
	}

	if len(problems) > 0 {
		return apperrors.WrapError(apperrors.ErrConfiguration, strings.Join(problems, "; "))
	}
	return nil
}
