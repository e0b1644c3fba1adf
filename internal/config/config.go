package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Quota      QuotaConfig      `yaml:"quota" mapstructure:"quota"`
	Advisor    AdvisorConfig    `yaml:"advisor" mapstructure:"advisor"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
	// Model runs deterministic validation scoring.
	Model string `yaml:"model" mapstructure:"model"`
	// CreativeModel runs naming, idea generation and prompt enhancement.
	CreativeModel       string `yaml:"creative_model" mapstructure:"creative_model"`
	MaxBatchSize        int    `yaml:"max_batch_size" mapstructure:"max_batch_size"`
	SmallBatchThreshold int    `yaml:"small_batch_threshold" mapstructure:"small_batch_threshold"`
}

// PerplexityConfig holds the grounding-research API settings.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// NotionConfig holds the optional validation-report publishing target.
type NotionConfig struct {
	Token    string `yaml:"token" mapstructure:"token"`
	ReportDB string `yaml:"report_db" mapstructure:"report_db"`
}

// QuotaConfig holds the daily ceilings for rate-limited operations. The
// ledger itself is mechanism; the ceiling values live here, with the callers.
type QuotaConfig struct {
	DailyEnhancements int `yaml:"daily_enhancements" mapstructure:"daily_enhancements"`
	DailyValidations  int `yaml:"daily_validations" mapstructure:"daily_validations"`
}

// AdvisorConfig tunes the upstream model calls.
type AdvisorConfig struct {
	RequestTimeoutSecs  int `yaml:"request_timeout_secs" mapstructure:"request_timeout_secs"`
	ResearchTimeoutSecs int `yaml:"research_timeout_secs" mapstructure:"research_timeout_secs"`
	MaxRetries          int `yaml:"max_retries" mapstructure:"max_retries"`
	// MaxRounds bounds enhancement round trips so a model that never
	// signals done cannot hold a session open forever.
	MaxRounds int `yaml:"max_rounds" mapstructure:"max_rounds"`
	// PromptPack optionally points at a YAML file overriding the built-in
	// system prompts.
	PromptPack string `yaml:"prompt_pack" mapstructure:"prompt_pack"`
}

// BatchConfig configures bulk validation.
type BatchConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("IDEAFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "ideaforge.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.creative_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.max_batch_size", 100)
	v.SetDefault("anthropic.small_batch_threshold", 3)
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("quota.daily_enhancements", 3)
	v.SetDefault("quota.daily_validations", 3)
	v.SetDefault("advisor.request_timeout_secs", 90)
	v.SetDefault("advisor.research_timeout_secs", 45)
	v.SetDefault("advisor.max_retries", 2)
	v.SetDefault("advisor.max_rounds", 8)
	v.SetDefault("batch.max_concurrent", 4)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration is sufficient for the given mode.
// Modes: "serve" (HTTP API), "advisor" (any model-backed command), "batch"
// (bulk validation), "notion" (report publishing).
func (c *Config) Validate(mode string) error {
	var missing []string

	requireAdvisor := func() {
		if c.Anthropic.Key == "" {
			missing = append(missing, "anthropic.key is required")
		}
		if c.Store.DatabaseURL == "" {
			missing = append(missing, "store.database_url is required")
		}
		if c.Advisor.MaxRounds < 1 || c.Advisor.MaxRounds > 20 {
			missing = append(missing, "advisor.max_rounds must be between 1 and 20")
		}
		if c.Advisor.MaxRetries < 0 || c.Advisor.MaxRetries > 5 {
			missing = append(missing, "advisor.max_retries must be between 0 and 5")
		}
	}

	switch mode {
	case "serve":
		requireAdvisor()
		if c.Server.Port <= 0 {
			missing = append(missing, "server.port must be > 0")
		}
	case "advisor":
		requireAdvisor()
	case "batch":
		requireAdvisor()
		if c.Batch.MaxConcurrent < 1 || c.Batch.MaxConcurrent > 32 {
			missing = append(missing, "batch.max_concurrent must be between 1 and 32")
		}
	case "notion":
		if c.Notion.Token == "" {
			missing = append(missing, "notion.token is required")
		}
		if c.Notion.ReportDB == "" {
			missing = append(missing, "notion.report_db is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(missing) > 0 {
		return eris.New("config: " + strings.Join(missing, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
