package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/frodopackets/DeathStrandsing/internal/domain"
)

const (
	defaultTimezone = "UTC"
	configPathEnv   = "NEWS_AGENT_CONFIG"

	topicEnv          = "SEARCH_QUERY"
	windowHoursEnv    = "TIME_RANGE_HOURS"
	maxArticlesEnv    = "MAX_ARTICLES"
	verbosityEnv      = "SUMMARY_LENGTH"
	relevanceFloorEnv = "RELEVANCE_FLOOR"
	enrichContentEnv  = "ENRICH_CONTENT"
	providerEnv       = "MODEL_PROVIDER"
	modelEnv          = "MODEL_NAME"
	fallbackModelEnv  = "FALLBACK_MODEL_NAME"
	openAIKeyEnv      = "OPENAI_API_KEY"
	openAIEndpointEnv = "OPENAI_ENDPOINT"
	topicARNEnv       = "SNS_TOPIC_ARN"
	subjectPrefixEnv  = "SUBJECT_PREFIX"
	regionEnv         = "AWS_REGION"
	databaseDSNEnv    = "DATABASE_DSN"
	cronEnv           = "CRON_EXPRESSION"
	timezoneEnv       = "SCHEDULER_TIMEZONE"
	runBudgetEnv      = "RUN_BUDGET_SECONDS"
	logLevelEnv       = "LOG_LEVEL"
	logFormatEnv      = "LOG_FORMAT"
)

const (
	VerbosityShort  = "short"
	VerbosityMedium = "medium"
	VerbosityLong   = "long"

	ProviderBedrock   = "bedrock"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds everything a run needs, resolved before any external call.
type Config struct {
	Agent     AgentConfig     `yaml:"agent"`
	Models    ModelConfig     `yaml:"models"`
	Publish   PublishConfig   `yaml:"publish"`
	Database  DatabaseConfig  `yaml:"database"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Run       RunConfig       `yaml:"run"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// AgentConfig bounds what a single run fetches and summarizes.
type AgentConfig struct {
	Topic          string  `yaml:"topic"`
	WindowHours    int     `yaml:"windowHours"`
	MaxArticles    int     `yaml:"maxArticles"`
	Verbosity      string  `yaml:"verbosity"`
	RelevanceFloor float64 `yaml:"relevanceFloor"`
	EnrichContent  bool    `yaml:"enrichContent"`
}

// ModelConfig selects the inference backend and models.
type ModelConfig struct {
	Provider string       `yaml:"provider"`
	Primary  string       `yaml:"primary"`
	Fallback string       `yaml:"fallback"`
	OpenAI   OpenAIConfig `yaml:"openai"`
}

// OpenAIConfig wires OpenAI-compatible chat-completions endpoints.
type OpenAIConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"apiKey"`
}

// PublishConfig describes the SNS delivery target.
type PublishConfig struct {
	TopicARN      string `yaml:"topicArn"`
	SubjectPrefix string `yaml:"subjectPrefix"`
	Region        string `yaml:"region"`
}

// DatabaseConfig enables the optional Postgres run archive.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// SchedulerConfig defines when the local runner executes.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	return time.UTC
}

// RunConfig caps the wall-clock cost of one run.
type RunConfig struct {
	BudgetSeconds int `yaml:"budgetSeconds"`
}

// Budget returns the run budget as a duration.
func (r RunConfig) Budget() time.Duration {
	return time.Duration(r.BudgetSeconds) * time.Second
}

// LoggingConfig selects the root logger level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads YAML configuration (if present), applies environment overrides,
// and validates the result. Any failure wraps domain.ErrConfigInvalid so
// callers can fail fast before touching external services.
func Load() (Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("%w: read config file %s: %v", domain.ErrConfigInvalid, path, err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("%w: parse config file %s: %v", domain.ErrConfigInvalid, path, err)
		}
		cfg = mergeConfig(cfg, fileCfg)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}
	if err := cfg.bindTimezone(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks bounds and required fields. The first violation is
// returned wrapped with domain.ErrConfigInvalid.
func (c Config) Validate() error {
	topic := strings.TrimSpace(c.Agent.Topic)
	if len(topic) < 1 || len(topic) > 200 {
		return fmt.Errorf("%w: topic must be 1-200 characters", domain.ErrConfigInvalid)
	}
	if c.Agent.WindowHours < 1 || c.Agent.WindowHours > 168 {
		return fmt.Errorf("%w: window hours must be within 1-168, got %d", domain.ErrConfigInvalid, c.Agent.WindowHours)
	}
	if c.Agent.MaxArticles < 1 || c.Agent.MaxArticles > 100 {
		return fmt.Errorf("%w: max articles must be within 1-100, got %d", domain.ErrConfigInvalid, c.Agent.MaxArticles)
	}
	switch c.Agent.Verbosity {
	case VerbosityShort, VerbosityMedium, VerbosityLong:
	default:
		return fmt.Errorf("%w: verbosity must be short, medium or long, got %q", domain.ErrConfigInvalid, c.Agent.Verbosity)
	}
	if c.Agent.RelevanceFloor < 0 || c.Agent.RelevanceFloor >= 1 {
		return fmt.Errorf("%w: relevance floor must be within [0, 1), got %v", domain.ErrConfigInvalid, c.Agent.RelevanceFloor)
	}

	switch c.Models.Provider {
	case ProviderBedrock, ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("%w: unknown model provider %q", domain.ErrConfigInvalid, c.Models.Provider)
	}
	if strings.TrimSpace(c.Models.Primary) == "" {
		return fmt.Errorf("%w: model name is required", domain.ErrConfigInvalid)
	}
	if c.Models.Provider == ProviderOpenAI {
		if c.Models.OpenAI.Endpoint == "" {
			return fmt.Errorf("%w: openai endpoint is required for the openai provider", domain.ErrConfigInvalid)
		}
		if c.Models.OpenAI.APIKey == "" {
			return fmt.Errorf("%w: openai api key is required for the openai provider", domain.ErrConfigInvalid)
		}
	}

	if !strings.HasPrefix(c.Publish.TopicARN, "arn:aws:sns:") {
		return fmt.Errorf("%w: sns topic arn must start with arn:aws:sns:", domain.ErrConfigInvalid)
	}

	if c.Run.BudgetSeconds < 10 || c.Run.BudgetSeconds > 900 {
		return fmt.Errorf("%w: run budget must be within 10-900 seconds, got %d", domain.ErrConfigInvalid, c.Run.BudgetSeconds)
	}

	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(topicEnv); v != "" {
		c.Agent.Topic = v
	}
	if err := intFromEnv(windowHoursEnv, &c.Agent.WindowHours); err != nil {
		return err
	}
	if err := intFromEnv(maxArticlesEnv, &c.Agent.MaxArticles); err != nil {
		return err
	}
	if v := os.Getenv(verbosityEnv); v != "" {
		c.Agent.Verbosity = strings.ToLower(strings.TrimSpace(v))
	}
	if err := floatFromEnv(relevanceFloorEnv, &c.Agent.RelevanceFloor); err != nil {
		return err
	}
	if err := boolFromEnv(enrichContentEnv, &c.Agent.EnrichContent); err != nil {
		return err
	}

	if v := os.Getenv(providerEnv); v != "" {
		c.Models.Provider = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv(modelEnv); v != "" {
		c.Models.Primary = v
	}
	if v := os.Getenv(fallbackModelEnv); v != "" {
		c.Models.Fallback = v
	}
	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.Models.OpenAI.APIKey = v
	}
	if v := os.Getenv(openAIEndpointEnv); v != "" {
		c.Models.OpenAI.Endpoint = v
	}

	if v := os.Getenv(topicARNEnv); v != "" {
		c.Publish.TopicARN = v
	}
	if v := os.Getenv(subjectPrefixEnv); v != "" {
		c.Publish.SubjectPrefix = v
	}
	if v := os.Getenv(regionEnv); v != "" {
		c.Publish.Region = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(cronEnv); v != "" {
		c.Scheduler.CronExpression = v
	}
	if v := os.Getenv(timezoneEnv); v != "" {
		c.Scheduler.Timezone = v
	}

	if err := intFromEnv(runBudgetEnv, &c.Run.BudgetSeconds); err != nil {
		return err
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(logFormatEnv); v != "" {
		c.Logging.Format = v
	}

	return nil
}

func (c *Config) bindTimezone() error {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("%w: unknown timezone %q", domain.ErrConfigInvalid, tz)
	}
	c.Scheduler.location = loc
	return nil
}

func intFromEnv(key string, target *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%w: %s must be an integer, got %q", domain.ErrConfigInvalid, key, v)
	}
	*target = parsed
	return nil
}

func floatFromEnv(key string, target *float64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fmt.Errorf("%w: %s must be a number, got %q", domain.ErrConfigInvalid, key, v)
	}
	*target = parsed
	return nil
}

func boolFromEnv(key string, target *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("%w: %s must be a boolean, got %q", domain.ErrConfigInvalid, key, v)
	}
	*target = parsed
	return nil
}

func mergeConfig(base, override Config) Config {
	if override.Agent.Topic != "" {
		base.Agent.Topic = override.Agent.Topic
	}
	if override.Agent.WindowHours != 0 {
		base.Agent.WindowHours = override.Agent.WindowHours
	}
	if override.Agent.MaxArticles != 0 {
		base.Agent.MaxArticles = override.Agent.MaxArticles
	}
	if override.Agent.Verbosity != "" {
		base.Agent.Verbosity = override.Agent.Verbosity
	}
	if override.Agent.RelevanceFloor != 0 {
		base.Agent.RelevanceFloor = override.Agent.RelevanceFloor
	}
	if override.Agent.EnrichContent {
		base.Agent.EnrichContent = true
	}

	if override.Models.Provider != "" {
		base.Models.Provider = override.Models.Provider
	}
	if override.Models.Primary != "" {
		base.Models.Primary = override.Models.Primary
	}
	if override.Models.Fallback != "" {
		base.Models.Fallback = override.Models.Fallback
	}
	if override.Models.OpenAI.Endpoint != "" {
		base.Models.OpenAI.Endpoint = override.Models.OpenAI.Endpoint
	}
	if override.Models.OpenAI.APIKey != "" {
		base.Models.OpenAI.APIKey = override.Models.OpenAI.APIKey
	}

	if override.Publish.TopicARN != "" {
		base.Publish.TopicARN = override.Publish.TopicARN
	}
	if override.Publish.SubjectPrefix != "" {
		base.Publish.SubjectPrefix = override.Publish.SubjectPrefix
	}
	if override.Publish.Region != "" {
		base.Publish.Region = override.Publish.Region
	}

	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Run.BudgetSeconds != 0 {
		base.Run.BudgetSeconds = override.Run.BudgetSeconds
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Agent: AgentConfig{
			Topic:          "Generative AI",
			WindowHours:    72,
			MaxArticles:    50,
			Verbosity:      VerbosityMedium,
			RelevanceFloor: 0.1,
		},
		Models: ModelConfig{
			Provider: ProviderBedrock,
			Primary:  "amazon.nova-pro-v1:0",
			Fallback: "amazon.nova-lite-v1:0",
			OpenAI: OpenAIConfig{
				Endpoint: "https://api.openai.com/v1/chat/completions",
			},
		},
		Publish: PublishConfig{
			SubjectPrefix: "AI News Summary",
		},
		Scheduler: SchedulerConfig{
			CronExpression: "0 7 * * *",
			Timezone:       defaultTimezone,
		},
		Run: RunConfig{
			BudgetSeconds: 240,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
