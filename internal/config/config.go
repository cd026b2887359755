// Package config loads anndash settings from flags, environment, .env files and
// an optional YAML file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// DefaultBaseURL is where the local API listens.
	DefaultBaseURL = "http://localhost:5000"
	// DefaultPollInterval is the scrape status polling period.
	DefaultPollInterval = 2 * time.Second
	// DefaultAPITimeout applies to each request to the API. Zero disables it.
	DefaultAPITimeout = 30 * time.Second
	// DefaultModel is the Gemini model used for digests.
	DefaultModel = "gemini-2.5-flash"

	// ModeLocal exposes scrape controls.
	ModeLocal = "local"
	// ModeHosted is a read-only deployment without scrape controls.
	ModeHosted = "hosted"
)

type Config struct {
	App     AppConfig
	API     APIConfig
	Scrape  ScrapeConfig
	Logger  LoggerConfig
	Email   EmailConfig
	AI      AIConfig
	History HistoryConfig
	Metrics MetricsConfig
}

type AppConfig struct {
	Environment string
	Mode        string
}

// Development reports whether human readable logs were requested.
func (a AppConfig) Development() bool {
	return a.Environment == "development"
}

type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

type ScrapeConfig struct {
	// Enabled gates the scrape and stop commands.
	Enabled      bool
	PollInterval time.Duration
	// Schedule is an optional five field cron expression for automatic scrapes.
	Schedule string
}

type LoggerConfig struct {
	Level  string
	Output string
}

type EmailConfig struct {
	SMTPServer string
	SMTPPort   int
	SMTPUser   string
	SMTPPass   string
	FromEmail  string
	ToEmail    string
}

// Enabled reports whether enough SMTP settings are present to send mail.
func (e EmailConfig) Enabled() bool {
	return e.SMTPServer != "" && e.SMTPUser != "" && e.SMTPPass != "" && e.ToEmail != ""
}

type AIConfig struct {
	APIKey string
	Model  string
}

type HistoryConfig struct {
	Timezone string
}

type MetricsConfig struct {
	// Address serves /metrics when non-empty, e.g. ":9102".
	Address string
}

var envBindings = map[string][]string{
	"app.environment":      {"APP_ENV"},
	"app.mode":             {"APP_MODE"},
	"api.base_url":         {"API_URL", "NEXT_PUBLIC_API_URL"},
	"api.timeout":          {"API_TIMEOUT"},
	"scrape.enabled":       {"SCRAPE_ENABLED"},
	"scrape.poll_interval": {"SCRAPE_POLL_INTERVAL"},
	"scrape.schedule":      {"SCRAPE_SCHEDULE"},
	"logger.level":         {"LOG_LEVEL"},
	"logger.output":        {"LOG_OUTPUT"},
	"email.smtp_server":    {"SMTP_SERVER"},
	"email.smtp_port":      {"SMTP_PORT"},
	"email.smtp_user":      {"SMTP_USER"},
	"email.smtp_pass":      {"SMTP_PASS"},
	"email.from_email":     {"FROM_EMAIL"},
	"email.to_email":       {"TO_EMAIL"},
	"ai.api_key":           {"GEMINI_API_KEY"},
	"ai.model":             {"GEMINI_MODEL"},
	"history.timezone":     {"HISTORY_TZ"},
	"metrics.address":      {"METRICS_ADDR"},
}

// NewViper prepares a viper instance with defaults, environment bindings and
// the optional config file. A missing config file is not an error.
func NewViper(cfgFile string) (*viper.Viper, error) {
	loadEnvFiles()

	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, envs := range envBindings {
		args := append([]string{key}, envs...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("anndash")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return v, nil
}

// loadEnvFiles loads .env.local then .env; existing variables are never overwritten.
func loadEnvFiles() {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		_ = godotenv.Load(envFile)
		return
	}
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "production")
	v.SetDefault("app.mode", ModeLocal)
	v.SetDefault("api.base_url", DefaultBaseURL)
	v.SetDefault("api.timeout", DefaultAPITimeout)
	v.SetDefault("scrape.poll_interval", DefaultPollInterval)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output", "stderr")
	v.SetDefault("email.smtp_server", "smtp.gmail.com")
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("ai.model", DefaultModel)
	v.SetDefault("history.timezone", "UTC")
}

// Load builds a Config from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Environment: v.GetString("app.environment"),
			Mode:        strings.ToLower(v.GetString("app.mode")),
		},
		API: APIConfig{
			BaseURL: strings.TrimRight(v.GetString("api.base_url"), "/"),
			Timeout: v.GetDuration("api.timeout"),
		},
		Scrape: ScrapeConfig{
			PollInterval: v.GetDuration("scrape.poll_interval"),
			Schedule:     strings.TrimSpace(v.GetString("scrape.schedule")),
		},
		Logger: LoggerConfig{
			Level:  v.GetString("logger.level"),
			Output: v.GetString("logger.output"),
		},
		Email: EmailConfig{
			SMTPServer: v.GetString("email.smtp_server"),
			SMTPPort:   v.GetInt("email.smtp_port"),
			SMTPUser:   v.GetString("email.smtp_user"),
			SMTPPass:   v.GetString("email.smtp_pass"),
			FromEmail:  v.GetString("email.from_email"),
			ToEmail:    v.GetString("email.to_email"),
		},
		AI: AIConfig{
			APIKey: v.GetString("ai.api_key"),
			Model:  v.GetString("ai.model"),
		},
		History: HistoryConfig{
			Timezone: v.GetString("history.timezone"),
		},
		Metrics: MetricsConfig{
			Address: v.GetString("metrics.address"),
		},
	}

	// Hosted deployments are read-only unless scraping is explicitly enabled.
	if v.IsSet("scrape.enabled") {
		cfg.Scrape.Enabled = v.GetBool("scrape.enabled")
	} else {
		cfg.Scrape.Enabled = cfg.App.Mode != ModeHosted
	}

	if cfg.Email.FromEmail == "" {
		cfg.Email.FromEmail = cfg.Email.SMTPUser
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the dashboard cannot run with.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api base url %q", c.API.BaseURL)
	}
	if c.Scrape.PollInterval <= 0 {
		return fmt.Errorf("scrape poll interval must be positive, got %s", c.Scrape.PollInterval)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api timeout must not be negative, got %s", c.API.Timeout)
	}
	switch c.App.Mode {
	case ModeLocal, ModeHosted:
	default:
		return fmt.Errorf("unknown app mode %q", c.App.Mode)
	}
	return nil
}
