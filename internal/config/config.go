package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "UTC"
	configPathEnv     = "ARXIV_DIGEST_CONFIG"
	openAIAPIKeyEnv   = "OPENAI_API_KEY"
	openAIModelEnv    = "OPENAI_MODEL"
	smtpServerEnv     = "SMTP_SERVER"
	smtpPortEnv       = "SMTP_PORT"
	smtpUserEnv       = "SMTP_USER"
	smtpPasswordEnv   = "SMTP_PASSWORD"
	emailRecipientEnv = "DIGEST_RECIPIENT"
)

// OutputFormat enumerates the supported delivery modes.
type OutputFormat string

const (
	FormatText  OutputFormat = "text"
	FormatEmail OutputFormat = "email"
	FormatBoth  OutputFormat = "both"
)

// Config holds high-level settings required across the application.
type Config struct {
	Arxiv     ArxivConfig     `yaml:"arxiv"`
	Keywords  [][]string      `yaml:"keywords"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Output    OutputConfig    `yaml:"output"`
	Email     EmailConfig     `yaml:"email"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ArxivConfig describes what to fetch and how far back.
type ArxivConfig struct {
	Categories      []string `yaml:"categories"`
	TimeWindowHours int      `yaml:"time_window_hours"`
	MaxResults      int      `yaml:"max_results"`
	Source          string   `yaml:"source"`
}

// OpenAIConfig defines how to contact the summarization API.
type OpenAIConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// OutputConfig selects delivery paths and rendering options.
type OutputConfig struct {
	Format          OutputFormat `yaml:"format"`
	OutputFile      string       `yaml:"output_file"`
	IncludeAbstract bool         `yaml:"include_abstract"`
}

// EmailConfig wires SMTP submission. Subject may contain "{date}" which is
// substituted with the run date at send time.
type EmailConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Recipient    string `yaml:"recipient"`
	Subject      string `yaml:"subject"`
	SMTPServer   string `yaml:"smtp_server"`
	SMTPPort     int    `yaml:"smtp_port"`
	SMTPUser     string `yaml:"smtp_user"`
	SMTPPassword string `yaml:"smtp_password"`
}

// SchedulerConfig defines when the daemon-mode pipeline should run.
type SchedulerConfig struct {
	CronExpression string `yaml:"cron_expression"`
	Timezone       string `yaml:"timezone"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	return loc
}

// LoggingConfig controls slog verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Path returns the config file path from the environment or the default.
func Path() string {
	if path := os.Getenv(configPathEnv); path != "" {
		return path
	}
	return "config.yml"
}

// Load reads YAML configuration, applies defaults and environment overrides,
// and validates the result.
func Load(path string) (Config, error) {
	cfg := defaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv(openAIModelEnv); v != "" {
		c.OpenAI.Model = v
	}
	if v := os.Getenv(smtpServerEnv); v != "" {
		c.Email.SMTPServer = v
	}
	if v := os.Getenv(smtpPortEnv); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Email.SMTPPort = port
		}
	}
	if v := os.Getenv(smtpUserEnv); v != "" {
		c.Email.SMTPUser = v
	}
	if v := os.Getenv(smtpPasswordEnv); v != "" {
		c.Email.SMTPPassword = v
	}
	if v := os.Getenv(emailRecipientEnv); v != "" {
		c.Email.Recipient = v
	}
}

func (c *Config) validate() error {
	switch c.Output.Format {
	case FormatText, FormatEmail, FormatBoth:
	default:
		return fmt.Errorf("output.format must be text, email, or both, got %q", c.Output.Format)
	}

	if c.Arxiv.TimeWindowHours < 0 {
		return fmt.Errorf("arxiv.time_window_hours must not be negative, got %d", c.Arxiv.TimeWindowHours)
	}
	if c.Arxiv.MaxResults <= 0 {
		return fmt.Errorf("arxiv.max_results must be positive, got %d", c.Arxiv.MaxResults)
	}
	if c.Arxiv.Source != "api" && c.Arxiv.Source != "listing" {
		return fmt.Errorf("arxiv.source must be api or listing, got %q", c.Arxiv.Source)
	}

	if c.Output.Format != FormatEmail && c.Output.OutputFile == "" {
		return fmt.Errorf("output.output_file is required for format %q", c.Output.Format)
	}

	if c.Email.Enabled && c.Email.Recipient == "" {
		return fmt.Errorf("email.recipient is required when email is enabled")
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("unknown scheduler.timezone %q: %w", c.Scheduler.Timezone, err)
	}

	return nil
}

func defaultConfig() Config {
	return Config{
		Arxiv: ArxivConfig{
			Categories:      []string{"cond-mat.mtrl-sci"},
			TimeWindowHours: 24,
			MaxResults:      100,
			Source:          "api",
		},
		OpenAI: OpenAIConfig{
			Endpoint:    "https://api.openai.com/v1/chat/completions",
			Model:       "gpt-4o-mini",
			MaxTokens:   150,
			Temperature: 0.3,
		},
		Output: OutputConfig{
			Format:     FormatText,
			OutputFile: "digest.txt",
		},
		Email: EmailConfig{
			Subject:    "arXiv Digest - {date}",
			SMTPServer: "smtp.gmail.com",
			SMTPPort:   587,
		},
		Scheduler: SchedulerConfig{
			CronExpression: "0 6 * * *",
			Timezone:       defaultTimezone,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}
