package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for photorelay.
type Config struct {
	LogLevel string         `yaml:"logLevel"`
	Telegram TelegramConfig `yaml:"telegram"`
	Slack    SlackConfig    `yaml:"slack"`
	Filter   FilterConfig   `yaml:"filter"`
	Pacing   PacingConfig   `yaml:"pacing"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Mappings []Mapping      `yaml:"mappings"`
}

// TelegramConfig holds the source platform credential and scan bounds.
type TelegramConfig struct {
	Token        string `yaml:"token"`
	HistoryLimit int    `yaml:"historyLimit"`
}

// SlackConfig holds the optional bot token used by Slack destinations.
// Absence disables every mapping that names a Slack channel.
type SlackConfig struct {
	BotToken string `yaml:"botToken"`
}

// FilterConfig bounds which posts are considered new.
type FilterConfig struct {
	Timezone   string `yaml:"timezone"`   // IANA name for civil-day comparison
	WindowDays int    `yaml:"windowDays"` // 1 = today only
}

// PacingConfig throttles deliveries to respect destination rate limits.
// An intervalSeconds of 0 disables pacing.
type PacingConfig struct {
	IntervalSeconds int `yaml:"intervalSeconds"`
	Burst           int `yaml:"burst"`
}

// LedgerConfig selects and locates the dedup ledger backend.
type LedgerConfig struct {
	Backend       string `yaml:"backend"` // "file" | "sqlite"
	Path          string `yaml:"path"`
	RetentionDays int    `yaml:"retentionDays"`
}

// Mapping pairs a source channel (matched by title substring) with one
// destination. A mapping with no destination configured is skipped silently.
type Mapping struct {
	Name           string `yaml:"name"`
	DiscordWebhook string `yaml:"discordWebhook,omitempty"`
	SlackChannel   string `yaml:"slackChannel,omitempty"`
}

// Enabled reports whether the mapping has any destination configured.
func (m Mapping) Enabled() bool {
	return m.DiscordWebhook != "" || m.SlackChannel != ""
}

// DefaultConfigDir returns the default config directory (~/.photorelay).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".photorelay"
	}
	return filepath.Join(home, ".photorelay")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

func Load(path string) (*Config, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot resolve home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// Supports default values: ${VAR:-default} uses "default" when VAR is unset
// or empty. An unset variable without a default expands to the empty string,
// so an unconfigured webhook disables its mapping instead of leaving a
// placeholder behind.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		hasDefault := strings.Contains(match, ":-")
		defaultVal := ""
		if hasDefault && len(groups) >= 3 {
			defaultVal = groups[2]
		}

		val, exists := os.LookupEnv(varName)
		if !exists || val == "" {
			return defaultVal
		}
		return val
	})
}

func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// Validate checks that the config has valid values. A missing destination on
// a mapping is not an error; a missing Telegram token is, since no run can
// authenticate without it.
func Validate(cfg *Config) error {
	var errs []string

	if cfg.Telegram.Token == "" {
		errs = append(errs, "telegram.token is required (set TELEGRAM_BOT_TOKEN)")
	}
	if cfg.Telegram.HistoryLimit < 1 || cfg.Telegram.HistoryLimit > 100 {
		errs = append(errs, "telegram.historyLimit must be between 1 and 100")
	}

	if _, err := time.LoadLocation(cfg.Filter.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("filter.timezone: unknown location %q", cfg.Filter.Timezone))
	}
	if cfg.Filter.WindowDays < 1 {
		errs = append(errs, "filter.windowDays must be >= 1")
	}

	if cfg.Pacing.IntervalSeconds < 0 {
		errs = append(errs, "pacing.intervalSeconds must be >= 0")
	}
	if cfg.Pacing.Burst < 1 {
		errs = append(errs, "pacing.burst must be >= 1")
	}

	switch cfg.Ledger.Backend {
	case "file", "sqlite":
		// valid
	default:
		errs = append(errs, "ledger.backend must be one of: file, sqlite")
	}
	if cfg.Ledger.Path == "" {
		errs = append(errs, "ledger.path must not be empty")
	}
	if cfg.Ledger.RetentionDays < 1 {
		errs = append(errs, "ledger.retentionDays must be >= 1")
	}

	seen := make(map[string]bool, len(cfg.Mappings))
	for i, m := range cfg.Mappings {
		if m.Name == "" {
			errs = append(errs, fmt.Sprintf("mappings[%d]: name must not be empty", i))
			continue
		}
		lower := strings.ToLower(m.Name)
		if seen[lower] {
			errs = append(errs, fmt.Sprintf("mappings[%d]: duplicate name %q", i, m.Name))
		}
		seen[lower] = true
		if m.DiscordWebhook != "" && m.SlackChannel != "" {
			errs = append(errs, fmt.Sprintf("mappings[%d] (%s): configure either discordWebhook or slackChannel, not both", i, m.Name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Location returns the configured timezone. Call Validate first; an invalid
// name falls back to UTC here.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Filter.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Retention returns the ledger retention window as a duration.
func (c *Config) Retention() time.Duration {
	return time.Duration(c.Ledger.RetentionDays) * 24 * time.Hour
}

// PacingInterval returns the inter-delivery delay as a duration.
func (c *Config) PacingInterval() time.Duration {
	return time.Duration(c.Pacing.IntervalSeconds) * time.Second
}
