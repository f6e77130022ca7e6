package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Generation  GenerationConfig `toml:"generation"`
	Topics      TopicsConfig     `toml:"topics"`
	Queue       QueueConfig      `toml:"queue"`
	History     HistoryConfig    `toml:"history"`
	Voices      VoicesConfig     `toml:"voices"`
	Processing  ProcessingConfig `toml:"processing"`
	Logging     LoggingConfig    `toml:"logging"`
	WebSocket   WebSocketConfig  `toml:"websocket"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gt=0,lt=65536"`
	Host string `toml:"host" validate:"required"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

// GenerationConfig configures the remote generation service client
type GenerationConfig struct {
	BaseURL        string        `toml:"base_url" validate:"required,url"` // Generation API base URL
	RequestTimeout time.Duration `toml:"request_timeout"`                  // HTTP request timeout
	RateLimit      time.Duration `toml:"rate_limit"`                       // Minimum time between requests
	Style          string        `toml:"style"`                            // Default podcast style
	Tone           string        `toml:"tone"`                             // Default podcast tone
	Length         string        `toml:"length"`                           // Default target length (e.g. "10min")
	OutputFormat   string        `toml:"output_format"`                    // "mp3" or "wav"
	SaveScript     bool          `toml:"save_script"`                      // Ask the service to keep the script
}

// TopicsConfig configures the topic discovery service client
type TopicsConfig struct {
	BaseURL        string        `toml:"base_url"` // Topic discovery API base URL ("" = disabled)
	RequestTimeout time.Duration `toml:"request_timeout"`
}

// QueueConfig configures the orchestrator's polling loop. The defaults
// implement the fixed backoff schedule; overriding them is for tests and
// local experiments, not production tuning.
type QueueConfig struct {
	MaxPollAttempts int             `toml:"max_poll_attempts" validate:"gt=0"` // Hard attempt ceiling per job
	PollSchedule    []time.Duration `toml:"poll_schedule"`                     // Delay per attempt, capped at last value
	ProgressCeiling int             `toml:"progress_ceiling"`                  // Max progress shown before terminal status
}

// HistoryConfig configures the completed-generation ledger
type HistoryConfig struct {
	Limit int `toml:"limit" validate:"gt=0"` // Entries retained, oldest evicted first
}

// VoicesConfig configures the local voice preset catalog
type VoicesConfig struct {
	CatalogPath string `toml:"catalog_path"` // YAML voice catalog file ("" = remote only)
}

// ProcessingConfig configures scheduled queue processing
type ProcessingConfig struct {
	Enabled  bool   `toml:"enabled"`  // Disabled by default - user must explicitly opt-in
	Schedule string `toml:"schedule"` // Cron schedule format
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs
}

// WebSocketConfig contains configuration for WebSocket snapshot streaming
type WebSocketConfig struct {
	MinLevel          string            `toml:"min_level"`          // Minimum log level to broadcast
	ExcludePatterns   []string          `toml:"exclude_patterns"`   // Log message patterns to exclude
	AllowedEvents     []string          `toml:"allowed_events"`     // Event whitelist, empty = allow all
	ThrottleIntervals map[string]string `toml:"throttle_intervals"` // Per-event throttle, e.g. {"queue_updated": "250ms"}
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env. Later files override earlier
// files; environment variables override all files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("CADENZA_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("CADENZA_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("CADENZA_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if badgerPath := os.Getenv("CADENZA_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if baseURL := os.Getenv("CADENZA_GENERATION_URL"); baseURL != "" {
		config.Generation.BaseURL = baseURL
	}
	if timeout := os.Getenv("CADENZA_GENERATION_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Generation.RequestTimeout = d
		}
	}

	if baseURL := os.Getenv("CADENZA_TOPICS_URL"); baseURL != "" {
		config.Topics.BaseURL = baseURL
	}

	if attempts := os.Getenv("CADENZA_QUEUE_MAX_POLL_ATTEMPTS"); attempts != "" {
		if a, err := strconv.Atoi(attempts); err == nil {
			config.Queue.MaxPollAttempts = a
		}
	}

	if level := os.Getenv("CADENZA_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("CADENZA_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port != 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Validate checks structural constraints and the processing schedule
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Processing.Enabled {
		if err := ValidateSchedule(c.Processing.Schedule); err != nil {
			return fmt.Errorf("invalid processing schedule: %w", err)
		}
	}

	return nil
}

// ValidateSchedule checks a cron schedule expression (with seconds field)
func ValidateSchedule(schedule string) error {
	if strings.TrimSpace(schedule) == "" {
		return fmt.Errorf("schedule is empty")
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("failed to parse cron expression %q: %w", schedule, err)
	}
	return nil
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
