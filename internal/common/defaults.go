package common

import "time"

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability; only
// user-facing settings should be exposed in cadenza.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8090,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Generation: GenerationConfig{
			BaseURL:        "http://localhost:8000",
			RequestTimeout: 30 * time.Second,
			RateLimit:      500 * time.Millisecond,
			Style:          "conversational",
			Tone:           "professional",
			Length:         "10min",
			OutputFormat:   "mp3",
			SaveScript:     true,
		},
		Topics: TopicsConfig{
			BaseURL:        "",
			RequestTimeout: 15 * time.Second,
		},
		Queue: QueueConfig{
			MaxPollAttempts: 60,
			PollSchedule: []time.Duration{
				2 * time.Second,
				3 * time.Second,
				5 * time.Second,
				7 * time.Second,
				10 * time.Second,
			},
			ProgressCeiling: 90,
		},
		History: HistoryConfig{
			Limit: 50,
		},
		Voices: VoicesConfig{
			CatalogPath: "./voices.yaml",
		},
		Processing: ProcessingConfig{
			Enabled:  false,
			Schedule: "0 */15 * * * *", // Every 15 minutes (cron format with seconds)
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout", "file"},
			TimeFormat: "15:04:05",
		},
		WebSocket: WebSocketConfig{
			MinLevel: "info",
			ExcludePatterns: []string{
				"WebSocket client connected",
				"WebSocket client disconnected",
				"HTTP request",
				"HTTP response",
				"Publishing event",
			},
			AllowedEvents: []string{},
			ThrottleIntervals: map[string]string{
				"queue_updated": "250ms",
			},
		},
	}
}
