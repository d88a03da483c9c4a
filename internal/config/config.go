package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Job state
	JobTTL time.Duration

	// Export
	DefaultFormat string
	StatsWindow   time.Duration

	// Logging
	LogFile string

	// PDF import
	PDFFallbackPdftotext bool
}

var defaults = map[string]any{
	"PORT":                   "8090",
	"WORKER_COUNT":           4,
	"MAX_QUEUE_SIZE":         100,
	"MAX_UPLOAD_BYTES":       int64(52428800), // 50MB
	"JOB_TTL":                time.Hour,
	"DEFAULT_FORMAT":         "html",
	"STATS_WINDOW":           time.Hour,
	"PDF_FALLBACK_PDFTOTEXT": true,
}

// Load reads the environment, after merging a .env file from the working
// directory when one exists. Malformed numbers and durations fall back to
// their defaults.
func Load() Config {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}

	cfg := Config{
		Port:   v.GetString("PORT"),
		APIKey: v.GetString("ORGDOC_API_KEY"),

		WorkerCount:  v.GetInt("WORKER_COUNT"),
		MaxQueueSize: v.GetInt("MAX_QUEUE_SIZE"),

		MaxUploadBytes: v.GetInt64("MAX_UPLOAD_BYTES"),

		JobTTL: v.GetDuration("JOB_TTL"),

		DefaultFormat: v.GetString("DEFAULT_FORMAT"),
		StatsWindow:   v.GetDuration("STATS_WINDOW"),

		LogFile: v.GetString("LOG_FILE"),

		PDFFallbackPdftotext: v.GetBool("PDF_FALLBACK_PDFTOTEXT"),
	}

	if cfg.Port == "" {
		cfg.Port = "8090"
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}
	if cfg.DefaultFormat == "" {
		cfg.DefaultFormat = "html"
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("ORGDOC_API_KEY is required")
	}
	return nil
}
