package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/docker/go-units"
	"github.com/pelletier/go-toml/v2"

	"docportal-backend/internal/logging"
)

// EnvConfigFile names an optional TOML file whose values replace the
// built-in defaults. Environment variables still win over the file.
const EnvConfigFile = "CONFIG_FILE"

type Config struct {
	// Server
	Port            string `toml:"port"`
	Environment     string `toml:"environment"`
	BaseURL         string `toml:"base_url"`
	ShutdownTimeout string `toml:"shutdown_timeout"`

	// Auth
	JWTSecret string `toml:"jwt_secret"`

	// Database
	DatabaseURL string `toml:"database_url"`

	// Supabase storage. When SupabaseURL is empty the local filesystem
	// store under StoragePath is used instead.
	SupabaseURL           string `toml:"supabase_url"`
	SupabaseServiceKey    string `toml:"supabase_service_key"`
	SupabaseStorageBucket string `toml:"supabase_storage_bucket"`
	StoragePath           string `toml:"storage_path"`

	// Completion API. An empty key selects the offline fallback.
	AIAPIKey  string `toml:"ai_api_key"`
	AIBaseURL string `toml:"ai_base_url"`
	AIModel   string `toml:"ai_model"`
	AITimeout string `toml:"ai_timeout"`

	GenerationTimeout string `toml:"generation_timeout"`
	MaxUploadSize     string `toml:"max_upload_size"`
	MaxFileSize       string `toml:"max_file_size"`
	MaxFiles          int    `toml:"max_files"`

	LogLevel  logging.Level  `toml:"log_level"`
	LogFormat logging.Format `toml:"log_format"`

	maxUploadBytes int64
	maxFileBytes   int64
}

func defaults() *Config {
	return &Config{
		Port:                  "8080",
		Environment:           "development",
		BaseURL:               "http://localhost:8080",
		ShutdownTimeout:       "30s",
		SupabaseStorageBucket: "project-files",
		StoragePath:           ".data/blobs",
		AIBaseURL:             "https://api.openai.com/v1",
		AIModel:               "gpt-4o-mini",
		AITimeout:             "60s",
		GenerationTimeout:     "10m",
		MaxUploadSize:         "50MB",
		MaxFileSize:           "10MB",
		MaxFiles:              20,
		LogLevel:              logging.LevelInfo,
		LogFormat:             logging.FormatText,
	}
}

func Load() (*Config, error) {
	base := defaults()

	if path := os.Getenv(EnvConfigFile); path != "" {
		file, err := loadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
		base.Merge(file)
	}

	cfg := &Config{
		Port:            getEnv("PORT", base.Port),
		Environment:     getEnv("ENVIRONMENT", base.Environment),
		BaseURL:         getEnv("BASE_URL", base.BaseURL),
		ShutdownTimeout: getEnv("SHUTDOWN_TIMEOUT", base.ShutdownTimeout),

		JWTSecret: getEnv("JWT_SECRET", getEnv("SUPABASE_JWT_SECRET", base.JWTSecret)),

		DatabaseURL: getEnv("DATABASE_URL", base.DatabaseURL),

		SupabaseURL:           getEnv("SUPABASE_URL", base.SupabaseURL),
		SupabaseServiceKey:    getEnv("SUPABASE_SERVICE_KEY", base.SupabaseServiceKey),
		SupabaseStorageBucket: getEnv("SUPABASE_STORAGE_BUCKET", base.SupabaseStorageBucket),
		StoragePath:           getEnv("STORAGE_PATH", base.StoragePath),

		AIAPIKey:  getEnv("OPENAI_API_KEY", base.AIAPIKey),
		AIBaseURL: getEnv("OPENAI_BASE_URL", base.AIBaseURL),
		AIModel:   getEnv("OPENAI_MODEL", base.AIModel),
		AITimeout: getEnv("OPENAI_TIMEOUT", base.AITimeout),

		GenerationTimeout: getEnv("GENERATION_TIMEOUT", base.GenerationTimeout),
		MaxUploadSize:     getEnv("MAX_UPLOAD_SIZE", base.MaxUploadSize),
		MaxFileSize:       getEnv("MAX_FILE_SIZE", base.MaxFileSize),
		MaxFiles:          getEnvInt("MAX_FILES", base.MaxFiles),

		LogLevel:  logging.Level(getEnv("LOG_LEVEL", string(base.LogLevel))),
		LogFormat: logging.Format(getEnv("LOG_FORMAT", string(base.LogFormat))),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Merge copies every non-zero value of overlay onto c.
func (c *Config) Merge(overlay *Config) {
	merge := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	merge(&c.Port, overlay.Port)
	merge(&c.Environment, overlay.Environment)
	merge(&c.BaseURL, overlay.BaseURL)
	merge(&c.ShutdownTimeout, overlay.ShutdownTimeout)
	merge(&c.JWTSecret, overlay.JWTSecret)
	merge(&c.DatabaseURL, overlay.DatabaseURL)
	merge(&c.SupabaseURL, overlay.SupabaseURL)
	merge(&c.SupabaseServiceKey, overlay.SupabaseServiceKey)
	merge(&c.SupabaseStorageBucket, overlay.SupabaseStorageBucket)
	merge(&c.StoragePath, overlay.StoragePath)
	merge(&c.AIAPIKey, overlay.AIAPIKey)
	merge(&c.AIBaseURL, overlay.AIBaseURL)
	merge(&c.AIModel, overlay.AIModel)
	merge(&c.AITimeout, overlay.AITimeout)
	merge(&c.GenerationTimeout, overlay.GenerationTimeout)
	merge(&c.MaxUploadSize, overlay.MaxUploadSize)
	merge(&c.MaxFileSize, overlay.MaxFileSize)
	if overlay.MaxFiles != 0 {
		c.MaxFiles = overlay.MaxFiles
	}
	if overlay.LogLevel != "" {
		c.LogLevel = overlay.LogLevel
	}
	if overlay.LogFormat != "" {
		c.LogFormat = overlay.LogFormat
	}
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.SupabaseURL != "" && c.SupabaseServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is required when SUPABASE_URL is set")
	}
	if err := c.LogLevel.Validate(); err != nil {
		return err
	}
	if err := c.LogFormat.Validate(); err != nil {
		return err
	}

	size, err := units.FromHumanSize(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid MAX_UPLOAD_SIZE: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}
	c.maxUploadBytes = size

	fileSize, err := units.FromHumanSize(c.MaxFileSize)
	if err != nil {
		return fmt.Errorf("invalid MAX_FILE_SIZE: %w", err)
	}
	if fileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive")
	}
	c.maxFileBytes = fileSize

	if c.MaxFiles <= 0 {
		return fmt.Errorf("MAX_FILES must be positive")
	}

	for name, value := range map[string]string{
		"SHUTDOWN_TIMEOUT":   c.ShutdownTimeout,
		"OPENAI_TIMEOUT":     c.AITimeout,
		"GENERATION_TIMEOUT": c.GenerationTimeout,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}
	return nil
}

// MaxUploadBytes is MaxUploadSize in bytes. Valid after Validate.
func (c *Config) MaxUploadBytes() int64 {
	return c.maxUploadBytes
}

// MaxFileBytes is MaxFileSize in bytes. Valid after Validate.
func (c *Config) MaxFileBytes() int64 {
	return c.maxFileBytes
}

func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

func (c *Config) AITimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.AITimeout)
	return d
}

func (c *Config) GenerationTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.GenerationTimeout)
	return d
}

func (c *Config) UseSupabaseStorage() bool {
	return c.SupabaseURL != ""
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt falls back to defaultValue when the variable is unset. A value
// that is not a number is returned as 0 so Validate rejects it.
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return n
}
