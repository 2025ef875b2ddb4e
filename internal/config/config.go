// Package config loads service settings from defaults, an optional YAML file
// named by IMGPROC_CONFIG, and environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath = "IMGPROC_CONFIG"

	DefaultMaxUploadBytes = 20 << 20
	DefaultCacheMaxAge    = time.Hour
)

type Config struct {
	API       APIConfig       `yaml:"api"`
	Storage   StorageConfig   `yaml:"storage"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Database  DatabaseConfig  `yaml:"database"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Log       LogConfig       `yaml:"log"`
	Watermark WatermarkConfig `yaml:"watermark"`
}

type APIConfig struct {
	Addr           string        `yaml:"addr"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	CacheMaxAge    time.Duration `yaml:"cache_max_age"`
}

type StorageConfig struct {
	// Backend is one of s3, minio, local or memory.
	Backend   string `yaml:"backend"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	LocalDir  string `yaml:"local_dir"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type RateLimitConfig struct {
	// Capacity of zero disables rate limiting.
	Capacity int           `yaml:"capacity"`
	Window   time.Duration `yaml:"window"`
}

type DatabaseConfig struct {
	// DSN empty keeps the usage ledger in memory.
	DSN string `yaml:"dsn"`
}

type TracingConfig struct {
	Exporter     string  `yaml:"exporter"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	OTLPInsecure bool    `yaml:"otlp_insecure"`
	SampleRatio  float64 `yaml:"sample_ratio"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type WatermarkConfig struct {
	FontPath string `yaml:"font_path"`
}

func Defaults() Config {
	return Config{
		API: APIConfig{
			Addr:           ":8000",
			MaxUploadBytes: DefaultMaxUploadBytes,
			CacheMaxAge:    DefaultCacheMaxAge,
		},
		Storage: StorageConfig{
			Backend:  "s3",
			Region:   "us-east-1",
			UseSSL:   true,
			LocalDir: "./.imgproc-store",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		RateLimit: RateLimitConfig{
			Window: time.Minute,
		},
		Tracing: TracingConfig{
			Exporter:    "none",
			SampleRatio: 1,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func Load() (Config, error) {
	cfg := Defaults()

	if path := env(EnvConfigPath, ""); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.API.Addr = env("IMGPROC_API_ADDR", cfg.API.Addr)
	cfg.API.MaxUploadBytes = int64(envInt("IMGPROC_MAX_UPLOAD_BYTES", int(cfg.API.MaxUploadBytes)))
	cfg.API.CacheMaxAge = envDuration("IMGPROC_CACHE_MAX_AGE", cfg.API.CacheMaxAge)

	cfg.Storage.Backend = strings.ToLower(env("STORE_BACKEND", cfg.Storage.Backend))
	cfg.Storage.Bucket = env("S3_BUCKET_NAME", cfg.Storage.Bucket)
	cfg.Storage.Prefix = env("S3_IMAGE_PREFIX", cfg.Storage.Prefix)
	cfg.Storage.Region = env("AWS_REGION", cfg.Storage.Region)
	cfg.Storage.Endpoint = env("S3_ENDPOINT", cfg.Storage.Endpoint)
	cfg.Storage.AccessKey = env("S3_ACCESS_KEY", cfg.Storage.AccessKey)
	cfg.Storage.SecretKey = env("S3_SECRET_KEY", cfg.Storage.SecretKey)
	cfg.Storage.UseSSL = envBool("S3_USE_SSL", cfg.Storage.UseSSL)
	cfg.Storage.LocalDir = env("LOCAL_STORE_DIR", cfg.Storage.LocalDir)

	cfg.Redis.Addr = env("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = env("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = envInt("REDIS_DB", cfg.Redis.DB)

	cfg.RateLimit.Capacity = envInt("RATE_LIMIT_CAPACITY", cfg.RateLimit.Capacity)
	cfg.RateLimit.Window = envDuration("RATE_LIMIT_WINDOW", cfg.RateLimit.Window)

	cfg.Database.DSN = env("POSTGRES_DSN", cfg.Database.DSN)

	cfg.Tracing.Exporter = env("TRACE_EXPORTER", cfg.Tracing.Exporter)
	cfg.Tracing.OTLPEndpoint = env("OTEL_EXPORTER_OTLP_ENDPOINT", cfg.Tracing.OTLPEndpoint)
	cfg.Tracing.OTLPInsecure = envBool("OTEL_EXPORTER_OTLP_INSECURE", cfg.Tracing.OTLPInsecure)
	cfg.Tracing.SampleRatio = envFloat("TRACE_SAMPLE_RATIO", cfg.Tracing.SampleRatio)

	cfg.Log.Level = env("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = env("LOG_FORMAT", cfg.Log.Format)

	cfg.Watermark.FontPath = env("WATERMARK_FONT_PATH", cfg.Watermark.FontPath)
}

func (c Config) Validate() error {
	switch c.Storage.Backend {
	case "s3", "minio":
		if strings.TrimSpace(c.Storage.Bucket) == "" {
			return fmt.Errorf("S3_BUCKET_NAME is required for store backend %q", c.Storage.Backend)
		}
		if c.Storage.Backend == "minio" && strings.TrimSpace(c.Storage.Endpoint) == "" {
			return fmt.Errorf("S3_ENDPOINT is required for store backend minio")
		}
	case "local":
		if strings.TrimSpace(c.Storage.LocalDir) == "" {
			return fmt.Errorf("LOCAL_STORE_DIR is required for store backend local")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported store backend: %s", c.Storage.Backend)
	}

	if c.API.MaxUploadBytes <= 0 {
		return fmt.Errorf("max upload bytes must be positive")
	}
	if c.RateLimit.Capacity < 0 {
		return fmt.Errorf("rate limit capacity must not be negative")
	}
	if c.RateLimit.Capacity > 0 && c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive")
	}
	return nil
}

func env(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloat(key string, fallback float64) float64 {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(key string, fallback time.Duration) time.Duration {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
