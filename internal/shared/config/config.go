package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"estate-gap-backend/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port              string
	Env               string
	LogLevel          string
	CORSAllowOrigin   []string
	DatabaseURL       string
	ObjectStoreType   string
	LocalStoreDir     string
	AWSRegion         string
	S3Bucket          string
	S3Prefix          string
	SSEKMSKeyID       string
	GeneratorProvider string
	GeneratorModel    string
	OpenAIAPIKey      string
	OpenAITimeout     time.Duration
	SandboxCommand    string
	SandboxTimeout    time.Duration
	AnalysisVersion   string
	QueueURL          string
	AnalyzePerMinute  int

	WorkerConcurrency      int
	QueueVisibilitySeconds int
	ShutdownTimeout        time.Duration
}

var defaults = map[string]any{
	"PORT":                          "8080",
	"ENV":                           "dev",
	"LOG_LEVEL":                     "info",
	"CORS_ALLOW_ORIGINS":            "http://localhost:5173",
	"OBJECT_STORE":                  "local",
	"LOCAL_STORE_DIR":               "./data",
	"GENERATOR_PROVIDER":            "none",
	"OPENAI_TIMEOUT_SECONDS":        120,
	"SANDBOX_TIMEOUT_SECONDS":       300,
	"ANALYSIS_VERSION":              "gap:v1",
	"RATE_LIMIT_ANALYZE_PER_MINUTE": 10,
	"AWS_REGION":                    "us-east-1",
	"WORKER_CONCURRENCY":            4,
	"SQS_VISIBILITY_TIMEOUT_SECONDS": 1200,
	"SHUTDOWN_TIMEOUT_SECONDS":      30,
}

var keys = []string{
	"DATABASE_URL", "AWS_REGION", "S3_BUCKET", "S3_PREFIX", "SSE_KMS_KEY_ID",
	"GENERATOR_MODEL", "OPENAI_API_KEY", "SANDBOX_COMMAND", "GAP_SQS_QUEUE_URL",
}

// Load reads configuration from the environment. Values in .env or cmd/.env
// are merged in when present; the environment wins.
func Load() Config {
	v := viper.New()
	v.SetConfigType("env")
	for _, path := range []string{".env", "cmd/.env"} {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		v.SetConfigFile(path)
		if err := v.MergeInConfig(); err != nil {
			telemetry.Warn("config.dotenv_unreadable", map[string]any{"path": path, "error": err.Error()})
		}
	}
	return FromViper(v)
}

// FromViper builds a Config from v, layering defaults and the environment.
func FromViper(v *viper.Viper) Config {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	env := normalizeEnv(v.GetString("ENV"))
	cfg := Config{
		Port:              v.GetString("PORT"),
		Env:               env,
		LogLevel:          v.GetString("LOG_LEVEL"),
		CORSAllowOrigin:   splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		DatabaseURL:       v.GetString("DATABASE_URL"),
		ObjectStoreType:   normalizeStoreType(v.GetString("OBJECT_STORE")),
		LocalStoreDir:     v.GetString("LOCAL_STORE_DIR"),
		AWSRegion:         v.GetString("AWS_REGION"),
		S3Bucket:          v.GetString("S3_BUCKET"),
		S3Prefix:          v.GetString("S3_PREFIX"),
		SSEKMSKeyID:       v.GetString("SSE_KMS_KEY_ID"),
		GeneratorProvider: normalizeProvider(v.GetString("GENERATOR_PROVIDER")),
		GeneratorModel:    strings.TrimSpace(v.GetString("GENERATOR_MODEL")),
		OpenAIAPIKey:      v.GetString("OPENAI_API_KEY"),
		OpenAITimeout:     seconds(v.GetInt("OPENAI_TIMEOUT_SECONDS")),
		SandboxCommand:    strings.TrimSpace(v.GetString("SANDBOX_COMMAND")),
		SandboxTimeout:    seconds(v.GetInt("SANDBOX_TIMEOUT_SECONDS")),
		AnalysisVersion:   strings.TrimSpace(v.GetString("ANALYSIS_VERSION")),
		QueueURL:          strings.TrimSpace(v.GetString("GAP_SQS_QUEUE_URL")),
		AnalyzePerMinute:  v.GetInt("RATE_LIMIT_ANALYZE_PER_MINUTE"),

		WorkerConcurrency:      v.GetInt("WORKER_CONCURRENCY"),
		QueueVisibilitySeconds: v.GetInt("SQS_VISIBILITY_TIMEOUT_SECONDS"),
		ShutdownTimeout:        seconds(v.GetInt("SHUTDOWN_TIMEOUT_SECONDS")),
	}
	if env == "production" && cfg.DatabaseURL == "" {
		telemetry.Warn("config.database_url_missing", map[string]any{"env": env})
	}
	return cfg
}

// Validate reports settings that make the process unable to start.
func (c Config) Validate() error {
	var errs []error
	if c.ObjectStoreType == "s3" && c.S3Bucket == "" {
		errs = append(errs, errors.New("S3_BUCKET is required when OBJECT_STORE=s3"))
	}
	switch c.GeneratorProvider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required when GENERATOR_PROVIDER=openai"))
		}
		if c.GeneratorModel == "" {
			errs = append(errs, errors.New("GENERATOR_MODEL is required when GENERATOR_PROVIDER=openai"))
		}
	case "sandbox":
		if c.SandboxCommand == "" {
			errs = append(errs, errors.New("SANDBOX_COMMAND is required when GENERATOR_PROVIDER=sandbox"))
		}
	}
	return errors.Join(errs...)
}

// DevLike reports whether the environment tolerates in-memory fallbacks.
func (c Config) DevLike() bool {
	return c.Env == "dev" || c.Env == "local"
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "openai":
		return "openai"
	case "sandbox":
		return "sandbox"
	default:
		return "none"
	}
}
