package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	DB      DBConfig
	S3      S3Config
	Log     LogConfig
	LLM     LLMConfig
	Grading GradingFileConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// S3Config holds settings for the result archive bucket. An empty bucket
// disables archiving.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LLMProviderConfig holds credentials and overrides for a single LLM backend.
type LLMProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	Endpoint     string `mapstructure:"endpoint"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// LLMConfig holds per-provider backend settings.
type LLMConfig struct {
	Anthropic LLMProviderConfig `mapstructure:"anthropic"`
	OpenAI    LLMProviderConfig `mapstructure:"openai"`
	Gemini    LLMProviderConfig `mapstructure:"gemini"`
}

// GradingFileConfig points at the grading policy document.
type GradingFileConfig struct {
	PolicyPath string `mapstructure:"policy_path"`
}

// Load reads configuration from environment variables with the MARKBENCH_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MARKBENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "markbench")
	v.SetDefault("db.password", "markbench_secret")
	v.SetDefault("db.name", "markbench_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// S3 defaults (archiving disabled unless a bucket is set)
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.prefix", "grading-sessions")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// LLM defaults
	v.SetDefault("llm.anthropic.api_key", "")
	v.SetDefault("llm.anthropic.default_model", "claude-3-5-sonnet")
	v.SetDefault("llm.anthropic.endpoint", "")
	v.SetDefault("llm.anthropic.timeout_secs", 120)
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.default_model", "gpt-4o-mini")
	v.SetDefault("llm.openai.endpoint", "")
	v.SetDefault("llm.openai.timeout_secs", 120)
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.default_model", "gemini-1.5-pro")
	v.SetDefault("llm.gemini.endpoint", "")
	v.SetDefault("llm.gemini.timeout_secs", 120)

	// Grading defaults
	v.SetDefault("grading.policy_path", "")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                 "MARKBENCH_SERVER_PORT",
		"server.read_timeout":         "MARKBENCH_SERVER_READ_TIMEOUT",
		"server.write_timeout":        "MARKBENCH_SERVER_WRITE_TIMEOUT",
		"server.environment":          "MARKBENCH_SERVER_ENVIRONMENT",
		"db.host":                     "MARKBENCH_DB_HOST",
		"db.port":                     "MARKBENCH_DB_PORT",
		"db.user":                     "MARKBENCH_DB_USER",
		"db.password":                 "MARKBENCH_DB_PASSWORD",
		"db.name":                     "MARKBENCH_DB_NAME",
		"db.sslmode":                  "MARKBENCH_DB_SSLMODE",
		"db.max_open":                 "MARKBENCH_DB_MAX_OPEN",
		"db.max_idle":                 "MARKBENCH_DB_MAX_IDLE",
		"s3.region":                   "MARKBENCH_S3_REGION",
		"s3.bucket":                   "MARKBENCH_S3_BUCKET",
		"s3.endpoint":                 "MARKBENCH_S3_ENDPOINT",
		"s3.access_key":               "MARKBENCH_S3_ACCESS_KEY",
		"s3.secret_key":               "MARKBENCH_S3_SECRET_KEY",
		"s3.prefix":                   "MARKBENCH_S3_PREFIX",
		"log.level":                   "MARKBENCH_LOG_LEVEL",
		"log.format":                  "MARKBENCH_LOG_FORMAT",
		"llm.anthropic.api_key":       "MARKBENCH_LLM_ANTHROPIC_API_KEY",
		"llm.anthropic.default_model": "MARKBENCH_LLM_ANTHROPIC_DEFAULT_MODEL",
		"llm.anthropic.endpoint":      "MARKBENCH_LLM_ANTHROPIC_ENDPOINT",
		"llm.anthropic.timeout_secs":  "MARKBENCH_LLM_ANTHROPIC_TIMEOUT_SECS",
		"llm.openai.api_key":          "MARKBENCH_LLM_OPENAI_API_KEY",
		"llm.openai.default_model":    "MARKBENCH_LLM_OPENAI_DEFAULT_MODEL",
		"llm.openai.endpoint":         "MARKBENCH_LLM_OPENAI_ENDPOINT",
		"llm.openai.timeout_secs":     "MARKBENCH_LLM_OPENAI_TIMEOUT_SECS",
		"llm.gemini.api_key":          "MARKBENCH_LLM_GEMINI_API_KEY",
		"llm.gemini.default_model":    "MARKBENCH_LLM_GEMINI_DEFAULT_MODEL",
		"llm.gemini.endpoint":         "MARKBENCH_LLM_GEMINI_ENDPOINT",
		"llm.gemini.timeout_secs":     "MARKBENCH_LLM_GEMINI_TIMEOUT_SECS",
		"grading.policy_path":         "MARKBENCH_GRADING_POLICY_PATH",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// PaaS platforms set a PORT env var. Use it if MARKBENCH_SERVER_PORT is
	// not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("MARKBENCH_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
		Prefix:    v.GetString("s3.prefix"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// API keys also honor the conventional env vars so the service picks up
	// credentials already present in grading environments.
	cfg.LLM = LLMConfig{
		Anthropic: LLMProviderConfig{
			Provider:     "anthropic",
			APIKey:       firstNonEmpty(v.GetString("llm.anthropic.api_key"), os.Getenv("ANTHROPIC_API_KEY")),
			DefaultModel: v.GetString("llm.anthropic.default_model"),
			Endpoint:     v.GetString("llm.anthropic.endpoint"),
			TimeoutSecs:  v.GetInt("llm.anthropic.timeout_secs"),
		},
		OpenAI: LLMProviderConfig{
			Provider:     "openai",
			APIKey:       firstNonEmpty(v.GetString("llm.openai.api_key"), os.Getenv("OPENAI_API_KEY")),
			DefaultModel: v.GetString("llm.openai.default_model"),
			Endpoint:     v.GetString("llm.openai.endpoint"),
			TimeoutSecs:  v.GetInt("llm.openai.timeout_secs"),
		},
		Gemini: LLMProviderConfig{
			Provider:     "gemini",
			APIKey:       firstNonEmpty(v.GetString("llm.gemini.api_key"), os.Getenv("GEMINI_API_KEY"), os.Getenv("GOOGLE_API_KEY")),
			DefaultModel: v.GetString("llm.gemini.default_model"),
			Endpoint:     v.GetString("llm.gemini.endpoint"),
			TimeoutSecs:  v.GetInt("llm.gemini.timeout_secs"),
		},
	}

	cfg.Grading = GradingFileConfig{
		PolicyPath: v.GetString("grading.policy_path"),
	}

	return cfg, nil
}

func firstNonEmpty(vals ...string) string {
	for _, s := range vals {
		if s != "" {
			return s
		}
	}
	return ""
}
