package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database    DatabaseConfig
	Redis       RedisConfig
	CORS        CORSConfig
	Log         LogConfig
	TimeGrid    TimeGridConfig
	Workflow    WorkflowConfig
	Generator   GeneratorConfig
	Persistence PersistenceConfig
	Export      ExportConfig
	Registry    RegistryConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// TimeGridConfig shapes the weekly block catalog.
type TimeGridConfig struct {
	AfternoonCutoff string
	IncludeSaturday bool
}

// WorkflowConfig tunes manual assignment sessions.
type WorkflowConfig struct {
	SessionTTL time.Duration
}

// GeneratorConfig bounds automatic generation runs.
type GeneratorConfig struct {
	Timeout time.Duration
}

// PersistenceConfig controls the background writer that mirrors the schedule store.
type PersistenceConfig struct {
	Enabled    bool
	Retries    int
	RetryDelay time.Duration
}

// ExportConfig locates published timetable files and signs their download links.
type ExportConfig struct {
	Directory     string
	SigningSecret string
	ResultTTL     time.Duration
}

// RegistryConfig controls caching of teacher, subject and group lists.
type RegistryConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.TimeGrid = TimeGridConfig{
		AfternoonCutoff: v.GetString("TIMEGRID_AFTERNOON_CUTOFF"),
		IncludeSaturday: v.GetBool("TIMEGRID_INCLUDE_SATURDAY"),
	}

	cfg.Workflow = WorkflowConfig{
		SessionTTL: parseDuration(v.GetString("WORKFLOW_SESSION_TTL"), 2*time.Hour),
	}

	cfg.Generator = GeneratorConfig{
		Timeout: parseDuration(v.GetString("GENERATOR_TIMEOUT"), 30*time.Second),
	}

	cfg.Persistence = PersistenceConfig{
		Enabled:    v.GetBool("ENABLE_PERSISTENCE"),
		Retries:    v.GetInt("PERSISTENCE_RETRIES"),
		RetryDelay: parseDuration(v.GetString("PERSISTENCE_RETRY_DELAY"), 2*time.Second),
	}

	cfg.Export = ExportConfig{
		Directory:     v.GetString("EXPORT_DIR"),
		SigningSecret: v.GetString("EXPORT_SIGNING_SECRET"),
		ResultTTL:     parseDuration(v.GetString("EXPORT_RESULT_TTL"), 24*time.Hour),
	}

	cfg.Registry = RegistryConfig{
		CacheEnabled: v.GetBool("REGISTRY_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("REGISTRY_CACHE_TTL"), 10*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "sma_timetable")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("TIMEGRID_AFTERNOON_CUTOFF", "13:00")
	v.SetDefault("TIMEGRID_INCLUDE_SATURDAY", false)

	v.SetDefault("WORKFLOW_SESSION_TTL", "2h")
	v.SetDefault("GENERATOR_TIMEOUT", "30s")

	v.SetDefault("ENABLE_PERSISTENCE", true)
	v.SetDefault("PERSISTENCE_RETRIES", 3)
	v.SetDefault("PERSISTENCE_RETRY_DELAY", "2s")

	v.SetDefault("EXPORT_DIR", "./exports")
	v.SetDefault("EXPORT_SIGNING_SECRET", "change-me")
	v.SetDefault("EXPORT_RESULT_TTL", "24h")

	v.SetDefault("REGISTRY_CACHE_ENABLED", true)
	v.SetDefault("REGISTRY_CACHE_TTL", "10m")
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
