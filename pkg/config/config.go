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

	Database DatabaseConfig
	Redis    RedisConfig
	Admin    AdminConfig
	Policy   PolicyConfig
	Upstream UpstreamConfig
	CORS     CORSConfig
	Log      LogConfig
}

// DatabaseConfig points at the embedded sqlite store.
type DatabaseConfig struct {
	Path string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// AdminConfig holds the shared review secret and session signing material.
type AdminConfig struct {
	Secret        string
	SessionSecret string
	SessionTTL    time.Duration
}

// PolicyConfig governs how long an accepted request stays usable.
type PolicyConfig struct {
	ValidityWindow time.Duration
}

// UpstreamConfig points at the observation feed.
type UpstreamConfig struct {
	URL      string
	Timeout  time.Duration
	CacheTTL time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Path: v.GetString("DB_PATH"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Admin = AdminConfig{
		Secret:        v.GetString("ADMIN_SECRET"),
		SessionSecret: v.GetString("ADMIN_SESSION_SECRET"),
		SessionTTL:    parseDuration(v.GetString("ADMIN_SESSION_TTL"), 12*time.Hour),
	}

	cfg.Policy = PolicyConfig{
		ValidityWindow: parseDuration(v.GetString("GRANT_VALIDITY_WINDOW"), 60*time.Second),
	}

	cfg.Upstream = UpstreamConfig{
		URL:      v.GetString("UPSTREAM_URL"),
		Timeout:  parseDuration(v.GetString("UPSTREAM_TIMEOUT"), 15*time.Second),
		CacheTTL: parseDuration(v.GetString("UPSTREAM_CACHE_TTL"), 2*time.Minute),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "")

	v.SetDefault("DB_PATH", "demandes.db")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ADMIN_SECRET", "")
	v.SetDefault("ADMIN_SESSION_SECRET", "dev_secret")
	v.SetDefault("ADMIN_SESSION_TTL", "12h")

	v.SetDefault("GRANT_VALIDITY_WINDOW", "60s")

	v.SetDefault("UPSTREAM_URL", "https://data-real-time-2.onrender.com/donnees")
	v.SetDefault("UPSTREAM_TIMEOUT", "15s")
	v.SetDefault("UPSTREAM_CACHE_TTL", "2m")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
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
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
