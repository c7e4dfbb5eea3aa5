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

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Booking    BookingConfig
	Calendar   CalendarConfig
	RoundRobin RoundRobinConfig
	Exports    ExportsConfig
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

type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// BookingConfig carries engine-wide slot defaults and the manage-token signer settings.
type BookingConfig struct {
	DefaultIncrement  time.Duration
	MaxWindowDays     int
	ManageTokenSecret string
	ManageTokenTTL    time.Duration
}

// CalendarConfig tunes the busy-block cache and the calendar-provider collaborator.
type CalendarConfig struct {
	FreshnessTTL    time.Duration
	FetchTimeout    time.Duration
	FreeBusyBaseURL string
	FreeBusyToken   string
	SyncSchedule    string
	SyncWorkers     int
	SyncEnabled     bool
}

// RoundRobinConfig governs the assignment stats report cache.
type RoundRobinConfig struct {
	StatsCacheTTL time.Duration
}

// ExportsConfig gates the booking list export endpoint.
type ExportsConfig struct {
	Enabled bool
	MaxRows int
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

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Booking = BookingConfig{
		DefaultIncrement:  parseDuration(v.GetString("BOOKING_DEFAULT_INCREMENT"), 15*time.Minute),
		MaxWindowDays:     v.GetInt("BOOKING_MAX_WINDOW_DAYS"),
		ManageTokenSecret: v.GetString("BOOKING_MANAGE_TOKEN_SECRET"),
		ManageTokenTTL:    parseDuration(v.GetString("BOOKING_MANAGE_TOKEN_TTL"), 30*24*time.Hour),
	}

	cfg.Calendar = CalendarConfig{
		FreshnessTTL:    parseDuration(v.GetString("CALENDAR_FRESHNESS_TTL"), 10*time.Minute),
		FetchTimeout:    parseDuration(v.GetString("CALENDAR_FETCH_TIMEOUT"), 5*time.Second),
		FreeBusyBaseURL: v.GetString("CALENDAR_FREEBUSY_BASE_URL"),
		FreeBusyToken:   v.GetString("CALENDAR_FREEBUSY_TOKEN"),
		SyncSchedule:    v.GetString("CALENDAR_SYNC_SCHEDULE"),
		SyncWorkers:     v.GetInt("CALENDAR_SYNC_WORKERS"),
		SyncEnabled:     v.GetBool("CALENDAR_SYNC_ENABLED"),
	}

	cfg.RoundRobin = RoundRobinConfig{
		StatsCacheTTL: parseDuration(v.GetString("ROUND_ROBIN_STATS_CACHE_TTL"), time.Minute),
	}

	cfg.Exports = ExportsConfig{
		Enabled: v.GetBool("ENABLE_EXPORTS"),
		MaxRows: v.GetInt("EXPORTS_MAX_ROWS"),
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
	v.SetDefault("DB_NAME", "openbook")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("BOOKING_DEFAULT_INCREMENT", "15m")
	v.SetDefault("BOOKING_MAX_WINDOW_DAYS", 60)
	v.SetDefault("BOOKING_MANAGE_TOKEN_SECRET", "dev_manage_secret")
	v.SetDefault("BOOKING_MANAGE_TOKEN_TTL", "720h")

	v.SetDefault("CALENDAR_FRESHNESS_TTL", "10m")
	v.SetDefault("CALENDAR_FETCH_TIMEOUT", "5s")
	v.SetDefault("CALENDAR_FREEBUSY_BASE_URL", "")
	v.SetDefault("CALENDAR_FREEBUSY_TOKEN", "")
	v.SetDefault("CALENDAR_SYNC_SCHEDULE", "@every 5m")
	v.SetDefault("CALENDAR_SYNC_WORKERS", 2)
	v.SetDefault("CALENDAR_SYNC_ENABLED", false)

	v.SetDefault("ROUND_ROBIN_STATS_CACHE_TTL", "1m")

	v.SetDefault("ENABLE_EXPORTS", false)
	v.SetDefault("EXPORTS_MAX_ROWS", 5000)
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
