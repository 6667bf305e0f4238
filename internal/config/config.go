package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	// Server
	Addr            string
	ShutdownTimeout time.Duration

	Database Database
	Log      Log
	Cache    Cache

	// Sessions and identity
	SessionKey    string
	SecureCookies bool
	BcryptCost    int

	// Media
	MediaRoot string
	MediaURL  string

	LoginRatePerMinute int
	LoginBurst         int
}

// Database selects SQLite when Host is empty and Postgres otherwise.
type Database struct {
	Path     string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type Log struct {
	Level        string
	Format       string
	LogstashAddr string
}

type Cache struct {
	Backend       string
	TTL           time.Duration
	Prefix        string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Load reads .env (if present), environment variables and an optional
// config.yaml, in that order of precedence from lowest to highest for env.
func Load() (*Config, error) {
	_ = godotenv.Load() // ignore error if no .env

	v := viper.New()
	setDefaults(v)

	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	shutdownTimeout, err := parseDuration(v, "SHUTDOWN_TIMEOUT")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration(v, "CACHE_TTL")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Addr:            v.GetString("ADDR"),
		ShutdownTimeout: shutdownTimeout,
		Database: Database{
			Path:     v.GetString("DATABASE"),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetString("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Name:     v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		Log: Log{
			Level:        v.GetString("LOG_LEVEL"),
			Format:       v.GetString("LOG_FORMAT"),
			LogstashAddr: v.GetString("LOGSTASH_ADDR"),
		},
		Cache: Cache{
			Backend:       v.GetString("CACHE_BACKEND"),
			TTL:           cacheTTL,
			Prefix:        v.GetString("CACHE_PREFIX"),
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
		},
		SessionKey:         v.GetString("SESSION_KEY"),
		SecureCookies:      v.GetBool("SECURE_COOKIES"),
		BcryptCost:         v.GetInt("BCRYPT_COST"),
		MediaRoot:          v.GetString("MEDIA_ROOT"),
		MediaURL:           v.GetString("MEDIA_URL"),
		LoginRatePerMinute: v.GetInt("LOGIN_RATE_PER_MINUTE"),
		LoginBurst:         v.GetInt("LOGIN_BURST"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ADDR", ":8080")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")

	v.SetDefault("DATABASE", "yatube.db")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSLMODE", "require")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CACHE_BACKEND", "memory")
	v.SetDefault("CACHE_TTL", "20s")
	v.SetDefault("CACHE_PREFIX", "yatube:page:")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SECURE_COOKIES", false)
	v.SetDefault("BCRYPT_COST", 12)

	v.SetDefault("MEDIA_ROOT", "media")
	v.SetDefault("MEDIA_URL", "/media/")

	v.SetDefault("LOGIN_RATE_PER_MINUTE", 10)
	v.SetDefault("LOGIN_BURST", 5)
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q (want memory or redis)", c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %s", c.Cache.TTL)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout)
	}
	if c.LoginRatePerMinute <= 0 || c.LoginBurst <= 0 {
		return fmt.Errorf("LOGIN_RATE_PER_MINUTE and LOGIN_BURST must be positive")
	}
	return nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := v.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}
