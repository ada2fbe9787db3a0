package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Supported storage drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Supported list cache drivers.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds the runtime settings of the service.
type Config struct {
	Port             int
	Database         DatabaseConfig
	InitializeDB     bool
	Cache            CacheConfig
	Redis            RedisConfig
	RabbitMQURL      string
	StaticDir        string
	LogLevel         slog.Level
	CORSAllowOrigins string
}

// DatabaseConfig selects and addresses the product store.
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       int
	Username   string
	Password   string
	Name       string
	SQLitePath string
}

// DSN returns the postgres connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.Username, c.Password, c.Name)
}

type CacheConfig struct {
	Driver string
	TTL    time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Addr is the address the HTTP server listens on.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "3000")
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USERNAME", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_DATABASE", "inventory")
	v.SetDefault("DB_SQLITE_PATH", "inventory.db")
	v.SetDefault("INITIALIZE_DB", "")
	v.SetDefault("CACHE_DRIVER", CacheNone)
	v.SetDefault("CACHE_TTL", "30s")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", "0")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("STATIC_DIR", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")
}

// Load reads an optional .env file and the process environment.
// A missing env file is not an error.
func Load(envFiles ...string) (*Config, error) {
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	return FromViper(v)
}

// FromViper builds a Config from v and reports every invalid key at once.
func FromViper(v *viper.Viper) (*Config, error) {
	var invalid []string
	intKey := func(key string, lo, hi int) int {
		n, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
		if err != nil || n < lo || n > hi {
			invalid = append(invalid, key)
		}
		return n
	}
	oneOf := func(key string, allowed ...string) string {
		s := strings.ToLower(strings.TrimSpace(v.GetString(key)))
		for _, a := range allowed {
			if s == a {
				return s
			}
		}
		invalid = append(invalid, key)
		return s
	}

	cfg := &Config{
		Port: intKey("PORT", 1, 65535),
		Database: DatabaseConfig{
			Driver:     oneOf("DB_DRIVER", DriverPostgres, DriverSQLite, DriverMemory),
			Host:       v.GetString("DB_HOST"),
			Port:       intKey("DB_PORT", 1, 65535),
			Username:   v.GetString("DB_USERNAME"),
			Password:   v.GetString("DB_PASSWORD"),
			Name:       v.GetString("DB_DATABASE"),
			SQLitePath: v.GetString("DB_SQLITE_PATH"),
		},
		InitializeDB: oneOf("INITIALIZE_DB", "true", "false", "") == "true",
		Cache: CacheConfig{
			Driver: oneOf("CACHE_DRIVER", CacheNone, CacheMemory, CacheRedis),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       intKey("REDIS_DB", 0, 15),
		},
		RabbitMQURL:      v.GetString("RABBITMQ_URL"),
		StaticDir:        v.GetString("STATIC_DIR"),
		CORSAllowOrigins: v.GetString("CORS_ALLOW_ORIGINS"),
	}

	ttl, err := time.ParseDuration(v.GetString("CACHE_TTL"))
	if err != nil || ttl < 0 {
		invalid = append(invalid, "CACHE_TTL")
	}
	cfg.Cache.TTL = ttl

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("LOG_LEVEL"))); err != nil {
		invalid = append(invalid, "LOG_LEVEL")
	}

	if cfg.Database.Driver == DriverPostgres {
		for _, key := range []string{"DB_HOST", "DB_USERNAME", "DB_DATABASE"} {
			if strings.TrimSpace(v.GetString(key)) == "" {
				invalid = append(invalid, key)
			}
		}
	}
	if cfg.Database.Driver == DriverSQLite && strings.TrimSpace(cfg.Database.SQLitePath) == "" {
		invalid = append(invalid, "DB_SQLITE_PATH")
	}

	if len(invalid) > 0 {
		return nil, &InvalidError{Keys: invalid}
	}
	return cfg, nil
}

// InvalidError lists the environment variables that are missing or malformed.
type InvalidError struct {
	Keys []string
}

func (e *InvalidError) Error() string {
	return "missing or invalid environment variables: " + strings.Join(e.Keys, ", ")
}
