// Package config binds the runtime's environment variables through
// Viper, following the teacher's cmd/server prefix-and-default
// convention but under the CR_ prefix.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every tunable the serve command needs to bring the
// runtime up.
type Config struct {
	DatabaseURL        string
	Provider           string
	OpenAIAPIKey       string
	RecoveryInterval   time.Duration
	WorkerTimeout      time.Duration
	HTTPAddr           string
	MaxWorkers         int
	FetchLimit         int
	DBMaxOpenConns     int
	DBMaxIdleConns     int
	DBConnMaxLifetime  time.Duration
	DBConnMaxIdleTime  time.Duration
}

// Load reads CR_-prefixed environment variables (plus the
// unprefixed DATABASE_URL and OPENAI_API_KEY, for parity with
// common Postgres/OpenAI tooling) into a Config, applying the
// spec's documented defaults for anything unset.
func Load() Config {
	v := viper.New()
	v.SetEnvPrefix("CR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.BindEnv("database_url", "DATABASE_URL")
	v.BindEnv("openai_api_key", "OPENAI_API_KEY")
	// The pool knobs are unprefixed, matching common Postgres tooling
	// convention, same as DATABASE_URL above.
	v.BindEnv("db_max_open_conns", "DB_MAX_OPEN_CONNS")
	v.BindEnv("db_max_idle_conns", "DB_MAX_IDLE_CONNS")
	v.BindEnv("db_conn_max_lifetime", "DB_CONN_MAX_LIFETIME")
	v.BindEnv("db_conn_max_idle_time", "DB_CONN_MAX_IDLE_TIME")

	v.SetDefault("provider", "mock")
	v.SetDefault("recovery_interval", time.Minute)
	v.SetDefault("worker_timeout", 5*time.Minute)
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("max_workers", 10)
	v.SetDefault("fetch_limit", 10)
	v.SetDefault("db_max_open_conns", 25)
	v.SetDefault("db_max_idle_conns", 10)
	v.SetDefault("db_conn_max_lifetime", 5*time.Minute)
	v.SetDefault("db_conn_max_idle_time", 2*time.Minute)

	provider := v.GetString("provider")
	// IsSet also reports keys that only carry a default, so an explicit
	// provider choice is detected from the environment directly.
	if _, explicit := os.LookupEnv("CR_PROVIDER"); v.GetString("openai_api_key") != "" && !explicit {
		provider = "cortex"
	}

	return Config{
		DatabaseURL:       v.GetString("database_url"),
		Provider:          provider,
		OpenAIAPIKey:      v.GetString("openai_api_key"),
		RecoveryInterval:  v.GetDuration("recovery_interval"),
		WorkerTimeout:     v.GetDuration("worker_timeout"),
		HTTPAddr:          v.GetString("http_addr"),
		MaxWorkers:        v.GetInt("max_workers"),
		FetchLimit:        v.GetInt("fetch_limit"),
		DBMaxOpenConns:    v.GetInt("db_max_open_conns"),
		DBMaxIdleConns:    v.GetInt("db_max_idle_conns"),
		DBConnMaxLifetime: v.GetDuration("db_conn_max_lifetime"),
		DBConnMaxIdleTime: v.GetDuration("db_conn_max_idle_time"),
	}
}
