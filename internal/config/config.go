package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	PostgresAddress  string
	PostgresPort     string
	PostgresDB       string
	PostgresUsername string
	PostgresPassword string

	// Pool sizing is deployment configuration; the engine only reacts to exhaustion.
	PostgresMaxOpenConns    int
	PostgresMaxIdleConns    int
	PostgresConnMaxLifetime time.Duration
	PoolAcquireTimeout      time.Duration

	// LockTimeout bounds how long a unit of work waits for an account hold.
	LockTimeout time.Duration

	HTTPPort       string
	LogLevel       logrus.Level
	RedisAddress   string
	IdempotencyTTL time.Duration

	// UseMemoryStore runs the ledger against the in-process store instead of Postgres.
	UseMemoryStore bool
}

// PostgresURL is the lib/pq connection string for the configured database.
func (c *Config) PostgresURL() string {
	return "postgres://" + c.PostgresUsername + ":" +
		c.PostgresPassword + "@" + c.PostgresAddress + ":" +
		c.PostgresPort + "/" + c.PostgresDB + "?sslmode=disable"
}

func ProcessEnvironmentVariables() (*Config, error) {
	// a missing .env is normal outside local development
	_ = godotenv.Load()

	// In all cases the default behavior should be for the docker compose setup
	env := Config{
		PostgresAddress:         "localhost",
		PostgresPort:            "5433",
		PostgresDB:              "postgres",
		PostgresUsername:        "postgres",
		PostgresPassword:        "testpassword",
		PostgresMaxOpenConns:    10,
		PostgresMaxIdleConns:    5,
		PostgresConnMaxLifetime: time.Hour,
		PoolAcquireTimeout:      3 * time.Second,
		LockTimeout:             5 * time.Second,
		HTTPPort:                "9446",
		LogLevel:                logrus.InfoLevel,
		IdempotencyTTL:          24 * time.Hour,
	}

	envPostgresAddress := os.Getenv("POSTGRES_ADDRESS")
	envPostgresPort := os.Getenv("POSTGRES_PORT")
	envPostgresDB := os.Getenv("POSTGRES_DB")
	envPostgresUsername := os.Getenv("POSTGRES_USERNAME")
	envPostgresPassword := os.Getenv("POSTGRES_PASSWORD")
	envHTTPPort := os.Getenv("HTTP_PORT")
	envRedisAddress := os.Getenv("REDIS_ADDRESS")

	if len(envPostgresAddress) != 0 {
		env.PostgresAddress = envPostgresAddress
	}

	if len(envPostgresPort) != 0 {
		env.PostgresPort = envPostgresPort
	}

	if len(envPostgresDB) != 0 {
		env.PostgresDB = envPostgresDB
	}

	if len(envPostgresUsername) != 0 {
		env.PostgresUsername = envPostgresUsername
	}

	if len(envPostgresPassword) != 0 {
		env.PostgresPassword = envPostgresPassword
	}

	if len(envHTTPPort) != 0 {
		env.HTTPPort = envHTTPPort
	}

	if len(envRedisAddress) != 0 {
		env.RedisAddress = envRedisAddress
	}

	var err error
	if env.PostgresMaxOpenConns, err = intFromEnv("POSTGRES_MAX_OPEN_CONNS", env.PostgresMaxOpenConns); err != nil {
		return nil, err
	}
	if env.PostgresMaxIdleConns, err = intFromEnv("POSTGRES_MAX_IDLE_CONNS", env.PostgresMaxIdleConns); err != nil {
		return nil, err
	}
	if env.PostgresConnMaxLifetime, err = durationFromEnv("POSTGRES_CONN_MAX_LIFETIME", env.PostgresConnMaxLifetime); err != nil {
		return nil, err
	}
	if env.PoolAcquireTimeout, err = durationFromEnv("POOL_ACQUIRE_TIMEOUT", env.PoolAcquireTimeout); err != nil {
		return nil, err
	}
	if env.LockTimeout, err = durationFromEnv("LOCK_TIMEOUT", env.LockTimeout); err != nil {
		return nil, err
	}
	if env.IdempotencyTTL, err = durationFromEnv("IDEMPOTENCY_TTL", env.IdempotencyTTL); err != nil {
		return nil, err
	}

	if lvl := os.Getenv("LOG_LEVEL"); len(lvl) != 0 {
		env.LogLevel, err = logrus.ParseLevel(lvl)
		if err != nil {
			return nil, fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}

	if mem := os.Getenv("USE_MEMORY_STORE"); len(mem) != 0 {
		env.UseMemoryStore, err = strconv.ParseBool(mem)
		if err != nil {
			return nil, fmt.Errorf("USE_MEMORY_STORE: %w", err)
		}
	}

	if env.PostgresMaxOpenConns < 1 {
		return nil, fmt.Errorf("POSTGRES_MAX_OPEN_CONNS must be at least 1, got %d", env.PostgresMaxOpenConns)
	}
	if env.LockTimeout <= 0 {
		return nil, fmt.Errorf("LOCK_TIMEOUT must be positive, got %s", env.LockTimeout)
	}

	return &env, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if len(raw) == 0 {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if len(raw) == 0 {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}
