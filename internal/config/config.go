// Package config собирает настройки taskmill-server из переменных окружения.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shaiso/Taskmill/internal/policy"
)

// Config — настройки сервера.
type Config struct {
	Port        string // TASKMILL_PORT (default: 8090)
	DatabaseURL string // DB_URL, пусто — адрес для локальной разработки
	RabbitMQURL string // RABBITMQ_URL, пусто — адрес для локальной разработки

	SweepInterval    time.Duration // SWEEP_INTERVAL (default: 1s)
	LeaseTimeout     time.Duration // LEASE_TIMEOUT, 0 — lease не отбираются
	SnapshotInterval time.Duration // SNAPSHOT_INTERVAL (default: 30s)

	WorkerConcurrency  int           // WORKER_CONCURRENCY, 0 — без встроенных воркеров
	WorkerPollInterval time.Duration // WORKER_POLL_INTERVAL (default: 500ms)

	StrictDependencies bool   // STRICT_DEPENDENCIES
	RetryPolicy        string // RETRY_POLICY: penalty (default) или none
}

// Load читает конфигурацию из окружения.
// Некорректные значения возвращают ошибку, а не подменяются default.
func Load() (Config, error) {
	return load(os.Getenv)
}

func load(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:        "8090",
		DatabaseURL: getenv("DB_URL"),
		RabbitMQURL: getenv("RABBITMQ_URL"),
	}
	if v := getenv("TASKMILL_PORT"); v != "" {
		cfg.Port = v
	}

	var errs []error
	duration := func(key string, def time.Duration) time.Duration {
		v := getenv(key)
		if v == "" {
			return def
		}
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", key, v))
			return def
		}
		return d
	}

	cfg.SweepInterval = duration("SWEEP_INTERVAL", time.Second)
	cfg.LeaseTimeout = duration("LEASE_TIMEOUT", 0)
	cfg.SnapshotInterval = duration("SNAPSHOT_INTERVAL", 30*time.Second)
	cfg.WorkerPollInterval = duration("WORKER_POLL_INTERVAL", 500*time.Millisecond)

	if v := getenv("WORKER_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			errs = append(errs, fmt.Errorf("WORKER_CONCURRENCY: invalid value %q", v))
		}
		cfg.WorkerConcurrency = max(n, 0)
	}

	if v := getenv("STRICT_DEPENDENCIES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("STRICT_DEPENDENCIES: invalid value %q", v))
		}
		cfg.StrictDependencies = b
	}

	cfg.RetryPolicy = "penalty"
	if v := getenv("RETRY_POLICY"); v != "" {
		if _, err := policy.ParseRetry(v); err != nil {
			errs = append(errs, fmt.Errorf("RETRY_POLICY: %w", err))
		}
		cfg.RetryPolicy = v
	}

	if cfg.SweepInterval == 0 {
		errs = append(errs, errors.New("SWEEP_INTERVAL: must be positive"))
	}

	return cfg, errors.Join(errs...)
}
