package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Occupancy  OccupancyConfig  `yaml:"occupancy"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// OccupancyConfig holds the settings for occupancy reconciliation and the
// live facility stream.
type OccupancyConfig struct {
	ReconcileEnabled         bool          `yaml:"reconcile_enabled"`
	ReconcileIntervalSeconds int           `yaml:"reconcile_interval_seconds"`
	ReconcileInterval        time.Duration `yaml:"-"` // Ignored by YAML parser
	HeartbeatSeconds         int           `yaml:"heartbeat_seconds"`
	Heartbeat                time.Duration `yaml:"-"`
	StreamBuffer             int           `yaml:"stream_buffer"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	EnableTimescale        bool   `yaml:"enable_timescale"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Occupancy.ReconcileIntervalSeconds <= 0 {
		cfg.Occupancy.ReconcileIntervalSeconds = 60
	}
	cfg.Occupancy.ReconcileInterval = time.Duration(cfg.Occupancy.ReconcileIntervalSeconds) * time.Second

	if cfg.Occupancy.HeartbeatSeconds <= 0 {
		cfg.Occupancy.HeartbeatSeconds = 15
	}
	cfg.Occupancy.Heartbeat = time.Duration(cfg.Occupancy.HeartbeatSeconds) * time.Second

	if cfg.Occupancy.StreamBuffer <= 0 {
		cfg.Occupancy.StreamBuffer = 8
	}

	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 5
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}
