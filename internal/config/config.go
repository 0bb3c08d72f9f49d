package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go-crewperf/internal/shared/connection"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	Port        string                    `toml:"-"`
	DB          connection.PostgresConfig `toml:"-"`
	RedisAddr   string                    `toml:"-"`
	KafkaBroker string                    `toml:"-"`

	Pipeline PipelineConfig `toml:"pipeline"`
	HTTP     HTTPConfig     `toml:"http"`
	Worker   WorkerConfig   `toml:"worker"`
}

// PipelineConfig tunes matching and session handling. It can be set in
// the TOML file and overridden per key from the environment.
type PipelineConfig struct {
	MatchThreshold       float64  `toml:"match_threshold"`
	MatchCandidateLimit  int      `toml:"match_candidate_limit"`
	BranchSuffixes       []string `toml:"branch_suffixes"`
	SessionLockTTLSec    int      `toml:"session_lock_ttl_sec"`
	SessionLockWaitMs    int      `toml:"session_lock_wait_ms"`
	ImportWaitMaxSec     int      `toml:"import_wait_max_sec"`
	ImportPollInitialMs  int      `toml:"import_poll_initial_ms"`
	UploadMaxBytes       int64    `toml:"upload_max_bytes"`
	DirectoryMatchCutoff float64  `toml:"directory_match_cutoff"`
}

type HTTPConfig struct {
	ReadTimeoutSec    int     `toml:"read_timeout_sec"`
	WriteTimeoutSec   int     `toml:"write_timeout_sec"`
	IdleTimeoutSec    int     `toml:"idle_timeout_sec"`
	UploadRatePerSec  float64 `toml:"upload_rate_per_sec"`
	UploadBurst       int     `toml:"upload_burst"`
	IdempotencyTTLSec int     `toml:"idempotency_ttl_sec"`
}

type WorkerConfig struct {
	OutboxPollIntervalMs int `toml:"outbox_poll_interval_ms"`
	OutboxBatchSize      int `toml:"outbox_batch_size"`
}

func Default() Config {
	return Config{
		Port: "3000",
		DB: connection.PostgresConfig{
			Host:    "localhost",
			Port:    "5432",
			SSLMode: "disable",
		},
		RedisAddr: "localhost:6379",
		Pipeline: PipelineConfig{
			MatchThreshold:       0.80,
			MatchCandidateLimit:  3,
			SessionLockTTLSec:    30,
			SessionLockWaitMs:    2000,
			ImportWaitMaxSec:     30,
			ImportPollInitialMs:  250,
			UploadMaxBytes:       10 << 20,
			DirectoryMatchCutoff: 0.90,
		},
		HTTP: HTTPConfig{
			ReadTimeoutSec:    15,
			WriteTimeoutSec:   45,
			IdleTimeoutSec:    60,
			UploadRatePerSec:  0.5,
			UploadBurst:       3,
			IdempotencyTTLSec: 24 * 60 * 60,
		},
		Worker: WorkerConfig{
			OutboxPollIntervalMs: 3000,
			OutboxBatchSize:      50,
		},
	}
}

// Load reads .env, then the optional TOML file named by CONFIG_FILE
// (default config.toml), then environment overrides.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	path := getEnv("CONFIG_FILE", "config.toml")
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, cfg.validate()
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.DB.Host = getEnv("DB_HOST", c.DB.Host)
	c.DB.User = getEnv("DB_USER", c.DB.User)
	c.DB.Password = getEnv("DB_PASSWORD", c.DB.Password)
	c.DB.Name = getEnv("DB_NAME", c.DB.Name)
	c.DB.Port = getEnv("DB_PORT", c.DB.Port)
	c.DB.SSLMode = getEnv("DB_SSLMODE", c.DB.SSLMode)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.KafkaBroker = getEnv("KAFKA_BROKER", c.KafkaBroker)

	p := &c.Pipeline
	p.MatchThreshold = getEnvFloat("MATCH_THRESHOLD", p.MatchThreshold)
	p.MatchCandidateLimit = getEnvInt("MATCH_CANDIDATE_LIMIT", p.MatchCandidateLimit)
	if v := getEnv("MATCH_BRANCH_SUFFIXES", ""); v != "" {
		p.BranchSuffixes = splitList(v)
	}
	p.SessionLockTTLSec = getEnvInt("SESSION_LOCK_TTL_SEC", p.SessionLockTTLSec)
	p.SessionLockWaitMs = getEnvInt("SESSION_LOCK_WAIT_MS", p.SessionLockWaitMs)
	p.ImportWaitMaxSec = getEnvInt("IMPORT_WAIT_MAX_SEC", p.ImportWaitMaxSec)
	p.ImportPollInitialMs = getEnvInt("IMPORT_POLL_INITIAL_MS", p.ImportPollInitialMs)
	p.UploadMaxBytes = int64(getEnvInt("UPLOAD_MAX_BYTES", int(p.UploadMaxBytes)))
	p.DirectoryMatchCutoff = getEnvFloat("DIRECTORY_MATCH_CUTOFF", p.DirectoryMatchCutoff)

	c.HTTP.UploadRatePerSec = getEnvFloat("UPLOAD_RATE_PER_SEC", c.HTTP.UploadRatePerSec)
	c.HTTP.UploadBurst = getEnvInt("UPLOAD_BURST", c.HTTP.UploadBurst)
	c.Worker.OutboxPollIntervalMs = getEnvInt("OUTBOX_POLL_INTERVAL_MS", c.Worker.OutboxPollIntervalMs)
}

func (c Config) validate() error {
	if c.Pipeline.MatchThreshold <= 0 || c.Pipeline.MatchThreshold > 1 {
		return fmt.Errorf("match threshold must be in (0,1], got %v", c.Pipeline.MatchThreshold)
	}
	if c.Pipeline.MatchCandidateLimit < 0 {
		return fmt.Errorf("match candidate limit cannot be negative")
	}
	if c.Pipeline.UploadMaxBytes <= 0 {
		return fmt.Errorf("upload max bytes must be positive")
	}
	return nil
}

// Require reports a missing mandatory setting by its env var name.
func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func (p PipelineConfig) SessionLockTTL() time.Duration {
	return time.Duration(p.SessionLockTTLSec) * time.Second
}

func (p PipelineConfig) SessionLockWait() time.Duration {
	return time.Duration(p.SessionLockWaitMs) * time.Millisecond
}

func (p PipelineConfig) ImportWaitMax() time.Duration {
	return time.Duration(p.ImportWaitMaxSec) * time.Second
}

func (p PipelineConfig) ImportPollInitial() time.Duration {
	return time.Duration(p.ImportPollInitialMs) * time.Millisecond
}

func (h HTTPConfig) IdempotencyTTL() time.Duration {
	return time.Duration(h.IdempotencyTTLSec) * time.Second
}

func (w WorkerConfig) OutboxPollInterval() time.Duration {
	return time.Duration(w.OutboxPollIntervalMs) * time.Millisecond
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
