// Package config loads pipeline configuration from, in increasing priority:
// built-in defaults, an optional TOML file, then environment variables.
// The shape and precedence mirror how the teacher's node config layers
// a genesis/toml file under flag and env overrides.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/zk-thunder/da-pipeline/internal/da"
	"github.com/zk-thunder/da-pipeline/internal/errs"
)

// Config is the fully resolved configuration for the DA pipeline process.
type Config struct {
	// Mintlayer JSON-RPC endpoint.
	MintlayerRPCURL      string `toml:"mintlayer_rpc_url"`
	MintlayerRPCUsername string `toml:"mintlayer_rpc_username"`
	MintlayerRPCPassword string `toml:"mintlayer_rpc_password"`
	MintlayerMnemonic    string `toml:"mintlayer_mnemonic"`

	// 4everland (IPFS-backed S3-compatible) object store.
	ObjectStoreAPIKey    string `toml:"object_store_api_key"`
	ObjectStoreSecretKey string `toml:"object_store_secret_key"`
	ObjectStoreBucket    string `toml:"object_store_bucket"`
	ObjectStoreEndpoint  string `toml:"object_store_endpoint"`
	ObjectStoreRegion    string `toml:"object_store_region"`

	// Postgres.
	DatabaseURL string `toml:"database_url"`

	// Pipeline tuning.
	MaxRetryAttempts     uint32        `toml:"max_retry_attempts"`
	MaxBatchSizeRows     uint32        `toml:"max_batch_size_rows"`
	MintlayerBatchSize   int           `toml:"mintlayer_batch_size"`
	PollInterval         time.Duration `toml:"poll_interval"`
	CleanupInterval      time.Duration `toml:"cleanup_interval"`
	CleanupDaysThreshold int           `toml:"cleanup_days_threshold"`

	// Retry backoff.
	RetryBaseDelay time.Duration `toml:"retry_base_delay"`
	RetryMaxDelay  time.Duration `toml:"retry_max_delay"`

	// Circuit breaker.
	CircuitBreakerFailureThreshold uint32        `toml:"circuit_breaker_failure_threshold"`
	CircuitBreakerResetTimeout     time.Duration `toml:"circuit_breaker_reset_timeout"`

	// Outbound call pacing, applied after the circuit-breaker check and
	// before each operation's calls. Zero means unlimited.
	IPFSRateLimitPerSecond      float64 `toml:"ipfs_rate_limit_per_second"`
	MintlayerRateLimitPerSecond float64 `toml:"mintlayer_rate_limit_per_second"`

	// Logging.
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"` // "terminal" or "json"
	LogFile   string `toml:"log_file"`

	// Metrics HTTP listener, e.g. ":9100".
	MetricsAddr string `toml:"metrics_addr"`
}

// Defaults returns the baseline configuration before any file or
// environment override is applied.
func Defaults() Config {
	return Config{
		MaxRetryAttempts:               da.MaxRetryAttempts,
		MaxBatchSizeRows:               da.MaxPollBatchRows,
		MintlayerBatchSize:             6,
		PollInterval:                   1 * time.Second,
		CleanupInterval:                300 * time.Second,
		CleanupDaysThreshold:           7,
		RetryBaseDelay:                 500 * time.Millisecond,
		RetryMaxDelay:                  30 * time.Second,
		CircuitBreakerFailureThreshold: 5,
		CircuitBreakerResetTimeout:     300 * time.Second,
		LogLevel:                       "info",
		LogFormat:                      "terminal",
		MetricsAddr:                    ":9100",
		ObjectStoreRegion:              "us-east-1",
	}
}

// Load builds the final Config: Defaults, then path (if non-empty) parsed as
// TOML, then environment variable overrides, then validation.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, errs.Configf("decoding config file %q: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	str(&cfg.MintlayerRPCURL, "ML_RPC_URL")
	str(&cfg.MintlayerRPCUsername, "ML_RPC_USERNAME")
	str(&cfg.MintlayerRPCPassword, "ML_RPC_PASSWORD")
	str(&cfg.MintlayerMnemonic, "ML_MNEMONIC")

	str(&cfg.ObjectStoreAPIKey, "4EVERLAND_API_KEY")
	str(&cfg.ObjectStoreSecretKey, "4EVERLAND_SECRET_KEY")
	str(&cfg.ObjectStoreBucket, "4EVERLAND_BUCKET_NAME")
	str(&cfg.ObjectStoreEndpoint, "4EVERLAND_ENDPOINT")
	str(&cfg.ObjectStoreRegion, "4EVERLAND_REGION")

	str(&cfg.DatabaseURL, "DATABASE_URL")

	u32(&cfg.MaxRetryAttempts, "MAX_RETRY_ATTEMPTS")
	u32(&cfg.MaxBatchSizeRows, "MAX_BATCH_SIZE_ROWS")
	integer(&cfg.MintlayerBatchSize, "MINTLAYER_BATCH_SIZE")
	duration(&cfg.PollInterval, "POLL_INTERVAL_SECONDS")
	duration(&cfg.CleanupInterval, "CLEANUP_INTERVAL_SECONDS")
	integer(&cfg.CleanupDaysThreshold, "CLEANUP_DAYS_THRESHOLD")

	duration(&cfg.RetryBaseDelay, "RETRY_BASE_DELAY_MS")
	duration(&cfg.RetryMaxDelay, "RETRY_MAX_DELAY_MS")

	u32(&cfg.CircuitBreakerFailureThreshold, "CIRCUIT_BREAKER_FAILURE_THRESHOLD")
	duration(&cfg.CircuitBreakerResetTimeout, "CIRCUIT_BREAKER_RESET_TIMEOUT_SECONDS")

	str(&cfg.LogLevel, "LOG_LEVEL")
	str(&cfg.LogFormat, "LOG_FORMAT")
	str(&cfg.LogFile, "LOG_FILE")
	str(&cfg.MetricsAddr, "METRICS_ADDR")
}

func str(dst *string, env string) {
	if v, ok := os.LookupEnv(env); ok {
		*dst = v
	}
}

func integer(dst *int, env string) {
	if v, ok := os.LookupEnv(env); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func u32(dst *uint32, env string) {
	if v, ok := os.LookupEnv(env); ok {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			*dst = uint32(n)
		}
	}
}

// duration reads an env var expressed in the unit implied by its name
// (seconds or milliseconds) into a time.Duration field.
func duration(dst *time.Duration, env string) {
	v, ok := os.LookupEnv(env)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	if len(env) >= 2 && env[len(env)-2:] == "MS" {
		*dst = time.Duration(n) * time.Millisecond
		return
	}
	*dst = time.Duration(n) * time.Second
}

func (c Config) validate() error {
	if c.MintlayerRPCURL == "" {
		return errs.Configf("ML_RPC_URL is required")
	}
	if c.ObjectStoreAPIKey == "" {
		return errs.Configf("4EVERLAND_API_KEY is required")
	}
	if c.ObjectStoreSecretKey == "" {
		return errs.Configf("4EVERLAND_SECRET_KEY is required")
	}
	if c.ObjectStoreBucket == "" {
		return errs.Configf("4EVERLAND_BUCKET_NAME is required")
	}
	if c.DatabaseURL == "" {
		return errs.Configf("DATABASE_URL is required")
	}
	if c.MintlayerBatchSize <= 0 {
		return errs.Configf("mintlayer_batch_size must be positive, got %d", c.MintlayerBatchSize)
	}
	if c.MaxRetryAttempts == 0 {
		return errs.Configf("max_retry_attempts must be positive")
	}
	return nil
}
