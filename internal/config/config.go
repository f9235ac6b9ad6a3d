package config

import (
	"time"

	"github.com/joho/godotenv"

	pkgconfig "github.com/Checker-Finance/moa-adapter/pkg/config"
)

// Config holds the runtime configuration for a service instance.
// Optional integrations (Postgres archive, NATS events, AWS secret overrides)
// are disabled when their address is empty.
type Config struct {
	ServiceName      string // e.g. "moa-adapter"
	Env              string // "dev", "uat", "prod"
	LogLevel         string
	Port             int
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	HTTPBodyLimit    int

	DataDir         string
	SnapshotBackend string // file | memory | redis | sqlite
	SQLitePath      string
	RedisAddr       string
	RedisDB         int
	RedisPass       string

	DatabaseURL         string
	PGMaxConns          int
	PGMinConns          int
	PGMaxConnLifetime   time.Duration
	PGMaxConnIdleTime   time.Duration
	PGHealthCheckPeriod time.Duration

	NATSURL string

	AWSRegion     string
	AWSSecretName string
	SecretTTL     time.Duration

	MOABaseURL       string
	MOAMarketName    string
	MOAHTTPTimeout   time.Duration
	MOARatePerSecond float64
	MOARateBurst     int
	MOATimezone      string
	ZeroSampleSize   int
	ZeroThreshold    string
	WriteTimeout     time.Duration

	WarmUpEnabled  bool
	WarmUpAt       time.Time
	WarmUpInterval time.Duration
}

// Load loads configuration from environment variables and a .env file if present.
func Load() *Config {
	// load .env silently (no error if missing)
	_ = godotenv.Load()

	return &Config{
		ServiceName:      pkgconfig.GetEnv("SERVICE_NAME", "moa-adapter"),
		Env:              pkgconfig.GetEnv("ENV", "dev"),
		LogLevel:         pkgconfig.GetEnv("LOG_LEVEL", "info"),
		Port:             pkgconfig.GetEnvInt("PORT", 3001),
		HTTPReadTimeout:  pkgconfig.GetEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout: pkgconfig.GetEnvDuration("HTTP_WRITE_TIMEOUT", 45*time.Second),
		HTTPIdleTimeout:  pkgconfig.GetEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		HTTPBodyLimit:    pkgconfig.GetEnvInt("HTTP_BODY_LIMIT", 10*1024*1024),

		DataDir:         pkgconfig.GetEnv("DATA_DIR", "./data"),
		SnapshotBackend: pkgconfig.GetEnv("SNAPSHOT_BACKEND", "file"),
		SQLitePath:      pkgconfig.GetEnv("SQLITE_PATH", ""),
		RedisAddr:       pkgconfig.GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:         pkgconfig.GetEnvInt("REDIS_DB", 0),
		RedisPass:       pkgconfig.GetEnv("REDIS_PASS", ""),

		DatabaseURL:         pkgconfig.GetEnv("DATABASE_URL", ""),
		PGMaxConns:          pkgconfig.GetEnvInt("PG_MAX_CONNS", 5),
		PGMinConns:          pkgconfig.GetEnvInt("PG_MIN_CONNS", 1),
		PGMaxConnLifetime:   pkgconfig.GetEnvDuration("PG_MAX_CONN_LIFETIME", 30*time.Minute),
		PGMaxConnIdleTime:   pkgconfig.GetEnvDuration("PG_MAX_CONN_IDLE_TIME", 5*time.Minute),
		PGHealthCheckPeriod: pkgconfig.GetEnvDuration("PG_HEALTH_CHECK_PERIOD", 1*time.Minute),

		NATSURL: pkgconfig.GetEnv("NATS_URL", ""),

		AWSRegion:     pkgconfig.GetEnv("AWS_REGION", "ap-northeast-1"),
		AWSSecretName: pkgconfig.GetEnv("AWS_SECRET_NAME", ""),
		SecretTTL:     pkgconfig.GetEnvDuration("SECRET_TTL", 1*time.Hour),

		MOABaseURL:       pkgconfig.GetEnv("MOA_BASE_URL", "https://data.moa.gov.tw"),
		MOAMarketName:    pkgconfig.GetEnv("MOA_MARKET_NAME", "台北一"),
		MOAHTTPTimeout:   pkgconfig.GetEnvDuration("MOA_HTTP_TIMEOUT", 30*time.Second),
		MOARatePerSecond: pkgconfig.GetEnvFloat("MOA_RATE_PER_SECOND", 2),
		MOARateBurst:     pkgconfig.GetEnvInt("MOA_RATE_BURST", 2),
		MOATimezone:      pkgconfig.GetEnv("MOA_TIMEZONE", "Asia/Taipei"),
		ZeroSampleSize:   pkgconfig.GetEnvInt("MOA_ZERO_SAMPLE_SIZE", 5),
		ZeroThreshold:    pkgconfig.GetEnv("MOA_ZERO_THRESHOLD", "0"),
		WriteTimeout:     pkgconfig.GetEnvDuration("SNAPSHOT_WRITE_TIMEOUT", 30*time.Second),

		WarmUpEnabled:  pkgconfig.GetEnvBool("WARMUP_ENABLED", false),
		WarmUpAt:       pkgconfig.GetEnvTime("WARMUP_AT", "08:30"),
		WarmUpInterval: pkgconfig.GetEnvDuration("WARMUP_INTERVAL", 0),
	}
}
