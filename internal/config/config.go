package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment is the execution environment the service runs in. It is passed
// explicitly to the components that branch on it; nothing reads it ambiently.
type Environment string

const (
	EnvProduction  Environment = "production"
	EnvDevelopment Environment = "development"
	EnvLocal       Environment = "local"
)

// IsProduction reports whether the admission rate limit must be enforced.
func (e Environment) IsProduction() bool { return e == EnvProduction }

// IsLocal reports whether delivery is skipped entirely (records stay pending).
func (e Environment) IsLocal() bool { return e == EnvLocal }

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  Environment

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	VerificationsTable string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DevinoEndpoint string
	DevinoToken    string
	DevinoService  string
	DevinoSender   string
	GatewayTimeout time.Duration

	SNSRegion string

	Limits Limits

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	AllowedOrigins []string // CORS allowed origins
}

// Limits groups the verification admission and dispatch policy knobs.
type Limits struct {
	CodeTTL      time.Duration // how long a code stays confirmable
	PushCooldown time.Duration // min gap between push attempts per phone
	RateWindow   time.Duration // trailing window for the hourly cap
	SnapshotTTL  time.Duration // rate-window cache entry lifetime
	MaxPerHour   int           // max records created per phone per window
	MaxAtOnce    int           // max simultaneously active records per phone
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  Environment(getEnv("APP_ENV", "development")),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),

		VerificationsTable: getEnv("DYNAMO_TABLE_PHONE_VERIFICATIONS", "phone_verifications"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		DevinoEndpoint: getEnv("DEVINO_ENDPOINT", "https://api.devino.online"),
		DevinoToken:    getEnv("DEVINO_TOKEN", ""),
		DevinoService:  getEnv("DEVINO_SERVICE", ""),
		DevinoSender:   getEnv("DEVINO_SENDER", ""),
		GatewayTimeout: getEnvDuration("GATEWAY_TIMEOUT", 10*time.Second),

		SNSRegion: getEnv("SNS_REGION", "us-east-1"),

		Limits: Limits{
			CodeTTL:      getEnvDuration("VERIFY_CODE_TTL", 900*time.Second),
			PushCooldown: getEnvDuration("VERIFY_PUSH_COOLDOWN", 5*time.Minute),
			RateWindow:   getEnvDuration("VERIFY_RATE_WINDOW", time.Hour),
			SnapshotTTL:  getEnvDuration("VERIFY_RATE_SNAPSHOT_TTL", time.Second),
			MaxPerHour:   getEnvInt("VERIFY_MAX_PER_HOUR", 5),
			MaxAtOnce:    getEnvInt("VERIFY_MAX_AT_ONCE", 4),
		},

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         getEnvDuration("JWT_EXPIRY", 7*24*time.Hour),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
