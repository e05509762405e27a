package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates runtime configuration for the clinstudy API.
type Config struct {
	Server    ServerConfig
	Postgres  PostgresConfig
	MinIO     MinIOConfig
	Auth      AuthConfig
	Cookie    CookieConfig
	RateLimit RateLimitConfig
	Metrics   MetricsConfig
	Log       LogConfig
}

// ServerConfig parameterizes the HTTP server.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PostgresConfig contains PostgreSQL connection details.
type PostgresConfig struct {
	Host          string
	Port          int
	User          string
	Password      string
	Database      string
	SSLMode       string
	MaxConns      int32
	RunMigrations bool
}

// DSN returns the PostgreSQL DSN string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// MinIOConfig carries MinIO connection and bucket information.
type MinIOConfig struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
	PresignTTL      time.Duration
	MaxDocumentSize int64
}

// AuthConfig groups authentication-related settings.
type AuthConfig struct {
	AccessTokenSecret  string
	RefreshTokenSecret string
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
	Issuer             string
	Audience           string
	BcryptCost         int
	// BootstrapAdminEmail and BootstrapAdminPassword seed the first admin on
	// startup when both are set.
	BootstrapAdminEmail    string
	BootstrapAdminPassword string
}

// CookieConfig controls the refresh token cookie.
type CookieConfig struct {
	Name   string
	Path   string
	Domain string
	Secure bool
}

// RateLimitConfig limits unauthenticated credential endpoints per client IP.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	VisitorTTL        time.Duration
}

// MetricsConfig groups observability settings.
type MetricsConfig struct {
	PrometheusPath string
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string
}

// Load reads configuration values from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host:         getString("CLINSTUDY_API_HOST", "0.0.0.0"),
			Port:         getInt("CLINSTUDY_API_PORT", 8080),
			ReadTimeout:  getDuration("CLINSTUDY_API_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getDuration("CLINSTUDY_API_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getDuration("CLINSTUDY_API_IDLE_TIMEOUT", 60*time.Second),
		},
		Postgres: PostgresConfig{
			Host:          getString("POSTGRES_HOST", "localhost"),
			Port:          getInt("POSTGRES_PORT", 5432),
			User:          getString("POSTGRES_USER", "clinstudy_app"),
			Password:      getString("POSTGRES_PASSWORD", "change-me"),
			Database:      getString("POSTGRES_DB", "clinstudy"),
			SSLMode:       strings.ToLower(getString("POSTGRES_SSL_MODE", "disable")),
			MaxConns:      int32(getInt("POSTGRES_MAX_CONNS", 10)),
			RunMigrations: getBool("POSTGRES_RUN_MIGRATIONS", true),
		},
		MinIO: MinIOConfig{
			Endpoint:        getString("MINIO_ENDPOINT", "localhost:9000"),
			AccessKeyID:     getString("MINIO_ROOT_USER", "clinstudy"),
			SecretAccessKey: getString("MINIO_ROOT_PASSWORD", "change-me-strong-password"),
			Bucket:          getString("MINIO_BUCKET", "clinstudy-documents"),
			UseSSL:          getBool("MINIO_USE_SSL", false),
			Region:          getString("MINIO_REGION", ""),
			PresignTTL:      getDuration("MINIO_PRESIGN_TTL", 15*time.Minute),
			MaxDocumentSize: int64(getInt("MINIO_MAX_DOCUMENT_BYTES", 20*1024*1024)),
		},
		Auth:   loadAuthConfig(),
		Cookie: loadCookieConfig(),
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getFloat("CLINSTUDY_RATE_LIMIT_RPS", 5),
			Burst:             getInt("CLINSTUDY_RATE_LIMIT_BURST", 10),
			VisitorTTL:        getDuration("CLINSTUDY_RATE_LIMIT_VISITOR_TTL", 10*time.Minute),
		},
		Metrics: MetricsConfig{
			PrometheusPath: getString("CLINSTUDY_METRICS_PATH", "/metrics"),
		},
		Log: LogConfig{
			Level: getString("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) validate() error {
	if c.Auth.AccessTokenSecret == c.Auth.RefreshTokenSecret {
		return fmt.Errorf("access and refresh token secrets must differ")
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive")
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		return fmt.Errorf("refresh token ttl must exceed access token ttl")
	}
	if (c.Auth.BootstrapAdminEmail == "") != (c.Auth.BootstrapAdminPassword == "") {
		return fmt.Errorf("bootstrap admin email and password must be set together")
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	return nil
}

func getString(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		val = strings.ToLower(strings.TrimSpace(val))
		switch val {
		case "1", "true", "t", "yes", "y":
			return true
		case "0", "false", "f", "no", "n":
			return false
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func loadAuthConfig() AuthConfig {
	cost := getInt("CLINSTUDY_AUTH_BCRYPT_COST", 12)
	if cost < 4 || cost > 31 {
		cost = 12
	}

	return AuthConfig{
		AccessTokenSecret:  getString("CLINSTUDY_JWT_SECRET", "change-me-to-a-32-byte-secret"),
		RefreshTokenSecret: getString("CLINSTUDY_JWT_REFRESH_SECRET", "change-me-to-a-64-byte-secret"),
		AccessTokenTTL:     getDuration("CLINSTUDY_AUTH_ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL:    getDuration("CLINSTUDY_AUTH_REFRESH_TOKEN_TTL", 7*24*time.Hour),
		Issuer:             getString("CLINSTUDY_AUTH_ISSUER", "clinstudy"),
		Audience:           getString("CLINSTUDY_AUTH_AUDIENCE", "clinstudy-api"),
		BcryptCost:         cost,

		BootstrapAdminEmail:    getString("CLINSTUDY_BOOTSTRAP_ADMIN_EMAIL", ""),
		BootstrapAdminPassword: getString("CLINSTUDY_BOOTSTRAP_ADMIN_PASSWORD", ""),
	}
}

func loadCookieConfig() CookieConfig {
	return CookieConfig{
		Name:   getString("CLINSTUDY_REFRESH_COOKIE_NAME", "refreshToken"),
		Path:   getString("CLINSTUDY_REFRESH_COOKIE_PATH", "/"),
		Domain: getString("CLINSTUDY_REFRESH_COOKIE_DOMAIN", ""),
		Secure: getBool("CLINSTUDY_REFRESH_COOKIE_SECURE", false),
	}
}
