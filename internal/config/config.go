package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds gateway configuration loaded from environment variables
type Config struct {
	Port     string
	BasePath string
	LogLevel string

	// DashboardOrigin is the only origin trusted for cross-window OAuth messages
	DashboardOrigin string

	Backend BackendConfig
	JWT     JWTConfig
	OAuth   OAuthConfig
	Redis   RedisConfig
	DB      DBConfig
	Queue   RabbitMQConfig
	Target  TargetingConfig
}

// BackendConfig describes the Flask backend the gateway forwards to
type BackendConfig struct {
	URL     string
	Timeout time.Duration
}

// JWTConfig holds the secret shared with the backend for bearer validation
type JWTConfig struct {
	Secret    string
	Algorithm string
}

// OAuthConfig holds X OAuth 2.0 (PKCE) settings
type OAuthConfig struct {
	ClientID     string
	CallbackURL  string
	AuthorizeURL string
	TokenURL     string
	Scopes       []string
	HandshakeTTL time.Duration
}

// RedisConfig holds the Redis connection URL. Empty means in-memory secret storage.
type RedisConfig struct {
	URL string
}

// DBConfig holds Postgres connection parameters
type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// Enabled reports whether enough parameters are set to open a connection
func (c DBConfig) Enabled() bool {
	return c.Host != "" && c.Port != "" && c.User != "" && c.Name != ""
}

// RabbitMQConfig holds RabbitMQ connection parameters
type RabbitMQConfig struct {
	Host  string
	Port  string
	User  string
	Pass  string
	Queue string
}

// TargetingConfig tunes the simulated progress of secondary targeting jobs
type TargetingConfig struct {
	Tick      time.Duration
	Step      int
	Retention time.Duration
}

// Load returns configuration from environment variables
func Load() *Config {
	return &Config{
		Port:            getEnv("PORT", "8080"),
		BasePath:        getEnv("BASE_PATH", "/xreacher-gateway"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DashboardOrigin: strings.TrimSuffix(getEnv("DASHBOARD_ORIGIN", "http://localhost:3000"), "/"),
		Backend: BackendConfig{
			URL:     strings.TrimSuffix(getEnv("BACKEND_URL", "http://localhost:5000"), "/"),
			Timeout: getEnvAsDuration("BACKEND_TIMEOUT", 30*time.Second),
		},
		JWT: JWTConfig{
			Secret:    getEnv("JWT_SECRET_KEY", "jwt-secret-key-change-in-production"),
			Algorithm: getEnv("JWT_ALGORITHM", "HS256"),
		},
		OAuth: OAuthConfig{
			ClientID:     getEnv("X_CLIENT_ID", ""),
			CallbackURL:  getEnv("X_OAUTH_CALLBACK_URL", "http://localhost:3000/auth/x/callback"),
			AuthorizeURL: getEnv("X_OAUTH_AUTHORIZE_URL", "https://twitter.com/i/oauth2/authorize"),
			TokenURL:     getEnv("X_OAUTH_TOKEN_URL", "https://api.twitter.com/2/oauth2/token"),
			Scopes:       strings.Fields(getEnv("X_OAUTH_SCOPES", "tweet.read users.read dm.read dm.write offline.access")),
			HandshakeTTL: getEnvAsDuration("OAUTH_HANDSHAKE_TTL", 10*time.Minute),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", ""),
			Port:     getEnv("DB_PORT", ""),
			User:     getEnv("DB_USER", ""),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", ""),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Queue: RabbitMQConfig{
			Host:  getEnv("RABBITMQ_HOST", "localhost"),
			Port:  getEnv("RABBITMQ_PORT", "5672"),
			User:  getEnv("RABBITMQ_USER", "guest"),
			Pass:  getEnv("RABBITMQ_PASS", "guest"),
			Queue: getEnv("RABBITMQ_EVENTS_QUEUE", "campaign_events"),
		},
		Target: TargetingConfig{
			Tick:      getEnvAsDuration("PROGRESS_TICK", 500*time.Millisecond),
			Step:      getEnvAsInt("PROGRESS_STEP", 10),
			Retention: getEnvAsDuration("PROGRESS_RETENTION", 10*time.Minute),
		},
	}
}

// getEnv gets environment variable with fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return value
}
