package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string
	// LogFormat is "json" or "text".
	LogFormat string

	APIBaseURL string
	AssetHost  string
	// APITimeout of zero leaves the upstream client without a deadline.
	APITimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisTLS      bool

	AuthProvider      string
	CognitoRegion     string
	CognitoUserPoolID string
	CognitoClientID   string
	StaticUsers       map[string]string
	StaticTokenSecret string

	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string

	SessionTTLDurable   time.Duration
	SessionTTLEphemeral time.Duration
	SessionCookieName   string
	SessionCookieSecure bool
	WorkspaceIdleTTL    time.Duration
	QueryCacheTTL       time.Duration

	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int

	AdminRole            string
	DefaultDayOffMessage string
}

// Load reads configuration from environment variables
func Load() *Config {
	env := getEnv("ENV", "development")
	defaultFormat := "json"
	if env == "development" {
		defaultFormat = "text"
	}
	return &Config{
		Port:      getEnv("PORT", "8080"),
		Env:       env,
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", defaultFormat),

		APIBaseURL: strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:5000/api"), "/"),
		AssetHost:  strings.TrimRight(getEnv("ASSET_HOST", ""), "/"),
		APITimeout: getEnvAsDuration("API_TIMEOUT", 0),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),

		AuthProvider:      strings.ToLower(getEnv("AUTH_PROVIDER", "cognito")),
		CognitoRegion:     getEnv("COGNITO_REGION", getEnv("AWS_REGION", "us-east-1")),
		CognitoUserPoolID: getEnv("COGNITO_USER_POOL_ID", ""),
		CognitoClientID:   getEnv("COGNITO_CLIENT_ID", ""),
		StaticUsers:       parseStaticUsers(getEnv("STATIC_USERS", "")),
		StaticTokenSecret: getEnv("STATIC_TOKEN_SECRET", "dev-console-secret"),

		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),

		SessionTTLDurable:   getEnvAsDuration("SESSION_TTL_DURABLE", 30*24*time.Hour),
		SessionTTLEphemeral: getEnvAsDuration("SESSION_TTL_EPHEMERAL", 12*time.Hour),
		SessionCookieName:   getEnv("SESSION_COOKIE_NAME", "pcms_session"),
		SessionCookieSecure: getEnvAsBool("SESSION_COOKIE_SECURE", env != "development"),
		WorkspaceIdleTTL:    getEnvAsDuration("WORKSPACE_IDLE_TTL", 2*time.Hour),
		QueryCacheTTL:       getEnvAsDuration("QUERY_CACHE_TTL", 30*time.Second),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),
		RateLimitRPS:       getEnvAsFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst:     getEnvAsInt("RATE_LIMIT_BURST", 40),

		AdminRole:            getEnv("ADMIN_ROLE", "admin"),
		DefaultDayOffMessage: getEnv("DEFAULT_DAY_OFF_MESSAGE", "We are closed today."),
	}
}

// parseStaticUsers reads "email:bcrypt-hash" pairs separated by commas.
func parseStaticUsers(raw string) map[string]string {
	users := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		email, hash, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || email == "" || hash == "" {
			continue
		}
		users[strings.ToLower(email)] = hash
	}
	return users
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, ""), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
