package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Cookie   CookieConfig
	CORS     CORSConfig
	Redis    RedisConfig
	S3       S3Config
	App      AppConfig
	Google   GoogleConfig
	Mirror   MirrorConfig
	OpenAI   OpenAIConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type JWTConfig struct {
	Secret      string
	TokenExpiry time.Duration
}

type CookieConfig struct {
	Name   string
	Secure bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	BaseURL         string // CloudFront or S3 direct URL
	SnapshotKey     string
}

// AppConfig holds review funnel behaviour settings
type AppConfig struct {
	BaseDomain          string
	GoogleReviewBaseURL string
	ReturnDebounce      time.Duration
	PendingReturnTTL    time.Duration
	SnapshotCron        string
	TenantCacheTTL      time.Duration
}

type GoogleConfig struct {
	MapsAPIKey string
}

type MirrorConfig struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			GinMode:     getEnv("GIN_MODE", "debug"),
			Environment: getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "admin"),
			Password:     getEnv("DB_PASSWORD", "1234"),
			DBName:       getEnv("DB_NAME", "reviewfunnel"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: parseInt(getEnv("DB_MAX_OPEN_CONNS", "1"), 1),
			MaxIdleConns: parseInt(getEnv("DB_MAX_IDLE_CONNS", "1"), 1),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "your-secret-key"),
			TokenExpiry: parseDuration(getEnv("JWT_TOKEN_EXPIRY", "168h"), 7*24*time.Hour),
		},
		Cookie: CookieConfig{
			Name:   getEnv("AUTH_COOKIE_NAME", "auth_token"),
			Secure: parseBool(getEnv("AUTH_COOKIE_SECURE", "true")),
		},
		CORS: CORSConfig{
			AllowedOrigins: parseSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Redis: RedisConfig{
			Enabled:  parseBool(getEnv("REDIS_ENABLED", "false")),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       parseInt(getEnv("REDIS_DB", "0"), 0),
		},
		S3: S3Config{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Bucket:          getEnv("AWS_S3_BUCKET", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			BaseURL:         getEnv("AWS_S3_BASE_URL", ""),
			SnapshotKey:     getEnv("AWS_S3_SNAPSHOT_KEY", "config/tenants.json"),
		},
		App: AppConfig{
			BaseDomain:          getEnv("APP_BASE_DOMAIN", "blooreview.app"),
			GoogleReviewBaseURL: getEnv("GOOGLE_REVIEW_BASE_URL", "https://search.google.com/local/writereview?placeid="),
			ReturnDebounce:      parseDuration(getEnv("REVIEW_RETURN_DEBOUNCE", "500ms"), 500*time.Millisecond),
			PendingReturnTTL:    parseDuration(getEnv("REVIEW_PENDING_TTL", "30m"), 30*time.Minute),
			SnapshotCron:        getEnv("SNAPSHOT_CRON", "*/15 * * * *"),
			TenantCacheTTL:      parseDuration(getEnv("TENANT_CACHE_TTL", "5m"), 5*time.Minute),
		},
		Google: GoogleConfig{
			MapsAPIKey: getEnv("GOOGLE_MAPS_API_KEY", ""),
		},
		Mirror: MirrorConfig{
			Workers:   parseInt(getEnv("MIRROR_WORKERS", "2"), 2),
			QueueSize: parseInt(getEnv("MIRROR_QUEUE_SIZE", "256"), 256),
			Timeout:   parseDuration(getEnv("MIRROR_TIMEOUT", "10s"), 10*time.Second),
		},
		OpenAI: OpenAIConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			Model:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		},
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	duration, err := time.ParseDuration(s)
	if err != nil {
		log.Printf("Invalid duration %s, using default %s", s, fallback)
		return fallback
	}
	return duration
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Invalid integer %s, using default %d", s, fallback)
		return fallback
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return b
}

func parseSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
