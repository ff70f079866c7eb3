package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	ServerPort string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// NeteaseAPIURL is the base URL of the community Netease Cloud Music API
	// gateway. All provider calls go through it.
	NeteaseAPIURL string
	// NeteaseUID is the provider account whose playlists are mirrored.
	NeteaseUID string
	// NeteaseQuality is the quality tier requested on URL issuance.
	NeteaseQuality string
	// NeteaseRatePerSec caps outgoing provider calls per second.
	NeteaseRatePerSec int

	// StreamURLTTL is the freshness window for cached upstream playback URLs.
	// Provider URLs expire after roughly 20 minutes; this must stay below that
	// so a stale entry is refreshed before the upstream link dies. The exact
	// upstream expiry is folklore, not contract, hence tunable.
	StreamURLTTL time.Duration

	JWTSecret string
	JWTTTL    time.Duration

	MinioEnabled   bool
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	LogLevel string
	LogPath  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),

		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBUser:     getEnv("DB_USER", "root"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "unifm"),

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		NeteaseAPIURL:     getEnv("NETEASE_API_URL", "http://localhost:3000"),
		NeteaseUID:        getEnv("NETEASE_UID", ""),
		NeteaseQuality:    getEnv("NETEASE_QUALITY", "exhigh"),
		NeteaseRatePerSec: getEnvInt("NETEASE_RATE_PER_SEC", 5),

		StreamURLTTL: time.Duration(getEnvInt("STREAM_URL_TTL_MINUTES", 10)) * time.Minute,

		JWTSecret: getEnv("JWT_SECRET", "unifm-dev-secret"),
		JWTTTL:    time.Duration(getEnvInt("JWT_TTL_HOURS", 72)) * time.Hour,

		MinioEnabled:   getEnvBool("MINIO_ENABLED", false),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "unifm"),
		MinioRegion:    getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", ""),
	}
}
