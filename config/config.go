package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	// Last.fm配置
	LastFMAPIKey    string
	LastFMAPISecret string
	LastFMUser      string

	PollIntervalSeconds int  // 轮询间隔（秒），限制在2-5秒
	PublishStopped      bool // 自然播完时是否广播终止事件

	ListenAddr string

	// Redis配置
	RedisEnabled  bool
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// 日志配置
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
	// Attempt to load .env file. godotenv.Load() will not override existing env vars.
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	interval := getEnvInt("POLL_INTERVAL_SECONDS", 2)
	if interval < 2 {
		interval = 2
	}
	if interval > 5 {
		interval = 5
	}

	return &Config{
		LastFMAPIKey:    os.Getenv("LASTFM_API_KEY"),
		LastFMAPISecret: os.Getenv("LASTFM_API_SECRET"),
		LastFMUser:      os.Getenv("LASTFM_USER"),

		PollIntervalSeconds: interval,
		PublishStopped:      getEnvBool("PUBLISH_STOPPED", false),

		ListenAddr: getEnv("LISTEN_ADDR", ":8321"),

		// Redis配置，使用默认值
		RedisEnabled:  getEnvBool("REDIS_ENABLED", true),
		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""), // 默认无密码
		RedisDB:       getEnvInt("REDIS_DB", 0),     // 默认使用0号数据库

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogPath:  getEnv("LOG_PATH", ""),
	}
}
