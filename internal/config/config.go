package config

import (
	"os"
	"strconv"
	"time"

	"mining_webapp/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	BotToken    string
	BotUsername string
	WebAppURL   string // Mini App URL the bot links to
	JWTSecret   string
	BotEnabled  bool

	LogLevel      string
	LogJSON       bool
	AllowedOrigin string // пусто = отражать Origin запроса

	// Auth
	AuthKeyCheck     bool
	InitDataMaxAge   time.Duration
	MiningStatusAuth bool

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration
	AntiDDoSLimit     int
	AntiDDoSWindow    time.Duration
	AntiDDoSBan       time.Duration

	// Redis (optional); без адреса лимиты хранятся в Postgres и памяти
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Admin
	AdminUsername     string
	AdminPasswordHash string // bcrypt
	AdminTokenTTL     time.Duration

	// Outbound Telegram API
	TelegramAPITimeout time.Duration
	TelegramAPIRPS     float64
}

// Загрузка конфига из env
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		logger.Fatal("BOT_TOKEN is not set")
	}

	return &Config{
		AppPort:     envString("APP_PORT", "8080"),
		DatabaseURL: dbURL,
		BotToken:    botToken,
		BotUsername: envString("BOT_USERNAME", "DRXMiningBot"),
		WebAppURL:   os.Getenv("WEBAPP_URL"),
		JWTSecret:   jwtSecret,
		BotEnabled:  envBool("BOT_ENABLED", true),

		LogLevel:      envString("LOG_LEVEL", "info"),
		LogJSON:       envBool("LOG_JSON", false),
		AllowedOrigin: os.Getenv("ALLOWED_ORIGIN"),

		AuthKeyCheck:     envBool("AUTH_KEY_CHECK", true),
		InitDataMaxAge:   envSeconds("AUTH_INIT_DATA_MAX_AGE", 24*time.Hour),
		MiningStatusAuth: envBool("MINING_STATUS_AUTH", true),

		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   envSeconds("RATE_LIMIT_WINDOW", time.Hour),
		AntiDDoSLimit:     envInt("ANTI_DDOS_LIMIT", 20),
		AntiDDoSWindow:    envSeconds("ANTI_DDOS_WINDOW", time.Minute),
		AntiDDoSBan:       envSeconds("ANTI_DDOS_BAN", 5*time.Minute),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		AdminUsername:     os.Getenv("ADMIN_USERNAME"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		AdminTokenTTL:     envSeconds("ADMIN_TOKEN_TTL", 12*time.Hour),

		TelegramAPITimeout: envSeconds("TELEGRAM_API_TIMEOUT", 5*time.Second),
		TelegramAPIRPS:     envFloat("TELEGRAM_API_RPS", 20),
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
		logger.Warn("invalid int in env, using default", "key", key, "value", v)
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			return n
		}
		logger.Warn("invalid number in env, using default", "key", key, "value", v)
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		logger.Warn("invalid bool in env, using default", "key", key, "value", v)
	}
	return def
}

// envSeconds reads a whole number of seconds.
func envSeconds(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
		logger.Warn("invalid seconds in env, using default", "key", key, "value", v)
	}
	return def
}
