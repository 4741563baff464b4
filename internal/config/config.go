package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// TrackedLink is one of the promotional links a user must tap before verifying.
type TrackedLink struct {
	Title string
	URL   string
}

type Config struct {
	BotToken string

	DBDriver   string // "sqlite" or "postgres"
	DBPath     string // sqlite file path
	DBUser     string
	DBPassword string
	DBName     string
	DBHost     string
	DBPort     string

	RedisAddr     string // empty disables redis, session state stays in memory
	RedisPassword string

	ChannelUsername string // required channel, with leading @
	ChannelURL      string
	LinkA           TrackedLink
	LinkB           TrackedLink

	ReferBonus         decimal.Decimal
	MinWithdrawBalance decimal.Decimal
	ClickEvidenceTTL   time.Duration
}

func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return &Config{
		BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),

		DBDriver:   getEnv("DB_DRIVER", "sqlite"),
		DBPath:     getEnv("DB_PATH", "bot.db"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "referearn_bot"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		ChannelUsername: getEnv("CHANNEL_USERNAME", "@gmailcreators01"),
		ChannelURL:      getEnv("CHANNEL_URL", "https://t.me/gmailcreators01"),
		LinkA: TrackedLink{
			Title: getEnv("LINK_A_TITLE", "👉 Click Here 1"),
			URL:   getEnv("LINK_A_URL", ""),
		},
		LinkB: TrackedLink{
			Title: getEnv("LINK_B_TITLE", "👉 Click Here 2"),
			URL:   getEnv("LINK_B_URL", ""),
		},

		ReferBonus:         getEnvDecimal("REFER_BONUS", "50"),
		MinWithdrawBalance: getEnvDecimal("MIN_WITHDRAW_BALANCE", "800"),
		ClickEvidenceTTL:   getEnvDuration("CLICK_EVIDENCE_TTL", 24*time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvDecimal(key, fallback string) decimal.Decimal {
	raw := getEnv(key, fallback)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		log.Printf("Invalid decimal for %s (%q), using default %s", key, raw, fallback)
		d, _ = decimal.NewFromString(fallback)
	}
	return d
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("Invalid duration for %s (%q), using default %s", key, raw, fallback)
		return fallback
	}
	return d
}
