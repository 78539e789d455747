package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Gemini   GeminiConfig
	Kiosk    KioskConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret      string
	TokenExpiry time.Duration
}

// GeminiConfig configures the payment-proof oracle. An empty APIKey is
// allowed: validation then fails with a descriptive verdict instead of a
// crash.
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// KioskConfig tunes the checkout session behaviour
type KioskConfig struct {
	SessionTTL      time.Duration
	MaxProofBytes   int
	ProductCacheTTL time.Duration
}

func Load() *Config {
	// Populate the process environment from .env so AutomaticEnv sees the
	// same values in containers and local runs. Missing file is fine.
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_TOKEN_EXPIRY_HOURS", 12)
	viper.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	viper.SetDefault("GEMINI_TIMEOUT_SECONDS", 30)
	viper.SetDefault("KIOSK_SESSION_TTL_MINUTES", 30)
	viper.SetDefault("KIOSK_MAX_PROOF_BYTES", 8<<20)
	viper.SetDefault("KIOSK_PRODUCT_CACHE_TTL_SECONDS", 30)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
			Env:  viper.GetString("SERVER_ENV"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:      viper.GetString("JWT_SECRET"),
			TokenExpiry: time.Duration(viper.GetInt("JWT_TOKEN_EXPIRY_HOURS")) * time.Hour,
		},
		Gemini: GeminiConfig{
			APIKey:  viper.GetString("GEMINI_API_KEY"),
			BaseURL: viper.GetString("GEMINI_BASE_URL"),
			Model:   viper.GetString("GEMINI_MODEL"),
			Timeout: time.Duration(viper.GetInt("GEMINI_TIMEOUT_SECONDS")) * time.Second,
		},
		Kiosk: KioskConfig{
			SessionTTL:      time.Duration(viper.GetInt("KIOSK_SESSION_TTL_MINUTES")) * time.Minute,
			MaxProofBytes:   viper.GetInt("KIOSK_MAX_PROOF_BYTES"),
			ProductCacheTTL: time.Duration(viper.GetInt("KIOSK_PRODUCT_CACHE_TTL_SECONDS")) * time.Second,
		},
	}
}
