package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration (session store). Empty addr falls back to the
	// in-memory store.
	RedisAddr      string `mapstructure:"REDIS_ADDR"`
	RedisPassword  string `mapstructure:"REDIS_PASSWORD"`
	RedisSessionDB int    `mapstructure:"REDIS_SESSION_DB"`

	// MongoDB (plan history archive).
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Gemini API key used for all NLU calls.
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`

	// Events catalog API (timed events: movies, concerts, shows).
	EventsAPIBaseURL string `mapstructure:"EVENTS_API_BASE_URL"`

	// Places (GIS) API: parks, restaurants, geocoding and routing.
	PlacesAPIBaseURL string `mapstructure:"PLACES_API_BASE_URL"`
	PlacesAPIKey     string `mapstructure:"PLACES_API_KEY"`

	// Session time-to-live in minutes.
	SessionTTLMinutes int `mapstructure:"SESSION_TTL_MINUTES"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_SESSION_DB", 0)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("EVENTS_API_BASE_URL", "http://localhost:8000")
	viper.SetDefault("PLACES_API_BASE_URL", "https://catalog.api.2gis.com")
	viper.SetDefault("PLACES_API_KEY", "")
	viper.SetDefault("SESSION_TTL_MINUTES", 60)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
