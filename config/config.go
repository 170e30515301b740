package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"renov-scraper/models"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MongoURI        string
	MongoDB         string
	MongoCollection string

	// Sink is "postgres", "mongo" or "none".
	Sink       string
	MaxRetries int

	BaseURL        string
	RequestTimeout time.Duration
	RunTimeout     time.Duration

	DetailConcurrency  int
	RateLimitMs        int
	MinRenovationScore int
	MaxDOMCandidates   int

	CSVOutputPath string
	SearchesFile  string
	LogLevel      string

	DefaultSearch models.SearchRequest
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "listings_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MongoURI:        getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:         getEnv("MONGO_DB", "renov"),
		MongoCollection: getEnv("MONGO_COLLECTION", "listings"),

		Sink:       strings.ToLower(getEnv("SINK", "postgres")),
		MaxRetries: getEnvInt("MAX_RETRIES", 3),

		BaseURL:        strings.TrimRight(getEnv("LEBONCOIN_BASE_URL", "https://www.leboncoin.fr"), "/"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 20*time.Second),
		RunTimeout:     getEnvDuration("RUN_TIMEOUT", 2*time.Minute),

		DetailConcurrency:  getEnvInt("DETAIL_CONCURRENCY", 6),
		RateLimitMs:        getEnvInt("RATE_LIMIT_MS", 0),
		MinRenovationScore: getEnvInt("MIN_RENOVATION_SCORE", 10),
		MaxDOMCandidates:   getEnvInt("MAX_DOM_CANDIDATES", 40),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/listings.csv"),
		SearchesFile:  getEnv("SEARCHES_FILE", ""),
		LogLevel:      getEnv("LOG_LEVEL", "info"),

		DefaultSearch: models.SearchRequest{
			Location:     getEnv("SEARCH_LOCATION", ""),
			PropertyType: models.PropertyType(strings.ToLower(getEnv("SEARCH_PROPERTY_TYPE", ""))),
			MaxPrice:     getEnvInt("SEARCH_MAX_PRICE", 0),
			Lat:          getEnvFloatPtr("SEARCH_LAT"),
			Lng:          getEnvFloatPtr("SEARCH_LNG"),
			Radius:       getEnvInt("SEARCH_RADIUS", 0),
			SellType:     getEnv("SEARCH_SELL_TYPE", ""),
			Condition:    getEnv("SEARCH_CONDITION", ""),
			Sort:         getEnv("SEARCH_SORT", ""),
			URL:          getEnv("SEARCH_URL", ""),
		},
	}
}

// Defaults returns a Config with the built-in defaults and no environment
// lookups. Intended for tests and embedding.
func Defaults() *Config {
	return &Config{
		Sink:               "none",
		MaxRetries:         3,
		BaseURL:            "https://www.leboncoin.fr",
		RequestTimeout:     20 * time.Second,
		RunTimeout:         2 * time.Minute,
		DetailConcurrency:  6,
		MinRenovationScore: 10,
		MaxDOMCandidates:   40,
		LogLevel:           "info",
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
		log.Printf("[config] Invalid int for %s=%q, using default %d", key, val, fallback)
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		d, err := time.ParseDuration(val)
		if err == nil {
			return d
		}
		log.Printf("[config] Invalid duration for %s=%q, using default %v", key, val, fallback)
	}
	return fallback
}

func getEnvFloatPtr(key string) *float64 {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		log.Printf("[config] Invalid float for %s=%q, ignoring", key, val)
		return nil
	}
	return &f
}
