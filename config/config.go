package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	// Database configuration
	DatabaseHost     string
	DatabasePort     string
	DatabaseName     string
	DatabaseUser     string
	DatabasePassword string

	// Redis configuration
	RedisHost     string
	RedisPassword string
	RedisPort     string

	// HTTP API
	APIPort int

	// Crawler configuration
	Crawler CrawlerConfig

	// Digest configuration
	Digest DigestConfig

	// Webhook notification targets
	WebhookURLs []string
}

// CrawlerConfig holds disclosure-source polling parameters
type CrawlerConfig struct {
	QueryURL    string // announcement query endpoint
	FileBaseURL string // static host the adjunct PDF paths hang off
	ListingURL  string // HTML listing page used as fallback source

	DownloadDir string
	DaysBack    int // time window for incremental crawling
	PageSize    int
	MaxPages    int // hard stop against runaway pagination
	MaxRetry    int

	MinReportPages int // PDFs shorter than this are notices, not full reports

	PollIntervalMinutes int // 0 disables the periodic loop (single run per trigger)
}

// DigestConfig holds daily summary parameters
type DigestConfig struct {
	Enabled       bool
	HourOfDay     int // local hour the daily digest fires
	MaxSectionLen int // per-section excerpt cap in the rendered digest
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Load .env file if exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		// Database configuration
		DatabaseHost:     getEnvOrDefault("DB_HOST", "localhost"),
		DatabasePort:     getEnvOrDefault("DB_PORT", "5432"),
		DatabaseName:     getEnvOrDefault("DB_NAME", "reportclaw"),
		DatabaseUser:     getEnvOrDefault("DB_USER", "reportclaw"),
		DatabasePassword: getEnvOrDefault("DB_PASSWORD", "reportclaw123"),

		// Redis configuration
		RedisHost:     getEnvOrDefault("REDIS_HOST", "localhost"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),

		APIPort: getEnvInt("API_PORT", 8080),

		Crawler: CrawlerConfig{
			QueryURL:    getEnvOrDefault("CRAWL_QUERY_URL", "http://www.cninfo.com.cn/new/hisAnnouncement/query"),
			FileBaseURL: getEnvOrDefault("CRAWL_FILE_BASE_URL", "http://static.cninfo.com.cn/"),
			ListingURL:  getEnvOrDefault("CRAWL_LISTING_URL", ""),

			DownloadDir: getEnvOrDefault("CRAWL_DOWNLOAD_DIR", "data/downloads"),
			DaysBack:    getEnvInt("CRAWL_DAYS_BACK", 30),
			PageSize:    getEnvInt("CRAWL_PAGE_SIZE", 30),
			MaxPages:    getEnvInt("CRAWL_MAX_PAGES", 50),
			MaxRetry:    getEnvInt("CRAWL_MAX_RETRY", 3),

			MinReportPages: getEnvInt("CRAWL_MIN_REPORT_PAGES", 50),

			PollIntervalMinutes: getEnvInt("CRAWL_POLL_INTERVAL", 360),
		},

		Digest: DigestConfig{
			Enabled:       getEnvOrDefault("DIGEST_ENABLED", "true") == "true",
			HourOfDay:     getEnvInt("DIGEST_HOUR", 8),
			MaxSectionLen: getEnvInt("DIGEST_MAX_SECTION_LEN", 1200),
		},

		WebhookURLs: splitList(os.Getenv("WEBHOOK_URLS")),
	}
}

// splitList parses a comma/semicolon/space separated list of values
func splitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == ' '
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// getEnvInt gets environment variable as int or returns default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var intValue int
	if _, err := fmt.Sscanf(value, "%d", &intValue); err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvOrDefault gets environment variable or returns default value
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
