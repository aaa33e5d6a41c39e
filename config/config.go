// Package config loads process configuration from the environment
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/milescrape/milescrape/internal/constants"
)

// Defaults applied when a variable is missing or unparsable
const (
	DefaultServerPort             = "8080"
	DefaultDBDriver               = "postgres"
	DefaultSQLitePath             = "milescrape.db"
	DefaultMaxConcurrentScans     = 2
	DefaultScanCallTimeout        = 30 * time.Second
	DefaultMaxConsecutiveFailures = 3
	DefaultDiscoveryStrategy      = "mock"
	DefaultExtractorStrategy      = "mock"
	DefaultScrapeRatePerSecond    = 1.0
	DefaultScrapeBurst            = 2
	DefaultAnalyzerCacheTTL       = time.Hour
	DefaultKafkaTopic             = "milescrape.scans"
)

// Database holds the connection settings for the job store
type Database struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	SSLEnabled bool
	SQLitePath string
}

// Scans holds the orchestrator limits
type Scans struct {
	MaxConcurrent          int
	QueueLimit             int
	CallTimeout            time.Duration
	MaxConsecutiveFailures int
	ScoringConfigPath      string
}

// Sources selects and configures the discovery, extractor and analyzer strategies
type Sources struct {
	Discovery        string
	Extractor        string
	CompaniesFile    string
	PlacesAPIKey     string
	RatePerSecond    float64
	Burst            int
	AnalyzerCache    string
	AnalyzerCacheTTL time.Duration
	RedisAddr        string
	KafkaBrokers     []string
	KafkaTopic       string
}

// Config is the full process configuration
type Config struct {
	ServerPort string
	Database   Database
	Scans      Scans
	Sources    Sources
}

// Load reads the configuration from the environment
func Load() Config {
	return Config{
		ServerPort: GetEnv(constants.EnvServerPort, DefaultServerPort),
		Database: Database{
			Driver:     strings.ToLower(GetEnv(constants.EnvDBDriver, DefaultDBDriver)),
			Host:       GetEnv(constants.EnvDBHost, ""),
			Port:       GetEnvInt(constants.EnvDBPort, 0),
			User:       GetEnv(constants.EnvDBUser, ""),
			Password:   GetEnv(constants.EnvDBPassword, ""),
			Name:       GetEnv(constants.EnvDBName, ""),
			SSLEnabled: GetEnvBool(constants.EnvDBSSLEnabled, false),
			SQLitePath: GetEnv(constants.EnvDBSQLitePath, DefaultSQLitePath),
		},
		Scans: Scans{
			MaxConcurrent:          GetEnvInt(constants.EnvMaxConcurrentScans, DefaultMaxConcurrentScans),
			QueueLimit:             GetEnvInt(constants.EnvScanQueueLimit, 0),
			CallTimeout:            GetEnvDuration(constants.EnvScanCallTimeout, DefaultScanCallTimeout),
			MaxConsecutiveFailures: GetEnvInt(constants.EnvScanMaxConsecutiveFail, DefaultMaxConsecutiveFailures),
			ScoringConfigPath:      GetEnv(constants.EnvScoringConfig, ""),
		},
		Sources: Sources{
			Discovery:        strings.ToLower(GetEnv(constants.EnvDiscoveryStrategy, DefaultDiscoveryStrategy)),
			Extractor:        strings.ToLower(GetEnv(constants.EnvExtractorStrategy, DefaultExtractorStrategy)),
			CompaniesFile:    GetEnv(constants.EnvCompaniesFile, ""),
			PlacesAPIKey:     GetEnv(constants.EnvPlacesAPIKey, ""),
			RatePerSecond:    GetEnvFloat(constants.EnvScrapeRatePerSecond, DefaultScrapeRatePerSecond),
			Burst:            GetEnvInt(constants.EnvScrapeBurst, DefaultScrapeBurst),
			AnalyzerCache:    strings.ToLower(GetEnv(constants.EnvAnalyzerCache, "none")),
			AnalyzerCacheTTL: GetEnvDuration(constants.EnvAnalyzerCacheTTL, DefaultAnalyzerCacheTTL),
			RedisAddr:        GetEnv(constants.EnvRedisAddr, "localhost:6379"),
			KafkaBrokers:     GetEnvList(constants.EnvKafkaBrokers),
			KafkaTopic:       GetEnv(constants.EnvKafkaTopic, DefaultKafkaTopic),
		},
	}
}

// GetEnv retrieves the value of an environment variable with a fallback value if not set
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// GetEnvInt parses an integer variable, returning fallback when unset or invalid
func GetEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(GetEnv(key, "")))
	if err != nil {
		return fallback
	}
	return v
}

// GetEnvFloat parses a float variable, returning fallback when unset or invalid
func GetEnvFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(GetEnv(key, "")), 64)
	if err != nil {
		return fallback
	}
	return v
}

// GetEnvBool parses a boolean variable, returning fallback when unset or invalid
func GetEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(GetEnv(key, "")))
	if err != nil {
		return fallback
	}
	return v
}

// GetEnvDuration parses a duration such as "30s", returning fallback when unset or invalid
func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(GetEnv(key, "")))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// GetEnvList splits a comma separated variable, dropping empty entries
func GetEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(GetEnv(key, ""), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
