// Package constants provides centralized definitions of constants used throughout the application
package constants

// Server and logging
const (
	// EnvServerPort is the port the API server listens on
	EnvServerPort    = "SERVER_PORT"
	// EnvLogLevel is the logrus level name (debug, info, warn, ...)
	EnvLogLevel      = "LOG_LEVEL"
	// EnvServerAddress is the API address used by the CLI
	EnvServerAddress = "MILESCRAPE_SERVER_ADDRESS"
)

// Database
const (
	EnvDBDriver     = "DB_DRIVER"
	EnvDBHost       = "DB_HOST"
	EnvDBPort       = "DB_PORT"
	EnvDBUser       = "DB_USER"
	EnvDBPassword   = "DB_PASSWORD"
	EnvDBName       = "DB_NAME"
	EnvDBSSLEnabled = "DB_SSL_ENABLED"
	// EnvDBSQLitePath is the database file used when DB_DRIVER=sqlite
	EnvDBSQLitePath = "DB_SQLITE_PATH"
)

// Scan orchestration
const (
	EnvMaxConcurrentScans     = "MAX_CONCURRENT_SCANS"
	EnvScanQueueLimit         = "SCAN_QUEUE_LIMIT"
	EnvScanCallTimeout        = "SCAN_CALL_TIMEOUT"
	EnvScanMaxConsecutiveFail = "SCAN_MAX_CONSECUTIVE_FAILURES"
	EnvScoringConfig          = "SCORING_CONFIG"
)

// Candidate sources
const (
	EnvDiscoveryStrategy   = "DISCOVERY_STRATEGY"
	EnvExtractorStrategy   = "EXTRACTOR_STRATEGY"
	EnvCompaniesFile       = "COMPANIES_FILE"
	EnvPlacesAPIKey        = "PLACES_API_KEY"
	EnvScrapeRatePerSecond = "SCRAPE_RATE_PER_SECOND"
	EnvScrapeBurst         = "SCRAPE_BURST"
	EnvAnalyzerCache       = "ANALYZER_CACHE"
	EnvAnalyzerCacheTTL    = "ANALYZER_CACHE_TTL"
	EnvRedisAddr           = "REDIS_ADDR"
	EnvKafkaBrokers        = "KAFKA_BROKERS"
	EnvKafkaTopic          = "KAFKA_TOPIC"
)
