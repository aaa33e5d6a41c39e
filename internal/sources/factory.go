package sources

import (
	"errors"
	"fmt"

	"github.com/milescrape/milescrape/config"
	"github.com/milescrape/milescrape/internal/cache"
	"github.com/milescrape/milescrape/internal/logger"
)

// Strategy names accepted in configuration
const (
	StrategyMock     = "mock"
	StrategyFile     = "file"
	StrategyPlaces   = "places"
	StrategyRSS      = "rss"
	StrategyNewsroom = "newsroom"

	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

const redisKeyPrefix = "milescrape:"

// Set is the configured discovery, extractor and analyzer for all scans
type Set struct {
	Discovery Discovery
	Extractor Extractor
	Analyzer  Analyzer

	closers []func() error
}

// Close releases connections held by the strategies
func (s *Set) Close() error {
	var errs []error
	for _, c := range s.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build selects the strategies named in cfg. Every outbound scraper shares one host limiter.
func Build(cfg config.Sources) (*Set, error) {
	limiter := NewHostLimiter(cfg.RatePerSecond, cfg.Burst)
	set := &Set{}

	switch cfg.Discovery {
	case StrategyMock, "":
		set.Discovery = MockDiscovery{}
	case StrategyFile:
		d, err := NewFileDiscovery(cfg.CompaniesFile)
		if err != nil {
			return nil, err
		}
		set.Discovery = d
	case StrategyPlaces:
		d, err := NewPlacesDiscovery(cfg.PlacesAPIKey, "", limiter)
		if err != nil {
			return nil, err
		}
		set.Discovery = d
	default:
		return nil, fmt.Errorf("unknown discovery strategy: %s", cfg.Discovery)
	}

	switch cfg.Extractor {
	case StrategyMock, "":
		set.Extractor = MockExtractor{}
	case StrategyRSS:
		set.Extractor = NewRSSExtractor("", limiter)
	case StrategyNewsroom:
		set.Extractor = NewNewsroomExtractor(limiter)
	default:
		return nil, fmt.Errorf("unknown extractor strategy: %s", cfg.Extractor)
	}

	var analyzer Analyzer = KeywordAnalyzer{}
	switch cfg.AnalyzerCache {
	case CacheNone, "":
	case CacheMemory:
		analyzer = NewCachedAnalyzer(analyzer, cache.NewMemory(), cfg.AnalyzerCacheTTL)
	case CacheRedis:
		rc := cache.NewRedis(cfg.RedisAddr, redisKeyPrefix)
		set.closers = append(set.closers, rc.Close)
		analyzer = NewCachedAnalyzer(analyzer, rc, cfg.AnalyzerCacheTTL)
	default:
		return nil, fmt.Errorf("unknown analyzer cache: %s", cfg.AnalyzerCache)
	}
	set.Analyzer = analyzer

	logger.InfoWithFields("Candidate sources configured", map[string]interface{}{
		"discovery":      cfg.Discovery,
		"extractor":      cfg.Extractor,
		"analyzer_cache": cfg.AnalyzerCache,
	})
	return set, nil
}
