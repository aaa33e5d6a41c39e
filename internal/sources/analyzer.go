package sources

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/milescrape/milescrape/internal/cache"
	"github.com/milescrape/milescrape/internal/logger"
)

// relevanceKeywords are the general signals of a newsworthy company milestone
var relevanceKeywords = []string{
	"milestone", "achievement", "funding", "series", "raised", "launch",
	"expansion", "growth", "acquisition", "partnership", "new office", "award",
	"recognition", "revenue", "profit", "ipo", "merger", "customer", "contract",
	"investment",
}

const (
	keywordBaseRelevance = 0.2
	keywordHitRelevance  = 0.15
)

// KeywordAnalyzer rates text by the number of distinct milestone keywords it mentions
type KeywordAnalyzer struct{}

// Relevance returns 0 for empty text, otherwise 0.2 plus 0.15 per distinct keyword, capped at 1
func (KeywordAnalyzer) Relevance(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return 0, nil
	}
	hits := 0
	for _, kw := range relevanceKeywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	return math.Min(1, keywordBaseRelevance+keywordHitRelevance*float64(hits)), nil
}

// CachedAnalyzer memoizes another analyzer's ratings keyed by the text's SHA-256.
// Cache failures fall through to the wrapped analyzer.
type CachedAnalyzer struct {
	next  Analyzer
	cache cache.Cache
	ttl   time.Duration
}

// NewCachedAnalyzer wraps next with c
func NewCachedAnalyzer(next Analyzer, c cache.Cache, ttl time.Duration) *CachedAnalyzer {
	return &CachedAnalyzer{next: next, cache: c, ttl: ttl}
}

// Relevance implements Analyzer
func (a *CachedAnalyzer) Relevance(ctx context.Context, text string) (float64, error) {
	sum := sha256.Sum256([]byte(text))
	key := "relevance:" + hex.EncodeToString(sum[:])

	cached, ok, err := a.cache.Get(ctx, key)
	if err != nil {
		logger.Warnf("analyzer cache read failed: %v", err)
	} else if ok {
		if v, perr := strconv.ParseFloat(cached, 64); perr == nil {
			return v, nil
		}
	}

	v, err := a.next.Relevance(ctx, text)
	if err != nil {
		return 0, err
	}
	if err := a.cache.Set(ctx, key, strconv.FormatFloat(v, 'f', -1, 64), a.ttl); err != nil {
		logger.Warnf("analyzer cache write failed: %v", err)
	}
	return v, nil
}
