package scoring

import (
	"math"
	"strings"
	"time"

	"github.com/milescrape/milescrape/internal/db/models"
	"github.com/milescrape/milescrape/internal/sources"
)

// Rejection reasons, in the order the filters run
const (
	ReasonMilestoneType = "milestone type not requested"
	ReasonLocation      = "location does not match"
	ReasonTooOld        = "older than lookback window"
	ReasonSeniority     = "seniority not requested"
	ReasonCompanySize   = "company size out of range"
	ReasonLowScore      = "score below threshold"
)

// Decision is the outcome of scoring one candidate
type Decision struct {
	Accept bool
	Score  int
	Reason string
}

// Engine scores and filters candidates. It holds no clock and no randomness,
// so the same inputs always give the same decision.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine for cfg
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Config returns the engine's scoring tables
func (e *Engine) Config() Config {
	return e.cfg
}

// ScoreAndFilter scores c and decides whether it becomes a lead for a scan
// with params. relevance is the analyzer's rating in [0, 1].
func (e *Engine) ScoreAndFilter(c sources.Candidate, params models.ScanParams, relevance float64, now time.Time) Decision {
	score := e.Score(c, relevance, now)
	d := Decision{Score: score}

	switch {
	case !params.AllowsMilestone(c.MilestoneType):
		d.Reason = ReasonMilestoneType
	case !locationMatches(params.Location, c.EffectiveLocation()):
		d.Reason = ReasonLocation
	case c.PostedAt != nil && ageDays(*c.PostedAt, now) > float64(params.LookbackDays):
		d.Reason = ReasonTooOld
	case !seniorityAllowed(params.SeniorityLevels, c.Seniority):
		d.Reason = ReasonSeniority
	case !sizeAllowed(params.CompanySizeMin, params.CompanySizeMax, c.EffectiveSize()):
		d.Reason = ReasonCompanySize
	case score < e.cfg.Threshold:
		d.Reason = ReasonLowScore
	default:
		d.Accept = true
	}
	return d
}

// Score computes the 0 to 100 score of c
func (e *Engine) Score(c sources.Candidate, relevance float64, now time.Time) int {
	score := float64(e.cfg.BaseScore)

	if c.PostedAt != nil {
		score += e.recencyBonus(ageDays(*c.PostedAt, now))
	}

	score += float64(e.cfg.MilestoneBonus[c.MilestoneType])
	seniority := c.Seniority
	if seniority == "" {
		seniority = models.SeniorityUnknown
	}
	score += float64(e.cfg.SeniorityBonus[seniority])

	relevance = math.Max(0, math.Min(1, relevance))
	score = (score + relevance*100) / 2

	return int(math.Max(0, math.Min(100, math.Round(score))))
}

func (e *Engine) recencyBonus(age float64) float64 {
	bonus := e.cfg.RecencyMaxBonus - age*e.cfg.RecencyDecayPerDay
	return math.Max(0, math.Min(e.cfg.RecencyMaxBonus, bonus))
}

func ageDays(posted, now time.Time) float64 {
	return now.Sub(posted).Hours() / 24
}

// locationMatches is a case insensitive substring match of the scan location
// in the candidate location. A missing location on either side matches.
func locationMatches(want, got string) bool {
	want = strings.ToLower(strings.TrimSpace(want))
	got = strings.ToLower(strings.TrimSpace(got))
	if want == "" || got == "" {
		return true
	}
	return strings.Contains(got, want)
}

func seniorityAllowed(levels []models.Seniority, s models.Seniority) bool {
	if len(levels) == 0 || s == "" {
		return true
	}
	for _, l := range levels {
		if l == s {
			return true
		}
	}
	return false
}

func sizeAllowed(lo, hi *int, size int) bool {
	if size <= 0 {
		return true
	}
	if lo != nil && size < *lo {
		return false
	}
	if hi != nil && size > *hi {
		return false
	}
	return true
}
