package scoring

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milescrape/milescrape/internal/db/models"
	"github.com/milescrape/milescrape/internal/sources"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func daysAgo(d float64) *time.Time {
	t := testNow.Add(-time.Duration(d * 24 * float64(time.Hour)))
	return &t
}

func intPtr(i int) *int { return &i }

func testParams() models.ScanParams {
	return models.ScanParams{
		Location:       "Austin",
		RadiusKm:       10,
		LookbackDays:   30,
		MilestoneTypes: []models.MilestoneType{models.MilestoneFunding, models.MilestoneAward},
	}
}

func testCandidate() sources.Candidate {
	return sources.Candidate{
		Company:       sources.Company{Name: "Acme", Location: "Austin, TX"},
		MilestoneType: models.MilestoneFunding,
		Content:       "Acme raised a Series A",
		PostedAt:      daysAgo(2),
	}
}

func TestScore(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	tests := []struct {
		name      string
		mutate    func(c *sources.Candidate)
		relevance float64
		want      int
	}{
		{
			name:      "recent post",
			relevance: 0.8,
			want:      75, // (50 + 14 + 5 + 80) / 2 = 74.5
		},
		{
			name:      "executive posted now",
			mutate:    func(c *sources.Candidate) { c.PostedAt = daysAgo(0); c.Seniority = models.SeniorityExecutive },
			relevance: 1,
			want:      95, // (50 + 15 + 5 + 20 + 100) / 2
		},
		{
			name:      "unknown date earns no recency bonus",
			mutate:    func(c *sources.Candidate) { c.PostedAt = nil },
			relevance: 0.05,
			want:      30, // (50 + 5 + 5) / 2
		},
		{
			name:      "old post earns nothing",
			mutate:    func(c *sources.Candidate) { c.PostedAt = daysAgo(45) },
			relevance: 0.5,
			want:      53, // (50 + 5 + 50) / 2 = 52.5
		},
		{
			name:      "future date is capped at max bonus",
			mutate:    func(c *sources.Candidate) { c.PostedAt = daysAgo(-10) },
			relevance: 0,
			want:      35, // (50 + 15 + 5) / 2
		},
		{
			name:      "relevance out of range is clamped",
			mutate:    func(c *sources.Candidate) { c.PostedAt = nil },
			relevance: 7,
			want:      78, // (50 + 5 + 100) / 2 = 77.5
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testCandidate()
			if tt.mutate != nil {
				tt.mutate(&c)
			}
			assert.Equal(t, tt.want, engine.Score(c, tt.relevance, testNow))
		})
	}
}

func TestScoreClamps(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MilestoneBonus = map[models.MilestoneType]int{models.MilestoneFunding: 300}
	assert.Equal(t, 100, NewEngine(cfg).Score(testCandidate(), 1, testNow))

	cfg.MilestoneBonus = map[models.MilestoneType]int{models.MilestoneFunding: -500}
	assert.Equal(t, 0, NewEngine(cfg).Score(testCandidate(), 0, testNow))
}

func TestScoreAndFilter(t *testing.T) {
	engine := NewEngine(DefaultConfig())

	tests := []struct {
		name       string
		mutateC    func(c *sources.Candidate)
		mutateP    func(p *models.ScanParams)
		relevance  float64
		wantAccept bool
		wantReason string
	}{
		{
			name:       "accepted",
			relevance:  0.8,
			wantAccept: true,
		},
		{
			name:       "type checked before location",
			mutateC:    func(c *sources.Candidate) { c.MilestoneType = models.MilestoneLaunch; c.Location = "Denver, CO" },
			relevance:  0.8,
			wantReason: ReasonMilestoneType,
		},
		{
			name:       "location case insensitive substring",
			mutateC:    func(c *sources.Candidate) { c.Location = "SOUTH AUSTIN, TX" },
			relevance:  0.8,
			wantAccept: true,
		},
		{
			name:       "falls back to company location",
			mutateC:    func(c *sources.Candidate) { c.Company.Location = "Denver, CO" },
			relevance:  0.8,
			wantReason: ReasonLocation,
		},
		{
			name:       "missing location passes",
			mutateC:    func(c *sources.Candidate) { c.Company.Location = "" },
			relevance:  0.8,
			wantAccept: true,
		},
		{
			name:       "too old checked before score",
			mutateC:    func(c *sources.Candidate) { c.PostedAt = daysAgo(31) },
			relevance:  0,
			wantReason: ReasonTooOld,
		},
		{
			name:       "unknown date passes age filter",
			mutateC:    func(c *sources.Candidate) { c.PostedAt = nil },
			relevance:  0.9,
			wantAccept: true,
		},
		{
			name:       "seniority filter",
			mutateC:    func(c *sources.Candidate) { c.Seniority = models.SeniorityMid },
			mutateP:    func(p *models.ScanParams) { p.SeniorityLevels = []models.Seniority{models.SeniorityExecutive} },
			relevance:  0.8,
			wantReason: ReasonSeniority,
		},
		{
			name:       "missing seniority passes",
			mutateP:    func(p *models.ScanParams) { p.SeniorityLevels = []models.Seniority{models.SeniorityExecutive} },
			relevance:  0.8,
			wantAccept: true,
		},
		{
			name:       "company too small",
			mutateC:    func(c *sources.Candidate) { c.CompanySize = 5 },
			mutateP:    func(p *models.ScanParams) { p.CompanySizeMin = intPtr(10); p.CompanySizeMax = intPtr(100) },
			relevance:  0.8,
			wantReason: ReasonCompanySize,
		},
		{
			name:       "company size from company record",
			mutateC:    func(c *sources.Candidate) { c.Company.Size = 500 },
			mutateP:    func(p *models.ScanParams) { p.CompanySizeMax = intPtr(100) },
			relevance:  0.8,
			wantReason: ReasonCompanySize,
		},
		{
			name:       "below threshold",
			relevance:  0.4, // (69 + 40) / 2 = 54.5
			wantReason: ReasonLowScore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := testCandidate()
			p := testParams()
			if tt.mutateC != nil {
				tt.mutateC(&c)
			}
			if tt.mutateP != nil {
				tt.mutateP(&p)
			}
			d := engine.ScoreAndFilter(c, p, tt.relevance, testNow)
			assert.Equal(t, tt.wantAccept, d.Accept)
			assert.Equal(t, tt.wantReason, d.Reason)
		})
	}
}

func TestScoreAndFilterIsDeterministic(t *testing.T) {
	engine := NewEngine(DefaultConfig())
	first := engine.ScoreAndFilter(testCandidate(), testParams(), 0.66, testNow)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, engine.ScoreAndFilter(testCandidate(), testParams(), 0.66, testNow))
	}
}

func TestMockPostsWithDefaultConfig(t *testing.T) {
	ctx := context.Background()
	engine := NewEngine(DefaultConfig())
	extractor := sources.MockExtractor{Now: func() time.Time { return testNow }}
	params := testParams()
	params.Location = "Austin, TX"
	params.MilestoneTypes = models.AllMilestoneTypes

	companies, err := sources.MockDiscovery{}.FindCompanies(ctx, params.Location, params.RadiusKm)
	require.NoError(t, err)

	// These phrases carry enough signal to clear the threshold at any age inside the window
	alwaysAccepted := map[models.MilestoneType]bool{
		models.MilestoneFunding:     true,
		models.MilestoneAcquisition: true,
		models.MilestoneAnniversary: true,
	}
	for _, mt := range models.AllMilestoneTypes {
		if !alwaysAccepted[mt] {
			continue
		}
		for _, c := range companies {
			posts, err := extractor.FindMilestones(ctx, c, params.LookbackDays, []models.MilestoneType{mt})
			require.NoError(t, err)
			require.NotEmpty(t, posts, "every mock company has at least one post")
			for _, post := range posts {
				relevance, err := sources.KeywordAnalyzer{}.Relevance(ctx, post.Content)
				require.NoError(t, err)
				d := engine.ScoreAndFilter(post, params, relevance, testNow)
				assert.True(t, d.Accept, "%s: %q scored %d (%s)", mt, post.Content, d.Score, d.Reason)
			}
		}
	}
}
