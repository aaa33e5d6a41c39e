package sources

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/sync/errgroup"

	"github.com/milescrape/milescrape/internal/db/models"
)

// DefaultNewsFeedURL is a news search feed; %s receives the escaped query
const DefaultNewsFeedURL = "https://news.google.com/rss/search?q=%s&hl=en-US&gl=US&ceid=US:en"

// maxParallelFeeds bounds the feed queries in flight for one company
const maxParallelFeeds = 3

// RSSExtractor searches a news feed for each allowed milestone type of a
// company and classifies the items it finds
type RSSExtractor struct {
	feedURL string
	limiter *HostLimiter
	now     func() time.Time
}

// NewRSSExtractor creates an extractor. feedURL must contain one %s; empty uses DefaultNewsFeedURL.
func NewRSSExtractor(feedURL string, limiter *HostLimiter) *RSSExtractor {
	if feedURL == "" {
		feedURL = DefaultNewsFeedURL
	}
	return &RSSExtractor{feedURL: feedURL, limiter: limiter, now: time.Now}
}

// FindMilestones runs one feed query per allowed type in parallel and merges
// the results in query order. A failed query is skipped; the call fails when
// every query fails or ctx ends.
func (r *RSSExtractor) FindMilestones(ctx context.Context, company Company, lookbackDays int, allowed []models.MilestoneType) ([]Candidate, error) {
	if len(allowed) == 0 {
		return nil, nil
	}

	items := make([][]*gofeed.Item, len(allowed))
	errs := make([]error, len(allowed))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFeeds)
	for i, mt := range allowed {
		i, mt := i, mt
		g.Go(func() error {
			query := fmt.Sprintf("%q %s", company.Name, milestoneKeywords[mt][0])
			body, err := fetch(gCtx, r.limiter, fmt.Sprintf(r.feedURL, url.QueryEscape(query)))
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				errs[i] = err
				return nil
			}
			feed, err := gofeed.NewParser().ParseString(string(body))
			if err != nil {
				errs[i] = fmt.Errorf("parse feed: %w", err)
				return nil
			}
			items[i] = feed.Items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed == len(allowed) {
		return nil, fmt.Errorf("all %d feed queries for %s failed: %w", failed, company.Name, errors.Join(errs...))
	}

	cutoff := r.now().Add(-time.Duration(lookbackDays) * 24 * time.Hour)
	seen := map[string]bool{}
	var out []Candidate
	for _, list := range items {
		for _, it := range list {
			link := strings.TrimSpace(it.Link)
			if link == "" || seen[link] {
				continue
			}
			text := strings.TrimSpace(it.Title + ". " + it.Description)
			mt, ok := Classify(text, allowed)
			if !ok {
				continue
			}

			var posted *time.Time
			if it.PublishedParsed != nil {
				posted = it.PublishedParsed
			} else if it.UpdatedParsed != nil {
				posted = it.UpdatedParsed
			}
			if posted != nil && posted.Before(cutoff) {
				continue
			}

			seen[link] = true
			out = append(out, Candidate{
				Company:       company,
				MilestoneType: mt,
				Content:       text,
				URL:           link,
				PostedAt:      posted,
				Location:      company.Location,
				Seniority:     DetectSeniority(text),
				CompanySize:   company.Size,
			})
		}
	}
	return out, nil
}
