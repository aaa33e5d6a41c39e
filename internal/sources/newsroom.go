package sources

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/milescrape/milescrape/internal/db/models"
)

// newsroomPaths are tried in order on the company website
var newsroomPaths = []string{"/news", "/press", "/newsroom", "/blog"}

// NewsroomExtractor scrapes a company's own news page for milestone posts
type NewsroomExtractor struct {
	limiter *HostLimiter
	now     func() time.Time
}

// NewNewsroomExtractor creates a newsroom extractor sharing limiter
func NewNewsroomExtractor(limiter *HostLimiter) *NewsroomExtractor {
	return &NewsroomExtractor{limiter: limiter, now: time.Now}
}

// FindMilestones reads the first newsroom page that responds. A company
// without a website yields no candidates.
func (n *NewsroomExtractor) FindMilestones(ctx context.Context, company Company, lookbackDays int, allowed []models.MilestoneType) ([]Candidate, error) {
	if company.Website == "" || len(allowed) == 0 {
		return nil, nil
	}
	base, err := url.Parse(strings.TrimRight(company.Website, "/"))
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid website %q for %s", company.Website, company.Name)
	}

	var lastErr error
	for _, path := range newsroomPaths {
		pageURL := base.String() + path
		body, err := fetch(ctx, n.limiter, pageURL)
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				break
			}
			continue
		}
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			lastErr = fmt.Errorf("parse newsroom html: %w", err)
			continue
		}
		return n.parse(doc, base, pageURL, company, lookbackDays, allowed), nil
	}
	return nil, fmt.Errorf("no newsroom page for %s: %w", company.Name, lastErr)
}

type newsPost struct {
	title  string
	text   string
	link   string
	posted *time.Time
}

func (n *NewsroomExtractor) parse(doc *goquery.Document, base *url.URL, pageURL string, company Company, lookbackDays int, allowed []models.MilestoneType) []Candidate {
	var posts []newsPost
	doc.Find("article").Each(func(_ int, a *goquery.Selection) {
		p := newsPost{
			title: cleanText(a.Find("h1, h2, h3").First().Text()),
			text:  cleanText(a.Find("p").Text()),
			link:  resolveLink(base, a.Find("a[href]").First().AttrOr("href", "")),
		}
		if dt, ok := a.Find("time[datetime]").First().Attr("datetime"); ok {
			p.posted = parsePostDate(dt)
		}
		posts = append(posts, p)
	})
	// Pages without article markup usually list headlines as links
	if len(posts) == 0 {
		doc.Find("h2 a[href], h3 a[href]").Each(func(_ int, a *goquery.Selection) {
			posts = append(posts, newsPost{
				title: cleanText(a.Text()),
				link:  resolveLink(base, a.AttrOr("href", "")),
			})
		})
	}

	cutoff := n.now().Add(-time.Duration(lookbackDays) * 24 * time.Hour)
	seen := map[string]bool{}
	var out []Candidate
	for _, p := range posts {
		content := strings.Trim(strings.TrimSpace(p.title+". "+p.text), ". ")
		if content == "" {
			continue
		}
		mt, ok := Classify(content, allowed)
		if !ok {
			continue
		}
		if p.posted != nil && p.posted.Before(cutoff) {
			continue
		}
		link := p.link
		if link == "" {
			link = pageURL
		}
		key := link + "|" + p.title
		if seen[key] {
			continue
		}
		seen[key] = true

		out = append(out, Candidate{
			Company:       company,
			MilestoneType: mt,
			Content:       content,
			URL:           link,
			PostedAt:      p.posted,
			Location:      company.Location,
			Seniority:     DetectSeniority(content),
			CompanySize:   company.Size,
		})
	}
	return out
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func parsePostDate(s string) *time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return &t
		}
	}
	return nil
}
