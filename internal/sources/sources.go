// Package sources defines the collaborators a scan pulls data from: company
// discovery, milestone extraction and text analysis, plus their strategies
package sources

import (
	"context"
	"time"

	"github.com/milescrape/milescrape/internal/db/models"
)

// Company is a business found near a scan location
type Company struct {
	Name     string   `json:"name" yaml:"name"`
	Website  string   `json:"website,omitempty" yaml:"website"`
	Location string   `json:"location,omitempty" yaml:"location"`
	Size     int      `json:"size,omitempty" yaml:"size"`
	Lat      *float64 `json:"lat,omitempty" yaml:"lat"`
	Lng      *float64 `json:"lng,omitempty" yaml:"lng"`
}

// Candidate is a possible milestone found for a company. It is scored and
// filtered but never stored as is.
type Candidate struct {
	Company       Company
	MilestoneType models.MilestoneType
	Content       string
	URL           string
	PostedAt      *time.Time
	Location      string
	Seniority     models.Seniority
	CompanySize   int
}

// EffectiveLocation is the candidate location, falling back to the company's
func (c Candidate) EffectiveLocation() string {
	if c.Location != "" {
		return c.Location
	}
	return c.Company.Location
}

// EffectiveSize is the candidate company size, falling back to the company's
func (c Candidate) EffectiveSize() int {
	if c.CompanySize > 0 {
		return c.CompanySize
	}
	return c.Company.Size
}

// Discovery finds companies around a location
type Discovery interface {
	FindCompanies(ctx context.Context, location string, radiusKm float64) ([]Company, error)
}

// Extractor finds recent milestone candidates for one company
type Extractor interface {
	FindMilestones(ctx context.Context, company Company, lookbackDays int, allowed []models.MilestoneType) ([]Candidate, error)
}

// Analyzer rates how relevant a text is as a milestone, in [0, 1]
type Analyzer interface {
	Relevance(ctx context.Context, text string) (float64, error)
}
