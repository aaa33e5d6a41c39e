package sources

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/milescrape/milescrape/internal/db/models"
)

var (
	mockPrefixes = []string{"Blue", "Summit", "Cedar", "Harbor", "Northwind", "Granite", "Silver", "Maple"}
	mockSuffixes = []string{"Labs", "Dynamics", "Analytics", "Logistics", "Health", "Robotics", "Foods", "Energy"}
	mockPhrases  = map[models.MilestoneType]string{
		models.MilestoneFunding:     "%s raised a $%dM Series A funding round and its CEO expects strong growth",
		models.MilestoneExpansion:   "%s opens a new office downtown as part of its expansion, adding %d jobs",
		models.MilestoneAward:       "%s wins the %d Best Places to Work award in recognition of its growth",
		models.MilestoneAnniversary: "%s marks its %dth anniversary, a milestone its founder calls a proud achievement",
		models.MilestoneLaunch:      "%s launches version %d of its flagship product",
		models.MilestoneAcquisition: "%s completes the acquisition of a local rival in a $%dM merger led by its VP of strategy",
		models.MilestonePartnership: "%s announces a partnership with %d regional hospitals",
	}
)

func hashOf(parts ...string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.Join(parts, "|"))))
	return h.Sum32()
}

// MockDiscovery generates a deterministic set of companies for any location
type MockDiscovery struct{}

// FindCompanies returns between 3 and 7 companies named after the location's hash
func (MockDiscovery) FindCompanies(ctx context.Context, location string, radiusKm float64) ([]Company, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h := hashOf(location)
	n := 3 + int(h%5)
	companies := make([]Company, 0, n)
	for i := 0; i < n; i++ {
		seed := hashOf(location, fmt.Sprint(i))
		name := fmt.Sprintf("%s %s", mockPrefixes[seed%uint32(len(mockPrefixes))], mockSuffixes[(seed/7)%uint32(len(mockSuffixes))])
		companies = append(companies, Company{
			Name:     fmt.Sprintf("%s %d", name, i+1),
			Website:  fmt.Sprintf("https://%s-%d.example.com", strings.ToLower(strings.ReplaceAll(name, " ", "-")), i+1),
			Location: location,
			Size:     10 + int(seed%490),
		})
	}
	return companies, nil
}

// MockExtractor produces deterministic milestone candidates from the company name
type MockExtractor struct {
	// Now is the reference time for publish dates, time.Now when nil
	Now func() time.Time
}

// FindMilestones returns 1 or 2 candidates of the allowed types posted inside the lookback window
func (m MockExtractor) FindMilestones(ctx context.Context, company Company, lookbackDays int, allowed []models.MilestoneType) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(allowed) == 0 {
		return nil, nil
	}
	now := time.Now().UTC()
	if m.Now != nil {
		now = m.Now()
	}

	h := hashOf(company.Name)
	n := 1 + int(h%2)
	out := make([]Candidate, 0, n)
	for i := 0; i < n; i++ {
		seed := hashOf(company.Name, fmt.Sprint(i))
		mt := allowed[seed%uint32(len(allowed))]
		content := fmt.Sprintf(mockPhrases[mt], company.Name, 2+int(seed%20))
		age := 0
		if lookbackDays > 0 {
			age = int(seed % uint32(lookbackDays+1))
		}
		posted := now.Add(-time.Duration(age) * 24 * time.Hour)
		out = append(out, Candidate{
			Company:       company,
			MilestoneType: mt,
			Content:       content,
			URL:           fmt.Sprintf("%s/news/%d", company.Website, seed%10000),
			PostedAt:      &posted,
			Location:      company.Location,
			Seniority:     DetectSeniority(content),
			CompanySize:   company.Size,
		})
	}
	return out, nil
}
