package sources

import (
	"context"
	"fmt"
	"math"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const earthRadiusKm = 6371.0

// Place is a named reference point for radius searches
type Place struct {
	Name string  `yaml:"name"`
	Lat  float64 `yaml:"lat"`
	Lng  float64 `yaml:"lng"`
}

// CompanyDirectory is the YAML document read by FileDiscovery
type CompanyDirectory struct {
	Places    []Place   `yaml:"places"`
	Companies []Company `yaml:"companies"`
}

// FileDiscovery serves companies from a YAML directory file
type FileDiscovery struct {
	dir CompanyDirectory
}

// NewFileDiscovery loads the directory at path
func NewFileDiscovery(path string) (*FileDiscovery, error) {
	if path == "" {
		return nil, fmt.Errorf("companies file path is required for file discovery")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read companies file: %w", err)
	}
	var dir CompanyDirectory
	if err := yaml.Unmarshal(raw, &dir); err != nil {
		return nil, fmt.Errorf("failed to parse companies file %s: %w", path, err)
	}
	return &FileDiscovery{dir: dir}, nil
}

// NewFileDiscoveryFromDirectory serves an in memory directory
func NewFileDiscoveryFromDirectory(dir CompanyDirectory) *FileDiscovery {
	return &FileDiscovery{dir: dir}
}

// FindCompanies returns the companies in the directory order. When location
// names a known place, companies with coordinates must lie within radiusKm of it.
// Companies without coordinates match on their location text.
func (f *FileDiscovery) FindCompanies(ctx context.Context, location string, radiusKm float64) ([]Company, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	place, havePlace := f.lookupPlace(location)

	var out []Company
	for _, c := range f.dir.Companies {
		if havePlace && c.Lat != nil && c.Lng != nil {
			if HaversineKm(place.Lat, place.Lng, *c.Lat, *c.Lng) <= radiusKm {
				out = append(out, c)
			}
			continue
		}
		if textMatches(location, c.Location) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *FileDiscovery) lookupPlace(location string) (Place, bool) {
	for _, p := range f.dir.Places {
		if strings.EqualFold(strings.TrimSpace(p.Name), strings.TrimSpace(location)) {
			return p, true
		}
	}
	return Place{}, false
}

func textMatches(want, got string) bool {
	want = strings.ToLower(strings.TrimSpace(want))
	got = strings.ToLower(strings.TrimSpace(got))
	if want == "" || got == "" {
		return false
	}
	return strings.Contains(got, want) || strings.Contains(want, got)
}

// HaversineKm is the great circle distance between two coordinates
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a)))
}
