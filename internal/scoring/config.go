// Package scoring turns milestone candidates into accept or reject decisions
// with an integer score on a 0 to 100 scale
package scoring

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/milescrape/milescrape/internal/db/models"
)

// Config holds the scoring tables and the acceptance threshold
type Config struct {
	BaseScore          int                          `yaml:"base_score"`
	RecencyMaxBonus    float64                      `yaml:"recency_max_bonus"`
	RecencyDecayPerDay float64                      `yaml:"recency_decay_per_day"`
	MilestoneBonus     map[models.MilestoneType]int `yaml:"milestone_bonus"`
	SeniorityBonus     map[models.Seniority]int     `yaml:"seniority_bonus"`
	Threshold          int                          `yaml:"threshold"`
}

// DefaultConfig returns the built in scoring tables. config/scoring.yml ships
// the same values.
func DefaultConfig() Config {
	return Config{
		BaseScore:          50,
		RecencyMaxBonus:    15,
		RecencyDecayPerDay: 0.5,
		MilestoneBonus: map[models.MilestoneType]int{
			models.MilestoneFunding:     5,
			models.MilestoneAcquisition: 5,
			models.MilestoneExpansion:   3,
			models.MilestoneAward:       2,
			models.MilestoneLaunch:      2,
			models.MilestonePartnership: 1,
			models.MilestoneAnniversary: 0,
		},
		SeniorityBonus: map[models.Seniority]int{
			models.SeniorityExecutive: 20,
			models.SenioritySenior:    15,
			models.SeniorityMid:       10,
			models.SeniorityEntry:     5,
			models.SeniorityUnknown:   0,
		},
		Threshold: 60,
	}
}

// LoadConfig reads a YAML scoring file. Keys missing from the file keep their
// default values and table keys are matched case insensitively. An empty path
// returns the defaults.
func LoadConfig(path string) (Config, error) {
	defaults := DefaultConfig()
	if path == "" {
		return defaults, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read scoring config: %w", err)
	}

	// Tables decode on their own so a key written in another case replaces the default entry
	cfg := defaults
	cfg.MilestoneBonus, cfg.SeniorityBonus = nil, nil
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse scoring config %s: %w", path, err)
	}
	milestones, err := normalizeTable(cfg.MilestoneBonus, models.ParseMilestoneType)
	if err != nil {
		return Config{}, fmt.Errorf("invalid scoring config %s: milestone_bonus: %w", path, err)
	}
	seniorities, err := normalizeTable(cfg.SeniorityBonus, models.ParseSeniority)
	if err != nil {
		return Config{}, fmt.Errorf("invalid scoring config %s: seniority_bonus: %w", path, err)
	}
	cfg.MilestoneBonus = mergeTable(defaults.MilestoneBonus, milestones)
	cfg.SeniorityBonus = mergeTable(defaults.SeniorityBonus, seniorities)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid scoring config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the tables only name known categories and that
// every number is in range
func (c Config) Validate() error {
	if c.BaseScore < 0 || c.BaseScore > 100 {
		return fmt.Errorf("base_score must be between 0 and 100, got %d", c.BaseScore)
	}
	if c.Threshold < 0 || c.Threshold > 100 {
		return fmt.Errorf("threshold must be between 0 and 100, got %d", c.Threshold)
	}
	if c.RecencyMaxBonus < 0 {
		return fmt.Errorf("recency_max_bonus must not be negative")
	}
	if c.RecencyDecayPerDay < 0 {
		return fmt.Errorf("recency_decay_per_day must not be negative")
	}
	for m := range c.MilestoneBonus {
		if err := canonicalKey(m, models.ParseMilestoneType); err != nil {
			return fmt.Errorf("milestone_bonus: %w", err)
		}
	}
	for s := range c.SeniorityBonus {
		if err := canonicalKey(s, models.ParseSeniority); err != nil {
			return fmt.Errorf("seniority_bonus: %w", err)
		}
	}
	return nil
}

// canonicalKey rejects unknown keys and keys the engine would never look up
func canonicalKey[K ~string](key K, parse func(string) (K, error)) error {
	parsed, err := parse(string(key))
	if err != nil {
		return err
	}
	if parsed != key {
		return fmt.Errorf("key %q must be written as %q", string(key), string(parsed))
	}
	return nil
}

// normalizeTable rewrites every key to its canonical form
func normalizeTable[K ~string](table map[K]int, parse func(string) (K, error)) (map[K]int, error) {
	out := make(map[K]int, len(table))
	for key, v := range table {
		parsed, err := parse(string(key))
		if err != nil {
			return nil, err
		}
		if _, dup := out[parsed]; dup {
			return nil, fmt.Errorf("%q is listed more than once", string(parsed))
		}
		out[parsed] = v
	}
	return out, nil
}

func mergeTable[K comparable](base, overrides map[K]int) map[K]int {
	out := make(map[K]int, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}
