package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MilestoneType is the category of a company event worth reaching out about
type MilestoneType string

// Milestone types
const (
	MilestoneFunding     MilestoneType = "funding"
	MilestoneExpansion   MilestoneType = "expansion"
	MilestoneAward       MilestoneType = "award"
	MilestoneAnniversary MilestoneType = "anniversary"
	MilestoneLaunch      MilestoneType = "launch"
	MilestoneAcquisition MilestoneType = "acquisition"
	MilestonePartnership MilestoneType = "partnership"
)

// AllMilestoneTypes lists every known milestone type in a stable order
var AllMilestoneTypes = []MilestoneType{
	MilestoneFunding,
	MilestoneExpansion,
	MilestoneAward,
	MilestoneAnniversary,
	MilestoneLaunch,
	MilestoneAcquisition,
	MilestonePartnership,
}

// String returns the string representation of the milestone type
func (m MilestoneType) String() string {
	return string(m)
}

// ParseMilestoneType converts a string to a MilestoneType
func ParseMilestoneType(str string) (MilestoneType, error) {
	s := MilestoneType(strings.ToLower(strings.TrimSpace(str)))
	for _, m := range AllMilestoneTypes {
		if s == m {
			return m, nil
		}
	}
	return "", fmt.Errorf("invalid milestone type: %s", str)
}

// UnmarshalJSON implements json.Unmarshaler for MilestoneType
func (m *MilestoneType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseMilestoneType(str)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Seniority is the rank of the person or role a milestone is about
type Seniority string

// Seniority levels
const (
	SeniorityExecutive Seniority = "executive"
	SenioritySenior    Seniority = "senior"
	SeniorityMid       Seniority = "mid"
	SeniorityEntry     Seniority = "entry"
	SeniorityUnknown   Seniority = "unknown"
)

// AllSeniorities lists every known seniority level
var AllSeniorities = []Seniority{
	SeniorityExecutive,
	SenioritySenior,
	SeniorityMid,
	SeniorityEntry,
	SeniorityUnknown,
}

// String returns the string representation of the seniority
func (s Seniority) String() string {
	return string(s)
}

// ParseSeniority converts a string to a Seniority
func ParseSeniority(str string) (Seniority, error) {
	s := Seniority(strings.ToLower(strings.TrimSpace(str)))
	for _, known := range AllSeniorities {
		if s == known {
			return known, nil
		}
	}
	return "", fmt.Errorf("invalid seniority: %s", str)
}
