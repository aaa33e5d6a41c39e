package sources

import (
	"strings"
	"unicode"

	"github.com/milescrape/milescrape/internal/db/models"
)

// milestoneKeywords maps each milestone type to the phrases that signal it
var milestoneKeywords = map[models.MilestoneType][]string{
	models.MilestoneFunding:     {"raised", "raises", "funding", "series a", "series b", "series c", "seed round", "investment", "investors", "venture"},
	models.MilestoneExpansion:   {"expansion", "expands", "new office", "opens", "new location", "headquarters", "growth"},
	models.MilestoneAward:       {"award", "recognized", "recognition", "honored", "wins", "named best"},
	models.MilestoneAnniversary: {"anniversary", "years in business", "celebrates", "founded in"},
	models.MilestoneLaunch:      {"launch", "launches", "unveils", "introduces", "new product", "release"},
	models.MilestoneAcquisition: {"acquire", "acquires", "acquired", "acquisition", "merger", "merges"},
	models.MilestonePartnership: {"partnership", "partners with", "teams up", "collaboration", "alliance", "contract"},
}

var seniorityKeywords = []struct {
	level models.Seniority
	words []string
}{
	// checked first so it is not read as president
	{models.SenioritySenior, []string{"vice president"}},
	{models.SeniorityExecutive, []string{"ceo", "founder", "president", "chief", "cto", "cfo", "coo"}},
	{models.SenioritySenior, []string{"vp", "director", "head of"}},
	{models.SeniorityMid, []string{"manager", "team lead"}},
	{models.SeniorityEntry, []string{"intern", "junior", "associate", "graduate"}},
}

// Classify picks the milestone type with the most keyword hits in text among
// allowed. Ties go to the type listed first in models.AllMilestoneTypes.
func Classify(text string, allowed []models.MilestoneType) (models.MilestoneType, bool) {
	lower := strings.ToLower(text)
	var (
		best     models.MilestoneType
		bestHits int
	)
	for _, m := range models.AllMilestoneTypes {
		if !containsType(allowed, m) {
			continue
		}
		hits := 0
		for _, kw := range milestoneKeywords[m] {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = m, hits
		}
	}
	return best, bestHits > 0
}

// DetectSeniority guesses the rank of the person a text is about, matching whole words
func DetectSeniority(text string) models.Seniority {
	words := " " + strings.Join(strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}), " ") + " "
	for _, s := range seniorityKeywords {
		for _, w := range s.words {
			if strings.Contains(words, " "+w+" ") {
				return s.level
			}
		}
	}
	return models.SeniorityUnknown
}

func containsType(types []models.MilestoneType, m models.MilestoneType) bool {
	if len(types) == 0 {
		return true
	}
	for _, t := range types {
		if t == m {
			return true
		}
	}
	return false
}
