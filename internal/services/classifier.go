package services

import (
	"regexp"
	"strings"

	"nicu-finder/internal/domain"
)

var levelPattern = regexp.MustCompile(`(?i)(?:NICU\s*)?Level[\s:\-]+(IV|III|II|I|4|3|2|1)\b`)

// LevelFromText finds the first "Level III" style token in text.
func LevelFromText(text string) (domain.NICULevel, bool) {
	m := levelPattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return domain.ParseNICULevel(m[1])
}

// Institutions whose NICU level is well known. Every fragment of a rule
// must appear in the upper-cased name.
var knownInstitutions = []struct {
	fragments []string
	level     domain.NICULevel
}{
	{[]string{"MORGAN STANLEY"}, domain.LevelIV},
	{[]string{"STANFORD", "CHILDREN"}, domain.LevelIV},
	{[]string{"CHILDREN'S HOSPITAL OF PHILADELPHIA"}, domain.LevelIV},
	{[]string{"TEXAS CHILDREN'S"}, domain.LevelIV},
	{[]string{"CEDARS-SINAI"}, domain.LevelIII},
	{[]string{"CEDARS SINAI"}, domain.LevelIII},
	{[]string{"MOUNT SINAI"}, domain.LevelIII},
	{[]string{"KAISER"}, domain.LevelIII},
	{[]string{"NYU LANGONE"}, domain.LevelIII},
}

func knownInstitutionLevel(name string) (domain.NICULevel, bool) {
	upper := strings.ToUpper(foldAccents(name))
	upper = strings.NewReplacer("\u2019", "'", "\u2018", "'").Replace(upper)

	for _, rule := range knownInstitutions {
		all := true
		for _, f := range rule.fragments {
			if !strings.Contains(upper, f) {
				all = false
				break
			}
		}
		if all {
			return rule.level, true
		}
	}
	return "", false
}

// How a level was assigned.
type Classification string

const (
	ClassifiedByText    Classification = "text"
	ClassifiedByDataset Classification = "dataset"
	ClassifiedByTable   Classification = "table"
)

// Classifier assigns NICU levels. The result is advisory and never removes
// a candidate.
type Classifier struct {
	catalog *Catalog
}

func NewClassifier(catalog *Catalog) *Classifier {
	return &Classifier{catalog: catalog}
}

// Classify returns the level for c, trying the name/address/summary text,
// then the curated dataset, then the known-institution table. state is the
// searcher's region and may be empty.
func (cl *Classifier) Classify(c domain.Candidate, state string) (domain.NICULevel, Classification, bool) {
	for _, text := range []string{c.Name, c.Address, c.Summary} {
		if lvl, ok := LevelFromText(text); ok {
			return lvl, ClassifiedByText, true
		}
	}

	if cl != nil {
		if f, _, ok := cl.catalog.Match(c.Name, state); ok && f.NICULevel != nil {
			return *f.NICULevel, ClassifiedByDataset, true
		}
	}

	if lvl, ok := knownInstitutionLevel(c.Name); ok {
		return lvl, ClassifiedByTable, true
	}
	return "", "", false
}
