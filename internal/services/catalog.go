package services

import (
	"strings"

	"nicu-finder/internal/domain"
)

type catalogEntry struct {
	facility   domain.CuratedFacility
	normalized string
	tokens     []string
}

// Catalog is the curated dataset prepared for fuzzy name matching.
// It is built once at startup and is safe for concurrent reads.
type Catalog struct {
	entries []catalogEntry
}

// Scores below these are not a match. The stricter bar applies when the
// searcher's state is known and differs from the facility's.
const (
	matchThreshold      = 0.5
	crossStateThreshold = 0.7
)

func NewCatalog(facilities []domain.CuratedFacility) *Catalog {
	c := &Catalog{entries: make([]catalogEntry, 0, len(facilities))}
	for _, f := range facilities {
		n := normalizeName(f.Name)
		c.entries = append(c.entries, catalogEntry{
			facility:   f,
			normalized: n,
			tokens:     nameTokens(n),
		})
	}
	return c
}

func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Facilities returns the dataset in its original order.
func (c *Catalog) Facilities() []domain.CuratedFacility {
	if c == nil {
		return nil
	}
	out := make([]domain.CuratedFacility, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.facility
	}
	return out
}

// matchScore is the share of query tokens found in the entry, measured
// against the longer of the two token lists. Tokens match when either
// contains the other.
func matchScore(query, entry []string) float64 {
	if len(query) == 0 || len(entry) == 0 {
		return 0
	}

	matched := 0
	for _, q := range query {
		for _, e := range entry {
			if strings.Contains(e, q) || strings.Contains(q, e) {
				matched++
				break
			}
		}
	}

	denom := len(query)
	if len(entry) > denom {
		denom = len(entry)
	}
	return float64(matched) / float64(denom)
}

func statesOverlap(a, b string) bool {
	a, b = strings.ToLower(strings.TrimSpace(a)), strings.ToLower(strings.TrimSpace(b))
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// Match returns the best scoring facility for name. state is the searcher's
// region and may be empty. Ties prefer an exact normalized name, then
// dataset order.
func (c *Catalog) Match(name, state string) (domain.CuratedFacility, float64, bool) {
	if c == nil {
		return domain.CuratedFacility{}, 0, false
	}

	normalized := normalizeName(name)
	query := nameTokens(normalized)
	if len(query) == 0 {
		return domain.CuratedFacility{}, 0, false
	}

	best := -1
	bestScore := 0.0
	bestExact := false

	for i, e := range c.entries {
		score := matchScore(query, e.tokens)

		threshold := matchThreshold
		if state != "" && e.facility.State != "" && !statesOverlap(state, e.facility.State) {
			threshold = crossStateThreshold
		}
		if score < threshold {
			continue
		}

		exact := e.normalized == normalized
		switch {
		case best < 0, score > bestScore, score == bestScore && exact && !bestExact:
			best, bestScore, bestExact = i, score, exact
		}
	}

	if best < 0 {
		return domain.CuratedFacility{}, 0, false
	}
	return c.entries[best].facility, bestScore, true
}
