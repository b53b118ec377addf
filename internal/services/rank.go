package services

import (
	"sort"

	"nicu-finder/internal/domain"
)

// Rank merges both sources, drops candidates beyond radiusMiles and sorts by
// distance. Ties keep discovery order.
//
// A curated entry whose name matches a live candidate is folded into that
// live candidate, so each facility appears once with its driving distance
// and the dataset's level, beds and region.
func Rank(candidates []domain.Candidate, radiusMiles float64) []domain.Candidate {
	live := make(map[string]int)
	for i, c := range candidates {
		if c.Source != domain.SourceLive {
			continue
		}
		k := dedupKey(c.Name)
		if k == "" {
			continue
		}
		if _, ok := live[k]; !ok {
			live[k] = i
		}
	}

	merged := make([]domain.Candidate, len(candidates))
	copy(merged, candidates)

	dropped := make([]bool, len(merged))
	for i, c := range merged {
		if c.Source != domain.SourceDatabase {
			continue
		}
		j, ok := live[dedupKey(c.Name)]
		if !ok {
			continue
		}
		annotate(&merged[j], c)
		dropped[i] = true
	}

	out := make([]domain.Candidate, 0, len(merged))
	for i, c := range merged {
		if dropped[i] || !c.WithinRadius(radiusMiles) {
			continue
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].DistanceValue < out[b].DistanceValue
	})
	return out
}

// annotate copies curated fields onto a live candidate. The dataset level
// replaces any inferred level; contact fields are only filled when missing.
func annotate(live *domain.Candidate, curated domain.Candidate) {
	if live.CuratedMatch {
		return
	}
	live.CuratedMatch = true

	if curated.NICULevel != nil {
		live.NICULevel = curated.NICULevel
	}
	if curated.Beds != nil {
		live.Beds = curated.Beds
	}
	live.County = curated.County
	live.State = curated.State
	live.ReferenceURL = curated.ReferenceURL
	if live.Phone == nil {
		live.Phone = curated.Phone
	}
	if live.Coordinates == nil {
		live.Coordinates = curated.Coordinates
	}
}
