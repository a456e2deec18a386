package ratecard

import (
	"sort"
	"time"
)

// LatestEffective keeps the entries sharing the most recent effective date
// on or before asOf
func LatestEffective(entries []*Entry, asOf time.Time) []*Entry {
	var latest time.Time
	for _, e := range entries {
		if e.EffectiveDate.After(asOf) {
			continue
		}
		if e.EffectiveDate.After(latest) {
			latest = e.EffectiveDate
		}
	}
	if latest.IsZero() {
		return nil
	}

	result := make([]*Entry, 0, len(entries))
	for _, e := range entries {
		if e.EffectiveDate.Equal(latest) {
			result = append(result, e)
		}
	}
	return result
}

// SelectTier picks the tier of one rate schedule that volume falls in.
// When volume sits in a gap between tiers, the highest tier starting at or
// below volume wins. A volume below every tier gets the first tier, so a
// schedule written as 1-based still prices the first conversation.
func SelectTier(tiers []*Entry, volume uint64) *Entry {
	if len(tiers) == 0 {
		return nil
	}
	sorted := make([]*Entry, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].VolumeTierStart < sorted[j].VolumeTierStart
	})

	fallback := sorted[0]
	for _, t := range sorted {
		if t.Contains(volume) {
			return t
		}
		if t.VolumeTierStart <= volume {
			fallback = t
		}
	}
	return fallback
}
