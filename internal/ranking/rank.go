package ranking

import (
	"sort"

	"github.com/researchatlas/atlas/internal/openalex"
)

// TopN returns the n items with the highest count, highest first.
// Equal counts keep their input order. The input slice is not modified.
func TopN[T any](items []T, n int, count func(T) int) []T {
	ranked := make([]T, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(i, j int) bool {
		return count(ranked[i]) > count(ranked[j])
	})
	if n < 0 {
		n = 0
	}
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// validGroup reports whether a group has the identifier and display name needed for a record.
func validGroup(g openalex.Group) bool {
	return g.Key != "" && g.KeyDisplayName != ""
}

// subfieldsFromGroups converts subfield groups to records, skipping malformed groups.
func subfieldsFromGroups(groups []openalex.Group) []SubfieldRecord {
	records := make([]SubfieldRecord, 0, len(groups))
	for _, g := range groups {
		if !validGroup(g) {
			continue
		}
		records = append(records, SubfieldRecord{
			ID:         openalex.ShortID(g.Key),
			Name:       g.KeyDisplayName,
			WorksCount: g.Count,
		})
	}
	return records
}

// topicsFromGroups converts topic groups to records, skipping malformed groups.
func topicsFromGroups(groups []openalex.Group) []TopicRecord {
	records := make([]TopicRecord, 0, len(groups))
	for _, g := range groups {
		if !validGroup(g) {
			continue
		}
		records = append(records, TopicRecord{
			ID:         openalex.ShortID(g.Key),
			Name:       g.KeyDisplayName,
			Field:      g.FieldName(UnknownName),
			Subfield:   g.SubfieldName(UnknownName),
			WorksCount: g.Count,
		})
	}
	return records
}

func subfieldCount(r SubfieldRecord) int { return r.WorksCount }

func topicCount(r TopicRecord) int { return r.WorksCount }
