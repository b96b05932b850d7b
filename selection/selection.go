// Package selection orders eligible employees for the next overtime
// assignment. Ranking is a pure function over aggregated summaries; it
// performs no I/O and never caches results.
package selection

import (
	"sort"

	"rotation/models"
)

// Rank totally orders the given summaries by fairness, most eligible first:
// fewer total hours, then least recently assigned (never assigned ranks
// before any timestamp), then ascending employee id. Ranks are dense and
// 1-based over the evaluated set.
func Rank(summaries []models.EmployeeSummary) []models.Candidate {
	candidates := make([]models.Candidate, len(summaries))
	for i, s := range summaries {
		candidates[i] = models.Candidate{EmployeeSummary: s}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return less(candidates[i].EmployeeSummary, candidates[j].EmployeeSummary)
	})

	for i := range candidates {
		candidates[i].TieBreakRank = i + 1
	}
	return candidates
}

// Next returns the top-ranked candidate, or false when no employee is
// eligible.
func Next(summaries []models.EmployeeSummary) (models.Candidate, bool) {
	ranked := Rank(summaries)
	if len(ranked) == 0 {
		return models.Candidate{}, false
	}
	return ranked[0], true
}

func less(a, b models.EmployeeSummary) bool {
	if a.TotalHours != b.TotalHours {
		return a.TotalHours < b.TotalHours
	}
	if (a.LastAssignedAt == nil) != (b.LastAssignedAt == nil) {
		return a.LastAssignedAt == nil
	}
	if a.LastAssignedAt != nil && !a.LastAssignedAt.Equal(*b.LastAssignedAt) {
		return a.LastAssignedAt.Before(*b.LastAssignedAt)
	}
	return a.EmployeeID.String() < b.EmployeeID.String()
}
