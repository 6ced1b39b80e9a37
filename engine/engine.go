// Package engine filters, summarizes and ranks student records.
package engine

import (
	"errors"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"thanwia-dashboard/models"
)

// DefaultTopN is the size of the leaderboard shown on the dashboard
const DefaultTopN = 10

var (
	// ErrEmptyDataset is returned when statistics or rankings are requested for no records
	ErrEmptyDataset = errors.New("dataset is empty")
	// ErrInvalidLimit is returned by TopN for a non-positive n
	ErrInvalidLimit = errors.New("top-n limit must be positive")
)

// Normalize trims surrounding whitespace from both patterns
func Normalize(c models.FilterCriteria) models.FilterCriteria {
	return models.FilterCriteria{
		NamePattern:    strings.TrimSpace(c.NamePattern),
		SeatingPattern: strings.TrimSpace(c.SeatingPattern),
	}
}

// Active reports whether at least one pattern is set
func Active(c models.FilterCriteria) bool {
	c = Normalize(c)
	return c.NamePattern != "" || c.SeatingPattern != ""
}

// Filter returns the records matching every set pattern, in input order.
// With no pattern set the input slice itself is returned.
func Filter(records []models.StudentRecord, criteria models.FilterCriteria) []models.StudentRecord {
	criteria = Normalize(criteria)
	if criteria.NamePattern == "" && criteria.SeatingPattern == "" {
		return records
	}

	// Caser is stateful, one per call
	fold := cases.Fold()
	namePattern := fold.String(criteria.NamePattern)

	out := make([]models.StudentRecord, 0, len(records))
	for _, r := range records {
		if criteria.NamePattern != "" {
			if r.ArabicName == nil || !strings.Contains(fold.String(*r.ArabicName), namePattern) {
				continue
			}
		}
		if criteria.SeatingPattern != "" && !strings.Contains(r.SeatingNumber, criteria.SeatingPattern) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Summarize computes count, min, max and mean of the total degree
func Summarize(records []models.StudentRecord) (models.SummaryStats, error) {
	if len(records) == 0 {
		return models.SummaryStats{}, ErrEmptyDataset
	}

	stats := models.SummaryStats{
		Count: len(records),
		Min:   records[0].TotalDegree,
		Max:   records[0].TotalDegree,
	}
	sum := 0.0
	for _, r := range records {
		if r.TotalDegree < stats.Min {
			stats.Min = r.TotalDegree
		}
		if r.TotalDegree > stats.Max {
			stats.Max = r.TotalDegree
		}
		sum += r.TotalDegree
	}
	stats.Mean = sum / float64(len(records))
	return stats, nil
}

// TopN returns the n highest scores, ties kept in original order
func TopN(records []models.StudentRecord, n int) ([]models.StudentRecord, error) {
	if n <= 0 {
		return nil, ErrInvalidLimit
	}
	if len(records) == 0 {
		return nil, ErrEmptyDataset
	}

	sorted := make([]models.StudentRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalDegree > sorted[j].TotalDegree
	})

	if n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted, nil
}

// Rank converts a top list into display rows
func Rank(top []models.StudentRecord) []models.RankedStudent {
	ranked := make([]models.RankedStudent, 0, len(top))
	for i, r := range top {
		ranked = append(ranked, models.RankedStudent{
			Rank:          i + 1,
			SeatingNumber: r.SeatingNumber,
			ArabicName:    r.Name(),
			TotalDegree:   r.TotalDegree,
		})
	}
	return ranked
}
