package analytics

import (
	"fmt"

	"github.com/iago/civic-issues-back/internal/domain"
)

type Dimension string

const (
	DimensionStatus     Dimension = "status"
	DimensionPriority   Dimension = "priority"
	DimensionCategory   Dimension = "category"
	DimensionDepartment Dimension = "department"
	DimensionMandalArea Dimension = "mandalArea"
)

// Counts maps an observed dimension value to its number of occurrences.
// Values that never occur are absent rather than zero.
type Counts map[string]int

func (c Counts) Total() int {
	total := 0
	for _, count := range c {
		total += count
	}
	return total
}

// CountBy tallies reports along one dimension.
func CountBy(reports []domain.Report, dimension Dimension) (Counts, error) {
	key, err := dimensionKey(dimension)
	if err != nil {
		return nil, err
	}
	return countWith(reports, key), nil
}

func dimensionKey(dimension Dimension) (func(domain.Report) string, error) {
	switch dimension {
	case DimensionStatus:
		return func(r domain.Report) string { return string(r.Status) }, nil
	case DimensionPriority:
		return func(r domain.Report) string { return string(r.Priority) }, nil
	case DimensionCategory:
		return func(r domain.Report) string { return string(r.Category) }, nil
	case DimensionDepartment:
		return func(r domain.Report) string { return r.Department }, nil
	case DimensionMandalArea:
		return func(r domain.Report) string { return r.MandalArea }, nil
	default:
		return nil, domain.NewValidationError("dimension", fmt.Sprintf("unknown dimension %q", dimension))
	}
}

func countWith(reports []domain.Report, key func(domain.Report) string) Counts {
	counts := make(Counts)
	for _, report := range reports {
		counts[key(report)]++
	}
	return counts
}

func mustCount(reports []domain.Report, dimension Dimension) Counts {
	key, err := dimensionKey(dimension)
	if err != nil {
		panic(err)
	}
	return countWith(reports, key)
}

// StatusCounts, PriorityCounts and CategoryCounts are the fixed-dimension
// shortcuts used by the service layer.
func StatusCounts(reports []domain.Report) Counts { return mustCount(reports, DimensionStatus) }

func PriorityCounts(reports []domain.Report) Counts { return mustCount(reports, DimensionPriority) }

func CategoryCounts(reports []domain.Report) Counts { return mustCount(reports, DimensionCategory) }
