package analytics

import "github.com/iago/civic-issues-back/internal/domain"

type DepartmentStatistics struct {
	Total      int    `json:"total"`
	ByStatus   Counts `json:"byStatus"`
	ByPriority Counts `json:"byPriority"`
}

type MandalAreaStatistics struct {
	Total        int    `json:"total"`
	ByStatus     Counts `json:"byStatus"`
	ByPriority   Counts `json:"byPriority"`
	ByDepartment Counts `json:"byDepartment"`
}

// DepartmentBreakdown groups reports by owning department.
func DepartmentBreakdown(reports []domain.Report) map[string]DepartmentStatistics {
	result := make(map[string]DepartmentStatistics)
	for department, group := range groupBy(reports, func(r domain.Report) string { return r.Department }) {
		result[department] = DepartmentStatistics{
			Total:      len(group),
			ByStatus:   StatusCounts(group),
			ByPriority: PriorityCounts(group),
		}
	}
	return result
}

// MandalAreaBreakdown groups reports by mandal area.
func MandalAreaBreakdown(reports []domain.Report) map[string]MandalAreaStatistics {
	result := make(map[string]MandalAreaStatistics)
	for area, group := range groupBy(reports, func(r domain.Report) string { return r.MandalArea }) {
		result[area] = MandalAreaStatistics{
			Total:        len(group),
			ByStatus:     StatusCounts(group),
			ByPriority:   PriorityCounts(group),
			ByDepartment: mustCount(group, DimensionDepartment),
		}
	}
	return result
}

func groupBy(reports []domain.Report, key func(domain.Report) string) map[string][]domain.Report {
	groups := make(map[string][]domain.Report)
	for _, report := range reports {
		k := key(report)
		groups[k] = append(groups[k], report)
	}
	return groups
}
