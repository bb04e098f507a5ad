package analytics

import (
	"math"

	"github.com/iago/civic-issues-back/internal/domain"
)

type PerformanceMetrics struct {
	TotalReports           int     `json:"totalReports"`
	ResolvedReports        int     `json:"resolvedReports"`
	AvgResolutionTimeHours float64 `json:"avgResolutionTimeHours"`
	ResolutionRate         float64 `json:"resolutionRate"`
}

// Performance computes resolution metrics. Resolved and closed reports both
// count as resolved; an empty input yields zeros.
func Performance(reports []domain.Report) PerformanceMetrics {
	metrics := PerformanceMetrics{TotalReports: len(reports)}
	var totalHours float64
	for _, report := range reports {
		if !report.Status.IsResolved() {
			continue
		}
		metrics.ResolvedReports++
		totalHours += report.ResolutionTime().Hours()
	}
	metrics.ResolutionRate = ResolutionRate(metrics.ResolvedReports, metrics.TotalReports)
	if metrics.ResolvedReports > 0 {
		metrics.AvgResolutionTimeHours = round2(totalHours / float64(metrics.ResolvedReports))
	}
	return metrics
}

// ResolutionRate is resolved/total as a percentage rounded to two decimals, 0 when total is 0.
func ResolutionRate(resolved, total int) float64 {
	if total == 0 {
		return 0
	}
	return round2(float64(resolved) / float64(total) * 100)
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
