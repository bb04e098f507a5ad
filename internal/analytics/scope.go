// Package analytics scopes report snapshots to a principal and aggregates them.
// Every function is pure: inputs are never mutated and results are freshly allocated.
package analytics

import "github.com/iago/civic-issues-back/internal/domain"

// Filter returns the reports the principal may view, optionally limited to a
// creation window. Unrecognised principals see nothing.
func Filter(principal domain.Principal, reports []domain.Report, window *domain.Window) []domain.Report {
	allowed := scopePredicate(principal)
	result := make([]domain.Report, 0, len(reports))
	for _, report := range reports {
		if !allowed(report) {
			continue
		}
		if window != nil && !window.Contains(report.CreatedAt) {
			continue
		}
		result = append(result, report)
	}
	return result
}

func scopePredicate(principal domain.Principal) func(domain.Report) bool {
	switch p := principal.(type) {
	case domain.Admin:
		return func(domain.Report) bool { return true }
	case domain.DepartmentHead:
		return func(r domain.Report) bool { return r.Department == p.Department }
	case domain.MandalAdmin:
		return func(r domain.Report) bool { return r.MandalArea == p.Area }
	case domain.Citizen:
		return func(r domain.Report) bool { return p.ID != "" && r.ReporterID == p.ID }
	default:
		return func(domain.Report) bool { return false }
	}
}
