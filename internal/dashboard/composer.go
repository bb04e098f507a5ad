// Package dashboard composes the role-scoped dashboard from a single report snapshot.
package dashboard

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/iago/civic-issues-back/internal/analytics"
	"github.com/iago/civic-issues-back/internal/domain"
)

// RecentActivityLimit caps the number of activity entries on a dashboard.
const RecentActivityLimit = 4

const (
	minEfficiency = 60
	maxEfficiency = 100
)

type Dashboard struct {
	IssueSummary          IssueSummary            `json:"issueSummary"`
	DepartmentPerformance []DepartmentPerformance `json:"departmentPerformance"`
	RecentActivity        []Activity              `json:"recentActivity"`
	UserInfo              UserInfo                `json:"userInfo"`
}

type SummaryBucket struct {
	Count int    `json:"count"`
	Label string `json:"label"`
}

type IssueSummary struct {
	RequireAttention      SummaryBucket `json:"requireAttention"`
	BeingWorkedOn         SummaryBucket `json:"beingWorkedOn"`
	SuccessfullyCompleted SummaryBucket `json:"successfullyCompleted"`
}

type DepartmentPerformance struct {
	Name           string `json:"name"`
	OpenIssues     int    `json:"openIssues"`
	TotalIssues    int    `json:"totalIssues"`
	ResolvedIssues int    `json:"resolvedIssues"`
	Efficiency     int    `json:"efficiency"`
}

type Activity struct {
	ID         string `json:"id"`
	ReportCode string `json:"reportCode,omitempty"`
	Action     string `json:"action"`
	Department string `json:"department"`
	Time       string `json:"time"`
}

type UserInfo struct {
	ID         string `json:"id"`
	Name       string `json:"name,omitempty"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

// Compose builds the dashboard for an already scoped snapshot.
func Compose(record domain.PrincipalRecord, reports []domain.Report, now time.Time) Dashboard {
	return Dashboard{
		IssueSummary:          Summarize(reports),
		DepartmentPerformance: DepartmentPerformanceOf(reports),
		RecentActivity:        RecentActivity(reports, now, RecentActivityLimit),
		UserInfo:              UserInfoOf(record),
	}
}

type summaryClass int

const (
	classExcluded summaryClass = iota
	classAttention
	classWorkedOn
	classCompleted
)

// classify applies the summary rules in fixed order: submitted or high/urgent
// priority first, then in progress, then resolved. Anything else is excluded,
// so a closed low-priority report appears in no bucket.
func classify(report domain.Report) summaryClass {
	switch {
	case report.Status == domain.StatusSubmitted || report.Priority.Elevated():
		return classAttention
	case report.Status == domain.StatusInProgress:
		return classWorkedOn
	case report.Status == domain.StatusResolved:
		return classCompleted
	default:
		return classExcluded
	}
}

func Summarize(reports []domain.Report) IssueSummary {
	summary := IssueSummary{
		RequireAttention:      SummaryBucket{Label: "Require Attention"},
		BeingWorkedOn:         SummaryBucket{Label: "Being Worked On"},
		SuccessfullyCompleted: SummaryBucket{Label: "Successfully Completed"},
	}
	for _, report := range reports {
		switch classify(report) {
		case classAttention:
			summary.RequireAttention.Count++
		case classWorkedOn:
			summary.BeingWorkedOn.Count++
		case classCompleted:
			summary.SuccessfullyCompleted.Count++
		}
	}
	return summary
}

// DepartmentPerformanceOf returns one entry per department present, sorted by name.
func DepartmentPerformanceOf(reports []domain.Report) []DepartmentPerformance {
	byDepartment := make(map[string]*DepartmentPerformance)
	for _, report := range reports {
		entry, ok := byDepartment[report.Department]
		if !ok {
			entry = &DepartmentPerformance{Name: report.Department}
			byDepartment[report.Department] = entry
		}
		entry.TotalIssues++
		switch {
		case report.Status == domain.StatusSubmitted || report.Status == domain.StatusInProgress:
			entry.OpenIssues++
		case report.Status.IsResolved():
			entry.ResolvedIssues++
		}
	}

	result := make([]DepartmentPerformance, 0, len(byDepartment))
	for _, entry := range byDepartment {
		entry.Efficiency = Efficiency(entry.ResolvedIssues, entry.OpenIssues, entry.TotalIssues)
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Efficiency weighs the resolution rate against the open backlog and clamps
// the score to [60, 100].
func Efficiency(resolved, open, total int) int {
	if total == 0 {
		return minEfficiency
	}
	resolutionRate := analytics.ResolutionRate(resolved, total)
	backlogPercent := float64(open) / float64(total) * 100
	score := 0.8*resolutionRate + 0.2*(100-backlogPercent)
	return int(math.Round(math.Max(minEfficiency, math.Min(maxEfficiency, score))))
}

// RecentActivity lists the newest report creation events, newest first.
func RecentActivity(reports []domain.Report, now time.Time, limit int) []Activity {
	ordered := make([]domain.Report, len(reports))
	copy(ordered, reports)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.After(ordered[j].CreatedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})
	if limit >= 0 && len(ordered) > limit {
		ordered = ordered[:limit]
	}

	activity := make([]Activity, 0, len(ordered))
	for _, report := range ordered {
		activity = append(activity, Activity{
			ID:         report.ID,
			ReportCode: report.ReportCode,
			Action:     fmt.Sprintf("New %s report: %s", report.Category, report.Title),
			Department: report.Department,
			Time:       RelativeTime(report.CreatedAt, now),
		})
	}
	return activity
}

// RelativeTime renders the age of t as seen from now.
func RelativeTime(t, now time.Time) string {
	age := now.Sub(t)
	switch {
	case age < time.Hour:
		return "Just now"
	case age < 24*time.Hour:
		return plural(int(age/time.Hour), "hour")
	case age < 7*24*time.Hour:
		return plural(int(age/(24*time.Hour)), "day")
	default:
		return plural(int(age/(7*24*time.Hour)), "week")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

func UserInfoOf(record domain.PrincipalRecord) UserInfo {
	info := UserInfo{
		ID:   record.ID,
		Name: record.Name,
		Role: domain.RoleLabel(record.Role),
	}
	switch record.Role {
	case domain.RoleAdmin:
		info.Department = "All Departments"
	case domain.RoleDepartment:
		info.Department = record.Department
	case domain.RoleMandalAdmin:
		info.Department = record.MandalArea
	}
	return info
}

// Total is the number of reports that landed in any summary bucket.
func (s IssueSummary) Total() int {
	return s.RequireAttention.Count + s.BeingWorkedOn.Count + s.SuccessfullyCompleted.Count
}
