package dashboard

import (
	"reflect"
	"testing"
	"time"

	"github.com/iago/civic-issues-back/internal/domain"
)

var now = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

func report(id string, status domain.Status, priority domain.Priority, department string, age time.Duration) domain.Report {
	return domain.Report{
		ID:         id,
		ReportCode: "PWD-2026-000" + id,
		Title:      "Issue " + id,
		Category:   domain.CategoryRoads,
		Priority:   priority,
		Status:     status,
		Department: department,
		MandalArea: domain.MandalNorth,
		CreatedAt:  now.Add(-age),
		UpdatedAt:  now.Add(-age),
	}
}

func TestSummarizePrecedence(t *testing.T) {
	tests := []struct {
		name   string
		report domain.Report
		want   IssueSummary
	}{
		{
			name:   "submitted and high priority counted once as attention",
			report: report("1", domain.StatusSubmitted, domain.PriorityHigh, domain.DepartmentPublicWorks, time.Hour),
			want:   countsOnly(1, 0, 0),
		},
		{
			name:   "in progress urgent is attention",
			report: report("2", domain.StatusInProgress, domain.PriorityUrgent, domain.DepartmentPublicWorks, time.Hour),
			want:   countsOnly(1, 0, 0),
		},
		{
			name:   "in progress medium is being worked on",
			report: report("3", domain.StatusInProgress, domain.PriorityMedium, domain.DepartmentPublicWorks, time.Hour),
			want:   countsOnly(0, 1, 0),
		},
		{
			name:   "resolved low is completed",
			report: report("4", domain.StatusResolved, domain.PriorityLow, domain.DepartmentPublicWorks, time.Hour),
			want:   countsOnly(0, 0, 1),
		},
		{
			name:   "resolved high priority still needs attention",
			report: report("5", domain.StatusResolved, domain.PriorityHigh, domain.DepartmentPublicWorks, time.Hour),
			want:   countsOnly(1, 0, 0),
		},
		{
			name:   "closed medium is excluded",
			report: report("6", domain.StatusClosed, domain.PriorityMedium, domain.DepartmentPublicWorks, time.Hour),
			want:   countsOnly(0, 0, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize([]domain.Report{tt.report})
			if got.RequireAttention.Count != tt.want.RequireAttention.Count ||
				got.BeingWorkedOn.Count != tt.want.BeingWorkedOn.Count ||
				got.SuccessfullyCompleted.Count != tt.want.SuccessfullyCompleted.Count {
				t.Fatalf("expected %+v, got %+v", tt.want, got)
			}
			if got.Total() > 1 {
				t.Fatalf("expected report to be classified at most once, got total %d", got.Total())
			}
		})
	}
}

func TestSummarizeNeverExceedsSubset(t *testing.T) {
	reports := []domain.Report{
		report("1", domain.StatusSubmitted, domain.PriorityMedium, domain.DepartmentPublicWorks, time.Hour),
		report("2", domain.StatusInProgress, domain.PriorityHigh, domain.DepartmentPublicWorks, time.Hour),
		report("3", domain.StatusResolved, domain.PriorityHigh, domain.DepartmentWater, time.Hour),
		report("4", domain.StatusSubmitted, domain.PriorityMedium, domain.DepartmentSanitation, time.Hour),
		report("5", domain.StatusInProgress, domain.PriorityUrgent, domain.DepartmentTraffic, time.Hour),
	}
	summary := Summarize(reports)
	if summary.RequireAttention.Count != 5 {
		t.Fatalf("expected all five reports to require attention, got %d", summary.RequireAttention.Count)
	}
	if summary.Total() != len(reports) {
		t.Fatalf("expected %d classified reports, got %d", len(reports), summary.Total())
	}
}

func TestDepartmentPerformance(t *testing.T) {
	reports := []domain.Report{
		report("1", domain.StatusSubmitted, domain.PriorityMedium, domain.DepartmentPublicWorks, time.Hour),
		report("2", domain.StatusInProgress, domain.PriorityHigh, domain.DepartmentPublicWorks, time.Hour),
		report("3", domain.StatusResolved, domain.PriorityHigh, domain.DepartmentWater, time.Hour),
		report("4", domain.StatusResolved, domain.PriorityLow, domain.DepartmentTraffic, time.Hour),
		report("5", domain.StatusClosed, domain.PriorityLow, domain.DepartmentTraffic, time.Hour),
		report("6", domain.StatusResolved, domain.PriorityLow, domain.DepartmentTraffic, time.Hour),
		report("7", domain.StatusSubmitted, domain.PriorityLow, domain.DepartmentTraffic, time.Hour),
	}

	got := DepartmentPerformanceOf(reports)
	want := []DepartmentPerformance{
		{Name: domain.DepartmentPublicWorks, OpenIssues: 2, TotalIssues: 2, ResolvedIssues: 0, Efficiency: 60},
		{Name: domain.DepartmentTraffic, OpenIssues: 1, TotalIssues: 4, ResolvedIssues: 3, Efficiency: 75},
		{Name: domain.DepartmentWater, OpenIssues: 0, TotalIssues: 1, ResolvedIssues: 1, Efficiency: 100},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %+v, got %+v", want, got)
	}
	if !reflect.DeepEqual(DepartmentPerformanceOf(reports), got) {
		t.Fatalf("expected deterministic department performance")
	}
}

func TestEfficiencyIsClamped(t *testing.T) {
	tests := []struct {
		resolved, open, total int
		want                  int
	}{
		{0, 0, 0, 60},
		{0, 10, 10, 60},
		{10, 0, 10, 100},
		{5, 5, 10, 60},
		{9, 1, 10, 90},
	}
	for _, tt := range tests {
		got := Efficiency(tt.resolved, tt.open, tt.total)
		if got != tt.want {
			t.Fatalf("Efficiency(%d,%d,%d): expected %d, got %d", tt.resolved, tt.open, tt.total, tt.want, got)
		}
		if got < 60 || got > 100 {
			t.Fatalf("efficiency %d outside [60,100]", got)
		}
	}
}

func TestRecentActivity(t *testing.T) {
	reports := []domain.Report{
		report("1", domain.StatusSubmitted, domain.PriorityMedium, domain.DepartmentPublicWorks, 10*time.Minute),
		report("2", domain.StatusSubmitted, domain.PriorityMedium, domain.DepartmentPublicWorks, 3*time.Hour),
		report("3", domain.StatusSubmitted, domain.PriorityMedium, domain.DepartmentWater, 50*time.Hour),
		report("4", domain.StatusSubmitted, domain.PriorityMedium, domain.DepartmentWater, 15*24*time.Hour),
		report("5", domain.StatusSubmitted, domain.PriorityMedium, domain.DepartmentWater, 30*24*time.Hour),
	}
	// Shuffle order to prove sorting happens.
	reports[0], reports[4] = reports[4], reports[0]

	activity := RecentActivity(reports, now, RecentActivityLimit)
	if len(activity) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(activity))
	}
	wantTimes := []string{"Just now", "3 hours ago", "2 days ago", "2 weeks ago"}
	for i, entry := range activity {
		if entry.Time != wantTimes[i] {
			t.Fatalf("entry %d: expected %q, got %q", i, wantTimes[i], entry.Time)
		}
	}
	if activity[0].Action != "New Roads report: Issue 1" {
		t.Fatalf("unexpected action %q", activity[0].Action)
	}
	if reports[0].ID != "5" {
		t.Fatalf("expected input order to be preserved")
	}
}

func TestRelativeTimeSingular(t *testing.T) {
	if got := RelativeTime(now.Add(-90*time.Minute), now); got != "1 hour ago" {
		t.Fatalf("expected 1 hour ago, got %q", got)
	}
	if got := RelativeTime(now.Add(-8*24*time.Hour), now); got != "1 week ago" {
		t.Fatalf("expected 1 week ago, got %q", got)
	}
}

func TestComposeUserInfo(t *testing.T) {
	tests := []struct {
		record         domain.PrincipalRecord
		wantRole       string
		wantDepartment string
	}{
		{domain.PrincipalRecord{ID: "a", Role: domain.RoleAdmin}, "City Administrator", "All Departments"},
		{domain.PrincipalRecord{ID: "d", Role: domain.RoleDepartment, Department: domain.DepartmentWater}, "Department Head", domain.DepartmentWater},
		{domain.PrincipalRecord{ID: "m", Role: domain.RoleMandalAdmin, MandalArea: domain.MandalWest}, "Mandal Administrator", domain.MandalWest},
		{domain.PrincipalRecord{ID: "c", Role: domain.RoleCitizen}, "Citizen", ""},
	}
	for _, tt := range tests {
		dashboard := Compose(tt.record, nil, now)
		if dashboard.UserInfo.Role != tt.wantRole || dashboard.UserInfo.Department != tt.wantDepartment {
			t.Fatalf("unexpected user info %+v for role %s", dashboard.UserInfo, tt.record.Role)
		}
		if dashboard.RecentActivity == nil || dashboard.DepartmentPerformance == nil {
			t.Fatalf("expected empty slices rather than nil for JSON output")
		}
	}
}

func countsOnly(attention, workedOn, completed int) IssueSummary {
	return IssueSummary{
		RequireAttention:      SummaryBucket{Count: attention},
		BeingWorkedOn:         SummaryBucket{Count: workedOn},
		SuccessfullyCompleted: SummaryBucket{Count: completed},
	}
}
