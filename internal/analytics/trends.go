package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/iago/civic-issues-back/internal/domain"
)

type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// ParseGranularity accepts day, week or month. An empty value means day.
func ParseGranularity(value string) (Granularity, error) {
	switch g := Granularity(strings.ToLower(strings.TrimSpace(value))); g {
	case "":
		return GranularityDay, nil
	case GranularityDay, GranularityWeek, GranularityMonth:
		return g, nil
	default:
		return "", domain.NewValidationError("groupBy", fmt.Sprintf("must be day, week or month, got %q", value))
	}
}

// BucketKey renders the trend bucket for t. Weeks start on Sunday and are keyed
// by the date of that Sunday.
func BucketKey(t time.Time, granularity Granularity, loc *time.Location) (string, error) {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	switch granularity {
	case GranularityDay:
		return local.Format("2006-01-02"), nil
	case GranularityWeek:
		return local.AddDate(0, 0, -int(local.Weekday())).Format("2006-01-02"), nil
	case GranularityMonth:
		return local.Format("2006-01"), nil
	default:
		return "", domain.NewValidationError("groupBy", fmt.Sprintf("must be day, week or month, got %q", granularity))
	}
}

// Trend counts reports per creation bucket.
func Trend(reports []domain.Report, granularity Granularity, loc *time.Location) (Counts, error) {
	if _, err := BucketKey(time.Time{}, granularity, loc); err != nil {
		return nil, err
	}
	trend := make(Counts)
	for _, report := range reports {
		key, _ := BucketKey(report.CreatedAt, granularity, loc)
		trend[key]++
	}
	return trend, nil
}

// TrendBreakdown is the per-bucket view returned by the trends endpoint.
type TrendBreakdown struct {
	ByDate     Counts            `json:"byDate"`
	ByStatus   map[string]Counts `json:"byStatus"`
	ByPriority map[string]Counts `json:"byPriority"`
	ByCategory map[string]Counts `json:"byCategory"`
}

func Trends(reports []domain.Report, granularity Granularity, loc *time.Location) (TrendBreakdown, error) {
	byDate, err := Trend(reports, granularity, loc)
	if err != nil {
		return TrendBreakdown{}, err
	}
	breakdown := TrendBreakdown{
		ByDate:     byDate,
		ByStatus:   make(map[string]Counts, len(byDate)),
		ByPriority: make(map[string]Counts, len(byDate)),
		ByCategory: make(map[string]Counts, len(byDate)),
	}
	for _, report := range reports {
		key, _ := BucketKey(report.CreatedAt, granularity, loc)
		increment(breakdown.ByStatus, key, string(report.Status))
		increment(breakdown.ByPriority, key, string(report.Priority))
		increment(breakdown.ByCategory, key, string(report.Category))
	}
	return breakdown, nil
}

func increment(nested map[string]Counts, bucket, value string) {
	counts, ok := nested[bucket]
	if !ok {
		counts = make(Counts)
		nested[bucket] = counts
	}
	counts[value]++
}
