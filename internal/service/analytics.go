package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/iago/civic-issues-back/internal/analytics"
	"github.com/iago/civic-issues-back/internal/dashboard"
	"github.com/iago/civic-issues-back/internal/domain"
	"github.com/iago/civic-issues-back/internal/repository"
)

type AnalyticsConfig struct {
	DefaultPeriodDays int
	MaxPeriodDays     int
	SourceTimeout     time.Duration
	Location          *time.Location
	Now               func() time.Time
}

// AnalyticsService answers every analytics view from one scoped snapshot of
// the report source per call.
type AnalyticsService struct {
	reports   repository.ReportRepository
	directory repository.PrincipalDirectory
	config    AnalyticsConfig
	logger    *log.Logger
}

func NewAnalyticsService(
	reports repository.ReportRepository,
	directory repository.PrincipalDirectory,
	config AnalyticsConfig,
	logger *log.Logger,
) *AnalyticsService {
	if config.DefaultPeriodDays <= 0 {
		config.DefaultPeriodDays = domain.DefaultPeriodDays
	}
	if config.MaxPeriodDays <= 0 {
		config.MaxPeriodDays = domain.MaxPeriodDays
	}
	if config.SourceTimeout <= 0 {
		config.SourceTimeout = 5 * time.Second
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	if config.Now == nil {
		config.Now = func() time.Time { return time.Now().UTC() }
	}
	return &AnalyticsService{
		reports:   reports,
		directory: directory,
		config:    config,
		logger:    logger,
	}
}

type Overview struct {
	Total             int              `json:"total"`
	ReportsByStatus   analytics.Counts `json:"reportsByStatus"`
	ReportsByPriority analytics.Counts `json:"reportsByPriority"`
	ReportsByCategory analytics.Counts `json:"reportsByCategory"`
	DailyReports      analytics.Counts `json:"dailyReports"`
	UserStatistics    *UserStatistics  `json:"userStatistics,omitempty"`
	PeriodDays        int              `json:"periodDays"`
}

type UserStatistics struct {
	TotalUsers int                 `json:"totalUsers"`
	ByRole     map[domain.Role]int `json:"byRole"`
}

type DepartmentsView struct {
	DepartmentStatistics map[string]analytics.DepartmentStatistics `json:"departmentStatistics"`
	PeriodDays           int                                       `json:"periodDays"`
}

type MandalAreasView struct {
	MandalAreaStatistics map[string]analytics.MandalAreaStatistics `json:"mandalAreaStatistics"`
	PeriodDays           int                                       `json:"periodDays"`
}

type TrendsView struct {
	Trends     analytics.TrendBreakdown `json:"trends"`
	PeriodDays int                      `json:"periodDays"`
	GroupBy    analytics.Granularity    `json:"groupBy"`
}

type PerformanceView struct {
	analytics.PerformanceMetrics
	PeriodDays int `json:"periodDays"`
}

// ParsePeriod reads the period query value. Blank means the configured default.
func (s *AnalyticsService) ParsePeriod(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.config.DefaultPeriodDays, nil
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError("period", fmt.Sprintf("must be a positive integer, got %q", raw))
	}
	return days, s.validatePeriod(days)
}

func (s *AnalyticsService) Overview(ctx context.Context, record domain.PrincipalRecord, periodDays int) (Overview, error) {
	principal, err := s.authorize(record, periodDays)
	if err != nil {
		return Overview{}, err
	}
	reports, _, err := s.snapshot(ctx, principal, periodDays)
	if err != nil {
		return Overview{}, err
	}

	daily, err := analytics.Trend(reports, analytics.GranularityDay, s.config.Location)
	if err != nil {
		return Overview{}, err
	}
	overview := Overview{
		Total:             len(reports),
		ReportsByStatus:   analytics.StatusCounts(reports),
		ReportsByPriority: analytics.PriorityCounts(reports),
		ReportsByCategory: analytics.CategoryCounts(reports),
		DailyReports:      daily,
		PeriodDays:        periodDays,
	}

	if _, ok := principal.(domain.Admin); ok {
		stats, err := s.userStatistics(ctx)
		if err != nil {
			return Overview{}, err
		}
		overview.UserStatistics = &stats
	}
	return overview, nil
}

// Departments is restricted to admins and mandal admins.
func (s *AnalyticsService) Departments(ctx context.Context, record domain.PrincipalRecord, periodDays int) (DepartmentsView, error) {
	principal, err := s.authorize(record, periodDays, domain.RoleAdmin, domain.RoleMandalAdmin)
	if err != nil {
		return DepartmentsView{}, err
	}
	reports, _, err := s.snapshot(ctx, principal, periodDays)
	if err != nil {
		return DepartmentsView{}, err
	}
	return DepartmentsView{
		DepartmentStatistics: analytics.DepartmentBreakdown(reports),
		PeriodDays:           periodDays,
	}, nil
}

// MandalAreas is restricted to admins and mandal admins.
func (s *AnalyticsService) MandalAreas(ctx context.Context, record domain.PrincipalRecord, periodDays int) (MandalAreasView, error) {
	principal, err := s.authorize(record, periodDays, domain.RoleAdmin, domain.RoleMandalAdmin)
	if err != nil {
		return MandalAreasView{}, err
	}
	reports, _, err := s.snapshot(ctx, principal, periodDays)
	if err != nil {
		return MandalAreasView{}, err
	}
	return MandalAreasView{
		MandalAreaStatistics: analytics.MandalAreaBreakdown(reports),
		PeriodDays:           periodDays,
	}, nil
}

func (s *AnalyticsService) Trends(ctx context.Context, record domain.PrincipalRecord, periodDays int, groupBy string) (TrendsView, error) {
	granularity, err := analytics.ParseGranularity(groupBy)
	if err != nil {
		return TrendsView{}, err
	}
	principal, err := s.authorize(record, periodDays)
	if err != nil {
		return TrendsView{}, err
	}
	reports, _, err := s.snapshot(ctx, principal, periodDays)
	if err != nil {
		return TrendsView{}, err
	}
	trends, err := analytics.Trends(reports, granularity, s.config.Location)
	if err != nil {
		return TrendsView{}, err
	}
	return TrendsView{Trends: trends, PeriodDays: periodDays, GroupBy: granularity}, nil
}

func (s *AnalyticsService) Performance(ctx context.Context, record domain.PrincipalRecord, periodDays int) (PerformanceView, error) {
	principal, err := s.authorize(record, periodDays)
	if err != nil {
		return PerformanceView{}, err
	}
	reports, _, err := s.snapshot(ctx, principal, periodDays)
	if err != nil {
		return PerformanceView{}, err
	}
	return PerformanceView{
		PerformanceMetrics: analytics.Performance(reports),
		PeriodDays:         periodDays,
	}, nil
}

func (s *AnalyticsService) Dashboard(ctx context.Context, record domain.PrincipalRecord, periodDays int) (dashboard.Dashboard, error) {
	principal, err := s.authorize(record, periodDays)
	if err != nil {
		return dashboard.Dashboard{}, err
	}
	reports, now, err := s.snapshot(ctx, principal, periodDays)
	if err != nil {
		return dashboard.Dashboard{}, err
	}
	return dashboard.Compose(record, reports, now), nil
}

// Reports lists every report the principal may view, regardless of age.
func (s *AnalyticsService) Reports(ctx context.Context, record domain.PrincipalRecord) ([]domain.Report, error) {
	principal, err := record.Principal()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPrincipalNotFound, err)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.config.SourceTimeout)
	defer cancel()

	reports, err := s.reports.FindAll(fetchCtx)
	if err != nil {
		s.logf("report source fetch failed role=%s err=%v", principal.Role(), err)
		return nil, domain.SourceError(err)
	}
	return analytics.Filter(principal, reports, nil), nil
}

// authorize validates the request shape and role before any data is read.
// An empty allowed list admits every role.
func (s *AnalyticsService) authorize(record domain.PrincipalRecord, periodDays int, allowed ...domain.Role) (domain.Principal, error) {
	if err := s.validatePeriod(periodDays); err != nil {
		return nil, err
	}
	principal, err := record.Principal()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPrincipalNotFound, err)
	}
	if len(allowed) == 0 {
		return principal, nil
	}
	for _, role := range allowed {
		if principal.Role() == role {
			return principal, nil
		}
	}
	return nil, domain.ErrForbidden
}

func (s *AnalyticsService) validatePeriod(days int) error {
	if days <= 0 {
		return domain.NewValidationError("period", "must be a positive number of days")
	}
	if days > s.config.MaxPeriodDays {
		return domain.NewValidationError("period", fmt.Sprintf("must not exceed %d days", s.config.MaxPeriodDays))
	}
	return nil
}

// snapshot performs the single source read for a request and scopes it.
func (s *AnalyticsService) snapshot(ctx context.Context, principal domain.Principal, periodDays int) ([]domain.Report, time.Time, error) {
	now := s.config.Now()
	window := domain.WindowForPeriod(now, periodDays)

	fetchCtx, cancel := context.WithTimeout(ctx, s.config.SourceTimeout)
	defer cancel()

	reports, err := s.reports.FindByWindow(fetchCtx, window)
	if err != nil {
		s.logf("report source fetch failed role=%s period=%d err=%v", principal.Role(), periodDays, err)
		return nil, now, domain.SourceError(err)
	}
	return analytics.Filter(principal, reports, &window), now, nil
}

func (s *AnalyticsService) userStatistics(ctx context.Context) (UserStatistics, error) {
	if s.directory == nil {
		return UserStatistics{}, errors.New("principal directory is not configured")
	}
	fetchCtx, cancel := context.WithTimeout(ctx, s.config.SourceTimeout)
	defer cancel()

	byRole, err := s.directory.CountByRole(fetchCtx)
	if err != nil {
		s.logf("principal directory count failed err=%v", err)
		return UserStatistics{}, domain.SourceError(err)
	}
	stats := UserStatistics{ByRole: byRole}
	for _, count := range byRole {
		stats.TotalUsers += count
	}
	return stats, nil
}

func (s *AnalyticsService) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
