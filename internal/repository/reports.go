package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/iago/civic-issues-back/internal/domain"
)

var ErrNotFound = errors.New("resource not found")

// ReportRepository is the read-only report source consumed by analytics.
// Both methods return a snapshot the caller owns.
type ReportRepository interface {
	FindByWindow(ctx context.Context, window domain.Window) ([]domain.Report, error)
	FindAll(ctx context.Context) ([]domain.Report, error)
}

// MemoryReportRepository stores reports in memory for local development and tests.
type MemoryReportRepository struct {
	mu        sync.RWMutex
	reports   map[string]domain.Report
	sequences map[string]int
	codes     map[string]struct{}
}

func NewMemoryReportRepository() *MemoryReportRepository {
	return &MemoryReportRepository{
		reports:   make(map[string]domain.Report),
		sequences: make(map[string]int),
		codes:     make(map[string]struct{}),
	}
}

// Create validates and stores a report, assigning an id and report code when
// they are missing. Explicit codes must belong to the report's department and
// creation year, are unique, and advance the sequence.
func (r *MemoryReportRepository) Create(_ context.Context, report domain.Report) (domain.Report, error) {
	if err := domain.ValidateReport(report); err != nil {
		return domain.Report{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if _, exists := r.reports[report.ID]; exists {
		return domain.Report{}, fmt.Errorf("report %s already exists", report.ID)
	}

	year := report.CreatedAt.UTC().Year()
	key := fmt.Sprintf("%s|%d", report.Department, year)
	if report.ReportCode == "" {
		code, err := domain.FormatReportCode(report.Department, year, r.sequences[key]+1)
		if err != nil {
			return domain.Report{}, err
		}
		report.ReportCode = code
		r.sequences[key]++
	} else {
		sequence, err := domain.CheckReportCode(report)
		if err != nil {
			return domain.Report{}, err
		}
		if _, taken := r.codes[report.ReportCode]; taken {
			return domain.Report{}, domain.NewValidationError("reportCode", fmt.Sprintf("%s already issued", report.ReportCode))
		}
		if sequence > r.sequences[key] {
			r.sequences[key] = sequence
		}
	}

	r.codes[report.ReportCode] = struct{}{}
	r.reports[report.ID] = report
	return report, nil
}

func (r *MemoryReportRepository) FindByWindow(_ context.Context, window domain.Window) ([]domain.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]domain.Report, 0, len(r.reports))
	for _, report := range r.reports {
		if !window.Contains(report.CreatedAt) {
			continue
		}
		items = append(items, report)
	}
	sortByCreatedAt(items)
	return items, nil
}

func (r *MemoryReportRepository) FindAll(_ context.Context) ([]domain.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]domain.Report, 0, len(r.reports))
	for _, report := range r.reports {
		items = append(items, report)
	}
	sortByCreatedAt(items)
	return items, nil
}

// sortByCreatedAt orders newest first with id as tie-break so snapshots are stable.
func sortByCreatedAt(items []domain.Report) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}
