package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/iago/civic-issues-back/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reportColumns = `id, report_code, title, description, category, priority, status,
	department, mandal_area, reporter_id, assigned_to, resolution_notes, created_at, updated_at`

type PostgresReportRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pg pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping pg: %w", err)
	}
	return pool, nil
}

func NewPostgresReportRepository(pool *pgxpool.Pool) *PostgresReportRepository {
	return &PostgresReportRepository{pool: pool}
}

// FindByWindow reads every report created in [start, end) in a single query,
// so the result is one consistent snapshot.
func (r *PostgresReportRepository) FindByWindow(ctx context.Context, window domain.Window) ([]domain.Report, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at DESC, id ASC
	`, window.Start, window.End)
	if err != nil {
		return nil, fmt.Errorf("query reports by window: %w", err)
	}
	return collectReports(rows)
}

func (r *PostgresReportRepository) FindAll(ctx context.Context) ([]domain.Report, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+reportColumns+`
		FROM reports
		ORDER BY created_at DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query reports: %w", err)
	}
	return collectReports(rows)
}

func collectReports(rows pgx.Rows) ([]domain.Report, error) {
	defer rows.Close()

	items := make([]domain.Report, 0)
	for rows.Next() {
		var (
			report          domain.Report
			category        string
			priority        string
			status          string
			assignedTo      *string
			resolutionNotes *string
			createdAt       time.Time
			updatedAt       time.Time
		)
		if err := rows.Scan(
			&report.ID,
			&report.ReportCode,
			&report.Title,
			&report.Description,
			&category,
			&priority,
			&status,
			&report.Department,
			&report.MandalArea,
			&report.ReporterID,
			&assignedTo,
			&resolutionNotes,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		report.Category = domain.Category(category)
		report.Priority = domain.Priority(priority)
		report.Status = domain.Status(status)
		if assignedTo != nil {
			report.AssignedTo = *assignedTo
		}
		if resolutionNotes != nil {
			report.ResolutionNotes = *resolutionNotes
		}
		report.CreatedAt = createdAt.UTC()
		report.UpdatedAt = updatedAt.UTC()
		items = append(items, report)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate reports: %w", rows.Err())
	}
	return items, nil
}

// Insert stores a report with its already assigned code. A report whose id or
// code is already present is skipped.
func (r *PostgresReportRepository) Insert(ctx context.Context, report domain.Report) error {
	if err := domain.ValidateReport(report); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reports (`+reportColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT DO NOTHING
	`,
		report.ID,
		report.ReportCode,
		report.Title,
		report.Description,
		string(report.Category),
		string(report.Priority),
		string(report.Status),
		report.Department,
		report.MandalArea,
		report.ReporterID,
		nullable(report.AssignedTo),
		nullable(report.ResolutionNotes),
		report.CreatedAt,
		report.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
