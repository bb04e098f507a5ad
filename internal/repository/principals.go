package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/iago/civic-issues-back/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PrincipalDirectory exposes the known principals for lookups and user statistics.
type PrincipalDirectory interface {
	Get(ctx context.Context, id string) (domain.PrincipalRecord, error)
	CountByRole(ctx context.Context) (map[domain.Role]int, error)
}

type MemoryPrincipalDirectory struct {
	mu         sync.RWMutex
	principals map[string]domain.PrincipalRecord
}

func NewMemoryPrincipalDirectory(records ...domain.PrincipalRecord) *MemoryPrincipalDirectory {
	directory := &MemoryPrincipalDirectory{principals: make(map[string]domain.PrincipalRecord, len(records))}
	for _, record := range records {
		directory.principals[record.ID] = record
	}
	return directory
}

func (d *MemoryPrincipalDirectory) Get(_ context.Context, id string) (domain.PrincipalRecord, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	record, ok := d.principals[id]
	if !ok {
		return domain.PrincipalRecord{}, ErrNotFound
	}
	return record, nil
}

func (d *MemoryPrincipalDirectory) CountByRole(_ context.Context) (map[domain.Role]int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	counts := make(map[domain.Role]int)
	for _, record := range d.principals {
		counts[record.Role]++
	}
	return counts, nil
}

// All returns the principals sorted by id.
func (d *MemoryPrincipalDirectory) All() []domain.PrincipalRecord {
	d.mu.RLock()
	defer d.mu.RUnlock()
	records := make([]domain.PrincipalRecord, 0, len(d.principals))
	for _, record := range d.principals {
		records = append(records, record)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records
}

type PostgresPrincipalDirectory struct {
	pool *pgxpool.Pool
}

func NewPostgresPrincipalDirectory(pool *pgxpool.Pool) *PostgresPrincipalDirectory {
	return &PostgresPrincipalDirectory{pool: pool}
}

func (d *PostgresPrincipalDirectory) Get(ctx context.Context, id string) (domain.PrincipalRecord, error) {
	var (
		record     domain.PrincipalRecord
		role       string
		department *string
		mandalArea *string
	)
	err := d.pool.QueryRow(ctx, `
		SELECT id, name, role, department, mandal_area
		FROM principals
		WHERE id = $1
	`, id).Scan(&record.ID, &record.Name, &role, &department, &mandalArea)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.PrincipalRecord{}, ErrNotFound
		}
		return domain.PrincipalRecord{}, fmt.Errorf("query principal: %w", err)
	}
	record.Role = domain.Role(role)
	if department != nil {
		record.Department = *department
	}
	if mandalArea != nil {
		record.MandalArea = *mandalArea
	}
	return record, nil
}

func (d *PostgresPrincipalDirectory) CountByRole(ctx context.Context) (map[domain.Role]int, error) {
	rows, err := d.pool.Query(ctx, `SELECT role, COUNT(*) FROM principals GROUP BY role`)
	if err != nil {
		return nil, fmt.Errorf("count principals: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Role]int)
	for rows.Next() {
		var (
			role  string
			count int
		)
		if err := rows.Scan(&role, &count); err != nil {
			return nil, fmt.Errorf("scan principal count: %w", err)
		}
		counts[domain.Role(role)] = count
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate principal counts: %w", rows.Err())
	}
	return counts, nil
}

func (d *PostgresPrincipalDirectory) Upsert(ctx context.Context, record domain.PrincipalRecord) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO principals (id, name, role, department, mandal_area)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			role = EXCLUDED.role,
			department = EXCLUDED.department,
			mandal_area = EXCLUDED.mandal_area
	`, record.ID, record.Name, string(record.Role), nullable(record.Department), nullable(record.MandalArea))
	if err != nil {
		return fmt.Errorf("upsert principal: %w", err)
	}
	return nil
}
