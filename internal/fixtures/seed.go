// Package fixtures loads YAML seed data for the in-memory backends and the CLI.
package fixtures

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iago/civic-issues-back/internal/domain"
	"github.com/iago/civic-issues-back/internal/repository"
	"gopkg.in/yaml.v3"
)

//go:embed default_seed.yaml
var defaultSeed []byte

// Seed is the decoded seed file.
type Seed struct {
	Principals []PrincipalSeed `yaml:"principals"`
	Reports    []ReportSeed    `yaml:"reports"`
}

// PrincipalSeed is a principal plus the bearer tokens that resolve to it.
type PrincipalSeed struct {
	domain.PrincipalRecord `yaml:",inline"`
	Tokens                 []string `yaml:"tokens"`
}

// ReportSeed accepts either absolute timestamps or ages relative to the
// moment the seed is materialised.
type ReportSeed struct {
	domain.Report      `yaml:",inline"`
	CreatedHoursAgo    *float64 `yaml:"createdHoursAgo,omitempty"`
	ResolvedAfterHours *float64 `yaml:"resolvedAfterHours,omitempty"`
}

// ReportCreator is satisfied by repositories that assign ids and report codes.
type ReportCreator interface {
	Create(ctx context.Context, report domain.Report) (domain.Report, error)
}

// ReportInserter persists reports that already carry an id and report code.
type ReportInserter interface {
	Insert(ctx context.Context, report domain.Report) error
}

// PrincipalUpserter persists principal records.
type PrincipalUpserter interface {
	Upsert(ctx context.Context, record domain.PrincipalRecord) error
}

var seedNamespace = uuid.MustParse("6f1c2a44-3b7e-4d8f-9a51-0c2e7d9b8f13")

// Default returns the embedded development seed.
func Default() (Seed, error) {
	return Parse(defaultSeed)
}

// Load reads a seed file. An empty path yields the embedded seed.
func Load(path string) (Seed, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return Seed{}, fmt.Errorf("decode seed: %w", err)
	}
	for i, principal := range seed.Principals {
		if _, err := principal.Principal(); err != nil {
			return Seed{}, fmt.Errorf("principal %d (%s): %w", i, principal.ID, err)
		}
	}
	return seed, nil
}

// Materialize resolves relative timestamps against now. Reports without an id
// get one derived from their position and title.
func (s Seed) Materialize(now time.Time) []domain.Report {
	reports := make([]domain.Report, 0, len(s.Reports))
	for i, item := range s.Reports {
		report := item.Report
		if report.ID == "" {
			report.ID = uuid.NewSHA1(seedNamespace, []byte(fmt.Sprintf("%d|%s", i, report.Title))).String()
		}
		if item.CreatedHoursAgo != nil {
			report.CreatedAt = now.Add(-hours(*item.CreatedHoursAgo))
		}
		if item.ResolvedAfterHours != nil {
			report.UpdatedAt = report.CreatedAt.Add(hours(*item.ResolvedAfterHours))
		}
		if report.UpdatedAt.IsZero() {
			report.UpdatedAt = report.CreatedAt
		}
		reports = append(reports, report)
	}
	return reports
}

// Apply materialises the reports and stores them through creator.
func (s Seed) Apply(ctx context.Context, creator ReportCreator, now time.Time) ([]domain.Report, error) {
	reports := s.Materialize(now)
	created := make([]domain.Report, 0, len(reports))
	for i, report := range reports {
		stored, err := creator.Create(ctx, report)
		if err != nil {
			return nil, fmt.Errorf("seed report %d (%s): %w", i, report.Title, err)
		}
		created = append(created, stored)
	}
	return created, nil
}

// Store writes the seed to persistent stores. Principals are upserted before
// any report. Ids and codes are assigned through a memory repository, so
// running Store again against an inserter that skips conflicts adds nothing.
func (s Seed) Store(ctx context.Context, reports ReportInserter, directory PrincipalUpserter, now time.Time) error {
	for _, record := range s.Records() {
		if err := directory.Upsert(ctx, record); err != nil {
			return fmt.Errorf("seed principal %s: %w", record.ID, err)
		}
	}

	created, err := s.Apply(ctx, repository.NewMemoryReportRepository(), now)
	if err != nil {
		return err
	}
	for _, report := range created {
		if err := reports.Insert(ctx, report); err != nil {
			return fmt.Errorf("seed report %s: %w", report.ReportCode, err)
		}
	}
	return nil
}

// Records returns the principal records without their tokens.
func (s Seed) Records() []domain.PrincipalRecord {
	records := make([]domain.PrincipalRecord, 0, len(s.Principals))
	for _, principal := range s.Principals {
		records = append(records, principal.PrincipalRecord)
	}
	return records
}

// Tokens maps every seeded bearer token to its principal.
func (s Seed) Tokens() map[string]domain.PrincipalRecord {
	tokens := make(map[string]domain.PrincipalRecord)
	for _, principal := range s.Principals {
		for _, token := range principal.Tokens {
			if token = strings.TrimSpace(token); token != "" {
				tokens[token] = principal.PrincipalRecord
			}
		}
	}
	return tokens
}

func hours(value float64) time.Duration {
	return time.Duration(value * float64(time.Hour))
}
