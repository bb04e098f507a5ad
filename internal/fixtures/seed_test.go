package fixtures

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iago/civic-issues-back/internal/domain"
	"github.com/iago/civic-issues-back/internal/repository"
)

func TestDefaultSeedLoadsIntoMemoryRepository(t *testing.T) {
	seed, err := Default()
	if err != nil {
		t.Fatalf("default seed failed: %v", err)
	}
	if len(seed.Principals) == 0 || len(seed.Reports) == 0 {
		t.Fatalf("expected principals and reports in the default seed")
	}

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	repo := repository.NewMemoryReportRepository()
	created, err := seed.Apply(context.Background(), repo, now)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if len(created) != len(seed.Reports) {
		t.Fatalf("expected %d reports, got %d", len(seed.Reports), len(created))
	}
	for _, report := range created {
		if report.ReportCode == "" || report.ID == "" {
			t.Fatalf("expected id and code to be assigned, got %+v", report)
		}
		if report.UpdatedAt.Before(report.CreatedAt) {
			t.Fatalf("expected updatedAt >= createdAt for %s", report.Title)
		}
	}

	tokens := seed.Tokens()
	admin, ok := tokens["dev-admin-token"]
	if !ok || admin.Role != domain.RoleAdmin {
		t.Fatalf("expected dev-admin-token to resolve to admin, got %+v", admin)
	}
}

func TestParseRelativeTimestamps(t *testing.T) {
	seed, err := Parse([]byte(`
reports:
  - title: Fallen tree
    category: Parks
    priority: high
    status: resolved
    department: Parks and Recreation
    mandalArea: West Zone
    createdHoursAgo: 10
    resolvedAfterHours: 4
  - title: Absolute
    category: Roads
    priority: low
    status: submitted
    department: Public Works
    mandalArea: East Zone
    createdAt: 2026-01-05T10:00:00Z
`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	reports := seed.Materialize(now)
	if !reports[0].CreatedAt.Equal(now.Add(-10 * time.Hour)) {
		t.Fatalf("unexpected createdAt %v", reports[0].CreatedAt)
	}
	if reports[0].ResolutionTime() != 4*time.Hour {
		t.Fatalf("expected 4h resolution, got %v", reports[0].ResolutionTime())
	}
	want := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	if !reports[1].CreatedAt.Equal(want) || !reports[1].UpdatedAt.Equal(want) {
		t.Fatalf("expected absolute timestamps to be kept, got %v %v", reports[1].CreatedAt, reports[1].UpdatedAt)
	}
}

func TestParseRejectsInvalidPrincipal(t *testing.T) {
	_, err := Parse([]byte(`
principals:
  - id: broken
    role: department
`))
	if err == nil {
		t.Fatalf("expected department principal without department to be rejected")
	}
}

// conflictSkippingStore mirrors INSERT ... ON CONFLICT DO NOTHING on unique id and code.
type conflictSkippingStore struct {
	reports    map[string]domain.Report
	codes      map[string]struct{}
	principals map[string]domain.PrincipalRecord
	calls      []string
	failInsert error
}

func newConflictSkippingStore() *conflictSkippingStore {
	return &conflictSkippingStore{
		reports:    make(map[string]domain.Report),
		codes:      make(map[string]struct{}),
		principals: make(map[string]domain.PrincipalRecord),
	}
}

func (s *conflictSkippingStore) Insert(_ context.Context, report domain.Report) error {
	s.calls = append(s.calls, "report")
	if s.failInsert != nil {
		return s.failInsert
	}
	if _, ok := s.reports[report.ID]; ok {
		return nil
	}
	if _, ok := s.codes[report.ReportCode]; ok {
		return nil
	}
	s.reports[report.ID] = report
	s.codes[report.ReportCode] = struct{}{}
	return nil
}

func (s *conflictSkippingStore) Upsert(_ context.Context, record domain.PrincipalRecord) error {
	s.calls = append(s.calls, "principal")
	s.principals[record.ID] = record
	return nil
}

func TestStoreIsRepeatable(t *testing.T) {
	seed, err := Default()
	if err != nil {
		t.Fatalf("default seed failed: %v", err)
	}
	store := newConflictSkippingStore()
	ctx := context.Background()

	first := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := seed.Store(ctx, store, store, first); err != nil {
		t.Fatalf("first store failed: %v", err)
	}
	ids := make(map[string]struct{}, len(store.reports))
	for id := range store.reports {
		ids[id] = struct{}{}
	}

	if err := seed.Store(ctx, store, store, first.Add(48*time.Hour)); err != nil {
		t.Fatalf("second store failed: %v", err)
	}
	if len(store.reports) != len(seed.Reports) {
		t.Fatalf("expected %d reports after two runs, got %d", len(seed.Reports), len(store.reports))
	}
	for id := range store.reports {
		if _, ok := ids[id]; !ok {
			t.Fatalf("expected stable report ids, found new id %s", id)
		}
	}
	if len(store.principals) != len(seed.Principals) {
		t.Fatalf("expected %d principals, got %d", len(seed.Principals), len(store.principals))
	}
}

func TestStoreUpsertsPrincipalsBeforeReports(t *testing.T) {
	seed, err := Default()
	if err != nil {
		t.Fatalf("default seed failed: %v", err)
	}
	store := newConflictSkippingStore()
	store.failInsert = errors.New("duplicate key value violates unique constraint")

	err = seed.Store(context.Background(), store, store, time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	if err == nil {
		t.Fatalf("expected insert failure to be returned")
	}
	if len(store.principals) != len(seed.Principals) {
		t.Fatalf("expected principals to be stored despite report failure, got %d", len(store.principals))
	}
	for i, call := range store.calls[:len(seed.Principals)] {
		if call != "principal" {
			t.Fatalf("expected principal upserts first, call %d was %s", i, call)
		}
	}
}

func TestMaterializeAssignsStableIDs(t *testing.T) {
	seed, err := Default()
	if err != nil {
		t.Fatalf("default seed failed: %v", err)
	}
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	first := seed.Materialize(now)
	second := seed.Materialize(now.Add(time.Hour))

	seen := make(map[string]struct{}, len(first))
	for i := range first {
		if first[i].ID == "" || first[i].ID != second[i].ID {
			t.Fatalf("expected stable id for %s, got %q and %q", first[i].Title, first[i].ID, second[i].ID)
		}
		if _, dup := seen[first[i].ID]; dup {
			t.Fatalf("duplicate seed id %s", first[i].ID)
		}
		seen[first[i].ID] = struct{}{}
	}
}
