package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/iago/civic-issues-back/internal/auth"
	"github.com/iago/civic-issues-back/internal/domain"
	"github.com/iago/civic-issues-back/internal/fixtures"
	httpserver "github.com/iago/civic-issues-back/internal/http"
	"github.com/iago/civic-issues-back/internal/http/handlers"
	"github.com/iago/civic-issues-back/internal/repository"
	"github.com/iago/civic-issues-back/internal/service"
)

type scenarioResult struct {
	Name          string   `json:"name"`
	Total         int      `json:"total"`
	Success       int      `json:"success"`
	Errors        int      `json:"errors"`
	P50MS         float64  `json:"p50_ms"`
	P95MS         float64  `json:"p95_ms"`
	P99MS         float64  `json:"p99_ms"`
	MaxMS         float64  `json:"max_ms"`
	ThroughputRPS float64  `json:"throughput_rps"`
	ErrorSamples  []string `json:"error_samples,omitempty"`
}

type runResult struct {
	GeneratedAtUTC string           `json:"generated_at_utc"`
	Environment    string           `json:"environment"`
	ReportsWritten int              `json:"reports_written"`
	Results        []scenarioResult `json:"results"`
	SLOEvaluation  map[string]bool  `json:"slo_evaluation"`
}

type benchmarkEnv struct {
	server  *httptest.Server
	reports *repository.MemoryReportRepository
}

func main() {
	total := flag.Int("total", 300, "requests per scenario")
	concurrency := flag.Int("concurrency", 24, "concurrent clients per scenario")
	writeEvery := flag.Duration("write-every", 2*time.Millisecond, "interval between background report writes")
	outputPath := flag.String("output", "", "optional path to persist benchmark results JSON")
	flag.Parse()

	env, err := startBenchmarkEnvironment()
	if err != nil {
		log.Fatalf("failed to start local benchmark environment: %v", err)
	}
	defer env.server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	written := make(chan int, 1)
	go func() {
		written <- writeReports(ctx, env.reports, *writeEvery)
	}()

	client := &http.Client{Timeout: 10 * time.Second}
	scenarios := []struct {
		name  string
		path  string
		token string
		check func([]byte) error
	}{
		{name: "overview_admin", path: "/api/analytics/overview", token: "dev-admin-token", check: checkOverview},
		{name: "overview_department", path: "/api/analytics/overview", token: "dev-public-works-token", check: checkOverview},
		{name: "trends_week_mandal", path: "/api/analytics/trends?groupBy=week", token: "dev-north-mandal-token", check: checkTrends},
		{name: "performance_citizen", path: "/api/analytics/performance", token: "dev-citizen-token"},
		{name: "departments_admin", path: "/api/analytics/departments", token: "dev-admin-token"},
		{name: "dashboard_admin", path: "/api/analytics/dashboard", token: "dev-admin-token", check: checkDashboard},
	}

	results := make([]scenarioResult, 0, len(scenarios))
	for _, scenario := range scenarios {
		scenario := scenario
		results = append(results, runScenario(scenario.name, *total, *concurrency, func(int) error {
			body, err := getJSON(client, env.server.URL+scenario.path, scenario.token, http.StatusOK)
			if err != nil || scenario.check == nil {
				return err
			}
			return scenario.check(body)
		}))
	}
	cancel()

	slo := make(map[string]bool, len(results))
	for _, result := range results {
		slo[result.Name+"_p95_le_250ms"] = result.P95MS <= 250
		slo[result.Name+"_consistent"] = result.Errors == 0
	}

	report := runResult{
		GeneratedAtUTC: time.Now().UTC().Format(time.RFC3339Nano),
		Environment:    "local-httptest",
		ReportsWritten: <-written,
		Results:        results,
		SLOEvaluation:  slo,
	}

	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatalf("failed to marshal benchmark report: %v", err)
	}
	if *outputPath != "" {
		if err := os.WriteFile(*outputPath, encoded, 0o644); err != nil {
			log.Fatalf("failed to write output file: %v", err)
		}
	}
	_, _ = fmt.Fprintln(os.Stdout, string(encoded))
}

func startBenchmarkEnvironment() (*benchmarkEnv, error) {
	logger := log.New(io.Discard, "", 0)

	seed, err := fixtures.Default()
	if err != nil {
		return nil, err
	}
	reports := repository.NewMemoryReportRepository()
	if _, err := seed.Apply(context.Background(), reports, time.Now().UTC()); err != nil {
		return nil, err
	}

	analytics := service.NewAnalyticsService(
		reports,
		repository.NewMemoryPrincipalDirectory(seed.Records()...),
		service.AnalyticsConfig{},
		logger,
	)
	router := httpserver.NewRouter(httpserver.RouterDependencies{
		API:            handlers.NewAPI(analytics, logger),
		Resolver:       auth.NewStaticResolver(seed.Tokens()),
		Logger:         logger,
		RateLimitRPS:   20000,
		RateLimitBurst: 20000,
	})

	return &benchmarkEnv{
		server:  httptest.NewServer(router),
		reports: reports,
	}, nil
}

// writeReports keeps inserting fresh reports until ctx ends so that readers
// race against writers.
func writeReports(ctx context.Context, reports *repository.MemoryReportRepository, every time.Duration) int {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	statuses := []domain.Status{domain.StatusSubmitted, domain.StatusInProgress, domain.StatusResolved, domain.StatusClosed}
	count := 0
	for {
		select {
		case <-ctx.Done():
			return count
		case now := <-ticker.C:
			status := statuses[count%len(statuses)]
			_, err := reports.Create(ctx, domain.Report{
				Title:      fmt.Sprintf("Load report %d", count),
				Category:   domain.Categories[count%len(domain.Categories)],
				Priority:   domain.PriorityMedium,
				Status:     status,
				Department: domain.Departments[count%len(domain.Departments)],
				MandalArea: domain.MandalAreas[count%len(domain.MandalAreas)],
				ReporterID: "citizen-1",
				CreatedAt:  now.UTC(),
				UpdatedAt:  now.UTC(),
			})
			if err == nil {
				count++
			}
		}
	}
}

func checkOverview(body []byte) error {
	var overview struct {
		Total             int            `json:"total"`
		ReportsByStatus   map[string]int `json:"reportsByStatus"`
		ReportsByPriority map[string]int `json:"reportsByPriority"`
		ReportsByCategory map[string]int `json:"reportsByCategory"`
		DailyReports      map[string]int `json:"dailyReports"`
	}
	if err := json.Unmarshal(body, &overview); err != nil {
		return err
	}
	for name, counts := range map[string]map[string]int{
		"status":   overview.ReportsByStatus,
		"priority": overview.ReportsByPriority,
		"category": overview.ReportsByCategory,
		"daily":    overview.DailyReports,
	} {
		if sum(counts) != overview.Total {
			return fmt.Errorf("%s counts sum to %d, total is %d", name, sum(counts), overview.Total)
		}
	}
	return nil
}

func checkTrends(body []byte) error {
	var view struct {
		Trends struct {
			ByDate   map[string]int            `json:"byDate"`
			ByStatus map[string]map[string]int `json:"byStatus"`
		} `json:"trends"`
	}
	if err := json.Unmarshal(body, &view); err != nil {
		return err
	}
	for bucket, count := range view.Trends.ByDate {
		if got := sum(view.Trends.ByStatus[bucket]); got != count {
			return fmt.Errorf("bucket %s has %d reports but %d by status", bucket, count, got)
		}
	}
	return nil
}

func checkDashboard(body []byte) error {
	var view struct {
		DepartmentPerformance []struct {
			Name           string `json:"name"`
			OpenIssues     int    `json:"openIssues"`
			TotalIssues    int    `json:"totalIssues"`
			ResolvedIssues int    `json:"resolvedIssues"`
			Efficiency     int    `json:"efficiency"`
		} `json:"departmentPerformance"`
	}
	if err := json.Unmarshal(body, &view); err != nil {
		return err
	}
	for _, department := range view.DepartmentPerformance {
		if department.OpenIssues+department.ResolvedIssues > department.TotalIssues {
			return fmt.Errorf("department %s has more open and resolved issues than total", department.Name)
		}
		if department.Efficiency < 60 || department.Efficiency > 100 {
			return fmt.Errorf("department %s efficiency %d out of range", department.Name, department.Efficiency)
		}
	}
	return nil
}

func sum(counts map[string]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}

func runScenario(
	name string,
	total int,
	concurrency int,
	requestFn func(index int) error,
) scenarioResult {
	if total <= 0 {
		return scenarioResult{Name: name}
	}
	if concurrency <= 0 {
		concurrency = 1
	}

	startedAt := time.Now()
	type sample struct {
		durationMS float64
		err        string
	}

	jobs := make(chan int, total)
	results := make(chan sample, total)
	for i := 0; i < total; i++ {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				requestStart := time.Now()
				err := requestFn(index)
				s := sample{durationMS: float64(time.Since(requestStart).Microseconds()) / 1000.0}
				if err != nil {
					s.err = err.Error()
				}
				results <- s
			}
		}()
	}
	wg.Wait()
	close(results)

	durations := make([]float64, 0, total)
	errorSamples := make([]string, 0, 5)
	success := 0
	for item := range results {
		durations = append(durations, item.durationMS)
		if item.err == "" {
			success++
			continue
		}
		if len(errorSamples) < 5 {
			errorSamples = append(errorSamples, item.err)
		}
	}

	sort.Float64s(durations)
	throughput := 0.0
	if elapsed := time.Since(startedAt).Seconds(); elapsed > 0 {
		throughput = float64(total) / elapsed
	}

	return scenarioResult{
		Name:          name,
		Total:         total,
		Success:       success,
		Errors:        total - success,
		P50MS:         percentile(durations, 0.50),
		P95MS:         percentile(durations, 0.95),
		P99MS:         percentile(durations, 0.99),
		MaxMS:         percentile(durations, 1.00),
		ThroughputRPS: round2(throughput),
		ErrorSamples:  errorSamples,
	}
}

func getJSON(client *http.Client, url, token string, expectedStatus int) ([]byte, error) {
	request, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("Authorization", "Bearer "+token)

	response, err := client.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if response.StatusCode != expectedStatus {
		if len(body) > 1024 {
			body = body[:1024]
		}
		return nil, fmt.Errorf("unexpected status %d (expected %d): %s", response.StatusCode, expectedStatus, string(body))
	}
	return body, nil
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if p >= 1 {
		return round2(values[len(values)-1])
	}
	rank := int(math.Ceil(float64(len(values))*p)) - 1
	if rank < 0 {
		rank = 0
	}
	return round2(values[rank])
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
