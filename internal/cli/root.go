// Package cli implements reportctl, which evaluates the analytics views
// against a seed file without running the API.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/iago/civic-issues-back/internal/auth"
	"github.com/iago/civic-issues-back/internal/domain"
	"github.com/iago/civic-issues-back/internal/fixtures"
	"github.com/iago/civic-issues-back/internal/repository"
	"github.com/iago/civic-issues-back/internal/service"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Version is the current version of reportctl.
var Version = "0.1.0"

type options struct {
	seedFile   string
	token      string
	as         string
	role       string
	department string
	mandal     string
	id         string
	name       string
	period     string
	now        string
	timezone   string
	format     string
}

// Execute runs the root command against os.Args.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCommand builds a fresh command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "reportctl",
		Short: "Evaluate civic issue analytics against a seed file",
		Long: `reportctl loads a YAML seed of reports and principals into memory and prints
the same views the analytics API serves, scoped to the chosen principal.

Examples:
  reportctl overview --role admin
  reportctl trends --role department --department "Public Works" --group-by week
  reportctl dashboard --token dev-north-mandal-token --format yaml
  reportctl reports --as citizen-1
  reportctl performance --seed seeds/demo.yaml --now 2026-05-20T12:00:00Z --period 7`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.seedFile, "seed", "", "Seed file (default: embedded development seed)")
	flags.StringVar(&opts.token, "token", "", "Resolve the principal from a seeded bearer token")
	flags.StringVar(&opts.as, "as", "", "Act as the seeded principal with this id")
	flags.StringVar(&opts.role, "role", "admin", "Principal role (admin|department|mandal-admin|citizen)")
	flags.StringVar(&opts.department, "department", "", "Department for the department role")
	flags.StringVar(&opts.mandal, "mandal", "", "Mandal area for the mandal-admin role")
	flags.StringVar(&opts.id, "id", "", "Principal id (required for citizens)")
	flags.StringVar(&opts.name, "name", "", "Principal display name")
	flags.StringVar(&opts.period, "period", "", "Window in days (default 30)")
	flags.StringVar(&opts.now, "now", "", "Evaluation time as RFC3339 (default: current time)")
	flags.StringVar(&opts.timezone, "timezone", "UTC", "IANA zone used for trend buckets")
	flags.StringVar(&opts.format, "format", "json", "Output format (json|yaml)")

	root.AddCommand(
		viewCommand(opts, "overview", "Report totals and status, priority and category counts",
			func(ctx context.Context, s *service.AnalyticsService, p domain.PrincipalRecord, days int) (any, error) {
				return s.Overview(ctx, p, days)
			}),
		viewCommand(opts, "departments", "Per-department statistics (admin and mandal-admin only)",
			func(ctx context.Context, s *service.AnalyticsService, p domain.PrincipalRecord, days int) (any, error) {
				return s.Departments(ctx, p, days)
			}),
		viewCommand(opts, "mandal-areas", "Per-area statistics (admin and mandal-admin only)",
			func(ctx context.Context, s *service.AnalyticsService, p domain.PrincipalRecord, days int) (any, error) {
				return s.MandalAreas(ctx, p, days)
			}),
		viewCommand(opts, "performance", "Resolution performance metrics",
			func(ctx context.Context, s *service.AnalyticsService, p domain.PrincipalRecord, days int) (any, error) {
				return s.Performance(ctx, p, days)
			}),
		viewCommand(opts, "dashboard", "Composed dashboard for the principal",
			func(ctx context.Context, s *service.AnalyticsService, p domain.PrincipalRecord, days int) (any, error) {
				return s.Dashboard(ctx, p, days)
			}),
		trendsCommand(opts),
		reportsCommand(opts),
		principalsCommand(opts),
	)
	return root
}

type viewFunc func(ctx context.Context, s *service.AnalyticsService, p domain.PrincipalRecord, days int) (any, error)

func viewCommand(opts *options, use, short string, view viewFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, view)
		},
	}
}

func trendsCommand(opts *options) *cobra.Command {
	var groupBy string
	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Report counts per day, week or month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, func(ctx context.Context, s *service.AnalyticsService, p domain.PrincipalRecord, days int) (any, error) {
				return s.Trends(ctx, p, days, groupBy)
			})
		},
	}
	cmd.Flags().StringVar(&groupBy, "group-by", "day", "Bucket granularity (day|week|month)")
	return cmd
}

func reportsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "reports",
		Short: "List every report the principal may view, ignoring --period",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := opts.load(cmd)
			if err != nil {
				return err
			}
			reports, err := env.analytics.Reports(env.ctx, env.principal)
			if err != nil {
				return err
			}
			return write(cmd.OutOrStdout(), opts.format, reports)
		},
	}
}

func principalsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "principals",
		Short: "List the seeded principals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := fixtures.Load(opts.seedFile)
			if err != nil {
				return err
			}
			directory := repository.NewMemoryPrincipalDirectory(seed.Records()...)
			return write(cmd.OutOrStdout(), opts.format, directory.All())
		},
	}
}

type environment struct {
	ctx       context.Context
	analytics *service.AnalyticsService
	principal domain.PrincipalRecord
}

func run(cmd *cobra.Command, opts *options, view viewFunc) error {
	env, err := opts.load(cmd)
	if err != nil {
		return err
	}
	days, err := env.analytics.ParsePeriod(opts.period)
	if err != nil {
		return err
	}
	result, err := view(env.ctx, env.analytics, env.principal, days)
	if err != nil {
		return err
	}
	return write(cmd.OutOrStdout(), opts.format, result)
}

// load materialises the seed at the evaluation time and resolves the principal.
func (o *options) load(cmd *cobra.Command) (environment, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	now, err := o.evaluationTime()
	if err != nil {
		return environment{}, err
	}
	loc, err := time.LoadLocation(o.timezone)
	if err != nil {
		return environment{}, fmt.Errorf("invalid --timezone: %w", err)
	}

	seed, err := fixtures.Load(o.seedFile)
	if err != nil {
		return environment{}, err
	}
	reports := repository.NewMemoryReportRepository()
	if _, err := seed.Apply(ctx, reports, now); err != nil {
		return environment{}, err
	}
	directory := repository.NewMemoryPrincipalDirectory(seed.Records()...)

	principal, err := o.principal(ctx, seed, directory)
	if err != nil {
		return environment{}, err
	}

	analytics := service.NewAnalyticsService(
		reports,
		directory,
		service.AnalyticsConfig{
			Location: loc,
			Now:      func() time.Time { return now },
		},
		nil,
	)
	return environment{ctx: ctx, analytics: analytics, principal: principal}, nil
}

func (o *options) evaluationTime() (time.Time, error) {
	if strings.TrimSpace(o.now) == "" {
		return time.Now().UTC(), nil
	}
	now, err := time.Parse(time.RFC3339, o.now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now: %w", err)
	}
	return now.UTC(), nil
}

// principal prefers --token, resolved against the seed's token table, then
// --as, looked up in the directory, over the explicit role flags.
func (o *options) principal(ctx context.Context, seed fixtures.Seed, directory repository.PrincipalDirectory) (domain.PrincipalRecord, error) {
	if strings.TrimSpace(o.token) != "" {
		return auth.NewStaticResolver(seed.Tokens()).Resolve(ctx, o.token)
	}
	if id := strings.TrimSpace(o.as); id != "" {
		record, err := directory.Get(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return domain.PrincipalRecord{}, fmt.Errorf("%w: no principal with id %q", domain.ErrPrincipalNotFound, id)
		}
		return record, err
	}
	role, err := domain.ParseRole(o.role)
	if err != nil {
		return domain.PrincipalRecord{}, err
	}
	record := domain.PrincipalRecord{
		ID:         o.id,
		Name:       o.name,
		Role:       role,
		Department: o.department,
		MandalArea: o.mandal,
	}
	if _, err := record.Principal(); err != nil {
		return domain.PrincipalRecord{}, err
	}
	return record, nil
}

// write renders result as indented JSON, or as YAML with the same keys.
func write(out io.Writer, format string, result any) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "yaml":
		raw, err := json.Marshal(result)
		if err != nil {
			return err
		}
		var generic any
		if err := json.Unmarshal(raw, &generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(generic)
	default:
		return fmt.Errorf("unsupported --format %q (json|yaml)", format)
	}
}
