package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"merovingian/internal/app"
	"merovingian/internal/config"
	"merovingian/internal/contract"

	"github.com/spf13/cobra"
)

// errBreaking makes `check` exit non-zero once the changes have been printed.
var errBreaking = errors.New("breaking changes detected")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the default locations and reads the effective config.
func loadConfig() (*config.Config, app.Defaults, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, app.Defaults{}, fmt.Errorf("getting defaults: %w", err)
	}
	cfg, err := config.Load(defaults.ConfigPath, defaults.BaseDir)
	if err != nil {
		return nil, app.Defaults{}, fmt.Errorf("reading config: %w", err)
	}
	return cfg, defaults, nil
}

// newApp reads the config and creates a MerovingianApp. The caller must defer app.Close().
// tool and params are written to the audit log when the app closes.
func newApp(cmd *cobra.Command, tool string, params map[string]any) (*app.MerovingianApp, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a, err := app.NewMerovingianApp(cmd.Context(), cfg, app.NewOperation(tool, params))
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

var rootCmd = &cobra.Command{
	Use:          "merovingian",
	Short:        "Cross-repository contract impact analysis",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults.BaseDir)
		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Base Dir: %s\n", defaults.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, defaults, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("# Configuration from %s (with environment overrides and defaults)\n\n", defaults.ConfigPath)
		m := &config.Manager{}
		return m.Write(os.Stdout, cfg)
	},
}

// repo command
var repoCmd = &cobra.Command{
	Use:   "repo",
	Short: "Manage registered repositories",
}

var repoRegisterCmd = &cobra.Command{
	Use:   "register NAME PATH",
	Short: "Register or update a repository",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctype, _ := cmd.Flags().GetString("type")

		a, err := newApp(cmd, "repo-register", map[string]any{"name": args[0], "path": args[1], "type": ctype})
		if err != nil {
			return err
		}
		defer a.Close()

		repo, err := a.RegisterRepo(cmd.Context(), args[0], args[1], ctype)
		if err != nil {
			return err
		}
		fmt.Printf("Registered %s (%s) at %s\n", repo.Name, repo.ContractType, repo.Path)
		return nil
	},
}

var repoUnregisterCmd = &cobra.Command{
	Use:   "unregister NAME",
	Short: "Remove a repository with its endpoints, versions and reports",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "repo-unregister", map[string]any{"name": args[0]})
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.UnregisterRepo(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Unregistered %s\n", args[0])
		return nil
	},
}

var repoListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered repositories",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "repo-list", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		repos, err := a.ListRepos(cmd.Context())
		if err != nil {
			return err
		}
		if len(repos) == 0 {
			fmt.Println("No repositories registered.")
			return nil
		}
		for _, r := range repos {
			fmt.Printf("%-20s  %-8s  %s  %s\n", r.Name, r.ContractType, r.RegisteredAt.Format("2006-01-02 15:04:05"), r.Path)
		}
		return nil
	},
}

// scan command
var scanCmd = &cobra.Command{
	Use:   "scan REPO",
	Short: "Re-extract a repository's endpoints without recording a version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "scan", map[string]any{"repo": args[0]})
		if err != nil {
			return err
		}
		defer a.Close()

		eps, hash, err := a.Scan(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, ep := range eps {
			printEndpoint(ep)
		}
		fmt.Printf("%d endpoint(s), hash %s\n", len(eps), hash)
		return nil
	},
}

// consumer command
var consumerCmd = &cobra.Command{
	Use:   "consumer",
	Short: "Manage consumer dependencies",
}

var consumerAddCmd = &cobra.Command{
	Use:   "add CONSUMER PRODUCER METHOD PATH",
	Short: "Record that CONSUMER depends on an endpoint of PRODUCER",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "consumer-add", consumerParams(args))
		if err != nil {
			return err
		}
		defer a.Close()

		c, err := a.RegisterConsumer(cmd.Context(), args[0], args[1], args[2], args[3])
		if err != nil {
			return err
		}
		fmt.Printf("%s now consumes %s %s %s\n", c.ConsumerRepo, c.ProducerRepo, c.EndpointMethod, c.EndpointPath)
		return nil
	},
}

var consumerRemoveCmd = &cobra.Command{
	Use:   "remove CONSUMER PRODUCER METHOD PATH",
	Short: "Remove a consumer dependency",
	Args:  cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "consumer-remove", consumerParams(args))
		if err != nil {
			return err
		}
		defer a.Close()

		removed, err := a.RemoveConsumer(cmd.Context(), args[0], args[1], args[2], args[3])
		if err != nil {
			return err
		}
		if !removed {
			fmt.Println("No such consumer dependency.")
			return nil
		}
		fmt.Println("Removed.")
		return nil
	},
}

var consumerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List consumer dependencies",
	RunE: func(cmd *cobra.Command, args []string) error {
		var filter contract.ConsumerFilter
		filter.ProducerRepo, _ = cmd.Flags().GetString("producer")
		filter.Method, _ = cmd.Flags().GetString("method")
		filter.Path, _ = cmd.Flags().GetString("path")

		a, err := newApp(cmd, "consumer-list", map[string]any{
			"producer": filter.ProducerRepo, "method": filter.Method, "path": filter.Path,
		})
		if err != nil {
			return err
		}
		defer a.Close()

		cs, err := a.ListConsumers(cmd.Context(), filter)
		if err != nil {
			return err
		}
		if len(cs) == 0 {
			fmt.Println("No consumers registered.")
			return nil
		}
		for _, c := range cs {
			fmt.Printf("%-20s -> %-20s  %s %s\n", c.ConsumerRepo, c.ProducerRepo, c.EndpointMethod, c.EndpointPath)
		}
		return nil
	},
}

func consumerParams(args []string) map[string]any {
	return map[string]any{"consumer": args[0], "producer": args[1], "method": args[2], "path": args[3]}
}

// impact command
var impactCmd = &cobra.Command{
	Use:   "impact REPO",
	Short: "Assess the impact of a repository's current contract and record a report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "impact", map[string]any{"repo": args[0]})
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.AssessImpact(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printReport(report)
		return nil
	},
}

// check command
var checkCmd = &cobra.Command{
	Use:   "check REPO",
	Short: "List breaking changes without recording anything; exits non-zero if any",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "check", map[string]any{"repo": args[0]})
		if err != nil {
			return err
		}
		defer a.Close()

		changes, err := a.CheckBreaking(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			fmt.Println("No breaking changes.")
			return nil
		}
		for _, c := range changes {
			printChange(c)
		}
		return fmt.Errorf("%s: %d %w", args[0], len(changes), errBreaking)
	},
}

// versions command
var versionsCmd = &cobra.Command{
	Use:   "versions REPO",
	Short: "List recorded contract versions, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd, "versions", map[string]any{"repo": args[0], "limit": limit})
		if err != nil {
			return err
		}
		defer a.Close()

		vs, err := a.ListVersions(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}
		if len(vs) == 0 {
			fmt.Println("No versions recorded.")
			return nil
		}
		for _, v := range vs {
			fmt.Printf("%s  %s  %3d endpoint(s)  %s\n", v.VersionID, v.CapturedAt.Format("2006-01-02 15:04:05"), len(v.Endpoints), v.SpecHash[:12])
		}
		return nil
	},
}

// reports command
var reportsCmd = &cobra.Command{
	Use:   "reports REPO",
	Short: "List impact reports, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd, "reports", map[string]any{"repo": args[0], "limit": limit})
		if err != nil {
			return err
		}
		defer a.Close()

		rs, err := a.ListReports(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}
		if len(rs) == 0 {
			fmt.Println("No reports recorded.")
			return nil
		}
		for _, r := range rs {
			fmt.Printf("%s  %s  breaking:%d  non-breaking:%d  consumers:%d\n",
				r.ReportID,
				r.CreatedAt.Format("2006-01-02 15:04:05"),
				len(r.BreakingChanges),
				len(r.NonBreakingChanges),
				r.ConsumerCount,
			)
		}
		return nil
	},
}

// report command
var reportCmd = &cobra.Command{
	Use:   "report REPORT_ID",
	Short: "Show one impact report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "report", map[string]any{"report_id": args[0]})
		if err != nil {
			return err
		}
		defer a.Close()

		r, err := a.GetReport(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printReport(r)
		return nil
	},
}

// search command
var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Search endpoint paths and summaries across repositories",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd, "search", map[string]any{"query": args[0], "limit": limit})
		if err != nil {
			return err
		}
		defer a.Close()

		eps, err := a.SearchEndpoints(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}
		if len(eps) == 0 {
			fmt.Println("No matching endpoints.")
			return nil
		}
		for _, ep := range eps {
			fmt.Printf("%-20s  ", ep.RepoName)
			printEndpoint(ep)
		}
		return nil
	},
}

// graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Show the repository dependency graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "graph", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		g, err := a.DependencyGraph(cmd.Context())
		if err != nil {
			return err
		}
		if len(g) == 0 {
			fmt.Println("No dependencies registered.")
			return nil
		}

		names := make([]string, 0, len(g))
		for name := range g {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			node := g[name]
			fmt.Printf("%s\n  depends on: %s\n  depended by: %s\n", name, joinOrNone(node.DependsOn), joinOrNone(node.DependedBy))
		}
		return nil
	},
}

// feedback command
var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Record and review feedback on reports and changes",
}

var feedbackAddCmd = &cobra.Command{
	Use:   "add TARGET_ID report|change accepted|rejected|modified [NOTE]",
	Short: "Record feedback",
	Args:  cobra.RangeArgs(3, 4),
	RunE: func(cmd *cobra.Command, args []string) error {
		note := ""
		if len(args) == 4 {
			note = args[3]
		}

		a, err := newApp(cmd, "feedback", map[string]any{"target_id": args[0], "target_type": args[1], "outcome": args[2]})
		if err != nil {
			return err
		}
		defer a.Close()

		fb, err := a.RecordFeedback(cmd.Context(), args[0], args[1], args[2], note)
		if err != nil {
			return err
		}
		fmt.Printf("Recorded %s on %s %s\n", fb.Outcome, fb.TargetType, fb.TargetID)
		return nil
	},
}

var feedbackListCmd = &cobra.Command{
	Use:   "list",
	Short: "List feedback, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd, "feedback-list", map[string]any{"limit": limit})
		if err != nil {
			return err
		}
		defer a.Close()

		fbs, err := a.ListFeedback(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(fbs) == 0 {
			fmt.Println("No feedback recorded.")
			return nil
		}
		for _, fb := range fbs {
			fmt.Printf("%s  %-6s  %-34s  %-8s  %s\n", fb.CreatedAt.Format("2006-01-02 15:04:05"), fb.TargetType, fb.TargetID, fb.Outcome, fb.Context)
		}
		return nil
	},
}

// audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "View recorded operations",
	RunE: func(cmd *cobra.Command, args []string) error {
		tool, _ := cmd.Flags().GetString("tool")
		sinceAgo, _ := cmd.Flags().GetDuration("since")
		limit, _ := cmd.Flags().GetInt("limit")

		var since time.Time
		if sinceAgo > 0 {
			since = time.Now().UTC().Add(-sinceAgo)
		}

		a, err := newApp(cmd, "audit", map[string]any{"tool": tool, "since": sinceAgo.String(), "limit": limit})
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.QueryAudit(cmd.Context(), tool, since, limit)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s  %-16s  %s  %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), e.ToolName, e.Parameters, e.ResultSummary)
		}
		return nil
	},
}

// archive command
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Access archived contract snapshots",
}

var archiveGetCmd = &cobra.Command{
	Use:   "get REPO [VERSION_ID]",
	Short: "Print an archived snapshot (latest when VERSION_ID is omitted)",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		versionID := ""
		if len(args) == 2 {
			versionID = args[1]
		}

		a, err := newApp(cmd, "archive-get", map[string]any{"repo": args[0], "version_id": versionID})
		if err != nil {
			return err
		}
		defer a.Close()

		passphrase := ""
		if a.ArchiveEncrypted() {
			passphrase, err = readPassphrase("Passphrase: ", false)
			if err != nil {
				return err
			}
		}

		w := os.Stdout
		if out != "" {
			f, err := os.OpenFile(out, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			w = f
		}

		got, err := a.ArchivedSnapshot(args[0], versionID, passphrase, w)
		if err != nil {
			return err
		}
		if out != "" {
			fmt.Printf("Wrote %s/%s to %s\n", args[0], got, out)
		}
		return nil
	},
}

var archiveCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the configured archive is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "archive-check", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ValidateArchive(); err != nil {
			return err
		}
		fmt.Println("Archive OK.")
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage archive encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the archive key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "keys-init", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		passphrase, err := readPassphrase("New passphrase: ", true)
		if err != nil {
			return err
		}
		if err := a.InitKeys(passphrase); err != nil {
			return err
		}
		fmt.Println("Archive keys created.")
		return nil
	},
}

// db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect and copy the contract database",
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "db-status", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		st, err := a.MigrationStatus()
		if err != nil {
			return err
		}
		fmt.Printf("Schema version %d of %d", st.Current, st.Latest)
		if st.Dirty {
			fmt.Print(" (dirty)")
		}
		fmt.Println()
		return nil
	},
}

var dbBackupCmd = &cobra.Command{
	Use:   "backup DEST",
	Short: "Write a consistent copy of the database to DEST",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "db-backup", map[string]any{"dest": args[0]})
		if err != nil {
			return err
		}
		defer a.Close()

		dest, err := a.BackupDatabase(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Database copied to %s\n", dest)
		return nil
	},
}

func printEndpoint(ep contract.Endpoint) {
	if ep.Summary != "" {
		fmt.Printf("%-7s %s  (%s)\n", ep.Method, ep.Path, ep.Summary)
		return
	}
	fmt.Printf("%-7s %s\n", ep.Method, ep.Path)
}

func printChange(c contract.ContractChange) {
	fmt.Printf("[%s] %s %s: %s\n", c.Severity, c.EndpointMethod, c.EndpointPath, c.Description)
	if len(c.AffectedConsumers) > 0 {
		fmt.Printf("    affects: %s\n", strings.Join(c.AffectedConsumers, ", "))
	}
}

func printReport(r *contract.ImpactReport) {
	fmt.Printf("Report %s for %s (%s)\n", r.ReportID, r.RepoName, r.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Breaking: %d  Non-breaking: %d  Affected consumers: %d\n", len(r.BreakingChanges), len(r.NonBreakingChanges), r.ConsumerCount)
	for _, c := range r.BreakingChanges {
		printChange(c)
	}
	for _, c := range r.NonBreakingChanges {
		printChange(c)
	}
}

func joinOrNone(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	return strings.Join(names, ", ")
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// repo subcommands
	repoCmd.AddCommand(repoRegisterCmd)
	repoRegisterCmd.Flags().StringP("type", "t", "", "Contract type: openapi or pydantic (default: detect both)")
	repoCmd.AddCommand(repoUnregisterCmd)
	repoCmd.AddCommand(repoListCmd)

	// consumer subcommands
	consumerCmd.AddCommand(consumerAddCmd)
	consumerCmd.AddCommand(consumerRemoveCmd)
	consumerCmd.AddCommand(consumerListCmd)
	consumerListCmd.Flags().String("producer", "", "Only consumers of this producer")
	consumerListCmd.Flags().String("method", "", "Only consumers of this method")
	consumerListCmd.Flags().String("path", "", "Only consumers of this path")

	// feedback subcommands
	feedbackCmd.AddCommand(feedbackAddCmd)
	feedbackCmd.AddCommand(feedbackListCmd)
	feedbackListCmd.Flags().IntP("limit", "n", 0, "Maximum number of entries (default: query.default_query_limit)")

	// archive and keys subcommands
	archiveCmd.AddCommand(archiveGetCmd)
	archiveGetCmd.Flags().StringP("out", "o", "", "Write the snapshot to a new file instead of stdout")
	archiveCmd.AddCommand(archiveCheckCmd)
	keysCmd.AddCommand(keysInitCmd)

	// db subcommands
	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbBackupCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(repoCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(consumerCmd)
	rootCmd.AddCommand(impactCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionsCmd)
	versionsCmd.Flags().IntP("limit", "n", 0, "Maximum number of versions (default: query.default_query_limit)")
	rootCmd.AddCommand(reportsCmd)
	reportsCmd.Flags().IntP("limit", "n", 0, "Maximum number of reports (default: query.default_query_limit)")
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntP("limit", "n", 0, "Maximum number of results (default: query.default_query_limit)")
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(feedbackCmd)
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().String("tool", "", "Only operations of this tool")
	auditCmd.Flags().Duration("since", 0, "Only operations newer than this (e.g. 24h)")
	auditCmd.Flags().IntP("limit", "n", 0, "Maximum number of entries (default: query.default_query_limit)")
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(dbCmd)
}
