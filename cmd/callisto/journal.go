package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/journal"
	"mercator-hq/callisto/pkg/journal/retention"
	"mercator-hq/callisto/pkg/journal/storage"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect and maintain the decision journal",
	Long: `Query and prune the journal of admission decisions.

The journal records every decision made through the limits manager:
identifier, algorithm, requested quantity, outcome, and retry hint.`,
}

var journalQueryFlags struct {
	identifier string
	allowed    bool
	rejected   bool
	since      string
	until      string
	limit      int
	offset     int
	format     string
}

var journalQueryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query journal records",
	Long: `Query journal records with optional filters, newest first.

Examples:
  # Recent decisions for one identifier
  callisto journal query --identifier api-key-123 --limit 20

  # Rejections in a time range, as CSV
  callisto journal query --rejected \
    --since 2026-03-01T00:00:00Z --until 2026-03-02T00:00:00Z --format csv`,
	RunE: runJournalQuery,
}

var journalPruneFlags struct {
	maxAge     time.Duration
	maxRecords int64
}

var journalPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Apply the retention policy once",
	Long: `Delete journal records per the retention policy and report how many
were removed. Flags override the configured retention settings.

Examples:
  # Prune with the configured retention policy
  callisto journal prune

  # Keep only the last 30 days
  callisto journal prune --max-age 720h`,
	RunE: runJournalPrune,
}

var journalStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show journal statistics",
	RunE:  runJournalStats,
}

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalQueryCmd)
	journalCmd.AddCommand(journalPruneCmd)
	journalCmd.AddCommand(journalStatsCmd)

	journalQueryCmd.Flags().StringVar(&journalQueryFlags.identifier, "identifier", "", "filter by identifier")
	journalQueryCmd.Flags().BoolVar(&journalQueryFlags.allowed, "allowed", false, "only admitted decisions")
	journalQueryCmd.Flags().BoolVar(&journalQueryFlags.rejected, "rejected", false, "only rejected decisions")
	journalQueryCmd.Flags().StringVar(&journalQueryFlags.since, "since", "", "inclusive lower time bound (RFC3339)")
	journalQueryCmd.Flags().StringVar(&journalQueryFlags.until, "until", "", "exclusive upper time bound (RFC3339)")
	journalQueryCmd.Flags().IntVar(&journalQueryFlags.limit, "limit", 100, "maximum records to return (0 = no limit)")
	journalQueryCmd.Flags().IntVar(&journalQueryFlags.offset, "offset", 0, "records to skip")
	journalQueryCmd.Flags().StringVar(&journalQueryFlags.format, "format", "text", "output format: text, json, csv")

	journalPruneCmd.Flags().DurationVar(&journalPruneFlags.maxAge, "max-age", 0, "override retention max age")
	journalPruneCmd.Flags().Int64Var(&journalPruneFlags.maxRecords, "max-records", 0, "override retention record cap")
}

// journalStorage opens the journal backend named in the configuration.
func journalStorage() (journal.Storage, *config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Journal.Backend {
	case "memory":
		return storage.NewMemoryStorage(), cfg, nil
	case "sqlite":
		store, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
			Path:         cfg.Journal.SQLite.Path,
			MaxOpenConns: cfg.Journal.SQLite.MaxOpenConns,
			BusyTimeout:  cfg.Journal.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, cfg, nil
	}
	return nil, nil, fmt.Errorf("unsupported journal backend: %s", cfg.Journal.Backend)
}

// recordList renders journal records as a table for CSV output.
type recordList []*journal.Record

func (r recordList) CSVHeader() []string {
	return []string{"id", "at", "identifier", "algorithm", "requested", "allowed", "reason", "retry_after"}
}

func (r recordList) CSVRows() [][]string {
	rows := make([][]string, 0, len(r))
	for _, rec := range r {
		rows = append(rows, []string{
			rec.ID,
			rec.At.Format(time.RFC3339Nano),
			rec.Identifier,
			rec.Algorithm,
			strconv.FormatUint(rec.Requested, 10),
			strconv.FormatBool(rec.Allowed),
			rec.Reason,
			rec.RetryAfter.String(),
		})
	}
	return rows
}

func runJournalQuery(cmd *cobra.Command, args []string) error {
	if journalQueryFlags.allowed && journalQueryFlags.rejected {
		return fmt.Errorf("--allowed and --rejected are mutually exclusive")
	}

	store, _, err := journalStorage()
	if err != nil {
		return cli.NewCommandError("journal query", err)
	}
	defer store.Close()

	q := &journal.Query{
		Identifier: journalQueryFlags.identifier,
		Limit:      journalQueryFlags.limit,
		Offset:     journalQueryFlags.offset,
	}
	if journalQueryFlags.allowed {
		allowed := true
		q.Allowed = &allowed
	}
	if journalQueryFlags.rejected {
		allowed := false
		q.Allowed = &allowed
	}
	if journalQueryFlags.since != "" {
		since, err := time.Parse(time.RFC3339, journalQueryFlags.since)
		if err != nil {
			return fmt.Errorf("invalid --since: %w", err)
		}
		q.Since = since
	}
	if journalQueryFlags.until != "" {
		until, err := time.Parse(time.RFC3339, journalQueryFlags.until)
		if err != nil {
			return fmt.Errorf("invalid --until: %w", err)
		}
		q.Until = until
	}

	records, err := store.Query(context.Background(), q)
	if err != nil {
		return cli.NewCommandError("journal query", err)
	}

	switch journalQueryFlags.format {
	case "json":
		return cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, records)
	case "csv":
		return cli.NewFormatter(cli.FormatCSV).FormatTo(os.Stdout, recordList(records))
	}

	if len(records) == 0 {
		fmt.Println("No journal records found.")
		return nil
	}
	for _, rec := range records {
		outcome := "allowed"
		if !rec.Allowed {
			outcome = fmt.Sprintf("rejected (%s)", rec.Reason)
		}
		fmt.Printf("%s  %-20s  %-22s  n=%-4d  %s",
			rec.At.Format(time.RFC3339), rec.Identifier, rec.Algorithm, rec.Requested, outcome)
		if rec.RetryAfter > 0 {
			fmt.Printf("  retry in %v", rec.RetryAfter)
		}
		fmt.Println()
	}
	fmt.Printf("\n%d record(s)\n", len(records))
	return nil
}

func runJournalPrune(cmd *cobra.Command, args []string) error {
	store, cfg, err := journalStorage()
	if err != nil {
		return cli.NewCommandError("journal prune", err)
	}
	defer store.Close()

	retCfg := &retention.Config{
		MaxAge:     cfg.Journal.Retention.MaxAge,
		MaxRecords: cfg.Journal.Retention.MaxRecords,
		Schedule:   cfg.Journal.Retention.PruneSchedule,
	}
	if journalPruneFlags.maxAge > 0 {
		retCfg.MaxAge = journalPruneFlags.maxAge
	}
	if journalPruneFlags.maxRecords > 0 {
		retCfg.MaxRecords = journalPruneFlags.maxRecords
	}

	pruned, err := retention.NewPruner(store, retCfg).RunOnce(context.Background())
	if err != nil {
		return cli.NewCommandError("journal prune", err)
	}

	fmt.Printf("Pruned %d record(s).\n", pruned)
	return nil
}

func runJournalStats(cmd *cobra.Command, args []string) error {
	store, cfg, err := journalStorage()
	if err != nil {
		return cli.NewCommandError("journal stats", err)
	}
	defer store.Close()

	ctx := context.Background()
	total, err := store.Count(ctx)
	if err != nil {
		return cli.NewCommandError("journal stats", err)
	}

	allowed := true
	admitted, err := store.Query(ctx, &journal.Query{Allowed: &allowed})
	if err != nil {
		return cli.NewCommandError("journal stats", err)
	}

	fmt.Printf("Backend:  %s\n", cfg.Journal.Backend)
	fmt.Printf("Records:  %d\n", total)
	if total > 0 {
		fmt.Printf("Allowed:  %d (%.1f%%)\n", len(admitted),
			100*float64(len(admitted))/float64(total))
		fmt.Printf("Rejected: %d\n", total-int64(len(admitted)))
	}
	return nil
}
