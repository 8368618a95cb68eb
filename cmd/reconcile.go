package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/curaious/timesheet/internal/config"
	"github.com/curaious/timesheet/internal/joblock"
	"github.com/curaious/timesheet/internal/reconcile"
	"github.com/curaious/timesheet/internal/resolve"
	"github.com/curaious/timesheet/internal/services"
	"github.com/curaious/timesheet/internal/telemetry"
)

const lockTTL = 30 * time.Minute

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Resolve stored task entries against the project directory",
	Long: "Walks every task log and rewrites entries whose project reference is stale.\n" +
		"Names are matched exactly, then through the rename mapping, then by containment.\n" +
		"Safe to run while the server is serving writes, and safe to re-run.",
	RunE: func(cmd *cobra.Command, args []string) error {
		mappingPath, _ := cmd.Flags().GetString("mapping")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		reportPath, _ := cmd.Flags().GetString("report")
		pageSize, _ := cmd.Flags().GetInt("page-size")

		return runJob(cmd.Context(), "reconcile", func(ctx context.Context, svc *services.Services) (*reconcile.Result, error) {
			mapping := svc.Mapping
			if mappingPath != "" {
				m, err := resolve.LoadMapping(mappingPath)
				if err != nil {
					return nil, err
				}
				mapping = m
			}

			res, err := svc.Reconcile.Reconcile(ctx, mapping, reconcile.Options{DryRun: dryRun, PageSize: pageSize})
			if err != nil {
				return res, err
			}
			if reportPath != "" {
				if err := writeReport(reportPath, res); err != nil {
					return res, err
				}
			}
			return res, nil
		})
	},
}

var reconcileRenameCmd = &cobra.Command{
	Use:   "rename",
	Short: "Push a project's current name into every entry that references it",
	RunE: func(cmd *cobra.Command, args []string) error {
		rawID, _ := cmd.Flags().GetString("project")
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		projectID, err := uuid.Parse(rawID)
		if err != nil {
			return fmt.Errorf("--project must be a project id: %w", err)
		}

		return runJob(cmd.Context(), "reconcile", func(ctx context.Context, svc *services.Services) (*reconcile.Result, error) {
			return svc.Reconcile.PropagateRename(ctx, projectID, reconcile.Options{DryRun: dryRun})
		})
	},
}

// runJob runs fn with the services wired, under the job lock when redis is
// configured. Interrupts cancel the run between records.
func runJob(parent context.Context, job string, fn func(context.Context, *services.Services) (*reconcile.Result, error)) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	conf := config.ReadConfig()

	shutdownTelemetry := telemetry.NewProvider(conf.OTEL_EXPORTER_OTLP_ENDPOINT, conf.OTEL_SERVICE_NAME)
	defer shutdownTelemetry()

	release, err := acquireLock(ctx, conf, job)
	if err != nil {
		return err
	}
	defer release()

	svc := services.NewServices(conf)
	defer svc.DB.Close()

	res, err := fn(ctx, svc)
	if res != nil {
		printSummary(res)
	}
	return err
}

func acquireLock(ctx context.Context, conf *config.Config, job string) (func(), error) {
	if conf.REDIS_URL == "" {
		slog.Warn("REDIS_URL not set, running without the job lock")
		return func() {}, nil
	}

	locker, err := joblock.NewLocker(ctx, conf.REDIS_URL, lockTTL)
	if err != nil {
		return nil, err
	}

	lease, err := locker.Acquire(ctx, job)
	if err != nil {
		_ = locker.Close()
		if errors.Is(err, joblock.ErrLocked) {
			return nil, fmt.Errorf("another %s run holds %s: %w", job, joblock.Key(job), err)
		}
		return nil, err
	}

	return func() {
		if err := lease.Release(context.Background()); err != nil {
			slog.Error("Unable to release job lock", slog.Any("error", err))
		}
		_ = locker.Close()
	}, nil
}

func writeReport(path string, res *reconcile.Result) error {
	body, err := json.ConfigStd.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to encode reconcile report: %w", err)
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("unable to write reconcile report: %w", err)
	}
	slog.Info("Wrote reconcile report", slog.String("path", path))
	return nil
}

func printSummary(res *reconcile.Result) {
	fmt.Printf("scanned %d logs, updated %d logs (%d entries), skipped %d, failed %d, orphaned entries %d\n",
		res.ScannedLogs, res.UpdatedLogs, res.UpdatedEntryCount, res.SkippedLogs, res.FailedLogs, res.OrphanedEntries)
	if res.DryRun {
		fmt.Println("dry run: nothing was saved")
	}
	for _, m := range res.Matches {
		fmt.Printf("  %s -> %s (%s) x%d\n", m.From, m.To, m.Method, m.Count)
	}
	if len(res.UnmatchedNames) > 0 {
		fmt.Printf("unmatched names (%d):\n", len(res.UnmatchedNames))
		for _, name := range res.UnmatchedNames {
			fmt.Printf("  %s\n", name)
		}
	}
}

// Register the "reconcile" command
func init() {
	reconcileCmd.Flags().String("mapping", "", "YAML rename mapping (defaults to RENAME_MAPPING_PATH)")
	reconcileCmd.Flags().Bool("dry-run", false, "Compute the result without saving")
	reconcileCmd.Flags().String("report", "", "Write the result as JSON to this file")
	reconcileCmd.Flags().Int("page-size", reconcile.DefaultPageSize, "Task logs read per page")

	reconcileRenameCmd.Flags().String("project", "", "Project id")
	reconcileRenameCmd.Flags().Bool("dry-run", false, "Compute the result without saving")
	_ = reconcileRenameCmd.MarkFlagRequired("project")
	reconcileCmd.AddCommand(reconcileRenameCmd)

	rootCmd.AddCommand(reconcileCmd)
}
