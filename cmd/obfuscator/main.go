// Package main implements the obfuscator CLI. It uses the cobra package for
// CLI implementation, the same library and flag-struct-per-command
// convention as the teacher's cmd/smf, collapsed to a single root command
// since the engine exposes one operation (run a mapping document) rather
// than several subcommands.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kraklabs/obfuscator/internal/checkpoint"
	"github.com/kraklabs/obfuscator/internal/dbio"
	"github.com/kraklabs/obfuscator/internal/engine"
	"github.com/kraklabs/obfuscator/internal/errs"
	"github.com/kraklabs/obfuscator/internal/mapping"
	"github.com/kraklabs/obfuscator/internal/refintegrity"
)

// Exit codes, per §6: 0 success, 2 config error, 3 DB connectivity error,
// 4 partial failure (the run completed with at least one table Failed), 5
// user-cancelled.
const (
	exitOK             = 0
	exitConfigError    = 2
	exitConnectivity   = 3
	exitPartialFailure = 4
	exitCancelled      = 5
)

type runFlags struct {
	dryRun         bool
	resume         bool
	fresh          bool
	validateOnly   bool
	verifyMappings bool
	profile        string
	metricsAddr    string
	noProgress     bool
	checkpointDir  string
	failureLogDir  string
	cacheDir       string
	reportDir      string
}

func main() {
	os.Exit(run())
}

func run() int {
	flags := &runFlags{}

	rootCmd := &cobra.Command{
		Use:   "obfuscator <mapping.json>",
		Short: "Deterministic, resumable, in-place PII obfuscation engine",
		Long: `obfuscator rewrites PII columns declared in a mapping document with
deterministic, format-plausible synthetic values, in place, resuming
cleanly if interrupted.

Examples:
  obfuscator mapping.json
  obfuscator mapping.json --dry-run
  obfuscator mapping.json --resume
  obfuscator mapping.json --fresh
  obfuscator mapping.json --validate-only
  obfuscator mapping.json --verify-mappings`,
		Args: cobra.ExactArgs(1),
	}

	rootCmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Validate and build statements without committing any write")
	rootCmd.Flags().BoolVar(&flags.resume, "resume", false, "Resume from an existing checkpoint without prompting")
	rootCmd.Flags().BoolVar(&flags.fresh, "fresh", false, "Discard any existing checkpoint and start over")
	rootCmd.Flags().BoolVar(&flags.validateOnly, "validate-only", false, "Parse and validate the mapping document, then exit")
	rootCmd.Flags().BoolVar(&flags.verifyMappings, "verify-mappings", false, "Resolve referential integrity and report without running the obfuscation pipeline")
	rootCmd.Flags().StringVar(&flags.profile, "profile", "", "Path to a local TOML profile overlaying Global fields")
	rootCmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
	rootCmd.Flags().BoolVar(&flags.noProgress, "no-progress", false, "Disable the interactive progress bar even on a terminal")
	rootCmd.Flags().StringVar(&flags.checkpointDir, "checkpoint-dir", "checkpoints", "Directory for checkpoint files")
	rootCmd.Flags().StringVar(&flags.failureLogDir, "failure-log-dir", "logs/failures", "Directory for failure log files")
	rootCmd.Flags().StringVar(&flags.cacheDir, "cache-dir", "mapping_cache", "Directory for the persisted mapping cache")
	rootCmd.Flags().StringVar(&flags.reportDir, "report-dir", "reports", "Directory for run report files")

	exitCode := exitOK
	rootCmd.RunE = func(_ *cobra.Command, args []string) error {
		code, err := runMapping(args[0], flags)
		exitCode = code
		return err
	}
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		if exitCode == exitOK {
			exitCode = exitConfigError
		}
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
	}
	return exitCode
}

func runMapping(path string, flags *runFlags) (int, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	loaded, err := mapping.LoadWithProfile(path, flags.profile)
	if err != nil {
		return codeForError(err), err
	}

	if flags.validateOnly {
		fmt.Println(color.GreenString("mapping document is valid (configHash=%s)", loaded.ConfigHash))
		return exitOK, nil
	}

	if flags.verifyMappings {
		return verifyMappings(loaded.Document, logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	installSignalHandler(cancel, logger)

	var dryRunOverride *bool
	if flags.dryRun {
		v := true
		dryRunOverride = &v
	}

	coordinator := &engine.Coordinator{
		Doc:        loaded.Document,
		ConfigHash: loaded.ConfigHash,
		Opts: engine.Options{
			DryRunOverride: dryRunOverride,
			Resume:         flags.resume,
			Fresh:          flags.fresh,
			CheckpointDir:  flags.checkpointDir,
			FailureLogDir:  flags.failureLogDir,
			CacheDir:       flags.cacheDir,
			ReportDir:      flags.reportDir,
			MetricsAddr:    flags.metricsAddr,
			NoProgress:     flags.noProgress,
			Confirm:        askConfirmation,
			Logger:         logger,
		},
	}

	summary, err := coordinator.Run(ctx)
	if summary != nil {
		printSummary(summary)
	}
	if err != nil {
		if ctx.Err() != nil {
			return exitCancelled, fmt.Errorf("run cancelled: %w", err)
		}
		return codeForError(err), err
	}
	if summary != nil && summary.Status == checkpoint.RunFailed {
		return exitPartialFailure, nil
	}
	return exitOK, nil
}

// verifyMappings implements --verify-mappings: it resolves referential
// integrity without running the obfuscation pipeline. When the mapping's
// connection string is reachable, the resolution also runs §4.H's
// DB-backed original-value equality check; when it is not, verification
// falls back to the rewrite-only check so --verify-mappings stays usable
// without a live database.
func verifyMappings(doc *mapping.MappingDocument, logger *slog.Logger) (int, error) {
	ctx := context.Background()

	backend, err := dbio.GetBackend(dbio.Type(doc.Global.Dialect))
	if err != nil {
		return exitConfigError, err
	}

	db, err := backend.Open(ctx, doc.Global.ConnectionString)
	if err != nil {
		logger.Warn("verify-mappings: could not connect to database; skipping original-value comparison", "err", err)
		if err := refintegrity.Resolve(ctx, doc, nil, nil, logger); err != nil {
			return exitConfigError, err
		}
		fmt.Println(color.GreenString("referential integrity relationships resolved cleanly (no database connection; original values not compared)"))
		return exitOK, nil
	}
	defer db.Close()

	if err := refintegrity.Resolve(ctx, doc, db, backend, logger); err != nil {
		return exitConfigError, err
	}
	fmt.Println(color.GreenString("referential integrity relationships resolved cleanly"))
	return exitOK, nil
}

// installSignalHandler implements §5's cooperative cancellation: the first
// SIGINT/SIGTERM cancels ctx so in-flight workers drain their current batch
// and stop; a second signal exits immediately with exitCancelled.
func installSignalHandler(cancel context.CancelFunc, logger *slog.Logger) {
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Warn("shutdown.signal", "detail", "cooperative cancellation requested; draining in-flight batches")
		cancel()

		<-sigChan
		logger.Error("shutdown.signal", "detail", "second signal received; exiting immediately")
		os.Exit(exitCancelled)
	}()
}

func askConfirmation(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}

func printSummary(s *engine.Summary) {
	fmt.Println()
	if s.Status == checkpoint.RunCompleted {
		color.Green("Run complete (runId=%s)", s.RunID)
	} else {
		color.Yellow("Run finished with failures (runId=%s)", s.RunID)
	}
	fmt.Printf("Database: %s\n", s.DatabaseName)
	fmt.Printf("Rows processed: %d\n", s.TotalRows)
	if s.TotalFailed > 0 {
		color.Red("Rows failed: %d (see %s)", s.TotalFailed, s.FailureLog)
	}
	if s.CacheDegraded {
		color.Yellow("Mapping cache degraded to pass-through mode during this run")
	}
	if s.DryRun {
		fmt.Println(color.CyanString("Dry run: no writes were committed"))
	}
	fmt.Printf("Duration: %s\n", s.Duration)
}

func codeForError(err error) int {
	var connErr *errs.ConnectivityError
	if errors.As(err, &connErr) {
		return exitConnectivity
	}
	return exitConfigError
}
