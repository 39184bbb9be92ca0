package main

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joosthooz/smarttimers/pkg/clock"
	"github.com/joosthooz/smarttimers/pkg/config"
	"github.com/joosthooz/smarttimers/pkg/logger"
	"github.com/joosthooz/smarttimers/pkg/timer"
)

const (
	durationDisplayUnits = 2

	demoStepDelay = 20 * time.Millisecond
)

var demoWorkers int

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a sample timed workload",
	Long: `Run a sample workload that exercises consecutive, nested, and
label-paired timed blocks, then print the timing report.`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().IntVarP(
		&demoWorkers,
		"workers",
		"w",
		1,
		"Number of concurrent worker sessions to merge",
	)
}

func runDemo(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	session, err := newSession(cfg, log)
	if err != nil {
		return err
	}

	start := time.Now()

	if demoWorkers > 1 {
		err = runWorkers(session, cfg, log, demoWorkers)
	} else {
		err = runWorkload(session)
	}

	if err != nil {
		return errors.Wrap(err, "demo workload failed")
	}

	warnSlowIntervals(session, cfg, log)

	fmt.Fprint(cmd.OutOrStdout(), session.String())
	fmt.Fprintf(cmd.OutOrStdout(), "Completed in %s.\n", formatDuration(time.Since(start)))

	return exportReport(cmd, session, cfg, log)
}

// newSession builds a timing session from the loaded configuration.
func newSession(cfg *config.Config, log logger.Logger) (*timer.Session, error) {
	return buildSession(cfg.GetSession().Name, cfg.GetSession().Clock, log)
}

// buildSession builds a timing session from plain values, so callers on
// other goroutines never touch the shared config.
func buildSession(name, clockID string, log logger.Logger) (*timer.Session, error) {
	opts := []timer.Option{timer.WithLogger(log)}

	if name != "" {
		opts = append(opts, timer.WithName(name))
	}

	if clockID != "" {
		opts = append(opts, timer.WithClock(clock.DefaultRegistry(), clockID))
	}

	session, err := timer.New(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create session")
	}

	return session, nil
}

// runWorkload times a sample workload with every pairing scheme.
func runWorkload(session *timer.Session) error {
	// Consecutive blocks
	session.Tic("setup")
	time.Sleep(demoStepDelay)

	if _, err := session.Toc(""); err != nil {
		return err
	}

	// Nested blocks, closed innermost first
	session.Tic("outer")
	session.Tic("inner")
	time.Sleep(demoStepDelay)

	if _, err := session.Toc(""); err != nil {
		return err
	}

	if _, err := session.Toc(""); err != nil {
		return err
	}

	// Label-paired blocks closed out of order
	session.Tic("read")
	session.Tic("decode")
	time.Sleep(demoStepDelay)

	if _, err := session.Toc("read"); err != nil {
		return err
	}

	if _, err := session.Toc("decode"); err != nil {
		return err
	}

	// Callback-wrapped block
	return session.Measure("teardown", func() error {
		time.Sleep(demoStepDelay)

		return nil
	})
}

// runWorkers runs the workload in concurrent sessions and merges the
// results into the main session.
func runWorkers(
	session *timer.Session,
	cfg *config.Config,
	log logger.Logger,
	workers int,
) error {
	// Snapshot before spawning: the lazy config accessors write on first
	// use, so workers must not share the Config.
	name := cfg.GetSession().Name
	clockID := cfg.GetSession().Clock

	var (
		group errgroup.Group
		mu    sync.Mutex
	)

	for i := range workers {
		worker := i

		group.Go(func() error {
			workerSession, err := buildSession(name, clockID, log.With("worker", worker))
			if err != nil {
				return err
			}

			if err := runWorkload(workerSession); err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()

			return session.Merge(workerSession)
		})
	}

	return group.Wait()
}

// warnSlowIntervals logs intervals slower than the configured threshold.
func warnSlowIntervals(session *timer.Session, cfg *config.Config, log logger.Logger) {
	threshold := cfg.GetSession().WarnThreshold.ToDuration()
	if threshold <= 0 {
		return
	}

	for _, lt := range session.Times() {
		if lt.Elapsed > threshold {
			log.Error("interval exceeded warn threshold",
				"label", lt.Label,
				"elapsed", lt.Elapsed.String(),
				"threshold", threshold.String(),
			)
		}
	}
}

// exportReport writes the report to the configured export path, if any.
func exportReport(
	cmd *cobra.Command,
	session *timer.Session,
	cfg *config.Config,
	log logger.Logger,
) error {
	exportCfg := cfg.GetExport()
	if exportCfg.Path == "" {
		return nil
	}

	if err := session.ExportFile(exportCfg.Path, exportCfg.IsAppendEnabled()); err != nil {
		return errors.Wrap(err, "failed to export report")
	}

	size := "unknown"
	if info, err := os.Stat(exportCfg.Path); err == nil {
		size = humanize.Bytes(uint64(info.Size())) //nolint:gosec // file size is non-negative
	}

	log.Info("report exported", "path", exportCfg.Path, "size", size)
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %s (%s).\n", exportCfg.Path, size)

	return nil
}

func formatDuration(d time.Duration) string {
	return durafmt.Parse(d).LimitFirstN(durationDisplayUnits).String()
}
