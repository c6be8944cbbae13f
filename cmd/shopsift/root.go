package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/FranksOps/shopsift/internal/config"
	"github.com/FranksOps/shopsift/internal/metrics"
	"github.com/FranksOps/shopsift/internal/report"
	"github.com/FranksOps/shopsift/internal/scraper"
	"github.com/FranksOps/shopsift/internal/storage"
	"github.com/FranksOps/shopsift/internal/storage/csvbackend"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// app carries what every subcommand shares for one invocation.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Server
	runID   string
	stdout  io.Writer
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "shopsift",
		Short:        "Discover, probe and classify Shopify storefronts",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.metrics.Stop(context.Background())
		},
	}

	root.AddCommand(
		newDiscoverCmd(a),
		newProbeCmd(a),
		newLocaleCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(os.Getenv("SHOPSIFT_CONFIG"))
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	a.cfg = cfg
	a.logger = logger
	a.runID = uuid.NewString()
	a.stdout = cmd.OutOrStdout()
	a.metrics = metrics.Start(cfg.Metrics.Port, logger)
	if cfg.Metrics.Port > 0 {
		logger.Info("metrics server listening", "port", cfg.Metrics.Port)
	}
	return nil
}

func newLogger(cfg config.LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// fetcher builds the Fetcher for one pipeline.
func (a *app) fetcher(pipelineName string, timeout time.Duration) (*scraper.Fetcher, error) {
	f, err := scraper.NewFetcher(a.cfg.FetchConfig(pipelineName, timeout))
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}
	return f, nil
}

// backends opens the CSV output backend plus the configured archive. It runs
// before any fetch so a broken sink fails the run early.
func (a *app) backends(ctx context.Context) (storage.Backend, error) {
	out, err := csvbackend.New(a.cfg.Output.Dir)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	archive, err := openArchive(ctx, a.cfg.Archive)
	if err != nil {
		return nil, err
	}
	if archive == nil {
		return out, nil
	}
	a.logger.Info("archiving tables", "driver", a.cfg.Archive.Driver)
	return storage.Multi(out, archive), nil
}

// save writes every table to backend, then prints the run summary with
// the file names added.
func (a *app) save(ctx context.Context, backend storage.Backend, summary report.Summary, tables ...*storage.Table) error {
	for _, t := range tables {
		if err := backend.Save(ctx, t); err != nil {
			return fmt.Errorf("save %s: %w", t.Name, err)
		}
		path := csvbackend.Path(a.cfg.Output.Dir, t)
		summary.Files = append(summary.Files, path)
		a.logger.Info("output written", "file", path, "rows", len(t.Rows))
	}

	return report.Write(a.stdout, a.cfg.Report.Format, summary)
}
