package main

import (
	"time"

	"github.com/FranksOps/shopsift/internal/domains"
	"github.com/FranksOps/shopsift/internal/probe"
	"github.com/FranksOps/shopsift/internal/report"
	"github.com/spf13/cobra"
)

func newProbeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <domains.csv>",
		Short: "Check storefront liveness and the VerifyPass integration",
		Long: `Fetch the root page of every domain in the input CSV and write
domain_check_results_<timestamp>.csv (every domain) and
verifypass_domains_<timestamp>.csv (domains with the integration).`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			ctx := cmd.Context()

			cands, err := domains.Load(args[0])
			if err != nil {
				return err
			}

			backend, err := a.backends(ctx)
			if err != nil {
				return err
			}
			defer backend.Close()

			fetcher, err := a.fetcher(probe.PipelineName, a.cfg.Timeout.Probe)
			if err != nil {
				return err
			}
			defer fetcher.Close()

			res := probe.Run(ctx, fetcher, cands, probe.Config{
				Concurrency: a.cfg.Concurrency,
				RunID:       a.runID,
				Now:         start,
			}, a.logger)

			return a.save(ctx, backend, report.Probe(res.Records, start), res.Results, res.VerifyPass)
		},
	}
}
