package main

import (
	"time"

	"github.com/FranksOps/shopsift/internal/domains"
	"github.com/FranksOps/shopsift/internal/locale"
	"github.com/FranksOps/shopsift/internal/report"
	"github.com/spf13/cobra"
)

func newLocaleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "locale <domains.csv>",
		Short: "Classify storefronts as likely or unlikely India-operated",
		Long: `Fetch /meta.json and the storefront page of every domain in the input
CSV, score the India-locale indicators and write
indian_shopify_domains_<timestamp>.csv with one row per input domain.`,
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

			fetcher, err := a.fetcher(locale.PipelineName, a.cfg.Timeout.Locale)
			if err != nil {
				return err
			}
			defer fetcher.Close()

			res := locale.Run(ctx, fetcher, cands, locale.Config{
				Concurrency: a.cfg.Concurrency,
				Options:     a.cfg.SignalOptions(),
				RunID:       a.runID,
				Now:         start,
			}, a.logger)

			return a.save(ctx, backend, report.Locale(res.Records, start), res.Table)
		},
	}
}
