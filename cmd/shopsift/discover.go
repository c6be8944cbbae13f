package main

import (
	"time"

	"github.com/FranksOps/shopsift/internal/discovery"
	"github.com/FranksOps/shopsift/internal/report"
	"github.com/spf13/cobra"
)

func newDiscoverCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "discover <zone> [last-page]",
		Short: "List store domains for a domain zone from the directory site",
		Long: `Fetch the directory's listing pages for a domain zone (for example "in"
or ".com") and write shopify_domains_<zone>_<timestamp>.csv. Without
last-page, the last page is read from the zone's pagination.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			ctx := cmd.Context()

			// Validate arguments before any network activity.
			zone, err := discovery.NormalizeZone(args[0])
			if err != nil {
				return err
			}
			lastPage := 0
			if len(args) == 2 {
				if lastPage, err = discovery.ParseLastPage(args[1]); err != nil {
					return err
				}
			}

			backend, err := a.backends(ctx)
			if err != nil {
				return err
			}
			defer backend.Close()

			fetcher, err := a.fetcher(discovery.PipelineName, a.cfg.Timeout.Discovery)
			if err != nil {
				return err
			}
			defer fetcher.Close()

			dir := discovery.NewDirectory(a.cfg.Discovery.BaseURL, fetcher)
			if a.cfg.Discovery.RespectRobots {
				dir.Robots = discovery.NewRobotsAuditor(fetcher, "", a.logger)
			}

			res, err := discovery.Run(ctx, dir, discovery.Config{
				Zone:        zone,
				LastPage:    lastPage,
				Concurrency: a.cfg.Concurrency,
				RunID:       a.runID,
				Now:         start,
			}, a.logger)
			if err != nil {
				return err
			}

			return a.save(ctx, backend, report.Discovery(res, start), res.Table)
		},
	}
}
