// Package discovery enumerates Shopify store domains listed on a directory
// site for one domain zone.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/FranksOps/shopsift/internal/metrics"
	"github.com/FranksOps/shopsift/internal/pipeline"
	"github.com/FranksOps/shopsift/internal/storage"
)

// PipelineName labels metrics and logs.
const PipelineName = "discovery"

// Header is the column order of the discovery table.
var Header = []string{"domain", "page_number"}

// Listing is one domain found on a directory page.
type Listing struct {
	Domain string
	Page   int
}

// Config controls one discovery run.
type Config struct {
	Zone string
	// LastPage is the last directory page to fetch, inclusive. Zero means
	// read it from the zone's pagination.
	LastPage    int
	Concurrency int
	RunID       string
	Now         time.Time
}

// Result is the outcome of a discovery run.
type Result struct {
	Zone        string
	LastPage    int
	Listings    []Listing
	FailedPages []int
	Table       *storage.Table
}

// Run validates the zone, resolves the last page and fetches pages
// 1..LastPage. Listings are ordered by page, then by position on the page.
// Only zone and pagination problems return an error; a page that fails to
// load contributes no rows.
func Run(ctx context.Context, lister Lister, cfg Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	zone, err := NormalizeZone(cfg.Zone)
	if err != nil {
		return nil, err
	}
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}

	last := cfg.LastPage
	if last < 0 {
		return nil, fmt.Errorf("%w: %d is less than 1", ErrInvalidLastPage, last)
	}
	if last == 0 {
		last, err = lister.LastPage(ctx, zone)
		if err != nil {
			return nil, fmt.Errorf("find last page: %w", err)
		}
	}
	logger.Info("discovery started", "zone", zone, "last_page", last)

	pages := make([]int, last)
	for i := range pages {
		pages[i] = i + 1
	}

	type pageResult struct {
		domains []string
		failed  bool
	}

	progress := pipeline.NewProgress(PipelineName, len(pages), cfg.Concurrency, logger)
	results := pipeline.Map(ctx, pages, cfg.Concurrency, func(ctx context.Context, _ int, page int) pageResult {
		defer progress.Done()

		domains, res := lister.Page(ctx, zone, page)
		if !res.OK() {
			logger.Debug("page fetch failed", "zone", zone, "page", page,
				"outcome", res.Outcome, "status", res.StatusCode, "err", res.Err)
			return pageResult{failed: true}
		}
		return pageResult{domains: domains}
	})

	out := &Result{
		Zone:     zone,
		LastPage: last,
		Table:    storage.NewTable(cfg.RunID, "shopify_domains_"+zone, cfg.Now, Header),
	}
	for i, r := range results {
		page := pages[i]
		if r.failed {
			out.FailedPages = append(out.FailedPages, page)
			continue
		}
		for _, d := range r.domains {
			out.Listings = append(out.Listings, Listing{Domain: d, Page: page})
			_ = out.Table.Append([]string{d, strconv.Itoa(page)})
			metrics.RecordOutput(PipelineName, "listed")
		}
	}

	logger.Info("discovery finished", "zone", zone, "pages", last,
		"failed_pages", len(out.FailedPages), "domains", len(out.Listings))
	return out, nil
}
