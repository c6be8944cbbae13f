// Package locale classifies storefronts as likely or unlikely India-operated.
package locale

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/FranksOps/shopsift/internal/classify"
	"github.com/FranksOps/shopsift/internal/domains"
	"github.com/FranksOps/shopsift/internal/metrics"
	"github.com/FranksOps/shopsift/internal/pipeline"
	"github.com/FranksOps/shopsift/internal/scraper"
	"github.com/FranksOps/shopsift/internal/signal"
	"github.com/FranksOps/shopsift/internal/storage"
	"github.com/FranksOps/shopsift/pkg/useragent"
)

// PipelineName labels metrics and logs.
const PipelineName = "locale"

// TableKind names the locale output table.
const TableKind = "indian_shopify_domains"

// Header is the column order of the locale table.
var Header = append([]string{
	"domain",
	"shop_id",
	"country_code",
	"confidence_score",
	"classification",
	"outcome",
}, signal.Names...)

// Fetcher is the part of scraper.Fetcher the pipeline needs.
type Fetcher interface {
	Fetch(ctx context.Context, targetURL, accept string) *scraper.FetchResult
}

// Classifier fetches and classifies single domains.
type Classifier struct {
	fetcher Fetcher
	opts    signal.Options
	logger  *slog.Logger
}

// NewClassifier returns a Classifier using opts for extraction.
func NewClassifier(f Fetcher, opts signal.Options, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{fetcher: f, opts: opts, logger: logger}
}

// Classify fetches /meta.json and the storefront root of c and scores the
// merged indicators. The record is ok when either fetch succeeded;
// otherwise it carries the storefront fetch's outcome.
func (cl *Classifier) Classify(ctx context.Context, c domains.Candidate) classify.Record {
	meta := cl.fetcher.Fetch(ctx, domains.Join(c.URL, signal.MetaPath), useragent.AcceptJSON)
	page := cl.fetcher.Fetch(ctx, c.URL, useragent.AcceptHTML)

	var set signal.IndicatorSet
	if meta.OK() {
		m, err := signal.ParseMeta(meta.Body)
		if err != nil {
			cl.logger.Debug("meta.json unparseable", "domain", c.Raw, "err", err)
		} else {
			set = signal.ExtractMeta(m, cl.opts)
		}
	}
	if page.OK() {
		set = signal.Merge(set, signal.ExtractStorefront(page.Body, page.ContentType(), cl.opts))
	}

	outcome := page.Outcome
	if meta.OK() || page.OK() {
		outcome = scraper.OutcomeOK
	} else {
		cl.logger.Debug("domain unreachable", "domain", c.Raw, "outcome", page.Outcome,
			"status", page.StatusCode, "err", page.Err)
	}

	return classify.Classify(c.Raw, outcome, set)
}

// Row renders a record as a table row aligned with Header.
func Row(r classify.Record) []string {
	row := []string{
		r.Domain,
		r.Indicators.ShopID,
		r.Indicators.CountryCode,
		strconv.Itoa(r.Score),
		r.Classification,
		string(r.Outcome),
	}
	return append(row, r.Indicators.Values()...)
}

// Config controls one locale run.
type Config struct {
	Concurrency int
	Options     signal.Options
	RunID       string
	Now         time.Time
}

// Result is the outcome of a locale run. Records are in input order.
type Result struct {
	Records []classify.Record
	Table   *storage.Table
}

// Run classifies every candidate with at most cfg.Concurrency domains in
// flight. Each input produces exactly one record.
func Run(ctx context.Context, f Fetcher, cands []domains.Candidate, cfg Config, logger *slog.Logger) *Result {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	logger.Info("locale started", "domains", len(cands), "concurrency", cfg.Concurrency)

	cl := NewClassifier(f, cfg.Options, logger)
	progress := pipeline.NewProgress(PipelineName, len(cands), cfg.Concurrency, logger)
	records := pipeline.Map(ctx, cands, cfg.Concurrency, func(ctx context.Context, _ int, c domains.Candidate) classify.Record {
		defer progress.Done()
		rec := cl.Classify(ctx, c)
		if rec.IsLikely() {
			logger.Info("india-operated store", "domain", rec.Domain, "score", rec.Score,
				"shop_id", rec.Indicators.ShopID, "country", rec.Indicators.CountryCode)
		}
		return rec
	})

	out := &Result{
		Records: records,
		Table:   storage.NewTable(cfg.RunID, TableKind, cfg.Now, Header),
	}
	likely := 0
	for _, r := range records {
		_ = out.Table.Append(Row(r))
		if r.IsLikely() {
			likely++
		}
		metrics.RecordOutput(PipelineName, r.Classification)
	}

	logger.Info("locale finished", "domains", len(records), "likely", likely)
	return out
}
