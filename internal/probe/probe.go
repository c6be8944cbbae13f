// Package probe checks storefronts for liveness and for the VerifyPass
// integration.
package probe

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/FranksOps/shopsift/internal/domains"
	"github.com/FranksOps/shopsift/internal/gate"
	"github.com/FranksOps/shopsift/internal/metrics"
	"github.com/FranksOps/shopsift/internal/pipeline"
	"github.com/FranksOps/shopsift/internal/scraper"
	"github.com/FranksOps/shopsift/internal/signal"
	"github.com/FranksOps/shopsift/internal/storage"
	"github.com/FranksOps/shopsift/pkg/useragent"
)

// PipelineName labels metrics and logs.
const PipelineName = "probe"

// Table kinds written by a probe run.
const (
	ResultsTable    = "domain_check_results"
	VerifyPassTable = "verifypass_domains"
)

var (
	// ResultsHeader is the column order of the results table.
	ResultsHeader = []string{"domain", "status", "has_integration", "valid", "outcome", "markers", "gate", "error"}
	// VerifyPassHeader is the column order of the VerifyPass subset.
	VerifyPassHeader = []string{"domain", "status"}
)

// Record is the probe result for one domain.
type Record struct {
	Domain         string
	Outcome        scraper.Outcome
	StatusCode     int
	Valid          bool
	HasIntegration bool
	Markers        []string
	Gate           gate.Gate
	Err            string
}

// Status is the HTTP status, or the outcome name when no response arrived.
func (r Record) Status() string {
	if r.StatusCode > 0 {
		return strconv.Itoa(r.StatusCode)
	}
	return string(r.Outcome)
}

// Fetcher is the part of scraper.Fetcher a probe needs.
type Fetcher interface {
	Fetch(ctx context.Context, targetURL, accept string) *scraper.FetchResult
}

// Check probes one candidate: GET the storefront root, mark it valid on a
// 2xx response and look for VerifyPass markers in the body.
func Check(ctx context.Context, f Fetcher, c domains.Candidate) Record {
	res := f.Fetch(ctx, c.URL, useragent.AcceptHTML)

	rec := Record{
		Domain:     c.Raw,
		Outcome:    res.Outcome,
		StatusCode: res.StatusCode,
		Valid:      res.OK(),
		Gate:       res.Gate,
		Err:        res.Err,
	}
	if rec.Valid {
		rec.Markers = signal.DetectVerifyPass(res.Body)
		rec.HasIntegration = signal.HasVerifyPass(rec.Markers)
	}
	return rec
}

// Config controls one probe run.
type Config struct {
	Concurrency int
	RunID       string
	Now         time.Time
}

// Result is the outcome of a probe run. Records are in input order.
type Result struct {
	Records    []Record
	Results    *storage.Table
	VerifyPass *storage.Table
}

// Run probes every candidate with at most cfg.Concurrency requests in flight.
func Run(ctx context.Context, f Fetcher, cands []domains.Candidate, cfg Config, logger *slog.Logger) *Result {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	logger.Info("probe started", "domains", len(cands), "concurrency", cfg.Concurrency)

	progress := pipeline.NewProgress(PipelineName, len(cands), cfg.Concurrency, logger)
	records := pipeline.Map(ctx, cands, cfg.Concurrency, func(ctx context.Context, _ int, c domains.Candidate) Record {
		defer progress.Done()
		rec := Check(ctx, f, c)
		if !rec.Valid {
			logger.Debug("probe failed", "domain", rec.Domain, "outcome", rec.Outcome, "status", rec.StatusCode, "err", rec.Err)
		} else if rec.HasIntegration {
			logger.Info("verifypass detected", "domain", rec.Domain, "markers", rec.Markers)
		}
		return rec
	})

	out := &Result{
		Records:    records,
		Results:    storage.NewTable(cfg.RunID, ResultsTable, cfg.Now, ResultsHeader),
		VerifyPass: storage.NewTable(cfg.RunID, VerifyPassTable, cfg.Now, VerifyPassHeader),
	}
	valid, integrated := 0, 0
	for _, r := range records {
		_ = out.Results.Append([]string{
			r.Domain,
			r.Status(),
			strconv.FormatBool(r.HasIntegration),
			strconv.FormatBool(r.Valid),
			string(r.Outcome),
			signal.JoinMarkers(r.Markers),
			string(r.Gate),
			r.Err,
		})
		label := string(r.Outcome)
		if r.Valid {
			valid++
		}
		if r.HasIntegration {
			integrated++
			label = "verifypass"
			_ = out.VerifyPass.Append([]string{r.Domain, r.Status()})
		}
		metrics.RecordOutput(PipelineName, label)
	}

	logger.Info("probe finished", "domains", len(records), "valid", valid, "verifypass", integrated)
	return out
}
