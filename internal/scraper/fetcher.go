package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/FranksOps/shopsift/internal/fingerprint"
	"github.com/FranksOps/shopsift/internal/gate"
	"github.com/FranksOps/shopsift/internal/metrics"
	"github.com/FranksOps/shopsift/pkg/httpclient"
	"github.com/FranksOps/shopsift/pkg/ratelimit"
	"github.com/FranksOps/shopsift/pkg/useragent"
	"github.com/google/uuid"
)

// DefaultMaxBodyBytes caps how much of a response body is read.
const DefaultMaxBodyBytes int64 = 5 << 20

// FetchConfig configures the Fetcher shared by one batch.
type FetchConfig struct {
	// Pipeline labels metrics, e.g. "locale".
	Pipeline     string
	Timeout      time.Duration
	MaxRedirects int
	MaxBodyBytes int64
	// MaxConns sizes the idle pool to the batch fan-out.
	MaxConns    int
	UAPool      *useragent.Pool
	Fingerprint fingerprint.Profile
	Limiter     *ratelimit.Limiter
	Detectors   []gate.Detector
	// Transport replaces the fingerprinted transport. Tests route requests
	// to in-process handlers through it.
	Transport http.RoundTripper
}

// FetchResult is the outcome of a single GET.
type FetchResult struct {
	ID         string
	URL        string
	Outcome    Outcome
	StatusCode int
	Header     http.Header
	// Body is only retained when Outcome is OutcomeOK.
	Body      []byte
	Gate      gate.Gate
	Duration  time.Duration
	FetchedAt time.Time
	// Err is the failure text for non-ok outcomes.
	Err string
}

// OK reports whether the fetch produced a 2xx response with a body.
func (r *FetchResult) OK() bool {
	return r != nil && r.Outcome == OutcomeOK
}

// ContentType returns the response Content-Type, if any.
func (r *FetchResult) ContentType() string {
	if r == nil || r.Header == nil {
		return ""
	}
	return r.Header.Get("Content-Type")
}

// Fetcher performs single URL fetches for a batch. It holds one client and
// transport for its lifetime so connections are pooled across the batch.
type Fetcher struct {
	config FetchConfig
	client *httpclient.Client
}

// NewFetcher initializes a new Fetcher with the given configuration.
func NewFetcher(cfg FetchConfig) (*Fetcher, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil)
	}
	if cfg.Detectors == nil {
		cfg.Detectors = gate.DefaultDetectors()
	}
	if cfg.Pipeline == "" {
		cfg.Pipeline = "default"
	}

	transport := cfg.Transport
	if transport == nil {
		var err error
		transport, err = fingerprint.Transport(fingerprint.Options{
			Profile:      cfg.Fingerprint,
			MaxIdleConns: cfg.MaxConns,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to setup transport: %w", err)
		}
	}

	client := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		Transport:    transport,
	})

	return &Fetcher{
		config: cfg,
		client: client,
	}, nil
}

// Fetch executes a GET request to targetURL. Failures never surface as Go
// errors: they are recorded on the returned result's Outcome and Err.
// accept selects the Accept header (useragent.AcceptHTML when empty).
func (f *Fetcher) Fetch(ctx context.Context, targetURL, accept string) *FetchResult {
	start := time.Now()
	result := &FetchResult{
		ID:        uuid.NewString(),
		URL:       targetURL,
		FetchedAt: start.UTC(),
	}
	defer func() {
		result.Duration = time.Since(start)
		metrics.RecordFetch(f.config.Pipeline, string(result.Outcome), result.StatusCode, result.Duration, len(result.Body))
	}()

	if err := f.config.Limiter.Wait(ctx); err != nil {
		result.fail(ClassifyError(err), fmt.Errorf("rate limiter: %w", err))
		return result
	}

	inFlight := metrics.InFlight.WithLabelValues(f.config.Pipeline)
	inFlight.Inc()
	resp, err := f.client.Get(ctx, targetURL, f.config.UAPool.Header(accept))
	inFlight.Dec()
	if err != nil {
		result.fail(ClassifyError(err), err)
		return result
	}
	defer resp.Body.Close()

	result.StatusCode = resp.StatusCode
	result.Header = resp.Header

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodyBytes))
	if err != nil {
		result.fail(ClassifyError(err), fmt.Errorf("read body: %w", err))
		return result
	}

	result.Gate = gate.Detect(gate.Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, f.config.Detectors)

	result.Outcome = ClassifyStatus(resp.StatusCode)
	if result.Outcome != OutcomeOK {
		result.Err = fmt.Sprintf("unexpected status code: %d", resp.StatusCode)
		return result
	}

	result.Body = body
	return result
}

func (r *FetchResult) fail(o Outcome, err error) {
	r.Outcome = o
	r.Err = err.Error()
}

// Close releases pooled connections at the end of a batch.
func (f *Fetcher) Close() {
	f.client.Close()
}
