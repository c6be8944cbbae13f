package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"github.com/FranksOps/shopsift/internal/scraper"
	"github.com/temoto/robotstxt"
)

// DefaultRobotsAgent is the agent name matched against robots.txt groups.
const DefaultRobotsAgent = "shopsift"

// RobotsAuditor fetches and caches robots.txt per host and answers whether a
// listing URL may be fetched.
type RobotsAuditor struct {
	fetcher *scraper.Fetcher
	agent   string
	logger  *slog.Logger
	mu      sync.Mutex
	cache   map[string]*robotstxt.RobotsData
}

// NewRobotsAuditor creates an auditor matching rules for agent
// (DefaultRobotsAgent when empty).
func NewRobotsAuditor(fetcher *scraper.Fetcher, agent string, logger *slog.Logger) *RobotsAuditor {
	if logger == nil {
		logger = slog.Default()
	}
	if agent == "" {
		agent = DefaultRobotsAgent
	}
	return &RobotsAuditor{
		fetcher: fetcher,
		agent:   agent,
		logger:  logger,
		cache:   make(map[string]*robotstxt.RobotsData),
	}
}

// IsAllowed reports whether targetURL may be fetched. A host whose
// robots.txt is missing or unreachable allows everything.
func (r *RobotsAuditor) IsAllowed(ctx context.Context, targetURL string) (bool, error) {
	u, err := url.Parse(targetURL)
	if err != nil {
		return false, fmt.Errorf("invalid url: %w", err)
	}

	data := r.robotsFor(ctx, u.Scheme+"://"+u.Host)
	if data == nil {
		return true, nil
	}
	return data.TestAgent(u.EscapedPath(), r.agent), nil
}

func (r *RobotsAuditor) robotsFor(ctx context.Context, host string) *robotstxt.RobotsData {
	r.mu.Lock()
	defer r.mu.Unlock()

	if data, ok := r.cache[host]; ok {
		return data
	}

	data, err := r.fetch(ctx, host)
	if err != nil {
		r.logger.Debug("robots.txt unavailable, allowing all", "host", host, "err", err)
	}
	r.cache[host] = data
	return data
}

func (r *RobotsAuditor) fetch(ctx context.Context, host string) (*robotstxt.RobotsData, error) {
	res := r.fetcher.Fetch(ctx, host+"/robots.txt", "text/plain")
	switch {
	case res.Outcome == scraper.OutcomeHTTPError && res.StatusCode < 500:
		// 4xx: no rules.
		return nil, nil
	case !res.OK():
		return nil, fmt.Errorf("fetch robots.txt: %s: %s", res.Outcome, res.Err)
	}

	parsed, err := robotstxt.FromBytes(res.Body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}
	return parsed, nil
}
