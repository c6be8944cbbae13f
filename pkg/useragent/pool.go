package useragent

import (
	"net/http"
	"sync/atomic"
)

const (
	// AcceptHTML is what a desktop browser sends for a page navigation.
	AcceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8"
	// AcceptJSON is used for storefront JSON endpoints such as /meta.json.
	AcceptJSON = "application/json,text/plain;q=0.9,*/*;q=0.5"
	// AcceptLanguage is sent on every request.
	AcceptLanguage = "en-US,en;q=0.5"
)

// DefaultPool provides a realistic set of modern desktop browser User-Agents.
var DefaultPool = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.0.0",
}

// Pool hands out request headers, rotating the User-Agent round robin.
type Pool struct {
	uas     []string
	counter atomic.Uint64
}

// NewPool creates a new pool. If the provided slice is empty,
// it falls back to DefaultPool.
func NewPool(uas []string) *Pool {
	if len(uas) == 0 {
		uas = DefaultPool
	}
	copied := make([]string, len(uas))
	copy(copied, uas)
	return &Pool{uas: copied}
}

// Next returns the next User-Agent in round-robin order.
// It is safe for concurrent use.
func (p *Pool) Next() string {
	idx := p.counter.Add(1) - 1
	return p.uas[idx%uint64(len(p.uas))]
}

// Header builds a fresh header set for one request with the given Accept value.
// An empty accept falls back to AcceptHTML.
func (p *Pool) Header(accept string) http.Header {
	if accept == "" {
		accept = AcceptHTML
	}
	h := make(http.Header, 3)
	h.Set("User-Agent", p.Next())
	h.Set("Accept", accept)
	h.Set("Accept-Language", AcceptLanguage)
	return h
}

// Len reports how many User-Agents the pool rotates through.
func (p *Pool) Len() int {
	return len(p.uas)
}
