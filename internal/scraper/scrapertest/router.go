// Package scrapertest routes Fetcher requests to in-process handlers so
// pipelines can be exercised against many storefront hosts in one test.
package scrapertest

import (
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/FranksOps/shopsift/internal/scraper"
	"github.com/FranksOps/shopsift/pkg/useragent"
)

type behaviour int

const (
	serve behaviour = iota
	refuse
	hang
)

type route struct {
	kind    behaviour
	handler http.Handler
}

// Router is an http.RoundTripper keyed by request host. Unknown hosts fail
// DNS resolution.
type Router struct {
	mu     sync.RWMutex
	routes map[string]route
	hits   map[string]int
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{routes: make(map[string]route), hits: make(map[string]int)}
}

// Handle serves requests for host with h.
func (r *Router) Handle(host string, h http.Handler) *Router {
	return r.set(host, route{kind: serve, handler: h})
}

// HandleFunc serves requests for host with f.
func (r *Router) HandleFunc(host string, f func(http.ResponseWriter, *http.Request)) *Router {
	return r.Handle(host, http.HandlerFunc(f))
}

// Refuse makes connections to host fail with ECONNREFUSED.
func (r *Router) Refuse(host string) *Router {
	return r.set(host, route{kind: refuse})
}

// Hang makes requests to host block until the request is cancelled.
func (r *Router) Hang(host string) *Router {
	return r.set(host, route{kind: hang})
}

func (r *Router) set(host string, rt route) *Router {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[host] = rt
	return r
}

// Hits returns how many requests reached host.
func (r *Router) Hits(host string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hits[host]
}

func (r *Router) RoundTrip(req *http.Request) (*http.Response, error) {
	host := req.URL.Hostname()

	r.mu.Lock()
	rt, ok := r.routes[host]
	r.hits[host]++
	r.mu.Unlock()

	if !ok {
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: &net.DNSError{Err: "no such host", Name: host, IsNotFound: true}}
	}

	switch rt.kind {
	case refuse:
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)}
	case hang:
		<-req.Context().Done()
		return nil, req.Context().Err()
	}

	rec := httptest.NewRecorder()
	rt.handler.ServeHTTP(rec, req)
	resp := rec.Result()
	resp.Request = req
	return resp, nil
}

// Fetcher returns a Fetcher whose requests go through r. It is closed when
// the test ends.
func (r *Router) Fetcher(t testing.TB, pipeline string, timeout time.Duration) *scraper.Fetcher {
	t.Helper()
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	f, err := scraper.NewFetcher(scraper.FetchConfig{
		Pipeline:  pipeline,
		Timeout:   timeout,
		UAPool:    useragent.NewPool([]string{"shopsift-test/1.0"}),
		Transport: r,
	})
	if err != nil {
		t.Fatalf("NewFetcher: %v", err)
	}
	t.Cleanup(f.Close)
	return f
}
