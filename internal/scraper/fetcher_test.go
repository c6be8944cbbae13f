package scraper

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/shopsift/internal/fingerprint"
	"github.com/FranksOps/shopsift/internal/gate"
	"github.com/FranksOps/shopsift/pkg/useragent"
)

func TestFetcher_Success(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "TestBrowser/1.0" {
			t.Errorf("expected User-Agent header, got %q", r.Header.Get("User-Agent"))
		}
		if r.Header.Get("Accept") != useragent.AcceptJSON {
			t.Errorf("expected JSON accept header, got %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"country":"IN"}`))
	}))
	defer ts.Close()

	fetcher, err := NewFetcher(FetchConfig{
		Pipeline:    "test",
		Timeout:     5 * time.Second,
		Fingerprint: fingerprint.ProfileGo,
		UAPool:      useragent.NewPool([]string{"TestBrowser/1.0"}),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer fetcher.Close()

	res := fetcher.Fetch(context.Background(), ts.URL+"/meta.json", useragent.AcceptJSON)

	if !res.OK() {
		t.Fatalf("expected ok outcome, got %s (%s)", res.Outcome, res.Err)
	}
	if res.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", res.StatusCode)
	}
	if string(res.Body) != `{"country":"IN"}` {
		t.Errorf("unexpected body %s", string(res.Body))
	}
	if res.ContentType() != "application/json" {
		t.Errorf("unexpected content type %q", res.ContentType())
	}
	if res.Duration == 0 {
		t.Errorf("expected non-zero duration")
	}
	if res.ID == "" {
		t.Errorf("expected non-empty UUID")
	}
	if res.Err != "" {
		t.Errorf("expected no error text, got %q", res.Err)
	}
}

func TestFetcher_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	fetcher, _ := NewFetcher(FetchConfig{
		Timeout:     10 * time.Millisecond,
		Fingerprint: fingerprint.ProfileGo,
	})

	res := fetcher.Fetch(context.Background(), ts.URL, "")

	if res.Outcome != OutcomeTimeout {
		t.Errorf("expected timeout outcome, got %s (%s)", res.Outcome, res.Err)
	}
	if res.Body != nil {
		t.Errorf("expected no body on timeout")
	}
}

func TestFetcher_HTTPErrorDropsBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", "cloudflare")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("cf-browser-verification"))
	}))
	defer ts.Close()

	fetcher, _ := NewFetcher(FetchConfig{Fingerprint: fingerprint.ProfileGo})

	res := fetcher.Fetch(context.Background(), ts.URL, "")
	if res.Outcome != OutcomeHTTPError {
		t.Fatalf("expected http_error, got %s", res.Outcome)
	}
	if res.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403, got %d", res.StatusCode)
	}
	if res.Body != nil {
		t.Errorf("expected body to be dropped for http_error")
	}
	if res.Gate != gate.Cloudflare {
		t.Errorf("expected cloudflare gate, got %q", res.Gate)
	}
	if !strings.Contains(res.Err, "403") {
		t.Errorf("expected status in error text, got %q", res.Err)
	}
}

func TestFetcher_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	fetcher, _ := NewFetcher(FetchConfig{Timeout: 2 * time.Second, Fingerprint: fingerprint.ProfileGo})

	res := fetcher.Fetch(context.Background(), "http://"+addr+"/", "")
	if res.Outcome != OutcomeConnectionError {
		t.Errorf("expected connection_error, got %s (%s)", res.Outcome, res.Err)
	}
	if res.StatusCode != 0 {
		t.Errorf("expected no status, got %d", res.StatusCode)
	}
}

func TestFetcher_BodyCap(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 1000)))
	}))
	defer ts.Close()

	fetcher, _ := NewFetcher(FetchConfig{Fingerprint: fingerprint.ProfileGo, MaxBodyBytes: 100})

	res := fetcher.Fetch(context.Background(), ts.URL, "")
	if !res.OK() {
		t.Fatalf("expected ok, got %s", res.Outcome)
	}
	if len(res.Body) != 100 {
		t.Errorf("expected body capped at 100 bytes, got %d", len(res.Body))
	}
}

func TestFetcher_InvalidURL(t *testing.T) {
	fetcher, _ := NewFetcher(FetchConfig{Fingerprint: fingerprint.ProfileGo})

	res := fetcher.Fetch(context.Background(), "://bad", "")
	if res.OK() {
		t.Fatalf("expected failure for invalid URL")
	}
	if res.Err == "" {
		t.Errorf("expected error text")
	}
}
