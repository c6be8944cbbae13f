package discovery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/FranksOps/shopsift/internal/domains"
	"github.com/FranksOps/shopsift/internal/scraper"
)

func listingPage(entries ...string) string {
	var sb strings.Builder
	sb.WriteString(`<html><body><div class="row">`)
	for _, e := range entries {
		fmt.Fprintf(&sb, `<div class="col-lg-4 col-md-4 col-sm-12"><a href="/site/%[1]s">%[1]s</a></div>`, e)
	}
	sb.WriteString(`</div></body></html>`)
	return sb.String()
}

// directoryServer serves a three page "in" zone. Page 2 is slow so it
// completes last.
func directoryServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/domain-zone/in/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/domain-zone/in/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><body><ul class="pagination"><li>1</li><li>2</li><li>3</li></ul></body></html>`)
	})
	mux.HandleFunc("/domain-zone/in/1", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPage("alpha.in", "not-a-match.com", "beta.in"))
	})
	mux.HandleFunc("/domain-zone/in/2", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		fmt.Fprint(w, listingPage("gamma.in"))
	})
	mux.HandleFunc("/domain-zone/in/3", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPage("delta.in", "Epsilon.IN"))
	})
	mux.HandleFunc("/domain-zone/xx/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>No domains</p></body></html>`)
	})
	mux.HandleFunc("/domain-zone/arrow/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<ul class="pagination"><li>1</li><li>7</li><li>&raquo;</li></ul>`)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestRun(t *testing.T) {
	ts := directoryServer(t)
	dir := NewDirectory(ts.URL, newTestFetcher(t))
	now := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

	res, err := Run(context.Background(), dir, Config{Zone: ".IN", Concurrency: 3, RunID: "r", Now: now}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Zone != "in" || res.LastPage != 3 {
		t.Errorf("zone/last = %s/%d", res.Zone, res.LastPage)
	}
	want := []Listing{
		{"alpha.in", 1}, {"beta.in", 1}, {"gamma.in", 2}, {"delta.in", 3}, {"Epsilon.IN", 3},
	}
	if !slices.Equal(res.Listings, want) {
		t.Errorf("Listings = %v, want %v", res.Listings, want)
	}
	if res.Table.Name != "shopify_domains_in_20240506_070809" {
		t.Errorf("table name = %s", res.Table.Name)
	}
	if len(res.Table.Rows) != 5 || res.Table.Rows[2][0] != "gamma.in" || res.Table.Rows[2][1] != "2" {
		t.Errorf("unexpected rows: %v", res.Table.Rows)
	}
}

func TestRun_ExplicitLastPageInclusive(t *testing.T) {
	ts := directoryServer(t)
	dir := NewDirectory(ts.URL, newTestFetcher(t))

	res, err := Run(context.Background(), dir, Config{Zone: "in", LastPage: 2}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Listings) != 3 || res.Listings[2].Page != 2 {
		t.Errorf("expected pages 1 and 2, got %v", res.Listings)
	}
}

func TestRun_FailedPage(t *testing.T) {
	ts := directoryServer(t)
	dir := NewDirectory(ts.URL, newTestFetcher(t))

	res, err := Run(context.Background(), dir, Config{Zone: "in", LastPage: 4}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !slices.Equal(res.FailedPages, []int{4}) {
		t.Errorf("FailedPages = %v", res.FailedPages)
	}
	if len(res.Listings) != 5 {
		t.Errorf("expected rows from good pages, got %d", len(res.Listings))
	}
}

func TestRun_NoPages(t *testing.T) {
	ts := directoryServer(t)
	dir := NewDirectory(ts.URL, newTestFetcher(t))

	_, err := Run(context.Background(), dir, Config{Zone: "xx"}, nil)
	if !errors.Is(err, ErrNoPages) || !errors.Is(err, domains.ErrInput) {
		t.Errorf("expected ErrNoPages input error, got %v", err)
	}

	_, err = Run(context.Background(), dir, Config{Zone: "missing"}, nil)
	if !errors.Is(err, ErrNoPages) {
		t.Errorf("expected ErrNoPages for 404 zone, got %v", err)
	}
}

func TestRun_InvalidZone(t *testing.T) {
	var called bool
	lister := listerFunc(func() { called = true })

	_, err := Run(context.Background(), lister, Config{Zone: "in/../x"}, nil)
	if !errors.Is(err, ErrInvalidZone) {
		t.Errorf("expected ErrInvalidZone, got %v", err)
	}
	if called {
		t.Error("no network activity expected for an invalid zone")
	}
}

func TestDirectory_LastPageArrow(t *testing.T) {
	ts := directoryServer(t)
	dir := NewDirectory(ts.URL+"/", newTestFetcher(t))

	n, err := dir.LastPage(context.Background(), "arrow")
	if err != nil {
		t.Fatalf("LastPage: %v", err)
	}
	if n != 7 {
		t.Errorf("LastPage = %d, want 7", n)
	}
}

func TestDirectory_RobotsDisallow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "User-agent: *\nDisallow: /domain-zone/in/2\n")
	})
	mux.HandleFunc("/domain-zone/in/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listingPage(strings.TrimPrefix(r.URL.Path, "/domain-zone/in/")+".in"))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	fetcher := newTestFetcher(t)
	dir := NewDirectory(ts.URL, fetcher)
	dir.Robots = NewRobotsAuditor(fetcher, "", nil)

	res, err := Run(context.Background(), dir, Config{Zone: "in", LastPage: 3}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !slices.Equal(res.FailedPages, []int{2}) {
		t.Errorf("FailedPages = %v, want [2]", res.FailedPages)
	}
	if len(res.Listings) != 2 || res.Listings[0].Domain != "1.in" || res.Listings[1].Domain != "3.in" {
		t.Errorf("Listings = %v", res.Listings)
	}
}

func TestNormalizeZone(t *testing.T) {
	valid := map[string]string{"in": "in", ".IN": "in", " com ": "com", "co.uk": "co.uk", "xn--p1ai": "xn--p1ai"}
	for in, want := range valid {
		got, err := NormalizeZone(in)
		if err != nil || got != want {
			t.Errorf("NormalizeZone(%q) = %q, %v", in, got, err)
		}
	}
	for _, in := range []string{"", ".", "in/", "-in", "in-", "a b", "..in", "in."} {
		if _, err := NormalizeZone(in); !errors.Is(err, ErrInvalidZone) {
			t.Errorf("NormalizeZone(%q) err = %v, want ErrInvalidZone", in, err)
		}
	}
}

func TestParseLastPage(t *testing.T) {
	if n, err := ParseLastPage("12"); err != nil || n != 12 {
		t.Errorf("ParseLastPage(12) = %d, %v", n, err)
	}
	for _, in := range []string{"0", "-3", "ten", ""} {
		if _, err := ParseLastPage(in); !errors.Is(err, ErrInvalidLastPage) || !errors.Is(err, domains.ErrInput) {
			t.Errorf("ParseLastPage(%q) err = %v", in, err)
		}
	}
}

type listerFunc func()

func (f listerFunc) LastPage(context.Context, string) (int, error) {
	f()
	return 1, nil
}

func (f listerFunc) Page(context.Context, string, int) ([]string, *scraper.FetchResult) {
	f()
	return nil, &scraper.FetchResult{Outcome: scraper.OutcomeOK}
}
