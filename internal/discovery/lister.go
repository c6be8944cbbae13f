package discovery

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/FranksOps/shopsift/internal/scraper"
	"github.com/PuerkitoBio/goquery"
)

// DefaultBaseURL is the directory site listing Shopify stores by zone.
const DefaultBaseURL = "https://onshopify.com"

const entrySelector = ".col-lg-4.col-md-4.col-sm-12"

// Lister enumerates store domains for a zone from a paginated directory.
type Lister interface {
	// LastPage returns the highest page number listed for zone.
	LastPage(ctx context.Context, zone string) (int, error)
	// Page returns the domains on one page in page order. A failed fetch
	// yields no domains; the result records why.
	Page(ctx context.Context, zone string, page int) ([]string, *scraper.FetchResult)
}

// Directory is a Lister over the onshopify.com page layout.
type Directory struct {
	BaseURL string
	Fetcher *scraper.Fetcher
	// Robots, when set, is consulted before each listing page fetch.
	Robots *RobotsAuditor
}

// NewDirectory returns a Directory; an empty baseURL means DefaultBaseURL.
func NewDirectory(baseURL string, fetcher *scraper.Fetcher) *Directory {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Directory{BaseURL: strings.TrimRight(baseURL, "/"), Fetcher: fetcher}
}

// ZoneURL is the first listing page of a zone.
func (d *Directory) ZoneURL(zone string) string {
	return fmt.Sprintf("%s/domain-zone/%s/", d.BaseURL, zone)
}

// PageURL is listing page n of a zone.
func (d *Directory) PageURL(zone string, page int) string {
	return fmt.Sprintf("%s/domain-zone/%s/%d", d.BaseURL, zone, page)
}

func (d *Directory) LastPage(ctx context.Context, zone string) (int, error) {
	res := d.Fetcher.Fetch(ctx, d.ZoneURL(zone), "")
	if !res.OK() {
		if res.Outcome == scraper.OutcomeHTTPError && res.StatusCode == 404 {
			return 0, fmt.Errorf("%w: %s", ErrNoPages, zone)
		}
		return 0, fmt.Errorf("fetch %s: %s: %s", res.URL, res.Outcome, res.Err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", res.URL, err)
	}

	n := lastPageNumber(doc)
	if n < 1 {
		return 0, fmt.Errorf("%w: %s", ErrNoPages, zone)
	}
	return n, nil
}

// lastPageNumber reads the last pagination item. When it is a "next" arrow
// rather than a number, the highest numbered item wins.
func lastPageNumber(doc *goquery.Document) int {
	items := doc.Find(".pagination").First().Find("li")
	if items.Length() == 0 {
		return 0
	}
	if n, err := strconv.Atoi(strings.TrimSpace(items.Last().Text())); err == nil {
		return n
	}

	highest := 0
	items.Each(func(_ int, li *goquery.Selection) {
		if n, err := strconv.Atoi(strings.TrimSpace(li.Text())); err == nil && n > highest {
			highest = n
		}
	})
	return highest
}

func (d *Directory) Page(ctx context.Context, zone string, page int) ([]string, *scraper.FetchResult) {
	target := d.PageURL(zone, page)
	if d.Robots != nil {
		if ok, err := d.Robots.IsAllowed(ctx, target); err == nil && !ok {
			return nil, &scraper.FetchResult{URL: target, Outcome: scraper.OutcomeUnknown, Err: "disallowed by robots.txt"}
		}
	}

	res := d.Fetcher.Fetch(ctx, target, "")
	if !res.OK() {
		return nil, res
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		return nil, res
	}
	return ParseEntries(doc, zone), res
}

// ParseEntries returns the listing entries whose text ends in ".<zone>".
func ParseEntries(doc *goquery.Document, zone string) []string {
	suffix := "." + zone
	var out []string
	doc.Find(entrySelector).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if strings.HasSuffix(strings.ToLower(text), suffix) {
			out = append(out, text)
		}
	})
	return out
}
