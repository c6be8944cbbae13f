// Package domains loads candidate store domains from CSV input.
package domains

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrInput marks failures reading the input file. They abort a run before
// any network activity.
var ErrInput = errors.New("input error")

// Candidate is one domain from the input, in input order.
type Candidate struct {
	Index int
	// Raw is the value exactly as read, used for the output domain column.
	Raw string
	// URL is the storefront root, https:// unless the input named a scheme.
	URL string
}

// Load reads candidates from the CSV file at path.
func Load(path string) ([]Candidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInput, err)
	}
	defer f.Close()

	cands, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInput, path, err)
	}
	return cands, nil
}

// Read parses CSV input. The domain is the first column unless the first row
// is a header naming a "domain" column, in which case that column is used and
// the header skipped. Blank cells are skipped; duplicates are kept.
func Read(r io.Reader) ([]Candidate, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	col := 0
	first := true
	var out []Candidate

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if first {
			first = false
			if idx := headerColumn(record); idx >= 0 {
				col = idx
				continue
			}
		}

		if col >= len(record) {
			continue
		}
		raw := strings.TrimSpace(strings.TrimPrefix(record[col], "\ufeff"))
		if raw == "" {
			continue
		}

		out = append(out, Candidate{
			Index: len(out),
			Raw:   raw,
			URL:   StorefrontURL(raw),
		})
	}

	return out, nil
}

func headerColumn(record []string) int {
	for i, cell := range record {
		cell = strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff"))
		if strings.EqualFold(cell, "domain") {
			return i
		}
	}
	return -1
}

// StorefrontURL turns a domain into its storefront root URL. Values that
// already carry an http(s) scheme keep it; trailing slashes are dropped.
func StorefrontURL(domain string) string {
	d := strings.TrimSpace(domain)
	d = strings.TrimRight(d, "/")
	lower := strings.ToLower(d)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return d
	}
	return "https://" + d
}

// Join appends path to a storefront root URL.
func Join(root, path string) string {
	return strings.TrimRight(root, "/") + "/" + strings.TrimLeft(path, "/")
}
