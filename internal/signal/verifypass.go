package signal

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// VerifyPassMarkers are the substrings whose presence in storefront HTML
// (lowercased) indicates the VerifyPass integration.
var VerifyPassMarkers = []string{
	"verifypass.com",
	"verifypass.js",
	"verifypass-shopify",
	"data-verifypass",
}

// DetectVerifyPass returns the VerifyPass markers found in body, or nil.
// Substring markers come first, then DOM matches prefixed with "dom:".
func DetectVerifyPass(body []byte) []string {
	if len(body) == 0 {
		return nil
	}
	lower := bytes.ToLower(body)

	var found []string
	for _, m := range VerifyPassMarkers {
		if bytes.Contains(lower, []byte(m)) {
			found = append(found, m)
		}
	}

	// Markup is lowered before parsing so attribute selectors match any case.
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(lower))
	if err != nil {
		return found
	}
	if doc.Find(`script[src*="verifypass"]`).Length() > 0 {
		found = append(found, "dom:script")
	}
	if doc.Find(`[data-verifypass], [id*="verifypass"], [class*="verifypass"]`).Length() > 0 {
		found = append(found, "dom:element")
	}
	return found
}

// HasVerifyPass reports whether any marker is present.
func HasVerifyPass(markers []string) bool {
	return len(markers) > 0
}

// JoinMarkers renders markers for a CSV cell.
func JoinMarkers(markers []string) string {
	return strings.Join(markers, ";")
}
