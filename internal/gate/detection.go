package gate

import (
	"bytes"
	"net/http"
	"strings"
)

// Gate names what a storefront response shows in place of the shop itself.
type Gate string

const (
	None          Gate = ""
	Cloudflare    Gate = "cloudflare_challenge"
	Password      Gate = "password_page"
	Unavailable   Gate = "shop_unavailable"
	Akamai        Gate = "akamai_block"
	DataDome      Gate = "datadome_block"
	GenericDenied Gate = "access_denied"
)

// Response is the part of an HTTP response detectors look at.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Detector reports whether a response is fronted by its gate.
type Detector func(res Response) (detected bool, gate Gate)

// DefaultDetectors returns the detectors run on every storefront fetch,
// most specific first.
func DefaultDetectors() []Detector {
	return []Detector{
		detectPassword,
		detectUnavailable,
		detectCloudflare,
		detectAkamai,
		detectDataDome,
		detectDenied,
	}
}

// Detect runs the response through detectors and returns the first gate
// that triggers, or None.
func Detect(res Response, detectors []Detector) Gate {
	for _, d := range detectors {
		if detected, g := d(res); detected {
			return g
		}
	}
	return None
}

func header(res Response, key string) string {
	if res.Header == nil {
		return ""
	}
	return res.Header.Get(key)
}

// detectPassword matches Shopify's storefront password page. Shopify serves it
// with 200 or 401 after redirecting to /password.
func detectPassword(res Response) (bool, Gate) {
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusUnauthorized {
		return false, None
	}
	if bytes.Contains(res.Body, []byte(`action="/password"`)) ||
		bytes.Contains(res.Body, []byte("template-password")) ||
		bytes.Contains(res.Body, []byte("password-page")) {
		return true, Password
	}
	return false, None
}

// detectUnavailable matches the page Shopify shows for closed or unpaid shops.
func detectUnavailable(res Response) (bool, Gate) {
	if res.StatusCode != http.StatusPaymentRequired && res.StatusCode != http.StatusNotFound &&
		res.StatusCode != http.StatusLocked {
		return false, None
	}
	lower := bytes.ToLower(res.Body)
	if bytes.Contains(lower, []byte("this shop is currently unavailable")) ||
		bytes.Contains(lower, []byte("this store does not exist")) ||
		bytes.Contains(lower, []byte("only one step left")) {
		return true, Unavailable
	}
	return false, None
}

// detectCloudflare looks for Cloudflare challenge/block signatures.
func detectCloudflare(res Response) (bool, Gate) {
	if res.StatusCode != http.StatusForbidden && res.StatusCode != http.StatusServiceUnavailable &&
		res.StatusCode != http.StatusTooManyRequests {
		return false, None
	}
	if strings.Contains(strings.ToLower(header(res, "Server")), "cloudflare") || header(res, "Cf-Mitigated") != "" {
		return true, Cloudflare
	}
	if bytes.Contains(res.Body, []byte("cf-browser-verification")) ||
		bytes.Contains(res.Body, []byte("cf-turnstile")) ||
		bytes.Contains(res.Body, []byte("challenge-platform")) ||
		bytes.Contains(res.Body, []byte("Attention Required! | Cloudflare")) {
		return true, Cloudflare
	}
	return false, None
}

// detectAkamai looks for Akamai Bot Manager block pages.
func detectAkamai(res Response) (bool, Gate) {
	if res.StatusCode != http.StatusForbidden {
		return false, None
	}
	if strings.Contains(strings.ToLower(header(res, "Server")), "akamai") {
		return true, Akamai
	}
	if bytes.Contains(res.Body, []byte("Reference #")) && bytes.Contains(res.Body, []byte("Access Denied")) {
		return true, Akamai
	}
	return false, None
}

// detectDataDome looks for DataDome challenge signatures.
func detectDataDome(res Response) (bool, Gate) {
	if res.StatusCode != http.StatusForbidden {
		return false, None
	}
	if header(res, "X-DataDome") != "" || header(res, "X-DataDome-Response") != "" {
		return true, DataDome
	}
	if bytes.Contains(res.Body, []byte("geo.captcha-delivery.com")) {
		return true, DataDome
	}
	return false, None
}

func detectDenied(res Response) (bool, Gate) {
	if res.StatusCode == http.StatusForbidden {
		return true, GenericDenied
	}
	return false, None
}
