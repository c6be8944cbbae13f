package signal

import (
	"bytes"
	"encoding/json"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

var (
	reLocale      = regexp.MustCompile(`Shopify\.locale\s*=\s*["']([^"']+)["']`)
	reCountry     = regexp.MustCompile(`Shopify\.country\s*=\s*["']([A-Za-z]{2})["']`)
	reShopObject  = regexp.MustCompile(`Shopify\.shop\s*=\s*(\{[^}]+\})`)
	reShopID      = regexp.MustCompile(`"shopId"\s*:\s*(\d+)`)
	reWalletID    = regexp.MustCompile(`/(\d+)/digital_wallets`)
	reWalletShop  = regexp.MustCompile(`/shop/(\d+)`)
	reCurrency    = regexp.MustCompile(`Shopify\.currency\s*=\s*\{[^}]*"active"\s*:\s*"([A-Za-z]{3})"`)
	reCurrencyINR = []*regexp.Regexp{
		regexp.MustCompile(`Shopify\.currency\.active\s*=\s*["']INR["']`),
		regexp.MustCompile(`\bcurrency:\s*["']INR["']`),
		regexp.MustCompile(`defaultCurrency:\s*["']INR["']`),
		regexp.MustCompile(`"priceCurrency"\s*:\s*"INR"`),
	}
)

const priceSelector = `.price, .money, [class*="price"], [data-price]`

// ExtractStorefront derives indicators from storefront HTML. contentType is
// the response Content-Type, used to pick the body charset. Unparseable
// markup degrades to the indicators the raw text still yields.
func ExtractStorefront(body []byte, contentType string, opts Options) IndicatorSet {
	var s IndicatorSet
	text := decode(body, contentType)
	if text == "" {
		return s
	}

	if m := reLocale.FindStringSubmatch(text); m != nil {
		s.Locale = m[1]
		s.LocaleIN = isIndianLocale(m[1])
	}
	if m := reCountry.FindStringSubmatch(text); m != nil {
		s.CountryCode = strings.ToUpper(m[1])
		s.CountryCodeIN = isIndia(m[1])
	}
	if m := reShopObject.FindStringSubmatch(text); m != nil {
		var shop struct {
			CountryCode string `json:"country_code"`
		}
		if json.Unmarshal([]byte(m[1]), &shop) == nil && shop.CountryCode != "" {
			s.CountryCode = firstNonEmpty(s.CountryCode, strings.ToUpper(shop.CountryCode))
			s.CountryCodeIN = s.CountryCodeIN || isIndia(shop.CountryCode)
		}
	}
	if m := reCurrency.FindStringSubmatch(text); m != nil {
		s.Currency = strings.ToUpper(m[1])
		s.CurrencyINR = s.Currency == "INR"
	}
	for _, re := range reCurrencyINR {
		if !s.CurrencyINR && re.MatchString(text) {
			s.CurrencyINR = true
			s.Currency = "INR"
			break
		}
	}
	if m := reShopID.FindStringSubmatch(text); m != nil {
		s.ShopID = m[1]
	}

	lower := strings.ToLower(text)
	for _, pm := range MatchPhrases(lower, opts.Phrases) {
		s.ShippingText = append(s.ShippingText, pm.Phrase)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err == nil {
		extractDOM(doc, &s)
	}

	s.ShopIDPattern = opts.matchesShopID(s.ShopID)
	return s
}

func extractDOM(doc *goquery.Document, s *IndicatorSet) {
	if lang, ok := doc.Find("html").First().Attr("lang"); ok && isIndianLocale(lang) {
		setIndianLocale(s, lang)
	}

	doc.Find("meta").Each(func(_ int, m *goquery.Selection) {
		content := strings.TrimSpace(m.AttrOr("content", ""))
		prop := m.AttrOr("property", "")
		name := m.AttrOr("name", "")

		switch {
		case prop == "og:locale":
			if isIndianLocale(content) {
				setIndianLocale(s, content)
			}
		case prop == "og:price:currency" || prop == "product:price:currency":
			if strings.EqualFold(content, "INR") {
				s.CurrencyINR = true
				s.Currency = "INR"
			}
		case name == "shopify-digital-wallet":
			if s.ShopID != "" {
				return
			}
			if w := reWalletID.FindStringSubmatch(content); w != nil {
				s.ShopID = w[1]
			} else if w := reWalletShop.FindStringSubmatch(content); w != nil {
				s.ShopID = w[1]
			}
		}
	})

	doc.Find(priceSelector).EachWithBreak(func(_ int, p *goquery.Selection) bool {
		if hasRupee(p.Text()) {
			s.RupeeSymbol = true
			return false
		}
		return true
	})
}

// setIndianLocale records an IN-region tag, replacing a bare language tag
// seen earlier but keeping an earlier IN-region one.
func setIndianLocale(s *IndicatorSet, tag string) {
	s.LocaleIN = true
	if !isIndianLocale(s.Locale) {
		s.Locale = tag
	}
}

// decode converts body to UTF-8 text using the declared or sniffed charset.
func decode(body []byte, contentType string) string {
	if len(body) == 0 {
		return ""
	}
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return string(body)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return string(body)
	}
	return string(out)
}
