package signal

import (
	"strconv"
	"strings"
)

// Indicator names, in output column order.
const (
	CountryCodeIN     = "country_code_in"
	CurrencyINR       = "currency_inr"
	LocaleIN          = "locale_in"
	ShopIDPattern     = "shop_id_pattern"
	ShipsToIndia      = "ships_to_india"
	RupeeSymbol       = "rupee_symbol"
	ShippingTextMatch = "shipping_text_match"
)

// Names lists every indicator in output column order.
var Names = []string{
	CountryCodeIN,
	CurrencyINR,
	LocaleIN,
	ShopIDPattern,
	ShipsToIndia,
	RupeeSymbol,
	ShippingTextMatch,
}

// IndicatorSet holds the India-locale signals derived from one storefront.
// The zero value means every indicator is absent.
type IndicatorSet struct {
	CountryCodeIN bool
	CurrencyINR   bool
	LocaleIN      bool
	ShopIDPattern bool
	ShipsToIndia  bool
	RupeeSymbol   bool
	// ShippingText holds the shipping/locale phrases that matched.
	ShippingText []string

	ShopID      string
	CountryCode string
	Currency    string
	Locale      string
}

// Fired reports whether the named indicator is present.
func (s IndicatorSet) Fired(name string) bool {
	switch name {
	case CountryCodeIN:
		return s.CountryCodeIN
	case CurrencyINR:
		return s.CurrencyINR
	case LocaleIN:
		return s.LocaleIN
	case ShopIDPattern:
		return s.ShopIDPattern
	case ShipsToIndia:
		return s.ShipsToIndia
	case RupeeSymbol:
		return s.RupeeSymbol
	case ShippingTextMatch:
		return len(s.ShippingText) > 0
	}
	return false
}

// FiredNames returns the names of present indicators in column order.
func (s IndicatorSet) FiredNames() []string {
	var out []string
	for _, n := range Names {
		if s.Fired(n) {
			out = append(out, n)
		}
	}
	return out
}

// Values renders the indicators as output cells aligned with Names. Booleans
// print as true/false; the shipping text cell holds the matched phrases.
func (s IndicatorSet) Values() []string {
	out := make([]string, len(Names))
	for i, n := range Names {
		if n == ShippingTextMatch {
			out[i] = strings.Join(s.ShippingText, ";")
			continue
		}
		out[i] = strconv.FormatBool(s.Fired(n))
	}
	return out
}

// Merge combines two sets: booleans are OR-ed, extracted values keep a's
// when present, and matched phrases are unioned in first-seen order.
func Merge(a, b IndicatorSet) IndicatorSet {
	out := IndicatorSet{
		CountryCodeIN: a.CountryCodeIN || b.CountryCodeIN,
		CurrencyINR:   a.CurrencyINR || b.CurrencyINR,
		LocaleIN:      a.LocaleIN || b.LocaleIN,
		ShopIDPattern: a.ShopIDPattern || b.ShopIDPattern,
		ShipsToIndia:  a.ShipsToIndia || b.ShipsToIndia,
		RupeeSymbol:   a.RupeeSymbol || b.RupeeSymbol,
		ShopID:        firstNonEmpty(a.ShopID, b.ShopID),
		CountryCode:   firstNonEmpty(a.CountryCode, b.CountryCode),
		Currency:      firstNonEmpty(a.Currency, b.Currency),
		Locale:        firstNonEmpty(a.Locale, b.Locale),
	}

	seen := make(map[string]struct{}, len(a.ShippingText)+len(b.ShippingText))
	for _, p := range append(append([]string(nil), a.ShippingText...), b.ShippingText...) {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out.ShippingText = append(out.ShippingText, p)
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// IDRange is an inclusive shop id range.
type IDRange struct {
	Min int64 `mapstructure:"min"`
	Max int64 `mapstructure:"max"`
}

// Options tune extraction.
type Options struct {
	// ShopIDRanges are the shop id ranges treated as Indian-registered.
	// Empty disables the shop_id_pattern indicator.
	ShopIDRanges []IDRange
	// Phrases are matched case-insensitively against storefront HTML.
	Phrases []string
}

// DefaultPhrases are storefront phrases typical of Indian shops: address
// formats, India Post, COD and GST price notes.
var DefaultPhrases = []string{
	"pincode",
	"pin code",
	"pin-code",
	"postal-code-in",
	"india-zip",
	"india-post",
	"india post",
	"cash on delivery",
	"shipping across india",
	"all over india",
	"pan india",
	"inclusive of all taxes",
	"incl. gst",
	"gstin",
}

// DefaultOptions returns the default extraction options.
func DefaultOptions() Options {
	return Options{Phrases: DefaultPhrases}
}

func (o Options) matchesShopID(id string) bool {
	if id == "" || len(o.ShopIDRanges) == 0 {
		return false
	}
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return false
	}
	for _, r := range o.ShopIDRanges {
		if n >= r.Min && n <= r.Max {
			return true
		}
	}
	return false
}

// isIndianLocale reports whether a locale tag carries the IN region,
// e.g. en-IN, hi_IN.
func isIndianLocale(tag string) bool {
	tag = strings.TrimSpace(tag)
	parts := strings.FieldsFunc(tag, func(r rune) bool { return r == '-' || r == '_' })
	if len(parts) < 2 {
		return false
	}
	return strings.EqualFold(parts[len(parts)-1], "IN")
}

func isIndia(country string) bool {
	c := strings.TrimSpace(country)
	return strings.EqualFold(c, "IN") || strings.EqualFold(c, "India")
}

func hasRupee(s string) bool {
	return strings.Contains(s, "₹") ||
		strings.Contains(s, "Rs.") ||
		strings.Contains(s, "Rs ") ||
		strings.Contains(s, "INR")
}
