package signal

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MetaPath is the Shopify storefront metadata endpoint.
const MetaPath = "/meta.json"

// Meta is the subset of /meta.json used for classification. Fields that are
// missing or of an unexpected type stay empty.
type Meta struct {
	ID               string
	Name             string
	Country          string
	Currency         string
	MoneyFormat      string
	MyshopifyDomain  string
	ShipsToCountries []string
}

// ParseMeta decodes a /meta.json body. Each field is decoded on its own so a
// malformed field leaves the rest intact; only a body that is not a JSON
// object returns an error.
func ParseMeta(body []byte) (Meta, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return Meta{}, fmt.Errorf("decode meta.json: %w", err)
	}

	m := Meta{
		ID:              rawScalar(raw["id"]),
		Name:            rawString(raw["name"]),
		Country:         firstNonEmpty(rawString(raw["country_code"]), rawString(raw["country"])),
		Currency:        rawString(raw["currency"]),
		MoneyFormat:     rawString(raw["money_format"]),
		MyshopifyDomain: rawString(raw["myshopify_domain"]),
	}

	var ships []string
	if v, ok := raw["ships_to_countries"]; ok && json.Unmarshal(v, &ships) == nil {
		m.ShipsToCountries = ships
	}

	return m, nil
}

// ExtractMeta derives indicators from parsed metadata.
func ExtractMeta(m Meta, opts Options) IndicatorSet {
	s := IndicatorSet{
		ShopID:      m.ID,
		CountryCode: strings.ToUpper(strings.TrimSpace(m.Country)),
		Currency:    strings.ToUpper(strings.TrimSpace(m.Currency)),
	}

	s.CountryCodeIN = isIndia(m.Country)
	s.CurrencyINR = s.Currency == "INR"
	s.ShopIDPattern = opts.matchesShopID(m.ID)
	s.RupeeSymbol = hasRupee(m.MoneyFormat)

	for _, c := range m.ShipsToCountries {
		if isIndia(c) {
			s.ShipsToIndia = true
			break
		}
	}
	return s
}

func rawString(v json.RawMessage) string {
	if len(v) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// rawScalar accepts a JSON number or string.
func rawScalar(v json.RawMessage) string {
	if len(v) == 0 {
		return ""
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String()
	}
	return rawString(v)
}
