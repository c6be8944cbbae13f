package signal

import (
	"slices"
	"testing"
)

const indianStorefront = `<!doctype html>
<html lang="en-IN">
<head>
<meta property="og:locale" content="en_IN">
<meta property="og:price:currency" content="INR">
<meta name="shopify-digital-wallet" content="/51234567/digital_wallets/dialog">
<script>
  Shopify.shop = "shop-a.myshopify.com";
  Shopify.locale = "en";
  Shopify.currency = {"active":"INR","rate":"1.0"};
  Shopify.country = "IN";
</script>
</head>
<body>
<div class="product"><span class="price">₹ 1,499.00</span></div>
<p>Enter your PINCODE to check delivery. Cash on Delivery available.</p>
</body>
</html>`

func TestExtractStorefront_Indian(t *testing.T) {
	opts := Options{
		ShopIDRanges: []IDRange{{Min: 50000000, Max: 59999999}},
		Phrases:      DefaultPhrases,
	}

	got := ExtractStorefront([]byte(indianStorefront), "text/html; charset=utf-8", opts)

	for _, n := range Names {
		if n == ShipsToIndia {
			if got.Fired(n) {
				t.Errorf("%s comes only from meta.json", n)
			}
			continue
		}
		if !got.Fired(n) {
			t.Errorf("expected %s to fire, got %+v", n, got)
		}
	}
	if got.CountryCode != "IN" || got.Currency != "INR" || got.ShopID != "51234567" {
		t.Errorf("extracted values = %q/%q/%q", got.CountryCode, got.Currency, got.ShopID)
	}
	if got.Locale != "en-IN" {
		t.Errorf("Locale = %q, want html lang", got.Locale)
	}
	if !slices.Equal(got.ShippingText, []string{"pincode", "cash on delivery"}) {
		t.Errorf("ShippingText = %v", got.ShippingText)
	}
}

func TestExtractStorefront_Foreign(t *testing.T) {
	html := `<html lang="en"><head><script>Shopify.locale = "en"; Shopify.country = "US"; Shopify.currency = {"active":"USD","rate":"1.0"};</script></head>
<body><span class="money">$19.99</span></body></html>`

	got := ExtractStorefront([]byte(html), "text/html", DefaultOptions())
	if names := got.FiredNames(); len(names) != 0 {
		t.Errorf("expected no indicators, got %v", names)
	}
	if got.CountryCode != "US" || got.Currency != "USD" || got.Locale != "en" {
		t.Errorf("extracted values = %q/%q/%q", got.CountryCode, got.Currency, got.Locale)
	}
}

func TestExtractStorefront_CurrencyFallbacks(t *testing.T) {
	cases := []string{
		`<script>Shopify.currency.active = "INR";</script>`,
		`<script>window.theme = {currency: 'INR'};</script>`,
		`<script>var cfg = {defaultCurrency: "INR"};</script>`,
		`<script type="application/ld+json">{"@type":"Offer","priceCurrency":"INR"}</script>`,
	}
	for _, html := range cases {
		if got := ExtractStorefront([]byte(html), "", DefaultOptions()); !got.CurrencyINR {
			t.Errorf("expected currency_inr for %s", html)
		}
	}
}

func TestExtractStorefront_ShopObjectCountry(t *testing.T) {
	html := `<script>Shopify.shop = {"name":"x","country_code":"IN"};</script>`
	got := ExtractStorefront([]byte(html), "", DefaultOptions())
	if !got.CountryCodeIN || got.CountryCode != "IN" {
		t.Errorf("expected country from Shopify.shop object, got %+v", got)
	}
}

func TestExtractStorefront_Latin1(t *testing.T) {
	// "Rs. 999" in a latin-1 page with a non-ASCII byte before it.
	body := []byte("<html><body><span class=\"price\">\xa0Rs. 999</span></body></html>")
	got := ExtractStorefront(body, "text/html; charset=iso-8859-1", DefaultOptions())
	if !got.RupeeSymbol {
		t.Errorf("expected rupee_symbol after charset decode, got %+v", got)
	}
}

func TestExtractStorefront_Degrades(t *testing.T) {
	if got := ExtractStorefront(nil, "text/html", DefaultOptions()); len(got.FiredNames()) != 0 {
		t.Errorf("empty body fired %v", got.FiredNames())
	}
	got := ExtractStorefront([]byte("<<<not html>>> Shopify.locale = 'hi_IN'"), "", DefaultOptions())
	if !got.LocaleIN {
		t.Errorf("raw text should still yield locale, got %+v", got)
	}
}
