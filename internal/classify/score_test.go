package classify

import (
	"testing"

	"github.com/FranksOps/shopsift/internal/scraper"
	"github.com/FranksOps/shopsift/internal/signal"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name  string
		set   signal.IndicatorSet
		score int
		label string
	}{
		{"none", signal.IndicatorSet{}, 0, Unlikely},
		{"country alone", signal.IndicatorSet{CountryCodeIN: true}, 60, Likely},
		{"currency alone", signal.IndicatorSet{CurrencyINR: true}, 50, Likely},
		{"locale alone", signal.IndicatorSet{LocaleIN: true}, 20, Unlikely},
		{"rupee alone", signal.IndicatorSet{RupeeSymbol: true}, 15, Unlikely},
		{"shop id alone", signal.IndicatorSet{ShopIDPattern: true}, 10, Unlikely},
		{"ships alone", signal.IndicatorSet{ShipsToIndia: true}, 10, Unlikely},
		{"text alone", signal.IndicatorSet{ShippingText: []string{"pincode"}}, 10, Unlikely},
		{
			"all weak",
			signal.IndicatorSet{LocaleIN: true, RupeeSymbol: true, ShopIDPattern: true, ShipsToIndia: true, ShippingText: []string{"pincode"}},
			65, Likely,
		},
		{"country and currency capped", signal.IndicatorSet{CountryCodeIN: true, CurrencyINR: true}, 100, Likely},
		{
			"everything capped",
			signal.IndicatorSet{CountryCodeIN: true, CurrencyINR: true, LocaleIN: true, RupeeSymbol: true, ShopIDPattern: true, ShipsToIndia: true, ShippingText: []string{"x"}},
			100, Likely,
		},
		{"just below threshold", signal.IndicatorSet{LocaleIN: true, RupeeSymbol: true, ShipsToIndia: true}, 45, Unlikely},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := Classify("shop.example", scraper.OutcomeOK, tt.set)
			if rec.Score != tt.score {
				t.Errorf("score = %d, want %d", rec.Score, tt.score)
			}
			if rec.Classification != tt.label {
				t.Errorf("classification = %s, want %s", rec.Classification, tt.label)
			}
			if rec.IsLikely() != (tt.label == Likely) {
				t.Errorf("IsLikely() = %v", rec.IsLikely())
			}
		})
	}
}

func TestSingleIndicatorThreshold(t *testing.T) {
	strong := map[string]bool{signal.CountryCodeIN: true, signal.CurrencyINR: true}
	for name, w := range Weights {
		if got := Label(w) == Likely; got != strong[name] {
			t.Errorf("%s alone: likely = %v", name, got)
		}
	}
}

func TestClassify_NonOK(t *testing.T) {
	set := signal.IndicatorSet{CountryCodeIN: true, CurrencyINR: true, ShopID: "1"}
	for _, o := range []scraper.Outcome{
		scraper.OutcomeTimeout,
		scraper.OutcomeConnectionError,
		scraper.OutcomeHTTPError,
		scraper.OutcomeUnknown,
	} {
		rec := Classify("down.example", o, set)
		if rec.Score != 0 || rec.Classification != Unlikely {
			t.Errorf("%s: score=%d class=%s", o, rec.Score, rec.Classification)
		}
		if len(rec.Indicators.FiredNames()) != 0 || rec.Indicators.ShopID != "" {
			t.Errorf("%s: indicators not cleared: %+v", o, rec.Indicators)
		}
		if rec.Outcome != o {
			t.Errorf("outcome = %s, want %s", rec.Outcome, o)
		}
	}
}

func TestClassify_Deterministic(t *testing.T) {
	set := signal.IndicatorSet{LocaleIN: true, CurrencyINR: true}
	a := Classify("d", scraper.OutcomeOK, set)
	b := Classify("d", scraper.OutcomeOK, set)
	if a.Score != b.Score || a.Classification != b.Classification {
		t.Errorf("non-deterministic: %+v vs %+v", a, b)
	}
}
