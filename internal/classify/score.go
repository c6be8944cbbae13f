// Package classify scores India-locale indicators into a likely/unlikely
// classification.
package classify

import (
	"github.com/FranksOps/shopsift/internal/scraper"
	"github.com/FranksOps/shopsift/internal/signal"
)

// Classification labels.
const (
	Likely   = "likely"
	Unlikely = "unlikely"
)

// Threshold is the minimum score classified as Likely.
const Threshold = 50

// MaxScore caps the summed weights.
const MaxScore = 100

// Weights maps indicator names to their score contribution. Country and
// currency each reach the threshold alone; no other single indicator does.
var Weights = map[string]int{
	signal.CountryCodeIN:     60,
	signal.CurrencyINR:       50,
	signal.LocaleIN:          20,
	signal.RupeeSymbol:       15,
	signal.ShopIDPattern:     10,
	signal.ShipsToIndia:      10,
	signal.ShippingTextMatch: 10,
}

// Record is the classification of one domain.
type Record struct {
	Domain         string
	Outcome        scraper.Outcome
	Indicators     signal.IndicatorSet
	Score          int
	Classification string
}

// IsLikely reports whether the record crossed the threshold.
func (r Record) IsLikely() bool {
	return r.Classification == Likely
}

// Score sums the weights of the present indicators, capped at MaxScore.
func Score(s signal.IndicatorSet) int {
	total := 0
	for _, name := range s.FiredNames() {
		total += Weights[name]
	}
	return min(total, MaxScore)
}

// Label maps a score to its classification.
func Label(score int) string {
	if score >= Threshold {
		return Likely
	}
	return Unlikely
}

// Classify builds the record for a domain. A non-ok outcome discards any
// indicators and yields score 0.
func Classify(domain string, outcome scraper.Outcome, s signal.IndicatorSet) Record {
	if outcome != scraper.OutcomeOK {
		s = signal.IndicatorSet{}
	}
	score := Score(s)
	return Record{
		Domain:         domain,
		Outcome:        outcome,
		Indicators:     s,
		Score:          score,
		Classification: Label(score),
	}
}
