package signal

import "strings"

// PhraseMatch counts occurrences of one phrase in a page.
type PhraseMatch struct {
	Phrase string
	Count  int
}

// MatchPhrases counts each phrase in content, case-insensitively, and returns
// the phrases that occur at least once in the order given. Phrases are
// lowered once and content once, so callers may pass either case.
func MatchPhrases(content string, phrases []string) []PhraseMatch {
	if len(content) == 0 || len(phrases) == 0 {
		return nil
	}

	lowerContent := strings.ToLower(content)
	results := make([]PhraseMatch, 0, len(phrases))

	for _, phrase := range phrases {
		lp := strings.ToLower(strings.TrimSpace(phrase))
		if lp == "" {
			continue
		}
		count := strings.Count(lowerContent, lp)
		if count == 0 {
			continue
		}
		results = append(results, PhraseMatch{Phrase: lp, Count: count})
	}
	return results
}
