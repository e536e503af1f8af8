package intel

import "strings"

// Small keyword lexicon for scoring social/news text polarity. Crypto
// discourse is jargon-heavy, so generic sentiment word lists miss most
// of the signal; these lists are tuned to trading vocabulary. Multi-word
// entries are matched as phrases, single words as whole tokens.
var (
	bullishTerms = []string{
		"bullish", "bull", "moon", "mooning", "rally", "surge", "pump",
		"pumping", "breakout", "ath", "all-time high", "accumulate",
		"accumulation", "buy", "long", "adoption", "upgrade",
		"partnership", "etf approval", "inflow", "institutional",
		"halving", "squeeze", "recovery", "rebound", "golden cross",
	}
	bearishTerms = []string{
		"bearish", "bear", "dump", "dumping", "crash", "plunge",
		"selloff", "sell-off", "capitulation", "liquidation",
		"liquidations", "short", "fud", "hack", "exploit", "rug", "scam",
		"ban", "lawsuit", "sec charges", "outflow", "bankruptcy",
		"insolvency", "death cross", "breakdown", "delisting",
	}
)

// Polarity scores a batch of texts in [-1, 1]. Each text contributes its
// own normalized bull/bear term balance; texts with no matches count as
// neutral zeros so a few loud posts cannot dominate a quiet batch.
func Polarity(texts []string) float64 {
	if len(texts) == 0 {
		return 0
	}

	var total float64
	for _, text := range texts {
		total += textPolarity(text)
	}
	return total / float64(len(texts))
}

func textPolarity(text string) float64 {
	lowered := strings.ToLower(text)
	tokens := tokenSet(lowered)

	count := func(terms []string) int {
		var n int
		for _, term := range terms {
			if strings.ContainsAny(term, " -") {
				n += strings.Count(lowered, term)
			} else if tokens[term] {
				n++
			}
		}
		return n
	}

	bull := count(bullishTerms)
	bear := count(bearishTerms)

	if bull+bear == 0 {
		return 0
	}
	return float64(bull-bear) / float64(bull+bear)
}

func tokenSet(text string) map[string]bool {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') && r != '-'
	})

	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}
