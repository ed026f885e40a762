// Package sentiment implements the deterministic lexicon scorer used to
// grade news snippets, and the reduction of per-snippet scores into a
// single ticker-level figure.
package sentiment

import (
	"math"
	"strings"
)

// ------------------------------------------------------------------
// Keyword-based compound scorer (offline, fully deterministic).
// Weights follow the usual financial-news lexicon scale of roughly
// [-4, 4]; the compound score is normalized into [-1, 1].
// ------------------------------------------------------------------

// lexicon maps lowercase terms to signed intensity. Positive terms are
// bullish, negative terms bearish.
var lexicon = map[string]float64{
	// bullish
	"bullish": 2.4, "rally": 2.1, "rallies": 2.1, "surge": 2.3, "surges": 2.3,
	"soar": 2.4, "soars": 2.4, "jump": 1.8, "jumps": 1.8, "gain": 1.6,
	"gains": 1.6, "upbeat": 1.7, "positive": 1.5, "growth": 1.5,
	"upgrade": 2.0, "upgraded": 2.0, "outperform": 2.0, "outperforms": 2.0,
	"buy": 1.4, "strong": 1.4, "stronger": 1.5, "recovery": 1.6,
	"rebound": 1.7, "rebounds": 1.7, "breakout": 1.9, "record": 1.3,
	"beat": 1.7, "beats": 1.7, "exceeds": 1.6, "expansion": 1.3,
	"profit": 1.2, "profits": 1.2, "dividend": 1.1, "momentum": 1.0,
	"optimism": 1.6, "optimistic": 1.6, "win": 1.4, "wins": 1.4,

	// bearish
	"bearish": -2.4, "crash": -3.0, "crashes": -3.0, "plunge": -2.6,
	"plunges": -2.6, "plummet": -2.7, "plummets": -2.7, "slump": -2.2,
	"slumps": -2.2, "tumble": -2.1, "tumbles": -2.1, "sink": -1.9,
	"sinks": -1.9, "negative": -1.5, "downgrade": -2.0, "downgraded": -2.0,
	"underperform": -2.0, "underperforms": -2.0, "sell": -1.4,
	"selloff": -2.3, "weak": -1.4, "weaker": -1.5, "decline": -1.6,
	"declines": -1.6, "loss": -1.5, "losses": -1.5, "fall": -1.4,
	"falls": -1.4, "drop": -1.4, "drops": -1.4, "correction": -1.6,
	"default": -2.5, "fraud": -3.0, "scam": -3.0, "probe": -1.6,
	"investigation": -1.6, "lawsuit": -1.8, "miss": -1.7, "misses": -1.7,
	"warning": -1.6, "warns": -1.6, "concern": -1.2, "concerns": -1.2,
	"layoff": -1.9, "layoffs": -1.9, "bankruptcy": -3.0, "recall": -1.7,
	"cut": -1.1, "cuts": -1.1, "fear": -1.8, "fears": -1.8,
}

// boosters scale the intensity of the lexicon hit that follows them.
var boosters = map[string]float64{
	"very": 1.3, "extremely": 1.4, "sharply": 1.3, "hugely": 1.4,
	"massively": 1.4, "significantly": 1.25, "slightly": 0.7,
	"modestly": 0.75, "marginally": 0.7, "barely": 0.65,
}

// negations flip the sign of the lexicon hit that follows them.
var negations = map[string]bool{
	"not": true, "no": true, "never": true, "without": true,
	"fails": true, "fail": true, "isnt": true, "wasnt": true,
	"doesnt": true, "didnt": true, "wont": true,
}

// negationDampen reflects that a negated term carries less intensity
// than its opposite stated outright.
const negationDampen = 0.74

// normalization constant for the compound score; keeps single weak hits
// well inside the [-1, 1] range.
const normAlpha = 15.0

// Score returns the compound sentiment of a snippet in [-1.0, 1.0].
// Deterministic: the same snippet always yields the same score. A
// snippet with no lexicon hits scores 0.
func Score(snippet string) float64 {
	tokens := tokenize(snippet)

	sum := 0.0
	for i, tok := range tokens {
		w, ok := lexicon[tok]
		if !ok {
			continue
		}

		// Look back up to two tokens for a booster or a negation.
		for j := i - 1; j >= 0 && j >= i-2; j-- {
			if b, ok := boosters[tokens[j]]; ok {
				w *= b
			}
			if negations[tokens[j]] {
				w = -w * negationDampen
			}
		}
		sum += w
	}

	if sum == 0 {
		return 0
	}
	return sum / math.Sqrt(sum*sum+normAlpha)
}

// Aggregate reduces per-snippet scores into their arithmetic mean.
// Callers must not pass an empty slice: the absence of scores is the
// caller's signal to produce no result, which is not the same thing as
// a neutral 0.0.
func Aggregate(scores []float64) float64 {
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores))
}

// apostrophes are folded away so "doesn't" matches "doesnt".
var apostrophes = strings.NewReplacer("'", "", "’", "")

// tokenize lowercases the snippet and splits it into alphanumeric words.
func tokenize(s string) []string {
	s = apostrophes.Replace(strings.ToLower(s))
	return strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}
