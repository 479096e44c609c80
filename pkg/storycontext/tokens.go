package storycontext

import "unicode/utf8"

// TokenEstimator approximates how many model tokens a text costs.
// Estimators must not decrease when text grows.
type TokenEstimator func(text string) int

// CharsPerToken is the ratio used by EstimateTokens.
const CharsPerToken = 4

// EstimateTokens is a tokenizer-free approximation: one token per CharsPerToken
// runes, rounded up. English prose averages slightly more characters per token,
// so real counts tend to land below this estimate.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + CharsPerToken - 1) / CharsPerToken
}

const ellipsis = "..."

// truncateToTokens returns the longest rune prefix of text whose estimate,
// ellipsis included, fits in budget. It returns "" when nothing fits.
func truncateToTokens(text string, budget int, estimate TokenEstimator) string {
	if budget <= 0 {
		return ""
	}
	if estimate(text) <= budget {
		return text
	}

	runes := []rune(text)
	lo, hi := 0, len(runes)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if estimate(string(runes[:mid])+ellipsis) <= budget {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	if lo == 0 {
		return ""
	}
	return string(runes[:lo]) + ellipsis
}
