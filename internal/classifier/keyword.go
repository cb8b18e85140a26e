package classifier

import (
	"context"
	"sort"
	"strings"

	"github.com/mikey/mail-ledger/internal/core"
)

// defaultIndicators is the fixed promotional-phrase vocabulary
var defaultIndicators = []string{
	"special offer", "limited time", "discount", "sale",
	"promotion", "deal", "offer", "buy now", "subscribe",
	"unsubscribe", "marketing", "sponsored", "advertisement",
	"exclusive deal", "limited stock", "free shipping",
	"money back guarantee", "best price", "special pricing",
}

// DefaultThreshold is the minimum number of distinct matched indicators for
// a message to be classified as an advertisement. A single generic word
// ("offer") produces excessive false positives; requiring two distinct
// indicator phrases is the precision/recall trade-off.
const DefaultThreshold = 2

// KeywordClassifier classifies text as promotional by counting indicator
// phrases. It is pure and side-effect-free, and serves as the default and
// fallback implementation of core.Classifier.
type KeywordClassifier struct {
	indicators []string
	threshold  int
}

// NewKeywordClassifier creates a classifier with the default vocabulary and
// threshold
func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{
		indicators: defaultIndicators,
		threshold:  DefaultThreshold,
	}
}

// NewKeywordClassifierWith creates a classifier with a custom vocabulary
// and threshold
func NewKeywordClassifierWith(indicators []string, threshold int) *KeywordClassifier {
	return &KeywordClassifier{
		indicators: indicators,
		threshold:  threshold,
	}
}

// Classify counts distinct indicator phrases occurring as substrings of the
// lower-cased text. An indicator subsumed by a longer matched indicator
// ("offer" inside "special offer") is not counted separately.
func (c *KeywordClassifier) Classify(_ context.Context, text string) (*core.ClassificationResult, error) {
	lower := strings.ToLower(text)

	var matched []string
	for _, indicator := range c.indicators {
		if strings.Contains(lower, indicator) {
			matched = append(matched, indicator)
		}
	}
	matched = dropSubsumed(matched)
	sort.Strings(matched)

	return &core.ClassificationResult{
		IsAdvertisement:   len(matched) >= c.threshold,
		MatchedIndicators: matched,
	}, nil
}

// dropSubsumed removes any matched indicator that is a substring of another
// matched indicator, so overlapping phrases count once
func dropSubsumed(matched []string) []string {
	kept := matched[:0]
	for i, candidate := range matched {
		subsumed := false
		for j, other := range matched {
			if i != j && len(other) > len(candidate) && strings.Contains(other, candidate) {
				subsumed = true
				break
			}
		}
		if !subsumed {
			kept = append(kept, candidate)
		}
	}
	return kept
}
