package classifier

import (
	"context"

	"go.uber.org/zap"

	"github.com/mikey/mail-ledger/internal/core"
)

// FallbackClassifier guards an external classifier with the keyword
// heuristic: when the primary is unavailable the fallback result is used
// instead of aborting the message
type FallbackClassifier struct {
	primary  core.Classifier
	fallback core.Classifier
	logger   *zap.Logger
}

// NewFallbackClassifier wraps a primary classifier with a fallback
func NewFallbackClassifier(primary, fallback core.Classifier, logger *zap.Logger) *FallbackClassifier {
	return &FallbackClassifier{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Classify tries the primary classifier and falls back on error
func (c *FallbackClassifier) Classify(ctx context.Context, text string) (*core.ClassificationResult, error) {
	result, err := c.primary.Classify(ctx, text)
	if err == nil {
		return result, nil
	}
	c.logger.Warn("Primary classifier failed, using keyword fallback", zap.Error(err))
	return c.fallback.Classify(ctx, text)
}
