package classifier

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/mikey/mail-ledger/internal/core"
)

type stubClassifier struct {
	result *core.ClassificationResult
	err    error
	calls  int
}

func (s *stubClassifier) Classify(_ context.Context, _ string) (*core.ClassificationResult, error) {
	s.calls++
	return s.result, s.err
}

func TestFallbackClassifierUsesPrimary(t *testing.T) {
	primary := &stubClassifier{result: &core.ClassificationResult{IsAdvertisement: true}}
	fallback := &stubClassifier{result: &core.ClassificationResult{}}
	c := NewFallbackClassifier(primary, fallback, zap.NewNop())

	result, err := c.Classify(context.Background(), "text")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !result.IsAdvertisement {
		t.Error("expected primary result")
	}
	if fallback.calls != 0 {
		t.Error("fallback should not be consulted")
	}
}

func TestFallbackClassifierFallsBackOnError(t *testing.T) {
	primary := &stubClassifier{err: &core.ClassificationError{Provider: "openai", Err: errors.New("timeout")}}
	fallback := &stubClassifier{result: &core.ClassificationResult{IsAdvertisement: true}}
	c := NewFallbackClassifier(primary, fallback, zap.NewNop())

	result, err := c.Classify(context.Background(), "text")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !result.IsAdvertisement {
		t.Error("expected fallback result")
	}
	if fallback.calls != 1 {
		t.Errorf("fallback calls = %d; want 1", fallback.calls)
	}
}
