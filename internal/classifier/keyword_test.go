package classifier

import (
	"context"
	"reflect"
	"testing"
)

func TestKeywordClassifierAdvertisement(t *testing.T) {
	c := NewKeywordClassifier()

	result, err := c.Classify(context.Background(), "Special offer! Limited time discount on our products. Buy now!")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !result.IsAdvertisement {
		t.Error("expected advertisement")
	}
	want := map[string]bool{"special offer": true, "limited time": true}
	for _, m := range result.MatchedIndicators {
		delete(want, m)
	}
	if len(want) > 0 {
		t.Errorf("missing indicators %v in %v", want, result.MatchedIndicators)
	}
}

func TestKeywordClassifierSubsumedIndicatorCountsOnce(t *testing.T) {
	c := NewKeywordClassifier()

	result, err := c.Classify(context.Background(), "This is a special offer")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.IsAdvertisement {
		t.Errorf("expected non-advertisement, matched %v", result.MatchedIndicators)
	}
	if !reflect.DeepEqual(result.MatchedIndicators, []string{"special offer"}) {
		t.Errorf("MatchedIndicators = %v; want [special offer]", result.MatchedIndicators)
	}
}

func TestKeywordClassifierPlainText(t *testing.T) {
	c := NewKeywordClassifier()

	result, err := c.Classify(context.Background(), "Hi, are we still on for lunch tomorrow?")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.IsAdvertisement {
		t.Error("expected non-advertisement")
	}
	if len(result.MatchedIndicators) != 0 {
		t.Errorf("MatchedIndicators = %v; want none", result.MatchedIndicators)
	}
}

func TestKeywordClassifierCaseInsensitive(t *testing.T) {
	c := NewKeywordClassifier()

	result, err := c.Classify(context.Background(), "FREE SHIPPING and BEST PRICE guaranteed")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !result.IsAdvertisement {
		t.Errorf("expected advertisement, matched %v", result.MatchedIndicators)
	}
}

func TestKeywordClassifierEmptyText(t *testing.T) {
	c := NewKeywordClassifier()

	result, err := c.Classify(context.Background(), "")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.IsAdvertisement || len(result.MatchedIndicators) != 0 {
		t.Errorf("unexpected result %+v", result)
	}
}

func TestKeywordClassifierCustomThreshold(t *testing.T) {
	c := NewKeywordClassifierWith([]string{"newsletter"}, 1)

	result, err := c.Classify(context.Background(), "Your weekly newsletter has arrived")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if !result.IsAdvertisement {
		t.Error("expected advertisement with threshold 1")
	}
}
