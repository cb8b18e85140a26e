package whitelist

import (
	"testing"

	"go.uber.org/zap"
)

func TestIsWhitelisted(t *testing.T) {
	c := NewChecker([]string{"Trusted.Example", " partner.example "}, zap.NewNop())

	tests := []struct {
		sender string
		want   bool
	}{
		{"alice@trusted.example", true},
		{"bob@TRUSTED.EXAMPLE", true},
		{"carol@partner.example", true},
		{"dave@other.example", false},
		{"not-an-address", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := c.IsWhitelisted(tc.sender); got != tc.want {
			t.Errorf("IsWhitelisted(%q) = %v; want %v", tc.sender, got, tc.want)
		}
	}
}

func TestEmptyWhitelist(t *testing.T) {
	c := NewChecker(nil, zap.NewNop())
	if c.IsWhitelisted("alice@trusted.example") {
		t.Error("empty whitelist must match nothing")
	}
}
