package parser

import (
	"testing"

	"github.com/mikey/mail-ledger/internal/core"
)

func headersWith(pairs ...string) *core.Header {
	var h core.Header
	for i := 0; i+1 < len(pairs); i += 2 {
		h.Add(pairs[i], pairs[i+1])
	}
	return &h
}

func TestExtractUnsubscribeURLHeaderWinsOverBody(t *testing.T) {
	headers := headersWith("List-Unsubscribe", "<https://a.example/unsub>")
	body := `<html><body><a href="https://b.example/unsub">Unsubscribe</a></body></html>`

	if got := ExtractUnsubscribeURL(body, headers); got != "https://a.example/unsub" {
		t.Errorf("got %q; want header URL", got)
	}
}

func TestExtractUnsubscribeURLHeaderSkipsMailto(t *testing.T) {
	headers := headersWith("List-Unsubscribe", "<mailto:unsub@a.example>, <https://a.example/unsub>")

	if got := ExtractUnsubscribeURL("", headers); got != "https://a.example/unsub" {
		t.Errorf("got %q; want https token", got)
	}
}

func TestExtractUnsubscribeURLMailtoOnlyHeaderIsFinal(t *testing.T) {
	headers := headersWith("List-Unsubscribe", "<mailto:unsub@a.example>")
	body := `<html><body><a href="https://b.example/unsub">Unsubscribe</a></body></html>`

	if got := ExtractUnsubscribeURL(body, headers); got != "" {
		t.Errorf("got %q; want empty, mailto-only header is authoritative", got)
	}
}

func TestExtractUnsubscribeURLFromAnchorText(t *testing.T) {
	body := `<html><body>
<a href="https://b.example/deals">Deals</a>
<a href="https://b.example/stop?id=1">Click here to unsubscribe</a>
</body></html>`

	if got := ExtractUnsubscribeURL(body, headersWith()); got != "https://b.example/stop?id=1" {
		t.Errorf("got %q", got)
	}
}

func TestExtractUnsubscribeURLFromAnchorHref(t *testing.T) {
	body := `<html><body><a href="https://b.example/unsubscribe?id=1">Click here</a></body></html>`

	if got := ExtractUnsubscribeURL(body, headersWith()); got != "https://b.example/unsubscribe?id=1" {
		t.Errorf("got %q", got)
	}
}

func TestExtractUnsubscribeURLFirstAnchorInDocumentOrder(t *testing.T) {
	body := `<html><body>
<a href="https://b.example/first">Opt-out here</a>
<a href="https://b.example/second">Unsubscribe</a>
</body></html>`

	if got := ExtractUnsubscribeURL(body, headersWith()); got != "https://b.example/first" {
		t.Errorf("got %q; want first matching anchor", got)
	}
}

func TestExtractUnsubscribeURLFromPlainText(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			"keyword then url",
			"To stop these emails, unsubscribe: https://c.example/u?id=5",
			"https://c.example/u?id=5",
		},
		{
			"url containing keyword",
			"Visit https://c.example/unsubscribe/123 today",
			"https://c.example/unsubscribe/123",
		},
		{
			"opt out phrasing",
			"opt out https://c.example/optout",
			"https://c.example/optout",
		},
		{
			"no url",
			"Please unsubscribe by replying to this message",
			"",
		},
		{
			"no keyword",
			"Visit https://c.example/home for more",
			"",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractUnsubscribeURL(tc.body, headersWith()); got != tc.want {
				t.Errorf("got %q; want %q", got, tc.want)
			}
		})
	}
}

func TestExtractUnsubscribeURLNothingFound(t *testing.T) {
	if got := ExtractUnsubscribeURL("just a message body", headersWith()); got != "" {
		t.Errorf("got %q; want empty", got)
	}
}
