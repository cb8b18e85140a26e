package parser

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/mikey/mail-ledger/internal/core"
)

// unsubscribeKeywords are matched case-insensitively as substrings of anchor
// text, anchor hrefs and plain-text URLs
var unsubscribeKeywords = []string{
	"unsubscribe",
	"opt-out",
	"opt out",
	"remove me",
	"unsubscribe me",
	"stop receiving",
	"manage preferences",
}

var (
	headerTokenPattern = regexp.MustCompile(`<([^<>]+)>`)

	// keyword followed by punctuation and a URL, e.g. "unsubscribe: https://..."
	keywordThenURLPattern = regexp.MustCompile(`(?i)(?:unsubscribe|opt-out|opt out|remove me|unsubscribe me|stop receiving|manage preferences)\s*[:.\-]?\s*(https?://[^\s<>"]+)`)

	// a URL that itself contains a keyword
	urlWithKeywordPattern = regexp.MustCompile(`(?i)https?://[^\s<>"]*(?:unsubscribe|opt-out|opt out|remove me|unsubscribe me|stop receiving|manage preferences)[^\s<>"]*`)
)

// ExtractUnsubscribeURL finds the unsubscribe URL for a message, consulting
// sources in strict priority order: the List-Unsubscribe header, anchors in
// an HTML body, then plain-text patterns. The first source that hits wins;
// absence is a valid result, not an error.
func ExtractUnsubscribeURL(body string, headers *core.Header) string {
	if listUnsub := headers.Get("List-Unsubscribe"); listUnsub != "" {
		if url, authoritative := fromListUnsubscribe(listUnsub); authoritative {
			return url
		}
	}

	lower := strings.ToLower(body)
	if strings.Contains(lower, "<html") || strings.Contains(lower, "<body") {
		if url := fromAnchors(body); url != "" {
			return url
		}
	}

	return fromPlainText(body)
}

// fromListUnsubscribe extracts the first http(s) token from a
// List-Unsubscribe header. A header carrying angle-bracket tokens is
// authoritative: if none of its tokens is an http(s) URL (e.g. mailto only),
// the result is empty and no further source is consulted.
func fromListUnsubscribe(header string) (string, bool) {
	tokens := headerTokenPattern.FindAllStringSubmatch(header, -1)
	if len(tokens) == 0 {
		return "", false
	}
	for _, m := range tokens {
		token := strings.TrimSpace(m[1])
		if isHTTPURL(token) {
			return token, true
		}
	}
	return "", true
}

// fromAnchors parses the body as markup and returns the href of the first
// anchor, in document order, whose visible text or href contains an
// unsubscribe keyword. Markup that cannot be parsed yields no result.
func fromAnchors(body string) string {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return ""
	}

	var found string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" {
			href := anchorHref(n)
			if href != "" && (containsKeyword(anchorText(n)) || containsKeyword(href)) {
				found = href
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}

// fromPlainText scans the body with both text patterns and returns the
// earliest match in left-to-right order
func fromPlainText(body string) string {
	bestIdx := -1
	bestURL := ""

	if loc := keywordThenURLPattern.FindStringSubmatchIndex(body); loc != nil {
		bestIdx = loc[0]
		bestURL = body[loc[2]:loc[3]]
	}
	if loc := urlWithKeywordPattern.FindStringIndex(body); loc != nil {
		if bestIdx == -1 || loc[0] < bestIdx {
			bestURL = body[loc[0]:loc[1]]
		}
	}
	return bestURL
}

func anchorHref(n *html.Node) string {
	for _, attr := range n.Attr {
		if attr.Key == "href" {
			return attr.Val
		}
	}
	return ""
}

// anchorText concatenates the text descendants of an anchor node
func anchorText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func containsKeyword(s string) bool {
	lower := strings.ToLower(s)
	for _, kw := range unsubscribeKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

func isHTTPURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
