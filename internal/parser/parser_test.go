package parser

import (
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/mail-ledger/internal/core"
)

func testNormalizer() *Normalizer {
	return NewNormalizer(zap.NewNop())
}

func rawMessage(headers []string, body string) []byte {
	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + body)
}

func TestExtractSender(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"John Doe <john@example.com>", "john@example.com"},
		{"<john@example.com>", "john@example.com"},
		{"john@example.com", "john@example.com"},
		{"  john@example.com  ", "john@example.com"},
		{`"Doe, John" <john@example.com>`, "john@example.com"},
		{"not an address", "not an address"},
		{"", ""},
	}
	for _, tc := range tests {
		if got := ExtractSender(tc.in); got != tc.want {
			t.Errorf("ExtractSender(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}
}

func TestDecodeHeaderText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Hello World", "Hello World"},
		{"q encoded", "=?utf-8?Q?Caf=C3=A9_News?=", "Café News"},
		{"b encoded", "=?utf-8?B?SGVsbG8gV29ybGQ=?=", "Hello World"},
		{"mixed literal and encoded", "Re: =?utf-8?Q?Caf=C3=A9?= opening", "Re: Café opening"},
		{"iso-8859-1", "=?iso-8859-1?Q?Gr=FC=DFe?=", "Grüße"},
		{"unknown charset kept literal", "=?x-nonsense?Q?abc?=", "=?x-nonsense?Q?abc?="},
		{"empty", "", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := DecodeHeaderText(tc.in); got != tc.want {
				t.Errorf("DecodeHeaderText(%q) = %q; want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestNormalizeSimpleMessage(t *testing.T) {
	raw := rawMessage([]string{
		"From: Jane <jane@shop.example>",
		"Subject: =?utf-8?Q?Caf=C3=A9_deals?=",
		"Date: Mon, 02 Jan 2006 15:04:05 -0700",
		"Content-Type: text/plain; charset=utf-8",
	}, "Plain body text.")

	msg, err := testNormalizer().Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if msg.SenderEmail != "jane@shop.example" {
		t.Errorf("SenderEmail = %q", msg.SenderEmail)
	}
	if msg.Subject != "Café deals" {
		t.Errorf("Subject = %q", msg.Subject)
	}
	if msg.BodyText != "Plain body text." {
		t.Errorf("BodyText = %q", msg.BodyText)
	}
	want := time.Date(2006, 1, 2, 15, 4, 5, 0, time.FixedZone("", -7*3600))
	if !msg.Date.Equal(want) {
		t.Errorf("Date = %v; want %v", msg.Date, want)
	}
}

func TestNormalizeMissingDate(t *testing.T) {
	raw := rawMessage([]string{
		"From: jane@shop.example",
		"Subject: hi",
	}, "body")

	_, err := testNormalizer().Normalize(raw)
	var malformed *core.MalformedMessageError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedMessageError, got %v", err)
	}
}

func TestNormalizeUnparseableDate(t *testing.T) {
	raw := rawMessage([]string{
		"From: jane@shop.example",
		"Date: not a date",
	}, "body")

	_, err := testNormalizer().Normalize(raw)
	var malformed *core.MalformedMessageError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedMessageError, got %v", err)
	}
}

func TestNormalizeBase64Body(t *testing.T) {
	raw := rawMessage([]string{
		"From: jane@shop.example",
		"Date: Mon, 02 Jan 2006 15:04:05 +0000",
		"Content-Type: text/plain; charset=utf-8",
		"Content-Transfer-Encoding: base64",
	}, "SGVsbG8g\r\nV29ybGQ=")

	msg, err := testNormalizer().Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if msg.BodyText != "Hello World" {
		t.Errorf("BodyText = %q; want %q", msg.BodyText, "Hello World")
	}
}

func TestNormalizeQuotedPrintableBody(t *testing.T) {
	raw := rawMessage([]string{
		"From: jane@shop.example",
		"Date: Mon, 02 Jan 2006 15:04:05 +0000",
		"Content-Type: text/plain; charset=utf-8",
		"Content-Transfer-Encoding: quoted-printable",
	}, "Caf=C3=A9 time")

	msg, err := testNormalizer().Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if msg.BodyText != "Café time" {
		t.Errorf("BodyText = %q", msg.BodyText)
	}
}

func TestNormalizeMultipartPrefersPlainText(t *testing.T) {
	body := strings.Join([]string{
		"--BOUNDARY",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<html><body><p>html version</p></body></html>",
		"--BOUNDARY",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"plain version",
		"--BOUNDARY--",
		"",
	}, "\r\n")
	raw := rawMessage([]string{
		"From: jane@shop.example",
		"Date: Mon, 02 Jan 2006 15:04:05 +0000",
		`Content-Type: multipart/alternative; boundary="BOUNDARY"`,
	}, body)

	msg, err := testNormalizer().Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if msg.BodyText != "plain version" {
		t.Errorf("BodyText = %q; want %q", msg.BodyText, "plain version")
	}
}

func TestNormalizeMultipartFallsBackToHTML(t *testing.T) {
	body := strings.Join([]string{
		"--BOUNDARY",
		"Content-Type: text/html; charset=utf-8",
		"",
		"<html><body>only html</body></html>",
		"--BOUNDARY--",
		"",
	}, "\r\n")
	raw := rawMessage([]string{
		"From: jane@shop.example",
		"Date: Mon, 02 Jan 2006 15:04:05 +0000",
		`Content-Type: multipart/alternative; boundary="BOUNDARY"`,
	}, body)

	msg, err := testNormalizer().Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !strings.Contains(msg.BodyText, "only html") {
		t.Errorf("BodyText = %q; want html part", msg.BodyText)
	}
}

func TestNormalizeNestedMultipart(t *testing.T) {
	inner := strings.Join([]string{
		"--INNER",
		"Content-Type: text/plain; charset=utf-8",
		"",
		"nested plain",
		"--INNER--",
	}, "\r\n")
	body := strings.Join([]string{
		"--OUTER",
		`Content-Type: multipart/alternative; boundary="INNER"`,
		"",
		inner,
		"--OUTER",
		"Content-Type: application/pdf",
		"",
		"binarybits",
		"--OUTER--",
		"",
	}, "\r\n")
	raw := rawMessage([]string{
		"From: jane@shop.example",
		"Date: Mon, 02 Jan 2006 15:04:05 +0000",
		`Content-Type: multipart/mixed; boundary="OUTER"`,
	}, body)

	msg, err := testNormalizer().Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if msg.BodyText != "nested plain" {
		t.Errorf("BodyText = %q; want %q", msg.BodyText, "nested plain")
	}
}

func TestNormalizePreservesHeaderOrder(t *testing.T) {
	raw := rawMessage([]string{
		"Received: from a.example",
		"Received: from b.example",
		"From: jane@shop.example",
		"Date: Mon, 02 Jan 2006 15:04:05 +0000",
		"List-Unsubscribe: <https://shop.example/unsub>",
	}, "body")

	msg, err := testNormalizer().Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if got := msg.Headers.Get("list-unsubscribe"); got != "<https://shop.example/unsub>" {
		t.Errorf("Headers.Get(list-unsubscribe) = %q", got)
	}
	if msg.UnsubscribeURL != "https://shop.example/unsub" {
		t.Errorf("UnsubscribeURL = %q", msg.UnsubscribeURL)
	}
	if msg.Headers.Len() != 5 {
		t.Errorf("Headers.Len() = %d; want 5", msg.Headers.Len())
	}
}

func TestNormalizeFoldedHeader(t *testing.T) {
	raw := []byte("From: jane@shop.example\r\n" +
		"Subject: part one\r\n part two\r\n" +
		"Date: Mon, 02 Jan 2006 15:04:05 +0000\r\n" +
		"\r\nbody")

	msg, err := testNormalizer().Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if msg.Subject != "part one part two" {
		t.Errorf("Subject = %q", msg.Subject)
	}
}
