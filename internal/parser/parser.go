package parser

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"regexp"
	"strings"

	"github.com/emersion/go-message/charset"
	"go.uber.org/zap"

	"github.com/mikey/mail-ledger/internal/core"
)

var angleAddrPattern = regexp.MustCompile(`<([^<>]*)>`)

// Normalizer decodes raw messages into their normalized form
type Normalizer struct {
	logger *zap.Logger
}

// NewNormalizer creates a new message normalizer
func NewNormalizer(logger *zap.Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize decodes one raw message into a NormalizedMessage, or fails with
// a MalformedMessageError if the headers or date cannot be decoded
func (n *Normalizer) Normalize(raw []byte) (*core.NormalizedMessage, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, &core.MalformedMessageError{Reason: "unparseable headers", Err: err}
	}

	headers, err := readOrderedHeaders(raw)
	if err != nil {
		return nil, &core.MalformedMessageError{Reason: "unparseable headers", Err: err}
	}

	dateHeader := msg.Header.Get("Date")
	if dateHeader == "" {
		return nil, &core.MalformedMessageError{Reason: "missing Date header"}
	}
	date, err := mail.ParseDate(dateHeader)
	if err != nil {
		return nil, &core.MalformedMessageError{Reason: "unparseable Date header", Err: err}
	}

	body := n.extractBody(msg)

	normalized := &core.NormalizedMessage{
		SenderEmail:    ExtractSender(msg.Header.Get("From")),
		Subject:        DecodeHeaderText(msg.Header.Get("Subject")),
		BodyText:       body,
		Headers:        headers,
		Date:           date,
		UnsubscribeURL: ExtractUnsubscribeURL(body, &headers),
	}
	return normalized, nil
}

// ExtractSender returns the first angle-bracket-delimited address from a
// From header, or the header value verbatim when no such address exists.
// Callers must tolerate non-address strings here.
func ExtractSender(from string) string {
	if m := angleAddrPattern.FindStringSubmatch(from); m != nil {
		return m[1]
	}
	return strings.TrimSpace(from)
}

var encodedWordPattern = regexp.MustCompile(`=\?[^?\s]+\?[bqBQ]\?[^?\s]*\?=`)

// DecodeHeaderText decodes a header composed of encoded-word segments
// interleaved with literal text. Each segment is decoded with its declared
// charset; a segment with an unknown charset is kept as its original literal
// text. Segments are concatenated in order with no separator inserted.
func DecodeHeaderText(header string) string {
	dec := &mime.WordDecoder{CharsetReader: charset.Reader}

	var out strings.Builder
	rest := header
	for {
		loc := encodedWordPattern.FindStringIndex(rest)
		if loc == nil {
			out.WriteString(rest)
			break
		}
		out.WriteString(rest[:loc[0]])
		word := rest[loc[0]:loc[1]]
		decoded, err := dec.Decode(word)
		if err != nil {
			// Unknown charset or broken payload: keep the literal
			out.WriteString(word)
		} else {
			out.WriteString(decoded)
		}
		rest = rest[loc[1]:]
	}
	return out.String()
}

// bodyPart is one decoded leaf of the MIME tree
type bodyPart struct {
	mediaType string
	text      string
}

// extractBody selects the message body text: the first text/plain part if
// any, otherwise the first text/html part, otherwise the payload of a
// single-part message. A missing or undecodable payload yields an empty
// string, not an error.
func (n *Normalizer) extractBody(msg *mail.Message) string {
	contentType := msg.Header.Get("Content-Type")
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		return decodePayload(msg.Body, msg.Header.Get("Content-Transfer-Encoding"), params["charset"])
	}

	boundary := params["boundary"]
	if boundary == "" {
		return decodePayload(msg.Body, msg.Header.Get("Content-Transfer-Encoding"), params["charset"])
	}

	parts := n.collectParts(msg.Body, boundary)
	for _, p := range parts {
		if p.mediaType == "text/plain" {
			return p.text
		}
	}
	for _, p := range parts {
		if p.mediaType == "text/html" {
			return p.text
		}
	}
	return ""
}

// collectParts walks a multipart body in document order, recursing into
// nested multiparts, and returns the decoded text leaves
func (n *Normalizer) collectParts(body io.Reader, boundary string) []bodyPart {
	var parts []bodyPart
	mr := multipart.NewReader(body, boundary)
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			n.logger.Debug("Stopped reading multipart body", zap.Error(err))
			break
		}

		partType, partParams, err := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if err != nil {
			partType = "text/plain"
		}
		if strings.HasPrefix(partType, "multipart/") {
			if nested := partParams["boundary"]; nested != "" {
				parts = append(parts, n.collectParts(part, nested)...)
			}
			continue
		}
		text := decodePayload(part, part.Header.Get("Content-Transfer-Encoding"), partParams["charset"])
		parts = append(parts, bodyPart{mediaType: partType, text: text})
	}
	return parts
}

// decodePayload reads a payload, undoing its transfer encoding and charset.
// Any decoding failure degrades to an empty string.
func decodePayload(r io.Reader, transferEncoding, charsetName string) string {
	switch strings.ToLower(strings.TrimSpace(transferEncoding)) {
	case "base64":
		r = base64.NewDecoder(base64.StdEncoding, newWhitespaceStripper(r))
	case "quoted-printable":
		r = quotedprintable.NewReader(r)
	}

	if charsetName != "" && !strings.EqualFold(charsetName, "utf-8") && !strings.EqualFold(charsetName, "us-ascii") {
		if converted, err := charset.Reader(charsetName, r); err == nil {
			r = converted
		}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return string(data)
	}
	return strings.TrimSpace(string(data))
}

// whitespaceStripper filters CR/LF and spaces out of a base64 stream so the
// standard decoder accepts folded payloads
type whitespaceStripper struct {
	r io.Reader
}

func newWhitespaceStripper(r io.Reader) io.Reader {
	return &whitespaceStripper{r: r}
}

func (w *whitespaceStripper) Read(p []byte) (int, error) {
	n, err := w.r.Read(p)
	kept := 0
	for i := 0; i < n; i++ {
		switch p[i] {
		case '\r', '\n', ' ', '\t':
		default:
			p[kept] = p[i]
			kept++
		}
	}
	return kept, err
}

// readOrderedHeaders re-scans the raw header block to preserve the original
// header order, which net/mail's map representation discards
func readOrderedHeaders(raw []byte) (core.Header, error) {
	var headers core.Header

	normalized := bytes.ReplaceAll(raw, []byte("\r\n"), []byte("\n"))
	headerBlock := normalized
	if idx := bytes.Index(normalized, []byte("\n\n")); idx >= 0 {
		headerBlock = normalized[:idx]
	}

	var name, value string
	flush := func() {
		if name != "" {
			headers.Add(name, strings.TrimSpace(value))
		}
	}
	for _, line := range strings.Split(string(headerBlock), "\n") {
		if line == "" {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			// Folded continuation of the previous field
			value += " " + strings.TrimSpace(line)
			continue
		}
		colon := strings.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		flush()
		name = strings.TrimSpace(line[:colon])
		value = strings.TrimSpace(line[colon+1:])
	}
	flush()
	return headers, nil
}
