package core

import (
	"strings"
	"time"
)

// Header is an ordered collection of raw message headers with
// case-insensitive lookup
type Header struct {
	fields []headerField
}

type headerField struct {
	name  string
	value string
}

// Add appends a header field, preserving arrival order
func (h *Header) Add(name, value string) {
	h.fields = append(h.fields, headerField{name: name, value: value})
}

// Get returns the first value for the given header name, matched
// case-insensitively, or the empty string if absent
func (h *Header) Get(name string) string {
	for _, f := range h.fields {
		if strings.EqualFold(f.name, name) {
			return f.value
		}
	}
	return ""
}

// Len returns the number of header fields
func (h *Header) Len() int {
	return len(h.fields)
}

// NormalizedMessage is the decoded form of one raw message. It is owned by
// the worker that produced it and discarded after classification.
type NormalizedMessage struct {
	SenderEmail    string
	Subject        string
	BodyText       string
	Headers        Header
	Date           time.Time
	UnsubscribeURL string
}

// ClassificationResult represents the outcome of advertisement classification
type ClassificationResult struct {
	IsAdvertisement   bool
	MatchedIndicators []string
}

// UpdateDelta is one sender-scoped update produced from classifying a single
// message; it is the unit exchanged between workers and the aggregator
type UpdateDelta struct {
	SenderEmail     string
	Timestamp       time.Time
	IsAdvertisement bool
	UnsubscribeURL  string
}

// ContactRecord is the durable per-sender record. IsAdvertisement reflects
// the classification of the most recent message, not a historical aggregate.
// UnsubscribeURL is sticky: it is only overwritten by a non-empty incoming
// value.
type ContactRecord struct {
	Email           string
	LastContact     time.Time
	IsAdvertisement bool
	UnsubscribeURL  string
	TotalMessages   int
	AdMessages      int
}

// GlobalStats holds the durable rolling counters. UniqueSenders is always
// derived from the ledger size, never tracked incrementally.
type GlobalStats struct {
	TotalProcessed      int        `json:"total_messages_processed"`
	TotalAdvertisements int        `json:"total_advertisements"`
	UniqueSenders       int        `json:"unique_senders"`
	AdvertisementRate   float64    `json:"advertisement_rate"`
	LastProcessedAt     *time.Time `json:"last_processed"`
}

// NormalizeAddress lower-cases and trims an address for use as a ledger key
func NormalizeAddress(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
