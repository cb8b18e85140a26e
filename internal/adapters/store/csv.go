package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mikey/mail-ledger/internal/core"
)

var csvHeader = []string{"email", "last_contact", "is_advertisement", "unsubscribe_url", "total_emails", "ad_emails"}

// CSVLedgerStore persists the contact ledger as a tabular flat file, one
// row per sender
type CSVLedgerStore struct {
	path   string
	logger *zap.Logger
}

// NewCSVLedgerStore creates a CSV-backed ledger store
func NewCSVLedgerStore(path string, logger *zap.Logger) *CSVLedgerStore {
	return &CSVLedgerStore{path: path, logger: logger}
}

// Load reads all contact records, returning an empty slice if the file does
// not exist yet
func (s *CSVLedgerStore) Load(_ context.Context) ([]core.ContactRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open ledger file: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger file: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	records := make([]core.ContactRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := recordFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("bad ledger row %d: %w", i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Save writes a consistent snapshot of all records. The file is written to
// a temporary sibling and renamed into place so a crash mid-write never
// leaves a partially-written ledger.
func (s *CSVLedgerStore) Save(_ context.Context, records []core.ContactRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".ledger-*")
	if err != nil {
		return fmt.Errorf("failed to create temp ledger file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write ledger header: %w", err)
	}
	for _, rec := range records {
		if err := w.Write(rowFromRecord(rec)); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write ledger row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush ledger file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp ledger file: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace ledger file: %w", err)
	}
	s.logger.Debug("Saved contact ledger", zap.String("path", s.path), zap.Int("records", len(records)))
	return nil
}

func rowFromRecord(rec core.ContactRecord) []string {
	return []string{
		rec.Email,
		rec.LastContact.Format(time.RFC3339),
		strconv.FormatBool(rec.IsAdvertisement),
		rec.UnsubscribeURL,
		strconv.Itoa(rec.TotalMessages),
		strconv.Itoa(rec.AdMessages),
	}
}

func recordFromRow(row []string) (core.ContactRecord, error) {
	if len(row) != len(csvHeader) {
		return core.ContactRecord{}, fmt.Errorf("expected %d columns, got %d", len(csvHeader), len(row))
	}
	lastContact, err := time.Parse(time.RFC3339, row[1])
	if err != nil {
		return core.ContactRecord{}, fmt.Errorf("bad last_contact %q: %w", row[1], err)
	}
	isAd, err := strconv.ParseBool(row[2])
	if err != nil {
		return core.ContactRecord{}, fmt.Errorf("bad is_advertisement %q: %w", row[2], err)
	}
	total, err := strconv.Atoi(row[4])
	if err != nil {
		return core.ContactRecord{}, fmt.Errorf("bad total_emails %q: %w", row[4], err)
	}
	ads, err := strconv.Atoi(row[5])
	if err != nil {
		return core.ContactRecord{}, fmt.Errorf("bad ad_emails %q: %w", row[5], err)
	}
	return core.ContactRecord{
		Email:           row[0],
		LastContact:     lastContact,
		IsAdvertisement: isAd,
		UnsubscribeURL:  row[3],
		TotalMessages:   total,
		AdMessages:      ads,
	}, nil
}
