package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/mikey/mail-ledger/internal/core"
)

// MySQLStore is a MySQL implementation of the LedgerStore and StatsStore
// interfaces
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLStore connects to MySQL and prepares the schema
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS contacts (
			email VARCHAR(255) PRIMARY KEY,
			last_contact VARCHAR(64),
			is_advertisement BOOLEAN,
			unsubscribe_url TEXT,
			total_emails INT,
			ad_emails INT
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create contacts table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS stats (
			id TINYINT PRIMARY KEY,
			total_processed INT,
			total_advertisements INT,
			unique_senders INT,
			advertisement_rate DOUBLE,
			last_processed VARCHAR(64)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create stats table: %w", err)
	}

	return &MySQLStore{db: db, logger: logger}, nil
}

// Load reads all contact records
func (s *MySQLStore) Load(ctx context.Context) ([]core.ContactRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT email, last_contact, is_advertisement, unsubscribe_url, total_emails, ad_emails
		FROM contacts
		ORDER BY email
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	var records []core.ContactRecord
	for rows.Next() {
		var rec core.ContactRecord
		var lastContact string
		if err := rows.Scan(&rec.Email, &lastContact, &rec.IsAdvertisement, &rec.UnsubscribeURL, &rec.TotalMessages, &rec.AdMessages); err != nil {
			return nil, fmt.Errorf("failed to scan contact row: %w", err)
		}
		rec.LastContact, err = time.Parse(time.RFC3339, lastContact)
		if err != nil {
			return nil, fmt.Errorf("bad last_contact timestamp %q: %w", lastContact, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Save replaces the persisted ledger with the given snapshot inside a single
// transaction
func (s *MySQLStore) Save(ctx context.Context, records []core.ContactRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM contacts`); err != nil {
		return fmt.Errorf("failed to clear contacts: %w", err)
	}
	for _, rec := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO contacts (email, last_contact, is_advertisement, unsubscribe_url, total_emails, ad_emails)
			VALUES (?, ?, ?, ?, ?, ?)
		`, rec.Email, rec.LastContact.Format(time.RFC3339), rec.IsAdvertisement, rec.UnsubscribeURL, rec.TotalMessages, rec.AdMessages)
		if err != nil {
			return fmt.Errorf("failed to insert contact: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit ledger snapshot: %w", err)
	}
	s.logger.Debug("Saved contact ledger", zap.Int("records", len(records)))
	return nil
}

// LoadStats reads the statistics row
func (s *MySQLStore) LoadStats(ctx context.Context) (core.GlobalStats, error) {
	var stats core.GlobalStats
	var lastProcessed sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT total_processed, total_advertisements, unique_senders, advertisement_rate, last_processed
		FROM stats WHERE id = 1
	`).Scan(&stats.TotalProcessed, &stats.TotalAdvertisements, &stats.UniqueSenders, &stats.AdvertisementRate, &lastProcessed)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.GlobalStats{}, nil
		}
		return core.GlobalStats{}, fmt.Errorf("failed to query stats: %w", err)
	}

	if lastProcessed.Valid {
		t, err := time.Parse(time.RFC3339, lastProcessed.String)
		if err != nil {
			return core.GlobalStats{}, fmt.Errorf("bad last_processed timestamp %q: %w", lastProcessed.String, err)
		}
		stats.LastProcessedAt = &t
	}
	return stats, nil
}

// SaveStats upserts the statistics row
func (s *MySQLStore) SaveStats(ctx context.Context, stats core.GlobalStats) error {
	var lastProcessed any
	if stats.LastProcessedAt != nil {
		lastProcessed = stats.LastProcessedAt.Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO stats (id, total_processed, total_advertisements, unique_senders, advertisement_rate, last_processed)
		VALUES (1, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			total_processed = VALUES(total_processed),
			total_advertisements = VALUES(total_advertisements),
			unique_senders = VALUES(unique_senders),
			advertisement_rate = VALUES(advertisement_rate),
			last_processed = VALUES(last_processed)
	`, stats.TotalProcessed, stats.TotalAdvertisements, stats.UniqueSenders, stats.AdvertisementRate, lastProcessed)
	if err != nil {
		return fmt.Errorf("failed to save stats: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

// StatsStore adapts the MySQL store to the core.StatsStore interface
func (s *MySQLStore) StatsStore() core.StatsStore {
	return &mysqlStatsStore{s}
}

type mysqlStatsStore struct {
	s *MySQLStore
}

func (w *mysqlStatsStore) Load(ctx context.Context) (core.GlobalStats, error) {
	return w.s.LoadStats(ctx)
}

func (w *mysqlStatsStore) Save(ctx context.Context, stats core.GlobalStats) error {
	return w.s.SaveStats(ctx, stats)
}
