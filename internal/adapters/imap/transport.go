package imap

import (
	"context"
	"fmt"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"go.uber.org/zap"

	"github.com/mikey/mail-ledger/internal/core"
)

// Transport is an IMAP implementation of the core.Transport interface. It
// keeps one session for its whole lifetime and addresses messages by their
// 1-based sequence number; deletions are flag-only until Close expunges, so
// sequence numbers stay stable for the duration of the session.
type Transport struct {
	client  *imapclient.Client
	mailbox string
	logger  *zap.Logger

	deleted bool
}

// Config holds the IMAP connection settings
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	Mailbox  string
	TLS      bool
}

// Dial connects, authenticates and selects the configured mailbox
func Dial(cfg Config, logger *zap.Logger) (*Transport, error) {
	addr := cfg.Host + ":" + cfg.Port

	var client *imapclient.Client
	var err error
	if cfg.TLS {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}

	if err := client.Login(cfg.Username, cfg.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("authentication failed for %s: %w", cfg.Username, err)
	}

	mailbox := cfg.Mailbox
	if mailbox == "" {
		mailbox = "INBOX"
	}
	if _, err := client.Select(mailbox, nil).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("failed to select %s: %w", mailbox, err)
	}

	logger.Info("Connected to mailbox",
		zap.String("host", cfg.Host),
		zap.String("mailbox", mailbox))

	return &Transport{client: client, mailbox: mailbox, logger: logger}, nil
}

// Count returns the number of messages in the selected mailbox
func (t *Transport) Count(_ context.Context) (int, error) {
	data, err := t.client.Select(t.mailbox, nil).Wait()
	if err != nil {
		return 0, fmt.Errorf("failed to select %s: %w", t.mailbox, err)
	}
	return int(data.NumMessages), nil
}

// Fetch retrieves the full raw bytes of the message at the given 1-based
// sequence number
func (t *Transport) Fetch(_ context.Context, index int) ([]byte, error) {
	seqSet := imap.SeqSetNum(uint32(index))
	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchCmd := t.client.Fetch(seqSet, &imap.FetchOptions{
		BodySection: []*imap.FetchItemBodySection{bodySection},
	})

	msg := fetchCmd.Next()
	if msg == nil {
		fetchCmd.Close()
		return nil, &core.FetchError{Index: index, Err: fmt.Errorf("message not found")}
	}
	buf, err := msg.Collect()
	if err != nil {
		fetchCmd.Close()
		return nil, &core.FetchError{Index: index, Err: err}
	}
	if err := fetchCmd.Close(); err != nil {
		return nil, &core.FetchError{Index: index, Err: err}
	}
	raw := buf.FindBodySection(bodySection)
	if raw == nil {
		return nil, &core.FetchError{Index: index, Err: fmt.Errorf("no body returned")}
	}
	return raw, nil
}

// Delete flags the message at the given sequence number as deleted. The
// flag is not expunged until Close so other indices stay valid.
func (t *Transport) Delete(_ context.Context, index int) error {
	seqSet := imap.SeqSetNum(uint32(index))
	storeCmd := t.client.Store(seqSet, &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagDeleted},
	}, nil)
	if err := storeCmd.Close(); err != nil {
		return &core.FetchError{Index: index, Err: err}
	}
	t.deleted = true
	return nil
}

// Close expunges any flagged deletions and ends the session
func (t *Transport) Close() error {
	if t.deleted {
		if err := t.client.Expunge().Close(); err != nil {
			t.logger.Error("Failed to expunge deleted messages", zap.Error(err))
		}
	}
	return t.client.Logout().Wait()
}
