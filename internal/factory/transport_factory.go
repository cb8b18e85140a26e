package factory

import (
	"go.uber.org/zap"

	imaptransport "github.com/mikey/mail-ledger/internal/adapters/imap"
	"github.com/mikey/mail-ledger/internal/config"
	"github.com/mikey/mail-ledger/internal/core"
)

// TransportFactory creates the mailbox transport
type TransportFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewTransportFactory creates a new transport factory
func NewTransportFactory(cfg *config.Config, logger *zap.Logger) *TransportFactory {
	return &TransportFactory{cfg: cfg, logger: logger}
}

// CreateTransport dials the configured mailbox
func (f *TransportFactory) CreateTransport() (core.Transport, error) {
	mailboxCfg := f.cfg.GetMailbox()
	return imaptransport.Dial(imaptransport.Config{
		Host:     mailboxCfg.Host,
		Port:     mailboxCfg.Port,
		Username: mailboxCfg.Username,
		Password: mailboxCfg.Password,
		Mailbox:  mailboxCfg.Name,
		TLS:      mailboxCfg.TLS,
	}, f.logger)
}
