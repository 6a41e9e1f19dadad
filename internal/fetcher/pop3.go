package fetcher

import (
	"context"
	"fmt"

	"github.com/knadh/go-pop3"
	"github.com/sirupsen/logrus"

	"github.com/dcurrey/dupReport/internal/config"
	"github.com/dcurrey/dupReport/internal/models"
)

// POP3Fetcher implements EmailFetcher using POP3
type POP3Fetcher struct {
	conn *pop3.Conn
}

// NewPOP3Fetcher creates a new POP3 fetcher. Only ssl enables TLS.
func NewPOP3Fetcher(cfg config.IncomingConfig) (*POP3Fetcher, error) {
	p := pop3.New(pop3.Opt{
		Host:        cfg.Server,
		Port:        cfg.Port,
		DialTimeout: dialTimeout,
		TLSEnabled:  cfg.Encryption == config.EncryptionSSL,
	})

	conn, err := p.NewConn()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to POP3 server: %w", err)
	}

	if err := conn.Auth(cfg.Account, cfg.Password); err != nil {
		_ = conn.Quit()
		return nil, authError(err)
	}

	logrus.WithFields(logrus.Fields{
		"server":  fmt.Sprintf("%s:%d", cfg.Server, cfg.Port),
		"account": cfg.Account,
	}).Info("Logged in to POP3 server")

	return &POP3Fetcher{conn: conn}, nil
}

// FetchNewEmails retrieves every message in the maildrop in order.
func (f *POP3Fetcher) FetchNewEmails(ctx context.Context) ([]models.EmailMessage, error) {
	count, _, err := f.conn.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat maildrop: %w", err)
	}
	logrus.Infof("%d messages in maildrop", count)

	emails := make([]models.EmailMessage, 0, count)
	for id := 1; id <= count; id++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := f.conn.RetrRaw(id)
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve message %d: %w", id, err)
		}

		email, err := ParseRaw(raw)
		if err != nil {
			logrus.Warnf("Failed to parse POP3 message %d: %v", id, err)
			continue
		}
		emails = append(emails, email)
	}

	return emails, nil
}

// Close closes the POP3 fetcher
func (f *POP3Fetcher) Close() error {
	return f.conn.Quit()
}
