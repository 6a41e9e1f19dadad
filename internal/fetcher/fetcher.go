package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dcurrey/dupReport/internal/config"
	"github.com/dcurrey/dupReport/internal/models"
)

// ErrAuth is returned when the mailbox rejects the configured credentials.
var ErrAuth = errors.New("mailbox login failed")

const dialTimeout = 30 * time.Second

// EmailFetcher interface for fetching emails
type EmailFetcher interface {
	FetchNewEmails(ctx context.Context) ([]models.EmailMessage, error)
	Close() error
}

// New connects to the mailbox selected by cfg.Transport and logs in.
func New(ctx context.Context, cfg config.IncomingConfig) (EmailFetcher, error) {
	switch cfg.Transport {
	case config.TransportIMAP:
		return NewIMAPFetcher(cfg)
	case config.TransportPOP3:
		return NewPOP3Fetcher(cfg)
	case config.TransportGmail:
		return NewGmailAPIFetcher(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown incoming transport %q", cfg.Transport)
	}
}

func authError(err error) error {
	return fmt.Errorf("%w: %v", ErrAuth, err)
}
