package fetcher

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"sort"
	"strconv"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/sirupsen/logrus"

	"github.com/dcurrey/dupReport/internal/config"
	"github.com/dcurrey/dupReport/internal/models"
)

// IMAPFetcher implements EmailFetcher using IMAP
type IMAPFetcher struct {
	client *client.Client
	folder string
}

// NewIMAPFetcher creates a new IMAP fetcher. Both ssl and tls mean
// implicit TLS on connect.
func NewIMAPFetcher(cfg config.IncomingConfig) (*IMAPFetcher, error) {
	addr := net.JoinHostPort(cfg.Server, strconv.Itoa(cfg.Port))

	var c *client.Client
	var err error
	switch cfg.Encryption {
	case config.EncryptionSSL, config.EncryptionTLS:
		c, err = client.DialTLS(addr, &tls.Config{ServerName: cfg.Server})
	default:
		c, err = client.Dial(addr)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server: %w", err)
	}
	c.Timeout = dialTimeout

	if err := c.Login(cfg.Account, cfg.Password); err != nil {
		_ = c.Logout()
		return nil, authError(err)
	}

	logrus.WithFields(logrus.Fields{
		"server":  addr,
		"account": cfg.Account,
	}).Info("Logged in to IMAP server")

	folder := cfg.Folder
	if folder == "" {
		folder = "INBOX"
	}

	return &IMAPFetcher{client: c, folder: folder}, nil
}

// FetchNewEmails returns every message in the folder in sequence order.
// Messages are fetched with BODY.PEEK[] so their flags are left alone.
func (f *IMAPFetcher) FetchNewEmails(ctx context.Context) ([]models.EmailMessage, error) {
	mbox, err := f.client.Select(f.folder, true)
	if err != nil {
		return nil, fmt.Errorf("failed to select %s: %w", f.folder, err)
	}

	logrus.Infof("%d messages in %s", mbox.Messages, f.folder)
	if mbox.Messages == 0 {
		return []models.EmailMessage{}, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddRange(1, mbox.Messages)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 16)
	done := make(chan error, 1)

	go func() {
		done <- f.client.Fetch(seqset, items, messages)
	}()

	var fetched []*imap.Message
	for msg := range messages {
		fetched = append(fetched, msg)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	sort.Slice(fetched, func(i, j int) bool { return fetched[i].SeqNum < fetched[j].SeqNum })

	emails := make([]models.EmailMessage, 0, len(fetched))
	for _, msg := range fetched {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		r := msg.GetBody(section)
		if r == nil {
			logrus.Warnf("IMAP message %d has no body", msg.SeqNum)
			continue
		}

		email, err := ParseRaw(r)
		if err != nil {
			logrus.Warnf("Failed to parse IMAP message %d: %v", msg.SeqNum, err)
			continue
		}
		emails = append(emails, email)
	}

	return emails, nil
}

// Close closes the IMAP fetcher
func (f *IMAPFetcher) Close() error {
	return f.client.Logout()
}
