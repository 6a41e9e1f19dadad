package mailer

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/dcurrey/dupReport/internal/config"
)

const dialTimeout = 30 * time.Second

// Message is one outbound summary report.
type Message struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
	Date    time.Time
}

// Sender delivers a composed report.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// New returns the sender selected by cfg.Transport.
func New(ctx context.Context, cfg config.OutgoingConfig) (Sender, error) {
	switch cfg.Transport {
	case "smtp", "":
		return NewSMTPSender(cfg), nil
	case "gmail":
		return NewGmailSender(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown outgoing transport %q", cfg.Transport)
	}
}

// Compose renders msg as a multipart/alternative message with a plain
// text part followed by an HTML part.
func Compose(msg Message) ([]byte, error) {
	var h mail.Header
	date := msg.Date
	if date.IsZero() {
		date = time.Now()
	}
	h.SetDate(date)
	h.SetSubject(msg.Subject)
	h.SetAddressList("From", []*mail.Address{{Address: msg.From}})
	h.SetAddressList("To", []*mail.Address{{Address: msg.To}})
	if err := h.GenerateMessageID(); err != nil {
		return nil, fmt.Errorf("failed to generate Message-ID: %w", err)
	}

	var buf bytes.Buffer
	w, err := mail.CreateInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain", msg.Text},
		{"text/html", msg.HTML},
	}
	for _, p := range parts {
		var ph mail.InlineHeader
		ph.SetContentType(p.contentType, map[string]string{"charset": "utf-8"})
		ph.Set("Content-Transfer-Encoding", "quoted-printable")

		pw, err := w.CreatePart(ph)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s part: %w", p.contentType, err)
		}
		if _, err := pw.Write([]byte(p.body)); err != nil {
			return nil, fmt.Errorf("failed to write %s part: %w", p.contentType, err)
		}
		if err := pw.Close(); err != nil {
			return nil, fmt.Errorf("failed to close %s part: %w", p.contentType, err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to close message: %w", err)
	}
	return buf.Bytes(), nil
}
