package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/dcurrey/dupReport/internal/config"
)

// SMTPSender sends reports through an SMTP relay
type SMTPSender struct {
	cfg config.OutgoingConfig
}

// NewSMTPSender creates a sender. ssl means implicit TLS, tls means
// STARTTLS and none sends in the clear.
func NewSMTPSender(cfg config.OutgoingConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send delivers msg to its receiver.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	body, err := Compose(msg)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(s.cfg.Server, strconv.Itoa(s.cfg.Port))
	client, err := s.dial(ctx, addr)
	if err != nil {
		return err
	}
	defer client.Close()

	if s.cfg.Encryption == config.EncryptionTLS {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Server}); err != nil {
			return fmt.Errorf("SMTP STARTTLS: %w", err)
		}
	}

	if s.cfg.Account != "" {
		auth := smtp.PlainAuth("", s.cfg.Account, s.cfg.Password, s.cfg.Server)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth: %w", err)
		}
	}

	if err := client.Mail(msg.From); err != nil {
		return fmt.Errorf("SMTP MAIL FROM: %w", err)
	}
	if err := client.Rcpt(msg.To); err != nil {
		return fmt.Errorf("SMTP RCPT TO: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("writing email body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing email body: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"server":   addr,
		"receiver": msg.To,
	}).Info("Report sent")

	return client.Quit()
}

func (s *SMTPSender) dial(ctx context.Context, addr string) (*smtp.Client, error) {
	dialer := &net.Dialer{Timeout: dialTimeout}

	var conn net.Conn
	var err error
	if s.cfg.Encryption == config.EncryptionSSL {
		tlsDialer := &tls.Dialer{NetDialer: dialer, Config: &tls.Config{ServerName: s.cfg.Server}}
		conn, err = tlsDialer.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, fmt.Errorf("dial to %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, s.cfg.Server)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating SMTP client: %w", err)
	}
	return client, nil
}
