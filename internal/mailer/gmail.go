package mailer

import (
	"context"
	"encoding/base64"
	"fmt"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/sirupsen/logrus"

	"github.com/dcurrey/dupReport/internal/config"
	"github.com/dcurrey/dupReport/internal/gmailapi"
)

// GmailSender sends reports through the Gmail API
type GmailSender struct {
	service *gmail.Service
}

// NewGmailSender creates a sender from the [outgoing] OAuth2 credentials.
func NewGmailSender(ctx context.Context, cfg config.OutgoingConfig) (*GmailSender, error) {
	service, err := gmailapi.NewService(ctx, gmailapi.Credentials{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RefreshToken: cfg.RefreshToken,
	}, gmail.GmailSendScope)
	if err != nil {
		return nil, err
	}
	return &GmailSender{service: service}, nil
}

// Send delivers msg to its receiver.
func (s *GmailSender) Send(ctx context.Context, msg Message) error {
	body, err := Compose(msg)
	if err != nil {
		return err
	}

	raw := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(body)}
	if _, err := s.service.Users.Messages.Send(gmailapi.User, raw).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to send report: %w", err)
	}

	logrus.WithField("receiver", msg.To).Info("Report sent through Gmail")
	return nil
}
