package fetcher

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/sirupsen/logrus"

	"github.com/dcurrey/dupReport/internal/config"
	"github.com/dcurrey/dupReport/internal/gmailapi"
	"github.com/dcurrey/dupReport/internal/models"
)

// GmailAPIFetcher implements EmailFetcher using Gmail API
type GmailAPIFetcher struct {
	service *gmail.Service
	label   string
}

// NewGmailAPIFetcher creates a new Gmail API fetcher. The configured
// folder is used as the label to read.
func NewGmailAPIFetcher(ctx context.Context, cfg config.IncomingConfig) (*GmailAPIFetcher, error) {
	service, err := gmailapi.NewService(ctx, gmailapi.Credentials{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RefreshToken: cfg.RefreshToken,
	}, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, err
	}

	label := cfg.Folder
	if label == "" {
		label = "INBOX"
	}

	return &GmailAPIFetcher{service: service, label: label}, nil
}

// FetchNewEmails returns every message carrying the label, oldest first.
func (f *GmailAPIFetcher) FetchNewEmails(ctx context.Context) ([]models.EmailMessage, error) {
	var ids []string
	err := f.service.Users.Messages.List(gmailapi.User).
		LabelIds(f.label).
		Context(ctx).
		Pages(ctx, func(resp *gmail.ListMessagesResponse) error {
			for _, m := range resp.Messages {
				ids = append(ids, m.Id)
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	logrus.Infof("%d messages labelled %s", len(ids), f.label)

	// The API lists newest first.
	emails := make([]models.EmailMessage, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		msg, err := f.service.Users.Messages.Get(gmailapi.User, ids[i]).Format("raw").Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("failed to get message %s: %w", ids[i], err)
		}

		raw, err := decodeRaw(msg.Raw)
		if err != nil {
			logrus.Warnf("Failed to decode message %s: %v", ids[i], err)
			continue
		}

		email, err := ParseRaw(strings.NewReader(raw))
		if err != nil {
			logrus.Warnf("Failed to parse message %s: %v", ids[i], err)
			continue
		}
		emails = append(emails, email)
	}

	return emails, nil
}

func decodeRaw(s string) (string, error) {
	data, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		data, err = base64.RawURLEncoding.DecodeString(s)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Close closes the Gmail API fetcher
func (f *GmailAPIFetcher) Close() error {
	return nil
}
