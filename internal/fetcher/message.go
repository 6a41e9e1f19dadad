package fetcher

import (
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/sirupsen/logrus"

	"github.com/dcurrey/dupReport/internal/models"
)

// ParseRaw decodes one RFC 5322 message. The first text/plain and
// text/html parts become Body and HTMLBody.
func ParseRaw(r io.Reader) (models.EmailMessage, error) {
	email := models.EmailMessage{
		Headers: make(map[string]string),
	}

	mr, err := mail.CreateReader(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return email, fmt.Errorf("failed to read message: %w", err)
	}
	defer mr.Close()

	h := mr.Header
	fields := h.Fields()
	for fields.Next() {
		if _, seen := email.Headers[fields.Key()]; !seen {
			email.Headers[fields.Key()] = fields.Value()
		}
	}

	email.ID = strings.TrimSpace(h.Get("Message-Id"))

	if email.Subject, err = h.Subject(); err != nil {
		email.Subject = h.Get("Subject")
	}
	if date, err := h.Date(); err == nil {
		email.Date = date
	} else {
		logrus.Debugf("Message %s has no usable Date header: %v", email.ID, err)
	}
	if from, err := h.AddressList("From"); err == nil && len(from) > 0 {
		email.From = from[0].Address
	}
	if to, err := h.AddressList("To"); err == nil {
		for _, addr := range to {
			email.To = append(email.To, addr.Address)
		}
	}

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			if message.IsUnknownCharset(err) {
				logrus.Warnf("Message %s: %v", email.ID, err)
				continue
			}
			return email, fmt.Errorf("failed to read part: %w", err)
		}

		inline, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := inline.ContentType()

		content, err := io.ReadAll(p.Body)
		if err != nil {
			return email, fmt.Errorf("failed to read part body: %w", err)
		}

		switch {
		case contentType == "text/html" && email.HTMLBody == "":
			email.HTMLBody = string(content)
		case (contentType == "text/plain" || contentType == "") && email.Body == "":
			email.Body = string(content)
		}
	}

	return email, nil
}
