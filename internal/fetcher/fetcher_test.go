package fetcher

import (
	"bytes"
	"context"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-imap/backend/memory"
	"github.com/emersion/go-imap/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcurrey/dupReport/internal/config"
)

func rawMessage(id, subject, body string) string {
	lines := []string{
		"From: backup@example.com",
		"To: admin@example.com",
		"Subject: " + subject,
		"Date: Sun, 14 Mar 2021 21:06:00 +0000",
		"Message-ID: " + id,
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}
	return strings.Join(lines, "\r\n")
}

func buildTestIMAPServer(t *testing.T) (string, *memory.Mailbox) {
	t.Helper()

	be := memory.New()
	user, err := be.Login(nil, "username", "password")
	require.NoError(t, err)

	mb, err := user.GetMailbox("INBOX")
	require.NoError(t, err)

	mailbox := mb.(*memory.Mailbox)
	mailbox.Messages = nil

	s := server.New(be)
	s.AllowInsecureAuth = true
	t.Cleanup(func() { _ = s.Close() })

	l, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)

	go func() { _ = s.Serve(l) }()

	return l.Addr().String(), mailbox
}

func imapConfig(t *testing.T, addr, password string) config.IncomingConfig {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return config.IncomingConfig{
		Transport:  config.TransportIMAP,
		Server:     host,
		Port:       port,
		Encryption: config.EncryptionNone,
		Account:    "username",
		Password:   password,
		Folder:     "INBOX",
	}
}

func TestParseRaw(t *testing.T) {
	email, err := ParseRaw(strings.NewReader(rawMessage("<1@example.com>", "Duplicati Backup report for Home-Cloud", "ExaminedFiles: 12")))
	require.NoError(t, err)

	assert.Equal(t, "<1@example.com>", email.ID)
	assert.Equal(t, "Duplicati Backup report for Home-Cloud", email.Subject)
	assert.Equal(t, "backup@example.com", email.From)
	assert.Equal(t, []string{"admin@example.com"}, email.To)
	assert.True(t, email.Date.Equal(time.Date(2021, 3, 14, 21, 6, 0, 0, time.UTC)))
	assert.Equal(t, "ExaminedFiles: 12", email.Body)
	assert.Equal(t, "Duplicati Backup report for Home-Cloud", email.Headers["Subject"])
}

func TestParseRawMultipart(t *testing.T) {
	raw := strings.Join([]string{
		"Subject: =?utf-8?q?Duplicati_Backup_report_for_Home-Cloud?=",
		"Message-ID: <2@example.com>",
		"Content-Type: multipart/alternative; boundary=XYZ",
		"",
		"--XYZ",
		"Content-Type: text/plain",
		"",
		"plain body",
		"--XYZ",
		"Content-Type: text/html",
		"",
		"<p>html body</p>",
		"--XYZ--",
		"",
	}, "\r\n")

	email, err := ParseRaw(strings.NewReader(raw))
	require.NoError(t, err)

	assert.Equal(t, "Duplicati Backup report for Home-Cloud", email.Subject)
	assert.Equal(t, "plain body", email.Body)
	assert.Equal(t, "<p>html body</p>", email.HTMLBody)
	assert.True(t, email.Date.IsZero())
}

func TestIMAPFetcher(t *testing.T) {
	addr, mailbox := buildTestIMAPServer(t)

	for i, subject := range []string{"first", "second", "third"} {
		raw := rawMessage("<"+strconv.Itoa(i)+"@example.com>", subject, "body "+subject)
		require.NoError(t, mailbox.CreateMessage([]string{}, time.Now(), bytes.NewBufferString(raw)))
	}

	f, err := New(context.Background(), imapConfig(t, addr, "password"))
	require.NoError(t, err)
	defer f.Close()

	emails, err := f.FetchNewEmails(context.Background())
	require.NoError(t, err)
	require.Len(t, emails, 3)

	assert.Equal(t, "first", emails[0].Subject)
	assert.Equal(t, "second", emails[1].Subject)
	assert.Equal(t, "third", emails[2].Subject)
	assert.Equal(t, "<2@example.com>", emails[2].ID)
	assert.Equal(t, "body third", emails[2].Body)
}

func TestIMAPFetcherEmptyMailbox(t *testing.T) {
	addr, _ := buildTestIMAPServer(t)

	f, err := NewIMAPFetcher(imapConfig(t, addr, "password"))
	require.NoError(t, err)
	defer f.Close()

	emails, err := f.FetchNewEmails(context.Background())
	require.NoError(t, err)
	assert.Empty(t, emails)
}

func TestIMAPFetcherBadLogin(t *testing.T) {
	addr, _ := buildTestIMAPServer(t)

	_, err := NewIMAPFetcher(imapConfig(t, addr, "wrong"))
	assert.ErrorIs(t, err, ErrAuth)
}

func TestNewUnknownTransport(t *testing.T) {
	_, err := New(context.Background(), config.IncomingConfig{Transport: "uucp"})
	assert.Error(t, err)
}
