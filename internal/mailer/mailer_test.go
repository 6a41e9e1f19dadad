package mailer

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcurrey/dupReport/internal/config"
)

func testMessage() Message {
	return Message{
		From:    "dupreport@example.com",
		To:      "admin@example.com",
		Subject: "Duplicati Backup Summary Report",
		Text:    "***** Home to Cloud *****\n",
		HTML:    "<html><body><b>***** Home to Cloud *****</b></body></html>",
		Date:    time.Date(2021, 3, 15, 6, 0, 0, 0, time.UTC),
	}
}

func TestCompose(t *testing.T) {
	raw, err := Compose(testMessage())
	require.NoError(t, err)

	mr, err := mail.CreateReader(bytes.NewReader(raw))
	require.NoError(t, err)

	subject, err := mr.Header.Subject()
	require.NoError(t, err)
	assert.Equal(t, "Duplicati Backup Summary Report", subject)
	assert.NotEmpty(t, mr.Header.Get("Message-Id"))

	var types, bodies []string
	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		h, ok := p.Header.(*mail.InlineHeader)
		require.True(t, ok)
		ct, _, _ := h.ContentType()
		types = append(types, ct)
		b, err := io.ReadAll(p.Body)
		require.NoError(t, err)
		bodies = append(bodies, string(b))
	}

	assert.Equal(t, []string{"text/plain", "text/html"}, types)
	assert.Equal(t, "***** Home to Cloud *****\n", strings.ReplaceAll(bodies[0], "\r\n", "\n"))
	assert.Contains(t, bodies[1], "<b>***** Home to Cloud *****</b>")
}

// smtpSink accepts one plain SMTP session and returns what it saw.
func smtpSink(t *testing.T) (string, <-chan string) {
	t.Helper()

	l, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Close() })

	out := make(chan string, 1)
	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		r := bufio.NewReader(conn)
		reply := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }

		var transcript strings.Builder
		reply("220 localhost ESMTP")
		inData := false
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				out <- transcript.String()
				return
			}
			transcript.WriteString(line)

			if inData {
				if line == ".\r\n" {
					inData = false
					reply("250 queued")
				}
				continue
			}

			cmd := strings.ToUpper(strings.TrimSpace(line))
			switch {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				reply("250 localhost")
			case strings.HasPrefix(cmd, "MAIL"), strings.HasPrefix(cmd, "RCPT"):
				reply("250 ok")
			case cmd == "DATA":
				inData = true
				reply("354 go ahead")
			case cmd == "QUIT":
				reply("221 bye")
				out <- transcript.String()
				return
			default:
				reply("502 not implemented")
			}
		}
	}()

	return l.Addr().String(), out
}

func TestSMTPSenderPlain(t *testing.T) {
	addr, transcript := smtpSink(t)
	host, portStr, err := net.SplitHostPort(addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	sender, err := New(context.Background(), config.OutgoingConfig{
		Transport:  "smtp",
		Server:     host,
		Port:       port,
		Encryption: config.EncryptionNone,
	})
	require.NoError(t, err)

	require.NoError(t, sender.Send(context.Background(), testMessage()))

	select {
	case got := <-transcript:
		assert.Contains(t, got, "MAIL FROM:<dupreport@example.com>")
		assert.Contains(t, got, "RCPT TO:<admin@example.com>")
		assert.Contains(t, got, "Subject: Duplicati Backup Summary Report")
		assert.Contains(t, got, "multipart/alternative")
	case <-time.After(5 * time.Second):
		t.Fatal("SMTP session did not finish")
	}
}

func TestNewUnknownTransport(t *testing.T) {
	_, err := New(context.Background(), config.OutgoingConfig{Transport: "carrier-pigeon"})
	assert.Error(t, err)
}
