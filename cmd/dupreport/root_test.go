package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rc = `[incoming]
transport = pop3
server = localhost
port = 995
encryption = ssl
account = backups@example.com
password = secret
folder = INBOX

[outgoing]
server = localhost
port = 587
encryption = tls
account = relay@example.com
password = secret
sender = dupreport@example.com
receiver = admin@example.com
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestMutuallyExclusiveFlags(t *testing.T) {
	_, err := run(t, "-c", "-t")
	assert.Error(t, err)

	_, err = run(t, "-i", "-I")
	assert.Error(t, err)
}

func TestVersionFlag(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dupReport.rc"), []byte(rc), 0o644))

	out, err := run(t, "-V", "-r", dir, "-d", dir, "-l", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Program Version 2.0.3")
	assert.Contains(t, out, "Database Version not initialized")
	assert.NoFileExists(t, filepath.Join(dir, "dupReport.db"))
}

func TestMissingRCNeedsEdit(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, "-r", dir)
	assert.ErrorContains(t, err, "please configure it")
	assert.FileExists(t, filepath.Join(dir, "dupReport.rc"))
}

func TestSubcommands(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"serve", "gmail-token"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}
