package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const completeRC = `[main]
dbpath = /var/lib/dupreport
verbose = 2
sizereduce = mega

[incoming]
transport = imap
server = imap.example.com
port = 993
encryption = tls
account = backups@example.com
password = secret
folder = INBOX

[outgoing]
server = smtp.example.com
port = 587
encryption = tls
account = backups@example.com
password = secret
sender = backups@example.com
receiver = admin@example.com
`

func writeRC(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), RCName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestInitializeFileCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), RCName)

	needsEdit, err := InitializeFile(path)
	require.NoError(t, err)
	assert.True(t, needsEdit)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[incoming]")
	assert.Contains(t, string(data), "[outgoing]")

	// A second pass finds nothing to add.
	needsEdit, err = InitializeFile(path)
	require.NoError(t, err)
	assert.False(t, needsEdit)
}

func TestInitializeFileAcceptableDefaults(t *testing.T) {
	path := writeRC(t, completeRC)

	needsEdit, err := InitializeFile(path)
	require.NoError(t, err)
	assert.False(t, needsEdit, "only options with usable defaults were missing")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "Duplicati Backup Summary Report", cfg.Main.SummarySubject)
}

func TestInitializeFileMissingIncomingKey(t *testing.T) {
	path := writeRC(t, "[main]\nverbose = 1\n")

	needsEdit, err := InitializeFile(path)
	require.NoError(t, err)
	assert.True(t, needsEdit)
}

func TestInitializeFileNoExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, RCName)

	_, err := InitializeFile(path)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.NoFileExists(t, path+".ini")
}

func TestLoadConfigKeepsCommentCharacters(t *testing.T) {
	rc := strings.NewReplacer(
		"password = secret\nsender", "password = se;cret\nsender",
		"password = secret\nfolder", "password = pa#ss;word\nfolder",
	).Replace(completeRC)
	rc = strings.Replace(rc, "[incoming]", "subjectregex = ^Backup (#[0-9]+|;done)\n\n[incoming]", 1)
	path := writeRC(t, rc)

	// The rewrite adds the missing [main] options and must keep the values.
	_, err := InitializeFile(path)
	require.NoError(t, err)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "pa#ss;word", cfg.Incoming.Password)
	assert.Equal(t, "se;cret", cfg.Outgoing.Password)
	assert.Equal(t, "^Backup (#[0-9]+|;done)", cfg.Main.SubjectRegex)
}

func TestLoadConfig(t *testing.T) {
	path := writeRC(t, completeRC)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Main.Verbose)
	assert.Equal(t, SizeMega, cfg.Main.SizeReduce)
	assert.Equal(t, "^Duplicati Backup report for", cfg.Main.SubjectRegex)
	assert.Equal(t, `\w*`, cfg.Main.SrcRegex)
	assert.Equal(t, "-", cfg.Main.SrcDestDelimiter)
	assert.Equal(t, 1, cfg.Main.Border)
	assert.Equal(t, 5, cfg.Main.Padding)
	assert.True(t, cfg.Main.DispErrors)
	assert.True(t, cfg.Main.DispWarnings)
	assert.False(t, cfg.Main.DispMessages)
	assert.Equal(t, SortBySource, cfg.Main.SortOrder)

	assert.Equal(t, TransportIMAP, cfg.Incoming.Transport)
	assert.Equal(t, 993, cfg.Incoming.Port)
	assert.Equal(t, EncryptionTLS, cfg.Incoming.Encryption)
	assert.Equal(t, "admin@example.com", cfg.Outgoing.Receiver)

	assert.Equal(t, filepath.Join("/var/lib/dupreport", DBName), cfg.DBFile)
	assert.Equal(t, path, cfg.RCFile)

	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	path := writeRC(t, completeRC)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.IntP("verbose", "v", 1, "")
	flags.StringP("mega", "m", "none", "")
	flags.StringP("dbpath", "d", "", "")
	require.NoError(t, flags.Parse([]string{"-m", "giga"}))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	// Changed flag wins, unchanged flags leave the file value alone.
	assert.Equal(t, SizeGiga, cfg.Main.SizeReduce)
	assert.Equal(t, 2, cfg.Main.Verbose)
	assert.Equal(t, "/var/lib/dupreport", cfg.Main.DBPath)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := writeRC(t, completeRC)
	t.Setenv("DUPREPORT_INCOMING_SERVER", "mail.internal")

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "mail.internal", cfg.Incoming.Server)
}

func TestConfigValidate(t *testing.T) {
	path := writeRC(t, completeRC)
	base, err := LoadConfig(path, nil)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"verbose out of range", func(c *Config) { c.Main.Verbose = 4 }},
		{"unknown sizereduce", func(c *Config) { c.Main.SizeReduce = "kilo" }},
		{"unknown sortorder", func(c *Config) { c.Main.SortOrder = "date" }},
		{"bad subject regex", func(c *Config) { c.Main.SubjectRegex = "(" }},
		{"empty delimiter", func(c *Config) { c.Main.SrcDestDelimiter = "" }},
		{"unknown transport", func(c *Config) { c.Incoming.Transport = "uucp" }},
		{"unknown encryption", func(c *Config) { c.Incoming.Encryption = "rot13" }},
		{"gmail without credentials", func(c *Config) { c.Incoming.Transport = TransportGmail }},
		{"mysql without dsn", func(c *Config) { c.Main.DBDriver = "mysql" }},
		{"missing receiver", func(c *Config) { c.Outgoing.Receiver = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRedacted(t *testing.T) {
	cfg := Config{}
	cfg.Incoming.Password = "secret"
	cfg.Outgoing.Password = "secret"

	r := cfg.Redacted()
	assert.Equal(t, "********", r.Incoming.Password)
	assert.Equal(t, "********", r.Outgoing.Password)
	assert.Equal(t, "secret", cfg.Incoming.Password)
}
