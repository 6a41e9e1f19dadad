package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/ini.v1"
)

// File names placed inside the configured directories.
const (
	RCName  = "dupReport.rc"
	DBName  = "dupReport.db"
	LogName = "dupReport.log"
)

// ErrNeedsEdit is returned when the rc file was created or was missing
// settings that have no usable default.
var ErrNeedsEdit = errors.New("rc file initialized or changed, please configure it before running again")

// Transport selects the inbound mailbox protocol.
type Transport string

const (
	TransportIMAP  Transport = "imap"
	TransportPOP3  Transport = "pop3"
	TransportGmail Transport = "gmail"
)

// Encryption selects how a mail connection is secured.
type Encryption string

const (
	EncryptionSSL  Encryption = "ssl"
	EncryptionTLS  Encryption = "tls"
	EncryptionNone Encryption = "none"
)

// SizeReduce selects the unit used for sizes in the report.
type SizeReduce string

const (
	SizeNone SizeReduce = "none"
	SizeMega SizeReduce = "mega"
	SizeGiga SizeReduce = "giga"
)

// SortOrder selects how backup sets are ordered in the report.
type SortOrder string

const (
	SortBySource      SortOrder = "source"
	SortByDestination SortOrder = "destination"
)

// Config holds all configuration for one run
type Config struct {
	Main     MainConfig     `mapstructure:"main"`
	Incoming IncomingConfig `mapstructure:"incoming"`
	Outgoing OutgoingConfig `mapstructure:"outgoing"`

	// Resolved file locations, filled in by LoadConfig.
	RCFile  string `mapstructure:"-"`
	DBFile  string `mapstructure:"-"`
	LogFile string `mapstructure:"-"`
}

// MainConfig holds the [main] section
type MainConfig struct {
	DBPath           string     `mapstructure:"dbpath"`
	DBDriver         string     `mapstructure:"dbdriver"`
	DBDSN            string     `mapstructure:"dbdsn"`
	LogPath          string     `mapstructure:"logpath"`
	Verbose          int        `mapstructure:"verbose"`
	LogAppend        bool       `mapstructure:"logappend"`
	LogFormat        string     `mapstructure:"logformat"`
	SizeReduce       SizeReduce `mapstructure:"sizereduce"`
	SubjectRegex     string     `mapstructure:"subjectregex"`
	SummarySubject   string     `mapstructure:"summarysubject"`
	SrcRegex         string     `mapstructure:"srcregex"`
	DestRegex        string     `mapstructure:"destregex"`
	SrcDestDelimiter string     `mapstructure:"srcdestdelimiter"`
	Border           int        `mapstructure:"border"`
	Padding          int        `mapstructure:"padding"`
	DispErrors       bool       `mapstructure:"disperrors"`
	DispWarnings     bool       `mapstructure:"dispwarnings"`
	DispMessages     bool       `mapstructure:"dispmessages"`
	SortOrder        SortOrder  `mapstructure:"sortorder"`
	MetricsFile      string     `mapstructure:"metricsfile"`
	Schedule         string     `mapstructure:"schedule"`
	Listen           string     `mapstructure:"listen"`
}

// IncomingConfig holds the [incoming] section
type IncomingConfig struct {
	Transport    Transport  `mapstructure:"transport"`
	Server       string     `mapstructure:"server"`
	Port         int        `mapstructure:"port"`
	Encryption   Encryption `mapstructure:"encryption"`
	Account      string     `mapstructure:"account"`
	Password     string     `mapstructure:"password"`
	Folder       string     `mapstructure:"folder"`
	ClientID     string     `mapstructure:"clientid"`
	ClientSecret string     `mapstructure:"clientsecret"`
	RefreshToken string     `mapstructure:"refreshtoken"`
}

// OutgoingConfig holds the [outgoing] section
type OutgoingConfig struct {
	Transport    string     `mapstructure:"transport"`
	Server       string     `mapstructure:"server"`
	Port         int        `mapstructure:"port"`
	Encryption   Encryption `mapstructure:"encryption"`
	Account      string     `mapstructure:"account"`
	Password     string     `mapstructure:"password"`
	Sender       string     `mapstructure:"sender"`
	Receiver     string     `mapstructure:"receiver"`
	ClientID     string     `mapstructure:"clientid"`
	ClientSecret string     `mapstructure:"clientsecret"`
	RefreshToken string     `mapstructure:"refreshtoken"`
}

// rcPart is one recognised rc option. Options without an acceptable
// default force the user to edit the file when they are first added.
type rcPart struct {
	key        string
	value      string
	acceptable bool
}

var rcParts = []rcPart{
	{"main.dbpath", "", true},
	{"main.dbdriver", "sqlite", true},
	{"main.dbdsn", "", true},
	{"main.logpath", "", true},
	{"main.verbose", "1", true},
	{"main.logappend", "false", true},
	{"main.logformat", "text", true},
	{"main.sizereduce", "none", true},
	{"main.subjectregex", "^Duplicati Backup report for", true},
	{"main.summarysubject", "Duplicati Backup Summary Report", true},
	{"main.srcregex", `\w*`, true},
	{"main.destregex", `\w*`, true},
	{"main.srcdestdelimiter", "-", true},
	{"main.border", "1", true},
	{"main.padding", "5", true},
	{"main.disperrors", "true", true},
	{"main.dispwarnings", "true", true},
	{"main.dispmessages", "false", true},
	{"main.sortorder", "source", true},
	{"main.metricsfile", "", true},
	{"main.schedule", "0 0 6 * * *", true},
	{"main.listen", ":8080", true},
	{"incoming.transport", "imap", false},
	{"incoming.server", "localhost", false},
	{"incoming.port", "993", false},
	{"incoming.encryption", "tls", false},
	{"incoming.account", "someacct@hostmail.com", false},
	{"incoming.password", "********", false},
	{"incoming.folder", "INBOX", false},
	{"incoming.clientid", "", true},
	{"incoming.clientsecret", "", true},
	{"incoming.refreshtoken", "", true},
	{"outgoing.transport", "smtp", true},
	{"outgoing.server", "localhost", false},
	{"outgoing.port", "587", false},
	{"outgoing.encryption", "tls", false},
	{"outgoing.account", "someacct@hostmail.com", false},
	{"outgoing.password", "********", false},
	{"outgoing.sender", "sender@hostmail.com", false},
	{"outgoing.receiver", "receiver@hostmail.com", false},
	{"outgoing.clientid", "", true},
	{"outgoing.clientsecret", "", true},
	{"outgoing.refreshtoken", "", true},
}

// flagKeys maps command-line flags onto the rc keys they override.
var flagKeys = map[string]string{
	"dbpath":  "main.dbpath",
	"logpath": "main.logpath",
	"verbose": "main.verbose",
	"append":  "main.logappend",
	"mega":    "main.sizereduce",
}

// InitializeFile makes sure the rc file at path carries every recognised
// option, writing defaults for the missing ones. It reports whether an
// option without an acceptable default had to be added.
func InitializeFile(path string) (bool, error) {
	rc := newViper(path)

	if err := rc.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return false, fmt.Errorf("error reading rc file: %w", err)
		}
	}

	changed := false
	needsEdit := false
	for _, part := range rcParts {
		if rc.InConfig(part.key) {
			continue
		}
		rc.Set(part.key, part.value)
		changed = true
		if !part.acceptable {
			needsEdit = true
		}
	}

	if !changed {
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("error creating rc directory: %w", err)
	}
	// viper picks the encoder from the file extension.
	tmp := path + ".ini"
	if err := rc.WriteConfigAs(tmp); err != nil {
		return false, fmt.Errorf("error writing rc file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return false, fmt.Errorf("error replacing rc file: %w", err)
	}
	return needsEdit, nil
}

// newViper returns an INI reader for path that keeps '#' and ';' inside
// values, so passwords and patterns survive intact.
func newViper(path string) *viper.Viper {
	v := viper.NewWithOptions(viper.IniLoadOptions(ini.LoadOptions{IgnoreInlineComment: true}))
	v.SetConfigFile(path)
	v.SetConfigType("ini")
	return v
}

// LoadConfig loads the rc file at path and overlays environment variables
// and any changed command-line flags.
func LoadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	v := newViper(path)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading rc file: %w", err)
	}

	// Environment variables override the rc file
	v.SetEnvPrefix("DUPREPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindFlags(v, flags); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.RCFile = path
	cfg.DBFile = filepath.Join(dirOrDefault(cfg.Main.DBPath), DBName)
	cfg.LogFile = filepath.Join(dirOrDefault(cfg.Main.LogPath), LogName)

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	for _, part := range rcParts {
		if part.acceptable {
			v.SetDefault(part.key, part.value)
		}
	}
}

// bindFlags binds command-line flags to configuration keys
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("error binding flag %s: %w", name, err)
		}
	}
	return nil
}

// ProgramDir returns the directory holding the running executable.
func ProgramDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

func dirOrDefault(dir string) string {
	if dir == "" {
		return ProgramDir()
	}
	return dir
}

// Validate validates the configuration
func (c *Config) Validate() error {
	m := c.Main

	if m.Verbose < 0 || m.Verbose > 3 {
		return fmt.Errorf("verbose must be between 0 and 3, got %d", m.Verbose)
	}

	switch m.DBDriver {
	case "sqlite":
	case "mysql":
		if m.DBDSN == "" {
			return fmt.Errorf("dbdsn is required when dbdriver is mysql")
		}
	default:
		return fmt.Errorf("unknown dbdriver %q", m.DBDriver)
	}

	if m.LogFormat != "text" && m.LogFormat != "json" {
		return fmt.Errorf("unknown logformat %q", m.LogFormat)
	}

	switch m.SizeReduce {
	case SizeNone, SizeMega, SizeGiga:
	default:
		return fmt.Errorf("unknown sizereduce %q", m.SizeReduce)
	}

	switch m.SortOrder {
	case SortBySource, SortByDestination:
	default:
		return fmt.Errorf("unknown sortorder %q", m.SortOrder)
	}

	for name, expr := range map[string]string{
		"subjectregex": m.SubjectRegex,
		"srcregex":     m.SrcRegex,
		"destregex":    m.DestRegex,
	} {
		if _, err := regexp.Compile(expr); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	if m.SrcDestDelimiter == "" {
		return fmt.Errorf("srcdestdelimiter is required")
	}

	if err := c.Incoming.validate(); err != nil {
		return fmt.Errorf("incoming: %w", err)
	}
	if err := c.Outgoing.validate(); err != nil {
		return fmt.Errorf("outgoing: %w", err)
	}

	return nil
}

func validEncryption(e Encryption) bool {
	return e == EncryptionSSL || e == EncryptionTLS || e == EncryptionNone || e == ""
}

func (c *IncomingConfig) validate() error {
	switch c.Transport {
	case TransportIMAP, TransportPOP3:
		if c.Server == "" || c.Port <= 0 {
			return fmt.Errorf("server and port are required for %s", c.Transport)
		}
		if !validEncryption(c.Encryption) {
			return fmt.Errorf("unknown encryption %q", c.Encryption)
		}
	case TransportGmail:
		if c.ClientID == "" || c.ClientSecret == "" || c.RefreshToken == "" {
			return fmt.Errorf("Gmail OAuth2 credentials are required for the gmail transport")
		}
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	return nil
}

func (c *OutgoingConfig) validate() error {
	switch c.Transport {
	case "smtp", "":
		if c.Server == "" || c.Port <= 0 {
			return fmt.Errorf("server and port are required for smtp")
		}
		if !validEncryption(c.Encryption) {
			return fmt.Errorf("unknown encryption %q", c.Encryption)
		}
	case "gmail":
		if c.ClientID == "" || c.ClientSecret == "" || c.RefreshToken == "" {
			return fmt.Errorf("Gmail OAuth2 credentials are required for the gmail transport")
		}
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if c.Sender == "" || c.Receiver == "" {
		return fmt.Errorf("sender and receiver are required")
	}
	return nil
}

// Redacted returns a copy safe to write to the log.
func (c Config) Redacted() Config {
	const mask = "********"
	if c.Incoming.Password != "" {
		c.Incoming.Password = mask
	}
	if c.Outgoing.Password != "" {
		c.Outgoing.Password = mask
	}
	if c.Incoming.RefreshToken != "" {
		c.Incoming.RefreshToken = mask
	}
	if c.Outgoing.RefreshToken != "" {
		c.Outgoing.RefreshToken = mask
	}
	if c.Main.DBDSN != "" {
		c.Main.DBDSN = mask
	}
	return c
}
