package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"gorm.io/gorm"

	"github.com/dcurrey/dupReport/internal/config"
	"github.com/dcurrey/dupReport/internal/db"
	"github.com/dcurrey/dupReport/internal/fetcher"
	"github.com/dcurrey/dupReport/internal/ingest"
	"github.com/dcurrey/dupReport/internal/mailer"
	"github.com/dcurrey/dupReport/internal/metrics"
	"github.com/dcurrey/dupReport/internal/parser"
	"github.com/dcurrey/dupReport/internal/report"
	"github.com/dcurrey/dupReport/internal/repository"
)

// Version is the program version shown by the banner.
const Version = "2.0.3"

const copyrightYear = "2017"

// ErrStoreInitialized is returned when a missing store was created and the
// run was not asked to continue afterwards.
var ErrStoreInitialized = errors.New("database initialized, run again to process mail")

// errInitOnly ends a --initdb run after the store was rebuilt.
var errInitOnly = errors.New("database initialized")

// Options carries the command-line switches that are not rc overrides.
type Options struct {
	RCPath    string // directory holding dupReport.rc, empty for the program directory
	Flags     *pflag.FlagSet
	InitDB    bool
	InitDBRun bool
	Collect   bool
	Report    bool
}

// RCFile returns the rc file location selected by o.
func (o Options) RCFile() string {
	dir := o.RCPath
	if dir == "" {
		dir = config.ProgramDir()
	}
	return filepath.Join(dir, config.RCName)
}

// App is the state of one process: configuration, open log and store.
type App struct {
	cfg     *config.Config
	db      *gorm.DB
	repo    *repository.Repository
	metrics *metrics.Metrics
	logFile *os.File

	newFetcher func(ctx context.Context, cfg config.IncomingConfig) (fetcher.EmailFetcher, error)
	newSender  func(ctx context.Context, cfg config.OutgoingConfig) (mailer.Sender, error)
}

// LoadConfig brings the rc file up to date and loads it.
func LoadConfig(opts Options) (*config.Config, error) {
	path := opts.RCFile()

	needsEdit, err := config.InitializeFile(path)
	if err != nil {
		return nil, err
	}
	if needsEdit {
		return nil, fmt.Errorf("%s: %w", path, config.ErrNeedsEdit)
	}

	cfg, err := config.LoadConfig(path, opts.Flags)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// New opens the log file and the store. The store is created when it is
// missing or when opts asks for it.
func New(cfg *config.Config, opts Options) (*App, error) {
	logFile, err := setupLogging(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:        cfg,
		metrics:    metrics.NewMetrics(),
		logFile:    logFile,
		newFetcher: fetcher.New,
		newSender:  mailer.New,
	}

	logrus.Infof("******** dupReport Log - Start: %s", time.Now().Format(time.ANSIC))
	logrus.WithFields(logrus.Fields{
		"logfile": cfg.LogFile,
		"append":  cfg.Main.LogAppend,
		"verbose": cfg.Main.Verbose,
	}).Info("Logging configured")
	logrus.Debugf("Config file options: %+v", cfg.Redacted())
	logrus.Debugf("dbPath=%s rcPath=%s", cfg.DBFile, cfg.RCFile)

	if err := a.openStore(opts); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) openStore(opts Options) error {
	dbOpts := db.Options{Driver: a.cfg.Main.DBDriver, DSN: a.cfg.Main.DBDSN, File: a.cfg.DBFile}
	existed := db.Exists(dbOpts)

	if !existed && dbOpts.Driver != "mysql" {
		if err := os.MkdirAll(filepath.Dir(dbOpts.File), 0o755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	gdb, err := db.Open(dbOpts)
	if err != nil {
		return err
	}
	a.db = gdb

	if !existed || opts.InitDB || opts.InitDBRun {
		logrus.Infof("Database %s needs initializing", a.cfg.DBFile)
		if err := db.Initialize(gdb); err != nil {
			return err
		}
		switch {
		case opts.InitDBRun:
			logrus.Info("Database initialized, continuing")
		case opts.InitDB:
			return errInitOnly
		default:
			return ErrStoreInitialized
		}
	}

	if err := db.CheckVersion(gdb); err != nil {
		return err
	}
	a.repo = repository.New(gdb)
	return nil
}

// Close releases the store and the log file.
func (a *App) Close() {
	if a.db != nil {
		if err := db.Close(a.db); err != nil {
			logrus.Errorf("Failed to close database: %v", err)
		}
		a.db = nil
	}
	if a.logFile != nil {
		logrus.SetOutput(os.Stderr)
		_ = a.logFile.Close()
		a.logFile = nil
	}
}

// Metrics returns the process metrics.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// Cycle ingests new mail and sends the summary report, either step
// optional. Metrics are written to the textfile afterwards when one is
// configured.
func (a *App) Cycle(ctx context.Context, collect, send bool) error {
	started := time.Now()
	err := a.cycle(ctx, started, collect, send)

	a.metrics.CycleDuration.Observe(time.Since(started).Seconds())
	if err == nil {
		a.metrics.LastSuccess.SetToCurrentTime()
	}
	if path := a.cfg.Main.MetricsFile; path != "" {
		if werr := a.metrics.WriteTextfile(path); werr != nil {
			logrus.Warnf("Failed to write metrics: %v", werr)
		}
	}

	logrus.Infof("Program completed in %.3f seconds", time.Since(started).Seconds())
	return err
}

func (a *App) cycle(ctx context.Context, started time.Time, collect, send bool) error {
	if collect {
		if _, err := a.Collect(ctx); err != nil {
			return err
		}
	}
	if send {
		if err := a.Report(ctx, started); err != nil {
			return err
		}
	}
	return nil
}

// Collect reads the configured mailbox and stores new notifications.
func (a *App) Collect(ctx context.Context) (ingest.Result, error) {
	in := a.cfg.Incoming
	logrus.WithFields(logrus.Fields{
		"transport":  in.Transport,
		"server":     in.Server,
		"port":       in.Port,
		"encryption": in.Encryption,
	}).Info("Processing mailbox")

	p, err := parser.NewEmailParser(parser.Options{
		SubjectRegex: a.cfg.Main.SubjectRegex,
		SrcRegex:     a.cfg.Main.SrcRegex,
		DestRegex:    a.cfg.Main.DestRegex,
		Delimiter:    a.cfg.Main.SrcDestDelimiter,
	})
	if err != nil {
		return ingest.Result{}, err
	}

	f, err := a.newFetcher(ctx, in)
	if err != nil {
		return ingest.Result{}, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			logrus.Errorf("Failed to close fetcher: %v", err)
		}
	}()

	return ingest.NewPipeline(a.repo, p, a.metrics).Run(ctx, f)
}

// Report builds the summary of everything since the last report and
// mails it. Pair snapshots advance while the report is built.
func (a *App) Report(ctx context.Context, started time.Time) error {
	agg := report.NewAggregator(a.repo, report.OptionsFromConfig(a.cfg.Main), a.metrics)
	rep, err := agg.Build(started)
	if err != nil {
		a.metrics.ReportFailures.Inc()
		return fmt.Errorf("failed to build report: %w", err)
	}

	msg := mailer.Message{
		From:    a.cfg.Outgoing.Sender,
		To:      a.cfg.Outgoing.Receiver,
		Subject: a.cfg.Main.SummarySubject,
		Text:    rep.Text(),
		HTML:    rep.HTML(a.cfg.Main.Border, a.cfg.Main.Padding),
		Date:    time.Now(),
	}
	logrus.Tracef("msgtext=%s", msg.Text)
	logrus.Tracef("msgHtml=%s", msg.HTML)

	sender, err := a.newSender(ctx, a.cfg.Outgoing)
	if err != nil {
		a.metrics.ReportFailures.Inc()
		return err
	}
	if err := sender.Send(ctx, msg); err != nil {
		a.metrics.ReportFailures.Inc()
		return err
	}

	a.metrics.ReportsSent.Inc()
	logrus.WithField("rows", rep.DataRows).Info("Summary report sent")
	return nil
}

// Run performs one batch invocation.
func Run(ctx context.Context, opts Options) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}

	a, err := New(cfg, opts)
	if errors.Is(err, errInitOnly) {
		logrus.Infof("Database %s initialized", cfg.DBFile)
		return nil
	}
	if err != nil {
		return err
	}
	defer a.Close()

	collect := opts.Collect || !opts.Report
	send := opts.Report || !opts.Collect
	if err := a.Cycle(ctx, collect, send); err != nil {
		logrus.Errorf("Run failed: %v", err)
		return err
	}
	return nil
}

// PrintVersion writes the banner with the version of the configured store.
func PrintVersion(w io.Writer, opts Options) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}

	dbVersion := "not initialized"
	dbOpts := db.Options{Driver: cfg.Main.DBDriver, DSN: cfg.Main.DBDSN, File: cfg.DBFile}
	if db.Exists(dbOpts) {
		gdb, err := db.Open(dbOpts)
		if err != nil {
			return err
		}
		defer db.Close(gdb)
		if v, err := db.Version(gdb); err == nil {
			dbVersion = v.String()
		}
	}

	Banner(w, dbVersion)
	return nil
}

// Banner writes the program information block.
func Banner(w io.Writer, dbVersion string) {
	fmt.Fprint(w, "\n-----\ndupReport: A summary email report generator for Duplicati.\n")
	fmt.Fprintf(w, "Program Version %s\n", Version)
	fmt.Fprintf(w, "Database Version %s\n", dbVersion)
	fmt.Fprintf(w, "Copyright (c) %s Stephen Fried for HandyGuy Software.\n", copyrightYear)
	fmt.Fprint(w, "Distributed under MIT License. See LICENSE file for details.\n-----\n")
}
