package report

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dcurrey/dupReport/internal/config"
	"github.com/dcurrey/dupReport/internal/metrics"
	"github.com/dcurrey/dupReport/internal/models"
)

// Store is the part of the repository the aggregator reads and advances.
type Store interface {
	ListBackupSets(byDestination bool) ([]models.BackupSet, error)
	EmailsSince(source, destination, lastDate, lastTime string) ([]models.Email, error)
	UpdateBackupSet(set *models.BackupSet) error
}

// Options control report content
type Options struct {
	Subject      string
	SizeReduce   config.SizeReduce
	SortOrder    config.SortOrder
	DispErrors   bool
	DispWarnings bool
	DispMessages bool
}

// OptionsFromConfig picks the report settings out of [main].
func OptionsFromConfig(m config.MainConfig) Options {
	return Options{
		Subject:      m.SummarySubject,
		SizeReduce:   m.SizeReduce,
		SortOrder:    m.SortOrder,
		DispErrors:   m.DispErrors,
		DispWarnings: m.DispWarnings,
		DispMessages: m.DispMessages,
	}
}

// Aggregator builds summary reports and advances pair snapshots
type Aggregator struct {
	store   Store
	opts    Options
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewAggregator creates an aggregator. m may be nil.
func NewAggregator(store Store, opts Options, m *metrics.Metrics) *Aggregator {
	return &Aggregator{store: store, opts: opts, metrics: m, now: time.Now}
}

// Build produces the report for every known pair. Each pair's snapshot is
// advanced to its newest reported record. started is the beginning of the
// run and feeds the closing running-time row.
func (a *Aggregator) Build(started time.Time) (*Report, error) {
	rep := &Report{Subject: a.opts.Subject}
	columns := columnsFor(a.opts.SizeReduce)

	rep.header(a.opts.Subject)
	headers := make([]Cell, len(columns))
	for i, c := range columns {
		headers[i] = c.headerCell()
	}
	rep.data(headers)

	sets, err := a.store.ListBackupSets(a.opts.SortOrder == config.SortByDestination)
	if err != nil {
		return nil, err
	}
	if a.metrics != nil {
		a.metrics.BackupSets.Set(float64(len(sets)))
	}

	for i := range sets {
		if err := a.addPair(rep, columns, &sets[i]); err != nil {
			return nil, err
		}
	}

	rep.header(fmt.Sprintf("Running Time: %.3f seconds.", a.now().Sub(started).Seconds()))

	if a.metrics != nil {
		a.metrics.ReportRows.Add(float64(rep.DataRows))
	}
	return rep, nil
}

func (a *Aggregator) addPair(rep *Report, columns []column, set *models.BackupSet) error {
	log := logrus.WithFields(logrus.Fields{
		"source":      set.Source,
		"destination": set.Destination,
	})
	rep.header(fmt.Sprintf("***** %s to %s *****", set.Source, set.Destination))

	emails, err := a.store.EmailsSince(set.Source, set.Destination, set.LastDate, set.LastTime)
	if err != nil {
		return err
	}

	if len(emails) == 0 {
		rep.note(fmt.Sprintf("No new activity. Last activity on %s at %s (%d days ago)",
			set.LastDate, set.LastTime, DaysSince(set.LastDate, a.now())))
		log.Debug("No new activity")
		return nil
	}

	for _, e := range emails {
		fileDelta := e.ExaminedFiles - set.LastFileCount
		sizeDelta := e.SizeOfExaminedFiles - set.LastFileSize
		log.Tracef("Files %d-%d=%d size %d-%d=%d", e.ExaminedFiles, set.LastFileCount, fileDelta,
			e.SizeOfExaminedFiles, set.LastFileSize, sizeDelta)

		values := []interface{}{
			e.EndDate,
			e.EndTime,
			e.ExaminedFiles,
			fileDelta,
			reduceSize(e.SizeOfExaminedFiles, a.opts.SizeReduce),
			reduceSize(sizeDelta, a.opts.SizeReduce),
			e.AddedFiles,
			e.DeletedFiles,
			e.ModifiedFiles,
			e.FilesWithError,
			e.ParsedResult,
		}
		cells := make([]Cell, len(columns))
		for i, c := range columns {
			cells[i] = Cell{Value: values[i], Format: c.format}
		}
		rep.data(cells)
		rep.DataRows++

		if a.opts.DispErrors && e.Errors != "" {
			rep.note(e.Errors)
		}
		if a.opts.DispWarnings && e.Warnings != "" {
			rep.note(e.Warnings)
		}
		if a.opts.DispMessages && e.Messages != "" {
			rep.note(e.Messages)
		}

		set.LastFileCount = e.ExaminedFiles
		set.LastFileSize = e.SizeOfExaminedFiles
		set.LastDate = e.EndDate
		set.LastTime = e.EndTime
	}

	if err := a.store.UpdateBackupSet(set); err != nil {
		return err
	}
	log.WithField("rows", len(emails)).Info("Pair reported")
	return nil
}

// DaysSince returns the whole calendar days from a stored YYYY/MM/DD
// date to now. Unreadable or future dates give 0.
func DaysSince(date string, now time.Time) int {
	var then time.Time
	var err error
	for _, layout := range []string{"2006/01/02", "2006-01-02"} {
		if then, err = time.Parse(layout, date); err == nil {
			break
		}
	}
	if err != nil {
		return 0
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	days := int(today.Sub(then).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
