package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/dcurrey/dupReport/internal/fetcher"
	"github.com/dcurrey/dupReport/internal/metrics"
	"github.com/dcurrey/dupReport/internal/models"
	"github.com/dcurrey/dupReport/internal/parser"
)

// Store is the part of the repository the pipeline writes through.
type Store interface {
	IsEmailProcessed(messageID string) (bool, error)
	EnsureBackupSet(source, destination string) (bool, error)
	SaveEmail(email *models.Email) error
}

// Outcome is what happened to one message.
type Outcome int

const (
	Ingested Outcome = iota
	Duplicate
	NotOfInterest
	MalformedSubject
	NoMessageID
)

func (o Outcome) String() string {
	switch o {
	case Ingested:
		return "ingested"
	case Duplicate:
		return metrics.ReasonDuplicate
	case NotOfInterest:
		return metrics.ReasonNotOfInterest
	case MalformedSubject:
		return metrics.ReasonMalformed
	case NoMessageID:
		return metrics.ReasonNoMessageID
	}
	return "unknown"
}

// Result counts the outcomes of one run.
type Result struct {
	Seen     int
	Ingested int
	Skipped  map[Outcome]int
}

// Pipeline stores new backup notifications
type Pipeline struct {
	store   Store
	parser  *parser.EmailParser
	metrics *metrics.Metrics
}

// NewPipeline creates a pipeline. m may be nil.
func NewPipeline(store Store, p *parser.EmailParser, m *metrics.Metrics) *Pipeline {
	return &Pipeline{store: store, parser: p, metrics: m}
}

// Run fetches every message from f and ingests them in delivery order.
// A fetch or store error aborts the run; records already stored stay.
func (p *Pipeline) Run(ctx context.Context, f fetcher.EmailFetcher) (Result, error) {
	result := Result{Skipped: make(map[Outcome]int)}

	if p.metrics != nil {
		p.metrics.FetchCount.Inc()
	}
	emails, err := f.FetchNewEmails(ctx)
	if err != nil {
		if p.metrics != nil {
			p.metrics.FetchFailures.Inc()
		}
		return result, fmt.Errorf("failed to fetch emails: %w", err)
	}
	logrus.Infof("Fetched %d emails", len(emails))

	for _, email := range emails {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		outcome, err := p.Ingest(email)
		if err != nil {
			return result, err
		}

		result.Seen++
		if outcome == Ingested {
			result.Ingested++
		} else {
			result.Skipped[outcome]++
		}
	}

	logrus.WithFields(logrus.Fields{
		"seen":     result.Seen,
		"ingested": result.Ingested,
	}).Info("Collection completed")

	return result, nil
}

// Ingest stores one message unless it was seen before or is not a
// backup notification.
func (p *Pipeline) Ingest(email models.EmailMessage) (Outcome, error) {
	outcome, err := p.ingest(email)
	if err == nil && p.metrics != nil {
		p.metrics.MessagesSeen.Inc()
		if outcome == Ingested {
			p.metrics.MessagesIngested.Inc()
		} else {
			p.metrics.MessagesSkipped.WithLabelValues(outcome.String()).Inc()
		}
	}
	return outcome, err
}

func (p *Pipeline) ingest(email models.EmailMessage) (Outcome, error) {
	log := logrus.WithField("message_id", email.ID)

	if email.ID == "" {
		log.WithField("subject", email.Subject).Warn("Message has no Message-ID, skipping")
		return NoMessageID, nil
	}

	processed, err := p.store.IsEmailProcessed(email.ID)
	if err != nil {
		return 0, err
	}
	if processed {
		log.Info("Message already in database, skipping")
		return Duplicate, nil
	}

	record, err := p.parser.ParseMessage(email)
	switch {
	case errors.Is(err, parser.ErrNotOfInterest):
		log.Infof("Message is not a message of interest: %q", email.Subject)
		return NotOfInterest, nil
	case errors.Is(err, parser.ErrMalformedSubject):
		log.Warnf("Source/destination delimiter not found in %q, abandoning message", email.Subject)
		return MalformedSubject, nil
	case errors.Is(err, parser.ErrNoMessageID):
		return NoMessageID, nil
	case err != nil:
		return 0, fmt.Errorf("failed to parse message %s: %w", email.ID, err)
	}

	created, err := p.store.EnsureBackupSet(record.SourceComp, record.DestComp)
	if err != nil {
		return 0, err
	}
	if created {
		log.Infof("Pair %s/%s added to database", record.SourceComp, record.DestComp)
	}

	if err := p.store.SaveEmail(record); err != nil {
		return 0, err
	}

	log.WithFields(logrus.Fields{
		"source":      record.SourceComp,
		"destination": record.DestComp,
	}).Info("Backup notification stored")
	logrus.Tracef("Stored record: %+v", record)

	return Ingested, nil
}
