package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dcurrey/dupReport/internal/models"
)

var (
	// ErrNotOfInterest marks a message whose subject does not match.
	ErrNotOfInterest = errors.New("message is not a backup notification")
	// ErrMalformedSubject marks a notification whose subject lacks the source/destination delimiter.
	ErrMalformedSubject = errors.New("source/destination delimiter not found in subject")
	// ErrNoMessageID marks a message that cannot be deduplicated.
	ErrNoMessageID = errors.New("message has no Message-ID")
)

// FailureResult is stored as the parsed result of a failed run.
const FailureResult = "Failure"

// Options configure the subject patterns
type Options struct {
	SubjectRegex string
	SrcRegex     string
	DestRegex    string
	Delimiter    string
}

// EmailParser turns backup notifications into records
type EmailParser struct {
	subject   *regexp.Regexp
	src       *regexp.Regexp
	dest      *regexp.Regexp
	delimiter string
}

// NewEmailParser compiles the subject patterns
func NewEmailParser(opts Options) (*EmailParser, error) {
	if opts.Delimiter == "" {
		return nil, fmt.Errorf("source/destination delimiter is empty")
	}

	subject, err := regexp.Compile(opts.SubjectRegex)
	if err != nil {
		return nil, fmt.Errorf("invalid subject regex: %w", err)
	}
	delim := regexp.QuoteMeta(opts.Delimiter)
	src, err := regexp.Compile(opts.SrcRegex + delim)
	if err != nil {
		return nil, fmt.Errorf("invalid source regex: %w", err)
	}
	dest, err := regexp.Compile(delim + opts.DestRegex)
	if err != nil {
		return nil, fmt.Errorf("invalid destination regex: %w", err)
	}

	return &EmailParser{
		subject:   subject,
		src:       src,
		dest:      dest,
		delimiter: opts.Delimiter,
	}, nil
}

// IsOfInterest reports whether the subject names a backup notification.
func (p *EmailParser) IsOfInterest(subject string) bool {
	return p.subject.MatchString(subject)
}

// Endpoints extracts the source and destination names from a subject.
func (p *EmailParser) Endpoints(subject string) (string, string, error) {
	srcLoc := p.src.FindStringIndex(subject)
	destLoc := p.dest.FindStringIndex(subject)
	if srcLoc == nil || destLoc == nil {
		return "", "", ErrMalformedSubject
	}

	source := strings.SplitN(subject[srcLoc[0]:srcLoc[1]], p.delimiter, 2)[0]
	destination := strings.SplitN(subject[destLoc[0]:destLoc[1]], p.delimiter, 2)[1]
	if source == "" || destination == "" {
		return "", "", ErrMalformedSubject
	}
	return source, destination, nil
}

// ParseMessage builds a record from one message. It returns
// ErrNoMessageID, ErrNotOfInterest or ErrMalformedSubject for messages
// that must be skipped.
func (p *EmailParser) ParseMessage(msg models.EmailMessage) (*models.Email, error) {
	if strings.TrimSpace(msg.ID) == "" {
		return nil, ErrNoMessageID
	}
	if !p.IsOfInterest(msg.Subject) {
		return nil, ErrNotOfInterest
	}

	source, destination, err := p.Endpoints(msg.Subject)
	if err != nil {
		return nil, err
	}

	record := &models.Email{
		MessageID:  msg.ID,
		SourceComp: source,
		DestComp:   destination,
	}
	if !msg.Date.IsZero() {
		local := msg.Date.Local()
		record.EmailDate = local.Format("2006-01-02")
		record.EmailTime = local.Format("15:04:05")
	}

	body := msg.Body
	if body == "" {
		body = msg.HTMLBody
	}
	ParseBody(record, body)

	logrus.WithFields(logrus.Fields{
		"message_id":  record.MessageID,
		"source":      record.SourceComp,
		"destination": record.DestComp,
		"end":         record.EndDate + " " + record.EndTime,
		"result":      record.ParsedResult,
	}).Debug("Parsed backup notification")

	return record, nil
}

// ParseBody fills the status fields of record from a notification body.
// EmailDate and EmailTime must already be set.
func ParseBody(record *models.Email, body string) {
	for _, f := range numberFields {
		value := f.search(body)
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			logrus.Warnf("Field %s value %q out of range, storing 0", f.label, value)
			n = 0
		}
		*f.target(record) = n
	}
	for _, f := range stringFields {
		*f.target(record) = f.search(body)
	}

	receiptDate := strings.ReplaceAll(record.EmailDate, "-", "/")

	if record.FailedMsg == "" {
		record.EndDate, record.EndTime = convertOrReceipt(endTimeField.search(body), receiptDate, record.EmailTime)
		record.BeginDate, record.BeginTime = convertOrReceipt(beginTimeField.search(body), receiptDate, record.EmailTime)
	} else {
		// A failed run never reports its own timing.
		record.Errors = record.FailedMsg
		record.ParsedResult = FailureResult
		record.Warnings = detailsField.search(body)
		record.EndDate, record.EndTime = receiptDate, record.EmailTime
		record.BeginDate, record.BeginTime = receiptDate, record.EmailTime
	}

	record.Messages = strings.ReplaceAll(record.Messages, ",", "\n")
	record.Warnings = strings.ReplaceAll(record.Warnings, ",", "\n")
	record.Errors = strings.ReplaceAll(record.Errors, ",", "\n")
}

func convertOrReceipt(value, receiptDate, receiptTime string) (string, string) {
	date, tm, err := ConvertDateTime(value)
	if err == nil {
		return date, tm
	}
	if !errors.Is(err, ErrNoTimestamp) {
		logrus.Warnf("Unable to convert timestamp: %v", err)
	}
	return receiptDate, receiptTime
}
