package models

import "time"

// EmailMessage is a raw message as delivered by a mail transport.
type EmailMessage struct {
	ID       string            `json:"id"`
	Subject  string            `json:"subject"`
	From     string            `json:"from"`
	To       []string          `json:"to"`
	Date     time.Time         `json:"date"`
	Body     string            `json:"body"`
	HTMLBody string            `json:"html_body"`
	Headers  map[string]string `json:"headers"`
}
