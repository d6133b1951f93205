// Package mail composes and delivers outbound email.
package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/salimtrading/staffportal/config"
	"github.com/salimtrading/staffportal/internal/mq"
	"github.com/salimtrading/staffportal/internal/storage"
	"go.uber.org/zap"
)

// ErrTransport wraps every delivery failure.
var ErrTransport = errors.New("mail transport failure")

// Message is a plain-text email.
type Message struct {
	ID      string    `json:"id"`
	From    string    `json:"from"`
	To      []string  `json:"to"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Created time.Time `json:"created"`
}

// NewMessage builds a message with a fresh id.
func NewMessage(from string, to []string, subject, body string) Message {
	return Message{
		ID:      uuid.NewString(),
		From:    from,
		To:      to,
		Subject: subject,
		Body:    body,
		Created: time.Now().UTC(),
	}
}

// Sender delivers a message or returns an error wrapping ErrTransport.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

func transportError(err error) error {
	return fmt.Errorf("%w: %v", ErrTransport, err)
}

// NewTransport builds the transport named by cfg.Transport.
func NewTransport(cfg config.MailConfig, log *zap.Logger) (Sender, error) {
	switch cfg.Transport {
	case "smtp":
		return NewSMTPTransport(cfg)
	case "http":
		return NewHTTPTransport(cfg)
	case "log":
		return NewLogTransport(log), nil
	default:
		return nil, fmt.Errorf("unknown MAIL_TRANSPORT %q", cfg.Transport)
	}
}

// NewSender assembles the sender used by request handlers. With queued
// delivery messages go to the broker and a worker performs the send;
// otherwise the transport is called inline. store may be nil.
func NewSender(cfg config.MailConfig, broker *mq.MQ, store *storage.Storage, log *zap.Logger) (Sender, error) {
	if cfg.Delivery == "queue" {
		if broker == nil {
			return nil, errors.New("queued mail delivery requires a message queue")
		}
		return NewQueueSender(broker, cfg.Channel), nil
	}

	transport, err := NewTransport(cfg, log)
	if err != nil {
		return nil, err
	}
	if store != nil {
		return NewArchivingSender(transport, store, log), nil
	}
	return transport, nil
}
