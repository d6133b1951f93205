package mail

import (
	"context"

	"go.uber.org/zap"
)

// LogTransport writes messages to the log instead of sending them. It is
// meant for local development. Bodies carry live links, so they are only
// written at debug level.
type LogTransport struct {
	log *zap.Logger
}

func NewLogTransport(log *zap.Logger) *LogTransport {
	return &LogTransport{log: log}
}

func (t *LogTransport) Send(_ context.Context, msg Message) error {
	t.log.Info("mail not sent, log transport",
		zap.String("message_id", msg.ID),
		zap.Strings("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	t.log.Debug("mail body", zap.String("message_id", msg.ID), zap.String("body", msg.Body))
	return nil
}
