package mail

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/salimtrading/staffportal/internal/mq"
	"go.uber.org/zap"
)

const contentTypeJSON = "application/json"

// QueueSender hands messages to the broker. A successful Send means the
// message was queued, not delivered.
type QueueSender struct {
	broker  *mq.MQ
	channel string
}

func NewQueueSender(broker *mq.MQ, channel string) *QueueSender {
	return &QueueSender{broker: broker, channel: channel}
}

func (q *QueueSender) Send(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return transportError(err)
	}
	if _, err := q.broker.Publish(ctx, q.channel, data, map[string]string{
		mq.AttrContentType: contentTypeJSON,
		"message-id":       msg.ID,
	}); err != nil {
		return transportError(err)
	}
	return nil
}

// Worker drains the outbound mail channel through a transport.
type Worker struct {
	broker  *mq.MQ
	channel string
	sender  Sender
	log     *zap.Logger
}

func NewWorker(broker *mq.MQ, channel string, sender Sender, log *zap.Logger) *Worker {
	return &Worker{broker: broker, channel: channel, sender: sender, log: log}
}

// Run blocks until ctx is cancelled or the broker subscription fails.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info("mail worker started", zap.String("channel", w.channel))
	err := w.broker.Subscribe(ctx, w.channel, w.handle)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *Worker) handle(ctx context.Context, m mq.Message) error {
	var msg Message
	if err := json.Unmarshal(m.Data, &msg); err != nil {
		// Undecodable payloads are acked; retrying cannot fix them.
		w.log.Error("drop malformed mail message", zap.String("mq_id", m.ID), zap.Error(err))
		return nil
	}
	if err := w.sender.Send(ctx, msg); err != nil {
		w.log.Error("deliver mail",
			zap.String("message_id", msg.ID),
			zap.Strings("to", msg.To),
			zap.Error(err),
		)
		return err
	}
	w.log.Info("mail delivered", zap.String("message_id", msg.ID), zap.Strings("to", msg.To))
	return nil
}
