package mail

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/salimtrading/staffportal/internal/storage"
	"go.uber.org/zap"
)

// ArchivingSender records every delivered message in object storage.
// Archive failures are logged and never fail the send.
type ArchivingSender struct {
	next  Sender
	store *storage.Storage
	log   *zap.Logger
	now   func() time.Time
}

func NewArchivingSender(next Sender, store *storage.Storage, log *zap.Logger) *ArchivingSender {
	return &ArchivingSender{next: next, store: store, log: log, now: time.Now}
}

type archivedMessage struct {
	Message
	SentAt time.Time `json:"sent_at"`
}

func (a *ArchivingSender) Send(ctx context.Context, msg Message) error {
	if err := a.next.Send(ctx, msg); err != nil {
		return err
	}

	sentAt := a.now().UTC()
	data, err := json.Marshal(archivedMessage{Message: msg, SentAt: sentAt})
	if err != nil {
		a.log.Warn("encode mail archive", zap.String("message_id", msg.ID), zap.Error(err))
		return nil
	}
	key := ArchiveKey(msg.ID, sentAt)
	if err := a.store.Put(ctx, key, data, "application/json"); err != nil {
		a.log.Warn("store mail archive", zap.String("key", key), zap.Error(err))
	}
	return nil
}

// ArchiveKey is the object key of an archived message.
func ArchiveKey(id string, sentAt time.Time) string {
	return fmt.Sprintf("mail/%04d/%02d/%s.json", sentAt.Year(), sentAt.Month(), id)
}
