// Package adapters provides the gorm repository of the messages feature.
package adapters

import (
	"context"

	"gorm.io/gorm"

	"crud_backend/internal/feature/messages/domain/entity"
	"crud_backend/internal/feature/messages/usecase"
	"crud_backend/internal/platform/persistence"
)

// AuditEntity names messages in the revision log.
const AuditEntity = "mensagem"

// MessageGorm is the message gateway plus the inbox queries.
type MessageGorm struct {
	*persistence.Gateway[entity.Message]
	db *gorm.DB
}

var _ usecase.MessageRepository = (*MessageGorm)(nil)

// NewMessageGorm creates a MessageGorm. Loaded messages carry sender and recipient.
func NewMessageGorm(db *gorm.DB) *MessageGorm {
	return &MessageGorm{
		Gateway: persistence.NewGateway[entity.Message](db,
			persistence.WithAudit(AuditEntity),
			persistence.WithPreload("Sender", "Recipient"),
		),
		db: db,
	}
}

// Inbox lists the messages addressed to recipientID, newest first.
func (r *MessageGorm) Inbox(ctx context.Context, recipientID uint, unreadOnly bool) ([]entity.Message, error) {
	q := persistence.Conn(ctx, r.db).
		Preload("Sender").
		Where("usr_destino = ?", recipientID)
	if unreadOnly {
		q = q.Where("seen = ?", false)
	}
	list := []entity.Message{}
	if err := q.Order("sent_at DESC").Order("id DESC").Find(&list).Error; err != nil {
		return nil, persistence.Classify(err)
	}
	return list, nil
}

// CountUnread counts the unread messages addressed to recipientID.
func (r *MessageGorm) CountUnread(ctx context.Context, recipientID uint) (int64, error) {
	return r.Count(ctx, "SELECT COUNT(1) FROM mensagem WHERE usr_destino = ? AND seen = ?", recipientID, false)
}
