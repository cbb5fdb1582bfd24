// Package entity defines the internal messages exchanged between users.
package entity

import (
	"time"

	authentity "crud_backend/internal/feature/auth/domain/entity"
	"crud_backend/internal/platform/search"
)

const (
	MaxSubjectLength = 80
	MaxBodyLength    = 1000
)

// Message is a note from one user to another.
type Message struct {
	ID uint `gorm:"primaryKey" json:"id"`

	SenderID uint             `gorm:"not null;index;column:usr_origem" json:"sender_id"`
	Sender   *authentity.User `gorm:"foreignKey:SenderID" json:"sender,omitempty"`

	RecipientID uint             `gorm:"not null;index;column:usr_destino" json:"recipient_id"`
	Recipient   *authentity.User `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`

	Subject          string    `gorm:"size:80;not null" json:"subject"`
	Body             string    `gorm:"size:1000;not null" json:"body"`
	Read             bool      `gorm:"column:seen;not null;default:false" json:"read"`
	RequiresResponse bool      `gorm:"not null;default:false" json:"requires_response"`
	SentAt           time.Time `gorm:"not null;index" json:"sent_at"`

	Version int `gorm:"not null;default:0" json:"version"`
}

// TableName keeps the legacy table name.
func (Message) TableName() string { return "mensagem" }

func (m Message) GetID() uint { return m.ID }

func (m Message) GetVersion() int { return m.Version }

func (m *Message) SetVersion(v int) { m.Version = v }

func (Message) SearchFields() []search.Field {
	return []search.Field{
		{Label: "Code", Column: "id", Kind: search.KindNumber},
		{Label: "Message", Column: "body", Priority: 1},
		{Label: "Subject", Column: "subject", Priority: 2},
		{Label: "Date", Column: "sent_at", Kind: search.KindDate},
	}
}
