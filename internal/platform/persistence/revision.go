package persistence

import "time"

// RevisionType identifies the kind of write a revision row records.
type RevisionType string

const (
	RevisionAdd RevisionType = "ADD"
	RevisionMod RevisionType = "MOD"
	RevisionDel RevisionType = "DEL"
)

// Revision is one audit row written in the same transaction as the change it describes.
// UserID is nil when the write happened without an authenticated actor.
type Revision struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	Timestamp time.Time    `gorm:"column:revtstmp;not null" json:"timestamp"`
	UserID    *uint        `gorm:"column:entidade;index" json:"user_id,omitempty"`
	Entity    string       `gorm:"size:100;not null;index:idx_revinfo_entity" json:"entity"`
	EntityID  uint         `gorm:"not null;index:idx_revinfo_entity" json:"entity_id"`
	Operation RevisionType `gorm:"size:3;not null" json:"operation"`
}

// TableName returns the table name for GORM.
func (Revision) TableName() string {
	return "revinfo"
}
