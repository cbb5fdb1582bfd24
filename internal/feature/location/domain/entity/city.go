package entity

import "crud_backend/internal/platform/search"

// City belongs to one state.
type City struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Name    string `gorm:"size:100;not null" json:"name"`
	Code    string `gorm:"size:10" json:"code"`
	StateID uint   `gorm:"not null;index;column:estado_id" json:"state_id"`
	State   *State `gorm:"constraint:OnDelete:RESTRICT" json:"state,omitempty"`
}

// TableName keeps the legacy table name.
func (City) TableName() string { return "cidade" }

func (c City) GetID() uint { return c.ID }

func (City) SearchFields() []search.Field {
	return []search.Field{
		{Label: "Code", Column: "id", Kind: search.KindNumber, Priority: 2},
		{Label: "Name", Column: "name", Priority: 1},
		{Label: "IBGE code", Column: "code"},
	}
}
