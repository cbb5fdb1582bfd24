// Package entity defines the states and cities every address refers to.
package entity

import "crud_backend/internal/platform/search"

// State is a federative unit.
type State struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;not null" json:"name"`
	// Code is the two letter abbreviation, unique.
	Code string `gorm:"size:2;uniqueIndex;not null" json:"code"`
}

// TableName keeps the legacy table name.
func (State) TableName() string { return "estado" }

func (s State) GetID() uint { return s.ID }

func (State) SearchFields() []search.Field {
	return []search.Field{
		{Label: "Code", Column: "id", Kind: search.KindNumber, Priority: 2},
		{Label: "Name", Column: "name", Priority: 1},
		{Label: "Abbreviation", Column: "code"},
	}
}

// StateOption is one entry of a state selection list.
type StateOption struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
}
