// Package entity defines the domain entities for the auth feature.
package entity

import (
	"slices"
	"time"

	"crud_backend/internal/platform/search"
)

// User is a person who can log in: an employee or an administrator.
// Users are never removed while referenced; they are deactivated instead.
type User struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Login is unique across all users, active or not.
	Login string `gorm:"uniqueIndex;size:60;not null" json:"login"`

	// Password holds the bcrypt hash, never plaintext.
	Password string `gorm:"size:255;not null" json:"-"`

	Name  string `gorm:"size:120;not null" json:"name"`
	Email string `gorm:"size:255" json:"email"`

	// CPF is the Brazilian taxpayer id; unique when set.
	CPF string `gorm:"column:cpf;size:14;index" json:"cpf"`

	Inactive   bool       `gorm:"not null;default:false" json:"inactive"`
	LastAccess *time.Time `json:"last_access,omitempty"`

	Permissions []Permission `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"permissions,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName keeps the legacy table name.
func (User) TableName() string { return "entidade" }

func (u User) GetID() uint { return u.ID }

func (u *User) IsInactive() bool { return u.Inactive }

func (u *User) SetInactive(inactive bool) { u.Inactive = inactive }

// SearchFields lists the columns users can be searched by.
func (User) SearchFields() []search.Field {
	return []search.Field{
		{Label: "Code", Column: "id", Kind: search.KindNumber},
		{Label: "Login", Column: "login", Priority: 1},
		{Label: "Name", Column: "name", Priority: 2},
		{Label: "E-mail", Column: "email"},
		{Label: "CPF", Column: "cpf"},
	}
}

// HasAnyPermission reports whether u holds at least one of codes.
func (u *User) HasAnyPermission(codes ...PermissionCode) bool {
	for _, p := range u.Permissions {
		if slices.Contains(codes, p.Code) {
			return true
		}
	}
	return false
}

// Grant adds code unless u already holds it.
func (u *User) Grant(code PermissionCode) {
	if u.HasAnyPermission(code) {
		return
	}
	u.Permissions = append(u.Permissions, Permission{UserID: u.ID, Code: code})
}
