package entity

import (
	"cmp"
	"slices"
)

// PermissionCode names one access right.
type PermissionCode string

const (
	PermissionAdmin         PermissionCode = "ADMIN"
	PermissionUser          PermissionCode = "USER"
	PermissionRegistry      PermissionCode = "CADASTRO_ACESSAR"
	PermissionFinance       PermissionCode = "FINANCEIRO_ACESSAR"
	PermissionMessages      PermissionCode = "MENSAGENS_ACESSAR"
	PermissionDistrictRead  PermissionCode = "BAIRRO_ACESSAR"
	PermissionDistrictWrite PermissionCode = "BAIRRO_INSERIR"
	PermissionDistrictEdit  PermissionCode = "BAIRRO_ALTERAR"
	PermissionDistrictDel   PermissionCode = "BAIRRO_EXCLUIR"
)

// Permission grants one code to one user.
type Permission struct {
	UserID uint           `gorm:"primaryKey;column:entidade_id" json:"-"`
	Code   PermissionCode `gorm:"primaryKey;size:40" json:"code"`
}

// TableName keeps the legacy table name.
func (Permission) TableName() string { return "entidadeacesso" }

// PermissionInfo describes a permission for selection lists.
type PermissionInfo struct {
	Code        PermissionCode `json:"code"`
	Description string         `json:"description"`
}

var descriptions = map[PermissionCode]string{
	PermissionAdmin:         "Administrator",
	PermissionUser:          "User",
	PermissionRegistry:      "Registry - access",
	PermissionFinance:       "Finance - access",
	PermissionMessages:      "Messages - access",
	PermissionDistrictRead:  "District - access",
	PermissionDistrictWrite: "District - insert",
	PermissionDistrictEdit:  "District - edit",
	PermissionDistrictDel:   "District - delete",
}

// Description returns the human readable name of c.
func (c PermissionCode) Description() string {
	if d, ok := descriptions[c]; ok {
		return d
	}
	return string(c)
}

// Valid reports whether c is part of the catalogue.
func (c PermissionCode) Valid() bool {
	_, ok := descriptions[c]
	return ok
}

// Catalogue returns every permission sorted by description.
func Catalogue() []PermissionInfo {
	out := make([]PermissionInfo, 0, len(descriptions))
	for code, desc := range descriptions {
		out = append(out, PermissionInfo{Code: code, Description: desc})
	}
	slices.SortFunc(out, func(a, b PermissionInfo) int {
		return cmp.Compare(a.Description, b.Description)
	})
	return out
}
