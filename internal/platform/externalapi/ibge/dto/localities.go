// Package dto defines the IBGE localities API responses.
package dto

// State is one element of GET /estados.
type State struct {
	ID      int    `json:"id"`
	Acronym string `json:"sigla"`
	Name    string `json:"nome"`
}

// Municipality is one element of GET /estados/{uf}/municipios.
type Municipality struct {
	ID   int    `json:"id"`
	Name string `json:"nome"`
}
