// Package ibge reads states and municipalities from the IBGE localities API.
package ibge

import (
	"os"
	"time"
)

// DefaultBaseURL is the public localities endpoint.
const DefaultBaseURL = "https://servicodados.ibge.gov.br/api/v1/localidades"

// Config holds the client settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// LoadConfig reads IBGE_BASE_URL, falling back to DefaultBaseURL.
func LoadConfig() Config {
	base := os.Getenv("IBGE_BASE_URL")
	if base == "" {
		base = DefaultBaseURL
	}
	return Config{BaseURL: base, Timeout: 15 * time.Second}
}
