package ibge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"crud_backend/internal/feature/location/domain/entity"
	"crud_backend/internal/feature/location/usecase"
	"crud_backend/internal/platform/externalapi/ibge/dto"
)

// Client implements usecase.LocalitySource over the IBGE API.
type Client struct {
	cfg    Config
	client *http.Client
}

var _ usecase.LocalitySource = (*Client)(nil)

// NewClient returns a Client using client for the calls.
func NewClient(cfg Config, client *http.Client) *Client {
	return &Client{cfg: cfg, client: client}
}

// States lists every state. Code holds the two letter acronym.
func (c *Client) States(ctx context.Context) ([]entity.State, error) {
	var body []dto.State
	if err := c.get(ctx, "/estados", &body); err != nil {
		return nil, err
	}
	out := make([]entity.State, 0, len(body))
	for _, s := range body {
		out = append(out, entity.State{Name: s.Name, Code: s.Acronym})
	}
	return out, nil
}

// Cities lists the municipalities of the state with the given acronym.
// Code holds the IBGE municipality code.
func (c *Client) Cities(ctx context.Context, stateCode string) ([]entity.City, error) {
	var body []dto.Municipality
	if err := c.get(ctx, "/estados/"+url.PathEscape(stateCode)+"/municipios", &body); err != nil {
		return nil, err
	}
	out := make([]entity.City, 0, len(body))
	for _, m := range body {
		out = append(out, entity.City{Name: m.Name, Code: strconv.Itoa(m.ID)})
	}
	return out, nil
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		return fmt.Errorf("ibge http %d for %s", res.StatusCode, path)
	}
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
