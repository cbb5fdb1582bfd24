// Package adapters provides the gorm repositories of the location feature.
package adapters

import (
	"context"

	"gorm.io/gorm"

	"crud_backend/internal/feature/location/domain/entity"
	"crud_backend/internal/feature/location/usecase"
	"crud_backend/internal/platform/persistence"
)

// StateGorm is the state gateway plus the options query.
type StateGorm struct {
	*persistence.Gateway[entity.State]
}

var (
	_ usecase.StateOptionsRepository = (*StateGorm)(nil)
	_ usecase.StateFinder            = (*StateGorm)(nil)
	_ usecase.StateStore             = (*StateGorm)(nil)
)

// NewStateGorm creates a StateGorm with auditing enabled.
func NewStateGorm(db *gorm.DB) *StateGorm {
	return &StateGorm{persistence.NewGateway[entity.State](db, persistence.WithAudit("estado"))}
}

// Options lists every state ordered by name.
func (r *StateGorm) Options(ctx context.Context) ([]entity.StateOption, error) {
	states, err := r.FindByQuery(ctx, "SELECT id, name, code FROM estado ORDER BY name, id")
	if err != nil {
		return nil, err
	}
	out := make([]entity.StateOption, len(states))
	for i, s := range states {
		out[i] = entity.StateOption{ID: s.ID, Name: s.Name, Code: s.Code}
	}
	return out, nil
}

// CityGorm is the city gateway plus the per-state listing.
type CityGorm struct {
	*persistence.Gateway[entity.City]
}

var (
	_ usecase.CityRepository = (*CityGorm)(nil)
	_ usecase.CityStore      = (*CityGorm)(nil)
)

// NewCityGorm creates a CityGorm with auditing enabled. Loaded cities carry their state.
func NewCityGorm(db *gorm.DB) *CityGorm {
	return &CityGorm{persistence.NewGateway[entity.City](db, persistence.WithAudit("cidade"), persistence.WithPreload("State"))}
}

// ByState lists the cities of a state ordered by name.
func (r *CityGorm) ByState(ctx context.Context, stateID uint) ([]entity.City, error) {
	return r.FindByQuery(ctx, "SELECT * FROM cidade WHERE estado_id = ? ORDER BY name, id", stateID)
}
