package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"crud_backend/internal/feature/location/domain/entity"
	"crud_backend/internal/platform/persistence"
	"crud_backend/internal/platform/search"
)

// LocalitySource is an external registry of states and their cities.
type LocalitySource interface {
	States(ctx context.Context) ([]entity.State, error)
	Cities(ctx context.Context, stateCode string) ([]entity.City, error)
}

// StateStore finds and upserts states.
type StateStore interface {
	FindUniqueByProperty(ctx context.Context, column string, value any, extra search.Condition) (*entity.State, error)
	SaveOrUpdate(ctx context.Context, s *entity.State) error
}

// CityStore finds and upserts cities.
type CityStore interface {
	FindUniqueByProperty(ctx context.Context, column string, value any, extra search.Condition) (*entity.City, error)
	SaveOrUpdate(ctx context.Context, c *entity.City) error
}

// Throttle paces calls to the source.
type Throttle interface {
	Wait(ctx context.Context, key string) error
}

// ImportResult counts what an import wrote.
type ImportResult struct {
	States int `json:"states"`
	Cities int `json:"cities"`
	Failed int `json:"failed"`
}

// ImportUsecase copies states and cities from a LocalitySource into the database.
type ImportUsecase struct {
	source   LocalitySource
	states   StateStore
	cities   CityStore
	throttle Throttle
}

// NewImportUsecase creates an ImportUsecase.
func NewImportUsecase(source LocalitySource, states StateStore, cities CityStore, throttle Throttle) *ImportUsecase {
	return &ImportUsecase{source: source, states: states, cities: cities, throttle: throttle}
}

// ImportAll upserts every state and then the cities of each state in only,
// or of all states when only is empty. States are matched by code and cities
// by code within their state. A state whose cities fail is logged and skipped.
func (u *ImportUsecase) ImportAll(ctx context.Context, only []string) (ImportResult, error) {
	var res ImportResult

	if err := u.throttle.Wait(ctx, "states"); err != nil {
		return res, err
	}
	states, err := u.source.States(ctx)
	if err != nil {
		return res, fmt.Errorf("list states: %w", err)
	}

	wanted := make(map[string]bool, len(only))
	for _, code := range only {
		wanted[strings.ToUpper(strings.TrimSpace(code))] = true
	}

	for _, s := range states {
		s.Code = strings.ToUpper(strings.TrimSpace(s.Code))
		if len(wanted) > 0 && !wanted[s.Code] {
			continue
		}
		stored, err := u.upsertState(ctx, s)
		if err != nil {
			return res, fmt.Errorf("state %s: %w", s.Code, err)
		}
		res.States++

		if err := u.throttle.Wait(ctx, "cities"); err != nil {
			return res, err
		}
		n, err := u.importCities(ctx, stored)
		res.Cities += n
		if err != nil {
			slog.Error("failed to import cities", "state", s.Code, "error", err)
			res.Failed++
			continue
		}
	}
	slog.Info("locality import finished", "states", res.States, "cities", res.Cities, "failed", res.Failed)
	return res, nil
}

func (u *ImportUsecase) upsertState(ctx context.Context, in entity.State) (*entity.State, error) {
	current, err := u.states.FindUniqueByProperty(ctx, "code", in.Code, search.Condition{})
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		current = &entity.State{Code: in.Code}
	case err != nil:
		return nil, err
	}
	current.Name = in.Name
	if err := u.states.SaveOrUpdate(ctx, current); err != nil {
		return nil, err
	}
	return current, nil
}

func (u *ImportUsecase) importCities(ctx context.Context, state *entity.State) (int, error) {
	cities, err := u.source.Cities(ctx, state.Code)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, c := range cities {
		current, err := u.cities.FindUniqueByProperty(ctx, "code", c.Code, search.Where("estado_id = ?", state.ID))
		switch {
		case errors.Is(err, persistence.ErrNotFound):
			current = &entity.City{Code: c.Code, StateID: state.ID}
		case err != nil:
			return n, err
		}
		current.Name = c.Name
		current.State = nil
		if err := u.cities.SaveOrUpdate(ctx, current); err != nil {
			return n, fmt.Errorf("city %s: %w", c.Code, err)
		}
		n++
	}
	return n, nil
}
