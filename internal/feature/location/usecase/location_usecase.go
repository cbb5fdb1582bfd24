// Package usecase implements the rules for states and cities.
package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"crud_backend/internal/feature/location/domain/entity"
	"crud_backend/internal/platform/persistence"
	"crud_backend/internal/shared/validation"
)

var stateCode = regexp.MustCompile(`^[A-Z]{2}$`)

// StateOptionsRepository lists states for selection lists, ordered by name.
type StateOptionsRepository interface {
	Options(ctx context.Context) ([]entity.StateOption, error)
}

// StateFinder loads one state.
type StateFinder interface {
	FindByID(ctx context.Context, id uint) (*entity.State, error)
}

// CityRepository lists the cities of a state, ordered by name.
type CityRepository interface {
	ByState(ctx context.Context, stateID uint) ([]entity.City, error)
}

type locationUsecase struct {
	states  StateFinder
	options StateOptionsRepository
	cities  CityRepository
}

// NewLocationUsecase creates a locationUsecase.
func NewLocationUsecase(states StateFinder, options StateOptionsRepository, cities CityRepository) *locationUsecase {
	return &locationUsecase{states: states, options: options, cities: cities}
}

// StateOptions returns every state ordered by name.
func (u *locationUsecase) StateOptions(ctx context.Context) ([]entity.StateOption, error) {
	return u.options.Options(ctx)
}

// CitiesOfState returns the cities of an existing state.
func (u *locationUsecase) CitiesOfState(ctx context.Context, stateID uint) ([]entity.City, error) {
	if _, err := u.states.FindByID(ctx, stateID); err != nil {
		return nil, err
	}
	return u.cities.ByState(ctx, stateID)
}

// ValidateState normalizes s and checks its fields.
func (u *locationUsecase) ValidateState(_ context.Context, s *entity.State) error {
	s.Name = strings.TrimSpace(s.Name)
	s.Code = strings.ToUpper(strings.TrimSpace(s.Code))
	if s.Name == "" {
		return validation.Field("name", "name is required")
	}
	if !stateCode.MatchString(s.Code) {
		return validation.Field("code", "abbreviation must be two letters")
	}
	return nil
}

// ValidateCity normalizes c and checks that its state exists.
func (u *locationUsecase) ValidateCity(ctx context.Context, c *entity.City) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Code = strings.TrimSpace(c.Code)
	c.State = nil
	if c.Name == "" {
		return validation.Field("name", "name is required")
	}
	if c.StateID == 0 {
		return validation.Field("state_id", "state is required")
	}
	if _, err := u.states.FindByID(ctx, c.StateID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return validation.Field("state_id", "state does not exist")
		}
		return err
	}
	return nil
}
