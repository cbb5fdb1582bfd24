package persistence

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConstraint is returned when a write violates a referential constraint,
	// typically deleting a row that other rows still reference.
	ErrConstraint = errors.New("record is referenced by other records")
	// ErrDuplicate is returned when a write violates a unique constraint.
	ErrDuplicate = errors.New("record already exists")
	// ErrStaleObject is returned when a versioned row was changed or removed
	// by someone else since it was read.
	ErrStaleObject = errors.New("record was updated or deleted by another user")
	// ErrNotSoftDeletable is returned by Deactivate and FindActive for entity
	// types without an inactive flag.
	ErrNotSoftDeletable = errors.New("entity does not support deactivation")
	// ErrInvalidColumn is returned when a caller supplied column name is not a plain identifier.
	ErrInvalidColumn = errors.New("invalid column name")
	// ErrMissingID is returned when an update or delete is requested for an unsaved entity.
	ErrMissingID = errors.New("entity has no id")
)

// MySQL server error numbers.
const (
	mysqlDuplicateEntry  = 1062
	mysqlRowIsReferenced = 1451
	mysqlNoReferencedRow = 1452
)

// Classify maps driver and gorm errors onto the package sentinels so callers
// can branch with errors.Is regardless of the configured database.
// The original error stays in the chain.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrNotFound, ErrConstraint, ErrDuplicate, ErrStaleObject, ErrInvalidColumn, ErrMissingID, ErrNotSoftDeletable} {
		if errors.Is(err, known) {
			return err
		}
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %w", ErrConstraint, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlRowIsReferenced, mysqlNoReferencedRow:
			return fmt.Errorf("%w: %w", ErrConstraint, err)
		case mysqlDuplicateEntry:
			return fmt.Errorf("%w: %w", ErrDuplicate, err)
		}
	}

	// Drivers that do not translate errors still report them in the message.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "foreign key constraint"):
		return fmt.Errorf("%w: %w", ErrConstraint, err)
	case strings.Contains(msg, "unique constraint"), strings.Contains(msg, "duplicate key"):
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	}
	return err
}
