package search

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrNoField is returned when a search is built without a field.
	ErrNoField = errors.New("search field is required")
	// ErrNoMode is returned when a search is built without a mode.
	ErrNoMode = errors.New("search mode is required")
	// ErrUnknownMode is returned for a mode outside the supported set.
	ErrUnknownMode = errors.New("unknown search mode")
	// ErrInvalidIdentifier is returned when a table or column is not a plain identifier.
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether s can be placed in SQL text as a table or column name.
func ValidIdentifier(s string) bool {
	return identifier.MatchString(s)
}

// Condition is an additional SQL predicate and its bound arguments.
type Condition struct {
	SQL  string
	Args []any
}

// Where returns a Condition.
func Where(sql string, args ...any) Condition {
	return Condition{SQL: sql, Args: args}
}

// Empty reports whether c carries no predicate.
func (c Condition) Empty() bool {
	return strings.TrimSpace(c.SQL) == ""
}

// Request is one search submitted from a list screen.
type Request struct {
	Field *Field
	Mode  Mode
	Value string
	// Extra is ANDed to the generated predicate, e.g. to hide inactive rows.
	Extra Condition
}

// Query is a built search. SelectSQL and CountSQL share Args.
type Query struct {
	Table   string
	Where   string
	Args    []any
	OrderBy string
}

// SelectSQL returns the ordered row query. Ties on OrderBy are broken by id
// so consecutive pages never overlap.
func (q Query) SelectSQL() string {
	if q.OrderBy == "id" {
		return fmt.Sprintf("SELECT * FROM %s WHERE %s ORDER BY id", q.Table, q.Where)
	}
	return fmt.Sprintf("SELECT * FROM %s WHERE %s ORDER BY %s, id", q.Table, q.Where, q.OrderBy)
}

// CountSQL returns the query counting the rows SelectSQL yields.
func (q Query) CountSQL() string {
	return fmt.Sprintf("SELECT COUNT(1) FROM %s WHERE %s", q.Table, q.Where)
}

// Builder builds queries against one table.
type Builder struct {
	table   string
	dialect string
}

// NewBuilder returns a builder for table. dialect is the gorm dialector name
// ("mysql", "postgres", "sqlite") and only affects how columns are normalized.
func NewBuilder(table, dialect string) *Builder {
	return &Builder{table: table, dialect: dialect}
}

// Build turns req into a parameterized query. The search value is always bound
// as an argument; only registered column names reach the SQL text.
func (b *Builder) Build(req Request) (Query, error) {
	if req.Field == nil {
		return Query{}, ErrNoField
	}
	if req.Mode == "" {
		return Query{}, ErrNoMode
	}
	if !ValidIdentifier(b.table) {
		return Query{}, fmt.Errorf("%w: table %q", ErrInvalidIdentifier, b.table)
	}
	if !ValidIdentifier(req.Field.Column) {
		return Query{}, fmt.Errorf("%w: column %q", ErrInvalidIdentifier, req.Field.Column)
	}

	value := Normalize(req.Value)
	column := b.normalizedColumn(req.Field.Column)

	var where string
	var arg string
	switch req.Mode {
	case Equals:
		where, arg = column+" = ?", value
	case Contains:
		where, arg = column+" LIKE ? ESCAPE '!'", "%"+escapeLike(value)+"%"
	case StartsWith:
		where, arg = column+" LIKE ? ESCAPE '!'", escapeLike(value)+"%"
	case EndsWith:
		where, arg = column+" LIKE ? ESCAPE '!'", "%"+escapeLike(value)
	default:
		return Query{}, fmt.Errorf("%w: %q", ErrUnknownMode, req.Mode)
	}

	args := []any{arg}
	if !req.Extra.Empty() {
		where += " AND (" + req.Extra.SQL + ")"
		args = append(args, req.Extra.Args...)
	}

	return Query{
		Table:   b.table,
		Where:   where,
		Args:    args,
		OrderBy: req.Field.Column,
	}, nil
}

// NormalizeFunc is the SQL function the sqlite connections register to run
// Normalize on column values.
const NormalizeFunc = "normalize_text"

// normalizedColumn renders the SQL counterpart of Normalize for column.
func (b *Builder) normalizedColumn(column string) string {
	switch b.dialect {
	case "sqlite":
		// sqlite's UPPER only folds ASCII, so the Go function does the work.
		return fmt.Sprintf("%s(CAST(%s AS TEXT))", NormalizeFunc, column)
	case "postgres":
		return fmt.Sprintf("UPPER(TRANSLATE(CAST(%s AS TEXT), '%s', '%s'))", column, accentFrom, accentTo)
	}
	expr := fmt.Sprintf("CAST(%s AS CHAR)", column)
	for _, p := range accentPairs {
		expr = fmt.Sprintf("REPLACE(%s, '%s', '%s')", expr, p[0], p[1])
	}
	return "UPPER(" + expr + ")"
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
