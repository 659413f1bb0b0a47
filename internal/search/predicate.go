package search

import (
	"fmt"
	"strings"
	"time"

	"github.com/theogognf/toi/pkg/types"
)

// Predicate is a SQL boolean fragment using ? placeholders. Filter
// predicates are unioned with explicit ids; scope predicates constrain
// every result, explicit ids included.
type Predicate struct {
	SQL   string
	Args  []any
	scope bool
}

// Where returns a filter predicate.
func Where(sql string, args ...any) Predicate {
	return Predicate{SQL: sql, Args: args}
}

// Scope returns a predicate that also applies to explicitly selected ids,
// e.g. restricting children to one parent.
func Scope(sql string, args ...any) Predicate {
	return Predicate{SQL: sql, Args: args, scope: true}
}

// Between returns filters for an optional inclusive time range on column.
func Between(column string, from, to *time.Time) []Predicate {
	var preds []Predicate
	if from != nil {
		preds = append(preds, Where(column+" >= ?", *from))
	}
	if to != nil {
		preds = append(preds, Where(column+" <= ?", *to))
	}
	return preds
}

// NullScope filters on whether column is null. Include keeps null rows,
// exclude drops them; the zero value adds nothing.
func NullScope(column string, s types.Scope) []Predicate {
	switch s {
	case types.ScopeInclude:
		return []Predicate{Where(column + " IS NULL")}
	case types.ScopeExclude:
		return []Predicate{Where(column + " IS NOT NULL")}
	default:
		return nil
	}
}

// TimeFallsOn matches rows where any of the timestamp columns falls within
// the day, week or month containing day. The upper bound is exclusive so
// fractional seconds at the end of the span still match.
func TimeFallsOn(day time.Time, on types.FallsOn, columns ...string) Predicate {
	from, next := span(day, on)
	clauses := make([]string, len(columns))
	args := make([]any, 0, 2*len(columns))
	for i, col := range columns {
		clauses[i] = fmt.Sprintf("(%s >= ? AND %s < ?)", col, col)
		args = append(args, from, next)
	}
	return Where("("+strings.Join(clauses, " OR ")+")", args...)
}

// DateFallsOn matches a DATE column: equality for a day, an inclusive
// range for a week or month.
func DateFallsOn(column string, day types.Date, on types.FallsOn) Predicate {
	if on == "" || on == types.FallsOnDay {
		return Where(column+" = ?", day)
	}
	from, to := DateRange(day, on)
	return Where(fmt.Sprintf("(%s >= ? AND %s <= ?)", column, column), from, to)
}
