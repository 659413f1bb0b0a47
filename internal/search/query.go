package search

import (
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/theogognf/toi/pkg/types"
)

// statement is a candidate query before placeholder renumbering.
type statement struct {
	target    Target
	params    Params
	embedding *pgvector.Vector
	distance  float64
	preds     []Predicate
	withText  bool
}

// build renders the candidate query with $n placeholders.
func (s statement) build() (string, []any) {
	var (
		b    strings.Builder
		args []any
	)

	b.WriteString("SELECT id")
	if s.withText {
		for _, col := range s.target.TextColumns {
			b.WriteString(", ")
			b.WriteString(col)
		}
	}
	b.WriteString(" FROM ")
	b.WriteString(s.target.Table)

	var scopes, filters []string
	for _, p := range s.preds {
		if p.scope {
			scopes = append(scopes, "("+p.SQL+")")
		} else {
			filters = append(filters, "("+p.SQL+")")
		}
	}
	var scopeArgs, filterArgs []any
	for _, p := range s.preds {
		if p.scope {
			scopeArgs = append(scopeArgs, p.Args...)
		} else {
			filterArgs = append(filterArgs, p.Args...)
		}
	}
	if s.embedding != nil {
		filters = append(filters, "(embedding <=> ?) <= ?")
		filterArgs = append(filterArgs, *s.embedding, s.distance)
	}

	var match string
	switch {
	case len(s.params.IDs) > 0 && len(filters) > 0:
		match = "((" + strings.Join(filters, " AND ") + ") OR id = ANY(?))"
		filterArgs = append(filterArgs, pq.Array(s.params.IDs))
	case len(s.params.IDs) > 0:
		match = "id = ANY(?)"
		filterArgs = append(filterArgs, pq.Array(s.params.IDs))
	case len(filters) > 0:
		match = strings.Join(filters, " AND ")
	}

	conds := scopes
	if match != "" {
		conds = append(conds, match)
	}
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	args = append(args, scopeArgs...)
	args = append(args, filterArgs...)

	b.WriteString(" ORDER BY ")
	switch {
	case s.params.OrderBy == types.OrderOldest:
		b.WriteString(s.target.OrderColumn + " ASC, id ASC")
	case s.params.OrderBy == types.OrderNewest:
		b.WriteString(s.target.OrderColumn + " DESC, id DESC")
	case s.embedding != nil:
		b.WriteString("embedding <=> ?, id")
		args = append(args, *s.embedding)
	default:
		b.WriteString("id")
	}

	if s.params.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, s.params.Limit)
	}

	return Rebind(b.String()), args
}

// Rebind replaces each ? placeholder with $1, $2, ... in order.
func Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
