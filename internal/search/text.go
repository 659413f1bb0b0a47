package search

import (
	"database/sql"
	"strings"
)

// Column renders a single-column projection.
func Column(cols []sql.NullString) string {
	if len(cols) == 0 || !cols[0].Valid {
		return ""
	}
	return cols[0].String
}

// LabeledLines renders one "Label: value" line per column, skipping nulls.
// Labels pair with TextColumns by position.
func LabeledLines(labels ...string) func([]sql.NullString) string {
	return func(cols []sql.NullString) string {
		lines := make([]string, 0, len(cols))
		for i, c := range cols {
			if i >= len(labels) || !c.Valid {
				continue
			}
			lines = append(lines, labels[i]+": "+c.String)
		}
		return strings.Join(lines, "\n")
	}
}
