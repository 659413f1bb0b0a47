package postgres

import (
	"github.com/theogognf/toi/internal/llm"
	"github.com/theogognf/toi/internal/search"
)

// Search targets. Text columns reproduce each entity's canonical projection
// so reranking sees the same text that was embedded.
var (
	noteTarget = search.Target{
		Table:       "notes",
		OrderColumn: "created_at",
		Template:    llm.SearchTemplate("notes"),
		TextColumns: []string{"content"},
		Text:        search.Column,
	}
	todoTarget = search.Target{
		Table:       "todos",
		OrderColumn: "created_at",
		Template:    llm.SearchTemplate("todos"),
		TextColumns: []string{"item"},
		Text:        search.Column,
	}
	contactTarget = search.Target{
		Table:       "contacts",
		OrderColumn: "created_at",
		Template:    llm.SearchTemplate("contacts"),
		TextColumns: []string{
			"first_name", "last_name", "email", "phone",
			"to_char(birthday, 'YYYY-MM-DD')", "relationship",
		},
		Text: search.LabeledLines("First Name", "Last Name", "Email", "Phone", "Birthday", "Relationship"),
	}
	eventTarget = search.Target{
		Table:       "events",
		OrderColumn: "created_at",
		Template:    llm.SearchTemplate("events"),
		TextColumns: []string{"description"},
		Text:        search.Column,
	}
	placeTarget = search.Target{
		Table:       "places",
		OrderColumn: "created_at",
		Template:    llm.SearchTemplate("places"),
		TextColumns: []string{"name", "description", "address", "phone"},
		Text:        search.LabeledLines("Name", "Description", "Address", "Phone"),
	}
	tagTarget = search.Target{
		Table:        "tags",
		OrderColumn:  "id",
		Template:     llm.SimilarTemplate("tags"),
		TextColumns:  []string{"name"},
		Text:         search.Column,
		EditDistance: true,
	}
	recipeTarget = search.Target{
		Table:       "recipes",
		OrderColumn: "created_at",
		Template:    llm.SearchTemplate("recipes"),
		TextColumns: []string{"description"},
		Text:        search.Column,
	}
	bankAccountTarget = search.Target{
		Table:       "bank_accounts",
		OrderColumn: "created_at",
		Template:    llm.SearchTemplate("bank accounts"),
		TextColumns: []string{"description"},
		Text:        search.Column,
	}
	transactionTarget = search.Target{
		Table:       "transactions",
		OrderColumn: "posted_at",
		Template:    llm.SearchTemplate("transactions"),
		TextColumns: []string{"description"},
		Text:        search.Column,
	}
)
