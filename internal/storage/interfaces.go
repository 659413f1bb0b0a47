// Package storage defines the persistence contracts served by the HTTP
// layer and the embedded schema migrations.
//
// Every entity collection supports the same four operations: add, update,
// search and delete. Search and delete share their parameters, so a search
// previews exactly what a delete would remove.
package storage

import (
	"context"

	"github.com/theogognf/toi/pkg/types"
)

// Adder creates one row from a request.
type Adder[Req, T any] interface {
	Add(ctx context.Context, req Req) (T, error)
}

// Updater edits the single row picked by the request's selector.
// Returns a NotFound error when nothing matches.
type Updater[Req, T any] interface {
	Update(ctx context.Context, req Req) (T, error)
}

// Searcher returns matching rows in search order.
type Searcher[P, T any] interface {
	Search(ctx context.Context, params P) (T, error)
}

// Deleter removes matching rows and returns them in search order.
type Deleter[P, T any] interface {
	Delete(ctx context.Context, params P) (T, error)
}

// Collection is the full CRUD contract of one entity.
type Collection[New, Upd, P, T any] interface {
	Adder[New, T]
	Updater[Upd, T]
	Searcher[P, []T]
	Deleter[P, []T]
}

// Composite links children to a single parent. Search and delete return
// the parent with the affected children.
type Composite[New, P, T any] interface {
	Adder[New, T]
	Searcher[P, T]
	Deleter[P, T]
}

type (
	Notes        = Collection[types.NewNoteRequest, types.UpdateNoteRequest, types.NoteSearchParams, types.Note]
	Contacts     = Collection[types.NewContactRequest, types.UpdateContactRequest, types.ContactSearchParams, types.Contact]
	Events       = Collection[types.NewEventRequest, types.UpdateEventRequest, types.EventSearchParams, types.Event]
	Places       = Collection[types.NewPlaceRequest, types.UpdatePlaceRequest, types.PlaceSearchParams, types.Place]
	Tags         = Collection[types.NewTagRequest, types.UpdateTagRequest, types.TagSearchParams, types.Tag]
	Recipes      = Collection[types.NewRecipeRequest, types.UpdateRecipeRequest, types.RecipeSearchParams, types.Recipe]
	BankAccounts = Collection[types.NewBankAccountRequest, types.UpdateBankAccountRequest, types.BankAccountSearchParams, types.BankAccount]

	Attendees           = Composite[types.AttendeeParams, types.AttendeeParams, types.Attendees]
	RecipeTags          = Composite[types.NewRecipeTagsRequest, types.RecipeTagParams, types.RecipeTags]
	AccountTransactions interface {
		Add(ctx context.Context, req types.NewBankAccountTransactionRequest) (types.BankAccountTransaction, error)
		Search(ctx context.Context, params types.BankAccountTransactionParams) (types.BankAccountHistory, error)
		Delete(ctx context.Context, params types.BankAccountTransactionParams) (types.BankAccountHistory, error)
	}
)

// Todos adds bulk completion to the CRUD contract.
type Todos interface {
	Collection[types.NewTodoRequest, types.UpdateTodoRequest, types.TodoSearchParams, types.Todo]
	Complete(ctx context.Context, req types.CompleteTodosRequest) ([]types.Todo, error)
}

// RecipePreviews searches and deletes recipes without their bodies.
type RecipePreviews interface {
	SearchPreviews(ctx context.Context, params types.RecipeSearchParams) ([]types.RecipePreview, error)
	DeletePreviews(ctx context.Context, params types.RecipeSearchParams) ([]types.RecipePreview, error)
}

// Transactions has no add: transactions are created through an account.
type Transactions interface {
	Updater[types.UpdateTransactionRequest, types.Transaction]
	Searcher[types.TransactionSearchParams, []types.Transaction]
	Deleter[types.TransactionSearchParams, []types.Transaction]
}

// NewsLinks maps headlines onto a fixed ring of short aliases.
type NewsLinks interface {
	Allocate(ctx context.Context, items []types.NewsItem) ([]types.NewsItem, error)
	Resolve(ctx context.Context, alias string) (string, error)
}
