package types

import "time"

// Notes.

type NoteSearchParams struct {
	SearchParams
}

type NewNoteRequest struct {
	Content string `json:"content"`
}

type NoteUpdates struct {
	Content *string `json:"content,omitempty"`
}

type UpdateNoteRequest struct {
	Selector
	NoteUpdates NoteUpdates `json:"note_updates"`
}

// Todos.

type TodoSearchParams struct {
	SearchParams
	DueFrom       *time.Time `json:"due_from,omitempty"`
	DueTo         *time.Time `json:"due_to,omitempty"`
	CompletedFrom *time.Time `json:"completed_from,omitempty"`
	CompletedTo   *time.Time `json:"completed_to,omitempty"`
	// Include keeps only incomplete todos, exclude drops them.
	Incomplete Scope `json:"incomplete,omitempty"`
	// Include keeps only todos without a due date, exclude drops them.
	NeverDue Scope `json:"never_due,omitempty"`
}

type NewTodoRequest struct {
	Item        string     `json:"item"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type TodoUpdates struct {
	Item        *string    `json:"item,omitempty"`
	DueAt       *time.Time `json:"due_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type UpdateTodoRequest struct {
	Selector
	TodoUpdates TodoUpdates `json:"todo_updates"`
}

// CompleteTodosRequest marks every matching todo as completed. CompletedAt
// defaults to the current time.
type CompleteTodosRequest struct {
	TodoSearchParams
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Contacts.

type ContactSearchParams struct {
	SearchParams
	Birthday        *Date   `json:"birthday,omitempty"`
	BirthdayFallsOn FallsOn `json:"birthday_falls_on,omitempty"`
}

type NewContactRequest struct {
	FirstName    string  `json:"first_name"`
	LastName     *string `json:"last_name,omitempty"`
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Birthday     *Date   `json:"birthday,omitempty"`
	Relationship *string `json:"relationship,omitempty"`
}

type ContactUpdates struct {
	FirstName    *string `json:"first_name,omitempty"`
	LastName     *string `json:"last_name,omitempty"`
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Birthday     *Date   `json:"birthday,omitempty"`
	Relationship *string `json:"relationship,omitempty"`
}

type UpdateContactRequest struct {
	Selector
	ContactUpdates ContactUpdates `json:"contact_updates"`
}

// Events.

type EventSearchParams struct {
	SearchParams
	EventDay        *Date      `json:"event_day,omitempty"`
	EventDayFallsOn FallsOn    `json:"event_day_falls_on,omitempty"`
	StartsFrom      *time.Time `json:"starts_from,omitempty"`
	StartsTo        *time.Time `json:"starts_to,omitempty"`
	EndsFrom        *time.Time `json:"ends_from,omitempty"`
	EndsTo          *time.Time `json:"ends_to,omitempty"`
}

type NewEventRequest struct {
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
}

type EventUpdates struct {
	Description *string    `json:"description,omitempty"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
}

type UpdateEventRequest struct {
	Selector
	EventUpdates EventUpdates `json:"event_updates"`
}

// AttendeeParams selects one event and some contacts. It is used by the
// attendee and participant routes for adding, searching and deleting.
type AttendeeParams struct {
	EventID                 *int64     `json:"event_id,omitempty"`
	EventQuery              string     `json:"event_query,omitempty"`
	EventUseRerankingFilter bool       `json:"event_use_reranking_filter,omitempty"`
	EventCreatedFrom        *time.Time `json:"event_created_from,omitempty"`
	EventCreatedTo          *time.Time `json:"event_created_to,omitempty"`
	EventDay                *Date      `json:"event_day,omitempty"`
	EventDayFallsOn         FallsOn    `json:"event_day_falls_on,omitempty"`
	EventOrderBy            OrderBy    `json:"event_order_by,omitempty"`

	ContactIDs                []int64 `json:"contact_ids,omitempty"`
	ContactQuery              string  `json:"contact_query,omitempty"`
	ContactUseRerankingFilter bool    `json:"contact_use_reranking_filter,omitempty"`
	ContactLimit              int64   `json:"contact_limit,omitempty"`
}

// EventSearch is the limit-1 parent search.
func (p AttendeeParams) EventSearch() EventSearchParams {
	if p.EventID != nil {
		return EventSearchParams{SearchParams: SearchParams{IDs: []int64{*p.EventID}, Limit: 1}}
	}
	return EventSearchParams{
		SearchParams: SearchParams{
			Query:              p.EventQuery,
			UseRerankingFilter: p.EventUseRerankingFilter,
			CreatedFrom:        p.EventCreatedFrom,
			CreatedTo:          p.EventCreatedTo,
			OrderBy:            p.EventOrderBy,
			Limit:              1,
		},
		EventDay:        p.EventDay,
		EventDayFallsOn: p.EventDayFallsOn,
	}
}

// ContactSearch is the child search.
func (p AttendeeParams) ContactSearch() ContactSearchParams {
	return ContactSearchParams{SearchParams: SearchParams{
		IDs:                p.ContactIDs,
		Query:              p.ContactQuery,
		UseRerankingFilter: p.ContactUseRerankingFilter,
		Limit:              p.ContactLimit,
	}}
}

// Places.

type PlaceSearchParams struct {
	SearchParams
}

type NewPlaceRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Address     *string `json:"address,omitempty"`
	Phone       *string `json:"phone,omitempty"`
}

type PlaceUpdates struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Address     *string `json:"address,omitempty"`
	Phone       *string `json:"phone,omitempty"`
}

type UpdatePlaceRequest struct {
	Selector
	PlaceUpdates PlaceUpdates `json:"place_updates"`
}

// Tags.

// TagSearchParams has no date filters because tags carry no timestamps.
type TagSearchParams struct {
	IDs                   []int64  `json:"ids,omitempty"`
	Query                 string   `json:"query,omitempty"`
	UseRerankingFilter    bool     `json:"use_reranking_filter,omitempty"`
	UseEditDistanceFilter bool     `json:"use_edit_distance_filter,omitempty"`
	DistanceThreshold     *float64 `json:"distance_threshold,omitempty"`
	SimilarityThreshold   *float64 `json:"similarity_threshold,omitempty"`
	Limit                 int64    `json:"limit,omitempty"`
}

type NewTagRequest struct {
	Name string `json:"name"`
}

type TagUpdates struct {
	Name *string `json:"name,omitempty"`
}

type UpdateTagRequest struct {
	ID                    *int64     `json:"id,omitempty"`
	Query                 string     `json:"query,omitempty"`
	UseRerankingFilter    bool       `json:"use_reranking_filter,omitempty"`
	UseEditDistanceFilter bool       `json:"use_edit_distance_filter,omitempty"`
	TagUpdates            TagUpdates `json:"tag_updates"`
}

// Recipes.

type RecipeSearchParams struct {
	SearchParams
	// Only recipes linked to at least one of these tags. Names are
	// resolved with tag searches; unresolved names are ignored.
	Tags []string `json:"tags,omitempty"`
}

type NewRecipeRequest struct {
	Description  string   `json:"description"`
	Ingredients  string   `json:"ingredients"`
	Instructions string   `json:"instructions"`
	Tags         []string `json:"tags,omitempty"`
}

type RecipeUpdates struct {
	Description  *string `json:"description,omitempty"`
	Ingredients  *string `json:"ingredients,omitempty"`
	Instructions *string `json:"instructions,omitempty"`
}

type UpdateRecipeRequest struct {
	Selector
	RecipeUpdates RecipeUpdates `json:"recipe_updates"`
}

// RecipeTagParams selects one recipe and some tags.
type RecipeTagParams struct {
	RecipeID                 *int64     `json:"recipe_id,omitempty"`
	RecipeQuery              string     `json:"recipe_query,omitempty"`
	RecipeUseRerankingFilter bool       `json:"recipe_use_reranking_filter,omitempty"`
	RecipeCreatedFrom        *time.Time `json:"recipe_created_from,omitempty"`
	RecipeCreatedTo          *time.Time `json:"recipe_created_to,omitempty"`
	RecipeOrderBy            OrderBy    `json:"recipe_order_by,omitempty"`

	TagIDs                   []int64 `json:"tag_ids,omitempty"`
	TagQuery                 string  `json:"tag_query,omitempty"`
	TagUseRerankingFilter    bool    `json:"tag_use_reranking_filter,omitempty"`
	TagUseEditDistanceFilter bool    `json:"tag_use_edit_distance_filter,omitempty"`
	TagLimit                 int64   `json:"tag_limit,omitempty"`
}

// RecipeSearch is the limit-1 parent search.
func (p RecipeTagParams) RecipeSearch() RecipeSearchParams {
	sel := Selector{
		ID:                 p.RecipeID,
		Query:              p.RecipeQuery,
		UseRerankingFilter: p.RecipeUseRerankingFilter,
		CreatedFrom:        p.RecipeCreatedFrom,
		CreatedTo:          p.RecipeCreatedTo,
		OrderBy:            p.RecipeOrderBy,
	}
	return RecipeSearchParams{SearchParams: sel.SearchParams()}
}

// TagSearch is the child search.
func (p RecipeTagParams) TagSearch() TagSearchParams {
	return TagSearchParams{
		IDs:                   p.TagIDs,
		Query:                 p.TagQuery,
		UseRerankingFilter:    p.TagUseRerankingFilter,
		UseEditDistanceFilter: p.TagUseEditDistanceFilter,
		Limit:                 p.TagLimit,
	}
}

// NewRecipeTagsRequest links tags, by name, to one recipe.
type NewRecipeTagsRequest struct {
	RecipeID                 *int64     `json:"recipe_id,omitempty"`
	RecipeQuery              string     `json:"recipe_query,omitempty"`
	RecipeUseRerankingFilter bool       `json:"recipe_use_reranking_filter,omitempty"`
	RecipeCreatedFrom        *time.Time `json:"recipe_created_from,omitempty"`
	RecipeCreatedTo          *time.Time `json:"recipe_created_to,omitempty"`
	RecipeOrderBy            OrderBy    `json:"recipe_order_by,omitempty"`
	Tags                     []string   `json:"tags"`
}

// RecipeSearch is the limit-1 parent search.
func (r NewRecipeTagsRequest) RecipeSearch() RecipeSearchParams {
	return RecipeTagParams{
		RecipeID:                 r.RecipeID,
		RecipeQuery:              r.RecipeQuery,
		RecipeUseRerankingFilter: r.RecipeUseRerankingFilter,
		RecipeCreatedFrom:        r.RecipeCreatedFrom,
		RecipeCreatedTo:          r.RecipeCreatedTo,
		RecipeOrderBy:            r.RecipeOrderBy,
	}.RecipeSearch()
}

// Bank accounts.

type BankAccountSearchParams struct {
	SearchParams
}

type NewBankAccountRequest struct {
	Description string `json:"description"`
}

type BankAccountUpdates struct {
	Description *string `json:"description,omitempty"`
}

type UpdateBankAccountRequest struct {
	Selector
	BankAccountUpdates BankAccountUpdates `json:"bank_account_updates"`
}

// Transactions.

type TransactionSearchParams struct {
	BankAccountID       *int64     `json:"bank_account_id,omitempty"`
	IDs                 []int64    `json:"ids,omitempty"`
	Query               string     `json:"query,omitempty"`
	UseRerankingFilter  bool       `json:"use_reranking_filter,omitempty"`
	DistanceThreshold   *float64   `json:"distance_threshold,omitempty"`
	SimilarityThreshold *float64   `json:"similarity_threshold,omitempty"`
	PostedFrom          *time.Time `json:"posted_from,omitempty"`
	PostedTo            *time.Time `json:"posted_to,omitempty"`
	OrderBy             OrderBy    `json:"order_by,omitempty"`
	Limit               int64      `json:"limit,omitempty"`
}

type TransactionUpdates struct {
	Description *string    `json:"description,omitempty"`
	Amount      *float32   `json:"amount,omitempty"`
	PostedAt    *time.Time `json:"posted_at,omitempty"`
}

type UpdateTransactionRequest struct {
	ID                 *int64             `json:"id,omitempty"`
	BankAccountID      *int64             `json:"bank_account_id,omitempty"`
	Query              string             `json:"query,omitempty"`
	UseRerankingFilter bool               `json:"use_reranking_filter,omitempty"`
	PostedFrom         *time.Time         `json:"posted_from,omitempty"`
	PostedTo           *time.Time         `json:"posted_to,omitempty"`
	OrderBy            OrderBy            `json:"order_by,omitempty"`
	TransactionUpdates TransactionUpdates `json:"transaction_updates"`
}

// TransactionSearch is the limit-1 search for the transaction to update.
func (r UpdateTransactionRequest) TransactionSearch() TransactionSearchParams {
	if r.ID != nil {
		return TransactionSearchParams{IDs: []int64{*r.ID}, Limit: 1}
	}
	return TransactionSearchParams{
		BankAccountID:      r.BankAccountID,
		Query:              r.Query,
		UseRerankingFilter: r.UseRerankingFilter,
		PostedFrom:         r.PostedFrom,
		PostedTo:           r.PostedTo,
		OrderBy:            r.OrderBy,
		Limit:              1,
	}
}

// BankAccountSelector is the parent selector shared by the account
// transaction routes.
type BankAccountSelector struct {
	BankAccountID                 *int64     `json:"bank_account_id,omitempty"`
	BankAccountQuery              string     `json:"bank_account_query,omitempty"`
	BankAccountUseRerankingFilter bool       `json:"bank_account_use_reranking_filter,omitempty"`
	BankAccountCreatedFrom        *time.Time `json:"bank_account_created_from,omitempty"`
	BankAccountCreatedTo          *time.Time `json:"bank_account_created_to,omitempty"`
	BankAccountOrderBy            OrderBy    `json:"bank_account_order_by,omitempty"`
}

// BankAccountSearch is the limit-1 parent search.
func (s BankAccountSelector) BankAccountSearch() BankAccountSearchParams {
	sel := Selector{
		ID:                 s.BankAccountID,
		Query:              s.BankAccountQuery,
		UseRerankingFilter: s.BankAccountUseRerankingFilter,
		CreatedFrom:        s.BankAccountCreatedFrom,
		CreatedTo:          s.BankAccountCreatedTo,
		OrderBy:            s.BankAccountOrderBy,
	}
	return BankAccountSearchParams{SearchParams: sel.SearchParams()}
}

type NewBankAccountTransactionRequest struct {
	BankAccountSelector
	TransactionDescription string     `json:"transaction_description"`
	TransactionAmount      float32    `json:"transaction_amount"`
	TransactionPostedAt    *time.Time `json:"transaction_posted_at,omitempty"`
}

type BankAccountTransactionParams struct {
	BankAccountSelector
	TransactionIDs                []int64    `json:"transaction_ids,omitempty"`
	TransactionQuery              string     `json:"transaction_query,omitempty"`
	TransactionUseRerankingFilter bool       `json:"transaction_use_reranking_filter,omitempty"`
	TransactionPostedFrom         *time.Time `json:"transaction_posted_from,omitempty"`
	TransactionPostedTo           *time.Time `json:"transaction_posted_to,omitempty"`
	TransactionOrderBy            OrderBy    `json:"transaction_order_by,omitempty"`
	TransactionLimit              int64      `json:"transaction_limit,omitempty"`
}

// TransactionSearch is the child search within the given account.
func (p BankAccountTransactionParams) TransactionSearch(bankAccountID int64) TransactionSearchParams {
	return TransactionSearchParams{
		BankAccountID:      &bankAccountID,
		IDs:                p.TransactionIDs,
		Query:              p.TransactionQuery,
		UseRerankingFilter: p.TransactionUseRerankingFilter,
		PostedFrom:         p.TransactionPostedFrom,
		PostedTo:           p.TransactionPostedTo,
		OrderBy:            p.TransactionOrderBy,
		Limit:              p.TransactionLimit,
	}
}

// Date and time.

type DateTimeShiftRequest struct {
	Datetime *time.Time `json:"datetime,omitempty"`
	Weeks    int64      `json:"weeks,omitempty"`
	Days     int64      `json:"days,omitempty"`
	Hours    int64      `json:"hours,omitempty"`
	Minutes  int64      `json:"minutes,omitempty"`
	Seconds  int64      `json:"seconds,omitempty"`
}

type DateTimeResponse struct {
	Datetime time.Time `json:"datetime"`
}

type WeekdayResponse struct {
	Weekday string `json:"weekday"`
}

// News.

type NewsRequest struct {
	Query string `json:"query,omitempty"`
	// Only headlines published within this many hours (1 to 24).
	When *int `json:"when,omitempty"`
}
