package postgres_test

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theogognf/toi/internal/search"
	"github.com/theogognf/toi/internal/storage"
	"github.com/theogognf/toi/internal/storage/postgres"
	"github.com/theogognf/toi/pkg/types"
)

const testNewsBase = "http://127.0.0.1:6969/news/"

// postgresTestDSN returns the DSN for the test database.
// If POSTGRES_TEST_DSN is not set, tests are skipped.
func postgresTestDSN(t *testing.T) string {
	t.Helper()

	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set; skipping PostgreSQL integration tests")
	}
	return dsn
}

// newTestStore migrates the test database, empties every table and returns
// a store backed by deterministic fake models.
func newTestStore(t *testing.T) *postgres.Store {
	t.Helper()

	dsn := postgresTestDSN(t)
	require.NoError(t, storage.Migrate(dsn, storage.DirectionUp, 0))

	db, err := postgres.Open(t.Context(), dsn, 5)
	require.NoError(t, err)

	_, err = db.ExecContext(t.Context(), `TRUNCATE notes, todos, contacts, events, event_attendees, places,
		tags, recipes, recipe_tags, bank_accounts, transactions, news RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	store := postgres.NewStore(db,
		postgres.Models{Embedder: hashEmbedder{}, Reranker: overlapReranker{}},
		search.Thresholds{Distance: 1.0, Similarity: 0.5},
		testNewsBase)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func ptr[T any](v T) *T { return &v }

func TestNotes_Lifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	milk, err := store.Notes.Add(ctx, types.NewNoteRequest{Content: "buy milk and eggs"})
	require.NoError(t, err)
	mom, err := store.Notes.Add(ctx, types.NewNoteRequest{Content: "call mom tomorrow"})
	require.NoError(t, err)
	assert.Less(t, milk.ID, mom.ID)

	all, err := store.Notes.Search(ctx, types.NoteSearchParams{})
	require.NoError(t, err)
	assert.Equal(t, []int64{milk.ID, mom.ID}, noteIDs(all))

	found, err := store.Notes.Search(ctx, types.NoteSearchParams{SearchParams: types.SearchParams{
		Query: "milk", UseRerankingFilter: true,
	}})
	require.NoError(t, err)
	assert.Equal(t, []int64{milk.ID}, noteIDs(found))

	newest, err := store.Notes.Search(ctx, types.NoteSearchParams{SearchParams: types.SearchParams{
		OrderBy: types.OrderNewest, Limit: 1,
	}})
	require.NoError(t, err)
	assert.Equal(t, []int64{mom.ID}, noteIDs(newest))

	updated, err := store.Notes.Update(ctx, types.UpdateNoteRequest{
		Selector:    types.Selector{Query: "mom", UseRerankingFilter: true},
		NoteUpdates: types.NoteUpdates{Content: ptr("book the dentist")},
	})
	require.NoError(t, err)
	assert.Equal(t, mom.ID, updated.ID)
	assert.Equal(t, "book the dentist", updated.Content)

	found, err = store.Notes.Search(ctx, types.NoteSearchParams{SearchParams: types.SearchParams{
		Query: "dentist", UseRerankingFilter: true,
	}})
	require.NoError(t, err)
	assert.Equal(t, []int64{mom.ID}, noteIDs(found))

	deleted, err := store.Notes.Delete(ctx, types.NoteSearchParams{SearchParams: types.SearchParams{IDs: []int64{milk.ID}}})
	require.NoError(t, err)
	assert.Equal(t, []int64{milk.ID}, noteIDs(deleted))

	all, err = store.Notes.Search(ctx, types.NoteSearchParams{})
	require.NoError(t, err)
	assert.Equal(t, []int64{mom.ID}, noteIDs(all))

	again, err := store.Notes.Delete(ctx, types.NoteSearchParams{SearchParams: types.SearchParams{IDs: []int64{milk.ID}}})
	require.NoError(t, err)
	assert.Empty(t, again)
}

func TestNotes_SearchByID(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	_, err := store.Notes.Add(ctx, types.NewNoteRequest{Content: "buy milk"})
	require.NoError(t, err)
	mom, err := store.Notes.Add(ctx, types.NewNoteRequest{Content: "call mom"})
	require.NoError(t, err)

	found, err := store.Notes.Search(ctx, types.NoteSearchParams{SearchParams: types.SearchParams{IDs: []int64{mom.ID}}})
	require.NoError(t, err)
	assert.Equal(t, []int64{mom.ID}, noteIDs(found))

	missing, err := store.Notes.Search(ctx, types.NoteSearchParams{SearchParams: types.SearchParams{IDs: []int64{mom.ID + 100}}})
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestNotes_OrderedOldestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	var ids []int64
	for _, content := range []string{"first", "second", "third"} {
		n, err := store.Notes.Add(ctx, types.NewNoteRequest{Content: content})
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}
	// Creation time and id order disagree: third, first, second.
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, offset := range []time.Duration{time.Hour, 2 * time.Hour, 0} {
		_, err := store.DB().ExecContext(ctx, `UPDATE notes SET created_at = $1 WHERE id = $2`, base.Add(offset), ids[i])
		require.NoError(t, err)
	}

	oldest, err := store.Notes.Search(ctx, types.NoteSearchParams{SearchParams: types.SearchParams{
		OrderBy: types.OrderOldest,
	}})
	require.NoError(t, err)
	assert.Equal(t, []int64{ids[2], ids[0], ids[1]}, noteIDs(oldest))
	for i := 1; i < len(oldest); i++ {
		assert.False(t, oldest[i].CreatedAt.Before(oldest[i-1].CreatedAt))
	}
}

func TestContacts_Lifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	ada, err := store.Contacts.Add(ctx, types.NewContactRequest{
		FirstName:    "Ada",
		LastName:     ptr("Lovelace"),
		Phone:        ptr("555-0100"),
		Birthday:     ptr(types.NewDate(1990, time.December, 10)),
		Relationship: ptr("friend"),
	})
	require.NoError(t, err)
	bob, err := store.Contacts.Add(ctx, types.NewContactRequest{FirstName: "Bob"})
	require.NoError(t, err)

	found, err := store.Contacts.Search(ctx, types.ContactSearchParams{SearchParams: types.SearchParams{
		Query: "lovelace", UseRerankingFilter: true,
	}})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, ada.ID, found[0].ID)

	updated, err := store.Contacts.Update(ctx, types.UpdateContactRequest{
		Selector:       types.Selector{ID: ptr(ada.ID)},
		ContactUpdates: types.ContactUpdates{Phone: ptr("555-0199")},
	})
	require.NoError(t, err)
	assert.Equal(t, "555-0199", *updated.Phone)
	assert.Equal(t, "Lovelace", *updated.LastName)
	assert.Equal(t, "1990-12-10", updated.Birthday.String())

	// The stored embedding follows the updated projection.
	want, err := hashEmbedder{}.Embed(ctx, updated.Text())
	require.NoError(t, err)
	var distance float64
	require.NoError(t, store.DB().QueryRowContext(ctx,
		`SELECT embedding <=> $1 FROM contacts WHERE id = $2`, pgvector.NewVector(want), ada.ID).Scan(&distance))
	assert.InDelta(t, 0, distance, 1e-4)

	byPhone, err := store.Contacts.Search(ctx, types.ContactSearchParams{SearchParams: types.SearchParams{
		Query: "0199", UseRerankingFilter: true,
	}})
	require.NoError(t, err)
	require.Len(t, byPhone, 1)
	assert.Equal(t, ada.ID, byPhone[0].ID)

	birthdays, err := store.Contacts.Search(ctx, types.ContactSearchParams{
		Birthday:        ptr(types.NewDate(1990, time.December, 1)),
		BirthdayFallsOn: types.FallsOnMonth,
	})
	require.NoError(t, err)
	require.Len(t, birthdays, 1)
	assert.Equal(t, ada.ID, birthdays[0].ID)

	deleted, err := store.Contacts.Delete(ctx, types.ContactSearchParams{SearchParams: types.SearchParams{IDs: []int64{bob.ID}}})
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, "Bob", deleted[0].FirstName)

	left, err := store.Contacts.Search(ctx, types.ContactSearchParams{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, ada.ID, left[0].ID)
}

func TestNotes_DistanceThreshold(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	milk, err := store.Notes.Add(ctx, types.NewNoteRequest{Content: "buy milk"})
	require.NoError(t, err)
	_, err = store.Notes.Add(ctx, types.NewNoteRequest{Content: "call mom"})
	require.NoError(t, err)

	found, err := store.Notes.Search(ctx, types.NoteSearchParams{SearchParams: types.SearchParams{
		Query: "milk", DistanceThreshold: ptr(0.5),
	}})
	require.NoError(t, err)
	assert.Equal(t, []int64{milk.ID}, noteIDs(found))
}

func TestNotes_UpdateNotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Notes.Update(t.Context(), types.UpdateNoteRequest{
		Selector:    types.Selector{ID: ptr(int64(999))},
		NoteUpdates: types.NoteUpdates{Content: ptr("x")},
	})
	require.Error(t, err)
	assert.Equal(t, types.KindNotFound, types.KindOf(err))
	assert.Equal(t, "note not found", types.MessageOf(err))
}

func TestTodos_FiltersAndComplete(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	due := time.Date(2025, 5, 8, 12, 0, 0, 0, time.UTC)
	rent, err := store.Todos.Add(ctx, types.NewTodoRequest{Item: "pay rent", DueAt: &due})
	require.NoError(t, err)
	plants, err := store.Todos.Add(ctx, types.NewTodoRequest{Item: "water plants"})
	require.NoError(t, err)

	neverDue, err := store.Todos.Search(ctx, types.TodoSearchParams{NeverDue: types.ScopeInclude})
	require.NoError(t, err)
	assert.Equal(t, []int64{plants.ID}, todoIDs(neverDue))

	completedAt := time.Date(2025, 5, 9, 0, 0, 0, 0, time.UTC)
	completed, err := store.Todos.Complete(ctx, types.CompleteTodosRequest{
		TodoSearchParams: types.TodoSearchParams{SearchParams: types.SearchParams{IDs: []int64{rent.ID}}},
		CompletedAt:      &completedAt,
	})
	require.NoError(t, err)
	require.Len(t, completed, 1)
	require.NotNil(t, completed[0].CompletedAt)
	assert.True(t, completed[0].CompletedAt.Equal(completedAt))

	incomplete, err := store.Todos.Search(ctx, types.TodoSearchParams{Incomplete: types.ScopeInclude})
	require.NoError(t, err)
	assert.Equal(t, []int64{plants.ID}, todoIDs(incomplete))
}

func TestTags_Conflict(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	asian, err := store.Tags.Add(ctx, types.NewTagRequest{Name: "asian"})
	require.NoError(t, err)

	_, err = store.Tags.Add(ctx, types.NewTagRequest{Name: "asain"})
	require.Error(t, err)
	assert.Equal(t, types.KindConflict, types.KindOf(err))
	assert.Equal(t, "tag already exists", types.MessageOf(err))

	italian, err := store.Tags.Add(ctx, types.NewTagRequest{Name: "italian"})
	require.NoError(t, err)

	_, err = store.Tags.Update(ctx, types.UpdateTagRequest{ID: &italian.ID, TagUpdates: types.TagUpdates{Name: ptr("asians")}})
	assert.Equal(t, types.KindConflict, types.KindOf(err))

	renamed, err := store.Tags.Update(ctx, types.UpdateTagRequest{ID: &asian.ID, TagUpdates: types.TagUpdates{Name: ptr("asian food")}})
	require.NoError(t, err)
	assert.Equal(t, "asian food", renamed.Name)
}

func TestRecipes_WithTags(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	asian, err := store.Tags.Add(ctx, types.NewTagRequest{Name: "asian"})
	require.NoError(t, err)
	_, err = store.Tags.Add(ctx, types.NewTagRequest{Name: "dessert"})
	require.NoError(t, err)

	_, err = store.Recipes.Add(ctx, types.NewRecipeRequest{
		Description: "lemon cake", Ingredients: "lemon", Instructions: "bake", Tags: []string{"missing"},
	})
	assert.Equal(t, types.KindNotFound, types.KindOf(err))

	rice, err := store.Recipes.Add(ctx, types.NewRecipeRequest{
		Description:  "steamed jasmine rice",
		Ingredients:  "rice, water",
		Instructions: "steam",
		Tags:         []string{"asian"},
	})
	require.NoError(t, err)

	res, err := store.RecipeTags.Search(ctx, types.RecipeTagParams{
		RecipeQuery: "rice", RecipeUseRerankingFilter: true, TagQuery: "asian",
	})
	require.NoError(t, err)
	assert.Equal(t, rice.ID, res.RecipePreview.ID)
	require.Len(t, res.Tags, 1)
	assert.Equal(t, asian.ID, res.Tags[0].ID)

	byTag, err := store.Recipes.SearchPreviews(ctx, types.RecipeSearchParams{Tags: []string{"asian"}})
	require.NoError(t, err)
	require.Len(t, byTag, 1)
	assert.Equal(t, rice.ID, byTag[0].ID)

	added, err := store.RecipeTags.Add(ctx, types.NewRecipeTagsRequest{RecipeID: &rice.ID, Tags: []string{"dessert"}})
	require.NoError(t, err)
	require.Len(t, added.Tags, 1)
	assert.Equal(t, "dessert", added.Tags[0].Name)

	removed, err := store.RecipeTags.Delete(ctx, types.RecipeTagParams{RecipeID: &rice.ID, TagQuery: "dessert", TagUseRerankingFilter: true})
	require.NoError(t, err)
	require.Len(t, removed.Tags, 1)
	assert.Equal(t, "dessert", removed.Tags[0].Name)

	left, err := store.RecipeTags.Search(ctx, types.RecipeTagParams{RecipeID: &rice.ID})
	require.NoError(t, err)
	assert.Len(t, left.Tags, 1)

	stillThere, err := store.Tags.Search(ctx, types.TagSearchParams{})
	require.NoError(t, err)
	assert.Len(t, stillThere, 2)
}

func TestEvents_FallsOnAndAttendees(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	starts := time.Date(2025, 5, 8, 10, 0, 0, 0, time.UTC)
	dinner, err := store.Events.Add(ctx, types.NewEventRequest{
		Description: "dinner with alice", StartsAt: starts, EndsAt: starts.Add(2 * time.Hour),
	})
	require.NoError(t, err)

	week, err := store.Events.Search(ctx, types.EventSearchParams{EventDay: ptr(types.NewDate(2025, 5, 4)), EventDayFallsOn: types.FallsOnWeek})
	require.NoError(t, err)
	assert.Len(t, week, 1)

	day, err := store.Events.Search(ctx, types.EventSearchParams{EventDay: ptr(types.NewDate(2025, 5, 7))})
	require.NoError(t, err)
	assert.Empty(t, day)

	alice, err := store.Contacts.Add(ctx, types.NewContactRequest{FirstName: "Alice", Birthday: ptr(types.NewDate(1990, 5, 20))})
	require.NoError(t, err)
	_, err = store.Contacts.Add(ctx, types.NewContactRequest{FirstName: "Bob"})
	require.NoError(t, err)

	born, err := store.Contacts.Search(ctx, types.ContactSearchParams{Birthday: ptr(types.NewDate(1990, 5, 1)), BirthdayFallsOn: types.FallsOnMonth})
	require.NoError(t, err)
	require.Len(t, born, 1)
	assert.Equal(t, alice.ID, born[0].ID)
	assert.Equal(t, "1990-05-20", born[0].Birthday.String())

	added, err := store.Attendees.Add(ctx, types.AttendeeParams{EventID: &dinner.ID, ContactQuery: "alice", ContactUseRerankingFilter: true})
	require.NoError(t, err)
	assert.Equal(t, dinner.ID, added.Event.ID)
	require.Len(t, added.Contacts, 1)
	assert.Equal(t, alice.ID, added.Contacts[0].ID)

	attending, err := store.Attendees.Search(ctx, types.AttendeeParams{EventQuery: "dinner"})
	require.NoError(t, err)
	assert.Len(t, attending.Contacts, 1)

	removed, err := store.Attendees.Delete(ctx, types.AttendeeParams{EventID: &dinner.ID})
	require.NoError(t, err)
	assert.Len(t, removed.Contacts, 1)

	attending, err = store.Attendees.Search(ctx, types.AttendeeParams{EventID: &dinner.ID})
	require.NoError(t, err)
	assert.Empty(t, attending.Contacts)

	_, err = store.Attendees.Search(ctx, types.AttendeeParams{EventID: ptr(int64(999))})
	assert.Equal(t, types.KindNotFound, types.KindOf(err))
	assert.Equal(t, "event not found", types.MessageOf(err))
}

func TestBanking_TransactionsScopedToAccount(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()

	checking, err := store.BankAccounts.Add(ctx, types.NewBankAccountRequest{Description: "checking"})
	require.NoError(t, err)
	savings, err := store.BankAccounts.Add(ctx, types.NewBankAccountRequest{Description: "savings"})
	require.NoError(t, err)

	coffee, err := store.AccountTransactions.Add(ctx, types.NewBankAccountTransactionRequest{
		BankAccountSelector:    types.BankAccountSelector{BankAccountID: &checking.ID},
		TransactionDescription: "coffee",
		TransactionAmount:      -4.5,
	})
	require.NoError(t, err)
	assert.Equal(t, checking.ID, coffee.Transaction.BankAccountID)
	assert.InDelta(t, -4.5, coffee.Transaction.Amount, 1e-6)

	interest, err := store.AccountTransactions.Add(ctx, types.NewBankAccountTransactionRequest{
		BankAccountSelector:    types.BankAccountSelector{BankAccountID: &savings.ID},
		TransactionDescription: "interest",
		TransactionAmount:      12,
	})
	require.NoError(t, err)

	history, err := store.AccountTransactions.Search(ctx, types.BankAccountTransactionParams{
		BankAccountSelector: types.BankAccountSelector{BankAccountID: &checking.ID},
		TransactionIDs:      []int64{interest.Transaction.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, checking.ID, history.BankAccount.ID)
	assert.Empty(t, history.Transactions)

	history, err = store.AccountTransactions.Delete(ctx, types.BankAccountTransactionParams{
		BankAccountSelector: types.BankAccountSelector{BankAccountQuery: "checking", BankAccountUseRerankingFilter: true},
	})
	require.NoError(t, err)
	require.Len(t, history.Transactions, 1)
	assert.Equal(t, coffee.Transaction.ID, history.Transactions[0].ID)

	left, err := store.Transactions.Search(ctx, types.TransactionSearchParams{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, interest.Transaction.ID, left[0].ID)
}

func TestNewsRing(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()
	require.NoError(t, store.News.Seed(ctx))
	require.NoError(t, store.News.Seed(ctx))

	items, err := store.News.Allocate(ctx, []types.NewsItem{
		{Title: "first", URL: "https://example.com/1"},
		{Title: "second", URL: "https://example.com/2"},
	})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.NotEqual(t, items[0].URL, items[1].URL)
	assert.Equal(t, "first", items[0].Title)

	alias := items[0].URL[len(testNewsBase):]
	url, err := store.News.Resolve(ctx, alias)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/1", url)

	_, err = store.News.Resolve(ctx, "no-such-alias")
	assert.Equal(t, types.KindNotFound, types.KindOf(err))

	tooMany := make([]types.NewsItem, len(postgres.Aliases())+1)
	for i := range tooMany {
		tooMany[i] = types.NewsItem{Title: "t", URL: "https://example.com"}
	}
	all, err := store.News.Allocate(ctx, tooMany)
	require.NoError(t, err)
	assert.Len(t, all, len(tooMany)-1)
}

func TestNewsRing_RecyclesOldestAliases(t *testing.T) {
	store := newTestStore(t)
	ctx := t.Context()
	require.NoError(t, store.News.Seed(ctx))

	now := time.Date(2025, 5, 8, 12, 0, 0, 0, time.UTC)
	store.News.SetClock(func() time.Time { return now })

	full := make([]types.NewsItem, len(postgres.Aliases()))
	for i := range full {
		full[i] = types.NewsItem{Title: fmt.Sprintf("story %d", i), URL: fmt.Sprintf("https://example.com/%d", i)}
	}
	first, err := store.News.Allocate(ctx, full)
	require.NoError(t, err)
	require.Len(t, first, len(full))

	for i, want := range []int{0, 1} {
		now = now.Add(time.Hour)
		url := fmt.Sprintf("https://example.com/late/%d", i)
		late, err := store.News.Allocate(ctx, []types.NewsItem{{Title: "late", URL: url}})
		require.NoError(t, err)
		require.Len(t, late, 1)
		assert.Equal(t, first[want].URL, late[0].URL)

		resolved, err := store.News.Resolve(ctx, late[0].URL[len(testNewsBase):])
		require.NoError(t, err)
		assert.Equal(t, url, resolved)
	}

	untouched, err := store.News.Resolve(ctx, first[2].URL[len(testNewsBase):])
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/2", untouched)
}

func noteIDs(notes []types.Note) []int64 {
	ids := make([]int64, len(notes))
	for i, n := range notes {
		ids[i] = n.ID
	}
	return ids
}

func todoIDs(todos []types.Todo) []int64 {
	ids := make([]int64, len(todos))
	for i, t := range todos {
		ids[i] = t.ID
	}
	return ids
}
