package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"github.com/theogognf/toi/internal/search"
	"github.com/theogognf/toi/pkg/types"
)

// AttendeeRepo links contacts to events.
type AttendeeRepo struct {
	repo
	events   *EventRepo
	contacts *ContactRepo
}

func attendingEvent(eventID int64) search.Predicate {
	return search.Scope("id IN (SELECT contact_id FROM event_attendees WHERE event_id = ?)", eventID)
}

// Add links the contacts matching the contact search to the single event
// matching the event search. Both searches run concurrently.
func (r *AttendeeRepo) Add(ctx context.Context, p types.AttendeeParams) (types.Attendees, error) {
	var (
		event      types.Event
		contactIDs []int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		event, err = r.events.one(gctx, p.EventSearch())
		return err
	})
	g.Go(func() error {
		var err error
		contactIDs, err = r.contacts.ids(gctx, p.ContactSearch())
		return err
	})
	if err := g.Wait(); err != nil {
		return types.Attendees{}, err
	}
	if len(contactIDs) == 0 {
		return types.Attendees{}, types.NotFound("contact not found")
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO event_attendees (event_id, contact_id) SELECT $1, unnest($2::bigint[]) ON CONFLICT DO NOTHING`,
		event.ID, pq.Array(contactIDs))
	if err != nil {
		return types.Attendees{}, fmt.Errorf("postgres: failed to add attendees: %w", err)
	}
	found, err := contacts.fetch(ctx, r.db, contactIDs)
	if err != nil {
		return types.Attendees{}, err
	}
	return types.Attendees{Event: event, Contacts: found}, nil
}

func (r *AttendeeRepo) attendees(ctx context.Context, p types.AttendeeParams) (types.Event, []int64, error) {
	event, err := r.events.one(ctx, p.EventSearch())
	if err != nil {
		return types.Event{}, nil, err
	}
	ids, err := r.contacts.ids(ctx, p.ContactSearch(), attendingEvent(event.ID))
	if err != nil {
		return types.Event{}, nil, err
	}
	return event, ids, nil
}

// Search returns the event with its matching attendees.
func (r *AttendeeRepo) Search(ctx context.Context, p types.AttendeeParams) (types.Attendees, error) {
	event, ids, err := r.attendees(ctx, p)
	if err != nil {
		return types.Attendees{}, err
	}
	found, err := contacts.fetch(ctx, r.db, ids)
	if err != nil {
		return types.Attendees{}, err
	}
	return types.Attendees{Event: event, Contacts: found}, nil
}

// Delete unlinks the matching attendees from the event. The contacts
// themselves are kept.
func (r *AttendeeRepo) Delete(ctx context.Context, p types.AttendeeParams) (types.Attendees, error) {
	event, ids, err := r.attendees(ctx, p)
	if err != nil {
		return types.Attendees{}, err
	}
	found, err := contacts.fetch(ctx, r.db, ids)
	if err != nil {
		return types.Attendees{}, err
	}
	if len(ids) > 0 {
		_, err = r.db.ExecContext(ctx,
			`DELETE FROM event_attendees WHERE event_id = $1 AND contact_id = ANY($2)`, event.ID, pq.Array(ids))
		if err != nil {
			return types.Attendees{}, fmt.Errorf("postgres: failed to delete attendees: %w", err)
		}
	}
	return types.Attendees{Event: event, Contacts: found}, nil
}

// RecipeTagRepo links tags to recipes.
type RecipeTagRepo struct {
	repo
	recipes *RecipeRepo
	tags    *TagRepo
}

func taggingRecipe(recipeID int64) search.Predicate {
	return search.Scope("id IN (SELECT tag_id FROM recipe_tags WHERE recipe_id = ?)", recipeID)
}

// Add links tags, resolved by name, to the single matching recipe.
func (r *RecipeTagRepo) Add(ctx context.Context, req types.NewRecipeTagsRequest) (types.RecipeTags, error) {
	if len(req.Tags) == 0 {
		return types.RecipeTags{}, types.Validation("tags must not be empty")
	}
	var (
		preview types.RecipePreview
		tagIDs  []int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		preview, err = r.recipes.preview(gctx, req.RecipeSearch())
		return err
	})
	g.Go(func() error {
		var err error
		tagIDs, err = r.recipes.resolveTags(gctx, req.Tags, true)
		return err
	})
	if err := g.Wait(); err != nil {
		return types.RecipeTags{}, err
	}

	err := r.inTx(ctx, func(tx *sql.Tx) error {
		return linkTags(ctx, tx, preview.ID, tagIDs)
	})
	if err != nil {
		return types.RecipeTags{}, err
	}
	found, err := tags.fetch(ctx, r.db, tagIDs)
	if err != nil {
		return types.RecipeTags{}, err
	}
	return types.RecipeTags{RecipePreview: preview, Tags: found}, nil
}

func (r *RecipeTagRepo) linked(ctx context.Context, p types.RecipeTagParams) (types.RecipePreview, []int64, error) {
	preview, err := r.recipes.preview(ctx, p.RecipeSearch())
	if err != nil {
		return types.RecipePreview{}, nil, err
	}
	ids, err := r.tags.ids(ctx, p.TagSearch(), taggingRecipe(preview.ID))
	if err != nil {
		return types.RecipePreview{}, nil, err
	}
	return preview, ids, nil
}

// Search returns the recipe preview with its matching tags.
func (r *RecipeTagRepo) Search(ctx context.Context, p types.RecipeTagParams) (types.RecipeTags, error) {
	preview, ids, err := r.linked(ctx, p)
	if err != nil {
		return types.RecipeTags{}, err
	}
	found, err := tags.fetch(ctx, r.db, ids)
	if err != nil {
		return types.RecipeTags{}, err
	}
	return types.RecipeTags{RecipePreview: preview, Tags: found}, nil
}

// Delete unlinks the matching tags from the recipe in one transaction and
// returns them. The tags themselves are kept.
func (r *RecipeTagRepo) Delete(ctx context.Context, p types.RecipeTagParams) (types.RecipeTags, error) {
	preview, ids, err := r.linked(ctx, p)
	if err != nil {
		return types.RecipeTags{}, err
	}
	var found []types.Tag
	err = r.inTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			`DELETE FROM recipe_tags WHERE recipe_id = $1 AND tag_id = ANY($2) RETURNING tag_id`,
			preview.ID, pq.Array(ids))
		if err != nil {
			return fmt.Errorf("postgres: failed to delete recipe tags: %w", err)
		}
		deleted, err := scanIDs(rows)
		if err != nil {
			return err
		}
		found, err = tags.fetch(ctx, tx, orderLike(ids, deleted))
		return err
	})
	if err != nil {
		return types.RecipeTags{}, err
	}
	return types.RecipeTags{RecipePreview: preview, Tags: found}, nil
}

// AccountTransactionRepo adds and finds transactions within one account.
type AccountTransactionRepo struct {
	repo
	accounts     *BankAccountRepo
	transactions *TransactionRepo
}

// Add creates a transaction in the single matching account.
func (r *AccountTransactionRepo) Add(ctx context.Context, req types.NewBankAccountTransactionRequest) (types.BankAccountTransaction, error) {
	account, err := r.accounts.one(ctx, req.BankAccountSearch())
	if err != nil {
		return types.BankAccountTransaction{}, err
	}
	t, err := r.transactions.add(ctx, account.ID, req)
	if err != nil {
		return types.BankAccountTransaction{}, err
	}
	return types.BankAccountTransaction{BankAccount: account, Transaction: t}, nil
}

// Search returns the account with its matching transactions.
func (r *AccountTransactionRepo) Search(ctx context.Context, p types.BankAccountTransactionParams) (types.BankAccountHistory, error) {
	account, err := r.accounts.one(ctx, p.BankAccountSearch())
	if err != nil {
		return types.BankAccountHistory{}, err
	}
	found, err := r.transactions.Search(ctx, p.TransactionSearch(account.ID))
	if err != nil {
		return types.BankAccountHistory{}, err
	}
	return types.BankAccountHistory{BankAccount: account, Transactions: found}, nil
}

// Delete removes the account's matching transactions.
func (r *AccountTransactionRepo) Delete(ctx context.Context, p types.BankAccountTransactionParams) (types.BankAccountHistory, error) {
	account, err := r.accounts.one(ctx, p.BankAccountSearch())
	if err != nil {
		return types.BankAccountHistory{}, err
	}
	found, err := r.transactions.Delete(ctx, p.TransactionSearch(account.ID))
	if err != nil {
		return types.BankAccountHistory{}, err
	}
	return types.BankAccountHistory{BankAccount: account, Transactions: found}, nil
}

func scanIDs(rows *sql.Rows) ([]int64, error) {
	defer func() { _ = rows.Close() }()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// orderLike returns the members of subset in the order they appear in ids.
func orderLike(ids, subset []int64) []int64 {
	in := make(map[int64]bool, len(subset))
	for _, id := range subset {
		in[id] = true
	}
	out := make([]int64, 0, len(subset))
	for _, id := range ids {
		if in[id] {
			out = append(out, id)
		}
	}
	return out
}
