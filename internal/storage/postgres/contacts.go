package postgres

import (
	"context"

	"github.com/theogognf/toi/internal/search"
	"github.com/theogognf/toi/pkg/types"
)

var contacts = table[types.Contact]{
	name:    "contacts",
	entity:  "contact",
	columns: "id, first_name, last_name, email, phone, birthday, relationship, created_at",
	scan: func(s scanner) (types.Contact, error) {
		var c types.Contact
		err := s.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Birthday, &c.Relationship, &c.CreatedAt)
		return c, err
	},
	id: func(c types.Contact) int64 { return c.ID },
}

// ContactRepo stores contacts.
type ContactRepo struct {
	repo
}

func (r *ContactRepo) Add(ctx context.Context, req types.NewContactRequest) (types.Contact, error) {
	text := types.ContactText(req.FirstName, req.LastName, req.Email, req.Phone, req.Birthday, req.Relationship)
	vec, err := r.embed(ctx, text)
	if err != nil {
		return types.Contact{}, err
	}
	return contacts.one(r.db.QueryRowContext(ctx,
		`INSERT INTO contacts (first_name, last_name, email, phone, birthday, relationship, embedding)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING `+contacts.columns,
		req.FirstName, req.LastName, req.Email, req.Phone, req.Birthday, req.Relationship, vec))
}

func contactPredicates(p types.ContactSearchParams) []search.Predicate {
	preds := search.Between("created_at", p.CreatedFrom, p.CreatedTo)
	if p.Birthday != nil {
		preds = append(preds, search.DateFallsOn("birthday", *p.Birthday, p.BirthdayFallsOn))
	}
	return preds
}

// ids searches contacts. extra predicates scope the search, e.g. to the
// attendees of one event.
func (r *ContactRepo) ids(ctx context.Context, p types.ContactSearchParams, extra ...search.Predicate) ([]int64, error) {
	preds := append(contactPredicates(p), extra...)
	return r.engine.Search(ctx, contactTarget, search.FromSearchParams(p.SearchParams), preds...)
}

func (r *ContactRepo) Search(ctx context.Context, p types.ContactSearchParams) ([]types.Contact, error) {
	ids, err := r.ids(ctx, p)
	if err != nil {
		return nil, err
	}
	return contacts.fetch(ctx, r.db, ids)
}

func (r *ContactRepo) Delete(ctx context.Context, p types.ContactSearchParams) ([]types.Contact, error) {
	ids, err := r.ids(ctx, p)
	if err != nil {
		return nil, err
	}
	return contacts.remove(ctx, r.db, ids)
}

func (r *ContactRepo) Update(ctx context.Context, req types.UpdateContactRequest) (types.Contact, error) {
	ids, err := r.ids(ctx, types.ContactSearchParams{SearchParams: req.Selector.SearchParams()})
	if err != nil {
		return types.Contact{}, err
	}
	id, err := first(ids, contacts.entity)
	if err != nil {
		return types.Contact{}, err
	}
	c, err := contacts.get(ctx, r.db, id)
	if err != nil {
		return types.Contact{}, err
	}
	u := req.ContactUpdates
	if u.FirstName != nil {
		c.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		c.LastName = u.LastName
	}
	if u.Email != nil {
		c.Email = u.Email
	}
	if u.Phone != nil {
		c.Phone = u.Phone
	}
	if u.Birthday != nil {
		c.Birthday = u.Birthday
	}
	if u.Relationship != nil {
		c.Relationship = u.Relationship
	}

	vec, err := r.embed(ctx, c.Text())
	if err != nil {
		return types.Contact{}, err
	}
	return contacts.one(r.db.QueryRowContext(ctx,
		`UPDATE contacts SET first_name = $1, last_name = $2, email = $3, phone = $4, birthday = $5,
		 relationship = $6, embedding = $7 WHERE id = $8 RETURNING `+contacts.columns,
		c.FirstName, c.LastName, c.Email, c.Phone, c.Birthday, c.Relationship, vec, id))
}
