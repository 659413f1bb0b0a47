package postgres

import (
	"context"

	"github.com/theogognf/toi/internal/search"
	"github.com/theogognf/toi/pkg/types"
)

var events = table[types.Event]{
	name:    "events",
	entity:  "event",
	columns: "id, description, starts_at, ends_at, created_at",
	scan: func(s scanner) (types.Event, error) {
		var e types.Event
		err := s.Scan(&e.ID, &e.Description, &e.StartsAt, &e.EndsAt, &e.CreatedAt)
		return e, err
	},
	id: func(e types.Event) int64 { return e.ID },
}

// EventRepo stores calendar events.
type EventRepo struct {
	repo
}

func validateEventTimes(e types.Event) error {
	if e.EndsAt.Before(e.StartsAt) {
		return types.Validation("ends_at must not be before starts_at")
	}
	return nil
}

func (r *EventRepo) Add(ctx context.Context, req types.NewEventRequest) (types.Event, error) {
	if err := validateEventTimes(types.Event{StartsAt: req.StartsAt, EndsAt: req.EndsAt}); err != nil {
		return types.Event{}, err
	}
	vec, err := r.embed(ctx, req.Description)
	if err != nil {
		return types.Event{}, err
	}
	return events.one(r.db.QueryRowContext(ctx,
		`INSERT INTO events (description, embedding, starts_at, ends_at) VALUES ($1, $2, $3, $4) RETURNING `+events.columns,
		req.Description, vec, req.StartsAt, req.EndsAt))
}

func eventPredicates(p types.EventSearchParams) []search.Predicate {
	var preds []search.Predicate
	preds = append(preds, search.Between("created_at", p.CreatedFrom, p.CreatedTo)...)
	preds = append(preds, search.Between("starts_at", p.StartsFrom, p.StartsTo)...)
	preds = append(preds, search.Between("ends_at", p.EndsFrom, p.EndsTo)...)
	if p.EventDay != nil {
		preds = append(preds, search.TimeFallsOn(p.EventDay.Time, p.EventDayFallsOn, "starts_at", "ends_at"))
	}
	return preds
}

func (r *EventRepo) ids(ctx context.Context, p types.EventSearchParams) ([]int64, error) {
	return r.engine.Search(ctx, eventTarget, search.FromSearchParams(p.SearchParams), eventPredicates(p)...)
}

func (r *EventRepo) Search(ctx context.Context, p types.EventSearchParams) ([]types.Event, error) {
	ids, err := r.ids(ctx, p)
	if err != nil {
		return nil, err
	}
	return events.fetch(ctx, r.db, ids)
}

func (r *EventRepo) Delete(ctx context.Context, p types.EventSearchParams) ([]types.Event, error) {
	ids, err := r.ids(ctx, p)
	if err != nil {
		return nil, err
	}
	return events.remove(ctx, r.db, ids)
}

// one returns the single event a composite operates on.
func (r *EventRepo) one(ctx context.Context, p types.EventSearchParams) (types.Event, error) {
	ids, err := r.ids(ctx, p)
	if err != nil {
		return types.Event{}, err
	}
	id, err := first(ids, events.entity)
	if err != nil {
		return types.Event{}, err
	}
	return events.get(ctx, r.db, id)
}

func (r *EventRepo) Update(ctx context.Context, req types.UpdateEventRequest) (types.Event, error) {
	e, err := r.one(ctx, types.EventSearchParams{SearchParams: req.Selector.SearchParams()})
	if err != nil {
		return types.Event{}, err
	}
	u := req.EventUpdates
	if u.Description != nil {
		e.Description = *u.Description
	}
	if u.StartsAt != nil {
		e.StartsAt = *u.StartsAt
	}
	if u.EndsAt != nil {
		e.EndsAt = *u.EndsAt
	}
	if err := validateEventTimes(e); err != nil {
		return types.Event{}, err
	}

	vec, err := r.embed(ctx, e.Description)
	if err != nil {
		return types.Event{}, err
	}
	return events.one(r.db.QueryRowContext(ctx,
		`UPDATE events SET description = $1, embedding = $2, starts_at = $3, ends_at = $4 WHERE id = $5 RETURNING `+events.columns,
		e.Description, vec, e.StartsAt, e.EndsAt, e.ID))
}
