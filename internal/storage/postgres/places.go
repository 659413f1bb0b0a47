package postgres

import (
	"context"

	"github.com/theogognf/toi/internal/search"
	"github.com/theogognf/toi/pkg/types"
)

var places = table[types.Place]{
	name:    "places",
	entity:  "place",
	columns: "id, name, description, address, phone, created_at",
	scan: func(s scanner) (types.Place, error) {
		var p types.Place
		err := s.Scan(&p.ID, &p.Name, &p.Description, &p.Address, &p.Phone, &p.CreatedAt)
		return p, err
	},
	id: func(p types.Place) int64 { return p.ID },
}

// PlaceRepo stores places.
type PlaceRepo struct {
	repo
}

func (r *PlaceRepo) Add(ctx context.Context, req types.NewPlaceRequest) (types.Place, error) {
	vec, err := r.embed(ctx, types.PlaceText(req.Name, req.Description, req.Address, req.Phone))
	if err != nil {
		return types.Place{}, err
	}
	return places.one(r.db.QueryRowContext(ctx,
		`INSERT INTO places (name, description, address, phone, embedding) VALUES ($1, $2, $3, $4, $5) RETURNING `+places.columns,
		req.Name, req.Description, req.Address, req.Phone, vec))
}

func (r *PlaceRepo) ids(ctx context.Context, p types.PlaceSearchParams) ([]int64, error) {
	return r.engine.Search(ctx, placeTarget, search.FromSearchParams(p.SearchParams),
		search.Between("created_at", p.CreatedFrom, p.CreatedTo)...)
}

func (r *PlaceRepo) Search(ctx context.Context, p types.PlaceSearchParams) ([]types.Place, error) {
	ids, err := r.ids(ctx, p)
	if err != nil {
		return nil, err
	}
	return places.fetch(ctx, r.db, ids)
}

func (r *PlaceRepo) Delete(ctx context.Context, p types.PlaceSearchParams) ([]types.Place, error) {
	ids, err := r.ids(ctx, p)
	if err != nil {
		return nil, err
	}
	return places.remove(ctx, r.db, ids)
}

func (r *PlaceRepo) Update(ctx context.Context, req types.UpdatePlaceRequest) (types.Place, error) {
	ids, err := r.ids(ctx, types.PlaceSearchParams{SearchParams: req.Selector.SearchParams()})
	if err != nil {
		return types.Place{}, err
	}
	id, err := first(ids, places.entity)
	if err != nil {
		return types.Place{}, err
	}
	p, err := places.get(ctx, r.db, id)
	if err != nil {
		return types.Place{}, err
	}
	u := req.PlaceUpdates
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Address != nil {
		p.Address = u.Address
	}
	if u.Phone != nil {
		p.Phone = u.Phone
	}

	vec, err := r.embed(ctx, p.Text())
	if err != nil {
		return types.Place{}, err
	}
	return places.one(r.db.QueryRowContext(ctx,
		`UPDATE places SET name = $1, description = $2, address = $3, phone = $4, embedding = $5 WHERE id = $6 RETURNING `+places.columns,
		p.Name, p.Description, p.Address, p.Phone, vec, id))
}
