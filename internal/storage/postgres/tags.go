package postgres

import (
	"context"
	"strings"

	"github.com/theogognf/toi/internal/search"
	"github.com/theogognf/toi/pkg/types"
)

var tags = table[types.Tag]{
	name:    "tags",
	entity:  "tag",
	columns: "id, name",
	scan: func(s scanner) (types.Tag, error) {
		var t types.Tag
		err := s.Scan(&t.ID, &t.Name)
		return t, err
	},
	id: func(t types.Tag) int64 { return t.ID },
}

// TagRepo stores recipe tags. Tag names are kept approximately unique.
type TagRepo struct {
	repo
}

func tagParams(p types.TagSearchParams) search.Params {
	return search.Params{
		IDs:                   p.IDs,
		Query:                 p.Query,
		UseRerankingFilter:    p.UseRerankingFilter,
		UseEditDistanceFilter: p.UseEditDistanceFilter,
		Limit:                 p.Limit,
		DistanceThreshold:     p.DistanceThreshold,
		SimilarityThreshold:   p.SimilarityThreshold,
	}
}

func (r *TagRepo) ids(ctx context.Context, p types.TagSearchParams, extra ...search.Predicate) ([]int64, error) {
	return r.engine.Search(ctx, tagTarget, tagParams(p), extra...)
}

// checkUnique fails with Conflict when a tag close to name exists. extra
// predicates exclude rows from the check.
func (r *TagRepo) checkUnique(ctx context.Context, name string, extra ...search.Predicate) error {
	ids, err := r.ids(ctx, types.TagSearchParams{
		Query:                 name,
		UseRerankingFilter:    true,
		UseEditDistanceFilter: true,
	}, extra...)
	if err != nil {
		return err
	}
	if len(ids) > 0 {
		return types.Conflict("tag already exists")
	}
	return nil
}

func (r *TagRepo) Add(ctx context.Context, req types.NewTagRequest) (types.Tag, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return types.Tag{}, types.Validation("tag name must not be empty")
	}
	if err := r.checkUnique(ctx, name); err != nil {
		return types.Tag{}, err
	}
	vec, err := r.embed(ctx, name)
	if err != nil {
		return types.Tag{}, err
	}
	return tags.one(r.db.QueryRowContext(ctx,
		`INSERT INTO tags (name, embedding) VALUES ($1, $2) RETURNING `+tags.columns, name, vec))
}

func (r *TagRepo) Search(ctx context.Context, p types.TagSearchParams) ([]types.Tag, error) {
	ids, err := r.ids(ctx, p)
	if err != nil {
		return nil, err
	}
	return tags.fetch(ctx, r.db, ids)
}

func (r *TagRepo) Delete(ctx context.Context, p types.TagSearchParams) ([]types.Tag, error) {
	ids, err := r.ids(ctx, p)
	if err != nil {
		return nil, err
	}
	return tags.remove(ctx, r.db, ids)
}

func (r *TagRepo) Update(ctx context.Context, req types.UpdateTagRequest) (types.Tag, error) {
	sel := types.TagSearchParams{
		Query:                 req.Query,
		UseRerankingFilter:    req.UseRerankingFilter,
		UseEditDistanceFilter: req.UseEditDistanceFilter,
		Limit:                 1,
	}
	if req.ID != nil {
		sel = types.TagSearchParams{IDs: []int64{*req.ID}, Limit: 1}
	}
	ids, err := r.ids(ctx, sel)
	if err != nil {
		return types.Tag{}, err
	}
	id, err := first(ids, tags.entity)
	if err != nil {
		return types.Tag{}, err
	}
	tag, err := tags.get(ctx, r.db, id)
	if err != nil {
		return types.Tag{}, err
	}
	if req.TagUpdates.Name != nil {
		name := strings.TrimSpace(*req.TagUpdates.Name)
		if name == "" {
			return types.Tag{}, types.Validation("tag name must not be empty")
		}
		if err := r.checkUnique(ctx, name, search.Scope("id <> ?", id)); err != nil {
			return types.Tag{}, err
		}
		tag.Name = name
	}

	vec, err := r.embed(ctx, tag.Name)
	if err != nil {
		return types.Tag{}, err
	}
	return tags.one(r.db.QueryRowContext(ctx,
		`UPDATE tags SET name = $1, embedding = $2 WHERE id = $3 RETURNING `+tags.columns, tag.Name, vec, id))
}

// Resolve maps a tag name onto the closest existing tag.
func (r *TagRepo) Resolve(ctx context.Context, name string) (types.Tag, error) {
	ids, err := r.ids(ctx, types.TagSearchParams{
		Query:                 name,
		UseRerankingFilter:    true,
		UseEditDistanceFilter: true,
		Limit:                 1,
	})
	if err != nil {
		return types.Tag{}, err
	}
	id, err := first(ids, tags.entity)
	if err != nil {
		return types.Tag{}, err
	}
	return tags.get(ctx, r.db, id)
}
