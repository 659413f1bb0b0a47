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

var (
	recipes = table[types.Recipe]{
		name:    "recipes",
		entity:  "recipe",
		columns: "id, description, ingredients, instructions, created_at",
		scan: func(s scanner) (types.Recipe, error) {
			var r types.Recipe
			err := s.Scan(&r.ID, &r.Description, &r.Ingredients, &r.Instructions, &r.CreatedAt)
			return r, err
		},
		id: func(r types.Recipe) int64 { return r.ID },
	}
	recipePreviews = table[types.RecipePreview]{
		name:    "recipes",
		entity:  "recipe",
		columns: "id, description, created_at",
		scan: func(s scanner) (types.RecipePreview, error) {
			var p types.RecipePreview
			err := s.Scan(&p.ID, &p.Description, &p.CreatedAt)
			return p, err
		},
		id: func(p types.RecipePreview) int64 { return p.ID },
	}
)

// RecipeRepo stores recipes and their tag links.
type RecipeRepo struct {
	repo
	tags *TagRepo
}

// resolveTags maps every name onto a tag id concurrently. With strict set,
// an unresolved name is a NotFound error; otherwise it is skipped.
func (r *RecipeRepo) resolveTags(ctx context.Context, names []string, strict bool) ([]int64, error) {
	resolved := make([]int64, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			tag, err := r.tags.Resolve(gctx, name)
			if types.KindOf(err) == types.KindNotFound && !strict {
				return nil
			}
			if err != nil {
				return err
			}
			resolved[i] = tag.ID
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[int64]bool, len(resolved))
	ids := make([]int64, 0, len(resolved))
	for _, id := range resolved {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

func linkTags(ctx context.Context, tx *sql.Tx, recipeID int64, tagIDs []int64) error {
	if len(tagIDs) == 0 {
		return nil
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO recipe_tags (recipe_id, tag_id) SELECT $1, unnest($2::bigint[]) ON CONFLICT DO NOTHING`,
		recipeID, pq.Array(tagIDs))
	if err != nil {
		return fmt.Errorf("postgres: failed to link recipe tags: %w", err)
	}
	return nil
}

func (r *RecipeRepo) Add(ctx context.Context, req types.NewRecipeRequest) (types.Recipe, error) {
	tagIDs, err := r.resolveTags(ctx, req.Tags, true)
	if err != nil {
		return types.Recipe{}, err
	}
	vec, err := r.embed(ctx, req.Description)
	if err != nil {
		return types.Recipe{}, err
	}

	var recipe types.Recipe
	err = r.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		recipe, err = recipes.one(tx.QueryRowContext(ctx,
			`INSERT INTO recipes (description, ingredients, instructions, embedding) VALUES ($1, $2, $3, $4) RETURNING `+recipes.columns,
			req.Description, req.Ingredients, req.Instructions, vec))
		if err != nil {
			return err
		}
		return linkTags(ctx, tx, recipe.ID, tagIDs)
	})
	return recipe, err
}

func (r *RecipeRepo) ids(ctx context.Context, p types.RecipeSearchParams) ([]int64, error) {
	preds := search.Between("created_at", p.CreatedFrom, p.CreatedTo)
	if len(p.Tags) > 0 {
		tagIDs, err := r.resolveTags(ctx, p.Tags, false)
		if err != nil {
			return nil, err
		}
		preds = append(preds, search.Where(
			"id IN (SELECT recipe_id FROM recipe_tags WHERE tag_id = ANY(?))", pq.Array(tagIDs)))
	}
	return r.engine.Search(ctx, recipeTarget, search.FromSearchParams(p.SearchParams), preds...)
}

func (r *RecipeRepo) Search(ctx context.Context, p types.RecipeSearchParams) ([]types.Recipe, error) {
	ids, err := r.ids(ctx, p)
	if err != nil {
		return nil, err
	}
	return recipes.fetch(ctx, r.db, ids)
}

func (r *RecipeRepo) Delete(ctx context.Context, p types.RecipeSearchParams) ([]types.Recipe, error) {
	ids, err := r.ids(ctx, p)
	if err != nil {
		return nil, err
	}
	return recipes.remove(ctx, r.db, ids)
}

// SearchPreviews is Search without ingredients and instructions.
func (r *RecipeRepo) SearchPreviews(ctx context.Context, p types.RecipeSearchParams) ([]types.RecipePreview, error) {
	ids, err := r.ids(ctx, p)
	if err != nil {
		return nil, err
	}
	return recipePreviews.fetch(ctx, r.db, ids)
}

// DeletePreviews is Delete returning previews.
func (r *RecipeRepo) DeletePreviews(ctx context.Context, p types.RecipeSearchParams) ([]types.RecipePreview, error) {
	ids, err := r.ids(ctx, p)
	if err != nil {
		return nil, err
	}
	return recipePreviews.remove(ctx, r.db, ids)
}

// preview returns the single recipe a composite operates on.
func (r *RecipeRepo) preview(ctx context.Context, p types.RecipeSearchParams) (types.RecipePreview, error) {
	ids, err := r.ids(ctx, p)
	if err != nil {
		return types.RecipePreview{}, err
	}
	id, err := first(ids, recipePreviews.entity)
	if err != nil {
		return types.RecipePreview{}, err
	}
	return recipePreviews.get(ctx, r.db, id)
}

func (r *RecipeRepo) Update(ctx context.Context, req types.UpdateRecipeRequest) (types.Recipe, error) {
	ids, err := r.ids(ctx, types.RecipeSearchParams{SearchParams: req.Selector.SearchParams()})
	if err != nil {
		return types.Recipe{}, err
	}
	id, err := first(ids, recipes.entity)
	if err != nil {
		return types.Recipe{}, err
	}
	recipe, err := recipes.get(ctx, r.db, id)
	if err != nil {
		return types.Recipe{}, err
	}
	u := req.RecipeUpdates
	if u.Description != nil {
		recipe.Description = *u.Description
	}
	if u.Ingredients != nil {
		recipe.Ingredients = *u.Ingredients
	}
	if u.Instructions != nil {
		recipe.Instructions = *u.Instructions
	}

	vec, err := r.embed(ctx, recipe.Description)
	if err != nil {
		return types.Recipe{}, err
	}
	return recipes.one(r.db.QueryRowContext(ctx,
		`UPDATE recipes SET description = $1, ingredients = $2, instructions = $3, embedding = $4 WHERE id = $5 RETURNING `+recipes.columns,
		recipe.Description, recipe.Ingredients, recipe.Instructions, vec, id))
}
