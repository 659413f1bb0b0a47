package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/theogognf/toi/internal/search"
	"github.com/theogognf/toi/pkg/types"
)

var todos = table[types.Todo]{
	name:    "todos",
	entity:  "todo",
	columns: "id, item, created_at, due_at, completed_at",
	scan: func(s scanner) (types.Todo, error) {
		var t types.Todo
		err := s.Scan(&t.ID, &t.Item, &t.CreatedAt, &t.DueAt, &t.CompletedAt)
		return t, err
	},
	id: func(t types.Todo) int64 { return t.ID },
}

// TodoRepo stores todos.
type TodoRepo struct {
	repo
}

func (r *TodoRepo) Add(ctx context.Context, req types.NewTodoRequest) (types.Todo, error) {
	vec, err := r.embed(ctx, req.Item)
	if err != nil {
		return types.Todo{}, err
	}
	return todos.one(r.db.QueryRowContext(ctx,
		`INSERT INTO todos (item, embedding, due_at, completed_at) VALUES ($1, $2, $3, $4) RETURNING `+todos.columns,
		req.Item, vec, req.DueAt, req.CompletedAt))
}

func todoPredicates(p types.TodoSearchParams) []search.Predicate {
	var preds []search.Predicate
	preds = append(preds, search.Between("created_at", p.CreatedFrom, p.CreatedTo)...)
	preds = append(preds, search.Between("due_at", p.DueFrom, p.DueTo)...)
	preds = append(preds, search.Between("completed_at", p.CompletedFrom, p.CompletedTo)...)
	preds = append(preds, search.NullScope("completed_at", p.Incomplete)...)
	preds = append(preds, search.NullScope("due_at", p.NeverDue)...)
	return preds
}

func (r *TodoRepo) ids(ctx context.Context, p types.TodoSearchParams) ([]int64, error) {
	return r.engine.Search(ctx, todoTarget, search.FromSearchParams(p.SearchParams), todoPredicates(p)...)
}

func (r *TodoRepo) Search(ctx context.Context, p types.TodoSearchParams) ([]types.Todo, error) {
	ids, err := r.ids(ctx, p)
	if err != nil {
		return nil, err
	}
	return todos.fetch(ctx, r.db, ids)
}

func (r *TodoRepo) Delete(ctx context.Context, p types.TodoSearchParams) ([]types.Todo, error) {
	ids, err := r.ids(ctx, p)
	if err != nil {
		return nil, err
	}
	return todos.remove(ctx, r.db, ids)
}

// Complete marks every matching todo as completed.
func (r *TodoRepo) Complete(ctx context.Context, req types.CompleteTodosRequest) ([]types.Todo, error) {
	ids, err := r.ids(ctx, req.TodoSearchParams)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []types.Todo{}, nil
	}
	completedAt := time.Now().UTC()
	if req.CompletedAt != nil {
		completedAt = *req.CompletedAt
	}
	rows, err := r.db.QueryContext(ctx,
		`UPDATE todos SET completed_at = $1 WHERE id = ANY($2) RETURNING `+todos.columns,
		completedAt, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to complete todos: %w", err)
	}
	return todos.collect(rows, ids)
}

func (r *TodoRepo) Update(ctx context.Context, req types.UpdateTodoRequest) (types.Todo, error) {
	ids, err := r.ids(ctx, types.TodoSearchParams{SearchParams: req.Selector.SearchParams()})
	if err != nil {
		return types.Todo{}, err
	}
	id, err := first(ids, todos.entity)
	if err != nil {
		return types.Todo{}, err
	}
	todo, err := todos.get(ctx, r.db, id)
	if err != nil {
		return types.Todo{}, err
	}
	u := req.TodoUpdates
	if u.Item != nil {
		todo.Item = *u.Item
	}
	if u.DueAt != nil {
		todo.DueAt = u.DueAt
	}
	if u.CompletedAt != nil {
		todo.CompletedAt = u.CompletedAt
	}

	vec, err := r.embed(ctx, todo.Item)
	if err != nil {
		return types.Todo{}, err
	}
	return todos.one(r.db.QueryRowContext(ctx,
		`UPDATE todos SET item = $1, embedding = $2, due_at = $3, completed_at = $4 WHERE id = $5 RETURNING `+todos.columns,
		todo.Item, vec, todo.DueAt, todo.CompletedAt, id))
}
