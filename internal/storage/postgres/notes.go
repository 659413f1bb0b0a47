package postgres

import (
	"context"

	"github.com/theogognf/toi/internal/search"
	"github.com/theogognf/toi/pkg/types"
)

var notes = table[types.Note]{
	name:    "notes",
	entity:  "note",
	columns: "id, content, created_at",
	scan: func(s scanner) (types.Note, error) {
		var n types.Note
		err := s.Scan(&n.ID, &n.Content, &n.CreatedAt)
		return n, err
	},
	id: func(n types.Note) int64 { return n.ID },
}

// NoteRepo stores notes.
type NoteRepo struct {
	repo
}

func (r *NoteRepo) Add(ctx context.Context, req types.NewNoteRequest) (types.Note, error) {
	vec, err := r.embed(ctx, req.Content)
	if err != nil {
		return types.Note{}, err
	}
	return notes.one(r.db.QueryRowContext(ctx,
		`INSERT INTO notes (content, embedding) VALUES ($1, $2) RETURNING `+notes.columns,
		req.Content, vec))
}

func (r *NoteRepo) ids(ctx context.Context, p types.NoteSearchParams) ([]int64, error) {
	return r.engine.Search(ctx, noteTarget, search.FromSearchParams(p.SearchParams),
		search.Between("created_at", p.CreatedFrom, p.CreatedTo)...)
}

func (r *NoteRepo) Search(ctx context.Context, p types.NoteSearchParams) ([]types.Note, error) {
	ids, err := r.ids(ctx, p)
	if err != nil {
		return nil, err
	}
	return notes.fetch(ctx, r.db, ids)
}

func (r *NoteRepo) Delete(ctx context.Context, p types.NoteSearchParams) ([]types.Note, error) {
	ids, err := r.ids(ctx, p)
	if err != nil {
		return nil, err
	}
	return notes.remove(ctx, r.db, ids)
}

func (r *NoteRepo) Update(ctx context.Context, req types.UpdateNoteRequest) (types.Note, error) {
	ids, err := r.ids(ctx, types.NoteSearchParams{SearchParams: req.Selector.SearchParams()})
	if err != nil {
		return types.Note{}, err
	}
	id, err := first(ids, notes.entity)
	if err != nil {
		return types.Note{}, err
	}
	note, err := notes.get(ctx, r.db, id)
	if err != nil {
		return types.Note{}, err
	}
	if req.NoteUpdates.Content != nil {
		note.Content = *req.NoteUpdates.Content
	}

	vec, err := r.embed(ctx, note.Content)
	if err != nil {
		return types.Note{}, err
	}
	return notes.one(r.db.QueryRowContext(ctx,
		`UPDATE notes SET content = $1, embedding = $2 WHERE id = $3 RETURNING `+notes.columns,
		note.Content, vec, id))
}
