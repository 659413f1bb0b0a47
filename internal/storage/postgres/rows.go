package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/theogognf/toi/internal/search"
	"github.com/theogognf/toi/pkg/types"
)

type scanner interface {
	Scan(dest ...any) error
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// table describes how one entity is read back from its table.
type table[T any] struct {
	name    string
	entity  string
	columns string
	scan    func(scanner) (T, error)
	id      func(T) int64
}

// fetch returns the rows with the given ids, in the order of ids.
func (t table[T]) fetch(ctx context.Context, q search.Querier, ids []int64) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	rows, err := q.QueryContext(ctx, "SELECT "+t.columns+" FROM "+t.name+" WHERE id = ANY($1)", pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to fetch %s: %w", t.name, err)
	}
	return t.collect(rows, ids)
}

// remove deletes the rows with the given ids and returns them in the order
// of ids.
func (t table[T]) remove(ctx context.Context, q search.Querier, ids []int64) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}
	rows, err := q.QueryContext(ctx, "DELETE FROM "+t.name+" WHERE id = ANY($1) RETURNING "+t.columns, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to delete %s: %w", t.name, err)
	}
	return t.collect(rows, ids)
}

// get returns one row or a NotFound error.
func (t table[T]) get(ctx context.Context, q search.Querier, id int64) (T, error) {
	found, err := t.fetch(ctx, q, []int64{id})
	if err != nil {
		var zero T
		return zero, err
	}
	if len(found) == 0 {
		var zero T
		return zero, t.notFound()
	}
	return found[0], nil
}

// one scans a single-row INSERT or UPDATE ... RETURNING result.
func (t table[T]) one(row *sql.Row) (T, error) {
	v, err := t.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return v, t.notFound()
	}
	if err != nil {
		return v, fmt.Errorf("postgres: failed to write %s: %w", t.name, err)
	}
	return v, nil
}

func (t table[T]) notFound() error {
	return types.NotFound("%s not found", t.entity)
}

func (t table[T]) collect(rows *sql.Rows, ids []int64) ([]T, error) {
	defer func() { _ = rows.Close() }()

	byID := make(map[int64]T, len(ids))
	for rows.Next() {
		v, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan %s: %w", t.name, err)
		}
		byID[t.id(v)] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read %s: %w", t.name, err)
	}

	out := make([]T, 0, len(byID))
	for _, id := range ids {
		if v, ok := byID[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// embed embeds stored text. Called before any transaction begins.
func (r repo) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	vec, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return pgvector.Vector{}, err
	}
	return pgvector.NewVector(vec), nil
}

// first picks the single id an update targets.
func first(ids []int64, entity string) (int64, error) {
	if len(ids) == 0 {
		return 0, types.NotFound("%s not found", entity)
	}
	return ids[0], nil
}

// inTx runs fn in a transaction, rolling back on error.
func (r repo) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: failed to commit transaction: %w", err)
	}
	return nil
}
