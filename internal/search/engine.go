// Package search implements the retrieval engine shared by every entity:
// SQL predicates, then pgvector cosine distance ordering, then an optional
// reranking pass and Damerau-Levenshtein gate.
package search

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"

	"github.com/theogognf/toi/internal/llm"
	"github.com/theogognf/toi/pkg/types"
)

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Thresholds are the process-wide defaults for the retrieval stages.
type Thresholds struct {
	// Max cosine distance for a candidate to survive the vector stage.
	Distance float64
	// Min reranker relevance score for a candidate to survive reranking.
	Similarity float64
}

// Target describes one searchable table.
type Target struct {
	Table string
	// Column used for oldest/newest ordering.
	OrderColumn string
	// Template applied to queries before embedding.
	Template llm.PromptTemplate
	// SQL expressions, each yielding text, that make up the canonical
	// projection. Only fetched when a later stage needs document text.
	TextColumns []string
	// Text renders the projection from TextColumns values.
	Text func(cols []sql.NullString) string
	// EditDistance enables the edit-distance gate for short labels.
	EditDistance bool
}

// Params are the generic search inputs.
type Params struct {
	IDs                   []int64
	Query                 string
	UseRerankingFilter    bool
	UseEditDistanceFilter bool
	OrderBy               types.OrderBy
	// Zero means unlimited.
	Limit               int64
	DistanceThreshold   *float64
	SimilarityThreshold *float64
}

// FromSearchParams converts the shared request fields.
func FromSearchParams(p types.SearchParams) Params {
	return Params{
		IDs:                 p.IDs,
		Query:               p.Query,
		UseRerankingFilter:  p.UseRerankingFilter,
		OrderBy:             p.OrderBy,
		Limit:               p.Limit,
		DistanceThreshold:   p.DistanceThreshold,
		SimilarityThreshold: p.SimilarityThreshold,
	}
}

// candidate is a fetched row: its id plus projection columns when needed.
type candidate struct {
	id   int64
	cols []sql.NullString
	text string
}

type fetchFunc func(ctx context.Context, query string, args []any, ncols int) ([]candidate, error)

// Engine runs searches against one database.
type Engine struct {
	embedder   llm.Embedder
	reranker   llm.Reranker
	thresholds Thresholds
	fetch      fetchFunc
}

// NewEngine creates an engine reading through db.
func NewEngine(db Querier, embedder llm.Embedder, reranker llm.Reranker, thresholds Thresholds) *Engine {
	return &Engine{
		embedder:   embedder,
		reranker:   reranker,
		thresholds: thresholds,
		fetch:      queryFetcher(db),
	}
}


func queryFetcher(db Querier) fetchFunc {
	return func(ctx context.Context, query string, args []any, ncols int) ([]candidate, error) {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		defer func() { _ = rows.Close() }()

		var out []candidate
		for rows.Next() {
			c := candidate{cols: make([]sql.NullString, ncols)}
			dest := make([]any, 0, ncols+1)
			dest = append(dest, &c.id)
			for i := range c.cols {
				dest = append(dest, &c.cols[i])
			}
			if err := rows.Scan(dest...); err != nil {
				return nil, err
			}
			out = append(out, c)
		}
		return out, rows.Err()
	}
}

// Search returns matching ids in result order. An empty result is not an
// error. Model failures propagate unchanged.
func (e *Engine) Search(ctx context.Context, t Target, p Params, preds ...Predicate) ([]int64, error) {
	distance := e.thresholds.Distance
	if p.DistanceThreshold != nil {
		distance = *p.DistanceThreshold
	}
	similarity := e.thresholds.Similarity
	if p.SimilarityThreshold != nil {
		similarity = *p.SimilarityThreshold
	}

	query := strings.TrimSpace(p.Query)
	rerank := query != "" && p.UseRerankingFilter
	gate := query != "" && p.UseEditDistanceFilter && t.EditDistance

	st := statement{target: t, params: p, preds: preds, distance: distance, withText: rerank || gate}
	if query != "" && p.OrderBy == "" {
		vec, err := e.embedder.Embed(ctx, t.Template.Apply(query))
		if err != nil {
			return nil, err
		}
		v := pgvector.NewVector(vec)
		st.embedding = &v
	}

	sqlText, args := st.build()
	ncols := 0
	if st.withText {
		ncols = len(t.TextColumns)
	}
	cands, err := e.fetch(ctx, sqlText, args, ncols)
	if err != nil {
		return nil, fmt.Errorf("search: failed to query %s: %w", t.Table, err)
	}
	if len(cands) == 0 {
		return []int64{}, nil
	}
	if st.withText {
		for i := range cands {
			cands[i].text = t.Text(cands[i].cols)
		}
	}

	if rerank {
		cands, err = e.rerank(ctx, query, cands, similarity)
		if err != nil {
			return nil, err
		}
	}
	if gate {
		kept := cands[:0]
		for _, c := range cands {
			if EditSimilarity(query, c.text) >= EditDistanceThreshold {
				kept = append(kept, c)
			}
		}
		cands = kept
	}

	ids := make([]int64, len(cands))
	for i, c := range cands {
		ids[i] = c.id
	}
	log.Ctx(ctx).Debug().
		Str("table", t.Table).
		Bool("rerank", rerank).
		Bool("edit_distance", gate).
		Int("results", len(ids)).
		Msg("search completed")
	return ids, nil
}

// rerank keeps candidates scoring at least threshold, ordered by score
// with ties broken by ascending id.
func (e *Engine) rerank(ctx context.Context, query string, cands []candidate, threshold float64) ([]candidate, error) {
	docs := make([]string, len(cands))
	for i, c := range cands {
		docs[i] = c.text
	}
	results, err := e.reranker.Rerank(ctx, query, docs)
	if err != nil {
		return nil, err
	}

	type scored struct {
		candidate
		score float64
	}
	seen := make(map[int]bool, len(results))
	kept := make([]scored, 0, len(results))
	for _, r := range results {
		if r.Index < 0 || r.Index >= len(cands) || seen[r.Index] {
			continue
		}
		seen[r.Index] = true
		if r.RelevanceScore >= threshold {
			kept = append(kept, scored{candidate: cands[r.Index], score: r.RelevanceScore})
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].score != kept[j].score {
			return kept[i].score > kept[j].score
		}
		return kept[i].id < kept[j].id
	})

	out := make([]candidate, len(kept))
	for i, k := range kept {
		out[i] = k.candidate
	}
	return out, nil
}
