package search

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theogognf/toi/internal/llm"
	"github.com/theogognf/toi/pkg/types"
)

type fakeEmbedder struct {
	inputs []string
	err    error
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.inputs = append(f.inputs, text)
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0, 0}, nil
}

type fakeReranker struct {
	docs    []string
	results []llm.RerankResult
	calls   int
}

func (f *fakeReranker) Rerank(_ context.Context, _ string, docs []string) ([]llm.RerankResult, error) {
	f.calls++
	f.docs = docs
	return f.results, nil
}

// fakeRows serves canned candidates and records the statement it saw.
type fakeRows struct {
	rows  []candidate
	sql   string
	args  []any
	ncols int
	err   error
}

func (f *fakeRows) fetch(_ context.Context, query string, args []any, ncols int) ([]candidate, error) {
	f.sql, f.args, f.ncols = query, args, ncols
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

func row(id int64, text string) candidate {
	return candidate{id: id, cols: []sql.NullString{{String: text, Valid: true}}}
}

func newTestEngine(emb *fakeEmbedder, rr *fakeReranker, rows *fakeRows) *Engine {
	return &Engine{
		embedder:   emb,
		reranker:   rr,
		thresholds: Thresholds{Distance: 0.75, Similarity: 0.5},
		fetch:      rows.fetch,
	}
}

var notesTarget = Target{
	Table:       "notes",
	OrderColumn: "created_at",
	Template:    llm.SearchTemplate("notes"),
	TextColumns: []string{"content"},
	Text:        Column,
}

var tagsTarget = Target{
	Table:        "tags",
	OrderColumn:  "id",
	Template:     llm.SimilarTemplate("tags"),
	TextColumns:  []string{"name"},
	Text:         Column,
	EditDistance: true,
}

func TestSearch_EmbedsQueryWithTemplate(t *testing.T) {
	emb, rr := &fakeEmbedder{}, &fakeReranker{}
	rows := &fakeRows{rows: []candidate{row(2, ""), row(1, "")}}
	e := newTestEngine(emb, rr, rows)

	ids, err := e.Search(t.Context(), notesTarget, Params{Query: " groceries ", Limit: 10})
	require.NoError(t, err)

	assert.Equal(t, []int64{2, 1}, ids)
	require.Len(t, emb.inputs, 1)
	assert.Equal(t, "Instruction: Given a user query, find notes stored with details that the user mentions\nQuery: groceries", emb.inputs[0])
	assert.Contains(t, rows.sql, "(embedding <=> $1) <= $2")
	assert.Contains(t, rows.sql, "ORDER BY embedding <=> $3, id LIMIT $4")
	assert.Equal(t, 0.75, rows.args[1])
	assert.Zero(t, rows.ncols)
	assert.Zero(t, rr.calls)
}

func TestSearch_DistanceOverride(t *testing.T) {
	rows := &fakeRows{}
	e := newTestEngine(&fakeEmbedder{}, &fakeReranker{}, rows)

	d := 0.3
	_, err := e.Search(t.Context(), notesTarget, Params{Query: "x", DistanceThreshold: &d})
	require.NoError(t, err)
	assert.Equal(t, 0.3, rows.args[1])
}

func TestSearch_OrderBySkipsEmbedding(t *testing.T) {
	emb := &fakeEmbedder{}
	rows := &fakeRows{rows: []candidate{row(9, "")}}
	e := newTestEngine(emb, &fakeReranker{}, rows)

	ids, err := e.Search(t.Context(), notesTarget, Params{Query: "groceries", OrderBy: types.OrderNewest, Limit: 1})
	require.NoError(t, err)

	assert.Equal(t, []int64{9}, ids)
	assert.Empty(t, emb.inputs)
	assert.NotContains(t, rows.sql, "embedding")
	assert.Contains(t, rows.sql, "ORDER BY created_at DESC, id DESC")
}

func TestSearch_NoCandidates(t *testing.T) {
	rr := &fakeReranker{}
	e := newTestEngine(&fakeEmbedder{}, rr, &fakeRows{})

	ids, err := e.Search(t.Context(), notesTarget, Params{Query: "anything", UseRerankingFilter: true})
	require.NoError(t, err)
	assert.NotNil(t, ids)
	assert.Empty(t, ids)
	assert.Zero(t, rr.calls)
}

func TestSearch_Rerank(t *testing.T) {
	rr := &fakeReranker{results: []llm.RerankResult{
		{Index: 2, RelevanceScore: 0.9},
		{Index: 0, RelevanceScore: 0.9},
		{Index: 3, RelevanceScore: 0.7},
		{Index: 1, RelevanceScore: 0.2},
	}}
	rows := &fakeRows{rows: []candidate{row(5, "milk"), row(6, "bread"), row(1, "eggs"), row(8, "tea")}}
	e := newTestEngine(&fakeEmbedder{}, rr, rows)

	ids, err := e.Search(t.Context(), notesTarget, Params{Query: "dairy", UseRerankingFilter: true})
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 5, 8}, ids)
	assert.Equal(t, []string{"milk", "bread", "eggs", "tea"}, rr.docs)
	assert.Equal(t, 1, rows.ncols)
	assert.Contains(t, rows.sql, "SELECT id, content FROM notes")
}

func TestSearch_RerankThresholdOverride(t *testing.T) {
	rr := &fakeReranker{results: []llm.RerankResult{
		{Index: 0, RelevanceScore: 0.6},
		{Index: 1, RelevanceScore: 0.95},
	}}
	rows := &fakeRows{rows: []candidate{row(1, "a"), row(2, "b")}}
	e := newTestEngine(&fakeEmbedder{}, rr, rows)

	s := 0.9
	ids, err := e.Search(t.Context(), notesTarget, Params{Query: "b", UseRerankingFilter: true, SimilarityThreshold: &s})
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids)
}

func TestSearch_RerankIgnoresBadIndices(t *testing.T) {
	rr := &fakeReranker{results: []llm.RerankResult{
		{Index: 7, RelevanceScore: 0.9},
		{Index: 0, RelevanceScore: 0.8},
		{Index: 0, RelevanceScore: 0.8},
	}}
	rows := &fakeRows{rows: []candidate{row(4, "a")}}
	e := newTestEngine(&fakeEmbedder{}, rr, rows)

	ids, err := e.Search(t.Context(), notesTarget, Params{Query: "a", UseRerankingFilter: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, ids)
}

func TestSearch_EditDistanceGate(t *testing.T) {
	rows := &fakeRows{rows: []candidate{row(1, "Asian"), row(2, "thai"), row(3, "asain food")}}
	e := newTestEngine(&fakeEmbedder{}, &fakeReranker{}, rows)

	ids, err := e.Search(t.Context(), tagsTarget, Params{Query: "asain", UseEditDistanceFilter: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)
	assert.Equal(t, 1, rows.ncols)
}

func TestSearch_EditDistanceAfterRerank(t *testing.T) {
	rr := &fakeReranker{results: []llm.RerankResult{
		{Index: 1, RelevanceScore: 0.9},
		{Index: 0, RelevanceScore: 0.8},
	}}
	rows := &fakeRows{rows: []candidate{row(1, "asian"), row(2, "asia")}}
	e := newTestEngine(&fakeEmbedder{}, rr, rows)

	ids, err := e.Search(t.Context(), tagsTarget, Params{Query: "asian", UseRerankingFilter: true, UseEditDistanceFilter: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1}, ids)
}

func TestSearch_EditDistanceNeedsTarget(t *testing.T) {
	rows := &fakeRows{rows: []candidate{row(1, "something else")}}
	e := newTestEngine(&fakeEmbedder{}, &fakeReranker{}, rows)

	ids, err := e.Search(t.Context(), notesTarget, Params{Query: "asain", UseEditDistanceFilter: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)
	assert.Zero(t, rows.ncols)
}

func TestSearch_Errors(t *testing.T) {
	t.Run("embedding failure keeps its kind", func(t *testing.T) {
		emb := &fakeEmbedder{err: types.UpstreamConnection(errors.New("refused"))}
		e := newTestEngine(emb, &fakeReranker{}, &fakeRows{})

		_, err := e.Search(t.Context(), notesTarget, Params{Query: "x"})
		require.Error(t, err)
		assert.Equal(t, types.KindUpstreamConnection, types.KindOf(err))
	})

	t.Run("query failure is wrapped", func(t *testing.T) {
		e := newTestEngine(&fakeEmbedder{}, &fakeReranker{}, &fakeRows{err: errors.New("boom")})

		_, err := e.Search(t.Context(), notesTarget, Params{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "notes")
		assert.Equal(t, types.KindInternal, types.KindOf(err))
	})
}

func TestLabeledLines(t *testing.T) {
	text := LabeledLines("Name", "Description", "Address")([]sql.NullString{
		{String: "Cafe", Valid: true},
		{String: "Coffee", Valid: true},
		{},
	})
	assert.Equal(t, "Name: Cafe\nDescription: Coffee", text)
	assert.Equal(t, "", Column(nil))
}
