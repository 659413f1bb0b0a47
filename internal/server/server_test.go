// Package server_test exercises the route table and middleware chain with
// in-memory backends.
package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theogognf/toi/internal/config"
	"github.com/theogognf/toi/internal/llm"
	"github.com/theogognf/toi/internal/metrics"
	"github.com/theogognf/toi/internal/openapi"
	"github.com/theogognf/toi/internal/server"
	"github.com/theogognf/toi/pkg/types"
	"github.com/theogognf/toi/web/handlers"
)

// collection answers every CRUD call with empty results.
type collection[New, Upd, P, T any] struct{}

func (collection[New, Upd, P, T]) Add(context.Context, New) (T, error) {
	var out T
	return out, nil
}

func (collection[New, Upd, P, T]) Update(context.Context, Upd) (T, error) {
	var out T
	return out, nil
}

func (collection[New, Upd, P, T]) Search(context.Context, P) ([]T, error) { return []T{}, nil }

func (collection[New, Upd, P, T]) Delete(context.Context, P) ([]T, error) { return []T{}, nil }

type composite[New, P, T any] struct{}

func (composite[New, P, T]) Add(context.Context, New) (T, error) {
	var out T
	return out, nil
}

func (composite[New, P, T]) Search(context.Context, P) (T, error) {
	var out T
	return out, nil
}

func (composite[New, P, T]) Delete(context.Context, P) (T, error) {
	var out T
	return out, nil
}

type todos struct {
	collection[types.NewTodoRequest, types.UpdateTodoRequest, types.TodoSearchParams, types.Todo]
}

func (todos) Complete(context.Context, types.CompleteTodosRequest) ([]types.Todo, error) {
	return []types.Todo{}, nil
}

type recipePreviews struct{}

func (recipePreviews) SearchPreviews(context.Context, types.RecipeSearchParams) ([]types.RecipePreview, error) {
	return []types.RecipePreview{}, nil
}

func (recipePreviews) DeletePreviews(context.Context, types.RecipeSearchParams) ([]types.RecipePreview, error) {
	return []types.RecipePreview{}, nil
}

type accountTransactions struct {
	composite[types.BankAccountTransactionParams, types.BankAccountTransactionParams, types.BankAccountHistory]
}

func (accountTransactions) Add(context.Context, types.NewBankAccountTransactionRequest) (types.BankAccountTransaction, error) {
	return types.BankAccountTransaction{}, nil
}

type echoAssistant struct{}

func (echoAssistant) Respond(_ context.Context, history []llm.Message, w io.Writer) error {
	_, err := io.WriteString(w, "you said: "+history[len(history)-1].Content)
	return err
}

type headlines struct{}

func (headlines) Latest(context.Context, types.NewsRequest) ([]types.NewsItem, error) {
	return []types.NewsItem{}, nil
}

func (headlines) Resolve(_ context.Context, alias string) (string, error) {
	if alias == "amber" {
		return "https://example.com/a", nil
	}
	return "", types.NotFound("news article not found")
}

func services() server.Services {
	return server.Services{
		Notes:               collection[types.NewNoteRequest, types.UpdateNoteRequest, types.NoteSearchParams, types.Note]{},
		Todos:               todos{},
		Contacts:            collection[types.NewContactRequest, types.UpdateContactRequest, types.ContactSearchParams, types.Contact]{},
		Events:              collection[types.NewEventRequest, types.UpdateEventRequest, types.EventSearchParams, types.Event]{},
		Attendees:           composite[types.AttendeeParams, types.AttendeeParams, types.Attendees]{},
		Places:              collection[types.NewPlaceRequest, types.UpdatePlaceRequest, types.PlaceSearchParams, types.Place]{},
		Tags:                collection[types.NewTagRequest, types.UpdateTagRequest, types.TagSearchParams, types.Tag]{},
		Recipes:             collection[types.NewRecipeRequest, types.UpdateRecipeRequest, types.RecipeSearchParams, types.Recipe]{},
		RecipePreviews:      recipePreviews{},
		RecipeTags:          composite[types.NewRecipeTagsRequest, types.RecipeTagParams, types.RecipeTags]{},
		BankAccounts:        collection[types.NewBankAccountRequest, types.UpdateBankAccountRequest, types.BankAccountSearchParams, types.BankAccount]{},
		Transactions:        collection[struct{}, types.UpdateTransactionRequest, types.TransactionSearchParams, types.Transaction]{},
		AccountTransactions: accountTransactions{},
		News:                headlines{},
		Assistant:           echoAssistant{},
	}
}

func newTestServer(t *testing.T, opts server.Options) (*server.Server, *server.State) {
	t.Helper()
	doc, err := openapi.Load()
	require.NoError(t, err)
	cfg := &config.Config{Server: config.ServerConfig{
		BindAddr:            "127.0.0.1:0",
		UserAgent:           "toi-test",
		DistanceThreshold:   0.75,
		SimilarityThreshold: 0.5,
	}}
	state, err := server.NewState(cfg, doc)
	require.NoError(t, err)
	return server.New(state, services(), opts), state
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, r))
	return w
}

func TestRoutes_Status(t *testing.T) {
	srv, _ := newTestServer(t, server.Options{Metrics: metrics.New()})
	h := srv.Handler()

	tests := []struct {
		method, target, body string
		status               int
	}{
		{http.MethodPost, "/notes", `{"content":"buy milk"}`, http.StatusCreated},
		{http.MethodPut, "/notes", `{"id":1,"note_updates":{"content":"buy oat milk"}}`, http.StatusOK},
		{http.MethodPost, "/notes/search", ``, http.StatusOK},
		{http.MethodPost, "/notes/delete", `{"ids":[1]}`, http.StatusOK},
		{http.MethodPost, "/todos/complete", `{}`, http.StatusOK},
		{http.MethodPost, "/contacts/search", `{"birthday_falls_on":"month","birthday":"2025-05-01"}`, http.StatusOK},
		{http.MethodPost, "/events/attendees", `{"event_id":1,"contact_ids":[2]}`, http.StatusCreated},
		{http.MethodGet, "/events/attendees/search?event_id=1", ``, http.StatusOK},
		{http.MethodPost, "/events/participants?event_id=1&contact_ids=2,3", ``, http.StatusCreated},
		{http.MethodGet, "/events/participants?event_query=dinner", ``, http.StatusOK},
		{http.MethodDelete, "/events/participants?event_id=1", ``, http.StatusOK},
		{http.MethodPost, "/tags", `{"name":"soup"}`, http.StatusCreated},
		{http.MethodPost, "/recipes/previews/search", `{"tags":["soup"]}`, http.StatusOK},
		{http.MethodPost, "/recipes/tags/delete", `{"recipe_id":1}`, http.StatusOK},
		{http.MethodPost, "/banking/accounts/transactions", `{"bank_account_id":1,"transaction_description":"rent","transaction_amount":-1200}`, http.StatusCreated},
		{http.MethodPut, "/banking/transactions", `{"id":1,"transaction_updates":{"amount":5}}`, http.StatusOK},
		{http.MethodGet, "/datetime/now", ``, http.StatusOK},
		{http.MethodGet, "/news/amber", ``, http.StatusFound},
		{http.MethodGet, "/news/zephyr", ``, http.StatusNotFound},
		{http.MethodPost, "/notes/search", `{"order_by":"sideways"}`, http.StatusBadRequest},
		{http.MethodPost, "/notes", ``, http.StatusBadRequest},
		{http.MethodPost, "/events", `{}`, http.StatusBadRequest},
		{http.MethodGet, "/notes", ``, http.StatusMethodNotAllowed},
		{http.MethodGet, "/nowhere", ``, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			w := do(t, h, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			assert.NotEmpty(t, w.Header().Get(handlers.RequestIDHeader))
			assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		})
	}
}

func TestRoutes_Assist(t *testing.T) {
	srv, _ := newTestServer(t, server.Options{})
	w := do(t, srv.Handler(), http.MethodPost, "/assist", `{"messages":[{"role":"user","content":"hi"}]}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "you said: hi", w.Body.String())
}

func TestRoutes_OpenAPIAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t, server.Options{Metrics: metrics.New()})
	h := srv.Handler()

	w := do(t, h, http.MethodGet, "/openapi.json", "")
	require.Equal(t, http.StatusOK, w.Code)
	var doc struct {
		Paths map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Contains(t, doc.Paths, "/notes")
	assert.Contains(t, doc.Paths, "/assist")

	w = do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `toi_http_requests_total{method="GET",route="GET /openapi.json",status="200"} 1`)
}

func TestRoutes_RateLimited(t *testing.T) {
	srv, _ := newTestServer(t, server.Options{RateLimit: 0.001, RateBurst: 1})
	h := srv.Handler()

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/datetime/now", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, h, http.MethodGet, "/datetime/now", "").Code)
}

func TestLoopbackURL(t *testing.T) {
	tests := []struct {
		bind, want string
	}{
		{"127.0.0.1:6969", "http://127.0.0.1:6969"},
		{"0.0.0.0:8080", "http://127.0.0.1:8080"},
		{":6969", "http://127.0.0.1:6969"},
		{"[::]:6969", "http://127.0.0.1:6969"},
		{"[::1]:6969", "http://[::1]:6969"},
	}
	for _, tt := range tests {
		got, err := server.LoopbackURL(tt.bind)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}

	_, err := server.LoopbackURL("6969")
	assert.Error(t, err)
}

func TestNewState(t *testing.T) {
	_, state := newTestServer(t, server.Options{})

	assert.Equal(t, "http://127.0.0.1:0", state.LoopbackURL)
	assert.Equal(t, "toi-test", state.UserAgent)
	assert.InDelta(t, 0.75, state.Thresholds.Distance, 1e-9)
	assert.NotContains(t, state.OpenAPI.AssistantSpec(), `"/assist"`)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	srv, _ := newTestServer(t, server.Options{})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/datetime/weekday?datetime=2025-05-08T00:00:00Z")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"weekday":"Thursday"}`, string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
