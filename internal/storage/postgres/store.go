// Package postgres implements the storage contracts on PostgreSQL with the
// pgvector extension.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/theogognf/toi/internal/llm"
	"github.com/theogognf/toi/internal/search"
	"github.com/theogognf/toi/internal/storage"
)

var (
	_ storage.Notes               = (*NoteRepo)(nil)
	_ storage.Todos               = (*TodoRepo)(nil)
	_ storage.Contacts            = (*ContactRepo)(nil)
	_ storage.Events              = (*EventRepo)(nil)
	_ storage.Places              = (*PlaceRepo)(nil)
	_ storage.Tags                = (*TagRepo)(nil)
	_ storage.Recipes             = (*RecipeRepo)(nil)
	_ storage.RecipePreviews      = (*RecipeRepo)(nil)
	_ storage.BankAccounts        = (*BankAccountRepo)(nil)
	_ storage.Transactions        = (*TransactionRepo)(nil)
	_ storage.Attendees           = (*AttendeeRepo)(nil)
	_ storage.RecipeTags          = (*RecipeTagRepo)(nil)
	_ storage.AccountTransactions = (*AccountTransactionRepo)(nil)
	_ storage.NewsLinks           = (*NewsRing)(nil)
)

// Open connects to dsn with a bounded pool and verifies the connection.
func Open(ctx context.Context, dsn string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to open database: %w", err)
	}

	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: failed to ping database: %w", err)
	}
	return db, nil
}

// Store groups every repository over one pool.
type Store struct {
	db *sql.DB

	Notes               *NoteRepo
	Todos               *TodoRepo
	Contacts            *ContactRepo
	Events              *EventRepo
	Attendees           *AttendeeRepo
	Places              *PlaceRepo
	Tags                *TagRepo
	Recipes             *RecipeRepo
	RecipeTags          *RecipeTagRepo
	BankAccounts        *BankAccountRepo
	Transactions        *TransactionRepo
	AccountTransactions *AccountTransactionRepo
	News                *NewsRing
}

// Models are the model services the repositories depend on.
type Models struct {
	Embedder llm.Embedder
	Reranker llm.Reranker
}

// NewStore wires the repositories. newsBaseURL prefixes news aliases,
// e.g. "http://127.0.0.1:6969/news/".
func NewStore(db *sql.DB, models Models, thresholds search.Thresholds, newsBaseURL string) *Store {
	engine := search.NewEngine(db, models.Embedder, models.Reranker, thresholds)
	base := repo{db: db, engine: engine, embedder: models.Embedder}

	s := &Store{db: db}
	s.Notes = &NoteRepo{base}
	s.Todos = &TodoRepo{base}
	s.Contacts = &ContactRepo{base}
	s.Events = &EventRepo{base}
	s.Places = &PlaceRepo{base}
	s.Tags = &TagRepo{base}
	s.Recipes = &RecipeRepo{repo: base, tags: s.Tags}
	s.BankAccounts = &BankAccountRepo{base}
	s.Transactions = &TransactionRepo{base}
	s.Attendees = &AttendeeRepo{repo: base, events: s.Events, contacts: s.Contacts}
	s.RecipeTags = &RecipeTagRepo{repo: base, recipes: s.Recipes, tags: s.Tags}
	s.AccountTransactions = &AccountTransactionRepo{repo: base, accounts: s.BankAccounts, transactions: s.Transactions}
	s.News = &NewsRing{db: db, baseURL: newsBaseURL, now: time.Now}
	return s
}

// DB returns the underlying pool.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close releases the pool.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// repo holds what every entity repository needs.
type repo struct {
	db       *sql.DB
	engine   *search.Engine
	embedder llm.Embedder
}
