// Package server wires the toi routes, middleware and HTTP server
// lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/theogognf/toi/internal/config"
	"github.com/theogognf/toi/internal/metrics"
	"github.com/theogognf/toi/internal/openapi"
	"github.com/theogognf/toi/internal/search"
	"github.com/theogognf/toi/internal/storage"
	"github.com/theogognf/toi/web/handlers"
)

const shutdownTimeout = 5 * time.Second

// State is built once at startup and never mutated.
type State struct {
	BindAddr    string
	LoopbackURL string
	UserAgent   string
	Thresholds  search.Thresholds
	OpenAPI     *openapi.Document
}

// NewState derives the process state from the configuration.
func NewState(cfg *config.Config, doc *openapi.Document) (*State, error) {
	loopback, err := LoopbackURL(cfg.Server.BindAddr)
	if err != nil {
		return nil, err
	}
	return &State{
		BindAddr:    cfg.Server.BindAddr,
		LoopbackURL: loopback,
		UserAgent:   cfg.Server.UserAgent,
		Thresholds: search.Thresholds{
			Distance:   cfg.Server.DistanceThreshold,
			Similarity: cfg.Server.SimilarityThreshold,
		},
		OpenAPI: doc,
	}, nil
}

// LoopbackURL is the base URL the assistant uses to call this server.
// Wildcard hosts are reached through the IPv4 loopback address.
func LoopbackURL(bindAddr string) (string, error) {
	host, port, err := net.SplitHostPort(bindAddr)
	if err != nil {
		return "", fmt.Errorf("server: invalid bind address %q: %w", bindAddr, err)
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port), nil
}

// Services are the backends the routes dispatch to.
type Services struct {
	Notes               storage.Notes
	Todos               storage.Todos
	Contacts            storage.Contacts
	Events              storage.Events
	Attendees           storage.Attendees
	Places              storage.Places
	Tags                storage.Tags
	Recipes             storage.Recipes
	RecipePreviews      storage.RecipePreviews
	RecipeTags          storage.RecipeTags
	BankAccounts        storage.BankAccounts
	Transactions        storage.Transactions
	AccountTransactions storage.AccountTransactions

	Weather   handlers.Forecaster
	News      handlers.Headlines
	Assistant handlers.Assistant
}

// Options tune the middleware chain.
type Options struct {
	RateLimit float64
	RateBurst int
	Metrics   *metrics.Metrics
}

// Server is the toi HTTP server.
type Server struct {
	state   *State
	handler http.Handler
}

// New builds the mux and wraps it in the middleware chain.
func New(state *State, svc Services, opts Options) *Server {
	mux := http.NewServeMux()
	registerRoutes(mux, state, svc, opts.Metrics)

	// Metrics wraps the mux directly so it sees the matched pattern.
	var handler http.Handler = handlers.Metrics(mux, opts.Metrics)
	if opts.RateLimit > 0 {
		handler = handlers.RateLimitMiddleware(handler, handlers.NewRateLimiter(opts.RateLimit, opts.RateBurst))
	}
	handler = handlers.Recovery(handler)
	handler = handlers.Logging(handler)
	handler = handlers.RequestID(handler)
	handler = handlers.SecurityHeaders(handler)

	return &Server{state: state, handler: handler}
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Listen opens the configured bind address.
func (s *Server) Listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", s.state.BindAddr)
	if err != nil {
		return nil, fmt.Errorf("server: failed to listen on %s: %w", s.state.BindAddr, err)
	}
	return ln, nil
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
		// No WriteTimeout: assist replies stream for as long as the model
		// generates.
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", ln.Addr().String()).Msg("server listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
