// Command toi-server runs the toi personal assistant API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/theogognf/toi/internal/assistant"
	"github.com/theogognf/toi/internal/config"
	"github.com/theogognf/toi/internal/llm"
	"github.com/theogognf/toi/internal/logger"
	"github.com/theogognf/toi/internal/metrics"
	"github.com/theogognf/toi/internal/news"
	"github.com/theogognf/toi/internal/openapi"
	"github.com/theogognf/toi/internal/server"
	"github.com/theogognf/toi/internal/storage"
	"github.com/theogognf/toi/internal/storage/postgres"
	"github.com/theogognf/toi/internal/weather"
)

// thirdPartyTimeout bounds calls to the weather and news services.
const thirdPartyTimeout = 30 * time.Second

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd builds the CLI. Running it without a subcommand serves.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "toi-server",
		Short:         "Personal assistant API backed by Postgres and model services",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(newServeCmd(), newMigrateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Apply migrations and serve the API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func newMigrateCmd() *cobra.Command {
	var steps int
	cmd := &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back the database schema",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{storage.DirectionUp, storage.DirectionDown},
		RunE: func(_ *cobra.Command, args []string) error {
			env, err := config.LoadEnv()
			if err != nil {
				return err
			}
			setupLogging(env.LogLevel)
			if err := storage.Migrate(env.DatabaseURL, args[0], steps); err != nil {
				return err
			}
			log.Info().Str("direction", args[0]).Int("steps", steps).Msg("migrations applied")
			return nil
		},
	}
	cmd.Flags().IntVar(&steps, "steps", 0, "Number of migrations to apply (0 for all)")
	return cmd
}

func setupLogging(level string) {
	log.Logger = logger.New("toi", level)
	zerolog.DefaultContextLogger = &log.Logger
}

func serve(parent context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	setupLogging(cfg.Env.LogLevel)

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := storage.Migrate(cfg.Env.DatabaseURL, storage.DirectionUp, 0); err != nil {
		return err
	}
	db, err := postgres.Open(ctx, cfg.Env.DatabaseURL, cfg.Env.DBMaxConns)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	m := metrics.New()
	models, err := llm.NewClient(cfg, m)
	if err != nil {
		return err
	}

	doc, err := openapi.Load()
	if err != nil {
		return err
	}
	state, err := server.NewState(cfg, doc)
	if err != nil {
		return err
	}

	store := postgres.NewStore(db, postgres.Models{Embedder: models, Reranker: models}, state.Thresholds, state.LoopbackURL+"/news/")
	if err := store.News.Seed(ctx); err != nil {
		return fmt.Errorf("failed to seed news aliases: %w", err)
	}

	forecasts := weather.New(weather.Config{UserAgent: state.UserAgent, Timeout: thirdPartyTimeout})
	headlines := news.NewService(news.NewFeed("", state.UserAgent, thirdPartyTimeout), store.News)
	executor := assistant.NewExecutor(state.LoopbackURL, cfg.Generation.TimeoutDuration())
	assist := assistant.New(models, executor, doc.AssistantSpec(), m)

	srv := server.New(state, server.Services{
		Notes:               store.Notes,
		Todos:               store.Todos,
		Contacts:            store.Contacts,
		Events:              store.Events,
		Attendees:           store.Attendees,
		Places:              store.Places,
		Tags:                store.Tags,
		Recipes:             store.Recipes,
		RecipePreviews:      store.Recipes,
		RecipeTags:          store.RecipeTags,
		BankAccounts:        store.BankAccounts,
		Transactions:        store.Transactions,
		AccountTransactions: store.AccountTransactions,
		Weather:             forecasts,
		News:                headlines,
		Assistant:           assist,
	}, server.Options{
		RateLimit: cfg.Server.RateLimit,
		RateBurst: cfg.Server.RateBurst,
		Metrics:   m,
	})

	ln, err := srv.Listen()
	if err != nil {
		return err
	}
	log.Info().Str("loopback", state.LoopbackURL).Msg("toi server started")
	return srv.Serve(ctx, ln)
}
