package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"quizmaker-service/internal/app"
	"quizmaker-service/internal/auth"
	"quizmaker-service/internal/config"
	"quizmaker-service/internal/infra/memory"
	"quizmaker-service/internal/infra/postgres"
	rediscache "quizmaker-service/internal/infra/redis"
	"quizmaker-service/internal/infra/sqlite"
	transport "quizmaker-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

// stores bundles the repositories chosen by store.driver.
type stores struct {
	quizzes  app.QuizRepository
	attempts app.AttemptRepository
	closers  []io.Closer
}

func (s *stores) Close() {
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			log.Printf("close store: %v", err)
		}
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		return &stores{quizzes: memory.NewQuizStore(), attempts: memory.NewAttemptStore()}, nil
	case config.DriverPostgres:
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		return &stores{
			quizzes:  postgres.NewQuizStore(pool),
			attempts: postgres.NewAttemptStore(pool),
			closers:  []io.Closer{closerFunc(func() error { pool.Close(); return nil })},
		}, nil
	case config.DriverSQLite:
		db, err := sqlite.NewStore(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		return &stores{quizzes: db.Quizzes(), attempts: db.Attempts(), closers: []io.Closer{db}}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// withQuizCache fronts the quiz repository with Redis when configured, otherwise an in-process cache.
func withQuizCache(cfg config.Config, st *stores) {
	ttl := config.TTLDuration(cfg.Quiz.CacheTTL, 5*time.Minute)
	if ttl <= 0 {
		log.Printf("quiz cache disabled")
		return
	}
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		st.quizzes = rediscache.NewQuizCache(client, st.quizzes, ttl)
		st.closers = append(st.closers, client)
		return
	}
	st.quizzes = memory.NewQuizCache(st.quizzes, ttl)
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret not configured")
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()
	withQuizCache(cfg, st)

	quizService := app.NewQuizService(st.quizzes)
	attemptService := app.NewAttemptService(st.quizzes, st.attempts)
	attemptService.SetListLimits(cfg.Attempts.DefaultLimit, cfg.Attempts.MaxLimit)

	handler := transport.NewRouter(
		quizService,
		attemptService,
		auth.NewTokens(cfg.Auth.JWTSecret),
		config.TTLDuration(cfg.Server.RequestTimeout, 10*time.Second),
	)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      handler,
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	go func() {
		log.Printf("starting quizmaker on :%s (store=%s)", finalPort, cfg.Store.Driver)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
