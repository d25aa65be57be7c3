// @title			TaskFlow API
// @version		1.0
// @description	Multi-tenant task lifecycle with optimistic concurrency and a transactional outbox.
// @BasePath		/api/v1

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mtlprog/taskflow/internal/config"
	"github.com/mtlprog/taskflow/internal/database"
	"github.com/mtlprog/taskflow/internal/handler"
	"github.com/mtlprog/taskflow/internal/logger"
	"github.com/mtlprog/taskflow/internal/outbox"
	"github.com/mtlprog/taskflow/internal/repository"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func main() {
	app := &cli.App{
		Name:  "taskflow",
		Usage: "Task lifecycle service with a transactional outbox",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   "info",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:     "database-url",
				Aliases:  []string{"d"},
				Value:    config.DefaultDatabaseURL,
				Usage:    "PostgreSQL database URL",
				EnvVars:  []string{"DATABASE_URL"},
				Required: true,
			},
			&cli.IntFlag{
				Name:    "db-max-conns",
				Value:   int(database.DefaultOptions().MaxConns),
				Usage:   "Maximum connections in the database pool",
				EnvVars: []string{"DB_MAX_CONNS"},
			},
		},
		Before: func(c *cli.Context) error {
			logger.Setup(logger.ParseLevel(c.String("log-level")))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Start the HTTP API",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Value:   config.DefaultPort,
						Usage:   "HTTP server port",
						EnvVars: []string{"PORT"},
					},
					&cli.BoolFlag{
						Name:    "with-relay",
						Usage:   "Also run the outbox relay in this process",
						EnvVars: []string{"WITH_RELAY"},
					},
				}, relayFlags()...),
				Action: runServe,
			},
			{
				Name:   "relay",
				Usage:  "Publish committed task events to NATS",
				Flags:  relayFlags(),
				Action: runRelay,
			},
			{
				Name:   "migrate",
				Usage:  "Apply database migrations and exit",
				Action: runMigrate,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func relayFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "nats-url",
			Value:   config.DefaultNATSURL,
			Usage:   "NATS server URL",
			EnvVars: []string{"NATS_URL"},
		},
		&cli.DurationFlag{
			Name:    "outbox-interval",
			Value:   config.DefaultOutboxInterval,
			Usage:   "Pause between outbox polls",
			EnvVars: []string{"OUTBOX_INTERVAL"},
		},
		&cli.IntFlag{
			Name:    "outbox-batch",
			Value:   config.DefaultOutboxBatch,
			Usage:   "Events claimed per outbox poll",
			EnvVars: []string{"OUTBOX_BATCH"},
		},
		&cli.StringFlag{
			Name:    "subject-prefix",
			Value:   config.DefaultSubjectPrefix,
			Usage:   "First token of published NATS subjects",
			EnvVars: []string{"OUTBOX_SUBJECT_PREFIX"},
		},
	}
}

// openDatabase connects and applies migrations.
func openDatabase(c *cli.Context) (*database.DB, error) {
	opts := database.DefaultOptions()
	if n := c.Int("db-max-conns"); n > 0 {
		opts.MaxConns = int32(n)
		if opts.MinConns > opts.MaxConns {
			opts.MinConns = opts.MaxConns
		}
	}

	db, err := database.New(c.Context, c.String("database-url"), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.RunMigrations(c.Context, db.Pool()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// newRelay connects to NATS and builds the outbox relay. The returned publisher must be closed.
func newRelay(c *cli.Context, pool *pgxpool.Pool) (*outbox.Relay, *outbox.NATSPublisher, error) {
	natsCfg := outbox.DefaultNATSConfig()
	natsCfg.URL = c.String("nats-url")

	publisher, err := outbox.NewNATSPublisher(natsCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	relayCfg := outbox.DefaultRelayConfig()
	relayCfg.Interval = c.Duration("outbox-interval")
	relayCfg.BatchSize = c.Int("outbox-batch")
	relayCfg.SubjectPrefix = c.String("subject-prefix")

	relay := outbox.NewRelay(pool, repository.NewTaskEventRepository(pool), publisher, relayCfg)
	return relay, publisher, nil
}

func runServe(c *cli.Context) error {
	port := c.String("port")
	if port == "" {
		port = config.DefaultPort
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	h := handler.New(db.Pool())

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "server_addr", "http://localhost:"+port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	if c.Bool("with-relay") {
		relay, publisher, err := newRelay(c, db.Pool())
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		defer publisher.Close()

		g.Go(func() error {
			return relay.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("server stopped")
	return nil
}

func runRelay(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	relay, publisher, err := newRelay(c, db.Pool())
	if err != nil {
		return err
	}
	defer publisher.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return relay.Run(ctx)
}

func runMigrate(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("migrations applied")
	return nil
}
