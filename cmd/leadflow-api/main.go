package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/gcamillo/leadflow/pkg/cmd"
	"github.com/gcamillo/leadflow/pkg/engine"
	"github.com/gcamillo/leadflow/pkg/log"
	"github.com/gcamillo/leadflow/pkg/scoring"
)

const defaultPort = 9080

func main() {
	logger := log.WithModule("api")

	command := &cli.Command{
		Name:                  "leadflow-api",
		Usage:                 "Lead qualification and routing engine",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (file:// or postgres://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus provider (gochannel, kafka)",
				Value:   "gochannel",
				Sources: cli.EnvVars("EVENT_BUS"),
			},
			&cli.StringFlag{
				Name:    "redis-url",
				Usage:   "Redis URL for the shared lead assignment table",
				Sources: cli.EnvVars("REDIS_URL"),
			},
			&cli.StringFlag{
				Name:    "scoring-url",
				Usage:   "Base URL of the lead scoring service",
				Value:   "http://localhost:9081",
				Sources: cli.EnvVars("SCORING_URL"),
			},
			&cli.StringFlag{
				Name:    "escalation-schedule",
				Usage:   "Cron schedule for the escalation sweeper",
				Value:   "@every 10m",
				Sources: cli.EnvVars("ESCALATION_SCHEDULE"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger.InfoContext(ctx, "Initializing Leadflow API")

			store, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := store.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), logger)
			if err != nil {
				return err
			}

			table, err := cmd.NewAssignmentTable(command.String("redis-url"))
			if err != nil {
				return err
			}

			routingEngine, err := engine.New(engine.Config{
				Logger:             logger,
				Persistence:        store,
				EventBus:           eventBus,
				Scoring:            scoring.NewHTTPClient(logger, command.String("scoring-url")),
				Assignments:        table,
				EscalationSchedule: command.String("escalation-schedule"),
			})
			if err != nil {
				return err
			}

			if err := routingEngine.Start(ctx); err != nil {
				return err
			}

			defer routingEngine.Stop(ctx)

			api := NewAPI(logger, routingEngine)

			if err := api.Start(command.Int("port")); err != nil {
				logger.ErrorContext(ctx, "API server stopped", "error", err)

				return err
			}

			return nil
		},
	}

	if err := command.Run(context.Background(), os.Args); err != nil {
		logger.Error("Failed to run leadflow-api", "error", err)
		os.Exit(1)
	}
}
