// Package main provides the Leadflow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/gcamillo/leadflow/pkg/engine"
	"github.com/gcamillo/leadflow/pkg/web"
)

type API struct {
	logger   *slog.Logger
	engine   *engine.Engine
	validate *validator.Validate
}

func NewAPI(logger *slog.Logger, routingEngine *engine.Engine) *API {
	return &API{
		logger:   logger,
		engine:   routingEngine,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	handlers := web.NewHandlers(a.logger, a.engine, a.validate)

	return web.NewApp(handlers)
}

func (a *API) Start(port int) error {
	return a.App().Listen(":" + strconv.Itoa(port))
}
