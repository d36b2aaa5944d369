package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/gcamillo/leadflow/pkg/persistence"
	"github.com/gcamillo/leadflow/pkg/persistence/file"
	"github.com/gcamillo/leadflow/pkg/persistence/postgresql"
)

// NewPersistence builds a persistence layer from the database URL scheme.
// file:// paths (or bare paths) use the JSON file store; postgres:// and
// postgresql:// use PostgreSQL.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch provider(databaseURL) {
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	default:
		return file.NewPersistence(databaseURL)
	}
}

func provider(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return scheme
}
