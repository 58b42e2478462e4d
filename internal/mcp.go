package internal

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/snapnote/snapnote/internal/export"
	"github.com/snapnote/snapnote/internal/mcpserver"
	"github.com/snapnote/snapnote/internal/store"
)

// RunMCP serves the MCP tools over stdio. Logs go to stderr so stdout
// stays reserved for the protocol stream.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	st, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer st.Close()

	exporter, err := export.New(cfg.Export.Dir)
	if err != nil {
		return fmt.Errorf("init export: %w", err)
	}

	srv := mcpserver.New(st, exporter)
	logger.Info("MCP server starting on stdio")
	return srv.ServeStdio()
}
