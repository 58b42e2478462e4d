// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes SnapNote tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/snapnote/snapnote/internal/apperr"
	"github.com/snapnote/snapnote/internal/export"
	"github.com/snapnote/snapnote/internal/filter"
	"github.com/snapnote/snapnote/internal/models"
	"github.com/snapnote/snapnote/internal/store"
)

// Server wraps the MCP server with SnapNote tools.
type Server struct {
	mcp      *server.MCPServer
	store    *store.Store
	exporter *export.Exporter
}

// New creates a new MCP server with all SnapNote tools registered.
func New(st *store.Store, exporter *export.Exporter) *Server {
	s := &Server{store: st, exporter: exporter}

	s.mcp = server.NewMCPServer(
		"SnapNote",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List all notes ordered by last update, newest first. "+
			"Optionally restrict to a category: all, recent, tagged, or long."),
		mcp.WithString("category", mcp.Description("Filter category (default: all)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Case-insensitive substring search across note titles, bodies, and tags."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read the full content of a note by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a new note. An empty title becomes \"Untitled\". "+
			"Tags are comma-separated; duplicates (case-insensitive) are dropped."),
		mcp.WithString("title", mcp.Description("Note title")),
		mcp.WithString("body", mcp.Required(), mcp.Description("Note text")),
		mcp.WithString("tags", mcp.Description("Comma-separated tag list")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("export_note",
		mcp.WithDescription("Export a note to a file on disk. Returns the written path."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("format", mcp.Required(), mcp.Description("Export format: pdf or txt")),
	), s.exportNote)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// noteSummary is the compact listing shape returned by list/search tools.
type noteSummary struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Tags      []string `json:"tags"`
	UpdatedAt int64    `json:"updatedAt"`
}

func summarize(notes []models.Note) []noteSummary {
	out := make([]noteSummary, len(notes))
	for i, n := range notes {
		out[i] = noteSummary{ID: n.ID, Title: n.Title, Tags: n.Tags, UpdatedAt: n.UpdatedAt}
	}
	return out
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	category := ""
	if c, err := req.RequireString("category"); err == nil {
		category = c
	}
	cat, err := filter.ParseCategory(category)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	notes, err := s.store.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes = filter.Apply(notes, cat, "", time.Now())

	out, _ := json.MarshalIndent(summarize(notes), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	notes, err := s.store.List(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	notes = filter.Apply(notes, filter.CategoryAll, query, time.Now())

	out, _ := json.MarshalIndent(summarize(notes), "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	note, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(note, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body, err := req.RequireString("body")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title := ""
	if t, terr := req.RequireString("title"); terr == nil {
		title = t
	}

	note := models.New(title, body, nil)
	if raw, terr := req.RequireString("tags"); terr == nil {
		for _, tag := range strings.Split(raw, ",") {
			note.AddTag(tag)
		}
	}

	if err := s.store.Upsert(ctx, note); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", note.ID)), nil
}

func (s *Server) exportNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format, err := req.RequireString("format")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	note, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	var path string
	switch format {
	case "pdf":
		path, err = s.exporter.AsPDF(note)
	case "txt":
		path, err = s.exporter.AsTXT(note)
	default:
		return mcp.NewToolResultError(`format must be "pdf" or "txt"`), nil
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("exported: %s", path)), nil
}
