// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes EcoLog notebooks and species identification over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ecolog/internal/analysis"
	"github.com/starford/ecolog/internal/apperr"
	"github.com/starford/ecolog/internal/notebookservice"
)

const entryFormatURI = "ecolog://entry-format"

// Server wraps the MCP server with EcoLog tools.
type Server struct {
	mcp       *server.MCPServer
	notebooks *notebookservice.Service
	analysis  *analysis.Service
}

// New creates a new MCP server with all EcoLog tools registered.
func New(notebooks *notebookservice.Service, an *analysis.Service) *Server {
	s := &Server{notebooks: notebooks, analysis: an}

	s.mcp = server.NewMCPServer(
		"EcoLog",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notebooks",
		mcp.WithDescription("List every notebook with its entries."),
	), s.listNotebooks)

	s.mcp.AddTool(mcp.NewTool("get_notebook",
		mcp.WithDescription("Read one notebook with its entries."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Notebook ID")),
	), s.getNotebook)

	s.mcp.AddTool(mcp.NewTool("create_notebook",
		mcp.WithDescription("Create an empty notebook."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Notebook name")),
		mcp.WithString("image", mcp.Description("Optional cover image URL")),
	), s.createNotebook)

	s.mcp.AddTool(mcp.NewTool("add_entry",
		mcp.WithDescription("Add a discovery to a notebook. "+
			"Fields follow the entry format; read it via get_entry_format or the "+
			entryFormatURI+" resource."),
		mcp.WithString("notebook_id", mcp.Required(), mcp.Description("Target notebook ID")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Common name")),
		mcp.WithString("scientific", mcp.Description("Scientific name")),
		mcp.WithString("description", mcp.Description("Short description")),
		mcp.WithString("fun_fact", mcp.Description("One interesting fact")),
		mcp.WithString("notes", mcp.Description("Free-form observation notes")),
		mcp.WithString("author", mcp.Description("Who made the observation")),
		mcp.WithString("image_url", mcp.Description("Illustration or photo URL")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags")),
	), s.addEntry)

	s.mcp.AddTool(mcp.NewTool("search_entries",
		mcp.WithDescription("Full-text search over notebook entries."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum results (default 20)")),
	), s.searchEntries)

	s.mcp.AddTool(mcp.NewTool("identify_species",
		mcp.WithDescription("Identify the species in a photo and draft a notebook entry "+
			"with a generated illustration. Pass the result to add_entry to save it."),
		mcp.WithString("image", mcp.Required(), mcp.Description("Photo as an http(s) URL or a base64 data URI")),
	), s.identifySpecies)

	s.mcp.AddTool(mcp.NewTool("analyze_photo",
		mcp.WithDescription("Run the full analysis: identification, watercolor illustration "+
			"and a stored result whose analysis_id can be downloaded over HTTP."),
		mcp.WithString("image", mcp.Required(), mcp.Description("Photo as an http(s) URL or a base64 data URI")),
	), s.analyzePhoto)

	s.mcp.AddTool(mcp.NewTool("get_entry_format",
		mcp.WithDescription("Returns the notebook entry format. "+
			"Call this before adding entries."),
	), s.getEntryFormat)

	s.mcp.AddResource(
		mcp.NewResource(entryFormatURI, "Entry Format",
			mcp.WithResourceDescription("Fields and conventions for notebook entries."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readEntryFormatResource,
	)

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

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func errorResult(err error) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrNotFound) {
		return mcp.NewToolResultError("notebook not found")
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) listNotebooks(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notebooks, err := s.notebooks.ListNotebooks(ctx)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(notebooks), nil
}

func (s *Server) getNotebook(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	nb, err := s.notebooks.GetNotebook(ctx, id)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(nb), nil
}

func (s *Server) createNotebook(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	nb, err := s.notebooks.CreateNotebook(ctx, notebookservice.CreateNotebookInput{
		Name:  name,
		Image: req.GetString("image", ""),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(nb), nil
}

func (s *Server) addEntry(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	notebookID, err := req.RequireString("notebook_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	entry, err := s.notebooks.AddEntry(ctx, notebookID, notebookservice.EntryInput{
		Title:       title,
		Scientific:  req.GetString("scientific", ""),
		Tags:        splitTags(req.GetString("tags", "")),
		Description: req.GetString("description", ""),
		FunFact:     req.GetString("fun_fact", ""),
		Notes:       req.GetString("notes", ""),
		Author:      req.GetString("author", ""),
		ImageURL:    req.GetString("image_url", ""),
	})
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(entry), nil
}

func splitTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (s *Server) searchEntries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.notebooks.SearchEntries(ctx, query, req.GetInt("limit", 20))
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(results), nil
}

func (s *Server) identifySpecies(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := req.RequireString("image")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, mimeType, err := loadImage(ctx, src)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := s.analysis.Identify(ctx, data, mimeType)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(out), nil
}

func (s *Server) analyzePhoto(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	src, err := req.RequireString("image")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, mimeType, err := loadImage(ctx, src)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, err := s.analysis.Analyze(ctx, data, mimeType)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(out), nil
}

func (s *Server) getEntryFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(EntryFormat), nil
}

func (s *Server) readEntryFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      entryFormatURI,
			MIMEType: "text/markdown",
			Text:     EntryFormat,
		},
	}, nil
}
