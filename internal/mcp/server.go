// Package mcp exposes parsing and fill passes as Model Context Protocol tools
// over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joseph-ayodele/nutrifill/constants"
	"github.com/joseph-ayodele/nutrifill/internal/async"
	"github.com/joseph-ayodele/nutrifill/internal/entry"
	"github.com/joseph-ayodele/nutrifill/internal/pipeline"
)

// Doer runs a pass through the serial queue.
type Doer interface {
	Do(ctx context.Context, job async.Job) (pipeline.Report, error)
}

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Queue   Doer // nil leaves nutrifill_fill unregistered
	Version string
}

func NewServer(cfg ServerConfig) *server.MCPServer {
	ver := cfg.Version
	if ver == "" {
		ver = "dev"
	}
	s := server.NewMCPServer("nutrifill", ver, server.WithToolCapabilities(false))

	registerParseTool(s)
	if cfg.Queue != nil {
		registerFillTool(s, cfg.Queue)
	}
	return s
}

// Serve runs the server on stdin/stdout until the client disconnects.
func Serve(cfg ServerConfig) error {
	return server.ServeStdio(NewServer(cfg))
}

func registerParseTool(s *server.MCPServer) {
	tool := mcp.NewTool("nutrifill_parse",
		mcp.WithDescription("Parse nutrition-facts text into label/value/unit entries, one per matching line. Does not touch the form."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Multi-line text such as 'Energy: 380 kcal'"),
		),
	)

	s.AddTool(tool, func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil {
			return mcp.NewToolResultError("text is required"), nil
		}
		entries := entry.ParseAll(text)
		if entries == nil {
			entries = []entry.Entry{}
		}
		data, _ := json.MarshalIndent(map[string]any{"entries": entries}, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}

func registerFillTool(s *server.MCPServer, queue Doer) {
	tool := mcp.NewTool("nutrifill_fill",
		mcp.WithDescription("Fill the open nutrition form from nutrition-facts text. Returns how many fields were filled and which entries failed."),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Multi-line text such as 'Energy: 380 kcal'"),
		),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := req.RequireString("text")
		if err != nil || text == "" {
			return mcp.NewToolResultError("text is required"), nil
		}
		rep, err := queue.Do(ctx, async.Job{Text: text, Source: constants.SourceMCP})
		if err != nil {
			if errors.Is(err, async.ErrQueueClosed) {
				return mcp.NewToolResultError("nutrifill is shutting down"), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("fill error: %v", err)), nil
		}
		data, _ := json.MarshalIndent(rep, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	})
}
