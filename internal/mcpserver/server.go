// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes fragment tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/fragments/internal/convert"
	"github.com/starford/fragments/internal/fragmentservice"
	"github.com/starford/fragments/internal/mimetype"
)

// Server wraps the MCP server with fragment tools. All tool calls act on
// behalf of a single owner fixed at construction; the stdio transport is
// a local, single-principal surface.
type Server struct {
	mcp     *server.MCPServer
	svc     *fragmentservice.Service
	ownerID string
}

// New creates a new MCP server with all fragment tools registered.
func New(svc *fragmentservice.Service, ownerID string) *Server {
	s := &Server{svc: svc, ownerID: ownerID}

	s.mcp = server.NewMCPServer(
		"Fragments",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_fragments",
		mcp.WithDescription("List the ids and types of all stored fragments."),
	), s.listFragments)

	s.mcp.AddTool(mcp.NewTool("get_fragment",
		mcp.WithDescription("Read a fragment's content, optionally converted to another "+
			"representation. See the fragments://conversions resource for legal targets."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Fragment id")),
		mcp.WithString("format", mcp.Description("Optional target extension (e.g. html, txt, json, yaml)")),
	), s.getFragment)

	s.mcp.AddTool(mcp.NewTool("get_fragment_info",
		mcp.WithDescription("Read a fragment's metadata record (type, size, timestamps)."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Fragment id")),
	), s.getFragmentInfo)

	s.mcp.AddTool(mcp.NewTool("create_fragment",
		mcp.WithDescription("Store a new fragment. The type must be one of the supported "+
			"source media types listed in the fragments://conversions resource."),
		mcp.WithString("type", mcp.Required(), mcp.Description("Media type (e.g. text/markdown)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Fragment content")),
	), s.createFragment)

	s.mcp.AddTool(mcp.NewTool("delete_fragment",
		mcp.WithDescription("Delete a fragment and its payload."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Fragment id")),
	), s.deleteFragment)

	// Resource: the conversion matrix.
	s.mcp.AddResource(
		mcp.NewResource("fragments://conversions", "Conversion Matrix",
			mcp.WithResourceDescription("Supported source media types and the representations reachable from each."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readConversionsResource,
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

func (s *Server) listFragments(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	records, err := s.svc.List(ctx, s.ownerID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(records) == 0 {
		return mcp.NewToolResultText("no fragments stored"), nil
	}
	var lines []string
	for _, f := range records {
		lines = append(lines, fmt.Sprintf("%s\t%s\t%d bytes", f.ID, f.Type, f.Size))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getFragment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	f, data, err := s.svc.GetData(ctx, s.ownerID, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}

	format := ""
	if v, err := req.RequireString("format"); err == nil {
		format = v
	}
	if format == "" {
		if !f.IsText() {
			return mcp.NewToolResultError(fmt.Sprintf("fragment %s is binary (%s); request a text format", id, f.MimeType())), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}

	target, known := mimetype.ByExtension(format)
	if !known {
		return mcp.NewToolResultError(fmt.Sprintf("unknown format: %s", format)), nil
	}
	out, resultType, err := convert.Convert(f.Type, data, target)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !mimetype.IsText(resultType) {
		return mcp.NewToolResultError(fmt.Sprintf("%s output is binary; only text formats can be returned", resultType)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getFragmentInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	f, err := s.svc.Get(ctx, s.ownerID, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	out, _ := json.MarshalIndent(f, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createFragment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fragmentType, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	f, err := s.svc.Create(ctx, s.ownerID, fragmentType, []byte(content))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", f.ID)), nil
}

func (s *Server) deleteFragment(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.Delete(ctx, s.ownerID, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %s", id)), nil
}

func (s *Server) readConversionsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "fragments://conversions",
			MIMEType: "text/markdown",
			Text:     ConversionMatrix,
		},
	}, nil
}
