// Package mcpserver exposes the edit pipeline as MCP tools over stdio, so an
// external agent can gather context, parse a reply, preview it and apply it.
package mcpserver

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/Protocol-Lattice/lattice-edit/src/apply"
	"github.com/Protocol-Lattice/lattice-edit/src/preview"
	"github.com/Protocol-Lattice/lattice-edit/src/reply"
	"github.com/Protocol-Lattice/lattice-edit/src/workspace"
)

const (
	toolCollectContext = "collect_context"
	toolParseReply     = "parse_reply"
	toolPreviewEdit    = "preview_edit"
	toolApplyEdit      = "apply_edit"
)

type Server struct {
	Collector *workspace.Collector
	Writer    *apply.Writer
	Log       logrus.FieldLogger
}

func New(collector *workspace.Collector, writer *apply.Writer, log logrus.FieldLogger) *Server {
	return &Server{Collector: collector, Writer: writer, Log: log}
}

// Build creates the MCP server with every tool registered.
func (s *Server) Build(version string) *server.MCPServer {
	srv := server.NewMCPServer(
		"Lattice Edit MCP Server",
		version,
		server.WithToolCapabilities(true),
	)
	s.registerTools(srv)
	return srv
}

func (s *Server) ServeStdio(version string) error {
	return server.ServeStdio(s.Build(version))
}

var replyProperty = map[string]interface{}{
	"type":        "string",
	"description": "Model reply containing an ARCHIVO: line and a fenced code block",
}

func (s *Server) registerTools(srv *server.MCPServer) {
	srv.AddTool(mcp.Tool{
		Name:        toolCollectContext,
		Description: "Concatenate every non-ignored text file of the project with INICIO/FIN markers",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"tree_only": map[string]interface{}{
					"type":        "boolean",
					"description": "Return only the file listing and summary",
					"default":     false,
				},
			},
		},
	}, s.handleCollectContext)

	srv.AddTool(mcp.Tool{
		Name:        toolParseReply,
		Description: "Extract the target path and the first code block from a model reply",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"reply": replyProperty},
			Required:   []string{"reply"},
		},
	}, s.handleParseReply)

	srv.AddTool(mcp.Tool{
		Name:        toolPreviewEdit,
		Description: "Show a truncated old/new listing for the edit contained in a model reply",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"reply": replyProperty},
			Required:   []string{"reply"},
		},
	}, s.handlePreviewEdit)

	srv.AddTool(mcp.Tool{
		Name:        toolApplyEdit,
		Description: "Write the code block of a model reply to its ARCHIVO: path inside the project",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"reply": replyProperty},
			Required:   []string{"reply"},
		},
	}, s.handleApplyEdit)
}

func (s *Server) handleCollectContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := s.Collector.Collect(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to collect context: %v", err)), nil
	}
	if request.GetBool("tree_only", false) {
		return mcp.NewToolResultText(snap.Tree() + "\n\n" + snap.Summary()), nil
	}
	return mcp.NewToolResultText(snap.Text), nil
}

func (s *Server) handleParseReply(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	edit, err := reply.Parse(request.GetString("reply", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse reply: %v", err)), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "path: %s\n", edit.FilePath)
	if edit.Lang != "" {
		fmt.Fprintf(&b, "lang: %s\n", edit.Lang)
	}
	fmt.Fprintf(&b, "lines: %d\n\n", strings.Count(edit.CodeBlock, "\n")+1)
	b.WriteString(edit.CodeBlock)
	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handlePreviewEdit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	edit, err := reply.Parse(request.GetString("reply", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse reply: %v", err)), nil
	}
	old, err := s.Writer.Current(edit.FilePath)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to read target: %v", err)), nil
	}
	var buf bytes.Buffer
	preview.New(&buf).Render(edit.FilePath, old, []byte(edit.CodeBlock))
	return mcp.NewToolResultText(buf.String()), nil
}

func (s *Server) handleApplyEdit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	edit, err := reply.Parse(request.GetString("reply", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to parse reply: %v", err)), nil
	}
	abs, err := s.Writer.Write(edit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to write file: %v", err)), nil
	}
	s.Log.WithField("path", edit.FilePath).Info("edit applied over MCP")
	return mcp.NewToolResultText(fmt.Sprintf("Successfully wrote to %s", abs)), nil
}
