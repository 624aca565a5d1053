// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the document session to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/CodexFabrica/Feder/internal/recents"
	"github.com/CodexFabrica/Feder/internal/session"
)

// Server wraps the MCP server with session tools.
type Server struct {
	mcp  *server.MCPServer
	sess *session.Session
	rec  *recents.DB
}

// New creates a new MCP server with all session tools registered.
func New(sess *session.Session, rec *recents.DB) *Server {
	s := &Server{sess: sess, rec: rec}

	s.mcp = server.NewMCPServer(
		"Feder",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_recent_projects",
		mcp.WithDescription("List recently opened projects, most recent first."),
	), s.listRecentProjects)

	s.mcp.AddTool(mcp.NewTool("open_project",
		mcp.WithDescription("Open a project directory and load its first document into the session."),
		mcp.WithString("ref", mcp.Required(), mcp.Description("Absolute path of the project directory")),
	), s.openProject)

	s.mcp.AddTool(mcp.NewTool("get_document",
		mcp.WithDescription("Read the currently open document: content, metadata, and checksum."),
	), s.getDocument)

	s.mcp.AddTool(mcp.NewTool("set_document_content",
		mcp.WithDescription("Replace the body of the open document in memory. "+
			"Pass the checksum from get_document to guard against concurrent edits. "+
			"Content MUST follow the document format; read the feder://document-format "+
			"resource first. Call save_document to persist."),
		mcp.WithString("content", mcp.Required(), mcp.Description("New Markdown body (no frontmatter block)")),
		mcp.WithString("checksum", mcp.Description("Checksum of the document this edit is based on")),
	), s.setDocumentContent)

	s.mcp.AddTool(mcp.NewTool("save_document",
		mcp.WithDescription("Persist the open document and the project metadata to storage."),
	), s.saveDocument)

	s.mcp.AddTool(mcp.NewTool("export_latex",
		mcp.WithDescription("Export the open document as a LaTeX file next to it in the project."),
	), s.exportLatex)

	// Resource: document format contract.
	s.mcp.AddResource(
		mcp.NewResource("feder://document-format", "Document Format Contract",
			mcp.WithResourceDescription("Canonical document format: frontmatter keys and body conventions."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDocumentFormatResource,
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

func (s *Server) listRecentProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.rec.List()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(list) == 0 {
		return mcp.NewToolResultText("no recent projects"), nil
	}
	out, _ := json.MarshalIndent(list, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) openProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("ref")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	snap, err := s.sess.OpenProject(ctx, ref)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("open project: %v", err)), nil
	}
	out, _ := json.MarshalIndent(snap, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap := s.sess.Snapshot()
	out, _ := json.MarshalIndent(snap.Document, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) setDocumentContent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	checksum := ""
	if c, cerr := req.RequireString("checksum"); cerr == nil {
		checksum = c
	}
	snap, err := s.sess.UpdateDocument(&content, nil, checksum)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("update document: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated, new checksum: %s", snap.Document.Checksum)), nil
}

func (s *Server) saveDocument(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := s.sess.Save(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save: %v", err)), nil
	}
	if snap.Document.Ref == "" {
		return mcp.NewToolResultText("nothing saved (no open document)"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("saved: %s", snap.Document.Ref)), nil
}

func (s *Server) exportLatex(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := s.sess.Export(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("export: %v", err)), nil
	}
	if ref == "" {
		return mcp.NewToolResultText("export skipped (no destination)"), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("exported: %s", ref)), nil
}

func (s *Server) readDocumentFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "feder://document-format",
			MIMEType: "text/markdown",
			Text:     DocumentFormatContract,
		},
	}, nil
}
