package mcpserver

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/CodexFabrica/Feder/internal/session"
	"github.com/CodexFabrica/Feder/internal/storage"
	"github.com/CodexFabrica/Feder/internal/testutil"
)

func testServer(t *testing.T) (*Server, *session.Session) {
	t.Helper()

	parent, err := storage.OpenDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	rec := testutil.Recents(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sess := session.New(rec, &testutil.StubPicker{Dir: parent}, logger)
	t.Cleanup(sess.Close)

	return New(sess, rec), sess
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so we invoke the
	// handler functions directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_recent_projects":
		result, err = srv.listRecentProjects(ctx, req)
	case "open_project":
		result, err = srv.openProject(ctx, req)
	case "get_document":
		result, err = srv.getDocument(ctx, req)
	case "set_document_content":
		result, err = srv.setDocumentContent(ctx, req)
	case "save_document":
		result, err = srv.saveDocument(ctx, req)
	case "export_latex":
		result, err = srv.exportLatex(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func openFixtureProject(t *testing.T, sess *session.Session) string {
	t.Helper()
	snap, err := sess.NewProject(context.Background(), "MCP Fixture", "researcher", "")
	if err != nil {
		t.Fatal(err)
	}
	return snap.Project.Ref
}

func TestOpenProjectAndGetDocument(t *testing.T) {
	srv, sess := testServer(t)
	ref := openFixtureProject(t, sess)
	sess.NewDocument()

	r := callTool(t, srv, "open_project", map[string]interface{}{"ref": ref})
	if r.IsError {
		t.Fatalf("open_project: %s", resultText(r))
	}

	r = callTool(t, srv, "get_document", map[string]interface{}{})
	text := resultText(r)
	if !strings.Contains(text, "main.md") || !strings.Contains(text, "Start writing...") {
		t.Errorf("document = %s", text)
	}
}

func TestSetContentChecksumGuard(t *testing.T) {
	srv, sess := testServer(t)
	openFixtureProject(t, sess)

	r := callTool(t, srv, "set_document_content", map[string]interface{}{
		"content":  "New body",
		"checksum": "stale",
	})
	if !r.IsError {
		t.Error("stale checksum accepted")
	}

	sum := sess.Snapshot().Document.Checksum
	r = callTool(t, srv, "set_document_content", map[string]interface{}{
		"content":  "New body",
		"checksum": sum,
	})
	if r.IsError {
		t.Fatalf("set_document_content: %s", resultText(r))
	}
	if got := sess.Snapshot().Document.Content; got != "New body" {
		t.Errorf("content = %q", got)
	}
}

func TestSaveDocumentPersists(t *testing.T) {
	srv, sess := testServer(t)
	ref := openFixtureProject(t, sess)

	callTool(t, srv, "set_document_content", map[string]interface{}{"content": "Persisted."})
	r := callTool(t, srv, "save_document", map[string]interface{}{})
	if r.IsError {
		t.Fatalf("save_document: %s", resultText(r))
	}

	data, err := os.ReadFile(filepath.Join(ref, "main.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "Persisted." {
		t.Errorf("on disk = %q", data)
	}
}

func TestExportLatex(t *testing.T) {
	srv, sess := testServer(t)
	ref := openFixtureProject(t, sess)

	r := callTool(t, srv, "export_latex", map[string]interface{}{})
	if r.IsError {
		t.Fatalf("export_latex: %s", resultText(r))
	}
	if _, err := os.Stat(filepath.Join(ref, "main.tex")); err != nil {
		t.Errorf("export file: %v", err)
	}
}

func TestListRecentProjects(t *testing.T) {
	srv, sess := testServer(t)
	openFixtureProject(t, sess)

	r := callTool(t, srv, "list_recent_projects", map[string]interface{}{})
	if !strings.Contains(resultText(r), "MCP Fixture") {
		t.Errorf("recents = %s", resultText(r))
	}
}

func TestOpenProjectMissingRef(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "open_project", map[string]interface{}{})
	if !r.IsError {
		t.Error("missing ref accepted")
	}
}
