package mcpserver

import (
	"context"
	"errors"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jonwraymond/docexec/code"
	"github.com/jonwraymond/docexec/exec"
	"github.com/jonwraymond/docexec/suite"
)

// DefaultSearchLimit caps search_tools results when the request sets none.
const DefaultSearchLimit = 10

// Server wraps the MCP SDK server around an Exec facade.
type Server struct {
	MCPServer *sdkmcp.Server

	exec   *exec.Exec
	logger code.Logger
}

// New creates a server named "docexec" with its tools registered. The
// logger is optional.
func New(e *exec.Exec, version string, logger code.Logger) *Server {
	s := &Server{
		MCPServer: sdkmcp.NewServer(&sdkmcp.Implementation{Name: "docexec", Version: version}, nil),
		exec:      e,
		logger:    logger,
	}
	s.registerTools()
	return s
}

// Run serves requests over stdio until ctx is done or the client leaves.
func (s *Server) Run(ctx context.Context) error {
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "run_document",
		Description: "Run the code blocks and doctest examples of a Markdown or reStructuredText document. Returns every test outcome and failure.",
	}, s.handleRunDocument)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "search_tools",
		Description: "Search the host tools that document snippets can call through tools.run.",
	}, s.handleSearchTools)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_languages",
		Description: "List the code-block languages that are executed.",
	}, s.handleListLanguages)
}

// --- Tool input/output types ---

type runDocumentInput struct {
	Name   string `json:"name,omitempty" jsonschema:"document name used in failures (default document.md)"`
	Source string `json:"source" jsonschema:"full document text"`
}

type runDocumentOutput struct {
	Document string        `json:"document"`
	OK       bool          `json:"ok"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Outcomes []outcomeInfo `json:"outcomes"`
	Failures []failureInfo `json:"failures,omitempty"`
}

type outcomeInfo struct {
	Name    string `json:"name"`
	Line    int    `json:"line"`
	Passed  bool   `json:"passed"`
	Message string `json:"message,omitempty"`
	Stdout  string `json:"stdout,omitempty"`
}

type failureInfo struct {
	Line      int    `json:"line"`
	Extension string `json:"extension"`
	Message   string `json:"message"`
}

type searchToolsInput struct {
	Query string `json:"query" jsonschema:"search terms"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum results (default 10)"`
}

type searchToolsOutput struct {
	Tools []toolInfo `json:"tools"`
}

type toolInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Namespace   string   `json:"namespace,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type listLanguagesInput struct{}

type listLanguagesOutput struct {
	Languages []string `json:"languages"`
}

// --- Tool handlers ---

func (s *Server) handleRunDocument(ctx context.Context, _ *sdkmcp.CallToolRequest, input runDocumentInput) (*sdkmcp.CallToolResult, runDocumentOutput, error) {
	if input.Source == "" {
		return nil, runDocumentOutput{}, fmt.Errorf("source is required")
	}
	name := input.Name
	if name == "" {
		name = "document.md"
	}

	res, err := s.exec.RunSource(ctx, name, input.Source)
	var regionErr *suite.RegionError
	if err != nil && !errors.As(err, &regionErr) {
		return nil, runDocumentOutput{}, fmt.Errorf("run_document: %w", err)
	}
	if s.logger != nil {
		s.logger.Logf("run_document %s: %d passed, %d failed", name, res.Passed(), res.Failed())
	}

	out := runDocumentOutput{
		Document: res.Document,
		OK:       res.OK(),
		Passed:   res.Passed(),
		Failed:   res.Failed(),
		Outcomes: []outcomeInfo{},
	}
	for _, o := range res.Outcomes {
		out.Outcomes = append(out.Outcomes, outcomeInfo{
			Name:    o.Name,
			Line:    o.Line,
			Passed:  o.Passed,
			Message: o.Message(),
			Stdout:  o.Stdout,
		})
	}
	for _, f := range res.Failures {
		out.Failures = append(out.Failures, failureInfo{
			Line:      f.Line,
			Extension: f.Extension,
			Message:   f.Err.Error(),
		})
	}
	return nil, out, nil
}

func (s *Server) handleSearchTools(ctx context.Context, _ *sdkmcp.CallToolRequest, input searchToolsInput) (*sdkmcp.CallToolResult, searchToolsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	results, err := s.exec.SearchTools(ctx, input.Query, limit)
	if err != nil {
		return nil, searchToolsOutput{}, fmt.Errorf("search_tools: %w", err)
	}

	out := searchToolsOutput{Tools: make([]toolInfo, 0, len(results))}
	for _, r := range results {
		out.Tools = append(out.Tools, toolInfo{
			ID:          r.ID,
			Name:        r.Name,
			Namespace:   r.Namespace,
			Description: r.ShortDescription,
			Tags:        r.Tags,
		})
	}
	return nil, out, nil
}

func (s *Server) handleListLanguages(_ context.Context, _ *sdkmcp.CallToolRequest, _ listLanguagesInput) (*sdkmcp.CallToolResult, listLanguagesOutput, error) {
	return nil, listLanguagesOutput{Languages: s.exec.Languages()}, nil
}
