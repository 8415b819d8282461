package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/promptr/internal/placeholder"
	"github.com/mark3labs/promptr/internal/resolver"
)

// registerTools registers the resolve-prompt and scan-placeholders tools.
func (s *Server) registerTools() error {
	s.mcpServer.AddTool(
		mcp.NewTool("resolve-prompt",
			mcp.WithDescription("Resolve a prompt template version into final text, expanding assets, variables and nested prompt references"),
			mcp.WithString("prompt", mcp.Required(),
				mcp.Description("Prompt name or slug"),
			),
			mcp.WithString("project",
				mcp.Description("Project id (defaults to the server's project)"),
			),
			mcp.WithString("version",
				mcp.Description("Version tag, or 'latest' (default)"),
			),
			mcp.WithString("language",
				mcp.Description("Language code such as fr-FR; base text is used when omitted"),
			),
			mcp.WithObject("variables",
				mcp.Description("Values substituted for {{variable:name}} placeholders"),
			),
		),
		s.handleResolve,
	)

	s.mcpServer.AddTool(
		mcp.NewTool("scan-placeholders",
			mcp.WithDescription("List the placeholders found in a template text and report malformed ones"),
			mcp.WithString("text", mcp.Required(),
				mcp.Description("Template text to scan"),
			),
		),
		s.handleScan,
	)

	return nil
}

// handleResolve runs one resolution and returns the result as JSON.
func (s *Server) handleResolve(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	if args == nil {
		return mcp.NewToolResultError("no arguments provided"), nil
	}

	req := resolver.Request{
		ProjectID: s.opts.Project,
		Language:  s.opts.Language,
	}
	var ok bool
	if req.Prompt, ok = args["prompt"].(string); !ok || strings.TrimSpace(req.Prompt) == "" {
		return mcp.NewToolResultError("missing or invalid 'prompt' parameter"), nil
	}
	for name, dst := range map[string]*string{
		"project":  &req.ProjectID,
		"version":  &req.Version,
		"language": &req.Language,
	} {
		v, present := args[name]
		if !present || v == nil {
			continue
		}
		str, isStr := v.(string)
		if !isStr {
			return mcp.NewToolResultError(fmt.Sprintf("'%s' must be a string", name)), nil
		}
		if str != "" {
			*dst = str
		}
	}
	if v, present := args["variables"]; present && v != nil {
		vars, isObj := v.(map[string]any)
		if !isObj {
			return mcp.NewToolResultError("'variables' must be an object"), nil
		}
		req.Variables = vars
	}

	start := time.Now()
	res, err := s.engine.Execute(ctx, req)
	if s.opts.Metrics != nil {
		s.opts.Metrics.ObserveResolution(res, err, time.Since(start))
	}
	if err != nil {
		return mcp.NewToolResultError(formatError(err)), nil
	}

	output, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(output)), nil
}

// formatError renders an engine error with its status code and hints.
func formatError(err error) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d: %v", resolver.StatusCode(err), err)
	for _, hint := range resolver.Hints(err) {
		fmt.Fprintf(&b, "\nhint: %s", hint)
	}
	return b.String()
}

type scannedPlaceholder struct {
	Kind    placeholder.Kind `json:"kind"`
	Literal string           `json:"literal"`
	Offset  int              `json:"offset"`
}

type lintIssue struct {
	Kind    placeholder.Kind `json:"kind"`
	Literal string           `json:"literal,omitempty"`
	Offset  int              `json:"offset"`
	Reason  string           `json:"reason"`
}

type scanReport struct {
	Placeholders []scannedPlaceholder `json:"placeholders"`
	Issues       []lintIssue          `json:"issues"`
}

// handleScan reports the well-formed and malformed placeholders of a text.
func (s *Server) handleScan(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	if args == nil {
		return mcp.NewToolResultError("no arguments provided"), nil
	}
	text, ok := args["text"].(string)
	if !ok {
		return mcp.NewToolResultError("missing or invalid 'text' parameter"), nil
	}

	report := scanReport{
		Placeholders: []scannedPlaceholder{},
		Issues:       []lintIssue{},
	}
	for _, p := range placeholder.Scan(text) {
		report.Placeholders = append(report.Placeholders, scannedPlaceholder{
			Kind:    p.Kind(),
			Literal: p.Literal,
			Offset:  p.Offset,
		})
	}
	for _, issue := range placeholder.Lint(text) {
		report.Issues = append(report.Issues, lintIssue(issue))
	}

	output, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal report: %v", err)), nil
	}
	return mcp.NewToolResultText(string(output)), nil
}
