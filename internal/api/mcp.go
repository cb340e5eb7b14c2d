package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/subtext/internal/analysis"
	"github.com/kalambet/subtext/internal/ingest"
	"github.com/kalambet/subtext/internal/retrieval"
	"github.com/kalambet/subtext/internal/storage"
)

// MCPRetriever abstracts semantic search over the indexed document for
// the MCP layer.
type MCPRetriever interface {
	Retrieve(ctx context.Context, query string, topK int) (retrieval.Context, error)
}

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Ingestor  DocumentIngestor
	Agent     RiskAgent
	Retriever MCPRetriever
	Reports   ReportStore
}

// NewMCPServer creates an MCP server exposing document analysis tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	s := server.NewMCPServer(
		"subtext",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("subtext — reads the fine print of contracts and terms-of-service documents, flags predatory clauses, and answers questions grounded in the document text."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("analyze_document",
			mcp.WithDescription("Index a PDF document and run a full risk analysis across the clause taxonomy. Returns the analysis report as JSON."),
			mcp.WithString("path", mcp.Description("Filesystem path to the PDF document"), mcp.Required()),
		),
		mcpAnalyzeDocument(deps),
	)

	s.AddTool(
		mcp.NewTool("ask_document",
			mcp.WithDescription("Ask a question about the currently indexed document. The answer is grounded strictly in the document text."),
			mcp.WithString("question", mcp.Description("The question to ask"), mcp.Required()),
			mcp.WithString("history", mcp.Description("Optional JSON array of prior {role, text} turns for conversational continuity")),
		),
		mcpAskDocument(deps),
	)

	s.AddTool(
		mcp.NewTool("search_clauses",
			mcp.WithDescription("Semantically search the indexed document and return the most relevant clauses."),
			mcp.WithString("query", mcp.Description("Search query"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 5)")),
		),
		mcpSearchClauses(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"reports://recent",
			"Recent Reports",
			mcp.WithResourceDescription("Last 10 analysis reports (summaries only)"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecentReports(deps),
	)

	return s
}

func mcpAnalyzeDocument(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		path, err := req.RequireString("path")
		if err != nil {
			return mcpError("path is required"), nil
		}

		doc, err := ingest.ParsePDF(path)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to parse PDF: %v", err)), nil
		}

		if _, err := deps.Ingestor.Ingest(ctx, doc); err != nil {
			return mcpError(fmt.Sprintf("failed to index document: %v", err)), nil
		}

		// A zero-chunk document still yields a report with no findings.
		report := deps.Agent.AnalyzeDocument(ctx)

		b, err := json.Marshal(report)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal report: %v", err)), nil
		}

		rec := storage.ReportRecord{
			ID:           uuid.New().String(),
			Source:       doc.Source,
			Summary:      report.Summary,
			RiskScore:    report.OverallRiskScore,
			FindingCount: len(report.RedFlags),
			ReportJSON:   string(b),
			CreatedAt:    time.Now().UTC(),
		}
		if err := deps.Reports.SaveReport(rec); err != nil {
			return mcpError(fmt.Sprintf("analysis complete but failed to save report: %v", err)), nil
		}

		return mcpText(string(b)), nil
	}
}

func mcpAskDocument(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return mcpError("question is required"), nil
		}

		history, err := analysisTurnsFromJSON(req.GetString("history", ""))
		if err != nil {
			return mcpError(fmt.Sprintf("invalid history JSON: %v", err)), nil
		}

		answer := deps.Agent.Chat(ctx, question, history)
		return mcpText(answer), nil
	}
}

func mcpSearchClauses(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcpError("query is required"), nil
		}

		limit := req.GetInt("limit", 5)
		if limit <= 0 {
			limit = 5
		}
		if limit > 50 {
			limit = 50
		}

		rc, err := deps.Retriever.Retrieve(ctx, query, limit)
		if err != nil {
			return mcpError(fmt.Sprintf("search failed: %v", err)), nil
		}

		if rc.Empty() {
			return mcpText("[]"), nil
		}

		type clauseResult struct {
			Source string  `json:"source"`
			Page   int     `json:"page"`
			Text   string  `json:"text"`
			Score  float32 `json:"score"`
		}

		results := make([]clauseResult, len(rc.Chunks))
		for i, c := range rc.Chunks {
			results[i] = clauseResult{
				Source: c.Source,
				Page:   c.Page,
				Text:   c.Text,
				Score:  c.Score,
			}
		}

		b, err := json.Marshal(results)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}

		return mcpText(string(b)), nil
	}
}

func mcpResourceRecentReports(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		reports, err := deps.Reports.ListReports(10)
		if err != nil {
			return nil, fmt.Errorf("failed to list reports: %w", err)
		}

		type reportSummary struct {
			ID        string `json:"id"`
			Source    string `json:"source"`
			Summary   string `json:"summary"`
			RiskScore int    `json:"risk_score"`
			CreatedAt string `json:"created_at"`
		}

		summaries := make([]reportSummary, len(reports))
		for i, r := range reports {
			summary := r.Summary
			if utf8.RuneCountInString(summary) > 200 {
				runes := []rune(summary)
				summary = string(runes[:200]) + "..."
			}
			summaries[i] = reportSummary{
				ID:        r.ID,
				Source:    r.Source,
				Summary:   summary,
				RiskScore: r.RiskScore,
				CreatedAt: r.CreatedAt.Format(time.RFC3339),
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal reports: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

// analysisTurnsFromJSON parses a chat history payload for clients that
// pass prior turns as a JSON string.
func analysisTurnsFromJSON(raw string) ([]analysis.Turn, error) {
	if raw == "" {
		return nil, nil
	}
	var turns []analysis.Turn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		return nil, err
	}
	return turns, nil
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
