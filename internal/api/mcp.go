package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kalambet/reframe/internal/journal"
	"github.com/kalambet/reframe/internal/suggest"
	"github.com/kalambet/reframe/internal/thought"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Records      RecordLister
	Suggester    Suggester
	Journal      *journal.Service
	DefaultOwner string
}

// NewMCPServer creates an MCP server with the thought-record tools and
// resources registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	if deps.DefaultOwner == "" {
		deps.DefaultOwner = "demo-user"
	}

	s := server.NewMCPServer(
		"reframe",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("reframe: CBT thought records, field suggestions and journal reflections."),
		server.WithRecovery(),
	)

	// Tools
	s.AddTool(
		mcp.NewTool("suggest_field",
			mcp.WithDescription("Suggest 2-3 candidate answers for one thought-record field, given the answers so far."),
			mcp.WithString("field", mcp.Description("Field key: ants, behaviors, distortions, evidenceAgainst, friendsAdvice or balancedThought"), mcp.Required()),
			mcp.WithString("context", mcp.Description("Earlier answers as \"Label: value\" lines")),
		),
		mcpSuggestField(deps),
	)

	s.AddTool(
		mcp.NewTool("insight_panel",
			mcp.WithDescription("Summarize progress through a thought record with pointers, or a conclusion at the review step."),
			mcp.WithNumber("step", mcp.Description(fmt.Sprintf("Wizard step, 1-%d; %d is the review step", thought.N, thought.N)), mcp.Required()),
			mcp.WithString("context", mcp.Description("Answers so far as \"Label: value\" lines")),
		),
		mcpInsightPanel(deps),
	)

	s.AddTool(
		mcp.NewTool("analyze_thought",
			mcp.WithDescription("Identify distortions in, challenge, or rebalance an automatic negative thought."),
			mcp.WithString("kind", mcp.Description("distortions, challenge or balanced"), mcp.Required()),
			mcp.WithString("ants", mcp.Description("The automatic negative thoughts"), mcp.Required()),
			mcp.WithString("distortions", mcp.Description("Comma-separated distortions, for balanced")),
			mcp.WithString("evidence_against", mcp.Description("Evidence against the thought, for balanced")),
		),
		mcpAnalyzeThought(deps),
	)

	s.AddTool(
		mcp.NewTool("list_thought_records",
			mcp.WithDescription("List submitted thought records, newest first."),
			mcp.WithString("owner_id", mcp.Description("Owner (default: the configured default owner)")),
			mcp.WithNumber("limit", mcp.Description("Maximum number of records (default 10)")),
		),
		mcpListThoughtRecords(deps),
	)

	s.AddTool(
		mcp.NewTool("add_journal_entry",
			mcp.WithDescription("Store a journal entry. A reflection is generated in the background."),
			mcp.WithString("title", mcp.Description("Title; derived from the first line when empty")),
			mcp.WithString("content", mcp.Description("Entry text"), mcp.Required()),
			mcp.WithString("type",
				mcp.Description("Entry type (default journal)"),
				mcp.Enum(journal.TypeJournal, journal.TypeGratitude, journal.TypeStrength),
			),
			mcp.WithString("mood", mcp.Description("Mood: happy, content, neutral, sad or very-sad")),
			mcp.WithString("category", mcp.Description("Category, for gratitude and strength entries")),
			mcp.WithString("tags", mcp.Description("Comma-separated tags")),
			mcp.WithString("owner_id", mcp.Description("Owner (default: the configured default owner)")),
		),
		mcpAddJournalEntry(deps),
	)

	// Resources
	s.AddResource(
		mcp.NewResource(
			"records://recent",
			"Recent Thought Records",
			mcp.WithResourceDescription("Last 10 thought records of the default owner"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceRecent(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"records://fields",
			"Thought Record Fields",
			mcp.WithResourceDescription("Field definitions and the distortion vocabulary"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceFields,
	)

	return s
}

func mcpSuggestField(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		field, err := req.RequireString("field")
		if err != nil {
			return mcpError("field is required"), nil
		}
		items, err := deps.Suggester.FieldSuggestions(ctx, field, req.GetString("context", ""))
		if err != nil {
			return mcpError(fmt.Sprintf("suggestion failed: %v", err)), nil
		}
		return mcpJSON(items)
	}
}

func mcpInsightPanel(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		step, err := req.RequireInt("step")
		if err != nil {
			return mcpError("step is required"), nil
		}
		if step < 1 || step > thought.N {
			return mcpError(fmt.Sprintf("step must be between 1 and %d", thought.N)), nil
		}
		in, err := deps.Suggester.InsightPanel(ctx, step, req.GetString("context", ""))
		if err != nil {
			return mcpError(fmt.Sprintf("insight failed: %v", err)), nil
		}
		return mcpJSON(in)
	}
}

func mcpAnalyzeThought(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		kind, err := req.RequireString("kind")
		if err != nil {
			return mcpError("kind is required"), nil
		}
		ants, err := req.RequireString("ants")
		if err != nil {
			return mcpError("ants is required"), nil
		}
		items, err := deps.Suggester.Analyze(ctx, suggest.AnalysisKind(kind), suggest.AnalysisInput{
			ANTs:            ants,
			Distortions:     req.GetString("distortions", ""),
			EvidenceAgainst: req.GetString("evidence_against", ""),
		})
		if err != nil {
			return mcpError(fmt.Sprintf("analysis failed: %v", err)), nil
		}
		return mcpJSON(items)
	}
}

func mcpListThoughtRecords(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		owner := req.GetString("owner_id", deps.DefaultOwner)
		limit := req.GetInt("limit", 10)
		if limit <= 0 {
			limit = 10
		}
		if limit > 100 {
			limit = 100
		}

		records, err := deps.Records.ListThoughtRecords(owner, limit)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to list records: %v", err)), nil
		}
		if len(records) == 0 {
			return mcpText("[]"), nil
		}
		return mcpJSON(records)
	}
}

func mcpAddJournalEntry(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content, err := req.RequireString("content")
		if err != nil {
			return mcpError("content is required"), nil
		}
		owner := req.GetString("owner_id", deps.DefaultOwner)

		var tags []string
		for t := range strings.SplitSeq(req.GetString("tags", ""), ",") {
			tags = append(tags, t)
		}
		e, err := deps.Journal.Add(journal.NewEntry{
			OwnerID:  owner,
			Type:     req.GetString("type", ""),
			Title:    req.GetString("title", ""),
			Content:  content,
			Mood:     req.GetString("mood", ""),
			Category: req.GetString("category", ""),
			Tags:     tags,
			Private:  true,
			Source:   journal.SourceMCP,
		})
		if err != nil && e.ID == "" {
			return mcpError(fmt.Sprintf("failed to save: %v", err)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("saved entry %s but failed to queue reflection: %v", e.ID, err)), nil
		}
		return mcpText(fmt.Sprintf("Stored journal entry %s", e.ID)), nil
	}
}

func mcpResourceRecent(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		records, err := deps.Records.ListThoughtRecords(deps.DefaultOwner, 10)
		if err != nil {
			return nil, fmt.Errorf("failed to list records: %w", err)
		}

		type recordSummary struct {
			ID              string   `json:"id"`
			CreatedAt       string   `json:"created_at"`
			Situation       string   `json:"situation"`
			Distortions     []string `json:"distortions"`
			BalancedThought string   `json:"balanced_thought"`
		}

		summaries := make([]recordSummary, len(records))
		for i, r := range records {
			distortions := r.Distortions
			if distortions == nil {
				distortions = []string{}
			}
			summaries[i] = recordSummary{
				ID:              r.ID,
				CreatedAt:       r.CreatedAt.Format(time.RFC3339),
				Situation:       truncate(r.Situation, 200),
				Distortions:     distortions,
				BalancedThought: truncate(r.BalancedThought, 200),
			}
		}

		b, err := json.Marshal(summaries)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal records: %w", err)
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

func mcpResourceFields(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	b, err := json.Marshal(fieldsResponse{
		Fields:      thought.Fields(),
		Distortions: thought.DistortionVocabulary(),
		Emotions:    thought.EmotionVocabulary(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fields: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(b),
		},
	}, nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n])) + "..."
}

func mcpJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcpText(string(b)), nil
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
