package api

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kalambet/reframe/internal/journal"
	"github.com/kalambet/reframe/internal/storage"
	"github.com/kalambet/reframe/internal/suggest"
)

func newTestMCPDeps(t *testing.T) (MCPDeps, *storage.Store, *fakeSuggester) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	sug := &fakeSuggester{
		items:   []string{"I always mess things up", "They must be annoyed with me"},
		insight: suggest.Insight{Summary: "You noticed the trigger.", Pointers: []string{"Name the feeling"}},
	}
	return MCPDeps{
		Records:      store,
		Suggester:    sug,
		Journal:      journal.NewService(store, &fakeText{}),
		DefaultOwner: "demo-user",
	}, store, sug
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func makeReadResourceRequest(uri string) mcp.ReadResourceRequest {
	return mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestMCPTool_SuggestField(t *testing.T) {
	deps, _, _ := newTestMCPDeps(t)
	handler := mcpSuggestField(deps)

	result, err := handler(context.Background(), makeCallToolRequest("suggest_field", map[string]any{
		"field":   "ants",
		"context": "Situation: Missed the bus",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	var items []string
	if err := json.Unmarshal([]byte(toolText(t, result)), &items); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(items))
	}
}

func TestMCPTool_SuggestField_MissingField(t *testing.T) {
	deps, _, _ := newTestMCPDeps(t)

	result, err := mcpSuggestField(deps)(context.Background(), makeCallToolRequest("suggest_field", map[string]any{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error without field")
	}
}

func TestMCPTool_SuggestField_AIError(t *testing.T) {
	deps, _, sug := newTestMCPDeps(t)
	sug.err = errors.New("upstream down")

	result, err := mcpSuggestField(deps)(context.Background(), makeCallToolRequest("suggest_field", map[string]any{
		"field": "ants",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if !strings.Contains(toolText(t, result), "upstream down") {
		t.Fatalf("unexpected message: %s", toolText(t, result))
	}
}

func TestMCPTool_InsightPanel(t *testing.T) {
	deps, _, _ := newTestMCPDeps(t)
	handler := mcpInsightPanel(deps)

	result, err := handler(context.Background(), makeCallToolRequest("insight_panel", map[string]any{
		"step":    2,
		"context": "Situation: Missed the bus",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}
	var in suggest.Insight
	if err := json.Unmarshal([]byte(toolText(t, result)), &in); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if in.Summary != "You noticed the trigger." {
		t.Fatalf("unexpected insight: %+v", in)
	}

	result, _ = handler(context.Background(), makeCallToolRequest("insight_panel", map[string]any{"step": 0}))
	if !result.IsError {
		t.Fatal("expected error for step 0")
	}
}

func TestMCPTool_AnalyzeThought(t *testing.T) {
	deps, _, sug := newTestMCPDeps(t)

	result, err := mcpAnalyzeThought(deps)(context.Background(), makeCallToolRequest("analyze_thought", map[string]any{
		"kind": "distortions",
		"ants": "I always fail",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}
	if sug.lastKind != suggest.AnalysisKind("distortions") {
		t.Fatalf("kind = %q", sug.lastKind)
	}
}

func TestMCPTool_ListThoughtRecords(t *testing.T) {
	deps, store, _ := newTestMCPDeps(t)
	handler := mcpListThoughtRecords(deps)

	result, _ := handler(context.Background(), makeCallToolRequest("list_thought_records", map[string]any{}))
	if text := toolText(t, result); text != "[]" {
		t.Fatalf("expected empty array, got: %s", text)
	}

	for _, id := range []string{"r1", "r2", "r3"} {
		if _, err := store.InsertThoughtRecord(storage.ThoughtRecord{ID: id, OwnerID: "demo-user", Situation: id}); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}

	result, err := handler(context.Background(), makeCallToolRequest("list_thought_records", map[string]any{
		"limit": 2,
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var records []storage.ThoughtRecord
	if err := json.Unmarshal([]byte(toolText(t, result)), &records); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
}

func TestMCPTool_AddJournalEntry(t *testing.T) {
	deps, store, _ := newTestMCPDeps(t)
	handler := mcpAddJournalEntry(deps)

	result, err := handler(context.Background(), makeCallToolRequest("add_journal_entry", map[string]any{
		"content": "Presented at standup and nobody laughed.",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	entries, err := store.ListJournalEntries("demo-user", "", 10)
	if err != nil {
		t.Fatalf("listing entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Type != journal.TypeJournal || !entries[0].Private {
		t.Errorf("entry = %+v, want a private journal entry", entries[0])
	}
	if entries[0].Source != journal.SourceMCP {
		t.Fatalf("expected source 'mcp', got %s", entries[0].Source)
	}
	if !strings.Contains(toolText(t, result), entries[0].ID) {
		t.Fatalf("response does not name the entry: %s", toolText(t, result))
	}

	result, _ = handler(context.Background(), makeCallToolRequest("add_journal_entry", map[string]any{
		"content": "   ",
	}))
	if !result.IsError {
		t.Fatal("expected error for blank content")
	}
}

func TestMCPTool_AddJournalEntry_Details(t *testing.T) {
	deps, store, _ := newTestMCPDeps(t)
	handler := mcpAddJournalEntry(deps)

	result, err := handler(context.Background(), makeCallToolRequest("add_journal_entry", map[string]any{
		"content":  "A friend who listens",
		"type":     "gratitude",
		"mood":     "Content",
		"category": "people",
		"tags":     "friends, ,support",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error: %s", toolText(t, result))
	}

	entries, err := store.ListJournalEntries("demo-user", journal.TypeGratitude, 10)
	if err != nil {
		t.Fatalf("listing entries: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 gratitude entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Mood != "content" || e.Category != "people" {
		t.Errorf("entry = %+v", e)
	}
	if strings.Join(e.Tags, ",") != "friends,support" {
		t.Errorf("tags = %v", e.Tags)
	}

	result, _ = handler(context.Background(), makeCallToolRequest("add_journal_entry", map[string]any{
		"content": "x",
		"type":    "dream",
	}))
	if !result.IsError {
		t.Fatal("expected error for unknown type")
	}
}

func TestMCPResource_RecentRecords(t *testing.T) {
	deps, store, _ := newTestMCPDeps(t)
	store.InsertThoughtRecord(storage.ThoughtRecord{
		ID:          "r1",
		OwnerID:     "demo-user",
		Situation:   strings.Repeat("a", 300),
		Distortions: []string{"Labeling"},
	})

	contents, err := mcpResourceRecent(deps)(context.Background(), makeReadResourceRequest("records://recent"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}

	var summaries []map[string]any
	if err := json.Unmarshal([]byte(tc.Text), &summaries); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	if sit := summaries[0]["situation"].(string); len(sit) != 203 {
		t.Fatalf("situation not truncated: len %d", len(sit))
	}
}

func TestMCPResource_Fields(t *testing.T) {
	contents, err := mcpResourceFields(context.Background(), makeReadResourceRequest("records://fields"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tc := contents[0].(mcp.TextResourceContents)
	var body fieldsResponse
	if err := json.Unmarshal([]byte(tc.Text), &body); err != nil {
		t.Fatalf("failed to parse JSON: %v", err)
	}
	if len(body.Fields) == 0 || len(body.Distortions) == 0 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestMCPServer_ConcurrentCalls(t *testing.T) {
	deps, _, _ := newTestMCPDeps(t)

	addHandler := mcpAddJournalEntry(deps)
	suggestHandler := mcpSuggestField(deps)

	var wg sync.WaitGroup
	errs := make(chan error, 20)

	for range 5 {
		wg.Go(func() {
			_, err := addHandler(context.Background(), makeCallToolRequest("add_journal_entry", map[string]any{
				"content": "concurrent content",
			}))
			if err != nil {
				errs <- err
			}
		})
		wg.Go(func() {
			_, err := suggestHandler(context.Background(), makeCallToolRequest("suggest_field", map[string]any{
				"field": "ants",
			}))
			if err != nil {
				errs <- err
			}
		})
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent call failed: %v", err)
	}
}

func TestNewMCPServer(t *testing.T) {
	deps, _, _ := newTestMCPDeps(t)
	if s := NewMCPServer(deps); s == nil {
		t.Fatal("NewMCPServer returned nil")
	}
}
