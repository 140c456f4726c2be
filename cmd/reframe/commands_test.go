package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/reframe/internal/api"
	"github.com/kalambet/reframe/internal/journal"
	"github.com/kalambet/reframe/internal/storage"
	"github.com/kalambet/reframe/internal/suggest"
	"github.com/kalambet/reframe/internal/thought"
	"github.com/kalambet/reframe/internal/wizard"
)

type stubSuggester struct {
	insightCalls atomic.Int32
}

func (s *stubSuggester) FieldSuggestions(ctx context.Context, key, recordContext string) ([]string, error) {
	if key == thought.Distortions {
		return []string{"Labeling", "Mind Reading"}, nil
	}
	return []string{"first idea for " + key, "second idea for " + key}, nil
}

func (s *stubSuggester) InsightPanel(ctx context.Context, step int, recordContext string) (suggest.Insight, error) {
	s.insightCalls.Add(1)
	if step == thought.N {
		return suggest.Insight{Conclusion: "You found a kinder way to see it."}, nil
	}
	return suggest.Insight{Summary: "Progress so far", Pointers: []string{"Keep going"}}, nil
}

func (s *stubSuggester) Analyze(ctx context.Context, kind suggest.AnalysisKind, in suggest.AnalysisInput) ([]string, error) {
	return []string{"analysis for " + string(kind)}, nil
}

type nopText struct{}

func (nopText) Text(context.Context, string, string) (string, error) { return "", nil }
func (nopText) Configured() bool                                     { return false }

type liveServer struct {
	client   *apiClient
	store    *storage.Store
	sessions *wizard.Registry
	sug      *stubSuggester
}

func newLiveServer(t *testing.T) *liveServer {
	t.Helper()
	pollInterval = 5 * time.Millisecond

	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	sug := &stubSuggester{}
	sessions := wizard.NewRegistry(wizard.Deps{Store: store, Suggester: sug}, 0)
	t.Cleanup(sessions.Close)

	srv := httptest.NewServer(api.NewAppHandler(api.AppDeps{
		Sessions:     sessions,
		Records:      store,
		Suggester:    sug,
		Journal:      journal.NewService(store, nopText{}),
		Token:        "test-token",
		DefaultOwner: "demo-user",
	}))
	t.Cleanup(srv.Close)

	return &liveServer{
		client:   &apiClient{baseURL: srv.URL, token: "test-token", httpClient: srv.Client()},
		store:    store,
		sessions: sessions,
		sug:      sug,
	}
}

var ctx = context.Background()

func TestRunWizard_SubmitsRecord(t *testing.T) {
	ls := newLiveServer(t)
	noColor = true

	input := strings.Join([]string{
		"Missed the bus",
		"1",
		"Stayed home and sulked",
		"Labeling, 2",
		"",
		"Everyone is late sometimes",
		"Buses run every ten minutes",
	}, "\n") + "\n"
	var out bytes.Buffer

	if err := runWizard(ctx, ls.client, strings.NewReader(input), &out, ""); err != nil {
		t.Fatalf("runWizard: %v", err)
	}

	records, err := ls.store.ListThoughtRecords("demo-user", 10)
	if err != nil {
		t.Fatalf("listing records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.Situation != "Missed the bus" {
		t.Errorf("situation = %q", r.Situation)
	}
	if r.ANTs != "first idea for ants" {
		t.Errorf("ants = %q, want the first suggestion", r.ANTs)
	}
	if strings.Join(r.Distortions, ",") != "Labeling,Mind Reading" {
		t.Errorf("distortions = %v", r.Distortions)
	}
	if r.EvidenceAgainst != "" {
		t.Errorf("evidence = %q, want empty", r.EvidenceAgainst)
	}
	if r.BalancedThought != "Buses run every ten minutes" {
		t.Errorf("balanced = %q", r.BalancedThought)
	}

	got := out.String()
	if !strings.Contains(got, "Step 1/7: Situation") {
		t.Errorf("output missing first step header:\n%s", got)
	}
	if !strings.Contains(got, "You found a kinder way to see it.") {
		t.Errorf("output missing conclusion:\n%s", got)
	}
	if ls.sessions.Len() != 0 {
		t.Errorf("session not removed after wizard, %d left", ls.sessions.Len())
	}
}

func TestRunWizard_BackAndQuit(t *testing.T) {
	ls := newLiveServer(t)
	noColor = true

	input := "first try\n:back\n:quit\n"
	var out bytes.Buffer

	err := runWizard(ctx, ls.client, strings.NewReader(input), &out, "alex")
	if !errors.Is(err, errQuit) {
		t.Fatalf("err = %v, want errQuit", err)
	}
	if n := strings.Count(out.String(), "Step 1/7"); n != 2 {
		t.Errorf("step 1 shown %d times, want 2:\n%s", n, out.String())
	}
	records, _ := ls.store.ListThoughtRecords("alex", 10)
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}

func TestRunWizard_EOFAbandons(t *testing.T) {
	ls := newLiveServer(t)
	noColor = true

	err := runWizard(ctx, ls.client, strings.NewReader(""), &bytes.Buffer{}, "")
	if !errors.Is(err, errQuit) {
		t.Fatalf("err = %v, want errQuit", err)
	}
}

func TestFetchSuggestions(t *testing.T) {
	ls := newLiveServer(t)

	items, in, err := fetchSuggestions(ctx, ls.client, "ants", "Situation: Missed the bus")
	if err != nil {
		t.Fatalf("fetchSuggestions: %v", err)
	}
	if len(items) != 2 || items[0] != "first idea for ants" {
		t.Errorf("items = %v", items)
	}
	if in.Summary != "Progress so far" {
		t.Errorf("insight = %+v", in)
	}
}

func TestFetchSuggestions_FirstFieldSkipsInsight(t *testing.T) {
	ls := newLiveServer(t)

	_, in, err := fetchSuggestions(ctx, ls.client, thought.Situation, "")
	if err != nil {
		t.Fatalf("fetchSuggestions: %v", err)
	}
	if !in.IsZero() {
		t.Errorf("insight = %+v, want zero", in)
	}
	if n := ls.sug.insightCalls.Load(); n != 0 {
		t.Errorf("insight calls = %d, want 0", n)
	}
}

func TestFetchSuggestions_UnknownField(t *testing.T) {
	ls := newLiveServer(t)

	if _, _, err := fetchSuggestions(ctx, ls.client, "mood", ""); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestListRecords(t *testing.T) {
	ls := newLiveServer(t)
	for _, id := range []string{"a", "b"} {
		ls.store.InsertThoughtRecord(storage.ThoughtRecord{ID: id, OwnerID: "alex", Situation: id})
	}

	records, err := listRecords(ctx, ls.client, "alex", 1)
	if err != nil {
		t.Fatalf("listRecords: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	records, err = listRecords(ctx, ls.client, "", 10)
	if err != nil {
		t.Fatalf("listRecords: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("default owner records = %d, want 0", len(records))
	}
}

func TestUpload_SendsRawBody(t *testing.T) {
	var gotType, gotAuth, gotQuery string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotType = r.Header.Get("Content-Type")
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		var buf bytes.Buffer
		buf.ReadFrom(r.Body)
		gotBody = buf.Bytes()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"entry-1","title":"notes"}`))
	}))
	t.Cleanup(srv.Close)
	c := &apiClient{baseURL: srv.URL, token: "test-token", httpClient: srv.Client()}

	resp, err := c.upload(ctx, "/v1/journal/import?filename=notes.pdf", "application/pdf", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	var e storage.JournalEntry
	if err := decodeJSON(resp, &e); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if gotType != "application/pdf" {
		t.Errorf("content type = %q", gotType)
	}
	if gotAuth != "Bearer test-token" {
		t.Errorf("auth = %q", gotAuth)
	}
	if gotQuery != "filename=notes.pdf" {
		t.Errorf("query = %q", gotQuery)
	}
	if string(gotBody) != "%PDF-1.4" {
		t.Errorf("body = %q", gotBody)
	}
	if e.ID != "entry-1" {
		t.Errorf("id = %q", e.ID)
	}
}

func TestDecodeJSON_ErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":{"message":"invalid transition: already at review","type":"invalid_transition"}}`))
	}))
	t.Cleanup(srv.Close)
	c := &apiClient{baseURL: srv.URL, token: "test-token", httpClient: srv.Client()}

	resp, err := c.post(ctx, "/v1/sessions/x/next", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	err = decodeJSON(resp, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "server returned 409: invalid transition: already at review" {
		t.Errorf("error = %q", err)
	}
}

func TestCountLabel(t *testing.T) {
	if got := countLabel(3, 100); got != "3" {
		t.Errorf("countLabel(3) = %q", got)
	}
	if got := countLabel(100, 100); got != "100+" {
		t.Errorf("countLabel(100) = %q", got)
	}
}

func TestJournalEditBody(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    map[string]any
		wantErr bool
	}{
		{name: "nothing set", args: nil, want: map[string]any{}},
		{
			name: "only changed flags",
			args: []string{"--mood", "sad", "--title", ""},
			want: map[string]any{"mood": "sad", "title": ""},
		},
		{
			name: "tags and visibility",
			args: []string{"--tag", "work", "--tag", "meetings", "--public"},
			want: map[string]any{"tags": []string{"work", "meetings"}, "is_private": false},
		},
		{name: "clear tags", args: []string{"--clear-tags"}, want: map[string]any{"tags": []string{}}},
		{name: "public and private", args: []string{"--public", "--private"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := &cobra.Command{}
			addJournalEditFlags(cmd)
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatalf("parsing flags: %v", err)
			}
			got, err := journalEditBody(cmd)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("journalEditBody: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("body = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestJournalEdit_UpdatesEntry(t *testing.T) {
	ls := newLiveServer(t)
	svc := journal.NewService(ls.store, nopText{})
	e, err := svc.Add(journal.NewEntry{OwnerID: "demo-user", Content: "Long day.", Mood: "sad", Private: true})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	cmd := &cobra.Command{}
	addJournalEditFlags(cmd)
	if err := cmd.ParseFlags([]string{"--mood", "😌", "--tag", "work", "--public"}); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}
	body, err := journalEditBody(cmd)
	if err != nil {
		t.Fatalf("journalEditBody: %v", err)
	}
	resp, err := ls.client.put(ctx, "/v1/journal/"+e.ID, body)
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	var got storage.JournalEntry
	if err := decodeJSON(resp, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.Mood != "content" || got.Private || len(got.Tags) != 1 || got.Tags[0] != "work" {
		t.Errorf("updated entry = %+v", got)
	}
	if got.Content != "Long day." {
		t.Errorf("content changed: %q", got.Content)
	}

	var out bytes.Buffer
	writeJournalDetails(&out, got)
	for _, want := range []string{"journal", "😌 content", "#work", "shared"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("details %q missing %q", out.String(), want)
		}
	}
}
