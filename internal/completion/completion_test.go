package completion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kalambet/reframe/internal/config"
)

// fakeCompleter returns queued results in order.
type fakeCompleter struct {
	results []fakeResult
	calls   atomic.Int32
}

type fakeResult struct {
	text string
	err  error
}

func (f *fakeCompleter) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	i := int(f.calls.Add(1)) - 1
	if i >= len(f.results) {
		return "", fmt.Errorf("unexpected call %d", i)
	}
	return f.results[i].text, f.results[i].err
}

func (f *fakeCompleter) Configured() bool { return true }

func noSleep(context.Context, time.Duration) error { return nil }

func TestUnconfigured_ReturnsPlaceholder(t *testing.T) {
	var c Completer = Unconfigured{}
	text, err := c.Complete(context.Background(), "anything", DefaultOptions())
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != Placeholder {
		t.Errorf("text = %q, want %q", text, Placeholder)
	}
	if c.Configured() {
		t.Error("Configured() = true")
	}
}

func TestIsPlaceholderKey(t *testing.T) {
	for key, want := range map[string]bool{
		"":                  true,
		"your_api_key_here": true,
		"AIza-real":         false,
	} {
		if got := IsPlaceholderKey(key); got != want {
			t.Errorf("IsPlaceholderKey(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()
	if o.Temperature != 0.7 || o.TopK != 40 || o.TopP != 0.95 || o.MaxOutputTokens != 512 {
		t.Errorf("unexpected defaults: %+v", o)
	}
	if len(o.SafetyFilters) != 4 {
		t.Fatalf("got %d safety filters, want 4", len(o.SafetyFilters))
	}
	for _, f := range o.SafetyFilters {
		if f.Threshold != BlockMediumAndAbove {
			t.Errorf("%s threshold = %s", f.Category, f.Threshold)
		}
	}
}

func TestRetry_RateLimitThenSuccess(t *testing.T) {
	fake := &fakeCompleter{results: []fakeResult{
		{err: fmt.Errorf("provider: %w", ErrRateLimited)},
		{text: "ok"},
	}}
	r := WithRetry(fake)
	r.sleep = noSleep

	text, err := r.Complete(context.Background(), "p", Options{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "ok" {
		t.Errorf("text = %q, want ok", text)
	}
	if n := fake.calls.Load(); n != 2 {
		t.Errorf("calls = %d, want 2", n)
	}
}

func TestRetry_GivesUpAfterMaxRetries(t *testing.T) {
	fake := &fakeCompleter{results: []fakeResult{
		{err: ErrRateLimited}, {err: ErrRateLimited}, {err: ErrRateLimited},
	}}
	r := WithRetry(fake)
	var slept []time.Duration
	r.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	_, err := r.Complete(context.Background(), "p", Options{})
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
	if n := fake.calls.Load(); n != maxRetries {
		t.Errorf("calls = %d, want %d", n, maxRetries)
	}
	want := []time.Duration{500 * time.Millisecond, time.Second}
	if len(slept) != len(want) || slept[0] != want[0] || slept[1] != want[1] {
		t.Errorf("backoffs = %v, want %v", slept, want)
	}
}

func TestRetry_NonRateLimitNotRetried(t *testing.T) {
	fake := &fakeCompleter{results: []fakeResult{{err: errors.New("boom")}}}
	r := WithRetry(fake)
	r.sleep = noSleep

	if _, err := r.Complete(context.Background(), "p", Options{}); err == nil {
		t.Fatal("expected error")
	}
	if n := fake.calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestRateLimit_HonoursContext(t *testing.T) {
	fake := &fakeCompleter{results: []fakeResult{{text: "first"}, {text: "second"}}}
	l := WithRateLimit(fake, 0.001)

	if _, err := l.Complete(context.Background(), "p", Options{}); err != nil {
		t.Fatalf("first Complete: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Complete(ctx, "p", Options{}); err == nil {
		t.Fatal("expected limiter error for second call")
	}
	if n := fake.calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestOpenAI_Complete(t *testing.T) {
	var gotBody map[string]any
	var gotReferer string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotReferer = r.Header.Get("HTTP-Referer")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"1. Foo\n2. Bar"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	c := NewOpenAI("test-key", "test-model", srv.URL)
	text, err := c.Complete(context.Background(), "suggest", DefaultOptions())
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "1. Foo\n2. Bar" {
		t.Errorf("text = %q", text)
	}
	if gotBody["model"] != "test-model" {
		t.Errorf("model = %v", gotBody["model"])
	}
	if gotReferer == "" {
		t.Error("HTTP-Referer header not set")
	}
}

func TestOpenAI_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"slow down","type":"rate_limit_error"}}`)
	}))
	defer srv.Close()

	c := NewOpenAI("test-key", "test-model", srv.URL)
	_, err := c.Complete(context.Background(), "suggest", DefaultOptions())
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
}

func TestGemini_Complete(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"You're doing well."}]}}]}`)
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), "test-key", "", srv.URL)
	if err != nil {
		t.Fatalf("NewGemini: %v", err)
	}
	text, err := g.Complete(context.Background(), "summarize", DefaultOptions())
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "You're doing well." {
		t.Errorf("text = %q", text)
	}
	if !strings.Contains(gotPath, "gemini-2.0-flash") {
		t.Errorf("path = %q, want default model", gotPath)
	}
}

func TestNewGemini_RequiresKey(t *testing.T) {
	if _, err := NewGemini(context.Background(), "", "", ""); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestNew_MissingKeySelectsUnconfigured(t *testing.T) {
	for _, key := range []string{"", "your_api_key_here"} {
		c, err := New(context.Background(), config.CompletionConfig{Provider: "gemini", GeminiAPIKey: key})
		if err != nil {
			t.Fatalf("New(%q): %v", key, err)
		}
		if c.Configured() {
			t.Errorf("New(%q).Configured() = true", key)
		}
		text, err := c.Complete(context.Background(), "p", DefaultOptions())
		if err != nil || text != Placeholder {
			t.Errorf("Complete = (%q, %v), want placeholder", text, err)
		}
	}
}

func TestNew_OpenAIProvider(t *testing.T) {
	c, err := New(context.Background(), config.CompletionConfig{
		Provider:      "openai",
		OpenAIAPIKey:  "sk-test",
		BaseURL:       "http://127.0.0.1:1",
		RatePerSecond: 5,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !c.Configured() {
		t.Error("Configured() = false")
	}
}

func TestOptionsFrom(t *testing.T) {
	o := OptionsFrom(config.CompletionConfig{Temperature: 0.3, MaxOutputTokens: 128})
	if o.Temperature != float32(0.3) || o.MaxOutputTokens != 128 {
		t.Errorf("OptionsFrom = %+v", o)
	}
	if o.TopK != 40 {
		t.Errorf("TopK = %d, want default 40", o.TopK)
	}
}
