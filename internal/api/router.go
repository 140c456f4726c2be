package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kalambet/reframe/internal/journal"
	"github.com/kalambet/reframe/internal/metrics"
	"github.com/kalambet/reframe/internal/storage"
	"github.com/kalambet/reframe/internal/suggest"
	"github.com/kalambet/reframe/internal/wizard"
)

// Suggester runs the stateless suggestion, insight and analysis requests.
// Implemented by suggest.Requester.
type Suggester interface {
	FieldSuggestions(ctx context.Context, key, recordContext string) ([]string, error)
	InsightPanel(ctx context.Context, step int, recordContext string) (suggest.Insight, error)
	Analyze(ctx context.Context, kind suggest.AnalysisKind, in suggest.AnalysisInput) ([]string, error)
}

// RecordLister lists an owner's submitted records, newest first.
// Implemented by history.Manager.
type RecordLister interface {
	ListThoughtRecords(ownerID string, limit int) ([]storage.ThoughtRecord, error)
}

// AppDeps holds dependencies for the HTTP API.
type AppDeps struct {
	Sessions     *wizard.Registry
	Records      RecordLister
	Suggester    Suggester
	Journal      *journal.Service
	Events       http.Handler // optional; if nil, /v1/events is not served
	Token        string
	DefaultOwner string
}

// NewAppHandler returns the full API. Everything except /health and
// /metrics requires the bearer token.
func NewAppHandler(deps AppDeps) http.Handler {
	if deps.DefaultOwner == "" {
		deps.DefaultOwner = "demo-user"
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", handleHealth)
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(BearerAuth(deps.Token))

		r.Get("/v1/fields", handleFields)

		r.Post("/v1/sessions", handleCreateSession(deps))
		r.Route("/v1/sessions/{id}", func(r chi.Router) {
			r.Get("/", handleGetSession(deps))
			r.Delete("/", handleDeleteSession(deps))
			r.Post("/next", handleNext(deps))
			r.Post("/back", handleBack(deps))
			r.Post("/reset", handleReset(deps))
			r.Post("/retry", handleRetry(deps))
			r.Post("/submit", handleSubmit(deps))
			r.Put("/fields/{key}", handleSetField(deps))
			r.Post("/suggestions/select", handleSelectSuggestion(deps))
			r.Post("/distortions", handleSelectDistortion(deps))
			r.Delete("/distortions", handleDeselectDistortion(deps))
		})

		r.Get("/v1/records", handleListRecords(deps))
		r.Post("/v1/suggestions", handleSuggestions(deps))
		r.Post("/v1/insights", handleInsights(deps))
		r.Post("/v1/analysis", handleAnalysis(deps))

		r.Post("/v1/journal", handleAddJournal(deps))
		r.Post("/v1/journal/import", handleImportJournal(deps))
		r.Get("/v1/journal", handleListJournal(deps))
		r.Get("/v1/journal/moods", handleJournalMoods)
		r.Get("/v1/journal/{id}", handleGetJournal(deps))
		r.Put("/v1/journal/{id}", handleUpdateJournal(deps))
		r.Delete("/v1/journal/{id}", handleDeleteJournal(deps))
		r.Post("/v1/journal/{id}/insights", handleJournalInsights(deps))

		if deps.Events != nil {
			r.Handle("/v1/events", deps.Events)
		}
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}
