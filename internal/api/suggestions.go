package api

import (
	"net/http"

	"github.com/kalambet/reframe/internal/storage"
	"github.com/kalambet/reframe/internal/suggest"
	"github.com/kalambet/reframe/internal/thought"
)

type fieldsResponse struct {
	Fields      []thought.Field `json:"fields"`
	Distortions []string        `json:"distortions"`
	Emotions    []string        `json:"emotions"`
}

type suggestionsRequest struct {
	Field   string `json:"field" validate:"required,max=64"`
	Context string `json:"context" validate:"max=65536"`
}

type insightsRequest struct {
	Step    int    `json:"step" validate:"gte=0,lte=7"`
	Context string `json:"context" validate:"max=65536"`
}

type analysisRequest struct {
	Kind            string `json:"kind" validate:"required,oneof=distortions challenge balanced"`
	ANTs            string `json:"ants" validate:"required,max=16384"`
	Distortions     string `json:"distortions" validate:"max=1024"`
	EvidenceAgainst string `json:"evidence_against" validate:"max=16384"`
}

func handleFields(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, fieldsResponse{
		Fields:      thought.Fields(),
		Distortions: thought.DistortionVocabulary(),
		Emotions:    thought.EmotionVocabulary(),
	})
}

func handleListRecords(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := r.URL.Query().Get("owner_id")
		if owner == "" {
			owner = deps.DefaultOwner
		}
		limit := parseIntParam(r, "limit", 20, 100)

		records, err := deps.Records.ListThoughtRecords(owner, limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list records: %v", err)
			return
		}
		if records == nil {
			records = []storage.ThoughtRecord{}
		}
		writeJSON(w, http.StatusOK, records)
	}
}

func handleSuggestions(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req suggestionsRequest
		if !decodeBody(w, r, &req) {
			return
		}
		items, err := deps.Suggester.FieldSuggestions(r.Context(), req.Field, req.Context)
		if err != nil {
			aiError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string][]string{"suggestions": items})
	}
}

func handleInsights(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req insightsRequest
		if !decodeBody(w, r, &req) {
			return
		}
		in, err := deps.Suggester.InsightPanel(r.Context(), req.Step, req.Context)
		if err != nil {
			aiError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, in)
	}
}

func handleAnalysis(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req analysisRequest
		if !decodeBody(w, r, &req) {
			return
		}
		items, err := deps.Suggester.Analyze(r.Context(), suggest.AnalysisKind(req.Kind), suggest.AnalysisInput{
			ANTs:            req.ANTs,
			Distortions:     req.Distortions,
			EvidenceAgainst: req.EvidenceAgainst,
		})
		if err != nil {
			aiError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string][]string{"items": items})
	}
}
