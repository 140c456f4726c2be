package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/reframe/internal/journal"
	"github.com/kalambet/reframe/internal/storage"
)

type addJournalRequest struct {
	OwnerID  string   `json:"owner_id" validate:"omitempty,max=128"`
	Type     string   `json:"type" validate:"omitempty,oneof=journal gratitude strength"`
	Title    string   `json:"title" validate:"max=256"`
	Content  string   `json:"content" validate:"required,max=262144"`
	Mood     string   `json:"mood" validate:"max=32"`
	Category string   `json:"category" validate:"max=64"`
	Tags     []string `json:"tags" validate:"max=20"`
	Private  *bool    `json:"is_private"`
}

type updateJournalRequest struct {
	Title    *string   `json:"title" validate:"omitempty,max=256"`
	Content  *string   `json:"content" validate:"omitempty,max=262144"`
	Mood     *string   `json:"mood" validate:"omitempty,max=32"`
	Category *string   `json:"category" validate:"omitempty,max=64"`
	Tags     *[]string `json:"tags" validate:"omitempty,max=20"`
	Private  *bool     `json:"is_private"`
}

type journalInsightsResponse struct {
	Insights string `json:"insights"`
	Error    string `json:"error,omitempty"`
}

func handleAddJournal(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addJournalRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.OwnerID == "" {
			req.OwnerID = deps.DefaultOwner
		}

		// Entries are private unless the client says otherwise.
		private := req.Private == nil || *req.Private
		e, err := deps.Journal.Add(journal.NewEntry{
			OwnerID:  req.OwnerID,
			Type:     req.Type,
			Title:    req.Title,
			Content:  req.Content,
			Mood:     req.Mood,
			Category: req.Category,
			Tags:     req.Tags,
			Private:  private,
			Source:   journal.SourceText,
		})
		switch {
		case errors.Is(err, journal.ErrEmptyContent), errors.Is(err, journal.ErrInvalidEntry):
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		case err != nil && e.ID == "":
			httpError(w, http.StatusInternalServerError, "api_error", "failed to save journal entry: %v", err)
			return
		case err != nil:
			// Saved, but insights will not be generated in the background.
			httpError(w, http.StatusInternalServerError, "api_error", "saved entry %s but %v", e.ID, err)
			return
		}
		writeJSON(w, http.StatusCreated, e)
	}
}

// handleImportJournal takes a raw PDF body. The file name comes from the
// filename query parameter.
func handleImportJournal(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		defer r.Body.Close()

		data, err := io.ReadAll(r.Body)
		if err != nil {
			httpError(w, http.StatusRequestEntityTooLarge, "invalid_request_error", "reading upload: %v", err)
			return
		}
		if len(data) == 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "empty upload")
			return
		}
		owner := r.URL.Query().Get("owner_id")
		if owner == "" {
			owner = deps.DefaultOwner
		}
		filename := r.URL.Query().Get("filename")
		if filename == "" {
			filename = "journal.pdf"
		}

		e, err := deps.Journal.ImportPDF(owner, filename, data)
		switch {
		case errors.Is(err, journal.ErrNoText), errors.Is(err, journal.ErrEmptyContent):
			httpError(w, http.StatusUnprocessableEntity, "invalid_request_error", "%v", err)
			return
		case err != nil && e.ID == "":
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		case err != nil:
			httpError(w, http.StatusInternalServerError, "api_error", "saved entry %s but %v", e.ID, err)
			return
		}
		writeJSON(w, http.StatusCreated, e)
	}
}

func handleListJournal(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owner := r.URL.Query().Get("owner_id")
		if owner == "" {
			owner = deps.DefaultOwner
		}
		limit := parseIntParam(r, "limit", 20, 100)

		entries, err := deps.Journal.List(owner, r.URL.Query().Get("type"), limit)
		if errors.Is(err, journal.ErrInvalidEntry) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list journal entries: %v", err)
			return
		}
		if entries == nil {
			entries = []storage.JournalEntry{}
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func handleGetJournal(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := deps.Journal.Get(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "journal entry not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get journal entry: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func handleUpdateJournal(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateJournalRequest
		if !decodeBody(w, r, &req) {
			return
		}

		e, err := deps.Journal.Update(chi.URLParam(r, "id"), journal.Update{
			Title:    req.Title,
			Content:  req.Content,
			Mood:     req.Mood,
			Category: req.Category,
			Tags:     req.Tags,
			Private:  req.Private,
		})
		switch {
		case errors.Is(err, storage.ErrNotFound):
			httpError(w, http.StatusNotFound, "not_found", "journal entry not found")
			return
		case errors.Is(err, journal.ErrEmptyContent), errors.Is(err, journal.ErrInvalidEntry):
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		case err != nil && e.ID == "":
			httpError(w, http.StatusInternalServerError, "api_error", "failed to update journal entry: %v", err)
			return
		case err != nil:
			httpError(w, http.StatusInternalServerError, "api_error", "updated entry %s but %v", e.ID, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

func handleJournalMoods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, journal.Moods())
}

func handleDeleteJournal(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := deps.Journal.Delete(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "journal entry not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to delete journal entry: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// handleJournalInsights generates and stores a reflection on demand. A failed
// request still answers 200 with the fallback text and the error.
func handleJournalInsights(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := deps.Journal.Get(chi.URLParam(r, "id"))
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "journal entry not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get journal entry: %v", err)
			return
		}

		text, err := deps.Journal.Reflect(r.Context(), e)
		resp := journalInsightsResponse{Insights: text}
		if err != nil {
			resp.Error = err.Error()
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
