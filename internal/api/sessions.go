package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/reframe/internal/storage"
	"github.com/kalambet/reframe/internal/wizard"
)

type createSessionRequest struct {
	OwnerID string `json:"owner_id" validate:"omitempty,max=128"`
}

type setFieldRequest struct {
	Value string `json:"value" validate:"max=16384"`
}

type selectSuggestionRequest struct {
	Field string `json:"field" validate:"required"`
	Text  string `json:"text" validate:"required,max=16384"`
}

type distortionRequest struct {
	Text string `json:"text" validate:"required,max=256"`
}

type submitResponse struct {
	Record  storage.ThoughtRecord `json:"record"`
	Session wizard.Snapshot       `json:"session"`
}

// sessionHandler resolves {id} to a live session before calling fn.
func sessionHandler(deps AppDeps, fn func(w http.ResponseWriter, r *http.Request, s *wizard.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		s, ok := deps.Sessions.Get(id)
		if !ok {
			httpError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		fn(w, r, s)
	}
}

// wizardError maps session errors to status codes.
func wizardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, wizard.ErrClosed):
		httpError(w, http.StatusNotFound, "not_found", "session not found")
	case errors.Is(err, wizard.ErrStorage):
		httpError(w, http.StatusBadGateway, "storage_error", "%v", err)
	case errors.Is(err, wizard.ErrInvalidTransition):
		httpError(w, http.StatusConflict, "invalid_transition", "%v", err)
	case errors.Is(err, wizard.ErrFieldNotActive):
		httpError(w, http.StatusConflict, "field_not_active", "%v", err)
	case errors.Is(err, wizard.ErrNotFreeText):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
	default:
		httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
	}
}

func handleCreateSession(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSessionRequest
		if r.ContentLength != 0 {
			if !decodeBody(w, r, &req) {
				return
			}
		}
		if req.OwnerID == "" {
			req.OwnerID = deps.DefaultOwner
		}
		s := deps.Sessions.Create(req.OwnerID)
		writeJSON(w, http.StatusCreated, s.Snapshot())
	}
}

func handleGetSession(deps AppDeps) http.HandlerFunc {
	return sessionHandler(deps, func(w http.ResponseWriter, r *http.Request, s *wizard.Session) {
		writeJSON(w, http.StatusOK, s.Snapshot())
	})
}

func handleDeleteSession(deps AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !deps.Sessions.Remove(chi.URLParam(r, "id")) {
			httpError(w, http.StatusNotFound, "not_found", "session not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

func handleNext(deps AppDeps) http.HandlerFunc {
	return sessionHandler(deps, func(w http.ResponseWriter, r *http.Request, s *wizard.Session) {
		if err := s.Next(); err != nil {
			wizardError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.Snapshot())
	})
}

func handleBack(deps AppDeps) http.HandlerFunc {
	return sessionHandler(deps, func(w http.ResponseWriter, r *http.Request, s *wizard.Session) {
		s.Back()
		writeJSON(w, http.StatusOK, s.Snapshot())
	})
}

func handleReset(deps AppDeps) http.HandlerFunc {
	return sessionHandler(deps, func(w http.ResponseWriter, r *http.Request, s *wizard.Session) {
		s.Reset()
		writeJSON(w, http.StatusOK, s.Snapshot())
	})
}

func handleRetry(deps AppDeps) http.HandlerFunc {
	return sessionHandler(deps, func(w http.ResponseWriter, r *http.Request, s *wizard.Session) {
		s.Retry()
		writeJSON(w, http.StatusAccepted, s.Snapshot())
	})
}

func handleSubmit(deps AppDeps) http.HandlerFunc {
	return sessionHandler(deps, func(w http.ResponseWriter, r *http.Request, s *wizard.Session) {
		rec, err := s.Submit()
		if err != nil {
			wizardError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, submitResponse{Record: rec, Session: s.Snapshot()})
	})
}

func handleSetField(deps AppDeps) http.HandlerFunc {
	return sessionHandler(deps, func(w http.ResponseWriter, r *http.Request, s *wizard.Session) {
		var req setFieldRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := s.SetField(chi.URLParam(r, "key"), req.Value); err != nil {
			wizardError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.Snapshot())
	})
}

func handleSelectSuggestion(deps AppDeps) http.HandlerFunc {
	return sessionHandler(deps, func(w http.ResponseWriter, r *http.Request, s *wizard.Session) {
		var req selectSuggestionRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := s.SelectSuggestion(req.Field, req.Text); err != nil {
			wizardError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.Snapshot())
	})
}

func handleSelectDistortion(deps AppDeps) http.HandlerFunc {
	return sessionHandler(deps, func(w http.ResponseWriter, r *http.Request, s *wizard.Session) {
		var req distortionRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := s.SelectDistortion(req.Text); err != nil {
			wizardError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.Snapshot())
	})
}

func handleDeselectDistortion(deps AppDeps) http.HandlerFunc {
	return sessionHandler(deps, func(w http.ResponseWriter, r *http.Request, s *wizard.Session) {
		var req distortionRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if err := s.DeselectDistortion(req.Text); err != nil {
			wizardError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.Snapshot())
	})
}
