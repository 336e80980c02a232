package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/me/interviewd/pkg/model"
)

func (s *Server) handleDirectorySnapshot(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var snap model.DirectorySnapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return
	}
	if len(snap.Interviewers) == 0 {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("empty snapshot",
				model.FieldError{Field: "interviewers", Message: "snapshot must carry at least one interviewer"}))
		return
	}

	if err := s.engine.IngestDirectory(r.Context(), &snap); err != nil {
		respondDomainError(w, reqID, err)
		return
	}

	s.logger.Info("directory snapshot ingested",
		"interviewers", len(snap.Interviewers),
		"candidates", len(snap.Candidates),
		"rounds", len(snap.Rounds))

	respondOK(w, reqID, map[string]int{
		"interviewers": len(snap.Interviewers),
		"candidates":   len(snap.Candidates),
		"rounds":       len(snap.Rounds),
	})
}

func (s *Server) handleListInterviewers(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	interviewers, err := s.store.ListInterviewers(r.Context())
	if err != nil {
		respondDomainError(w, reqID, err)
		return
	}
	respondOK(w, reqID, interviewers)
}

func (s *Server) handleGetCapacity(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	cap, err := s.engine.Tracker().Capacity(r.Context(), id)
	if err != nil {
		respondDomainError(w, reqID, err)
		return
	}
	if cap == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("interviewer", id))
		return
	}
	respondOK(w, reqID, cap)
}
