package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/me/interviewd/pkg/model"
)

func (s *Server) handlePendingSwaps(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	swaps, err := s.engine.Swapper().Pending(r.Context())
	if err != nil {
		respondDomainError(w, reqID, err)
		return
	}
	respondOK(w, reqID, swaps)
}

func (s *Server) handleApproveSwap(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var body struct {
		DecidedBy string `json:"decided_by"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return
	}
	if body.DecidedBy == "" {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("missing required field",
				model.FieldError{Field: "decided_by", Message: "decided_by is required"}))
		return
	}

	sp, err := s.engine.Swapper().Approve(r.Context(), id, body.DecidedBy)
	if err != nil {
		respondDomainError(w, reqID, err)
		return
	}

	s.logger.Info("swap approved", "swap_id", id, "decided_by", body.DecidedBy)
	respondOK(w, reqID, sp)
}

func (s *Server) handleRejectSwap(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var body struct {
		DecidedBy string `json:"decided_by"`
		Reason    string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return
	}
	if body.DecidedBy == "" {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("missing required field",
				model.FieldError{Field: "decided_by", Message: "decided_by is required"}))
		return
	}

	sp, err := s.engine.Swapper().Reject(r.Context(), id, body.DecidedBy, body.Reason)
	if err != nil {
		respondDomainError(w, reqID, err)
		return
	}

	s.logger.Info("swap rejected", "swap_id", id, "decided_by", body.DecidedBy)
	respondOK(w, reqID, sp)
}
