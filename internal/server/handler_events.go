package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/me/interviewd/pkg/model"
)

func (s *Server) handleSlotConfirmed(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var ev model.SlotConfirmation
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return
	}
	if ev.InterviewID == "" && ev.CandidateID == "" {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("missing required field",
				model.FieldError{Field: "interview_id", Message: "interview_id or candidate_id is required"}))
		return
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now().UTC()
	}

	iv, err := s.engine.SlotConfirmed(r.Context(), &ev)
	if err != nil {
		respondDomainError(w, reqID, err)
		return
	}
	respondOK(w, reqID, iv)
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var ev model.JoinEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return
	}
	if ev.InterviewID == "" || ev.ParticipantID == "" {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("missing required field",
				model.FieldError{Field: "interview_id", Message: "interview_id and participant_id are required"}))
		return
	}
	if ev.JoinedAt.IsZero() {
		ev.JoinedAt = time.Now().UTC()
	}

	// Presence events for interviews outside their live window are dropped.
	s.engine.Join(r.Context(), &ev)
	respondOK(w, reqID, map[string]string{
		"interview_id":   ev.InterviewID,
		"participant_id": ev.ParticipantID,
	})
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var ev model.FeedbackEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return
	}
	if ev.InterviewID == "" {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("missing required field",
				model.FieldError{Field: "interview_id", Message: "interview_id is required"}))
		return
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = time.Now().UTC()
	}

	iv, err := s.engine.Feedback(r.Context(), &ev)
	if err != nil {
		respondDomainError(w, reqID, err)
		return
	}
	respondOK(w, reqID, iv)
}
