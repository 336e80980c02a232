package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/me/interviewd/pkg/model"
)

func (s *Server) handleListInterviews(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	opts := model.DefaultListOptions()
	if state := r.URL.Query().Get("state"); state != "" {
		opts.State = state
	}
	opts.Clamp()

	interviews, total, err := s.store.ListInterviews(r.Context(), opts)
	if err != nil {
		respondDomainError(w, reqID, err)
		return
	}

	respondList(w, reqID, interviews, &model.Pagination{
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
		HasMore: opts.Offset+len(interviews) < total,
	})
}

// interviewDetail is the single-interview response: the instance with its
// history plus live join statuses while the window is open.
type interviewDetail struct {
	*model.InterviewInstance
	Participants []model.JoinStatus `json:"participants,omitempty"`
}

func (s *Server) handleGetInterview(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	iv, err := s.store.GetInterview(r.Context(), id)
	if err != nil {
		respondDomainError(w, reqID, err)
		return
	}
	if iv == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("interview", id))
		return
	}

	detail := interviewDetail{InterviewInstance: iv}
	if statuses, ok := s.engine.Monitor().Status(id); ok {
		detail.Participants = statuses
	}
	respondOK(w, reqID, detail)
}

// handleRetryJoin triggers a manual join nudge for every participant still
// missing from a live interview.
func (s *Server) handleRetryJoin(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.engine.Monitor().Retry(r.Context(), id); err != nil {
		respondDomainError(w, reqID, err)
		return
	}

	s.logger.Info("manual join retry", "interview_id", id)
	respondOK(w, reqID, map[string]string{"interview_id": id})
}

func (s *Server) handleMarkNoShow(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var body struct {
		ParticipantID string `json:"participant_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return
	}
	if body.ParticipantID == "" {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("missing required field",
				model.FieldError{Field: "participant_id", Message: "participant_id is required"}))
		return
	}

	if err := s.engine.Monitor().MarkNoShow(r.Context(), id, body.ParticipantID); err != nil {
		respondDomainError(w, reqID, err)
		return
	}

	s.logger.Info("manual no-show", "interview_id", id, "participant_id", body.ParticipantID)
	respondOK(w, reqID, map[string]string{
		"interview_id":   id,
		"participant_id": body.ParticipantID,
	})
}
