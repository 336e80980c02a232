package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/me/interviewd/pkg/model"
)

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	var body struct {
		CandidateID string               `json:"candidate_id"`
		JobID       string               `json:"job_id"`
		RoundID     string               `json:"round_id"`
		Urgent      bool                 `json:"urgent"`
		Notice      model.NoticeCategory `json:"notice"`
		PipelinePos int                  `json:"pipeline_pos"`
		Slots       []model.Slot         `json:"slots"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return
	}

	var fields []model.FieldError
	if body.CandidateID == "" {
		fields = append(fields, model.FieldError{Field: "candidate_id", Message: "candidate_id is required"})
	}
	if body.RoundID == "" {
		fields = append(fields, model.FieldError{Field: "round_id", Message: "round_id is required"})
	}
	if len(fields) > 0 {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("missing required field", fields...))
		return
	}

	round, err := s.store.GetRound(r.Context(), body.RoundID)
	if err != nil {
		respondDomainError(w, reqID, err)
		return
	}
	if round == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("round", body.RoundID))
		return
	}
	if body.PipelinePos == 0 {
		body.PipelinePos = round.PipelinePos
	}

	req := &model.SchedulingRequest{
		CandidateID: body.CandidateID,
		JobID:       body.JobID,
		RoundID:     body.RoundID,
		Urgent:      body.Urgent,
		Notice:      body.Notice,
		PipelinePos: body.PipelinePos,
		Slots:       body.Slots,
	}
	if err := s.engine.SubmitRequest(r.Context(), req); err != nil {
		respondDomainError(w, reqID, err)
		return
	}

	s.logger.Info("request submitted", "id", req.ID, "candidate_id", req.CandidateID, "round_id", req.RoundID)
	respondCreated(w, reqID, req)
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	opts := model.DefaultListOptions()
	if state := r.URL.Query().Get("state"); state != "" {
		opts.State = state
	}
	opts.Clamp()

	reqs, total, err := s.store.ListRequests(r.Context(), opts)
	if err != nil {
		respondDomainError(w, reqID, err)
		return
	}

	respondList(w, reqID, reqs, &model.Pagination{
		Total:   total,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
		HasMore: opts.Offset+len(reqs) < total,
	})
}

// handleQueue returns the live ranked queue, highest priority first, with
// manual overrides pinned to the top of their tier.
func (s *Server) handleQueue(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, s.engine.RankedQueue())
}

func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	req, err := s.store.GetRequest(r.Context(), id)
	if err != nil {
		respondDomainError(w, reqID, err)
		return
	}
	if req == nil {
		respondError(w, reqID, http.StatusNotFound, model.NewNotFoundError("request", id))
		return
	}
	respondOK(w, reqID, req)
}

func (s *Server) handleOverrideRequest(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var body struct {
		Override bool   `json:"override"`
		Reason   string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, reqID, http.StatusBadRequest, &model.APIError{
			Code:    model.ErrValidation,
			Message: "Invalid JSON body: " + err.Error(),
		})
		return
	}
	if body.Override && body.Reason == "" {
		respondError(w, reqID, http.StatusBadRequest,
			model.NewValidationError("missing required field",
				model.FieldError{Field: "reason", Message: "an override must carry a reason"}))
		return
	}

	req, err := s.engine.OverrideRequest(r.Context(), id, body.Override, body.Reason)
	if err != nil {
		respondDomainError(w, reqID, err)
		return
	}

	s.logger.Info("request override", "id", id, "override", body.Override, "reason", body.Reason)
	respondOK(w, reqID, req)
}

func (s *Server) handleWithdrawRequest(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.engine.WithdrawRequest(r.Context(), id); err != nil {
		respondDomainError(w, reqID, err)
		return
	}

	s.logger.Info("request withdrawn", "id", id)
	respondOK(w, reqID, map[string]string{"id": id, "state": string(model.RequestStateWithdrawn)})
}
