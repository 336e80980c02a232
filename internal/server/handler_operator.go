package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListOperatorErrors(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())

	includeResolved := r.URL.Query().Get("all") == "true"
	errs, err := s.store.ListOperatorErrors(r.Context(), includeResolved)
	if err != nil {
		respondDomainError(w, reqID, err)
		return
	}
	respondOK(w, reqID, errs)
}

func (s *Server) handleResolveOperatorError(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.store.ResolveOperatorError(r.Context(), id); err != nil {
		respondDomainError(w, reqID, err)
		return
	}

	s.logger.Info("operator error resolved", "id", id)
	respondOK(w, reqID, map[string]string{"id": id, "resolved": "true"})
}
