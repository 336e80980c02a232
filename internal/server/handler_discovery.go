package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, discoveryResponse{
		Name:        "interviewd API",
		Version:     "v1",
		Description: "Interview scheduling coordination engine: priority ranking, conflict resolution, lifecycle tracking, and backup swaps",
		Endpoints: []endpointInfo{
			{"/api/v1/directory/snapshot", []string{"POST"}, "Ingest an ATS directory snapshot (interviewers, candidates, rounds)"},
			{"/api/v1/interviewers", []string{"GET"}, "List interviewers from the current directory"},
			{"/api/v1/interviewers/{id}/capacity", []string{"GET"}, "Live load, fatigue, and counters for one interviewer"},
			{"/api/v1/requests", []string{"GET", "POST"}, "Scheduling request management"},
			{"/api/v1/requests/queue", []string{"GET"}, "Live ranked queue, highest priority first"},
			{"/api/v1/requests/{id}", []string{"GET", "DELETE"}, "Single request detail; DELETE withdraws"},
			{"/api/v1/requests/{id}/override", []string{"PUT"}, "Pin or unpin a manual priority override"},
			{"/api/v1/events/slot-confirmed", []string{"POST"}, "Candidate slot confirmation from the scheduling UI"},
			{"/api/v1/events/join", []string{"POST"}, "Participant presence event from video conferencing"},
			{"/api/v1/events/feedback", []string{"POST"}, "Feedback received; closes out the interview"},
			{"/api/v1/interviews", []string{"GET"}, "List interview instances"},
			{"/api/v1/interviews/{id}", []string{"GET"}, "Interview detail with history, SLA, and live participants"},
			{"/api/v1/interviews/{id}/retry", []string{"POST"}, "Manual join nudge for missing participants"},
			{"/api/v1/interviews/{id}/no-show", []string{"POST"}, "Declare a participant a no-show"},
			{"/api/v1/swaps/pending", []string{"GET"}, "Swap proposals awaiting operator approval"},
			{"/api/v1/swaps/{id}/approve", []string{"POST"}, "Approve a pending swap proposal"},
			{"/api/v1/swaps/{id}/reject", []string{"POST"}, "Reject a pending swap proposal"},
			{"/api/v1/operator/errors", []string{"GET"}, "Operator error queue; ?all=true includes resolved"},
			{"/api/v1/operator/errors/{id}/resolve", []string{"POST"}, "Mark an operator error resolved"},
			{"/api/v1/health", []string{"GET"}, "Server health and version"},
		},
	})
}
