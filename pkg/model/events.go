package model

import "time"

// Severity grades outbound escalations.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// AssignmentIntent is emitted to the calendar/notification collaborator when
// an interview is confirmed. The engine never sends messages itself.
type AssignmentIntent struct {
	InterviewID    string    `json:"interview_id"`
	CandidateID    string    `json:"candidate_id"`
	InterviewerIDs []string  `json:"interviewer_ids"`
	Slot           Slot      `json:"slot"`
	EmittedAt      time.Time `json:"emitted_at"`
}

// EscalationEvent is emitted to the alerting collaborator on SLA breaches,
// early warnings, retry nudges, and interviewer no-shows.
type EscalationEvent struct {
	InterviewID string    `json:"interview_id"`
	Reason      string    `json:"reason"`
	Severity    Severity  `json:"severity"`
	EmittedAt   time.Time `json:"emitted_at"`
}

// SwapEvent carries a swap proposal or confirmation to the notification and
// ATS-update collaborators.
type SwapEvent struct {
	Proposal  SwapProposal `json:"proposal"`
	Confirmed bool         `json:"confirmed"`
	EmittedAt time.Time    `json:"emitted_at"`
}

// SlotConfirmation is the inbound event from the candidate-facing scheduling
// UI: the candidate picked a slot.
type SlotConfirmation struct {
	CandidateID string    `json:"candidate_id"`
	InterviewID string    `json:"interview_id,omitempty"`
	Slot        Slot      `json:"slot"`
	ReceivedAt  time.Time `json:"received_at"`
}

// JoinEvent is the inbound presence event from the video-conferencing
// collaborator.
type JoinEvent struct {
	InterviewID   string    `json:"interview_id"`
	ParticipantID string    `json:"participant_id"`
	JoinedAt      time.Time `json:"joined_at"`
}

// FeedbackEvent is the inbound event from the feedback collaborator; it
// advances completed interviews to closed.
type FeedbackEvent struct {
	InterviewID string    `json:"interview_id"`
	ReceivedAt  time.Time `json:"received_at"`
}

// OperatorError is an attributed failure surfaced to the operator queue
// instead of being retried or dropped. EntityKind/EntityID point at the
// request, interview, or interviewer the error belongs to.
type OperatorError struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	Message    string    `json:"message"`
	EntityKind string    `json:"entity_kind"`
	EntityID   string    `json:"entity_id"`
	CreatedAt  time.Time `json:"created_at"`
	Resolved   bool      `json:"resolved"`
}
