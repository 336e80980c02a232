package model

import "time"

// StateChange is one immutable entry in an interview's history.
type StateChange struct {
	State       InterviewState `json:"state"`
	Timestamp   time.Time      `json:"timestamp"`
	TriggeredBy string         `json:"triggered_by"`
}

// InterviewInstance is a confirmed assignment being driven through the
// lifecycle state machine. History is append-only and time-ordered.
type InterviewInstance struct {
	ID            string         `json:"id"`
	RequestID     string         `json:"request_id"`
	CandidateID   string         `json:"candidate_id"`
	JobID         string         `json:"job_id"`
	RoundID       string         `json:"round_id"`
	State         InterviewState `json:"state"`
	History       []StateChange  `json:"history"`
	Slot          Slot           `json:"slot"`
	InterviewerIDs []string      `json:"interviewer_ids"`

	// SLADeadline is when the current state breaches its SLA. Nil for
	// states without an SLA (in_progress, terminals).
	SLADeadline *time.Time `json:"sla_deadline,omitempty"`
	SLAStatus   SLAStatus  `json:"sla_status"`

	// Escalated marks that an at-risk or overdue escalation already fired
	// for the current state, so the sweep does not repeat it.
	Escalated     bool `json:"escalated"`
	EarlyWarned   bool `json:"early_warned"`

	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// EnteredStateAt returns the timestamp of the latest history entry, falling
// back to CreatedAt for instances with no recorded transitions yet.
func (i *InterviewInstance) EnteredStateAt() time.Time {
	if len(i.History) == 0 {
		return i.CreatedAt
	}
	return i.History[len(i.History)-1].Timestamp
}

// JoinKind distinguishes the two participant roles during live monitoring.
type JoinKind string

const (
	JoinKindCandidate   JoinKind = "candidate"
	JoinKindInterviewer JoinKind = "interviewer"
)

// JoinStatus tracks one participant's presence during the live window of an
// interview. It exists only while the window is open.
type JoinStatus struct {
	ParticipantID string     `json:"participant_id"`
	Kind          JoinKind   `json:"kind"`
	Joined        bool       `json:"joined"`
	JoinedAt      *time.Time `json:"joined_at,omitempty"`
	RetryCount    int        `json:"retry_count"`
	NoShow        bool       `json:"no_show"`
}
