package model

import "time"

// BackupCandidate is one ranked result of a swap search.
type BackupCandidate struct {
	RequestID   string  `json:"request_id"`
	CandidateID string  `json:"candidate_id"`

	// PriorityScore is the candidate request's current total score.
	PriorityScore float64 `json:"priority_score"`

	// AvailabilityMatch is the 0-100 overlap between the candidate's open
	// slots and the vacated slot.
	AvailabilityMatch float64 `json:"availability_match"`

	// Rank is (PriorityScore + AvailabilityMatch) / 2.
	Rank float64 `json:"rank"`
}

// SwapProposal is a pending or executed substitution after a no-show or
// cancellation. Confirmed proposals re-enter the scheduling pipeline as new
// requests; they are never a side channel around it.
type SwapProposal struct {
	ID          string          `json:"id"`
	InterviewID string          `json:"interview_id"`
	RoundID     string          `json:"round_id"`
	Vacated     Slot            `json:"vacated"`
	Replaced    string          `json:"replaced"` // candidate id that no-showed
	Backup      BackupCandidate `json:"backup"`
	State       SwapState       `json:"state"`
	Auto        bool            `json:"auto"`
	Reason      string          `json:"reason,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	DecidedAt   *time.Time      `json:"decided_at,omitempty"`
	DecidedBy   string          `json:"decided_by,omitempty"`
}
