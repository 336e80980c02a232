package model

// InterviewState represents the lifecycle state of an InterviewInstance.
type InterviewState string

const (
	InterviewStateCreated        InterviewState = "CREATED"
	InterviewStateSlotsGenerated InterviewState = "SLOTS_GENERATED"
	InterviewStateSlotConfirmed  InterviewState = "SLOT_CONFIRMED"
	InterviewStateNotified       InterviewState = "NOTIFIED"
	InterviewStateInProgress     InterviewState = "IN_PROGRESS"
	InterviewStateCompleted      InterviewState = "COMPLETED"
	InterviewStateClosed         InterviewState = "CLOSED"
	InterviewStateCancelled      InterviewState = "CANCELLED"
)

// String returns the string representation of the interview state.
func (s InterviewState) String() string {
	return string(s)
}

// IsTerminal returns true if the interview is in a final state.
func (s InterviewState) IsTerminal() bool {
	switch s {
	case InterviewStateClosed, InterviewStateCancelled:
		return true
	}
	return false
}

// ValidInterviewTransitions defines the allowed state transitions for
// InterviewInstances. Transitions are driven by external events; the
// coordinator never invents one on its own.
var ValidInterviewTransitions = map[InterviewState][]InterviewState{
	InterviewStateCreated:        {InterviewStateSlotsGenerated, InterviewStateCancelled},
	InterviewStateSlotsGenerated: {InterviewStateSlotConfirmed, InterviewStateCancelled},
	InterviewStateSlotConfirmed:  {InterviewStateNotified, InterviewStateCancelled},
	InterviewStateNotified:       {InterviewStateInProgress, InterviewStateCancelled},
	InterviewStateInProgress:     {InterviewStateCompleted, InterviewStateCancelled},
	InterviewStateCompleted:      {InterviewStateClosed},
}

// CanTransitionTo returns true if moving from the current state to next is valid.
func (s InterviewState) CanTransitionTo(next InterviewState) bool {
	for _, allowed := range ValidInterviewTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// RequestState represents the lifecycle state of a SchedulingRequest.
type RequestState string

const (
	RequestStatePending   RequestState = "PENDING"
	RequestStateContested RequestState = "CONTESTED"
	RequestStateAssigned  RequestState = "ASSIGNED"
	RequestStateWithdrawn RequestState = "WITHDRAWN"
)

// String returns the string representation of the request state.
func (s RequestState) String() string {
	return string(s)
}

// IsTerminal returns true if the request has left the scheduling queue for good.
func (s RequestState) IsTerminal() bool {
	switch s {
	case RequestStateAssigned, RequestStateWithdrawn:
		return true
	}
	return false
}

// ConflictPhase tracks a ContestedResource through resolution.
// A resource in RESOLVING is owned by exactly one resolver invocation.
type ConflictPhase string

const (
	ConflictPhaseOpen      ConflictPhase = "OPEN"
	ConflictPhaseResolving ConflictPhase = "RESOLVING"
	ConflictPhaseResolved  ConflictPhase = "RESOLVED"
)

// SwapState represents the state of a swap proposal.
type SwapState string

const (
	SwapStatePendingApproval SwapState = "PENDING_APPROVAL"
	SwapStateConfirmed       SwapState = "CONFIRMED"
	SwapStateRejected        SwapState = "REJECTED"
)

// SLAStatus classifies an interview's position relative to its SLA deadline.
type SLAStatus string

const (
	SLAStatusOnTrack SLAStatus = "on_track"
	SLAStatusAtRisk  SLAStatus = "at_risk"
	SLAStatusOverdue SLAStatus = "overdue"
)
