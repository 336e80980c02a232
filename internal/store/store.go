package store

import (
	"context"
	"time"

	"github.com/me/interviewd/pkg/model"
)

// Store defines the persistence layer for interviewd entities.
type Store interface {
	// Scheduling requests
	CreateRequest(ctx context.Context, req *model.SchedulingRequest) error
	GetRequest(ctx context.Context, id string) (*model.SchedulingRequest, error)
	ListRequests(ctx context.Context, opts model.ListOptions) ([]*model.SchedulingRequest, int, error)
	GetRequestsByState(ctx context.Context, state model.RequestState) ([]*model.SchedulingRequest, error)
	UpdateRequest(ctx context.Context, req *model.SchedulingRequest) error

	// Interviews
	CreateInterview(ctx context.Context, iv *model.InterviewInstance) error
	GetInterview(ctx context.Context, id string) (*model.InterviewInstance, error)
	ListInterviews(ctx context.Context, opts model.ListOptions) ([]*model.InterviewInstance, int, error)
	GetInterviewsByState(ctx context.Context, state model.InterviewState) ([]*model.InterviewInstance, error)
	UpdateInterview(ctx context.Context, iv *model.InterviewInstance) error

	// Interviewer capacities
	UpsertCapacity(ctx context.Context, c *model.InterviewerCapacity) error
	GetCapacity(ctx context.Context, interviewerID string) (*model.InterviewerCapacity, error)
	ListCapacities(ctx context.Context) ([]*model.InterviewerCapacity, error)

	// Directory
	ReplaceDirectory(ctx context.Context, snap *model.DirectorySnapshot) error
	GetRound(ctx context.Context, id string) (*model.Round, error)
	GetInterviewer(ctx context.Context, id string) (*model.Interviewer, error)
	GetCandidate(ctx context.Context, id string) (*model.Candidate, error)
	ListInterviewers(ctx context.Context) ([]*model.Interviewer, error)

	// Conflict resolution audit trail
	RecordResolution(ctx context.Context, res *model.ContestedResource) error
	CountWinsSince(ctx context.Context, candidateID string, since time.Time) (int, error)

	// Swap proposals
	CreateSwap(ctx context.Context, sp *model.SwapProposal) error
	GetSwap(ctx context.Context, id string) (*model.SwapProposal, error)
	GetSwapsByState(ctx context.Context, state model.SwapState) ([]*model.SwapProposal, error)
	UpdateSwap(ctx context.Context, sp *model.SwapProposal) error

	// Operator error queue
	CreateOperatorError(ctx context.Context, oe *model.OperatorError) error
	ListOperatorErrors(ctx context.Context, includeResolved bool) ([]*model.OperatorError, error)
	ResolveOperatorError(ctx context.Context, id string) error

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
