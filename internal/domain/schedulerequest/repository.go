package schedulerequest

import "context"

type Repository interface {
	Create(ctx context.Context, req ScheduleRequest) (ScheduleRequest, error)
	GetByID(ctx context.Context, id string) (ScheduleRequest, error)
	List(ctx context.Context, filter ListFilter) ([]ScheduleRequest, error)

	// UpdateStatusIfPending writes d only while the request is still pending.
	// It returns ErrInvalidTransition when the request exists but was already
	// disposed, and ErrScheduleRequestNotFound when it does not exist.
	UpdateStatusIfPending(ctx context.Context, id string, d Disposition) (ScheduleRequest, error)
}
