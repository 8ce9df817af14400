package schedulerequest

import "context"

type Service interface {
	Submit(ctx context.Context, req CreateScheduleRequestRequest) (ScheduleRequestResponse, error)
	Get(ctx context.Context, id string) (ScheduleRequestResponse, error)
	List(ctx context.Context, filter ListFilter) (ListScheduleRequestResponse, error)

	// Approve and Reject take the disposing admin explicitly; nothing is read
	// from ambient identity.
	Approve(ctx context.Context, id string, req DisposeRequest) (DispositionResponse, error)
	Reject(ctx context.Context, id string, req DisposeRequest) (DispositionResponse, error)

	// Dispose dispatches on req.Status.
	Dispose(ctx context.Context, id string, req PatchScheduleRequest) (DispositionResponse, error)
}
