package holiday

import "context"

type Repository interface {
	Create(ctx context.Context, h Holiday) (Holiday, error)
	GetByID(ctx context.Context, id string) (Holiday, error)
	List(ctx context.Context) ([]Holiday, error)
	Update(ctx context.Context, h Holiday) (Holiday, error)
	Delete(ctx context.Context, id string) error
}

// AlertMarkerStore persists the last local date a holiday alert fired, per
// scope and holiday.
type AlertMarkerStore interface {
	// Claim sets the marker to date and reports true when it held a
	// different date or none. A second claim for the same date returns false.
	Claim(ctx context.Context, scope, holidayID, date string) (bool, error)
	LastAlerted(ctx context.Context, scope, holidayID string) (string, bool, error)
}
