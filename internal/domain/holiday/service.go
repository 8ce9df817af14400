package holiday

import "context"

type Service interface {
	// CheckToday returns the holidays on the current local date and raises
	// an alert for each one not yet alerted today.
	CheckToday(ctx context.Context) (TodayResponse, error)

	List(ctx context.Context) ([]HolidayResponse, error)
	Create(ctx context.Context, req CreateHolidayRequest) (HolidayResponse, error)
	Update(ctx context.Context, req UpdateHolidayRequest) (HolidayResponse, error)
	Delete(ctx context.Context, id string) error
}
