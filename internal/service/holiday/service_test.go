package holiday

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/schedule-core/internal/domain/holiday"
	"github.com/cmlabs-hris/schedule-core/internal/domain/notification"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/realtime"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/validator"
	"github.com/cmlabs-hris/schedule-core/internal/repository/memory"
	"github.com/cmlabs-hris/schedule-core/internal/repository/sqlite"
	notificationsvc "github.com/cmlabs-hris/schedule-core/internal/service/notification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var manila = time.FixedZone("PHT", 8*60*60)

// 00:30 on 2024-12-25 in Manila.
var christmasMorning = time.Date(2024, 12, 24, 16, 30, 0, 0, time.UTC)

type recordingSession struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingSession) ID() string { return "dashboard" }

func (r *recordingSession) Send(ev realtime.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev.Name)
	return nil
}

func (r *recordingSession) Close() error { return nil }

func (r *recordingSession) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type fixture struct {
	store         *memory.Store
	notifications notification.Service
	session       *recordingSession
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.NewStore()
	notifications := notificationsvc.NewNotificationService(store.Notifications(), realtime.NewHub(nil), notificationsvc.Config{WorkerCount: 1}, nil)
	t.Cleanup(notifications.Stop)
	session := &recordingSession{}
	notifications.Subscribe(session)
	return fixture{store: store, notifications: notifications, session: session}
}

func (f fixture) service(t *testing.T, markers holiday.AlertMarkerStore, now time.Time) holiday.Service {
	t.Helper()
	svc := NewHolidayService(f.store.Holidays(), markers, f.notifications, Config{Location: manila}, nil)
	svc.(*holidayServiceImpl).now = func() time.Time { return now }
	return svc
}

func openMarkers(t *testing.T, path string) *sqlite.AlertMarkerStore {
	t.Helper()
	markers, err := sqlite.NewAlertMarkerStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = markers.Close() })
	return markers
}

func seedChristmas(t *testing.T, svc holiday.Service) {
	t.Helper()
	ctx := context.Background()
	_, err := svc.Create(ctx, holiday.CreateHolidayRequest{Date: "2024-12-25", Type: holiday.TypeRegular, Title: "Christmas Day"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, holiday.CreateHolidayRequest{Date: "2024-12-25", Type: holiday.TypeCompany, Title: "Company Anniversary"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, holiday.CreateHolidayRequest{Date: "2024-12-30", Type: holiday.TypeRegular, Title: "Rizal Day"})
	require.NoError(t, err)
}

func TestCheckToday_AlertsOncePerLocalDate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.service(t, openMarkers(t, ":memory:"), christmasMorning)
	seedChristmas(t, svc)

	first, err := svc.CheckToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2024-12-25", first.Date)
	assert.Len(t, first.Holidays, 2)
	assert.Len(t, first.Alerted, 2)

	counts, err := f.notifications.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Holiday)

	second, err := svc.CheckToday(ctx)
	require.NoError(t, err)
	assert.Len(t, second.Holidays, 2)
	assert.Empty(t, second.Alerted)

	counts, err = f.notifications.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts.Holiday)

	assert.Eventually(t, func() bool {
		alerts := 0
		for _, name := range f.session.names() {
			if name == notification.EventHolidayAlert {
				alerts++
			}
		}
		return alerts == 2
	}, time.Second, 5*time.Millisecond)
	assert.Contains(t, f.session.names(), notification.EventHolidayToday)
}

func TestCheckToday_MarkersSurviveRestart(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "markers.db")

	markers, err := sqlite.NewAlertMarkerStore(path)
	require.NoError(t, err)
	svc := f.service(t, markers, christmasMorning)
	seedChristmas(t, svc)

	first, err := svc.CheckToday(ctx)
	require.NoError(t, err)
	assert.Len(t, first.Alerted, 2)
	require.NoError(t, markers.Close())

	restarted := f.service(t, openMarkers(t, path), christmasMorning.Add(2*time.Hour))
	again, err := restarted.CheckToday(ctx)
	require.NoError(t, err)
	assert.Empty(t, again.Alerted)

	nextYear := f.service(t, openMarkers(t, path), christmasMorning.AddDate(1, 0, 0))
	_, err = nextYear.Create(ctx, holiday.CreateHolidayRequest{Date: "2020-12-25", Type: holiday.TypeRegular, Title: "Christmas", IsRecurring: true})
	require.NoError(t, err)
	later, err := nextYear.CheckToday(ctx)
	require.NoError(t, err)
	require.Len(t, later.Alerted, 1)
	assert.Equal(t, "Christmas", later.Alerted[0].Title)
}

func TestCheckToday_NoHolidays(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t, openMarkers(t, ":memory:"), christmasMorning.AddDate(0, 0, 2))
	seedChristmas(t, svc)

	resp, err := svc.CheckToday(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-12-27", resp.Date)
	assert.Empty(t, resp.Holidays)
	assert.Empty(t, resp.Alerted)
}

func TestHolidayMaintenance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	svc := f.service(t, openMarkers(t, ":memory:"), christmasMorning)

	created, err := svc.Create(ctx, holiday.CreateHolidayRequest{Date: "2024-06-12", Type: holiday.TypeRegular, Title: "Independence Day"})
	require.NoError(t, err)

	title := "Philippine Independence Day"
	updated, err := svc.Update(ctx, holiday.UpdateHolidayRequest{ID: created.ID, Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, "2024-06-12", updated.Date)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), holiday.ErrHolidayNotFound)

	_, err = svc.Update(ctx, holiday.UpdateHolidayRequest{ID: created.ID, Title: &title})
	assert.ErrorIs(t, err, holiday.ErrHolidayNotFound)

	_, err = svc.Create(ctx, holiday.CreateHolidayRequest{Date: "12/25/2024", Type: "bank"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.ToMap(), "date")
	assert.Contains(t, verrs.ToMap(), "type")

	assert.Eventually(t, func() bool {
		names := f.session.names()
		return len(names) == 3
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{
		notification.EventHolidayCreated,
		notification.EventHolidayUpdated,
		notification.EventHolidayDeleted,
	}, f.session.names())
}
