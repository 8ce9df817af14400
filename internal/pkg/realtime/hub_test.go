package realtime

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSession struct {
	id     string
	fail   bool
	mu     sync.Mutex
	got    []Event
	closed bool

	beforeSend func()
}

func (f *fakeSession) ID() string { return f.id }

func (f *fakeSession) Send(ev Event) error {
	if f.beforeSend != nil {
		f.beforeSend()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broken pipe")
	}
	f.got = append(f.got, ev)
	return nil
}

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSession) received() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Event(nil), f.got...)
}

func TestHub_PublishOnlyToSubscribed(t *testing.T) {
	hub := NewHub(nil)
	a, b, c := &fakeSession{id: "a"}, &fakeSession{id: "b"}, &fakeSession{id: "c"}
	hub.Subscribe("admin-dashboard", a)
	hub.Subscribe("admin-dashboard", b)
	hub.Subscribe("admin-dashboard", c)
	require.True(t, hub.Unsubscribe("admin-dashboard", "c"))

	delivered := hub.Publish("admin-dashboard", Event{Name: "new_pending_request"})

	assert.Equal(t, 2, delivered)
	assert.Len(t, a.received(), 1)
	assert.Len(t, b.received(), 1)
	assert.Empty(t, c.received())
	assert.False(t, a.received()[0].SentAt.IsZero())
}

func TestHub_FailedSessionIsDropped(t *testing.T) {
	hub := NewHub(nil)
	good, bad := &fakeSession{id: "good"}, &fakeSession{id: "bad", fail: true}
	hub.Subscribe("t", good)
	hub.Subscribe("t", bad)

	assert.Equal(t, 1, hub.Publish("t", Event{Name: "x"}))
	assert.Equal(t, 1, hub.SubscriberCount("t"))
	assert.True(t, bad.closed)

	assert.Equal(t, 1, hub.Publish("t", Event{Name: "y"}))
	assert.Len(t, good.received(), 2)
}

func TestHub_LateFailureKeepsReplacement(t *testing.T) {
	hub := NewHub(nil)
	replacement := &fakeSession{id: "s1"}
	stale := &fakeSession{id: "s1", fail: true}
	stale.beforeSend = func() { hub.Subscribe("t", replacement) }
	hub.Subscribe("t", stale)

	assert.Equal(t, 0, hub.Publish("t", Event{Name: "x"}))
	assert.True(t, stale.closed)
	assert.Equal(t, 1, hub.SubscriberCount("t"))

	assert.Equal(t, 1, hub.Publish("t", Event{Name: "y"}))
	assert.Len(t, replacement.received(), 1)
	assert.False(t, replacement.closed)
}

func TestHub_TopicsAreIsolated(t *testing.T) {
	hub := NewHub(nil)
	a, b := &fakeSession{id: "a"}, &fakeSession{id: "b"}
	hub.Subscribe("one", a)
	hub.Subscribe("two", b)

	hub.Publish("one", Event{Name: "x"})

	assert.Len(t, a.received(), 1)
	assert.Empty(t, b.received())
	assert.Equal(t, 2, hub.TotalSubscribers())
	assert.False(t, hub.Unsubscribe("one", "b"))
}

func TestHub_CloseAll(t *testing.T) {
	hub := NewHub(nil)
	a := &fakeSession{id: "a"}
	hub.Subscribe("t", a)

	hub.CloseAll()

	assert.True(t, a.closed)
	assert.Equal(t, 0, hub.TotalSubscribers())
}

func TestSSESession_BufferFullFails(t *testing.T) {
	s := NewSSESession(1)

	require.NoError(t, s.Send(Event{Name: "a"}))
	err := s.Send(Event{Name: "b"})

	assert.ErrorIs(t, err, ErrDeliveryFailed)
	ev := <-s.Events()
	assert.Equal(t, "a", ev.Name)
}

func TestSSESession_SendAfterClose(t *testing.T) {
	s := NewSSESession(0)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	assert.ErrorIs(t, s.Send(Event{Name: "a"}), ErrDeliveryFailed)
	select {
	case <-s.Done():
	default:
		t.Fatal("Done not closed")
	}
}

func TestWriteSSE(t *testing.T) {
	var sb strings.Builder

	require.NoError(t, WriteSSE(&sb, Event{Name: "holiday_alert", Data: map[string]string{"id": "h1"}}))

	out := sb.String()
	assert.True(t, strings.HasPrefix(out, "event: holiday_alert\ndata: {"))
	assert.Contains(t, out, `"id":"h1"`)
	assert.True(t, strings.HasSuffix(out, "\n\n"))
}
