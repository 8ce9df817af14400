package realtime

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
)

const defaultSSEBuffer = 10

// SSESession buffers events for one Server-Sent Events connection. A full
// buffer counts as a failed delivery so a stalled client cannot hold up the
// hub.
type SSESession struct {
	id     string
	events chan Event
	done   chan struct{}
	once   sync.Once
}

func NewSSESession(buffer int) *SSESession {
	if buffer <= 0 {
		buffer = defaultSSEBuffer
	}
	return &SSESession{
		id:     uuid.NewString(),
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}
}

func (s *SSESession) ID() string { return s.id }

// Events is drained by the HTTP handler that owns the connection.
func (s *SSESession) Events() <-chan Event { return s.events }

// Done is closed when the session is closed.
func (s *SSESession) Done() <-chan struct{} { return s.done }

func (s *SSESession) Send(ev Event) error {
	select {
	case <-s.done:
		return fmt.Errorf("%w: session %s closed", ErrDeliveryFailed, s.id)
	default:
	}

	select {
	case s.events <- ev:
		return nil
	default:
		return fmt.Errorf("%w: session %s buffer full", ErrDeliveryFailed, s.id)
	}
}

func (s *SSESession) Close() error {
	s.once.Do(func() { close(s.done) })
	return nil
}

// WriteSSE writes ev in text/event-stream framing.
func WriteSSE(w io.Writer, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, data)
	return err
}
