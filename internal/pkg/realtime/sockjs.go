package realtime

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/igm/sockjs-go/sockjs"
)

// SockJS close codes sent to rejected clients.
const (
	CloseUnauthorized = 4001
	CloseShutdown     = 4000
)

// SockJSSession adapts a sockjs connection to Session.
type SockJSSession struct {
	id   string
	conn sockjs.Session
}

func NewSockJSSession(conn sockjs.Session) *SockJSSession {
	return &SockJSSession{id: uuid.NewString(), conn: conn}
}

func (s *SockJSSession) ID() string { return s.id }

func (s *SockJSSession) Send(ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", ErrDeliveryFailed, ev.Name, err)
	}
	if err := s.conn.Send(string(payload)); err != nil {
		return fmt.Errorf("%w: session %s: %v", ErrDeliveryFailed, s.id, err)
	}
	return nil
}

func (s *SockJSSession) Close() error {
	return s.conn.Close(CloseShutdown, "session closed")
}

// Subscriber is the part of the notification service a transport needs.
type Subscriber interface {
	Subscribe(session Session)
	Unsubscribe(sessionID string)
}

// NewSockJSHandler serves the SockJS endpoint under prefix. authorize
// rejects connections before they are subscribed. Inbound messages are
// ignored; the channel only carries server pushes.
func NewSockJSHandler(prefix string, sub Subscriber, authorize func(r *http.Request) error, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return sockjs.NewHandler(prefix, sockjs.DefaultOptions, func(conn sockjs.Session) {
		if authorize != nil {
			if err := authorize(conn.Request()); err != nil {
				_ = conn.Close(CloseUnauthorized, "unauthorized")
				return
			}
		}

		session := NewSockJSSession(conn)
		sub.Subscribe(session)
		defer sub.Unsubscribe(session.ID())

		logger.Info("sockjs session opened", slog.String("session_id", session.ID()))
		for {
			if _, err := conn.Recv(); err != nil {
				logger.Info("sockjs session closed", slog.String("session_id", session.ID()))
				return
			}
		}
	})
}
