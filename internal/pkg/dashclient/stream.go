package dashclient

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/cmlabs-hris/schedule-core/internal/domain/notification"
)

// Live event names pushed by the backend. Every one of them is a hint to
// re-fetch; none carries authoritative state.
const (
	EventConnected            = "connected"
	EventPing                 = "ping"
	EventNewPendingRequest    = "new_pending_request"
	EventRequestsUpdated      = "requests_updated"
	EventRefreshNotifications = "refresh_notifications"
	EventScheduleUpdated      = "schedule_updated"
	EventHolidayToday         = "holiday_today"
	EventHolidayAlert         = "holiday_alert"
)

var errStreamClosed = errors.New("event stream closed")

// Hint is one live event.
type Hint struct {
	Event string
	Data  json.RawMessage
}

type wireEvent struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// Listen opens the SSE stream once and calls fn for every event except
// pings, in arrival order. It returns when the stream ends or ctx is done.
func (c *Client) Listen(ctx context.Context, fn func(Hint)) error {
	token, err := c.SSEToken(ctx)
	if err != nil {
		return err
	}

	u := c.BaseURL + "/api/v1/notifications/stream?" + url.Values{"token": {token}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")

	// The stream outlives any client timeout.
	streamClient := &http.Client{Transport: c.HTTP.Transport}
	resp, err := streamClient.Do(req)
	if err != nil {
		return &BackendError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &BackendError{StatusCode: resp.StatusCode, Reason: resp.Status}
	}

	return readEvents(resp.Body, fn)
}

func readEvents(body io.Reader, fn func(Hint)) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var name string
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if data.Len() > 0 || name != "" {
				dispatch(name, data.String(), fn)
			}
			name = ""
			data.Reset()
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := scanner.Err(); err != nil {
		return &BackendError{Err: err}
	}
	return errStreamClosed
}

func dispatch(name, payload string, fn func(Hint)) {
	h := Hint{Event: name}
	var ev wireEvent
	if err := json.Unmarshal([]byte(payload), &ev); err == nil {
		if h.Event == "" {
			h.Event = ev.Name
		}
		h.Data = ev.Data
	} else if payload != "" {
		h.Data = json.RawMessage(payload)
	}
	if h.Event == "" || h.Event == EventPing {
		return
	}
	fn(h)
}

// Watch keeps a stream open until ctx is done, reconnecting with
// exponential backoff. The backoff resets once a connection is confirmed.
// Events missed while disconnected are not replayed; callers reconcile on
// every EventConnected.
func (c *Client) Watch(ctx context.Context, fn func(Hint)) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 30 * time.Second

	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := c.Listen(ctx, func(h Hint) {
			if h.Event == EventConnected {
				b.Reset()
			}
			fn(h)
		})
		if ctx.Err() != nil {
			return struct{}{}, backoff.Permanent(ctx.Err())
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn("live stream lost; reconnecting",
				slog.String("error", err.Error()),
				slog.Duration("retry_in", next))
		}),
	)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// NotificationOf returns the notification a hint carries, if any.
func NotificationOf(h Hint) (notification.NotificationResponse, bool) {
	var payload struct {
		Notification *notification.NotificationResponse `json:"notification"`
	}
	if len(h.Data) == 0 || json.Unmarshal(h.Data, &payload) != nil || payload.Notification == nil {
		return notification.NotificationResponse{}, false
	}
	return *payload.Notification, payload.Notification.ID != ""
}
