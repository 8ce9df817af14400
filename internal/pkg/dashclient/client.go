package dashclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/schedule-core/internal/domain/holiday"
	"github.com/cmlabs-hris/schedule-core/internal/domain/notification"
	"github.com/cmlabs-hris/schedule-core/internal/domain/schedulerequest"
)

// ErrBackendUnavailable matches every BackendError.
var ErrBackendUnavailable = errors.New("backend unavailable")

// BackendError is a failed call to the schedule core API. Reason carries
// the backend's own message when it sent one.
type BackendError struct {
	StatusCode int
	Code       string
	Reason     string
	Err        error
}

func (e *BackendError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode == 0:
		return fmt.Sprintf("backend unavailable: %v", e.Err)
	case e.Code != "":
		return fmt.Sprintf("backend error [%d] %s: %s", e.StatusCode, e.Code, e.Reason)
	}
	return fmt.Sprintf("backend error [%d]: %s", e.StatusCode, e.Reason)
}

func (e *BackendError) Unwrap() error { return e.Err }

func (e *BackendError) Is(target error) bool { return target == ErrBackendUnavailable }

// Client talks to the /api/v1 surface with an admin access token.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
	Logger  *slog.Logger
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP: &http.Client{
			Timeout: 25 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// do sends the request and returns the raw data of the response envelope.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body interface{}) (json.RawMessage, error) {
	u := c.BaseURL + "/api/v1" + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, &BackendError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &BackendError{StatusCode: resp.StatusCode, Err: err}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		reason := strings.TrimSpace(string(raw))
		if reason == "" {
			reason = resp.Status
		}
		return nil, &BackendError{StatusCode: resp.StatusCode, Reason: reason, Err: err}
	}

	if resp.StatusCode >= 300 || !env.Success {
		be := &BackendError{StatusCode: resp.StatusCode, Reason: env.Message}
		if env.Error != nil {
			be.Code = env.Error.Code
			if env.Error.Message != "" {
				be.Reason = env.Error.Message
			}
		}
		if be.Reason == "" {
			be.Reason = resp.Status
		}
		return nil, be
	}
	return env.Data, nil
}

// Counts fetches the pending counts per category.
func (c *Client) Counts(ctx context.Context) (notification.Counts, error) {
	data, err := c.do(ctx, http.MethodGet, "/notifications/counts", nil, nil)
	if err != nil {
		return notification.Counts{}, err
	}
	return ParseCounts(data)
}

// Recent fetches the newest notifications, newest first.
func (c *Client) Recent(ctx context.Context, limit int) ([]notification.NotificationResponse, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	data, err := c.do(ctx, http.MethodGet, "/notifications", q, nil)
	if err != nil {
		return nil, err
	}
	var list notification.NotificationListResponse
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, &BackendError{StatusCode: http.StatusOK, Reason: "malformed notification list", Err: err}
	}
	return list.Notifications, nil
}

// HolidaysToday fetches today's holidays. It also raises any alert the
// backend has not raised yet for the day.
func (c *Client) HolidaysToday(ctx context.Context) (holiday.TodayResponse, error) {
	data, err := c.do(ctx, http.MethodGet, "/holidays/today", nil, nil)
	if err != nil {
		return holiday.TodayResponse{}, err
	}
	var today holiday.TodayResponse
	if err := json.Unmarshal(data, &today); err != nil {
		return holiday.TodayResponse{}, &BackendError{StatusCode: http.StatusOK, Reason: "malformed holiday list", Err: err}
	}
	return today, nil
}

// SSEToken exchanges the access token for a short-lived stream token.
func (c *Client) SSEToken(ctx context.Context) (string, error) {
	data, err := c.do(ctx, http.MethodGet, "/notifications/sse-token", nil, nil)
	if err != nil {
		return "", err
	}
	var tok notification.SSETokenResponse
	if err := json.Unmarshal(data, &tok); err != nil || tok.Token == "" {
		return "", &BackendError{StatusCode: http.StatusOK, Reason: "malformed sse token response", Err: err}
	}
	return tok.Token, nil
}

// MarkRead marks the given notifications read and returns how many flipped.
func (c *Client) MarkRead(ctx context.Context, ids []string) (int, error) {
	data, err := c.do(ctx, http.MethodPost, "/notifications/mark-read", nil, notification.MarkAsReadRequest{NotificationIDs: ids})
	if err != nil {
		return 0, err
	}
	var res notification.MarkReadResponse
	if err := json.Unmarshal(data, &res); err != nil {
		return 0, &BackendError{StatusCode: http.StatusOK, Reason: "malformed mark-read response", Err: err}
	}
	return res.Updated, nil
}

// Dispose approves or rejects a pending request on behalf of processedBy.
func (c *Client) Dispose(ctx context.Context, id string, status schedulerequest.Status, processedBy, remarks string) (schedulerequest.ScheduleRequestResponse, error) {
	body := schedulerequest.PatchScheduleRequest{Status: status, ProcessedBy: processedBy}
	if remarks != "" {
		body.AdminRemarks = &remarks
	}
	data, err := c.do(ctx, http.MethodPatch, "/schedule-requests/"+url.PathEscape(id), nil, body)
	if err != nil {
		return schedulerequest.ScheduleRequestResponse{}, err
	}
	var res schedulerequest.ScheduleRequestResponse
	if err := json.Unmarshal(data, &res); err != nil {
		return schedulerequest.ScheduleRequestResponse{}, &BackendError{StatusCode: http.StatusOK, Reason: "malformed schedule request", Err: err}
	}
	return res, nil
}
