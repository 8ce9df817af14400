package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/cmlabs-hris/schedule-core/internal/domain/notification"
	"github.com/cmlabs-hris/schedule-core/internal/handler/http/response"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/jwt"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/realtime"
	"github.com/go-chi/jwtauth/v5"
)

const sseKeepaliveInterval = 30 * time.Second

// NotificationHandler defines the notification handler interface
type NotificationHandler interface {
	// Notifications
	Counts(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	MarkAsRead(w http.ResponseWriter, r *http.Request)
	MarkAllAsRead(w http.ResponseWriter, r *http.Request)
	RecordEvent(w http.ResponseWriter, r *http.Request)

	// Holiday notifications
	ListHoliday(w http.ResponseWriter, r *http.Request)
	MarkHolidayAsRead(w http.ResponseWriter, r *http.Request)

	// SSE
	GetSSEToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type notificationHandlerImpl struct {
	notifService notification.Service
	jwtService   jwt.Service
	sseBuffer    int
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifService notification.Service, jwtService jwt.Service, sseBuffer int) NotificationHandler {
	return &notificationHandlerImpl{
		notifService: notifService,
		jwtService:   jwtService,
		sseBuffer:    sseBuffer,
	}
}

// getUserIDFromContext extracts user_id from JWT context
func getUserIDFromContext(r *http.Request) string {
	_, claims, _ := jwtauth.FromContext(r.Context())
	if userID, ok := claims["user_id"].(string); ok {
		return userID
	}
	return ""
}

// getIntQueryParam gets an int query parameter with a default value
func getIntQueryParam(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return intVal
}

// getBoolQueryParam gets a bool query parameter with a default value
func getBoolQueryParam(r *http.Request, key string, defaultVal bool) bool {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	return val == "true" || val == "1"
}

// Counts returns the unread count per category
func (h *notificationHandlerImpl) Counts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.notifService.Counts(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, counts)
}

// List returns recent notifications with the current counts
func (h *notificationHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := notification.ListFilter{
		UnreadOnly: getBoolQueryParam(r, "unread_only", false),
		Limit:      getIntQueryParam(r, "limit", 0),
	}
	if category := r.URL.Query().Get("category"); category != "" {
		c := notification.Category(category)
		filter.Category = &c
	}

	result, err := h.notifService.Recent(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// MarkAsRead marks specified notifications as read
func (h *notificationHandlerImpl) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	var req notification.MarkAsReadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.notifService.MarkRead(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Notifications marked as read", result)
}

// MarkAllAsRead marks all notifications as read, optionally in one category
func (h *notificationHandlerImpl) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	var req notification.MarkAllReadRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request body", nil)
			return
		}
	}

	result, err := h.notifService.MarkAllRead(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "All notifications marked as read", result)
}

// RecordEvent takes events from the leave and makeup modules
func (h *notificationHandlerImpl) RecordEvent(w http.ResponseWriter, r *http.Request) {
	var req notification.RecordEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.notifService.RecordEvent(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Notification recorded", result)
}

// ListHoliday returns recent holiday notifications
func (h *notificationHandlerImpl) ListHoliday(w http.ResponseWriter, r *http.Request) {
	category := notification.CategoryHoliday
	result, err := h.notifService.Recent(r.Context(), notification.ListFilter{
		Category:   &category,
		UnreadOnly: getBoolQueryParam(r, "unread_only", false),
		Limit:      getIntQueryParam(r, "limit", 0),
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// MarkHolidayAsRead marks the given holiday notifications read, or all of
// them when no ids are sent.
func (h *notificationHandlerImpl) MarkHolidayAsRead(w http.ResponseWriter, r *http.Request) {
	var req notification.MarkAsReadRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request body", nil)
			return
		}
	}

	var (
		result   notification.MarkReadResponse
		err      error
		category = notification.CategoryHoliday
	)
	if len(req.NotificationIDs) == 0 {
		result, err = h.notifService.MarkAllRead(r.Context(), notification.MarkAllReadRequest{Category: &category})
	} else {
		req.Category = &category
		result, err = h.notifService.MarkRead(r.Context(), req)
	}
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Holiday notifications marked as read", result)
}

// GetSSEToken generates a short-lived token for SSE connections
func (h *notificationHandlerImpl) GetSSEToken(w http.ResponseWriter, r *http.Request) {
	userID := getUserIDFromContext(r)
	if userID == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	token, expiresIn, err := h.jwtService.GenerateSSEToken(userID)
	if err != nil {
		response.InternalServerError(w, "Failed to generate SSE token")
		return
	}

	response.Success(w, notification.SSETokenResponse{
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

// Stream handles the SSE connection of one admin dashboard
func (h *notificationHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	// Get token from query parameter (SSE doesn't support custom headers)
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Missing token", http.StatusUnauthorized)
		return
	}

	userID, err := h.jwtService.ValidateSSEToken(tokenStr)
	if err != nil {
		http.Error(w, "Invalid token", http.StatusUnauthorized)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	session := realtime.NewSSESession(h.sseBuffer)
	h.notifService.Subscribe(session)
	defer func() {
		h.notifService.Unsubscribe(session.ID())
		_ = session.Close()
	}()

	// No replay: the client fetches counts and recent items after this event.
	_ = realtime.WriteSSE(w, realtime.Event{
		Name:   "connected",
		Data:   map[string]string{"status": "connected", "user_id": userID, "session_id": session.ID()},
		SentAt: time.Now().UTC(),
	})
	flusher.Flush()

	keepalive := time.NewTicker(sseKeepaliveInterval)
	defer keepalive.Stop()

	for {
		select {
		case ev := <-session.Events():
			if err := realtime.WriteSSE(w, ev); err != nil {
				return
			}
			flusher.Flush()

		case <-keepalive.C:
			_ = realtime.WriteSSE(w, realtime.Event{
				Name:   "ping",
				Data:   map[string]int64{"timestamp": time.Now().Unix()},
				SentAt: time.Now().UTC(),
			})
			flusher.Flush()

		case <-session.Done():
			return

		case <-r.Context().Done():
			return
		}
	}
}
