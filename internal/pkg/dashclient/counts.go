package dashclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cmlabs-hris/schedule-core/internal/domain/notification"
)

var ErrMalformedCounts = errors.New("malformed counts payload")

// countWrappers are the keys a counts object has been seen nested under.
var countWrappers = []string{"counts", "data", "pending_counts", "pendingCounts"}

// ParseCounts reads pending counts from any of the shapes the backend has
// used: a flat category map, or the same map nested under "data" or
// "counts" (at any depth). Values may be numbers or numeric strings.
// Unknown keys are ignored and Total is always recomputed.
func ParseCounts(raw []byte) (notification.Counts, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return notification.Counts{}, fmt.Errorf("%w: %v", ErrMalformedCounts, err)
	}

	m, ok := findCounts(obj, 0)
	if !ok {
		return notification.Counts{}, fmt.Errorf("%w: no category counts found", ErrMalformedCounts)
	}
	return notification.CountsFrom(m), nil
}

func findCounts(obj map[string]json.RawMessage, depth int) (map[notification.Category]int, bool) {
	if m := categoryValues(obj); len(m) > 0 {
		return m, true
	}
	if depth >= 3 {
		return nil, false
	}
	for _, key := range countWrappers {
		inner, ok := obj[key]
		if !ok {
			continue
		}
		var nested map[string]json.RawMessage
		if err := json.Unmarshal(inner, &nested); err != nil {
			continue
		}
		if m, ok := findCounts(nested, depth+1); ok {
			return m, true
		}
	}
	return nil, false
}

func categoryValues(obj map[string]json.RawMessage) map[notification.Category]int {
	out := make(map[notification.Category]int)
	for key, value := range obj {
		cat, ok := categoryOf(key)
		if !ok {
			continue
		}
		n, ok := countValue(value)
		if !ok {
			continue
		}
		out[cat] += n
	}
	return out
}

// categoryOf maps "leave", "Leave", "pending_leave" and "leave_count" to
// the leave category.
func categoryOf(key string) (notification.Category, bool) {
	k := strings.ToLower(strings.TrimSpace(key))
	k = strings.TrimPrefix(k, "pending_")
	k = strings.TrimSuffix(k, "_count")
	k = strings.TrimSuffix(k, "_pending")
	cat := notification.Category(k)
	return cat, cat.Valid()
}

func countValue(raw json.RawMessage) (int, bool) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return clampCount(f), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return clampCount(f), true
		}
	}
	return 0, false
}

func clampCount(f float64) int {
	if f <= 0 || math.IsNaN(f) {
		return 0
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}
