package notification

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountsFrom(t *testing.T) {
	c := CountsFrom(map[Category]int{
		CategoryLeave:    2,
		CategorySchedule: 3,
		CategoryHoliday:  -1,
		Category("misc"): 9,
	})

	assert.Equal(t, Counts{Leave: 2, Schedule: 3, Total: 5}, c)
	assert.Equal(t, 3, c.Of(CategorySchedule))
	assert.Equal(t, 0, c.Of(Category("misc")))
}

func TestCategory_Valid(t *testing.T) {
	for _, c := range AllCategories() {
		assert.True(t, c.Valid(), c)
	}
	assert.False(t, Category("payroll").Valid())
	assert.False(t, Category("").Valid())
}

func TestRecordEventRequest_Validate(t *testing.T) {
	ok := RecordEventRequest{Category: CategoryLeave, Title: "Leave request", EntityType: "leave_request", EntityID: "lr-1"}
	assert.NoError(t, ok.Validate())

	bad := RecordEventRequest{Category: "payroll", EntityID: "x"}
	err := bad.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "category")
	assert.Contains(t, err.Error(), "title")
	assert.Contains(t, err.Error(), "entity_type")
}

func TestRecordEventRequest_EventNotDecoded(t *testing.T) {
	var req RecordEventRequest
	err := json.Unmarshal([]byte(`{"category":"leave","title":"Leave request","event":"holiday_alert"}`), &req)
	assert.NoError(t, err)
	assert.Empty(t, req.Event)
	assert.Equal(t, CategoryLeave, req.Category)
}

func TestMarkAsReadRequest_Validate(t *testing.T) {
	assert.Error(t, (&MarkAsReadRequest{}).Validate())
	assert.Error(t, (&MarkAsReadRequest{NotificationIDs: []string{"a", " "}}).Validate())
	assert.NoError(t, (&MarkAsReadRequest{NotificationIDs: []string{"a"}}).Validate())

	bad := Category("payroll")
	assert.Error(t, (&MarkAsReadRequest{NotificationIDs: []string{"a"}, Category: &bad}).Validate())
}

func TestListFilter_Normalize(t *testing.T) {
	assert.Equal(t, DefaultListLimit, ListFilter{}.Normalize().Limit)
	assert.Equal(t, MaxListLimit, ListFilter{Limit: 10000}.Normalize().Limit)
	assert.Equal(t, 5, ListFilter{Limit: 5}.Normalize().Limit)
}
