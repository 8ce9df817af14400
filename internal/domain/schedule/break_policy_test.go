package schedule

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/schedule-core/internal/domain/employee"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/clock"
	"github.com/cmlabs-hris/schedule-core/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaxBreak(t *testing.T) {
	assert.Equal(t, 15*time.Minute, MaxBreak(employee.EmploymentClassProbationary))
	assert.Equal(t, 60*time.Minute, MaxBreak(employee.EmploymentClassRegular))
	assert.Equal(t, 60*time.Minute, MaxBreak(employee.EmploymentClassContractual))
	assert.Equal(t, 60*time.Minute, MaxBreak(employee.EmploymentClass("Intern")))
}

func TestValidateBreak_ProbationaryClampedTo15(t *testing.T) {
	res, err := ValidateBreak(clock.MustParse("12:00"), clock.MustParse("13:30"), employee.EmploymentClassProbationary)

	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.True(t, res.Adjusted)
	require.NotNil(t, res.ClampedEnd)
	assert.Equal(t, "12:15", res.ClampedEnd.String())
	assert.Equal(t, "12:15", res.End.String())
}

func TestValidateBreak_ClampTable(t *testing.T) {
	cases := []struct {
		class      employee.EmploymentClass
		start, end string
		adjusted   bool
		wantEnd    string
	}{
		{employee.EmploymentClassProbationary, "12:00", "12:15", false, "12:15"},
		{employee.EmploymentClassProbationary, "12:00", "12:16", true, "12:15"},
		{employee.EmploymentClassProbationary, "10:40", "11:40", true, "10:55"},
		{employee.EmploymentClassRegular, "12:00", "13:00", false, "13:00"},
		{employee.EmploymentClassRegular, "12:00", "13:01", true, "13:00"},
		{employee.EmploymentClassContractual, "11:30", "14:00", true, "12:30"},
		{employee.EmploymentClassRegular, "12:00", "12:01", false, "12:01"},
	}

	for _, tc := range cases {
		res, err := ValidateBreak(clock.MustParse(tc.start), clock.MustParse(tc.end), tc.class)
		require.NoError(t, err)
		assert.Equal(t, tc.adjusted, res.Adjusted, "%s %s-%s", tc.class, tc.start, tc.end)
		assert.Equal(t, !tc.adjusted, res.Valid, "%s %s-%s", tc.class, tc.start, tc.end)
		assert.Equal(t, tc.wantEnd, res.End.String(), "%s %s-%s", tc.class, tc.start, tc.end)
		if tc.adjusted {
			require.NotNil(t, res.ClampedEnd)
			assert.Equal(t, MaxBreak(tc.class), res.ClampedEnd.Sub(res.Start))
		} else {
			assert.Nil(t, res.ClampedEnd)
		}
	}
}

func TestValidateBreak_RejectsEmptyOrReversedWindow(t *testing.T) {
	for _, window := range [][2]string{{"12:00", "12:00"}, {"13:00", "12:00"}} {
		_, err := ValidateBreak(clock.MustParse(window[0]), clock.MustParse(window[1]), employee.EmploymentClassRegular)
		require.Error(t, err)

		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "break_end", verrs[0].Field)
	}
}

func TestBreakValidation_Notice(t *testing.T) {
	res, err := ValidateBreak(clock.MustParse("12:00"), clock.MustParse("13:30"), employee.EmploymentClassProbationary)
	require.NoError(t, err)

	notice := res.Notice(clock.Monday, clock.MustParse("13:30"))

	assert.Equal(t, clock.Monday, notice.Weekday)
	assert.Equal(t, 15, notice.MaxMinutes)
	assert.Equal(t, "12:15", notice.ClampedTo.String())
	assert.Equal(t, "13:30", notice.RequestedTo.String())
	assert.Contains(t, notice.Message, "15 minutes")
}
