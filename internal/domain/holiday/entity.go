package holiday

import (
	"time"
)

type Type string

const (
	TypeCompany Type = "company"
	TypeSpecial Type = "special"
	TypeRegular Type = "regular"
)

var TypeValues = []string{
	string(TypeCompany),
	string(TypeSpecial),
	string(TypeRegular),
}

// Holiday is a calendar date off. Date holds the calendar day at UTC
// midnight; recurring holidays repeat on the same month and day every year.
type Holiday struct {
	ID          string
	Date        time.Time
	Type        Type
	Title       string
	Description *string
	IsRecurring bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OccursOn reports whether h falls on the calendar date of day, read in
// day's own location.
func (h Holiday) OccursOn(day time.Time) bool {
	y, m, d := day.Date()
	hy, hm, hd := h.Date.Date()
	if h.IsRecurring {
		return hm == m && hd == d
	}
	return hy == y && hm == m && hd == d
}

// HolidaysOn converts nowUTC to the calendar date in loc and returns every
// holiday on that date, in input order.
func HolidaysOn(holidays []Holiday, nowUTC time.Time, loc *time.Location) []Holiday {
	if loc == nil {
		loc = time.UTC
	}
	local := nowUTC.In(loc)

	var matches []Holiday
	for _, h := range holidays {
		if h.OccursOn(local) {
			matches = append(matches, h)
		}
	}
	return matches
}
