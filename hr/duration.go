/*
duration.go - Billable duration of a leave request

PURPOSE:
  Pure functions computing how much a leave request is worth against a
  balance, in units of days. The two categories bill differently:

  CategoryLeave (hourly-style):
    duration = wall-clock span between end and start, in 8-hour workdays.
    A 16-hour span is 2.0 days; a 4-hour span is 0.5 days.

  CategoryVacation (whole days):
    duration = count of calendar days walked from start (inclusive) up to
    end (exclusive), skipping rest days (Friday and Saturday).
    Monday -> following Monday is 5 days.

EDGE CASES:
  start == end yields zero for both categories. End >= start is the
  caller's responsibility; these functions do not re-validate.
*/
package hr

import (
	"time"

	"github.com/shopspring/decimal"
)

// WorkdayHours converts hourly-style spans into day units.
const WorkdayHours = 8

// IsRestDay reports whether the weekday is excluded from vacation counting.
// Rest days are Friday and Saturday.
func IsRestDay(d time.Weekday) bool {
	return d == time.Friday || d == time.Saturday
}

// LeaveDuration returns the billable length of a leave in days for the
// given category. The result is never negative for end >= start.
func LeaveDuration(category LeaveCategory, start, end time.Time) decimal.Decimal {
	if category == CategoryVacation {
		return decimal.NewFromInt(int64(vacationDays(start, end)))
	}
	hours := decimal.NewFromFloat(end.Sub(start).Hours())
	return hours.Div(decimal.NewFromInt(WorkdayHours))
}

// vacationDays walks day by day from start up to but not including end,
// counting every non-rest day.
func vacationDays(start, end time.Time) int {
	days := 0
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		if !IsRestDay(d.Weekday()) {
			days++
		}
	}
	return days
}
