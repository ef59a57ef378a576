package hr_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/warp/hr-engine/hr"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func days(n float64) decimal.Decimal {
	return decimal.NewFromFloat(n)
}

// =============================================================================
// VACATION DURATION TESTS
// =============================================================================

func TestLeaveDuration_Vacation_MondayToMonday(t *testing.T) {
	// GIVEN: A vacation from Monday to the following Monday
	// WHEN: Computing the duration
	// THEN: 5 days (Sun-Thu are workdays; Fri and Sat are skipped;
	//       the end Monday itself is not counted)

	start := date(2025, time.March, 3) // Monday
	end := date(2025, time.March, 10)  // next Monday

	got := hr.LeaveDuration(hr.CategoryVacation, start, end)

	assert.True(t, got.Equal(days(5)), "expected 5 days, got %v", got)
}

func TestLeaveDuration_Vacation_SkipsFridayAndSaturday(t *testing.T) {
	// GIVEN: A vacation spanning exactly Friday and Saturday
	// WHEN: Computing the duration
	// THEN: Zero days are billed

	start := date(2025, time.March, 7) // Friday
	end := date(2025, time.March, 9)   // Sunday

	got := hr.LeaveDuration(hr.CategoryVacation, start, end)

	assert.True(t, got.IsZero(), "rest days should not be billed, got %v", got)
}

func TestLeaveDuration_Vacation_EndDateExclusive(t *testing.T) {
	// GIVEN: A one-day vacation window (Sunday to Monday)
	// WHEN: Computing the duration
	// THEN: Only the start day counts

	start := date(2025, time.March, 9) // Sunday
	end := date(2025, time.March, 10)  // Monday

	got := hr.LeaveDuration(hr.CategoryVacation, start, end)

	assert.True(t, got.Equal(days(1)), "expected 1 day, got %v", got)
}

func TestLeaveDuration_Vacation_ZeroSpan(t *testing.T) {
	// GIVEN: start == end
	// WHEN: Computing the duration
	// THEN: Zero

	d := date(2025, time.March, 3)

	got := hr.LeaveDuration(hr.CategoryVacation, d, d)

	assert.True(t, got.IsZero(), "zero span should be zero days, got %v", got)
}

// =============================================================================
// HOURLY LEAVE DURATION TESTS
// =============================================================================

func TestLeaveDuration_Leave_SixteenHours(t *testing.T) {
	// GIVEN: An hourly-style leave spanning 16 hours
	// WHEN: Computing the duration
	// THEN: 2.0 days (16 / 8)

	start := time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC)
	end := start.Add(16 * time.Hour)

	got := hr.LeaveDuration(hr.CategoryLeave, start, end)

	assert.True(t, got.Equal(days(2)), "expected 2 days, got %v", got)
}

func TestLeaveDuration_Leave_FractionalDay(t *testing.T) {
	// GIVEN: A 4-hour leave
	// WHEN: Computing the duration
	// THEN: 0.5 days

	start := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)
	end := start.Add(4 * time.Hour)

	got := hr.LeaveDuration(hr.CategoryLeave, start, end)

	assert.True(t, got.Equal(days(0.5)), "expected 0.5 days, got %v", got)
}

func TestLeaveDuration_Leave_ZeroSpan(t *testing.T) {
	// GIVEN: start == end
	// WHEN: Computing the duration
	// THEN: Zero

	d := time.Date(2025, time.March, 3, 9, 0, 0, 0, time.UTC)

	got := hr.LeaveDuration(hr.CategoryLeave, d, d)

	assert.True(t, got.IsZero(), "zero span should be zero days, got %v", got)
}

// =============================================================================
// REST DAY TESTS
// =============================================================================

func TestIsRestDay(t *testing.T) {
	if !hr.IsRestDay(time.Friday) {
		t.Error("Friday should be a rest day")
	}
	if !hr.IsRestDay(time.Saturday) {
		t.Error("Saturday should be a rest day")
	}
	if hr.IsRestDay(time.Sunday) {
		t.Error("Sunday should be a workday")
	}
	if hr.IsRestDay(time.Monday) {
		t.Error("Monday should be a workday")
	}
}
