package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return d
}

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", value)
	require.NoError(t, err)
	return ts
}

func TestIntervalsForDailyRange(t *testing.T) {
	p := NewParser()

	// 2025-06-07 is a Saturday.
	intervals, ok := p.IntervalsFor("Пн–Вс 11:11–24:00", day(t, "2025-06-07"))
	require.True(t, ok)
	require.Len(t, intervals, 1) // a 24:00 close lands exactly on midnight, no next-day tail

	assert.Equal(t, at(t, "2025-06-07 11:11"), intervals[0].Open)
	assert.Equal(t, at(t, "2025-06-08 00:00"), intervals[0].Close)
}

func TestIntervalsForEnglishDayList(t *testing.T) {
	p := NewParser()

	// 2025-06-06 is a Friday.
	intervals, ok := p.IntervalsFor("Mon, Wed, Fri 09:00-18:00", day(t, "2025-06-06"))
	require.True(t, ok)
	require.Len(t, intervals, 1)
	assert.Equal(t, at(t, "2025-06-06 09:00"), intervals[0].Open)
	assert.Equal(t, at(t, "2025-06-06 18:00"), intervals[0].Close)

	// Closed Thursday.
	intervals, ok = p.IntervalsFor("Mon, Wed, Fri 09:00-18:00", day(t, "2025-06-05"))
	require.True(t, ok)
	assert.Empty(t, intervals)
}

func TestIntervalsForOvernightTail(t *testing.T) {
	p := NewParser()

	// A bar closing at 02:00 is still open in the small hours of the
	// next calendar day.
	intervals, ok := p.IntervalsFor("ежедневно 18:00–02:00", day(t, "2025-06-07"))
	require.True(t, ok)
	require.Len(t, intervals, 2)

	assert.Equal(t, at(t, "2025-06-07 18:00"), intervals[0].Open)
	assert.Equal(t, at(t, "2025-06-08 02:00"), intervals[0].Close)
	assert.Equal(t, at(t, "2025-06-07 00:00"), intervals[1].Open)
	assert.Equal(t, at(t, "2025-06-07 02:00"), intervals[1].Close)
}

func TestIntervalsForAroundTheClock(t *testing.T) {
	p := NewParser()

	intervals, ok := p.IntervalsFor("круглосуточно", day(t, "2025-06-07"))
	require.True(t, ok)
	require.NotEmpty(t, intervals)
	assert.Equal(t, at(t, "2025-06-07 00:00"), intervals[0].Open)
	assert.Equal(t, at(t, "2025-06-08 00:00"), intervals[0].Close)
}

func TestIntervalsForUnparsable(t *testing.T) {
	p := NewParser()

	_, ok := p.IntervalsFor("уточняйте по телефону", day(t, "2025-06-07"))
	assert.False(t, ok)

	_, ok = p.IntervalsFor("", day(t, "2025-06-07"))
	assert.False(t, ok)
}

func TestFitVisitInsideOpenHours(t *testing.T) {
	p := NewParser()

	v, ok := FitVisit(p, "ежедневно 10:00-22:00",
		at(t, "2025-06-07 12:00"), at(t, "2025-06-07 14:00"), 30*time.Minute, false)
	require.True(t, ok)
	assert.Equal(t, at(t, "2025-06-07 12:00"), v.Start)
	assert.Equal(t, at(t, "2025-06-07 14:00"), v.End)
	assert.False(t, v.AssumedOpen)
}

func TestFitVisitRejectsArrivalBeforeOpening(t *testing.T) {
	p := NewParser()

	_, ok := FitVisit(p, "ежедневно 13:00-22:00",
		at(t, "2025-06-07 12:00"), at(t, "2025-06-07 15:00"), 30*time.Minute, false)
	assert.False(t, ok)
}

func TestFitVisitWaitsForOpeningWhenFlexible(t *testing.T) {
	p := NewParser()

	v, ok := FitVisit(p, "ежедневно 13:00-22:00",
		at(t, "2025-06-07 12:00"), at(t, "2025-06-07 15:00"), 30*time.Minute, true)
	require.True(t, ok)
	assert.Equal(t, at(t, "2025-06-07 13:00"), v.Start)
}

func TestFitVisitTooShort(t *testing.T) {
	p := NewParser()

	_, ok := FitVisit(p, "ежедневно 10:00-12:15",
		at(t, "2025-06-07 12:00"), at(t, "2025-06-07 23:59"), 30*time.Minute, false)
	assert.False(t, ok)
}

func TestFitVisitAssumesOpenWhenUnparsable(t *testing.T) {
	p := NewParser()

	v, ok := FitVisit(p, "по записи",
		at(t, "2025-06-07 12:00"), at(t, "2025-06-07 13:00"), 30*time.Minute, false)
	require.True(t, ok)
	assert.True(t, v.AssumedOpen)
	assert.Equal(t, at(t, "2025-06-07 12:00"), v.Start)
	assert.Equal(t, at(t, "2025-06-07 13:00"), v.End)
}
