package planner

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"planmate/models"
	"planmate/services/geo"
	"planmate/services/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRouter struct {
	duration int
	calls    int
}

func (s *stubRouter) Route(_ context.Context, _, _ models.Coordinates) (geo.Route, error) {
	s.calls++
	return geo.Route{DurationSeconds: s.duration, DistanceMeters: float64(s.duration)}, nil
}

func ts(t *testing.T, value string) time.Time {
	t.Helper()
	v, err := time.Parse("2006-01-02 15:04", value)
	require.NoError(t, err)
	return v
}

func coords(lon, lat float64) *models.Coordinates {
	return &models.Coordinates{Lon: lon, Lat: lat}
}

func movie(t *testing.T, name, start string, durationMin int, price int, at *models.Coordinates) models.Candidate {
	t.Helper()
	return models.NewEventCandidate(models.ActivityMovie, models.TimedEvent{
		Name:            name,
		VenueName:       name + " cinema",
		StartTime:       ts(t, start),
		DurationMinutes: durationMin,
		MinPrice:        &price,
		Coords:          at,
	})
}

func eatery(name, hours string, at *models.Coordinates) models.Candidate {
	return models.NewPlaceCandidate(models.ActivityRestaurant, models.OpenHoursPlace{
		Name:     name,
		Schedule: hours,
		Coords:   at,
	})
}

func testInput(t *testing.T) BuildInput {
	t.Helper()
	return BuildInput{
		Order: []models.ActivityType{models.ActivityRestaurant, models.ActivityMovie},
		Pools: map[models.ActivityType][]models.Candidate{
			models.ActivityRestaurant: {eatery("bistro", "ежедневно 10:00-23:00", coords(37.60, 55.75))},
			models.ActivityMovie:      {movie(t, "Дюна", "2025-06-07 19:00", 120, 500, coords(37.62, 55.76))},
		},
		Pinned:      map[models.ActivityType]models.Candidate{},
		WindowStart: ts(t, "2025-06-07 18:00"),
		WindowEnd:   ts(t, "2025-06-07 23:59"),
		StartCoords: coords(37.58, 55.74),
	}
}

func TestBuildFeasiblePlan(t *testing.T) {
	router := &stubRouter{duration: 600}
	b := NewBuilder(router, schedule.NewParser())

	res := b.Build(context.Background(), testInput(t))
	require.NotNil(t, res.Plan)
	require.Len(t, res.Plan.Stops, 2)

	dinner, film := res.Plan.Stops[0], res.Plan.Stops[1]
	assert.Equal(t, models.ActivityRestaurant, dinner.Candidate.Type)
	assert.Equal(t, ts(t, "2025-06-07 18:10"), dinner.StartTime)
	assert.Equal(t, ts(t, "2025-06-07 18:40"), dinner.EndTime)

	assert.Equal(t, models.ActivityMovie, film.Candidate.Type)
	assert.Equal(t, ts(t, "2025-06-07 19:00"), film.StartTime)
	assert.Equal(t, ts(t, "2025-06-07 21:00"), film.EndTime)

	assert.Equal(t, 1200, res.Plan.TotalTravelSeconds)
}

func TestBuildRejectsUnreachableSession(t *testing.T) {
	in := testInput(t)
	// A showing starting one minute after the window opens cannot be
	// reached once travel is accounted for.
	in.Pools[models.ActivityMovie] = []models.Candidate{
		movie(t, "Комета", "2025-06-07 18:01", 120, 500, coords(37.62, 55.76)),
	}
	b := NewBuilder(&stubRouter{duration: 600}, schedule.NewParser())

	res := b.Build(context.Background(), in)
	require.Nil(t, res.Plan)
	assert.Contains(t, res.FailureReason, "Комета")
}

func TestBuildReportsMostCommonRejection(t *testing.T) {
	in := testInput(t)
	in.Pools[models.ActivityMovie] = []models.Candidate{
		movie(t, "Ночной", "2025-06-07 23:30", 120, 500, coords(37.62, 55.76)),
		movie(t, "Поздний", "2025-06-07 23:45", 120, 500, coords(37.63, 55.76)),
	}
	b := NewBuilder(&stubRouter{duration: 600}, schedule.NewParser())

	res := b.Build(context.Background(), in)
	require.Nil(t, res.Plan)
	assert.Contains(t, res.FailureReason, "past the end of the day")
}

func TestBuildHonorsPin(t *testing.T) {
	in := testInput(t)
	in.Pools[models.ActivityMovie] = []models.Candidate{
		movie(t, "first", "2025-06-07 19:00", 120, 300, coords(37.62, 55.76)),
		movie(t, "pinned", "2025-06-07 20:00", 120, 900, coords(37.63, 55.76)),
	}
	in.Pinned[models.ActivityMovie] = in.Pools[models.ActivityMovie][1]
	b := NewBuilder(&stubRouter{duration: 600}, schedule.NewParser())

	res := b.Build(context.Background(), in)
	require.NotNil(t, res.Plan)
	film, ok := res.Plan.StopFor(models.ActivityMovie)
	require.True(t, ok)
	assert.Equal(t, "pinned", film.Candidate.Name())
}

func TestBuildSortDirectivePicksCheapest(t *testing.T) {
	in := testInput(t)
	in.Pools[models.ActivityMovie] = []models.Candidate{
		movie(t, "pricey", "2025-06-07 19:00", 120, 900, coords(37.62, 55.76)),
		movie(t, "cheap", "2025-06-07 19:30", 120, 200, coords(37.63, 55.76)),
	}
	in.Sort = &models.SortDirective{
		Target:    models.ActivityMovie,
		Attribute: models.AttrPrice,
		Order:     models.OpMin,
	}
	b := NewBuilder(&stubRouter{duration: 600}, schedule.NewParser())

	res := b.Build(context.Background(), in)
	require.NotNil(t, res.Plan)
	film, ok := res.Plan.StopFor(models.ActivityMovie)
	require.True(t, ok)
	assert.Equal(t, "cheap", film.Candidate.Name())
}

func TestBuildCachesRepeatedLegs(t *testing.T) {
	in := testInput(t)
	// Two showings at the same venue share every leg, so the router is
	// only consulted once per distinct pair.
	venue := coords(37.62, 55.76)
	in.Pools[models.ActivityMovie] = []models.Candidate{
		movie(t, "early", "2025-06-07 23:50", 120, 500, venue),
		movie(t, "late", "2025-06-07 19:00", 120, 500, venue),
	}
	router := &stubRouter{duration: 600}
	b := NewBuilder(router, schedule.NewParser())

	res := b.Build(context.Background(), in)
	require.NotNil(t, res.Plan)
	assert.Equal(t, 2, router.calls)
	assert.Equal(t, 2, res.RouteLookups)
}

func TestBuildWarnsOnUnreadableSchedule(t *testing.T) {
	in := testInput(t)
	in.Pools[models.ActivityRestaurant] = []models.Candidate{
		eatery("secret bar", "по запросу", coords(37.60, 55.75)),
	}
	b := NewBuilder(&stubRouter{duration: 600}, schedule.NewParser())

	res := b.Build(context.Background(), in)
	require.NotNil(t, res.Plan)
	require.NotEmpty(t, res.Plan.Warnings)
	assert.Contains(t, res.Plan.Warnings[0], "secret bar")
}

type failingRouter struct{}

func (failingRouter) Route(_ context.Context, _, _ models.Coordinates) (geo.Route, error) {
	return geo.Route{}, errors.New("no road between points")
}

func TestBuildRejectsUnroutableLeg(t *testing.T) {
	b := NewBuilder(failingRouter{}, schedule.NewParser())

	res := b.Build(context.Background(), testInput(t))
	require.Nil(t, res.Plan)
	assert.Contains(t, res.FailureReason, "no route found")
}

func TestBuildFlexibleStartWaitsForOpening(t *testing.T) {
	in := testInput(t)
	in.WindowStart = ts(t, "2025-06-07 09:00")
	in.StartFlexible = true
	b := NewBuilder(&stubRouter{duration: 600}, schedule.NewParser())

	res := b.Build(context.Background(), in)
	require.NotNil(t, res.Plan)
	dinner, ok := res.Plan.StopFor(models.ActivityRestaurant)
	require.True(t, ok)
	assert.Equal(t, ts(t, "2025-06-07 10:00"), dinner.StartTime)
}

func TestBuildFixedStartRejectsArrivalBeforeOpening(t *testing.T) {
	in := testInput(t)
	// The user fixed a 09:00 start but the restaurant opens at 10:00, so
	// the combination is infeasible rather than silently delayed.
	in.WindowStart = ts(t, "2025-06-07 09:00")
	b := NewBuilder(&stubRouter{duration: 600}, schedule.NewParser())

	res := b.Build(context.Background(), in)
	require.Nil(t, res.Plan)
	assert.Contains(t, res.FailureReason, "bistro")
}

func TestBuildFlexibleDropsSessionsBeforeWindow(t *testing.T) {
	in := testInput(t)
	in.WindowStart = ts(t, "2025-06-07 12:00")
	in.StartFlexible = true
	in.Pools[models.ActivityMovie] = []models.Candidate{
		movie(t, "утренний", "2025-06-07 08:00", 120, 300, coords(37.62, 55.76)),
		movie(t, "вечерний", "2025-06-07 19:00", 120, 500, coords(37.63, 55.76)),
	}
	b := NewBuilder(&stubRouter{duration: 600}, schedule.NewParser())

	res := b.Build(context.Background(), in)
	require.NotNil(t, res.Plan)
	film, ok := res.Plan.StopFor(models.ActivityMovie)
	require.True(t, ok)
	assert.Equal(t, "вечерний", film.Candidate.Name())
	// The morning session never makes the shortlist.
	assert.Equal(t, 1, res.Combinations)
}

func TestBuildShortlistKeepsEarliestSessions(t *testing.T) {
	in := testInput(t)
	// Eleven showings, the only feasible one listed last. The shortlist
	// cap keeps the earliest starts, so it must survive the cut.
	pool := make([]models.Candidate, 0, ShortlistCap+1)
	for i := 0; i < ShortlistCap; i++ {
		pool = append(pool, movie(t, fmt.Sprintf("ночной %d", i), "2025-06-07 23:30", 120, 500, coords(37.62, 55.76)))
	}
	pool = append(pool, movie(t, "вечерний", "2025-06-07 19:00", 120, 500, coords(37.63, 55.76)))
	in.Pools[models.ActivityMovie] = pool
	b := NewBuilder(&stubRouter{duration: 600}, schedule.NewParser())

	res := b.Build(context.Background(), in)
	require.NotNil(t, res.Plan)
	film, ok := res.Plan.StopFor(models.ActivityMovie)
	require.True(t, ok)
	assert.Equal(t, "вечерний", film.Candidate.Name())
}

func TestBuildFailsOnEmptyPool(t *testing.T) {
	in := testInput(t)
	in.Pools[models.ActivityMovie] = nil
	b := NewBuilder(&stubRouter{duration: 600}, schedule.NewParser())

	res := b.Build(context.Background(), in)
	require.Nil(t, res.Plan)
	assert.Contains(t, res.FailureReason, "MOVIE")
}
