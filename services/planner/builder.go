package planner

import (
	"context"
	"fmt"
	"sort"
	"time"

	"planmate/models"
	"planmate/services/geo"
	"planmate/services/schedule"
	"planmate/utils"

	"go.uber.org/zap"
)

const (
	// ShortlistCap bounds how many candidates per activity enter the
	// combinatorial search.
	ShortlistCap = 10
	// RouteLookupCap bounds the number of routing API calls one build may
	// spend. When it runs out the best plan found so far wins.
	RouteLookupCap = 25

	// DefaultEventDuration is assumed for timed events whose duration is
	// unknown.
	DefaultEventDuration = 120 * time.Minute
	// DefaultVisitDuration is how long an open-hours stop occupies the
	// timeline when more time is available.
	DefaultVisitDuration = 30 * time.Minute

	// MinParkVisit and MinMealVisit are the shortest stays worth planning.
	MinParkVisit = 1 * time.Minute
	MinMealVisit = 30 * time.Minute
)

// BuildInput is everything one builder run needs.
type BuildInput struct {
	// Order lists the activity types in the sequence the day should
	// follow.
	Order  []models.ActivityType
	Pools  map[models.ActivityType][]models.Candidate
	Pinned map[models.ActivityType]models.Candidate

	WindowStart time.Time
	WindowEnd   time.Time
	StartCoords *models.Coordinates

	// StartFlexible marks a day without a user-fixed start: sessions
	// before WindowStart are dropped up front, and the first stop may
	// wait for a venue to open.
	StartFlexible bool

	// Sort ranks one activity's shortlist before enumeration. It applies
	// to this build only.
	Sort *models.SortDirective
}

// Builder assembles the best feasible itinerary from candidate pools.
type Builder interface {
	Build(ctx context.Context, in BuildInput) models.BuildResult
}

// DefaultBuilder enumerates combinations in shortlist order and keeps the
// feasible plan with the least total travel.
type DefaultBuilder struct {
	router geo.Router
	parser schedule.Parser
}

// NewBuilder wires a builder over the given router and schedule parser.
func NewBuilder(router geo.Router, parser schedule.Parser) Builder {
	return &DefaultBuilder{router: router, parser: parser}
}

type buildRun struct {
	b  *DefaultBuilder
	in BuildInput

	routeCache   map[string]geo.Route
	routeFailed  map[string]bool
	routeLookups int
	exhausted    bool

	rejections map[string]int
}

// Build implements Builder.
func (b *DefaultBuilder) Build(ctx context.Context, in BuildInput) models.BuildResult {
	log := utils.GetLogger()

	shortlists := make([][]models.Candidate, 0, len(in.Order))
	for _, t := range in.Order {
		list := b.shortlistFor(t, in)
		if len(list) == 0 {
			return models.BuildResult{
				FailureReason: fmt.Sprintf("no candidates available for %s", t),
			}
		}
		shortlists = append(shortlists, list)
	}

	run := &buildRun{
		b:          b,
		in:         in,
		routeCache:  map[string]geo.Route{},
		routeFailed: map[string]bool{},
		rejections:  map[string]int{},
	}

	var best *models.Itinerary
	combos := 0

	idx := make([]int, len(shortlists))
	for {
		combo := make([]models.Candidate, len(idx))
		for i, j := range idx {
			combo[i] = shortlists[i][j]
		}
		combos++

		plan, reason := run.simulate(ctx, combo)
		if run.exhausted {
			log.Warn("route lookup budget exhausted, keeping best plan so far",
				zap.Int("combinations", combos))
			break
		}
		if plan != nil {
			if betterPlan(plan, best) {
				best = plan
			}
		} else if reason != "" {
			run.rejections[reason]++
		}

		if !advance(idx, shortlists) {
			break
		}
	}

	result := models.BuildResult{
		Plan:         best,
		Combinations: combos,
		RouteLookups: run.routeLookups,
	}
	if best == nil {
		result.FailureReason = run.topRejection()
	}
	log.Info("plan build finished",
		zap.Int("combinations", combos),
		zap.Int("routeLookups", run.routeLookups),
		zap.Bool("found", best != nil))
	return result
}

func (b *DefaultBuilder) shortlistFor(t models.ActivityType, in BuildInput) []models.Candidate {
	if pinned, ok := in.Pinned[t]; ok {
		return []models.Candidate{pinned}
	}
	list := in.Pools[t]
	if in.StartFlexible && t.IsTimedEvent() {
		list = sessionsNotBefore(list, in.WindowStart)
	}
	if in.Sort != nil && in.Sort.Target == t {
		list = sortByDirective(list, *in.Sort)
	} else if t.IsTimedEvent() {
		list = sortByStartTime(list)
	}
	if len(list) > ShortlistCap {
		list = list[:ShortlistCap]
	}
	return list
}

// sessionsNotBefore drops sessions starting before from, so a flexible
// day does not burn shortlist slots on sessions that can never fit.
func sessionsNotBefore(list []models.Candidate, from time.Time) []models.Candidate {
	out := make([]models.Candidate, 0, len(list))
	for _, c := range list {
		if st, ok := c.StartTime(); ok && st.Before(from) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// sortByStartTime orders sessions earliest first, sessions without a
// start time last, so the cap keeps the ones most likely to fit the day.
func sortByStartTime(list []models.Candidate) []models.Candidate {
	out := make([]models.Candidate, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		si, oki := out[i].StartTime()
		sj, okj := out[j].StartTime()
		if oki != okj {
			return oki
		}
		if !oki {
			return false
		}
		return si.Before(sj)
	})
	return out
}

// sortByDirective orders candidates by an attribute. Candidates missing
// the attribute sort last regardless of direction, so the extremes the
// user asked for come first.
func sortByDirective(list []models.Candidate, d models.SortDirective) []models.Candidate {
	value := func(c models.Candidate) (float64, bool) {
		switch d.Attribute {
		case models.AttrPrice:
			return c.Price()
		case models.AttrRating:
			return c.RatingValue()
		case models.AttrStartTime:
			if st, ok := c.StartTime(); ok {
				return float64(st.Unix()), true
			}
			return 0, false
		}
		return 0, false
	}

	out := make([]models.Candidate, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		vi, oki := value(out[i])
		vj, okj := value(out[j])
		if oki != okj {
			return oki
		}
		if !oki {
			return false
		}
		if d.Order == models.OpMax {
			return vi > vj
		}
		return vi < vj
	})
	return out
}

func advance(idx []int, lists [][]models.Candidate) bool {
	for i := len(idx) - 1; i >= 0; i-- {
		idx[i]++
		if idx[i] < len(lists[i]) {
			return true
		}
		idx[i] = 0
	}
	return false
}

// betterPlan prefers plans whose travel was actually resolved over plans
// with no travel data, then less total travel.
func betterPlan(a, b *models.Itinerary) bool {
	if b == nil {
		return true
	}
	aHas := a.TotalTravelSeconds > 0
	bHas := b.TotalTravelSeconds > 0
	if aHas != bHas {
		return aHas
	}
	return a.TotalTravelSeconds < b.TotalTravelSeconds
}

// simulate walks a combination through the day and returns the itinerary
// or the reason the combination is infeasible.
func (r *buildRun) simulate(ctx context.Context, combo []models.Candidate) (*models.Itinerary, string) {
	cur := r.in.WindowStart
	curCoords := r.in.StartCoords
	curName := "start"

	var stops []models.PlanStop
	var warnings []string
	totalTravel := 0

	for i, cand := range combo {
		var seg *models.RouteSegment
		arrival := cur

		destCoords := cand.Coordinates()
		if curCoords != nil && destCoords != nil {
			route, ok := r.lookupRoute(ctx, *curCoords, *destCoords)
			if r.exhausted {
				return nil, ""
			}
			if !ok {
				return nil, fmt.Sprintf("no route found to %s", cand.VenueName())
			}
			seg = &models.RouteSegment{
				FromName:        curName,
				ToName:          cand.VenueName(),
				DurationSeconds: route.DurationSeconds,
				DistanceMeters:  route.DistanceMeters,
				FromCoords:      curCoords,
				ToCoords:        destCoords,
			}
			arrival = cur.Add(time.Duration(route.DurationSeconds) * time.Second)
			totalTravel += route.DurationSeconds
		}

		if st, timed := cand.StartTime(); timed {
			if st.Before(r.in.WindowStart) {
				return nil, fmt.Sprintf("%s starts before the day begins", cand.Name())
			}
			if arrival.After(st) {
				return nil, fmt.Sprintf("cannot reach %s before it starts", cand.Name())
			}
			dur := DefaultEventDuration
			if cand.Event != nil && cand.Event.DurationMinutes > 0 {
				dur = time.Duration(cand.Event.DurationMinutes) * time.Minute
			}
			end := st.Add(dur)
			if end.After(r.in.WindowEnd) {
				return nil, fmt.Sprintf("%s runs past the end of the day", cand.Name())
			}
			stops = append(stops, models.PlanStop{Candidate: cand, StartTime: st, EndTime: end, Travel: seg})
			cur = end
		} else {
			minVisit := minVisitFor(cand.Type)
			scheduleText := ""
			if cand.Place != nil {
				scheduleText = cand.Place.Schedule
			}
			waitForOpen := r.in.StartFlexible && i == 0
			visit, ok := schedule.FitVisit(r.b.parser, scheduleText, arrival, r.in.WindowEnd, minVisit, waitForOpen)
			if !ok {
				return nil, fmt.Sprintf("%s is closed during the remaining time", cand.Name())
			}
			if visit.AssumedOpen {
				warnings = append(warnings, fmt.Sprintf("opening hours for %s are unclear, please double-check", cand.Name()))
			}
			end := visit.Start.Add(DefaultVisitDuration)
			if end.After(visit.End) {
				end = visit.End
			}
			stops = append(stops, models.PlanStop{Candidate: cand, StartTime: visit.Start, EndTime: end, Travel: seg})
			cur = end
		}

		if destCoords != nil {
			curCoords = destCoords
			curName = cand.VenueName()
		}
	}

	return &models.Itinerary{Stops: stops, TotalTravelSeconds: totalTravel, Warnings: warnings}, ""
}

func minVisitFor(t models.ActivityType) time.Duration {
	switch t {
	case models.ActivityPark:
		return MinParkVisit
	case models.ActivityRestaurant:
		return MinMealVisit
	}
	return MinMealVisit
}

func (r *buildRun) lookupRoute(ctx context.Context, from, to models.Coordinates) (geo.Route, bool) {
	key := fmt.Sprintf("%.6f,%.6f->%.6f,%.6f", from.Lon, from.Lat, to.Lon, to.Lat)
	if r.routeFailed[key] {
		return geo.Route{}, false
	}
	if cached, ok := r.routeCache[key]; ok {
		return cached, true
	}
	if r.routeLookups >= RouteLookupCap {
		r.exhausted = true
		return geo.Route{}, false
	}
	r.routeLookups++

	route, err := r.b.router.Route(ctx, from, to)
	if err != nil {
		utils.GetLogger().Warn("route lookup failed, rejecting combinations over this leg",
			zap.String("leg", key), zap.Error(err))
		r.routeFailed[key] = true
		return geo.Route{}, false
	}
	r.routeCache[key] = route
	return route, true
}

func (r *buildRun) topRejection() string {
	best, bestCount := "no feasible combination found", 0
	for reason, count := range r.rejections {
		if count > bestCount {
			best, bestCount = reason, count
		}
	}
	return best
}
