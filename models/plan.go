package models

import "time"

// PlanStop is one scheduled activity in a built itinerary, with the travel
// leg that precedes it (nil for the first stop).
type PlanStop struct {
	Candidate Candidate     `json:"candidate" bson:"candidate"`
	StartTime time.Time     `json:"startTime" bson:"startTime"`
	EndTime   time.Time     `json:"endTime" bson:"endTime"`
	Travel    *RouteSegment `json:"travel,omitempty" bson:"travel,omitempty"`
}

// Itinerary is a feasible ordered day plan.
type Itinerary struct {
	Stops              []PlanStop `json:"stops" bson:"stops"`
	TotalTravelSeconds int        `json:"totalTravelSeconds" bson:"totalTravelSeconds"`
	Warnings           []string   `json:"warnings,omitempty" bson:"warnings,omitempty"`
}

// StopFor returns the stop holding an activity of the given type.
func (it *Itinerary) StopFor(t ActivityType) (PlanStop, bool) {
	if it == nil {
		return PlanStop{}, false
	}
	for _, s := range it.Stops {
		if s.Candidate.Type == t {
			return s, true
		}
	}
	return PlanStop{}, false
}

// BuildResult is the outcome of one builder run: either a best plan or a
// human-readable reason the search space yielded nothing.
type BuildResult struct {
	Plan          *Itinerary `json:"plan,omitempty"`
	FailureReason string     `json:"failureReason,omitempty"`
	Combinations  int        `json:"combinations"`
	RouteLookups  int        `json:"routeLookups"`
}
