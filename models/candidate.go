package models

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ActivityType identifies the kind of activity a candidate or plan slot holds.
type ActivityType string

const (
	ActivityMovie       ActivityType = "MOVIE"
	ActivityConcert     ActivityType = "CONCERT"
	ActivityStandUp     ActivityType = "STAND_UP"
	ActivityPerformance ActivityType = "PERFORMANCE"
	ActivityExhibition  ActivityType = "MUSEUM_EXHIBITION"
	ActivityPark        ActivityType = "PARK"
	ActivityRestaurant  ActivityType = "RESTAURANT"
	ActivityUnknown     ActivityType = "UNKNOWN"
)

// IsTimedEvent reports whether candidates of this type carry fixed session
// start times, as opposed to venues that are simply open during a window.
func (t ActivityType) IsTimedEvent() bool {
	switch t {
	case ActivityMovie, ActivityConcert, ActivityStandUp, ActivityPerformance, ActivityExhibition:
		return true
	}
	return false
}

// ParseActivityType maps a free-form label onto a known activity type.
func ParseActivityType(s string) ActivityType {
	switch ActivityType(strings.ToUpper(strings.TrimSpace(s))) {
	case ActivityMovie:
		return ActivityMovie
	case ActivityConcert:
		return ActivityConcert
	case ActivityStandUp:
		return ActivityStandUp
	case ActivityPerformance:
		return ActivityPerformance
	case ActivityExhibition:
		return ActivityExhibition
	case ActivityPark:
		return ActivityPark
	case ActivityRestaurant:
		return ActivityRestaurant
	}
	return ActivityUnknown
}

// TimedEvent is a scheduled session: a movie showing, a concert, a play.
// StartTime is naive local time in the destination city.
type TimedEvent struct {
	SessionID       int64        `json:"sessionId" bson:"sessionId"`
	Name            string       `json:"name" bson:"name"`
	VenueName       string       `json:"venueName" bson:"venueName"`
	VenueAddress    string       `json:"venueAddress,omitempty" bson:"venueAddress,omitempty"`
	Coords          *Coordinates `json:"coords,omitempty" bson:"coords,omitempty"`
	StartTime       time.Time    `json:"startTime" bson:"startTime"`
	DurationMinutes int          `json:"durationMinutes,omitempty" bson:"durationMinutes,omitempty"`
	MinPrice        *int         `json:"minPrice,omitempty" bson:"minPrice,omitempty"`
	MaxPrice        *int         `json:"maxPrice,omitempty" bson:"maxPrice,omitempty"`
	PriceText       string       `json:"priceText,omitempty" bson:"priceText,omitempty"`
	Rating          *float64     `json:"rating,omitempty" bson:"rating,omitempty"`
	AgeRestriction  string       `json:"ageRestriction,omitempty" bson:"ageRestriction,omitempty"`
}

// OpenHoursPlace is a venue without fixed sessions: a park, a restaurant.
// Its availability is governed by the Schedule string.
type OpenHoursPlace struct {
	GISID       string       `json:"gisId" bson:"gisId"`
	Name        string       `json:"name" bson:"name"`
	Address     string       `json:"address,omitempty" bson:"address,omitempty"`
	Coords      *Coordinates `json:"coords,omitempty" bson:"coords,omitempty"`
	Schedule    string       `json:"schedule,omitempty" bson:"schedule,omitempty"`
	RatingText  string       `json:"ratingText,omitempty" bson:"ratingText,omitempty"`
	AvgBillText string       `json:"avgBillText,omitempty" bson:"avgBillText,omitempty"`
}

// Candidate is a tagged union over the two shapes an activity option can
// take. Exactly one of Event or Place is set, selected by Type.
type Candidate struct {
	Type  ActivityType    `json:"type" bson:"type"`
	Event *TimedEvent     `json:"event,omitempty" bson:"event,omitempty"`
	Place *OpenHoursPlace `json:"place,omitempty" bson:"place,omitempty"`
}

// NewEventCandidate wraps a timed event as a candidate of the given type.
func NewEventCandidate(t ActivityType, ev TimedEvent) Candidate {
	return Candidate{Type: t, Event: &ev}
}

// NewPlaceCandidate wraps an open-hours venue as a candidate of the given type.
func NewPlaceCandidate(t ActivityType, p OpenHoursPlace) Candidate {
	return Candidate{Type: t, Place: &p}
}

// Name returns the display name of the underlying event or venue.
func (c Candidate) Name() string {
	switch {
	case c.Event != nil:
		return c.Event.Name
	case c.Place != nil:
		return c.Place.Name
	}
	return ""
}

// VenueName returns the venue the candidate takes place at.
func (c Candidate) VenueName() string {
	switch {
	case c.Event != nil:
		if c.Event.VenueName != "" {
			return c.Event.VenueName
		}
		return c.Event.Name
	case c.Place != nil:
		return c.Place.Name
	}
	return ""
}

// Address returns the street address when known.
func (c Candidate) Address() string {
	switch {
	case c.Event != nil:
		return c.Event.VenueAddress
	case c.Place != nil:
		return c.Place.Address
	}
	return ""
}

// Coordinates returns the venue location, or nil when unknown.
func (c Candidate) Coordinates() *Coordinates {
	switch {
	case c.Event != nil:
		return c.Event.Coords
	case c.Place != nil:
		return c.Place.Coords
	}
	return nil
}

// StartTime returns the fixed session start for timed events. The second
// result is false for open-hours venues and events without a parsed time.
func (c Candidate) StartTime() (time.Time, bool) {
	if c.Event != nil && !c.Event.StartTime.IsZero() {
		return c.Event.StartTime, true
	}
	return time.Time{}, false
}

var firstNumberRe = regexp.MustCompile(`\d[\d\s]*`)

// FirstNumber extracts the first integer occurring in s, tolerating
// thousands separators written as spaces ("1 500 RUB" -> 1500).
func FirstNumber(s string) (float64, bool) {
	m := firstNumberRe.FindString(s)
	if m == "" {
		return 0, false
	}
	m = strings.ReplaceAll(m, " ", "")
	n, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Price returns the candidate's comparable price: the structured minimum
// price for events (falling back to the first number in the price text),
// or the first number in the average-bill text for venues.
func (c Candidate) Price() (float64, bool) {
	switch {
	case c.Event != nil:
		if c.Event.MinPrice != nil {
			return float64(*c.Event.MinPrice), true
		}
		return FirstNumber(c.Event.PriceText)
	case c.Place != nil:
		return FirstNumber(c.Place.AvgBillText)
	}
	return 0, false
}

var ratingRe = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// RatingValue returns the candidate's numeric rating when one is present,
// parsing free-form rating text for venues ("4,6 из 5" -> 4.6).
func (c Candidate) RatingValue() (float64, bool) {
	switch {
	case c.Event != nil:
		if c.Event.Rating != nil {
			return *c.Event.Rating, true
		}
	case c.Place != nil:
		m := ratingRe.FindString(c.Place.RatingText)
		if m == "" {
			return 0, false
		}
		n, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
