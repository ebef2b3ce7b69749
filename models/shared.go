package models

// Coordinates is a lon/lat pair as returned by the places API.
type Coordinates struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// RouteSegment describes the travel leg from one stop to the next.
type RouteSegment struct {
	FromName        string       `json:"fromName"`
	ToName          string       `json:"toName"`
	DurationSeconds int          `json:"durationSeconds"`
	DistanceMeters  float64      `json:"distanceMeters"`
	FromCoords      *Coordinates `json:"fromCoords,omitempty"`
	ToCoords        *Coordinates `json:"toCoords,omitempty"`
}
