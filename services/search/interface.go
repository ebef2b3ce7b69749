// Package search queries the events and places catalogs for activity
// candidates.
package search

import (
	"context"
	"time"

	"planmate/models"
)

// City is a resolved destination city.
type City struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CityResolver maps a user-typed city name to a catalog city.
type CityResolver interface {
	ResolveCity(ctx context.Context, name string) (City, error)
}

// EventSearcher finds timed events (movie showings, concerts, plays) for
// one activity slot on one date.
type EventSearcher interface {
	SearchEvents(ctx context.Context, city City, slot models.ActivitySlot, date time.Time) ([]models.Candidate, error)
}

// PlaceSearcher finds open-hours venues (parks, restaurants) for one
// activity slot.
type PlaceSearcher interface {
	SearchPlaces(ctx context.Context, city City, slot models.ActivitySlot) ([]models.Candidate, error)
}

// Service is the combined catalog surface the engine talks to.
type Service interface {
	CityResolver
	// Search dispatches to the events or places catalog by slot type.
	Search(ctx context.Context, city City, slot models.ActivitySlot, date time.Time) ([]models.Candidate, error)
}

// DefaultService routes each slot to the right catalog.
type DefaultService struct {
	resolver CityResolver
	events   EventSearcher
	places   PlaceSearcher
}

// NewService combines the catalog clients into one service.
func NewService(resolver CityResolver, events EventSearcher, places PlaceSearcher) Service {
	return &DefaultService{resolver: resolver, events: events, places: places}
}

// ResolveCity implements Service.
func (s *DefaultService) ResolveCity(ctx context.Context, name string) (City, error) {
	return s.resolver.ResolveCity(ctx, name)
}

// Search implements Service.
func (s *DefaultService) Search(ctx context.Context, city City, slot models.ActivitySlot, date time.Time) ([]models.Candidate, error) {
	if slot.Type.IsTimedEvent() {
		return s.events.SearchEvents(ctx, city, slot, date)
	}
	return s.places.SearchPlaces(ctx, city, slot)
}
