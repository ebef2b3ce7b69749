// Package geo talks to the routing and geocoding endpoints of the places
// API: travel times between venues and coordinates for user addresses.
package geo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"planmate/config"
	"planmate/models"
	"planmate/utils"

	"go.uber.org/zap"
)

// Route is one resolved travel leg.
type Route struct {
	DurationSeconds int
	DistanceMeters  float64
}

// Router resolves travel between two points.
type Router interface {
	Route(ctx context.Context, from, to models.Coordinates) (Route, error)
}

// DefaultRouter calls the pedestrian routing endpoint.
type DefaultRouter struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewRouter builds a router from the application config.
func NewRouter() Router {
	return &DefaultRouter{
		baseURL: config.AppConfig.PlacesAPIBaseURL,
		apiKey:  config.AppConfig.PlacesAPIKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type routingPoint struct {
	Lon  float64 `json:"lon"`
	Lat  float64 `json:"lat"`
	Type string  `json:"type"`
}

type routingRequest struct {
	Points    []routingPoint `json:"points"`
	Transport string         `json:"transport"`
}

type routingResponse struct {
	Result []struct {
		TotalDuration int     `json:"total_duration"`
		TotalDistance float64 `json:"total_distance"`
	} `json:"result"`
}

// Route implements Router over the HTTP routing API.
func (r *DefaultRouter) Route(ctx context.Context, from, to models.Coordinates) (Route, error) {
	payload := routingRequest{
		Points: []routingPoint{
			{Lon: from.Lon, Lat: from.Lat, Type: "stop"},
			{Lon: to.Lon, Lat: to.Lat, Type: "stop"},
		},
		Transport: "walking",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Route{}, fmt.Errorf("failed to encode routing request: %w", err)
	}

	url := fmt.Sprintf("%s/routing/7.0.0/global?key=%s", r.baseURL, r.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Route{}, fmt.Errorf("failed to build routing request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return Route{}, fmt.Errorf("routing request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Route{}, fmt.Errorf("routing API returned status %d", resp.StatusCode)
	}

	var decoded routingResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Route{}, fmt.Errorf("failed to decode routing response: %w", err)
	}
	if len(decoded.Result) == 0 {
		return Route{}, fmt.Errorf("routing API returned no route")
	}

	first := decoded.Result[0]
	utils.GetLogger().Debug("route resolved",
		zap.Int("durationSeconds", first.TotalDuration),
		zap.Float64("distanceMeters", first.TotalDistance))
	return Route{DurationSeconds: first.TotalDuration, DistanceMeters: first.TotalDistance}, nil
}
