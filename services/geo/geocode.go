package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"planmate/config"
	"planmate/models"
)

// Geocoder resolves a user-typed address into coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string, cityID int) (models.Coordinates, error)
}

// DefaultGeocoder calls the catalog geocoding endpoint, scoping the
// lookup to the plan's city.
type DefaultGeocoder struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewGeocoder builds a geocoder from the application config.
func NewGeocoder() Geocoder {
	return &DefaultGeocoder{
		baseURL: config.AppConfig.PlacesAPIBaseURL,
		apiKey:  config.AppConfig.PlacesAPIKey,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type geocodeResponse struct {
	Result struct {
		Items []struct {
			Point *struct {
				Lon float64 `json:"lon"`
				Lat float64 `json:"lat"`
			} `json:"point"`
		} `json:"items"`
	} `json:"result"`
}

// Geocode implements Geocoder.
func (g *DefaultGeocoder) Geocode(ctx context.Context, address string, cityID int) (models.Coordinates, error) {
	params := url.Values{}
	params.Set("q", address)
	params.Set("fields", "items.point")
	params.Set("key", g.apiKey)
	if cityID != 0 {
		params.Set("city_id", strconv.Itoa(cityID))
	}

	endpoint := fmt.Sprintf("%s/3.0/items/geocode?%s", g.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("failed to build geocode request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Coordinates{}, fmt.Errorf("geocode API returned status %d", resp.StatusCode)
	}

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return models.Coordinates{}, fmt.Errorf("failed to decode geocode response: %w", err)
	}
	for _, item := range decoded.Result.Items {
		if item.Point != nil {
			return models.Coordinates{Lon: item.Point.Lon, Lat: item.Point.Lat}, nil
		}
	}
	return models.Coordinates{}, fmt.Errorf("no match for address %q", address)
}
