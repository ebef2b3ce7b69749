package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"planmate/config"
	"planmate/models"
	"planmate/utils"

	"go.uber.org/zap"
)

// DefaultPlaceSearcher queries the GIS catalog for venues, and doubles as
// the city resolver since both live on the same API.
type DefaultPlaceSearcher struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewPlaceSearcher builds a place searcher from the application config.
func NewPlaceSearcher() *DefaultPlaceSearcher {
	return &DefaultPlaceSearcher{
		baseURL: config.AppConfig.PlacesAPIBaseURL,
		apiKey:  config.AppConfig.PlacesAPIKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type placeItemDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AddressName string `json:"address_name"`
	Point       *struct {
		Lon float64 `json:"lon"`
		Lat float64 `json:"lat"`
	} `json:"point"`
	ScheduleText string `json:"schedule_text"`
	Reviews      *struct {
		GeneralRating float64 `json:"general_rating"`
	} `json:"reviews"`
	AvgBill string `json:"avg_bill"`
}

type placeSearchResponse struct {
	Result struct {
		Items []placeItemDTO `json:"items"`
	} `json:"result"`
}

// SearchPlaces implements PlaceSearcher.
func (s *DefaultPlaceSearcher) SearchPlaces(ctx context.Context, city City, slot models.ActivitySlot) ([]models.Candidate, error) {
	query := strings.TrimSpace(slot.Query)
	if query == "" {
		query = strings.ToLower(string(slot.Type))
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("city_id", strconv.Itoa(city.ID))
	params.Set("fields", "items.point,items.schedule_text,items.reviews,items.avg_bill")
	params.Set("key", s.apiKey)

	endpoint := fmt.Sprintf("%s/3.0/items?%s", s.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build places request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("places request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places API returned status %d", resp.StatusCode)
	}

	var decoded placeSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode places response: %w", err)
	}

	out := make([]models.Candidate, 0, len(decoded.Result.Items))
	for _, dto := range decoded.Result.Items {
		place := models.OpenHoursPlace{
			GISID:       dto.ID,
			Name:        dto.Name,
			Address:     dto.AddressName,
			Schedule:    dto.ScheduleText,
			AvgBillText: dto.AvgBill,
		}
		if dto.Point != nil {
			place.Coords = &models.Coordinates{Lon: dto.Point.Lon, Lat: dto.Point.Lat}
		}
		if dto.Reviews != nil && dto.Reviews.GeneralRating > 0 {
			place.RatingText = strconv.FormatFloat(dto.Reviews.GeneralRating, 'f', 1, 64)
		}
		out = append(out, models.NewPlaceCandidate(slot.Type, place))
	}

	utils.GetLogger().Debug("place search finished",
		zap.String("query", query), zap.Int("found", len(out)))
	return out, nil
}

type regionSearchResponse struct {
	Result struct {
		Items []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"items"`
	} `json:"result"`
}

// ResolveCity implements CityResolver over the GIS region search.
func (s *DefaultPlaceSearcher) ResolveCity(ctx context.Context, name string) (City, error) {
	params := url.Values{}
	params.Set("q", name)
	params.Set("key", s.apiKey)

	endpoint := fmt.Sprintf("%s/2.0/region/search?%s", s.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return City{}, fmt.Errorf("failed to build region request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return City{}, fmt.Errorf("region request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return City{}, fmt.Errorf("region API returned status %d", resp.StatusCode)
	}

	var decoded regionSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return City{}, fmt.Errorf("failed to decode region response: %w", err)
	}
	if len(decoded.Result.Items) == 0 {
		return City{}, fmt.Errorf("unknown city %q", name)
	}

	first := decoded.Result.Items[0]
	id, err := strconv.Atoi(strings.SplitN(first.ID, "_", 2)[0])
	if err != nil {
		return City{}, fmt.Errorf("unexpected region id %q: %w", first.ID, err)
	}
	return City{ID: id, Name: first.Name}, nil
}
