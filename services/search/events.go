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

// eventKinds maps activity types onto the events catalog's kind filter.
var eventKinds = map[models.ActivityType]string{
	models.ActivityMovie:       "movie",
	models.ActivityConcert:     "concert",
	models.ActivityStandUp:     "stand_up",
	models.ActivityPerformance: "performance",
	models.ActivityExhibition:  "exhibition",
}

// DefaultEventSearcher queries the events catalog API for sessions.
type DefaultEventSearcher struct {
	baseURL string
	client  *http.Client
}

// NewEventSearcher builds an event searcher from the application config.
func NewEventSearcher() EventSearcher {
	return &DefaultEventSearcher{
		baseURL: config.AppConfig.EventsAPIBaseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type eventSessionDTO struct {
	SessionID int64   `json:"session_id"`
	Name      string  `json:"name"`
	PlaceName string  `json:"place_name"`
	Address   string  `json:"address"`
	Lon       float64 `json:"lon"`
	Lat       float64 `json:"lat"`
	StartTime string  `json:"start_time"`
	Duration  int     `json:"duration_minutes"`
	MinPrice  *int    `json:"min_price"`
	MaxPrice  *int    `json:"max_price"`
	PriceText string  `json:"price_text"`
	Rating    *float64 `json:"rating"`
	Age       string  `json:"age_restriction"`
}

type eventSearchResponse struct {
	Sessions []eventSessionDTO `json:"sessions"`
}

// SearchEvents implements EventSearcher.
func (s *DefaultEventSearcher) SearchEvents(ctx context.Context, city City, slot models.ActivitySlot, date time.Time) ([]models.Candidate, error) {
	kind, ok := eventKinds[slot.Type]
	if !ok {
		return nil, fmt.Errorf("activity %s has no event kind", slot.Type)
	}

	params := url.Values{}
	params.Set("city_id", strconv.Itoa(city.ID))
	params.Set("kind", kind)
	params.Set("date", date.Format("2006-01-02"))
	if q := strings.TrimSpace(slot.Query); q != "" {
		params.Set("q", q)
	}

	endpoint := fmt.Sprintf("%s/v1/sessions?%s", s.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build events request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("events request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("events API returned status %d", resp.StatusCode)
	}

	var decoded eventSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode events response: %w", err)
	}

	out := make([]models.Candidate, 0, len(decoded.Sessions))
	for _, dto := range decoded.Sessions {
		ev := models.TimedEvent{
			SessionID:       dto.SessionID,
			Name:            dto.Name,
			VenueName:       dto.PlaceName,
			VenueAddress:    dto.Address,
			DurationMinutes: dto.Duration,
			MinPrice:        dto.MinPrice,
			MaxPrice:        dto.MaxPrice,
			PriceText:       dto.PriceText,
			Rating:          dto.Rating,
			AgeRestriction:  dto.Age,
		}
		if dto.Lon != 0 || dto.Lat != 0 {
			ev.Coords = &models.Coordinates{Lon: dto.Lon, Lat: dto.Lat}
		}
		// Session times are naive local time in the destination city.
		st, err := time.Parse("2006-01-02T15:04:05", dto.StartTime)
		if err != nil {
			utils.GetLogger().Warn("skipping session with unparsable start time",
				zap.String("name", dto.Name), zap.String("startTime", dto.StartTime))
			continue
		}
		ev.StartTime = st
		out = append(out, models.NewEventCandidate(slot.Type, ev))
	}

	utils.GetLogger().Debug("event search finished",
		zap.String("kind", kind), zap.Int("found", len(out)))
	return out, nil
}
