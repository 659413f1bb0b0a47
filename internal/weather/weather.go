// Package weather looks up National Weather Service data for free-form
// locations in the United States.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/theogognf/toi/pkg/types"
)

const (
	DefaultGeocodeURL = "https://nominatim.openstreetmap.org"
	DefaultWeatherURL = "https://api.weather.gov"
)

// Config configures the third-party endpoints. Both APIs require a
// descriptive User-Agent.
type Config struct {
	UserAgent  string
	GeocodeURL string
	WeatherURL string
	Timeout    time.Duration
}

// Client queries Nominatim for coordinates and api.weather.gov for the
// forecast. It is safe for concurrent use.
type Client struct {
	geocode *resty.Client
	weather *resty.Client
}

// New creates a client. Empty URLs fall back to the public services.
func New(cfg Config) *Client {
	if cfg.GeocodeURL == "" {
		cfg.GeocodeURL = DefaultGeocodeURL
	}
	if cfg.WeatherURL == "" {
		cfg.WeatherURL = DefaultWeatherURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	newClient := func(base string) *resty.Client {
		return resty.New().
			SetBaseURL(base).
			SetHeader("User-Agent", cfg.UserAgent).
			SetHeader("Accept", "application/geo+json, application/json").
			SetTimeout(cfg.Timeout)
	}
	return &Client{geocode: newClient(cfg.GeocodeURL), weather: newClient(cfg.WeatherURL)}
}

type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Point is the forecast metadata of a coordinate.
type Point struct {
	Properties struct {
		Forecast     string `json:"forecast"`
		ForecastZone string `json:"forecastZone"`
	} `json:"properties"`
}

// Locate resolves a free-form location to its forecast metadata.
func (c *Client) Locate(ctx context.Context, query string) (Point, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Point{}, types.Validation("query is required")
	}

	var places []place
	if err := get(ctx, c.geocode, "/search", map[string]string{"q": query, "format": "json"}, &places); err != nil {
		return Point{}, err
	}
	if len(places) == 0 {
		return Point{}, types.NotFound("location not found")
	}
	log.Ctx(ctx).Debug().Str("query", query).Str("location", places[0].DisplayName).Msg("geocoded location")

	var point Point
	if err := get(ctx, c.weather, fmt.Sprintf("/points/%s,%s", places[0].Lat, places[0].Lon), nil, &point); err != nil {
		return Point{}, err
	}
	if point.Properties.Forecast == "" || point.Properties.ForecastZone == "" {
		return Point{}, types.UpstreamParse(fmt.Errorf("weather: point has no forecast links"))
	}
	return point, nil
}

// Alerts returns the active alerts of the location's forecast zone.
func (c *Client) Alerts(ctx context.Context, query string) (json.RawMessage, error) {
	point, err := c.Locate(ctx, query)
	if err != nil {
		return nil, err
	}
	zone := point.Properties.ForecastZone
	zoneID := zone[strings.LastIndex(zone, "/")+1:]
	if zoneID == "" {
		return nil, types.UpstreamParse(fmt.Errorf("weather: forecast zone %q has no id", zone))
	}

	var alerts json.RawMessage
	if err := get(ctx, c.weather, "/alerts/active/zone/"+zoneID, nil, &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}

// GridpointForecast returns the detailed forecast for the location.
func (c *Client) GridpointForecast(ctx context.Context, query string) (json.RawMessage, error) {
	point, err := c.Locate(ctx, query)
	if err != nil {
		return nil, err
	}
	var forecast json.RawMessage
	if err := get(ctx, c.weather, point.Properties.Forecast, nil, &forecast); err != nil {
		return nil, err
	}
	return forecast, nil
}

// ZoneForecast returns the broad forecast for the location's zone.
func (c *Client) ZoneForecast(ctx context.Context, query string) (json.RawMessage, error) {
	point, err := c.Locate(ctx, query)
	if err != nil {
		return nil, err
	}
	var forecast json.RawMessage
	if err := get(ctx, c.weather, point.Properties.ForecastZone+"/forecast", nil, &forecast); err != nil {
		return nil, err
	}
	return forecast, nil
}

// get decodes a JSON response. url may be absolute or relative to the
// client's base URL.
func get(ctx context.Context, client *resty.Client, url string, params map[string]string, out any) error {
	resp, err := client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(url)
	if err != nil {
		return types.UpstreamConnection(fmt.Errorf("weather: GET %s: %w", url, err))
	}
	if resp.IsError() {
		return types.UpstreamConnection(fmt.Errorf("weather: GET %s: %s: %s", url, resp.Status(), resp.String()))
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return types.UpstreamParse(fmt.Errorf("weather: GET %s: %w", url, err))
	}
	return nil
}
