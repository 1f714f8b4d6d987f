package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kilianp07/solarflex/core/pvmodel"
	"github.com/kilianp07/solarflex/infra/logger"
)

// Config defines the Open-Meteo forecast endpoint parameters.
type Config struct {
	BaseURL        string  `json:"base_url"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Timezone       string  `json:"timezone"`
	TimeoutSeconds int     `json:"timeout_seconds"`
}

// SetDefaults applies the campus coordinates and the public Open-Meteo
// endpoint.
func (c *Config) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.open-meteo.com/v1/forecast"
	}
	if c.Timezone == "" {
		c.Timezone = "Africa/Nairobi"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
}

// Validate checks the coordinates and timezone.
func (c Config) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude out of range: %.4f", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude out of range: %.4f", c.Longitude)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Client fetches day-ahead meteorological forecasts from Open-Meteo.
type Client struct {
	cfg    Config
	client *http.Client
	loc    *time.Location
	log    logger.Logger
}

// NewClient creates a weather client from the configuration.
func NewClient(cfg Config) (*Client, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		loc:    loc,
		log:    logger.New("weather-client"),
	}, nil
}

// Location returns the timezone the forecast timestamps are expressed in.
func (c *Client) Location() *time.Location { return c.loc }

type apiResponse struct {
	Hourly struct {
		Time       []string  `json:"time"`
		Irradiance []float64 `json:"global_tilted_irradiance"`
		AirTemp    []float64 `json:"temperature_2m"`
	} `json:"hourly"`
}

// Fetch returns the hourly irradiance and temperature forecast for the
// given calendar day. The API answers in local time for the requested
// timezone, so timestamps are parsed in that location rather than converted
// from UTC.
func (c *Client) Fetch(ctx context.Context, day time.Time) ([]pvmodel.MeteoPoint, error) {
	date := day.In(c.loc).Format("2006-01-02")
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(c.cfg.Latitude, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(c.cfg.Longitude, 'f', -1, 64))
	q.Set("hourly", "global_tilted_irradiance,temperature_2m")
	q.Set("start_date", date)
	q.Set("end_date", date)
	q.Set("timezone", c.cfg.Timezone)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code: %d, body: %s", resp.StatusCode, body)
	}

	var data apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	n := len(data.Hourly.Time)
	if n == 0 {
		return nil, fmt.Errorf("empty forecast for %s", date)
	}
	if len(data.Hourly.Irradiance) != n || len(data.Hourly.AirTemp) != n {
		return nil, fmt.Errorf("mismatched hourly arrays: %d timestamps, %d irradiance, %d temperature",
			n, len(data.Hourly.Irradiance), len(data.Hourly.AirTemp))
	}

	points := make([]pvmodel.MeteoPoint, 0, n)
	for i, ts := range data.Hourly.Time {
		t, err := time.ParseInLocation("2006-01-02T15:04", ts, c.loc)
		if err != nil {
			return nil, fmt.Errorf("bad timestamp %q: %w", ts, err)
		}
		points = append(points, pvmodel.MeteoPoint{
			Timestamp:  t,
			Irradiance: data.Hourly.Irradiance[i],
			AirTempC:   data.Hourly.AirTemp[i],
		})
	}
	c.log.Debugf("fetched %d hourly points for %s", len(points), date)
	return points, nil
}
