package lookup

import (
	"context"
	"fmt"
	log "log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Weather answers [CMD_CLIMA:...] requests: geocode the city (or geolocate
// when the city is AUTO) and fetch the current conditions from open-meteo.
type Weather struct {
	client     *http.Client
	locator    *Locator
	geocodeURL string
	meteoURL   string
}

func NewWeather(client *http.Client, locator *Locator) *Weather {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return &Weather{
		client:     client,
		locator:    locator,
		geocodeURL: "https://geocoding-api.open-meteo.com/v1/search",
		meteoURL:   "https://api.open-meteo.com/v1/forecast",
	}
}

// Summary returns a Spanish sentence describing current conditions, or an
// error the dispatcher turns into a canned fallback. city == "AUTO" resolves
// the machine's own location first.
func (w *Weather) Summary(ctx context.Context, city string) (string, error) {
	var (
		lat, lon float64
		name     string
	)

	if strings.EqualFold(city, "AUTO") {
		loc := w.locator.Auto(ctx)
		if loc.HasGeo {
			lat, lon = loc.Lat, loc.Lon
			name = loc.City + ", " + loc.Country
		} else {
			var err error
			lat, lon, name, err = w.geocode(ctx, loc.City)
			if err != nil {
				return "", fmt.Errorf("geocode own location: %w", err)
			}
		}
	} else {
		var err error
		lat, lon, name, err = w.geocode(ctx, city)
		if err != nil {
			return "", fmt.Errorf("geocode %q: %w", city, err)
		}
	}

	log.Debug("fetching weather", "place", name, "lat", lat, "lon", lon)

	var resp struct {
		Current struct {
			Temperature float64 `json:"temperature"`
			WeatherCode int     `json:"weathercode"`
			WindSpeed   float64 `json:"windspeed"`
		} `json:"current_weather"`
	}
	u := fmt.Sprintf("%s?latitude=%f&longitude=%f&current_weather=true", w.meteoURL, lat, lon)
	if err := getJSON(ctx, w.client, u, &resp); err != nil {
		return "", fmt.Errorf("current weather: %w", err)
	}

	return fmt.Sprintf("En %s hay %.1f°C, está %s con viento de %.1f km/h.",
		name, resp.Current.Temperature, describeCode(resp.Current.WeatherCode), resp.Current.WindSpeed), nil
}

func (w *Weather) geocode(ctx context.Context, city string) (lat, lon float64, name string, err error) {
	var resp struct {
		Results []struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
			Name      string  `json:"name"`
			Country   string  `json:"country"`
		} `json:"results"`
	}
	u := fmt.Sprintf("%s?name=%s&count=1&language=es&format=json", w.geocodeURL, url.QueryEscape(city))
	if err = getJSON(ctx, w.client, u, &resp); err != nil {
		return 0, 0, "", err
	}
	if len(resp.Results) == 0 {
		return 0, 0, "", fmt.Errorf("no results for %q", city)
	}
	r := resp.Results[0]
	return r.Latitude, r.Longitude, r.Name + ", " + r.Country, nil
}

// WMO weather code buckets, same wording the assistant has always used.
func describeCode(code int) string {
	switch {
	case code == 0:
		return "cielo despejado"
	case code <= 3:
		return "nublado"
	case code <= 48:
		return "con neblina"
	case code <= 67:
		return "lluvioso"
	case code >= 95:
		return "con truenos"
	case code >= 80:
		return "tormentoso"
	default:
		return "normal"
	}
}
