// Package lookup holds the HTTP collaborators: IP geolocation, geocoding,
// current weather and currency rates. Every call carries a short timeout and
// degrades to a local fallback instead of propagating upward.
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	log "log/slog"
	"net/http"
	"sync"
	"time"
)

const (
	DefaultCity      = "Colima"
	locationCacheTTL = time.Hour
)

// Location is the resolved position of the machine running the assistant.
type Location struct {
	City    string
	Region  string
	Country string
	Lat     float64
	Lon     float64
	HasGeo  bool
}

// Locator resolves the current location by IP, with a primary and a backup
// provider and a one-hour cache.
type Locator struct {
	client     *http.Client
	primaryURL string
	backupURL  string

	mu       sync.Mutex
	cached   *Location
	cachedAt time.Time
}

func NewLocator(client *http.Client) *Locator {
	if client == nil {
		client = &http.Client{Timeout: 3 * time.Second}
	}
	return &Locator{
		client:     client,
		primaryURL: "https://ipapi.co/json/",
		backupURL:  "http://ip-api.com/json/",
	}
}

// Auto returns the cached location when fresh, otherwise queries the
// providers in order. On total failure it falls back to the default city
// with no coordinates.
func (l *Locator) Auto(ctx context.Context) Location {
	l.mu.Lock()
	if l.cached != nil && time.Since(l.cachedAt) < locationCacheTTL {
		loc := *l.cached
		l.mu.Unlock()
		log.Debug("using cached location", "city", loc.City)
		return loc
	}
	l.mu.Unlock()

	if loc, err := l.fromPrimary(ctx); err == nil {
		l.store(loc)
		log.Info("location detected", "city", loc.City, "country", loc.Country)
		return loc
	} else {
		log.Warn("primary geolocation failed", "err", err)
	}

	if loc, err := l.fromBackup(ctx); err == nil {
		l.store(loc)
		log.Info("location detected via backup", "city", loc.City)
		return loc
	} else {
		log.Warn("backup geolocation failed", "err", err)
	}

	return Location{City: DefaultCity, Country: "México"}
}

func (l *Locator) store(loc Location) {
	l.mu.Lock()
	l.cached = &loc
	l.cachedAt = time.Now()
	l.mu.Unlock()
}

func (l *Locator) fromPrimary(ctx context.Context) (Location, error) {
	var resp struct {
		City      string  `json:"city"`
		Region    string  `json:"region"`
		Country   string  `json:"country_name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}
	if err := getJSON(ctx, l.client, l.primaryURL, &resp); err != nil {
		return Location{}, err
	}
	if resp.City == "" {
		return Location{}, fmt.Errorf("no city in response")
	}
	return Location{
		City:    resp.City,
		Region:  resp.Region,
		Country: resp.Country,
		Lat:     resp.Latitude,
		Lon:     resp.Longitude,
		HasGeo:  resp.Latitude != 0 || resp.Longitude != 0,
	}, nil
}

func (l *Locator) fromBackup(ctx context.Context) (Location, error) {
	var resp struct {
		Status  string  `json:"status"`
		City    string  `json:"city"`
		Region  string  `json:"regionName"`
		Country string  `json:"country"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
	}
	if err := getJSON(ctx, l.client, l.backupURL, &resp); err != nil {
		return Location{}, err
	}
	if resp.Status != "success" {
		return Location{}, fmt.Errorf("backup status %q", resp.Status)
	}
	return Location{
		City:    resp.City,
		Region:  resp.Region,
		Country: resp.Country,
		Lat:     resp.Lat,
		Lon:     resp.Lon,
		HasGeo:  resp.Lat != 0 || resp.Lon != 0,
	}, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http %d from %s", resp.StatusCode, url)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
