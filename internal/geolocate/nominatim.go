package geolocate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Defaults for the public Nominatim reverse endpoint.
const (
	DefaultEndpoint  = "https://nominatim.openstreetmap.org/reverse"
	DefaultLanguage  = "zh-TW"
	DefaultTimeout   = 5 * time.Second
	DefaultUserAgent = "crossing/1.0"
)

// Geocoder resolves a position to a label.
type Geocoder interface {
	Reverse(ctx context.Context, pos Position) (string, error)
}

// NominatimConfig configures the reverse lookup client.
type NominatimConfig struct {
	Endpoint  string
	Language  string
	UserAgent string
	Timeout   time.Duration
}

// NominatimClient performs a single reverse lookup per call. It never retries.
type NominatimClient struct {
	cfg  NominatimConfig
	http *http.Client
}

// NewNominatimClient fills unset fields with the defaults.
func NewNominatimClient(cfg NominatimConfig, httpClient *http.Client) *NominatimClient {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &NominatimClient{cfg: cfg, http: httpClient}
}

type reverseResponse struct {
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
}

// Reverse implements Geocoder.
func (c *NominatimClient) Reverse(ctx context.Context, pos Position) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(pos.Latitude, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(pos.Longitude, 'f', -1, 64))
	q.Set("zoom", "18")
	q.Set("addressdetails", "1")
	q.Set("accept-language", c.cfg.Language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build reverse request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse lookup: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse lookup: status %d", resp.StatusCode)
	}

	var body reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode reverse response: %w", err)
	}
	label, ok := Label(body.Address, body.DisplayName)
	if !ok {
		return "", fmt.Errorf("reverse lookup: no usable address")
	}
	return label, nil
}

// Label derives "city road", "city landmark附近" or the first segment of the
// display name, in that order of preference.
func Label(address map[string]string, displayName string) (string, bool) {
	if address != nil {
		city := first(address, "city", "county", "town", "district", "village")
		if road := first(address, "road", "street", "pedestrian", "highway", "path", "suburb", "neighbourhood"); road != "" {
			return city + " " + road, true
		}
		if landmark := first(address, "amenity", "building", "shop"); landmark != "" {
			return city + " " + landmark + "附近", true
		}
	}
	if displayName != "" {
		return strings.Split(displayName, ",")[0], true
	}
	return "", false
}

// CoordinateLabel is the fallback label when no lookup succeeds.
func CoordinateLabel(pos Position) string {
	return fmt.Sprintf("GPS coordinates (%.4f, %.4f)", pos.Latitude, pos.Longitude)
}

func first(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}
