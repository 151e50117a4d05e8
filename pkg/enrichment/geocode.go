package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Geocoder resolves a Singapore postal code to a coordinate. Geocode
// returning an error is always a soft failure from the caller's
// perspective (spec §4.6 step 6: "on any failure, proceed without
// coordinates").
type Geocoder interface {
	Geocode(ctx context.Context, postalCode string) (GeoPoint, error)
}

// geocodeRequestsPerSecond keeps this pipeline a polite citizen of a
// public geocoding API, the same concern bobmcallan-vire's market-data
// clients rate-limit against with golang.org/x/time/rate.
const geocodeRequestsPerSecond = 3

// OneMapGeocoder calls Singapore's OneMap public search API (the default
// EnrichmentConfig.GeocodingURL) behind a process-lifetime TTL cache and a
// token-bucket rate limiter.
type OneMapGeocoder struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *geoCache
}

// NewOneMapGeocoder builds a geocoder against baseURL (EnrichmentConfig.
// GeocodingURL) with a cache of the given TTL.
func NewOneMapGeocoder(baseURL string, cacheTTL time.Duration) *OneMapGeocoder {
	return &OneMapGeocoder{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(geocodeRequestsPerSecond), 1),
		cache:      newGeoCache(cacheTTL),
	}
}

type oneMapResponse struct {
	Found   int `json:"found"`
	Results []struct {
		Latitude  string `json:"LATITUDE"`
		Longitude string `json:"LONGITUDE"`
	} `json:"results"`
}

// Geocode resolves a postal code to a coordinate, serving from cache when
// present. Any HTTP, rate-limit-wait, or parse failure is returned as an
// error for the caller to treat as a soft failure.
func (g *OneMapGeocoder) Geocode(ctx context.Context, postalCode string) (GeoPoint, error) {
	if point, ok := g.cache.get(postalCode); ok {
		return point, nil
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return GeoPoint{}, fmt.Errorf("geocode rate limit wait: %w", err)
	}

	reqURL := fmt.Sprintf("%s?searchVal=%s&returnGeom=Y&getAddrDetails=N&pageNum=1",
		g.baseURL, url.QueryEscape(postalCode))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("build geocode request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("geocode request for %s: %w", postalCode, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return GeoPoint{}, fmt.Errorf("geocode API returned HTTP %d for %s", resp.StatusCode, postalCode)
	}

	var parsed oneMapResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return GeoPoint{}, fmt.Errorf("decode geocode response: %w", err)
	}
	if parsed.Found == 0 || len(parsed.Results) == 0 {
		return GeoPoint{}, fmt.Errorf("no geocode results for %s", postalCode)
	}

	lat, err := strconv.ParseFloat(parsed.Results[0].Latitude, 64)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("parse latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(parsed.Results[0].Longitude, 64)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("parse longitude: %w", err)
	}

	point := GeoPoint{Lat: lat, Lon: lon}
	g.cache.set(postalCode, point)
	return point, nil
}
