// Package geocode resolves a city/country pair to coordinates.
package geocode

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/saviottt/solarcalc/internal/climate"
)

var (
	ErrNotConfigured = errors.New("geocoding is not configured")
	ErrNotFound      = errors.New("location not found")
)

// Resolver turns a place name into a location.
type Resolver interface {
	Resolve(ctx context.Context, city, country string) (climate.Location, error)
}

// lookupFunc matches geocoder.Geocoding.
type lookupFunc func(geocoder.Address) (geocoder.Location, error)

// Google resolves places through the Google Geocoding API.
type Google struct {
	mu     sync.Mutex
	apiKey string
	lookup lookupFunc
}

// NewGoogle creates a resolver with the given API key. An empty key yields a
// resolver that always fails with ErrNotConfigured.
func NewGoogle(apiKey string) *Google {
	return &Google{apiKey: apiKey, lookup: geocoder.Geocoding}
}

func (g *Google) Resolve(ctx context.Context, city, country string) (climate.Location, error) {
	if g == nil || g.apiKey == "" {
		return climate.Location{}, ErrNotConfigured
	}
	city, country = strings.TrimSpace(city), strings.TrimSpace(country)
	if city == "" {
		return climate.Location{}, fmt.Errorf("%w: city is required", ErrNotFound)
	}
	if err := ctx.Err(); err != nil {
		return climate.Location{}, err
	}

	// The geocoder package keys requests off a package-level variable.
	g.mu.Lock()
	geocoder.ApiKey = g.apiKey
	loc, err := g.lookup(geocoder.Address{City: city, Country: country})
	g.mu.Unlock()

	if err != nil {
		return climate.Location{}, fmt.Errorf("%w: %s, %s: %v", ErrNotFound, city, country, err)
	}
	if loc.Latitude == 0 && loc.Longitude == 0 {
		return climate.Location{}, fmt.Errorf("%w: %s, %s", ErrNotFound, city, country)
	}
	return climate.Location{Latitude: loc.Latitude, Longitude: loc.Longitude}, nil
}
