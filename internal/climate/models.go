package climate

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	// ErrFetchFailed is returned when the climate source is unreachable or
	// answers with something other than a usable payload.
	ErrFetchFailed = errors.New("climate fetch failed")
	// ErrDataMissing is returned when a fetch succeeded but a required month or
	// parameter is absent.
	ErrDataMissing = errors.New("climate data missing")
)

// Month is a calendar month, 1 (January) to 12 (December).
type Month int

var monthCodes = [...]string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN", "JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}

// No leap-year adjustment.
var monthDays = [...]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// Months lists all calendar months in order.
func Months() []Month {
	ms := make([]Month, 12)
	for i := range ms {
		ms[i] = Month(i + 1)
	}
	return ms
}

func (m Month) Valid() bool {
	return m >= 1 && m <= 12
}

// Code returns the three-letter token used by climatology payloads (JAN..DEC).
func (m Month) Code() string {
	if !m.Valid() {
		return ""
	}
	return monthCodes[m-1]
}

// Days returns the Gregorian length of the month, February being 28.
func (m Month) Days() int {
	if !m.Valid() {
		return 0
	}
	return monthDays[m-1]
}

// MonthFromCode parses a JAN..DEC token.
func MonthFromCode(code string) (Month, bool) {
	for i, c := range monthCodes {
		if strings.EqualFold(c, code) {
			return Month(i + 1), true
		}
	}
	return 0, false
}

// Location is a point on the globe in WGS84 degrees.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Key returns a canonical string key for indexing this location in stores.
// Coordinates are rounded to four decimals (about 11 m).
func (l Location) Key() string {
	return fmt.Sprintf("%.4f:%.4f", l.Latitude, l.Longitude)
}

// ParseLocations parses "lat,lon;lat,lon" lists.
func ParseLocations(s string) ([]Location, error) {
	var locs []Location
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		coords := strings.Split(part, ",")
		if len(coords) != 2 {
			return nil, fmt.Errorf("invalid location %q: expected lat,lon", part)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(coords[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in %q: %w", part, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(coords[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in %q: %w", part, err)
		}
		if math.Abs(lat) > 90 || math.Abs(lon) > 180 {
			return nil, fmt.Errorf("location %q out of range", part)
		}
		locs = append(locs, Location{Latitude: lat, Longitude: lon})
	}
	return locs, nil
}

// MonthNormal holds the climatological averages for one month.
type MonthNormal struct {
	Temperature float64 `json:"temperature_c"`    // T2M
	Humidity    float64 `json:"humidity_percent"` // RH2M
	WindSpeed   float64 `json:"wind_speed_ms"`    // WS2M
}

// Normals maps calendar months to their averages. It is read-only once fetched.
type Normals map[Month]MonthNormal

// Get returns the normals for m, or ErrDataMissing.
func (n Normals) Get(m Month) (MonthNormal, error) {
	v, ok := n[m]
	if !ok {
		return MonthNormal{}, fmt.Errorf("%w: no normals for %s", ErrDataMissing, monthLabel(m))
	}
	return v, nil
}

func monthLabel(m Month) string {
	if c := m.Code(); c != "" {
		return c
	}
	return fmt.Sprintf("month %d", int(m))
}

// Complete reports whether every calendar month is present.
func (n Normals) Complete() bool {
	for _, m := range Months() {
		if _, ok := n[m]; !ok {
			return false
		}
	}
	return true
}
