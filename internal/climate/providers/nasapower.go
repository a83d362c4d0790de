package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/saviottt/solarcalc/internal/climate"
)

// NASAPowerBaseURL is the POWER climatology point endpoint.
const NASAPowerBaseURL = "https://power.larc.nasa.gov/api/temporal/climatology/point"

// POWER marks missing values with this fill value.
const powerFillValue = -999.0

const (
	paramTemperature = "T2M"
	paramHumidity    = "RH2M"
	paramWindSpeed   = "WS2M"
)

// NASAPowerProvider implements the climate.Source interface for NASA POWER.
type NASAPowerProvider struct {
	name    string
	baseURL string
	client  *http.Client
	circuit *gobreaker.CircuitBreaker
}

// NewNASAPowerProvider creates a provider. An empty baseURL selects the public
// POWER endpoint.
func NewNASAPowerProvider(client *http.Client, baseURL string) *NASAPowerProvider {
	if baseURL == "" {
		baseURL = NASAPowerBaseURL
	}
	return &NASAPowerProvider{
		name:    "nasapower",
		baseURL: baseURL,
		client:  client,
		circuit: newCircuitBreaker("nasapower"),
	}
}

func (p *NASAPowerProvider) Name() string {
	return p.name
}

func (p *NASAPowerProvider) Fetch(ctx context.Context, loc climate.Location) (climate.Normals, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("parameters", paramTemperature+","+paramHumidity+","+paramWindSpeed)
		values.Set("community", "RE")
		values.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', 4, 64))
		values.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', 4, 64))
		values.Set("format", "JSON")

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var payload struct {
		Properties struct {
			Parameter map[string]map[string]*float64 `json:"parameter"`
		} `json:"properties"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decoding %s response: %v", climate.ErrFetchFailed, p.name, err)
	}

	return parsePowerParameters(payload.Properties.Parameter)
}

// parsePowerParameters keeps every month that has all three parameters. A
// parameter block missing entirely is an error; individual missing months are
// left out for the caller to report.
func parsePowerParameters(params map[string]map[string]*float64) (climate.Normals, error) {
	for _, name := range []string{paramTemperature, paramHumidity, paramWindSpeed} {
		if _, ok := params[name]; !ok {
			return nil, fmt.Errorf("%w: parameter %s absent from payload", climate.ErrDataMissing, name)
		}
	}

	normals := make(climate.Normals, 12)
	for _, m := range climate.Months() {
		temp, okT := powerValue(params[paramTemperature], m)
		rh, okH := powerValue(params[paramHumidity], m)
		ws, okW := powerValue(params[paramWindSpeed], m)
		if !okT || !okH || !okW {
			continue
		}
		normals[m] = climate.MonthNormal{
			Temperature: temp,
			Humidity:    rh,
			WindSpeed:   ws,
		}
	}

	return normals, nil
}

func powerValue(series map[string]*float64, m climate.Month) (float64, bool) {
	v, ok := series[m.Code()]
	if !ok || v == nil || *v == powerFillValue {
		return 0, false
	}
	return *v, true
}
