package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saviottt/solarcalc/internal/climate"
	"github.com/saviottt/solarcalc/internal/estimator"
	"github.com/saviottt/solarcalc/internal/predictor"
)

type fixedNormals struct {
	normals climate.Normals
	err     error
}

func (f fixedNormals) Normals(context.Context, climate.Location) (climate.Normals, error) {
	return f.normals, f.err
}

func testNormals() climate.Normals {
	n := make(climate.Normals)
	for _, m := range climate.Months() {
		n[m] = climate.MonthNormal{Temperature: 27, Humidity: 70, WindSpeed: 3}
	}
	return n
}

func newTestApp(src estimator.NormalsProvider, p predictor.Predictor) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(requestid.New())
	RegisterRoutes(app, estimator.NewEngine(src, p))
	return app
}

func constant(v float64) predictor.Predictor {
	return predictor.Func{S: predictor.SchemaClimateV2, F: func([]float64) (float64, error) { return v, nil }}
}

func postEstimate(t *testing.T, app *fiber.App, body string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/estimate", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp, decode(t, resp)
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func TestEstimateEndpoint(t *testing.T) {
	app := newTestApp(fixedNormals{normals: testNormals()}, constant(4.5))

	resp, out := postEstimate(t, app, `{"latitude": 10, "longitude": 76, "system_size_kw": 3, "monthly_consumption_kwh": 250}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, out)

	assert.Equal(t, 3875.24, out["yearly_energy_kwh"])
	assert.Equal(t, 24469.52, out["net_annual_benefit"])
	assert.Equal(t, 4.17, out["payback_years"])
	assert.Equal(t, "slab", out["tariff"])
	assert.NotEmpty(t, out["run_id"])
	assert.NotContains(t, out, "monthly")
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestEstimateEndpointMonthlyAndNullPayback(t *testing.T) {
	app := newTestApp(fixedNormals{normals: testNormals()}, constant(0))

	resp, out := postEstimate(t, app, `{"latitude": 10, "longitude": 76, "system_size_kw": 3, "monthly_consumption_kwh": 250, "report": "monthly"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode, out)

	assert.Contains(t, out, "payback_years")
	assert.Nil(t, out["payback_years"])
	months, ok := out["monthly"].([]any)
	require.True(t, ok)
	assert.Len(t, months, 12)
}

func TestEstimateEndpointErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    fixedNormals
		p      predictor.Predictor
		body   string
		status int
	}{
		{
			name:   "malformed body",
			src:    fixedNormals{normals: testNormals()},
			p:      constant(4.5),
			body:   `{"latitude":`,
			status: http.StatusBadRequest,
		},
		{
			name:   "validation",
			src:    fixedNormals{normals: testNormals()},
			p:      constant(4.5),
			body:   `{"latitude": 100, "longitude": 76, "system_size_kw": 3}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "fetch failure",
			src:    fixedNormals{err: fmt.Errorf("%w: timeout", climate.ErrFetchFailed)},
			p:      constant(4.5),
			body:   `{"latitude": 10, "longitude": 76, "system_size_kw": 3}`,
			status: http.StatusBadGateway,
		},
		{
			name:   "data missing",
			src:    fixedNormals{normals: climate.Normals{1: {Temperature: 20}}},
			p:      constant(4.5),
			body:   `{"latitude": 10, "longitude": 76, "system_size_kw": 3}`,
			status: http.StatusBadGateway,
		},
		{
			name:   "oversized system",
			src:    fixedNormals{normals: testNormals()},
			p:      constant(4.5),
			body:   `{"latitude": 10, "longitude": 76, "system_size_kw": 1e306, "monthly_consumption_kwh": 250}`,
			status: http.StatusBadRequest,
		},
		{
			name: "prediction failure",
			src:  fixedNormals{normals: testNormals()},
			p: predictor.Func{S: predictor.SchemaClimateV2, F: func([]float64) (float64, error) {
				return 0, fmt.Errorf("broken model")
			}},
			body:   `{"latitude": 10, "longitude": 76, "system_size_kw": 3}`,
			status: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(tt.src, tt.p)
			resp, out := postEstimate(t, app, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, true, out["error"])
			assert.NotEmpty(t, out["message"])
		})
	}
}

func TestIrradianceEndpoint(t *testing.T) {
	app := newTestApp(fixedNormals{normals: testNormals()}, constant(4.5))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/irradiance?latitude=10&longitude=76&month=1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode(t, resp)
	assert.Equal(t, float64(1), out["month"])
	assert.Equal(t, 4.57, out["corrected_irradiance_kwh_m2_day"])
	assert.Equal(t, 109.71, out["energy_kwh"])
}

func TestIrradianceEndpointValidation(t *testing.T) {
	app := newTestApp(fixedNormals{normals: testNormals()}, constant(4.5))

	for _, q := range []string{
		"longitude=76&month=1",
		"latitude=abc&longitude=76&month=1",
		"latitude=10&longitude=76",
		"latitude=10&longitude=76&month=x",
		"latitude=10&longitude=76&month=13",
		"latitude=10&longitude=76&month=1&tilt=91",
		"latitude=10&longitude=76&month=1&noct=abc",
	} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/irradiance?"+q, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}

func TestErrorHandlerLogsRequestID(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	failing := predictor.Func{S: predictor.SchemaClimateV2, F: func([]float64) (float64, error) {
		return 0, fmt.Errorf("broken model")
	}}
	app := newTestApp(fixedNormals{normals: testNormals()}, failing)

	resp, _ := postEstimate(t, app, `{"latitude": 10, "longitude": 76, "system_size_kw": 3}`)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	id := resp.Header.Get(fiber.HeaderXRequestID)
	require.NotEmpty(t, id)
	assert.Contains(t, buf.String(), "request failed")
	assert.Contains(t, buf.String(), "request_id="+id)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, StatusFor(fiber.ErrNotFound))
	assert.Equal(t, http.StatusBadRequest, StatusFor(fmt.Errorf("x: %w", estimator.ErrValidation)))
	assert.Equal(t, http.StatusBadGateway, StatusFor(climate.ErrDataMissing))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(predictor.ErrPrediction))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(fmt.Errorf("boom")))
}
