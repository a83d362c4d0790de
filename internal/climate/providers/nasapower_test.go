package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saviottt/solarcalc/internal/climate"
)

func powerPayload(t *testing.T, mutate func(params map[string]map[string]any)) []byte {
	t.Helper()

	params := map[string]map[string]any{
		"T2M":  {},
		"RH2M": {},
		"WS2M": {},
	}
	for i, m := range climate.Months() {
		params["T2M"][m.Code()] = 25.0 + float64(i)
		params["RH2M"][m.Code()] = 70.0
		params["WS2M"][m.Code()] = 3.0
	}
	params["T2M"]["ANN"] = 30.5

	if mutate != nil {
		mutate(params)
	}

	body, err := json.Marshal(map[string]any{
		"type": "Feature",
		"properties": map[string]any{
			"parameter": params,
		},
	})
	require.NoError(t, err)
	return body
}

func TestNASAPowerFetch(t *testing.T) {
	var gotQuery atomic.Value
	body := powerPayload(t, nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery.Store(r.URL.Query())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	p := NewNASAPowerProvider(srv.Client(), srv.URL)
	assert.Equal(t, "nasapower", p.Name())

	normals, err := p.Fetch(context.Background(), climate.Location{Latitude: 10, Longitude: 76.25})
	require.NoError(t, err)
	require.True(t, normals.Complete())

	jan, err := normals.Get(1)
	require.NoError(t, err)
	assert.Equal(t, climate.MonthNormal{Temperature: 25, Humidity: 70, WindSpeed: 3}, jan)

	dec, err := normals.Get(12)
	require.NoError(t, err)
	assert.Equal(t, 36.0, dec.Temperature)

	q := gotQuery.Load().(url.Values)
	assert.Equal(t, []string{"T2M,RH2M,WS2M"}, q["parameters"])
	assert.Equal(t, []string{"RE"}, q["community"])
	assert.Equal(t, []string{"10.0000"}, q["latitude"])
	assert.Equal(t, []string{"76.2500"}, q["longitude"])
}

func TestNASAPowerFetchPartialMonths(t *testing.T) {
	body := powerPayload(t, func(params map[string]map[string]any) {
		delete(params["RH2M"], "MAR")
		params["WS2M"]["JUL"] = -999.0
		params["T2M"]["SEP"] = nil
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	normals, err := NewNASAPowerProvider(srv.Client(), srv.URL).Fetch(context.Background(), climate.Location{})
	require.NoError(t, err)
	assert.Len(t, normals, 9)
	assert.False(t, normals.Complete())

	_, err = normals.Get(3)
	assert.ErrorIs(t, err, climate.ErrDataMissing)
	_, err = normals.Get(7)
	assert.ErrorIs(t, err, climate.ErrDataMissing)
	_, err = normals.Get(9)
	assert.ErrorIs(t, err, climate.ErrDataMissing)
}

func TestNASAPowerFetchMissingParameter(t *testing.T) {
	body := powerPayload(t, func(params map[string]map[string]any) {
		delete(params, "WS2M")
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	defer srv.Close()

	_, err := NewNASAPowerProvider(srv.Client(), srv.URL).Fetch(context.Background(), climate.Location{})
	assert.ErrorIs(t, err, climate.ErrDataMissing)
	assert.NotErrorIs(t, err, climate.ErrFetchFailed)
}

func TestNASAPowerFetchFailures(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := NewNASAPowerProvider(srv.Client(), srv.URL).Fetch(context.Background(), climate.Location{})
		assert.ErrorIs(t, err, climate.ErrFetchFailed)
		assert.Equal(t, int32(1), calls.Load(), "fetch must not retry")
	})

	t.Run("bad request", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
		}))
		defer srv.Close()

		_, err := NewNASAPowerProvider(srv.Client(), srv.URL).Fetch(context.Background(), climate.Location{})
		assert.ErrorIs(t, err, climate.ErrFetchFailed)
	})

	t.Run("undecodable body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>maintenance</html>"))
		}))
		defer srv.Close()

		_, err := NewNASAPowerProvider(srv.Client(), srv.URL).Fetch(context.Background(), climate.Location{})
		assert.ErrorIs(t, err, climate.ErrFetchFailed)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer srv.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := NewNASAPowerProvider(srv.Client(), srv.URL).Fetch(ctx, climate.Location{})
		assert.ErrorIs(t, err, climate.ErrFetchFailed)
	})

	t.Run("no client", func(t *testing.T) {
		_, err := NewNASAPowerProvider(nil, "http://127.0.0.1:0").Fetch(context.Background(), climate.Location{})
		assert.ErrorIs(t, err, climate.ErrFetchFailed)
	})
}

func TestNASAPowerCircuitOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := NewNASAPowerProvider(srv.Client(), srv.URL)
	for i := 0; i < 5; i++ {
		_, err := p.Fetch(context.Background(), climate.Location{})
		require.ErrorIs(t, err, climate.ErrFetchFailed)
	}

	_, err := p.Fetch(context.Background(), climate.Location{})
	assert.ErrorIs(t, err, climate.ErrFetchFailed)
	assert.Contains(t, err.Error(), "circuit breaker open")
	assert.Equal(t, int32(5), calls.Load())
}
