package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuswell/nutriscan/internal/cache"
	"github.com/campuswell/nutriscan/internal/config"
	"github.com/campuswell/nutriscan/internal/history"
	"github.com/campuswell/nutriscan/internal/ingredients"
	"github.com/campuswell/nutriscan/internal/lookup"
	"github.com/campuswell/nutriscan/internal/off"
	"github.com/campuswell/nutriscan/internal/types"
)

const testToken = "test-token"

func f(v float64) *float64 { return &v }

func testProduct() *types.Product {
	return &types.Product{
		Code:            "737628064502",
		ProductName:     "Rice Noodles",
		Brands:          "Thai Kitchen",
		NutritionGrades: "c",
		IngredientsText: "rice noodles, spinach",
		Nutriments: types.Nutriments{
			EnergyKcal100g: f(350),
			Proteins100g:   f(7),
			Sodium100g:     f(0.4),
		},
	}
}

func newTestServer(t *testing.T, withHistory bool) (*Server, *off.MockFetcher) {
	t.Helper()

	logger := config.NewTextLogger(io.Discard)

	cfg := &config.Config{}
	cfg.App.AuthToken = testToken

	fetcher := off.NewMockFetcher()
	svc := lookup.NewService(
		fetcher,
		ingredients.NewKeywordClassifier(),
		cache.NewMemory(),
		nil,
		lookup.Options{},
		logger,
	)

	var hist *history.Store
	if withHistory {
		var err error
		hist, err = history.NewStore(filepath.Join(t.TempDir(), "history.db"), logger)
		require.NoError(t, err)
		t.Cleanup(func() { hist.Close() })
	}

	return New(cfg, svc, hist, logger), fetcher
}

func doRequest(srv *Server, method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, false)

	// No token required.
	w := doRequest(srv, "GET", "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Ready)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestProductEndpoint_RequiresAuth(t *testing.T) {
	srv, _ := newTestServer(t, false)

	tests := []struct {
		name  string
		token string
	}{
		{name: "missing token", token: ""},
		{name: "wrong token", token: "nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(srv, "GET", "/v1/product/737628064502", tt.token)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
		})
	}
}

func TestProductEndpoint_Found(t *testing.T) {
	srv, fetcher := newTestServer(t, false)
	fetcher.SetProduct("737628064502", testProduct())

	w := doRequest(srv, "GET", "/v1/product/737628064502", testToken)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var result types.LookupResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "737628064502", result.Barcode)
	assert.Equal(t, "Rice Noodles", result.Name)
	assert.Equal(t, types.StatusFound, result.Status)
	assert.GreaterOrEqual(t, result.HealthScore, 0)
	assert.LessOrEqual(t, result.HealthScore, 100)
	assert.NotEmpty(t, result.Tier.Color)
}

func TestProductEndpoint_NotFound(t *testing.T) {
	srv, _ := newTestServer(t, false)

	w := doRequest(srv, "GET", "/v1/product/4006381333931", testToken)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.Error)
}

func TestProductEndpoint_UpstreamError(t *testing.T) {
	srv, fetcher := newTestServer(t, false)
	// Both the initial attempt and the retry fail.
	fetcher.QueueError(&off.TransportError{StatusCode: 500, Err: errors.New("boom")})
	fetcher.QueueError(&off.TransportError{StatusCode: 500, Err: errors.New("boom")})

	w := doRequest(srv, "GET", "/v1/product/737628064502", testToken)

	assert.Equal(t, http.StatusBadGateway, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "upstream_error", resp.Error)
}

func TestProductEndpoint_InvalidBarcode(t *testing.T) {
	srv, _ := newTestServer(t, false)

	tests := []string{"abc123", "12-34", "123456789012345678901"}
	for _, barcode := range tests {
		t.Run(barcode, func(t *testing.T) {
			w := doRequest(srv, "GET", "/v1/product/"+barcode, testToken)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestResetEndpoint(t *testing.T) {
	srv, fetcher := newTestServer(t, false)
	fetcher.SetProduct("737628064502", testProduct())

	doRequest(srv, "GET", "/v1/product/737628064502", testToken)

	w := doRequest(srv, "POST", "/v1/reset", testToken)
	assert.Equal(t, http.StatusOK, w.Code)

	assert.Nil(t, srv.svc.State().ScannedFood)
}

func TestHistoryEndpoint(t *testing.T) {
	srv, fetcher := newTestServer(t, true)
	fetcher.SetProduct("737628064502", testProduct())

	// The server's lookup service was built without a recorder, so seed
	// history directly the way the wiring layer would.
	state := srv.svc.LookupBarcode(t.Context(), "737628064502")
	require.NotNil(t, state.ScannedFood)
	require.NoError(t, srv.history.Record(t.Context(), state.ScannedFood))

	w := doRequest(srv, "GET", "/v1/history", testToken)

	require.Equal(t, http.StatusOK, w.Code)

	var resp HistoryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Scans, 1)
	assert.Equal(t, "737628064502", resp.Scans[0].Barcode)
	assert.Equal(t, "Rice Noodles", resp.Scans[0].Name)
}

func TestHistoryEndpoint_Disabled(t *testing.T) {
	srv, _ := newTestServer(t, false)

	w := doRequest(srv, "GET", "/v1/history", testToken)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHistoryEndpoint_InvalidLimit(t *testing.T) {
	srv, _ := newTestServer(t, true)

	for _, raw := range []string{"0", "-5", "abc"} {
		t.Run(raw, func(t *testing.T) {
			w := doRequest(srv, "GET", "/v1/history?limit="+raw, testToken)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestValidBarcode(t *testing.T) {
	assert.True(t, validBarcode("737628064502"))
	assert.True(t, validBarcode("12345678"))
	assert.False(t, validBarcode(""))
	assert.False(t, validBarcode("73762806450a"))
}
