package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MeKo-Tech/boardpass/internal/assets"
	"github.com/MeKo-Tech/boardpass/internal/config"
	"github.com/MeKo-Tech/boardpass/internal/lookup"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	return resp
}

func TestHealthHandler(t *testing.T) {
	w := serve(newTestServer(t), httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "test", resp.Version)
	assert.NotEmpty(t, resp.Time)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestTicketHandler(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{name: "found", path: "/tickets/LH401", status: http.StatusOK},
		{name: "not found", path: "/tickets/XX999", status: http.StatusNotFound, code: "not_found"},
	}

	s := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(s, httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.Equal(t, tt.status, w.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, decodeError(t, w).Code)
				return
			}
			var resp TicketResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.True(t, resp.Success)
			assert.Equal(t, "Jane Doe", resp.Result.Ticket.PassengerName)
			assert.Equal(t, "13 Jun 2025 08:30", resp.Result.Departure)
			assert.Equal(t, "13 Jun 2025 10:45", resp.Result.Arrival)
			assert.Equal(t, "-", resp.Result.Reserved)
			assert.Equal(t, "120.5", resp.Result.PriceUSD)
			assert.Equal(t, "-", resp.Result.PricePEN)
		})
	}
}

func TestTicketHandlerLookupUnavailable(t *testing.T) {
	s := NewServer(testConfig(), unavailableLookup(), nil)
	w := serve(s, httptest.NewRequest(http.MethodGet, "/tickets/LH401", nil))

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "lookup_unavailable", resp.Code)
	assert.True(t, resp.Retryable)
	assert.NotEmpty(t, resp.RequestID)
}

func TestBoardingPassHandler(t *testing.T) {
	before := testutil.ToFloat64(logoFallbacksTotal)
	w := serve(newTestServer(t), httptest.NewRequest(http.MethodGet, "/tickets/LH401/boarding-pass?seat=12A", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="BoardingPass-Jane Doe-LH401.pdf"`, w.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))
	assert.InDelta(t, before+1, testutil.ToFloat64(logoFallbacksTotal), 0.001, "missing logo is counted")
}

func TestBoardingPassHandlerIsDeterministic(t *testing.T) {
	s := newTestServer(t)
	a := serve(s, httptest.NewRequest(http.MethodGet, "/tickets/LH401/boarding-pass", nil))
	b := serve(s, httptest.NewRequest(http.MethodGet, "/tickets/LH401/boarding-pass", nil))
	require.Equal(t, http.StatusOK, a.Code)
	assert.Equal(t, a.Body.Bytes(), b.Body.Bytes())
}

func TestBoardingPassHandlerErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{name: "unknown code", path: "/tickets/XX999/boarding-pass", status: http.StatusNotFound, code: "not_found"},
		{name: "bad profile", path: "/tickets/LH401/boarding-pass?profile=poster", status: http.StatusBadRequest, code: "invalid_request"},
		{name: "unencodable booking", path: "/tickets/LH401/boarding-pass?booking=Reserva%20%C3%91", status: http.StatusUnprocessableEntity, code: "encoding_failure"},
	}

	s := newTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(s, httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestRenderRecordHandler(t *testing.T) {
	s := newTestServer(t)

	body, err := json.Marshal(janeDoe())
	require.NoError(t, err)
	w := serve(s, httptest.NewRequest(http.MethodPost, "/boarding-pass?profile=classic", bytes.NewReader(body)))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")))

	w = serve(s, httptest.NewRequest(http.MethodPost, "/boarding-pass", strings.NewReader(`{"nombre":"Jane Doe"}`)))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request", decodeError(t, w).Code)

	w = serve(s, httptest.NewRequest(http.MethodPost, "/boarding-pass", strings.NewReader(`{not json`)))
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScanHandler(t *testing.T) {
	s := newTestServer(t)

	t.Run("qr resolves", func(t *testing.T) {
		w := serve(s, createMultipartRequest(t, "/scan", "image", "ticket.png", qrPNG(t, "LH401")))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var resp TicketResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "LH401", resp.Payload)
		assert.Equal(t, "Jane Doe", resp.Result.Ticket.PassengerName)
	})

	t.Run("qr with unknown code", func(t *testing.T) {
		w := serve(s, createMultipartRequest(t, "/scan", "image", "ticket.png", qrPNG(t, "ZZ000")))
		require.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "not_found", decodeError(t, w).Code)
	})

	t.Run("no code in image", func(t *testing.T) {
		w := serve(s, createMultipartRequest(t, "/scan", "image", "blank.png", blankPNG(t)))
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "decode_failure", decodeError(t, w).Code)
	})

	t.Run("not an image", func(t *testing.T) {
		w := serve(s, createMultipartRequest(t, "/scan", "image", "notes.txt", []byte("hello")))
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid_image", decodeError(t, w).Code)
	})

	t.Run("missing file field", func(t *testing.T) {
		w := serve(s, createMultipartRequest(t, "/scan", "photo", "ticket.png", qrPNG(t, "LH401")))
		require.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		w := serve(s, httptest.NewRequest(http.MethodGet, "/scan", nil))
		require.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Equal(t, "method_not_allowed", decodeError(t, w).Code)
	})
}

func TestFlightsHandler(t *testing.T) {
	mem, err := lookup.ParseFixtures([]byte(`
tickets:
  - codigoVuelo: LH401
    nombre: Jane Doe
flights:
  - codigoVuelo: LH401
    fechaSalida: "2025-06-13"
    aeropuertoOrigen: LIM
    estadoVuelo: A tiempo
`))
	require.NoError(t, err)

	s := NewServer(testConfig(), mem, assets.Static{})
	w := serve(s, httptest.NewRequest(http.MethodGet, "/flights", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var resp FlightsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "LIM", resp.Flights[0].OriginAirport)

	s = NewServer(testConfig(), unavailableLookup(), nil)
	w = serve(s, httptest.NewRequest(http.MethodGet, "/flights", nil))
	assert.Equal(t, http.StatusNotImplemented, w.Code)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/flights/LH401/passengers", nil))
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.Equal(t, "not_implemented", decodeError(t, w).Code)
}

func TestCORSAndRequestID(t *testing.T) {
	s := newTestServer(t)

	w := serve(s, httptest.NewRequest(http.MethodOptions, "/tickets/LH401", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Body.String())

	w = serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/tickets/XX999", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = serve(s, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "abc-123", decodeError(t, w).RequestID)
}

func TestUnknownRoute(t *testing.T) {
	w := serve(newTestServer(t), httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "route_not_found", decodeError(t, w).Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1}
	s := NewServer(cfg, lookup.NewMemory(janeDoe()), nil)

	w := serve(s, httptest.NewRequest(http.MethodGet, "/tickets/LH401", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/tickets/LH401", nil))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "minute", w.Header().Get("X-RateLimit-Type"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	resp := decodeError(t, w)
	assert.Equal(t, "rate_limit_exceeded", resp.Code)
	assert.True(t, resp.Retryable)

	w = serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code, "health is not rate limited")
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	serve(s, httptest.NewRequest(http.MethodGet, "/tickets/LH401", nil))

	w := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `boardpass_http_requests_total{method="GET",route="/tickets/{code}",status="200"}`)
	assert.Contains(t, w.Body.String(), "boardpass_ticket_lookups_total")
}

func TestConfigFromSettings(t *testing.T) {
	c := config.DefaultConfig()
	c.Server.MaxUploadMB = 3
	c.Render.Seat = "1A"
	sc := ConfigFromSettings(&c, "v1")
	assert.Equal(t, int64(3), sc.MaxUploadMB)
	assert.Equal(t, "1A", sc.Render.Seat)
	assert.Equal(t, "v1", sc.Version)
}
