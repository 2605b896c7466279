package server

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MeKo-Tech/boardpass/internal/assets"
	"github.com/MeKo-Tech/boardpass/internal/barcode"
	"github.com/MeKo-Tech/boardpass/internal/boardingpass"
	"github.com/MeKo-Tech/boardpass/internal/lookup"
	"github.com/MeKo-Tech/boardpass/internal/ticket"
	"github.com/stretchr/testify/require"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func janeDoe() ticket.Record {
	usd := 120.5
	return ticket.Record{
		PassengerName: "Jane Doe",
		Email:         "jane@example.com",
		FlightCode:    "LH401",
		DepartureDate: "2025-06-13T00:00:00",
		DepartureTime: "08:30:00",
		ArrivalDate:   "2025-06-13",
		ArrivalTime:   "10:45:00",
		PriceUSD:      &usd,
	}
}

func testConfig() Config {
	return Config{
		TimeoutSec: 5,
		Render: boardingpass.Options{
			Now: func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) },
		},
		Version: "test",
	}
}

// newTestServer serves janeDoe from memory with no logo.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	return NewServer(testConfig(), lookup.NewMemory(janeDoe()), assets.Static{})
}

func unavailableLookup() ticket.Lookup {
	return ticket.LookupFunc(func(context.Context, string) (*ticket.Record, error) {
		return nil, io.ErrUnexpectedEOF
	})
}

func qrPNG(t *testing.T, payload string) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, barcode.WriteQRPNG(&buf, payload, 240))
	return buf.Bytes()
}

func blankPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 120, 120))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// createMultipartRequest builds a POST with a single file field.
func createMultipartRequest(t *testing.T, url, field, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}
