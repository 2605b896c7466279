package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MeKo-Tech/boardpass/internal/config"
	"github.com/MeKo-Tech/boardpass/internal/ticket"
)

// maxResponseBytes bounds API response bodies.
const maxResponseBytes = 4 << 20

// HTTP queries the flights REST API.
type HTTP struct {
	baseURL string
	client  *http.Client
}

// NewHTTP builds a client for cfg.BaseURL.
func NewHTTP(cfg config.HTTPConfig) (*HTTP, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid flights API base url %q", cfg.BaseURL)
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return NewHTTPWithClient(cfg.BaseURL, &http.Client{Timeout: timeout}), nil
}

// NewHTTPWithClient uses the given client, for tests and custom transports.
func NewHTTPWithClient(baseURL string, client *http.Client) *HTTP {
	return &HTTP{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// Lookup fetches GET {base}/tickets/{code}. 404 means not found.
func (h *HTTP) Lookup(ctx context.Context, flightCode string) (*ticket.Record, error) {
	body, status, err := h.get(ctx, "/tickets/"+url.PathEscape(flightCode))
	if err != nil {
		return nil, err
	}
	switch {
	case status == http.StatusNotFound:
		return nil, ticket.ErrNotFound
	case status != http.StatusOK:
		return nil, fmt.Errorf("ticket API returned status %d", status)
	}

	var rec ticket.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		return nil, fmt.Errorf("decode ticket response: %w", err)
	}
	return &rec, nil
}

// ListFlights fetches GET {base}/vuelos/getvuelos. The endpoint answers
// either with a bare array or with an object holding a "vuelos" array.
func (h *HTTP) ListFlights(ctx context.Context) ([]Flight, error) {
	body, status, err := h.get(ctx, "/vuelos/getvuelos")
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("flights API returned status %d", status)
	}
	return ParseFlights(body)
}

// ParseFlights decodes a flight list in either accepted shape.
func ParseFlights(body []byte) ([]Flight, error) {
	var flights []Flight
	arrErr := json.Unmarshal(body, &flights)
	if arrErr == nil {
		return flights, nil
	}

	var wrapped struct {
		Vuelos []Flight `json:"vuelos"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("decode flights response: %w", errors.Join(arrErr, err))
	}
	if wrapped.Vuelos == nil {
		return []Flight{}, nil
	}
	return wrapped.Vuelos, nil
}

func (h *HTTP) get(ctx context.Context, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+path, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read %s: %w", path, err)
	}
	return body, resp.StatusCode, nil
}

// Close releases idle connections.
func (h *HTTP) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
