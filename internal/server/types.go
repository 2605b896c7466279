package server

import (
	"log/slog"
	"net/http"

	"github.com/MeKo-Tech/boardpass/internal/assets"
	"github.com/MeKo-Tech/boardpass/internal/barcode"
	"github.com/MeKo-Tech/boardpass/internal/boardingpass"
	"github.com/MeKo-Tech/boardpass/internal/config"
	"github.com/MeKo-Tech/boardpass/internal/dateformat"
	"github.com/MeKo-Tech/boardpass/internal/lookup"
	"github.com/MeKo-Tech/boardpass/internal/ticket"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves ticket lookups and boarding passes over HTTP.
type Server struct {
	resolver    *ticket.Resolver
	flights     lookup.FlightLister
	decoder     barcode.Decoder
	renderer    *boardingpass.Renderer
	logos       assets.Source
	render      boardingpass.Options
	corsOrigin  string
	maxUploadMB int64
	// wsReadLimit caps a single websocket frame, matching the upload limit.
	wsReadLimit int64
	timeoutSec  int
	rateLimiter *RateLimiter
	version     string
}

// Config holds server configuration.
type Config struct {
	CORSOrigin  string
	MaxUploadMB int64
	TimeoutSec  int
	RateLimit   config.RateLimitConfig
	Render      boardingpass.Options
	Version     string
}

// ConfigFromSettings maps the loaded configuration file sections.
func ConfigFromSettings(c *config.Config, version string) Config {
	return Config{
		CORSOrigin:  c.Server.CORSOrigin,
		MaxUploadMB: int64(c.Server.MaxUploadMB),
		TimeoutSec:  c.Server.TimeoutSec,
		RateLimit:   c.Server.RateLimit,
		Render:      boardingpass.OptionsFromConfig(c.Render),
		Version:     version,
	}
}

// NewServer wires the lookup and the logo source into a server. Flight
// listing is available when the lookup also implements lookup.FlightLister.
func NewServer(cfg Config, lk ticket.Lookup, logos assets.Source) *Server {
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 10
	}
	if cfg.TimeoutSec <= 0 {
		cfg.TimeoutSec = 30
	}
	if cfg.CORSOrigin == "" {
		cfg.CORSOrigin = "*"
	}
	s := &Server{
		resolver:    ticket.NewResolver(lk),
		decoder:     barcode.NewDecoder(),
		logos:       logos,
		render:      cfg.Render,
		corsOrigin:  cfg.CORSOrigin,
		maxUploadMB: cfg.MaxUploadMB,
		wsReadLimit: cfg.MaxUploadMB << 20,
		timeoutSec:  cfg.TimeoutSec,
		rateLimiter: NewRateLimiterFromConfig(cfg.RateLimit),
		version:     cfg.Version,
	}
	if fl, ok := lk.(lookup.FlightLister); ok {
		s.flights = fl
	}
	s.renderer = boardingpass.NewRenderer(
		boardingpass.WithLogger(slog.Default()),
		boardingpass.WithFallbackHook(func(error) { logoFallbacksTotal.Inc() }),
	)
	return s
}

// Router builds the route table. Every API route also accepts OPTIONS so
// that the CORS middleware can answer preflight requests.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestIDMiddleware, s.corsMiddleware)

	r.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet, http.MethodOptions)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/ws/scan", s.scanWebSocketHandler).Methods(http.MethodGet)

	api := r.NewRoute().Subrouter()
	api.Use(s.rateLimitMiddleware)
	api.HandleFunc("/scan", s.scanHandler).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/tickets/{code}", s.ticketHandler).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/tickets/{code}/boarding-pass", s.boardingPassHandler).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/boarding-pass", s.renderRecordHandler).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/flights", s.flightsHandler).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/flights/{code}/passengers", s.passengersHandler).Methods(http.MethodGet, http.MethodOptions)

	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorResponse(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", false)
	})
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorResponse(w, http.StatusNotFound, "route_not_found", "No such endpoint", false)
	})
	return r
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     string `json:"error"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// TicketView is a ticket plus the values the ticket screen prints.
type TicketView struct {
	Ticket    ticket.Record `json:"ticket"`
	Departure string        `json:"departure"`
	Arrival   string        `json:"arrival"`
	Reserved  string        `json:"reserved"`
	PriceUSD  string        `json:"price_usd"`
	PricePEN  string        `json:"price_pen"`
}

// TicketResponse wraps a resolved ticket.
type TicketResponse struct {
	Success bool       `json:"success"`
	Payload string     `json:"payload,omitempty"`
	Result  TicketView `json:"result"`
}

// FlightsResponse lists known flights.
type FlightsResponse struct {
	Success bool            `json:"success"`
	Flights []lookup.Flight `json:"flights"`
	Count   int             `json:"count"`
}

func newTicketView(rec ticket.Record) TicketView {
	return TicketView{
		Ticket:    rec,
		Departure: displaySchedule(rec.DepartureDate, rec.DepartureTime),
		Arrival:   displaySchedule(rec.ArrivalDate, rec.ArrivalTime),
		Reserved:  dateformat.Format(dateformat.OrDash(rec.ReservationDate)),
		PriceUSD:  ticket.FormatPrice(rec.PriceUSD),
		PricePEN:  ticket.FormatPrice(rec.PricePEN),
	}
}

func displaySchedule(date, clock string) string {
	return dateformat.Format(dateformat.OrDash(date)) + " " + dateformat.ShortTime(dateformat.OrDash(clock))
}
