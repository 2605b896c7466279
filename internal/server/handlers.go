package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MeKo-Tech/boardpass/internal/assets"
	"github.com/MeKo-Tech/boardpass/internal/barcode"
	"github.com/MeKo-Tech/boardpass/internal/boardingpass"
	"github.com/MeKo-Tech/boardpass/internal/document"
	"github.com/MeKo-Tech/boardpass/internal/ticket"
	"github.com/MeKo-Tech/boardpass/internal/utils"
	"github.com/gorilla/mux"
)

// maxRecordBytes bounds JSON ticket bodies.
const maxRecordBytes = 64 << 10

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: s.version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// scanHandler decodes the QR code in an uploaded image and resolves it.
func (s *Server) scanHandler(w http.ResponseWriter, r *http.Request) {
	limit := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeErrorResponse(w, http.StatusRequestEntityTooLarge, "too_large", "File too large", false)
			return
		}
		writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "Failed to parse form data", false)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "No image file provided", false)
		return
	}
	defer func() { _ = file.Close() }()
	uploadSizeBytes.Observe(float64(header.Size))

	data, err := io.ReadAll(file)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "Failed to read image data", false)
		return
	}
	img, err := utils.DecodeImageBytes(data)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_image", "Invalid image format", false)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	payload, rec, err := s.scan(ctx, img)
	if err != nil {
		scansTotal.WithLabelValues("upload", outcome(err)).Inc()
		s.writeError(w, r, err)
		return
	}
	scansTotal.WithLabelValues("upload", "found").Inc()
	writeJSON(w, http.StatusOK, TicketResponse{Success: true, Payload: payload, Result: newTicketView(rec)})
}

// ticketHandler serves the ticket information screen.
func (s *Server) ticketHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	rec, err := s.resolve(ctx, mux.Vars(r)["code"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, TicketResponse{Success: true, Result: newTicketView(rec)})
}

// boardingPassHandler resolves a code and returns the boarding pass PDF.
func (s *Server) boardingPassHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.requestContext(r)
	defer cancel()

	rec, err := s.resolve(ctx, mux.Vars(r)["code"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	opts, err := s.optionsFromQuery(r)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_request", err.Error(), false)
		return
	}
	s.writeBoardingPass(w, r, rec, opts)
}

// renderRecordHandler renders a boarding pass for a ticket posted as JSON.
func (s *Server) renderRecordHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRecordBytes)
	var rec ticket.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid ticket JSON: "+err.Error(), false)
		return
	}
	opts, err := s.optionsFromQuery(r)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "invalid_request", err.Error(), false)
		return
	}
	s.writeBoardingPass(w, r, rec, opts)
}

// flightsHandler lists flights when the configured lookup can.
func (s *Server) flightsHandler(w http.ResponseWriter, r *http.Request) {
	if s.flights == nil {
		writeErrorResponse(w, http.StatusNotImplemented, "not_implemented", "Flight listing is not available for this lookup backend", false)
		return
	}
	ctx, cancel := s.requestContext(r)
	defer cancel()

	flights, err := s.flights.ListFlights(ctx)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: list flights: %w", ticket.ErrLookupUnavailable, err))
		return
	}
	writeJSON(w, http.StatusOK, FlightsResponse{Success: true, Flights: flights, Count: len(flights)})
}

// passengersHandler is reserved for the per-flight passenger list.
func (s *Server) passengersHandler(w http.ResponseWriter, _ *http.Request) {
	writeErrorResponse(w, http.StatusNotImplemented, "not_implemented", "Passenger lists are not available", false)
}

// scan decodes a QR code and resolves its payload.
func (s *Server) scan(ctx context.Context, img image.Image) (string, ticket.Record, error) {
	res, err := s.decoder.Decode(ctx, img, barcode.Options{Formats: []barcode.Format{barcode.FormatQR}, TryHarder: true})
	if err != nil {
		return "", ticket.Record{}, err
	}
	rec, err := s.resolve(ctx, res.Value)
	return res.Value, rec, err
}

func (s *Server) resolve(ctx context.Context, payload string) (ticket.Record, error) {
	rec, err := s.resolver.Resolve(ctx, payload)
	lookupsTotal.WithLabelValues(outcome(err)).Inc()
	return rec, err
}

// writeBoardingPass renders into memory first so that failures still get a
// JSON error body.
func (s *Server) writeBoardingPass(w http.ResponseWriter, r *http.Request, rec ticket.Record, opts boardingpass.Options) {
	// A missing logo is not an error here; the renderer falls back to text.
	logo, _ := assets.Logo(s.logos)

	start := time.Now()
	var buf bytes.Buffer
	err := s.renderer.Render(&buf, rec, logo, opts)
	renderDuration.Observe(time.Since(start).Seconds())
	profile := string(opts.Profile)
	if profile == "" {
		profile = string(boardingpass.ProfileRounded)
	}
	if err != nil {
		rendersTotal.WithLabelValues(profile, "error").Inc()
		s.writeError(w, r, err)
		return
	}
	rendersTotal.WithLabelValues(profile, "success").Inc()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", boardingpass.FileName(rec)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		slog.Error("Failed to write boarding pass", "error", err, "request_id", requestIDFrom(r.Context()))
	}
}

// optionsFromQuery overlays profile, seat, group and booking query values
// on the configured render options.
func (s *Server) optionsFromQuery(r *http.Request) (boardingpass.Options, error) {
	opts := s.render
	q := r.URL.Query()
	if v := q.Get("profile"); v != "" {
		p, err := boardingpass.ParseProfile(v)
		if err != nil {
			return opts, err
		}
		opts.Profile = p
	}
	if v := strings.TrimSpace(q.Get("seat")); v != "" {
		opts.Seat = v
	}
	if v := strings.TrimSpace(q.Get("group")); v != "" {
		opts.Group = v
	}
	if v := strings.TrimSpace(q.Get("booking")); v != "" {
		opts.Booking = v
	}
	return opts, nil
}

func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), time.Duration(s.timeoutSec)*time.Second)
}

// errorStatus maps domain errors to HTTP status, error code and retryability.
func errorStatus(err error) (int, string, bool) {
	var sinkErr *document.SinkError
	switch {
	case errors.Is(err, barcode.ErrDecodeFailure):
		return http.StatusUnprocessableEntity, "decode_failure", false
	case errors.Is(err, ticket.ErrEmptyPayload):
		return http.StatusBadRequest, "invalid_request", false
	case errors.Is(err, ticket.ErrNotFound):
		return http.StatusNotFound, "not_found", false
	case errors.Is(err, ticket.ErrLookupUnavailable):
		return http.StatusServiceUnavailable, "lookup_unavailable", true
	case errors.Is(err, barcode.ErrUnencodable):
		return http.StatusUnprocessableEntity, "encoding_failure", false
	case errors.Is(err, boardingpass.ErrMissingFlightCode):
		return http.StatusBadRequest, "invalid_request", false
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout", true
	case errors.As(err, &sinkErr):
		return http.StatusInternalServerError, "sink_failure", false
	default:
		return http.StatusInternalServerError, "internal_error", false
	}
}

// outcome labels lookup and scan metrics.
func outcome(err error) string {
	switch {
	case err == nil:
		return "found"
	case errors.Is(err, barcode.ErrDecodeFailure):
		return "no_code"
	case errors.Is(err, ticket.ErrNotFound):
		return "not_found"
	case errors.Is(err, ticket.ErrLookupUnavailable):
		return "unavailable"
	default:
		return "invalid"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, retryable := errorStatus(err)
	id := requestIDFrom(r.Context())
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "error", err, "code", code, "request_id", id)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code, Retryable: retryable, RequestID: id})
}

// writeErrorResponse writes a JSON error response.
func writeErrorResponse(w http.ResponseWriter, status int, code, message string, retryable bool) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code, Retryable: retryable})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
