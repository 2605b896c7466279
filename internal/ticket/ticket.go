// Package ticket resolves QR payloads into flight ticket records.
package ticket

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Record is a resolved flight ticket. Every field except FlightCode is
// optional; absent values are empty strings or nil prices.
type Record struct {
	PassengerName   string   `json:"nombre"                 yaml:"nombre"`
	Email           string   `json:"email"                  yaml:"email"`
	Phone           string   `json:"telefono"               yaml:"telefono"`
	FlightCode      string   `json:"codigoVuelo"            yaml:"codigoVuelo"`
	ReservationDate string   `json:"fechaReserva"           yaml:"fechaReserva"`
	DepartureDate   string   `json:"fechaSalida"            yaml:"fechaSalida"`
	DepartureTime   string   `json:"horaSalida"             yaml:"horaSalida"`
	ArrivalDate     string   `json:"fechaLlegada"           yaml:"fechaLlegada"`
	ArrivalTime     string   `json:"horaLlegada"            yaml:"horaLlegada"`
	PriceUSD        *float64 `json:"precioUSD,omitempty"    yaml:"precioUSD,omitempty"`
	PricePEN        *float64 `json:"precioPEN,omitempty"    yaml:"precioPEN,omitempty"`
	PaymentType     string   `json:"tipoPago"               yaml:"tipoPago"`
}

// Clone returns a copy of r that shares no price pointers with it.
func (r Record) Clone() Record {
	r.PriceUSD = clonePrice(r.PriceUSD)
	r.PricePEN = clonePrice(r.PricePEN)
	return r
}

func clonePrice(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// FormatPrice renders an optional price, "-" when absent.
func FormatPrice(p *float64) string {
	if p == nil {
		return "-"
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

// Lookup fetches a ticket by flight code. A nil record with a nil error, or
// ErrNotFound, means the key is unknown. Any other error means the lookup
// could not be performed.
type Lookup interface {
	Lookup(ctx context.Context, flightCode string) (*Record, error)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(ctx context.Context, flightCode string) (*Record, error)

// Lookup calls f.
func (f LookupFunc) Lookup(ctx context.Context, flightCode string) (*Record, error) {
	return f(ctx, flightCode)
}

var (
	// ErrNotFound reports that the lookup succeeded but no ticket matches.
	ErrNotFound = errors.New("ticket not found")

	// ErrEmptyPayload reports a blank QR payload.
	ErrEmptyPayload = errors.New("empty QR payload")

	// ErrLookupUnavailable is matched by every LookupError.
	ErrLookupUnavailable = errors.New("ticket lookup unavailable")
)

// LookupError wraps a failure of the lookup collaborator itself.
type LookupError struct {
	FlightCode string
	Err        error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("ticket lookup for %q failed: %v", e.FlightCode, e.Err)
}

func (e *LookupError) Is(target error) bool { return target == ErrLookupUnavailable }

func (e *LookupError) Unwrap() error { return e.Err }

// Resolver turns decoded QR payloads into ticket records with one lookup
// round trip. It does not retry or cache.
type Resolver struct {
	lookup Lookup
}

// NewResolver returns a Resolver backed by l.
func NewResolver(l Lookup) *Resolver {
	return &Resolver{lookup: l}
}

// Key derives the flight-code key from a QR payload. The payload is used
// verbatim apart from surrounding whitespace, which scanners and copy-paste
// add and no flight code contains. Inner spaces and case are kept.
func Key(payload string) string {
	return strings.TrimSpace(payload)
}

// Resolve looks up the ticket whose flight code is the payload.
func (r *Resolver) Resolve(ctx context.Context, payload string) (Record, error) {
	key := Key(payload)
	if key == "" {
		return Record{}, ErrEmptyPayload
	}

	rec, err := r.lookup.Lookup(ctx, key)
	switch {
	case errors.Is(err, ErrNotFound):
		return Record{}, fmt.Errorf("flight %s: %w", key, ErrNotFound)
	case err != nil:
		return Record{}, &LookupError{FlightCode: key, Err: err}
	case rec == nil || strings.TrimSpace(rec.FlightCode) == "":
		return Record{}, fmt.Errorf("flight %s: %w", key, ErrNotFound)
	}
	return rec.Clone(), nil
}
