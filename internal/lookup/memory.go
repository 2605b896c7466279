package lookup

import (
	"context"
	"fmt"
	"os"

	"github.com/MeKo-Tech/boardpass/internal/ticket"
	"gopkg.in/yaml.v3"
)

// Fixtures is the on-disk layout of a memory store seed file. JSON files
// parse too, JSON being a subset of YAML.
type Fixtures struct {
	Tickets []ticket.Record `yaml:"tickets"`
	Flights []Flight        `yaml:"flights"`
}

// Memory is a read-only store keyed by flight code.
type Memory struct {
	tickets map[string]ticket.Record
	flights []Flight
}

// NewMemory returns a store holding the given records.
func NewMemory(records ...ticket.Record) *Memory {
	m := &Memory{tickets: make(map[string]ticket.Record, len(records))}
	for _, r := range records {
		m.tickets[r.FlightCode] = r.Clone()
	}
	return m
}

// LoadMemory seeds a store from a fixtures file.
func LoadMemory(path string) (*Memory, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: fixtures path comes from configuration
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return ParseFixtures(data)
}

// ParseFixtures builds a store from fixture bytes.
func ParseFixtures(data []byte) (*Memory, error) {
	var fx Fixtures
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	for i, r := range fx.Tickets {
		if r.FlightCode == "" {
			return nil, fmt.Errorf("parse fixtures: ticket %d has no codigoVuelo", i)
		}
	}
	m := NewMemory(fx.Tickets...)
	m.flights = fx.Flights
	return m, nil
}

// Lookup returns a deep copy of the stored record, or nil when absent.
func (m *Memory) Lookup(_ context.Context, flightCode string) (*ticket.Record, error) {
	r, ok := m.tickets[flightCode]
	if !ok {
		return nil, nil
	}
	c := r.Clone()
	return &c, nil
}

// ListFlights returns the seeded flight list.
func (m *Memory) ListFlights(context.Context) ([]Flight, error) {
	return append([]Flight(nil), m.flights...), nil
}

// Len reports the number of stored tickets.
func (m *Memory) Len() int { return len(m.tickets) }

// Close is a no-op.
func (m *Memory) Close() error { return nil }
