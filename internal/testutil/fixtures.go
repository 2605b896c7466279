package testutil

import (
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/boardpass/internal/lookup"
	"github.com/MeKo-Tech/boardpass/internal/ticket"
	"gopkg.in/yaml.v3"
)

// SampleTickets returns a complete ticket, a sparse one holding only the
// flight code, and one whose booking name needs Latin-1 glyphs.
func SampleTickets() []ticket.Record {
	usd, pen := 120.5, 450.0
	return []ticket.Record{
		{
			PassengerName:   "Jane Doe",
			Email:           "jane@example.com",
			Phone:           "+51 999 888 777",
			FlightCode:      "LH401",
			ReservationDate: "2025-05-20",
			DepartureDate:   "2025-06-13T00:00:00",
			DepartureTime:   "08:30:00",
			ArrivalDate:     "2025-06-13",
			ArrivalTime:     "10:45:00",
			PriceUSD:        &usd,
			PricePEN:        &pen,
			PaymentType:     "Tarjeta",
		},
		{FlightCode: "XX999"},
		{
			PassengerName: "José Núñez",
			FlightCode:    "LA2040",
			DepartureDate: "2025-12-01",
			DepartureTime: "23:05",
		},
	}
}

// SampleFlights returns the flight list matching SampleTickets.
func SampleFlights() []lookup.Flight {
	return []lookup.Flight{
		{
			Code:          "LH401",
			DepartureDate: "2025-06-13",
			DepartureTime: "08:30:00",
			ArrivalDate:   "2025-06-13",
			ArrivalTime:   "10:45:00",
			OriginAirport: "LIM",
			OriginCountry: "Peru",
			Status:        "Programado",
		},
		{
			Code:          "LA2040",
			DepartureDate: "2025-12-01",
			DepartureTime: "23:05:00",
			OriginAirport: "CUZ",
			OriginCountry: "Peru",
			Status:        "Demorado",
		},
	}
}

// WriteFixtures writes a memory-store seed file into dir and returns its path.
func WriteFixtures(dir string, tickets []ticket.Record, flights []lookup.Flight) (string, error) {
	data, err := yaml.Marshal(lookup.Fixtures{Tickets: tickets, Flights: flights})
	if err != nil {
		return "", err
	}
	if err := EnsureDir(dir); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "tickets.yaml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

// WriteSampleFixtures writes SampleTickets and SampleFlights into dir.
func WriteSampleFixtures(dir string) (string, error) {
	return WriteFixtures(dir, SampleTickets(), SampleFlights())
}
