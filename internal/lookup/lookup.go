// Package lookup provides the ticket stores a Resolver can query: an
// in-memory fixture store, the flights HTTP API, MySQL and Redis.
package lookup

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/MeKo-Tech/boardpass/internal/config"
	"github.com/MeKo-Tech/boardpass/internal/ticket"
)

// Flight is one entry of the flight list.
type Flight struct {
	Code          string `json:"codigoVuelo"      yaml:"codigoVuelo"`
	DepartureDate string `json:"fechaSalida"      yaml:"fechaSalida"`
	DepartureTime string `json:"horaSalida"       yaml:"horaSalida"`
	ArrivalDate   string `json:"fechaLlegada"     yaml:"fechaLlegada"`
	ArrivalTime   string `json:"horaLlegada"      yaml:"horaLlegada"`
	OriginAirport string `json:"aeropuertoOrigen" yaml:"aeropuertoOrigen"`
	OriginCountry string `json:"paisOrigen"       yaml:"paisOrigen"`
	Status        string `json:"estadoVuelo"      yaml:"estadoVuelo"`
}

// FlightLister is implemented by stores that can list flights.
type FlightLister interface {
	ListFlights(ctx context.Context) ([]Flight, error)
}

// Store is a ticket lookup with a lifecycle.
type Store interface {
	ticket.Lookup
	io.Closer
}

// Open builds the store selected by cfg.Backend.
func Open(cfg config.LookupConfig) (Store, error) {
	switch strings.ToLower(cfg.Backend) {
	case "", BackendMemory:
		if cfg.FixturesFile == "" {
			return NewMemory(), nil
		}
		return LoadMemory(cfg.FixturesFile)
	case BackendHTTP:
		return NewHTTP(cfg.HTTP)
	case BackendMySQL:
		return OpenMySQL(cfg.MySQL)
	case BackendRedis:
		return NewRedis(cfg.Redis), nil
	default:
		return nil, fmt.Errorf("unknown lookup backend %q", cfg.Backend)
	}
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendHTTP   = "http"
	BackendMySQL  = "mysql"
	BackendRedis  = "redis"
)
